package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Chunk is one produced segment read fully into memory. Data marshals
// to base64 under encoding/json, which is exactly the wire format.
type Chunk struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

// Collect gathers the transcoder's output files from dir: every entry
// whose name starts with the output prefix, read fully, tagged with the
// fixed output media type. The returned order is by filename ascending —
// decided by the directory listing, not by read completion — which
// matches ascending segment index given the zero-padded pattern.
// Any unreadable chunk fails the whole collection; silently dropping one
// would corrupt the result.
func Collect(dir string) ([]Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list workspace: %w", err)
	}

	// os.ReadDir sorts by filename.
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), OutputPrefix) {
			names = append(names, e.Name())
		}
	}

	chunks := make([]Chunk, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			b, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("read chunk %s: %w", name, err)
			}
			chunks[i] = Chunk{Name: name, MIME: OutputMIME, Data: b}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}
