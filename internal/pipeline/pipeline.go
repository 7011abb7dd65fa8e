// Package pipeline wires the request-to-segments stages together:
// extract → workspace → transcode → collect. One pass per request,
// strictly sequential, with guaranteed workspace cleanup.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/snarg/chunkd/internal/metrics"
	"github.com/snarg/chunkd/internal/multipart"
	"github.com/snarg/chunkd/internal/segment"
	"github.com/snarg/chunkd/internal/workspace"
)

// FileField is the multipart form field carrying the upload.
const FileField = "audioFile"

// Pipeline holds the per-process collaborators. All of them are
// read-only after construction; nothing is shared mutably across
// requests except the workspace each request owns exclusively.
type Pipeline struct {
	workspaces *workspace.Manager
	segmenter  *segment.Segmenter
	log        zerolog.Logger
}

// New assembles a Pipeline.
func New(ws *workspace.Manager, seg *segment.Segmenter, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		workspaces: ws,
		segmenter:  seg,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// Process runs the whole pipeline over one raw request body and returns
// the ordered chunk list. The workspace is released on every exit path.
func (p *Pipeline) Process(ctx context.Context, body []byte, contentType string, seconds int) ([]segment.Chunk, error) {
	file, err := multipart.Extract(body, contentType, FileField)
	if err != nil {
		return nil, err
	}
	if len(file.Data) == 0 {
		return nil, &multipart.ValidationError{Reason: multipart.ReasonEmptyFile}
	}
	metrics.UploadBytes.Observe(float64(len(file.Data)))

	dir, err := p.workspaces.Acquire()
	if err != nil {
		return nil, err
	}
	defer p.workspaces.Release(dir)

	if err := p.segmenter.Run(ctx, dir, file.Data, file.Filename, seconds); err != nil {
		return nil, err
	}

	chunks, err := segment.Collect(dir)
	if err != nil {
		return nil, err
	}

	metrics.ChunksProducedTotal.Add(float64(len(chunks)))
	p.log.Info().
		Str("filename", file.Filename).
		Int("upload_bytes", len(file.Data)).
		Int("segment_seconds", seconds).
		Int("chunks", len(chunks)).
		Msg("split complete")
	return chunks, nil
}
