// Package workspace manages per-request scratch directories. Every
// acquired workspace is owned by exactly one request and must be
// released on every exit path.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager creates and destroys uniquely named directories under a
// configured temp root.
type Manager struct {
	root string
	log  zerolog.Logger
}

// NewManager returns a Manager rooted at root. If root is empty the
// system temp directory is used.
func NewManager(root string, log zerolog.Logger) *Manager {
	if root == "" {
		root = os.TempDir()
	}
	return &Manager{root: root, log: log.With().Str("component", "workspace").Logger()}
}

// Root returns the configured temp root.
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a new empty directory with a unique name and returns
// its path. The caller must Release it exactly once.
func (m *Manager) Acquire() (string, error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return "", fmt.Errorf("create temp root: %w", err)
	}
	dir := filepath.Join(m.root, "chunkd-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	m.log.Debug().Str("dir", dir).Msg("workspace acquired")
	return dir, nil
}

// Release removes the workspace and everything in it. Removal failures
// are logged, not returned: by the time Release runs the request outcome
// is already decided.
func (m *Manager) Release(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		m.log.Error().Err(err).Str("dir", dir).Msg("workspace release failed")
		return
	}
	m.log.Debug().Str("dir", dir).Msg("workspace released")
}
