package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const workspacePrefix = "pdfocr"

// workspace is a scratch directory owned by a single document run.
type workspace struct {
	dir string
}

// newWorkspace creates <root>/pdfocr-<unixnano>-<random>. Mkdir fails on an
// existing name, so two runs can never share a directory.
func newWorkspace(root string) (*workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	name := fmt.Sprintf("%s-%d-%s", workspacePrefix, time.Now().UnixNano(), uuid.NewString()[:8])
	dir := filepath.Join(root, name)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &workspace{dir: dir}, nil
}

// release deletes whatever is left in the workspace and then the directory.
// It never fails: leftovers are logged and skipped.
func (w *workspace) release(log zerolog.Logger) {
	entries, err := os.ReadDir(w.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("workspace", w.dir).Msg("Could not list temp workspace")
	}
	for _, entry := range entries {
		path := filepath.Join(w.dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("Could not delete workspace file")
		}
	}

	if err := os.Remove(w.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("workspace", w.dir).Msg("Could not remove temp workspace")
	}
}
