package workspace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/artifactpub/internal/foundation/errors"
	"git.home.luguber.info/inful/artifactpub/internal/logfields"
)

// Tree is a working tree location plus its ownership marker.
type Tree struct {
	Path  string
	Owned bool
}

// Manager handles the working trees of one run.
type Manager struct {
	baseDir string
	trees   []*Tree
}

// NewManager creates a workspace manager rooted at baseDir ("." when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = "."
	}
	return &Manager{baseDir: baseDir}
}

// Create ensures the base directory exists.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	return nil
}

// GetPath returns the base directory.
func (m *Manager) GetPath() string {
	return m.baseDir
}

// Claim reserves baseDir/name for this run. The tree is owned when nothing was
// there or the directory was empty; a populated directory is left unowned.
func (m *Manager) Claim(name string) (*Tree, error) {
	path := filepath.Join(m.baseDir, name)
	empty, err := isEmptyOrMissing(path)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	tree := &Tree{Path: path, Owned: empty}
	m.trees = append(m.trees, tree)
	if !empty {
		slog.Warn("Working tree location already has content", logfields.Path(path))
	}
	return tree, nil
}

// Trees returns every claimed tree in claim order.
func (m *Manager) Trees() []*Tree {
	return m.trees
}

// Cleanup removes every owned tree. Failures are collected into a single
// cleanup-category error; unowned trees are never touched.
func (m *Manager) Cleanup() error {
	var errs []error
	for _, tree := range m.trees {
		if !tree.Owned {
			slog.Debug("Skipping cleanup of unowned tree", logfields.Path(tree.Path))
			continue
		}
		if err := os.RemoveAll(tree.Path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", tree.Path, err))
			continue
		}
		slog.Info("Cleaned up working tree", logfields.Path(tree.Path))
	}
	if len(errs) == 0 {
		return nil
	}
	return ferrors.CleanupError("failed to remove working trees").
		WithCause(errors.Join(errs...)).
		WithContext("path", m.baseDir).
		Build()
}

func isEmptyOrMissing(path string) (bool, error) {
	f, err := os.Open(path) // #nosec G304 -- path derives from validated configuration
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}
	if _, err := f.Readdirnames(1); errors.Is(err, io.EOF) {
		return true, nil
	} else if err != nil {
		return false, err
	}
	return false, nil
}
