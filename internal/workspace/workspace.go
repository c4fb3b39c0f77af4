package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// Manager owns the scratch directory that clone fetches check out into.
// Each fetch gets its own uniquely named checkout, so concurrent requests
// for the same repository never collide.
type Manager struct {
	baseDir string
	keep    bool
	log     *slog.Logger
}

// NewManager creates a manager rooted at baseDir, defaulting under the
// system temp directory. With keep set, released checkouts are retained.
func NewManager(baseDir string, keep bool, log *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "repowiki")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{baseDir: baseDir, keep: keep, log: log}
}

// Dir returns the workspace root.
func (m *Manager) Dir() string { return m.baseDir }

// Ensure creates the workspace root.
func (m *Manager) Ensure() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	return nil
}

// Checkout creates an empty uniquely named directory for one repository.
func (m *Manager) Checkout(owner, repo string) (string, error) {
	if err := m.Ensure(); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(m.baseDir, owner+"-"+repo+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create checkout directory: %w", err)
	}
	m.log.Debug("created workspace checkout", logfields.Path(dir))
	return dir, nil
}

// Release removes one checkout, honoring keep. Failures are logged, not
// returned: a leaked scratch directory never fails a fetch.
func (m *Manager) Release(path string) {
	if path == "" {
		return
	}
	if m.keep {
		m.log.Debug("keeping workspace checkout", logfields.Path(path))
		return
	}
	if err := os.RemoveAll(path); err != nil {
		m.log.Warn("failed to remove workspace checkout", logfields.Path(path), logfields.Error(err))
	}
}

// Clean removes every entry under the workspace root.
func (m *Manager) Clean() error {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read workspace directory: %w", err)
	}
	for _, e := range entries {
		path := filepath.Join(m.baseDir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	m.log.Info("workspace cleaned", logfields.Path(m.baseDir))
	return nil
}
