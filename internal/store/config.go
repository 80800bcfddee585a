package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"slate-cli/internal/canvas"
)

type GlobalConfig struct {
	// CurrentDocument is the uuid used when no --doc is given.
	CurrentDocument string `json:"currentDocument,omitempty"`

	// LibraryPath overrides the library file location. Relative paths are
	// resolved against the config directory.
	LibraryPath string `json:"libraryPath,omitempty"`

	// HistorySize caps the number of undo steps kept per document.
	HistorySize int `json:"historySize,omitempty"`
}

// EffectiveHistorySize returns HistorySize, or the canvas default when unset.
func (c *GlobalConfig) EffectiveHistorySize() int {
	if c == nil || c.HistorySize <= 0 {
		return canvas.HistorySize
	}
	return c.HistorySize
}

// ResolveLibraryPath returns the library file this config points at.
func (c *GlobalConfig) ResolveLibraryPath() (string, error) {
	if c == nil || strings.TrimSpace(c.LibraryPath) == "" {
		return DefaultLibraryPath()
	}
	p := strings.TrimSpace(c.LibraryPath)
	if filepath.IsAbs(p) {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, p), nil
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.slate).
	if v := strings.TrimSpace(os.Getenv("SLATE_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".slate"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// A unique temp name keeps a CLI command and a running browser from
	// clobbering each other's writes.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}
