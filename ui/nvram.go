package ui

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// NVRAMStore keeps one non-volatile memory image in a file.
type NVRAMStore struct {
	fs   afero.Fs
	path string
	size int
}

// NewNVRAMStore returns a store for images of exactly size bytes.
func NewNVRAMStore(fs afero.Fs, path string, size int) *NVRAMStore {
	return &NVRAMStore{fs: fs, path: path, size: size}
}

// Path returns the file the store uses.
func (s *NVRAMStore) Path() string {
	return s.path
}

// Load reads the image. A missing file is not an error: found is false
// and the board keeps its factory contents.
func (s *NVRAMStore) Load() (data []byte, found bool, err error) {
	ok, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return nil, false, fmt.Errorf("nvram %s: %w", s.path, err)
	}
	if !ok {
		return nil, false, nil
	}
	data, err = afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, false, fmt.Errorf("nvram %s: %w", s.path, err)
	}
	if len(data) != s.size {
		return nil, false, fmt.Errorf("nvram %s: %d bytes, want %d", s.path, len(data), s.size)
	}
	return data, true, nil
}

// Save writes the image through a temporary file so a failed write
// never leaves a truncated image behind.
func (s *NVRAMStore) Save(data []byte) error {
	if len(data) != s.size {
		return fmt.Errorf("nvram %s: %d bytes, want %d", s.path, len(data), s.size)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("nvram %s: %w", s.path, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("nvram %s: %w", s.path, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("nvram %s: %w", s.path, err)
	}
	return nil
}
