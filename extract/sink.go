package extract

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
)

// Sink persists extracted entries.
type Sink interface {
	// WriteFile stores data at name, a clean slash separated relative path.
	WriteFile(name string, data []byte) error
}

// FileSink writes entries into a billy filesystem.
//
// Files are written to a temporary file in the same directory, then renamed
// over the final path, so a partially written entry is never visible under
// its own name. An existing file at the final path is replaced.
type FileSink struct {
	fs   billy.Filesystem
	perm os.FileMode
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithDirPerm sets the mode for directories created on demand.
func WithDirPerm(perm os.FileMode) FileSinkOption {
	return func(s *FileSink) {
		s.perm = perm
	}
}

// NewFileSink creates a FileSink rooted at fs.
func NewFileSink(fs billy.Filesystem, opts ...FileSinkOption) *FileSink {
	s := &FileSink{
		fs:   fs,
		perm: 0o755,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WriteFile creates parent directories as needed and atomically replaces name.
func (s *FileSink) WriteFile(name string, data []byte) error {
	dir := path.Dir(name)
	if dir != "." {
		if err := s.fs.MkdirAll(dir, s.perm); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tempFile, err := s.fs.TempFile(dir, ".extract-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = s.fs.Remove(tempPath)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = s.fs.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	// not every billy filesystem renames over an existing file
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = s.fs.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	if err := s.fs.Rename(tempPath, name); err != nil {
		_ = s.fs.Remove(tempPath)
		return fmt.Errorf("rename to %s: %w", name, err)
	}
	return nil
}
