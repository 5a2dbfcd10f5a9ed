// Package backend defines the capability set every archive reader exposes to
// the extraction driver, plus the registry used to pick one at startup.
package backend

import (
	"io"

	"github.com/goopsie/assetExtract/sniff"
)

// Backend reads entries out of one archive family.
type Backend interface {
	// EntryCount returns the number of readable entries.
	EntryCount() int

	// ReadEntry returns the bytes of entry index. It fails with
	// ErrIndexOutOfRange or a *CorruptEntryError.
	ReadEntry(index int) ([]byte, error)

	// FilenameFor returns the archive-declared name of entry index, given
	// the sniffed extension and data type. ok is false when the backend has
	// no name metadata for the entry.
	FilenameFor(index int, ext string, dt sniff.DataType) (name string, ok bool)

	// LoadFileList loads name metadata from path.
	LoadFileList(path string) error

	// Close releases file handles and buffers held by the backend.
	io.Closer
}

// Config carries the already-resolved settings a Builder needs.
type Config struct {
	GameDirs    []string
	PackageName string
}
