// Package loose serves already unpacked game files from one or more
// directory trees. Files named by a hex KTID are renamed through a NAME table
// loaded with LoadFileList.
package loose

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/goopsie/assetExtract/backend"
	"github.com/goopsie/assetExtract/nametable"
	"github.com/goopsie/assetExtract/sniff"
)

type file struct {
	root billy.Filesystem
	path string // slash separated, relative to root
}

// Backend enumerates every regular file under its roots.
type Backend struct {
	roots  []billy.Filesystem
	files  []file
	names  *nametable.Table
	logger *slog.Logger
}

var _ backend.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder returns a backend.Builder rooted at every cfg.GameDirs entry.
func Builder(opts ...Option) backend.Builder {
	return func(cfg backend.Config) (backend.Backend, error) {
		if len(cfg.GameDirs) == 0 {
			return nil, fmt.Errorf("loose: no game directory given")
		}
		roots := make([]billy.Filesystem, len(cfg.GameDirs))
		for i, dir := range cfg.GameDirs {
			roots[i] = osfs.New(dir)
		}
		return New(roots, opts...)
	}
}

// New walks every root and indexes its files. Entries are ordered by root,
// then by path.
func New(roots []billy.Filesystem, opts ...Option) (*Backend, error) {
	b := &Backend{
		roots:  roots,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, root := range roots {
		var paths []string
		err := util.Walk(root, "/", func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.Mode().IsRegular() {
				paths = append(paths, strings.TrimPrefix(path.Clean("/"+filepathToSlash(p)), "/"))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root.Root(), err)
		}
		slices.Sort(paths)
		for _, p := range paths {
			b.files = append(b.files, file{root: root, path: p})
		}
	}

	b.logger.Debug("indexed loose files", slog.Int("roots", len(roots)), slog.Int("files", len(b.files)))
	return b, nil
}

// EntryCount returns the number of indexed files.
func (b *Backend) EntryCount() int {
	return len(b.files)
}

// ReadEntry reads the whole file.
func (b *Backend) ReadEntry(index int) ([]byte, error) {
	if err := backend.CheckIndex(index, len(b.files)); err != nil {
		return nil, err
	}
	f := b.files[index]
	data, err := util.ReadFile(f.root, f.path)
	if err != nil {
		return nil, backend.Corrupt(index, "read "+f.path, err)
	}
	return data, nil
}

// FilenameFor returns the file's relative path. When the base name (without
// extension) is a hex KTID known to the loaded name table, the base is
// replaced by the table's name and ext.
func (b *Backend) FilenameFor(index int, ext string, _ sniff.DataType) (string, bool) {
	if index < 0 || index >= len(b.files) {
		return "", false
	}
	p := b.files[index].path
	if b.names == nil {
		return p, true
	}

	dir, base := path.Split(p)
	stem := base
	if i := strings.IndexByte(base, '.'); i >= 0 {
		stem = base[:i]
	}
	ktid, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(stem), "0x"), 16, 32)
	if err != nil {
		return p, true
	}
	name, ok := b.names.Name(uint32(ktid))
	if !ok || name == "" {
		return p, true
	}
	return dir + name + "." + ext, true
}

// LoadFileList decodes the NAME table at path. The path is looked up in each
// root in turn, then on the host filesystem.
func (b *Backend) LoadFileList(p string) error {
	var (
		data  []byte
		err   error
		found bool
	)
	for _, root := range b.roots {
		if data, err = util.ReadFile(root, p); err == nil {
			found = true
			break
		}
	}
	if !found {
		data, err = os.ReadFile(p)
	}
	if err != nil {
		return fmt.Errorf("read name table %s: %w", p, err)
	}

	table, err := nametable.Decode(data)
	if err != nil {
		return fmt.Errorf("name table %s: %w", p, err)
	}
	b.names = table
	b.logger.Debug("loaded name table", slog.String("path", p), slog.Int("entries", table.Len()))
	return nil
}

// Close drops the index. Roots are not closed; billy filesystems hold no
// handles between calls.
func (b *Backend) Close() error {
	b.files = nil
	b.names = nil
	return nil
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
