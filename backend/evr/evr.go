// Package evr reads entries out of EVR packages: a zstd compressed manifest
// under manifests/ indexing zstd frames spread over packages/{name}_{n}.
package evr

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"
	"github.com/goopsie/assetExtract/backend"
	evrm "github.com/goopsie/assetExtract/evrManifests"
	"github.com/goopsie/assetExtract/sniff"
)

// Backend serves the files listed in one EVR manifest.
type Backend struct {
	manifest     evrm.EvrManifest
	manifestType string
	packages     []*os.File
	names        map[uint64]string
	logger       *slog.Logger

	// last decompressed frame, entries of one frame are adjacent
	cachedFrame int
	cachedData  []byte
}

var _ backend.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithManifestType selects the manifest layout. Defaults to
// evrManifests.DefaultManifestType.
func WithManifestType(manifestType string) Option {
	return func(b *Backend) {
		b.manifestType = manifestType
	}
}

// WithLogger sets the logger for frame level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Builder returns a backend.Builder that opens the package named
// cfg.PackageName in the first game directory.
func Builder(opts ...Option) backend.Builder {
	return func(cfg backend.Config) (backend.Backend, error) {
		if len(cfg.GameDirs) == 0 {
			return nil, fmt.Errorf("evr: no data directory given")
		}
		return Open(cfg.GameDirs[0], cfg.PackageName, opts...)
	}
}

// Open loads dataDir/manifests/packageName and opens every package file it
// references.
func Open(dataDir, packageName string, opts ...Option) (*Backend, error) {
	b := &Backend{
		manifestType: evrm.DefaultManifestType,
		names:        map[uint64]string{},
		logger:       slog.New(slog.DiscardHandler),
		cachedFrame:  -1,
	}
	for _, opt := range opts {
		opt(b)
	}

	raw, err := os.ReadFile(filepath.Join(dataDir, "manifests", packageName))
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	decompBytes, err := evrm.Decompress(raw)
	if err != nil {
		return nil, err
	}
	b.manifest, err = evrm.Decode(decompBytes, b.manifestType)
	if err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", packageName, err)
	}

	for i := 0; i < int(b.manifest.Header.PackageCount); i++ {
		pFilePath := filepath.Join(dataDir, "packages", fmt.Sprintf("%s_%d", packageName, i))
		f, err := os.Open(pFilePath)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("open package: %w", err)
		}
		b.packages = append(b.packages, f)
	}

	b.logger.Debug("opened evr package",
		slog.String("package", packageName),
		slog.Int("files", len(b.manifest.FrameContents)),
		slog.Int("frames", len(b.manifest.Frames)),
		slog.Int("packages", len(b.packages)))
	return b, nil
}

// Manifest returns the decoded manifest.
func (b *Backend) Manifest() evrm.EvrManifest {
	return b.manifest
}

// EntryCount returns the number of files in the manifest.
func (b *Backend) EntryCount() int {
	return len(b.manifest.FrameContents)
}

// ReadEntry decompresses the frame holding entry index and returns a copy of
// the entry's bytes.
func (b *Backend) ReadEntry(index int) ([]byte, error) {
	if err := backend.CheckIndex(index, b.EntryCount()); err != nil {
		return nil, err
	}
	fc, _, err := b.manifest.Frame(index)
	if err != nil {
		return nil, backend.Corrupt(index, "frame lookup", err)
	}
	data, err := b.frameData(index, int(fc.FileIndex))
	if err != nil {
		return nil, err
	}

	end := uint64(fc.DataOffset) + uint64(fc.Size)
	if end > uint64(len(data)) {
		return nil, backend.Corrupt(index, fmt.Sprintf("range %d+%d exceeds frame %d of %d bytes", fc.DataOffset, fc.Size, fc.FileIndex, len(data)), nil)
	}
	return bytes.Clone(data[fc.DataOffset:end]), nil
}

func (b *Backend) frameData(index, frameIndex int) ([]byte, error) {
	if frameIndex == b.cachedFrame {
		return b.cachedData, nil
	}
	frame := b.manifest.Frames[frameIndex]
	if int(frame.PackageIndex) >= len(b.packages) {
		return nil, backend.Corrupt(index, fmt.Sprintf("frame %d references package %d of %d", frameIndex, frame.PackageIndex, len(b.packages)), nil)
	}

	var decompBytes []byte
	if frame.CompressedSize > 0 {
		splitFile := make([]byte, frame.CompressedSize)
		if _, err := b.packages[frame.PackageIndex].ReadAt(splitFile, int64(frame.Offset)); err != nil {
			return nil, backend.Corrupt(index, fmt.Sprintf("read frame %d", frameIndex), err)
		}
		var err error
		decompBytes, err = zstd.Decompress(nil, splitFile)
		if err != nil {
			return nil, backend.Corrupt(index, fmt.Sprintf("decompress frame %d", frameIndex), err)
		}
	}
	if len(decompBytes) != int(frame.DecompressedSize) {
		return nil, backend.Corrupt(index, fmt.Sprintf("frame %d decompressed to %d bytes, manifest says %d", frameIndex, len(decompBytes), frame.DecompressedSize), nil)
	}

	b.logger.Debug("decompressed frame", slog.Int("frame", frameIndex), slog.Int("bytes", len(decompBytes)))
	b.cachedFrame = frameIndex
	b.cachedData = decompBytes
	return decompBytes, nil
}

// FilenameFor returns the file list name for the entry's file symbol, or
// "{type}/{symbol}.{ext}" in hex when the list has none.
func (b *Backend) FilenameFor(index int, ext string, _ sniff.DataType) (string, bool) {
	if index < 0 || index >= b.EntryCount() {
		return "", false
	}
	fc := b.manifest.FrameContents[index]
	if name, ok := b.names[uint64(fc.FileSymbol)]; ok {
		return name, true
	}
	return fmt.Sprintf("%x/%x.%s", uint64(fc.TypeSymbol), uint64(fc.FileSymbol), ext), true
}

// LoadFileList loads a "symbol,path" text list.
func (b *Backend) LoadFileList(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file list: %w", err)
	}
	defer f.Close()

	names, err := backend.ParseFileList(f)
	if err != nil {
		return err
	}
	for k, v := range names {
		b.names[k] = v
	}
	b.logger.Debug("loaded file list", slog.String("path", path), slog.Int("names", len(names)))
	return nil
}

// Close closes every package file.
func (b *Backend) Close() error {
	var firstErr error
	for _, f := range b.packages {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.packages = nil
	b.cachedFrame = -1
	b.cachedData = nil
	return firstErr
}
