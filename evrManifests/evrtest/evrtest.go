// Package evrtest builds small EVR manifests and packages on disk for tests.
package evrtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DataDog/zstd"
	evrm "github.com/goopsie/assetExtract/evrManifests"
)

const compressionLevel = zstd.BestSpeed

// File is one entry to pack.
type File struct {
	TypeSymbol int64
	FileSymbol int64
	Data       []byte
}

// Encode serializes m in the 5932408047-EVR layout.
func Encode(m evrm.EvrManifest) ([]byte, error) {
	wbuf := bytes.NewBuffer(nil)
	for _, v := range []any{m.Header, m.FrameContents, m.Metadata, m.Frames} {
		if err := binary.Write(wbuf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	return wbuf.Bytes(), nil
}

// Compress prepends a compressed header to the zstd encoding of b.
func Compress(b []byte) ([]byte, error) {
	zstdBytes, err := zstd.CompressLevel(nil, b, compressionLevel)
	if err != nil {
		return nil, err
	}
	h := evrm.CompressedHeader{
		Magic:            evrm.Magic,
		HeaderSize:       16,
		UncompressedSize: uint64(len(b)),
		CompressedSize:   uint64(len(zstdBytes)),
	}
	out := make([]byte, evrm.CompressedHeaderSize, evrm.CompressedHeaderSize+len(zstdBytes))
	h.EncodeTo(out)
	return append(out, zstdBytes...), nil
}

// WritePackage packs files into dataDir/packages/{name}_0, filesPerFrame
// files to a zstd frame, and writes the matching manifest to
// dataDir/manifests/{name}.
func WritePackage(dataDir, name string, filesPerFrame int, files []File) (evrm.EvrManifest, error) {
	if filesPerFrame < 1 {
		filesPerFrame = 1
	}
	manifest := evrm.EvrManifest{
		Header: evrm.ManifestHeader{
			PackageCount:  1,
			FrameContents: evrm.HeaderChunk{ElementSize: 32},
			Metadata:      evrm.HeaderChunk{ElementSize: 40},
			Frames:        evrm.HeaderChunk{ElementSize: 16},
		},
	}

	var pkg []byte
	for start := 0; start < len(files); start += filesPerFrame {
		group := files[start:min(start+filesPerFrame, len(files))]
		frameIndex := uint32(len(manifest.Frames))

		var currentData []byte
		for _, f := range group {
			manifest.FrameContents = append(manifest.FrameContents, evrm.FrameContents{
				TypeSymbol:    f.TypeSymbol,
				FileSymbol:    f.FileSymbol,
				FileIndex:     frameIndex,
				DataOffset:    uint32(len(currentData)),
				Size:          uint32(len(f.Data)),
				SomeAlignment: 1,
			})
			manifest.Metadata = append(manifest.Metadata, evrm.Metadata{
				TypeSymbol: f.TypeSymbol,
				FileSymbol: f.FileSymbol,
			})
			currentData = append(currentData, f.Data...)
		}

		compFile, err := zstd.CompressLevel(nil, currentData, compressionLevel)
		if err != nil {
			return manifest, err
		}
		manifest.Frames = append(manifest.Frames, evrm.Frame{
			PackageIndex:     0,
			Offset:           uint32(len(pkg)),
			CompressedSize:   uint32(len(compFile)),
			DecompressedSize: uint32(len(currentData)),
		})
		pkg = append(pkg, compFile...)
	}

	manifest.Header.FrameContents = fillChunk(manifest.Header.FrameContents, len(manifest.FrameContents))
	manifest.Header.Metadata = fillChunk(manifest.Header.Metadata, len(manifest.Metadata))
	manifest.Header.Frames = fillChunk(manifest.Header.Frames, len(manifest.Frames))

	raw, err := Encode(manifest)
	if err != nil {
		return manifest, err
	}
	manifestBytes, err := Compress(raw)
	if err != nil {
		return manifest, err
	}

	for _, dir := range []string{"packages", "manifests"} {
		if err := os.MkdirAll(filepath.Join(dataDir, dir), 0o755); err != nil {
			return manifest, err
		}
	}
	if err := os.WriteFile(filepath.Join(dataDir, "packages", fmt.Sprintf("%s_0", name)), pkg, 0o644); err != nil {
		return manifest, err
	}
	if err := os.WriteFile(filepath.Join(dataDir, "manifests", name), manifestBytes, 0o644); err != nil {
		return manifest, err
	}
	return manifest, nil
}

func fillChunk(chunk evrm.HeaderChunk, n int) evrm.HeaderChunk {
	chunk.Count = uint64(n)
	chunk.ElementCount = uint64(n)
	chunk.SectionSize = uint64(n) * chunk.ElementSize
	return chunk
}
