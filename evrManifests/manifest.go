package evrManifests

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownManifestType = errors.New("unimplemented manifest type")
	ErrMalformedManifest   = errors.New("malformed manifest")
)

// DefaultManifestType is the layout used by current builds.
const DefaultManifestType = "5932408047-EVR"

// evrManifest definition
type ManifestHeader struct {
	PackageCount  uint32
	Unk1          uint32 // ? - 524288 on latest builds
	Unk2          uint64 // ? - 0 on latest builds
	FrameContents HeaderChunk
	_             [16]byte // padding
	Metadata      HeaderChunk
	_             [16]byte // padding
	Frames        HeaderChunk
}

type HeaderChunk struct {
	SectionSize  uint64 // total byte length of entire section
	Unk1         uint64 // ? 0 on latest builds
	Unk2         uint64 // ? 4294967296 on latest builds
	ElementSize  uint64 // byte size of single entry
	Count        uint64
	ElementCount uint64 // number of elements
}

type FrameContents struct { // 32 bytes
	TypeSymbol    int64  `json:"typeSymbol"`
	FileSymbol    int64  `json:"fileSymbol"`
	FileIndex     uint32 `json:"fileIndex"`  // Frames[FileIndex] holds this entry
	DataOffset    uint32 `json:"dataOffset"` // offset of the entry in the decompressed frame
	Size          uint32 `json:"size"`
	SomeAlignment uint32 `json:"alignment"`
}

type Metadata struct { // 40 bytes
	TypeSymbol int64 `json:"typeSymbol"`
	FileSymbol int64 `json:"fileSymbol"`
	Unk1       int64 `json:"unk1"`
	Unk2       int64 `json:"unk2"`
	AssetType  int64 `json:"assetType"`
}

type Frame struct { // 16 bytes
	PackageIndex     uint32 `json:"packageIndex"`
	Offset           uint32 `json:"offset"` // byte offset of the frame in its package
	CompressedSize   uint32 `json:"compressedSize"`
	DecompressedSize uint32 `json:"decompressedSize"`
}

type EvrManifest struct {
	Header        ManifestHeader
	FrameContents []FrameContents
	Metadata      []Metadata
	Frames        []Frame
}

// end evrManifest definition

// Frame returns the frame that holds entry i of FrameContents.
func (m *EvrManifest) Frame(i int) (FrameContents, Frame, error) {
	if i < 0 || i >= len(m.FrameContents) {
		return FrameContents{}, Frame{}, fmt.Errorf("file %d: %w", i, ErrMalformedManifest)
	}
	fc := m.FrameContents[i]
	if int(fc.FileIndex) >= len(m.Frames) {
		return fc, Frame{}, fmt.Errorf("file %d references frame %d of %d: %w", i, fc.FileIndex, len(m.Frames), ErrMalformedManifest)
	}
	return fc, m.Frames[fc.FileIndex], nil
}

// every manifest layout lives in its own file and registers a decoder here
var decoders = map[string]func([]byte) (EvrManifest, error){
	"5932408047-EVR": decode5932408047EVR,
}

// ManifestTypes lists the supported layouts.
func ManifestTypes() []string {
	types := make([]string, 0, len(decoders))
	for k := range decoders {
		types = append(types, k)
	}
	slices.Sort(types)
	return types
}

// Decode parses decompressed manifest bytes using the given layout.
func Decode(data []byte, manifestType string) (EvrManifest, error) {
	decode, ok := decoders[manifestType]
	if !ok {
		return EvrManifest{}, fmt.Errorf("%w: %s", ErrUnknownManifestType, manifestType)
	}
	return decode(data)
}
