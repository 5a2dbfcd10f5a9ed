package evrManifests

import (
	"encoding/binary"
	"fmt"

	"github.com/DataDog/zstd"
)

// Magic bytes identifying a compressed manifest.
var Magic = [4]byte{0x5a, 0x53, 0x54, 0x44} // Z S T D

// CompressedHeaderSize is the fixed binary size of a CompressedHeader.
const CompressedHeaderSize = 24 // 4 + 4 + 8 + 8 bytes

type CompressedHeader struct { // seems to be the same across every manifest
	Magic            [4]byte
	HeaderSize       uint32
	UncompressedSize uint64
	CompressedSize   uint64
}

// DecodeFrom reads the header from the given buffer.
// The buffer must be at least CompressedHeaderSize bytes.
func (h *CompressedHeader) DecodeFrom(data []byte) {
	copy(h.Magic[:], data[0:4])
	h.HeaderSize = binary.LittleEndian.Uint32(data[4:8])
	h.UncompressedSize = binary.LittleEndian.Uint64(data[8:16])
	h.CompressedSize = binary.LittleEndian.Uint64(data[16:24])
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least CompressedHeaderSize bytes.
func (h *CompressedHeader) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.HeaderSize)
	binary.LittleEndian.PutUint64(buf[8:16], h.UncompressedSize)
	binary.LittleEndian.PutUint64(buf[16:24], h.CompressedSize)
}

// Decompress strips the compressed header from a manifest file and returns
// the decompressed manifest bytes. Both sizes recorded in the header must
// match the data.
func Decompress(b []byte) ([]byte, error) {
	if len(b) < CompressedHeaderSize {
		return nil, fmt.Errorf("compressed header needs %d bytes, got %d: %w", CompressedHeaderSize, len(b), ErrMalformedManifest)
	}
	var h CompressedHeader
	h.DecodeFrom(b)
	if h.Magic != Magic {
		return nil, fmt.Errorf("invalid magic %x: %w", h.Magic, ErrMalformedManifest)
	}

	payload := b[CompressedHeaderSize:]
	if uint64(len(payload)) != h.CompressedSize {
		return nil, fmt.Errorf("header says %d compressed bytes, file has %d: %w", h.CompressedSize, len(payload), ErrMalformedManifest)
	}
	decomp, err := zstd.Decompress(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("decompress manifest: %w", err)
	}
	if uint64(len(decomp)) != h.UncompressedSize {
		return nil, fmt.Errorf("header says %d uncompressed bytes, got %d: %w", h.UncompressedSize, len(decomp), ErrMalformedManifest)
	}
	return decomp, nil
}
