package extract

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/goopsie/assetExtract/sniff"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// sizePrefixLen is the little-endian uncompressed length some containers
// store in front of a zlib stream.
const sizePrefixLen = 4

// Compressed reports whether data starts with a gzip header, a zlib header,
// or a 4 byte size prefix followed by a zlib header.
func Compressed(data []byte) bool {
	return sniff.IsGzip(data) || sniff.IsZlib(data) || hasSizePrefix(data)
}

func hasSizePrefix(data []byte) bool {
	return len(data) > sizePrefixLen+1 && sniff.IsZlib(data[sizePrefixLen:])
}

// Decompress inflates a gzip, zlib or size-prefixed zlib entry.
func Decompress(data []byte) ([]byte, error) {
	switch {
	case sniff.IsGzip(data):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return readAll(zr, "gzip")
	case sniff.IsZlib(data):
		return inflate(data)
	case hasSizePrefix(data):
		want := binary.LittleEndian.Uint32(data)
		out, err := inflate(data[sizePrefixLen:])
		if err != nil {
			return nil, err
		}
		if uint32(len(out)) != want {
			return nil, fmt.Errorf("zlib: inflated %d bytes, prefix says %d", len(out), want)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("no compression signature")
	}
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer zr.Close()
	return readAll(zr, "zlib")
}

func readAll(r io.Reader, codec string) ([]byte, error) {
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", codec, err)
	}
	return out, nil
}
