package evrManifests

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// decode5932408047EVR reads the header followed by the frame contents,
// metadata and frames sections, each ElementCount records long.
func decode5932408047EVR(b []byte) (EvrManifest, error) {
	m := EvrManifest{}

	currentOffset := binary.Size(m.Header)
	if len(b) < currentOffset {
		return m, fmt.Errorf("header needs %d bytes, got %d: %w", currentOffset, len(b), ErrMalformedManifest)
	}
	if err := binary.Read(bytes.NewReader(b[:currentOffset]), binary.LittleEndian, &m.Header); err != nil {
		return m, err
	}

	// element counts come from the file, check them against what is left
	// before allocating anything
	for _, c := range []uint64{m.Header.FrameContents.ElementCount, m.Header.Metadata.ElementCount, m.Header.Frames.ElementCount} {
		if c > uint64(len(b)) {
			return m, fmt.Errorf("element count %d exceeds manifest size: %w", c, ErrMalformedManifest)
		}
	}
	need :=uint64(currentOffset) +
		m.Header.FrameContents.ElementCount*uint64(binary.Size(FrameContents{})) +
		m.Header.Metadata.ElementCount*uint64(binary.Size(Metadata{})) +
		m.Header.Frames.ElementCount*uint64(binary.Size(Frame{}))
	if need > uint64(len(b)) {
		return m, fmt.Errorf("sections need %d bytes, got %d: %w", need, len(b), ErrMalformedManifest)
	}

	m.FrameContents = make([]FrameContents, m.Header.FrameContents.ElementCount)
	m.Metadata = make([]Metadata, m.Header.Metadata.ElementCount)
	m.Frames = make([]Frame, m.Header.Frames.ElementCount)

	for _, section := range []any{m.FrameContents, m.Metadata, m.Frames} {
		size := binary.Size(section)
		buf := bytes.NewReader(b[currentOffset : currentOffset+size])
		if err := binary.Read(buf, binary.LittleEndian, section); err != nil {
			return m, err
		}
		currentOffset += size
	}

	return m, nil
}
