package nametable

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedTable is matched by every MalformedTableError.
var ErrMalformedTable = errors.New("malformed name table")

// MalformedTableError reports a size or offset in the table that does not fit
// the buffer.
type MalformedTableError struct {
	Entry  int // index of the failing entry, -1 for the header
	Offset int
	Reason string
}

func (e *MalformedTableError) Error() string {
	if e.Entry < 0 {
		return fmt.Sprintf("malformed name table header: %s", e.Reason)
	}
	return fmt.Sprintf("malformed name table entry %d at offset %d: %s", e.Entry, e.Offset, e.Reason)
}

// Is reports whether target is ErrMalformedTable.
func (e *MalformedTableError) Is(target error) bool {
	return target == ErrMalformedTable
}

// Decode parses buf into a Table using Hash for label keys. Decoding is all or
// nothing: any malformed entry fails the whole table.
func Decode(buf []byte) (*Table, error) {
	return DecodeWithHash(buf, Hash)
}

// DecodeWithHash is Decode with a caller supplied label hash.
func DecodeWithHash(buf []byte, hash HashFunc) (*Table, error) {
	t, err := decode(buf, hash)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DecodeLeading decodes as many leading entries as possible. It returns the
// partial table together with the error that stopped decoding, or a nil error
// when every entry decoded. The table is nil only if the header is unusable.
func DecodeLeading(buf []byte) (*Table, error) {
	return decode(buf, Hash)
}

func decode(buf []byte, hash HashFunc) (*Table, error) {
	if len(buf) < HeaderSize {
		return nil, &MalformedTableError{Entry: -1, Reason: fmt.Sprintf("need %d bytes, got %d", HeaderSize, len(buf))}
	}
	var h Header
	h.DecodeFrom(buf)
	if h.Size < HeaderSize {
		return nil, &MalformedTableError{Entry: -1, Reason: fmt.Sprintf("declared size %d is smaller than the header", h.Size)}
	}
	if uint64(h.Size) > uint64(len(buf)) {
		return nil, &MalformedTableError{Entry: -1, Reason: fmt.Sprintf("declared size %d exceeds buffer of %d bytes", h.Size, len(buf))}
	}

	t := newTable(h)
	offset := int(h.Size)
	for i := 0; i < int(h.Count); i++ {
		entry, next, err := decodeEntry(buf, offset)
		if err != nil {
			err.Entry = i
			return t, err
		}
		t.add(entry, hash)
		offset = next
	}
	return t, nil
}

// decodeEntry reads the record at offset and returns it together with the
// aligned offset of the next record.
func decodeEntry(buf []byte, offset int) (Entry, int, *MalformedTableError) {
	fail := func(format string, args ...any) (Entry, int, *MalformedTableError) {
		return Entry{}, 0, &MalformedTableError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
	}

	if offset < 0 || len(buf)-offset < EntryHeaderSize {
		return fail("entry header extends past end of buffer")
	}
	var eh EntryHeader
	eh.DecodeFrom(buf[offset:])

	end := uint64(offset) + uint64(eh.Size)
	if end > uint64(len(buf)) {
		return fail("declared size %d exceeds buffer", eh.Size)
	}
	offsetsEnd := uint64(EntryHeaderSize) + uint64(eh.Count)*offsetSize
	if uint64(eh.Size) < offsetsEnd {
		return fail("declared size %d cannot hold %d string offsets", eh.Size, eh.Count)
	}

	entry := Entry{
		Header:  eh,
		Offset:  offset,
		Strings: make([]string, eh.Count),
	}
	pointers := buf[offset+EntryHeaderSize : offset+int(offsetsEnd)]
	for n := range entry.Strings {
		rel := int32(binary.LittleEndian.Uint32(pointers[n*offsetSize:]))
		abs := int64(offset) + int64(rel)
		if abs < 0 || abs >= int64(len(buf)) {
			return fail("string %d offset %d is outside the buffer", n, rel)
		}
		entry.Strings[n] = readString(buf, int(abs))
	}

	return entry, align(int(end), alignment), nil
}
