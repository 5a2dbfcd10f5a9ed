// Package nametable decodes NAME tables, the flat binary structures that map
// KTIDs to human readable names and label hashes to file extensions.
package nametable

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Magic identifies a NAME table header.
var Magic = [4]byte{'N', 'A', 'M', 'E'}

const (
	// HeaderSize is the fixed binary size of a table header.
	HeaderSize = 16 // 4 + 4 + 4 + 4 bytes

	// EntryHeaderSize is the fixed binary size of an entry prefix.
	EntryHeaderSize = 20 // 4 + 4 + 4 + 4 + 4 bytes

	offsetSize = 4
	alignment  = 4
)

// Header is the table header. Size is the byte length of the header section,
// so the first entry starts at Size.
type Header struct {
	Magic   [4]byte
	Version uint32
	Size    uint32
	Count   uint32
}

// DecodeFrom reads the header from the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *Header) DecodeFrom(data []byte) {
	copy(h.Magic[:], data[0:4])
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	h.Size = binary.LittleEndian.Uint32(data[8:12])
	h.Count = binary.LittleEndian.Uint32(data[12:16])
}

// EntryHeader is the fixed prefix of every entry record.
type EntryHeader struct {
	Magic   [4]byte
	Version uint32
	Size    uint32 // prefix + offsets + string blob
	KTID    uint32
	Count   uint32 // number of strings
}

// DecodeFrom reads the entry prefix from the given buffer.
// The buffer must be at least EntryHeaderSize bytes.
func (e *EntryHeader) DecodeFrom(data []byte) {
	copy(e.Magic[:], data[0:4])
	e.Version = binary.LittleEndian.Uint32(data[4:8])
	e.Size = binary.LittleEndian.Uint32(data[8:12])
	e.KTID = binary.LittleEndian.Uint32(data[12:16])
	e.Count = binary.LittleEndian.Uint32(data[16:20])
}

// Entry is one decoded record.
type Entry struct {
	Header  EntryHeader
	Offset  int // byte offset of the record within the table
	Strings []string
}

// Table is a decoded NAME table. The maps are built once by Decode and are
// not modified afterwards.
type Table struct {
	Header  Header
	Entries []Entry

	// NameMap maps a KTID to the base name of its first label.
	NameMap map[uint32]string
	// ExtMap maps the hash of an entry's second label to the lowercased
	// extension split from its first label.
	ExtMap map[uint32]string
	// ExtMapRaw maps the hash of an entry's second label to the part of that
	// label after its last ':'.
	ExtMapRaw map[uint32]string
}

// Len returns the number of decoded entries.
func (t *Table) Len() int {
	return len(t.Entries)
}

// Name returns the base name recorded for ktid.
func (t *Table) Name(ktid uint32) (string, bool) {
	name, ok := t.NameMap[ktid]
	return name, ok
}

func newTable(h Header) *Table {
	// Count comes from untrusted input, cap the preallocation.
	hint := int(min(h.Count, 4096))
	return &Table{
		Header:    h,
		Entries:   make([]Entry, 0, hint),
		NameMap:   make(map[uint32]string, hint),
		ExtMap:    make(map[uint32]string, hint),
		ExtMapRaw: make(map[uint32]string, hint),
	}
}

// add appends e and updates the derived maps. Last write wins for both
// duplicate KTIDs and hash collisions.
func (t *Table) add(e Entry, hash HashFunc) {
	t.Entries = append(t.Entries, e)
	if len(e.Strings) == 0 {
		return
	}

	name, ext, hasExt := SplitLabel(e.Strings[0])
	t.NameMap[e.Header.KTID] = name
	if len(e.Strings) < 2 {
		return
	}

	h := hash(e.Strings[1])
	if hasExt {
		t.ExtMap[h] = strings.ToLower(ext)
	}
	t.ExtMapRaw[h] = RawLabel(e.Strings[1])
}

// SplitLabel splits a path-like label such as "foo/bar.tex:diffuse" into its
// base name ("bar") and extension ("tex"). Everything from the first ':' is
// ignored. ok is false when the base name carries no extension.
func SplitLabel(label string) (name, ext string, ok bool) {
	if i := strings.IndexByte(label, ':'); i >= 0 {
		label = label[:i]
	}
	if i := strings.LastIndexAny(label, `/\`); i >= 0 {
		label = label[i+1:]
	}
	i := strings.LastIndexByte(label, '.')
	if i < 0 || i == len(label)-1 {
		return strings.TrimSuffix(label, "."), "", false
	}
	return label[:i], label[i+1:], true
}

// RawLabel returns the part of label after its last ':', or the whole label
// when it contains none.
func RawLabel(label string) string {
	return label[strings.LastIndexByte(label, ':')+1:]
}

// readString reads a null terminated string starting at off. A string with no
// terminator runs to the end of the buffer.
func readString(buf []byte, off int) string {
	s := buf[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

func align(n, to int) int {
	return (n + to - 1) &^ (to - 1)
}
