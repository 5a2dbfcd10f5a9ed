// Package sniff classifies raw entry bytes by their leading signature.
package sniff

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf8"
)

// DataType is the coarse content class of an entry.
type DataType int

const (
	Unknown DataType = iota
	Text
	Image
	Audio
	Model
	Animation
	Archive
	Compressed
)

var dataTypeNames = [...]string{
	Unknown:    "unknown",
	Text:       "text",
	Image:      "image",
	Audio:      "audio",
	Model:      "model",
	Animation:  "animation",
	Archive:    "archive",
	Compressed: "compressed",
}

func (d DataType) String() string {
	if d < 0 || int(d) >= len(dataTypeNames) {
		return "unknown"
	}
	return dataTypeNames[d]
}

// Signature is a magic byte sequence found at Offset.
type Signature struct {
	Magic  []byte
	Offset int
	Type   DataType
	Ext    string
}

func (s Signature) match(data []byte) bool {
	end := s.Offset + len(s.Magic)
	return len(data) >= end && bytes.Equal(data[s.Offset:end], s.Magic)
}

// KnownSignatures is checked in order; the first match wins.
var KnownSignatures = []Signature{
	{Magic: []byte("GT1G"), Type: Image, Ext: "g1t"},
	{Magic: []byte("_M1G"), Type: Model, Ext: "g1m"},
	{Magic: []byte("_A1G"), Type: Animation, Ext: "g1a"},
	{Magic: []byte("_N1G"), Type: Model, Ext: "g1n"},
	{Magic: []byte("KTSR"), Type: Audio, Ext: "ktsl2asbin"},
	{Magic: []byte("KTSC"), Type: Audio, Ext: "ktsl2stbin"},
	{Magic: []byte("OggS"), Type: Audio, Ext: "ogg"},
	{Magic: []byte("WAVE"), Offset: 8, Type: Audio, Ext: "wav"},
	{Magic: []byte("\x89PNG\r\n\x1a\n"), Type: Image, Ext: "png"},
	{Magic: []byte("DDS "), Type: Image, Ext: "dds"},
	{Magic: []byte("PK\x03\x04"), Type: Archive, Ext: "zip"},
	{Magic: []byte("\x28\xb5\x2f\xfd"), Type: Compressed, Ext: "zst"},
	{Magic: []byte("ZSTD"), Type: Compressed, Ext: "zst"},
	{Magic: []byte("\x1f\x8b"), Type: Compressed, Ext: "gz"},
	{Magic: []byte("<?xml"), Type: Text, Ext: "xml"},
}

// Classify returns the content class and a candidate file extension for
// data. It never looks at names, only at bytes.
func Classify(data []byte) (DataType, string) {
	for _, sig := range KnownSignatures {
		if sig.match(data) {
			return sig.Type, sig.Ext
		}
	}
	if IsZlib(data) {
		return Compressed, "zlib"
	}
	if isText(data) {
		trimmed := bytes.TrimLeft(data, " \t\r\n")
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			return Text, "json"
		}
		return Text, "txt"
	}
	return Unknown, magicExtension(data)
}

// IsZlib reports whether data starts with a valid zlib header.
func IsZlib(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	// CM = 8 (deflate), CINFO <= 7, and the check bits make the pair divisible by 31.
	return data[0]&0x0f == 8 && data[0]>>4 <= 7 && binary.BigEndian.Uint16(data)%31 == 0
}

// IsGzip reports whether data starts with the gzip magic.
func IsGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func isText(data []byte) bool {
	if len(data) == 0 || !utf8.Valid(data) {
		return false
	}
	for _, c := range data {
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			return false
		}
	}
	return true
}

// magicExtension uses a four character alphanumeric magic as the extension,
// falling back to "bin".
func magicExtension(data []byte) string {
	if len(data) < 4 {
		return "bin"
	}
	magic := data[:4]
	for _, c := range magic {
		if !isAlnum(c) && c != '_' {
			return "bin"
		}
	}
	ext := strings.ToLower(strings.Trim(string(magic), "_"))
	if ext == "" {
		return "bin"
	}
	return ext
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
