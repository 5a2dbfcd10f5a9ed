package sniff

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	_, err := zw.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	tests := []struct {
		name string
		data []byte
		typ  DataType
		ext  string
	}{
		{"g1t", []byte("GT1G0600\x00\x00"), Image, "g1t"},
		{"g1m", []byte("_M1G0037"), Model, "g1m"},
		{"ktsr", []byte("KTSR\x02\x94\xdd\xfc"), Audio, "ktsl2asbin"},
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), Audio, "wav"},
		{"png", []byte("\x89PNG\r\n\x1a\n\x00\x00"), Image, "png"},
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, Compressed, "gz"},
		{"zlib", zbuf.Bytes(), Compressed, "zlib"},
		{"json", []byte("  {\"a\": 1}\n"), Text, "json"},
		{"text", []byte("hello world\n"), Text, "txt"},
		{"magic fallback", []byte("ABCD\x00\x01\x02"), Unknown, "abcd"},
		{"underscored magic", []byte("_XYZ\x00\x01"), Unknown, "xyz"},
		{"binary", []byte{0x00, 0x01, 0x02, 0x03, 0x04}, Unknown, "bin"},
		{"short", []byte{0xff}, Unknown, "bin"},
		{"empty", nil, Unknown, "bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, ext := Classify(tt.data)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestIsZlib(t *testing.T) {
	assert.True(t, IsZlib([]byte{0x78, 0x9c}))
	assert.True(t, IsZlib([]byte{0x78, 0xda}))
	assert.True(t, IsZlib([]byte{0x78, 0x01}))
	assert.False(t, IsZlib([]byte{0x78, 0x00}))
	assert.False(t, IsZlib([]byte{0x78}))
	assert.False(t, IsZlib([]byte{0x1f, 0x8b}))
}

func TestDataTypeString(t *testing.T) {
	assert.Equal(t, "audio", Audio.String())
	assert.Equal(t, "unknown", DataType(99).String())
}
