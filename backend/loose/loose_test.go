package loose

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/goopsie/assetExtract/backend"
	"github.com/goopsie/assetExtract/nametable"
	"github.com/goopsie/assetExtract/sniff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(body), 0o644))
	}
}

// nameTable encodes a single entry NAME table.
func nameTable(ktid uint32, label, extLabel string) []byte {
	buf := make([]byte, nametable.HeaderSize)
	copy(buf, nametable.Magic[:])
	binary.LittleEndian.PutUint32(buf[8:], nametable.HeaderSize)
	binary.LittleEndian.PutUint32(buf[12:], 1)

	rec := make([]byte, nametable.EntryHeaderSize+8)
	binary.LittleEndian.PutUint32(rec[12:], ktid)
	binary.LittleEndian.PutUint32(rec[16:], 2)
	binary.LittleEndian.PutUint32(rec[20:], uint32(len(rec)))
	rec = append(rec, label...)
	rec = append(rec, 0)
	binary.LittleEndian.PutUint32(rec[24:], uint32(len(rec)))
	rec = append(rec, extLabel...)
	rec = append(rec, 0)
	binary.LittleEndian.PutUint32(rec[8:], uint32(len(rec)))
	return append(buf, rec...)
}

func TestEnumeration(t *testing.T) {
	a, b := memfs.New(), memfs.New()
	writeFiles(t, a, map[string]string{
		"data/z.bin":     "z",
		"data/a.bin":     "a",
		"root.txt":       "root",
		"data/sub/m.bin": "m",
	})
	writeFiles(t, b, map[string]string{"other.bin": "other"})

	be, err := New([]billy.Filesystem{a, b})
	require.NoError(t, err)
	require.Equal(t, 5, be.EntryCount())

	var names []string
	for i := 0; i < be.EntryCount(); i++ {
		name, ok := be.FilenameFor(i, "bin", sniff.Unknown)
		require.True(t, ok)
		names = append(names, name)
	}
	assert.Equal(t, []string{"data/a.bin", "data/sub/m.bin", "data/z.bin", "root.txt", "other.bin"}, names)

	data, err := be.ReadEntry(4)
	require.NoError(t, err)
	assert.Equal(t, "other", string(data))

	_, err = be.ReadEntry(5)
	require.ErrorIs(t, err, backend.ErrIndexOutOfRange)
	_, ok := be.FilenameFor(5, "bin", sniff.Unknown)
	assert.False(t, ok)
}

func TestReadEntryMissing(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{"gone.bin": "x"})
	be, err := New([]billy.Filesystem{fs})
	require.NoError(t, err)

	require.NoError(t, fs.Remove("gone.bin"))
	_, err = be.ReadEntry(0)
	require.ErrorIs(t, err, backend.ErrCorruptEntry)
}

func TestFilenameForNameTable(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"chr/0x00001000.file": "GT1G",
		"chr/00002000.file":   "unknown ktid",
		"chr/readme.file":     "not hex",
		"name.bin":            string(nameTable(0x1000, "chr/body.g1t:diffuse", "g1t:DIFFUSE")),
	})
	be, err := New([]billy.Filesystem{fs})
	require.NoError(t, err)
	require.NoError(t, be.LoadFileList("name.bin"))

	got := map[string]string{}
	for i := 0; i < be.EntryCount(); i++ {
		name, ok := be.FilenameFor(i, "g1t", sniff.Image)
		require.True(t, ok)
		got[be.files[i].path] = name
	}
	assert.Equal(t, "chr/body.g1t", got["chr/0x00001000.file"])
	assert.Equal(t, "chr/00002000.file", got["chr/00002000.file"])
	assert.Equal(t, "chr/readme.file", got["chr/readme.file"])
}

func TestLoadFileListFromHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "name.bin")
	require.NoError(t, os.WriteFile(path, nameTable(1, "a.tex", "tex"), 0o644))

	be, err := New([]billy.Filesystem{memfs.New()})
	require.NoError(t, err)
	require.NoError(t, be.LoadFileList(path))

	require.Error(t, be.LoadFileList(filepath.Join(t.TempDir(), "missing")))

	bad := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(bad, []byte("NAME"), 0o644))
	err = be.LoadFileList(bad)
	require.ErrorIs(t, err, nametable.ErrMalformedTable)
}

func TestBuilder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.bin"), []byte("a"), 0o644))

	reg := backend.NewRegistry()
	reg.Register("loose", Builder())
	be, err := reg.Open("loose", backend.Config{GameDirs: []string{dir}})
	require.NoError(t, err)
	defer be.Close()

	require.Equal(t, 1, be.EntryCount())
	name, ok := be.FilenameFor(0, "bin", sniff.Unknown)
	require.True(t, ok)
	assert.Equal(t, "sub/a.bin", name)

	_, err = reg.Open("loose", backend.Config{})
	require.Error(t, err)
}
