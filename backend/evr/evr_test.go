package evr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goopsie/assetExtract/backend"
	"github.com/goopsie/assetExtract/evrManifests/evrtest"
	"github.com/goopsie/assetExtract/sniff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFiles = []evrtest.File{
	{TypeSymbol: 0x2b47aab238f60515, FileSymbol: 0x1, Data: []byte("GT1G0600texture")},
	{TypeSymbol: 0x2b47aab238f60515, FileSymbol: 0x2, Data: []byte("OggS audio")},
	{TypeSymbol: 0x48037dc70b0ecab2, FileSymbol: 0x3, Data: []byte("third file")},
	{TypeSymbol: 0x48037dc70b0ecab2, FileSymbol: 0x4, Data: nil},
}

func openTestBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	_, err := evrtest.WritePackage(dir, "package", 2, testFiles)
	require.NoError(t, err)

	b, err := Open(dir, "package")
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b, dir
}

func TestReadEntry(t *testing.T) {
	b, _ := openTestBackend(t)
	require.Equal(t, len(testFiles), b.EntryCount())

	// read out of order to exercise the frame cache
	for _, i := range []int{2, 0, 1, 3, 0} {
		data, err := b.ReadEntry(i)
		require.NoError(t, err, "entry %d", i)
		assert.Equal(t, string(testFiles[i].Data), string(data), "entry %d", i)
	}

	_, err := b.ReadEntry(len(testFiles))
	require.ErrorIs(t, err, backend.ErrIndexOutOfRange)
}

func TestReadEntryReturnsCopy(t *testing.T) {
	b, _ := openTestBackend(t)

	data, err := b.ReadEntry(0)
	require.NoError(t, err)
	data[0] = 'X'

	again, err := b.ReadEntry(0)
	require.NoError(t, err)
	assert.Equal(t, byte('G'), again[0])
}

func TestReadEntryCorrupt(t *testing.T) {
	b, _ := openTestBackend(t)

	b.manifest.FrameContents[0].Size = 1 << 20
	_, err := b.ReadEntry(0)
	require.ErrorIs(t, err, backend.ErrCorruptEntry)

	b.manifest.FrameContents[2].FileIndex = 99
	_, err = b.ReadEntry(2)
	require.ErrorIs(t, err, backend.ErrCorruptEntry)

	b.cachedFrame = -1
	b.manifest.Frames[1].DecompressedSize++
	_, err = b.ReadEntry(3)
	require.ErrorIs(t, err, backend.ErrCorruptEntry)
}

func TestFilenameFor(t *testing.T) {
	b, dir := openTestBackend(t)

	name, ok := b.FilenameFor(1, "ogg", sniff.Audio)
	require.True(t, ok)
	assert.Equal(t, "2b47aab238f60515/2.ogg", name)

	list := filepath.Join(dir, "files.csv")
	require.NoError(t, os.WriteFile(list, []byte("0x2,sound/menu.ogg\n"), 0o644))
	require.NoError(t, b.LoadFileList(list))

	name, ok = b.FilenameFor(1, "ogg", sniff.Audio)
	require.True(t, ok)
	assert.Equal(t, "sound/menu.ogg", name)

	_, ok = b.FilenameFor(10, "bin", sniff.Unknown)
	assert.False(t, ok)

	require.Error(t, b.LoadFileList(filepath.Join(dir, "missing.csv")))
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir, "package")
	require.Error(t, err)

	_, err = evrtest.WritePackage(dir, "package", 1, testFiles[:1])
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "packages", "package_0")))
	_, err = Open(dir, "package")
	require.ErrorContains(t, err, "open package")

	_, err = Open(dir, "package", WithManifestType("unknown"))
	require.Error(t, err)
}

func TestBuilder(t *testing.T) {
	dir := t.TempDir()
	_, err := evrtest.WritePackage(dir, "48037dc70b0ecab2", 4, testFiles)
	require.NoError(t, err)

	reg := backend.NewRegistry()
	reg.Register("evr", Builder())

	b, err := reg.Open("evr", backend.Config{GameDirs: []string{dir}, PackageName: "48037dc70b0ecab2"})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, len(testFiles), b.EntryCount())

	_, err = reg.Open("evr", backend.Config{})
	require.Error(t, err)
}
