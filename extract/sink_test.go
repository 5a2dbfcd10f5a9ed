package extract

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkWriteFile(t *testing.T) {
	fs := memfs.New()
	sink := NewFileSink(fs, WithDirPerm(0o700))

	require.NoError(t, sink.WriteFile("root.bin", []byte{1, 2, 3}))
	require.NoError(t, sink.WriteFile("deep/nested/dir/file.txt", []byte("hi")))

	assert.Equal(t, []byte{1, 2, 3}, readFile(t, fs, "root.bin"))
	assert.Equal(t, []byte("hi"), readFile(t, fs, "deep/nested/dir/file.txt"))

	entries, err := fs.ReadDir("deep/nested/dir")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "file.txt", entries[0].Name())
}

func TestFileSinkReplaces(t *testing.T) {
	for name, root := range map[string]func(t *testing.T) *FileSink{
		"memfs": func(*testing.T) *FileSink { return NewFileSink(memfs.New()) },
		"osfs":  func(t *testing.T) *FileSink { return NewFileSink(osfs.New(t.TempDir())) },
	} {
		t.Run(name, func(t *testing.T) {
			sink := root(t)
			require.NoError(t, sink.WriteFile("a/b.txt", []byte("a much longer first version")))
			require.NoError(t, sink.WriteFile("a/b.txt", []byte("short")))
			assert.Equal(t, []byte("short"), readFile(t, sink.fs, "a/b.txt"))

			entries, err := sink.fs.ReadDir("a")
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}
