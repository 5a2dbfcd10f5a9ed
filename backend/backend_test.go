package backend

import (
	"errors"
	"strings"
	"testing"

	"github.com/goopsie/assetExtract/sniff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	cfg    Config
	closed bool
}

func (s *stubBackend) EntryCount() int { return 0 }
func (s *stubBackend) ReadEntry(index int) ([]byte, error) { return nil, CheckIndex(index, 0) }
func (s *stubBackend) FilenameFor(int, string, sniff.DataType) (string, bool) {
	return "", false
}
func (s *stubBackend) LoadFileList(string) error { return nil }

func (s *stubBackend) Close() error {
	s.closed = true
	return nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("EVR", func(cfg Config) (Backend, error) {
		return &stubBackend{cfg: cfg}, nil
	})
	reg.Register("broken", func(Config) (Backend, error) {
		return nil, errors.New("no packages")
	})

	assert.Equal(t, []string{"broken", "evr"}, reg.Keys())

	b, err := reg.Open("evr", Config{PackageName: "48037dc70b0ecab2"})
	require.NoError(t, err)
	stub, ok := b.(*stubBackend)
	require.True(t, ok)
	assert.Equal(t, "48037dc70b0ecab2", stub.cfg.PackageName)

	_, err = reg.Open("broken", Config{})
	require.ErrorContains(t, err, "no packages")

	_, err = reg.Open("pak", Config{})
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestCheckIndex(t *testing.T) {
	require.NoError(t, CheckIndex(0, 1))
	require.ErrorIs(t, CheckIndex(1, 1), ErrIndexOutOfRange)
	require.ErrorIs(t, CheckIndex(-1, 1), ErrIndexOutOfRange)

	b := &stubBackend{}
	_, err := b.ReadEntry(0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestCorruptEntryError(t *testing.T) {
	cause := errors.New("short read")
	err := Corrupt(3, "frame 7", cause)

	assert.ErrorIs(t, err, ErrCorruptEntry)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "entry 3: frame 7: short read", err.Error())

	var cErr *CorruptEntryError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, 3, cErr.Index)
}

func TestParseFileList(t *testing.T) {
	list := `# symbol,path
0x1a2b, data/ui/title.png
42,sound/bgm.ogg

0x1A2B,data/ui/title_v2.png
`
	names, err := ParseFileList(strings.NewReader(list))
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{
		0x1a2b: "data/ui/title_v2.png",
		42:     "sound/bgm.ogg",
	}, names)

	_, err = ParseFileList(strings.NewReader("nocomma\n"))
	require.ErrorContains(t, err, "line 1")

	_, err = ParseFileList(strings.NewReader("zz,path\n"))
	require.Error(t, err)
}
