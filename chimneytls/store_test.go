package chimneytls

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveThenLoad(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Save("example", []byte("cert-bytes"), []byte("key-bytes")))

	certPEM, keyPEM, ok, err := s.Load("example")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "cert-bytes", string(certPEM))
	require.Equal(t, "key-bytes", string(keyPEM))
}

func TestStoreKeyFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX-only permission check")
	}
	root := t.TempDir()
	s := NewStore(root)
	require.NoError(t, s.Save("example", []byte("c"), []byte("k")))

	fi, err := os.Stat(filepath.Join(root, "example", "key.pem"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestStoreLoadAbsentIsNotError(t *testing.T) {
	s := NewStore(t.TempDir())
	_, _, ok, err := s.Load("missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreRejectsTraversalSiteName(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, bad := range []string{"../escape", "a/b", `a\b`, "", "   "} {
		err := s.Save(bad, []byte("c"), []byte("k"))
		require.ErrorIs(t, err, chimneyerr.ErrInvalidSiteName)
	}
}

func TestStoreNoFilesCreatedOnBadName(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	_ = s.Save("../escape", []byte("c"), []byte("k"))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}
