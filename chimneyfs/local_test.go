package chimneyfs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("hello"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "style.css"), []byte("body{}"), 0o644))
	return root
}

func TestLocalStatOpen(t *testing.T) {
	fs := NewLocal(writeTree(t))

	info, err := fs.Stat("/index.html")
	require.NoError(t, err)
	require.False(t, info.IsDir())
	require.Equal(t, int64(5), info.Size)

	r, err := fs.Open("/index.html")
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))
}

func TestLocalStatNotFound(t *testing.T) {
	fs := NewLocal(writeTree(t))
	_, err := fs.Stat("/missing.html")
	require.ErrorIs(t, err, chimneyerr.ErrNotFound)
}

func TestLocalRejectsTraversal(t *testing.T) {
	fs := NewLocal(writeTree(t))
	_, err := fs.Stat("/../../etc/passwd")
	require.True(t, err == chimneyerr.ErrNotFound || err == chimneyerr.ErrDenied)
}

func TestLocalList(t *testing.T) {
	fs := NewLocal(writeTree(t))
	entries, err := fs.List("/")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	require.ElementsMatch(t, []string{"index.html", "assets"}, names)
}

func TestLocalListOnFileIsNotDir(t *testing.T) {
	fs := NewLocal(writeTree(t))
	_, err := fs.List("/index.html")
	require.ErrorIs(t, err, chimneyerr.ErrNotDir)
}

func TestLocalExists(t *testing.T) {
	fs := NewLocal(writeTree(t))
	require.True(t, fs.Exists("/index.html"))
	require.False(t, fs.Exists("/nope.html"))
}
