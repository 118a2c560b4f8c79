package chimneyfs

import (
	"io"
	"testing"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/stretchr/testify/require"
)

func newTestMock() *Mock {
	return NewMock(map[string]string{
		"index.html":        "<h1>home</h1>",
		"assets/style.css":  "body{}",
		"assets/app.js":     "console.log(1)",
		"docs/guide/intro.md": "# intro",
	})
}

func TestMockStatFileAndDir(t *testing.T) {
	m := newTestMock()

	info, err := m.Stat("/index.html")
	require.NoError(t, err)
	require.False(t, info.IsDir())

	info, err = m.Stat("/assets")
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestMockStatNotFound(t *testing.T) {
	m := newTestMock()
	_, err := m.Stat("/nope.html")
	require.ErrorIs(t, err, chimneyerr.ErrNotFound)
}

func TestMockOpen(t *testing.T) {
	m := newTestMock()
	r, err := m.Open("assets/style.css")
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "body{}", string(content))
}

func TestMockOpenDirectoryDenied(t *testing.T) {
	m := newTestMock()
	_, err := m.Open("/assets")
	require.ErrorIs(t, err, chimneyerr.ErrDenied)
}

func TestMockListRoot(t *testing.T) {
	m := newTestMock()
	entries, err := m.List("/")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	require.ElementsMatch(t, []string{"index.html", "assets", "docs"}, names)
}

func TestMockListNested(t *testing.T) {
	m := newTestMock()
	entries, err := m.List("/docs/guide")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "intro.md", entries[0].Name)
}

func TestMockListOnFileIsNotDir(t *testing.T) {
	m := newTestMock()
	_, err := m.List("/index.html")
	require.ErrorIs(t, err, chimneyerr.ErrNotDir)
}

func TestMockExists(t *testing.T) {
	m := newTestMock()
	require.True(t, m.Exists("/assets/app.js"))
	require.False(t, m.Exists("/assets/missing.js"))
}
