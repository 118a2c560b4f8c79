package resolver

import (
	"testing"

	"github.com/aosasona/chimney/chimneyfs"
	"github.com/aosasona/chimney/site"
	"github.com/stretchr/testify/require"
)

func newSite(name string) *site.Site {
	return &site.Site{
		Name:        name,
		Redirects:   map[string]site.RedirectRule{},
		Rewrites:    map[string]site.RewriteRule{},
	}
}

func TestResolveWildcardSiteServesIndex(t *testing.T) {
	fs := chimneyfs.NewMock(map[string]string{"index.html": "hello"})
	s := newSite("catchall")

	v, err := Resolve(fs, s, "/")
	require.NoError(t, err)
	require.Equal(t, VerdictFile, v.Kind)
	require.Equal(t, "index.html", v.FilePath)
	require.Equal(t, "text/html; charset=utf-8", v.MimeType)
}

func TestResolveRedirectPrecedesRewrite(t *testing.T) {
	fs := chimneyfs.NewMock(map[string]string{"index.html": "hello"})
	s := newSite("s")
	s.Redirects["/old"] = site.RedirectRule{To: "/new"}
	s.Rewrites["/old"] = site.RewriteRule{To: "/other"}

	v, err := Resolve(fs, s, "/old")
	require.NoError(t, err)
	require.Equal(t, VerdictRedirect, v.Kind)
	require.Equal(t, "/new", v.Redirect.To)
	require.Equal(t, 301, v.Redirect.StatusCode())
}

func TestResolveTemporaryReplayRedirect(t *testing.T) {
	fs := chimneyfs.NewMock(nil)
	s := newSite("s")
	s.Redirects["/x"] = site.RedirectRule{To: "/y", Temporary: true, Replay: true}

	v, err := Resolve(fs, s, "/x")
	require.NoError(t, err)
	require.Equal(t, VerdictRedirect, v.Kind)
	require.Equal(t, 307, v.Redirect.StatusCode())
}

func TestResolveRewriteThenIndex(t *testing.T) {
	fs := chimneyfs.NewMock(map[string]string{"index.html": "home"})
	s := newSite("s")
	s.Rewrites["/home"] = site.RewriteRule{To: "/"}

	v, err := Resolve(fs, s, "/home")
	require.NoError(t, err)
	require.Equal(t, VerdictFile, v.Kind)
	require.Equal(t, "index.html", v.FilePath)
}

func TestResolveDirectoryDescendsToIndex(t *testing.T) {
	fs := chimneyfs.NewMock(map[string]string{"docs/index.html": "docs home"})
	s := newSite("s")

	v, err := Resolve(fs, s, "/docs")
	require.NoError(t, err)
	require.Equal(t, VerdictFile, v.Kind)
	require.Equal(t, "docs/index.html", v.FilePath)
}

func TestResolveFallback(t *testing.T) {
	fs := chimneyfs.NewMock(map[string]string{"404.html": "not found page"})
	s := newSite("s")
	s.Fallback = "/404.html"

	v, err := Resolve(fs, s, "/missing")
	require.NoError(t, err)
	require.Equal(t, VerdictFile, v.Kind)
	require.Equal(t, "404.html", v.FilePath)
}

func TestResolveRewriteTargetingRedirect(t *testing.T) {
	fs := chimneyfs.NewMock(nil)
	s := newSite("s")
	s.Rewrites["/a"] = site.RewriteRule{To: "/b"}
	s.Redirects["/b"] = site.RedirectRule{To: "/c"}

	v, err := Resolve(fs, s, "/a")
	require.NoError(t, err)
	require.Equal(t, VerdictRedirect, v.Kind)
	require.Equal(t, "/c", v.Redirect.To)
}

func TestResolveNotFound(t *testing.T) {
	fs := chimneyfs.NewMock(nil)
	s := newSite("s")

	v, err := Resolve(fs, s, "/nope")
	require.NoError(t, err)
	require.Equal(t, VerdictNotFound, v.Kind)
}
