package domainkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexPrecedence(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Insert(Domain{Name: "example.com", Port: 8080}, "exact-site"))
	require.NoError(t, idx.Insert(Domain{Name: "example.com"}, "nameonly-site"))
	require.NoError(t, idx.Insert(Domain{Name: Wildcard}, "wildcard-site"))

	site, ok := idx.Get(Domain{Name: "example.com", Port: 8080})
	require.True(t, ok)
	require.Equal(t, "exact-site", site)

	site, ok = idx.Get(Domain{Name: "example.com", Port: 9999})
	require.True(t, ok)
	require.Equal(t, "nameonly-site", site, "falls back to name-only match when the port doesn't match exactly")

	site, ok = idx.Get(Domain{Name: "anything.else"})
	require.True(t, ok)
	require.Equal(t, "wildcard-site", site)

	_, ok = idx.Get(Domain{Name: "anything.else", Port: 1})
	require.True(t, ok, "wildcard entries have no port, so a ported query still falls through to it")
}

func TestIndexInsertConflict(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Insert(Domain{Name: "example.com"}, "site-a"))
	err := idx.Insert(Domain{Name: "example.com"}, "site-b")
	require.ErrorIs(t, err, ErrDomainAlreadyExists)
}

func TestIndexClearForSite(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.Insert(Domain{Name: "a.com"}, "site"))
	require.NoError(t, idx.Insert(Domain{Name: "b.com"}, "site"))
	require.NoError(t, idx.Insert(Domain{Name: "c.com"}, "other"))

	idx.ClearForSite("site")

	_, ok := idx.Get(Domain{Name: "a.com"})
	require.False(t, ok)
	_, ok = idx.Get(Domain{Name: "b.com"})
	require.False(t, ok)
	_, ok = idx.Get(Domain{Name: "c.com"})
	require.True(t, ok)
}
