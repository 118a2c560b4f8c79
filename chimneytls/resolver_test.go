package chimneytls

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolverExactMatch(t *testing.T) {
	r := NewResolver()
	cert := &tls.Certificate{}
	r.Set("Example.com", cert)

	got, ok := r.Lookup("example.com")
	require.True(t, ok)
	require.Same(t, cert, got)
}

func TestResolverWildcardFallback(t *testing.T) {
	r := NewResolver()
	cert := &tls.Certificate{}
	r.Set("*.example.com", cert)

	got, ok := r.Lookup("sub.example.com")
	require.True(t, ok)
	require.Same(t, cert, got)
}

func TestResolverExactBeatsWildcard(t *testing.T) {
	r := NewResolver()
	exact := &tls.Certificate{}
	wildcard := &tls.Certificate{}
	r.Set("sub.example.com", exact)
	r.Set("*.example.com", wildcard)

	got, ok := r.Lookup("sub.example.com")
	require.True(t, ok)
	require.Same(t, exact, got)
}

func TestResolverNoMatch(t *testing.T) {
	r := NewResolver()
	_, ok := r.Lookup("nowhere.test")
	require.False(t, ok)
}
