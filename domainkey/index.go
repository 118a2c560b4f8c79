package domainkey

import (
	"errors"
	"sync"
)

// ErrDomainAlreadyExists is returned by Insert when the given Domain is
// already bound to a different site.
var ErrDomainAlreadyExists = errors.New("domainkey: domain already exists")

// Index is a mapping from Domain to site name. At most one site may be
// registered per Domain. Lookup precedence (see Get) is: exact match on
// (name, port), then (name, no port), then the wildcard entry "*".
//
// This is a deliberately flat map rather than the teacher's vhostTrie
// (caddyhttp/httpserver/vhosttrie.go): Chimney routes by full host only,
// never by path prefix, so the trie's path-matching half has no job here.
type Index struct {
	mu      sync.RWMutex
	entries map[Domain]string // site name
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{entries: make(map[Domain]string)}
}

// Insert binds d to site. It fails with ErrDomainAlreadyExists if d is
// already bound to a different site name.
func (idx *Index) Insert(d Domain, site string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if existing, ok := idx.entries[d]; ok && existing != site {
		return ErrDomainAlreadyExists
	}
	idx.entries[d] = site
	return nil
}

// Get resolves d to a site name using the precedence rule: exact
// (name, port) match; then (name, no port) if d had a port; then the
// wildcard entry; otherwise it reports no match.
func (idx *Index) Get(d Domain) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if site, ok := idx.entries[d]; ok {
		return site, true
	}
	if d.Port != 0 {
		if site, ok := idx.entries[d.withoutPort()]; ok {
			return site, true
		}
	}
	if site, ok := idx.entries[Domain{Name: Wildcard}]; ok {
		return site, true
	}
	return "", false
}

// Contains reports whether d has an entry (without falling back to the
// port-less or wildcard lookups Get performs).
func (idx *Index) Contains(d Domain) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.entries[d]
	return ok
}

// ClearForSite removes every entry in idx that points at site.
func (idx *Index) ClearForSite(site string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for d, s := range idx.entries {
		if s == site {
			delete(idx.entries, d)
		}
	}
}
