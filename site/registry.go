package site

import (
	"sync"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/aosasona/chimney/domainkey"
)

// Registry owns the set of sites and maintains a domainkey.Index over
// them (spec.md §4.2, component B). Its mutating methods (Add, Update,
// Remove) are used only by the configuration loader; request-handling tasks
// only read from it through FindByHostname (spec.md §5).
type Registry struct {
	mu    sync.RWMutex
	sites map[string]*Site
	index *domainkey.Index
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sites: make(map[string]*Site),
		index: domainkey.NewIndex(),
	}
}

// Add registers a new site, failing if the name already exists or any of
// its domain names conflicts with an existing registration.
func (r *Registry) Add(s *Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sites[s.Name]; exists {
		return chimneyerr.ErrDuplicateSiteName
	}
	if err := r.reindexLocked(s); err != nil {
		return err
	}
	r.sites[s.Name] = s
	return nil
}

// Update replaces an existing site, failing if the name is absent. The
// domain index is rebuilt for the site: all of its prior entries are
// removed before the new domain names are inserted.
func (r *Registry) Update(s *Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sites[s.Name]; !exists {
		return chimneyerr.ErrSiteNotFound
	}
	r.index.ClearForSite(s.Name)
	if err := r.reindexLocked(s); err != nil {
		return err
	}
	r.sites[s.Name] = s
	return nil
}

// Remove deletes a site and its domain index entries.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sites[name]; !exists {
		return chimneyerr.ErrSiteNotFound
	}
	r.index.ClearForSite(name)
	delete(r.sites, name)
	return nil
}

// reindexLocked inserts every domain name configured on s into the index.
// Callers must hold r.mu.
func (r *Registry) reindexLocked(s *Site) error {
	for _, raw := range s.DomainNames {
		d, err := domainkey.Parse(raw)
		if err != nil {
			return err
		}
		if err := r.index.Insert(d, s.Name); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the site registered under name.
func (r *Registry) Get(name string) (*Site, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sites[name]
	return s, ok
}

// FindByHostname parses hostHeader into a Domain and consults the index.
func (r *Registry) FindByHostname(hostHeader string) (*Site, bool) {
	d, err := domainkey.FromHostHeader(hostHeader)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.index.Get(d)
	if !ok {
		return nil, false
	}
	s, ok := r.sites[name]
	return s, ok
}

// All returns every registered site. Iteration order is unspecified, as
// spec.md §4.2 allows.
func (r *Registry) All() []*Site {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Site, 0, len(r.sites))
	for _, s := range r.sites {
		out = append(out, s)
	}
	return out
}
