package chimneytls

import (
	"crypto/tls"
	"strings"
	"sync"

	"github.com/aosasona/chimney/chimneyerr"
)

// Resolver holds a case-insensitive mapping from SNI name to certificate.
// It supports exact names and literal "*.suffix" wildcard entries.
// Grounded in caddytls/handshake.go's configGroup.getConfig /
// Config.getCertificate label-substitution lookup, simplified: Chimney has
// no "serve everything" empty-string fallback, since every site must
// declare its own domain names (spec.md §4.2).
type Resolver struct {
	mu    sync.RWMutex
	certs map[string]*tls.Certificate
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{certs: make(map[string]*tls.Certificate)}
}

// Set installs cert under name (exact match, or a "*.suffix" wildcard
// entry if name begins with "*.").
func (r *Resolver) Set(name string, cert *tls.Certificate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.certs[strings.ToLower(name)] = cert
}

// Lookup resolves name per spec.md §4.6: lower-case, exact match, then
// strip the first label and look up "*.<rest>", otherwise none.
func (r *Resolver) Lookup(name string) (*tls.Certificate, bool) {
	name = strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cert, ok := r.certs[name]; ok {
		return cert, true
	}

	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		wildcard := "*" + name[idx:]
		if cert, ok := r.certs[wildcard]; ok {
			return cert, true
		}
	}

	return nil, false
}

// GetCertificate implements the tls.Config.GetCertificate callback shape.
func (r *Resolver) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cert, ok := r.Lookup(hello.ServerName)
	if !ok {
		return nil, chimneyerr.ErrNoCertificates
	}
	return cert, nil
}
