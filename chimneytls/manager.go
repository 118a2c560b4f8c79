package chimneytls

import (
	"context"
	"crypto/tls"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/aosasona/chimney/metrics"
	"github.com/aosasona/chimney/site"
	"go.uber.org/zap"
)

// Manager composes manual certificates and a single shared ACME manager
// into the TLS acceptor the server listens with (component I). Grounded in
// caddytls/config.go's per-site Config construction plus MakeTLSConfig's
// assembly of a configGroup into one tls.Config.
type Manager struct {
	manual   *Resolver
	acme     *ACMEManager
	tlsConfig *tls.Config
}

// BuildManager walks sites, classifying each one's HTTPS config as Manual
// or Acme per spec.md §4.6's process_site_https_config, loads manual
// certificate pairs, and if any site wants ACME, constructs one shared
// ACMEManager for the union of those domains. Construction fails if
// neither a manual certificate nor an ACME domain exists across all sites.
func BuildManager(sites []*site.Site, cacheDir, acmeEmail, acmeDirectoryURL string, logger *zap.Logger, collectors *metrics.Collectors) (*Manager, error) {
	manual := NewResolver()
	var acmeDomains []string
	haveManual := false

	for _, s := range sites {
		if s.HTTPS == nil {
			continue
		}
		if s.HTTPS.HasPartialManualPair() {
			return nil, chimneyerr.New(chimneyerr.KindTLS, "BuildManager", chimneyerr.ErrMismatchedPair)
		}
		if s.HTTPS.IsManual() {
			cert, err := loadManualCertificate(s.HTTPS.CertFile, s.HTTPS.KeyFile)
			if err != nil {
				return nil, err
			}
			for _, domain := range s.DomainNames {
				manual.Set(domain, cert)
			}
			haveManual = true
			continue
		}
		// No manual pair configured but https_config is present: this
		// site's domains need an ACME-issued certificate.
		acmeDomains = append(acmeDomains, s.DomainNames...)
	}

	if !haveManual && len(acmeDomains) == 0 {
		return nil, chimneyerr.New(chimneyerr.KindTLS, "BuildManager", chimneyerr.ErrNoCertificates)
	}

	m := &Manager{manual: manual}

	if len(acmeDomains) > 0 {
		store := NewStore(cacheDir)
		acmeMgr, err := NewACMEManager(acmeDomains, acmeEmail, acmeDirectoryURL, store, logger)
		if err != nil {
			return nil, err
		}
		acmeMgr.SetMetrics(collectors)
		m.acme = acmeMgr
	}

	m.tlsConfig = &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: m.getCertificate,
		NextProtos:     []string{"h2", "http/1.1", tlsALPN01Proto},
	}

	return m, nil
}

// tlsALPN01Proto is the ALPN protocol ID a TLS-ALPN-01 challenge
// negotiates (RFC 8737).
const tlsALPN01Proto = "acme-tls/1"

// Start launches the background ACME task, if any ACME domains were
// configured. It is a no-op for a manual-only Manager.
func (m *Manager) Start(ctx context.Context) {
	if m.acme != nil {
		m.acme.Start(ctx)
	}
}

// TLSConfig returns the tls.Config the server should accept connections
// with: when an ACME manager exists, its acceptor is consulted first (it
// owns TLS-ALPN-01 challenge completion inline), falling back to the
// manual resolver for ordinary handshakes.
func (m *Manager) TLSConfig() *tls.Config { return m.tlsConfig }

func (m *Manager) getCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if m.acme != nil {
		if cert, err := m.acme.GetCertificate(hello); err == nil {
			return cert, nil
		}
	}
	return m.manual.GetCertificate(hello)
}
