package chimneytls

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/aosasona/chimney/metrics"
	"github.com/mholt/acmez/v3"
	"github.com/mholt/acmez/v3/acme"
	"go.step.sm/crypto/keyutil"
	"go.uber.org/zap"
)

// ACMEManager is the long-running background worker named in spec.md §4.7.
// It owns a Resolver for issued certificates and a separate cache of
// in-flight TLS-ALPN-01 challenge certificates, and drives issuance and
// renewal for a fixed set of domains. Grounded in caddy/https/https.go's
// Activate/ObtainCerts/maintainAssets orchestration, reimplemented against
// acmez.Client directly instead of the teacher's xenolf/lego, matching what
// the teacher's own go.mod actually pins acmez/v3 for.
type ACMEManager struct {
	domains      []string
	email        string
	directoryURL string
	store        *Store
	resolver     *Resolver
	logger       *zap.Logger
	metrics      *metrics.Collectors // optional; nil disables instrumentation

	mu             sync.Mutex
	challengeCerts map[string]*tls.Certificate
}

// NewACMEManager checks every domain against component F's site-name
// sanitization rules and constructs a manager. Issued certificates are
// cached in store under the domain name itself, one directory per domain,
// not per site. It does not issue anything until Start is called.
func NewACMEManager(domains []string, email, directoryURL string, store *Store, logger *zap.Logger) (*ACMEManager, error) {
	for _, d := range domains {
		if _, err := sanitizeSiteName(d); err != nil {
			return nil, chimneyerr.New(chimneyerr.KindTLS, "NewACMEManager", err)
		}
	}
	return &ACMEManager{
		domains:        domains,
		email:          email,
		directoryURL:   directoryURL,
		store:          store,
		resolver:       NewResolver(),
		logger:         logger,
		challengeCerts: make(map[string]*tls.Certificate),
	}, nil
}

// Resolver returns the manager's live certificate resolver, exposed
// read-only to handshake code per spec.md §5.
func (m *ACMEManager) Resolver() *Resolver { return m.resolver }

// SetMetrics attaches the collectors the manager records issuance outcomes
// to. Optional: a manager with no collectors attached simply skips
// recording.
func (m *ACMEManager) SetMetrics(c *metrics.Collectors) { m.metrics = c }

// GetCertificate implements the acceptor named in spec.md §4.7: it first
// satisfies an in-flight TLS-ALPN-01 challenge (if any), then falls back to
// the issued-certificate resolver.
func (m *ACMEManager) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	m.mu.Lock()
	cert, ok := m.challengeCerts[hello.ServerName]
	m.mu.Unlock()
	if ok {
		return cert, nil
	}
	return m.resolver.GetCertificate(hello)
}

// Start loads any cached certificates from the store, then runs a
// background loop that issues missing certificates and renews ones
// approaching expiry. Failures are logged and retried on the next tick;
// they never propagate to request handlers (spec.md §4.7, §7).
func (m *ACMEManager) Start(ctx context.Context) {
	for _, domain := range m.domains {
		if certPEM, keyPEM, ok, err := m.store.Load(domain); err == nil && ok {
			if cert, err := parseCachedCertificate(certPEM, keyPEM); err == nil {
				m.resolver.Set(domain, cert)
			}
		}
	}

	go m.maintain(ctx)
}

func (m *ACMEManager) maintain(ctx context.Context) {
	const tick = 1 * time.Hour
	m.runOnce(ctx)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *ACMEManager) runOnce(ctx context.Context) {
	for _, domain := range m.domains {
		cert, covered := m.resolver.Lookup(domain)
		if covered && !nearExpiry(cert) {
			continue
		}
		if err := m.issue(ctx, domain); err != nil {
			if m.logger != nil {
				m.logger.Warn("acme: issuance failed, will retry", zap.String("domain", domain), zap.Error(err))
			}
			if m.metrics != nil {
				m.metrics.CertsFailed.WithLabelValues(domain).Inc()
			}
		}
	}
}

func (m *ACMEManager) issue(ctx context.Context, domain string) error {
	accountKey, err := keyutil.GenerateDefaultKey()
	if err != nil {
		return chimneyerr.New(chimneyerr.KindTLS, "ACMEManager.issue", err)
	}
	certKey, err := keyutil.GenerateDefaultKey()
	if err != nil {
		return chimneyerr.New(chimneyerr.KindTLS, "ACMEManager.issue", err)
	}

	client := &acmez.Client{
		Client: &acme.Client{
			Directory:  m.directoryURL,
			HTTPClient: http.DefaultClient,
		},
		ChallengeSolvers: map[string]acmez.Solver{
			acme.ChallengeTypeTLSALPN01: &tlsALPNSolver{manager: m},
		},
	}

	account := acme.Account{
		Contact:              contactsFor(m.email),
		TermsOfServiceAgreed: true,
		PrivateKey:           accountKey.(crypto.Signer),
	}
	account, err = client.NewAccount(ctx, account)
	if err != nil {
		return chimneyerr.New(chimneyerr.KindTLS, "ACMEManager.issue", chimneyerr.ErrACMEIssuanceFailure)
	}

	csr, err := buildCSR(domain, certKey.(crypto.Signer))
	if err != nil {
		return chimneyerr.New(chimneyerr.KindTLS, "ACMEManager.issue", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	chains, err := client.ObtainCertificateUsingCSR(timeoutCtx, account, csr)
	if err != nil {
		if timeoutCtx.Err() != nil {
			return chimneyerr.New(chimneyerr.KindTLS, "ACMEManager.issue", chimneyerr.ErrACMETimeout)
		}
		return chimneyerr.New(chimneyerr.KindTLS, "ACMEManager.issue", chimneyerr.ErrACMEIssuanceFailure)
	}
	if len(chains) == 0 {
		return chimneyerr.New(chimneyerr.KindTLS, "ACMEManager.issue", chimneyerr.ErrACMEIssuanceFailure)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: mustMarshalKey(certKey.(crypto.Signer))})
	certPEM := chains[0].ChainPEM

	if err := m.store.Save(domain, certPEM, keyPEM); err != nil {
		return err
	}
	cert, err := parseCachedCertificate(certPEM, keyPEM)
	if err != nil {
		return err
	}
	m.resolver.Set(domain, cert)
	if m.logger != nil {
		m.logger.Info("acme: certificate issued", zap.String("domain", domain))
	}
	if m.metrics != nil {
		m.metrics.CertsIssued.WithLabelValues(domain).Inc()
	}
	return nil
}

func contactsFor(email string) []string {
	if uri := mailtoURI(email); uri != "" {
		return []string{uri}
	}
	return nil
}

func buildCSR(domain string, key crypto.Signer) (*x509.CertificateRequest, error) {
	template := &x509.CertificateRequest{
		Subject:  pkix.Name{CommonName: domain},
		DNSNames: []string{domain},
	}
	der, err := x509.CreateCertificateRequest(rand.Reader, template, key)
	if err != nil {
		return nil, fmt.Errorf("acme: building CSR for %s: %w", domain, err)
	}
	return x509.ParseCertificateRequest(der)
}

func mustMarshalKey(key crypto.Signer) []byte {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil
	}
	return der
}

// tlsALPNSolver answers the TLS-ALPN-01 challenge by installing a
// short-lived self-signed certificate into the manager's challenge cache
// under the challenged SNI name, matching the acceptor semantics in
// spec.md §4.7 ("handles ALPN challenges inline"). Grounded in the
// certmagic tlsALPNSolver pattern (vendored under certmagic/solvers.go in
// the pack) adapted to write into ACMEManager.challengeCerts instead of a
// package-global cache.
type tlsALPNSolver struct {
	manager *ACMEManager
}

func (s *tlsALPNSolver) Present(ctx context.Context, chal acme.Challenge) error {
	cert, err := acmez.TLSALPN01ChallengeCert(chal)
	if err != nil {
		return err
	}
	s.manager.mu.Lock()
	s.manager.challengeCerts[chal.Identifier.Value] = cert
	s.manager.mu.Unlock()
	return nil
}

func (s *tlsALPNSolver) CleanUp(ctx context.Context, chal acme.Challenge) error {
	s.manager.mu.Lock()
	delete(s.manager.challengeCerts, chal.Identifier.Value)
	s.manager.mu.Unlock()
	return nil
}
