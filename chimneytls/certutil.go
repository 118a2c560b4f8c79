package chimneytls

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aosasona/chimney/chimneyerr"
)

// loadPEMFile canonicalizes path and rejects anything that is not a
// regular file, mirroring the path validator named in spec.md §4.6
// ("canonicalizes and rejects non-files").
func loadPEMFile(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, chimneyerr.New(chimneyerr.KindTLS, "loadPEMFile", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, chimneyerr.ErrNotFound
		}
		return nil, chimneyerr.New(chimneyerr.KindTLS, "loadPEMFile", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, chimneyerr.ErrDenied
	}
	return os.ReadFile(abs)
}

// loadManualCertificate reads and parses a cert/key pair from disk.
func loadManualCertificate(certFile, keyFile string) (*tls.Certificate, error) {
	certPEM, err := loadPEMFile(certFile)
	if err != nil {
		return nil, chimneyerr.New(chimneyerr.KindTLS, "loadManualCertificate", chimneyerr.ErrInvalidCertFile)
	}
	keyPEM, err := loadPEMFile(keyFile)
	if err != nil {
		return nil, chimneyerr.New(chimneyerr.KindTLS, "loadManualCertificate", chimneyerr.ErrInvalidKeyFile)
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, chimneyerr.New(chimneyerr.KindTLS, "loadManualCertificate", chimneyerr.ErrMismatchedPair)
	}
	return &cert, nil
}

// parseCachedCertificate parses a PEM pair previously written by Store, for
// installing into a Resolver on ACME manager startup.
func parseCachedCertificate(certPEM, keyPEM []byte) (*tls.Certificate, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, chimneyerr.New(chimneyerr.KindTLS, "parseCachedCertificate", chimneyerr.ErrMismatchedPair)
	}
	return &cert, nil
}

// nearExpiry reports whether cert should be renewed: within 30 days of its
// NotAfter, matching common ACME renewal practice (certmagic and the
// teacher's caddytls/maintain.go both renew well ahead of the ACME CA's
// own ~30-day default lifetime floor).
func nearExpiry(cert *tls.Certificate) bool {
	if cert.Leaf == nil {
		return true
	}
	return time.Until(cert.Leaf.NotAfter) < 30*24*time.Hour
}

// mailtoURI formats an ACME contact email as a mailto: URI, or returns
// empty if email is blank.
func mailtoURI(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	return "mailto:" + email
}
