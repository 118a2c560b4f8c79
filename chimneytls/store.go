// Package chimneytls implements certificate storage, SNI resolution, and
// ACME issuance (components F, G, H, I). Grounded in caddytls/filestorage.go
// (disk layout and atomic-ish write pattern, generalized to true atomic
// rename per spec.md §4.5) and caddytls/handshake.go (wildcard SNI lookup).
package chimneytls

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aosasona/chimney/chimneyerr"
)

const (
	certFileName    = "cert.pem"
	keyFileName     = "key.pem"
	certTmpFileName = ".cert.pem.tmp"
	keyTmpFileName  = ".key.pem.tmp"
)

// Store is the per-site certificate cache rooted at Root. Unlike the
// teacher's FileStorage (which keys by CA host plus domain, and writes with
// plain ioutil.WriteFile), Store keys by sanitized site name and writes
// atomically: temp file in the same directory, then rename, matching
// spec.md §4.5's explicit atomicity requirement.
type Store struct {
	Root string
}

// NewStore returns a Store rooted at root. The root is created lazily on
// first Save.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// sanitizeSiteName rejects path-traversal characters and empty/blank
// names, matching spec.md §4.5 and §8's invariant that ".." or "/" or "\"
// anywhere in the site name fails save_certificate and
// create_cert_directory with no files created.
func sanitizeSiteName(site string) (string, error) {
	trimmed := strings.TrimSpace(site)
	if trimmed == "" {
		return "", chimneyerr.ErrInvalidSiteName
	}
	if strings.Contains(trimmed, "..") || strings.ContainsAny(trimmed, "/\\") {
		return "", chimneyerr.ErrInvalidSiteName
	}
	return trimmed, nil
}

func (s *Store) siteDir(site string) (string, error) {
	name, err := sanitizeSiteName(site)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, name), nil
}

// Save writes certPEM and keyPEM for site atomically: each is written to a
// temp file in the site directory, then renamed into place. The key file
// is set to owner-only read/write (0o600) on POSIX before the rename. On
// any failure the temp files are removed and no partial write is visible
// to a concurrent Load.
func (s *Store) Save(site string, certPEM, keyPEM []byte) error {
	dir, err := s.siteDir(site)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return chimneyerr.New(chimneyerr.KindTLS, "Store.Save", err)
	}

	certTmp := filepath.Join(dir, certTmpFileName)
	keyTmp := filepath.Join(dir, keyTmpFileName)

	if err := writeAtomic(certTmp, filepath.Join(dir, certFileName), certPEM, 0o644); err != nil {
		os.Remove(certTmp)
		return err
	}
	if err := writeAtomic(keyTmp, filepath.Join(dir, keyFileName), keyPEM, 0o600); err != nil {
		os.Remove(keyTmp)
		return err
	}
	return nil
}

func writeAtomic(tmpPath, finalPath string, data []byte, mode os.FileMode) error {
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return chimneyerr.New(chimneyerr.KindTLS, "Store.writeAtomic", err)
	}
	// Some platforms default umask may loosen the mode WriteFile requested;
	// reassert it explicitly before the rename makes the file visible.
	if err := os.Chmod(tmpPath, mode); err != nil {
		return chimneyerr.New(chimneyerr.KindTLS, "Store.writeAtomic", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return chimneyerr.New(chimneyerr.KindTLS, "Store.writeAtomic", err)
	}
	return nil
}

// Load returns the stored (certPEM, keyPEM) for site. ok is false if either
// file is missing; a present-but-unreadable file is a hard error.
func (s *Store) Load(site string) (certPEM, keyPEM []byte, ok bool, err error) {
	dir, err := s.siteDir(site)
	if err != nil {
		return nil, nil, false, err
	}

	certPEM, certErr := os.ReadFile(filepath.Join(dir, certFileName))
	if os.IsNotExist(certErr) {
		return nil, nil, false, nil
	} else if certErr != nil {
		return nil, nil, false, chimneyerr.New(chimneyerr.KindTLS, "Store.Load", certErr)
	}

	keyPEM, keyErr := os.ReadFile(filepath.Join(dir, keyFileName))
	if os.IsNotExist(keyErr) {
		return nil, nil, false, nil
	} else if keyErr != nil {
		return nil, nil, false, chimneyerr.New(chimneyerr.KindTLS, "Store.Load", keyErr)
	}

	return certPEM, keyPEM, true, nil
}
