package site

import (
	"strings"

	"github.com/aosasona/chimney/chimneyerr"
)

// HttpsSite holds per-site TLS options (spec.md §3). If CertFile/KeyFile are
// both present the site is in manual TLS mode; otherwise ACME. CAFile is
// reserved and rejected by the config loader.
type HttpsSite struct {
	AutoRedirect bool   `toml:"auto_redirect"`
	CertFile     string `toml:"cert_file"`
	KeyFile      string `toml:"key_file"`
	CAFile       string `toml:"ca_file"`
}

// IsManual reports whether both cert_file and key_file are configured.
func (h *HttpsSite) IsManual() bool {
	return h != nil && h.CertFile != "" && h.KeyFile != ""
}

// HasPartialManualPair reports the XOR case spec.md §4.6 rejects: exactly
// one of cert_file/key_file present.
func (h *HttpsSite) HasPartialManualPair() bool {
	if h == nil {
		return false
	}
	return (h.CertFile != "") != (h.KeyFile != "")
}

// Site is a logical web property rooted at a directory and identified by a
// set of domain names (spec.md §3).
type Site struct {
	Name             string            `toml:"-"`
	Root             string            `toml:"root"`
	DomainNames      []string          `toml:"domain_names"`
	Fallback         string            `toml:"fallback"`
	HTTPS            *HttpsSite        `toml:"https_config"`
	ResponseHeaders  map[string]string `toml:"response_headers"`
	Redirects        map[string]RedirectRule `toml:"redirects"`
	Rewrites         map[string]RewriteRule  `toml:"rewrites"`
}

// Validate enforces the Site invariants from spec.md §3: the name is
// non-empty and contains none of "..", "/", "\\"; redirect/rewrite keys
// begin with "/".
func (s *Site) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return chimneyerr.ErrEmptySiteName
	}
	if strings.Contains(s.Name, "..") || strings.ContainsAny(s.Name, `/\`) {
		return chimneyerr.ErrInvalidSiteName
	}
	for key := range s.Redirects {
		if !strings.HasPrefix(key, "/") {
			return chimneyerr.New(chimneyerr.KindConfig, "site.Validate", errInvalidKey(key))
		}
	}
	for key := range s.Rewrites {
		if !strings.HasPrefix(key, "/") {
			return chimneyerr.New(chimneyerr.KindConfig, "site.Validate", errInvalidKey(key))
		}
	}
	if s.HTTPS != nil && s.HTTPS.CAFile != "" {
		return chimneyerr.ErrCAFileUnsupported
	}
	if s.HTTPS.HasPartialManualPair() {
		return chimneyerr.New(chimneyerr.KindTLS, "site.Validate", chimneyerr.ErrMismatchedPair)
	}
	return nil
}

type invalidKeyError string

func (e invalidKeyError) Error() string {
	return "redirect/rewrite key must begin with \"/\": " + string(e)
}

func errInvalidKey(key string) error { return invalidKeyError(key) }
