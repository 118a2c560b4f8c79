// Package config models the typed root configuration (spec.md §3) and the
// atomic snapshot handoff (spec.md §4.3, component C) that lets many reader
// tasks borrow an immutable Config while exactly one writer — the
// host-detection cache updater (spec.md §4.8) — publishes updates.
package config

import (
	"net"

	"github.com/aosasona/chimney/site"
)

// HttpsConfig is the root-level https sub-table (spec.md §6).
type HttpsConfig struct {
	Enabled         bool   `toml:"enabled"`
	Port            uint16 `toml:"port"`
	CacheDirectory  string `toml:"cache_directory"`
	ACMEEmail       string `toml:"acme_email"`
	ACMEDirectoryURL string `toml:"acme_directory_url"`
}

// DefaultHttpsConfig returns the defaults named in spec.md §6.
func DefaultHttpsConfig() HttpsConfig {
	return HttpsConfig{
		Port:             8443,
		CacheDirectory:   "~/.chimney/certs",
		ACMEDirectoryURL: "https://acme-v02.api.letsencrypt.org/directory",
	}
}

// Config is the root configuration (spec.md §3). Values of this type are
// never mutated once published; see Handle for the copy-on-write update
// path used by host detection.
type Config struct {
	Host                net.IP
	Port                uint16
	HTTPS               *HttpsConfig
	HostDetection       HostDetectionStrategy
	SitesDirectory      string
	LogLevel            string
	Sites               *site.Registry
	ResolvedHostHeader  *string // process-lifetime cache (spec.md §4.8)
}

// Default returns a Config with spec.md §6's documented defaults.
func Default() *Config {
	return &Config{
		Host:           net.IPv4zero,
		Port:           8080,
		HostDetection:  AutoStrategy(),
		SitesDirectory: "sites",
		LogLevel:       "info",
		Sites:          site.NewRegistry(),
	}
}

// WithResolvedHostHeader returns a shallow copy of c with
// ResolvedHostHeader set to header. This is the one mutation spec.md §4.3
// permits: a copy-on-write publish, never an in-place update of a Config
// a reader might be holding.
func (c *Config) WithResolvedHostHeader(header string) *Config {
	clone := *c
	clone.ResolvedHostHeader = &header
	return &clone
}
