package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aosasona/chimney/site"
	"go.uber.org/zap"
)

// Format is the polymorphic configuration-format contract named in spec.md
// §9 ("Polymorphic configuration format"): only one implementation
// (tomlFormat) exists today, but the core depends only on this interface.
type Format interface {
	FromString(s string) (*rootDocument, error)
	ToString(doc *rootDocument) (string, error)
	Extension() string
}

// rootDocument is the raw decoded shape of the root config file, before
// defaults are applied and sites_directory has been walked. It uses plain
// strings/primitives so the toml package can decode it directly; Load
// converts it into a *Config.
type rootDocument struct {
	Host             string                `toml:"host"`
	Port             uint16                `toml:"port"`
	SitesDirectory   string                `toml:"sites_directory"`
	LogLevel         string                `toml:"log_level"`
	HostDetection    HostDetectionStrategy `toml:"host_detection"`
	HTTPS            *HttpsConfig          `toml:"https"`
}

// siteDocument is the raw decoded shape of a per-site chimney.toml.
type siteDocument struct {
	Root            string                   `toml:"root"`
	DomainNames     []string                 `toml:"domain_names"`
	Fallback        string                   `toml:"fallback"`
	HTTPS           *site.HttpsSite          `toml:"https_config"`
	ResponseHeaders map[string]string        `toml:"response_headers"`
	Redirects       map[string]site.RedirectRule `toml:"redirects"`
	Rewrites        map[string]site.RewriteRule  `toml:"rewrites"`
}

type tomlFormat struct{}

// TOMLFormat is the Format implementation used by Chimney today.
var TOMLFormat Format = tomlFormat{}

func (tomlFormat) FromString(s string) (*rootDocument, error) {
	var doc rootDocument
	if _, err := toml.Decode(s, &doc); err != nil {
		return nil, fmt.Errorf("config: parse failure: %w", err)
	}
	return &doc, nil
}

func (tomlFormat) ToString(doc *rootDocument) (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (tomlFormat) Extension() string { return ".toml" }

// Load reads the root config file at path (root-defined fields per
// spec.md §6), then discovers sites under its sites_directory: each
// immediate subdirectory whose name does not collide with a root-defined
// site must contain chimney.toml. Missing or malformed subsite files are
// logged and skipped, never fatal. Fatal at startup (spec.md §7) are: an
// unreadable or unparsable root config, an invalid host value, and a
// sites_directory that exists but cannot be listed.
func Load(path string, logger *zap.Logger) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	doc, err := TOMLFormat.FromString(string(raw))
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if doc.Host != "" {
		ip := net.ParseIP(doc.Host)
		if ip == nil {
			return nil, fmt.Errorf("config: invalid host %q", doc.Host)
		}
		cfg.Host = ip
	}
	if doc.Port != 0 {
		cfg.Port = doc.Port
	}
	if doc.SitesDirectory != "" {
		cfg.SitesDirectory = doc.SitesDirectory
	} else {
		cfg.SitesDirectory = filepath.Join(filepath.Dir(path), "sites")
	}
	if doc.LogLevel != "" {
		cfg.LogLevel = doc.LogLevel
	}
	cfg.HostDetection = doc.HostDetection
	if doc.HTTPS != nil {
		merged := DefaultHttpsConfig()
		if doc.HTTPS.Enabled {
			merged.Enabled = true
		}
		if doc.HTTPS.Port != 0 {
			merged.Port = doc.HTTPS.Port
		}
		if doc.HTTPS.CacheDirectory != "" {
			merged.CacheDirectory = doc.HTTPS.CacheDirectory
		}
		if doc.HTTPS.ACMEEmail != "" {
			merged.ACMEEmail = doc.HTTPS.ACMEEmail
		}
		if doc.HTTPS.ACMEDirectoryURL != "" {
			merged.ACMEDirectoryURL = doc.HTTPS.ACMEDirectoryURL
		}
		cfg.HTTPS = &merged
	}

	if err := loadSites(cfg, logger); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSites walks cfg.SitesDirectory, one subdirectory per site, each
// holding a chimney.toml. This directory walk is a startup-time operation
// distinct from the request-serving filesystem port (component D, used by
// the path resolver to read site content); it uses the OS filesystem
// directly, matching how the teacher's own Caddyfile/JSON config loading
// reads configuration off disk without going through an abstracted port.
func loadSites(cfg *Config, logger *zap.Logger) error {
	entries, err := os.ReadDir(cfg.SitesDirectory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading sites_directory %s: %w", cfg.SitesDirectory, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, exists := cfg.Sites.Get(name); exists {
			if logger != nil {
				logger.Warn("skipping subsite: collides with a root-defined site", zap.String("site", name))
			}
			continue
		}

		siteTOMLPath := filepath.Join(cfg.SitesDirectory, name, "chimney.toml")
		raw, err := os.ReadFile(siteTOMLPath)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping subsite: cannot read chimney.toml", zap.String("site", name), zap.Error(err))
			}
			continue
		}

		var doc siteDocument
		if _, err := toml.Decode(string(raw), &doc); err != nil {
			if logger != nil {
				logger.Warn("skipping subsite: malformed chimney.toml", zap.String("site", name), zap.Error(err))
			}
			continue
		}

		root := doc.Root
		if root == "" || root == "." {
			root = filepath.Join(cfg.SitesDirectory, name)
		} else if !filepath.IsAbs(root) {
			root = filepath.Join(cfg.SitesDirectory, name, root)
		}

		s := &site.Site{
			Name:            name,
			Root:            root,
			DomainNames:     doc.DomainNames,
			Fallback:        doc.Fallback,
			HTTPS:           doc.HTTPS,
			ResponseHeaders: doc.ResponseHeaders,
			Redirects:       doc.Redirects,
			Rewrites:        doc.Rewrites,
		}
		if err := s.Validate(); err != nil {
			if logger != nil {
				logger.Warn("skipping subsite: invalid configuration", zap.String("site", name), zap.Error(err))
			}
			continue
		}
		if err := cfg.Sites.Add(s); err != nil {
			if logger != nil {
				logger.Warn("skipping subsite: registration failed", zap.String("site", name), zap.Error(err))
			}
			continue
		}
	}

	return nil
}
