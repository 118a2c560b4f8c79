// Package domainkey implements the lookup key used to route an incoming
// request or TLS handshake to the site that owns it.
package domainkey

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Wildcard is the literal domain name of the catch-all entry. It carries no
// port and matches any host, with or without a port, that has no more
// specific entry.
const Wildcard = "*"

// Domain is a parsed (name, port) pair used as a key into a DomainIndex.
// Equality is exact on both fields: a port-less entry and a port-ful entry
// for the same name are distinct keys.
type Domain struct {
	Name string
	Port uint16 // zero means "no port"
}

// Parse extracts a Domain from a raw host string such as "example.com",
// "example.com:8443", or the literal wildcard "*". A URL scheme is
// prepended when absent so url.Parse can split host and port uniformly.
func Parse(raw string) (Domain, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Domain{}, fmt.Errorf("domainkey: empty domain string")
	}
	if raw == Wildcard {
		return Domain{Name: Wildcard}, nil
	}

	withScheme := raw
	if !strings.Contains(raw, "://") {
		withScheme = "chimney://" + raw
	}

	u, err := url.Parse(withScheme)
	if err != nil {
		return Domain{}, fmt.Errorf("domainkey: invalid domain %q: %w", raw, err)
	}

	host := u.Hostname()
	if host == "" {
		return Domain{}, fmt.Errorf("domainkey: invalid domain %q: no host", raw)
	}

	normalized, err := idna.Lookup.ToASCII(strings.ToLower(host))
	if err != nil {
		// Not every valid hostname (e.g. "localhost", bare IPs) survives strict
		// IDNA lookup; fall back to the lower-cased host rather than failing.
		normalized = strings.ToLower(host)
	}

	var port uint16
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Domain{}, fmt.Errorf("domainkey: invalid port in %q: %w", raw, err)
		}
		port = uint16(n)
	}

	return Domain{Name: normalized, Port: port}, nil
}

// FromHostHeader parses a Host header value, which unlike Parse's input may
// already contain a literal IPv6 address in brackets.
func FromHostHeader(header string) (Domain, error) {
	if host, port, err := net.SplitHostPort(header); err == nil {
		d, parseErr := Parse(host)
		if parseErr != nil {
			return Domain{}, parseErr
		}
		if port != "" {
			n, err := strconv.ParseUint(port, 10, 16)
			if err != nil {
				return Domain{}, fmt.Errorf("domainkey: invalid port in %q: %w", header, err)
			}
			d.Port = uint16(n)
		}
		return d, nil
	}
	return Parse(header)
}

// Display renders the Domain the way it would appear in a Host header:
// "name" when there is no port, "name:port" otherwise.
func (d Domain) Display() string {
	if d.Port == 0 {
		return d.Name
	}
	return fmt.Sprintf("%s:%d", d.Name, d.Port)
}

// IsWildcard reports whether d is the catch-all "*" domain.
func (d Domain) IsWildcard() bool {
	return d.Name == Wildcard
}

// withoutPort returns a copy of d with Port zeroed, used for the
// port-stripped fallback lookup in DomainIndex.Get.
func (d Domain) withoutPort() Domain {
	return Domain{Name: d.Name}
}
