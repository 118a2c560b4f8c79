// Package hostdetect implements the host-detection step (component J,
// spec.md §4.8): turning a request's header set into the virtual-host name
// used by sites.find_by_hostname. Grounded in
// caddyhttp/httpserver/server.go's serveHTTP, which strips the port from
// r.Host before the vhost trie lookup, generalized into a configurable,
// ordered header search with a one-time cached winner.
package hostdetect

import (
	"net/http"
	"unicode/utf8"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/aosasona/chimney/config"
)

// Result is the outcome of a successful detection.
type Result struct {
	Host       string
	HeaderName string
	IsAuto     bool
}

// Detect resolves the virtual host for headers against the config handle's
// current snapshot, per spec.md §4.8:
//
//  1. If the snapshot has a cached resolved_host_header, try it first.
//  2. Otherwise walk the strategy's target headers in order.
//  3. On the first valid-UTF-8, non-empty match in Auto mode with no prior
//     cache, publish a new snapshot recording the winning header name.
//
// The cache is never invalidated from within a request; it is correct
// until the next config reload replaces the handle's snapshot.
func Detect(handle *config.Handle, headers http.Header) (Result, error) {
	cfg := handle.Load()
	isAuto := cfg.HostDetection.IsAuto()

	if cfg.ResolvedHostHeader != nil {
		name := *cfg.ResolvedHostHeader
		if v, ok := validHeaderValue(headers, name); ok {
			return Result{Host: v, HeaderName: name, IsAuto: isAuto}, nil
		}
	}

	for _, name := range cfg.HostDetection.TargetHeaders() {
		v, ok := validHeaderValue(headers, name)
		if !ok {
			continue
		}
		if isAuto && cfg.ResolvedHostHeader == nil {
			handle.Publish(cfg.WithResolvedHostHeader(name))
		}
		return Result{Host: v, HeaderName: name, IsAuto: isAuto}, nil
	}

	return Result{}, chimneyerr.New(chimneyerr.KindServer, "hostdetect.Detect", chimneyerr.ErrHostDetectionFailed)
}

func validHeaderValue(headers http.Header, name string) (string, bool) {
	v := headers.Get(name)
	if v == "" || !utf8.ValidString(v) {
		return "", false
	}
	return v, true
}
