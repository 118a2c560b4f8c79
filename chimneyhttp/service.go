// Package chimneyhttp maps a resolved request onto an HTTP response
// (component L) and fronts the HTTP listener with the TLS auto-redirect
// check (component M). Grounded in
// caddyhttp/httpserver/server.go's ServeHTTP/serveHTTP split (the outer
// method sets the Server header and recovers panics; the inner method does
// vhost lookup and dispatch) and modules/caddyhttp/autohttps.go's
// auto-redirect-to-https behavior.
package chimneyhttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/aosasona/chimney/chimneyfs"
	"github.com/aosasona/chimney/config"
	"github.com/aosasona/chimney/hostdetect"
	"github.com/aosasona/chimney/metrics"
	"github.com/aosasona/chimney/resolver"
	"github.com/aosasona/chimney/site"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// RequestIDHeader is the header Chimney reads an inbound request ID from
// and echoes back, grounded in caddyhttp/requestid/requestid.go: a caller
// behind a shared proxy may already have minted one, and Chimney should not
// mint a second. An inbound value is echoed only if it parses as a UUID;
// any other value is replaced with a freshly minted one.
const RequestIDHeader = "X-Request-Id"

// staticEncoding maps a Content-Encoding value to the on-disk suffix its
// precompressed sibling file carries, checked in priority order when the
// client's Accept-Encoding allows it.
var staticEncodingPriority = []string{"br", "gzip"}

var staticEncoding = map[string]string{
	"br":   ".br",
	"gzip": ".gz",
}

// ServerIdentifier is the fixed Server header value, analogous to
// caddy.AppName being set on every response in the teacher's server.go.
const ServerIdentifier = "chimney"

// FSFactory builds the filesystem port for a site's root. Production code
// passes chimneyfs.NewLocal; tests substitute a closure returning a shared
// chimneyfs.Mock.
type FSFactory func(root string) chimneyfs.FS

// Service is the request service: it owns the site registry, the config
// handle host detection reads from, and the means of building a
// filesystem view for a site's root.
type Service struct {
	Sites   *site.Registry
	Handle  *config.Handle
	NewFS   FSFactory
	Logger  *zap.Logger
	Metrics *metrics.Collectors // optional; nil disables instrumentation
}

// NewService returns a Service backed by the local disk filesystem.
func NewService(sites *site.Registry, handle *config.Handle, logger *zap.Logger) *Service {
	return &Service{
		Sites:  sites,
		Handle: handle,
		NewFS:  func(root string) chimneyfs.FS { return chimneyfs.NewLocal(root) },
		Logger: logger,
	}
}

// headersWithHost clones r's header set and ensures "Host" reflects
// r.Host, since net/http special-cases the Host header out of r.Header.
func headersWithHost(r *http.Request) http.Header {
	h := r.Header.Clone()
	if h.Get("Host") == "" && r.Host != "" {
		h.Set("Host", r.Host)
	}
	return h
}

// ServeHTTP implements component L: host detection, site lookup, path
// resolution, and response mapping per spec.md §4.10.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Server", ServerIdentifier)

	reqID := r.Header.Get(RequestIDHeader)
	if _, err := uuid.Parse(reqID); err != nil {
		reqID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, reqID)

	var rec *statusRecorder
	if s.Metrics != nil {
		rec = &statusRecorder{ResponseWriter: w, status: http.StatusOK, matchedSite: "-"}
		w = rec
		start := time.Now()
		defer func() {
			s.Metrics.RequestsTotal.WithLabelValues(rec.matchedSite, metrics.SanitizeMethod(r.Method), metrics.SanitizeCode(rec.status)).Inc()
			s.Metrics.RequestDuration.WithLabelValues(rec.matchedSite).Observe(time.Since(start).Seconds())
		}()
	}

	result, err := hostdetect.Detect(s.Handle, headersWithHost(r))
	if err != nil {
		writePlainError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	matched, ok := s.Sites.FindByHostname(result.Host)
	if !ok {
		writePlainError(w, http.StatusNotFound, "Not Found")
		return
	}
	if rec != nil {
		rec.matchedSite = matched.Name
	}

	verdict, err := resolver.Resolve(s.NewFS(matched.Root), matched, r.URL.Path)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("resolver failure", zap.String("site", matched.Name), zap.Error(err))
		}
		writePlainError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	switch verdict.Kind {
	case resolver.VerdictRedirect:
		writeRedirect(w, verdict.Redirect)
	case resolver.VerdictFile:
		s.writeFile(w, r, matched, verdict, reqID)
	default:
		writePlainError(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Service) writeFile(w http.ResponseWriter, r *http.Request, matched *site.Site, verdict resolver.Verdict, reqID string) {
	fs := s.NewFS(matched.Root)

	servePath := verdict.FilePath
	info, err := fs.Stat(servePath)
	if err != nil {
		if errors.Is(err, chimneyerr.ErrNotFound) {
			writePlainError(w, http.StatusNotFound, "Not Found")
			return
		}
		if s.Logger != nil {
			s.Logger.Error("file stat failure", zap.String("site", matched.Name), zap.Error(err))
		}
		writePlainError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var encoding string
	for _, enc := range staticEncodingPriority {
		if !acceptsEncoding(r, enc) {
			continue
		}
		encodedPath := servePath + staticEncoding[enc]
		encodedInfo, statErr := fs.Stat(encodedPath)
		if statErr != nil {
			continue
		}
		servePath, info, encoding = encodedPath, encodedInfo, enc
		break
	}

	body, err := fs.Open(servePath)
	if err != nil {
		if errors.Is(err, chimneyerr.ErrNotFound) {
			writePlainError(w, http.StatusNotFound, "Not Found")
			return
		}
		if s.Logger != nil {
			s.Logger.Error("file open failure", zap.String("site", matched.Name), zap.Error(err))
		}
		writePlainError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer body.Close()

	etag := calculateEtag(info)
	w.Header().Set("Content-Type", verdict.MimeType)
	w.Header().Set("ETag", etag)
	if encoding != "" {
		w.Header().Set("Content-Encoding", encoding)
		w.Header().Add("Vary", "Accept-Encoding")
	}
	for k, v := range matched.ResponseHeaders {
		w.Header().Set(k, v)
	}

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	// No on-disk precompressed twin was found; gzip compressible content in
	// flight rather than serve it raw, matching fileserver.go's encoding
	// preference but filling the gap it leaves for assets with no .gz/.br
	// sibling on disk.
	if encoding == "" && isCompressible(verdict.MimeType) && acceptsEncoding(r, "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		w.WriteHeader(http.StatusOK)
		gw := gzip.NewWriter(w)
		n, _ := io.Copy(gw, body)
		gw.Close()
		s.logAccess(matched, r, reqID, n)
		return
	}

	w.WriteHeader(http.StatusOK)
	n, _ := io.Copy(w, body)
	s.logAccess(matched, r, reqID, n)
}

// logAccess emits a per-request access log line sized in human-readable
// form, grounded in middleware/cache/cache.go's use of go-humanize for
// operator-facing byte counts.
func (s *Service) logAccess(matched *site.Site, r *http.Request, reqID string, n int64) {
	if s.Logger == nil {
		return
	}
	s.Logger.Info("request served",
		zap.String("request_id", reqID),
		zap.String("site", matched.Name),
		zap.String("path", r.URL.Path),
		zap.String("bytes", humanize.Bytes(uint64(n))),
	)
}

// isCompressible reports whether content of the given MIME type is worth
// gzipping in flight, grounded in fileserver.go's static-encoding idiom:
// already-compressed media (images, fonts, archives) gains nothing from a
// second compression pass.
func isCompressible(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	switch {
	case strings.HasPrefix(base, "text/"):
		return true
	case base == "application/json", base == "application/javascript",
		base == "application/xml", base == "image/svg+xml",
		base == "application/manifest+json":
		return true
	default:
		return false
	}
}

// acceptsEncoding reports whether r's Accept-Encoding header names enc as
// an acceptable content-coding (no q-value weighting; a bare name match is
// all spec.md's static-asset serving needs).
func acceptsEncoding(r *http.Request, enc string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.SplitN(part, ";", 2)[0]) == enc {
			return true
		}
	}
	return false
}

// calculateEtag produces a strong etag from modtime and size without
// reading file contents, matching the teacher's own fileserver.go tradeoff.
func calculateEtag(info chimneyfs.Info) string {
	t := strconv.FormatInt(info.ModTime.Unix(), 36)
	sz := strconv.FormatInt(info.Size, 36)
	return `"` + t + sz + `"`
}

func writeRedirect(w http.ResponseWriter, rule site.RedirectRule) {
	w.Header().Set("Location", rule.To)
	w.WriteHeader(rule.StatusCode())
	fmt.Fprintf(w, "Redirecting to %s", rule.To)
}

func writePlainError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// statusRecorder wraps a ResponseWriter to capture the status code written
// and, once host/site resolution completes, the matched site's name, so
// ServeHTTP can label metrics after the fact without threading extra return
// values through writeFile/writeRedirect/writePlainError.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	matchedSite string
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ServeFronting implements component M: the HTTP-only listener consults
// the matched site's https_config and, if auto_redirect is enabled,
// redirects to the HTTPS equivalent of the request target; otherwise it
// delegates to ServeHTTP.
func (s *Service) ServeFronting(w http.ResponseWriter, r *http.Request) {
	result, err := hostdetect.Detect(s.Handle, headersWithHost(r))
	if err != nil {
		s.ServeHTTP(w, r)
		return
	}

	matched, ok := s.Sites.FindByHostname(result.Host)
	if !ok || matched.HTTPS == nil || !matched.HTTPS.AutoRedirect {
		s.ServeHTTP(w, r)
		return
	}

	target := url.URL{Scheme: "https", Host: result.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	w.Header().Set("Location", target.String())
	w.WriteHeader(http.StatusMovedPermanently)
	fmt.Fprintf(w, "Redirecting to %s", target.String())
}
