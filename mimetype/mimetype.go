// Package mimetype maps a served path to a Content-Type value (component E,
// spec.md §4.6). Grounded in caddyhttp/mime/mime.go's extension-keyed
// Config map, generalized from a user-configurable table into a built-in
// table covering the extensions the original implementation hard-codes,
// with net/http's sniff-based DetectContentType as the unknown-extension
// fallback (the teacher's newer modules/caddyhttp/fileserver also falls
// back to content sniffing for extensionless files).
package mimetype

import (
	"net/http"
	"path"
	"strings"
)

// builtin is the extension table. Unlike the teacher's old Config (a
// site-operator-provided list), this is fixed: the spec names no
// configuration surface for MIME mapping.
var builtin = map[string]string{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".mjs":  "text/javascript; charset=utf-8",
	".json": "application/json",
	".xml":  "application/xml",
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".ico":  "image/x-icon",
	".avif": "image/avif",
	".woff": "font/woff",
	".woff2": "font/woff2",
	".ttf":  "font/ttf",
	".otf":  "font/otf",
	".eot":  "application/vnd.ms-fontobject",
	".pdf":  "application/pdf",
	".wasm": "application/wasm",
	".map":  "application/json",
	".webmanifest": "application/manifest+json",
	".gz":   "application/gzip",
	".br":   "application/x-brotli",
}

// ForPath returns the Content-Type for path, looking it up by lowercased
// extension first. sniff, when non-empty, is used with
// http.DetectContentType-style sniffing for unrecognized extensions; pass
// the first bytes of the file's content, or nil to skip sniffing and fall
// back to application/octet-stream.
func ForPath(reqPath string, sniff []byte) string {
	ext := strings.ToLower(path.Ext(reqPath))
	if ct, ok := builtin[ext]; ok {
		return ct
	}
	if len(sniff) > 0 {
		return http.DetectContentType(sniff)
	}
	return "application/octet-stream"
}
