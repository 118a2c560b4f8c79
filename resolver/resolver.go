// Package resolver implements the per-request path resolution pipeline
// (component K, spec.md §4.9): redirect check, rewrite substitution, index
// normalization, file lookup with directory/fallback handling, and a final
// redirect re-check. Grounded in
// caddyhttp/staticfiles/fileserver.go's serveFile (index-page substitution,
// directory handling) and caddyhttp/redirect + rewrite for the two
// transformation steps it composes ahead of the file lookup.
package resolver

import (
	"errors"
	"path"
	"strings"

	"github.com/aosasona/chimney/chimneyerr"
	"github.com/aosasona/chimney/chimneyfs"
	"github.com/aosasona/chimney/mimetype"
	"github.com/aosasona/chimney/site"
)

// VerdictKind distinguishes the three possible outcomes of Resolve.
type VerdictKind int

const (
	VerdictFile VerdictKind = iota
	VerdictRedirect
	VerdictNotFound
)

// Verdict is the result handed to the request service (component L).
type Verdict struct {
	Kind     VerdictKind
	Redirect site.RedirectRule
	FilePath string // fs-relative path (no leading "/"), valid when Kind == VerdictFile
	MimeType string
}

// Resolve runs the pipeline described in spec.md §4.9 for reqPath against
// fs, using s's redirects, rewrites, and fallback. The returned error is
// non-nil only for filesystem failures other than "not found" (Denied,
// etc.); a plain miss is reported as VerdictNotFound, not an error.
func Resolve(fs chimneyfs.FS, s *site.Site, reqPath string) (Verdict, error) {
	normalized := site.NormalizePath(reqPath)

	if rule, ok := s.Redirects[normalized]; ok {
		return Verdict{Kind: VerdictRedirect, Redirect: rule}, nil
	}

	target := normalized
	if rule, ok := s.Rewrites[normalized]; ok {
		target = site.NormalizePath(rule.To)
	}

	if target == "" || target == "/" {
		target = "/index.html"
	}

	finalPath, found, err := locate(fs, s, target)
	if err != nil {
		return Verdict{}, err
	}
	if found {
		return Verdict{Kind: VerdictFile, FilePath: finalPath, MimeType: mimetype.ForPath(finalPath, nil)}, nil
	}

	if rule, ok := s.Redirects[target]; ok {
		return Verdict{Kind: VerdictRedirect, Redirect: rule}, nil
	}
	return Verdict{Kind: VerdictNotFound}, nil
}

// locate performs the file-lookup step: stat the target, descend into
// index.html if it is a directory, and fall back to s.Fallback if nothing
// is found directly. It returns found=false (no error) for an ordinary
// miss, and a non-nil error only for something other than "not found".
func locate(fs chimneyfs.FS, s *site.Site, target string) (string, bool, error) {
	fsPath := strings.TrimPrefix(target, "/")

	info, err := fs.Stat(fsPath)
	switch {
	case err == nil && info.IsDir():
		idx := path.Join(fsPath, "index.html")
		if idxInfo, idxErr := fs.Stat(idx); idxErr == nil && !idxInfo.IsDir() {
			return idx, true, nil
		}
	case err == nil:
		return fsPath, true, nil
	case !errors.Is(err, chimneyerr.ErrNotFound):
		return "", false, err
	}

	if s.Fallback != "" {
		fbPath := strings.TrimPrefix(site.NormalizePath(s.Fallback), "/")
		if fbInfo, fbErr := fs.Stat(fbPath); fbErr == nil && !fbInfo.IsDir() {
			return fbPath, true, nil
		}
	}

	return "", false, nil
}
