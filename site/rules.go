package site

import (
	"fmt"
	"strings"
)

// RedirectRule is either a bare target string (treated as permanent,
// non-replay) or a record of {to, temporary, replay} (spec.md §3, §4.7).
type RedirectRule struct {
	To        string
	Temporary bool
	Replay    bool
}

// StatusCode maps the rule's (Temporary, Replay) pair to the HTTP status
// spec.md §4.10 names: 301 permanent, 308 permanent+replay, 302 temporary,
// 307 temporary+replay.
func (r RedirectRule) StatusCode() int {
	switch {
	case !r.Temporary && !r.Replay:
		return 301
	case !r.Temporary && r.Replay:
		return 308
	case r.Temporary && !r.Replay:
		return 302
	default:
		return 307
	}
}

// UnmarshalTOML implements toml.Unmarshaler so a redirect entry may be
// written as a bare string ("/new") or a table ({to=..., temporary=...}).
func (r *RedirectRule) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		r.To = v
		r.Temporary = false
		r.Replay = false
		return nil
	case map[string]interface{}:
		to, ok := v["to"].(string)
		if !ok {
			return fmt.Errorf("site: redirect rule missing string field \"to\"")
		}
		r.To = to
		if temp, ok := v["temporary"].(bool); ok {
			r.Temporary = temp
		}
		if replay, ok := v["replay"].(bool); ok {
			r.Replay = replay
		}
		return nil
	default:
		return fmt.Errorf("site: redirect rule must be a string or table, got %T", data)
	}
}

// RewriteRule is either a bare target string or a record {to}. Rewrites
// never leave the site; the target is interpreted as a site-relative path.
type RewriteRule struct {
	To string
}

// UnmarshalTOML implements toml.Unmarshaler, mirroring RedirectRule.
func (r *RewriteRule) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		r.To = v
		return nil
	case map[string]interface{}:
		to, ok := v["to"].(string)
		if !ok {
			return fmt.Errorf("site: rewrite rule missing string field \"to\"")
		}
		r.To = to
		return nil
	default:
		return fmt.Errorf("site: rewrite rule must be a string or table, got %T", data)
	}
}

// NormalizePath enforces a leading "/" on a redirect/rewrite key or target,
// as required by spec.md §3's Site invariant.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
