package config

import "fmt"

// defaultAutoHeaders is the fixed, ordered list tried in Auto mode
// (spec.md §3, §4.8).
var defaultAutoHeaders = []string{
	"Host",
	"X-Forwarded-Host",
	"X-Forwarded-For",
	"X-Real-Host",
	"X-Forwarded-Server",
}

// HostDetectionStrategy is either Auto (try defaultAutoHeaders in order) or
// Manual (try a fixed, operator-supplied list).
type HostDetectionStrategy struct {
	Manual  bool
	Headers []string
}

// AutoStrategy returns the Auto variant.
func AutoStrategy() HostDetectionStrategy {
	return HostDetectionStrategy{}
}

// TargetHeaders returns the ordered list of header names to try.
func (h HostDetectionStrategy) TargetHeaders() []string {
	if h.Manual {
		return h.Headers
	}
	return defaultAutoHeaders
}

// IsAuto reports whether this is the Auto strategy.
func (h HostDetectionStrategy) IsAuto() bool {
	return !h.Manual
}

// UnmarshalTOML implements toml.Unmarshaler: host_detection is either the
// bare string "auto" or a table {target_headers = [...]}.
func (h *HostDetectionStrategy) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		if v != "auto" {
			return fmt.Errorf("config: host_detection string must be \"auto\", got %q", v)
		}
		h.Manual = false
		h.Headers = nil
		return nil
	case map[string]interface{}:
		raw, ok := v["target_headers"].([]interface{})
		if !ok {
			return fmt.Errorf("config: host_detection table must set target_headers")
		}
		headers := make([]string, 0, len(raw))
		for _, item := range raw {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("config: target_headers entries must be strings")
			}
			headers = append(headers, s)
		}
		h.Manual = true
		h.Headers = headers
		return nil
	default:
		return fmt.Errorf("config: host_detection must be a string or table, got %T", data)
	}
}
