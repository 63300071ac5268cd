// Package sanitize scrubs untrusted text before it is persisted, surfaced to
// users, or written to logs. It removes control characters and strips all
// markup while keeping the textual content, and can walk arbitrary decoded
// JSON values recursively.
//
// The allow-list is empty on purpose: no tags, no attributes. Only the text
// content of markup survives.
package sanitize

import (
	"regexp"
	"strings"
)

// tagRE matches a complete markup tag, including attributes and closing
// slashes, e.g. `<script src="x">`, `</b>`, `<br/>`.
var tagRE = regexp.MustCompile(`<[^<>]*>`)

// Sanitize returns s with control characters removed and all markup tags
// stripped while their text content is retained.
//
// Removed control ranges: below 0x09, 0x0B–0x0C, 0x0E–0x1F, and 0x7F.
// Tab (0x09), newline (0x0A), and carriage return (0x0D) survive.
//
// Sanitize is idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x09 || r == 0x0B || r == 0x0C || (r >= 0x0E && r <= 0x1F) || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()

	// Strip tags until stable: removing one tag can fuse fragments like
	// `<<b>script>` into a new tag, and idempotence demands a fixed point.
	for {
		next := tagRE.ReplaceAllString(out, "")
		if next == out {
			break
		}
		out = next
	}
	// Orphan delimiters could be reassembled into markup by a later pass
	// over concatenated text, so they are dropped as well.
	out = strings.ReplaceAll(out, "<", "")
	out = strings.ReplaceAll(out, ">", "")
	return out
}

// Deep sanitizes an arbitrary decoded-JSON value. Strings go through
// Sanitize; slices are mapped element-wise; maps have both their keys and
// values sanitized recursively. Numbers, booleans, and nil pass through
// unchanged. Any other type collapses to the empty string, matching the
// non-string-input rule of Sanitize.
func Deep(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return Sanitize(t)
	case bool, float64, float32, int, int32, int64, uint, uint32, uint64:
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Deep(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[Sanitize(k)] = Deep(e)
		}
		return out
	default:
		return ""
	}
}
