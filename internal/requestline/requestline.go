// Package requestline handles the pipe-delimited directive text that
// describes an outbound HTTP call, e.g.
//
//	HTTP POST | URL https://api.example.com/users | HEADERS {"X-A":"1"} | BODY {"name":"x"}
//
// The execution core treats the text as opaque: parsing here is limited to
// pulling out single directives so the suite layer can enforce its
// single-origin invariant and validate the JSON payloads.
package requestline

import (
	"errors"
	"net/url"
	"strings"
	"unicode"
)

// Directive names the suite layer inspects.
const (
	DirURL     = "URL"
	DirHeaders = "HEADERS"
	DirBody    = "BODY"
)

// ErrNoURLDirective is returned when the text carries no URL directive.
var ErrNoURLDirective = errors.New("request line has no URL directive")

// ErrBadURL is returned when the URL directive is present but not parseable.
var ErrBadURL = errors.New("request line URL is not parseable")

// ExtractDirective returns the value of the first directive named name in
// text. The directive token must match name exactly (case-insensitively) and
// be followed by whitespace; a segment like "URLFOO ..." is not a URL
// directive. Directives with an empty value are skipped.
func ExtractDirective(text, name string) (string, bool) {
	for _, seg := range strings.Split(text, "|") {
		seg = strings.TrimSpace(seg)
		i := strings.IndexFunc(seg, unicode.IsSpace)
		if i < 0 || !strings.EqualFold(seg[:i], name) {
			continue
		}
		if rest := strings.TrimSpace(seg[i:]); rest != "" {
			return rest, true
		}
	}
	return "", false
}

// ExtractURL returns the value of the first URL directive in text, or
// ErrNoURLDirective when none exists.
func ExtractURL(text string) (string, error) {
	if v, ok := ExtractDirective(text, DirURL); ok {
		return v, nil
	}
	return "", ErrNoURLDirective
}

// Origin derives "scheme://host[:port]" from rawURL. The path, query, and
// fragment are discarded; host comparison is case-insensitive so the host is
// lowercased. It returns ErrBadURL when rawURL does not parse into an
// absolute URL with a host.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrBadURL
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}

// ExtractOrigin combines ExtractURL and Origin: it pulls the URL directive
// out of text and reduces it to its base origin.
func ExtractOrigin(text string) (string, error) {
	raw, err := ExtractURL(text)
	if err != nil {
		return "", err
	}
	return Origin(raw)
}
