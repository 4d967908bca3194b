package urlutil

import (
	"fmt"
	"net/url"
)

// Normalize resolves href against base and returns the absolute form used as
// the crawl identity of a page.
//
// The normalization follows these rules:
//   - Relative references are resolved against base
//   - Fragments are removed
//   - Scheme and host are lowercased
//   - An empty path on a URL with a host becomes "/"
//   - Query strings are kept as-is
//
// The second return value is false when href cannot be parsed as a URL
// reference. Callers drop such links silently.
//
// Properties:
//   - Pure: no state, no memory
//   - Idempotent: normalizing an already normalized URL against any base yields itself
func Normalize(base url.URL, href string) (url.URL, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return url.URL{}, false
	}
	resolved := base.ResolveReference(ref)
	return canonical(*resolved), true
}

// SameSite reports whether a and b share exactly the same host.
// The comparison includes the port and does not fold subdomains.
func SameSite(a, b url.URL) bool {
	return lowerASCII(a.Host) == lowerASCII(b.Host)
}

// ParseSeed parses the crawl start URL. The seed must be an absolute http or
// https URL with a host. The returned URL is in normalized form.
func ParseSeed(raw string) (url.URL, *ParseError) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, &ParseError{
			Message: err.Error(),
			Input:   raw,
			Cause:   ErrCauseMalformed,
		}
	}

	scheme := lowerASCII(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return url.URL{}, &ParseError{
			Message: fmt.Sprintf("unsupported scheme %q", parsed.Scheme),
			Input:   raw,
			Cause:   ErrCauseNotAbsolute,
		}
	}
	if parsed.Host == "" {
		return url.URL{}, &ParseError{
			Message: "missing host",
			Input:   raw,
			Cause:   ErrCauseNotAbsolute,
		}
	}

	return canonical(*parsed), nil
}

func canonical(u url.URL) url.URL {
	u.Scheme = lowerASCII(u.Scheme)
	u.Host = lowerASCII(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Host != "" && u.Path == "" && u.Opaque == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	return u
}

// lowerASCII converts ASCII characters to lowercase without allocating.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
