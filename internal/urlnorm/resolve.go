package urlnorm

import (
	"net/url"
	"strings"
)

// Resolve turns href, found on the page at base, into an absolute URL with its
// fragment removed. The boolean is false when the reference should be skipped:
// pure fragments, non-HTTP schemes (mailto:, tel:, javascript:), empty hrefs
// and unparseable bases.
//
// Rules are checked in order and are mutually exclusive:
//
//	//host/path   -> scheme of base + ":" + href
//	/path         -> scheme://host of base + href
//	#frag         -> skip
//	path          -> scheme://host of base + "/" + href
//	scheme:opaque -> skip
//	anything else -> href unchanged
func Resolve(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" || b.Host == "" {
		return "", false
	}

	var abs string
	switch {
	case strings.HasPrefix(href, "//"):
		abs = b.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		abs = b.Scheme + "://" + b.Host + href
	case strings.HasPrefix(href, "#"):
		return "", false
	case !strings.Contains(href, "://") && !strings.Contains(href, ":"):
		abs = b.Scheme + "://" + b.Host + "/" + href
	case !strings.Contains(href, "://"):
		return "", false
	default:
		abs = href
	}

	abs = StripFragment(abs)
	if abs == "" {
		return "", false
	}
	return abs, true
}

// StripFragment removes everything from the first '#'.
func StripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}

// Subdomain returns the lower-cased host of u without a leading "www." and
// without a port. It returns "" when u does not parse.
func Subdomain(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// Host returns the scheme://host key used for per-host politeness state.
func Host(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", &url.Error{Op: "parse", URL: u, Err: errMissingHost}
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
