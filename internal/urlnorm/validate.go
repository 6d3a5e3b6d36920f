package urlnorm

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

var errMissingHost = errors.New("missing scheme or host")

// DefaultAllowedDomains are the academic domains the crawler stays inside.
// A host matches when it ends with one of these suffixes or equals the suffix
// without its leading dot.
var DefaultAllowedDomains = []string{
	".ics.uci.edu",
	".cs.uci.edu",
	".informatics.uci.edu",
	".stat.uci.edu",
}

// DefaultDeniedExtensions lists file extensions that never carry crawlable
// HTML: images, media, archives, office documents and binaries.
var DefaultDeniedExtensions = []string{
	"css", "js", "bmp", "gif", "jpg", "jpeg", "ico",
	"png", "tif", "tiff", "mid", "mp2", "mp3", "mp4",
	"wav", "avi", "mov", "mpeg", "ram", "m4v", "mkv", "ogg", "ogv", "pdf",
	"ps", "eps", "tex", "ppt", "pptx", "doc", "docx", "xls", "xlsx", "names",
	"data", "dat", "exe", "bz2", "tar", "msi", "bin", "7z", "psd", "dmg", "iso",
	"epub", "dll", "cnf", "tgz", "sha1",
	"thmx", "mso", "arff", "rtf", "jar", "csv",
	"rm", "smil", "wmv", "swf", "wma", "zip", "rar", "gz",
}

// Validator decides whether a URL is in scope for the crawl.
// The zero value rejects everything because it allows no domains.
type Validator struct {
	allowed []string
	denied  map[string]struct{}
}

// NewValidator builds a Validator. Domains are matched case-insensitively;
// a domain given without a leading dot is treated as if it had one.
// Extensions may be given with or without the leading dot.
func NewValidator(domains, extensions []string) *Validator {
	v := &Validator{
		allowed: make([]string, 0, len(domains)),
		denied:  make(map[string]struct{}, len(extensions)),
	}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if !strings.HasPrefix(d, ".") {
			d = "." + d
		}
		v.allowed = append(v.allowed, d)
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			v.denied["."+ext] = struct{}{}
		}
	}
	return v
}

// DefaultValidator returns a Validator for the default domains and extension
// denylist.
func DefaultValidator() *Validator {
	return NewValidator(DefaultAllowedDomains, DefaultDeniedExtensions)
}

// IsValid reports whether raw should be crawled. Parse failures are reported
// as false, never as a panic.
func (v *Validator) IsValid(raw string) bool {
	if v == nil {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if _, denied := v.denied[strings.ToLower(path.Ext(u.Path))]; denied {
		return false
	}
	return v.AllowsHost(u.Hostname())
}

// AllowsHost reports whether host falls under one of the allowed domains.
func (v *Validator) AllowsHost(host string) bool {
	host = strings.ToLower(host)
	if host == "" {
		return false
	}
	for _, suffix := range v.allowed {
		if strings.HasSuffix(host, suffix) || host == suffix[1:] {
			return true
		}
	}
	return false
}

// Domains returns the allowed domain suffixes, each with a leading dot.
func (v *Validator) Domains() []string {
	out := make([]string, len(v.allowed))
	copy(out, v.allowed)
	return out
}
