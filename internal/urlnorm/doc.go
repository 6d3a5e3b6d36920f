// Package urlnorm turns raw hyperlink references into absolute crawl keys and
// decides which of those URLs are in scope for the crawler.
//
// Resolution is intentionally simpler than RFC 3986: a path-relative reference
// such as "about.html" is resolved against the host root, not against the
// directory of the base page. The crawler accepts the occasional wrong URL in
// exchange for never producing ever-deeper "a/b/a/b/..." paths from broken
// relative links.
package urlnorm
