// Package fetcher downloads pages for the crawler.
//
// The fetcher never follows redirects. A 3xx response is handed back as is,
// and the crawler treats its Location header as a discovered link, so the
// redirect target goes through the same validation, robots and dedup checks
// as every other URL.
//
// Requests can be routed through a proxy: a SOCKS5 proxy (socks5://host:port)
// or an HTTP caching proxy (http://host:port).
package fetcher
