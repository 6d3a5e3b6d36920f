// Package frontier holds the URLs waiting to be crawled.
//
// A URL moves through three states: queued, in flight (handed to a worker by
// Next) and completed (MarkComplete). Each URL enters the frontier at most
// once; adding a URL in any of the three states is a no-op. The crawl is
// exhausted when nothing is queued and nothing is in flight, because an
// in-flight page may still discover new links.
package frontier
