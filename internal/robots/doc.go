// Package robots implements the crawler's politeness gate: robots.txt access
// decisions, per-host crawl delays and request spacing.
//
// Design decision: every failure to obtain robots.txt (network error, 5xx,
// unparseable body) is treated as "allow everything with the default delay".
// A flaky robots.txt endpoint must never halt a crawl, and the default delay
// still keeps the crawler polite towards that host.
package robots
