// Package main provides the entry point for the ucicrawl CLI.
//
// ucicrawl is a polite, domain-restricted web crawler for the UCI ICS, CS,
// Informatics and Statistics web sites. It collects page word counts,
// detects near-duplicate pages and reports corpus statistics.
//
// Usage:
//
//	ucicrawl crawl [seed-url...]
//	ucicrawl report
//
// See --help for all available options.
package main

// main is the entry point for ucicrawl.
func main() {
	Execute()
}
