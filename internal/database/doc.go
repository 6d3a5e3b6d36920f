// Package database provides SQLite-based storage for the crawler.
//
// This package implements the CrawlDB, which stores:
//   - The frontier: every discovered URL and whether it was completed
//   - Accepted pages with their token counts and fingerprints
//   - The cumulative word frequency table
//   - One row per crawl run, for the history shown by the CLI
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. A crawl that is interrupted can resume from the same file
// 4. WAL mode lets the report command read while a crawl is writing
package database
