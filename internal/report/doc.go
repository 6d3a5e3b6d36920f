// Package report turns corpus snapshots into crawl reports.
//
// Summarize reduces a model.Snapshot to the figures the report answers:
// how many unique pages were found, which page is longest, the most common
// words and how many pages each subdomain of the report domain holds.
// Writers render a Summary:
//   - TextWriter: the classic report.txt layout for terminals and files
//   - MarkdownWriter: tables and a subdomain chart for sharing
//   - JSONWriter: structured output for tool integration
//
// The package also owns the results file the crawler rewrites at every
// checkpoint (WriteResults) and can read it back (ReadResults), so a report
// can be produced from a results file alone.
//
// Design decision: We separate summarizing from rendering so every format
// reports exactly the same numbers and a new format never needs to know how
// the figures were derived.
package report
