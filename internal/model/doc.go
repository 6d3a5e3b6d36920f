// Package model defines the value types shared by the crawl engine, its
// storage layer and the report renderers.
//
// This package contains the following main types:
//   - Response: The result of downloading one URL through the transport
//   - PageRecord: An accepted page and its token count
//   - WordCount: One row of a word frequency table
//   - Snapshot: A point-in-time copy of the corpus statistics
//   - Outcome, Reason: How a processed URL ended and why
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, database and report packages all exchange these
// types, so centralizing them prevents import cycles.
package model
