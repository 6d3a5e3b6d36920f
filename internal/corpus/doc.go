// Package corpus holds the statistics shared by all crawl workers: the set of
// accepted pages, the cumulative word frequency table and the fingerprints
// used for near-duplicate detection.
//
// Design decision: The three tables live behind a single mutex and are only
// changed through Admit. Checking "already recorded", checking for a near
// duplicate and recording the page happen as one step, so two workers that
// fetch the same or near-identical content at the same moment can never both
// be counted.
package corpus
