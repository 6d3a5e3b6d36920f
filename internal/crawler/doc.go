// Package crawler runs the crawl: a pool of workers pulling URLs from the
// frontier, downloading them politely and turning each response into
// statistics and newly discovered links.
//
// # Components
//
//   - Crawler: The worker pool that coordinates one crawl run
//   - Processor: Turns one (URL, response) pair into links and a verdict
//   - ParsePage: Extracts words and hyperlinks from an HTML document
//
// # Worker loop
//
// Every worker repeats the same steps until the frontier is exhausted or the
// context is cancelled:
//
//	Next -> robots check -> wait for host slot -> download -> process
//	     -> enqueue links -> mark complete -> politeness pause
//
// A failure on one page (transport error, bad status, unparseable HTML) only
// affects that page. The crawl stops early only when the frontier itself
// fails, because continuing would silently lose discovered URLs.
//
// # Shutdown
//
// Cancelling the context stops workers at their next loop check. A download
// that already started is allowed to finish and its results are recorded,
// so the corpus and frontier are never left half updated.
package crawler
