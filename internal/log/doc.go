// Package log builds the crawler's slog loggers.
//
// Every logger returned by this package wraps its output handler in a
// RedactingHandler, which masks secrets before they reach the log:
//   - attributes whose key names a secret (cookie, authorization, token, ...)
//   - values that look like credentials (bearer and basic auth, JWTs)
//   - credentials inside URLs: user:password@ and query parameters such as
//     ?token=, ?key= or ?session=
//
// The crawler logs every URL it visits, and seed pages regularly link to
// signed or session-carrying URLs, so URL redaction is applied to every
// string attribute that parses as an absolute http(s) URL.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("page accepted", "url", "https://www.ics.uci.edu/x?token=abc")
//	// url=https://www.ics.uci.edu/x?token=***REDACTED***
package log
