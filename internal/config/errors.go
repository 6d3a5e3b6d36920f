package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Config.ValidateReport()
// and provide specific information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeeds is returned when a crawl has no seed URL and there is no
	// default to fall back to.
	ErrNoSeeds = errors.New("no seed URLs specified")

	// ErrInvalidSeed is returned when a seed is outside the allowed domains
	// or is not an http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed URL: must be an http(s) URL inside the allowed domains")

	// ErrNoAllowedDomains is returned when the domain allowlist is empty,
	// which would reject every discovered link.
	ErrNoAllowedDomains = errors.New("no allowed domains configured")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Use 0 to rely on robots.txt crawl-delay alone.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidTokenBounds is returned when the unique-token band is empty
	// or negative.
	ErrInvalidTokenBounds = errors.New("invalid token bounds: need 0 <= min-tokens <= max-tokens (max 0 means unbounded)")

	// ErrInvalidThreshold is returned when the Hamming threshold does not fit
	// the fingerprint width.
	ErrInvalidThreshold = errors.New("invalid threshold: must be between 0 and the fingerprint width")

	// ErrInvalidNGram is returned when the simhash feature width is not positive.
	ErrInvalidNGram = errors.New("invalid n-gram size: must be positive")

	// ErrInvalidFingerprintBits is returned when the fingerprint width is
	// outside 1..64.
	ErrInvalidFingerprintBits = errors.New("invalid fingerprint bits: must be between 1 and 64")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate connection failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidCheckpoint is returned when the checkpoint interval is negative.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint interval: must be non-negative")

	// ErrInvalidTopWords is returned when the report word count is negative.
	ErrInvalidTopWords = errors.New("invalid top words: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
