package model

// Outcome is the final state of one processed URL.
type Outcome int

const (
	// OutcomeRejected means the page contributed nothing to the statistics.
	// Links may still have been harvested from it, see Reason.
	OutcomeRejected Outcome = iota

	// OutcomeAccepted means the page was added to the corpus.
	OutcomeAccepted
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Reason explains why a URL was rejected.
//
// Design decision: We use iota-based constants so rejection counters can be
// kept in a fixed-size array indexed by Reason. The String() method provides
// the stable label used in logs, metrics and the database.
type Reason int

const (
	// ReasonNone is the reason of an accepted page.
	ReasonNone Reason = iota

	// ReasonTransport means the download failed below HTTP
	// (DNS, connection refused, timeout).
	ReasonTransport

	// ReasonBadStatus means the status was outside [200, 400).
	ReasonBadStatus

	// ReasonRedirect means the response was a 3xx. Its links, including
	// the Location target, are still followed.
	ReasonRedirect

	// ReasonRobotsDenied means robots.txt disallows the URL.
	ReasonRobotsDenied

	// ReasonAlreadyVisited means the URL is already in the corpus.
	ReasonAlreadyVisited

	// ReasonTooFewTokens means the page has fewer unique tokens than the
	// configured minimum.
	ReasonTooFewTokens

	// ReasonTooManyTokens means the page has more unique tokens than the
	// configured maximum.
	ReasonTooManyTokens

	// ReasonNearDuplicate means the page's fingerprint is within the
	// Hamming threshold of an accepted page.
	ReasonNearDuplicate

	// NumReasons is the number of defined reasons.
	NumReasons
)

// String returns the label of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTransport:
		return "transport"
	case ReasonBadStatus:
		return "bad_status"
	case ReasonRedirect:
		return "redirect"
	case ReasonRobotsDenied:
		return "robots_denied"
	case ReasonAlreadyVisited:
		return "already_visited"
	case ReasonTooFewTokens:
		return "too_few_tokens"
	case ReasonTooManyTokens:
		return "too_many_tokens"
	case ReasonNearDuplicate:
		return "near_duplicate"
	default:
		return "unknown"
	}
}
