package model

// Response is the outcome of downloading a single URL.
//
// The transport never reports ordinary HTTP error statuses as failures:
// a 404 is a Response with Status 404 and a nil Err. Err is set only for
// transport-level failures (DNS, connection reset, timeout), in which case
// Status is 0 and Content is empty.
type Response struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL the content was actually served from.
	// Redirects are not followed by the transport, so this only differs
	// from URL when a cache proxy rewrites it.
	FinalURL string `json:"final_url,omitempty"`

	// Status is the HTTP status code, or 0 on transport failure.
	Status int `json:"status"`

	// Location is the redirect target for 3xx responses.
	Location string `json:"location,omitempty"`

	// ContentType is the value of the Content-Type header.
	ContentType string `json:"content_type,omitempty"`

	// Content is the (possibly truncated) response body.
	Content []byte `json:"-"`

	// Err is the transport error, if any.
	Err error `json:"-"`
}

// BaseURL returns the URL relative links on the page should resolve against.
func (r *Response) BaseURL() string {
	if r.FinalURL != "" {
		return r.FinalURL
	}
	return r.URL
}

// IsSuccess reports whether the status denotes a final, non-redirect resource.
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// IsRedirect reports whether the status is a 3xx redirect.
func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}
