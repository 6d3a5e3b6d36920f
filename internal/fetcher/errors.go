package fetcher

import "errors"

// Fetcher configuration errors.
var (
	// ErrInvalidProxy is returned when the proxy URL cannot be parsed or has
	// no host:port.
	ErrInvalidProxy = errors.New("invalid proxy address: expected scheme://host:port")

	// ErrUnsupportedProxyScheme is returned for proxy schemes other than
	// socks5, http and https.
	ErrUnsupportedProxyScheme = errors.New("unsupported proxy scheme")

	// ErrProxyUnreachable is returned by CheckProxy when no connection to the
	// proxy can be established.
	ErrProxyUnreachable = errors.New("cannot connect to proxy")

	// ErrProxyWrongType is returned by CheckProxy when the proxy does not
	// speak SOCKS5 without authentication.
	ErrProxyWrongType = errors.New("proxy is not a SOCKS5 proxy")
)
