package notifier

import "errors"

var (
	// ErrNullHTTPClient specifies that a HTTP client is required.
	ErrNullHTTPClient = errors.New("http client must not be null")
	// ErrMissingEndpoints specifies that at least one webhook is required.
	ErrMissingEndpoints = errors.New("missing webhook endpoints")
	// ErrInvalidEndpoint specifies that a webhook is not a valid URI.
	ErrInvalidEndpoint = errors.New("webhook endpoint must be a valid URI")
)
