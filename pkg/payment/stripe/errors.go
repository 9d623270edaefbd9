package stripe

import "errors"

var (
	// ErrNetworkError indicates the Stripe API could not be reached.
	ErrNetworkError = errors.New("stripe: network error")
	// ErrAPIError indicates Stripe rejected the request.
	ErrAPIError = errors.New("stripe: api error")
	// ErrInvalidSignature indicates a webhook payload failed verification.
	ErrInvalidSignature = errors.New("stripe: invalid webhook signature")
	// ErrInvalidPayload indicates a webhook payload could not be parsed.
	ErrInvalidPayload = errors.New("stripe: invalid webhook payload")
)
