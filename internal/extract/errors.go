package extract

import "errors"

var (
	// ErrRedirected indicates the browser ended up on a page that no longer
	// corresponds to the requested handle. This short-circuits the strategy
	// chain for the visit; retrying is the controller's decision.
	ErrRedirected = errors.New("redirected away from profile")

	// ErrNotFound indicates every strategy in the chain was exhausted
	// without producing a parseable count.
	ErrNotFound = errors.New("count not found on page")

	// ErrNavigation wraps page load and wait failures.
	ErrNavigation = errors.New("page navigation failed")
)
