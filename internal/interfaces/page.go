package interfaces

import (
	"context"
	"time"
)

// Element is a handle to a single matched element on the rendered page.
type Element interface {
	// Text returns the visible text content of the element.
	Text(ctx context.Context) (string, error)

	// Attribute returns the value of the named attribute and whether it exists.
	Attribute(ctx context.Context, name string) (string, bool, error)
}

// Page is the rendered-page capability consumed by the extraction pipeline.
// Implementations own a single exclusive browser session that is reused
// across all accounts in a run and must be closed on every exit path.
type Page interface {
	// Navigate loads the given URL and blocks until the navigation commits.
	Navigate(ctx context.Context, url string) error

	// Location returns the current page URL. Used to detect redirects away
	// from a requested profile.
	Location(ctx context.Context) (string, error)

	// FindElements returns handles for all elements matching the CSS
	// selector. An empty slice is a normal result, not an error.
	FindElements(ctx context.Context, selector string) ([]Element, error)

	// EvaluateScript executes JavaScript in the page and unmarshals the
	// JSON-serializable result into out.
	EvaluateScript(ctx context.Context, script string, out interface{}) error

	// OuterHTML returns the full rendered document HTML.
	OuterHTML(ctx context.Context) (string, error)

	// WaitVisible blocks until an element matching the selector is visible
	// or the timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Click clicks the first visible element matching the selector, waiting
	// up to timeout for it to become clickable.
	Click(ctx context.Context, selector string, timeout time.Duration) error

	// Settle blocks for the given duration to let dynamic content render.
	Settle(ctx context.Context, d time.Duration) error

	// Close releases the browser session. Safe to call more than once.
	Close() error
}
