package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/numerus/internal/count"
	"github.com/ternarybob/numerus/internal/interfaces"
)

// Result is a successful extraction: the normalized count plus the raw text
// and strategy that produced it, for diagnostics.
type Result struct {
	Count    float64
	RawText  string
	Strategy string
}

// Chain runs a profile's strategies against a fetched page in fixed
// priority order. The chain stops at the first candidate text that
// normalizes to a count; text that fails normalization only moves the scan
// to the next candidate, never aborts the visit.
type Chain struct {
	profile *Profile
	logger  arbor.ILogger
}

// NewChain creates a strategy chain for the given platform profile.
func NewChain(profile *Profile, logger arbor.ILogger) *Chain {
	return &Chain{
		profile: profile,
		logger:  logger,
	}
}

// Profile returns the platform profile this chain runs.
func (c *Chain) Profile() *Profile {
	return c.profile
}

// Extract visits the handle's profile page and runs the strategy chain.
// Returns ErrRedirected when the page no longer corresponds to the handle,
// ErrNavigation on load failures and ErrNotFound when every strategy is
// exhausted.
func (c *Chain) Extract(ctx context.Context, page interfaces.Page, handle string) (Result, error) {
	url := c.profile.ProfileURL(handle)

	c.logger.Debug().
		Str("platform", c.profile.Platform).
		Str("handle", handle).
		Str("url", url).
		Msg("Navigating to profile")

	if err := page.Navigate(ctx, url); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	if c.profile.ReadySelector != "" {
		if err := page.WaitVisible(ctx, c.profile.ReadySelector, c.profile.ReadyTimeout); err != nil {
			return Result{}, fmt.Errorf("%w: waiting for %s: %v", ErrNavigation, c.profile.ReadySelector, err)
		}
	}

	if c.profile.SettleWait > 0 {
		if err := page.Settle(ctx, c.profile.SettleWait); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrNavigation, err)
		}
	}

	c.dismissOverlay(ctx, page)

	// Quick passes run only the primary strategies; dynamic content often
	// lands between passes.
	passes := 1 + c.profile.QuickScanPasses
	for pass := 0; pass < passes; pass++ {
		if err := c.verifyLocation(ctx, page, handle); err != nil {
			return Result{}, err
		}

		if result, ok := c.scanPass(ctx, page, false); ok {
			return result, nil
		}

		if pass < passes-1 && c.profile.QuickScanInterval > 0 {
			if err := page.Settle(ctx, c.profile.QuickScanInterval); err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrNavigation, err)
			}
		}
	}

	// Escalate: longer wait, then the full chain including last-resort
	// strategies.
	if c.profile.EscalateSettle > 0 {
		if err := page.Settle(ctx, c.profile.EscalateSettle); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrNavigation, err)
		}
	}

	if err := c.verifyLocation(ctx, page, handle); err != nil {
		return Result{}, err
	}

	if result, ok := c.scanPass(ctx, page, true); ok {
		return result, nil
	}

	return Result{}, ErrNotFound
}

// verifyLocation enforces the redirect check when the profile enables it.
// A mismatch short-circuits the visit with ErrRedirected.
func (c *Chain) verifyLocation(ctx context.Context, page interfaces.Page, handle string) error {
	if !c.profile.VerifyLocation {
		return nil
	}

	location, err := page.Location(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading location: %v", ErrNavigation, err)
	}

	current := strings.ToLower(strings.TrimRight(location, "/"))
	if !strings.HasSuffix(current, "/"+strings.ToLower(handle)) {
		c.logger.Warn().
			Str("platform", c.profile.Platform).
			Str("handle", handle).
			Str("location", location).
			Msg("Redirected away from requested profile")
		return fmt.Errorf("%w: at %s", ErrRedirected, location)
	}
	return nil
}

// dismissOverlay clicks the profile's overlay close control once if
// present. Absence or failure to dismiss is not an error.
func (c *Chain) dismissOverlay(ctx context.Context, page interfaces.Page) {
	if c.profile.DismissSelector == "" {
		return
	}

	if err := page.Click(ctx, c.profile.DismissSelector, c.profile.DismissTimeout); err != nil {
		c.logger.Debug().
			Str("platform", c.profile.Platform).
			Str("selector", c.profile.DismissSelector).
			Msg("No blocking overlay found or could not dismiss it")
		return
	}

	c.logger.Debug().
		Str("platform", c.profile.Platform).
		Msg("Dismissed blocking overlay")
}

// scanPass runs the strategies in priority order and returns the first
// candidate that normalizes.
func (c *Chain) scanPass(ctx context.Context, page interfaces.Page, includeLastResort bool) (Result, bool) {
	for i := range c.profile.Strategies {
		strategy := &c.profile.Strategies[i]
		if strategy.LastResort && !includeLastResort {
			continue
		}

		candidates, err := strategy.candidates(ctx, page)
		if err != nil {
			// Element lookup and script failures are expected results for
			// markup that has moved on; the next strategy gets its turn.
			c.logger.Debug().
				Str("platform", c.profile.Platform).
				Str("strategy", strategy.Name).
				Err(err).
				Msg("Strategy failed, trying next")
			continue
		}

		for _, text := range candidates {
			value, err := count.Parse(text)
			if err != nil {
				c.logger.Debug().
					Str("strategy", strategy.Name).
					Str("text", text).
					Msg("Candidate text did not normalize")
				continue
			}

			c.logger.Debug().
				Str("platform", c.profile.Platform).
				Str("strategy", strategy.Name).
				Str("text", text).
				Float64("count", value).
				Msg("Extracted count")
			return Result{Count: value, RawText: text, Strategy: strategy.Name}, true
		}
	}

	return Result{}, false
}
