// Package pipeline drives sequential per-account extraction with bounded
// retries and reconciles the results against the external record store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/numerus/internal/extract"
	"github.com/ternarybob/numerus/internal/interfaces"
	"github.com/ternarybob/numerus/internal/report"
)

// Extractor is the strategy-chain capability the controller retries.
type Extractor interface {
	Extract(ctx context.Context, page interfaces.Page, handle string) (extract.Result, error)
	Profile() *extract.Profile
}

// Controller runs one account's extraction attempts. Per account the state
// machine is PENDING -> ATTEMPTING -> SUCCEEDED|FAILED; every terminal
// transition yields exactly one outcome, even when an attempt panics.
type Controller struct {
	chain  Extractor
	page   interfaces.Page
	logger arbor.ILogger

	// sleep is context-aware and replaceable in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// NewController creates a retry controller bound to one page session.
func NewController(chain Extractor, page interfaces.Page, logger arbor.ILogger) *Controller {
	return &Controller{
		chain:  chain,
		page:   page,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Process runs the strategy chain for one handle with the profile's retry
// policy and returns its single terminal outcome. index/total only feed
// the progress line.
func (c *Controller) Process(ctx context.Context, index, total int, handle string) report.Outcome {
	profile := c.chain.Profile()
	lastReason := "no attempts made"

	for attempt := 1; attempt <= profile.MaxAttempts; attempt++ {
		c.logger.Info().
			Str("platform", profile.Platform).
			Str("handle", handle).
			Str("progress", fmt.Sprintf("%d/%d", index, total)).
			Str("attempt", fmt.Sprintf("%d/%d", attempt, profile.MaxAttempts)).
			Msg("Processing account")

		result, err := c.attempt(ctx, handle)
		if err == nil {
			c.logger.Info().
				Str("handle", handle).
				Float64("count", result.Count).
				Str("strategy", result.Strategy).
				Int("attempt", attempt).
				Msg("Successfully extracted count")
			return report.Success(handle, result.Count, attempt)
		}

		lastReason = err.Error()
		c.logger.Warn().
			Str("handle", handle).
			Int("attempt", attempt).
			Err(err).
			Msg("Attempt failed")

		if ctx.Err() != nil {
			lastReason = ctx.Err().Error()
			break
		}

		if attempt < profile.MaxAttempts {
			backoff := c.backoff(profile, err)
			c.logger.Debug().
				Str("handle", handle).
				Float64("backoff_sec", backoff.Seconds()).
				Msg("Retrying after backoff")
			c.sleep(ctx, backoff)
		}
	}

	c.logger.Warn().
		Str("handle", handle).
		Int("max_attempts", profile.MaxAttempts).
		Str("reason", lastReason).
		Msg("All attempts exhausted")
	return report.Failure(handle, lastReason, profile.MaxAttempts)
}

// attempt runs one extraction, degrading a panic to an error so a crash
// inside one account never skips its outcome or aborts the run.
func (c *Controller) attempt(ctx context.Context, handle string) (result extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("attempt panicked: %v", r)
			c.logger.Error().
				Str("handle", handle).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Recovered from panic during attempt")
		}
	}()

	return c.chain.Extract(ctx, c.page, handle)
}

// backoff picks the wait before the next attempt: hard page errors
// (navigation failures, redirects) take the profile's fixed hard-error
// backoff, everything else a randomized interval.
func (c *Controller) backoff(profile *extract.Profile, err error) time.Duration {
	if errors.Is(err, extract.ErrNavigation) || errors.Is(err, extract.ErrRedirected) {
		return profile.HardErrorBackoff
	}
	return randomBetween(profile.BackoffMin, profile.BackoffMax)
}

// randomBetween returns a duration uniformly drawn from [min, max].
func randomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
