package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/numerus/internal/extract"
	"github.com/ternarybob/numerus/internal/interfaces"
)

// fakeExtractor fails a fixed number of attempts before succeeding. A
// negative failUntil never succeeds.
type fakeExtractor struct {
	profile   *extract.Profile
	failUntil int
	err       error
	panicMsg  string
	calls     int
}

func (f *fakeExtractor) Extract(ctx context.Context, page interfaces.Page, handle string) (extract.Result, error) {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.failUntil < 0 || f.calls <= f.failUntil {
		return extract.Result{}, f.err
	}
	return extract.Result{Count: 1234, RawText: "1,234 followers", Strategy: "primary"}, nil
}

func (f *fakeExtractor) Profile() *extract.Profile {
	return f.profile
}

func retryProfile(maxAttempts int) *extract.Profile {
	return &extract.Profile{
		Platform:         "testnet",
		URLTemplate:      "https://example.com/%s",
		MaxAttempts:      maxAttempts,
		BackoffMin:       time.Millisecond,
		BackoffMax:       2 * time.Millisecond,
		HardErrorBackoff: 5 * time.Millisecond,
	}
}

func newTestController(chain Extractor) (*Controller, *[]time.Duration) {
	var slept []time.Duration
	c := NewController(chain, nil, arbor.NewLogger())
	c.sleep = func(ctx context.Context, d time.Duration) {
		slept = append(slept, d)
	}
	return c, &slept
}

func TestController_SucceedsFirstAttempt(t *testing.T) {
	chain := &fakeExtractor{profile: retryProfile(3)}
	controller, slept := newTestController(chain)

	outcome := controller.Process(context.Background(), 1, 1, "alice")

	assert.True(t, outcome.OK)
	assert.Equal(t, float64(1234), outcome.Count)
	assert.Equal(t, 1, outcome.Attempts)
	assert.Equal(t, 1, chain.calls)
	assert.Empty(t, *slept)
}

func TestController_SucceedsAfterRetry(t *testing.T) {
	chain := &fakeExtractor{
		profile:   retryProfile(3),
		failUntil: 2,
		err:       extract.ErrNotFound,
	}
	controller, slept := newTestController(chain)

	outcome := controller.Process(context.Background(), 1, 1, "bob")

	assert.True(t, outcome.OK)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 3, chain.calls)
	assert.Len(t, *slept, 2)
}

func TestController_ExhaustsAttempts(t *testing.T) {
	chain := &fakeExtractor{
		profile:   retryProfile(3),
		failUntil: -1,
		err:       extract.ErrNotFound,
	}
	controller, _ := newTestController(chain)

	outcome := controller.Process(context.Background(), 1, 1, "carol")

	assert.False(t, outcome.OK)
	assert.NotEmpty(t, outcome.FailureReason)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 3, chain.calls)
}

func TestController_PanicDegradesToFailure(t *testing.T) {
	chain := &fakeExtractor{
		profile:  retryProfile(2),
		panicMsg: "selector engine exploded",
	}
	controller, _ := newTestController(chain)

	outcome := controller.Process(context.Background(), 1, 1, "dave")

	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.FailureReason, "selector engine exploded")
	assert.Equal(t, 2, chain.calls)
}

func TestController_HardErrorUsesFixedBackoff(t *testing.T) {
	chain := &fakeExtractor{
		profile:   retryProfile(2),
		failUntil: -1,
		err:       extract.ErrRedirected,
	}
	controller, slept := newTestController(chain)

	controller.Process(context.Background(), 1, 1, "erin")

	assert.Equal(t, []time.Duration{5 * time.Millisecond}, *slept)
}

func TestController_CancelledContextStopsRetrying(t *testing.T) {
	chain := &fakeExtractor{
		profile:   retryProfile(3),
		failUntil: -1,
		err:       errors.New("transient"),
	}
	controller, _ := newTestController(chain)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := controller.Process(ctx, 1, 1, "frank")

	assert.False(t, outcome.OK)
	assert.Equal(t, 1, chain.calls)
}

func TestRandomBetween(t *testing.T) {
	min, max := 100*time.Millisecond, 200*time.Millisecond
	for i := 0; i < 50; i++ {
		d := randomBetween(min, max)
		assert.GreaterOrEqual(t, d, min)
		assert.LessOrEqual(t, d, max)
	}

	assert.Equal(t, min, randomBetween(min, min))
	assert.Equal(t, min, randomBetween(min, time.Millisecond))
}
