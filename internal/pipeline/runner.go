package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/numerus/internal/extract"
	"github.com/ternarybob/numerus/internal/interfaces"
	"github.com/ternarybob/numerus/internal/report"
)

// SessionFactory creates the single page-fetch session for a run. Kept as
// a factory so the browser only launches after the record fetch succeeds.
type SessionFactory func(ctx context.Context) (interfaces.Page, error)

// Runner executes one platform run end to end: fetch records, extract
// counts sequentially, reconcile and persist, report.
type Runner struct {
	store      interfaces.RecordStore
	newSession SessionFactory
	logger     arbor.ILogger

	sleep func(ctx context.Context, d time.Duration)
}

// NewRunner creates a runner over the given store and session factory.
func NewRunner(store interfaces.RecordStore, newSession SessionFactory, logger arbor.ILogger) *Runner {
	return &Runner{
		store:      store,
		newSession: newSession,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// RunPlatform processes every tracked account of one platform profile.
// Accounts are processed strictly sequentially, in store order, against a
// single browser session that is closed on every exit path. A store read
// failure or session launch failure is fatal; per-account failures are
// not.
func (r *Runner) RunPlatform(ctx context.Context, profile *extract.Profile) (*report.RunReport, error) {
	runID := uuid.New().String()
	logger := r.logger

	logger.Info().
		Str("run_id", runID).
		Str("platform", profile.Platform).
		Msg("Fetching account handles from store")

	records, err := r.store.ListRecords(ctx, profile.HandleField)
	if err != nil {
		return nil, fmt.Errorf("fetching records for %s: %w", profile.Platform, err)
	}
	if len(records) == 0 {
		logger.Warn().
			Str("platform", profile.Platform).
			Msg("No account handles found in store, nothing to process")
		return report.Build(runID, profile.Platform, nil, 0), nil
	}

	handles := uniqueHandles(records)
	logger.Info().
		Str("platform", profile.Platform).
		Int("records", len(records)).
		Int("accounts", len(handles)).
		Msg("Starting extraction run")

	page, err := r.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing browser session: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close browser session")
		}
	}()

	chain := extract.NewChain(profile, logger)
	controller := NewController(chain, page, logger)

	outcomes := make([]report.Outcome, 0, len(handles))
	for i, handle := range handles {
		outcomes = append(outcomes, controller.Process(ctx, i+1, len(handles), handle))

		if i < len(handles)-1 {
			r.sleep(ctx, randomBetween(profile.AccountWaitMin, profile.AccountWaitMax))
		}
	}

	updates := report.BuildUpdates(records, outcomes, logger)
	logger.Info().
		Str("platform", profile.Platform).
		Int("updates", len(updates)).
		Msg("Applying update batches to store")

	updated := report.ApplyBatches(ctx, r.store, updates, profile.CountField, logger)

	return report.Build(runID, profile.Platform, outcomes, updated), nil
}

// uniqueHandles returns record handles in first-seen order, skipping
// duplicates so each handle yields at most one outcome per run.
func uniqueHandles(records []interfaces.StoreRecord) []string {
	seen := make(map[string]struct{}, len(records))
	handles := make([]string, 0, len(records))
	for _, record := range records {
		if _, dup := seen[record.Handle]; dup {
			continue
		}
		seen[record.Handle] = struct{}{}
		handles = append(handles, record.Handle)
	}
	return handles
}
