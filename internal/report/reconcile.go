package report

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/numerus/internal/interfaces"
)

// BuildUpdates joins successful outcomes to store records by exact,
// case-sensitive handle match. Only successful outcomes produce updates; a
// failed outcome never reaches the store. Duplicate handles in the record
// set resolve to the first record. Fractional counts from K/M/B suffixes
// are truncated toward zero here, uniformly for every platform.
func BuildUpdates(records []interfaces.StoreRecord, outcomes []Outcome, logger arbor.ILogger) []interfaces.StoreUpdate {
	byHandle := make(map[string]string, len(records))
	for _, record := range records {
		if _, exists := byHandle[record.Handle]; !exists {
			byHandle[record.Handle] = record.ID
		}
	}

	var updates []interfaces.StoreUpdate
	for _, outcome := range outcomes {
		if !outcome.OK {
			continue
		}

		recordID, ok := byHandle[outcome.Handle]
		if !ok {
			// Exact matching is intentional; a near-miss on case or
			// whitespace is surfaced so stale store data is visible.
			if id := nearMiss(byHandle, outcome.Handle); id != "" {
				logger.Warn().
					Str("handle", outcome.Handle).
					Msg("Outcome handle matches a record only after case/whitespace folding, skipping")
			} else {
				logger.Warn().
					Str("handle", outcome.Handle).
					Msg("No store record for extracted handle")
			}
			continue
		}

		updates = append(updates, interfaces.StoreUpdate{
			RecordID: recordID,
			Count:    int64(outcome.Count),
		})
	}
	return updates
}

// nearMiss looks for a record handle equal to handle after trimming and
// case folding.
func nearMiss(byHandle map[string]string, handle string) string {
	folded := strings.ToLower(strings.TrimSpace(handle))
	for recorded, id := range byHandle {
		if strings.ToLower(strings.TrimSpace(recorded)) == folded {
			return id
		}
	}
	return ""
}

// Chunk partitions updates into batches no larger than the store maximum.
// Ordering within a batch is insertion order and carries no meaning.
func Chunk(updates []interfaces.StoreUpdate, size int) [][]interfaces.StoreUpdate {
	if size <= 0 {
		size = interfaces.MaxBatchSize
	}

	var batches [][]interfaces.StoreUpdate
	for start := 0; start < len(updates); start += size {
		end := start + size
		if end > len(updates) {
			end = len(updates)
		}
		batches = append(batches, updates[start:end])
	}
	return batches
}

// ApplyBatches submits each batch independently and returns the number of
// records in batches the store confirmed. A batch failure is logged and
// does not abort the remaining batches.
func ApplyBatches(ctx context.Context, store interfaces.RecordStore, updates []interfaces.StoreUpdate, countField string, logger arbor.ILogger) int {
	updated := 0
	batches := Chunk(updates, interfaces.MaxBatchSize)

	for i, batch := range batches {
		if err := store.UpdateBatch(ctx, batch, countField); err != nil {
			logger.Error().
				Int("batch", i+1).
				Int("batches", len(batches)).
				Int("records", len(batch)).
				Err(err).
				Msg("Batch update failed, continuing with remaining batches")
			continue
		}
		updated += len(batch)
	}
	return updated
}
