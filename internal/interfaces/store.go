package interfaces

import "context"

// StoreRecord is one row fetched from the external record store. Handle is
// the platform account name read from the profile's handle field.
type StoreRecord struct {
	ID     string
	Handle string
}

// StoreUpdate is one pending count write, keyed by the store's opaque
// record identifier.
type StoreUpdate struct {
	RecordID string
	Count    int64
}

// RecordStore is the external store the pipeline reconciles against.
type RecordStore interface {
	// ListRecords fetches all records whose handleField is non-empty, in
	// store order. A transport or non-200 failure here is fatal for a run.
	ListRecords(ctx context.Context, handleField string) ([]StoreRecord, error)

	// UpdateBatch writes one batch of count updates to countField. The
	// store acknowledges all-or-nothing per batch; any non-200 response is
	// a batch failure. Callers must not exceed MaxBatchSize updates.
	UpdateBatch(ctx context.Context, updates []StoreUpdate, countField string) error
}

// MaxBatchSize is the store's maximum number of records per update request.
const MaxBatchSize = 10
