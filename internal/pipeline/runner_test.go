package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/numerus/internal/extract"
	"github.com/ternarybob/numerus/internal/interfaces"
)

// fakeStore serves canned records and captures update batches.
type fakeStore struct {
	records  []interfaces.StoreRecord
	listErr  error
	batchErr error

	listedField string
	batches     [][]interfaces.StoreUpdate
	countFields []string
}

func (s *fakeStore) ListRecords(ctx context.Context, handleField string) ([]interfaces.StoreRecord, error) {
	s.listedField = handleField
	return s.records, s.listErr
}

func (s *fakeStore) UpdateBatch(ctx context.Context, updates []interfaces.StoreUpdate, countField string) error {
	s.batches = append(s.batches, updates)
	s.countFields = append(s.countFields, countField)
	return s.batchErr
}

// staticPage serves the same rendered HTML for every handle.
type staticPage struct {
	html        string
	navigateErr error
	closed      bool
}

func (p *staticPage) Navigate(ctx context.Context, url string) error { return p.navigateErr }
func (p *staticPage) Location(ctx context.Context) (string, error)   { return "", nil }

func (p *staticPage) FindElements(ctx context.Context, selector string) ([]interfaces.Element, error) {
	return nil, nil
}

func (p *staticPage) EvaluateScript(ctx context.Context, script string, out interface{}) error {
	return errors.New("no script engine")
}

func (p *staticPage) OuterHTML(ctx context.Context) (string, error) { return p.html, nil }

func (p *staticPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *staticPage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (p *staticPage) Settle(ctx context.Context, d time.Duration) error { return nil }

func (p *staticPage) Close() error {
	p.closed = true
	return nil
}

func runnerProfile() *extract.Profile {
	return &extract.Profile{
		Platform:    "testnet",
		URLTemplate: "https://example.com/%s",
		Strategies: []extract.Strategy{
			{Name: "scan", Kind: extract.KindHTMLScan, LabelPattern: `(?i)followers`},
		},
		MaxAttempts:    2,
		BackoffMin:     time.Millisecond,
		BackoffMax:     time.Millisecond,
		AccountWaitMin: time.Millisecond,
		AccountWaitMax: time.Millisecond,
		HandleField:    "test_user",
		CountField:     "test_followers",
	}
}

func newTestRunner(store interfaces.RecordStore, page interfaces.Page) *Runner {
	factory := SessionFactory(func(ctx context.Context) (interfaces.Page, error) {
		return page, nil
	})
	r := NewRunner(store, factory, arbor.NewLogger())
	r.sleep = func(ctx context.Context, d time.Duration) {}
	return r
}

func TestRunner_SuccessfulRun(t *testing.T) {
	store := &fakeStore{
		records: []interfaces.StoreRecord{
			{ID: "rec1", Handle: "alice"},
			{ID: "rec2", Handle: "bob"},
		},
	}
	page := &staticPage{html: `<html><body><span>2,771 Followers</span></body></html>`}

	result, err := newTestRunner(store, page).RunPlatform(context.Background(), runnerProfile())
	require.NoError(t, err)

	assert.Equal(t, "test_user", store.listedField)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Extracted)
	assert.Equal(t, 2, result.Updated)
	assert.NotEmpty(t, result.RunID)

	require.Len(t, store.batches, 1)
	assert.Equal(t, []interfaces.StoreUpdate{
		{RecordID: "rec1", Count: 2771},
		{RecordID: "rec2", Count: 2771},
	}, store.batches[0])
	assert.Equal(t, []string{"test_followers"}, store.countFields)
	assert.True(t, page.closed)
}

func TestRunner_ListFailureIsFatal(t *testing.T) {
	store := &fakeStore{listErr: errors.New("airtable unreachable")}
	page := &staticPage{}

	_, err := newTestRunner(store, page).RunPlatform(context.Background(), runnerProfile())
	require.Error(t, err)
	assert.False(t, page.closed, "browser must not launch when the record fetch fails")
}

func TestRunner_EmptyStoreSkipsBrowser(t *testing.T) {
	store := &fakeStore{}
	page := &staticPage{}

	result, err := newTestRunner(store, page).RunPlatform(context.Background(), runnerProfile())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.False(t, page.closed)
	assert.Empty(t, store.batches)
}

func TestRunner_AccountFailuresDoNotAbortRun(t *testing.T) {
	store := &fakeStore{
		records: []interfaces.StoreRecord{
			{ID: "rec1", Handle: "alice"},
			{ID: "rec2", Handle: "bob"},
		},
	}
	page := &staticPage{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	result, err := newTestRunner(store, page).RunPlatform(context.Background(), runnerProfile())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 0, result.Extracted)
	assert.Equal(t, 0, result.Updated)
	assert.Len(t, result.Failures, 2)
	assert.Empty(t, store.batches)
	assert.True(t, page.closed)
}

func TestRunner_DuplicateHandlesProcessedOnce(t *testing.T) {
	store := &fakeStore{
		records: []interfaces.StoreRecord{
			{ID: "rec1", Handle: "alice"},
			{ID: "rec2", Handle: "alice"},
			{ID: "rec3", Handle: "bob"},
		},
	}
	page := &staticPage{html: `<html><body><span>500 Followers</span></body></html>`}

	result, err := newTestRunner(store, page).RunPlatform(context.Background(), runnerProfile())
	require.NoError(t, err)

	// One outcome per unique handle; the update joins back to the first
	// record carrying that handle.
	assert.Equal(t, 2, result.Total)
	require.Len(t, store.batches, 1)
	assert.Equal(t, []interfaces.StoreUpdate{
		{RecordID: "rec1", Count: 500},
		{RecordID: "rec3", Count: 500},
	}, store.batches[0])
}

func TestUniqueHandles(t *testing.T) {
	records := []interfaces.StoreRecord{
		{ID: "1", Handle: "alice"},
		{ID: "2", Handle: "bob"},
		{ID: "3", Handle: "alice"},
		{ID: "4", Handle: "carol"},
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, uniqueHandles(records))
}
