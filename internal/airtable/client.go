// Package airtable implements the external record store client.
package airtable

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/ternarybob/numerus/internal/common"
	"github.com/ternarybob/numerus/internal/interfaces"
)

// Client talks to one Airtable base/table over the authenticated HTTP API.
// The bearer credential rides in the underlying oauth2 transport and is
// never logged.
type Client struct {
	http   *resty.Client
	table  string
	logger arbor.ILogger
}

type recordPayload struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

type listResponse struct {
	Records []recordPayload `json:"records"`
	Offset  string          `json:"offset"`
}

type updateRequest struct {
	Records []recordPayload `json:"records"`
}

// NewClient creates a store client from configuration.
func NewClient(config common.AirtableConfig, logger arbor.ILogger) *Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.PAT})
	httpClient := oauth2.NewClient(context.Background(), source)
	httpClient.Timeout = config.RequestTimeout

	http := resty.NewWithClient(httpClient).
		SetBaseURL(fmt.Sprintf("%s/%s", strings.TrimRight(config.BaseURL, "/"), config.BaseID)).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   http,
		table:  config.Table,
		logger: logger,
	}
}

// ListRecords fetches all records whose handleField is non-empty, following
// the API's offset pagination, in store order.
func (c *Client) ListRecords(ctx context.Context, handleField string) ([]interfaces.StoreRecord, error) {
	var records []interfaces.StoreRecord
	offset := ""

	for {
		var page listResponse
		req := c.http.R().
			SetContext(ctx).
			SetResult(&page)
		if offset != "" {
			req.SetQueryParam("offset", offset)
		}

		resp, err := req.Get("/" + c.table)
		if err != nil {
			return nil, fmt.Errorf("fetching records: %w", err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("fetching records: status %d", resp.StatusCode())
		}

		for _, record := range page.Records {
			handle, _ := record.Fields[handleField].(string)
			handle = strings.TrimSpace(handle)
			if handle == "" {
				continue
			}
			records = append(records, interfaces.StoreRecord{
				ID:     record.ID,
				Handle: handle,
			})
		}

		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// UpdateBatch writes one batch of count updates to countField. The store
// acknowledges all-or-nothing per batch; any non-200 status is a batch
// failure.
func (c *Client) UpdateBatch(ctx context.Context, updates []interfaces.StoreUpdate, countField string) error {
	if len(updates) == 0 {
		return nil
	}
	if len(updates) > interfaces.MaxBatchSize {
		return fmt.Errorf("batch of %d exceeds store maximum of %d", len(updates), interfaces.MaxBatchSize)
	}

	body := updateRequest{Records: make([]recordPayload, 0, len(updates))}
	for _, update := range updates {
		body.Records = append(body.Records, recordPayload{
			ID:     update.RecordID,
			Fields: map[string]interface{}{countField: update.Count},
		})
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Patch("/" + c.table)
	if err != nil {
		return fmt.Errorf("updating batch: %w", err)
	}
	if resp.StatusCode() != 200 {
		c.logger.Warn().
			Int("status", resp.StatusCode()).
			Str("response", truncate(resp.String(), 200)).
			Msg("Store rejected update batch")
		return fmt.Errorf("updating batch: status %d", resp.StatusCode())
	}

	c.logger.Info().
		Int("records", len(updates)).
		Str("field", countField).
		Msg("Updated batch of records in store")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
