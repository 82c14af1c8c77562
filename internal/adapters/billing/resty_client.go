package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"coursedesk/internal/domain/entitlement"
)

// statusResponse is the wire form of the entitlement query.
type statusResponse struct {
	Status            string `json:"status"`
	ReadOnly          bool   `json:"read_only"`
	PlanCode          string `json:"plan_code"`
	CurrentPeriodEnd  string `json:"current_period_end"`
	GraceUntil        string `json:"grace_until"`
	DaysUntilReadOnly int    `json:"days_until_read_only"`
}

// RestyFetcher queries the billing service over HTTP.
type RestyFetcher struct {
	client *resty.Client
	url    string
}

// NewRestyFetcher creates a fetcher for the given entitlement endpoint.
// PRE: url is the absolute entitlement status URL; token may be empty
func NewRestyFetcher(url, token string, timeout time.Duration) *RestyFetcher {
	client := resty.New().SetTimeout(timeout)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &RestyFetcher{client: client, url: url}
}

// Fetch retrieves the current entitlement.
// POST: Returns a snapshot stamped with the fetch time, or an error the
// caller may ignore in favor of the last known good snapshot
func (f *RestyFetcher) Fetch(ctx context.Context) (entitlement.Entitlement, error) {
	var payload statusResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetResult(&payload).
		Get(f.url)
	if err != nil {
		return entitlement.Entitlement{}, fmt.Errorf("entitlement fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return entitlement.Entitlement{}, fmt.Errorf("entitlement fetch: unexpected status %d", resp.StatusCode())
	}

	e := entitlement.Entitlement{
		Status:            payload.Status,
		ReadOnly:          payload.ReadOnly,
		PlanCode:          payload.PlanCode,
		DaysUntilReadOnly: payload.DaysUntilReadOnly,
		FetchedAt:         time.Now().UTC(),
	}
	// Period timestamps are informational; a malformed one must not fail
	// the fetch.
	if t, err := time.Parse(time.RFC3339, payload.CurrentPeriodEnd); err == nil {
		e.CurrentPeriodEnd = t
	}
	if t, err := time.Parse(time.RFC3339, payload.GraceUntil); err == nil {
		e.GraceUntil = t
	}
	return e, nil
}
