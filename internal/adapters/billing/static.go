package billing

import (
	"context"

	"coursedesk/internal/domain/entitlement"
)

// StaticFetcher always returns the same entitlement. Used when no billing
// endpoint is configured and by tests.
type StaticFetcher struct {
	Entitlement entitlement.Entitlement
	Err         error
}

// Fetch returns the configured snapshot or error.
func (f *StaticFetcher) Fetch(_ context.Context) (entitlement.Entitlement, error) {
	if f.Err != nil {
		return entitlement.Entitlement{}, f.Err
	}
	return f.Entitlement, nil
}
