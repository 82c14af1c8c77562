// Package billing is the boundary to the remote identity/billing service.
// The engine never interprets billing state beyond the read-only flag; this
// package fetches and caches it.
package billing

import (
	"context"

	"coursedesk/internal/domain/entitlement"
)

// Fetcher retrieves the current entitlement from the billing service.
type Fetcher interface {
	Fetch(ctx context.Context) (entitlement.Entitlement, error)
}
