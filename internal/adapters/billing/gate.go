package billing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"coursedesk/internal/domain/entitlement"
)

// RefreshInterval is the background refresh period.
const RefreshInterval = 2 * time.Minute

// FocusRefreshMinGap throttles window-focus refreshes.
const FocusRefreshMinGap = 10 * time.Second

// Gate caches the latest entitlement snapshot and answers the read-only
// question for every mutating operation. A fetch failure keeps the last
// known good snapshot so a flaky connection never locks the operator out.
type Gate struct {
	mu        sync.RWMutex
	fetcher   Fetcher
	now       func() time.Time
	snapshot  entitlement.Entitlement
	lastFocus time.Time
}

// NewGate creates a gate seeded with a writable snapshot.
// PRE: fetcher is non-nil; now may be nil to use wall-clock time
func NewGate(fetcher Fetcher, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{
		fetcher:  fetcher,
		now:      now,
		snapshot: entitlement.Writable(),
	}
}

// ReadOnly reports whether mutations must currently be refused.
func (g *Gate) ReadOnly() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshot.Blocked()
}

// Snapshot returns the cached entitlement.
func (g *Gate) Snapshot() entitlement.Entitlement {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshot
}

// Refresh fetches the entitlement and swaps the cached snapshot.
// POST: On error the previous snapshot stays in place
func (g *Gate) Refresh(ctx context.Context) error {
	e, err := g.fetcher.Fetch(ctx)
	if err != nil {
		slog.Warn("entitlement_refresh_failed", "error", err.Error())
		return err
	}

	g.mu.Lock()
	prev := g.snapshot
	g.snapshot = e
	g.mu.Unlock()

	if prev.Blocked() != e.Blocked() {
		slog.Info("entitlement_mode_changed", "read_only", e.Blocked(), "status", e.Status)
	}
	return nil
}

// RefreshOnFocus refreshes at most once per FocusRefreshMinGap. The desktop
// shell calls this every time its window regains focus.
// POST: Returns true when a refresh was actually attempted
func (g *Gate) RefreshOnFocus(ctx context.Context) bool {
	g.mu.Lock()
	now := g.now()
	if !g.lastFocus.IsZero() && now.Sub(g.lastFocus) < FocusRefreshMinGap {
		g.mu.Unlock()
		return false
	}
	g.lastFocus = now
	g.mu.Unlock()

	_ = g.Refresh(ctx) // best effort; last known good covers failures
	return true
}

// Start launches the background refresh loop.
// POST: The loop runs until stopCh closes
func (g *Gate) Start(interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				_ = g.Refresh(ctx)
				cancel()
			case <-stopCh:
				slog.Info("entitlement_refresh_stopped")
				return
			}
		}
	}()
}
