package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursedesk/internal/adapters/billing"
	"coursedesk/internal/domain/entitlement"
	"coursedesk/internal/testfixtures"
)

// TestGate_DefaultWritable tests the pre-fetch default.
func TestGate_DefaultWritable(t *testing.T) {
	gate := billing.NewGate(&billing.StaticFetcher{}, nil)
	if gate.ReadOnly() {
		t.Error("gate must start writable")
	}
}

// TestGate_RefreshSwapsSnapshot tests that a successful fetch flips the flag.
func TestGate_RefreshSwapsSnapshot(t *testing.T) {
	fetcher := &billing.StaticFetcher{
		Entitlement: entitlement.Entitlement{Status: entitlement.StatusExpired, ReadOnly: true},
	}
	gate := billing.NewGate(fetcher, nil)

	if err := gate.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gate.ReadOnly() {
		t.Error("expired entitlement should set the gate")
	}
	if got := gate.Snapshot().Status; got != entitlement.StatusExpired {
		t.Errorf("Snapshot().Status = %q, want expired", got)
	}
}

// TestGate_KeepsLastKnownGoodOnError tests offline behaviour: a failed fetch
// must not change the cached snapshot.
func TestGate_KeepsLastKnownGoodOnError(t *testing.T) {
	fetcher := &billing.StaticFetcher{
		Entitlement: entitlement.Entitlement{Status: entitlement.StatusActive},
	}
	gate := billing.NewGate(fetcher, nil)
	if err := gate.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetcher.Err = errors.New("connection refused")
	if err := gate.Refresh(context.Background()); err == nil {
		t.Error("expected fetch error to propagate")
	}
	if gate.ReadOnly() {
		t.Error("failed refresh must keep the last known good snapshot")
	}
}

// TestGate_FocusThrottle tests the 10-second focus refresh throttle.
func TestGate_FocusThrottle(t *testing.T) {
	clock := testfixtures.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	gate := billing.NewGate(&billing.StaticFetcher{
		Entitlement: entitlement.Entitlement{Status: entitlement.StatusActive},
	}, clock.NowFunc())

	ctx := context.Background()
	if !gate.RefreshOnFocus(ctx) {
		t.Error("first focus refresh should run")
	}
	if gate.RefreshOnFocus(ctx) {
		t.Error("immediate second focus refresh should be throttled")
	}

	clock.Advance(5 * time.Second)
	if gate.RefreshOnFocus(ctx) {
		t.Error("focus refresh within 10s should be throttled")
	}

	clock.Advance(6 * time.Second)
	if !gate.RefreshOnFocus(ctx) {
		t.Error("focus refresh after 10s should run")
	}
}
