package orchestrators

import (
	"context"
	"errors"
	"testing"

	"coursedesk/internal/domain/entitlement"
	settingsDomain "coursedesk/internal/domain/settings"
)

func TestExecuteResetSequence_StartsFreshEpoch(t *testing.T) {
	store := newMockSettingsStore("3534")
	store.cfg.LastSequence = 42
	deps := ResetSequenceDeps{SettingsStore: store, Gate: &stubGate{}, Now: fixedNow("2026-01-05")}

	cfg, err := ExecuteResetSequence(context.Background(), "3600", deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NumberPrefix != "3600" {
		t.Errorf("expected prefix 3600, got %q", cfg.NumberPrefix)
	}
	if cfg.LastSequence != 0 {
		t.Errorf("expected sequence cache reset, got %d", cfg.LastSequence)
	}
	if store.cfg.NumberPrefix != "3600" {
		t.Errorf("expected new prefix persisted, got %q", store.cfg.NumberPrefix)
	}
}

func TestExecuteResetSequence_BadPrefixRejected(t *testing.T) {
	deps := ResetSequenceDeps{SettingsStore: newMockSettingsStore("3534"), Gate: &stubGate{}, Now: fixedNow("2026-01-05")}

	for _, prefix := range []string{"", "1", "1234567", "35ab"} {
		if _, err := ExecuteResetSequence(context.Background(), prefix, deps); !errors.Is(err, settingsDomain.ErrBadPrefix) {
			t.Errorf("prefix %q: expected ErrBadPrefix, got %v", prefix, err)
		}
	}
}

func TestExecuteResetSequence_ReadOnlyGateBlocks(t *testing.T) {
	store := newMockSettingsStore("3534")
	deps := ResetSequenceDeps{SettingsStore: store, Gate: &stubGate{readOnly: true}, Now: fixedNow("2026-01-05")}

	if _, err := ExecuteResetSequence(context.Background(), "3600", deps); !errors.Is(err, entitlement.ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if store.cfg.NumberPrefix != "3534" {
		t.Errorf("expected prefix unchanged, got %q", store.cfg.NumberPrefix)
	}
}
