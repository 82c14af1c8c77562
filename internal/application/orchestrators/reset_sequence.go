package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"coursedesk/internal/domain/settings"
)

// ResetSequenceDeps holds dependencies for ResetSequence.
type ResetSequenceDeps struct {
	SettingsStore SettingsStore
	Gate          ReadOnlyGate
	Now           func() time.Time
}

// ExecuteResetSequence starts a fresh numbering epoch under a new prefix.
// Numbers issued under the old prefix keep their holders and fall outside
// the new sequence; the cache restarts at zero.
// PRE: prefix is 2 to 6 digits
func ExecuteResetSequence(ctx context.Context, prefix string, deps ResetSequenceDeps) (settings.Settings, error) {
	var zero settings.Settings
	if err := guardReadOnly(deps.Gate); err != nil {
		return zero, err
	}
	if !settings.ValidPrefix(prefix) {
		return zero, settings.ErrBadPrefix
	}

	cfg, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return zero, err
	}
	old := cfg.NumberPrefix
	cfg.NumberPrefix = prefix
	cfg.LastSequence = 0
	cfg.UpdatedAt = deps.Now()
	if err := deps.SettingsStore.Save(ctx, cfg); err != nil {
		return zero, err
	}
	slog.Info("sequence_reset", "old_prefix", old, "new_prefix", prefix)
	return cfg, nil
}
