package orchestrators

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DailySyncSpec fires shortly after midnight so the week rollover is picked
// up even when no request comes in on Monday morning.
const DailySyncSpec = "5 0 * * *"

// StartMaintenanceSchedule runs the group sync on a daily cron schedule.
// The returned cron must be stopped by the caller on shutdown. Triggers
// overlapping a running pass coalesce through the guard in deps.
func StartMaintenanceSchedule(deps SyncGroupsDeps) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(DailySyncSpec, func() {
		result, err := ExecuteSyncGroups(context.Background(), deps)
		if err != nil {
			slog.Error("scheduled_sync_failed", "error", err)
			return
		}
		slog.Info("scheduled_sync_done", "created", result.Created,
			"promoted", result.Promoted, "completed", result.Completed,
			"coalesced", result.Coalesced)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("maintenance_schedule_started", "spec", DailySyncSpec)
	return c, nil
}
