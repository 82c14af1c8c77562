package orchestrators

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"coursedesk/internal/domain/dates"
	"coursedesk/internal/domain/group"
	"coursedesk/internal/domain/participant"
	"coursedesk/internal/domain/settings"
	"coursedesk/internal/domain/uniquenumber"
)

// MaintenanceGuard coalesces concurrent maintenance triggers (process start,
// manual refresh, the daily schedule) into a single execution. This replaces
// the fixed startup settle delay the desktop app used to rely on.
type MaintenanceGuard struct {
	mu sync.Mutex
}

// TryAcquire claims the guard without blocking.
func (g *MaintenanceGuard) TryAcquire() bool {
	return g.mu.TryLock()
}

// Release frees the guard.
// PRE: TryAcquire returned true
func (g *MaintenanceGuard) Release() {
	g.mu.Unlock()
}

// GroupSyncStore is the group store interface needed by the maintenance
// passes.
type GroupSyncStore interface {
	List(ctx context.Context) ([]group.Group, error)
	MaxGroupNumber(ctx context.Context) (int, error)
	Save(ctx context.Context, g group.Group) error
}

// PromotionParticipantStore backfills numbers for a newly active group.
type PromotionParticipantStore interface {
	ListByCourseStartDate(ctx context.Context, start time.Time) ([]participant.Participant, error)
	ListUniqueNumbers(ctx context.Context) ([]string, error)
	Save(ctx context.Context, p participant.Participant) error
}

// SettingsStore reads and refreshes the numbering cache.
type SettingsStore interface {
	Get(ctx context.Context) (settings.Settings, error)
	Save(ctx context.Context, s settings.Settings) error
}

// SyncGroupsDeps holds dependencies for SyncGroups.
type SyncGroupsDeps struct {
	GroupStore       GroupSyncStore
	ParticipantStore PromotionParticipantStore
	SettingsStore    SettingsStore
	Guard            *MaintenanceGuard // optional: nil runs unguarded
	Now              func() time.Time
	GenerateID       func() string
}

// SyncGroupsResult reports what the maintenance pass changed.
type SyncGroupsResult struct {
	Coalesced bool // another trigger was already running the pass
	Created   int
	Promoted  int
	Completed int
}

// ExecuteSyncGroups is the rolling-window maintenance pass: it materializes
// missing planned groups, promotes the due planned group and completes the
// outgoing active one.
// PRE: Deps are non-nil except Guard
// POST: Exactly one group is active, at least two planned groups lie ahead
// INVARIANT: Running the pass twice in a row produces no further changes
func ExecuteSyncGroups(ctx context.Context, deps SyncGroupsDeps) (SyncGroupsResult, error) {
	var result SyncGroupsResult
	if deps.Guard != nil {
		if !deps.Guard.TryAcquire() {
			result.Coalesced = true
			return result, nil
		}
		defer deps.Guard.Release()
	}

	today := dates.Normalize(deps.Now())
	groups, err := deps.GroupStore.List(ctx)
	if err != nil {
		return result, err
	}

	// Rolling window: the current course week plus PlannedAhead upcoming
	// weeks must exist even with zero participants.
	existing := make(map[time.Time]bool, len(groups))
	for i := range groups {
		existing[dates.Normalize(groups[i].CourseStartDate)] = true
	}
	cur := dates.MondayOf(today)
	for week := 0; week <= group.PlannedAhead; week++ {
		start := cur.AddDate(0, 0, week*dates.CourseDays)
		if existing[start] {
			continue
		}
		g := group.New(deps.GenerateID(), start, deps.Now())
		if err := deps.GroupStore.Save(ctx, g); err != nil {
			return result, err
		}
		groups = append(groups, g)
		existing[start] = true
		result.Created++
		slog.Info("group_materialized", "group_id", g.ID, "course_start", dates.FormatDate(start))
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CourseStartDate.Before(groups[j].CourseStartDate)
	})

	maxNumber, err := deps.GroupStore.MaxGroupNumber(ctx)
	if err != nil {
		return result, err
	}

	// Promotion loop. Catches up over any number of missed weeks: each
	// skipped planned group briefly becomes active so its number stays
	// monotonic, then completes in the next iteration.
	for {
		active := earliestWithStatus(groups, group.StatusActive)

		if active == nil {
			candidate := earliestWithStatus(groups, group.StatusPlanned)
			if candidate == nil {
				break
			}
			maxNumber++
			if err := promoteGroup(ctx, deps, candidate, maxNumber); err != nil {
				return result, err
			}
			result.Promoted++
			continue
		}

		if !active.IsEndedBy(today) {
			break
		}

		// The active window is over: promote the successor first so the
		// system is never left without an active group.
		candidate := earliestWithStatus(groups, group.StatusPlanned)
		if candidate != nil {
			maxNumber++
			if err := promoteGroup(ctx, deps, candidate, maxNumber); err != nil {
				return result, err
			}
			result.Promoted++
		}

		if err := active.Complete(); err != nil {
			return result, err
		}
		if err := deps.GroupStore.Save(ctx, *active); err != nil {
			return result, err
		}
		result.Completed++
		slog.Info("group_completed", "group_id", active.ID, "group_number", *active.GroupNumber)

		if candidate == nil {
			break
		}
	}

	return result, nil
}

// promoteGroup transitions a planned group to active and backfills unique
// numbers for its participants in creation order.
func promoteGroup(ctx context.Context, deps SyncGroupsDeps, g *group.Group, number int) error {
	if err := g.Promote(number); err != nil {
		return err
	}
	if err := deps.GroupStore.Save(ctx, *g); err != nil {
		return err
	}
	slog.Info("group_promoted", "group_id", g.ID, "group_number", number,
		"course_start", dates.FormatDate(g.CourseStartDate))
	return backfillNumbers(ctx, deps, g.CourseStartDate)
}

// backfillNumbers issues numbers to the number-less participants of a course
// window, gaps first.
func backfillNumbers(ctx context.Context, deps SyncGroupsDeps, start time.Time) error {
	members, err := deps.ParticipantStore.ListByCourseStartDate(ctx, start)
	if err != nil {
		return err
	}
	pending := 0
	for i := range members {
		if members[i].UniqueNumber == "" {
			pending++
		}
	}
	if pending == 0 {
		return nil
	}

	cfg, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return err
	}
	numbers, err := deps.ParticipantStore.ListUniqueNumbers(ctx)
	if err != nil {
		return err
	}

	for i := range members {
		p := &members[i]
		if p.UniqueNumber != "" {
			continue
		}
		seq, ok := uniquenumber.FindGap(numbers, cfg.NumberPrefix)
		if !ok {
			seq = uniquenumber.NextSequence(numbers, cfg.NumberPrefix)
		}
		p.UniqueNumber = uniquenumber.Format(cfg.NumberPrefix, seq)
		p.UpdatedAt = deps.Now()
		if err := deps.ParticipantStore.Save(ctx, *p); err != nil {
			return err
		}
		numbers = append(numbers, p.UniqueNumber)
		slog.Info("number_backfilled", "participant_id", p.ID, "unique_number", p.UniqueNumber)
	}

	cfg.LastSequence = uniquenumber.MaxSequence(numbers, cfg.NumberPrefix)
	cfg.UpdatedAt = deps.Now()
	return deps.SettingsStore.Save(ctx, cfg)
}

// earliestWithStatus returns the group with the earliest start date among
// those with the given status, or nil.
func earliestWithStatus(groups []group.Group, status string) *group.Group {
	var found *group.Group
	for i := range groups {
		if groups[i].Status != status {
			continue
		}
		if found == nil || groups[i].CourseStartDate.Before(found.CourseStartDate) {
			found = &groups[i]
		}
	}
	return found
}

// EnsureSingleActiveDeps holds dependencies for EnsureSingleActiveGroup.
type EnsureSingleActiveDeps struct {
	GroupStore GroupSyncStore
}

// EnsureSingleActiveResult reports the corrective pass outcome.
type EnsureSingleActiveResult struct {
	ActiveCount int // active groups after the pass
	Demoted     int
}

// ExecuteEnsureSingleActiveGroup is the corrective pass for the
// single-active invariant: when more than one group is active it keeps the
// one with the earliest course start date and demotes the rest to completed.
// POST: At most one group is active
// INVARIANT: Idempotent; a second run changes nothing
func ExecuteEnsureSingleActiveGroup(ctx context.Context, deps EnsureSingleActiveDeps) (EnsureSingleActiveResult, error) {
	var result EnsureSingleActiveResult
	groups, err := deps.GroupStore.List(ctx)
	if err != nil {
		return result, err
	}

	var actives []*group.Group
	for i := range groups {
		if groups[i].Status == group.StatusActive {
			actives = append(actives, &groups[i])
		}
	}
	if len(actives) <= 1 {
		result.ActiveCount = len(actives)
		return result, nil
	}

	sort.Slice(actives, func(i, j int) bool {
		return actives[i].CourseStartDate.Before(actives[j].CourseStartDate)
	})

	for _, g := range actives[1:] {
		if err := g.Complete(); err != nil {
			return result, err
		}
		if err := deps.GroupStore.Save(ctx, *g); err != nil {
			return result, err
		}
		result.Demoted++
		slog.Warn("active_group_conflict_corrected", "demoted_group_id", g.ID,
			"kept_group_id", actives[0].ID)
	}
	result.ActiveCount = 1
	return result, nil
}

// GroupLookupStore resolves a course start date to its owning group.
type GroupLookupStore interface {
	GetByStartDate(ctx context.Context, start time.Time) (group.Group, error)
}

// ClassifyStartDateDeps holds dependencies for ClassifyStartDate.
type ClassifyStartDateDeps struct {
	GroupStore GroupLookupStore
}

// ExecuteClassifyStartDate returns the lifecycle status owning a course
// start date. A date with no group reads as planned for display purposes;
// no state is created.
func ExecuteClassifyStartDate(ctx context.Context, start time.Time, deps ClassifyStartDateDeps) (string, error) {
	g, err := deps.GroupStore.GetByStartDate(ctx, start)
	if err != nil {
		if isNotFound(err) {
			return group.StatusPlanned, nil
		}
		return "", err
	}
	return g.Status, nil
}
