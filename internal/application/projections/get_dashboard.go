package projections

import (
	"context"
	"sort"

	"coursedesk/internal/domain/group"
	"coursedesk/internal/domain/participant"
	"coursedesk/internal/domain/settings"
	"coursedesk/internal/domain/uniquenumber"
)

// DashboardGroupStore defines the group listing needed by the dashboard.
type DashboardGroupStore interface {
	List(ctx context.Context) ([]group.Group, error)
}

// DashboardParticipantStore defines the participant lookups needed by the
// dashboard.
type DashboardParticipantStore interface {
	List(ctx context.Context) ([]participant.Participant, error)
	ListUniqueNumbers(ctx context.Context) ([]string, error)
}

// DashboardSettingsStore defines the settings lookup needed by the dashboard.
type DashboardSettingsStore interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// GetDashboardDeps holds dependencies for GetDashboard.
type GetDashboardDeps struct {
	GroupStore       DashboardGroupStore
	ParticipantStore DashboardParticipantStore
	SettingsStore    DashboardSettingsStore
}

// GetDashboardResult is the at-a-glance state of the engine: the current
// course week, the upcoming planned weeks and where the numbering sequence
// stands.
type GetDashboardResult struct {
	ActiveGroup       *group.Group
	ActiveRosterSize  int
	PlannedGroups     []group.Group
	CompletedGroups   int
	TotalParticipants int
	NumberPrefix      string
	NextNumber        string
	FillsGap          bool
}

// QueryGetDashboard composes the overview shown on the landing screen.
// POST: PlannedGroups are sorted by start date ascending
// POST: NextNumber is the number the next auto-assignment would produce
func QueryGetDashboard(ctx context.Context, deps GetDashboardDeps) (GetDashboardResult, error) {
	groups, err := deps.GroupStore.List(ctx)
	if err != nil {
		return GetDashboardResult{}, err
	}
	participants, err := deps.ParticipantStore.List(ctx)
	if err != nil {
		return GetDashboardResult{}, err
	}
	numbers, err := deps.ParticipantStore.ListUniqueNumbers(ctx)
	if err != nil {
		return GetDashboardResult{}, err
	}
	cfg, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return GetDashboardResult{}, err
	}

	result := GetDashboardResult{
		TotalParticipants: len(participants),
		NumberPrefix:      cfg.NumberPrefix,
	}
	for i := range groups {
		switch groups[i].Status {
		case group.StatusActive:
			g := groups[i]
			result.ActiveGroup = &g
		case group.StatusPlanned:
			result.PlannedGroups = append(result.PlannedGroups, groups[i])
		case group.StatusCompleted:
			result.CompletedGroups++
		}
	}
	sort.Slice(result.PlannedGroups, func(i, j int) bool {
		return result.PlannedGroups[i].CourseStartDate.Before(result.PlannedGroups[j].CourseStartDate)
	})

	if result.ActiveGroup != nil {
		for i := range participants {
			if participants[i].CourseStartDate.Equal(result.ActiveGroup.CourseStartDate) {
				result.ActiveRosterSize++
			}
		}
	}

	if seq, ok := uniquenumber.FindGap(numbers, cfg.NumberPrefix); ok {
		result.NextNumber = uniquenumber.Format(cfg.NumberPrefix, seq)
		result.FillsGap = true
	} else {
		result.NextNumber = uniquenumber.Format(cfg.NumberPrefix, uniquenumber.NextSequence(numbers, cfg.NumberPrefix))
	}
	return result, nil
}
