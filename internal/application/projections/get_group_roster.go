// Package projections implements the read side: queries that compose store
// state into view models without mutating anything.
package projections

import (
	"context"
	"time"

	"coursedesk/internal/domain/dates"
	"coursedesk/internal/domain/group"
	"coursedesk/internal/domain/participant"
)

// RosterGroupStore defines the group lookups needed by the roster projection.
type RosterGroupStore interface {
	GetByID(ctx context.Context, id string) (group.Group, error)
}

// RosterParticipantStore defines the participant lookups needed by the roster
// projection.
type RosterParticipantStore interface {
	ListByCourseStartDate(ctx context.Context, start time.Time) ([]participant.Participant, error)
}

// GetGroupRosterQuery carries query parameters.
type GetGroupRosterQuery struct {
	GroupID string
}

// GetGroupRosterResult carries the query result. Completion counts are
// resolved against today so the caller never re-implements the override
// logic.
type GetGroupRosterResult struct {
	Group        group.Group
	Participants []participant.Participant
	Numbered     int
	Completed    int
}

// GetGroupRosterDeps holds dependencies for GetGroupRoster.
type GetGroupRosterDeps struct {
	GroupStore       RosterGroupStore
	ParticipantStore RosterParticipantStore
	Now              func() time.Time
}

// QueryGetGroupRoster retrieves a group with every participant assigned to
// its course week.
// PRE: query.GroupID identifies a stored group
// POST: Participants are in creation order; counts cover the returned list
func QueryGetGroupRoster(ctx context.Context, query GetGroupRosterQuery, deps GetGroupRosterDeps) (GetGroupRosterResult, error) {
	g, err := deps.GroupStore.GetByID(ctx, query.GroupID)
	if err != nil {
		return GetGroupRosterResult{}, err
	}

	roster, err := deps.ParticipantStore.ListByCourseStartDate(ctx, g.CourseStartDate)
	if err != nil {
		return GetGroupRosterResult{}, err
	}

	result := GetGroupRosterResult{Group: g, Participants: roster}
	today := dates.Normalize(deps.Now())
	for i := range roster {
		if roster[i].UniqueNumber != "" {
			result.Numbered++
		}
		if roster[i].Completed(today) {
			result.Completed++
		}
	}
	return result, nil
}
