package orchestrators

import (
	"context"
	"time"

	"coursedesk/internal/domain/dates"
	"coursedesk/internal/domain/group"
)

// ResolveAssignmentDeps holds dependencies for SuggestGroup.
type ResolveAssignmentDeps struct {
	GroupStore GroupLookupStore
	Now        func() time.Time
}

// ExecuteSuggestGroup resolves a medical exam date to the group that would
// receive the participant. When the computed course week already has a
// persisted group the suggestion carries it; otherwise the suggestion is
// virtual: a planned, unnumbered group computed for display that must not be
// saved as-is.
// POST: Suggestion.Kind is KindPersisted or KindVirtual
// POST: No group is created
func ExecuteSuggestGroup(ctx context.Context, medicalDate time.Time, deps ResolveAssignmentDeps) (group.Suggestion, error) {
	w := dates.ComputeCourseDates(medicalDate)

	g, err := deps.GroupStore.GetByStartDate(ctx, w.CourseStartDate)
	if err == nil {
		return group.Suggestion{Kind: group.KindPersisted, Group: g}, nil
	}
	if !isNotFound(err) {
		return group.Suggestion{}, err
	}

	virtual := group.New("", w.CourseStartDate, deps.Now())
	return group.Suggestion{Kind: group.KindVirtual, Group: virtual}, nil
}
