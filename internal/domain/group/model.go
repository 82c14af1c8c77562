package group

import (
	"errors"
	"time"

	"coursedesk/internal/domain/dates"
)

// Lifecycle states. A group moves planned -> active -> completed and never
// back.
const (
	StatusPlanned   = "planned"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// PlannedAhead is the rolling-window policy: at least this many upcoming
// planned groups are kept materialized beyond the current course week.
const PlannedAhead = 2

// Suggestion kinds. Virtual suggestions describe a group that has not been
// persisted; they must never be written to the store as-is.
const (
	KindPersisted = "persisted"
	KindVirtual   = "virtual"
)

// Domain errors
var (
	ErrNotPlanned     = errors.New("only a planned group can be promoted")
	ErrNotActive      = errors.New("only an active group can be completed")
	ErrBadGroupNumber = errors.New("group number must be positive")
	ErrEmptyStartDate = errors.New("course start date cannot be zero")
	ErrInvalidWindow  = errors.New("course end date must be the start date plus seven days")
	ErrInvalidStatus  = errors.New("status must be 'planned', 'active' or 'completed'")
	ErrPlannedNumber  = errors.New("a planned group cannot carry a group number")
	ErrMissingNumber  = errors.New("an active group must carry a group number")
	ErrClosedWindow   = errors.New("group is completed; its assignment window is closed")
	ErrGroupLocked    = errors.New("group is locked; milestone edits are not allowed")
)

// Group is a dated course offering. CourseStartDate is the business key and
// is unique across all groups; GroupNumber is assigned once, at promotion,
// and never reused.
type Group struct {
	ID              string
	GroupNumber     *int
	CourseStartDate time.Time
	CourseEndDate   time.Time
	Status          string
	IsLocked        bool
	CreatedAt       time.Time
}

// Suggestion is the group a course window resolves to. Kind tags whether the
// group exists in the store or was computed for display only.
type Suggestion struct {
	Kind  string
	Group Group
}

// New builds a planned group for the course week starting at start.
// PRE: start is a Monday
// POST: Group is planned, unnumbered and unlocked
func New(id string, start, now time.Time) Group {
	w := dates.ComputeCourseDates(start)
	return Group{
		ID:              id,
		CourseStartDate: w.CourseStartDate,
		CourseEndDate:   w.CourseEndDate,
		Status:          StatusPlanned,
		CreatedAt:       now,
	}
}

// Validate checks the Group's structural invariants.
func (g *Group) Validate() error {
	if g.CourseStartDate.IsZero() {
		return ErrEmptyStartDate
	}
	if !g.CourseEndDate.Equal(g.CourseStartDate.AddDate(0, 0, dates.CourseDays)) {
		return ErrInvalidWindow
	}
	switch g.Status {
	case StatusPlanned:
		if g.GroupNumber != nil {
			return ErrPlannedNumber
		}
	case StatusActive:
		if g.GroupNumber == nil {
			return ErrMissingNumber
		}
	case StatusCompleted:
	default:
		return ErrInvalidStatus
	}
	if g.GroupNumber != nil && *g.GroupNumber <= 0 {
		return ErrBadGroupNumber
	}
	return nil
}

// IsEndedBy reports whether the group's course window is over on the given
// day, i.e. today is on or after the end date.
func (g *Group) IsEndedBy(today time.Time) bool {
	return !dates.Normalize(today).Before(dates.Normalize(g.CourseEndDate))
}

// Promote transitions a planned group to active, assigning its permanent
// group number.
// PRE: Status is planned, number is positive
// POST: Status is active, GroupNumber is set, IsLocked is cleared
func (g *Group) Promote(number int) error {
	if g.Status != StatusPlanned {
		return ErrNotPlanned
	}
	if number <= 0 {
		return ErrBadGroupNumber
	}
	g.GroupNumber = &number
	g.Status = StatusActive
	g.IsLocked = false
	return nil
}

// Complete transitions an active group to completed and locks it against
// further milestone edits.
// PRE: Status is active
// POST: Status is completed, IsLocked is set
func (g *Group) Complete() error {
	if g.Status != StatusActive {
		return ErrNotActive
	}
	g.Status = StatusCompleted
	g.IsLocked = true
	return nil
}
