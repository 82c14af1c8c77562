package participant

import (
	"errors"
	"strings"
	"time"

	"coursedesk/internal/domain/dates"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 200
)

// Domain errors
var (
	ErrEmptyPersonName  = errors.New("participant name cannot be empty")
	ErrEmptyCompanyName = errors.New("company name cannot be empty")
	ErrNameTooLong      = errors.New("name cannot exceed 200 characters")
	ErrEmptyMedicalDate = errors.New("medical exam date cannot be zero")
	ErrEmptyWindow      = errors.New("course window dates cannot be zero")
	ErrInvalidWindow    = errors.New("course end date must be the start date plus seven days")
	ErrMedicalExpired   = errors.New("medical exam expires before the course starts")
)

// Participant is a person enrolled in exactly one course window.
//
// CourseStartDate and CourseEndDate are a snapshot of the group window taken
// at assignment time, not a live reference: historical participants stay
// anchored to their original window even if the group is later corrected.
type Participant struct {
	ID              string
	CompanyName     string
	PersonName      string
	NationalID      string
	MedicalDate     time.Time
	CourseStartDate time.Time
	CourseEndDate   time.Time

	// UniqueNumber is empty until the participant's group is active.
	UniqueNumber string

	// Independent milestone flags.
	Sent       bool
	Documents  bool
	HandedOver bool
	Paid       bool

	// CompletedOverride is a manual correction; when set it wins over the
	// computed completion state.
	CompletedOverride *bool

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Validate checks the Participant's structural invariants.
func (p *Participant) Validate() error {
	if strings.TrimSpace(p.PersonName) == "" {
		return ErrEmptyPersonName
	}
	if strings.TrimSpace(p.CompanyName) == "" {
		return ErrEmptyCompanyName
	}
	if len(p.PersonName) > MaxNameLength || len(p.CompanyName) > MaxNameLength {
		return ErrNameTooLong
	}
	if p.MedicalDate.IsZero() {
		return ErrEmptyMedicalDate
	}
	if p.CourseStartDate.IsZero() || p.CourseEndDate.IsZero() {
		return ErrEmptyWindow
	}
	if !p.CourseEndDate.Equal(p.CourseStartDate.AddDate(0, 0, dates.CourseDays)) {
		return ErrInvalidWindow
	}
	return nil
}

// MilestonesDone reports whether all four milestone flags are set.
func (p *Participant) MilestonesDone() bool {
	return p.Sent && p.Documents && p.HandedOver && p.Paid
}

// CompletedComputed derives completion from the milestones and the course end
// date: done once everything is ticked and the course week is over.
func (p *Participant) CompletedComputed(today time.Time) bool {
	return p.MilestonesDone() && !dates.Normalize(today).Before(dates.Normalize(p.CourseEndDate))
}

// Completed resolves the tri-state completion flag: a manual override wins,
// otherwise the computed state applies.
func (p *Participant) Completed(today time.Time) bool {
	if p.CompletedOverride != nil {
		return *p.CompletedOverride
	}
	return p.CompletedComputed(today)
}
