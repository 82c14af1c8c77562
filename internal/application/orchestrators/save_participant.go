package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"coursedesk/internal/domain/dates"
	"coursedesk/internal/domain/group"
	"coursedesk/internal/domain/participant"
	"coursedesk/internal/domain/uniquenumber"
)

// ParticipantWriteStore is the participant store interface used by the
// enrollment use cases.
type ParticipantWriteStore interface {
	GetByID(ctx context.Context, id string) (participant.Participant, error)
	GetByUniqueNumber(ctx context.Context, number string) (participant.Participant, error)
	ListUniqueNumbers(ctx context.Context) ([]string, error)
	Save(ctx context.Context, value participant.Participant) error
	Delete(ctx context.Context, id string) error
}

// GroupResolveStore resolves and persists the group owning a course window.
type GroupResolveStore interface {
	GetByStartDate(ctx context.Context, start time.Time) (group.Group, error)
	Save(ctx context.Context, g group.Group) error
}

// SaveParticipantDeps holds dependencies for the enrollment use cases.
type SaveParticipantDeps struct {
	ParticipantStore ParticipantWriteStore
	GroupStore       GroupResolveStore
	SettingsStore    SettingsStore
	Gate             ReadOnlyGate
	Now              func() time.Time
	GenerateID       func() string
}

// AddParticipantInput carries the enrollment form.
type AddParticipantInput struct {
	CompanyName string
	PersonName  string
	NationalID  string
	MedicalDate time.Time

	// CourseStartDate picks a later cohort than the medical date implies.
	// Zero means derive the window from the medical date.
	CourseStartDate time.Time

	// UniqueNumber is an optional manual assignment. Only valid when the
	// resolved group is active.
	UniqueNumber string
}

// ExecuteAddParticipant enrolls a new participant into the course window
// derived from the input, creating the owning planned group on demand.
// PRE: Gate is not read-only
// POST: The participant carries a snapshot of the group's course window
// POST: A number is assigned only when the group is active; manual numbers
// must claim the lowest open gap
func ExecuteAddParticipant(ctx context.Context, input AddParticipantInput, deps SaveParticipantDeps) (participant.Participant, error) {
	var zero participant.Participant
	if err := guardReadOnly(deps.Gate); err != nil {
		return zero, err
	}

	start := input.CourseStartDate
	if start.IsZero() {
		start = dates.ComputeCourseDates(input.MedicalDate).CourseStartDate
	} else {
		start = dates.MondayOf(start)
	}

	g, created, err := resolveOrCreateGroup(ctx, deps, start)
	if err != nil {
		return zero, err
	}
	if g.Status == group.StatusCompleted {
		return zero, group.ErrClosedWindow
	}
	if dates.IsMedicalExpired(input.MedicalDate, g.CourseStartDate) {
		return zero, participant.ErrMedicalExpired
	}

	now := deps.Now()
	p := participant.Participant{
		ID:              deps.GenerateID(),
		CompanyName:     input.CompanyName,
		PersonName:      input.PersonName,
		NationalID:      input.NationalID,
		MedicalDate:     dates.Normalize(input.MedicalDate),
		CourseStartDate: g.CourseStartDate,
		CourseEndDate:   g.CourseEndDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := p.Validate(); err != nil {
		return zero, err
	}

	switch {
	case input.UniqueNumber != "" && g.Status != group.StatusActive:
		return zero, group.ErrPlannedNumber
	case input.UniqueNumber != "":
		cfg, err := deps.SettingsStore.Get(ctx)
		if err != nil {
			return zero, err
		}
		numbers, err := deps.ParticipantStore.ListUniqueNumbers(ctx)
		if err != nil {
			return zero, err
		}
		if err := validateNewNumber(input.UniqueNumber, numbers, cfg.NumberPrefix); err != nil {
			return zero, err
		}
		p.UniqueNumber = input.UniqueNumber
	case g.Status == group.StatusActive:
		number, err := ExecuteGenerateNextUniqueNumber(ctx, AllocateNumberDeps{
			ParticipantStore: deps.ParticipantStore,
			SettingsStore:    deps.SettingsStore,
		})
		if err != nil {
			return zero, err
		}
		p.UniqueNumber = number
	}

	if err := deps.ParticipantStore.Save(ctx, p); err != nil {
		return zero, err
	}
	if p.UniqueNumber != "" {
		if err := refreshSequenceCache(ctx, deps.ParticipantStore, deps.SettingsStore, deps.Now); err != nil {
			return zero, err
		}
	}
	slog.Info("participant_added", "participant_id", p.ID, "group_id", g.ID,
		"group_created", created, "unique_number", p.UniqueNumber)
	return p, nil
}

// UpdateParticipantInput carries the full edited state of a participant.
type UpdateParticipantInput struct {
	ID          string
	CompanyName string
	PersonName  string
	NationalID  string
	MedicalDate time.Time

	// CourseStartDate moves the participant to another cohort when it
	// differs from the stored snapshot.
	CourseStartDate time.Time

	// UniqueNumber edits the assignment. Empty clears it, opening a gap.
	UniqueNumber string

	Sent       bool
	Documents  bool
	HandedOver bool
	Paid       bool

	CompletedOverride *bool
}

// ExecuteUpdateParticipant applies an edit to an existing participant.
// Milestone edits are rejected while the owning group is locked. Moving to
// another cohort drops the current number and requests a fresh one from the
// target window's allocator state. Number edits inside the same cohort are
// exempt from the gap rule but must be available.
func ExecuteUpdateParticipant(ctx context.Context, input UpdateParticipantInput, deps SaveParticipantDeps) (participant.Participant, error) {
	var zero participant.Participant
	if err := guardReadOnly(deps.Gate); err != nil {
		return zero, err
	}

	p, err := deps.ParticipantStore.GetByID(ctx, input.ID)
	if err != nil {
		return zero, err
	}

	owning, err := deps.GroupStore.GetByStartDate(ctx, p.CourseStartDate)
	if err != nil {
		if !isNotFound(err) {
			return zero, err
		}
		// The snapshot outlived its group (imported data); treat the
		// window as a planned one.
		owning = group.Group{
			CourseStartDate: p.CourseStartDate,
			CourseEndDate:   p.CourseEndDate,
			Status:          group.StatusPlanned,
		}
		err = nil
	}
	milestonesTouched := input.Sent != p.Sent || input.Documents != p.Documents ||
		input.HandedOver != p.HandedOver || input.Paid != p.Paid
	if milestonesTouched && owning.IsLocked {
		return zero, group.ErrGroupLocked
	}

	target := owning
	moveStart := dates.MondayOf(input.CourseStartDate)
	moved := !input.CourseStartDate.IsZero() && !moveStart.Equal(dates.Normalize(p.CourseStartDate))
	if moved {
		target, _, err = resolveOrCreateGroup(ctx, deps, moveStart)
		if err != nil {
			return zero, err
		}
		if target.Status == group.StatusCompleted {
			return zero, group.ErrClosedWindow
		}
	}
	if dates.IsMedicalExpired(input.MedicalDate, target.CourseStartDate) {
		return zero, participant.ErrMedicalExpired
	}

	numbersChanged := false
	switch {
	case moved:
		// The old number stays behind as a gap; the target window decides
		// whether a new one is due.
		p.UniqueNumber = ""
		if target.Status == group.StatusActive {
			number, err := ExecuteGenerateNextUniqueNumber(ctx, AllocateNumberDeps{
				ParticipantStore: deps.ParticipantStore,
				SettingsStore:    deps.SettingsStore,
			})
			if err != nil {
				return zero, err
			}
			p.UniqueNumber = number
		}
		p.CourseStartDate = target.CourseStartDate
		p.CourseEndDate = target.CourseEndDate
		numbersChanged = true
	case input.UniqueNumber != p.UniqueNumber:
		if input.UniqueNumber != "" {
			if target.Status != group.StatusActive {
				return zero, group.ErrPlannedNumber
			}
			if !uniquenumber.IsValidFormat(input.UniqueNumber) {
				return zero, uniquenumber.ErrBadFormat
			}
			available, err := ExecuteIsUniqueNumberAvailable(ctx, input.UniqueNumber, p.ID,
				ParticipantNumberDeps{ParticipantStore: deps.ParticipantStore})
			if err != nil {
				return zero, err
			}
			if !available {
				return zero, uniquenumber.ErrDuplicate
			}
		}
		p.UniqueNumber = input.UniqueNumber
		numbersChanged = true
	}

	p.CompanyName = input.CompanyName
	p.PersonName = input.PersonName
	p.NationalID = input.NationalID
	p.MedicalDate = dates.Normalize(input.MedicalDate)
	p.Sent = input.Sent
	p.Documents = input.Documents
	p.HandedOver = input.HandedOver
	p.Paid = input.Paid
	p.CompletedOverride = input.CompletedOverride

	now := deps.Now()
	p.UpdatedAt = now
	today := dates.Normalize(now)
	if p.Completed(today) {
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
	} else {
		p.CompletedAt = nil
	}

	if err := p.Validate(); err != nil {
		return zero, err
	}
	if err := deps.ParticipantStore.Save(ctx, p); err != nil {
		return zero, err
	}
	if numbersChanged {
		if err := refreshSequenceCache(ctx, deps.ParticipantStore, deps.SettingsStore, deps.Now); err != nil {
			return zero, err
		}
	}
	slog.Info("participant_updated", "participant_id", p.ID, "moved", moved)
	return p, nil
}

// ExecuteDeleteParticipant removes a participant. A held number is released
// and becomes a gap for the allocator to refill.
func ExecuteDeleteParticipant(ctx context.Context, id string, deps SaveParticipantDeps) error {
	if err := guardReadOnly(deps.Gate); err != nil {
		return err
	}
	p, err := deps.ParticipantStore.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := deps.ParticipantStore.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("participant_deleted", "participant_id", id, "released_number", p.UniqueNumber)
	return nil
}

// resolveOrCreateGroup returns the group owning start, materializing a
// planned one when the window has never been persisted.
func resolveOrCreateGroup(ctx context.Context, deps SaveParticipantDeps, start time.Time) (group.Group, bool, error) {
	g, err := deps.GroupStore.GetByStartDate(ctx, start)
	if err == nil {
		return g, false, nil
	}
	if !isNotFound(err) {
		return group.Group{}, false, err
	}
	g = group.New(deps.GenerateID(), start, deps.Now())
	if err := deps.GroupStore.Save(ctx, g); err != nil {
		return group.Group{}, false, err
	}
	slog.Info("group_materialized", "group_id", g.ID,
		"course_start", dates.FormatDate(g.CourseStartDate))
	return g, true, nil
}

// refreshSequenceCache recomputes the advisory LastSequence cache from the
// numbers actually issued.
func refreshSequenceCache(ctx context.Context, participants NumberLookupStore, store SettingsStore, now func() time.Time) error {
	cfg, err := store.Get(ctx)
	if err != nil {
		return err
	}
	numbers, err := participants.ListUniqueNumbers(ctx)
	if err != nil {
		return err
	}
	cfg.LastSequence = uniquenumber.MaxSequence(numbers, cfg.NumberPrefix)
	cfg.UpdatedAt = now()
	return store.Save(ctx, cfg)
}
