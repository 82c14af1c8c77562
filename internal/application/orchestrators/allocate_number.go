package orchestrators

import (
	"context"

	"coursedesk/internal/domain/participant"
	"coursedesk/internal/domain/uniquenumber"
)

// NumberLookupStore reads the issued numbers the allocator reasons over.
type NumberLookupStore interface {
	ListUniqueNumbers(ctx context.Context) ([]string, error)
}

// AllocateNumberDeps holds dependencies for the allocator use cases.
type AllocateNumberDeps struct {
	ParticipantStore NumberLookupStore
	SettingsStore    SettingsStore
}

// ExecuteGenerateNextUniqueNumber computes the number the allocator would
// issue next: the lowest open gap when one exists, otherwise max plus one.
// Nothing is persisted; the number is only reserved once a participant is
// saved with it.
func ExecuteGenerateNextUniqueNumber(ctx context.Context, deps AllocateNumberDeps) (string, error) {
	cfg, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return "", err
	}
	numbers, err := deps.ParticipantStore.ListUniqueNumbers(ctx)
	if err != nil {
		return "", err
	}
	seq, ok := uniquenumber.FindGap(numbers, cfg.NumberPrefix)
	if !ok {
		seq = uniquenumber.NextSequence(numbers, cfg.NumberPrefix)
	}
	return uniquenumber.Format(cfg.NumberPrefix, seq), nil
}

// GapReport describes the allocator's view of the issued sequence range.
type GapReport struct {
	Prefix   string
	HasGap   bool
	Gap      int    // lowest missing sequence, valid when HasGap
	GapValue string // Gap rendered as a full unique number
	Max      int    // highest issued sequence, 0 when none
}

// ExecuteCheckForGaps scans the issued numbers for the lowest missing
// sequence below the current maximum.
func ExecuteCheckForGaps(ctx context.Context, deps AllocateNumberDeps) (GapReport, error) {
	var report GapReport
	cfg, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return report, err
	}
	numbers, err := deps.ParticipantStore.ListUniqueNumbers(ctx)
	if err != nil {
		return report, err
	}
	report.Prefix = cfg.NumberPrefix
	report.Max = uniquenumber.MaxSequence(numbers, cfg.NumberPrefix)
	if gap, ok := uniquenumber.FindGap(numbers, cfg.NumberPrefix); ok {
		report.HasGap = true
		report.Gap = gap
		report.GapValue = uniquenumber.Format(cfg.NumberPrefix, gap)
	}
	return report, nil
}

// NumberOwnerStore resolves a unique number to its holder.
type NumberOwnerStore interface {
	GetByUniqueNumber(ctx context.Context, number string) (participant.Participant, error)
}

// ParticipantNumberDeps holds dependencies for availability checks.
type ParticipantNumberDeps struct {
	ParticipantStore NumberOwnerStore
}

// ExecuteIsUniqueNumberAvailable reports whether candidate is well formed
// and not held by any participant other than excludeID. excludeID may be
// empty when checking for a new participant.
func ExecuteIsUniqueNumberAvailable(ctx context.Context, candidate, excludeID string, deps ParticipantNumberDeps) (bool, error) {
	if !uniquenumber.IsValidFormat(candidate) {
		return false, nil
	}
	owner, err := deps.ParticipantStore.GetByUniqueNumber(ctx, candidate)
	if err != nil {
		if isNotFound(err) {
			return true, nil
		}
		return false, err
	}
	return owner.ID == excludeID, nil
}

// ValidateUniqueNumber checks a manually entered number for a NEW
// assignment. Beyond format and uniqueness it enforces the no-skip rule:
// while a gap is open, only the lowest gap may be claimed; with no gap the
// number must not jump past max plus one. Edits to an existing assignment
// go through ExecuteIsUniqueNumberAvailable instead and are exempt from the
// gap rule.
func ValidateUniqueNumber(ctx context.Context, candidate string, deps AllocateNumberDeps) error {
	cfg, err := deps.SettingsStore.Get(ctx)
	if err != nil {
		return err
	}
	numbers, err := deps.ParticipantStore.ListUniqueNumbers(ctx)
	if err != nil {
		return err
	}
	return validateNewNumber(candidate, numbers, cfg.NumberPrefix)
}

// validateNewNumber is the pure core of ValidateUniqueNumber.
func validateNewNumber(candidate string, numbers []string, prefix string) error {
	candPrefix, seq, err := uniquenumber.Parse(candidate)
	if err != nil {
		return err
	}
	for _, n := range numbers {
		if n == candidate {
			return uniquenumber.ErrDuplicate
		}
	}
	// Numbers under a foreign prefix (carried over from a previous epoch)
	// are outside the sequence and only need format and uniqueness.
	if candPrefix != prefix {
		return nil
	}
	if gap, ok := uniquenumber.FindGap(numbers, prefix); ok {
		if seq != gap {
			return uniquenumber.ErrSkipsGap
		}
		return nil
	}
	if seq > uniquenumber.MaxSequence(numbers, prefix)+1 {
		return uniquenumber.ErrSkipsGap
	}
	return nil
}
