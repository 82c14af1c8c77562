package participant_test

import (
	"testing"
	"time"

	"coursedesk/internal/domain/participant"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validParticipant() participant.Participant {
	return participant.Participant{
		ID:              "p1",
		CompanyName:     "Acme Transport",
		PersonName:      "Jan Novak",
		NationalID:      "790512/1234",
		MedicalDate:     date(2025, 1, 15),
		CourseStartDate: date(2025, 1, 20),
		CourseEndDate:   date(2025, 1, 27),
	}
}

// TestParticipant_Validate tests the structural invariants.
func TestParticipant_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*participant.Participant)
		wantErr error
	}{
		{"valid", func(p *participant.Participant) {}, nil},
		{"empty person name", func(p *participant.Participant) { p.PersonName = "  " }, participant.ErrEmptyPersonName},
		{"empty company", func(p *participant.Participant) { p.CompanyName = "" }, participant.ErrEmptyCompanyName},
		{"zero medical date", func(p *participant.Participant) { p.MedicalDate = time.Time{} }, participant.ErrEmptyMedicalDate},
		{"zero window", func(p *participant.Participant) { p.CourseStartDate = time.Time{} }, participant.ErrEmptyWindow},
		{"window not seven days", func(p *participant.Participant) { p.CourseEndDate = date(2025, 1, 28) }, participant.ErrInvalidWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParticipant()
			tt.mutate(&p)
			if err := p.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestParticipant_CompletedComputed tests derivation from milestones and the
// course end date.
func TestParticipant_CompletedComputed(t *testing.T) {
	p := validParticipant()
	afterEnd := date(2025, 1, 27)
	beforeEnd := date(2025, 1, 24)

	if p.CompletedComputed(afterEnd) {
		t.Error("no milestones ticked: should not be completed")
	}

	p.Sent, p.Documents, p.HandedOver, p.Paid = true, true, true, true
	if p.CompletedComputed(beforeEnd) {
		t.Error("course still running: should not be completed")
	}
	if !p.CompletedComputed(afterEnd) {
		t.Error("all milestones and course over: should be completed")
	}

	p.Paid = false
	if p.CompletedComputed(afterEnd) {
		t.Error("missing milestone: should not be completed")
	}
}

// TestParticipant_Completed tests that a manual override wins over the
// computed state in both directions.
func TestParticipant_Completed(t *testing.T) {
	p := validParticipant()
	today := date(2025, 2, 1)

	if p.Completed(today) {
		t.Error("expected incomplete without override")
	}

	yes := true
	p.CompletedOverride = &yes
	if !p.Completed(today) {
		t.Error("override=true should win")
	}

	p.Sent, p.Documents, p.HandedOver, p.Paid = true, true, true, true
	no := false
	p.CompletedOverride = &no
	if p.Completed(today) {
		t.Error("override=false should win over computed completion")
	}

	p.CompletedOverride = nil
	if !p.Completed(today) {
		t.Error("override cleared: computed state should apply")
	}
}
