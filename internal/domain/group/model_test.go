package group_test

import (
	"testing"
	"time"

	"coursedesk/internal/domain/group"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var testNow = date(2025, 1, 10)

// TestNew tests that a freshly built group is a planned one-week window.
func TestNew(t *testing.T) {
	g := group.New("g1", date(2025, 1, 20), testNow)
	if g.Status != group.StatusPlanned {
		t.Errorf("Status = %q, want planned", g.Status)
	}
	if g.GroupNumber != nil {
		t.Errorf("GroupNumber = %v, want nil", *g.GroupNumber)
	}
	if !g.CourseEndDate.Equal(date(2025, 1, 27)) {
		t.Errorf("CourseEndDate = %v, want 2025-01-27", g.CourseEndDate)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

// TestGroup_Validate tests the structural invariants.
func TestGroup_Validate(t *testing.T) {
	num := 3
	badNum := -1
	tests := []struct {
		name    string
		g       group.Group
		wantErr error
	}{
		{
			name:    "zero start date",
			g:       group.Group{Status: group.StatusPlanned},
			wantErr: group.ErrEmptyStartDate,
		},
		{
			name: "window not seven days",
			g: group.Group{
				CourseStartDate: date(2025, 1, 20),
				CourseEndDate:   date(2025, 1, 26),
				Status:          group.StatusPlanned,
			},
			wantErr: group.ErrInvalidWindow,
		},
		{
			name: "planned with number",
			g: group.Group{
				GroupNumber:     &num,
				CourseStartDate: date(2025, 1, 20),
				CourseEndDate:   date(2025, 1, 27),
				Status:          group.StatusPlanned,
			},
			wantErr: group.ErrPlannedNumber,
		},
		{
			name: "active without number",
			g: group.Group{
				CourseStartDate: date(2025, 1, 20),
				CourseEndDate:   date(2025, 1, 27),
				Status:          group.StatusActive,
			},
			wantErr: group.ErrMissingNumber,
		},
		{
			name: "unknown status",
			g: group.Group{
				CourseStartDate: date(2025, 1, 20),
				CourseEndDate:   date(2025, 1, 27),
				Status:          "archived",
			},
			wantErr: group.ErrInvalidStatus,
		},
		{
			name: "non-positive number",
			g: group.Group{
				GroupNumber:     &badNum,
				CourseStartDate: date(2025, 1, 20),
				CourseEndDate:   date(2025, 1, 27),
				Status:          group.StatusCompleted,
			},
			wantErr: group.ErrBadGroupNumber,
		},
		{
			name: "valid active",
			g: group.Group{
				GroupNumber:     &num,
				CourseStartDate: date(2025, 1, 20),
				CourseEndDate:   date(2025, 1, 27),
				Status:          group.StatusActive,
			},
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.g.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestGroup_Promote tests the planned to active transition.
func TestGroup_Promote(t *testing.T) {
	g := group.New("g1", date(2025, 1, 20), testNow)
	g.IsLocked = true // stale flag must be cleared on promotion

	if err := g.Promote(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Status != group.StatusActive {
		t.Errorf("Status = %q, want active", g.Status)
	}
	if g.GroupNumber == nil || *g.GroupNumber != 4 {
		t.Errorf("GroupNumber = %v, want 4", g.GroupNumber)
	}
	if g.IsLocked {
		t.Error("IsLocked should be cleared on promotion")
	}

	// Promoting twice must fail.
	if err := g.Promote(5); err != group.ErrNotPlanned {
		t.Errorf("second Promote = %v, want ErrNotPlanned", err)
	}
	// Non-positive numbers rejected.
	p := group.New("g2", date(2025, 1, 27), testNow)
	if err := p.Promote(0); err != group.ErrBadGroupNumber {
		t.Errorf("Promote(0) = %v, want ErrBadGroupNumber", err)
	}
}

// TestGroup_Complete tests the active to completed transition.
func TestGroup_Complete(t *testing.T) {
	g := group.New("g1", date(2025, 1, 20), testNow)

	if err := g.Complete(); err != group.ErrNotActive {
		t.Errorf("Complete on planned = %v, want ErrNotActive", err)
	}

	if err := g.Promote(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Status != group.StatusCompleted {
		t.Errorf("Status = %q, want completed", g.Status)
	}
	if !g.IsLocked {
		t.Error("IsLocked should be set on completion")
	}
	if err := g.Complete(); err != group.ErrNotActive {
		t.Errorf("second Complete = %v, want ErrNotActive", err)
	}
}

// TestGroup_IsEndedBy tests the end-of-window check.
func TestGroup_IsEndedBy(t *testing.T) {
	g := group.New("g1", date(2025, 1, 20), testNow)
	tests := []struct {
		name  string
		today time.Time
		want  bool
	}{
		{"mid course", date(2025, 1, 23), false},
		{"day before end", date(2025, 1, 26), false},
		{"end date", date(2025, 1, 27), true},
		{"after end", date(2025, 2, 3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsEndedBy(tt.today); got != tt.want {
				t.Errorf("IsEndedBy(%v) = %v, want %v", tt.today, got, tt.want)
			}
		})
	}
}
