// Package backup defines the versioned export payload and the linear chain
// of pure transforms that upgrades older payloads to the current version.
package backup

import (
	"errors"
	"fmt"
	"time"

	"coursedesk/internal/domain/dates"
	"coursedesk/internal/domain/group"
	"coursedesk/internal/domain/participant"
	"coursedesk/internal/domain/settings"
)

// CurrentVersion is the payload version this build reads and writes.
const CurrentVersion = 3

// Migration errors. Any failure aborts the whole import; nothing is
// partially committed.
var (
	ErrVersionTooNew  = errors.New("backup was written by a newer app version")
	ErrVersionInvalid = errors.New("backup version must be a positive integer")
)

// Payload is the persisted backup format. Legacy fields from older versions
// are kept as optional members so transforms can read them.
type Payload struct {
	Version      int              `json:"version"`
	Participants []ParticipantRec `json:"participants"`
	Groups       []GroupRec       `json:"groups"`
	Settings     SettingsRec      `json:"settings"`
}

// ParticipantRec is the wire form of a participant.
type ParticipantRec struct {
	ID              string `json:"id"`
	CompanyName     string `json:"companyName"`
	PersonName      string `json:"personName"`
	NationalID      string `json:"nationalId"`
	MedicalDate     string `json:"medicalDate"`
	CourseStartDate string `json:"courseStartDate"`
	CourseEndDate   string `json:"courseEndDate"`
	UniqueNumber    string `json:"uniqueNumber,omitempty"`
	Sent            bool   `json:"sent"`
	Documents       bool   `json:"documents"`
	HandedOver      bool   `json:"handedOver"`
	Paid            bool   `json:"paid"`

	CompletedOverride *bool  `json:"completedOverride,omitempty"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
	CompletedAt       string `json:"completedAt,omitempty"`

	// Completed is the single completion flag written by v1 payloads. The
	// v1 -> v2 transform folds it into CompletedOverride.
	Completed *bool `json:"completed,omitempty"`
}

// GroupRec is the wire form of a group.
type GroupRec struct {
	ID              string `json:"id"`
	GroupNumber     *int   `json:"groupNumber"`
	CourseStartDate string `json:"courseStartDate"`
	CourseEndDate   string `json:"courseEndDate"`
	Status          string `json:"status"`
	IsLocked        *bool  `json:"isLocked,omitempty"`
	CreatedAt       string `json:"createdAt"`
}

// SettingsRec is the wire form of the settings singleton.
type SettingsRec struct {
	NumberPrefix string `json:"numberPrefix"`
	LastSequence int    `json:"lastSequence"`
}

// Transform upgrades a payload exactly one version forward.
type Transform func(*Payload) error

// transforms maps a source version to the transform producing the next one.
var transforms = map[int]Transform{
	1: migrateV1toV2,
	2: migrateV2toV3,
}

// Migrate applies the transform chain from p.Version up to CurrentVersion in
// strict order. Payloads newer than CurrentVersion are rejected; any
// transform error aborts the migration with a version-tagged message.
func Migrate(p *Payload) error {
	if p.Version < 1 {
		return fmt.Errorf("backup version %d: %w", p.Version, ErrVersionInvalid)
	}
	if p.Version > CurrentVersion {
		return fmt.Errorf("backup version %d (supported up to %d): %w", p.Version, CurrentVersion, ErrVersionTooNew)
	}
	for v := p.Version; v < CurrentVersion; v++ {
		t, ok := transforms[v]
		if !ok {
			return fmt.Errorf("backup version %d: no transform to version %d", v, v+1)
		}
		if err := t(p); err != nil {
			return fmt.Errorf("upgrading backup from version %d: %w", v, err)
		}
		p.Version = v + 1
	}
	return nil
}

// migrateV1toV2 folds the legacy single completion flag into the manual
// override and leaves the milestone flags at their defaults.
func migrateV1toV2(p *Payload) error {
	for i := range p.Participants {
		rec := &p.Participants[i]
		if rec.Completed != nil && *rec.Completed {
			yes := true
			rec.CompletedOverride = &yes
		}
		rec.Completed = nil
	}
	return nil
}

// migrateV2toV3 derives the IsLocked flag that v2 groups did not carry yet.
func migrateV2toV3(p *Payload) error {
	for i := range p.Groups {
		rec := &p.Groups[i]
		if rec.IsLocked == nil {
			locked := rec.Status == group.StatusCompleted
			rec.IsLocked = &locked
		}
	}
	return nil
}

// ToDomain converts a migrated participant record. Date parse failures abort
// the import.
func (r ParticipantRec) ToDomain() (participant.Participant, error) {
	p := participant.Participant{
		ID:                r.ID,
		CompanyName:       r.CompanyName,
		PersonName:        r.PersonName,
		NationalID:        r.NationalID,
		UniqueNumber:      r.UniqueNumber,
		Sent:              r.Sent,
		Documents:         r.Documents,
		HandedOver:        r.HandedOver,
		Paid:              r.Paid,
		CompletedOverride: r.CompletedOverride,
	}
	var err error
	if p.MedicalDate, err = dates.ParseDate(r.MedicalDate); err != nil {
		return participant.Participant{}, fmt.Errorf("participant %s medicalDate: %w", r.ID, err)
	}
	if p.CourseStartDate, err = dates.ParseDate(r.CourseStartDate); err != nil {
		return participant.Participant{}, fmt.Errorf("participant %s courseStartDate: %w", r.ID, err)
	}
	if p.CourseEndDate, err = dates.ParseDate(r.CourseEndDate); err != nil {
		return participant.Participant{}, fmt.Errorf("participant %s courseEndDate: %w", r.ID, err)
	}
	if p.CreatedAt, err = parseTimestamp(r.CreatedAt); err != nil {
		return participant.Participant{}, fmt.Errorf("participant %s createdAt: %w", r.ID, err)
	}
	if p.UpdatedAt, err = parseTimestamp(r.UpdatedAt); err != nil {
		return participant.Participant{}, fmt.Errorf("participant %s updatedAt: %w", r.ID, err)
	}
	if r.CompletedAt != "" {
		done, err := parseTimestamp(r.CompletedAt)
		if err != nil {
			return participant.Participant{}, fmt.Errorf("participant %s completedAt: %w", r.ID, err)
		}
		p.CompletedAt = &done
	}
	return p, nil
}

// ToDomain converts a migrated group record.
func (r GroupRec) ToDomain() (group.Group, error) {
	g := group.Group{
		ID:          r.ID,
		GroupNumber: r.GroupNumber,
		Status:      r.Status,
	}
	if r.IsLocked != nil {
		g.IsLocked = *r.IsLocked
	}
	var err error
	if g.CourseStartDate, err = dates.ParseDate(r.CourseStartDate); err != nil {
		return group.Group{}, fmt.Errorf("group %s courseStartDate: %w", r.ID, err)
	}
	if g.CourseEndDate, err = dates.ParseDate(r.CourseEndDate); err != nil {
		return group.Group{}, fmt.Errorf("group %s courseEndDate: %w", r.ID, err)
	}
	if g.CreatedAt, err = parseTimestamp(r.CreatedAt); err != nil {
		return group.Group{}, fmt.Errorf("group %s createdAt: %w", r.ID, err)
	}
	return g, nil
}

// parseTimestamp accepts RFC 3339 timestamps and falls back to plain
// calendar dates, which some early exports used for createdAt.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return dates.ParseDate(s)
}

// ToDomain converts the settings record.
func (r SettingsRec) ToDomain() settings.Settings {
	return settings.Settings{
		NumberPrefix: r.NumberPrefix,
		LastSequence: r.LastSequence,
	}
}
