package orchestrators

import (
	"context"
	"fmt"
	"sort"
	"time"

	"coursedesk/internal/adapters/storage"
	"coursedesk/internal/domain/dates"
	groupDomain "coursedesk/internal/domain/group"
	participantDomain "coursedesk/internal/domain/participant"
	settingsDomain "coursedesk/internal/domain/settings"
)

// mustDate parses a YYYY-MM-DD fixture date or panics.
func mustDate(s string) time.Time {
	d, err := dates.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixedNow pins the clock to midnight of the given date.
func fixedNow(s string) func() time.Time {
	d := mustDate(s)
	return func() time.Time { return d }
}

// seqIDs returns a deterministic ID generator: id-1, id-2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// stubGate implements ReadOnlyGate.
type stubGate struct {
	readOnly bool
}

func (g *stubGate) ReadOnly() bool { return g.readOnly }

// mockGroupStore is a map-backed group store.
type mockGroupStore struct {
	byID    map[string]groupDomain.Group
	saveErr error
}

func newMockGroupStore(groups ...groupDomain.Group) *mockGroupStore {
	s := &mockGroupStore{byID: make(map[string]groupDomain.Group)}
	for _, g := range groups {
		s.byID[g.ID] = g
	}
	return s
}

func (s *mockGroupStore) List(_ context.Context) ([]groupDomain.Group, error) {
	out := make([]groupDomain.Group, 0, len(s.byID))
	for _, g := range s.byID {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CourseStartDate.Before(out[j].CourseStartDate)
	})
	return out, nil
}

func (s *mockGroupStore) GetByStartDate(_ context.Context, start time.Time) (groupDomain.Group, error) {
	for _, g := range s.byID {
		if g.CourseStartDate.Equal(dates.Normalize(start)) {
			return g, nil
		}
	}
	return groupDomain.Group{}, storage.ErrNotFound
}

func (s *mockGroupStore) MaxGroupNumber(_ context.Context) (int, error) {
	max := 0
	for _, g := range s.byID {
		if g.GroupNumber != nil && *g.GroupNumber > max {
			max = *g.GroupNumber
		}
	}
	return max, nil
}

func (s *mockGroupStore) Save(_ context.Context, g groupDomain.Group) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.byID[g.ID] = g
	return nil
}

// byStatus returns the stored groups with the given status, earliest first.
func (s *mockGroupStore) byStatus(status string) []groupDomain.Group {
	var out []groupDomain.Group
	for _, g := range s.byID {
		if g.Status == status {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CourseStartDate.Before(out[j].CourseStartDate)
	})
	return out
}

// mockParticipantStore is a map-backed participant store.
type mockParticipantStore struct {
	byID    map[string]participantDomain.Participant
	saveErr error
}

func newMockParticipantStore(participants ...participantDomain.Participant) *mockParticipantStore {
	s := &mockParticipantStore{byID: make(map[string]participantDomain.Participant)}
	for _, p := range participants {
		s.byID[p.ID] = p
	}
	return s
}

func (s *mockParticipantStore) GetByID(_ context.Context, id string) (participantDomain.Participant, error) {
	p, ok := s.byID[id]
	if !ok {
		return participantDomain.Participant{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *mockParticipantStore) GetByUniqueNumber(_ context.Context, number string) (participantDomain.Participant, error) {
	for _, p := range s.byID {
		if p.UniqueNumber == number {
			return p, nil
		}
	}
	return participantDomain.Participant{}, storage.ErrNotFound
}

func (s *mockParticipantStore) List(_ context.Context) ([]participantDomain.Participant, error) {
	out := make([]participantDomain.Participant, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *mockParticipantStore) ListByCourseStartDate(_ context.Context, start time.Time) ([]participantDomain.Participant, error) {
	var out []participantDomain.Participant
	for _, p := range s.byID {
		if p.CourseStartDate.Equal(dates.Normalize(start)) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *mockParticipantStore) ListUniqueNumbers(_ context.Context) ([]string, error) {
	var out []string
	for _, p := range s.byID {
		if p.UniqueNumber != "" {
			out = append(out, p.UniqueNumber)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *mockParticipantStore) Save(_ context.Context, p participantDomain.Participant) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.byID[p.ID] = p
	return nil
}

func (s *mockParticipantStore) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

// mockSettingsStore holds the settings singleton in memory.
type mockSettingsStore struct {
	cfg settingsDomain.Settings
}

func newMockSettingsStore(prefix string) *mockSettingsStore {
	return &mockSettingsStore{cfg: settingsDomain.Settings{NumberPrefix: prefix}}
}

func (s *mockSettingsStore) Get(_ context.Context) (settingsDomain.Settings, error) {
	return s.cfg, nil
}

func (s *mockSettingsStore) Save(_ context.Context, cfg settingsDomain.Settings) error {
	s.cfg = cfg
	return nil
}
