package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"coursedesk/internal/adapters/storage"
	"coursedesk/internal/application/listutil"
	"coursedesk/internal/application/orchestrators"
	"coursedesk/internal/application/projections"
	"coursedesk/internal/domain/backup"
	"coursedesk/internal/domain/dates"
	"coursedesk/internal/domain/entitlement"
	groupDomain "coursedesk/internal/domain/group"
	participantDomain "coursedesk/internal/domain/participant"
	settingsDomain "coursedesk/internal/domain/settings"
	"coursedesk/internal/domain/uniquenumber"
)

// validate checks request payloads against their struct tags.
var validate = validator.New()

// maxImportBytes bounds a backup upload.
const maxImportBytes = 16 << 20

// internalError logs the real error and returns a generic message.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps domain sentinels onto HTTP statuses. Unknown errors
// become a 500 without leaking details.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entitlement.ErrReadOnly):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, uniquenumber.ErrBadFormat),
		errors.Is(err, uniquenumber.ErrDuplicate),
		errors.Is(err, uniquenumber.ErrSkipsGap),
		errors.Is(err, groupDomain.ErrClosedWindow),
		errors.Is(err, groupDomain.ErrPlannedNumber),
		errors.Is(err, groupDomain.ErrGroupLocked),
		errors.Is(err, participantDomain.ErrMedicalExpired),
		errors.Is(err, participantDomain.ErrEmptyPersonName),
		errors.Is(err, participantDomain.ErrEmptyCompanyName),
		errors.Is(err, participantDomain.ErrNameTooLong),
		errors.Is(err, settingsDomain.ErrBadPrefix),
		errors.Is(err, backup.ErrVersionTooNew),
		errors.Is(err, backup.ErrVersionInvalid):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		internalError(w, err)
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// validationError renders validator failures as a field error map.
func validationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = "failed " + fe.Tag() + " validation"
		}
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "invalid request",
		"fields": fields,
	})
}

// parseDateParam reads a required YYYY-MM-DD query parameter.
func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		http.Error(w, name+" is required", http.StatusBadRequest)
		return time.Time{}, false
	}
	d, err := dates.ParseDate(raw)
	if err != nil {
		http.Error(w, name+" must be formatted as 2006-01-02", http.StatusBadRequest)
		return time.Time{}, false
	}
	return d, true
}

// groupView is the wire form of a group.
type groupView struct {
	ID              string `json:"id"`
	GroupNumber     *int   `json:"groupNumber"`
	CourseStartDate string `json:"courseStartDate"`
	CourseEndDate   string `json:"courseEndDate"`
	Status          string `json:"status"`
	IsLocked        bool   `json:"isLocked"`
}

func toGroupView(g groupDomain.Group) groupView {
	return groupView{
		ID:              g.ID,
		GroupNumber:     g.GroupNumber,
		CourseStartDate: dates.FormatDate(g.CourseStartDate),
		CourseEndDate:   dates.FormatDate(g.CourseEndDate),
		Status:          g.Status,
		IsLocked:        g.IsLocked,
	}
}

// participantView is the wire form of a participant. Completed is resolved
// against today so clients never re-implement the override logic.
type participantView struct {
	ID                string `json:"id"`
	CompanyName       string `json:"companyName"`
	PersonName        string `json:"personName"`
	NationalID        string `json:"nationalId"`
	MedicalDate       string `json:"medicalDate"`
	MedicalValidUntil string `json:"medicalValidUntil"`
	CourseStartDate   string `json:"courseStartDate"`
	CourseEndDate     string `json:"courseEndDate"`
	UniqueNumber      string `json:"uniqueNumber,omitempty"`
	Sent              bool   `json:"sent"`
	Documents         bool   `json:"documents"`
	HandedOver        bool   `json:"handedOver"`
	Paid              bool   `json:"paid"`
	CompletedOverride *bool  `json:"completedOverride,omitempty"`
	Completed         bool   `json:"completed"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
	CompletedAt       string `json:"completedAt,omitempty"`
}

func toParticipantView(p participantDomain.Participant, today time.Time) participantView {
	v := participantView{
		ID:                p.ID,
		CompanyName:       p.CompanyName,
		PersonName:        p.PersonName,
		NationalID:        p.NationalID,
		MedicalDate:       dates.FormatDate(p.MedicalDate),
		MedicalValidUntil: dates.FormatDate(dates.MedicalValidUntil(p.MedicalDate)),
		CourseStartDate:   dates.FormatDate(p.CourseStartDate),
		CourseEndDate:     dates.FormatDate(p.CourseEndDate),
		UniqueNumber:      p.UniqueNumber,
		Sent:              p.Sent,
		Documents:         p.Documents,
		HandedOver:        p.HandedOver,
		Paid:              p.Paid,
		CompletedOverride: p.CompletedOverride,
		Completed:         p.Completed(today),
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.Format(time.RFC3339),
	}
	if p.CompletedAt != nil {
		v.CompletedAt = p.CompletedAt.Format(time.RFC3339)
	}
	return v
}

// saveDeps assembles the enrollment orchestrator dependencies.
func saveDeps() orchestrators.SaveParticipantDeps {
	return orchestrators.SaveParticipantDeps{
		ParticipantStore: stores.ParticipantStore,
		GroupStore:       stores.GroupStore,
		SettingsStore:    stores.SettingsStore,
		Gate:             gate,
		Now:              timeNow,
		GenerateID:       generateID,
	}
}

func allocateDeps() orchestrators.AllocateNumberDeps {
	return orchestrators.AllocateNumberDeps{
		ParticipantStore: stores.ParticipantStore,
		SettingsStore:    stores.SettingsStore,
	}
}

func syncDeps() orchestrators.SyncGroupsDeps {
	return orchestrators.SyncGroupsDeps{
		GroupStore:       stores.GroupStore,
		ParticipantStore: stores.ParticipantStore,
		SettingsStore:    stores.SettingsStore,
		Guard:            guard,
		Now:              timeNow,
		GenerateID:       generateID,
	}
}

// handleCourseDates handles GET /api/course-dates?date=YYYY-MM-DD.
// Returns the course window derived from the given medical exam date along
// with the lifecycle status of the owning week.
func handleCourseDates(w http.ResponseWriter, r *http.Request) {
	d, ok := parseDateParam(w, r, "date")
	if !ok {
		return
	}
	w2 := dates.ComputeCourseDates(d)
	status, err := orchestrators.ExecuteClassifyStartDate(r.Context(), w2.CourseStartDate,
		orchestrators.ClassifyStartDateDeps{GroupStore: stores.GroupStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"courseStartDate":   dates.FormatDate(w2.CourseStartDate),
		"courseEndDate":     dates.FormatDate(w2.CourseEndDate),
		"medicalValidUntil": dates.FormatDate(dates.MedicalValidUntil(d)),
		"status":            status,
	})
}

// handleListGroups handles GET /api/groups[?status=active].
func handleListGroups(w http.ResponseWriter, r *http.Request) {
	var (
		groups []groupDomain.Group
		err    error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		groups, err = stores.GroupStore.ListByStatus(r.Context(), status)
	} else {
		groups, err = stores.GroupStore.List(r.Context())
	}
	if err != nil {
		internalError(w, err)
		return
	}
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, toGroupView(g))
	}
	writeJSON(w, http.StatusOK, views)
}

// rosterView is the wire form of a group roster.
type rosterView struct {
	Group        groupView         `json:"group"`
	Participants []participantView `json:"participants"`
	Numbered     int               `json:"numbered"`
	Completed    int               `json:"completed"`
}

// handleGroupRoster handles GET /api/groups/{id}/roster.
func handleGroupRoster(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetGroupRoster(r.Context(),
		projections.GetGroupRosterQuery{GroupID: r.PathValue("id")},
		projections.GetGroupRosterDeps{
			GroupStore:       stores.GroupStore,
			ParticipantStore: stores.ParticipantStore,
			Now:              timeNow,
		})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	today := dates.Normalize(timeNow())
	view := rosterView{
		Group:        toGroupView(result.Group),
		Participants: make([]participantView, 0, len(result.Participants)),
		Numbered:     result.Numbered,
		Completed:    result.Completed,
	}
	for _, p := range result.Participants {
		view.Participants = append(view.Participants, toParticipantView(p, today))
	}
	writeJSON(w, http.StatusOK, view)
}

// dashboardView is the wire form of the landing-screen overview.
type dashboardView struct {
	ActiveGroup       *groupView  `json:"activeGroup,omitempty"`
	ActiveRosterSize  int         `json:"activeRosterSize"`
	PlannedGroups     []groupView `json:"plannedGroups"`
	CompletedGroups   int         `json:"completedGroups"`
	TotalParticipants int         `json:"totalParticipants"`
	NumberPrefix      string      `json:"numberPrefix"`
	NextNumber        string      `json:"nextNumber"`
	FillsGap          bool        `json:"fillsGap"`
}

// handleDashboard handles GET /api/dashboard.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardDeps{
		GroupStore:       stores.GroupStore,
		ParticipantStore: stores.ParticipantStore,
		SettingsStore:    stores.SettingsStore,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view := dashboardView{
		ActiveRosterSize:  result.ActiveRosterSize,
		PlannedGroups:     make([]groupView, 0, len(result.PlannedGroups)),
		CompletedGroups:   result.CompletedGroups,
		TotalParticipants: result.TotalParticipants,
		NumberPrefix:      result.NumberPrefix,
		NextNumber:        result.NextNumber,
		FillsGap:          result.FillsGap,
	}
	if result.ActiveGroup != nil {
		g := toGroupView(*result.ActiveGroup)
		view.ActiveGroup = &g
	}
	for _, g := range result.PlannedGroups {
		view.PlannedGroups = append(view.PlannedGroups, toGroupView(g))
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSuggestGroup handles GET /api/groups/suggest?date=YYYY-MM-DD.
// The kind field tells clients whether the group really exists or was
// computed for display.
func handleSuggestGroup(w http.ResponseWriter, r *http.Request) {
	d, ok := parseDateParam(w, r, "date")
	if !ok {
		return
	}
	suggestion, err := orchestrators.ExecuteSuggestGroup(r.Context(), d, orchestrators.ResolveAssignmentDeps{
		GroupStore: stores.GroupStore,
		Now:        timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":  suggestion.Kind,
		"group": toGroupView(suggestion.Group),
	})
}

// handleNextNumber handles GET /api/numbers/next.
func handleNextNumber(w http.ResponseWriter, r *http.Request) {
	number, err := orchestrators.ExecuteGenerateNextUniqueNumber(r.Context(), allocateDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uniqueNumber": number})
}

// handleGapReport handles GET /api/numbers/gap.
func handleGapReport(w http.ResponseWriter, r *http.Request) {
	report, err := orchestrators.ExecuteCheckForGaps(r.Context(), allocateDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"prefix":   report.Prefix,
		"hasGap":   report.HasGap,
		"gap":      report.GapValue,
		"maxInUse": report.Max,
	})
}

// handleValidateNumber handles POST /api/numbers/validate.
// Applies the new-assignment rules: format, uniqueness and the no-skip rule.
func handleValidateNumber(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UniqueNumber string `json:"uniqueNumber" validate:"required"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		validationError(w, err)
		return
	}
	if err := orchestrators.ValidateUniqueNumber(r.Context(), req.UniqueNumber, allocateDeps()); err != nil {
		switch {
		case errors.Is(err, uniquenumber.ErrBadFormat),
			errors.Is(err, uniquenumber.ErrDuplicate),
			errors.Is(err, uniquenumber.ErrSkipsGap):
			writeJSON(w, http.StatusOK, map[string]any{"valid": false, "reason": err.Error()})
		default:
			internalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// participantSortCols are the columns the list endpoint accepts in ?sort=.
var participantSortCols = []string{"personName", "companyName", "uniqueNumber", "courseStartDate", "createdAt"}

// participantListResponse is the envelope of GET /api/participants.
type participantListResponse struct {
	Participants []participantView `json:"participants"`
	PageInfo     listutil.PageInfo `json:"pageInfo"`
}

// handleListParticipants handles GET /api/participants. Accepts an optional
// courseStartDate filter plus the shared list parameters (q, sort, dir,
// page, per_page).
func handleListParticipants(w http.ResponseWriter, r *http.Request) {
	var (
		list []participantDomain.Participant
		err  error
	)
	if raw := r.URL.Query().Get("courseStartDate"); raw != "" {
		start, perr := dates.ParseDate(raw)
		if perr != nil {
			http.Error(w, "courseStartDate must be formatted as 2006-01-02", http.StatusBadRequest)
			return
		}
		list, err = stores.ParticipantStore.ListByCourseStartDate(r.Context(), start)
	} else {
		list, err = stores.ParticipantStore.List(r.Context())
	}
	if err != nil {
		internalError(w, err)
		return
	}

	params := listutil.ParseListParams(r.URL.Query(), participantSortCols)
	list = filterParticipants(list, params.Search)
	sortParticipants(list, params.SortParams)

	info := listutil.NewPageInfo(params.Page, params.PerPage, len(list))
	start, end := info.Slice()

	today := dates.Normalize(timeNow())
	views := make([]participantView, 0, end-start)
	for _, p := range list[start:end] {
		views = append(views, toParticipantView(p, today))
	}
	writeJSON(w, http.StatusOK, participantListResponse{Participants: views, PageInfo: info})
}

// filterParticipants keeps entries whose name, company or number contains the
// search term, case-insensitively. An empty term keeps everything.
func filterParticipants(list []participantDomain.Participant, search string) []participantDomain.Participant {
	if search == "" {
		return list
	}
	term := strings.ToLower(search)
	kept := list[:0]
	for _, p := range list {
		if strings.Contains(strings.ToLower(p.PersonName), term) ||
			strings.Contains(strings.ToLower(p.CompanyName), term) ||
			strings.Contains(strings.ToLower(p.UniqueNumber), term) {
			kept = append(kept, p)
		}
	}
	return kept
}

// sortParticipants orders the list in place. The store returns creation order,
// which stays the default.
func sortParticipants(list []participantDomain.Participant, sp listutil.SortParams) {
	if sp.Sort == "" {
		return
	}
	less := func(a, b participantDomain.Participant) bool {
		switch sp.Sort {
		case "personName":
			return a.PersonName < b.PersonName
		case "companyName":
			return a.CompanyName < b.CompanyName
		case "uniqueNumber":
			return a.UniqueNumber < b.UniqueNumber
		case "courseStartDate":
			return a.CourseStartDate.Before(b.CourseStartDate)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if sp.Dir == "desc" {
			return less(list[j], list[i])
		}
		return less(list[i], list[j])
	})
}

// handleGetParticipant handles GET /api/participants/{id}.
func handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	p, err := stores.ParticipantStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantView(p, dates.Normalize(timeNow())))
}

type addParticipantRequest struct {
	CompanyName     string `json:"companyName" validate:"required,max=200"`
	PersonName      string `json:"personName" validate:"required,max=200"`
	NationalID      string `json:"nationalId" validate:"omitempty,max=50"`
	MedicalDate     string `json:"medicalDate" validate:"required,datetime=2006-01-02"`
	CourseStartDate string `json:"courseStartDate" validate:"omitempty,datetime=2006-01-02"`
	UniqueNumber    string `json:"uniqueNumber" validate:"omitempty"`
}

// handleAddParticipant handles POST /api/participants.
func handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req addParticipantRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		validationError(w, err)
		return
	}

	input := orchestrators.AddParticipantInput{
		CompanyName:  req.CompanyName,
		PersonName:   req.PersonName,
		NationalID:   req.NationalID,
		UniqueNumber: req.UniqueNumber,
	}
	input.MedicalDate, _ = dates.ParseDate(req.MedicalDate)
	if req.CourseStartDate != "" {
		input.CourseStartDate, _ = dates.ParseDate(req.CourseStartDate)
	}

	p, err := orchestrators.ExecuteAddParticipant(r.Context(), input, saveDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toParticipantView(p, dates.Normalize(timeNow())))
}

type updateParticipantRequest struct {
	CompanyName       string `json:"companyName" validate:"required,max=200"`
	PersonName        string `json:"personName" validate:"required,max=200"`
	NationalID        string `json:"nationalId" validate:"omitempty,max=50"`
	MedicalDate       string `json:"medicalDate" validate:"required,datetime=2006-01-02"`
	CourseStartDate   string `json:"courseStartDate" validate:"required,datetime=2006-01-02"`
	UniqueNumber      string `json:"uniqueNumber" validate:"omitempty"`
	Sent              bool   `json:"sent"`
	Documents         bool   `json:"documents"`
	HandedOver        bool   `json:"handedOver"`
	Paid              bool   `json:"paid"`
	CompletedOverride *bool  `json:"completedOverride"`
}

// handleUpdateParticipant handles PUT /api/participants/{id}.
func handleUpdateParticipant(w http.ResponseWriter, r *http.Request) {
	var req updateParticipantRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		validationError(w, err)
		return
	}

	input := orchestrators.UpdateParticipantInput{
		ID:                r.PathValue("id"),
		CompanyName:       req.CompanyName,
		PersonName:        req.PersonName,
		NationalID:        req.NationalID,
		UniqueNumber:      req.UniqueNumber,
		Sent:              req.Sent,
		Documents:         req.Documents,
		HandedOver:        req.HandedOver,
		Paid:              req.Paid,
		CompletedOverride: req.CompletedOverride,
	}
	input.MedicalDate, _ = dates.ParseDate(req.MedicalDate)
	input.CourseStartDate, _ = dates.ParseDate(req.CourseStartDate)

	p, err := orchestrators.ExecuteUpdateParticipant(r.Context(), input, saveDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantView(p, dates.Normalize(timeNow())))
}

// handleDeleteParticipant handles DELETE /api/participants/{id}.
func handleDeleteParticipant(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDeleteParticipant(r.Context(), r.PathValue("id"), saveDeps()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSyncGroups handles POST /api/maintenance/sync.
func handleSyncGroups(w http.ResponseWriter, r *http.Request) {
	result, err := orchestrators.ExecuteSyncGroups(r.Context(), syncDeps())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"coalesced": result.Coalesced,
		"created":   result.Created,
		"promoted":  result.Promoted,
		"completed": result.Completed,
	})
}

// handleEnsureSingleActive handles POST /api/maintenance/ensure-single-active.
func handleEnsureSingleActive(w http.ResponseWriter, r *http.Request) {
	result, err := orchestrators.ExecuteEnsureSingleActiveGroup(r.Context(),
		orchestrators.EnsureSingleActiveDeps{GroupStore: stores.GroupStore})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"activeCount": result.ActiveCount,
		"demoted":     result.Demoted,
	})
}

// handleEntitlement handles GET /api/entitlement.
func handleEntitlement(w http.ResponseWriter, r *http.Request) {
	writeEntitlement(w, gate.Snapshot())
}

// handleEntitlementRefresh handles POST /api/entitlement/refresh.
// Fired when the client window regains focus; the gate throttles actual
// network fetches.
func handleEntitlementRefresh(w http.ResponseWriter, r *http.Request) {
	refreshed := gate.RefreshOnFocus(r.Context())
	snap := gate.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"refreshed":   refreshed,
		"entitlement": entitlementView(snap),
	})
}

func writeEntitlement(w http.ResponseWriter, e entitlement.Entitlement) {
	writeJSON(w, http.StatusOK, entitlementView(e))
}

func entitlementView(e entitlement.Entitlement) map[string]any {
	v := map[string]any{
		"status":            e.Status,
		"readOnly":          e.Blocked(),
		"planCode":          e.PlanCode,
		"daysUntilReadOnly": e.DaysUntilReadOnly,
	}
	if !e.CurrentPeriodEnd.IsZero() {
		v["currentPeriodEnd"] = e.CurrentPeriodEnd.Format(time.RFC3339)
	}
	if !e.GraceUntil.IsZero() {
		v["graceUntil"] = e.GraceUntil.Format(time.RFC3339)
	}
	if !e.FetchedAt.IsZero() {
		v["fetchedAt"] = e.FetchedAt.Format(time.RFC3339)
	}
	return v
}

// handleImportBackup handles POST /api/backup/import. The body is the raw
// backup JSON document.
func handleImportBackup(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	result, err := orchestrators.ExecuteImportBackup(r.Context(), raw, orchestrators.ImportBackupDeps{
		BackupStore: stores.BackupStore,
		Gate:        gate,
	})
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			http.Error(w, "invalid backup JSON", http.StatusBadRequest)
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fromVersion":  result.FromVersion,
		"groups":       result.Groups,
		"participants": result.Participants,
	})
}

// handleGetSettings handles GET /api/settings.
func handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := stores.SettingsStore.Get(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"numberPrefix": cfg.NumberPrefix,
		"lastSequence": cfg.LastSequence,
	})
}

// handleResetSequence handles POST /api/settings/reset-sequence.
func handleResetSequence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NumberPrefix string `json:"numberPrefix" validate:"required"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		validationError(w, err)
		return
	}
	cfg, err := orchestrators.ExecuteResetSequence(r.Context(), req.NumberPrefix, orchestrators.ResetSequenceDeps{
		SettingsStore: stores.SettingsStore,
		Gate:          gate,
		Now:           timeNow,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"numberPrefix": cfg.NumberPrefix,
		"lastSequence": cfg.LastSequence,
	})
}

// handlePerfSnapshot handles GET /api/perf?minutes=15.
func handlePerfSnapshot(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	minutes := 15
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		if n, err := time.ParseDuration(raw + "m"); err == nil && n > 0 {
			minutes = int(n.Minutes())
		}
	}
	snap := perfCollector.Snapshot(timeNow().Add(-time.Duration(minutes)*time.Minute), 10)
	writeJSON(w, http.StatusOK, snap)
}
