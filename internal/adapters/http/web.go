// Package web wires the JSON API over the application orchestrators.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"coursedesk/internal/adapters/http/middleware"
	"coursedesk/internal/adapters/http/perf"
	backupStore "coursedesk/internal/adapters/storage/backup"
	groupStore "coursedesk/internal/adapters/storage/group"
	participantStore "coursedesk/internal/adapters/storage/participant"
	settingsStore "coursedesk/internal/adapters/storage/settings"
	"coursedesk/internal/application/orchestrators"
	"coursedesk/internal/domain/entitlement"
)

// Stores holds all storage dependencies.
type Stores struct {
	GroupStore       groupStore.Store
	ParticipantStore participantStore.Store
	SettingsStore    settingsStore.Store
	BackupStore      backupStore.Store
}

// EntitlementGate is the billing gate surface the handlers need. Satisfied
// by billing.Gate; tests plug in a stub.
type EntitlementGate interface {
	ReadOnly() bool
	Snapshot() entitlement.Entitlement
	RefreshOnFocus(ctx context.Context) bool
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global entitlement gate (set by NewMux)
var gate EntitlementGate

// Global maintenance guard shared with the scheduler (set by NewMux)
var guard *orchestrators.MaintenanceGuard

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// timeNow is a variable for testability.
var timeNow = time.Now

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 25

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// NewMux wires HTTP handlers for the engine.
func NewMux(s *Stores, g EntitlementGate, mg *orchestrators.MaintenanceGuard, collector *perf.Collector) http.Handler {
	stores = s
	gate = g
	guard = mg
	perfCollector = collector

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
		middleware.Timing(collector),
	)
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/course-dates", handleCourseDates)

	mux.HandleFunc("GET /api/dashboard", handleDashboard)
	mux.HandleFunc("GET /api/groups", handleListGroups)
	mux.HandleFunc("GET /api/groups/{id}/roster", handleGroupRoster)
	mux.HandleFunc("GET /api/groups/suggest", handleSuggestGroup)

	mux.HandleFunc("GET /api/numbers/next", handleNextNumber)
	mux.HandleFunc("GET /api/numbers/gap", handleGapReport)
	mux.HandleFunc("POST /api/numbers/validate", handleValidateNumber)

	mux.HandleFunc("GET /api/participants", handleListParticipants)
	mux.HandleFunc("POST /api/participants", handleAddParticipant)
	mux.HandleFunc("GET /api/participants/{id}", handleGetParticipant)
	mux.HandleFunc("PUT /api/participants/{id}", handleUpdateParticipant)
	mux.HandleFunc("DELETE /api/participants/{id}", handleDeleteParticipant)

	mux.HandleFunc("POST /api/maintenance/sync", handleSyncGroups)
	mux.HandleFunc("POST /api/maintenance/ensure-single-active", handleEnsureSingleActive)

	mux.HandleFunc("GET /api/entitlement", handleEntitlement)
	mux.HandleFunc("POST /api/entitlement/refresh", handleEntitlementRefresh)

	mux.HandleFunc("POST /api/backup/import", handleImportBackup)

	mux.HandleFunc("GET /api/settings", handleGetSettings)
	mux.HandleFunc("POST /api/settings/reset-sequence", handleResetSequence)

	mux.HandleFunc("GET /api/perf", handlePerfSnapshot)
}
