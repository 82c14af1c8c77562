package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"

	"coursedesk/internal/adapters/billing"
	web "coursedesk/internal/adapters/http"
	"coursedesk/internal/adapters/http/perf"
	"coursedesk/internal/adapters/storage"
	backupStorePkg "coursedesk/internal/adapters/storage/backup"
	groupStorePkg "coursedesk/internal/adapters/storage/group"
	participantStorePkg "coursedesk/internal/adapters/storage/participant"
	settingsStorePkg "coursedesk/internal/adapters/storage/settings"
	"coursedesk/internal/application/orchestrators"
	"coursedesk/internal/config"
	"coursedesk/internal/domain/entitlement"
	settingsDomain "coursedesk/internal/domain/settings"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()

	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(cfg.PerfRingSize)
	tdb := storage.NewTimedDB(db, collector)

	settingsStore := settingsStorePkg.NewSQLiteStore(tdb)
	stores := &web.Stores{
		GroupStore:       groupStorePkg.NewSQLiteStore(tdb),
		ParticipantStore: participantStorePkg.NewSQLiteStore(tdb),
		SettingsStore:    settingsStore,
		BackupStore:      backupStorePkg.NewSQLiteStore(tdb),
	}

	ctx := context.Background()

	// Seed the numbering settings on first start.
	if _, err := settingsStore.Get(ctx); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Fatalf("failed to read settings: %v", err)
		}
		seed := settingsDomain.Settings{NumberPrefix: cfg.DefaultNumberPrefix, UpdatedAt: time.Now()}
		if err := seed.Validate(); err != nil {
			log.Fatalf("bad COURSEDESK_NUMBER_PREFIX: %v", err)
		}
		if err := settingsStore.Save(ctx, seed); err != nil {
			log.Fatalf("failed to seed settings: %v", err)
		}
		log.Printf("seeded numbering settings with prefix %s", cfg.DefaultNumberPrefix)
	}

	// Entitlement gate: remote billing when configured, writable otherwise.
	var fetcher billing.Fetcher
	if cfg.BillingURL != "" {
		fetcher = billing.NewRestyFetcher(cfg.BillingURL, cfg.BillingToken, 10*time.Second)
	} else {
		fetcher = &billing.StaticFetcher{Entitlement: entitlement.Writable()}
		log.Println("COURSEDESK_BILLING_URL not set, entitlement checks disabled")
	}
	gate := billing.NewGate(fetcher, time.Now)
	if err := gate.Refresh(ctx); err != nil {
		log.Printf("initial entitlement fetch failed, staying writable: %v", err)
	}
	gateStopCh := make(chan struct{})
	gate.Start(cfg.EntitlementRefresh, gateStopCh)
	defer close(gateStopCh)

	guard := &orchestrators.MaintenanceGuard{}
	syncDeps := orchestrators.SyncGroupsDeps{
		GroupStore:       stores.GroupStore,
		ParticipantStore: stores.ParticipantStore,
		SettingsStore:    settingsStore,
		Guard:            guard,
		Now:              time.Now,
		GenerateID:       func() string { return uuid.New().String() },
	}

	// Startup maintenance: repair the single-active invariant first, then
	// run the rolling-window pass.
	if _, err := orchestrators.ExecuteEnsureSingleActiveGroup(ctx,
		orchestrators.EnsureSingleActiveDeps{GroupStore: stores.GroupStore}); err != nil {
		log.Fatalf("failed to repair active groups: %v", err)
	}
	if _, err := orchestrators.ExecuteSyncGroups(ctx, syncDeps); err != nil {
		log.Fatalf("startup group sync failed: %v", err)
	}

	// Daily schedule catches the Monday rollover without traffic.
	cronRunner, err := orchestrators.StartMaintenanceSchedule(syncDeps)
	if err != nil {
		log.Fatalf("failed to start maintenance schedule: %v", err)
	}
	defer cronRunner.Stop()

	mux := web.NewMux(stores, gate, guard, collector)

	log.Printf("coursedesk %s starting on %s (schema=%d)", version, cfg.Addr, storage.LatestSchemaVersion())
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
