package orchestrators

import (
	"context"
	"encoding/json"
	"log/slog"

	"coursedesk/internal/domain/backup"
	"coursedesk/internal/domain/group"
	"coursedesk/internal/domain/participant"
	"coursedesk/internal/domain/settings"
)

// BackupStore commits an imported dataset atomically.
type BackupStore interface {
	Replace(ctx context.Context,
		groups []group.Group,
		participants []participant.Participant,
		cfg settings.Settings) error
}

// ImportBackupDeps holds dependencies for ImportBackup.
type ImportBackupDeps struct {
	BackupStore BackupStore
	Gate        ReadOnlyGate
}

// ImportBackupResult reports what an import landed.
type ImportBackupResult struct {
	FromVersion  int
	Groups       int
	Participants int
}

// ExecuteImportBackup restores the engine state from a backup file. The
// payload is migrated through the version transform chain before any row is
// written, and the dataset swap is a single transaction: a failed import
// leaves the current data untouched.
// PRE: Gate is not read-only
// POST: On success the store holds exactly the imported dataset
func ExecuteImportBackup(ctx context.Context, raw []byte, deps ImportBackupDeps) (ImportBackupResult, error) {
	var result ImportBackupResult
	if err := guardReadOnly(deps.Gate); err != nil {
		return result, err
	}

	var payload backup.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return result, err
	}
	result.FromVersion = payload.Version

	if err := backup.Migrate(&payload); err != nil {
		return result, err
	}

	groups := make([]group.Group, 0, len(payload.Groups))
	for _, rec := range payload.Groups {
		g, err := rec.ToDomain()
		if err != nil {
			return result, err
		}
		groups = append(groups, g)
	}
	participants := make([]participant.Participant, 0, len(payload.Participants))
	for _, rec := range payload.Participants {
		p, err := rec.ToDomain()
		if err != nil {
			return result, err
		}
		participants = append(participants, p)
	}
	cfg := payload.Settings.ToDomain()
	if err := cfg.Validate(); err != nil {
		return result, err
	}

	if err := deps.BackupStore.Replace(ctx, groups, participants, cfg); err != nil {
		return result, err
	}
	result.Groups = len(groups)
	result.Participants = len(participants)
	slog.Info("backup_imported", "from_version", result.FromVersion,
		"groups", result.Groups, "participants", result.Participants)
	return result, nil
}
