package backup

import (
	"context"

	groupDomain "coursedesk/internal/domain/group"
	participantDomain "coursedesk/internal/domain/participant"
	settingsDomain "coursedesk/internal/domain/settings"
)

// Store commits an imported backup.
type Store interface {
	// Replace swaps the entire local dataset for the imported one in a
	// single transaction. Either everything lands or nothing does.
	Replace(ctx context.Context,
		groups []groupDomain.Group,
		participants []participantDomain.Participant,
		settings settingsDomain.Settings) error
}
