package settings

import (
	"context"

	domain "coursedesk/internal/domain/settings"
)

// Store persists the Settings singleton.
type Store interface {
	Get(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, value domain.Settings) error
}
