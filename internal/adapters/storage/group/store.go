package group

import (
	"context"
	"time"

	domain "coursedesk/internal/domain/group"
)

// Store persists Group state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Group, error)
	GetByStartDate(ctx context.Context, start time.Time) (domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Group, error)
	MaxGroupNumber(ctx context.Context) (int, error)
	Save(ctx context.Context, value domain.Group) error
	Delete(ctx context.Context, id string) error
}
