package participant

import (
	"context"
	"time"

	domain "coursedesk/internal/domain/participant"
)

// Store persists Participant state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Participant, error)
	GetByUniqueNumber(ctx context.Context, number string) (domain.Participant, error)
	List(ctx context.Context) ([]domain.Participant, error)
	ListByCourseStartDate(ctx context.Context, start time.Time) ([]domain.Participant, error)
	ListUniqueNumbers(ctx context.Context) ([]string, error)
	Save(ctx context.Context, value domain.Participant) error
	Delete(ctx context.Context, id string) error
}
