package orchestrators

import (
	"errors"

	"coursedesk/internal/adapters/storage"
)

// isNotFound reports whether err is the storage not-found sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
