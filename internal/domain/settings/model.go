package settings

import (
	"errors"
	"regexp"
	"time"
)

// Domain errors
var (
	ErrBadPrefix = errors.New("number prefix must be 2 to 6 digits")
)

var prefixPattern = regexp.MustCompile(`^[0-9]{2,6}$`)

// Settings is the singleton record caching the running numbering state.
// The cache is advisory only: allocation always recomputes from the numbers
// actually issued to participants.
type Settings struct {
	NumberPrefix string
	LastSequence int
	UpdatedAt    time.Time
}

// Validate checks the Settings invariants.
func (s *Settings) Validate() error {
	if !prefixPattern.MatchString(s.NumberPrefix) {
		return ErrBadPrefix
	}
	return nil
}

// ValidPrefix reports whether p is usable as a numbering prefix.
func ValidPrefix(p string) bool {
	return prefixPattern.MatchString(p)
}
