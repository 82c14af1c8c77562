// Package entitlement models the subscription status supplied by the remote
// billing service. The engine never fetches or interprets billing state
// itself; it only consumes the read-only flag derived here.
package entitlement

import (
	"errors"
	"time"
)

// Remote subscription states.
const (
	StatusActive  = "active"
	StatusGrace   = "grace"
	StatusExpired = "expired"
)

// ErrReadOnly is returned by every mutating operation while the entitlement
// gate is set.
var ErrReadOnly = errors.New("subscription is read-only; changes are disabled")

// Entitlement is a cached snapshot of the remote billing status.
type Entitlement struct {
	Status            string
	ReadOnly          bool
	PlanCode          string
	CurrentPeriodEnd  time.Time
	GraceUntil        time.Time
	DaysUntilReadOnly int
	FetchedAt         time.Time
}

// Blocked reports whether mutations must be refused. The remote read_only
// flag is authoritative; an expired status blocks too in case the flag lags
// behind the status.
func (e Entitlement) Blocked() bool {
	return e.ReadOnly || e.Status == StatusExpired
}

// Writable is the default snapshot used before the first successful fetch:
// an offline-first app must not lock the operator out while the billing
// service is unreachable.
func Writable() Entitlement {
	return Entitlement{Status: StatusActive}
}
