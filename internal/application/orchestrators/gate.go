package orchestrators

import (
	"coursedesk/internal/domain/entitlement"
)

// ReadOnlyGate answers whether the engine is in read-only mode. Satisfied by
// the billing gate; tests use a plain bool wrapper.
type ReadOnlyGate interface {
	ReadOnly() bool
}

// guardReadOnly is the first check of every mutating orchestrator.
// POST: Returns entitlement.ErrReadOnly when the gate is set
func guardReadOnly(gate ReadOnlyGate) error {
	if gate != nil && gate.ReadOnly() {
		return entitlement.ErrReadOnly
	}
	return nil
}
