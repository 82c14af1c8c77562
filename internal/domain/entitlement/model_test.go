package entitlement_test

import (
	"testing"

	"coursedesk/internal/domain/entitlement"
)

// TestEntitlement_Blocked tests the read-only derivation.
func TestEntitlement_Blocked(t *testing.T) {
	tests := []struct {
		name string
		e    entitlement.Entitlement
		want bool
	}{
		{"active writable", entitlement.Entitlement{Status: entitlement.StatusActive}, false},
		{"grace writable", entitlement.Entitlement{Status: entitlement.StatusGrace}, false},
		{"expired blocks", entitlement.Entitlement{Status: entitlement.StatusExpired}, true},
		{"read_only flag blocks", entitlement.Entitlement{Status: entitlement.StatusActive, ReadOnly: true}, true},
		{"grace with flag blocks", entitlement.Entitlement{Status: entitlement.StatusGrace, ReadOnly: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Blocked(); got != tt.want {
				t.Errorf("Blocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestWritable tests the pre-fetch default.
func TestWritable(t *testing.T) {
	if entitlement.Writable().Blocked() {
		t.Error("default snapshot must be writable")
	}
}
