package subscription

import (
	"fmt"
	"strings"
	"time"
)

// Module identifies a product area a tenant can subscribe to.
type Module string

const (
	ModuleCore    Module = "core"
	ModuleInbound Module = "inbound"
	ModuleWMS     Module = "wms"
)

// Modules returns the closed set of known modules in display order.
func Modules() []Module {
	return []Module{ModuleCore, ModuleInbound, ModuleWMS}
}

// Valid reports whether m is one of the known modules.
func (m Module) Valid() bool {
	switch m {
	case ModuleCore, ModuleInbound, ModuleWMS:
		return true
	}
	return false
}

// ParseModule normalizes and validates a module identifier.
func ParseModule(s string) (Module, error) {
	m := Module(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidModule, s)
	}
	return m, nil
}

// Status represents the current lifecycle state of a subscription.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Enabled reports whether a subscription in this status grants access.
// PAST_DUE keeps access during the grace interval.
func (s Status) Enabled() bool {
	return s == StatusTrial || s == StatusActive || s == StatusPastDue
}

func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusPastDue, StatusSuspended, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

const (
	// DefaultTrialDays is the trial length used when a caller passes zero.
	DefaultTrialDays = 14

	// DefaultGracePeriod is how long a PAST_DUE subscription keeps access
	// before the renewal job suspends it.
	DefaultGracePeriod = 7 * 24 * time.Hour
)
