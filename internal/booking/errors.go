// Package booking implements the charter-fleet reservation core: the
// operating-calendar gate, the pricing rule matcher and tax calculator,
// the availability engine, the cancellation refund policy and the
// orchestrator that coordinates them against the persistence layer.
package booking

import (
	"fmt"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// ValidationError reports a malformed request value (bad date, time,
// duration or unit count). Handlers should translate this into an
// HTTP 400 response.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg) }

// PolicyViolation reports a business-rule rejection: past date, advance
// window exceeded, insufficient notice, outside operating hours, or a
// closed calendar day. The reason is surfaced verbatim to the caller.
type PolicyViolation struct {
	Reason string
}

func (e *PolicyViolation) Error() string { return e.Reason }

// ConflictError reports insufficient fleet capacity. FreeUnits carries
// the number of units still available so the caller can retry with a
// smaller request or a suggested slot.
type ConflictError struct {
	Reason    string
	FreeUnits int
}

func (e *ConflictError) Error() string { return e.Reason }

// NotFoundError reports that a reservation or rule does not exist.
type NotFoundError struct {
	Kind string
	ID   uint64
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %d not found", e.Kind, e.ID) }

// TerminalStateError reports an attempt to mutate a reservation that has
// reached a terminal status (CANCELLED, COMPLETED or NO_SHOW).
type TerminalStateError struct {
	Status model.ReservationStatus
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("reservation is %s and cannot be modified", e.Status)
}
