package booking

import "github.com/iliyamo/charter-fleet-booking/internal/model"

// allowedTransitions is the reservation status machine. COMPLETED,
// CANCELLED and NO_SHOW are terminal; everything not listed is rejected.
var allowedTransitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled, model.StatusNoShow},
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(s model.ReservationStatus) bool {
	return len(allowedTransitions[s]) == 0
}

// CanTransition reports whether moving from one status to another is
// allowed by the transition table.
func CanTransition(from, to model.ReservationStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
