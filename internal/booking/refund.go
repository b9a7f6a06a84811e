package booking

import (
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// RefundUnit selects whether refund thresholds are measured in hours
// (short charters) or days (multi-hour event charters).
type RefundUnit string

const (
	RefundByHours RefundUnit = "hours"
	RefundByDays  RefundUnit = "days"
)

// RefundPolicy maps time-to-event brackets to refund percentages.
// Cancelling at or beyond FullThreshold refunds 100%, at or beyond
// PartialThreshold refunds PartialPercent, and anything later refunds
// nothing. Administrative cancellations are always fully refunded.
type RefundPolicy struct {
	Unit             RefundUnit
	FullThreshold    float64
	PartialThreshold float64
	PartialPercent   float64
}

// Refund is the computed outcome of a cancellation.
type Refund struct {
	Percent float64
	Amount  float64
}

// Compute derives the refund for cancelling a reservation with the
// given time remaining until its start.
func (p RefundPolicy) Compute(finalAmount float64, untilEvent time.Duration, actor model.Actor) Refund {
	percent := p.percentFor(untilEvent, actor)
	return Refund{
		Percent: percent,
		Amount:  round2(finalAmount * percent / 100),
	}
}

func (p RefundPolicy) percentFor(untilEvent time.Duration, actor model.Actor) float64 {
	if actor == model.ActorAdmin {
		return 100
	}
	remaining := untilEvent.Hours()
	if p.Unit == RefundByDays {
		remaining = untilEvent.Hours() / 24
	}
	switch {
	case remaining >= p.FullThreshold:
		return 100
	case remaining >= p.PartialThreshold:
		return p.PartialPercent
	default:
		return 0
	}
}
