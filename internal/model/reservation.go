package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.
// PENDING and CONFIRMED reservations count against fleet capacity;
// the remaining states do not.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCompleted ReservationStatus = "COMPLETED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusNoShow    ReservationStatus = "NO_SHOW"
)

// PaymentStatus enumerates the payment states tracked alongside a
// reservation. Refund states are only reached through cancellation.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
)

// Actor identifies who performed a cancellation. Administrative
// cancellations are always fully refunded regardless of timing.
type Actor string

const (
	ActorCustomer Actor = "CUSTOMER"
	ActorAdmin    Actor = "ADMIN"
)

// PricingSnapshot is the immutable price breakdown captured when a
// reservation is created. FinalAmount is what the customer owes; it never
// changes afterwards. The two tax halves support a two-component tax
// regime where the tax is reported as equal parts.
//
// Fields:
//  BaseRate       – hourly rate per unit before adjustment.
//  RuleID         – adjustment rule applied, if any.
//  RuleName       – name of the applied rule for display.
//  AdjustedRate   – base rate after the rule's percentage adjustment.
//  Subtotal       – adjustedRate × units × duration.
//  TaxPercent     – tax percentage applied.
//  TaxAmount      – total tax; TaxHalf is TaxAmount split evenly in two.
//  TotalAmount    – subtotal plus tax (or the quoted amount when inclusive).
//  OverrideAmount – manual total set by an administrator, if any.
//  FinalAmount    – OverrideAmount when present, TotalAmount otherwise.
type PricingSnapshot struct {
	BaseRate       float64  // reservations.base_rate
	RuleID         *uint64  // reservations.rule_id (nullable)
	RuleName       *string  // reservations.rule_name (nullable)
	AdjustedRate   float64  // reservations.adjusted_rate
	Subtotal       float64  // reservations.subtotal
	TaxPercent     float64  // reservations.tax_percent
	TaxAmount      float64  // reservations.tax_amount
	TaxHalf        float64  // reservations.tax_half
	TotalAmount    float64  // reservations.total_amount
	OverrideAmount *float64 // reservations.override_amount (nullable)
	FinalAmount    float64  // reservations.final_amount
}

// CancellationRecord captures the outcome of cancelling a reservation.
// It is written once, when the reservation transitions to CANCELLED,
// and never modified afterwards.
type CancellationRecord struct {
	CancelledAt   time.Time // reservations.cancelled_at
	Actor         Actor     // reservations.cancelled_by
	Reason        string    // reservations.cancel_reason
	RefundPercent float64   // reservations.refund_percent
	RefundAmount  float64   // reservations.refund_amount
}

// Reservation books a number of fleet units for a date and time window
// on behalf of a customer. Times are minutes since midnight in local
// civil time; no timezone conversion is applied. Duration is hours in
// half-hour increments.
type Reservation struct {
	ID            uint64              // reservations.id
	UserID        uint64              // reservations.user_id
	Date          time.Time           // reservations.res_date (UTC midnight)
	StartMinute   int                 // reservations.start_minute
	EndMinute     int                 // reservations.end_minute
	DurationHours float64             // reservations.duration_hours
	UnitCount     int                 // reservations.unit_count
	Status        ReservationStatus   // reservations.status
	PaymentStatus PaymentStatus       // reservations.payment_status
	PaymentRef    *string             // reservations.payment_ref (nullable)
	Pricing       PricingSnapshot     // embedded pricing columns
	Cancellation  *CancellationRecord // nullable cancellation columns
	CreatedAt     time.Time           // reservations.created_at
	UpdatedAt     time.Time           // reservations.updated_at
}
