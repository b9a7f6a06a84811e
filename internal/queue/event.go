// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationBookedEvent is published when a reservation is successfully
// created. It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type ReservationBookedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	UserID        uint64  `json:"user_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	UnitCount     int     `json:"unit_count"`
	FinalAmount   float64 `json:"final_amount"`
	Status        string  `json:"status"`
	BookedAt      string  `json:"booked_at"`
}

// ReservationCancelledEvent is published when a reservation is
// cancelled, carrying the refund outcome for downstream notification.
type ReservationCancelledEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	UserID        uint64  `json:"user_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	Actor         string  `json:"actor"`
	Reason        string  `json:"reason,omitempty"`
	RefundPercent float64 `json:"refund_percent"`
	RefundAmount  float64 `json:"refund_amount"`
	CancelledAt   string  `json:"cancelled_at"`
}
