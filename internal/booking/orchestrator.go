package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// ReservationStore is the write-path persistence surface the
// orchestrator drives. Tx methods run inside the caller's transaction;
// ListActiveByDateTx must lock the returned rows for the duration of
// the transaction so the capacity decision cannot race a concurrent
// insert for the same day.
type ReservationStore interface {
	ReservationReader
	CreateTx(ctx context.Context, tx *sql.Tx, r *model.Reservation) error
	ListActiveByDateTx(ctx context.Context, tx *sql.Tx, date time.Time) ([]model.Reservation, error)
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) error
	MarkPaid(ctx context.Context, id uint64, status model.ReservationStatus, payment model.PaymentStatus, ref *string) error
	Cancel(ctx context.Context, id uint64, payment model.PaymentStatus, rec *model.CancellationRecord) error
}

// Notifier receives domain events after a booking operation succeeds.
// Implementations must be fire-and-forget: a failed or slow dispatch
// never fails the booking operation itself.
type Notifier interface {
	ReservationBooked(ctx context.Context, r *model.Reservation)
	ReservationCancelled(ctx context.Context, r *model.Reservation)
}

// CreateRequest carries the inputs for creating a reservation.
// OverrideAmount is honored only for administrative callers; the HTTP
// layer enforces that before it reaches the orchestrator.
type CreateRequest struct {
	UserID         uint64
	Date           time.Time
	StartMinute    int
	DurationHours  float64
	UnitCount      int
	PayerRef       *string
	OverrideAmount *float64
}

// Orchestrator coordinates the booking write path: it validates against
// the calendar gate and availability engine, prices via the rule
// matcher and calculator, and persists inside a transaction that holds
// the day's live reservation rows locked while capacity is re-derived.
type Orchestrator struct {
	settings Settings
	policy   RefundPolicy
	db       *sql.DB
	store    ReservationStore
	fleet    FleetStore
	engine   *AvailabilityEngine
	matcher  *RuleMatcher
	notifier Notifier

	// Now is swappable for deterministic tests.
	Now func() time.Time
}

// NewOrchestrator wires the orchestrator. notifier may be nil when no
// broker is configured.
func NewOrchestrator(settings Settings, policy RefundPolicy, db *sql.DB, store ReservationStore, fleet FleetStore, engine *AvailabilityEngine, matcher *RuleMatcher, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		settings: settings,
		policy:   policy,
		db:       db,
		store:    store,
		fleet:    fleet,
		engine:   engine,
		matcher:  matcher,
		notifier: notifier,
		Now:      time.Now,
	}
}

// Quote matches a rule and prices a prospective reservation without
// persisting anything. Overrides are not part of quotes.
func (o *Orchestrator) Quote(ctx context.Context, date time.Time, startMinute int, durationHours float64, unitCount int) (model.PricingSnapshot, error) {
	if unitCount < 1 {
		return model.PricingSnapshot{}, &ValidationError{Field: "unit_count", Msg: "must be at least 1"}
	}
	rule, err := o.matcher.Match(ctx, date, startMinute)
	if err != nil {
		return model.PricingSnapshot{}, err
	}
	return CalculatePrice(o.settings.BaseRate, rule, unitCount, durationHours, o.settings.TaxPercent, o.settings.TaxInclusive), nil
}

// CreateReservation validates, prices and persists a new PENDING
// reservation. The capacity decision is made twice: once up front for a
// fast, lock-free rejection, and once inside the transaction over the
// locked rows, so two concurrent requests for the same day cannot both
// squeeze past the fleet limit.
func (o *Orchestrator) CreateReservation(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	now := o.Now()
	if req.StartMinute < 0 || req.StartMinute >= minutesPerDay {
		return nil, &ValidationError{Field: "start_time", Msg: "outside the calendar day"}
	}
	check, err := o.engine.Check(ctx, now, req.Date, req.StartMinute, req.DurationHours, req.UnitCount)
	if err != nil {
		return nil, err
	}
	if !check.Available {
		return nil, rejectionError(check)
	}

	rule, err := o.matcher.Match(ctx, req.Date, req.StartMinute)
	if err != nil {
		return nil, err
	}
	pricing := CalculatePrice(o.settings.BaseRate, rule, req.UnitCount, req.DurationHours, o.settings.TaxPercent, o.settings.TaxInclusive)
	if req.OverrideAmount != nil {
		pricing = ApplyOverride(pricing, *req.OverrideAmount)
	}

	res := &model.Reservation{
		UserID:        req.UserID,
		Date:          DateOnly(req.Date),
		StartMinute:   req.StartMinute,
		EndMinute:     req.StartMinute + int(req.DurationHours*60),
		DurationHours: req.DurationHours,
		UnitCount:     req.UnitCount,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		PaymentRef:    req.PayerRef,
		Pricing:       pricing,
	}

	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	live, err := o.store.ListActiveByDateTx(ctx, tx, res.Date)
	if err != nil {
		return nil, err
	}
	total, err := o.fleet.ActiveUnitCount(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		total = o.settings.FleetFallback
	}
	booked := BookedUnits(live, res.StartMinute, res.EndMinute, o.settings.BufferMinutes)
	free := total - booked
	if free < req.UnitCount {
		if free < 0 {
			free = 0
		}
		return nil, &ConflictError{
			Reason:    fmt.Sprintf("only %d of our boats are available for that time", free),
			FreeUnits: free,
		}
	}
	if err := o.store.CreateTx(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if o.notifier != nil {
		o.notifier.ReservationBooked(ctx, res)
	}
	return res, nil
}

// UpdateStatus moves a reservation through the status machine. Terminal
// states reject any move; non-terminal states reject moves outside the
// transition table.
func (o *Orchestrator) UpdateStatus(ctx context.Context, id uint64, newStatus model.ReservationStatus) (*model.Reservation, error) {
	res, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(res.Status) {
		return nil, &TerminalStateError{Status: res.Status}
	}
	if !CanTransition(res.Status, newStatus) {
		return nil, &PolicyViolation{Reason: fmt.Sprintf("cannot move a %s reservation to %s", res.Status, newStatus)}
	}
	if err := o.store.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	res.Status = newStatus
	return res, nil
}

// MarkPaid records payment for a reservation. A PENDING reservation is
// promoted to CONFIRMED on payment.
func (o *Orchestrator) MarkPaid(ctx context.Context, id uint64, paymentRef *string) (*model.Reservation, error) {
	res, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(res.Status) {
		return nil, &TerminalStateError{Status: res.Status}
	}
	status := res.Status
	if status == model.StatusPending {
		status = model.StatusConfirmed
	}
	if err := o.store.MarkPaid(ctx, id, status, model.PaymentPaid, paymentRef); err != nil {
		return nil, err
	}
	res.Status = status
	res.PaymentStatus = model.PaymentPaid
	if paymentRef != nil {
		res.PaymentRef = paymentRef
	}
	return res, nil
}

// Cancel transitions a reservation to CANCELLED, computes the refund
// under the configured policy, and adjusts the payment status when the
// reservation had been paid. The cancellation record is immutable once
// written; cancelling from any terminal state, re-cancelling included,
// fails with TerminalStateError.
func (o *Orchestrator) Cancel(ctx context.Context, id uint64, reason string, actor model.Actor) (*model.Reservation, error) {
	res, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(res.Status) {
		return nil, &TerminalStateError{Status: res.Status}
	}

	now := o.Now()
	until := StartsAt(res.Date, res.StartMinute).Sub(now)
	refund := o.policy.Compute(res.Pricing.FinalAmount, until, actor)

	rec := &model.CancellationRecord{
		CancelledAt:   now,
		Actor:         actor,
		Reason:        reason,
		RefundPercent: refund.Percent,
		RefundAmount:  refund.Amount,
	}
	payment := res.PaymentStatus
	if payment == model.PaymentPaid {
		if refund.Percent >= 100 {
			payment = model.PaymentRefunded
		} else {
			payment = model.PaymentPartiallyRefunded
		}
	}
	if err := o.store.Cancel(ctx, id, payment, rec); err != nil {
		return nil, err
	}
	res.Status = model.StatusCancelled
	res.PaymentStatus = payment
	res.Cancellation = rec

	if o.notifier != nil {
		o.notifier.ReservationCancelled(ctx, res)
	}
	return res, nil
}

func (o *Orchestrator) load(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := o.store.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func rejectionError(check CheckResult) error {
	if check.Conflict {
		return &ConflictError{Reason: check.Reason, FreeUnits: check.FreeUnits}
	}
	return &PolicyViolation{Reason: check.Reason}
}
