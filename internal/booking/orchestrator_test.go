package booking

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// noopDriver backs the orchestrator's transaction handling in tests.
// Its transactions commit without touching storage; the rows live in
// the fakeStore, which ignores the *sql.Tx handed to it.
type noopDriver struct{}

func (noopDriver) Open(string) (driver.Conn, error) { return noopConn{}, nil }

type noopConn struct{}

func (noopConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("statements go through the store fakes")
}
func (noopConn) Close() error              { return nil }
func (noopConn) Begin() (driver.Tx, error) { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

var testDB = func() *sql.DB {
	sql.Register("booking-noop", noopDriver{})
	db, err := sql.Open("booking-noop", "")
	if err != nil {
		panic(err)
	}
	return db
}()

// fakeStore keeps reservations in memory and records mutations so tests
// can assert what the orchestrator persisted.
type fakeStore struct {
	byID      map[uint64]*model.Reservation
	nextID    uint64
	cancelled *model.CancellationRecord

	// txOnly rows are visible only to the locked in-transaction read,
	// standing in for a concurrent booking that committed after the
	// caller's lock-free precheck.
	txOnly []model.Reservation
}

func newFakeStore(existing ...*model.Reservation) *fakeStore {
	s := &fakeStore{byID: map[uint64]*model.Reservation{}, nextID: 1}
	for _, r := range existing {
		s.byID[r.ID] = r
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	return s
}

func (s *fakeStore) ListActiveByDate(_ context.Context, d time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range s.byID {
		if DateOnly(r.Date).Equal(DateOnly(d)) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeStore) ListActiveByDateTx(ctx context.Context, _ *sql.Tx, d time.Time) ([]model.Reservation, error) {
	out, err := s.ListActiveByDate(ctx, d)
	if err != nil {
		return nil, err
	}
	for _, r := range s.txOnly {
		if DateOnly(r.Date).Equal(DateOnly(d)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateTx(_ context.Context, _ *sql.Tx, r *model.Reservation) error {
	r.ID = s.nextID
	s.nextID++
	s.byID[r.ID] = r
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id uint64, status model.ReservationStatus) error {
	s.byID[id].Status = status
	return nil
}

func (s *fakeStore) MarkPaid(_ context.Context, id uint64, status model.ReservationStatus, payment model.PaymentStatus, ref *string) error {
	r := s.byID[id]
	r.Status = status
	r.PaymentStatus = payment
	if ref != nil {
		r.PaymentRef = ref
	}
	return nil
}

func (s *fakeStore) Cancel(_ context.Context, id uint64, payment model.PaymentStatus, rec *model.CancellationRecord) error {
	r := s.byID[id]
	r.Status = model.StatusCancelled
	r.PaymentStatus = payment
	r.Cancellation = rec
	s.cancelled = rec
	return nil
}

type fakeRules struct{ rules []model.AdjustmentRule }

func (f *fakeRules) ListActive(_ context.Context) ([]model.AdjustmentRule, error) {
	return f.rules, nil
}

type recordingNotifier struct {
	booked, cancelled int
}

func (n *recordingNotifier) ReservationBooked(context.Context, *model.Reservation) { n.booked++ }

func (n *recordingNotifier) ReservationCancelled(context.Context, *model.Reservation) {
	n.cancelled++
}

func newTestOrchestrator(store *fakeStore, fleetSize int, rules ...model.AdjustmentRule) (*Orchestrator, *recordingNotifier) {
	settings := testSettings()
	policy := RefundPolicy{Unit: RefundByHours, FullThreshold: 48, PartialThreshold: 24, PartialPercent: 50}
	fleet := &fakeFleet{total: fleetSize}
	gate := calendarWith()
	engine := NewAvailabilityEngine(settings, store, fleet, gate)
	matcher := NewRuleMatcher(&fakeRules{rules: rules})
	notifier := &recordingNotifier{}
	o := NewOrchestrator(settings, policy, testDB, store, fleet, engine, matcher, notifier)
	o.Now = func() time.Time { return testNow }
	return o, notifier
}

func paidReservation(id uint64, status model.ReservationStatus, final float64, startsInHours float64) *model.Reservation {
	start := testNow.Add(time.Duration(startsInHours * float64(time.Hour)))
	return &model.Reservation{
		ID:            id,
		UserID:        42,
		Date:          DateOnly(start),
		StartMinute:   start.Hour()*60 + start.Minute(),
		EndMinute:     start.Hour()*60 + start.Minute() + 120,
		DurationHours: 2,
		UnitCount:     1,
		Status:        status,
		PaymentStatus: model.PaymentPaid,
		Pricing:       model.PricingSnapshot{FinalAmount: final, TotalAmount: final},
	}
}

func TestCreateReservationPersists(t *testing.T) {
	store := newFakeStore()
	o, notifier := newTestOrchestrator(store, 3)

	res, err := o.CreateReservation(context.Background(), CreateRequest{
		UserID: 9, Date: date(2026, time.September, 1), StartMinute: 600, DurationHours: 2, UnitCount: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID == 0 {
		t.Errorf("created reservation has no id")
	}
	stored, err := store.GetByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("reservation was not persisted: %v", err)
	}
	if stored.Status != model.StatusPending || stored.PaymentStatus != model.PaymentPending {
		t.Errorf("status = %s/%s, want PENDING/PENDING", stored.Status, stored.PaymentStatus)
	}
	if stored.EndMinute != 720 {
		t.Errorf("end minute = %d, want 720", stored.EndMinute)
	}
	// 2000 base × 2 units × 2h × 1.18 tax.
	if stored.Pricing.FinalAmount != 9440 {
		t.Errorf("final = %v, want 9440", stored.Pricing.FinalAmount)
	}
	if notifier.booked != 1 {
		t.Errorf("booked event count = %d, want 1", notifier.booked)
	}
}

func TestCreateReservationLockedRecount(t *testing.T) {
	// The lock-free precheck sees one free unit, but a concurrent
	// booking lands before the row lock is taken. The recount over the
	// locked rows must reject without inserting or notifying.
	store := newFakeStore(paidReservation(1, model.StatusConfirmed, 4720, 100))
	store.txOnly = []model.Reservation{*paidReservation(2, model.StatusConfirmed, 4720, 100)}
	o, notifier := newTestOrchestrator(store, 2)

	existing := store.byID[1]
	_, err := o.CreateReservation(context.Background(), CreateRequest{
		UserID: 7, Date: existing.Date, StartMinute: existing.StartMinute, DurationHours: 2, UnitCount: 1,
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError from the locked recount", err)
	}
	if conflict.FreeUnits != 0 {
		t.Errorf("free units = %d, want 0", conflict.FreeUnits)
	}
	if len(store.byID) != 1 {
		t.Errorf("rejected request must not insert a row")
	}
	if notifier.booked != 0 {
		t.Errorf("rejected request must not emit an event")
	}
}

func TestCreateReservationCapacityNeverExceeded(t *testing.T) {
	// Drive a burst of overlapping requests through the full create
	// path and verify the committed bookings never hold more units
	// than the fleet owns at any minute of the day.
	store := newFakeStore()
	total := 3
	o, _ := newTestOrchestrator(store, total)
	d := date(2026, time.September, 1)

	requests := []struct {
		start int
		hours float64
		units int
	}{
		{600, 2, 2}, {630, 2, 1}, {660, 1, 1}, {720, 2, 2},
		{780, 2, 3}, {840, 1, 1}, {900, 2, 2}, {960, 2, 1},
	}
	admitted := 0
	for _, rq := range requests {
		_, err := o.CreateReservation(context.Background(), CreateRequest{
			UserID: 1, Date: d, StartMinute: rq.start, DurationHours: rq.hours, UnitCount: rq.units,
		})
		if err == nil {
			admitted++
			continue
		}
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("request at %s: %v, want success or ConflictError", FormatMinute(rq.start), err)
		}
	}
	if admitted == 0 {
		t.Fatal("no request was admitted")
	}
	live, err := store.ListActiveByDate(context.Background(), d)
	if err != nil {
		t.Fatal(err)
	}
	for minute := 0; minute < minutesPerDay; minute++ {
		used := 0
		for _, r := range live {
			if r.StartMinute <= minute && minute < r.EndMinute {
				used += r.UnitCount
			}
		}
		if used > total {
			t.Fatalf("minute %s holds %d units with a fleet of %d", FormatMinute(minute), used, total)
		}
	}
}

func TestCreateReservationPolicyRejection(t *testing.T) {
	o, notifier := newTestOrchestrator(newFakeStore(), 3)

	_, err := o.CreateReservation(context.Background(), CreateRequest{
		UserID: 1, Date: date(2026, time.August, 20), StartMinute: 600, DurationHours: 2, UnitCount: 1,
	})
	var pv *PolicyViolation
	if !errors.As(err, &pv) {
		t.Fatalf("err = %v, want PolicyViolation", err)
	}
	if notifier.booked != 0 {
		t.Errorf("no event may be emitted for a rejected request")
	}
}

func TestCreateReservationCapacityConflict(t *testing.T) {
	store := newFakeStore(paidReservation(1, model.StatusConfirmed, 4720, 100))
	full := store.byID[1]
	full.UnitCount = 2 // occupy 2 of 2 units
	o, _ := newTestOrchestrator(store, 2)

	req := CreateRequest{
		UserID:        7,
		Date:          full.Date,
		StartMinute:   full.StartMinute,
		DurationHours: 2,
		UnitCount:     1,
	}
	_, err := o.CreateReservation(context.Background(), req)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.FreeUnits != 0 {
		t.Errorf("free units = %d, want 0", conflict.FreeUnits)
	}
}

func TestCreateReservationValidation(t *testing.T) {
	o, _ := newTestOrchestrator(newFakeStore(), 3)

	_, err := o.CreateReservation(context.Background(), CreateRequest{
		UserID: 1, Date: date(2026, time.September, 1), StartMinute: 2000, DurationHours: 2, UnitCount: 1,
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError for out-of-day start", err)
	}
}

func TestQuoteAppliesMatchedRule(t *testing.T) {
	weekendRule := model.AdjustmentRule{ID: 1, Name: "Weekend", Type: model.RuleWeekend, AdjustPercent: 20, Priority: 5, Active: true}
	o, _ := newTestOrchestrator(newFakeStore(), 3, weekendRule)

	saturday := date(2026, time.August, 29)
	snap, err := o.Quote(context.Background(), saturday, 600, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if snap.AdjustedRate != 2400 || snap.TotalAmount != 5664 {
		t.Errorf("weekend quote = %+v, want adjusted 2400 / total 5664", snap)
	}

	monday := date(2026, time.August, 31)
	snap, err = o.Quote(context.Background(), monday, 600, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if snap.RuleID != nil || snap.TotalAmount != 4720 {
		t.Errorf("weekday quote = %+v, want no rule / total 4720", snap)
	}
}

func TestCancelPartialRefund(t *testing.T) {
	// 30 hours before the event under 48/24/50: customer gets 50%.
	store := newFakeStore(paidReservation(1, model.StatusConfirmed, 4720, 30))
	o, notifier := newTestOrchestrator(store, 3)

	res, err := o.Cancel(context.Background(), 1, "change of plans", model.ActorCustomer)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", res.Status)
	}
	if res.Cancellation == nil || res.Cancellation.RefundPercent != 50 {
		t.Fatalf("refund percent = %+v, want 50", res.Cancellation)
	}
	if res.Cancellation.RefundAmount != 2360 {
		t.Errorf("refund amount = %v, want 2360", res.Cancellation.RefundAmount)
	}
	if res.PaymentStatus != model.PaymentPartiallyRefunded {
		t.Errorf("payment = %s, want PARTIALLY_REFUNDED", res.PaymentStatus)
	}
	if notifier.cancelled != 1 {
		t.Errorf("cancelled event count = %d, want 1", notifier.cancelled)
	}
}

func TestCancelAdminAlwaysFull(t *testing.T) {
	store := newFakeStore(paidReservation(1, model.StatusConfirmed, 1000, 1))
	o, _ := newTestOrchestrator(store, 3)

	res, err := o.Cancel(context.Background(), 1, "fleet maintenance", model.ActorAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cancellation.RefundPercent != 100 || res.Cancellation.RefundAmount != 1000 {
		t.Errorf("admin refund = %+v, want 100%% / 1000", res.Cancellation)
	}
	if res.PaymentStatus != model.PaymentRefunded {
		t.Errorf("payment = %s, want REFUNDED", res.PaymentStatus)
	}
}

func TestCancelTerminalStates(t *testing.T) {
	// NO_SHOW is terminal too: a guest who never turned up must not be
	// able to cancel afterwards and collect a refund.
	for _, status := range []model.ReservationStatus{model.StatusCancelled, model.StatusCompleted, model.StatusNoShow} {
		t.Run(string(status), func(t *testing.T) {
			store := newFakeStore(paidReservation(1, status, 1000, 100))
			o, notifier := newTestOrchestrator(store, 3)

			_, err := o.Cancel(context.Background(), 1, "", model.ActorCustomer)
			var terminal *TerminalStateError
			if !errors.As(err, &terminal) {
				t.Fatalf("err = %v, want TerminalStateError", err)
			}
			if store.cancelled != nil {
				t.Errorf("terminal cancellation must not write a record")
			}
			if notifier.cancelled != 0 {
				t.Errorf("terminal cancellation must not emit an event")
			}
		})
	}
}

func TestCancelNotFound(t *testing.T) {
	o, _ := newTestOrchestrator(newFakeStore(), 3)
	_, err := o.Cancel(context.Background(), 99, "", model.ActorCustomer)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestUpdateStatusGuards(t *testing.T) {
	store := newFakeStore(paidReservation(1, model.StatusPending, 1000, 100))
	o, _ := newTestOrchestrator(store, 3)
	ctx := context.Background()

	// PENDING cannot jump straight to NO_SHOW.
	_, err := o.UpdateStatus(ctx, 1, model.StatusNoShow)
	var pv *PolicyViolation
	if !errors.As(err, &pv) {
		t.Fatalf("err = %v, want PolicyViolation", err)
	}

	res, err := o.UpdateStatus(ctx, 1, model.StatusConfirmed)
	if err != nil || res.Status != model.StatusConfirmed {
		t.Fatalf("confirm failed: %v %+v", err, res)
	}
	res, err = o.UpdateStatus(ctx, 1, model.StatusCompleted)
	if err != nil || res.Status != model.StatusCompleted {
		t.Fatalf("complete failed: %v %+v", err, res)
	}

	// Terminal now: any further move fails.
	_, err = o.UpdateStatus(ctx, 1, model.StatusCancelled)
	var terminal *TerminalStateError
	if !errors.As(err, &terminal) {
		t.Fatalf("err = %v, want TerminalStateError", err)
	}
}

func TestMarkPaidPromotesPending(t *testing.T) {
	store := newFakeStore(paidReservation(1, model.StatusPending, 1000, 100))
	store.byID[1].PaymentStatus = model.PaymentPending
	o, _ := newTestOrchestrator(store, 3)

	ref := "pay_123"
	res, err := o.MarkPaid(context.Background(), 1, &ref)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED after payment", res.Status)
	}
	if res.PaymentStatus != model.PaymentPaid {
		t.Errorf("payment = %s, want PAID", res.PaymentStatus)
	}
	if res.PaymentRef == nil || *res.PaymentRef != "pay_123" {
		t.Errorf("payment ref not stored")
	}
}

func TestMarkPaidKeepsConfirmed(t *testing.T) {
	store := newFakeStore(paidReservation(1, model.StatusConfirmed, 1000, 100))
	o, _ := newTestOrchestrator(store, 3)

	res, err := o.MarkPaid(context.Background(), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED unchanged", res.Status)
	}
}
