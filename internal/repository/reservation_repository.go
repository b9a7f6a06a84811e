package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// ReservationRepo provides persistence for reservations, including the
// embedded pricing snapshot and cancellation columns. All date columns
// are DATE values read back as UTC midnight; times of day are stored as
// minutes since midnight.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, user_id, res_date, start_minute, end_minute, duration_hours,
	unit_count, status, payment_status, payment_ref,
	base_rate, rule_id, rule_name, adjusted_rate, subtotal, tax_percent, tax_amount, tax_half,
	total_amount, override_amount, final_amount,
	cancelled_at, cancelled_by, cancel_reason, refund_percent, refund_amount,
	created_at, updated_at`

// scanReservation maps one row onto a model.Reservation. The caller's
// row must select reservationColumns in order.
func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var (
		res        model.Reservation
		paymentRef sql.NullString
		ruleID     sql.NullInt64
		ruleName   sql.NullString
		override   sql.NullFloat64
		cancelAt   sql.NullTime
		cancelBy   sql.NullString
		cancelWhy  sql.NullString
		refundPct  sql.NullFloat64
		refundAmt  sql.NullFloat64
	)
	err := row.Scan(
		&res.ID, &res.UserID, &res.Date, &res.StartMinute, &res.EndMinute, &res.DurationHours,
		&res.UnitCount, &res.Status, &res.PaymentStatus, &paymentRef,
		&res.Pricing.BaseRate, &ruleID, &ruleName, &res.Pricing.AdjustedRate, &res.Pricing.Subtotal,
		&res.Pricing.TaxPercent, &res.Pricing.TaxAmount, &res.Pricing.TaxHalf,
		&res.Pricing.TotalAmount, &override, &res.Pricing.FinalAmount,
		&cancelAt, &cancelBy, &cancelWhy, &refundPct, &refundAmt,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paymentRef.Valid {
		v := paymentRef.String
		res.PaymentRef = &v
	}
	if ruleID.Valid {
		v := uint64(ruleID.Int64)
		res.Pricing.RuleID = &v
	}
	if ruleName.Valid {
		v := ruleName.String
		res.Pricing.RuleName = &v
	}
	if override.Valid {
		v := override.Float64
		res.Pricing.OverrideAmount = &v
	}
	if cancelAt.Valid {
		res.Cancellation = &model.CancellationRecord{
			CancelledAt:   cancelAt.Time,
			Actor:         model.Actor(cancelBy.String),
			Reason:        cancelWhy.String,
			RefundPercent: refundPct.Float64,
			RefundAmount:  refundAmt.Float64,
		}
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided record. The caller must commit or rollback.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(user_id, res_date, start_minute, end_minute, duration_hours, unit_count,
		 status, payment_status, payment_ref,
		 base_rate, rule_id, rule_name, adjusted_rate, subtotal, tax_percent, tax_amount, tax_half,
		 total_amount, override_amount, final_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	p := &res.Pricing
	result, err := tx.ExecContext(ctx, q,
		res.UserID, res.Date.Format("2006-01-02"), res.StartMinute, res.EndMinute, res.DurationHours, res.UnitCount,
		res.Status, res.PaymentStatus, res.PaymentRef,
		p.BaseRate, nullableUint(p.RuleID), p.RuleName, p.AdjustedRate, p.Subtotal, p.TaxPercent, p.TaxAmount, p.TaxHalf,
		p.TotalAmount, p.OverrideAmount, p.FinalAmount,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// ListActiveByDate returns the PENDING and CONFIRMED reservations for a
// date, the set that counts against fleet capacity.
func (r *ReservationRepo) ListActiveByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE res_date = ? AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY start_minute, id`
	return r.queryMany(ctx, r.db, q, date.Format("2006-01-02"))
}

// ListActiveByDateTx is ListActiveByDate inside a transaction, locking
// the returned rows. Holding the lock until commit serializes capacity
// decisions for the same day, so two concurrent creations cannot both
// pass the fleet check.
func (r *ReservationRepo) ListActiveByDateTx(ctx context.Context, tx *sql.Tx, date time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE res_date = ? AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY start_minute, id
		FOR UPDATE`
	return r.queryMany(ctx, tx, q, date.Format("2006-01-02"))
}

// GetByID returns a reservation regardless of owner. sql.ErrNoRows is
// returned when it does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservation(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUser returns a reservation only when it belongs to the
// given user, enforcing ownership in the query itself.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND user_id = ?`
	return scanReservation(r.db.QueryRowContext(ctx, q, id, userID))
}

// ListByUser returns all reservations for a user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
		FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.queryMany(ctx, r.db, q, userID)
}

// UpdateStatus sets the reservation status. Transition legality is the
// orchestrator's responsibility.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	const q = `UPDATE reservations SET status = ? WHERE id = ?`
	return r.execExpectingRow(ctx, q, status, id)
}

// MarkPaid records payment, setting both statuses in one statement so a
// pending reservation is promoted atomically with the payment.
func (r *ReservationRepo) MarkPaid(ctx context.Context, id uint64, status model.ReservationStatus, payment model.PaymentStatus, ref *string) error {
	const q = `UPDATE reservations SET status = ?, payment_status = ?, payment_ref = COALESCE(?, payment_ref) WHERE id = ?`
	return r.execExpectingRow(ctx, q, status, payment, ref, id)
}

// Cancel transitions a reservation to CANCELLED and writes its
// cancellation record in one statement. The guard on the status column
// excludes every terminal state, so a concurrent double-cancel cannot
// overwrite the record and a NO_SHOW row cannot be refunded.
func (r *ReservationRepo) Cancel(ctx context.Context, id uint64, payment model.PaymentStatus, rec *model.CancellationRecord) error {
	const q = `UPDATE reservations
		SET status = 'CANCELLED', payment_status = ?,
		    cancelled_at = ?, cancelled_by = ?, cancel_reason = ?, refund_percent = ?, refund_amount = ?
		WHERE id = ? AND status NOT IN ('CANCELLED', 'COMPLETED', 'NO_SHOW')`
	return r.execExpectingRow(ctx, q, payment,
		rec.CancelledAt.UTC().Format("2006-01-02 15:04:05"), string(rec.Actor), rec.Reason, rec.RefundPercent, rec.RefundAmount,
		id)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *ReservationRepo) queryMany(ctx context.Context, q queryer, query string, args ...any) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReservationRepo) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullableUint(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}
