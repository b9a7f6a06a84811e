package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// CalendarRepo provides persistence for operating-calendar days and
// their closed time slots. A date with no row is open by convention, so
// GetDay returns nil (not an error) for absent dates.
type CalendarRepo struct {
	db *sql.DB
}

// NewCalendarRepo returns a new CalendarRepo bound to the given database.
func NewCalendarRepo(db *sql.DB) *CalendarRepo { return &CalendarRepo{db: db} }

// GetDay loads one calendar day with its closed slots, or nil when the
// date has no record.
func (r *CalendarRepo) GetDay(ctx context.Context, date time.Time) (*model.CalendarDay, error) {
	const q = `SELECT cal_date, status, reason, created_at, updated_at
		FROM calendar_days WHERE cal_date = ?`
	var (
		day    model.CalendarDay
		reason sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, date.Format("2006-01-02")).Scan(
		&day.Date, &day.Status, &reason, &day.CreatedAt, &day.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		v := reason.String
		day.Reason = &v
	}
	const slotQ = `SELECT start_minute, end_minute FROM calendar_closed_slots
		WHERE cal_date = ? ORDER BY start_minute`
	rows, err := r.db.QueryContext(ctx, slotQ, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var slot model.ClosedSlot
		if err := rows.Scan(&slot.StartMinute, &slot.EndMinute); err != nil {
			return nil, err
		}
		day.ClosedSlots = append(day.ClosedSlots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &day, nil
}

// ListRange returns the recorded days in [from, to] inclusive, for the
// admin calendar view. Dates without records are simply absent.
func (r *CalendarRepo) ListRange(ctx context.Context, from, to time.Time) ([]model.CalendarDay, error) {
	const q = `SELECT cal_date, status, reason, created_at, updated_at
		FROM calendar_days WHERE cal_date BETWEEN ? AND ? ORDER BY cal_date`
	rows, err := r.db.QueryContext(ctx, q, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	days := make([]model.CalendarDay, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			day    model.CalendarDay
			reason sql.NullString
		)
		if err := rows.Scan(&day.Date, &day.Status, &reason, &day.CreatedAt, &day.UpdatedAt); err != nil {
			return nil, err
		}
		if reason.Valid {
			v := reason.String
			day.Reason = &v
		}
		index[day.Date.Format("2006-01-02")] = len(days)
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return days, nil
	}
	const slotQ = `SELECT cal_date, start_minute, end_minute FROM calendar_closed_slots
		WHERE cal_date BETWEEN ? AND ? ORDER BY cal_date, start_minute`
	srows, err := r.db.QueryContext(ctx, slotQ, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var d time.Time
		var slot model.ClosedSlot
		if err := srows.Scan(&d, &slot.StartMinute, &slot.EndMinute); err != nil {
			return nil, err
		}
		if i, ok := index[d.Format("2006-01-02")]; ok {
			days[i].ClosedSlots = append(days[i].ClosedSlots, slot)
		}
	}
	return days, srows.Err()
}

// UpsertDay writes a calendar day and replaces its closed slots in one
// transaction. Setting status OPEN with no slots removes the record,
// restoring the default-open convention.
func (r *CalendarRepo) UpsertDay(ctx context.Context, day *model.CalendarDay) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	dateStr := day.Date.Format("2006-01-02")
	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_closed_slots WHERE cal_date = ?`, dateStr); err != nil {
		return err
	}
	if day.Status == model.DayOpen && len(day.ClosedSlots) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_days WHERE cal_date = ?`, dateStr); err != nil {
			return err
		}
	} else {
		const q = `INSERT INTO calendar_days (cal_date, status, reason) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE status = VALUES(status), reason = VALUES(reason)`
		if _, err := tx.ExecContext(ctx, q, dateStr, day.Status, day.Reason); err != nil {
			return err
		}
		if len(day.ClosedSlots) > 0 {
			query := `INSERT INTO calendar_closed_slots (cal_date, start_minute, end_minute) VALUES `
			args := make([]any, 0, len(day.ClosedSlots)*3)
			ph := make([]string, 0, len(day.ClosedSlots))
			for _, slot := range day.ClosedSlots {
				ph = append(ph, "(?, ?, ?)")
				args = append(args, dateStr, slot.StartMinute, slot.EndMinute)
			}
			if _, err := tx.ExecContext(ctx, query+strings.Join(ph, ","), args...); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
