package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// RuleRepo provides persistence for pricing adjustment rules. Day-of-week
// sets and explicit date lists live in child tables
// (pricing_rule_weekdays, pricing_rule_dates) keyed by rule ID.
type RuleRepo struct {
	db *sql.DB
}

// NewRuleRepo returns a new RuleRepo bound to the given database.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

const ruleColumns = `id, name, rule_type, adjust_percent, priority, is_active,
	cond_start_minute, cond_end_minute, cond_date_from, cond_date_to, created_at, updated_at`

func scanRule(row interface{ Scan(...any) error }) (*model.AdjustmentRule, error) {
	var (
		rule     model.AdjustmentRule
		startMin sql.NullInt64
		endMin   sql.NullInt64
		dateFrom sql.NullTime
		dateTo   sql.NullTime
	)
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Type, &rule.AdjustPercent, &rule.Priority, &rule.Active,
		&startMin, &endMin, &dateFrom, &dateTo, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startMin.Valid {
		v := int(startMin.Int64)
		rule.StartMinute = &v
	}
	if endMin.Valid {
		v := int(endMin.Int64)
		rule.EndMinute = &v
	}
	if dateFrom.Valid {
		v := dateFrom.Time
		rule.DateFrom = &v
	}
	if dateTo.Valid {
		v := dateTo.Time
		rule.DateTo = &v
	}
	return &rule, nil
}

// ListActive returns all active rules ordered by priority descending
// with rule ID ascending as the tie-break, the order the matcher
// evaluates them in. Condition children are attached in bulk.
func (r *RuleRepo) ListActive(ctx context.Context) ([]model.AdjustmentRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM pricing_rules
		WHERE is_active = 1 ORDER BY priority DESC, id ASC`
	return r.queryWithConditions(ctx, q)
}

// ListAll returns every rule, active or not, for administration.
func (r *RuleRepo) ListAll(ctx context.Context) ([]model.AdjustmentRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM pricing_rules ORDER BY priority DESC, id ASC`
	return r.queryWithConditions(ctx, q)
}

// GetByID returns a single rule with its conditions, or sql.ErrNoRows.
func (r *RuleRepo) GetByID(ctx context.Context, id uint64) (*model.AdjustmentRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM pricing_rules WHERE id = ?`
	rule, err := scanRule(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	rules := []model.AdjustmentRule{*rule}
	if err := r.attachConditions(ctx, rules); err != nil {
		return nil, err
	}
	return &rules[0], nil
}

// Create inserts a rule and its condition children in one transaction,
// populating the generated ID on the provided record.
func (r *RuleRepo) Create(ctx context.Context, rule *model.AdjustmentRule) error {
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

	const q = `INSERT INTO pricing_rules
		(name, rule_type, adjust_percent, priority, is_active,
		 cond_start_minute, cond_end_minute, cond_date_from, cond_date_to)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		rule.Name, rule.Type, rule.AdjustPercent, rule.Priority, rule.Active,
		rule.StartMinute, rule.EndMinute, nullableDate(rule.DateFrom), nullableDate(rule.DateTo))
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rule.ID = uint64(id)
	if err := r.insertConditionsTx(ctx, tx, rule); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update rewrites a rule and replaces its condition children.
func (r *RuleRepo) Update(ctx context.Context, rule *model.AdjustmentRule) error {
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

	const q = `UPDATE pricing_rules SET
		name = ?, rule_type = ?, adjust_percent = ?, priority = ?, is_active = ?,
		cond_start_minute = ?, cond_end_minute = ?, cond_date_from = ?, cond_date_to = ?
		WHERE id = ?`
	result, err := tx.ExecContext(ctx, q,
		rule.Name, rule.Type, rule.AdjustPercent, rule.Priority, rule.Active,
		rule.StartMinute, rule.EndMinute, nullableDate(rule.DateFrom), nullableDate(rule.DateTo), rule.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		// Distinguish a missing rule from an unchanged one.
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM pricing_rules WHERE id = ?`, rule.ID).Scan(&exists); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pricing_rule_weekdays WHERE rule_id = ?`, rule.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pricing_rule_dates WHERE rule_id = ?`, rule.ID); err != nil {
		return err
	}
	if err := r.insertConditionsTx(ctx, tx, rule); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes a rule and its condition children. Reservations keep
// their pricing snapshot, so deleting a rule never rewrites history.
func (r *RuleRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pricing_rules WHERE id = ?`, id)
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

func (r *RuleRepo) insertConditionsTx(ctx context.Context, tx *sql.Tx, rule *model.AdjustmentRule) error {
	if len(rule.Weekdays) > 0 {
		query := `INSERT INTO pricing_rule_weekdays (rule_id, weekday) VALUES `
		args := make([]any, 0, len(rule.Weekdays)*2)
		ph := make([]string, 0, len(rule.Weekdays))
		for _, wd := range rule.Weekdays {
			ph = append(ph, "(?, ?)")
			args = append(args, rule.ID, int(wd))
		}
		if _, err := tx.ExecContext(ctx, query+strings.Join(ph, ","), args...); err != nil {
			return err
		}
	}
	if len(rule.Dates) > 0 {
		query := `INSERT INTO pricing_rule_dates (rule_id, rule_date) VALUES `
		args := make([]any, 0, len(rule.Dates)*2)
		ph := make([]string, 0, len(rule.Dates))
		for _, d := range rule.Dates {
			ph = append(ph, "(?, ?)")
			args = append(args, rule.ID, d.Format("2006-01-02"))
		}
		if _, err := tx.ExecContext(ctx, query+strings.Join(ph, ","), args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *RuleRepo) queryWithConditions(ctx context.Context, query string, args ...any) ([]model.AdjustmentRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rules := make([]model.AdjustmentRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachConditions(ctx, rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// attachConditions loads the weekday and date children for all rules in
// two queries and distributes them by rule ID.
func (r *RuleRepo) attachConditions(ctx context.Context, rules []model.AdjustmentRule) error {
	if len(rules) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(rules))
	ids := make([]any, 0, len(rules))
	ph := make([]string, 0, len(rules))
	for i := range rules {
		index[rules[i].ID] = i
		ids = append(ids, rules[i].ID)
		ph = append(ph, "?")
	}
	in := "(" + strings.Join(ph, ",") + ")"

	wrows, err := r.db.QueryContext(ctx, `SELECT rule_id, weekday FROM pricing_rule_weekdays WHERE rule_id IN `+in, ids...)
	if err != nil {
		return err
	}
	defer wrows.Close()
	for wrows.Next() {
		var ruleID uint64
		var wd int
		if err := wrows.Scan(&ruleID, &wd); err != nil {
			return err
		}
		if i, ok := index[ruleID]; ok {
			rules[i].Weekdays = append(rules[i].Weekdays, time.Weekday(wd))
		}
	}
	if err := wrows.Err(); err != nil {
		return err
	}

	drows, err := r.db.QueryContext(ctx, `SELECT rule_id, rule_date FROM pricing_rule_dates WHERE rule_id IN `+in, ids...)
	if err != nil {
		return err
	}
	defer drows.Close()
	for drows.Next() {
		var ruleID uint64
		var d time.Time
		if err := drows.Scan(&ruleID, &d); err != nil {
			return err
		}
		if i, ok := index[ruleID]; ok {
			rules[i].Dates = append(rules[i].Dates, d)
		}
	}
	return drows.Err()
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
