package booking

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// RuleStore loads active pricing adjustment rules.
type RuleStore interface {
	ListActive(ctx context.Context) ([]model.AdjustmentRule, error)
}

// RuleMatcher selects the single adjustment rule applied to a
// reservation. Rules are evaluated by priority descending with rule ID
// ascending as the tie-break, and the first whose conditions match the
// date and start time wins.
type RuleMatcher struct {
	store RuleStore
}

// NewRuleMatcher returns a matcher reading from the given store.
func NewRuleMatcher(store RuleStore) *RuleMatcher {
	return &RuleMatcher{store: store}
}

// Match returns the highest-priority active rule matching the date and
// start time, or nil when none matches.
func (m *RuleMatcher) Match(ctx context.Context, date time.Time, startMinute int) (*model.AdjustmentRule, error) {
	rules, err := m.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return MatchRule(rules, date, startMinute), nil
}

// MatchRule evaluates the candidate rules against a date and start time.
// It sorts its own copy so callers need not guarantee ordering.
func MatchRule(rules []model.AdjustmentRule, date time.Time, startMinute int) *model.AdjustmentRule {
	ordered := make([]model.AdjustmentRule, len(rules))
	copy(ordered, rules)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})
	for i := range ordered {
		r := &ordered[i]
		if r.Active && ruleMatches(r, date, startMinute) {
			return r
		}
	}
	return nil
}

// ruleMatches applies the type-specific predicate. A rule missing its
// required conditions fails closed: it never matches.
func ruleMatches(r *model.AdjustmentRule, date time.Time, startMinute int) bool {
	day := DateOnly(date)
	switch r.Type {
	case model.RuleWeekend:
		days := r.Weekdays
		if len(days) == 0 {
			days = []time.Weekday{time.Saturday, time.Sunday}
		}
		for _, wd := range days {
			if day.Weekday() == wd {
				return true
			}
		}
		return false
	case model.RulePeakHours, model.RuleOffPeakHours:
		if r.StartMinute == nil || r.EndMinute == nil {
			return false
		}
		return startMinute >= *r.StartMinute && startMinute < *r.EndMinute
	case model.RuleSeasonal:
		if r.DateFrom == nil || r.DateTo == nil {
			return false
		}
		return !day.Before(DateOnly(*r.DateFrom)) && !day.After(DateOnly(*r.DateTo))
	case model.RuleHoliday, model.RuleSpecial:
		for _, d := range r.Dates {
			if DateOnly(d).Equal(day) {
				return true
			}
		}
		return false
	}
	return false
}
