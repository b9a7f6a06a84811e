package model

import "time"

// RuleType enumerates the kinds of pricing adjustment rules. Each type
// reads a different subset of the rule's condition fields.
type RuleType string

const (
	RuleWeekend      RuleType = "WEEKEND"
	RulePeakHours    RuleType = "PEAK_HOURS"
	RuleOffPeakHours RuleType = "OFF_PEAK_HOURS"
	RuleSeasonal     RuleType = "SEASONAL"
	RuleHoliday      RuleType = "HOLIDAY"
	RuleSpecial      RuleType = "SPECIAL"
)

// AdjustmentRule modifies the base hourly rate by a signed percentage
// when its type-specific conditions match the reservation's date and
// start time. At most one rule applies per reservation: rules are
// evaluated in priority order (higher first, rule ID breaking ties)
// and the first match wins. A rule whose required conditions are
// missing never matches.
//
// Condition usage by type:
//  WEEKEND                – Weekdays (defaults to Sat+Sun when empty).
//  PEAK_HOURS / OFF_PEAK  – StartMinute/EndMinute, half-open window.
//  SEASONAL               – DateFrom/DateTo, inclusive.
//  HOLIDAY / SPECIAL      – Dates, explicit calendar-day list.
type AdjustmentRule struct {
	ID             uint64         // pricing_rules.id
	Name           string         // pricing_rules.name
	Type           RuleType       // pricing_rules.rule_type
	AdjustPercent  float64        // pricing_rules.adjust_percent (signed)
	Priority       int            // pricing_rules.priority (higher wins)
	Active         bool           // pricing_rules.is_active
	Weekdays       []time.Weekday // pricing_rule_weekdays rows
	StartMinute    *int           // pricing_rules.cond_start_minute (nullable)
	EndMinute      *int           // pricing_rules.cond_end_minute (nullable)
	DateFrom       *time.Time     // pricing_rules.cond_date_from (nullable)
	DateTo         *time.Time     // pricing_rules.cond_date_to (nullable)
	Dates          []time.Time    // pricing_rule_dates rows
	CreatedAt      time.Time      // pricing_rules.created_at
	UpdatedAt      time.Time      // pricing_rules.updated_at
}
