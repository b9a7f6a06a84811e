package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/booking"
	"github.com/iliyamo/charter-fleet-booking/internal/model"
	"github.com/iliyamo/charter-fleet-booking/internal/repository"
)

// RuleHandler serves the administrative pricing-rule CRUD endpoints.
// Rules take effect on the next quote or booking; existing reservations
// keep the pricing snapshot captured at creation.
type RuleHandler struct {
	Repo *repository.RuleRepo
}

// NewRuleHandler constructs a RuleHandler.
func NewRuleHandler(repo *repository.RuleRepo) *RuleHandler {
	if repo == nil {
		panic("nil repository passed to NewRuleHandler")
	}
	return &RuleHandler{Repo: repo}
}

// ruleBody is the JSON shape of a rule on both read and write.
// Weekdays use 0=Sunday through 6=Saturday; times are HH:MM; dates are
// YYYY-MM-DD.
type ruleBody struct {
	ID            uint64   `json:"id,omitempty"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	AdjustPercent float64  `json:"adjust_percent"`
	Priority      int      `json:"priority"`
	Active        bool     `json:"active"`
	Weekdays      []int    `json:"weekdays,omitempty"`
	StartTime     *string  `json:"start_time,omitempty"`
	EndTime       *string  `json:"end_time,omitempty"`
	DateFrom      *string  `json:"date_from,omitempty"`
	DateTo        *string  `json:"date_to,omitempty"`
	Dates         []string `json:"dates,omitempty"`
}

var validRuleTypes = map[model.RuleType]bool{
	model.RuleWeekend:      true,
	model.RulePeakHours:    true,
	model.RuleOffPeakHours: true,
	model.RuleSeasonal:     true,
	model.RuleHoliday:      true,
	model.RuleSpecial:      true,
}

// toModel validates the body and converts it into an AdjustmentRule.
// Conditions required by the rule type must be present: a rule that
// would silently never match is rejected here instead.
func (b *ruleBody) toModel() (*model.AdjustmentRule, error) {
	t := model.RuleType(b.Type)
	if !validRuleTypes[t] {
		return nil, &booking.ValidationError{Field: "type", Msg: "unknown rule type"}
	}
	if b.Name == "" {
		return nil, &booking.ValidationError{Field: "name", Msg: "is required"}
	}
	rule := &model.AdjustmentRule{
		ID:            b.ID,
		Name:          b.Name,
		Type:          t,
		AdjustPercent: b.AdjustPercent,
		Priority:      b.Priority,
		Active:        b.Active,
	}
	for _, d := range b.Weekdays {
		if d < 0 || d > 6 {
			return nil, &booking.ValidationError{Field: "weekdays", Msg: "must be 0 (Sunday) through 6 (Saturday)"}
		}
		rule.Weekdays = append(rule.Weekdays, time.Weekday(d))
	}
	if b.StartTime != nil {
		m, err := booking.ParseMinute(*b.StartTime)
		if err != nil {
			return nil, err
		}
		rule.StartMinute = &m
	}
	if b.EndTime != nil {
		m, err := booking.ParseMinute(*b.EndTime)
		if err != nil {
			return nil, err
		}
		rule.EndMinute = &m
	}
	if b.DateFrom != nil {
		d, err := booking.ParseDate(*b.DateFrom)
		if err != nil {
			return nil, err
		}
		rule.DateFrom = &d
	}
	if b.DateTo != nil {
		d, err := booking.ParseDate(*b.DateTo)
		if err != nil {
			return nil, err
		}
		rule.DateTo = &d
	}
	for _, s := range b.Dates {
		d, err := booking.ParseDate(s)
		if err != nil {
			return nil, err
		}
		rule.Dates = append(rule.Dates, d)
	}

	switch t {
	case model.RulePeakHours, model.RuleOffPeakHours:
		if rule.StartMinute == nil || rule.EndMinute == nil {
			return nil, &booking.ValidationError{Field: "start_time", Msg: "hour rules need start_time and end_time"}
		}
		if *rule.EndMinute <= *rule.StartMinute {
			return nil, &booking.ValidationError{Field: "end_time", Msg: "must be after start_time"}
		}
	case model.RuleSeasonal:
		if rule.DateFrom == nil || rule.DateTo == nil {
			return nil, &booking.ValidationError{Field: "date_from", Msg: "seasonal rules need date_from and date_to"}
		}
		if rule.DateTo.Before(*rule.DateFrom) {
			return nil, &booking.ValidationError{Field: "date_to", Msg: "must not precede date_from"}
		}
	case model.RuleHoliday, model.RuleSpecial:
		if len(rule.Dates) == 0 {
			return nil, &booking.ValidationError{Field: "dates", Msg: "date-list rules need at least one date"}
		}
	}
	return rule, nil
}

func newRuleBody(r *model.AdjustmentRule) ruleBody {
	b := ruleBody{
		ID:            r.ID,
		Name:          r.Name,
		Type:          string(r.Type),
		AdjustPercent: r.AdjustPercent,
		Priority:      r.Priority,
		Active:        r.Active,
	}
	for _, d := range r.Weekdays {
		b.Weekdays = append(b.Weekdays, int(d))
	}
	if r.StartMinute != nil {
		s := booking.FormatMinute(*r.StartMinute)
		b.StartTime = &s
	}
	if r.EndMinute != nil {
		s := booking.FormatMinute(*r.EndMinute)
		b.EndTime = &s
	}
	if r.DateFrom != nil {
		s := r.DateFrom.Format("2006-01-02")
		b.DateFrom = &s
	}
	if r.DateTo != nil {
		s := r.DateTo.Format("2006-01-02")
		b.DateTo = &s
	}
	for _, d := range r.Dates {
		b.Dates = append(b.Dates, d.Format("2006-01-02"))
	}
	return b
}

// ListRules handles GET /v1/rules. Inactive rules are included so an
// administrator can re-enable a seasonal rule instead of recreating it.
func (h *RuleHandler) ListRules(c echo.Context) error {
	rules, err := h.Repo.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rules"})
	}
	out := make([]ruleBody, 0, len(rules))
	for i := range rules {
		out = append(out, newRuleBody(&rules[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetRule handles GET /v1/rules/:id.
func (h *RuleHandler) GetRule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rule id"})
	}
	rule, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rule"})
	}
	return c.JSON(http.StatusOK, newRuleBody(rule))
}

// CreateRule handles POST /v1/rules.
func (h *RuleHandler) CreateRule(c echo.Context) error {
	var body ruleBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rule, err := body.toModel()
	if err != nil {
		return bookingError(c, err)
	}
	rule.ID = 0
	if err := h.Repo.Create(c.Request().Context(), rule); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create rule"})
	}
	return c.JSON(http.StatusCreated, newRuleBody(rule))
}

// UpdateRule handles PUT /v1/rules/:id. The whole rule is replaced,
// conditions included.
func (h *RuleHandler) UpdateRule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rule id"})
	}
	var body ruleBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.ID = id
	rule, err := body.toModel()
	if err != nil {
		return bookingError(c, err)
	}
	if _, err := h.Repo.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rule"})
	}
	if err := h.Repo.Update(c.Request().Context(), rule); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update rule"})
	}
	return c.JSON(http.StatusOK, newRuleBody(rule))
}

// DeleteRule handles DELETE /v1/rules/:id. Past reservations keep their
// pricing snapshots, so deletion never rewrites charged amounts.
func (h *RuleHandler) DeleteRule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rule id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete rule"})
	}
	return c.NoContent(http.StatusNoContent)
}
