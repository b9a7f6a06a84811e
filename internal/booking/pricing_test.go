package booking

import (
	"testing"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

func TestCalculatePriceNoRule(t *testing.T) {
	snap := CalculatePrice(2000, nil, 1, 2, 18, false)

	if snap.AdjustedRate != 2000 {
		t.Errorf("adjusted rate = %v, want 2000", snap.AdjustedRate)
	}
	if snap.Subtotal != 4000 {
		t.Errorf("subtotal = %v, want 4000", snap.Subtotal)
	}
	if snap.TaxAmount != 720 {
		t.Errorf("tax = %v, want 720", snap.TaxAmount)
	}
	if snap.TaxHalf != 360 {
		t.Errorf("tax half = %v, want 360", snap.TaxHalf)
	}
	if snap.TotalAmount != 4720 {
		t.Errorf("total = %v, want 4720", snap.TotalAmount)
	}
	if snap.FinalAmount != 4720 {
		t.Errorf("final = %v, want 4720", snap.FinalAmount)
	}
	if snap.RuleID != nil || snap.RuleName != nil {
		t.Errorf("expected no rule reference on snapshot")
	}
}

func TestCalculatePriceWeekendRule(t *testing.T) {
	rule := &model.AdjustmentRule{ID: 7, Name: "Weekend", Type: model.RuleWeekend, AdjustPercent: 20, Active: true}
	snap := CalculatePrice(2000, rule, 1, 2, 18, false)

	if snap.AdjustedRate != 2400 {
		t.Errorf("adjusted rate = %v, want 2400", snap.AdjustedRate)
	}
	if snap.Subtotal != 4800 {
		t.Errorf("subtotal = %v, want 4800", snap.Subtotal)
	}
	if snap.TaxAmount != 864 {
		t.Errorf("tax = %v, want 864", snap.TaxAmount)
	}
	if snap.TotalAmount != 5664 {
		t.Errorf("total = %v, want 5664", snap.TotalAmount)
	}
	if snap.RuleID == nil || *snap.RuleID != 7 {
		t.Errorf("rule id not captured on snapshot")
	}
}

func TestCalculatePriceTaxInclusiveRoundTrip(t *testing.T) {
	// base + tax must reconstruct the quoted amount exactly at 2 decimals.
	cases := []struct {
		name     string
		baseRate float64
		units    int
		hours    float64
		taxPct   float64
	}{
		{"even", 2000, 1, 2, 18},
		{"fractional", 1999.99, 2, 1.5, 18},
		{"odd tax", 1234.56, 3, 2.5, 7.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := CalculatePrice(tc.baseRate, nil, tc.units, tc.hours, tc.taxPct, true)
			base := round2(snap.TotalAmount - snap.TaxAmount)
			if round2(base+snap.TaxAmount) != snap.TotalAmount {
				t.Errorf("base %v + tax %v != amount %v", base, snap.TaxAmount, snap.TotalAmount)
			}
			if snap.TotalAmount != snap.Subtotal {
				t.Errorf("inclusive mode must keep the quoted amount: total %v, subtotal %v", snap.TotalAmount, snap.Subtotal)
			}
		})
	}
}

func TestCalculatePriceDeterministic(t *testing.T) {
	rule := &model.AdjustmentRule{ID: 3, Name: "Peak", Type: model.RulePeakHours, AdjustPercent: -12.5, Active: true}
	a := CalculatePrice(1750.25, rule, 2, 3.5, 18, false)
	b := CalculatePrice(1750.25, rule, 2, 3.5, 18, false)

	// The rule reference fields are fresh pointers on every call, so
	// compare what they point at, then the remaining value fields.
	if a.RuleID == nil || b.RuleID == nil || *a.RuleID != *b.RuleID {
		t.Errorf("rule ids differ: %v vs %v", a.RuleID, b.RuleID)
	}
	if a.RuleName == nil || b.RuleName == nil || *a.RuleName != *b.RuleName {
		t.Errorf("rule names differ: %v vs %v", a.RuleName, b.RuleName)
	}
	a.RuleID, a.RuleName = nil, nil
	b.RuleID, b.RuleName = nil, nil
	if a != b {
		t.Errorf("identical inputs produced different snapshots:\n%+v\n%+v", a, b)
	}
}

func TestApplyOverride(t *testing.T) {
	snap := CalculatePrice(2000, nil, 1, 2, 18, false)
	over := ApplyOverride(snap, 3999.99)

	if over.OverrideAmount == nil || *over.OverrideAmount != 3999.99 {
		t.Errorf("override amount = %v, want 3999.99", over.OverrideAmount)
	}
	if over.FinalAmount != 3999.99 {
		t.Errorf("final = %v, want override", over.FinalAmount)
	}
	// Audit fields survive untouched.
	if over.Subtotal != snap.Subtotal || over.TaxAmount != snap.TaxAmount || over.TotalAmount != snap.TotalAmount {
		t.Errorf("override must not alter subtotal/tax/total")
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{10.0 / 3, 3.33},
		{2.0 / 3, 0.67},
		{-2.0 / 3, -0.67},
		{720, 720},
	}
	for _, tc := range cases {
		if got := round2(tc.in); got != tc.want {
			t.Errorf("round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
