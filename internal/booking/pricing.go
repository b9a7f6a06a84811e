package booking

import (
	"math"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// round2 rounds a monetary amount to 2 decimal places. It is applied
// after each derived quantity so rounding error does not compound.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculatePrice builds the immutable pricing snapshot for a
// reservation. In tax-exclusive mode the tax is added on top of the
// subtotal; in tax-inclusive mode the subtotal is treated as the quoted
// total and the pre-tax base is back-calculated from it. The tax is
// split into two equal halves for the two-component tax regime.
//
// Pure function: identical inputs always yield an identical snapshot.
func CalculatePrice(baseRate float64, rule *model.AdjustmentRule, unitCount int, durationHours, taxPercent float64, taxInclusive bool) model.PricingSnapshot {
	snap := model.PricingSnapshot{
		BaseRate:     baseRate,
		AdjustedRate: baseRate,
		TaxPercent:   taxPercent,
	}
	if rule != nil {
		snap.RuleID = &rule.ID
		name := rule.Name
		snap.RuleName = &name
		snap.AdjustedRate = round2(baseRate * (1 + rule.AdjustPercent/100))
	}
	snap.Subtotal = round2(snap.AdjustedRate * float64(unitCount) * durationHours)

	if taxInclusive {
		amount := snap.Subtotal
		base := round2(amount / (1 + taxPercent/100))
		snap.TaxAmount = round2(amount - base)
		snap.TotalAmount = amount
	} else {
		snap.TaxAmount = round2(snap.Subtotal * taxPercent / 100)
		snap.TotalAmount = round2(snap.Subtotal + snap.TaxAmount)
	}
	snap.TaxHalf = round2(snap.TaxAmount / 2)
	snap.FinalAmount = snap.TotalAmount
	return snap
}

// ApplyOverride replaces the computed total with a manually set amount.
// Subtotal and tax are left untouched for audit purposes.
func ApplyOverride(snap model.PricingSnapshot, override float64) model.PricingSnapshot {
	o := round2(override)
	snap.OverrideAmount = &o
	snap.FinalAmount = o
	return snap
}
