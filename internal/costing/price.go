// Package costing resolves material unit prices from a dated history and
// rolls volume, density, quantity and price into a final cost. Like the
// formula engine it is total: every lookup miss degrades to a zero, never an
// error, because rows reprice on each edit.
package costing

import "time"

// PriceRecord is one entry of a material's append-only price history. A
// price change inserts a new record; existing records are never rewritten.
// A nil EffectiveEnd means the price is open-ended.
type PriceRecord struct {
	MaterialID     int64
	UnitPrice      float64
	EffectiveStart time.Time
	EffectiveEnd   *time.Time
}

// ResolvePrice returns exactly one unit price for the history at refDate.
//
// Rules, in order:
//  1. Zero refDate: the record with the latest EffectiveStart, regardless of
//     its end date (best current guess).
//  2. Otherwise the record whose [EffectiveStart, EffectiveEnd] interval
//     contains refDate, end inclusive, nil end covering all later dates.
//     When intervals overlap the latest EffectiveStart wins.
//  3. Coverage gap: the latest record that started on or before refDate.
//  4. refDate precedes all history: 0. Prices are never extrapolated
//     backward past the first known record.
func ResolvePrice(history []PriceRecord, refDate time.Time) float64 {
	if len(history) == 0 {
		return 0
	}

	if refDate.IsZero() {
		best := history[0]
		for _, r := range history[1:] {
			if r.EffectiveStart.After(best.EffectiveStart) {
				best = r
			}
		}
		return best.UnitPrice
	}

	if r, ok := latest(history, func(r PriceRecord) bool { return r.covers(refDate) }); ok {
		return r.UnitPrice
	}
	if r, ok := latest(history, func(r PriceRecord) bool { return !r.EffectiveStart.After(refDate) }); ok {
		return r.UnitPrice
	}
	return 0
}

func (r PriceRecord) covers(d time.Time) bool {
	if d.Before(r.EffectiveStart) {
		return false
	}
	return r.EffectiveEnd == nil || !d.After(*r.EffectiveEnd)
}

// latest picks the matching record with the greatest EffectiveStart.
func latest(history []PriceRecord, match func(PriceRecord) bool) (PriceRecord, bool) {
	var best PriceRecord
	found := false
	for _, r := range history {
		if !match(r) {
			continue
		}
		if !found || r.EffectiveStart.After(best.EffectiveStart) {
			best = r
			found = true
		}
	}
	return best, found
}
