package costing

import (
	"math/rand"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func sampleHistory() []PriceRecord {
	return []PriceRecord{
		{MaterialID: 1, UnitPrice: 25.5, EffectiveStart: day("2025-06-07"), EffectiveEnd: dayPtr("2025-12-31")},
		{MaterialID: 1, UnitPrice: 22.6, EffectiveStart: day("2025-11-24"), EffectiveEnd: nil},
	}
}

func resolveEquals(t *testing.T, history []PriceRecord, ref time.Time, want float64) {
	t.Helper()
	if got := ResolvePrice(history, ref); got != want {
		t.Fatalf("ResolvePrice(%v) = %v, want %v", ref, got, want)
	}
}

func TestResolvePrice_DateInsideClosedRange(t *testing.T) {
	resolveEquals(t, sampleHistory(), day("2025-08-15"), 25.5)
}

func TestResolvePrice_OverlapLatestStartWins(t *testing.T) {
	// 2025-11-25 is covered by both records; the newer start wins.
	resolveEquals(t, sampleHistory(), day("2025-11-25"), 22.6)
}

func TestResolvePrice_NoDateUsesLatestStart(t *testing.T) {
	resolveEquals(t, sampleHistory(), time.Time{}, 22.6)
}

func TestResolvePrice_BeforeAllHistoryIsZero(t *testing.T) {
	resolveEquals(t, sampleHistory(), day("2025-01-01"), 0)
}

func TestResolvePrice_BoundaryDates(t *testing.T) {
	h := sampleHistory()
	resolveEquals(t, h, day("2025-06-07"), 25.5) // start inclusive
	resolveEquals(t, h, day("2025-12-31"), 22.6) // overlapped end, newer start wins
	resolveEquals(t, h, day("2025-11-24"), 22.6)
	resolveEquals(t, h, day("2025-11-23"), 25.5)
	resolveEquals(t, h, day("2026-03-01"), 22.6) // open-ended tail
}

func TestResolvePrice_GapFallsBackToLatestEarlierStart(t *testing.T) {
	h := []PriceRecord{
		{UnitPrice: 10, EffectiveStart: day("2025-01-01"), EffectiveEnd: dayPtr("2025-01-31")},
		{UnitPrice: 12, EffectiveStart: day("2025-03-01"), EffectiveEnd: dayPtr("2025-03-31")},
	}
	// February is uncovered; the January record is the best guess.
	resolveEquals(t, h, day("2025-02-15"), 10)
	// After all coverage ends the March record still applies.
	resolveEquals(t, h, day("2025-06-01"), 12)
}

func TestResolvePrice_EmptyHistory(t *testing.T) {
	resolveEquals(t, nil, day("2025-06-01"), 0)
	resolveEquals(t, nil, time.Time{}, 0)
}

func TestResolvePrice_IndependentOfRecordOrder(t *testing.T) {
	h := sampleHistory()
	reversed := []PriceRecord{h[1], h[0]}
	for _, ref := range []time.Time{time.Time{}, day("2025-08-15"), day("2025-11-25"), day("2025-12-31")} {
		if a, b := ResolvePrice(h, ref), ResolvePrice(reversed, ref); a != b {
			t.Fatalf("order-dependent result at %v: %v vs %v", ref, a, b)
		}
	}
}

func TestResolvePrice_RandomizedPurityAndSingleResult(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := day("2025-01-01")

	var history []PriceRecord
	cursor := base
	for i := 0; i < 8; i++ {
		start := cursor.AddDate(0, 0, rng.Intn(40))
		var end *time.Time
		if rng.Intn(3) > 0 {
			e := start.AddDate(0, 0, rng.Intn(60))
			end = &e
		}
		history = append(history, PriceRecord{
			UnitPrice:      float64(rng.Intn(5000)+100) / 100,
			EffectiveStart: start,
			EffectiveEnd:   end,
		})
		cursor = start
	}

	for i := 0; i < 500; i++ {
		ref := base.AddDate(0, 0, rng.Intn(400)-30)
		first := ResolvePrice(history, ref)
		if again := ResolvePrice(history, ref); again != first {
			t.Fatalf("ResolvePrice not pure at %v: %v then %v", ref, first, again)
		}
		// Boundary dates must behave like any other date: exactly one price.
		for _, r := range history {
			if got := ResolvePrice(history, r.EffectiveStart); got == 0 && r.EffectiveStart.Equal(earliestStart(history)) == false {
				t.Fatalf("start boundary %v resolved to 0", r.EffectiveStart)
			}
			if r.EffectiveEnd != nil {
				ResolvePrice(history, *r.EffectiveEnd) // must not panic
			}
		}
	}
}

func earliestStart(history []PriceRecord) time.Time {
	first := history[0].EffectiveStart
	for _, r := range history[1:] {
		if r.EffectiveStart.Before(first) {
			first = r.EffectiveStart
		}
	}
	return first
}
