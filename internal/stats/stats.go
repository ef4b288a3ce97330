// Package stats aggregates orders. Everything here is a pure function over
// an in-memory order list; nothing is persisted.
package stats

import (
	"time"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/format"
)

// InRange keeps orders whose date falls within [start, end]. Dates are
// compared as "YYYY-MM-DD" strings, which order the same way as the days
// they name.
func InRange(orders []domain.Order, start, end string) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Date >= start && o.Date <= end {
			out = append(out, o)
		}
	}
	return out
}

// Compute sums the orders dated within [start, end] and groups them by pay
// type in the order pay types are first seen.
func Compute(orders []domain.Order, start, end string) domain.Stats {
	st := domain.Stats{ByType: []domain.PayTypeStats{}}
	index := map[domain.PayType]int{}

	for _, o := range orders {
		if o.Date < start || o.Date > end {
			continue
		}
		st.Total += o.TotalAmount
		st.TotalWork += o.WorkAmount
		st.TotalOurParts += o.OurPartsAmount
		st.Count++

		i, ok := index[o.PayType]
		if !ok {
			i = len(st.ByType)
			index[o.PayType] = i
			st.ByType = append(st.ByType, domain.PayTypeStats{PayType: o.PayType})
		}
		g := &st.ByType[i]
		g.Total += o.TotalAmount
		g.TotalWork += o.WorkAmount
		g.TotalOurParts += o.OurPartsAmount
		g.Count++
	}
	return st
}

// Totals is the summary block printed under exported tables.
type Totals struct {
	Work     int64
	OurParts int64
	Total    int64
	Cash     int64
	Cashless int64
	Debt     int64
}

// Summarize totals every order and splits the grand total by pay type.
func Summarize(orders []domain.Order) Totals {
	var t Totals
	for _, o := range orders {
		t.Work += o.WorkAmount
		t.OurParts += o.OurPartsAmount
		t.Total += o.TotalAmount
		switch o.PayType {
		case domain.PayCash:
			t.Cash += o.TotalAmount
		case domain.PayCashless:
			t.Cashless += o.TotalAmount
		case domain.PayDebt:
			t.Debt += o.TotalAmount
		}
	}
	return t
}

// Share returns part as a percentage of whole, or 0 when whole is 0.
func Share(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// DefaultRange is the current month up to and including today.
func DefaultRange(now time.Time, loc *time.Location) (start, end string) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return format.DateToStore(first, loc), format.DateToStore(local, loc)
}
