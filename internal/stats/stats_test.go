package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tbourn/service-journal/internal/domain"
)

func order(date string, pt domain.PayType, work, parts int64) domain.Order {
	return domain.Order{Date: date, PayType: pt, WorkAmount: work, OurPartsAmount: parts, TotalAmount: work + parts}
}

func TestCompute_JanuaryScenario(t *testing.T) {
	orders := []domain.Order{
		order("2024-01-20", domain.PayCash, 600, 0),
		order("2024-01-15", domain.PayDebt, 500, 0),
		order("2024-01-02", domain.PayCash, 300, 100),
		order("2024-02-01", domain.PayCashless, 9999, 0),
		order("2023-12-31", domain.PayCash, 9999, 0),
	}

	st := Compute(orders, "2024-01-01", "2024-01-31")
	require.Equal(t, int64(1500), st.Total)
	require.Equal(t, int64(1400), st.TotalWork)
	require.Equal(t, int64(100), st.TotalOurParts)
	require.Equal(t, 3, st.Count)
	require.Equal(t, []domain.PayTypeStats{
		{PayType: domain.PayCash, Total: 1000, TotalWork: 900, TotalOurParts: 100, Count: 2},
		{PayType: domain.PayDebt, Total: 500, TotalWork: 500, TotalOurParts: 0, Count: 1},
	}, st.ByType)
}

func TestCompute_BoundsInclusiveAndEmpty(t *testing.T) {
	orders := []domain.Order{order("2024-01-31", domain.PayCash, 1, 0), order("2024-01-01", domain.PayCash, 1, 0)}
	require.Equal(t, 2, Compute(orders, "2024-01-01", "2024-01-31").Count)

	empty := Compute(nil, "2024-01-01", "2024-01-31")
	require.Zero(t, empty.Count)
	require.NotNil(t, empty.ByType)
	require.Empty(t, empty.ByType)
}

func TestInRange(t *testing.T) {
	orders := []domain.Order{order("2024-03-01", domain.PayCash, 1, 0), order("2024-02-29", domain.PayCash, 1, 0)}
	got := InRange(orders, "2024-03-01", "2024-03-31")
	require.Len(t, got, 1)
	require.Equal(t, "2024-03-01", got[0].Date)
}

func TestSummarize(t *testing.T) {
	tot := Summarize([]domain.Order{
		order("2024-01-01", domain.PayCash, 100, 50),
		order("2024-01-01", domain.PayCashless, 200, 0),
		order("2024-01-01", domain.PayDebt, 0, 70),
	})
	require.Equal(t, Totals{Work: 300, OurParts: 120, Total: 420, Cash: 150, Cashless: 200, Debt: 70}, tot)
}

func TestShare(t *testing.T) {
	require.Zero(t, Share(10, 0))
	require.InDelta(t, 25.0, Share(1, 4), 1e-9)
}

func TestDefaultRange(t *testing.T) {
	now := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	s, e := DefaultRange(now, time.UTC)
	require.Equal(t, "2024-03-01", s)
	require.Equal(t, "2024-03-15", e)
}
