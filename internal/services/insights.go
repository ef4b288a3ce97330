package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/search"
	"github.com/tbourn/service-journal/internal/stats"
)

// SearchClients suggests client names containing query. Storage failures
// degrade to an empty list.
func (s *JournalService) SearchClients(ctx context.Context, query string) []string {
	return s.suggest(ctx, "SearchClients", search.Clients, query)
}

// SearchCars suggests car descriptions containing query. Storage failures
// degrade to an empty list.
func (s *JournalService) SearchCars(ctx context.Context, query string) []string {
	return s.suggest(ctx, "SearchCars", search.Cars, query)
}

func (s *JournalService) suggest(ctx context.Context, op string, field search.Field, query string) []string {
	ctx, span := s.start(ctx, op, attribute.Int("query.runes", len([]rune(query))))
	var err error
	defer func() { finish(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("suggestions unavailable")
		return []string{}
	}
	return s.suggester.Suggest(orders, field, query)
}

// GetStats aggregates the orders dated within [start, end]. Empty bounds
// default to the current month up to today; a bound that cannot be parsed
// or a storage failure yields empty statistics.
func (s *JournalService) GetStats(ctx context.Context, start, end string) domain.Stats {
	ctx, span := s.start(ctx, "GetStats", attribute.String("start", start), attribute.String("end", end))
	var err error
	defer func() { finish(span, err) }()

	empty := domain.Stats{ByType: []domain.PayTypeStats{}}

	defStart, defEnd := stats.DefaultRange(s.now(), s.loc)
	if start == "" {
		start = defStart
	} else if start, err = s.normalizeDate(start); err != nil {
		return empty
	}
	if end == "" {
		end = defEnd
	} else if end, err = s.normalizeDate(end); err != nil {
		return empty
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stats unavailable")
		return empty
	}
	return stats.Compute(orders, start, end)
}
