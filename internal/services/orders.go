package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/format"
	"github.com/tbourn/service-journal/internal/stats"
	"github.com/tbourn/service-journal/internal/validate"
)

// DefaultPageSize is used by GetOrders when no limit is given.
const DefaultPageSize = 50

const msgBadDate = "Некорректная дата"

// stamp is the current time at the precision the store keeps.
func (s *JournalService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *JournalService) normalizeDate(raw string) (string, error) {
	d, err := format.NormalizeDate(raw, s.now(), s.loc)
	if err != nil {
		return "", &ValidationError{Fields: validate.FieldErrors{"date": msgBadDate}}
	}
	return d, nil
}

func orderIndex(orders []domain.Order, id string) int {
	return slices.IndexFunc(orders, func(o domain.Order) bool { return o.ID == id })
}

// SaveOrder validates in, stores it at the head of the journal and, for a
// debt order, creates its debt. When the debt cannot be created the order is
// removed again and ErrDependency is returned.
func (s *JournalService) SaveOrder(ctx context.Context, in domain.OrderInput) (_ domain.Order, err error) {
	ctx, span := s.start(ctx, "SaveOrder", attribute.String("order.pay_type", string(in.PayType)))
	defer func() { finish(span, err) }()

	if fe := validate.Order(in); fe != nil {
		return domain.Order{}, &ValidationError{Fields: fe}
	}
	date, err := s.normalizeDate(in.Date)
	if err != nil {
		return domain.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	o := domain.Order{
		ID:             s.newID("order"),
		Date:           date,
		Client:         strings.TrimSpace(in.Client),
		Car:            strings.TrimSpace(in.Car),
		Job:            strings.TrimSpace(in.Job),
		WorkAmount:     in.WorkAmount,
		OurParts:       in.OurParts,
		OurPartsAmount: in.OurPartsAmount,
		ClientParts:    in.ClientParts,
		PayType:        in.PayType,
		Comment:        in.Comment,
		CreatedAt:      s.stamp(),
	}
	if in.FreonGrams != nil && *in.FreonGrams != 0 {
		v := *in.FreonGrams
		o.FreonGrams = &v
	}
	o.RecomputeTotal()
	span.SetAttributes(attribute.String("order.id", o.ID))

	if err := s.repo.SaveOrders(ctx, slices.Insert(slices.Clone(orders), 0, o)); err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	if o.PayType == domain.PayDebt {
		if _, derr := s.createDebt(ctx, o); derr != nil {
			s.log.Error().Err(derr).Str("order_id", o.ID).Msg("debt creation failed, rolling back order")
			if rerr := s.repo.SaveOrders(ctx, orders); rerr != nil {
				s.log.Error().Err(rerr).Str("order_id", o.ID).Msg("order rollback failed")
				return domain.Order{}, fmt.Errorf("%w: %w (rollback: %v)", ErrDependency, derr, rerr)
			}
			return domain.Order{}, fmt.Errorf("%w: %w", ErrDependency, derr)
		}
	}

	s.log.Info().Str("order_id", o.ID).Str("pay_type", string(o.PayType)).Int64("total", o.TotalAmount).Msg("order saved")
	return o, nil
}

// UpdateOrder applies patch to the order id, recomputes its total and keeps
// its debt in line with the new pay type.
func (s *JournalService) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (_ domain.Order, err error) {
	ctx, span := s.start(ctx, "UpdateOrder", attribute.String("order.id", id))
	defer func() { finish(span, err) }()

	if patch.Date != nil {
		d, err := s.normalizeDate(*patch.Date)
		if err != nil {
			return domain.Order{}, err
		}
		patch.Date = &d
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}
	idx := orderIndex(orders, id)
	if idx < 0 {
		return domain.Order{}, notFound(KindOrder, id)
	}

	before := orders[idx]
	after := patch.Apply(before)
	if fe := validate.Merged(after); fe != nil {
		return domain.Order{}, &ValidationError{Fields: fe}
	}
	now := s.stamp()
	after.UpdatedAt = &now

	updated := slices.Clone(orders)
	updated[idx] = after
	if err := s.repo.SaveOrders(ctx, updated); err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}

	if err := s.reconcileDebt(ctx, before, after); err != nil {
		s.log.Error().Err(err).Str("order_id", id).Msg("debt update failed, restoring order")
		if rerr := s.repo.SaveOrders(ctx, orders); rerr != nil {
			s.log.Error().Err(rerr).Str("order_id", id).Msg("order restore failed")
		}
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}

	s.log.Info().Str("order_id", id).Msg("order updated")
	return after, nil
}

// GetOrderByID returns the order id.
func (s *JournalService) GetOrderByID(ctx context.Context, id string) (_ domain.Order, err error) {
	ctx, span := s.start(ctx, "GetOrderByID", attribute.String("order.id", id))
	defer func() { finish(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	idx := orderIndex(orders, id)
	if idx < 0 {
		return domain.Order{}, notFound(KindOrder, id)
	}
	return orders[idx], nil
}

// GetOrders returns a page of the journal, most recent first.
func (s *JournalService) GetOrders(ctx context.Context, limit, offset int) (_ []domain.Order, err error) {
	ctx, span := s.start(ctx, "GetOrders", attribute.Int("limit", limit), attribute.Int("offset", offset))
	defer func() { finish(span, err) }()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}
	if offset >= len(orders) {
		return []domain.Order{}, nil
	}
	end := min(offset+limit, len(orders))
	return orders[offset:end], nil
}

// GetAllOrders returns the whole journal, most recent first.
func (s *JournalService) GetAllOrders(ctx context.Context) (_ []domain.Order, err error) {
	ctx, span := s.start(ctx, "GetAllOrders")
	defer func() { finish(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo.Orders(ctx)
}

// SearchByDateRange returns the orders dated within [start, end].
func (s *JournalService) SearchByDateRange(ctx context.Context, start, end string) (_ []domain.Order, err error) {
	ctx, span := s.start(ctx, "SearchByDateRange", attribute.String("start", start), attribute.String("end", end))
	defer func() { finish(span, err) }()

	if start, err = s.normalizeDate(start); err != nil {
		return nil, err
	}
	if end, err = s.normalizeDate(end); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return stats.InRange(orders, start, end), nil
}
