package services

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/service-journal/internal/domain"
)

func debtIndex(debts []domain.Debt, id string) int {
	return slices.IndexFunc(debts, func(d domain.Debt) bool { return d.ID == id })
}

// openDebtIndex finds the open debt of an order.
func openDebtIndex(debts []domain.Debt, orderID string) int {
	return slices.IndexFunc(debts, func(d domain.Debt) bool { return d.OrderID == orderID && !d.Closed })
}

// linkedDebtIndex finds any debt of an order, preferring the open one.
func linkedDebtIndex(debts []domain.Debt, orderID string) int {
	if i := openDebtIndex(debts, orderID); i >= 0 {
		return i
	}
	return slices.IndexFunc(debts, func(d domain.Debt) bool { return d.OrderID == orderID })
}

// createDebt prepends an open debt for o. Callers hold the write lock.
func (s *JournalService) createDebt(ctx context.Context, o domain.Order) (domain.Debt, error) {
	debts, err := s.repo.Debts(ctx)
	if err != nil {
		return domain.Debt{}, err
	}
	d := domain.Debt{
		ID:        s.newID("debt"),
		OrderID:   o.ID,
		Client:    o.Client,
		Car:       o.Car,
		Amount:    o.TotalAmount,
		CreatedAt: s.stamp(),
	}
	if err := s.repo.SaveDebts(ctx, slices.Insert(slices.Clone(debts), 0, d)); err != nil {
		return domain.Debt{}, err
	}
	s.log.Info().Str("debt_id", d.ID).Str("order_id", o.ID).Int64("amount", d.Amount).Msg("debt created")
	return d, nil
}

// reconcileDebt applies the pay type transition of an edited order to its
// debt. Callers hold the write lock.
//
//	debt -> other: the open debt is removed.
//	other -> debt: a debt is created unless the order already has one; a
//	               settled debt is not reopened.
//	debt -> debt:  the open debt follows the order's client, car and total.
func (s *JournalService) reconcileDebt(ctx context.Context, before, after domain.Order) error {
	wasDebt := before.PayType == domain.PayDebt
	isDebt := after.PayType == domain.PayDebt
	if !wasDebt && !isDebt {
		return nil
	}

	debts, err := s.repo.Debts(ctx)
	if err != nil {
		return err
	}

	switch {
	case wasDebt && !isDebt:
		i := openDebtIndex(debts, after.ID)
		if i < 0 {
			return nil
		}
		removed := debts[i]
		if err := s.repo.SaveDebts(ctx, slices.Delete(slices.Clone(debts), i, i+1)); err != nil {
			return err
		}
		s.log.Info().Str("debt_id", removed.ID).Str("order_id", after.ID).Msg("debt removed")

	case !wasDebt && isDebt:
		if i := linkedDebtIndex(debts, after.ID); i >= 0 {
			if debts[i].Closed {
				s.log.Warn().Str("debt_id", debts[i].ID).Str("order_id", after.ID).
					Msg("order switched back to debt but its debt is settled; not reopening")
			}
			return nil
		}
		if _, err := s.createDebt(ctx, after); err != nil {
			return err
		}

	default:
		i := openDebtIndex(debts, after.ID)
		if i < 0 {
			return nil
		}
		d := debts[i]
		if d.Amount == after.TotalAmount && d.Client == after.Client && d.Car == after.Car {
			return nil
		}
		synced := slices.Clone(debts)
		synced[i].Amount = after.TotalAmount
		synced[i].Client = after.Client
		synced[i].Car = after.Car
		if err := s.repo.SaveDebts(ctx, synced); err != nil {
			return err
		}
		s.log.Info().Str("debt_id", d.ID).Str("order_id", after.ID).Msg("debt synced")
	}
	return nil
}

// GetDebts returns the open debts, or every debt when onlyOpen is false.
func (s *JournalService) GetDebts(ctx context.Context, onlyOpen bool) (_ []domain.Debt, err error) {
	ctx, span := s.start(ctx, "GetDebts", attribute.Bool("only_open", onlyOpen))
	defer func() { finish(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	debts, err := s.repo.Debts(ctx)
	if err != nil {
		return nil, err
	}
	if !onlyOpen {
		return debts, nil
	}
	open := make([]domain.Debt, 0, len(debts))
	for _, d := range debts {
		if !d.Closed {
			open = append(open, d)
		}
	}
	return open, nil
}

// CloseDebt settles debt id. Closing a settled debt changes nothing.
func (s *JournalService) CloseDebt(ctx context.Context, id string) (_ domain.Debt, err error) {
	ctx, span := s.start(ctx, "CloseDebt", attribute.String("debt.id", id))
	defer func() { finish(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	debts, err := s.repo.Debts(ctx)
	if err != nil {
		return domain.Debt{}, fmt.Errorf("close debt: %w", err)
	}
	i := debtIndex(debts, id)
	if i < 0 {
		return domain.Debt{}, notFound(KindDebt, id)
	}
	if debts[i].Closed {
		return debts[i], nil
	}

	now := s.stamp()
	closed := slices.Clone(debts)
	closed[i].Closed = true
	closed[i].ClosedAt = &now
	if err := s.repo.SaveDebts(ctx, closed); err != nil {
		return domain.Debt{}, fmt.Errorf("close debt: %w", err)
	}
	s.log.Info().Str("debt_id", id).Msg("debt closed")
	return closed[i], nil
}
