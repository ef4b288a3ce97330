package services

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/service-journal/internal/domain"
)

// DeleteOrder removes order id and records a snapshot that UndoDeleteOrder
// can restore while it is younger than the snapshot TTL. For a debt order
// with deleteLinkedDebt set, its open debt is removed and captured as well.
// LinkedDebt reports the debt found for the order, settled ones included.
func (s *JournalService) DeleteOrder(ctx context.Context, id string, deleteLinkedDebt bool) (_ domain.DeleteResult, err error) {
	ctx, span := s.start(ctx, "DeleteOrder", attribute.String("order.id", id), attribute.Bool("delete_debt", deleteLinkedDebt))
	defer func() { finish(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete order: %w", err)
	}
	idx := orderIndex(orders, id)
	if idx < 0 {
		return domain.DeleteResult{}, notFound(KindOrder, id)
	}
	order := orders[idx]

	var (
		debts    []domain.Debt
		linked   *domain.Debt
		captured *domain.Debt
		debtIdx  = -1
	)
	if deleteLinkedDebt && order.PayType == domain.PayDebt {
		if debts, err = s.repo.Debts(ctx); err != nil {
			return domain.DeleteResult{}, fmt.Errorf("delete order: %w", err)
		}
		if i := linkedDebtIndex(debts, id); i >= 0 {
			d := debts[i]
			linked = &d
			if !d.Closed {
				captured, debtIdx = linked, i
			}
		}
	}

	snap := domain.Snapshot{
		ID:          s.newID("snapshot"),
		Order:       order,
		DeletedDebt: captured,
		Timestamp:   s.stamp(),
	}
	if err := s.pushSnapshot(ctx, snap); err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete order: %w", err)
	}

	if err := s.repo.SaveOrders(ctx, slices.Delete(slices.Clone(orders), idx, idx+1)); err != nil {
		return domain.DeleteResult{}, fmt.Errorf("delete order: %w", err)
	}
	if debtIdx >= 0 {
		if err := s.repo.SaveDebts(ctx, slices.Delete(slices.Clone(debts), debtIdx, debtIdx+1)); err != nil {
			s.log.Error().Err(err).Str("order_id", id).Msg("debt removal failed, restoring order")
			if rerr := s.repo.SaveOrders(ctx, orders); rerr != nil {
				s.log.Error().Err(rerr).Str("order_id", id).Msg("order restore failed")
			}
			return domain.DeleteResult{}, fmt.Errorf("delete order: %w", err)
		}
	}

	ev := s.log.Info().Str("order_id", id).Str("snapshot_id", snap.ID)
	if captured != nil {
		ev = ev.Str("debt_id", captured.ID)
	}
	ev.Msg("order deleted")

	return domain.DeleteResult{DeletedOrder: order, LinkedDebt: linked, SnapshotID: snap.ID}, nil
}

// pushSnapshot appends snap after dropping expired snapshots.
func (s *JournalService) pushSnapshot(ctx context.Context, snap domain.Snapshot) error {
	snaps, err := s.repo.Snapshots(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	kept := make([]domain.Snapshot, 0, len(snaps)+1)
	for _, sn := range snaps {
		if !sn.Expired(now, s.ttl) {
			kept = append(kept, sn)
		}
	}
	if dropped := len(snaps) - len(kept); dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Msg("expired snapshots purged")
	}
	return s.repo.SaveSnapshots(ctx, append(kept, snap))
}

// UndoDeleteOrder restores the order, and its debt when one was captured,
// to the head of their collections and consumes the snapshot. A missing or
// expired snapshot yields a NotFoundError.
func (s *JournalService) UndoDeleteOrder(ctx context.Context, snapshotID string) (_ domain.UndoResult, err error) {
	ctx, span := s.start(ctx, "UndoDeleteOrder", attribute.String("snapshot.id", snapshotID))
	defer func() { finish(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, err := s.repo.Snapshots(ctx)
	if err != nil {
		return domain.UndoResult{}, fmt.Errorf("undo delete: %w", err)
	}
	i := slices.IndexFunc(snaps, func(sn domain.Snapshot) bool { return sn.ID == snapshotID })
	if i < 0 {
		return domain.UndoResult{}, notFound(KindSnapshot, snapshotID)
	}
	snap := snaps[i]
	if snap.Expired(s.now(), s.ttl) {
		s.log.Info().Str("snapshot_id", snapshotID).Msg("undo refused, snapshot expired")
		return domain.UndoResult{}, notFound(KindSnapshot, snapshotID)
	}

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.UndoResult{}, fmt.Errorf("undo delete: %w", err)
	}
	if orderIndex(orders, snap.Order.ID) < 0 {
		if err := s.repo.SaveOrders(ctx, slices.Insert(slices.Clone(orders), 0, snap.Order)); err != nil {
			return domain.UndoResult{}, fmt.Errorf("undo delete: %w", err)
		}
	}

	if snap.DeletedDebt != nil {
		debts, err := s.repo.Debts(ctx)
		if err != nil {
			return domain.UndoResult{}, fmt.Errorf("undo delete: %w", err)
		}
		if debtIndex(debts, snap.DeletedDebt.ID) < 0 {
			if err := s.repo.SaveDebts(ctx, slices.Insert(slices.Clone(debts), 0, *snap.DeletedDebt)); err != nil {
				return domain.UndoResult{}, fmt.Errorf("undo delete: %w", err)
			}
		}
	}

	if err := s.repo.SaveSnapshots(ctx, slices.Delete(slices.Clone(snaps), i, i+1)); err != nil {
		return domain.UndoResult{}, fmt.Errorf("undo delete: %w", err)
	}

	s.log.Info().Str("order_id", snap.Order.ID).Str("snapshot_id", snapshotID).Msg("order restored")
	return domain.UndoResult{Order: snap.Order, Debt: snap.DeletedDebt}, nil
}
