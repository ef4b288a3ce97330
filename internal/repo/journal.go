package repo

import (
	"context"
	"encoding/json"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/schema"
)

// Storage keys of the four journal collections.
const (
	KeyOrders    = "@orders"
	KeyDebts     = "@debts"
	KeySnapshots = "@deleted_snapshots"
	KeyMigration = "@migration_v2"
)

// Keys lists every key the journal owns.
func Keys() []string { return []string{KeyOrders, KeyDebts, KeySnapshots, KeyMigration} }

// MigrationReport describes one migration run.
type MigrationReport struct {
	Skipped bool // marker was already current
	Scanned int  // orders inspected
	Changed int  // orders rewritten
}

// Repository owns the journal collections. Each call reads or replaces a
// whole collection; orders and debts are kept most-recent-first.
type Repository interface {
	Orders(ctx context.Context) ([]domain.Order, error)
	SaveOrders(ctx context.Context, orders []domain.Order) error
	Debts(ctx context.Context) ([]domain.Debt, error)
	SaveDebts(ctx context.Context, debts []domain.Debt) error
	Snapshots(ctx context.Context) ([]domain.Snapshot, error)
	SaveSnapshots(ctx context.Context, snaps []domain.Snapshot) error
	Init(ctx context.Context) error
	Migrate(ctx context.Context) (MigrationReport, error)
	Clear(ctx context.Context) error
}

// JSONRepository stores each collection as one JSON array.
type JSONRepository struct {
	store Storage
}

var _ Repository = (*JSONRepository)(nil)

// NewJSONRepository builds a repository over store.
func NewJSONRepository(store Storage) *JSONRepository {
	return &JSONRepository{store: store}
}

func loadList[T any](ctx context.Context, s Storage, key string) ([]T, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, storageErr("get", key, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, storageErr("decode", key, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func saveList[T any](ctx context.Context, s Storage, key string, v []T) error {
	if v == nil {
		v = []T{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return storageErr("encode", key, err)
	}
	return storageErr("set", key, s.Set(ctx, key, string(raw)))
}

// Orders implements Repository.
func (r *JSONRepository) Orders(ctx context.Context) ([]domain.Order, error) {
	recs, err := loadList[schema.OrderRecord](ctx, r.store, KeyOrders)
	if err != nil {
		return nil, err
	}
	return schema.OrdersToDomain(recs), nil
}

// SaveOrders implements Repository.
func (r *JSONRepository) SaveOrders(ctx context.Context, orders []domain.Order) error {
	return saveList(ctx, r.store, KeyOrders, schema.OrdersFromDomain(orders))
}

// Debts implements Repository.
func (r *JSONRepository) Debts(ctx context.Context) ([]domain.Debt, error) {
	recs, err := loadList[schema.DebtRecord](ctx, r.store, KeyDebts)
	if err != nil {
		return nil, err
	}
	return schema.DebtsToDomain(recs), nil
}

// SaveDebts implements Repository.
func (r *JSONRepository) SaveDebts(ctx context.Context, debts []domain.Debt) error {
	return saveList(ctx, r.store, KeyDebts, schema.DebtsFromDomain(debts))
}

// Snapshots implements Repository.
func (r *JSONRepository) Snapshots(ctx context.Context) ([]domain.Snapshot, error) {
	recs, err := loadList[schema.SnapshotRecord](ctx, r.store, KeySnapshots)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Snapshot, 0, len(recs))
	for _, rec := range recs {
		out = append(out, schema.SnapshotToDomain(rec))
	}
	return out, nil
}

// SaveSnapshots implements Repository.
func (r *JSONRepository) SaveSnapshots(ctx context.Context, snaps []domain.Snapshot) error {
	recs := make([]schema.SnapshotRecord, 0, len(snaps))
	for _, s := range snaps {
		recs = append(recs, schema.SnapshotFromDomain(s))
	}
	return saveList(ctx, r.store, KeySnapshots, recs)
}

// Init creates the orders and debts collections when they are missing.
func (r *JSONRepository) Init(ctx context.Context) error {
	for _, key := range []string{KeyOrders, KeyDebts} {
		_, ok, err := r.store.Get(ctx, key)
		if err != nil {
			return storageErr("get", key, err)
		}
		if ok {
			continue
		}
		if err := r.store.Set(ctx, key, "[]"); err != nil {
			return storageErr("set", key, err)
		}
	}
	return nil
}

// Migrate upgrades stored orders to the current schema version. It is safe
// to call on every start: once the marker is current it does nothing, and the
// marker is stamped even when no order needed changes.
func (r *JSONRepository) Migrate(ctx context.Context) (MigrationReport, error) {
	marker, _, err := r.store.Get(ctx, KeyMigration)
	if err != nil {
		return MigrationReport{}, storageErr("get", KeyMigration, err)
	}
	if marker == schema.Version {
		return MigrationReport{Skipped: true}, nil
	}

	recs, err := loadList[schema.OrderRecord](ctx, r.store, KeyOrders)
	if err != nil {
		return MigrationReport{}, err
	}
	migrated, changed := schema.MigrateOrders(recs)
	if changed > 0 {
		if err := saveList(ctx, r.store, KeyOrders, migrated); err != nil {
			return MigrationReport{}, err
		}
	}
	if err := r.store.Set(ctx, KeyMigration, schema.Version); err != nil {
		return MigrationReport{}, storageErr("set", KeyMigration, err)
	}
	return MigrationReport{Scanned: len(recs), Changed: changed}, nil
}

// Clear removes every journal key.
func (r *JSONRepository) Clear(ctx context.Context) error {
	return storageErr("remove", "all", r.store.Remove(ctx, Keys()...))
}
