package export

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/schema"
)

var (
	// ErrMalformed is returned when the payload is not a JSON export document.
	ErrMalformed = errors.New("malformed import document")
	// ErrEmptyImport is returned when the document carries no orders and no debts.
	ErrEmptyImport = errors.New("import document has no orders and no debts")
)

// ParseImport decodes a full-fidelity export document. Orders without a
// work amount are upgraded the way the stored-schema migration upgrades
// them, totals are recomputed from their components, and records without an
// id get one from newID.
func ParseImport(data []byte, newID func(prefix string) string) ([]domain.Order, []domain.Debt, error) {
	var doc schema.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(doc.Orders) == 0 && len(doc.Debts) == 0 {
		return nil, nil, ErrEmptyImport
	}

	orders := make([]domain.Order, 0, len(doc.Orders))
	for _, r := range doc.Orders {
		if r.WorkAmount == nil {
			migrated, _ := schema.MigrateOrders([]schema.OrderRecord{r})
			r = migrated[0]
		}
		o := schema.OrderToDomain(r)
		o.RecomputeTotal()
		if o.ID == "" {
			o.ID = newID("order")
		}
		orders = append(orders, o)
	}

	debts := make([]domain.Debt, 0, len(doc.Debts))
	for _, r := range doc.Debts {
		d := schema.DebtToDomain(r)
		if d.ID == "" {
			d.ID = newID("debt")
		}
		debts = append(debts, d)
	}
	return orders, debts, nil
}

// MergeByID prepends the incoming records whose id is not yet present and
// returns the merged list with the number of records added. Duplicates
// inside incoming are added once.
func MergeByID[T any](existing, incoming []T, id func(T) string) ([]T, int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, e := range existing {
		seen[id(e)] = struct{}{}
	}
	fresh := make([]T, 0, len(incoming))
	for _, in := range incoming {
		k := id(in)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, in)
	}
	merged := make([]T, 0, len(fresh)+len(existing))
	merged = append(merged, fresh...)
	merged = append(merged, existing...)
	return merged, len(fresh)
}
