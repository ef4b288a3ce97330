// Journal HTTP handlers.
//
// Handlers are transport-thin: they parse path and query parameters, call
// the journal services through the contracts below and translate results
// into JSON or file downloads. All service errors go through failErr.
package handlers

import (
	"context"
	"io"
	"time"

	"github.com/tbourn/service-journal/internal/domain"
)

//
// Service contracts (context-aware)
//

// OrderService covers the order lifecycle including delete and undo.
type OrderService interface {
	SaveOrder(ctx context.Context, in domain.OrderInput) (domain.Order, error)
	UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (domain.Order, error)
	GetOrders(ctx context.Context, limit, offset int) ([]domain.Order, error)
	GetAllOrders(ctx context.Context) ([]domain.Order, error)
	SearchByDateRange(ctx context.Context, start, end string) ([]domain.Order, error)
	DeleteOrder(ctx context.Context, id string, deleteLinkedDebt bool) (domain.DeleteResult, error)
	UndoDeleteOrder(ctx context.Context, snapshotID string) (domain.UndoResult, error)
}

// DebtService lists and settles debts.
type DebtService interface {
	GetDebts(ctx context.Context, onlyOpen bool) ([]domain.Debt, error)
	CloseDebt(ctx context.Context, id string) (domain.Debt, error)
}

// InsightService serves read-only aggregates. Its methods never fail; they
// degrade to empty results.
type InsightService interface {
	SearchClients(ctx context.Context, query string) []string
	SearchCars(ctx context.Context, query string) []string
	GetStats(ctx context.Context, start, end string) domain.Stats
}

// TransferService exports, imports and wipes the journal.
type TransferService interface {
	ExportJSON(ctx context.Context) ([]byte, error)
	ExportLocalizedJSON(ctx context.Context) ([]byte, error)
	ExportCSV(ctx context.Context) (string, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
	ExportPrintable(ctx context.Context) (string, error)
	ImportJSON(ctx context.Context, data []byte) (domain.ImportResult, error)
	ClearAllData(ctx context.Context) error
}

//
// Handler wiring
//

// Handlers groups the journal endpoints.
type Handlers struct {
	orders   OrderService
	debts    DebtService
	insights InsightService
	transfer TransferService

	// now stamps download file names.
	now func() time.Time
}

// New constructs Handlers bound to the given services.
func New(orders OrderService, debts DebtService, insights InsightService, transfer TransferService) *Handlers {
	return &Handlers{orders: orders, debts: debts, insights: insights, transfer: transfer, now: time.Now}
}
