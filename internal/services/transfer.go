package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/export"
)

// ErrNoRenderer is returned by ExportPrintable when no DocumentRenderer is configured.
var ErrNoRenderer = errors.New("no document renderer configured")

const msgBadImport = "Неверный формат JSON"

// snapshot reads orders and debts under the shared lock.
func (s *JournalService) snapshot(ctx context.Context, withDebts bool) ([]domain.Order, []domain.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !withDebts {
		return orders, nil, nil
	}
	debts, err := s.repo.Debts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return orders, debts, nil
}

// ExportJSON renders the full backup of orders and debts.
func (s *JournalService) ExportJSON(ctx context.Context) (_ []byte, err error) {
	ctx, span := s.start(ctx, "ExportJSON")
	defer func() { finish(span, err) }()

	orders, debts, err := s.snapshot(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return export.JSON(orders, debts, s.now())
}

// ExportLocalizedJSON renders orders with Russian keys for reading.
func (s *JournalService) ExportLocalizedJSON(ctx context.Context) (_ []byte, err error) {
	ctx, span := s.start(ctx, "ExportLocalizedJSON")
	defer func() { finish(span, err) }()

	orders, _, err := s.snapshot(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("export localized json: %w", err)
	}
	return export.LocalizedJSON(orders)
}

// ExportCSV renders orders as a spreadsheet-friendly CSV table.
func (s *JournalService) ExportCSV(ctx context.Context) (_ string, err error) {
	ctx, span := s.start(ctx, "ExportCSV")
	defer func() { finish(span, err) }()

	orders, _, err := s.snapshot(ctx, false)
	if err != nil {
		return "", fmt.Errorf("export csv: %w", err)
	}
	return export.CSV(orders), nil
}

// ExportXLSX writes the orders workbook to w.
func (s *JournalService) ExportXLSX(ctx context.Context, w io.Writer) (err error) {
	ctx, span := s.start(ctx, "ExportXLSX")
	defer func() { finish(span, err) }()

	orders, _, err := s.snapshot(ctx, false)
	if err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}
	return export.XLSX(w, orders, s.sheetWriter)
}

// ExportPrintable renders the printable report and returns the URI the
// renderer placed it at.
func (s *JournalService) ExportPrintable(ctx context.Context) (_ string, err error) {
	ctx, span := s.start(ctx, "ExportPrintable")
	defer func() { finish(span, err) }()

	if s.renderer == nil {
		return "", ErrNoRenderer
	}
	orders, _, err := s.snapshot(ctx, false)
	if err != nil {
		return "", fmt.Errorf("export printable: %w", err)
	}
	html, err := export.PrintableHTML(orders, s.now(), s.loc)
	if err != nil {
		return "", fmt.Errorf("export printable: %w", err)
	}
	uri, err := s.renderer.Render(ctx, html)
	if err != nil {
		return "", fmt.Errorf("export printable: %w", err)
	}
	s.log.Info().Str("uri", uri).Int("orders", len(orders)).Msg("printable report rendered")
	return uri, nil
}

// ImportJSON merges a backup produced by ExportJSON into the journal. Records
// whose id already exists are left untouched; new ones are placed ahead of
// the existing records. Importing the same document twice adds nothing the
// second time.
func (s *JournalService) ImportJSON(ctx context.Context, data []byte) (_ domain.ImportResult, err error) {
	ctx, span := s.start(ctx, "ImportJSON", attribute.Int("payload.bytes", len(data)))
	defer func() { finish(span, err) }()

	incomingOrders, incomingDebts, err := export.ParseImport(data, s.newID)
	if err != nil {
		s.log.Warn().Err(err).Msg("import rejected")
		return domain.ImportResult{}, &ValidationError{Reason: msgBadImport}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.repo.Orders(ctx)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("import: %w", err)
	}
	debts, err := s.repo.Debts(ctx)
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("import: %w", err)
	}

	mergedOrders, addedOrders := export.MergeByID(orders, incomingOrders, func(o domain.Order) string { return o.ID })
	mergedDebts, addedDebts := export.MergeByID(debts, incomingDebts, func(d domain.Debt) string { return d.ID })

	if addedOrders > 0 {
		if err := s.repo.SaveOrders(ctx, mergedOrders); err != nil {
			return domain.ImportResult{}, fmt.Errorf("import: %w", err)
		}
	}
	if addedDebts > 0 {
		if err := s.repo.SaveDebts(ctx, mergedDebts); err != nil {
			if addedOrders > 0 {
				if rerr := s.repo.SaveOrders(ctx, orders); rerr != nil {
					s.log.Error().Err(rerr).Msg("import rollback failed")
				}
			}
			return domain.ImportResult{}, fmt.Errorf("import: %w", err)
		}
	}

	s.log.Info().Int("orders", addedOrders).Int("debts", addedDebts).Msg("import complete")
	return domain.ImportResult{ImportedOrders: addedOrders, ImportedDebts: addedDebts}, nil
}
