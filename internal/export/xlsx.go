package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tbourn/service-journal/internal/domain"
)

// SheetName is the worksheet the orders are written to.
const SheetName = "Заказы"

// SheetWriter turns a cell grid into a workbook.
type SheetWriter interface {
	WriteSheet(w io.Writer, sheet string, grid [][]any, widths []float64) error
}

// ExcelizeWriter writes .xlsx workbooks.
type ExcelizeWriter struct{}

// WriteSheet implements SheetWriter.
func (ExcelizeWriter) WriteSheet(w io.Writer, sheet string, grid [][]any, widths []float64) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	for i, r := range grid {
		if len(r) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	for i, wch := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, wch); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}

// XLSX writes the orders spreadsheet through sw.
func XLSX(w io.Writer, orders []domain.Order, sw SheetWriter) error {
	if sw == nil {
		sw = ExcelizeWriter{}
	}
	return sw.WriteSheet(w, SheetName, Grid(orders), ColumnWidths)
}
