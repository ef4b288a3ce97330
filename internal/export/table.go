package export

import (
	"strconv"
	"strings"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/format"
	"github.com/tbourn/service-journal/internal/stats"
)

// ColumnWidths are the spreadsheet column width hints, in characters.
var ColumnWidths = []float64{12, 15, 20, 15, 40, 15, 30, 20, 30, 12, 15, 12, 40}

const (
	bom     = "\ufeff"
	divider = "=========================="
)

func orderRow(o domain.Order) []any {
	return []any{
		o.Date,
		format.DayOfWeek(o.Date),
		o.Client,
		o.Car,
		o.Job,
		o.WorkAmount,
		o.OurParts,
		o.OurPartsAmount,
		o.ClientParts,
		format.PayTypeExport(o.PayType),
		o.TotalAmount,
		freonCell(o),
		o.Comment,
	}
}

// row returns a full-width row with the given cells set.
func row(cells map[int]any) []any {
	r := make([]any, len(Columns))
	for i := range r {
		r[i] = ""
	}
	for i, v := range cells {
		r[i] = v
	}
	return r
}

// summaryRows lays out the totals and pay-type breakdown. Each amount sits
// under its own column with its label in the column to the left.
func summaryRows(t stats.Totals, heading func(string) string) [][]any {
	return [][]any{
		row(map[int]any{0: heading(labelTotals)}),
		row(map[int]any{colWork - 1: labelWork, colWork: t.Work}),
		row(map[int]any{colOurParts - 1: labelOurParts, colOurParts: t.OurParts}),
		row(map[int]any{colTotal - 1: labelGrand, colTotal: t.Total}),
		{},
		row(map[int]any{0: heading(labelBreakdown)}),
		row(map[int]any{0: labelCash, colTotal: t.Cash}),
		row(map[int]any{0: labelCashless, colTotal: t.Cashless}),
		row(map[int]any{0: labelDebt, colTotal: t.Debt}),
	}
}

// Grid lays orders out as spreadsheet rows: header, one row per order, two
// blank rows and the summary block.
func Grid(orders []domain.Order) [][]any {
	grid := make([][]any, 0, len(orders)+12)
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	grid = append(grid, header)
	for _, o := range orders {
		grid = append(grid, orderRow(o))
	}
	grid = append(grid, []any{}, []any{})
	grid = append(grid, summaryRows(stats.Summarize(orders), func(s string) string {
		return "=== " + s + " ==="
	})...)
	return grid
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	}
	return ""
}

func writeCSVRow(b *strings.Builder, cells []any) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(cellText(c), `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}

// CSV renders orders as a BOM-prefixed, semicolon separated table with every
// cell quoted and CRLF line endings, followed by the summary block.
func CSV(orders []domain.Order) string {
	var b strings.Builder
	b.WriteString(bom)

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	writeCSVRow(&b, header)
	for _, o := range orders {
		writeCSVRow(&b, orderRow(o))
	}

	b.WriteString("\r\n")
	writeCSVRow(&b, row(map[int]any{0: divider}))
	b.WriteString("\r\n")

	for _, r := range summaryRows(stats.Summarize(orders), func(s string) string {
		return ">>> " + s + " <<<"
	}) {
		if len(r) == 0 {
			r = row(nil)
		}
		writeCSVRow(&b, r)
	}
	return b.String()
}
