// Package export renders the journal into its document formats and parses
// imported backups. Writers here are pure: callers hand in the orders and
// debts to render and decide where the bytes go.
//
// Formats:
//   - JSON: full-fidelity backup, the only format Import accepts.
//   - Localized JSON: Cyrillic keys and display values, not re-importable.
//   - CSV: semicolon separated, every cell quoted, UTF-8 BOM, CRLF.
//   - Spreadsheet: the CSV columns as a cell grid, written by a SheetWriter.
//   - Printable: an HTML report handed to a DocumentRenderer.
package export

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/format"
	"github.com/tbourn/service-journal/internal/schema"
)

// Columns is the header shared by the CSV and spreadsheet exports.
var Columns = []string{
	"Дата",
	"День недели",
	"Клиент",
	"Авто",
	"Работы (описание)",
	"Сумма работы",
	"Детали наши",
	"Сумма деталей наших",
	"Детали клиента",
	"Оплата",
	"Итого",
	"Фреон (г)",
	"Комментарий",
}

// Column positions used by the summary blocks.
const (
	colWork     = 5
	colOurParts = 7
	colTotal    = 10
)

// Labels of the summary blocks.
const (
	labelTotals    = "ИТОГОВЫЕ СУММЫ"
	labelBreakdown = "РАЗБИВКА ПО ОПЛАТЕ"
	labelWork      = "Сумма работы:"
	labelOurParts  = "Сумма деталей наших:"
	labelGrand     = "ИТОГО:"
	labelCash      = "Наличные:"
	labelCashless  = "Безналичные:"
	labelDebt      = "Долги:"
)

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// JSON renders the full-fidelity backup document.
func JSON(orders []domain.Order, debts []domain.Debt, now time.Time) ([]byte, error) {
	return marshalIndent(schema.Document{
		Version:   schema.ExportVersion,
		Timestamp: format.Timestamp(now),
		Orders:    schema.OrdersFromDomain(orders),
		Debts:     schema.DebtsFromDomain(debts),
	})
}

type localizedOrder struct {
	Date           string `json:"дата"`
	Weekday        string `json:"день_недели"`
	Client         string `json:"клиент"`
	Car            string `json:"авто"`
	Job            string `json:"работы_описание"`
	WorkAmount     int64  `json:"сумма_работы"`
	OurParts       string `json:"детали_наши"`
	OurPartsAmount int64  `json:"сумма_деталей_наших"`
	ClientParts    string `json:"детали_клиента"`
	PayType        string `json:"оплата"`
	Total          int64  `json:"итого"`
	FreonGrams     any    `json:"фреон_граммы"`
	Comment        string `json:"комментарий"`
}

// freonCell is the freon amount, or "" when absent or zero.
func freonCell(o domain.Order) any {
	if o.FreonGrams == nil || *o.FreonGrams == 0 {
		return ""
	}
	return *o.FreonGrams
}

// LocalizedJSON renders orders with Russian keys and display values.
func LocalizedJSON(orders []domain.Order) ([]byte, error) {
	out := make([]localizedOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, localizedOrder{
			Date:           o.Date,
			Weekday:        format.DayOfWeek(o.Date),
			Client:         o.Client,
			Car:            o.Car,
			Job:            o.Job,
			WorkAmount:     o.WorkAmount,
			OurParts:       o.OurParts,
			OurPartsAmount: o.OurPartsAmount,
			ClientParts:    o.ClientParts,
			PayType:        format.PayTypeExport(o.PayType),
			Total:          o.TotalAmount,
			FreonGrams:     freonCell(o),
			Comment:        o.Comment,
		})
	}
	return marshalIndent(struct {
		Orders []localizedOrder `json:"заказы"`
	}{out})
}
