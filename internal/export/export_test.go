package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/schema"
)

func sampleOrders() []domain.Order {
	freon := int64(250)
	return []domain.Order{
		{
			ID: "order_1", Date: "2024-01-15", Client: "Иван", Car: "Lada",
			Job: `Замена "фильтра"`, WorkAmount: 700, OurParts: "фильтр", OurPartsAmount: 300,
			ClientParts: "масло", TotalAmount: 1000, PayType: domain.PayCash, FreonGrams: &freon,
		},
		{
			ID: "order_2", Date: "2024-01-16", Client: "Пётр", Car: "Kia",
			Job: "Заправка", WorkAmount: 500, TotalAmount: 500, PayType: domain.PayDebt,
		},
		{
			ID: "order_3", Date: "2024-01-17", Client: "Анна", Car: "VW",
			Job: "<script>alert(1)</script>", WorkAmount: 200, TotalAmount: 200, PayType: domain.PayCashless,
		},
	}
}

func TestJSON_FullFidelityDocument(t *testing.T) {
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	debts := []domain.Debt{{ID: "debt_1", OrderID: "order_2", Client: "Пётр", Amount: 500, CreatedAt: now}}

	b, err := JSON(sampleOrders(), debts, now)
	require.NoError(t, err)

	var doc schema.Document
	require.NoError(t, json.Unmarshal(b, &doc))
	require.Equal(t, "2.0", doc.Version)
	require.Equal(t, "2024-02-01T10:00:00.000Z", doc.Timestamp)
	require.Len(t, doc.Orders, 3)
	require.Len(t, doc.Debts, 1)
	require.NotNil(t, doc.Orders[0].Amount)
	require.EqualValues(t, 1000, *doc.Orders[0].Amount)
	require.Contains(t, string(b), "<script>", "HTML must not be escaped in backups")
}

func TestLocalizedJSON_KeysAndLabels(t *testing.T) {
	b, err := LocalizedJSON(sampleOrders())
	require.NoError(t, err)

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	rows := doc["заказы"]
	require.Len(t, rows, 3)
	require.Equal(t, "Понедельник", rows[0]["день_недели"])
	require.Equal(t, "Нал", rows[0]["оплата"])
	require.EqualValues(t, 250, rows[0]["фреон_граммы"])
	require.Equal(t, "Долг", rows[1]["оплата"])
	require.Equal(t, "", rows[1]["фреон_граммы"])
	require.Equal(t, "Безнал", rows[2]["оплата"])
}

func TestCSV_Layout(t *testing.T) {
	out := CSV(sampleOrders())
	require.True(t, strings.HasPrefix(out, bom))

	lines := strings.Split(strings.TrimPrefix(out, bom), "\r\n")
	require.True(t, strings.HasPrefix(lines[0], `"Дата";"День недели";"Клиент"`))
	require.Equal(t, len(Columns), strings.Count(lines[0], ";")+1)

	require.Contains(t, lines[1], `"Замена ""фильтра"""`)
	require.Contains(t, lines[1], `"1000"`)
	require.Contains(t, lines[1], `"250"`)
	require.Contains(t, lines[2], `"Долг"`)

	require.Contains(t, out, `">>> ИТОГОВЫЕ СУММЫ <<<"`)
	require.Contains(t, out, `"ИТОГО:";"1700"`)
	require.Contains(t, out, `">>> РАЗБИВКА ПО ОПЛАТЕ <<<"`)
	require.Contains(t, out, divider)

	for _, l := range lines {
		if l == "" {
			continue
		}
		require.True(t, strings.HasPrefix(l, `"`) && strings.HasSuffix(l, `"`), "unquoted line %q", l)
	}
}

func TestCSV_EmptyJournalStillHasSummary(t *testing.T) {
	out := CSV(nil)
	require.Contains(t, out, `"Сумма работы:";"0"`)
	require.Contains(t, out, `"Наличные:"`)
}

func TestGrid_SummaryPositions(t *testing.T) {
	grid := Grid(sampleOrders())
	require.Equal(t, "Дата", grid[0][0])
	require.Len(t, grid[1], len(Columns))
	require.Empty(t, grid[4])
	require.Empty(t, grid[5])
	require.Equal(t, "=== ИТОГОВЫЕ СУММЫ ===", grid[6][0])
	require.Equal(t, labelWork, grid[7][colWork-1])
	require.EqualValues(t, 1400, grid[7][colWork])
	require.EqualValues(t, 300, grid[8][colOurParts])
	require.EqualValues(t, 1700, grid[9][colTotal])
	require.Equal(t, labelCash, grid[12][0])
	require.EqualValues(t, 1000, grid[12][colTotal])
	require.EqualValues(t, 200, grid[13][colTotal])
	require.EqualValues(t, 500, grid[14][colTotal])
	require.Len(t, ColumnWidths, len(Columns))
}

func TestXLSX_Excelize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, sampleOrders(), nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	require.Equal(t, []string{SheetName}, f.GetSheetList())
	v, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	require.Equal(t, "Дата", v)

	v, err = f.GetCellValue(SheetName, "C2")
	require.NoError(t, err)
	require.Equal(t, "Иван", v)

	v, err = f.GetCellValue(SheetName, "K2")
	require.NoError(t, err)
	require.Equal(t, "1000", v)

	w, err := f.GetColWidth(SheetName, "E")
	require.NoError(t, err)
	require.InDelta(t, 40, w, 0.01)
}

type recordingSheet struct {
	sheet string
	rows  int
}

func (r *recordingSheet) WriteSheet(_ io.Writer, sheet string, grid [][]any, _ []float64) error {
	r.sheet, r.rows = sheet, len(grid)
	return nil
}

func TestXLSX_UsesInjectedWriter(t *testing.T) {
	rec := &recordingSheet{}
	require.NoError(t, XLSX(io.Discard, sampleOrders(), rec))
	require.Equal(t, SheetName, rec.sheet)
	require.Equal(t, len(Grid(sampleOrders())), rec.rows)
}

func TestPrintableHTML_EscapesAndSummarizes(t *testing.T) {
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	b, err := PrintableHTML(sampleOrders(), now, time.UTC)
	require.NoError(t, err)

	html := string(b)
	require.Contains(t, html, "<title>Отчёт по заказам</title>")
	require.Contains(t, html, "Дата создания: 01.02.2024")
	require.Contains(t, html, "&lt;script&gt;")
	require.NotContains(t, html, "<script>")
	require.Contains(t, html, "Б/Н")
	require.Contains(t, html, "1700 ₽")
	require.Contains(t, html, "РАЗБИВКА ПО ОПЛАТЕ:")
}

func TestFileRenderer_WritesFileURI(t *testing.T) {
	dir := t.TempDir()
	r := FileRenderer{Dir: dir, Now: func() time.Time { return time.UnixMilli(1700000000000) }}

	uri, err := r.Render(context.Background(), []byte("<html></html>"))
	require.NoError(t, err)

	u, err := url.Parse(uri)
	require.NoError(t, err)
	require.Equal(t, "file", u.Scheme)
	require.True(t, strings.HasSuffix(u.Path, "report_1700000000000.html"))

	data, err := os.ReadFile(u.Path)
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(data))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseImport(t *testing.T) {
	n := 0
	newID := func(prefix string) string {
		n++
		return prefix + "_gen_" + string(rune('0'+n))
	}
	data := []byte(`{
		"orders": [
			{"date": "2023-05-01", "client": "Old", "job": "x", "amount": 700, "parts": "filter", "payType": "cash"},
			{"id": "order_9", "date": "2024-01-01", "client": "New", "job": "y",
			 "workAmount": 100, "ourPartsAmount": "50", "totalAmount": 999, "payType": "debt"}
		],
		"debts": [{"orderId": "order_9", "client": "New", "amount": 150, "closed": false}]
	}`)

	orders, debts, err := ParseImport(data, newID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Len(t, debts, 1)

	legacy := orders[0]
	require.Equal(t, "order_gen_1", legacy.ID)
	require.EqualValues(t, 700, legacy.WorkAmount)
	require.EqualValues(t, 0, legacy.OurPartsAmount)
	require.Equal(t, "filter", legacy.ClientParts)
	require.EqualValues(t, 700, legacy.TotalAmount)

	require.Equal(t, "order_9", orders[1].ID)
	require.EqualValues(t, 150, orders[1].TotalAmount)

	require.Equal(t, "debt_gen_2", debts[0].ID)
	require.EqualValues(t, 150, debts[0].Amount)
}

func TestParseImport_TotalOnlyOrderKeepsTotal(t *testing.T) {
	id := func(p string) string { return p + "_x" }
	data := []byte(`{"orders":[{"id":"o1","date":"2024-01-05","client":"Иванов","job":"Замена","totalAmount":500,"payType":"cash"}]}`)

	orders, _, err := ParseImport(data, id)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.EqualValues(t, 500, orders[0].WorkAmount)
	require.EqualValues(t, 0, orders[0].OurPartsAmount)
	require.EqualValues(t, 500, orders[0].TotalAmount)
}

func TestParseImport_NullDebtAmount(t *testing.T) {
	id := func(p string) string { return p + "_x" }
	data := []byte(`{"debts":[{"id":"d1","orderId":"o1","client":"A","amount":null,"closed":false}]}`)

	_, debts, err := ParseImport(data, id)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	require.Equal(t, "d1", debts[0].ID)
	require.Zero(t, debts[0].Amount)
}

func TestParseImport_Errors(t *testing.T) {
	id := func(string) string { return "x" }

	_, _, err := ParseImport([]byte("not json"), id)
	require.ErrorIs(t, err, ErrMalformed)

	_, _, err = ParseImport([]byte(`{"debts":[{"id":"d1","amount":1}]} xyz`), id)
	require.ErrorIs(t, err, ErrMalformed)

	_, _, err = ParseImport([]byte(`{"debts":[{"id":"d1","amount":1}]}{}`), id)
	require.ErrorIs(t, err, ErrMalformed)

	_, _, err = ParseImport([]byte(`{"orders": [], "debts": []}`), id)
	require.ErrorIs(t, err, ErrEmptyImport)

	_, _, err = ParseImport([]byte(`{}`), id)
	require.ErrorIs(t, err, ErrEmptyImport)
}

func TestMergeByID(t *testing.T) {
	id := func(o domain.Order) string { return o.ID }
	existing := []domain.Order{{ID: "a"}, {ID: "b"}}
	incoming := []domain.Order{{ID: "b"}, {ID: "c"}, {ID: "c"}, {ID: "d"}}

	merged, added := MergeByID(existing, incoming, id)
	require.Equal(t, 2, added)
	got := make([]string, 0, len(merged))
	for _, o := range merged {
		got = append(got, o.ID)
	}
	require.Equal(t, []string{"c", "d", "a", "b"}, got)

	again, added := MergeByID(merged, incoming, id)
	require.Zero(t, added)
	require.Len(t, again, 4)
}
