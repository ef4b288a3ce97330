package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/format"
	"github.com/tbourn/service-journal/internal/stats"
)

// DocumentRenderer turns an HTML report into a document and returns where
// it can be found.
type DocumentRenderer interface {
	Render(ctx context.Context, html []byte) (uri string, err error)
}

// FileRenderer stores the report as a standalone HTML file, ready to be
// printed or converted by the user's browser.
type FileRenderer struct {
	Dir string
	Now func() time.Time
}

// Render implements DocumentRenderer.
func (r FileRenderer) Render(ctx context.Context, html []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("report_%d.html", now().UnixMilli())
	path, err := filepath.Abs(filepath.Join(r.Dir, name))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}

type printableRow struct {
	Date, Weekday, Client, Car, Job    string
	Work, OurPartsAmount, Total        int64
	OurParts, ClientParts, PayTypeText string
}

type printableData struct {
	Created string
	Rows    []printableRow
	Totals  stats.Totals
}

var printableTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Отчёт по заказам</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: Arial, Helvetica, sans-serif; padding: 15px; font-size: 9px; }
h1 { text-align: center; color: #4472C4; margin-bottom: 3px; font-size: 16px; }
.date { text-align: center; color: #666; margin-bottom: 12px; font-size: 9px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 15px; }
th { background-color: #4472C4; color: white; padding: 6px 4px; text-align: left; font-weight: bold; border: 1px solid #000; font-size: 8px; }
td { padding: 4px; border: 1px solid #000; vertical-align: top; font-size: 8px; }
tr:nth-child(even) { background-color: #f9f9f9; }
.wide { max-width: 120px; word-wrap: break-word; overflow-wrap: break-word; }
.number { text-align: right; }
.center { text-align: center; }
.summary { margin-top: 15px; page-break-inside: avoid; }
.summary-title { font-size: 12px; font-weight: bold; color: #4472C4; margin-bottom: 8px; }
.summary-table { width: 50%; margin-bottom: 15px; border-collapse: collapse; }
.summary-table td { padding: 6px; border: 1px solid #ddd; font-size: 9px; }
.summary-table td:first-child { font-weight: bold; background-color: #f0f0f0; width: 60%; }
.summary-table td:last-child { text-align: right; background-color: #FFF2CC; font-weight: bold; width: 40%; }
</style>
</head>
<body>
<h1>Отчёт по заказам</h1>
<div class="date">Дата создания: {{.Created}}</div>
<table>
<thead>
<tr>
<th>Дата</th><th>День</th><th>Клиент</th><th>Авто</th><th>Работы</th>
<th>Сумма<br/>работы</th><th>Детали<br/>наши</th><th>Сумма<br/>деталей</th>
<th>Детали<br/>клиента</th><th>Оплата</th><th>Итого</th>
</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>
<td>{{.Date}}</td>
<td>{{.Weekday}}</td>
<td>{{.Client}}</td>
<td>{{.Car}}</td>
<td class="wide">{{.Job}}</td>
<td class="number">{{.Work}}</td>
<td class="wide">{{.OurParts}}</td>
<td class="number">{{.OurPartsAmount}}</td>
<td class="wide">{{.ClientParts}}</td>
<td class="center">{{.PayTypeText}}</td>
<td class="number"><strong>{{.Total}}</strong></td>
</tr>
{{- end}}
</tbody>
</table>
<div class="summary">
<div class="summary-title">ИТОГОВЫЕ СУММЫ:</div>
<table class="summary-table">
<tr><td>Сумма работы:</td><td>{{.Totals.Work}} ₽</td></tr>
<tr><td>Сумма деталей наших:</td><td>{{.Totals.OurParts}} ₽</td></tr>
<tr><td>ИТОГО:</td><td>{{.Totals.Total}} ₽</td></tr>
</table>
</div>
<div class="summary">
<div class="summary-title">РАЗБИВКА ПО ОПЛАТЕ:</div>
<table class="summary-table">
<tr><td>Наличные:</td><td>{{.Totals.Cash}} ₽</td></tr>
<tr><td>Безналичные:</td><td>{{.Totals.Cashless}} ₽</td></tr>
<tr><td>Долги:</td><td>{{.Totals.Debt}} ₽</td></tr>
</table>
</div>
</body>
</html>
`))

// PrintableHTML renders the printable report. User-entered text is escaped.
func PrintableHTML(orders []domain.Order, now time.Time, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	data := printableData{
		Created: now.In(loc).Format(format.DisplayDateLayout),
		Rows:    make([]printableRow, 0, len(orders)),
		Totals:  stats.Summarize(orders),
	}
	for _, o := range orders {
		data.Rows = append(data.Rows, printableRow{
			Date:           o.Date,
			Weekday:        format.DayOfWeek(o.Date),
			Client:         o.Client,
			Car:            o.Car,
			Job:            o.Job,
			Work:           o.WorkAmount,
			OurParts:       o.OurParts,
			OurPartsAmount: o.OurPartsAmount,
			ClientParts:    o.ClientParts,
			PayTypeText:    format.PayTypePrint(o.PayType),
			Total:          o.TotalAmount,
		})
	}
	var buf bytes.Buffer
	if err := printableTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
