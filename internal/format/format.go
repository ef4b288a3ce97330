// Package format holds the journal's pure presentation and normalization
// helpers: storage dates, ISO timestamps, Russian display of amounts, dates
// and pay types.
package format

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/service-journal/internal/domain"
)

// Layouts used across the journal.
const (
	StoreDateLayout   = "2006-01-02"
	DisplayDateLayout = "02.01.2006"
	TimestampLayout   = "2006-01-02T15:04:05.000Z07:00"
)

// ErrBadDate is returned when a date string matches none of the accepted layouts.
var ErrBadDate = errors.New("unrecognized date")

var ruPrinter = message.NewPrinter(language.Russian)

var weekdays = [...]string{"Воскресенье", "Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота"}

// Amount renders whole roubles with Russian digit grouping, e.g. "1 234 ₽".
func Amount(n int64) string {
	return ruPrinter.Sprintf("%d ₽", n)
}

// DateToStore renders t as a calendar day in loc.
func DateToStore(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(StoreDateLayout)
}

// Timestamp renders t in UTC with millisecond precision and a Z suffix.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts Timestamp output and any RFC 3339 value.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// NormalizeDate converts a caller-supplied date into the storage form.
// An empty value means today. Accepted inputs are "YYYY-MM-DD",
// "dd.mm.yyyy" and RFC 3339 timestamps; the latter are converted into loc
// first so a late-evening UTC value never lands on the wrong day.
func NormalizeDate(s string, now time.Time, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return DateToStore(now, loc), nil
	}
	if t, err := time.ParseInLocation(StoreDateLayout, s, loc); err == nil {
		return t.Format(StoreDateLayout), nil
	}
	if t, err := time.ParseInLocation(DisplayDateLayout, s, loc); err == nil {
		return t.Format(StoreDateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateToStore(t, loc), nil
	}
	return "", ErrBadDate
}

// Date renders a stored date as "dd.mm.yyyy". Unparseable input is returned as is.
func Date(s string) string {
	if s == "" {
		return ""
	}
	if t, err := time.Parse(StoreDateLayout, s); err == nil {
		return t.Format(DisplayDateLayout)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Format(DisplayDateLayout)
	}
	return s
}

// DateTime renders t as "dd.mm.yyyy, hh:mm" in loc.
func DateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("02.01.2006, 15:04")
}

// DateRange renders an inclusive range, collapsing it when both ends match.
func DateRange(start, end string) string {
	s, e := Date(start), Date(end)
	if s == e {
		return s
	}
	return s + " — " + e
}

// RelativeDate renders today and yesterday as words and anything else as Date.
func RelativeDate(s string, now time.Time, loc *time.Location) string {
	if s == "" {
		return ""
	}
	d, err := NormalizeDate(s, now, loc)
	if err != nil {
		return s
	}
	switch d {
	case DateToStore(now, loc):
		return "Сегодня"
	case DateToStore(now.AddDate(0, 0, -1), loc):
		return "Вчера"
	}
	return Date(d)
}

// DayOfWeek returns the Russian weekday name of a stored date, or "" if it
// cannot be parsed.
func DayOfWeek(s string) string {
	t, err := time.Parse(StoreDateLayout, s)
	if err != nil {
		return ""
	}
	return weekdays[t.Weekday()]
}

// PayTypeText is the long label shown next to an order.
func PayTypeText(p domain.PayType) string {
	switch p {
	case domain.PayCash:
		return "💵 Наличные"
	case domain.PayCashless:
		return "💳 Безналичные"
	case domain.PayDebt:
		return "⚠️ Долг"
	}
	return string(p)
}

// PayTypeShort is the compact label used in tables and exports.
func PayTypeShort(p domain.PayType) string {
	switch p {
	case domain.PayCash:
		return "Нал"
	case domain.PayCashless:
		return "Безнал"
	case domain.PayDebt:
		return "Долг"
	}
	return string(p)
}

// PayTypeExport is the label written to spreadsheet and localized exports:
// anything that is not cash or cashless is reported as a debt.
func PayTypeExport(p domain.PayType) string {
	switch p {
	case domain.PayCash, domain.PayCashless:
		return PayTypeShort(p)
	}
	return "Долг"
}

// PayTypePrint is the narrow label used by the printable report.
func PayTypePrint(p domain.PayType) string {
	if p == domain.PayCashless {
		return "Б/Н"
	}
	return PayTypeExport(p)
}
