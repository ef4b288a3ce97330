// Package schema is the journal's serialization boundary. It owns the JSON
// shape of every persisted or exported record, including the legacy
// "amount" and "parts" mirrors that older readers still expect, and the
// upgrade of pre-v2 order records. Business code works on domain types and
// never sees the mirrors.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/service-journal/internal/domain"
	"github.com/tbourn/service-journal/internal/format"
)

// ExportVersion tags full-fidelity export documents.
const ExportVersion = "2.0"

// Num is a whole amount that tolerates the loose encodings found in old
// data: floats are rounded, numeric strings are parsed, "" reads as 0 and
// null leaves the value untouched.
type Num int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Num) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("schema: bad amount %q", b)
	}
	*n = Num(math.Round(f))
	return nil
}

func ptr[T any](v T) *T { return &v }

func numOr(p *Num, def int64) int64 {
	if p == nil {
		return def
	}
	return int64(*p)
}

// OrderRecord is the persisted form of an order. Pointer amounts keep
// "absent" distinguishable from zero, which the migration relies on.
type OrderRecord struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Client         string  `json:"client"`
	Car            string  `json:"car"`
	Job            string  `json:"job"`
	WorkAmount     *Num    `json:"workAmount,omitempty"`
	OurParts       string  `json:"ourParts"`
	OurPartsAmount *Num    `json:"ourPartsAmount,omitempty"`
	ClientParts    string  `json:"clientParts"`
	TotalAmount    *Num    `json:"totalAmount,omitempty"`
	PayType        string  `json:"payType"`
	FreonGrams     *Num    `json:"freonGrams"`
	Comment        string  `json:"comment"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	UpdatedAt      string  `json:"updatedAt,omitempty"`
	Amount         *Num    `json:"amount,omitempty"`
	Parts          *string `json:"parts,omitempty"`
}

// Total is totalAmount, falling back to the legacy amount.
func (r OrderRecord) Total() int64 {
	if t := numOr(r.TotalAmount, 0); t != 0 {
		return t
	}
	return numOr(r.Amount, 0)
}

// DebtRecord is the persisted form of a debt.
type DebtRecord struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	Client    string  `json:"client"`
	Car       string  `json:"car"`
	Amount    Num     `json:"amount"`
	Closed    bool    `json:"closed"`
	ClosedAt  *string `json:"closedAt"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// SnapshotRecord is the persisted form of an undo snapshot. Timestamp is
// Unix milliseconds.
type SnapshotRecord struct {
	ID          string      `json:"id"`
	Order       OrderRecord `json:"order"`
	DeletedDebt *DebtRecord `json:"deletedDebt"`
	Timestamp   int64       `json:"timestamp"`
}

// Document is the full-fidelity export and the only accepted import format.
type Document struct {
	Version   string        `json:"version,omitempty"`
	Timestamp string        `json:"timestamp,omitempty"`
	Orders    []OrderRecord `json:"orders"`
	Debts     []DebtRecord  `json:"debts"`
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := format.ParseTimestamp(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return format.Timestamp(t)
}

// OrderToDomain maps a stored record to a domain order.
func OrderToDomain(r OrderRecord) domain.Order {
	o := domain.Order{
		ID:             r.ID,
		Date:           r.Date,
		Client:         r.Client,
		Car:            r.Car,
		Job:            r.Job,
		WorkAmount:     numOr(r.WorkAmount, 0),
		OurParts:       r.OurParts,
		OurPartsAmount: numOr(r.OurPartsAmount, 0),
		ClientParts:    r.ClientParts,
		TotalAmount:    r.Total(),
		PayType:        domain.PayType(r.PayType),
		Comment:        r.Comment,
		CreatedAt:      parseTime(r.CreatedAt),
	}
	if o.ClientParts == "" && r.Parts != nil {
		o.ClientParts = *r.Parts
	}
	if r.FreonGrams != nil {
		o.FreonGrams = ptr(int64(*r.FreonGrams))
	}
	if u := parseTime(r.UpdatedAt); !u.IsZero() {
		o.UpdatedAt = &u
	}
	return o
}

// OrderFromDomain maps a domain order to its stored record, writing the
// legacy mirrors.
func OrderFromDomain(o domain.Order) OrderRecord {
	r := OrderRecord{
		ID:             o.ID,
		Date:           o.Date,
		Client:         o.Client,
		Car:            o.Car,
		Job:            o.Job,
		WorkAmount:     ptr(Num(o.WorkAmount)),
		OurParts:       o.OurParts,
		OurPartsAmount: ptr(Num(o.OurPartsAmount)),
		ClientParts:    o.ClientParts,
		TotalAmount:    ptr(Num(o.TotalAmount)),
		PayType:        string(o.PayType),
		Comment:        o.Comment,
		CreatedAt:      stamp(o.CreatedAt),
		Amount:         ptr(Num(o.TotalAmount)),
		Parts:          ptr(o.ClientParts),
	}
	if o.FreonGrams != nil {
		r.FreonGrams = ptr(Num(*o.FreonGrams))
	}
	if o.UpdatedAt != nil {
		r.UpdatedAt = stamp(*o.UpdatedAt)
	}
	return r
}

// DebtToDomain maps a stored debt record to a domain debt.
func DebtToDomain(r DebtRecord) domain.Debt {
	d := domain.Debt{
		ID:        r.ID,
		OrderID:   r.OrderID,
		Client:    r.Client,
		Car:       r.Car,
		Amount:    int64(r.Amount),
		Closed:    r.Closed,
		CreatedAt: parseTime(r.CreatedAt),
	}
	if r.ClosedAt != nil {
		if t := parseTime(*r.ClosedAt); !t.IsZero() {
			d.ClosedAt = &t
		}
	}
	return d
}

// DebtFromDomain maps a domain debt to its stored record.
func DebtFromDomain(d domain.Debt) DebtRecord {
	r := DebtRecord{
		ID:        d.ID,
		OrderID:   d.OrderID,
		Client:    d.Client,
		Car:       d.Car,
		Amount:    Num(d.Amount),
		Closed:    d.Closed,
		CreatedAt: stamp(d.CreatedAt),
	}
	if d.ClosedAt != nil {
		r.ClosedAt = ptr(stamp(*d.ClosedAt))
	}
	return r
}

// SnapshotToDomain maps a stored snapshot to a domain snapshot.
func SnapshotToDomain(r SnapshotRecord) domain.Snapshot {
	s := domain.Snapshot{
		ID:        r.ID,
		Order:     OrderToDomain(r.Order),
		Timestamp: time.UnixMilli(r.Timestamp).UTC(),
	}
	if r.DeletedDebt != nil {
		s.DeletedDebt = ptr(DebtToDomain(*r.DeletedDebt))
	}
	return s
}

// SnapshotFromDomain maps a domain snapshot to its stored record.
func SnapshotFromDomain(s domain.Snapshot) SnapshotRecord {
	r := SnapshotRecord{
		ID:        s.ID,
		Order:     OrderFromDomain(s.Order),
		Timestamp: s.Timestamp.UnixMilli(),
	}
	if s.DeletedDebt != nil {
		r.DeletedDebt = ptr(DebtFromDomain(*s.DeletedDebt))
	}
	return r
}

// OrdersToDomain maps a slice of records.
func OrdersToDomain(rs []OrderRecord) []domain.Order {
	out := make([]domain.Order, 0, len(rs))
	for _, r := range rs {
		out = append(out, OrderToDomain(r))
	}
	return out
}

// OrdersFromDomain maps a slice of orders.
func OrdersFromDomain(orders []domain.Order) []OrderRecord {
	out := make([]OrderRecord, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderFromDomain(o))
	}
	return out
}

// DebtsToDomain maps a slice of records.
func DebtsToDomain(rs []DebtRecord) []domain.Debt {
	out := make([]domain.Debt, 0, len(rs))
	for _, r := range rs {
		out = append(out, DebtToDomain(r))
	}
	return out
}

// DebtsFromDomain maps a slice of debts.
func DebtsFromDomain(ds []domain.Debt) []DebtRecord {
	out := make([]DebtRecord, 0, len(ds))
	for _, d := range ds {
		out = append(out, DebtFromDomain(d))
	}
	return out
}
