// Package domain defines the journal's core records: service orders, the
// debts derived from them, undo snapshots of deleted orders, and the input,
// patch and result shapes the service layer exchanges with its callers.
// It also carries the GORM model of the key-value table the durable store
// is built on.
package domain

import (
	"strings"
	"time"
)

// PayType is the settlement method of an order.
type PayType string

// Supported pay types.
const (
	PayCash     PayType = "cash"
	PayCashless PayType = "cashless"
	PayDebt     PayType = "debt"
)

// PayTypes lists the pay types in their canonical display order.
func PayTypes() []PayType { return []PayType{PayCash, PayCashless, PayDebt} }

// Valid reports whether p is one of the known pay types.
func (p PayType) Valid() bool {
	switch p {
	case PayCash, PayCashless, PayDebt:
		return true
	}
	return false
}

// Order is one serviced job.
//
// Fields:
//   - ID: "order_<unix ms>_<random>", assigned on save and never changed.
//   - Date: calendar day in the journal's timezone, "YYYY-MM-DD".
//   - WorkAmount / OurPartsAmount: whole currency units, non-negative.
//   - TotalAmount: always WorkAmount + OurPartsAmount, recomputed on every write.
//   - FreonGrams: optional refrigerant amount used on the job.
//   - CreatedAt / UpdatedAt: set by the store, never by the caller.
type Order struct {
	ID             string     `json:"id"`
	Date           string     `json:"date"`
	Client         string     `json:"client"`
	Car            string     `json:"car"`
	Job            string     `json:"job"`
	WorkAmount     int64      `json:"workAmount"`
	OurParts       string     `json:"ourParts"`
	OurPartsAmount int64      `json:"ourPartsAmount"`
	ClientParts    string     `json:"clientParts"`
	TotalAmount    int64      `json:"totalAmount"`
	PayType        PayType    `json:"payType"`
	FreonGrams     *int64     `json:"freonGrams"`
	Comment        string     `json:"comment"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// RecomputeTotal restores the TotalAmount invariant.
func (o *Order) RecomputeTotal() { o.TotalAmount = o.WorkAmount + o.OurPartsAmount }

// Debt is an open or settled claim derived from a debt-type order. Client,
// Car and Amount are denormalized copies of the originating order.
type Debt struct {
	ID        string     `json:"id"`
	OrderID   string     `json:"orderId"`
	Client    string     `json:"client"`
	Car       string     `json:"car"`
	Amount    int64      `json:"amount"`
	Closed    bool       `json:"closed"`
	ClosedAt  *time.Time `json:"closedAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Snapshot captures a deleted order, and the open debt removed with it, so
// the delete can be undone within the retention window.
type Snapshot struct {
	ID          string    `json:"id"`
	Order       Order     `json:"order"`
	DeletedDebt *Debt     `json:"deletedDebt"`
	Timestamp   time.Time `json:"timestamp"`
}

// Expired reports whether the snapshot is older than ttl at now.
func (s Snapshot) Expired(now time.Time, ttl time.Duration) bool {
	return !s.Timestamp.After(now.Add(-ttl))
}

// OrderInput is the caller-supplied data for a new order. Identity,
// timestamps and TotalAmount are never taken from the caller.
type OrderInput struct {
	Date           string  `json:"date"`
	Client         string  `json:"client"         validate:"required,trimmed_min=2"`
	Car            string  `json:"car"`
	Job            string  `json:"job"            validate:"required,not_blank"`
	WorkAmount     int64   `json:"workAmount"     validate:"gte=0,lte=1000000"`
	OurParts       string  `json:"ourParts"`
	OurPartsAmount int64   `json:"ourPartsAmount" validate:"gte=0,lte=1000000"`
	ClientParts    string  `json:"clientParts"`
	PayType        PayType `json:"payType"        validate:"required,oneof=cash cashless debt"`
	FreonGrams     *int64  `json:"freonGrams"     validate:"omitempty,gte=0"`
	Comment        string  `json:"comment"`
}

// OrderPatch is a partial update; nil fields keep their current value.
type OrderPatch struct {
	Date           *string  `json:"date,omitempty"`
	Client         *string  `json:"client,omitempty"`
	Car            *string  `json:"car,omitempty"`
	Job            *string  `json:"job,omitempty"`
	WorkAmount     *int64   `json:"workAmount,omitempty"`
	OurParts       *string  `json:"ourParts,omitempty"`
	OurPartsAmount *int64   `json:"ourPartsAmount,omitempty"`
	ClientParts    *string  `json:"clientParts,omitempty"`
	PayType        *PayType `json:"payType,omitempty"`
	FreonGrams     *int64   `json:"freonGrams,omitempty"`
	Comment        *string  `json:"comment,omitempty"`
}

// Apply returns a copy of o with the patch applied. Client, car and job are
// trimmed and zero freon grams clear the field, as on creation. Date is
// copied verbatim; normalizing it is the caller's job.
func (p OrderPatch) Apply(o Order) Order {
	if p.Date != nil {
		o.Date = *p.Date
	}
	if p.Client != nil {
		o.Client = strings.TrimSpace(*p.Client)
	}
	if p.Car != nil {
		o.Car = strings.TrimSpace(*p.Car)
	}
	if p.Job != nil {
		o.Job = strings.TrimSpace(*p.Job)
	}
	if p.WorkAmount != nil {
		o.WorkAmount = *p.WorkAmount
	}
	if p.OurParts != nil {
		o.OurParts = *p.OurParts
	}
	if p.OurPartsAmount != nil {
		o.OurPartsAmount = *p.OurPartsAmount
	}
	if p.ClientParts != nil {
		o.ClientParts = *p.ClientParts
	}
	if p.PayType != nil {
		o.PayType = *p.PayType
	}
	if p.FreonGrams != nil {
		if v := *p.FreonGrams; v != 0 {
			o.FreonGrams = &v
		} else {
			o.FreonGrams = nil
		}
	}
	if p.Comment != nil {
		o.Comment = *p.Comment
	}
	o.RecomputeTotal()
	return o
}

// PayTypeStats is one group of the by-pay-type breakdown.
type PayTypeStats struct {
	PayType       PayType `json:"payType"`
	Total         int64   `json:"total"`
	TotalWork     int64   `json:"totalWork"`
	TotalOurParts int64   `json:"totalOurParts"`
	Count         int     `json:"count"`
}

// Stats aggregates orders over a date range. ByType keeps the order in
// which pay types were first seen.
type Stats struct {
	Total         int64          `json:"total"`
	TotalWork     int64          `json:"totalWork"`
	TotalOurParts int64          `json:"totalOurParts"`
	Count         int            `json:"count"`
	ByType        []PayTypeStats `json:"byType"`
}

// DeleteResult is returned by a delete; SnapshotID undoes it.
type DeleteResult struct {
	DeletedOrder Order  `json:"deletedOrder"`
	LinkedDebt   *Debt  `json:"linkedDebt"`
	SnapshotID   string `json:"snapshotId"`
}

// UndoResult is what an undo put back.
type UndoResult struct {
	Order Order `json:"order"`
	Debt  *Debt `json:"debt"`
}

// ImportResult counts records that were new by id.
type ImportResult struct {
	ImportedOrders int `json:"importedOrders"`
	ImportedDebts  int `json:"importedDebts"`
}
