// Package services implements the journal's record store operations on top
// of repo.Repository: order and debt bookkeeping, the order/debt consistency
// rules, undo of deletes, statistics, suggestions, exports and imports.
//
// This file centralizes the service-level error values so that every
// operation fails with one of four kinds the transport can tell apart:
// not found, validation, dependency and storage. Translation into
// user-facing text lives in UserMessage; HTTP status mapping belongs to the
// handler layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/service-journal/internal/repo"
	"github.com/tbourn/service-journal/internal/validate"
)

var (
	// ErrNotFound is returned when an order, debt or snapshot id is absent.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for rejected input, including malformed
	// import payloads.
	ErrValidation = errors.New("validation failed")

	// ErrDependency is returned when the debt linked to a new order could not
	// be created. The order insert has been rolled back by then.
	ErrDependency = errors.New("debt creation failed")

	// ErrStorage is returned when the underlying storage rejected a read or
	// write.
	ErrStorage = repo.ErrStorage
)

// Kinds of records a NotFoundError can refer to.
const (
	KindOrder    = "order"
	KindDebt     = "debt"
	KindSnapshot = "snapshot"
)

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.Kind, e.ID) }

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(kind, id string) error { return &NotFoundError{Kind: kind, ID: id} }

// ValidationError carries per-field messages, or a single Reason when the
// problem is not tied to a field.
type ValidationError struct {
	Fields validate.FieldErrors
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return "validation failed: " + e.Fields.Error()
	}
	return "validation failed: " + e.Reason
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Messages returned by UserMessage.
const (
	msgOrderNotFound    = "Заказ не найден"
	msgDebtNotFound     = "Долг не найден"
	msgSnapshotNotFound = "Отменить удаление уже нельзя"
	msgValidation       = "Проверьте введённые данные"
	msgDependency       = "Не удалось создать долг, заказ не сохранён"
	msgStorage          = "Не удалось сохранить данные, попробуйте ещё раз"
	msgInternal         = "Внутренняя ошибка"
)

// UserMessage renders err as a short Russian message for the user.
// Validation problems are described by their first field message, system
// failures by a generic retry hint.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var nf *NotFoundError
	var ve *ValidationError
	switch {
	case errors.As(err, &nf):
		switch nf.Kind {
		case KindDebt:
			return msgDebtNotFound
		case KindSnapshot:
			return msgSnapshotNotFound
		}
		return msgOrderNotFound
	case errors.As(err, &ve):
		if first := firstMessage(ve.Fields); first != "" {
			return first
		}
		if ve.Reason != "" {
			return ve.Reason
		}
		return msgValidation
	case errors.Is(err, ErrNotFound):
		return msgOrderNotFound
	case errors.Is(err, ErrValidation):
		return msgValidation
	case errors.Is(err, ErrDependency):
		return msgDependency
	case errors.Is(err, ErrStorage):
		return msgStorage
	}
	return msgInternal
}

// firstMessage picks a message in the order a form lists its fields.
func firstMessage(fe validate.FieldErrors) string {
	for _, k := range []string{"client", "job", validate.AmountField, "workAmount", "ourPartsAmount", "payType", "freonGrams"} {
		if m, ok := fe[k]; ok {
			return m
		}
	}
	for _, m := range fe {
		return m
	}
	return ""
}
