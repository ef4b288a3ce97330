// Package validate checks caller-supplied orders before they reach the
// store. Rules are declared as struct tags on domain.OrderInput and run by
// go-playground/validator; failures come back as Russian messages keyed by
// the JSON field name so a form can show them inline.
package validate

import (
	"errors"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/tbourn/service-journal/internal/domain"
)

// MaxAmount is the largest accepted order total, in whole currency units.
const MaxAmount = 1_000_000

// AmountField is the key under which total-level problems are reported.
const AmountField = "amount"

// Messages shown to the user.
const (
	MsgClientRequired = "Введите имя клиента"
	MsgClientShort    = "Имя клиента слишком короткое"
	MsgJobRequired    = "Укажите выполненную работу"
	MsgAmountRequired = "Укажите сумму работы или деталей"
	MsgAmountTooLarge = "Сумма слишком большая"
	MsgAmountNegative = "Сумма не может быть отрицательной"
	MsgPayType        = "Выберите способ оплаты"
	MsgFreonNegative  = "Количество фреона не может быть отрицательным"
	MsgInvalid        = "Некорректное значение"
)

// FieldErrors maps a JSON field name to a user-facing message.
type FieldErrors map[string]string

// Error joins the messages in a stable order.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("trimmed_min", func(fl validator.FieldLevel) bool {
			min, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= min
		})
		instance = v
	})
	return instance
}

// Order validates a new order. It returns nil when the input is acceptable.
func Order(in domain.OrderInput) FieldErrors {
	out := FieldErrors{}

	if err := engine().Struct(in); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			out[AmountField] = MsgInvalid
			return out
		}
		for _, fe := range ves {
			if _, seen := out[fe.Field()]; seen {
				continue
			}
			out[fe.Field()] = message(fe, in)
		}
	}

	if _, seen := out["workAmount"]; !seen {
		if _, seen := out["ourPartsAmount"]; !seen {
			total := in.WorkAmount + in.OurPartsAmount
			switch {
			case total <= 0:
				out[AmountField] = MsgAmountRequired
			case total > MaxAmount:
				out[AmountField] = MsgAmountTooLarge
			}
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// Merged validates an existing order after a patch has been applied.
func Merged(o domain.Order) FieldErrors {
	return Order(domain.OrderInput{
		Date:           o.Date,
		Client:         o.Client,
		Car:            o.Car,
		Job:            o.Job,
		WorkAmount:     o.WorkAmount,
		OurParts:       o.OurParts,
		OurPartsAmount: o.OurPartsAmount,
		ClientParts:    o.ClientParts,
		PayType:        o.PayType,
		FreonGrams:     o.FreonGrams,
		Comment:        o.Comment,
	})
}

func message(fe validator.FieldError, in domain.OrderInput) string {
	switch fe.Field() {
	case "client":
		if strings.TrimSpace(in.Client) == "" {
			return MsgClientRequired
		}
		return MsgClientShort
	case "job":
		return MsgJobRequired
	case "workAmount", "ourPartsAmount":
		if fe.Tag() == "lte" {
			return MsgAmountTooLarge
		}
		return MsgAmountNegative
	case "payType":
		return MsgPayType
	case "freonGrams":
		return MsgFreonNegative
	}
	return MsgInvalid
}
