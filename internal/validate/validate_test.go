package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tbourn/service-journal/internal/domain"
)

func validInput() domain.OrderInput {
	return domain.OrderInput{
		Client:     "Иванов",
		Job:        "Диагностика",
		WorkAmount: 500,
		PayType:    domain.PayDebt,
	}
}

func TestOrder_Valid(t *testing.T) {
	require.Nil(t, Order(validInput()))

	in := validInput()
	in.WorkAmount = 0
	in.OurPartsAmount = 300
	require.Nil(t, Order(in), "parts-only order is valid")
}

func TestOrder_ClientRules(t *testing.T) {
	in := validInput()
	in.Client = "   "
	require.Equal(t, MsgClientRequired, Order(in)["client"])

	in.Client = " Я "
	require.Equal(t, MsgClientShort, Order(in)["client"])

	in.Client = "Ян"
	require.Nil(t, Order(in))
}

func TestOrder_JobRequired(t *testing.T) {
	in := validInput()
	in.Job = "\t"
	require.Equal(t, MsgJobRequired, Order(in)["job"])
}

func TestOrder_AmountRules(t *testing.T) {
	in := validInput()
	in.WorkAmount = 0
	require.Equal(t, MsgAmountRequired, Order(in)[AmountField])

	in.WorkAmount = 600_000
	in.OurPartsAmount = 500_000
	require.Equal(t, MsgAmountTooLarge, Order(in)[AmountField])

	in.WorkAmount = -10
	in.OurPartsAmount = 100
	errs := Order(in)
	require.Equal(t, MsgAmountNegative, errs["workAmount"])
	_, hasTotal := errs[AmountField]
	require.False(t, hasTotal, "total check is skipped when a component is already invalid")

	in.WorkAmount = 2_000_000
	require.Equal(t, MsgAmountTooLarge, Order(in)["workAmount"])
}

func TestOrder_PayTypeAndFreon(t *testing.T) {
	in := validInput()
	in.PayType = "card"
	require.Equal(t, MsgPayType, Order(in)["payType"])

	in = validInput()
	in.PayType = ""
	require.Equal(t, MsgPayType, Order(in)["payType"])

	neg := int64(-1)
	in = validInput()
	in.FreonGrams = &neg
	require.Equal(t, MsgFreonNegative, Order(in)["freonGrams"])
}

func TestMerged_UsesPatchedValues(t *testing.T) {
	o := domain.Order{Client: "Петров", Job: "Заправка", WorkAmount: 0, OurPartsAmount: 0, PayType: domain.PayCash}
	require.Equal(t, MsgAmountRequired, Merged(o)[AmountField])

	o.WorkAmount = 1200
	require.Nil(t, Merged(o))
}

func TestFieldErrors_ErrorIsSorted(t *testing.T) {
	fe := FieldErrors{"job": MsgJobRequired, "client": MsgClientRequired}
	require.Equal(t, "client: "+MsgClientRequired+"; job: "+MsgJobRequired, fe.Error())
}
