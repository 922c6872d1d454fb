package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeledger/internal/bills"
)

func TestHouseholdID(t *testing.T) {
	newContext := func(header string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		if header != "" {
			c.Request.Header.Set(householdHeader, header)
		}
		return c
	}

	t.Run("missing header resolves to the zero household", func(t *testing.T) {
		id, err := householdID(newContext(""))

		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, id)
	})

	t.Run("valid header resolves to its UUID", func(t *testing.T) {
		want := uuid.New()

		id, err := householdID(newContext(want.String()))

		require.NoError(t, err)
		assert.Equal(t, want, id)
	})

	t.Run("malformed header returns error", func(t *testing.T) {
		_, err := householdID(newContext("not-a-uuid"))

		require.Error(t, err)
	})
}

func TestParseDate(t *testing.T) {
	t.Run("parses yyyy-MM-dd as a UTC calendar day", func(t *testing.T) {
		d, err := parseDate("2024-03-15")

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		for _, in := range []string{"03/15/2024", "2024-3-15", "2024-03-15T00:00:00Z", ""} {
			_, err := parseDate(in)
			assert.Error(t, err, "input %q", in)
		}
	})

	t.Run("nil pointer passes through", func(t *testing.T) {
		d, err := parseDatePtr(nil)

		require.NoError(t, err)
		assert.Nil(t, d)
	})
}

func TestParseClearableUUID(t *testing.T) {
	t.Run("empty string clears to the zero UUID", func(t *testing.T) {
		id, err := parseClearableUUID("")

		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, id)
	})

	t.Run("valid string parses", func(t *testing.T) {
		want := uuid.New()

		id, err := parseClearableUUID(want.String())

		require.NoError(t, err)
		assert.Equal(t, want, id)
	})

	t.Run("garbage returns invalid input", func(t *testing.T) {
		_, err := parseClearableUUID("zzz")

		require.ErrorIs(t, err, bills.ErrInvalidInput)
	})
}

func TestTemplateInputFromRequest(t *testing.T) {
	t.Run("maps a full request", func(t *testing.T) {
		date := "2024-04-02"
		dueDay := 10
		interest := "simple"
		req := TemplateRequest{
			Name:           "Car Loan",
			BillType:       "expense",
			RecurrenceType: "monthly",
			DueDay:         &dueDay,

			DefaultAmountCents: 32000,
			InterestRateBps:    549,
			InterestType:       &interest,
			DebtStartDate:      &date,
			IncludeInPayoff:    true,
		}

		in, err := templateInputFromRequest(&req)

		require.NoError(t, err)
		assert.Equal(t, bills.BillTypeExpense, in.BillType)
		assert.Equal(t, bills.RecurrenceMonthly, in.RecurrenceType)
		assert.Equal(t, bills.InterestSimple, in.InterestType)
		require.NotNil(t, in.DebtStartDate)
		assert.Equal(t, "2024-04-02", in.DebtStartDate.Format(bills.ISODate))
	})

	t.Run("defaults interest type to none", func(t *testing.T) {
		dueDay := 1
		in, err := templateInputFromRequest(&TemplateRequest{
			Name:           "Rent",
			BillType:       "expense",
			RecurrenceType: "monthly",
			DueDay:         &dueDay,
		})

		require.NoError(t, err)
		assert.Equal(t, bills.InterestNone, in.InterestType)
	})

	t.Run("rejects unknown bill type", func(t *testing.T) {
		_, err := templateInputFromRequest(&TemplateRequest{
			Name:           "Odd",
			BillType:       "loan",
			RecurrenceType: "monthly",
		})

		require.ErrorIs(t, err, bills.ErrInvalidInput)
	})

	t.Run("rejects malformed one_time_date", func(t *testing.T) {
		bad := "tomorrow"
		_, err := templateInputFromRequest(&TemplateRequest{
			Name:           "Odd",
			BillType:       "expense",
			RecurrenceType: "one_time",
			OneTimeDate:    &bad,
		})

		require.ErrorIs(t, err, bills.ErrInvalidInput)
	})
}

func TestTemplateUpdateFromRequest(t *testing.T) {
	t.Run("empty account id carries a clearing nil UUID", func(t *testing.T) {
		empty := ""
		up, err := templateUpdateFromRequest(&TemplateUpdateRequest{PaymentAccountID: &empty})

		require.NoError(t, err)
		require.NotNil(t, up.PaymentAccountID)
		assert.Equal(t, uuid.Nil, *up.PaymentAccountID)
	})

	t.Run("absent fields stay nil", func(t *testing.T) {
		up, err := templateUpdateFromRequest(&TemplateUpdateRequest{})

		require.NoError(t, err)
		assert.Nil(t, up.Name)
		assert.Nil(t, up.RecurrenceType)
		assert.Nil(t, up.PaymentAccountID)
	})

	t.Run("rejects unknown recurrence type", func(t *testing.T) {
		bad := "fortnightly"
		_, err := templateUpdateFromRequest(&TemplateUpdateRequest{RecurrenceType: &bad})

		require.ErrorIs(t, err, bills.ErrInvalidInput)
	})
}

func TestDTOConversions(t *testing.T) {
	t.Run("occurrence dates render as yyyy-MM-dd", func(t *testing.T) {
		paid := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
		occ := &bills.BillOccurrence{
			ID:         uuid.New(),
			TemplateID: uuid.New(),
			DueDate:    time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
			Status:     bills.StatusPaid,
			PaidDate:   &paid,
		}

		dto := toOccurrence(occ)

		assert.Equal(t, "2024-03-10", dto.DueDate)
		require.NotNil(t, dto.PaidDate)
		assert.Equal(t, "2024-03-15", *dto.PaidDate)
	})

	t.Run("empty idempotency key renders as null", func(t *testing.T) {
		dto := toPaymentEvent(&bills.PaymentEvent{
			ID:           uuid.New(),
			OccurrenceID: uuid.New(),
			TemplateID:   uuid.New(),
			PaidOn:       time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		})

		assert.Nil(t, dto.IdempotencyKey)
	})

	t.Run("run errors render as an empty array, never null", func(t *testing.T) {
		dto := toAutopayRun(&bills.AutopayRun{ID: uuid.New()})

		assert.NotNil(t, dto.Errors)
		assert.Len(t, dto.Errors, 0)
	})
}
