package bills_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeledger/internal/bills"
	"homeledger/internal/store/memory"
)

// fixture wires a service to a fresh in-memory store with a controllable
// clock.
type fixture struct {
	ctx       context.Context
	svc       *bills.Service
	store     *memory.Store
	household uuid.UUID
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:       context.Background(),
		store:     memory.NewStore(),
		household: uuid.New(),
		now:       time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = bills.NewService(f.store, bills.ServiceOptions{
		Now: func() time.Time { return f.now },
	})
	return f
}

// advanceTo moves the fixture clock to 09:00 UTC on the given date.
func (f *fixture) advanceTo(y int, m time.Month, d int) {
	f.now = time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func (f *fixture) date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func iptr(v int) *int             { return &v }
func i64ptr(v int64) *int64       { return &v }
func sptr(v string) *string       { return &v }
func tptr(v time.Time) *time.Time { return &v }

func (f *fixture) monthlyInput(name string, dueDay int, cents int64) bills.TemplateInput {
	return bills.TemplateInput{
		Name:               name,
		BillType:           bills.BillTypeExpense,
		RecurrenceType:     bills.RecurrenceMonthly,
		DueDay:             iptr(dueDay),
		DefaultAmountCents: cents,
	}
}

func (f *fixture) mustCreateTemplate(t *testing.T, in bills.TemplateInput) *bills.BillTemplate {
	t.Helper()
	tpl, err := f.svc.CreateTemplate(f.ctx, f.household, in)
	require.NoError(t, err)
	return tpl
}

func (f *fixture) mustCreateAccount(t *testing.T, name string, balance int64) *bills.Account {
	t.Helper()
	acc, err := f.svc.CreateAccount(f.ctx, f.household, bills.AccountInput{
		Name:                name,
		AccountType:         bills.AccountChecking,
		OpeningBalanceCents: balance,
	})
	require.NoError(t, err)
	return acc
}

// mustOccurrence materializes the default horizon and returns the occurrence
// of the template due on the given date.
func (f *fixture) mustOccurrence(t *testing.T, templateID uuid.UUID, due time.Time) *bills.BillOccurrence {
	t.Helper()
	require.NoError(t, f.svc.Materialize(f.ctx, f.household, due.AddDate(0, 0, -7), due.AddDate(0, 0, 7)))
	occs, err := f.store.ListOccurrences(f.ctx, bills.OccurrenceFilter{
		TemplateID: templateID,
		DueFrom:    due,
		DueTo:      due,
	})
	require.NoError(t, err)
	require.Len(t, occs, 1)
	return occs[0]
}

func TestCreateTemplate(t *testing.T) {
	f := newFixture(t)

	t.Run("should create a monthly template", func(t *testing.T) {
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Rent", 15, 120000))
		assert.NotEqual(t, uuid.Nil, tpl.ID)
		assert.Equal(t, f.household, tpl.HouseholdID)
		assert.True(t, tpl.Active)
		assert.Equal(t, bills.InterestNone, tpl.InterestType)

		got, err := f.svc.GetTemplate(f.ctx, f.household, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rent", got.Name)
	})

	t.Run("should reject a blank name", func(t *testing.T) {
		in := f.monthlyInput("   ", 15, 120000)
		_, err := f.svc.CreateTemplate(f.ctx, f.household, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)
	})

	t.Run("should reject a negative default amount", func(t *testing.T) {
		in := f.monthlyInput("Rent", 15, -1)
		_, err := f.svc.CreateTemplate(f.ctx, f.household, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)
	})

	t.Run("should require a weekday for weekly bills", func(t *testing.T) {
		in := bills.TemplateInput{
			Name:               "Cleaner",
			BillType:           bills.BillTypeExpense,
			RecurrenceType:     bills.RecurrenceWeekly,
			DefaultAmountCents: 8000,
		}
		_, err := f.svc.CreateTemplate(f.ctx, f.household, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)

		in.DueWeekday = iptr(9)
		_, err = f.svc.CreateTemplate(f.ctx, f.household, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)
	})

	t.Run("should require a due day for month based bills", func(t *testing.T) {
		in := bills.TemplateInput{
			Name:               "Insurance",
			BillType:           bills.BillTypeExpense,
			RecurrenceType:     bills.RecurrenceQuarterly,
			DefaultAmountCents: 30000,
		}
		_, err := f.svc.CreateTemplate(f.ctx, f.household, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)
	})

	t.Run("should require a date for one time bills", func(t *testing.T) {
		in := bills.TemplateInput{
			Name:               "Road tax",
			BillType:           bills.BillTypeExpense,
			RecurrenceType:     bills.RecurrenceOneTime,
			DefaultAmountCents: 4200,
		}
		_, err := f.svc.CreateTemplate(f.ctx, f.household, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)
	})

	t.Run("should reject an unknown bill type", func(t *testing.T) {
		in := f.monthlyInput("Rent", 15, 120000)
		in.BillType = bills.BillType("loan")
		_, err := f.svc.CreateTemplate(f.ctx, f.household, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)
	})
}

func TestUpdateTemplate(t *testing.T) {
	f := newFixture(t)

	t.Run("should apply partial updates and leave the rest alone", func(t *testing.T) {
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Electric", 20, 9000))

		got, err := f.svc.UpdateTemplate(f.ctx, f.household, tpl.ID, bills.TemplateUpdate{
			Name:               sptr("Electric & Gas"),
			DefaultAmountCents: i64ptr(11000),
		})
		require.NoError(t, err)
		assert.Equal(t, "Electric & Gas", got.Name)
		assert.Equal(t, int64(11000), got.DefaultAmountCents)
		assert.Equal(t, 20, *got.DueDay)
		assert.True(t, got.Active)
	})

	t.Run("should replace the whole schedule when recurrence changes", func(t *testing.T) {
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Gym", 1, 5000))

		weekly := bills.RecurrenceWeekly
		got, err := f.svc.UpdateTemplate(f.ctx, f.household, tpl.ID, bills.TemplateUpdate{
			RecurrenceType: &weekly,
			DueWeekday:     iptr(3),
		})
		require.NoError(t, err)
		assert.Equal(t, bills.RecurrenceWeekly, got.RecurrenceType)
		assert.Equal(t, 3, *got.DueWeekday)
		assert.Nil(t, got.DueDay)
	})

	t.Run("should reject a schedule change missing its parameters", func(t *testing.T) {
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Water", 5, 4000))

		weekly := bills.RecurrenceWeekly
		_, err := f.svc.UpdateTemplate(f.ctx, f.household, tpl.ID, bills.TemplateUpdate{
			RecurrenceType: &weekly,
		})
		assert.ErrorIs(t, err, bills.ErrInvalidInput)

		// The failed update must not have stuck.
		got, err := f.svc.GetTemplate(f.ctx, f.household, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, bills.RecurrenceMonthly, got.RecurrenceType)
	})

	t.Run("should soft disable via the active flag", func(t *testing.T) {
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Netflix", 3, 1599))

		off := false
		got, err := f.svc.UpdateTemplate(f.ctx, f.household, tpl.ID, bills.TemplateUpdate{Active: &off})
		require.NoError(t, err)
		assert.False(t, got.Active)
	})

	t.Run("should clear optional fields with sentinel values", func(t *testing.T) {
		in := f.monthlyInput("Phone", 12, 6500)
		in.Category = sptr("utilities")
		tpl := f.mustCreateTemplate(t, in)

		got, err := f.svc.UpdateTemplate(f.ctx, f.household, tpl.ID, bills.TemplateUpdate{
			Category: sptr(""),
		})
		require.NoError(t, err)
		assert.Nil(t, got.Category)
	})

	t.Run("should miss for another household", func(t *testing.T) {
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Trash", 1, 3000))
		_, err := f.svc.UpdateTemplate(f.ctx, uuid.New(), tpl.ID, bills.TemplateUpdate{Name: sptr("X")})
		assert.ErrorIs(t, err, bills.ErrNotFound)
	})
}

func TestDeleteTemplateCascade(t *testing.T) {
	f := newFixture(t)
	tpl := f.mustCreateTemplate(t, f.monthlyInput("Car loan", 10, 35000))
	acc := f.mustCreateAccount(t, "Checking", 500000)

	occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 10))
	_, err := f.svc.PayOccurrence(f.ctx, f.household, occ.ID, bills.PayInput{
		AmountCents: i64ptr(10000),
		AccountID:   acc.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, bills.AutopayRuleInput{
		Enabled:    true,
		AmountType: bills.AutopayAmountRemaining,
		AccountID:  acc.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTemplate(f.ctx, f.household, tpl.ID))

	t.Run("should remove the template and all dependents", func(t *testing.T) {
		_, err := f.svc.GetTemplate(f.ctx, f.household, tpl.ID)
		assert.ErrorIs(t, err, bills.ErrNotFound)

		occs, err := f.store.ListOccurrences(f.ctx, bills.OccurrenceFilter{TemplateID: tpl.ID})
		require.NoError(t, err)
		assert.Empty(t, occs)

		events, err := f.store.ListPaymentEvents(f.ctx, occ.ID)
		require.NoError(t, err)
		assert.Empty(t, events)

		_, err = f.svc.GetAutopayRule(f.ctx, f.household, tpl.ID)
		assert.ErrorIs(t, err, bills.ErrNotFound)
	})

	t.Run("should keep the account ledger", func(t *testing.T) {
		// The balance effect of past payments is history, not template state.
		got, err := f.svc.GetAccount(f.ctx, f.household, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(490000), got.BalanceCents)
	})

	t.Run("should miss when deleting twice", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.DeleteTemplate(f.ctx, f.household, tpl.ID), bills.ErrNotFound)
	})
}

func TestListTemplates(t *testing.T) {
	f := newFixture(t)
	f.mustCreateTemplate(t, f.monthlyInput("Rent", 1, 120000))
	paycheck := bills.TemplateInput{
		Name:               "Paycheck",
		BillType:           bills.BillTypeIncome,
		RecurrenceType:     bills.RecurrenceBiweekly,
		DueWeekday:         iptr(5),
		DefaultAmountCents: 250000,
	}
	f.mustCreateTemplate(t, paycheck)
	disabled := f.mustCreateTemplate(t, f.monthlyInput("Old gym", 2, 3000))
	off := false
	_, err := f.svc.UpdateTemplate(f.ctx, f.household, disabled.ID, bills.TemplateUpdate{Active: &off})
	require.NoError(t, err)

	t.Run("should list everything by default", func(t *testing.T) {
		got, err := f.svc.ListTemplates(f.ctx, f.household, "", false)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("should filter by bill type", func(t *testing.T) {
		got, err := f.svc.ListTemplates(f.ctx, f.household, bills.BillTypeIncome, false)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Paycheck", got[0].Name)
	})

	t.Run("should filter to active only", func(t *testing.T) {
		got, err := f.svc.ListTemplates(f.ctx, f.household, "", true)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
