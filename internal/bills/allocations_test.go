package bills_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeledger/internal/bills"
)

func TestSetAllocations(t *testing.T) {
	t.Run("should replace the split when it covers the amount due", func(t *testing.T) {
		f := newFixture(t)
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Rent", 15, 20000))
		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))

		got, err := f.svc.SetAllocations(f.ctx, f.household, occ.ID, []bills.AllocationInput{
			{PeriodNumber: 4, AllocatedAmountCents: 8000},
			{PeriodNumber: 3, AllocatedAmountCents: 12000},
		})
		require.NoError(t, err)
		require.Len(t, got, 2)

		listed, err := f.svc.ListOccurrenceAllocations(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, 3, listed[0].PeriodNumber)
		assert.Equal(t, int64(12000), listed[0].AllocatedAmountCents)
		assert.Equal(t, 4, listed[1].PeriodNumber)
		assert.Equal(t, int64(8000), listed[1].AllocatedAmountCents)
	})

	t.Run("should replace an earlier split wholesale", func(t *testing.T) {
		f := newFixture(t)
		in := f.monthlyInput("Rent", 15, 20000)
		in.BudgetPeriodNumber = iptr(3)
		tpl := f.mustCreateTemplate(t, in)
		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))

		// Materialization already pinned the full amount to period 3.
		listed, err := f.svc.ListOccurrenceAllocations(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		require.Len(t, listed, 1)

		_, err = f.svc.SetAllocations(f.ctx, f.household, occ.ID, []bills.AllocationInput{
			{PeriodNumber: 3, AllocatedAmountCents: 10000},
			{PeriodNumber: 4, AllocatedAmountCents: 10000},
		})
		require.NoError(t, err)

		listed, err = f.svc.ListOccurrenceAllocations(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})

	t.Run("should reject a split that does not cover the amount due", func(t *testing.T) {
		f := newFixture(t)
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Rent", 15, 20000))
		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))

		_, err := f.svc.SetAllocations(f.ctx, f.household, occ.ID, []bills.AllocationInput{
			{PeriodNumber: 3, AllocatedAmountCents: 12000},
		})
		assert.ErrorIs(t, err, bills.ErrInvalidInput)

		// Nothing should have been deleted by the failed attempt.
		listed, err := f.svc.ListOccurrenceAllocations(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("should reject negative slices and duplicate periods", func(t *testing.T) {
		f := newFixture(t)
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Rent", 15, 20000))
		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))

		_, err := f.svc.SetAllocations(f.ctx, f.household, occ.ID, []bills.AllocationInput{
			{PeriodNumber: 3, AllocatedAmountCents: 21000},
			{PeriodNumber: 4, AllocatedAmountCents: -1000},
		})
		assert.ErrorIs(t, err, bills.ErrInvalidInput)

		_, err = f.svc.SetAllocations(f.ctx, f.household, occ.ID, []bills.AllocationInput{
			{PeriodNumber: 3, AllocatedAmountCents: 10000},
			{PeriodNumber: 3, AllocatedAmountCents: 10000},
		})
		assert.ErrorIs(t, err, bills.ErrInvalidInput)
	})

	t.Run("should allow a zero slice to park a period", func(t *testing.T) {
		f := newFixture(t)
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Rent", 15, 20000))
		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))

		got, err := f.svc.SetAllocations(f.ctx, f.household, occ.ID, []bills.AllocationInput{
			{PeriodNumber: 3, AllocatedAmountCents: 20000},
			{PeriodNumber: 4, AllocatedAmountCents: 0},
		})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("should freeze the split once payment has started", func(t *testing.T) {
		f := newFixture(t)
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Rent", 15, 20000))
		acc := f.mustCreateAccount(t, "Checking", 100000)
		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))

		_, err := f.svc.PayOccurrence(f.ctx, f.household, occ.ID, bills.PayInput{
			AmountCents: i64ptr(500),
			AccountID:   acc.ID,
		})
		require.NoError(t, err)

		_, err = f.svc.SetAllocations(f.ctx, f.household, occ.ID, []bills.AllocationInput{
			{PeriodNumber: 3, AllocatedAmountCents: 20000},
		})
		assert.ErrorIs(t, err, bills.ErrConflict)
	})
}

func TestPaymentAllocationSpread(t *testing.T) {
	split := func(f *fixture, t *testing.T) *bills.BillOccurrence {
		t.Helper()
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Rent", 15, 20000))
		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))
		_, err := f.svc.SetAllocations(f.ctx, f.household, occ.ID, []bills.AllocationInput{
			{PeriodNumber: 3, AllocatedAmountCents: 12000},
			{PeriodNumber: 4, AllocatedAmountCents: 8000},
		})
		require.NoError(t, err)
		return occ
	}

	t.Run("should settle earlier periods before later ones", func(t *testing.T) {
		f := newFixture(t)
		acc := f.mustCreateAccount(t, "Checking", 100000)
		occ := split(f, t)

		_, err := f.svc.PayOccurrence(f.ctx, f.household, occ.ID, bills.PayInput{
			AmountCents: i64ptr(5000),
			AccountID:   acc.ID,
		})
		require.NoError(t, err)

		allocs, err := f.svc.ListOccurrenceAllocations(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), allocs[0].PaidAmountCents)
		assert.False(t, allocs[0].IsPaid)
		assert.Equal(t, int64(0), allocs[1].PaidAmountCents)
		assert.Nil(t, allocs[1].PaymentEventID)

		res, err := f.svc.PayOccurrence(f.ctx, f.household, occ.ID, bills.PayInput{
			AmountCents: i64ptr(9000),
			AccountID:   acc.ID,
		})
		require.NoError(t, err)

		allocs, err = f.svc.ListOccurrenceAllocations(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), allocs[0].PaidAmountCents)
		assert.True(t, allocs[0].IsPaid)
		assert.Equal(t, int64(2000), allocs[1].PaidAmountCents)
		assert.False(t, allocs[1].IsPaid)
		require.NotNil(t, allocs[1].PaymentEventID)
		assert.Equal(t, res.Payment.ID, *allocs[1].PaymentEventID)

		// Paid cents across the split always add up to the occurrence total.
		assert.Equal(t, res.Occurrence.AmountPaidCents, allocs[0].PaidAmountCents+allocs[1].PaidAmountCents)
	})

	t.Run("should consume a prioritized allocation first", func(t *testing.T) {
		f := newFixture(t)
		acc := f.mustCreateAccount(t, "Checking", 100000)
		occ := split(f, t)

		allocs, err := f.svc.ListOccurrenceAllocations(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		later := allocs[1]
		require.Equal(t, 4, later.PeriodNumber)

		_, err = f.svc.PayOccurrence(f.ctx, f.household, occ.ID, bills.PayInput{
			AmountCents:  i64ptr(5000),
			AccountID:    acc.ID,
			AllocationID: &later.ID,
		})
		require.NoError(t, err)

		allocs, err = f.svc.ListOccurrenceAllocations(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), allocs[0].PaidAmountCents)
		assert.Equal(t, int64(5000), allocs[1].PaidAmountCents)
	})

	t.Run("should stop at capacity on overpayment", func(t *testing.T) {
		f := newFixture(t)
		acc := f.mustCreateAccount(t, "Checking", 100000)
		occ := split(f, t)

		res, err := f.svc.PayOccurrence(f.ctx, f.household, occ.ID, bills.PayInput{
			AmountCents: i64ptr(25000),
			AccountID:   acc.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, bills.StatusOverpaid, res.Occurrence.Status)

		allocs, err := f.svc.ListOccurrenceAllocations(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), allocs[0].PaidAmountCents)
		assert.Equal(t, int64(8000), allocs[1].PaidAmountCents)
		assert.True(t, allocs[0].IsPaid)
		assert.True(t, allocs[1].IsPaid)
	})
}
