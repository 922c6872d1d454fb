package bills_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeledger/internal/bills"
)

// finalizeFailStore fails the autopay run bookkeeping write while passing
// every other operation through.
type finalizeFailStore struct {
	bills.Store
	err error
}

func (s *finalizeFailStore) UpdateAutopayRun(ctx context.Context, run *bills.AutopayRun) error {
	return s.err
}

func TestPutAutopayRule(t *testing.T) {
	f := newFixture(t)
	tpl := f.mustCreateTemplate(t, f.monthlyInput("Electric", 15, 5000))
	acc := f.mustCreateAccount(t, "Checking", 100000)

	t.Run("should create and fetch a rule", func(t *testing.T) {
		rule, err := f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, bills.AutopayRuleInput{
			Enabled:       true,
			DaysBeforeDue: 2,
			AmountType:    bills.AutopayAmountRemaining,
			AccountID:     acc.ID,
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, rule.ID)
		assert.Equal(t, tpl.ID, rule.TemplateID)

		got, err := f.svc.GetAutopayRule(f.ctx, f.household, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, rule.ID, got.ID)
	})

	t.Run("should keep the identity across replacements", func(t *testing.T) {
		before, err := f.svc.GetAutopayRule(f.ctx, f.household, tpl.ID)
		require.NoError(t, err)

		after, err := f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, bills.AutopayRuleInput{
			Enabled:          true,
			DaysBeforeDue:    5,
			AmountType:       bills.AutopayAmountFixed,
			FixedAmountCents: 4000,
			AccountID:        acc.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.CreatedAt, after.CreatedAt)
		assert.Equal(t, 5, after.DaysBeforeDue)
		assert.Equal(t, bills.AutopayAmountFixed, after.AmountType)

		rules, err := f.svc.ListAutopayRules(f.ctx, f.household)
		require.NoError(t, err)
		assert.Len(t, rules, 1)
	})

	t.Run("should reject bad configurations", func(t *testing.T) {
		base := bills.AutopayRuleInput{
			Enabled:    true,
			AmountType: bills.AutopayAmountRemaining,
			AccountID:  acc.ID,
		}

		in := base
		in.DaysBeforeDue = -1
		_, err := f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)

		in = base
		in.AmountType = bills.AutopayAmountType("percent")
		_, err = f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)

		in = base
		in.AmountType = bills.AutopayAmountFixed
		_, err = f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)

		in = base
		in.AccountID = uuid.Nil
		_, err = f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, in)
		assert.ErrorIs(t, err, bills.ErrInvalidInput)

		_, err = f.svc.PutAutopayRule(f.ctx, f.household, uuid.New(), base)
		assert.ErrorIs(t, err, bills.ErrNotFound)

		in = base
		in.AccountID = uuid.New()
		_, err = f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, in)
		assert.ErrorIs(t, err, bills.ErrNotFound)
	})

	t.Run("should delete a rule", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteAutopayRule(f.ctx, f.household, tpl.ID))
		_, err := f.svc.GetAutopayRule(f.ctx, f.household, tpl.ID)
		assert.ErrorIs(t, err, bills.ErrNotFound)
	})
}

func TestRunAutopay(t *testing.T) {
	// Sets up a monthly bill due on the 15th with an autopay rule two days
	// ahead of the due date.
	setup := func(t *testing.T, in bills.AutopayRuleInput) (*fixture, *bills.BillTemplate, *bills.Account) {
		t.Helper()
		f := newFixture(t)
		tpl := f.mustCreateTemplate(t, f.monthlyInput("Electric", 15, 5000))
		acc := f.mustCreateAccount(t, "Checking", 100000)
		in.AccountID = acc.ID
		_, err := f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, in)
		require.NoError(t, err)
		return f, tpl, acc
	}
	remaining := bills.AutopayRuleInput{Enabled: true, DaysBeforeDue: 2, AmountType: bills.AutopayAmountRemaining}

	t.Run("should touch nothing when no trigger date matches", func(t *testing.T) {
		f, tpl, acc := setup(t, remaining)

		run, err := f.svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{
			RunDate: tptr(f.date(2024, time.March, 12)),
		})
		require.NoError(t, err)
		assert.Equal(t, bills.RunCompleted, run.Status)
		assert.Equal(t, 0, run.ProcessedCount)
		assert.Equal(t, int64(0), run.TotalAmountCents)

		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))
		assert.Equal(t, bills.StatusUnpaid, occ.Status)
		got, err := f.svc.GetAccount(f.ctx, f.household, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100000), got.BalanceCents)
	})

	t.Run("should pay the remaining amount on the trigger date", func(t *testing.T) {
		f, tpl, acc := setup(t, remaining)

		run, err := f.svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{
			RunDate: tptr(f.date(2024, time.March, 13)),
		})
		require.NoError(t, err)
		assert.Equal(t, bills.RunCompleted, run.Status)
		assert.Equal(t, bills.RunTypeManual, run.RunType)
		assert.Equal(t, 1, run.ProcessedCount)
		assert.Equal(t, 1, run.SuccessCount)
		assert.Equal(t, 0, run.FailedCount)
		assert.Equal(t, int64(5000), run.TotalAmountCents)
		require.NotNil(t, run.CompletedAt)

		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))
		assert.Equal(t, bills.StatusPaid, occ.Status)
		require.NotNil(t, occ.PaidDate)
		assert.Equal(t, f.date(2024, time.March, 13), *occ.PaidDate)

		events, err := f.store.ListPaymentEvents(f.ctx, occ.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, bills.MethodAutopay, events[0].Method)

		got, err := f.svc.GetAccount(f.ctx, f.household, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(95000), got.BalanceCents)
	})

	t.Run("should cap a fixed amount at the remaining balance", func(t *testing.T) {
		f, tpl, acc := setup(t, bills.AutopayRuleInput{
			Enabled:          true,
			DaysBeforeDue:    2,
			AmountType:       bills.AutopayAmountFixed,
			FixedAmountCents: 4000,
		})

		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))
		_, err := f.svc.PayOccurrence(f.ctx, f.household, occ.ID, bills.PayInput{
			AmountCents: i64ptr(3000),
			AccountID:   acc.ID,
		})
		require.NoError(t, err)

		run, err := f.svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{
			RunDate: tptr(f.date(2024, time.March, 13)),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, run.SuccessCount)
		assert.Equal(t, int64(2000), run.TotalAmountCents)

		got, err := f.store.GetOccurrence(f.ctx, f.household, occ.ID)
		require.NoError(t, err)
		assert.Equal(t, bills.StatusPaid, got.Status)
	})

	t.Run("should count matches without paying on a dry run", func(t *testing.T) {
		f, tpl, acc := setup(t, remaining)

		run, err := f.svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{
			RunDate: tptr(f.date(2024, time.March, 13)),
			RunType: bills.RunTypeDryRun,
		})
		require.NoError(t, err)
		assert.Equal(t, bills.RunCompleted, run.Status)
		assert.Equal(t, 1, run.ProcessedCount)
		assert.Equal(t, 1, run.SkippedCount)
		assert.Equal(t, 0, run.SuccessCount)
		assert.Equal(t, int64(0), run.TotalAmountCents)

		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))
		assert.Equal(t, bills.StatusUnpaid, occ.Status)
		got, err := f.svc.GetAccount(f.ctx, f.household, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100000), got.BalanceCents)
	})

	t.Run("should skip disabled rules and inactive templates", func(t *testing.T) {
		f, tpl, acc := setup(t, bills.AutopayRuleInput{
			Enabled:       false,
			DaysBeforeDue: 2,
			AmountType:    bills.AutopayAmountRemaining,
		})

		run, err := f.svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{
			RunDate: tptr(f.date(2024, time.March, 13)),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, run.ProcessedCount)

		// Re-enable the rule but retire the template; still nothing to do.
		_, err = f.svc.PutAutopayRule(f.ctx, f.household, tpl.ID, bills.AutopayRuleInput{
			Enabled:       true,
			DaysBeforeDue: 2,
			AmountType:    bills.AutopayAmountRemaining,
			AccountID:     acc.ID,
		})
		require.NoError(t, err)
		off := false
		_, err = f.svc.UpdateTemplate(f.ctx, f.household, tpl.ID, bills.TemplateUpdate{Active: &off})
		require.NoError(t, err)

		run, err = f.svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{
			RunDate: tptr(f.date(2024, time.March, 13)),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, run.ProcessedCount)
	})

	t.Run("should record one failure and keep going", func(t *testing.T) {
		f, tpl, _ := setup(t, remaining)

		// Second bill whose rule points at an account that no longer resolves.
		broken := f.mustCreateTemplate(t, f.monthlyInput("Water", 15, 4000))
		now := f.now.UTC()
		require.NoError(t, f.store.UpsertAutopayRule(f.ctx, &bills.AutopayRule{
			ID:            uuid.New(),
			HouseholdID:   f.household,
			TemplateID:    broken.ID,
			Enabled:       true,
			DaysBeforeDue: 2,
			AmountType:    bills.AutopayAmountRemaining,
			AccountID:     uuid.New(),
			CreatedAt:     now,
			UpdatedAt:     now,
		}))

		run, err := f.svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{
			RunDate: tptr(f.date(2024, time.March, 13)),
		})
		require.NoError(t, err)
		assert.Equal(t, bills.RunFailed, run.Status)
		assert.Equal(t, 2, run.ProcessedCount)
		assert.Equal(t, 1, run.SuccessCount)
		assert.Equal(t, 1, run.FailedCount)
		require.Len(t, run.Errors, 1)
		assert.Equal(t, broken.ID, run.Errors[0].TemplateID)
		assert.Equal(t, "not_found", run.Errors[0].Code)

		// The healthy bill still got paid.
		occ := f.mustOccurrence(t, tpl.ID, f.date(2024, time.March, 15))
		assert.Equal(t, bills.StatusPaid, occ.Status)
	})

	t.Run("should surface a failed run finalize", func(t *testing.T) {
		f := newFixture(t)
		boom := errors.New("disk full")
		svc := bills.NewService(&finalizeFailStore{Store: f.store, err: boom}, bills.ServiceOptions{
			Now: func() time.Time { return f.now },
		})

		_, err := svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{})
		require.ErrorIs(t, err, boom)

		// The run row stays in started so operators can spot it.
		runs, err := f.store.ListAutopayRuns(f.ctx, f.household, 10)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, bills.RunStarted, runs[0].Status)
	})

	t.Run("should keep run history newest first", func(t *testing.T) {
		f, _, _ := setup(t, remaining)

		f.advanceTo(2024, time.March, 12)
		_, err := f.svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{})
		require.NoError(t, err)
		f.advanceTo(2024, time.March, 13)
		_, err = f.svc.RunAutopay(f.ctx, f.household, bills.AutopayRunOptions{})
		require.NoError(t, err)

		runs, err := f.svc.ListAutopayRuns(f.ctx, f.household, 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, f.date(2024, time.March, 13), runs[0].RunDate)
		assert.Equal(t, f.date(2024, time.March, 12), runs[1].RunDate)

		runs, err = f.svc.ListAutopayRuns(f.ctx, f.household, 1)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})
}

func TestRunScheduledAutopay(t *testing.T) {
	f := newFixture(t)

	households := []uuid.UUID{uuid.New(), uuid.New()}
	for _, h := range households {
		tpl, err := f.svc.CreateTemplate(f.ctx, h, f.monthlyInput("Rent", 15, 120000))
		require.NoError(t, err)
		acc, err := f.svc.CreateAccount(f.ctx, h, bills.AccountInput{
			Name:                "Checking",
			AccountType:         bills.AccountChecking,
			OpeningBalanceCents: 500000,
		})
		require.NoError(t, err)
		_, err = f.svc.PutAutopayRule(f.ctx, h, tpl.ID, bills.AutopayRuleInput{
			Enabled:       true,
			DaysBeforeDue: 14,
			AmountType:    bills.AutopayAmountRemaining,
			AccountID:     acc.ID,
		})
		require.NoError(t, err)
	}

	// A household with no rules never shows up in the batch.
	_, err := f.svc.CreateTemplate(f.ctx, uuid.New(), f.monthlyInput("Gym", 1, 3000))
	require.NoError(t, err)

	// Clock at March 1 means the trigger hits bills due March 15.
	runs, err := f.svc.RunScheduledAutopay(f.ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	seen := map[uuid.UUID]bool{}
	for _, run := range runs {
		seen[run.HouseholdID] = true
		assert.Equal(t, bills.RunTypeScheduled, run.RunType)
		assert.Equal(t, bills.RunCompleted, run.Status)
		assert.Equal(t, 1, run.SuccessCount)
		assert.Equal(t, int64(120000), run.TotalAmountCents)
	}
	for _, h := range households {
		assert.True(t, seen[h])
	}
}
