package bills

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Materialize ensures occurrences exist for every active template in the
// household across [from, to]. Dates already materialized are left untouched,
// so overlapping invocations are idempotent.
func (s *Service) Materialize(ctx context.Context, household uuid.UUID, from, to time.Time) error {
	return s.store.WithTx(ctx, func(tx Tx) error {
		return s.materializeHousehold(ctx, tx, household, from, to)
	})
}

func (s *Service) materializeHousehold(ctx context.Context, tx Tx, household uuid.UUID, from, to time.Time) error {
	tpls, err := tx.ListTemplates(ctx, TemplateFilter{HouseholdID: household, ActiveOnly: true})
	if err != nil {
		return err
	}
	for _, tpl := range tpls {
		if err := s.materializeTemplate(ctx, tx, tpl, from, to); err != nil {
			return err
		}
	}
	return nil
}

// materializeTemplate diffs the computed schedule against existing occurrence
// dates and inserts only the missing ones. New occurrences start unpaid at
// the template's default amount; templates with a fixed budget-period
// assignment also get a full-amount allocation under that period.
func (s *Service) materializeTemplate(ctx context.Context, tx Tx, tpl *BillTemplate, from, to time.Time) error {
	dates, err := s.rec.DueDates(tpl, from, to)
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		return nil
	}

	existing, err := tx.ListOccurrenceDates(ctx, tpl.ID)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, d := range existing {
		have[d.Format(ISODate)] = true
	}

	now := s.now().UTC()
	for _, due := range dates {
		if have[due.Format(ISODate)] {
			continue
		}
		occ := &BillOccurrence{
			ID:                   s.newID(),
			HouseholdID:          tpl.HouseholdID,
			TemplateID:           tpl.ID,
			DueDate:              due,
			Status:               StatusUnpaid,
			AmountDueCents:       tpl.DefaultAmountCents,
			AmountRemainingCents: tpl.DefaultAmountCents,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := tx.InsertOccurrence(ctx, occ); err != nil {
			return err
		}
		if tpl.BudgetPeriodNumber != nil {
			alloc := &OccurrenceAllocation{
				ID:                   s.newID(),
				OccurrenceID:         occ.ID,
				PeriodNumber:         *tpl.BudgetPeriodNumber,
				AllocatedAmountCents: occ.AmountDueCents,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := tx.InsertAllocation(ctx, alloc); err != nil {
				return err
			}
		}
	}
	return nil
}

// readHorizon widens a query window to the default materialization horizon so
// list reads always see a fully materialized schedule.
func (s *Service) readHorizon(from, to time.Time) (time.Time, time.Time) {
	today := s.today()
	lo := today.AddDate(0, 0, -horizonPastDays)
	hi := today.AddDate(0, 0, horizonFutureDays)
	if !from.IsZero() && from.Before(lo) {
		lo = DateOnly(from)
	}
	if !to.IsZero() && to.After(hi) {
		hi = DateOnly(to)
	}
	return lo, hi
}
