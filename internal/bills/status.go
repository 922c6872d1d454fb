package bills

import (
	"context"

	"github.com/google/uuid"
)

// RefreshStatuses reconciles every outstanding occurrence's status with
// today's date and its amount state. Runs before any status-dependent read so
// status never drifts from amounts. Idempotent.
func (s *Service) RefreshStatuses(ctx context.Context, household uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx Tx) error {
		return s.refreshHousehold(ctx, tx, household)
	})
}

func (s *Service) refreshHousehold(ctx context.Context, tx Tx, household uuid.UUID) error {
	today := s.today()
	occs, err := tx.ListOccurrences(ctx, OccurrenceFilter{
		HouseholdID: household,
		Statuses:    OutstandingStatuses(),
	})
	if err != nil {
		return err
	}

	for _, occ := range occs {
		changed := false

		switch {
		// Amounts say settled but status lags. Payment sets status itself,
		// so this repairs drift and closes out zero-due occurrences, which
		// have nothing left to pay from the moment they materialize.
		case occ.AmountRemainingCents == 0 && occ.AmountPaidCents == occ.AmountDueCents:
			occ.Status = StatusPaid
			occ.DaysLate = 0
			changed = true

		// Past due with money outstanding.
		case occ.DueDate.Before(today) && occ.AmountRemainingCents > 0:
			late := WholeDaysBetween(occ.DueDate, today)
			if occ.Status != StatusOverdue || occ.DaysLate != late {
				occ.Status = StatusOverdue
				occ.DaysLate = late
				changed = true
			}

		// Due today or later: an overdue marking no longer applies.
		case occ.Status == StatusOverdue:
			switch {
			case occ.AmountRemainingCents == 0 && occ.AmountPaidCents > 0:
				occ.Status = StatusPaid
			case occ.AmountPaidCents > 0:
				occ.Status = StatusPartial
			default:
				occ.Status = StatusUnpaid
			}
			occ.DaysLate = 0
			changed = true
		}

		if changed {
			occ.UpdatedAt = s.now().UTC()
			if err := tx.UpdateOccurrence(ctx, occ); err != nil {
				return err
			}
		}
	}
	return nil
}
