package bills

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GetBill loads one occurrence with its template and allocations.
func (s *Service) GetBill(ctx context.Context, household, occurrenceID uuid.UUID) (*BillRow, error) {
	occ, err := s.store.GetOccurrence(ctx, household, occurrenceID)
	if err != nil {
		return nil, err
	}
	tpl, err := s.store.GetTemplate(ctx, household, occ.TemplateID)
	if err != nil {
		return nil, err
	}
	allocs, err := s.store.ListAllocations(ctx, occ.ID)
	if err != nil {
		return nil, err
	}
	return &BillRow{Occurrence: occ, Template: tpl, Allocations: allocs}, nil
}

// OccurrenceUpdate carries per-occurrence overrides; nil fields are left
// untouched. Setting BudgetPeriodOverride to 0 clears it.
type OccurrenceUpdate struct {
	// AmountDueCents overrides the amount for this occurrence only, for
	// variable bills whose statement differs from the default.
	AmountDueCents       *int64
	DueDate              *time.Time
	LateFeeCents         *int64
	BudgetPeriodOverride *int
	Notes                *string
}

// UpdateOccurrence applies per-occurrence overrides. Amount changes are only
// allowed before any payment, and when the occurrence's amount is split
// across several allocations the split must be rewritten first.
func (s *Service) UpdateOccurrence(ctx context.Context, household, occurrenceID uuid.UUID, up OccurrenceUpdate) (*BillOccurrence, error) {
	if up.AmountDueCents != nil && *up.AmountDueCents < 0 {
		return nil, fmt.Errorf("%w: amount due must not be negative", ErrInvalidInput)
	}
	if up.LateFeeCents != nil && *up.LateFeeCents < 0 {
		return nil, fmt.Errorf("%w: late fee must not be negative", ErrInvalidInput)
	}

	var out *BillOccurrence
	err := s.store.WithTx(ctx, func(tx Tx) error {
		occ, err := tx.GetOccurrence(ctx, household, occurrenceID)
		if err != nil {
			return err
		}
		now := s.now().UTC()

		if up.AmountDueCents != nil && *up.AmountDueCents != occ.AmountDueCents {
			if occ.AmountPaidCents > 0 {
				return fmt.Errorf("%w: amount cannot change after payment has started", ErrConflict)
			}
			allocs, err := tx.ListAllocations(ctx, occ.ID)
			if err != nil {
				return err
			}
			switch len(allocs) {
			case 0:
				// nothing to keep in sync
			case 1:
				allocs[0].AllocatedAmountCents = *up.AmountDueCents
				allocs[0].UpdatedAt = now
				if err := tx.UpdateAllocation(ctx, allocs[0]); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: rewrite the allocation split before changing the amount", ErrConflict)
			}
			occ.AmountDueCents = *up.AmountDueCents
			occ.AmountRemainingCents = *up.AmountDueCents
			occ.ManualOverride = true
		}

		if up.DueDate != nil {
			due := DateOnly(*up.DueDate)
			if !due.Equal(occ.DueDate) {
				taken, err := tx.ListOccurrenceDates(ctx, occ.TemplateID)
				if err != nil {
					return err
				}
				for _, d := range taken {
					if d.Equal(due) {
						return fmt.Errorf("%w: an occurrence for %s already exists",
							ErrConflict, due.Format(ISODate))
					}
				}
				occ.DueDate = due
				occ.ManualOverride = true
			}
		}

		if up.LateFeeCents != nil {
			occ.LateFeeCents = *up.LateFeeCents
		}
		if up.BudgetPeriodOverride != nil {
			if *up.BudgetPeriodOverride == 0 {
				occ.BudgetPeriodOverride = nil
			} else {
				occ.BudgetPeriodOverride = up.BudgetPeriodOverride
			}
		}
		if up.Notes != nil {
			occ.Notes = *up.Notes
		}

		// Redate or amount change can move the occurrence across the
		// due/overdue line.
		if occ.Status.Outstanding() {
			today := s.today()
			if occ.DueDate.Before(today) && occ.AmountRemainingCents > 0 {
				occ.Status = StatusOverdue
				occ.DaysLate = WholeDaysBetween(occ.DueDate, today)
			} else {
				if occ.AmountPaidCents > 0 {
					occ.Status = StatusPartial
				} else {
					occ.Status = StatusUnpaid
				}
				occ.DaysLate = 0
			}
		}

		occ.UpdatedAt = now
		if err := tx.UpdateOccurrence(ctx, occ); err != nil {
			return err
		}
		out = occ
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
