package bills

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AllocationInput is one slice of a replacement allocation set.
type AllocationInput struct {
	PeriodNumber         int
	AllocatedAmountCents int64
}

// SetAllocations replaces an occurrence's allocation set wholesale. Only
// allowed before any payment: once money has moved the split is frozen. The
// new set must cover the amount due exactly.
func (s *Service) SetAllocations(ctx context.Context, household, occurrenceID uuid.UUID, ins []AllocationInput) ([]*OccurrenceAllocation, error) {
	seen := make(map[int]bool, len(ins))
	var sum int64
	for _, in := range ins {
		if in.AllocatedAmountCents < 0 {
			return nil, fmt.Errorf("%w: allocation amounts must not be negative", ErrInvalidInput)
		}
		if seen[in.PeriodNumber] {
			return nil, fmt.Errorf("%w: duplicate allocation for period %d", ErrInvalidInput, in.PeriodNumber)
		}
		seen[in.PeriodNumber] = true
		sum += in.AllocatedAmountCents
	}

	var out []*OccurrenceAllocation
	err := s.store.WithTx(ctx, func(tx Tx) error {
		occ, err := tx.GetOccurrence(ctx, household, occurrenceID)
		if err != nil {
			return err
		}
		if occ.AmountPaidCents > 0 {
			return fmt.Errorf("%w: allocations cannot change after payment has started", ErrConflict)
		}
		if sum != occ.AmountDueCents {
			return fmt.Errorf("%w: allocations total %d cents but the occurrence is due %d cents",
				ErrInvalidInput, sum, occ.AmountDueCents)
		}

		if err := tx.DeleteAllocations(ctx, occ.ID); err != nil {
			return err
		}
		now := s.now().UTC()
		out = make([]*OccurrenceAllocation, 0, len(ins))
		for _, in := range ins {
			a := &OccurrenceAllocation{
				ID:                   s.newID(),
				OccurrenceID:         occ.ID,
				PeriodNumber:         in.PeriodNumber,
				AllocatedAmountCents: in.AllocatedAmountCents,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := tx.InsertAllocation(ctx, a); err != nil {
				return err
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListOccurrenceAllocations returns an occurrence's allocations in period
// order.
func (s *Service) ListOccurrenceAllocations(ctx context.Context, household, occurrenceID uuid.UUID) ([]*OccurrenceAllocation, error) {
	if _, err := s.store.GetOccurrence(ctx, household, occurrenceID); err != nil {
		return nil, err
	}
	return s.store.ListAllocations(ctx, occurrenceID)
}

// applyPaymentToAllocations spreads a payment greedily: the prioritized
// allocation first when requested, then the rest in period order, each
// consuming min(what's left of the payment, its own remaining capacity).
// Earlier periods settle before later ones touch a cent.
func (s *Service) applyPaymentToAllocations(ctx context.Context, tx Tx, occurrenceID uuid.UUID, amount int64, prioritize *uuid.UUID, eventID uuid.UUID, now time.Time) ([]*OccurrenceAllocation, error) {
	allocs, err := tx.ListAllocations(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}
	if len(allocs) == 0 {
		return allocs, nil
	}

	order := allocs
	if prioritize != nil {
		order = make([]*OccurrenceAllocation, 0, len(allocs))
		for _, a := range allocs {
			if a.ID == *prioritize {
				order = append(order, a)
			}
		}
		for _, a := range allocs {
			if a.ID != *prioritize {
				order = append(order, a)
			}
		}
	}

	left := amount
	for _, a := range order {
		if left <= 0 {
			break
		}
		capacity := a.RemainingCents()
		if capacity <= 0 {
			continue
		}
		take := min(left, capacity)
		a.PaidAmountCents += take
		if a.PaidAmountCents >= a.AllocatedAmountCents {
			a.IsPaid = true
		}
		evID := eventID
		a.PaymentEventID = &evID
		a.UpdatedAt = now
		if err := tx.UpdateAllocation(ctx, a); err != nil {
			return nil, err
		}
		left -= take
	}
	return allocs, nil
}
