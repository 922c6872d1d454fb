package bills

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PayInput describes one payment against an occurrence.
type PayInput struct {
	// AmountCents is the payment size; nil pays the remaining amount.
	AmountCents *int64
	// PaymentDate defaults to today.
	PaymentDate *time.Time
	// AccountID is the funding account. Required.
	AccountID uuid.UUID
	// AllocationID, when set, is consumed first when spreading the payment
	// across budget-period allocations.
	AllocationID *uuid.UUID
	// IdempotencyKey makes retries safe: a second call with the same key
	// returns the first call's result without writing anything.
	IdempotencyKey string
	Notes          string
	// Method defaults to manual.
	Method PaymentMethod
}

// PayResult is everything a payment changed.
type PayResult struct {
	Occurrence  *BillOccurrence
	Payment     *PaymentEvent
	Allocations []*OccurrenceAllocation
	// Replayed is true when an idempotency key matched a prior payment and
	// nothing was written.
	Replayed bool
}

// PayOccurrence applies a payment: it writes the money movement and the new
// account balance, splits principal/interest for debt-bearing templates,
// records the immutable payment event, recomputes the occurrence's amounts
// and status, and spreads the payment across allocations. All of it commits
// or none of it does.
func (s *Service) PayOccurrence(ctx context.Context, household, occurrenceID uuid.UUID, in PayInput) (*PayResult, error) {
	if in.IdempotencyKey != "" {
		if prior, err := s.replayPayment(ctx, household, in.IdempotencyKey); err == nil {
			return prior, nil
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	var result *PayResult
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		result, err = s.payInTx(ctx, tx, household, occurrenceID, in)
		return err
	})
	if err != nil {
		// A concurrent retry can slip past the pre-check and hit the unique
		// index on the key instead; that commit is the result to return.
		if in.IdempotencyKey != "" && errors.Is(err, ErrConflict) {
			if prior, rerr := s.replayPayment(ctx, household, in.IdempotencyKey); rerr == nil {
				return prior, nil
			}
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) payInTx(ctx context.Context, tx Tx, household, occurrenceID uuid.UUID, in PayInput) (*PayResult, error) {
	occ, err := tx.GetOccurrence(ctx, household, occurrenceID)
	if err != nil {
		return nil, err
	}
	if occ.Status.Settled() {
		return nil, fmt.Errorf("%w: occurrence is already fully paid", ErrConflict)
	}

	tpl, err := tx.GetTemplate(ctx, household, occ.TemplateID)
	if err != nil {
		return nil, err
	}

	if in.AccountID == uuid.Nil {
		return nil, fmt.Errorf("%w: a source account is required", ErrInvalidInput)
	}
	account, err := tx.GetAccount(ctx, household, in.AccountID)
	if err != nil {
		return nil, err
	}

	amount := occ.AmountRemainingCents
	if in.AmountCents != nil {
		amount = *in.AmountCents
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}

	payDate := s.today()
	if in.PaymentDate != nil {
		payDate = DateOnly(*in.PaymentDate)
	}
	method := in.Method
	if method == "" {
		method = MethodManual
	}

	now := s.now().UTC()

	// Money movement and balance update travel in the same transaction as
	// the payment event: one never exists without the other.
	signed := -amount
	desc := "Bill payment: " + tpl.Name
	if tpl.BillType == BillTypeIncome {
		signed = amount
		desc = "Income received: " + tpl.Name
	}
	movement := &AccountTransaction{
		ID:           s.newID(),
		HouseholdID:  household,
		AccountID:    account.ID,
		AmountCents:  signed,
		OccurredOn:   payDate,
		Description:  desc,
		Method:       method,
		OccurrenceID: &occ.ID,
		CreatedAt:    now,
	}
	if err := tx.InsertAccountTransaction(ctx, movement); err != nil {
		return nil, err
	}
	if err := tx.UpdateAccountBalance(ctx, household, account.ID, account.BalanceCents+signed, now); err != nil {
		return nil, err
	}

	ev := &PaymentEvent{
		ID:             s.newID(),
		HouseholdID:    household,
		OccurrenceID:   occ.ID,
		TemplateID:     tpl.ID,
		TransactionID:  movement.ID,
		AccountID:      account.ID,
		AmountCents:    amount,
		PaidOn:         payDate,
		Method:         method,
		IdempotencyKey: in.IdempotencyKey,
		Notes:          in.Notes,
		CreatedAt:      now,
	}

	tplDirty := false
	if tpl.DebtBearing() {
		before := *tpl.DebtRemainingBalanceCents
		principal := min(amount, before)
		interest := amount - principal
		after := max(int64(0), before-principal)

		ev.PrincipalCents = &principal
		ev.InterestCents = &interest
		ev.BalanceBeforeCents = &before
		ev.BalanceAfterCents = &after

		tpl.DebtRemainingBalanceCents = &after
		tplDirty = true
	}

	if err := tx.InsertPaymentEvent(ctx, ev); err != nil {
		return nil, err
	}

	totalPaid := occ.AmountPaidCents + amount
	remaining := max(int64(0), occ.AmountDueCents-totalPaid)
	occ.AmountPaidCents = totalPaid
	occ.AmountRemainingCents = remaining
	occ.ActualAmountCents = totalPaid
	occ.Status = paymentStatus(totalPaid, occ.AmountDueCents, remaining, payDate, occ.DueDate)
	occ.PaidDate = nil
	occ.DaysLate = 0
	if remaining == 0 {
		occ.PaidDate = &payDate
	}
	if occ.Status == StatusOverdue {
		occ.DaysLate = max(0, WholeDaysBetween(occ.DueDate, s.today()))
	}
	occ.LastTransactionID = &movement.ID
	occ.UpdatedAt = now
	if err := tx.UpdateOccurrence(ctx, occ); err != nil {
		return nil, err
	}

	allocs, err := s.applyPaymentToAllocations(ctx, tx, occ.ID, amount, in.AllocationID, ev.ID, now)
	if err != nil {
		return nil, err
	}

	// A settled one-time bill is done; stop generating it.
	if tpl.RecurrenceType == RecurrenceOneTime && occ.Status.Settled() && tpl.Active {
		tpl.Active = false
		tplDirty = true
	}
	if tplDirty {
		tpl.UpdatedAt = now
		if err := tx.UpdateTemplate(ctx, tpl); err != nil {
			return nil, err
		}
	}

	return &PayResult{Occurrence: occ, Payment: ev, Allocations: allocs}, nil
}

// paymentStatus resolves the post-payment status. A late partial payment
// lands on overdue, not partial.
func paymentStatus(totalPaid, due, remaining int64, payDate, dueDate time.Time) OccurrenceStatus {
	switch {
	case remaining == 0 && totalPaid == due:
		return StatusPaid
	case totalPaid > due:
		return StatusOverpaid
	case payDate.After(dueDate):
		return StatusOverdue
	case totalPaid > 0:
		return StatusPartial
	}
	return StatusUnpaid
}

// replayPayment rebuilds the result of an already-committed payment from its
// idempotency key.
func (s *Service) replayPayment(ctx context.Context, household uuid.UUID, key string) (*PayResult, error) {
	ev, err := s.store.GetPaymentEventByKey(ctx, household, key)
	if err != nil {
		return nil, err
	}
	occ, err := s.store.GetOccurrence(ctx, household, ev.OccurrenceID)
	if err != nil {
		return nil, err
	}
	allocs, err := s.store.ListAllocations(ctx, occ.ID)
	if err != nil {
		return nil, err
	}
	return &PayResult{Occurrence: occ, Payment: ev, Allocations: allocs, Replayed: true}, nil
}

// SkipOccurrence marks an occurrence skipped. No balance effect; any status
// may be skipped.
func (s *Service) SkipOccurrence(ctx context.Context, household, occurrenceID uuid.UUID, notes string) (*BillOccurrence, error) {
	var out *BillOccurrence
	err := s.store.WithTx(ctx, func(tx Tx) error {
		occ, err := tx.GetOccurrence(ctx, household, occurrenceID)
		if err != nil {
			return err
		}
		occ.Status = StatusSkipped
		if notes != "" {
			occ.Notes = notes
		}
		occ.UpdatedAt = s.now().UTC()
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

// ResetOccurrence reverts an occurrence to its unpaid state: amounts back to
// fully owing, paid date and transaction link cleared, every allocation's
// paid amount zeroed. Prior payment events and their account-balance effects
// are deliberately left standing; the audit trail survives a reset.
func (s *Service) ResetOccurrence(ctx context.Context, household, occurrenceID uuid.UUID) (*BillOccurrence, error) {
	var out *BillOccurrence
	err := s.store.WithTx(ctx, func(tx Tx) error {
		occ, err := tx.GetOccurrence(ctx, household, occurrenceID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		today := s.today()

		occ.AmountPaidCents = 0
		occ.AmountRemainingCents = occ.AmountDueCents
		occ.ActualAmountCents = 0
		occ.PaidDate = nil
		occ.LastTransactionID = nil
		if occ.DueDate.Before(today) {
			occ.Status = StatusOverdue
			occ.DaysLate = WholeDaysBetween(occ.DueDate, today)
		} else {
			occ.Status = StatusUnpaid
			occ.DaysLate = 0
		}
		occ.UpdatedAt = now
		if err := tx.UpdateOccurrence(ctx, occ); err != nil {
			return err
		}

		allocs, err := tx.ListAllocations(ctx, occ.ID)
		if err != nil {
			return err
		}
		for _, a := range allocs {
			if a.PaidAmountCents == 0 && !a.IsPaid && a.PaymentEventID == nil {
				continue
			}
			a.PaidAmountCents = 0
			a.IsPaid = false
			a.PaymentEventID = nil
			a.UpdatedAt = now
			if err := tx.UpdateAllocation(ctx, a); err != nil {
				return err
			}
		}

		out = occ
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentHistory lists the payment events recorded against an occurrence,
// newest first.
func (s *Service) PaymentHistory(ctx context.Context, household, occurrenceID uuid.UUID) ([]*PaymentEvent, error) {
	if _, err := s.store.GetOccurrence(ctx, household, occurrenceID); err != nil {
		return nil, err
	}
	return s.store.ListPaymentEvents(ctx, occurrenceID)
}
