package bills

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AccountInput creates a funding account.
type AccountInput struct {
	Name                string
	AccountType         AccountType
	OpeningBalanceCents int64
}

// CreateAccount registers a money account whose balance bill payments will
// mutate.
func (s *Service) CreateAccount(ctx context.Context, household uuid.UUID, in AccountInput) (*Account, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := ParseAccountType(string(in.AccountType)); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	acc := &Account{
		ID:           s.newID(),
		HouseholdID:  household,
		Name:         strings.TrimSpace(in.Name),
		AccountType:  in.AccountType,
		BalanceCents: in.OpeningBalanceCents,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertAccount(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// GetAccount loads one account scoped to the household.
func (s *Service) GetAccount(ctx context.Context, household, id uuid.UUID) (*Account, error) {
	return s.store.GetAccount(ctx, household, id)
}

// ListAccounts returns the household's accounts.
func (s *Service) ListAccounts(ctx context.Context, household uuid.UUID) ([]*Account, error) {
	return s.store.ListAccounts(ctx, household)
}

// AdjustAccountBalance records a manual correction as its own money movement
// so the ledger explains every balance change.
func (s *Service) AdjustAccountBalance(ctx context.Context, household, accountID uuid.UUID, deltaCents int64, note string) (*Account, error) {
	if deltaCents == 0 {
		return nil, fmt.Errorf("%w: adjustment must not be zero", ErrInvalidInput)
	}

	var out *Account
	err := s.store.WithTx(ctx, func(tx Tx) error {
		acc, err := tx.GetAccount(ctx, household, accountID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		desc := note
		if desc == "" {
			desc = "Balance adjustment"
		}
		movement := &AccountTransaction{
			ID:          s.newID(),
			HouseholdID: household,
			AccountID:   acc.ID,
			AmountCents: deltaCents,
			OccurredOn:  s.today(),
			Description: desc,
			Method:      MethodManual,
			CreatedAt:   now,
		}
		if err := tx.InsertAccountTransaction(ctx, movement); err != nil {
			return err
		}
		acc.BalanceCents += deltaCents
		if err := tx.UpdateAccountBalance(ctx, household, acc.ID, acc.BalanceCents, now); err != nil {
			return err
		}
		acc.UpdatedAt = now
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AccountHistory lists an account's money movements, newest first. A nil
// account id returns movements across the whole household.
func (s *Service) AccountHistory(ctx context.Context, household, accountID uuid.UUID, limit int) ([]*AccountTransaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if accountID != uuid.Nil {
		if _, err := s.store.GetAccount(ctx, household, accountID); err != nil {
			return nil, err
		}
	}
	return s.store.ListAccountTransactions(ctx, household, accountID, limit)
}
