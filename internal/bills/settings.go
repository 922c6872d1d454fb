package bills

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"homeledger/internal/budget"
)

// BudgetSettings returns the household's cycle preferences, falling back to
// the documented defaults when nothing was ever saved.
func (s *Service) BudgetSettings(ctx context.Context, household uuid.UUID) (budget.Settings, error) {
	return s.settingsOrDefault(ctx, household)
}

// BudgetSettingsInput is the writable subset of the cycle preferences.
type BudgetSettingsInput struct {
	Frequency       budget.Frequency
	StartDay        int
	ReferenceDate   *time.Time
	RolloverEnabled bool
}

// PutBudgetSettings validates and saves the household's cycle preferences.
func (s *Service) PutBudgetSettings(ctx context.Context, household uuid.UUID, in BudgetSettingsInput) (budget.Settings, error) {
	if _, err := budget.ParseFrequency(string(in.Frequency)); err != nil {
		return budget.Settings{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.StartDay < 1 || in.StartDay > 31 {
		return budget.Settings{}, fmt.Errorf("%w: start day must be between 1 and 31", ErrInvalidInput)
	}

	set := budget.DefaultSettings(household)
	set.Frequency = in.Frequency
	set.StartDay = in.StartDay
	set.RolloverEnabled = in.RolloverEnabled
	if in.ReferenceDate != nil {
		set.ReferenceDate = DateOnly(*in.ReferenceDate)
	}
	set.UpdatedAt = s.now().UTC()

	if err := s.store.PutSettings(ctx, &set); err != nil {
		return budget.Settings{}, err
	}
	return set, nil
}

func (s *Service) settingsOrDefault(ctx context.Context, household uuid.UUID) (budget.Settings, error) {
	set, err := s.store.GetSettings(ctx, household)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return budget.DefaultSettings(household), nil
		}
		return budget.Settings{}, err
	}
	return *set, nil
}
