package bills

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// autopayWindowDays is the materialization window around a run date.
const autopayWindowDays = 60

// AutopayRuleInput configures automatic payment for a template.
type AutopayRuleInput struct {
	Enabled          bool
	DaysBeforeDue    int
	AmountType       AutopayAmountType
	FixedAmountCents int64
	AccountID        uuid.UUID
}

// PutAutopayRule creates or replaces the autopay rule for a template. One
// rule per template.
func (s *Service) PutAutopayRule(ctx context.Context, household, templateID uuid.UUID, in AutopayRuleInput) (*AutopayRule, error) {
	if in.DaysBeforeDue < 0 {
		return nil, fmt.Errorf("%w: days before due must not be negative", ErrInvalidInput)
	}
	if in.AmountType != AutopayAmountRemaining && in.AmountType != AutopayAmountFixed {
		return nil, fmt.Errorf("%w: unknown autopay amount type %q", ErrInvalidInput, in.AmountType)
	}
	if in.AmountType == AutopayAmountFixed && in.FixedAmountCents <= 0 {
		return nil, fmt.Errorf("%w: fixed autopay amount must be positive", ErrInvalidInput)
	}
	if in.AccountID == uuid.Nil {
		return nil, fmt.Errorf("%w: a funding account is required", ErrInvalidInput)
	}

	var out *AutopayRule
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetTemplate(ctx, household, templateID); err != nil {
			return err
		}
		if _, err := tx.GetAccount(ctx, household, in.AccountID); err != nil {
			return err
		}

		now := s.now().UTC()
		rule := &AutopayRule{
			ID:          s.newID(),
			HouseholdID: household,
			TemplateID:  templateID,
			CreatedAt:   now,
		}
		if prior, err := tx.GetAutopayRule(ctx, household, templateID); err == nil {
			rule.ID = prior.ID
			rule.CreatedAt = prior.CreatedAt
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		rule.Enabled = in.Enabled
		rule.DaysBeforeDue = in.DaysBeforeDue
		rule.AmountType = in.AmountType
		rule.FixedAmountCents = in.FixedAmountCents
		rule.AccountID = in.AccountID
		rule.UpdatedAt = now

		if err := tx.UpsertAutopayRule(ctx, rule); err != nil {
			return err
		}
		out = rule
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAutopayRule returns the rule configured for a template.
func (s *Service) GetAutopayRule(ctx context.Context, household, templateID uuid.UUID) (*AutopayRule, error) {
	return s.store.GetAutopayRule(ctx, household, templateID)
}

// ListAutopayRules returns every rule in the household.
func (s *Service) ListAutopayRules(ctx context.Context, household uuid.UUID) ([]*AutopayRule, error) {
	return s.store.ListAutopayRules(ctx, household)
}

// DeleteAutopayRule removes a template's rule.
func (s *Service) DeleteAutopayRule(ctx context.Context, household, templateID uuid.UUID) error {
	return s.store.DeleteAutopayRule(ctx, household, templateID)
}

// ListAutopayRuns returns recent batch runs, newest first.
func (s *Service) ListAutopayRuns(ctx context.Context, household uuid.UUID, limit int) ([]*AutopayRun, error) {
	return s.store.ListAutopayRuns(ctx, household, limit)
}

// AutopayRunOptions tune one batch run.
type AutopayRunOptions struct {
	// RunDate defaults to today.
	RunDate *time.Time
	// RunType defaults to manual. Dry runs count matches but move no money.
	RunType AutopayRunType
}

type autopayCandidate struct {
	rule *AutopayRule
	tpl  *BillTemplate
	occ  *BillOccurrence
}

// RunAutopay executes the household's enabled autopay rules for a run date.
// Each matched occurrence is paid in its own transaction; one failure is
// recorded and the batch continues. The returned run carries the aggregate
// counts and per-item errors.
func (s *Service) RunAutopay(ctx context.Context, household uuid.UUID, opts AutopayRunOptions) (*AutopayRun, error) {
	runDate := s.today()
	if opts.RunDate != nil {
		runDate = DateOnly(*opts.RunDate)
	}
	runType := opts.RunType
	if runType == "" {
		runType = RunTypeManual
	}
	if runType != RunTypeScheduled && runType != RunTypeManual && runType != RunTypeDryRun {
		return nil, fmt.Errorf("%w: unknown autopay run type %q", ErrInvalidInput, runType)
	}

	run := &AutopayRun{
		ID:          s.newID(),
		HouseholdID: household,
		RunDate:     runDate,
		RunType:     runType,
		Status:      RunStarted,
		StartedAt:   s.now().UTC(),
	}
	if err := s.store.InsertAutopayRun(ctx, run); err != nil {
		return nil, err
	}

	candidates, err := s.autopayCandidates(ctx, household, runDate)
	if err != nil {
		// Discovery failed before any item ran: the whole run is failed.
		return nil, errors.Join(err, s.finalizeRun(ctx, run, RunFailed, err.Error()))
	}

	for _, c := range candidates {
		amount := c.occ.AmountRemainingCents
		if c.rule.AmountType == AutopayAmountFixed {
			amount = min(c.rule.FixedAmountCents, c.occ.AmountRemainingCents)
		}

		run.ProcessedCount++
		if amount <= 0 || runType == RunTypeDryRun {
			run.SkippedCount++
			continue
		}

		_, payErr := s.PayOccurrence(ctx, household, c.occ.ID, PayInput{
			AmountCents: &amount,
			PaymentDate: &runDate,
			AccountID:   c.rule.AccountID,
			Method:      MethodAutopay,
		})
		if payErr != nil {
			run.FailedCount++
			run.Errors = append(run.Errors, AutopayItemError{
				OccurrenceID: c.occ.ID,
				TemplateID:   c.tpl.ID,
				Code:         ErrorCode(payErr),
				Message:      payErr.Error(),
			})
			continue
		}
		run.SuccessCount++
		run.TotalAmountCents += amount
	}

	status := RunCompleted
	if run.FailedCount > 0 {
		status = RunFailed
	}
	// The payments above are already committed; a failed finalize must still
	// surface so the run is not silently stranded in started.
	if err := s.finalizeRun(ctx, run, status, ""); err != nil {
		return run, err
	}
	return run, nil
}

// autopayCandidates materializes and refreshes a window around the run date,
// then matches outstanding occurrences whose trigger date (due date minus the
// rule's lead days) equals the run date.
func (s *Service) autopayCandidates(ctx context.Context, household uuid.UUID, runDate time.Time) ([]autopayCandidate, error) {
	from := runDate.AddDate(0, 0, -autopayWindowDays)
	to := runDate.AddDate(0, 0, autopayWindowDays)
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if err := s.materializeHousehold(ctx, tx, household, from, to); err != nil {
			return err
		}
		return s.refreshHousehold(ctx, tx, household)
	})
	if err != nil {
		return nil, err
	}

	rules, err := s.store.ListAutopayRules(ctx, household)
	if err != nil {
		return nil, err
	}

	var out []autopayCandidate
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		tpl, err := s.store.GetTemplate(ctx, household, rule.TemplateID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !tpl.Active {
			continue
		}

		target := runDate.AddDate(0, 0, rule.DaysBeforeDue)
		occs, err := s.store.ListOccurrences(ctx, OccurrenceFilter{
			HouseholdID: household,
			TemplateID:  tpl.ID,
			Statuses:    OutstandingStatuses(),
			DueFrom:     target,
			DueTo:       target,
		})
		if err != nil {
			return nil, err
		}
		for _, occ := range occs {
			out = append(out, autopayCandidate{rule: rule, tpl: tpl, occ: occ})
		}
	}
	return out, nil
}

func (s *Service) finalizeRun(ctx context.Context, run *AutopayRun, status AutopayRunStatus, errMsg string) error {
	now := s.now().UTC()
	run.Status = status
	run.ErrorMessage = errMsg
	run.CompletedAt = &now
	if err := s.store.UpdateAutopayRun(ctx, run); err != nil {
		return fmt.Errorf("finalize autopay run %s: %w", run.ID, err)
	}
	return nil
}

// RunScheduledAutopay runs autopay for every household that has at least one
// enabled rule. Intended for a daily scheduler. A failing household does not
// stop the others; their errors come back joined.
func (s *Service) RunScheduledAutopay(ctx context.Context) ([]*AutopayRun, error) {
	rules, err := s.store.ListEnabledAutopayRules(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{}
	var households []uuid.UUID
	for _, rule := range rules {
		if !seen[rule.HouseholdID] {
			seen[rule.HouseholdID] = true
			households = append(households, rule.HouseholdID)
		}
	}

	var runs []*AutopayRun
	var errs []error
	for _, h := range households {
		run, err := s.RunAutopay(ctx, h, AutopayRunOptions{RunType: RunTypeScheduled})
		if err != nil {
			errs = append(errs, fmt.Errorf("household %s: %w", h, err))
			continue
		}
		runs = append(runs, run)
	}
	return runs, errors.Join(errs...)
}
