// Package bills is the bill lifecycle engine: recurrence schedules,
// occurrence materialization, status reconciliation, payment application with
// principal/interest splitting, budget-period allocation, and autopay batch
// runs. All monetary values are integer cents; all dates are UTC calendar
// days.
package bills

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"homeledger/internal/budget"
)

// Materialization horizons, in days around today, used when a read does not
// supply its own window.
const (
	horizonPastDays   = 60
	horizonFutureDays = 90
)

// Service owns every mutation of bill state. All multi-step writes go through
// the store's transaction boundary; partial writes are never observable.
type Service struct {
	store   Store
	rec     RecurrenceConfig
	periods budget.Resolver
	now     func() time.Time
	newID   func() uuid.UUID
}

// ServiceOptions tune a Service. Zero values select production behavior.
type ServiceOptions struct {
	// Recurrence overrides the generation caps. Nil uses the defaults.
	Recurrence *RecurrenceConfig
	// Now supplies the clock, for tests. Nil uses time.Now.
	Now func() time.Time
	// NewID supplies identifiers, for tests. Nil uses uuid.New.
	NewID func() uuid.UUID
}

// NewService wires a Service to its store.
func NewService(store Store, opts ServiceOptions) *Service {
	s := &Service{
		store:   store,
		rec:     DefaultRecurrenceConfig(),
		periods: budget.NewResolver(),
		now:     time.Now,
		newID:   uuid.New,
	}
	if opts.Recurrence != nil {
		s.rec = *opts.Recurrence
	}
	if opts.Now != nil {
		s.now = opts.Now
	}
	if opts.NewID != nil {
		s.newID = opts.NewID
	}
	return s
}

func (s *Service) today() time.Time {
	return DateOnly(s.now())
}

// TemplateInput is the full shape for creating a bill template.
type TemplateInput struct {
	Name     string
	BillType BillType
	Category *string
	Merchant *string

	RecurrenceType RecurrenceType
	DueDay         *int
	DueWeekday     *int
	OneTimeDate    *time.Time
	StartMonth     *int

	DefaultAmountCents int64
	VariableAmount     bool
	AmountToleranceBps int32

	PaymentAccountID   *uuid.UUID
	LiabilityAccountID *uuid.UUID
	AutoMarkPaid       bool

	DebtOriginalBalanceCents  *int64
	DebtRemainingBalanceCents *int64
	InterestRateBps           int32
	InterestType              InterestType
	DebtStartDate             *time.Time
	IncludeInPayoff           bool
	TaxClass                  *string

	BudgetPeriodNumber *int
	SplitAcrossPeriods bool
}

// TemplateUpdate carries a partial update; nil fields are left untouched.
// Clearing semantics for optional columns: empty string clears Category,
// Merchant, and TaxClass; uuid.Nil clears account links; 0 clears the budget
// period assignment. Supplying RecurrenceType replaces the whole schedule
// (due day, weekday, one-time date, start month) from this update.
type TemplateUpdate struct {
	Name     *string
	Active   *bool
	Category *string
	Merchant *string

	RecurrenceType *RecurrenceType
	DueDay         *int
	DueWeekday     *int
	OneTimeDate    *time.Time
	StartMonth     *int

	DefaultAmountCents *int64
	VariableAmount     *bool
	AmountToleranceBps *int32

	PaymentAccountID   *uuid.UUID
	LiabilityAccountID *uuid.UUID
	AutoMarkPaid       *bool

	DebtRemainingBalanceCents *int64
	InterestRateBps           *int32
	InterestType              *InterestType
	IncludeInPayoff           *bool
	TaxClass                  *string

	BudgetPeriodNumber *int
	SplitAcrossPeriods *bool
}

// CreateTemplate validates and persists a new bill template. It does not
// materialize occurrences; those appear on the next read or autopay run.
func (s *Service) CreateTemplate(ctx context.Context, household uuid.UUID, in TemplateInput) (*BillTemplate, error) {
	if err := validateTemplateInput(&in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	tpl := &BillTemplate{
		ID:          s.newID(),
		HouseholdID: household,
		Name:        strings.TrimSpace(in.Name),
		Active:      true,
		BillType:    in.BillType,
		Category:    in.Category,
		Merchant:    in.Merchant,

		RecurrenceType: in.RecurrenceType,
		DueDay:         in.DueDay,
		DueWeekday:     in.DueWeekday,
		StartMonth:     in.StartMonth,

		DefaultAmountCents: in.DefaultAmountCents,
		VariableAmount:     in.VariableAmount,
		AmountToleranceBps: in.AmountToleranceBps,

		PaymentAccountID:   in.PaymentAccountID,
		LiabilityAccountID: in.LiabilityAccountID,
		AutoMarkPaid:       in.AutoMarkPaid,

		DebtOriginalBalanceCents:  in.DebtOriginalBalanceCents,
		DebtRemainingBalanceCents: in.DebtRemainingBalanceCents,
		InterestRateBps:           in.InterestRateBps,
		InterestType:              in.InterestType,
		DebtStartDate:             in.DebtStartDate,
		IncludeInPayoff:           in.IncludeInPayoff,
		TaxClass:                  in.TaxClass,

		BudgetPeriodNumber: in.BudgetPeriodNumber,
		SplitAcrossPeriods: in.SplitAcrossPeriods,

		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.OneTimeDate != nil {
		d := DateOnly(*in.OneTimeDate)
		tpl.OneTimeDate = &d
	}
	if tpl.InterestType == "" {
		tpl.InterestType = InterestNone
	}

	if err := s.store.InsertTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// GetTemplate loads one template scoped to the household.
func (s *Service) GetTemplate(ctx context.Context, household, id uuid.UUID) (*BillTemplate, error) {
	return s.store.GetTemplate(ctx, household, id)
}

// ListTemplates returns the household's templates, optionally narrowed by
// bill type and active flag.
func (s *Service) ListTemplates(ctx context.Context, household uuid.UUID, billType BillType, activeOnly bool) ([]*BillTemplate, error) {
	return s.store.ListTemplates(ctx, TemplateFilter{
		HouseholdID: household,
		Type:        billType,
		ActiveOnly:  activeOnly,
	})
}

// UpdateTemplate applies a partial update to a template.
func (s *Service) UpdateTemplate(ctx context.Context, household, id uuid.UUID, up TemplateUpdate) (*BillTemplate, error) {
	var out *BillTemplate
	err := s.store.WithTx(ctx, func(tx Tx) error {
		tpl, err := tx.GetTemplate(ctx, household, id)
		if err != nil {
			return err
		}
		applyTemplateUpdate(tpl, up)
		if err := validateTemplate(tpl); err != nil {
			return err
		}
		tpl.UpdatedAt = s.now().UTC()
		if err := tx.UpdateTemplate(ctx, tpl); err != nil {
			return err
		}
		out = tpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTemplate removes a template and everything that references it:
// occurrences, allocations, payment events, and any autopay rule, in one
// transaction.
func (s *Service) DeleteTemplate(ctx context.Context, household, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetTemplate(ctx, household, id); err != nil {
			return err
		}
		if err := tx.DeleteAllocationsByTemplate(ctx, id); err != nil {
			return err
		}
		if err := tx.DeletePaymentEventsByTemplate(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteOccurrencesByTemplate(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteAutopayRule(ctx, household, id); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return tx.DeleteTemplate(ctx, household, id)
	})
}

func applyTemplateUpdate(tpl *BillTemplate, up TemplateUpdate) {
	if up.Name != nil {
		tpl.Name = strings.TrimSpace(*up.Name)
	}
	if up.Active != nil {
		tpl.Active = *up.Active
	}
	if up.Category != nil {
		tpl.Category = clearableString(*up.Category)
	}
	if up.Merchant != nil {
		tpl.Merchant = clearableString(*up.Merchant)
	}
	if up.RecurrenceType != nil {
		tpl.RecurrenceType = *up.RecurrenceType
		tpl.DueDay = up.DueDay
		tpl.DueWeekday = up.DueWeekday
		tpl.StartMonth = up.StartMonth
		tpl.OneTimeDate = nil
		if up.OneTimeDate != nil {
			d := DateOnly(*up.OneTimeDate)
			tpl.OneTimeDate = &d
		}
	}
	if up.DefaultAmountCents != nil {
		tpl.DefaultAmountCents = *up.DefaultAmountCents
	}
	if up.VariableAmount != nil {
		tpl.VariableAmount = *up.VariableAmount
	}
	if up.AmountToleranceBps != nil {
		tpl.AmountToleranceBps = *up.AmountToleranceBps
	}
	if up.PaymentAccountID != nil {
		tpl.PaymentAccountID = clearableID(*up.PaymentAccountID)
	}
	if up.LiabilityAccountID != nil {
		tpl.LiabilityAccountID = clearableID(*up.LiabilityAccountID)
	}
	if up.AutoMarkPaid != nil {
		tpl.AutoMarkPaid = *up.AutoMarkPaid
	}
	if up.DebtRemainingBalanceCents != nil {
		tpl.DebtRemainingBalanceCents = up.DebtRemainingBalanceCents
	}
	if up.InterestRateBps != nil {
		tpl.InterestRateBps = *up.InterestRateBps
	}
	if up.InterestType != nil {
		tpl.InterestType = *up.InterestType
	}
	if up.IncludeInPayoff != nil {
		tpl.IncludeInPayoff = *up.IncludeInPayoff
	}
	if up.TaxClass != nil {
		tpl.TaxClass = clearableString(*up.TaxClass)
	}
	if up.BudgetPeriodNumber != nil {
		if *up.BudgetPeriodNumber == 0 {
			tpl.BudgetPeriodNumber = nil
		} else {
			tpl.BudgetPeriodNumber = up.BudgetPeriodNumber
		}
	}
	if up.SplitAcrossPeriods != nil {
		tpl.SplitAcrossPeriods = *up.SplitAcrossPeriods
	}
}

func clearableString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func clearableID(v uuid.UUID) *uuid.UUID {
	if v == uuid.Nil {
		return nil
	}
	return &v
}

func validateTemplateInput(in *TemplateInput) error {
	tpl := &BillTemplate{
		Name:               in.Name,
		BillType:           in.BillType,
		RecurrenceType:     in.RecurrenceType,
		DueDay:             in.DueDay,
		DueWeekday:         in.DueWeekday,
		OneTimeDate:        in.OneTimeDate,
		StartMonth:         in.StartMonth,
		DefaultAmountCents: in.DefaultAmountCents,
	}
	return validateTemplate(tpl)
}

func validateTemplate(tpl *BillTemplate) error {
	if strings.TrimSpace(tpl.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if tpl.BillType != BillTypeExpense && tpl.BillType != BillTypeIncome {
		return fmt.Errorf("%w: unknown bill type %q", ErrInvalidInput, tpl.BillType)
	}
	if tpl.DefaultAmountCents < 0 {
		return fmt.Errorf("%w: default amount must not be negative", ErrInvalidInput)
	}

	switch tpl.RecurrenceType {
	case RecurrenceOneTime:
		if tpl.OneTimeDate == nil {
			return fmt.Errorf("%w: one-time bill needs a due date", ErrInvalidInput)
		}
	case RecurrenceWeekly, RecurrenceBiweekly:
		if tpl.DueWeekday == nil || *tpl.DueWeekday < 0 || *tpl.DueWeekday > 6 {
			return fmt.Errorf("%w: %s bill needs a weekday between 0 and 6",
				ErrInvalidInput, tpl.RecurrenceType)
		}
	case RecurrenceMonthly, RecurrenceQuarterly, RecurrenceSemiannual, RecurrenceAnnual:
		if tpl.DueDay == nil || *tpl.DueDay < 1 || *tpl.DueDay > 31 {
			return fmt.Errorf("%w: %s bill needs a day of month between 1 and 31",
				ErrInvalidInput, tpl.RecurrenceType)
		}
		if tpl.StartMonth != nil && (*tpl.StartMonth < 1 || *tpl.StartMonth > 12) {
			return fmt.Errorf("%w: start month must be between 1 and 12", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidInput, tpl.RecurrenceType)
	}
	return nil
}
