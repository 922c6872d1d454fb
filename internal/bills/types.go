package bills

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ISODate is the wire format for all calendar dates.
const ISODate = "2006-01-02"

// BillType distinguishes money leaving the household from money coming in.
type BillType string

const (
	BillTypeExpense BillType = "expense"
	BillTypeIncome  BillType = "income"
)

// ParseBillType validates a wire value against the closed set.
func ParseBillType(s string) (BillType, error) {
	switch BillType(s) {
	case BillTypeExpense, BillTypeIncome:
		return BillType(s), nil
	}
	return "", fmt.Errorf("%w: unknown bill type %q", ErrInvalidInput, s)
}

// RecurrenceType is the cadence on which a template generates occurrences.
type RecurrenceType string

const (
	RecurrenceOneTime    RecurrenceType = "one_time"
	RecurrenceWeekly     RecurrenceType = "weekly"
	RecurrenceBiweekly   RecurrenceType = "biweekly"
	RecurrenceMonthly    RecurrenceType = "monthly"
	RecurrenceQuarterly  RecurrenceType = "quarterly"
	RecurrenceSemiannual RecurrenceType = "semiannual"
	RecurrenceAnnual     RecurrenceType = "annual"
)

// ParseRecurrenceType validates a wire value against the closed set.
func ParseRecurrenceType(s string) (RecurrenceType, error) {
	switch RecurrenceType(s) {
	case RecurrenceOneTime, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly,
		RecurrenceQuarterly, RecurrenceSemiannual, RecurrenceAnnual:
		return RecurrenceType(s), nil
	}
	return "", fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidInput, s)
}

// MonthInterval returns the number of months between occurrences for
// month-based cadences, or 0 for the others.
func (r RecurrenceType) MonthInterval() int {
	switch r {
	case RecurrenceMonthly:
		return 1
	case RecurrenceQuarterly:
		return 3
	case RecurrenceSemiannual:
		return 6
	case RecurrenceAnnual:
		return 12
	}
	return 0
}

// OccurrenceStatus is the lifecycle state of one scheduled bill instance.
type OccurrenceStatus string

const (
	StatusUnpaid   OccurrenceStatus = "unpaid"
	StatusPartial  OccurrenceStatus = "partial"
	StatusPaid     OccurrenceStatus = "paid"
	StatusOverdue  OccurrenceStatus = "overdue"
	StatusOverpaid OccurrenceStatus = "overpaid"
	StatusSkipped  OccurrenceStatus = "skipped"
)

// ParseOccurrenceStatus validates a wire value against the closed set.
// Unknown statuses are rejected at the boundary instead of being carried along.
func ParseOccurrenceStatus(s string) (OccurrenceStatus, error) {
	switch OccurrenceStatus(s) {
	case StatusUnpaid, StatusPartial, StatusPaid, StatusOverdue, StatusOverpaid, StatusSkipped:
		return OccurrenceStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown occurrence status %q", ErrInvalidInput, s)
}

// Settled reports whether the occurrence can accept no further payment.
func (s OccurrenceStatus) Settled() bool {
	return s == StatusPaid || s == StatusOverpaid
}

// Outstanding reports whether the occurrence still has payment activity ahead
// of it (unpaid, partially paid, or overdue).
func (s OccurrenceStatus) Outstanding() bool {
	return s == StatusUnpaid || s == StatusPartial || s == StatusOverdue
}

// OutstandingStatuses is the set of statuses considered payable.
func OutstandingStatuses() []OccurrenceStatus {
	return []OccurrenceStatus{StatusUnpaid, StatusPartial, StatusOverdue}
}

// PaymentMethod records how a payment was initiated.
type PaymentMethod string

const (
	MethodManual   PaymentMethod = "manual"
	MethodTransfer PaymentMethod = "transfer"
	MethodAutopay  PaymentMethod = "autopay"
)

// ParsePaymentMethod validates a wire value against the closed set.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case MethodManual, MethodTransfer, MethodAutopay:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, s)
}

// InterestType describes how a debt-bearing template accrues interest.
type InterestType string

const (
	InterestNone     InterestType = "none"
	InterestSimple   InterestType = "simple"
	InterestCompound InterestType = "compound"
)

// ParseInterestType validates a wire value against the closed set.
func ParseInterestType(s string) (InterestType, error) {
	switch InterestType(s) {
	case InterestNone, InterestSimple, InterestCompound:
		return InterestType(s), nil
	}
	return "", fmt.Errorf("%w: unknown interest type %q", ErrInvalidInput, s)
}

// AutopayAmountType selects between paying the remaining amount and a fixed sum.
type AutopayAmountType string

const (
	AutopayAmountRemaining AutopayAmountType = "remaining"
	AutopayAmountFixed     AutopayAmountType = "fixed"
)

// ParseAutopayAmountType validates a wire value against the closed set.
func ParseAutopayAmountType(s string) (AutopayAmountType, error) {
	switch AutopayAmountType(s) {
	case AutopayAmountRemaining, AutopayAmountFixed:
		return AutopayAmountType(s), nil
	}
	return "", fmt.Errorf("%w: unknown autopay amount type %q", ErrInvalidInput, s)
}

// AutopayRunType distinguishes scheduled, manually triggered, and dry runs.
type AutopayRunType string

const (
	RunTypeScheduled AutopayRunType = "scheduled"
	RunTypeManual    AutopayRunType = "manual"
	RunTypeDryRun    AutopayRunType = "dry_run"
)

// ParseAutopayRunType validates a wire value against the closed set.
func ParseAutopayRunType(s string) (AutopayRunType, error) {
	switch AutopayRunType(s) {
	case RunTypeScheduled, RunTypeManual, RunTypeDryRun:
		return AutopayRunType(s), nil
	}
	return "", fmt.Errorf("%w: unknown autopay run type %q", ErrInvalidInput, s)
}

// AutopayRunStatus is the lifecycle state of one batch execution.
type AutopayRunStatus string

const (
	RunStarted   AutopayRunStatus = "started"
	RunCompleted AutopayRunStatus = "completed"
	RunFailed    AutopayRunStatus = "failed"
)

// AccountType categorizes a money account.
type AccountType string

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountCredit   AccountType = "credit"
	AccountCash     AccountType = "cash"
)

// ParseAccountType validates a wire value against the closed set.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case AccountChecking, AccountSavings, AccountCredit, AccountCash:
		return AccountType(s), nil
	}
	return "", fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, s)
}

// BillTemplate is a recurring obligation definition: schedule, default amount,
// and linkages. Monetary fields are integer cents; rates are basis points.
type BillTemplate struct {
	ID          uuid.UUID
	HouseholdID uuid.UUID
	Name        string
	Active      bool
	BillType    BillType
	Category    *string
	Merchant    *string

	RecurrenceType RecurrenceType
	DueDay         *int // 1-31, month-based cadences
	DueWeekday     *int // 0-6 (Sunday=0), weekly/biweekly
	OneTimeDate    *time.Time
	StartMonth     *int // 1-12 anchor for quarterly/semiannual/annual

	DefaultAmountCents int64
	VariableAmount     bool
	AmountToleranceBps int32

	PaymentAccountID   *uuid.UUID
	LiabilityAccountID *uuid.UUID
	AutoMarkPaid       bool

	// Debt fields; DebtRemainingBalanceCents non-nil marks the template debt-bearing.
	DebtOriginalBalanceCents  *int64
	DebtRemainingBalanceCents *int64
	InterestRateBps           int32
	InterestType              InterestType
	DebtStartDate             *time.Time
	IncludeInPayoff           bool
	TaxClass                  *string

	BudgetPeriodNumber *int
	SplitAcrossPeriods bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DebtBearing reports whether payments against this template split
// principal/interest and decrement a tracked balance.
func (t *BillTemplate) DebtBearing() bool {
	return t.DebtRemainingBalanceCents != nil
}

// BillOccurrence is one concrete instance of a template due on a specific date.
// AmountRemainingCents is always max(0, AmountDueCents-AmountPaidCents).
type BillOccurrence struct {
	ID          uuid.UUID
	HouseholdID uuid.UUID
	TemplateID  uuid.UUID
	DueDate     time.Time
	Status      OccurrenceStatus

	AmountDueCents       int64
	AmountPaidCents      int64
	AmountRemainingCents int64
	ActualAmountCents    int64

	PaidDate          *time.Time
	LastTransactionID *uuid.UUID
	DaysLate          int
	LateFeeCents      int64
	ManualOverride    bool
	Notes             string

	BudgetPeriodOverride *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OccurrenceAllocation assigns a portion of one occurrence's amount to a
// budget period. Allocations for an occurrence always sum to its amount due.
type OccurrenceAllocation struct {
	ID                   uuid.UUID
	OccurrenceID         uuid.UUID
	PeriodNumber         int
	AllocatedAmountCents int64
	PaidAmountCents      int64
	IsPaid               bool
	PaymentEventID       *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// RemainingCents is the unpaid portion of the allocation.
func (a *OccurrenceAllocation) RemainingCents() int64 {
	r := a.AllocatedAmountCents - a.PaidAmountCents
	if r < 0 {
		return 0
	}
	return r
}

// PaymentEvent is the immutable ledger record of one payment application.
// Events are never updated or deleted except by template cascade delete.
type PaymentEvent struct {
	ID            uuid.UUID
	HouseholdID   uuid.UUID
	OccurrenceID  uuid.UUID
	TemplateID    uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID

	AmountCents        int64
	PrincipalCents     *int64
	InterestCents      *int64
	BalanceBeforeCents *int64
	BalanceAfterCents  *int64

	PaidOn         time.Time
	Method         PaymentMethod
	IdempotencyKey string // empty = none supplied
	Notes          string
	CreatedAt      time.Time
}

// AutopayRule configures automatic payment for one template.
type AutopayRule struct {
	ID               uuid.UUID
	HouseholdID      uuid.UUID
	TemplateID       uuid.UUID
	Enabled          bool
	DaysBeforeDue    int
	AmountType       AutopayAmountType
	FixedAmountCents int64
	AccountID        uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AutopayItemError captures one per-occurrence failure inside a batch run.
type AutopayItemError struct {
	OccurrenceID uuid.UUID `json:"occurrence_id"`
	TemplateID   uuid.UUID `json:"template_id"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

// AutopayRun is one batch execution of the autopay rules for a household.
type AutopayRun struct {
	ID          uuid.UUID
	HouseholdID uuid.UUID
	RunDate     time.Time
	RunType     AutopayRunType
	Status      AutopayRunStatus

	ProcessedCount   int
	SuccessCount     int
	FailedCount      int
	SkippedCount     int
	TotalAmountCents int64

	Errors       []AutopayItemError
	ErrorMessage string

	StartedAt   time.Time
	CompletedAt *time.Time
}

// Account is a money account whose balance bill payments mutate.
type Account struct {
	ID           uuid.UUID
	HouseholdID  uuid.UUID
	Name         string
	AccountType  AccountType
	BalanceCents int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountTransaction is one signed money movement against an account.
// Bill payments write exactly one of these per payment event.
type AccountTransaction struct {
	ID           uuid.UUID
	HouseholdID  uuid.UUID
	AccountID    uuid.UUID
	AmountCents  int64 // signed: negative = money out
	OccurredOn   time.Time
	Description  string
	Method       PaymentMethod
	OccurrenceID *uuid.UUID
	CreatedAt    time.Time
}

// DateOnly truncates a time to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WholeDaysBetween returns the count of whole days from a to b, negative when
// b precedes a. Both arguments are truncated to their calendar dates first.
func WholeDaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
