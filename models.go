package main

import "time"

// Template represents a recurring bill definition
type Template struct {
	ID                        string    `json:"id"`
	Name                      string    `json:"name"`
	Active                    bool      `json:"active"`
	BillType                  string    `json:"bill_type"`
	Category                  *string   `json:"category"`
	Merchant                  *string   `json:"merchant"`
	RecurrenceType            string    `json:"recurrence_type"`
	DueDay                    *int      `json:"due_day"`
	DueWeekday                *int      `json:"due_weekday"`
	OneTimeDate               *string   `json:"one_time_date"`
	StartMonth                *int      `json:"start_month"`
	DefaultAmountCents        int64     `json:"default_amount_cents"`
	VariableAmount            bool      `json:"variable_amount"`
	AmountToleranceBps        int32     `json:"amount_tolerance_bps"`
	PaymentAccountID          *string   `json:"payment_account_id"`
	LiabilityAccountID        *string   `json:"liability_account_id"`
	AutoMarkPaid              bool      `json:"auto_mark_paid"`
	DebtOriginalBalanceCents  *int64    `json:"debt_original_balance_cents"`
	DebtRemainingBalanceCents *int64    `json:"debt_remaining_balance_cents"`
	InterestRateBps           int32     `json:"interest_rate_bps"`
	InterestType              string    `json:"interest_type"`
	DebtStartDate             *string   `json:"debt_start_date"`
	IncludeInPayoff           bool      `json:"include_in_payoff"`
	TaxClass                  *string   `json:"tax_class"`
	BudgetPeriodNumber        *int      `json:"budget_period_number"`
	SplitAcrossPeriods        bool      `json:"split_across_periods"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// TemplateRequest represents the request structure for creating a template
type TemplateRequest struct {
	Name                      string  `json:"name"`
	BillType                  string  `json:"bill_type"`
	Category                  *string `json:"category"`
	Merchant                  *string `json:"merchant"`
	RecurrenceType            string  `json:"recurrence_type"`
	DueDay                    *int    `json:"due_day"`
	DueWeekday                *int    `json:"due_weekday"`
	OneTimeDate               *string `json:"one_time_date"`
	StartMonth                *int    `json:"start_month"`
	DefaultAmountCents        int64   `json:"default_amount_cents"`
	VariableAmount            bool    `json:"variable_amount"`
	AmountToleranceBps        int32   `json:"amount_tolerance_bps"`
	PaymentAccountID          *string `json:"payment_account_id"`
	LiabilityAccountID        *string `json:"liability_account_id"`
	AutoMarkPaid              bool    `json:"auto_mark_paid"`
	DebtOriginalBalanceCents  *int64  `json:"debt_original_balance_cents"`
	DebtRemainingBalanceCents *int64  `json:"debt_remaining_balance_cents"`
	InterestRateBps           int32   `json:"interest_rate_bps"`
	InterestType              *string `json:"interest_type"`
	DebtStartDate             *string `json:"debt_start_date"`
	IncludeInPayoff           bool    `json:"include_in_payoff"`
	TaxClass                  *string `json:"tax_class"`
	BudgetPeriodNumber        *int    `json:"budget_period_number"`
	SplitAcrossPeriods        bool    `json:"split_across_periods"`
}

// TemplateUpdateRequest represents a partial template update; absent fields
// are left untouched
type TemplateUpdateRequest struct {
	Name                      *string `json:"name"`
	Active                    *bool   `json:"active"`
	Category                  *string `json:"category"`
	Merchant                  *string `json:"merchant"`
	RecurrenceType            *string `json:"recurrence_type"`
	DueDay                    *int    `json:"due_day"`
	DueWeekday                *int    `json:"due_weekday"`
	OneTimeDate               *string `json:"one_time_date"`
	StartMonth                *int    `json:"start_month"`
	DefaultAmountCents        *int64  `json:"default_amount_cents"`
	VariableAmount            *bool   `json:"variable_amount"`
	AmountToleranceBps        *int32  `json:"amount_tolerance_bps"`
	PaymentAccountID          *string `json:"payment_account_id"`
	LiabilityAccountID        *string `json:"liability_account_id"`
	AutoMarkPaid              *bool   `json:"auto_mark_paid"`
	DebtRemainingBalanceCents *int64  `json:"debt_remaining_balance_cents"`
	InterestRateBps           *int32  `json:"interest_rate_bps"`
	InterestType              *string `json:"interest_type"`
	IncludeInPayoff           *bool   `json:"include_in_payoff"`
	TaxClass                  *string `json:"tax_class"`
	BudgetPeriodNumber        *int    `json:"budget_period_number"`
	SplitAcrossPeriods        *bool   `json:"split_across_periods"`
}

// Occurrence represents one scheduled instance of a bill
type Occurrence struct {
	ID                   string    `json:"id"`
	TemplateID           string    `json:"template_id"`
	DueDate              string    `json:"due_date"`
	Status               string    `json:"status"`
	AmountDueCents       int64     `json:"amount_due_cents"`
	AmountPaidCents      int64     `json:"amount_paid_cents"`
	AmountRemainingCents int64     `json:"amount_remaining_cents"`
	ActualAmountCents    int64     `json:"actual_amount_cents"`
	PaidDate             *string   `json:"paid_date"`
	LastTransactionID    *string   `json:"last_transaction_id"`
	DaysLate             int       `json:"days_late"`
	LateFeeCents         int64     `json:"late_fee_cents"`
	ManualOverride       bool      `json:"manual_override"`
	Notes                string    `json:"notes"`
	BudgetPeriodOverride *int      `json:"budget_period_override"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// OccurrenceUpdateRequest represents per-occurrence overrides
type OccurrenceUpdateRequest struct {
	AmountDueCents       *int64  `json:"amount_due_cents"`
	DueDate              *string `json:"due_date"`
	LateFeeCents         *int64  `json:"late_fee_cents"`
	BudgetPeriodOverride *int    `json:"budget_period_override"`
	Notes                *string `json:"notes"`
}

// Allocation represents a portion of an occurrence assigned to a budget period
type Allocation struct {
	ID                   string    `json:"id"`
	OccurrenceID         string    `json:"occurrence_id"`
	PeriodNumber         int       `json:"period_number"`
	AllocatedAmountCents int64     `json:"allocated_amount_cents"`
	PaidAmountCents      int64     `json:"paid_amount_cents"`
	IsPaid               bool      `json:"is_paid"`
	PaymentEventID       *string   `json:"payment_event_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// AllocationsRequest represents the full replacement allocation set for an
// occurrence
type AllocationsRequest struct {
	Allocations []AllocationEntry `json:"allocations"`
}

// AllocationEntry is one period's share in an allocation rewrite
type AllocationEntry struct {
	PeriodNumber         int   `json:"period_number"`
	AllocatedAmountCents int64 `json:"allocated_amount_cents"`
}

// PaymentEvent represents one recorded payment application
type PaymentEvent struct {
	ID                 string    `json:"id"`
	OccurrenceID       string    `json:"occurrence_id"`
	TemplateID         string    `json:"template_id"`
	TransactionID      string    `json:"transaction_id"`
	AccountID          string    `json:"account_id"`
	AmountCents        int64     `json:"amount_cents"`
	PrincipalCents     *int64    `json:"principal_cents"`
	InterestCents      *int64    `json:"interest_cents"`
	BalanceBeforeCents *int64    `json:"balance_before_cents"`
	BalanceAfterCents  *int64    `json:"balance_after_cents"`
	PaidOn             string    `json:"paid_on"`
	Method             string    `json:"method"`
	IdempotencyKey     *string   `json:"idempotency_key"`
	Notes              string    `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
}

// PayRequest represents the request structure for paying an occurrence
type PayRequest struct {
	AmountCents    *int64  `json:"amount_cents"`
	PaymentDate    *string `json:"payment_date"`
	AccountID      string  `json:"account_id"`
	AllocationID   *string `json:"allocation_id"`
	IdempotencyKey string  `json:"idempotency_key"`
	Notes          string  `json:"notes"`
	Method         string  `json:"method"`
}

// PayResponse represents everything a payment changed
type PayResponse struct {
	Occurrence  Occurrence   `json:"occurrence"`
	Payment     PaymentEvent `json:"payment"`
	Allocations []Allocation `json:"allocations"`
	Replayed    bool         `json:"replayed"`
}

// SkipRequest represents the request structure for skipping an occurrence
type SkipRequest struct {
	Notes string `json:"notes"`
}

// BillRow represents one occurrence joined with its template and allocations
type BillRow struct {
	Occurrence  Occurrence   `json:"occurrence"`
	Template    *Template    `json:"template,omitempty"`
	Allocations []Allocation `json:"allocations"`
}

// BillListSummary represents totals over the whole filtered set
type BillListSummary struct {
	Count               int   `json:"count"`
	TotalDueCents       int64 `json:"total_due_cents"`
	TotalPaidCents      int64 `json:"total_paid_cents"`
	TotalRemainingCents int64 `json:"total_remaining_cents"`
}

// BillListResponse represents one page of occurrences plus set-wide totals
type BillListResponse struct {
	Bills   []BillRow       `json:"bills"`
	Total   int             `json:"total"`
	Summary BillListSummary `json:"summary"`
	Period  *BudgetPeriod   `json:"period,omitempty"`
}

// BudgetPeriod represents one resolved budget cycle
type BudgetPeriod struct {
	Number int    `json:"number"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// DashboardSummary represents the household's money-at-a-glance view
type DashboardSummary struct {
	OverdueCount  int          `json:"overdue_count"`
	OverdueCents  int64        `json:"overdue_cents"`
	UpcomingCount int          `json:"upcoming_count"`
	UpcomingCents int64        `json:"upcoming_cents"`
	NextDueDate   *string      `json:"next_due_date"`
	PaidCount     int          `json:"paid_count"`
	PaidCents     int64        `json:"paid_cents"`
	Period        BudgetPeriod `json:"period"`
}

// Account represents a money account whose balance bill payments mutate
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AccountType  string    `json:"account_type"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountRequest represents the request structure for creating an account
type AccountRequest struct {
	Name                string `json:"name"`
	AccountType         string `json:"account_type"`
	OpeningBalanceCents int64  `json:"opening_balance_cents"`
}

// AccountTransaction represents one signed money movement against an account
type AccountTransaction struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	AmountCents  int64     `json:"amount_cents"`
	OccurredOn   string    `json:"occurred_on"`
	Description  string    `json:"description"`
	Method       string    `json:"method"`
	OccurrenceID *string   `json:"occurrence_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// AutopayRuleView represents autopay configuration for a template
type AutopayRuleView struct {
	ID               string    `json:"id"`
	TemplateID       string    `json:"template_id"`
	Enabled          bool      `json:"enabled"`
	DaysBeforeDue    int       `json:"days_before_due"`
	AmountType       string    `json:"amount_type"`
	FixedAmountCents int64     `json:"fixed_amount_cents"`
	AccountID        string    `json:"account_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AutopayRuleRequest represents the request structure for configuring autopay
type AutopayRuleRequest struct {
	Enabled          bool   `json:"enabled"`
	DaysBeforeDue    int    `json:"days_before_due"`
	AmountType       string `json:"amount_type"`
	FixedAmountCents int64  `json:"fixed_amount_cents"`
	AccountID        string `json:"account_id"`
}

// AutopayRunView represents one batch autopay execution
type AutopayRunView struct {
	ID               string            `json:"id"`
	RunDate          string            `json:"run_date"`
	RunType          string            `json:"run_type"`
	Status           string            `json:"status"`
	ProcessedCount   int               `json:"processed_count"`
	SuccessCount     int               `json:"success_count"`
	FailedCount      int               `json:"failed_count"`
	SkippedCount     int               `json:"skipped_count"`
	TotalAmountCents int64             `json:"total_amount_cents"`
	Errors           []AutopayRunError `json:"errors"`
	ErrorMessage     *string           `json:"error_message"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      *time.Time        `json:"completed_at"`
}

// AutopayRunError represents one per-occurrence failure inside a run
type AutopayRunError struct {
	OccurrenceID string `json:"occurrence_id"`
	TemplateID   string `json:"template_id"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// AutopayRunRequest represents the request structure for triggering a run
type AutopayRunRequest struct {
	RunDate *string `json:"run_date"`
	RunType string  `json:"run_type"`
}

// Settings represents a household's budget cycle preferences
type Settings struct {
	Frequency       string    `json:"frequency"`
	StartDay        int       `json:"start_day"`
	ReferenceDate   string    `json:"reference_date"`
	RolloverEnabled bool      `json:"rollover_enabled"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SettingsRequest represents the request structure for saving settings
type SettingsRequest struct {
	Frequency       string  `json:"frequency"`
	StartDay        int     `json:"start_day"`
	ReferenceDate   *string `json:"reference_date"`
	RolloverEnabled bool    `json:"rollover_enabled"`
}

// PayoffDebt represents one debt's projected course under a payoff plan
type PayoffDebt struct {
	TemplateID        string  `json:"template_id"`
	Name              string  `json:"name"`
	BalanceCents      int64   `json:"balance_cents"`
	RateBps           int32   `json:"rate_bps"`
	MinimumCents      int64   `json:"minimum_cents"`
	MonthsToPayoff    int     `json:"months_to_payoff"`
	InterestPaidCents int64   `json:"interest_paid_cents"`
	PayoffDate        *string `json:"payoff_date"`
}

// PayoffPlan represents a projected path to zero debt
type PayoffPlan struct {
	Strategy           string       `json:"strategy"`
	ExtraMonthlyCents  int64        `json:"extra_monthly_cents"`
	TotalBalanceCents  int64        `json:"total_balance_cents"`
	MonthlyBudgetCents int64        `json:"monthly_budget_cents"`
	MonthsToDebtFree   int          `json:"months_to_debt_free"`
	TotalInterestCents int64        `json:"total_interest_cents"`
	DebtFreeDate       *string      `json:"debt_free_date"`
	Feasible           bool         `json:"feasible"`
	Debts              []PayoffDebt `json:"debts"`
}
