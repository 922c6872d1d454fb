package bills

import (
	"context"
	"time"

	"github.com/google/uuid"

	"homeledger/internal/budget"
)

// TemplateFilter narrows template listings. Zero values mean no filter.
type TemplateFilter struct {
	HouseholdID uuid.UUID
	Type        BillType
	ActiveOnly  bool
}

// OccurrenceFilter narrows occurrence listings. Zero values mean no filter.
type OccurrenceFilter struct {
	HouseholdID uuid.UUID
	TemplateID  uuid.UUID
	Statuses    []OccurrenceStatus
	DueFrom     time.Time
	DueTo       time.Time
}

// TemplateStore persists bill templates.
type TemplateStore interface {
	InsertTemplate(ctx context.Context, tpl *BillTemplate) error
	GetTemplate(ctx context.Context, household, id uuid.UUID) (*BillTemplate, error)
	ListTemplates(ctx context.Context, f TemplateFilter) ([]*BillTemplate, error)
	UpdateTemplate(ctx context.Context, tpl *BillTemplate) error
	DeleteTemplate(ctx context.Context, household, id uuid.UUID) error
}

// OccurrenceStore persists materialized bill occurrences.
type OccurrenceStore interface {
	InsertOccurrence(ctx context.Context, occ *BillOccurrence) error
	GetOccurrence(ctx context.Context, household, id uuid.UUID) (*BillOccurrence, error)
	ListOccurrences(ctx context.Context, f OccurrenceFilter) ([]*BillOccurrence, error)
	// ListOccurrenceDates returns the due dates already materialized for a
	// template, for diffing against a freshly computed schedule.
	ListOccurrenceDates(ctx context.Context, templateID uuid.UUID) ([]time.Time, error)
	UpdateOccurrence(ctx context.Context, occ *BillOccurrence) error
	DeleteOccurrencesByTemplate(ctx context.Context, templateID uuid.UUID) error
}

// AllocationStore persists per-period funding splits for occurrences.
type AllocationStore interface {
	InsertAllocation(ctx context.Context, a *OccurrenceAllocation) error
	// ListAllocations returns an occurrence's allocations ordered by period
	// number ascending.
	ListAllocations(ctx context.Context, occurrenceID uuid.UUID) ([]*OccurrenceAllocation, error)
	ListAllocationsForOccurrences(ctx context.Context, occurrenceIDs []uuid.UUID) (map[uuid.UUID][]*OccurrenceAllocation, error)
	UpdateAllocation(ctx context.Context, a *OccurrenceAllocation) error
	DeleteAllocations(ctx context.Context, occurrenceID uuid.UUID) error
	DeleteAllocationsByTemplate(ctx context.Context, templateID uuid.UUID) error
}

// PaymentEventStore persists the append-only payment history.
type PaymentEventStore interface {
	InsertPaymentEvent(ctx context.Context, ev *PaymentEvent) error
	// GetPaymentEventByKey looks up a prior payment by idempotency key within
	// a household. Returns ErrNotFound when no such payment exists.
	GetPaymentEventByKey(ctx context.Context, household uuid.UUID, key string) (*PaymentEvent, error)
	ListPaymentEvents(ctx context.Context, occurrenceID uuid.UUID) ([]*PaymentEvent, error)
	DeletePaymentEventsByTemplate(ctx context.Context, templateID uuid.UUID) error
}

// AutopayStore persists autopay rules and run history.
type AutopayStore interface {
	UpsertAutopayRule(ctx context.Context, rule *AutopayRule) error
	GetAutopayRule(ctx context.Context, household, templateID uuid.UUID) (*AutopayRule, error)
	ListAutopayRules(ctx context.Context, household uuid.UUID) ([]*AutopayRule, error)
	// ListEnabledAutopayRules returns every enabled rule across households,
	// for batch runs.
	ListEnabledAutopayRules(ctx context.Context) ([]*AutopayRule, error)
	DeleteAutopayRule(ctx context.Context, household, templateID uuid.UUID) error
	InsertAutopayRun(ctx context.Context, run *AutopayRun) error
	UpdateAutopayRun(ctx context.Context, run *AutopayRun) error
	ListAutopayRuns(ctx context.Context, household uuid.UUID, limit int) ([]*AutopayRun, error)
}

// AccountStore persists funding accounts and their transaction history.
type AccountStore interface {
	InsertAccount(ctx context.Context, acc *Account) error
	GetAccount(ctx context.Context, household, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context, household uuid.UUID) ([]*Account, error)
	UpdateAccountBalance(ctx context.Context, household, id uuid.UUID, balanceCents int64, at time.Time) error
	InsertAccountTransaction(ctx context.Context, tx *AccountTransaction) error
	ListAccountTransactions(ctx context.Context, household, accountID uuid.UUID, limit int) ([]*AccountTransaction, error)
}

// SettingsStore persists per-household budget cycle preferences.
type SettingsStore interface {
	// GetSettings returns ErrNotFound when a household never saved settings.
	GetSettings(ctx context.Context, household uuid.UUID) (*budget.Settings, error)
	PutSettings(ctx context.Context, s *budget.Settings) error
}

// Tx is the full set of persistence operations available inside a
// transaction.
type Tx interface {
	TemplateStore
	OccurrenceStore
	AllocationStore
	PaymentEventStore
	AutopayStore
	AccountStore
	SettingsStore
}

// Store is the persistence boundary the service drives. WithTx runs fn
// atomically: any error rolls every write back.
type Store interface {
	Tx
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
