// Package memory is an in-process implementation of the bills store, used by
// the test suite and by local development without a database. Transactions
// clone the whole dataset and swap it in on commit, so a failed transaction
// leaves no trace.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"homeledger/internal/bills"
	"homeledger/internal/budget"
)

// Store holds every table as a map keyed by primary id. Safe for concurrent
// use; one big lock serializes transactions.
type Store struct {
	mu sync.Mutex
	ds *dataset
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{ds: newDataset()}
}

// WithTx clones the dataset, runs fn against the clone, and swaps it in only
// when fn succeeds. Any error discards every write fn made.
func (s *Store) WithTx(ctx context.Context, fn func(tx bills.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.ds.clone()
	if err := fn(&session{ds: work}); err != nil {
		return err
	}
	s.ds = work
	return nil
}

// run executes a single operation as its own transaction.
func (s *Store) run(ctx context.Context, op func(tx bills.Tx) error) error {
	return s.WithTx(ctx, op)
}

func (s *Store) InsertTemplate(ctx context.Context, tpl *bills.BillTemplate) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.InsertTemplate(ctx, tpl) })
}

func (s *Store) GetTemplate(ctx context.Context, household, id uuid.UUID) (*bills.BillTemplate, error) {
	var out *bills.BillTemplate
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.GetTemplate(ctx, household, id)
		return err
	})
	return out, err
}

func (s *Store) ListTemplates(ctx context.Context, f bills.TemplateFilter) ([]*bills.BillTemplate, error) {
	var out []*bills.BillTemplate
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListTemplates(ctx, f)
		return err
	})
	return out, err
}

func (s *Store) UpdateTemplate(ctx context.Context, tpl *bills.BillTemplate) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.UpdateTemplate(ctx, tpl) })
}

func (s *Store) DeleteTemplate(ctx context.Context, household, id uuid.UUID) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.DeleteTemplate(ctx, household, id) })
}

func (s *Store) InsertOccurrence(ctx context.Context, occ *bills.BillOccurrence) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.InsertOccurrence(ctx, occ) })
}

func (s *Store) GetOccurrence(ctx context.Context, household, id uuid.UUID) (*bills.BillOccurrence, error) {
	var out *bills.BillOccurrence
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.GetOccurrence(ctx, household, id)
		return err
	})
	return out, err
}

func (s *Store) ListOccurrences(ctx context.Context, f bills.OccurrenceFilter) ([]*bills.BillOccurrence, error) {
	var out []*bills.BillOccurrence
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListOccurrences(ctx, f)
		return err
	})
	return out, err
}

func (s *Store) ListOccurrenceDates(ctx context.Context, templateID uuid.UUID) ([]time.Time, error) {
	var out []time.Time
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListOccurrenceDates(ctx, templateID)
		return err
	})
	return out, err
}

func (s *Store) UpdateOccurrence(ctx context.Context, occ *bills.BillOccurrence) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.UpdateOccurrence(ctx, occ) })
}

func (s *Store) DeleteOccurrencesByTemplate(ctx context.Context, templateID uuid.UUID) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.DeleteOccurrencesByTemplate(ctx, templateID) })
}

func (s *Store) InsertAllocation(ctx context.Context, a *bills.OccurrenceAllocation) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.InsertAllocation(ctx, a) })
}

func (s *Store) ListAllocations(ctx context.Context, occurrenceID uuid.UUID) ([]*bills.OccurrenceAllocation, error) {
	var out []*bills.OccurrenceAllocation
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListAllocations(ctx, occurrenceID)
		return err
	})
	return out, err
}

func (s *Store) ListAllocationsForOccurrences(ctx context.Context, occurrenceIDs []uuid.UUID) (map[uuid.UUID][]*bills.OccurrenceAllocation, error) {
	var out map[uuid.UUID][]*bills.OccurrenceAllocation
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListAllocationsForOccurrences(ctx, occurrenceIDs)
		return err
	})
	return out, err
}

func (s *Store) UpdateAllocation(ctx context.Context, a *bills.OccurrenceAllocation) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.UpdateAllocation(ctx, a) })
}

func (s *Store) DeleteAllocations(ctx context.Context, occurrenceID uuid.UUID) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.DeleteAllocations(ctx, occurrenceID) })
}

func (s *Store) DeleteAllocationsByTemplate(ctx context.Context, templateID uuid.UUID) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.DeleteAllocationsByTemplate(ctx, templateID) })
}

func (s *Store) InsertPaymentEvent(ctx context.Context, ev *bills.PaymentEvent) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.InsertPaymentEvent(ctx, ev) })
}

func (s *Store) GetPaymentEventByKey(ctx context.Context, household uuid.UUID, key string) (*bills.PaymentEvent, error) {
	var out *bills.PaymentEvent
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.GetPaymentEventByKey(ctx, household, key)
		return err
	})
	return out, err
}

func (s *Store) ListPaymentEvents(ctx context.Context, occurrenceID uuid.UUID) ([]*bills.PaymentEvent, error) {
	var out []*bills.PaymentEvent
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListPaymentEvents(ctx, occurrenceID)
		return err
	})
	return out, err
}

func (s *Store) DeletePaymentEventsByTemplate(ctx context.Context, templateID uuid.UUID) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.DeletePaymentEventsByTemplate(ctx, templateID) })
}

func (s *Store) UpsertAutopayRule(ctx context.Context, rule *bills.AutopayRule) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.UpsertAutopayRule(ctx, rule) })
}

func (s *Store) GetAutopayRule(ctx context.Context, household, templateID uuid.UUID) (*bills.AutopayRule, error) {
	var out *bills.AutopayRule
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.GetAutopayRule(ctx, household, templateID)
		return err
	})
	return out, err
}

func (s *Store) ListAutopayRules(ctx context.Context, household uuid.UUID) ([]*bills.AutopayRule, error) {
	var out []*bills.AutopayRule
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListAutopayRules(ctx, household)
		return err
	})
	return out, err
}

func (s *Store) ListEnabledAutopayRules(ctx context.Context) ([]*bills.AutopayRule, error) {
	var out []*bills.AutopayRule
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListEnabledAutopayRules(ctx)
		return err
	})
	return out, err
}

func (s *Store) DeleteAutopayRule(ctx context.Context, household, templateID uuid.UUID) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.DeleteAutopayRule(ctx, household, templateID) })
}

func (s *Store) InsertAutopayRun(ctx context.Context, run *bills.AutopayRun) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.InsertAutopayRun(ctx, run) })
}

func (s *Store) UpdateAutopayRun(ctx context.Context, run *bills.AutopayRun) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.UpdateAutopayRun(ctx, run) })
}

func (s *Store) ListAutopayRuns(ctx context.Context, household uuid.UUID, limit int) ([]*bills.AutopayRun, error) {
	var out []*bills.AutopayRun
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListAutopayRuns(ctx, household, limit)
		return err
	})
	return out, err
}

func (s *Store) InsertAccount(ctx context.Context, acc *bills.Account) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.InsertAccount(ctx, acc) })
}

func (s *Store) GetAccount(ctx context.Context, household, id uuid.UUID) (*bills.Account, error) {
	var out *bills.Account
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.GetAccount(ctx, household, id)
		return err
	})
	return out, err
}

func (s *Store) ListAccounts(ctx context.Context, household uuid.UUID) ([]*bills.Account, error) {
	var out []*bills.Account
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListAccounts(ctx, household)
		return err
	})
	return out, err
}

func (s *Store) UpdateAccountBalance(ctx context.Context, household, id uuid.UUID, balanceCents int64, at time.Time) error {
	return s.run(ctx, func(tx bills.Tx) error {
		return tx.UpdateAccountBalance(ctx, household, id, balanceCents, at)
	})
}

func (s *Store) InsertAccountTransaction(ctx context.Context, txn *bills.AccountTransaction) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.InsertAccountTransaction(ctx, txn) })
}

func (s *Store) ListAccountTransactions(ctx context.Context, household, accountID uuid.UUID, limit int) ([]*bills.AccountTransaction, error) {
	var out []*bills.AccountTransaction
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.ListAccountTransactions(ctx, household, accountID, limit)
		return err
	})
	return out, err
}

func (s *Store) GetSettings(ctx context.Context, household uuid.UUID) (*budget.Settings, error) {
	var out *budget.Settings
	err := s.run(ctx, func(tx bills.Tx) error {
		var err error
		out, err = tx.GetSettings(ctx, household)
		return err
	})
	return out, err
}

func (s *Store) PutSettings(ctx context.Context, set *budget.Settings) error {
	return s.run(ctx, func(tx bills.Tx) error { return tx.PutSettings(ctx, set) })
}

// session implements bills.Tx against one dataset clone. Not safe for use
// after its transaction returns.
type session struct {
	ds *dataset
}

func (t *session) InsertTemplate(_ context.Context, tpl *bills.BillTemplate) error {
	if _, ok := t.ds.templates[tpl.ID]; ok {
		return fmt.Errorf("%w: template %s already exists", bills.ErrConflict, tpl.ID)
	}
	t.ds.templates[tpl.ID] = cloneTemplate(tpl)
	return nil
}

func (t *session) GetTemplate(_ context.Context, household, id uuid.UUID) (*bills.BillTemplate, error) {
	tpl, ok := t.ds.templates[id]
	if !ok || tpl.HouseholdID != household {
		return nil, fmt.Errorf("%w: template %s", bills.ErrNotFound, id)
	}
	return cloneTemplate(tpl), nil
}

func (t *session) ListTemplates(_ context.Context, f bills.TemplateFilter) ([]*bills.BillTemplate, error) {
	var out []*bills.BillTemplate
	for _, tpl := range t.ds.templates {
		if f.HouseholdID != uuid.Nil && tpl.HouseholdID != f.HouseholdID {
			continue
		}
		if f.Type != "" && tpl.BillType != f.Type {
			continue
		}
		if f.ActiveOnly && !tpl.Active {
			continue
		}
		out = append(out, cloneTemplate(tpl))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (t *session) UpdateTemplate(_ context.Context, tpl *bills.BillTemplate) error {
	if _, ok := t.ds.templates[tpl.ID]; !ok {
		return fmt.Errorf("%w: template %s", bills.ErrNotFound, tpl.ID)
	}
	t.ds.templates[tpl.ID] = cloneTemplate(tpl)
	return nil
}

func (t *session) DeleteTemplate(_ context.Context, household, id uuid.UUID) error {
	tpl, ok := t.ds.templates[id]
	if !ok || tpl.HouseholdID != household {
		return fmt.Errorf("%w: template %s", bills.ErrNotFound, id)
	}
	delete(t.ds.templates, id)
	return nil
}

func (t *session) InsertOccurrence(_ context.Context, occ *bills.BillOccurrence) error {
	if _, ok := t.ds.occurrences[occ.ID]; ok {
		return fmt.Errorf("%w: occurrence %s already exists", bills.ErrConflict, occ.ID)
	}
	for _, other := range t.ds.occurrences {
		if other.TemplateID == occ.TemplateID && other.DueDate.Equal(occ.DueDate) {
			return fmt.Errorf("%w: occurrence for template %s on %s already exists",
				bills.ErrConflict, occ.TemplateID, occ.DueDate.Format(bills.ISODate))
		}
	}
	t.ds.occurrences[occ.ID] = cloneOccurrence(occ)
	return nil
}

func (t *session) GetOccurrence(_ context.Context, household, id uuid.UUID) (*bills.BillOccurrence, error) {
	occ, ok := t.ds.occurrences[id]
	if !ok || occ.HouseholdID != household {
		return nil, fmt.Errorf("%w: occurrence %s", bills.ErrNotFound, id)
	}
	return cloneOccurrence(occ), nil
}

func (t *session) ListOccurrences(_ context.Context, f bills.OccurrenceFilter) ([]*bills.BillOccurrence, error) {
	var out []*bills.BillOccurrence
	for _, occ := range t.ds.occurrences {
		if f.HouseholdID != uuid.Nil && occ.HouseholdID != f.HouseholdID {
			continue
		}
		if f.TemplateID != uuid.Nil && occ.TemplateID != f.TemplateID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, occ.Status) {
			continue
		}
		if !f.DueFrom.IsZero() && occ.DueDate.Before(f.DueFrom) {
			continue
		}
		if !f.DueTo.IsZero() && occ.DueDate.After(f.DueTo) {
			continue
		}
		out = append(out, cloneOccurrence(occ))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (t *session) ListOccurrenceDates(_ context.Context, templateID uuid.UUID) ([]time.Time, error) {
	var out []time.Time
	for _, occ := range t.ds.occurrences {
		if occ.TemplateID == templateID {
			out = append(out, occ.DueDate)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (t *session) UpdateOccurrence(_ context.Context, occ *bills.BillOccurrence) error {
	if _, ok := t.ds.occurrences[occ.ID]; !ok {
		return fmt.Errorf("%w: occurrence %s", bills.ErrNotFound, occ.ID)
	}
	t.ds.occurrences[occ.ID] = cloneOccurrence(occ)
	return nil
}

func (t *session) DeleteOccurrencesByTemplate(_ context.Context, templateID uuid.UUID) error {
	for id, occ := range t.ds.occurrences {
		if occ.TemplateID == templateID {
			delete(t.ds.occurrences, id)
		}
	}
	return nil
}

func (t *session) InsertAllocation(_ context.Context, a *bills.OccurrenceAllocation) error {
	if _, ok := t.ds.allocations[a.ID]; ok {
		return fmt.Errorf("%w: allocation %s already exists", bills.ErrConflict, a.ID)
	}
	for _, other := range t.ds.allocations {
		if other.OccurrenceID == a.OccurrenceID && other.PeriodNumber == a.PeriodNumber {
			return fmt.Errorf("%w: occurrence %s already has an allocation for period %d",
				bills.ErrConflict, a.OccurrenceID, a.PeriodNumber)
		}
	}
	t.ds.allocations[a.ID] = cloneAllocation(a)
	return nil
}

func (t *session) ListAllocations(_ context.Context, occurrenceID uuid.UUID) ([]*bills.OccurrenceAllocation, error) {
	var out []*bills.OccurrenceAllocation
	for _, a := range t.ds.allocations {
		if a.OccurrenceID == occurrenceID {
			out = append(out, cloneAllocation(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodNumber < out[j].PeriodNumber })
	return out, nil
}

func (t *session) ListAllocationsForOccurrences(ctx context.Context, occurrenceIDs []uuid.UUID) (map[uuid.UUID][]*bills.OccurrenceAllocation, error) {
	out := make(map[uuid.UUID][]*bills.OccurrenceAllocation, len(occurrenceIDs))
	for _, id := range occurrenceIDs {
		allocs, err := t.ListAllocations(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(allocs) > 0 {
			out[id] = allocs
		}
	}
	return out, nil
}

func (t *session) UpdateAllocation(_ context.Context, a *bills.OccurrenceAllocation) error {
	if _, ok := t.ds.allocations[a.ID]; !ok {
		return fmt.Errorf("%w: allocation %s", bills.ErrNotFound, a.ID)
	}
	t.ds.allocations[a.ID] = cloneAllocation(a)
	return nil
}

func (t *session) DeleteAllocations(_ context.Context, occurrenceID uuid.UUID) error {
	for id, a := range t.ds.allocations {
		if a.OccurrenceID == occurrenceID {
			delete(t.ds.allocations, id)
		}
	}
	return nil
}

func (t *session) DeleteAllocationsByTemplate(_ context.Context, templateID uuid.UUID) error {
	for id, a := range t.ds.allocations {
		occ, ok := t.ds.occurrences[a.OccurrenceID]
		if ok && occ.TemplateID == templateID {
			delete(t.ds.allocations, id)
		}
	}
	return nil
}

func (t *session) InsertPaymentEvent(_ context.Context, ev *bills.PaymentEvent) error {
	if _, ok := t.ds.payments[ev.ID]; ok {
		return fmt.Errorf("%w: payment %s already exists", bills.ErrConflict, ev.ID)
	}
	if ev.IdempotencyKey != "" {
		for _, other := range t.ds.payments {
			if other.HouseholdID == ev.HouseholdID && other.IdempotencyKey == ev.IdempotencyKey {
				return fmt.Errorf("%w: idempotency key %q already used",
					bills.ErrConflict, ev.IdempotencyKey)
			}
		}
	}
	t.ds.payments[ev.ID] = clonePayment(ev)
	return nil
}

func (t *session) GetPaymentEventByKey(_ context.Context, household uuid.UUID, key string) (*bills.PaymentEvent, error) {
	if key != "" {
		for _, ev := range t.ds.payments {
			if ev.HouseholdID == household && ev.IdempotencyKey == key {
				return clonePayment(ev), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: payment with key %q", bills.ErrNotFound, key)
}

func (t *session) ListPaymentEvents(_ context.Context, occurrenceID uuid.UUID) ([]*bills.PaymentEvent, error) {
	var out []*bills.PaymentEvent
	for _, ev := range t.ds.payments {
		if ev.OccurrenceID == occurrenceID {
			out = append(out, clonePayment(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (t *session) DeletePaymentEventsByTemplate(_ context.Context, templateID uuid.UUID) error {
	for id, ev := range t.ds.payments {
		if ev.TemplateID == templateID {
			delete(t.ds.payments, id)
		}
	}
	return nil
}

func (t *session) UpsertAutopayRule(_ context.Context, rule *bills.AutopayRule) error {
	for id, other := range t.ds.autopayRules {
		if other.TemplateID == rule.TemplateID && id != rule.ID {
			delete(t.ds.autopayRules, id)
		}
	}
	t.ds.autopayRules[rule.ID] = cloneRule(rule)
	return nil
}

func (t *session) GetAutopayRule(_ context.Context, household, templateID uuid.UUID) (*bills.AutopayRule, error) {
	for _, rule := range t.ds.autopayRules {
		if rule.TemplateID == templateID && rule.HouseholdID == household {
			return cloneRule(rule), nil
		}
	}
	return nil, fmt.Errorf("%w: autopay rule for template %s", bills.ErrNotFound, templateID)
}

func (t *session) ListAutopayRules(_ context.Context, household uuid.UUID) ([]*bills.AutopayRule, error) {
	var out []*bills.AutopayRule
	for _, rule := range t.ds.autopayRules {
		if rule.HouseholdID == household {
			out = append(out, cloneRule(rule))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *session) ListEnabledAutopayRules(_ context.Context) ([]*bills.AutopayRule, error) {
	var out []*bills.AutopayRule
	for _, rule := range t.ds.autopayRules {
		if rule.Enabled {
			out = append(out, cloneRule(rule))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *session) DeleteAutopayRule(_ context.Context, household, templateID uuid.UUID) error {
	for id, rule := range t.ds.autopayRules {
		if rule.TemplateID == templateID && rule.HouseholdID == household {
			delete(t.ds.autopayRules, id)
			return nil
		}
	}
	return fmt.Errorf("%w: autopay rule for template %s", bills.ErrNotFound, templateID)
}

func (t *session) InsertAutopayRun(_ context.Context, run *bills.AutopayRun) error {
	if _, ok := t.ds.autopayRuns[run.ID]; ok {
		return fmt.Errorf("%w: autopay run %s already exists", bills.ErrConflict, run.ID)
	}
	t.ds.autopayRuns[run.ID] = cloneRun(run)
	return nil
}

func (t *session) UpdateAutopayRun(_ context.Context, run *bills.AutopayRun) error {
	if _, ok := t.ds.autopayRuns[run.ID]; !ok {
		return fmt.Errorf("%w: autopay run %s", bills.ErrNotFound, run.ID)
	}
	t.ds.autopayRuns[run.ID] = cloneRun(run)
	return nil
}

func (t *session) ListAutopayRuns(_ context.Context, household uuid.UUID, limit int) ([]*bills.AutopayRun, error) {
	var out []*bills.AutopayRun
	for _, run := range t.ds.autopayRuns {
		if run.HouseholdID == household {
			out = append(out, cloneRun(run))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *session) InsertAccount(_ context.Context, acc *bills.Account) error {
	if _, ok := t.ds.accounts[acc.ID]; ok {
		return fmt.Errorf("%w: account %s already exists", bills.ErrConflict, acc.ID)
	}
	t.ds.accounts[acc.ID] = cloneAccount(acc)
	return nil
}

func (t *session) GetAccount(_ context.Context, household, id uuid.UUID) (*bills.Account, error) {
	acc, ok := t.ds.accounts[id]
	if !ok || acc.HouseholdID != household {
		return nil, fmt.Errorf("%w: account %s", bills.ErrNotFound, id)
	}
	return cloneAccount(acc), nil
}

func (t *session) ListAccounts(_ context.Context, household uuid.UUID) ([]*bills.Account, error) {
	var out []*bills.Account
	for _, acc := range t.ds.accounts {
		if acc.HouseholdID == household {
			out = append(out, cloneAccount(acc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (t *session) UpdateAccountBalance(_ context.Context, household, id uuid.UUID, balanceCents int64, at time.Time) error {
	acc, ok := t.ds.accounts[id]
	if !ok || acc.HouseholdID != household {
		return fmt.Errorf("%w: account %s", bills.ErrNotFound, id)
	}
	acc.BalanceCents = balanceCents
	acc.UpdatedAt = at
	return nil
}

func (t *session) InsertAccountTransaction(_ context.Context, txn *bills.AccountTransaction) error {
	if _, ok := t.ds.accountTxns[txn.ID]; ok {
		return fmt.Errorf("%w: transaction %s already exists", bills.ErrConflict, txn.ID)
	}
	t.ds.accountTxns[txn.ID] = cloneAccountTxn(txn)
	return nil
}

func (t *session) ListAccountTransactions(_ context.Context, household, accountID uuid.UUID, limit int) ([]*bills.AccountTransaction, error) {
	var out []*bills.AccountTransaction
	for _, txn := range t.ds.accountTxns {
		if txn.HouseholdID != household {
			continue
		}
		if accountID != uuid.Nil && txn.AccountID != accountID {
			continue
		}
		out = append(out, cloneAccountTxn(txn))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredOn.Equal(out[j].OccurredOn) {
			return out[i].OccurredOn.After(out[j].OccurredOn)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *session) GetSettings(_ context.Context, household uuid.UUID) (*budget.Settings, error) {
	set, ok := t.ds.settings[household]
	if !ok {
		return nil, fmt.Errorf("%w: settings for household %s", bills.ErrNotFound, household)
	}
	out := *set
	return &out, nil
}

func (t *session) PutSettings(_ context.Context, set *budget.Settings) error {
	cp := *set
	t.ds.settings[set.HouseholdID] = &cp
	return nil
}

func containsStatus(set []bills.OccurrenceStatus, s bills.OccurrenceStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
