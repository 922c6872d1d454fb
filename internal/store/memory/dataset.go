package memory

import (
	"github.com/google/uuid"

	"homeledger/internal/bills"
	"homeledger/internal/budget"
)

type dataset struct {
	templates    map[uuid.UUID]*bills.BillTemplate
	occurrences  map[uuid.UUID]*bills.BillOccurrence
	allocations  map[uuid.UUID]*bills.OccurrenceAllocation
	payments     map[uuid.UUID]*bills.PaymentEvent
	autopayRules map[uuid.UUID]*bills.AutopayRule
	autopayRuns  map[uuid.UUID]*bills.AutopayRun
	accounts     map[uuid.UUID]*bills.Account
	accountTxns  map[uuid.UUID]*bills.AccountTransaction
	settings     map[uuid.UUID]*budget.Settings
}

func newDataset() *dataset {
	return &dataset{
		templates:    map[uuid.UUID]*bills.BillTemplate{},
		occurrences:  map[uuid.UUID]*bills.BillOccurrence{},
		allocations:  map[uuid.UUID]*bills.OccurrenceAllocation{},
		payments:     map[uuid.UUID]*bills.PaymentEvent{},
		autopayRules: map[uuid.UUID]*bills.AutopayRule{},
		autopayRuns:  map[uuid.UUID]*bills.AutopayRun{},
		accounts:     map[uuid.UUID]*bills.Account{},
		accountTxns:  map[uuid.UUID]*bills.AccountTransaction{},
		settings:     map[uuid.UUID]*budget.Settings{},
	}
}

func (d *dataset) clone() *dataset {
	out := newDataset()
	for id, v := range d.templates {
		out.templates[id] = cloneTemplate(v)
	}
	for id, v := range d.occurrences {
		out.occurrences[id] = cloneOccurrence(v)
	}
	for id, v := range d.allocations {
		out.allocations[id] = cloneAllocation(v)
	}
	for id, v := range d.payments {
		out.payments[id] = clonePayment(v)
	}
	for id, v := range d.autopayRules {
		out.autopayRules[id] = cloneRule(v)
	}
	for id, v := range d.autopayRuns {
		out.autopayRuns[id] = cloneRun(v)
	}
	for id, v := range d.accounts {
		out.accounts[id] = cloneAccount(v)
	}
	for id, v := range d.accountTxns {
		out.accountTxns[id] = cloneAccountTxn(v)
	}
	for id, v := range d.settings {
		cp := *v
		out.settings[id] = &cp
	}
	return out
}

// ptr copies a pointer field so clones never share mutable memory.
func ptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTemplate(in *bills.BillTemplate) *bills.BillTemplate {
	out := *in
	out.Category = ptr(in.Category)
	out.Merchant = ptr(in.Merchant)
	out.DueDay = ptr(in.DueDay)
	out.DueWeekday = ptr(in.DueWeekday)
	out.OneTimeDate = ptr(in.OneTimeDate)
	out.StartMonth = ptr(in.StartMonth)
	out.PaymentAccountID = ptr(in.PaymentAccountID)
	out.LiabilityAccountID = ptr(in.LiabilityAccountID)
	out.DebtOriginalBalanceCents = ptr(in.DebtOriginalBalanceCents)
	out.DebtRemainingBalanceCents = ptr(in.DebtRemainingBalanceCents)
	out.DebtStartDate = ptr(in.DebtStartDate)
	out.TaxClass = ptr(in.TaxClass)
	out.BudgetPeriodNumber = ptr(in.BudgetPeriodNumber)
	return &out
}

func cloneOccurrence(in *bills.BillOccurrence) *bills.BillOccurrence {
	out := *in
	out.PaidDate = ptr(in.PaidDate)
	out.LastTransactionID = ptr(in.LastTransactionID)
	out.BudgetPeriodOverride = ptr(in.BudgetPeriodOverride)
	return &out
}

func cloneAllocation(in *bills.OccurrenceAllocation) *bills.OccurrenceAllocation {
	out := *in
	out.PaymentEventID = ptr(in.PaymentEventID)
	return &out
}

func clonePayment(in *bills.PaymentEvent) *bills.PaymentEvent {
	out := *in
	out.PrincipalCents = ptr(in.PrincipalCents)
	out.InterestCents = ptr(in.InterestCents)
	out.BalanceBeforeCents = ptr(in.BalanceBeforeCents)
	out.BalanceAfterCents = ptr(in.BalanceAfterCents)
	return &out
}

func cloneRule(in *bills.AutopayRule) *bills.AutopayRule {
	out := *in
	return &out
}

func cloneRun(in *bills.AutopayRun) *bills.AutopayRun {
	out := *in
	out.CompletedAt = ptr(in.CompletedAt)
	if in.Errors != nil {
		out.Errors = make([]bills.AutopayItemError, len(in.Errors))
		copy(out.Errors, in.Errors)
	}
	return &out
}

func cloneAccount(in *bills.Account) *bills.Account {
	out := *in
	return &out
}

func cloneAccountTxn(in *bills.AccountTransaction) *bills.AccountTransaction {
	out := *in
	out.OccurrenceID = ptr(in.OccurrenceID)
	return &out
}
