package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homeledger/internal/bills"
	"homeledger/internal/budget"
)

// householdHeader carries the household scope for every request. Absent means
// the single-household default (zero UUID); auth is out of scope here.
const householdHeader = "X-Household-ID"

// Request parsing helpers

// householdID resolves the household scope from the request header.
func householdID(c *gin.Context) (uuid.UUID, error) {
	raw := c.GetHeader(householdHeader)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid household ID")
	}
	return id, nil
}

// parseIDParam parses the :id path segment as a UUID.
func parseIDParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid ID")
	}
	return id, nil
}

// parseDate parses a yyyy-MM-dd string into a UTC calendar date.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(bills.ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want yyyy-MM-dd)", s)
	}
	return d, nil
}

// parseDatePtr parses an optional date string.
func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	d, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseUUIDPtr parses an optional UUID string.
func parseUUIDPtr(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID %q", *s)
	}
	return &id, nil
}

// Error mapping

// respondError logs the failure and maps the domain sentinels onto HTTP
// status codes: invalid input 400, not found 404, conflict 409, anything
// else 500 with a generic message.
func respondError(c *gin.Context, action string, err error) {
	log.Printf("Error %s: %v", action, err)
	switch {
	case errors.Is(err, bills.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": bills.ErrorCode(err)})
	case errors.Is(err, bills.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": bills.ErrorCode(err)})
	case errors.Is(err, bills.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": bills.ErrorCode(err)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": bills.ErrorCode(err)})
	}
}

// badRequest responds with a 400 for request-shape problems caught before the
// engine is involved.
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": "invalid_input"})
}

// Conversion helpers: engine types to API DTOs

func dateString(t time.Time) string {
	return t.Format(bills.ISODate)
}

func dateStringPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(bills.ISODate)
	return &s
}

func uuidStringPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toTemplate(tpl *bills.BillTemplate) Template {
	return Template{
		ID:                        tpl.ID.String(),
		Name:                      tpl.Name,
		Active:                    tpl.Active,
		BillType:                  string(tpl.BillType),
		Category:                  tpl.Category,
		Merchant:                  tpl.Merchant,
		RecurrenceType:            string(tpl.RecurrenceType),
		DueDay:                    tpl.DueDay,
		DueWeekday:                tpl.DueWeekday,
		OneTimeDate:               dateStringPtr(tpl.OneTimeDate),
		StartMonth:                tpl.StartMonth,
		DefaultAmountCents:        tpl.DefaultAmountCents,
		VariableAmount:            tpl.VariableAmount,
		AmountToleranceBps:        tpl.AmountToleranceBps,
		PaymentAccountID:          uuidStringPtr(tpl.PaymentAccountID),
		LiabilityAccountID:        uuidStringPtr(tpl.LiabilityAccountID),
		AutoMarkPaid:              tpl.AutoMarkPaid,
		DebtOriginalBalanceCents:  tpl.DebtOriginalBalanceCents,
		DebtRemainingBalanceCents: tpl.DebtRemainingBalanceCents,
		InterestRateBps:           tpl.InterestRateBps,
		InterestType:              string(tpl.InterestType),
		DebtStartDate:             dateStringPtr(tpl.DebtStartDate),
		IncludeInPayoff:           tpl.IncludeInPayoff,
		TaxClass:                  tpl.TaxClass,
		BudgetPeriodNumber:        tpl.BudgetPeriodNumber,
		SplitAcrossPeriods:        tpl.SplitAcrossPeriods,
		CreatedAt:                 tpl.CreatedAt,
		UpdatedAt:                 tpl.UpdatedAt,
	}
}

func toOccurrence(occ *bills.BillOccurrence) Occurrence {
	return Occurrence{
		ID:                   occ.ID.String(),
		TemplateID:           occ.TemplateID.String(),
		DueDate:              dateString(occ.DueDate),
		Status:               string(occ.Status),
		AmountDueCents:       occ.AmountDueCents,
		AmountPaidCents:      occ.AmountPaidCents,
		AmountRemainingCents: occ.AmountRemainingCents,
		ActualAmountCents:    occ.ActualAmountCents,
		PaidDate:             dateStringPtr(occ.PaidDate),
		LastTransactionID:    uuidStringPtr(occ.LastTransactionID),
		DaysLate:             occ.DaysLate,
		LateFeeCents:         occ.LateFeeCents,
		ManualOverride:       occ.ManualOverride,
		Notes:                occ.Notes,
		BudgetPeriodOverride: occ.BudgetPeriodOverride,
		CreatedAt:            occ.CreatedAt,
		UpdatedAt:            occ.UpdatedAt,
	}
}

func toAllocation(a *bills.OccurrenceAllocation) Allocation {
	return Allocation{
		ID:                   a.ID.String(),
		OccurrenceID:         a.OccurrenceID.String(),
		PeriodNumber:         a.PeriodNumber,
		AllocatedAmountCents: a.AllocatedAmountCents,
		PaidAmountCents:      a.PaidAmountCents,
		IsPaid:               a.IsPaid,
		PaymentEventID:       uuidStringPtr(a.PaymentEventID),
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func toAllocations(allocs []*bills.OccurrenceAllocation) []Allocation {
	out := make([]Allocation, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, toAllocation(a))
	}
	return out
}

func toPaymentEvent(ev *bills.PaymentEvent) PaymentEvent {
	return PaymentEvent{
		ID:                 ev.ID.String(),
		OccurrenceID:       ev.OccurrenceID.String(),
		TemplateID:         ev.TemplateID.String(),
		TransactionID:      ev.TransactionID.String(),
		AccountID:          ev.AccountID.String(),
		AmountCents:        ev.AmountCents,
		PrincipalCents:     ev.PrincipalCents,
		InterestCents:      ev.InterestCents,
		BalanceBeforeCents: ev.BalanceBeforeCents,
		BalanceAfterCents:  ev.BalanceAfterCents,
		PaidOn:             dateString(ev.PaidOn),
		Method:             string(ev.Method),
		IdempotencyKey:     stringPtrOrNil(ev.IdempotencyKey),
		Notes:              ev.Notes,
		CreatedAt:          ev.CreatedAt,
	}
}

func toBillRow(row *bills.BillRow) BillRow {
	out := BillRow{
		Occurrence:  toOccurrence(row.Occurrence),
		Allocations: toAllocations(row.Allocations),
	}
	if row.Template != nil {
		tpl := toTemplate(row.Template)
		out.Template = &tpl
	}
	return out
}

func toPeriod(p budget.Period) BudgetPeriod {
	return BudgetPeriod{
		Number: p.Number,
		Start:  dateString(p.Start),
		End:    dateString(p.End),
	}
}

func toAccount(acc *bills.Account) Account {
	return Account{
		ID:           acc.ID.String(),
		Name:         acc.Name,
		AccountType:  string(acc.AccountType),
		BalanceCents: acc.BalanceCents,
		CreatedAt:    acc.CreatedAt,
		UpdatedAt:    acc.UpdatedAt,
	}
}

func toAccountTransaction(txn *bills.AccountTransaction) AccountTransaction {
	return AccountTransaction{
		ID:           txn.ID.String(),
		AccountID:    txn.AccountID.String(),
		AmountCents:  txn.AmountCents,
		OccurredOn:   dateString(txn.OccurredOn),
		Description:  txn.Description,
		Method:       string(txn.Method),
		OccurrenceID: uuidStringPtr(txn.OccurrenceID),
		CreatedAt:    txn.CreatedAt,
	}
}

func toAutopayRule(rule *bills.AutopayRule) AutopayRuleView {
	return AutopayRuleView{
		ID:               rule.ID.String(),
		TemplateID:       rule.TemplateID.String(),
		Enabled:          rule.Enabled,
		DaysBeforeDue:    rule.DaysBeforeDue,
		AmountType:       string(rule.AmountType),
		FixedAmountCents: rule.FixedAmountCents,
		AccountID:        rule.AccountID.String(),
		CreatedAt:        rule.CreatedAt,
		UpdatedAt:        rule.UpdatedAt,
	}
}

func toAutopayRun(run *bills.AutopayRun) AutopayRunView {
	out := AutopayRunView{
		ID:               run.ID.String(),
		RunDate:          dateString(run.RunDate),
		RunType:          string(run.RunType),
		Status:           string(run.Status),
		ProcessedCount:   run.ProcessedCount,
		SuccessCount:     run.SuccessCount,
		FailedCount:      run.FailedCount,
		SkippedCount:     run.SkippedCount,
		TotalAmountCents: run.TotalAmountCents,
		Errors:           []AutopayRunError{},
		ErrorMessage:     stringPtrOrNil(run.ErrorMessage),
		StartedAt:        run.StartedAt,
		CompletedAt:      run.CompletedAt,
	}
	for _, e := range run.Errors {
		out.Errors = append(out.Errors, AutopayRunError{
			OccurrenceID: e.OccurrenceID.String(),
			TemplateID:   e.TemplateID.String(),
			Code:         e.Code,
			Message:      e.Message,
		})
	}
	return out
}

func toSettings(set budget.Settings) Settings {
	return Settings{
		Frequency:       string(set.Frequency),
		StartDay:        set.StartDay,
		ReferenceDate:   dateString(set.ReferenceDate),
		RolloverEnabled: set.RolloverEnabled,
		UpdatedAt:       set.UpdatedAt,
	}
}

func toPayoffPlan(proj *bills.PayoffProjection) PayoffPlan {
	plan := PayoffPlan{
		Strategy:           string(proj.Strategy),
		ExtraMonthlyCents:  proj.ExtraMonthlyCents,
		TotalBalanceCents:  proj.TotalBalanceCents,
		MonthlyBudgetCents: proj.MonthlyBudgetCents,
		MonthsToDebtFree:   proj.MonthsToDebtFree,
		TotalInterestCents: proj.TotalInterestCents,
		DebtFreeDate:       dateStringPtr(proj.DebtFreeDate),
		Feasible:           proj.Feasible,
		Debts:              []PayoffDebt{},
	}
	for _, d := range proj.Debts {
		plan.Debts = append(plan.Debts, PayoffDebt{
			TemplateID:        d.TemplateID.String(),
			Name:              d.Name,
			BalanceCents:      d.BalanceCents,
			RateBps:           d.RateBps,
			MinimumCents:      d.MinimumCents,
			MonthsToPayoff:    d.MonthsToPayoff,
			InterestPaidCents: d.InterestPaidCents,
			PayoffDate:        dateStringPtr(d.PayoffDate),
		})
	}
	return plan
}

// Conversion helpers: API requests to engine inputs

func templateInputFromRequest(req *TemplateRequest) (bills.TemplateInput, error) {
	var in bills.TemplateInput

	billType, err := bills.ParseBillType(req.BillType)
	if err != nil {
		return in, err
	}
	recurrence, err := bills.ParseRecurrenceType(req.RecurrenceType)
	if err != nil {
		return in, err
	}

	in = bills.TemplateInput{
		Name:                      req.Name,
		BillType:                  billType,
		Category:                  req.Category,
		Merchant:                  req.Merchant,
		RecurrenceType:            recurrence,
		DueDay:                    req.DueDay,
		DueWeekday:                req.DueWeekday,
		StartMonth:                req.StartMonth,
		DefaultAmountCents:        req.DefaultAmountCents,
		VariableAmount:            req.VariableAmount,
		AmountToleranceBps:        req.AmountToleranceBps,
		AutoMarkPaid:              req.AutoMarkPaid,
		DebtOriginalBalanceCents:  req.DebtOriginalBalanceCents,
		DebtRemainingBalanceCents: req.DebtRemainingBalanceCents,
		InterestRateBps:           req.InterestRateBps,
		InterestType:              bills.InterestNone,
		IncludeInPayoff:           req.IncludeInPayoff,
		TaxClass:                  req.TaxClass,
		BudgetPeriodNumber:        req.BudgetPeriodNumber,
		SplitAcrossPeriods:        req.SplitAcrossPeriods,
	}

	if in.OneTimeDate, err = parseDatePtr(req.OneTimeDate); err != nil {
		return in, fmt.Errorf("%w: %v", bills.ErrInvalidInput, err)
	}
	if in.DebtStartDate, err = parseDatePtr(req.DebtStartDate); err != nil {
		return in, fmt.Errorf("%w: %v", bills.ErrInvalidInput, err)
	}
	if in.PaymentAccountID, err = parseUUIDPtr(req.PaymentAccountID); err != nil {
		return in, fmt.Errorf("%w: %v", bills.ErrInvalidInput, err)
	}
	if in.LiabilityAccountID, err = parseUUIDPtr(req.LiabilityAccountID); err != nil {
		return in, fmt.Errorf("%w: %v", bills.ErrInvalidInput, err)
	}
	if req.InterestType != nil {
		if in.InterestType, err = bills.ParseInterestType(*req.InterestType); err != nil {
			return in, err
		}
	}
	return in, nil
}

func templateUpdateFromRequest(req *TemplateUpdateRequest) (bills.TemplateUpdate, error) {
	up := bills.TemplateUpdate{
		Name:                      req.Name,
		Active:                    req.Active,
		Category:                  req.Category,
		Merchant:                  req.Merchant,
		DueDay:                    req.DueDay,
		DueWeekday:                req.DueWeekday,
		StartMonth:                req.StartMonth,
		DefaultAmountCents:        req.DefaultAmountCents,
		VariableAmount:            req.VariableAmount,
		AmountToleranceBps:        req.AmountToleranceBps,
		AutoMarkPaid:              req.AutoMarkPaid,
		DebtRemainingBalanceCents: req.DebtRemainingBalanceCents,
		InterestRateBps:           req.InterestRateBps,
		IncludeInPayoff:           req.IncludeInPayoff,
		TaxClass:                  req.TaxClass,
		BudgetPeriodNumber:        req.BudgetPeriodNumber,
		SplitAcrossPeriods:        req.SplitAcrossPeriods,
	}

	var err error
	if req.RecurrenceType != nil {
		recurrence, err := bills.ParseRecurrenceType(*req.RecurrenceType)
		if err != nil {
			return up, err
		}
		up.RecurrenceType = &recurrence
	}
	if up.OneTimeDate, err = parseDatePtr(req.OneTimeDate); err != nil {
		return up, fmt.Errorf("%w: %v", bills.ErrInvalidInput, err)
	}
	if req.InterestType != nil {
		interest, err := bills.ParseInterestType(*req.InterestType)
		if err != nil {
			return up, err
		}
		up.InterestType = &interest
	}

	// A cleared account link arrives as an empty string; uuid.Nil carries
	// the clearing through the partial update.
	if req.PaymentAccountID != nil {
		id, err := parseClearableUUID(*req.PaymentAccountID)
		if err != nil {
			return up, err
		}
		up.PaymentAccountID = &id
	}
	if req.LiabilityAccountID != nil {
		id, err := parseClearableUUID(*req.LiabilityAccountID)
		if err != nil {
			return up, err
		}
		up.LiabilityAccountID = &id
	}
	return up, nil
}

func parseClearableUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid UUID %q", bills.ErrInvalidInput, s)
	}
	return id, nil
}
