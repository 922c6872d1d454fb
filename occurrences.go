package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homeledger/internal/bills"
)

// Bill occurrence handler functions

// @Summary Get bill occurrences
// @Description Retrieve materialized occurrences with filters, pagination, and set-wide totals
// @Tags occurrences
// @Produce json
// @Param status query string false "Comma-separated status filter (unpaid,partial,paid,overdue,overpaid,skipped)"
// @Param from query string false "Earliest due date (yyyy-MM-dd)"
// @Param to query string false "Latest due date (yyyy-MM-dd)"
// @Param template_id query string false "Only occurrences of this template"
// @Param period_offset query int false "Budget period offset from the current cycle"
// @Param limit query int false "Page size (1-500, default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} BillListResponse "Page of occurrences with summary"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/occurrences [get]
func getOccurrences(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var in bills.ListBillsInput

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := bills.ParseOccurrenceStatus(strings.TrimSpace(part))
			if err != nil {
				respondError(c, "parsing status filter", err)
				return
			}
			in.Statuses = append(in.Statuses, status)
		}
	}
	if raw := c.Query("from"); raw != "" {
		if in.DueFrom, err = parseDate(raw); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if in.DueTo, err = parseDate(raw); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if raw := c.Query("template_id"); raw != "" {
		if in.TemplateID, err = uuid.Parse(raw); err != nil {
			badRequest(c, "Invalid template ID")
			return
		}
	}
	if raw := c.Query("period_offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Invalid period offset")
			return
		}
		in.PeriodOffset = &offset
	}
	in.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	in.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := svc.ListBills(context.Background(), household, in)
	if err != nil {
		respondError(c, "fetching occurrences", err)
		return
	}

	resp := BillListResponse{
		Bills: []BillRow{},
		Total: list.Total,
		Summary: BillListSummary{
			Count:               list.Summary.Count,
			TotalDueCents:       list.Summary.TotalDueCents,
			TotalPaidCents:      list.Summary.TotalPaidCents,
			TotalRemainingCents: list.Summary.TotalRemainingCents,
		},
	}
	for _, row := range list.Rows {
		resp.Bills = append(resp.Bills, toBillRow(row))
	}
	if list.Period != nil {
		p := toPeriod(*list.Period)
		resp.Period = &p
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get bill occurrence
// @Description Retrieve one occurrence with its template and allocations
// @Tags occurrences
// @Produce json
// @Param id path string true "Occurrence ID"
// @Success 200 {object} BillRow "Occurrence with template and allocations"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Occurrence not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/occurrences/{id} [get]
func getOccurrence(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid occurrence ID")
		return
	}

	row, err := svc.GetBill(context.Background(), household, id)
	if err != nil {
		respondError(c, "fetching occurrence", err)
		return
	}

	c.JSON(http.StatusOK, toBillRow(row))
}

// @Summary Update bill occurrence
// @Description Apply per-occurrence overrides: amount, due date, late fee, period override, notes
// @Tags occurrences
// @Accept json
// @Produce json
// @Param id path string true "Occurrence ID"
// @Param occurrence body OccurrenceUpdateRequest true "Fields to update"
// @Success 200 {object} Occurrence "Updated occurrence"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Occurrence not found"
// @Failure 409 {object} map[string]interface{} "Amount frozen by payment activity"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/occurrences/{id} [put]
func updateOccurrence(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid occurrence ID")
		return
	}

	var req OccurrenceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	up := bills.OccurrenceUpdate{
		AmountDueCents:       req.AmountDueCents,
		LateFeeCents:         req.LateFeeCents,
		BudgetPeriodOverride: req.BudgetPeriodOverride,
		Notes:                req.Notes,
	}
	if up.DueDate, err = parseDatePtr(req.DueDate); err != nil {
		badRequest(c, err.Error())
		return
	}

	occ, err := svc.UpdateOccurrence(context.Background(), household, id, up)
	if err != nil {
		respondError(c, "updating occurrence", err)
		return
	}

	c.JSON(http.StatusOK, toOccurrence(occ))
}

// @Summary Pay bill occurrence
// @Description Apply a payment: money movement, balance update, principal/interest split, payment event, allocation spread, all in one transaction
// @Tags occurrences
// @Accept json
// @Produce json
// @Param id path string true "Occurrence ID"
// @Param payment body PayRequest true "Payment data (account_id required; amount defaults to remaining)"
// @Success 200 {object} PayResponse "Payment result"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Occurrence or account not found"
// @Failure 409 {object} map[string]interface{} "Occurrence already fully paid"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/occurrences/{id}/pay [post]
func payOccurrence(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid occurrence ID")
		return
	}

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	in := bills.PayInput{
		AmountCents:    req.AmountCents,
		IdempotencyKey: req.IdempotencyKey,
		Notes:          req.Notes,
		Method:         bills.MethodManual,
	}
	if req.AccountID != "" {
		accountID, err := uuid.Parse(req.AccountID)
		if err != nil {
			badRequest(c, "Invalid account ID")
			return
		}
		in.AccountID = accountID
	}
	if in.PaymentDate, err = parseDatePtr(req.PaymentDate); err != nil {
		badRequest(c, err.Error())
		return
	}
	if in.AllocationID, err = parseUUIDPtr(req.AllocationID); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Method != "" {
		if in.Method, err = bills.ParsePaymentMethod(req.Method); err != nil {
			respondError(c, "parsing payment method", err)
			return
		}
	}

	result, err := svc.PayOccurrence(context.Background(), household, id, in)
	if err != nil {
		respondError(c, "paying occurrence", err)
		return
	}

	c.JSON(http.StatusOK, PayResponse{
		Occurrence:  toOccurrence(result.Occurrence),
		Payment:     toPaymentEvent(result.Payment),
		Allocations: toAllocations(result.Allocations),
		Replayed:    result.Replayed,
	})
}

// @Summary Skip bill occurrence
// @Description Mark an occurrence skipped with optional notes; no balance effect
// @Tags occurrences
// @Accept json
// @Produce json
// @Param id path string true "Occurrence ID"
// @Param skip body SkipRequest false "Optional notes"
// @Success 200 {object} Occurrence "Skipped occurrence"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Occurrence not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/occurrences/{id}/skip [post]
func skipOccurrence(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid occurrence ID")
		return
	}

	var req SkipRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}

	occ, err := svc.SkipOccurrence(context.Background(), household, id, req.Notes)
	if err != nil {
		respondError(c, "skipping occurrence", err)
		return
	}

	c.JSON(http.StatusOK, toOccurrence(occ))
}

// @Summary Reset bill occurrence
// @Description Revert an occurrence to unpaid/overdue; prior payment events and balance effects are preserved
// @Tags occurrences
// @Produce json
// @Param id path string true "Occurrence ID"
// @Success 200 {object} Occurrence "Reset occurrence"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Occurrence not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/occurrences/{id}/reset [post]
func resetOccurrence(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid occurrence ID")
		return
	}

	occ, err := svc.ResetOccurrence(context.Background(), household, id)
	if err != nil {
		respondError(c, "resetting occurrence", err)
		return
	}

	c.JSON(http.StatusOK, toOccurrence(occ))
}

// @Summary Replace occurrence allocations
// @Description Rewrite the budget-period split of a not-yet-paid occurrence; the new set must sum to the amount due
// @Tags occurrences
// @Accept json
// @Produce json
// @Param id path string true "Occurrence ID"
// @Param allocations body AllocationsRequest true "Full replacement allocation set"
// @Success 200 {array} Allocation "New allocations"
// @Failure 400 {object} map[string]interface{} "Bad request (mismatched totals, duplicate periods, negative amounts)"
// @Failure 404 {object} map[string]interface{} "Occurrence not found"
// @Failure 409 {object} map[string]interface{} "Allocations frozen by payment activity"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/occurrences/{id}/allocations [put]
func updateAllocations(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid occurrence ID")
		return
	}

	var req AllocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	ins := make([]bills.AllocationInput, 0, len(req.Allocations))
	for _, entry := range req.Allocations {
		ins = append(ins, bills.AllocationInput{
			PeriodNumber:         entry.PeriodNumber,
			AllocatedAmountCents: entry.AllocatedAmountCents,
		})
	}

	allocs, err := svc.SetAllocations(context.Background(), household, id, ins)
	if err != nil {
		respondError(c, "updating allocations", err)
		return
	}

	c.JSON(http.StatusOK, toAllocations(allocs))
}

// @Summary Get occurrence payment history
// @Description Retrieve the payment events recorded against an occurrence, newest first
// @Tags occurrences
// @Produce json
// @Param id path string true "Occurrence ID"
// @Success 200 {array} PaymentEvent "Payment events"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Occurrence not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/occurrences/{id}/payments [get]
func getOccurrencePayments(c *gin.Context) {
	household, err := householdID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := parseIDParam(c)
	if err != nil {
		badRequest(c, "Invalid occurrence ID")
		return
	}

	events, err := svc.PaymentHistory(context.Background(), household, id)
	if err != nil {
		respondError(c, "fetching payment history", err)
		return
	}

	payments := []PaymentEvent{}
	for _, ev := range events {
		payments = append(payments, toPaymentEvent(ev))
	}
	c.JSON(http.StatusOK, payments)
}
