package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"homeledger/internal/bills"
)

const occurrenceCols = `id, household_id, template_id, due_date, status,
	amount_due_cents, amount_paid_cents, amount_remaining_cents, actual_amount_cents,
	paid_date, last_transaction_id, days_late, late_fee_cents, manual_override,
	notes, budget_period_override, created_at, updated_at`

func scanOccurrence(row scanner) (*bills.BillOccurrence, error) {
	var occ bills.BillOccurrence
	err := row.Scan(
		&occ.ID, &occ.HouseholdID, &occ.TemplateID, &occ.DueDate, &occ.Status,
		&occ.AmountDueCents, &occ.AmountPaidCents, &occ.AmountRemainingCents, &occ.ActualAmountCents,
		&occ.PaidDate, &occ.LastTransactionID, &occ.DaysLate, &occ.LateFeeCents, &occ.ManualOverride,
		&occ.Notes, &occ.BudgetPeriodOverride, &occ.CreatedAt, &occ.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &occ, nil
}

func (t *session) InsertOccurrence(ctx context.Context, occ *bills.BillOccurrence) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO bill_occurrences (
			id, household_id, template_id, due_date, status,
			amount_due_cents, amount_paid_cents, amount_remaining_cents, actual_amount_cents,
			paid_date, last_transaction_id, days_late, late_fee_cents, manual_override,
			notes, budget_period_override, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)`,
		occ.ID, occ.HouseholdID, occ.TemplateID, occ.DueDate, string(occ.Status),
		occ.AmountDueCents, occ.AmountPaidCents, occ.AmountRemainingCents, occ.ActualAmountCents,
		occ.PaidDate, occ.LastTransactionID, occ.DaysLate, occ.LateFeeCents, occ.ManualOverride,
		occ.Notes, occ.BudgetPeriodOverride, occ.CreatedAt, occ.UpdatedAt,
	)
	return translate(err)
}

func (t *session) GetOccurrence(ctx context.Context, household, id uuid.UUID) (*bills.BillOccurrence, error) {
	row := t.q.QueryRow(ctx, `
		SELECT `+occurrenceCols+`
		FROM bill_occurrences
		WHERE id = $1 AND household_id = $2`,
		id, household,
	)
	occ, err := scanOccurrence(row)
	if err != nil {
		return nil, notFound(fmt.Sprintf("occurrence %s", id), err)
	}
	return occ, nil
}

func (t *session) ListOccurrences(ctx context.Context, f bills.OccurrenceFilter) ([]*bills.BillOccurrence, error) {
	query := `SELECT ` + occurrenceCols + ` FROM bill_occurrences`
	var conds []string
	var args []any
	if f.HouseholdID != uuid.Nil {
		args = append(args, f.HouseholdID)
		conds = append(conds, fmt.Sprintf("household_id = $%d", len(args)))
	}
	if f.TemplateID != uuid.Nil {
		args = append(args, f.TemplateID)
		conds = append(conds, fmt.Sprintf("template_id = $%d", len(args)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d::text[])", len(args)))
	}
	if !f.DueFrom.IsZero() {
		args = append(args, f.DueFrom)
		conds = append(conds, fmt.Sprintf("due_date >= $%d", len(args)))
	}
	if !f.DueTo.IsZero() {
		args = append(args, f.DueTo)
		conds = append(conds, fmt.Sprintf("due_date <= $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY due_date, created_at"

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []*bills.BillOccurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, occ)
	}
	return out, translate(rows.Err())
}

func (t *session) ListOccurrenceDates(ctx context.Context, templateID uuid.UUID) ([]time.Time, error) {
	rows, err := t.q.Query(ctx,
		`SELECT due_date FROM bill_occurrences WHERE template_id = $1 ORDER BY due_date`,
		templateID,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, translate(err)
		}
		out = append(out, d)
	}
	return out, translate(rows.Err())
}

func (t *session) UpdateOccurrence(ctx context.Context, occ *bills.BillOccurrence) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE bill_occurrences SET
			due_date = $2, status = $3, amount_due_cents = $4, amount_paid_cents = $5,
			amount_remaining_cents = $6, actual_amount_cents = $7, paid_date = $8,
			last_transaction_id = $9, days_late = $10, late_fee_cents = $11,
			manual_override = $12, notes = $13, budget_period_override = $14, updated_at = $15
		WHERE id = $1`,
		occ.ID, occ.DueDate, string(occ.Status), occ.AmountDueCents, occ.AmountPaidCents,
		occ.AmountRemainingCents, occ.ActualAmountCents, occ.PaidDate,
		occ.LastTransactionID, occ.DaysLate, occ.LateFeeCents,
		occ.ManualOverride, occ.Notes, occ.BudgetPeriodOverride, occ.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: occurrence %s", bills.ErrNotFound, occ.ID)
	}
	return nil
}

func (t *session) DeleteOccurrencesByTemplate(ctx context.Context, templateID uuid.UUID) error {
	_, err := t.q.Exec(ctx, `DELETE FROM bill_occurrences WHERE template_id = $1`, templateID)
	return translate(err)
}

const allocationCols = `id, occurrence_id, period_number, allocated_amount_cents,
	paid_amount_cents, is_paid, payment_event_id, created_at, updated_at`

func scanAllocation(row scanner) (*bills.OccurrenceAllocation, error) {
	var a bills.OccurrenceAllocation
	err := row.Scan(
		&a.ID, &a.OccurrenceID, &a.PeriodNumber, &a.AllocatedAmountCents,
		&a.PaidAmountCents, &a.IsPaid, &a.PaymentEventID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *session) InsertAllocation(ctx context.Context, a *bills.OccurrenceAllocation) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO bill_occurrence_allocations (
			id, occurrence_id, period_number, allocated_amount_cents,
			paid_amount_cents, is_paid, payment_event_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.OccurrenceID, a.PeriodNumber, a.AllocatedAmountCents,
		a.PaidAmountCents, a.IsPaid, a.PaymentEventID, a.CreatedAt, a.UpdatedAt,
	)
	return translate(err)
}

func (t *session) ListAllocations(ctx context.Context, occurrenceID uuid.UUID) ([]*bills.OccurrenceAllocation, error) {
	rows, err := t.q.Query(ctx, `
		SELECT `+allocationCols+`
		FROM bill_occurrence_allocations
		WHERE occurrence_id = $1
		ORDER BY period_number`,
		occurrenceID,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []*bills.OccurrenceAllocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, a)
	}
	return out, translate(rows.Err())
}

func (t *session) ListAllocationsForOccurrences(ctx context.Context, occurrenceIDs []uuid.UUID) (map[uuid.UUID][]*bills.OccurrenceAllocation, error) {
	out := make(map[uuid.UUID][]*bills.OccurrenceAllocation, len(occurrenceIDs))
	if len(occurrenceIDs) == 0 {
		return out, nil
	}
	rows, err := t.q.Query(ctx, `
		SELECT `+allocationCols+`
		FROM bill_occurrence_allocations
		WHERE occurrence_id = ANY($1::uuid[])
		ORDER BY occurrence_id, period_number`,
		uuidStrings(occurrenceIDs),
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, translate(err)
		}
		out[a.OccurrenceID] = append(out[a.OccurrenceID], a)
	}
	return out, translate(rows.Err())
}

func (t *session) UpdateAllocation(ctx context.Context, a *bills.OccurrenceAllocation) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE bill_occurrence_allocations SET
			period_number = $2, allocated_amount_cents = $3, paid_amount_cents = $4,
			is_paid = $5, payment_event_id = $6, updated_at = $7
		WHERE id = $1`,
		a.ID, a.PeriodNumber, a.AllocatedAmountCents, a.PaidAmountCents,
		a.IsPaid, a.PaymentEventID, a.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: allocation %s", bills.ErrNotFound, a.ID)
	}
	return nil
}

func (t *session) DeleteAllocations(ctx context.Context, occurrenceID uuid.UUID) error {
	_, err := t.q.Exec(ctx, `DELETE FROM bill_occurrence_allocations WHERE occurrence_id = $1`, occurrenceID)
	return translate(err)
}

func (t *session) DeleteAllocationsByTemplate(ctx context.Context, templateID uuid.UUID) error {
	_, err := t.q.Exec(ctx, `
		DELETE FROM bill_occurrence_allocations
		WHERE occurrence_id IN (SELECT id FROM bill_occurrences WHERE template_id = $1)`,
		templateID,
	)
	return translate(err)
}
