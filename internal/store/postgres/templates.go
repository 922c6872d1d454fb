package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"homeledger/internal/bills"
)

const templateCols = `id, household_id, name, active, bill_type, category, merchant,
	recurrence_type, due_day, due_weekday, one_time_date, start_month,
	default_amount_cents, variable_amount, amount_tolerance_bps,
	payment_account_id, liability_account_id, auto_mark_paid,
	debt_original_balance_cents, debt_remaining_balance_cents, interest_rate_bps,
	interest_type, debt_start_date, include_in_payoff, tax_class,
	budget_period_number, split_across_periods, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*bills.BillTemplate, error) {
	var tpl bills.BillTemplate
	err := row.Scan(
		&tpl.ID, &tpl.HouseholdID, &tpl.Name, &tpl.Active, &tpl.BillType, &tpl.Category, &tpl.Merchant,
		&tpl.RecurrenceType, &tpl.DueDay, &tpl.DueWeekday, &tpl.OneTimeDate, &tpl.StartMonth,
		&tpl.DefaultAmountCents, &tpl.VariableAmount, &tpl.AmountToleranceBps,
		&tpl.PaymentAccountID, &tpl.LiabilityAccountID, &tpl.AutoMarkPaid,
		&tpl.DebtOriginalBalanceCents, &tpl.DebtRemainingBalanceCents, &tpl.InterestRateBps,
		&tpl.InterestType, &tpl.DebtStartDate, &tpl.IncludeInPayoff, &tpl.TaxClass,
		&tpl.BudgetPeriodNumber, &tpl.SplitAcrossPeriods, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (t *session) InsertTemplate(ctx context.Context, tpl *bills.BillTemplate) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO bill_templates (
			id, household_id, name, active, bill_type, category, merchant,
			recurrence_type, due_day, due_weekday, one_time_date, start_month,
			default_amount_cents, variable_amount, amount_tolerance_bps,
			payment_account_id, liability_account_id, auto_mark_paid,
			debt_original_balance_cents, debt_remaining_balance_cents, interest_rate_bps,
			interest_type, debt_start_date, include_in_payoff, tax_class,
			budget_period_number, split_across_periods, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
		)`,
		tpl.ID, tpl.HouseholdID, tpl.Name, tpl.Active, string(tpl.BillType), tpl.Category, tpl.Merchant,
		string(tpl.RecurrenceType), tpl.DueDay, tpl.DueWeekday, tpl.OneTimeDate, tpl.StartMonth,
		tpl.DefaultAmountCents, tpl.VariableAmount, tpl.AmountToleranceBps,
		tpl.PaymentAccountID, tpl.LiabilityAccountID, tpl.AutoMarkPaid,
		tpl.DebtOriginalBalanceCents, tpl.DebtRemainingBalanceCents, tpl.InterestRateBps,
		string(tpl.InterestType), tpl.DebtStartDate, tpl.IncludeInPayoff, tpl.TaxClass,
		tpl.BudgetPeriodNumber, tpl.SplitAcrossPeriods, tpl.CreatedAt, tpl.UpdatedAt,
	)
	return translate(err)
}

func (t *session) GetTemplate(ctx context.Context, household, id uuid.UUID) (*bills.BillTemplate, error) {
	row := t.q.QueryRow(ctx, `
		SELECT `+templateCols+`
		FROM bill_templates
		WHERE id = $1 AND household_id = $2`,
		id, household,
	)
	tpl, err := scanTemplate(row)
	if err != nil {
		return nil, notFound(fmt.Sprintf("template %s", id), err)
	}
	return tpl, nil
}

func (t *session) ListTemplates(ctx context.Context, f bills.TemplateFilter) ([]*bills.BillTemplate, error) {
	query := `SELECT ` + templateCols + ` FROM bill_templates`
	var conds []string
	var args []any
	if f.HouseholdID != uuid.Nil {
		args = append(args, f.HouseholdID)
		conds = append(conds, fmt.Sprintf("household_id = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("bill_type = $%d", len(args)))
	}
	if f.ActiveOnly {
		conds = append(conds, "active")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY lower(name), created_at"

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []*bills.BillTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, tpl)
	}
	return out, translate(rows.Err())
}

func (t *session) UpdateTemplate(ctx context.Context, tpl *bills.BillTemplate) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE bill_templates SET
			name = $2, active = $3, bill_type = $4, category = $5, merchant = $6,
			recurrence_type = $7, due_day = $8, due_weekday = $9, one_time_date = $10,
			start_month = $11, default_amount_cents = $12, variable_amount = $13,
			amount_tolerance_bps = $14, payment_account_id = $15, liability_account_id = $16,
			auto_mark_paid = $17, debt_original_balance_cents = $18,
			debt_remaining_balance_cents = $19, interest_rate_bps = $20, interest_type = $21,
			debt_start_date = $22, include_in_payoff = $23, tax_class = $24,
			budget_period_number = $25, split_across_periods = $26, updated_at = $27
		WHERE id = $1`,
		tpl.ID, tpl.Name, tpl.Active, string(tpl.BillType), tpl.Category, tpl.Merchant,
		string(tpl.RecurrenceType), tpl.DueDay, tpl.DueWeekday, tpl.OneTimeDate,
		tpl.StartMonth, tpl.DefaultAmountCents, tpl.VariableAmount,
		tpl.AmountToleranceBps, tpl.PaymentAccountID, tpl.LiabilityAccountID,
		tpl.AutoMarkPaid, tpl.DebtOriginalBalanceCents,
		tpl.DebtRemainingBalanceCents, tpl.InterestRateBps, string(tpl.InterestType),
		tpl.DebtStartDate, tpl.IncludeInPayoff, tpl.TaxClass,
		tpl.BudgetPeriodNumber, tpl.SplitAcrossPeriods, tpl.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: template %s", bills.ErrNotFound, tpl.ID)
	}
	return nil
}

func (t *session) DeleteTemplate(ctx context.Context, household, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx,
		`DELETE FROM bill_templates WHERE id = $1 AND household_id = $2`,
		id, household,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: template %s", bills.ErrNotFound, id)
	}
	return nil
}
