package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"homeledger/internal/bills"
	"homeledger/internal/budget"
)

const ruleCols = `id, household_id, template_id, enabled, days_before_due,
	amount_type, fixed_amount_cents, account_id, created_at, updated_at`

func scanRule(row scanner) (*bills.AutopayRule, error) {
	var r bills.AutopayRule
	err := row.Scan(
		&r.ID, &r.HouseholdID, &r.TemplateID, &r.Enabled, &r.DaysBeforeDue,
		&r.AmountType, &r.FixedAmountCents, &r.AccountID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *session) UpsertAutopayRule(ctx context.Context, rule *bills.AutopayRule) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO autopay_rules (
			id, household_id, template_id, enabled, days_before_due,
			amount_type, fixed_amount_cents, account_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (template_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			days_before_due = EXCLUDED.days_before_due,
			amount_type = EXCLUDED.amount_type,
			fixed_amount_cents = EXCLUDED.fixed_amount_cents,
			account_id = EXCLUDED.account_id,
			updated_at = EXCLUDED.updated_at`,
		rule.ID, rule.HouseholdID, rule.TemplateID, rule.Enabled, rule.DaysBeforeDue,
		string(rule.AmountType), rule.FixedAmountCents, rule.AccountID, rule.CreatedAt, rule.UpdatedAt,
	)
	return translate(err)
}

func (t *session) GetAutopayRule(ctx context.Context, household, templateID uuid.UUID) (*bills.AutopayRule, error) {
	row := t.q.QueryRow(ctx, `
		SELECT `+ruleCols+`
		FROM autopay_rules
		WHERE household_id = $1 AND template_id = $2`,
		household, templateID,
	)
	rule, err := scanRule(row)
	if err != nil {
		return nil, notFound(fmt.Sprintf("autopay rule for template %s", templateID), err)
	}
	return rule, nil
}

func (t *session) ListAutopayRules(ctx context.Context, household uuid.UUID) ([]*bills.AutopayRule, error) {
	return t.queryRules(ctx, `
		SELECT `+ruleCols+`
		FROM autopay_rules
		WHERE household_id = $1
		ORDER BY created_at`,
		household,
	)
}

func (t *session) ListEnabledAutopayRules(ctx context.Context) ([]*bills.AutopayRule, error) {
	return t.queryRules(ctx, `
		SELECT `+ruleCols+`
		FROM autopay_rules
		WHERE enabled
		ORDER BY created_at`,
	)
}

func (t *session) queryRules(ctx context.Context, query string, args ...any) ([]*bills.AutopayRule, error) {
	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []*bills.AutopayRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, rule)
	}
	return out, translate(rows.Err())
}

func (t *session) DeleteAutopayRule(ctx context.Context, household, templateID uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `
		DELETE FROM autopay_rules WHERE household_id = $1 AND template_id = $2`,
		household, templateID,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: autopay rule for template %s", bills.ErrNotFound, templateID)
	}
	return nil
}

const runCols = `id, household_id, run_date, run_type, status,
	processed_count, success_count, failed_count, skipped_count, total_amount_cents,
	errors, error_message, started_at, completed_at`

func scanRun(row scanner) (*bills.AutopayRun, error) {
	var run bills.AutopayRun
	var errsJSON []byte
	err := row.Scan(
		&run.ID, &run.HouseholdID, &run.RunDate, &run.RunType, &run.Status,
		&run.ProcessedCount, &run.SuccessCount, &run.FailedCount, &run.SkippedCount, &run.TotalAmountCents,
		&errsJSON, &run.ErrorMessage, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &run.Errors); err != nil {
			return nil, fmt.Errorf("decode run errors: %w", err)
		}
	}
	return &run, nil
}

func runErrorsJSON(run *bills.AutopayRun) ([]byte, error) {
	if len(run.Errors) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(run.Errors)
}

func (t *session) InsertAutopayRun(ctx context.Context, run *bills.AutopayRun) error {
	errsJSON, err := runErrorsJSON(run)
	if err != nil {
		return err
	}
	_, err = t.q.Exec(ctx, `
		INSERT INTO autopay_runs (
			id, household_id, run_date, run_type, status,
			processed_count, success_count, failed_count, skipped_count, total_amount_cents,
			errors, error_message, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		run.ID, run.HouseholdID, run.RunDate, string(run.RunType), string(run.Status),
		run.ProcessedCount, run.SuccessCount, run.FailedCount, run.SkippedCount, run.TotalAmountCents,
		errsJSON, run.ErrorMessage, run.StartedAt, run.CompletedAt,
	)
	return translate(err)
}

func (t *session) UpdateAutopayRun(ctx context.Context, run *bills.AutopayRun) error {
	errsJSON, err := runErrorsJSON(run)
	if err != nil {
		return err
	}
	tag, err := t.q.Exec(ctx, `
		UPDATE autopay_runs SET
			status = $2, processed_count = $3, success_count = $4, failed_count = $5,
			skipped_count = $6, total_amount_cents = $7, errors = $8, error_message = $9,
			completed_at = $10
		WHERE id = $1`,
		run.ID, string(run.Status), run.ProcessedCount, run.SuccessCount, run.FailedCount,
		run.SkippedCount, run.TotalAmountCents, errsJSON, run.ErrorMessage, run.CompletedAt,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: autopay run %s", bills.ErrNotFound, run.ID)
	}
	return nil
}

func (t *session) ListAutopayRuns(ctx context.Context, household uuid.UUID, limit int) ([]*bills.AutopayRun, error) {
	query := `
		SELECT ` + runCols + `
		FROM autopay_runs
		WHERE household_id = $1
		ORDER BY started_at DESC`
	args := []any{household}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []*bills.AutopayRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, run)
	}
	return out, translate(rows.Err())
}

func (t *session) GetSettings(ctx context.Context, household uuid.UUID) (*budget.Settings, error) {
	row := t.q.QueryRow(ctx, `
		SELECT household_id, budget_frequency, budget_start_day, budget_reference_date,
			rollover_enabled, updated_at
		FROM household_settings
		WHERE household_id = $1`,
		household,
	)
	var set budget.Settings
	err := row.Scan(
		&set.HouseholdID, &set.Frequency, &set.StartDay, &set.ReferenceDate,
		&set.RolloverEnabled, &set.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(fmt.Sprintf("settings for household %s", household), err)
	}
	return &set, nil
}

func (t *session) PutSettings(ctx context.Context, set *budget.Settings) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO household_settings (
			household_id, budget_frequency, budget_start_day, budget_reference_date,
			rollover_enabled, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (household_id) DO UPDATE SET
			budget_frequency = EXCLUDED.budget_frequency,
			budget_start_day = EXCLUDED.budget_start_day,
			budget_reference_date = EXCLUDED.budget_reference_date,
			rollover_enabled = EXCLUDED.rollover_enabled,
			updated_at = EXCLUDED.updated_at`,
		set.HouseholdID, string(set.Frequency), set.StartDay, set.ReferenceDate,
		set.RolloverEnabled, set.UpdatedAt,
	)
	return translate(err)
}
