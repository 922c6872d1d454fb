package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"homeledger/internal/bills"
)

const paymentCols = `id, household_id, occurrence_id, template_id, transaction_id, account_id,
	amount_cents, principal_cents, interest_cents, balance_before_cents, balance_after_cents,
	paid_on, method, idempotency_key, notes, created_at`

func scanPayment(row scanner) (*bills.PaymentEvent, error) {
	var ev bills.PaymentEvent
	err := row.Scan(
		&ev.ID, &ev.HouseholdID, &ev.OccurrenceID, &ev.TemplateID, &ev.TransactionID, &ev.AccountID,
		&ev.AmountCents, &ev.PrincipalCents, &ev.InterestCents, &ev.BalanceBeforeCents, &ev.BalanceAfterCents,
		&ev.PaidOn, &ev.Method, &ev.IdempotencyKey, &ev.Notes, &ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (t *session) InsertPaymentEvent(ctx context.Context, ev *bills.PaymentEvent) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO payment_events (
			id, household_id, occurrence_id, template_id, transaction_id, account_id,
			amount_cents, principal_cents, interest_cents, balance_before_cents, balance_after_cents,
			paid_on, method, idempotency_key, notes, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)`,
		ev.ID, ev.HouseholdID, ev.OccurrenceID, ev.TemplateID, ev.TransactionID, ev.AccountID,
		ev.AmountCents, ev.PrincipalCents, ev.InterestCents, ev.BalanceBeforeCents, ev.BalanceAfterCents,
		ev.PaidOn, string(ev.Method), ev.IdempotencyKey, ev.Notes, ev.CreatedAt,
	)
	return translate(err)
}

func (t *session) GetPaymentEventByKey(ctx context.Context, household uuid.UUID, key string) (*bills.PaymentEvent, error) {
	row := t.q.QueryRow(ctx, `
		SELECT `+paymentCols+`
		FROM payment_events
		WHERE household_id = $1 AND idempotency_key = $2 AND idempotency_key <> ''`,
		household, key,
	)
	ev, err := scanPayment(row)
	if err != nil {
		return nil, notFound(fmt.Sprintf("payment with key %q", key), err)
	}
	return ev, nil
}

func (t *session) ListPaymentEvents(ctx context.Context, occurrenceID uuid.UUID) ([]*bills.PaymentEvent, error) {
	rows, err := t.q.Query(ctx, `
		SELECT `+paymentCols+`
		FROM payment_events
		WHERE occurrence_id = $1
		ORDER BY created_at DESC`,
		occurrenceID,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []*bills.PaymentEvent
	for rows.Next() {
		ev, err := scanPayment(rows)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, ev)
	}
	return out, translate(rows.Err())
}

func (t *session) DeletePaymentEventsByTemplate(ctx context.Context, templateID uuid.UUID) error {
	_, err := t.q.Exec(ctx, `DELETE FROM payment_events WHERE template_id = $1`, templateID)
	return translate(err)
}

const accountCols = `id, household_id, name, account_type, balance_cents, created_at, updated_at`

func scanAccount(row scanner) (*bills.Account, error) {
	var acc bills.Account
	err := row.Scan(
		&acc.ID, &acc.HouseholdID, &acc.Name, &acc.AccountType, &acc.BalanceCents,
		&acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (t *session) InsertAccount(ctx context.Context, acc *bills.Account) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO accounts (id, household_id, name, account_type, balance_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		acc.ID, acc.HouseholdID, acc.Name, string(acc.AccountType), acc.BalanceCents,
		acc.CreatedAt, acc.UpdatedAt,
	)
	return translate(err)
}

func (t *session) GetAccount(ctx context.Context, household, id uuid.UUID) (*bills.Account, error) {
	row := t.q.QueryRow(ctx, `
		SELECT `+accountCols+`
		FROM accounts
		WHERE id = $1 AND household_id = $2`,
		id, household,
	)
	acc, err := scanAccount(row)
	if err != nil {
		return nil, notFound(fmt.Sprintf("account %s", id), err)
	}
	return acc, nil
}

func (t *session) ListAccounts(ctx context.Context, household uuid.UUID) ([]*bills.Account, error) {
	rows, err := t.q.Query(ctx, `
		SELECT `+accountCols+`
		FROM accounts
		WHERE household_id = $1
		ORDER BY lower(name)`,
		household,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []*bills.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, acc)
	}
	return out, translate(rows.Err())
}

func (t *session) UpdateAccountBalance(ctx context.Context, household, id uuid.UUID, balanceCents int64, at time.Time) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE accounts SET balance_cents = $3, updated_at = $4
		WHERE id = $1 AND household_id = $2`,
		id, household, balanceCents, at,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", bills.ErrNotFound, id)
	}
	return nil
}

func (t *session) InsertAccountTransaction(ctx context.Context, txn *bills.AccountTransaction) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO account_transactions (
			id, household_id, account_id, amount_cents, occurred_on,
			description, method, occurrence_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txn.ID, txn.HouseholdID, txn.AccountID, txn.AmountCents, txn.OccurredOn,
		txn.Description, string(txn.Method), txn.OccurrenceID, txn.CreatedAt,
	)
	return translate(err)
}

func (t *session) ListAccountTransactions(ctx context.Context, household, accountID uuid.UUID, limit int) ([]*bills.AccountTransaction, error) {
	query := `
		SELECT id, household_id, account_id, amount_cents, occurred_on,
			description, method, occurrence_id, created_at
		FROM account_transactions
		WHERE household_id = $1`
	args := []any{household}
	if accountID != uuid.Nil {
		args = append(args, accountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	query += " ORDER BY occurred_on DESC, created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []*bills.AccountTransaction
	for rows.Next() {
		var txn bills.AccountTransaction
		err := rows.Scan(
			&txn.ID, &txn.HouseholdID, &txn.AccountID, &txn.AmountCents, &txn.OccurredOn,
			&txn.Description, &txn.Method, &txn.OccurrenceID, &txn.CreatedAt,
		)
		if err != nil {
			return nil, translate(err)
		}
		out = append(out, &txn)
	}
	return out, translate(rows.Err())
}
