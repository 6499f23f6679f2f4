package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/repository"
)

// Ensure invoiceRepo implements repository.InvoiceRepository
var _ repository.InvoiceRepository = (*invoiceRepo)(nil)

type invoiceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) *invoiceRepo {
	return &invoiceRepo{pool: pool}
}

const invoiceColumns = `
  id, user_id, client_name, client_email, job_description, amount, currency,
  wallet_address, due_date, notes, status, created_at, paid_at,
  fiat_equivalent, subscription_id, is_recurring`

func (r *invoiceRepo) Insert(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	const q = `
INSERT INTO invoices (
  id, user_id, client_name, client_email, job_description, amount, currency,
  wallet_address, due_date, notes, status, created_at, paid_at,
  fiat_equivalent, subscription_id, is_recurring
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16);`

	_, err := execSQL(ctx, r.pool, tx, q,
		inv.ID, inv.UserID, inv.ClientName, inv.ClientEmail, inv.JobDescription,
		inv.Amount.String(), string(inv.Currency), inv.WalletAddress, inv.DueDate,
		inv.Notes, string(inv.Status), inv.CreatedAt, inv.PaidAt,
		inv.FiatEquivalent.String(), inv.SubscriptionID, inv.IsRecurring,
	)
	return mapWriteError(err)
}

func (r *invoiceRepo) Update(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	const q = `
UPDATE invoices SET
  status=$2, paid_at=$3, notes=$4
 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, inv.ID, string(inv.Status), inv.PaidAt, inv.Notes)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Invoice, error) {
	const q = `SELECT` + invoiceColumns + `
  FROM invoices
 WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanInvoice(row)
}

func (r *invoiceRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Invoice, error) {
	const q = `SELECT` + invoiceColumns + `
  FROM invoices
 WHERE user_id=$1
 ORDER BY created_at DESC;`
	return r.list(ctx, tx, q, userID)
}

func (r *invoiceRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.Invoice, error) {
	const q = `SELECT` + invoiceColumns + `
  FROM invoices
 WHERE subscription_id=$1
 ORDER BY created_at DESC;`
	return r.list(ctx, tx, q, subscriptionID)
}

func (r *invoiceRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Invoice, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapReadError(err)
	}
	defer rows.Close()
	var out []*model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	var (
		inv             model.Invoice
		amount, fiat    string
		currency, state string
	)
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.ClientName, &inv.ClientEmail,
		&inv.JobDescription, &amount, &currency, &inv.WalletAddress, &inv.DueDate,
		&inv.Notes, &state, &inv.CreatedAt, &inv.PaidAt, &fiat,
		&inv.SubscriptionID, &inv.IsRecurring,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if inv.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if inv.FiatEquivalent, err = decimal.NewFromString(fiat); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	inv.Currency = model.Currency(currency)
	inv.Status = model.InvoiceStatus(state)
	return &inv, nil
}
