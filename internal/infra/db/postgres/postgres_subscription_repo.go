package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `
  id, user_id, client_name, client_email, amount, currency, job_description,
  wallet_address, notes, frequency, start_date, end_date, next_invoice_date,
  last_invoice_date, total_invoices_generated, status, fiat_equivalent,
  created_at, version`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, client_name, client_email, amount, currency, job_description,
  wallet_address, notes, frequency, start_date, end_date, next_invoice_date,
  last_invoice_date, total_invoices_generated, status, fiat_equivalent,
  created_at, version
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (id) DO UPDATE SET
  client_name=$3, client_email=$4, amount=$5, currency=$6, job_description=$7,
  wallet_address=$8, notes=$9, frequency=$10, start_date=$11, end_date=$12,
  next_invoice_date=$13, last_invoice_date=$14, total_invoices_generated=$15,
  status=$16, fiat_equivalent=$17, version=$19;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.ClientName, s.ClientEmail, s.Amount.String(), string(s.Currency),
		s.JobDescription, s.WalletAddress, s.Notes, string(s.Frequency), s.StartDate, s.EndDate,
		s.NextInvoiceDate, s.LastInvoiceDate, s.TotalInvoicesGenerated, string(s.Status),
		s.FiatEquivalent.String(), s.CreatedAt, s.Version,
	)
	return mapWriteError(err)
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	const q = `SELECT` + subscriptionColumns + `
  FROM subscriptions
 WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	const q = `SELECT` + subscriptionColumns + `
  FROM subscriptions
 ORDER BY created_at ASC;`
	return r.list(ctx, tx, q)
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	const q = `SELECT` + subscriptionColumns + `
  FROM subscriptions
 WHERE user_id=$1
 ORDER BY created_at ASC;`
	return r.list(ctx, tx, q, userID)
}

func (r *subscriptionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapReadError(err)
	}
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// UpdateSchedule is the optimistic-concurrency write: it only lands when the
// stored version still matches, so two sessions racing over the same cycle
// cannot both advance the schedule.
func (r *subscriptionRepo) UpdateSchedule(ctx context.Context, tx repository.Tx, s *model.Subscription, expectedVersion int64) error {
	const q = `
UPDATE subscriptions SET
  next_invoice_date=$2, last_invoice_date=$3, total_invoices_generated=$4,
  status=$5, version=version+1
 WHERE id=$1 AND version=$6;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.NextInvoiceDate, s.LastInvoiceDate, s.TotalInvoicesGenerated,
		string(s.Status), expectedVersion,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *subscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM subscriptions WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, mapReadError(err)
	}
	defer rows.Close()
	counts := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.SubscriptionStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	var (
		s                          model.Subscription
		amount, fiat               string
		currency, frequency, state string
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.ClientName, &s.ClientEmail, &amount, &currency,
		&s.JobDescription, &s.WalletAddress, &s.Notes, &frequency, &s.StartDate,
		&s.EndDate, &s.NextInvoiceDate, &s.LastInvoiceDate,
		&s.TotalInvoicesGenerated, &state, &fiat, &s.CreatedAt, &s.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if s.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if s.FiatEquivalent, err = decimal.NewFromString(fiat); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	s.Currency = model.Currency(currency)
	s.Frequency = model.Frequency(frequency)
	s.Status = model.SubscriptionStatus(state)
	return &s, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
		return err
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
}

func mapReadError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return domain.ErrNotFound
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
		return err
	default:
		return domain.ErrOperationFailed
	}
}
