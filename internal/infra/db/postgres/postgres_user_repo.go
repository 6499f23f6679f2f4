package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/repository"
)

// Ensure userRepo implements repository.UserRepository
var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, email, name, password_hash, wallet_address, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  email=$2, name=$3, password_hash=$4, wallet_address=$5;`

	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, u.Name, u.PasswordHash, u.WalletAddress, u.CreatedAt)
	return mapWriteError(err)
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `
SELECT id, email, name, password_hash, wallet_address, created_at
  FROM users
 WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	const q = `
SELECT id, email, name, password_hash, wallet_address, created_at
  FROM users
 WHERE email=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.WalletAddress, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &u, nil
}
