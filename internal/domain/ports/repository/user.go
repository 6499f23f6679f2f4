package repository

import (
	"context"

	"invoiceflow/internal/domain/model"
)

// UserRepository is the port for accounts.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
}
