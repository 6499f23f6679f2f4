package repository

import (
	"context"

	"invoiceflow/internal/domain/model"
)

// InvoiceRepository is the port for one-off invoices.
type InvoiceRepository interface {
	Insert(ctx context.Context, tx Tx, inv *model.Invoice) error
	Update(ctx context.Context, tx Tx, inv *model.Invoice) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Invoice, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Invoice, error)
	ListBySubscription(ctx context.Context, tx Tx, subscriptionID string) ([]*model.Invoice, error)
}
