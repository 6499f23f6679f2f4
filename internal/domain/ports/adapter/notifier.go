package adapter

import (
	"context"

	"invoiceflow/internal/domain/model"
)

// InvoiceNotifier tells the account owner that a recurring subscription
// produced a new invoice. Delivery is best-effort; generation never fails
// because a notification could not be sent.
type InvoiceNotifier interface {
	NotifyInvoiceGenerated(ctx context.Context, sub *model.Subscription, inv *model.Invoice) error
}
