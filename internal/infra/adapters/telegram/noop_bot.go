package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/adapter"
)

var _ adapter.InvoiceNotifier = (*NoopNotifier)(nil)

// NoopNotifier implements adapter.InvoiceNotifier for local/dev runs. It
// logs generated invoices instead of sending real Telegram messages.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	noopLog := logger.With().Str("component", "NoopNotifier").Logger()
	return &NoopNotifier{log: &noopLog}
}

func (n *NoopNotifier) NotifyInvoiceGenerated(ctx context.Context, sub *model.Subscription, inv *model.Invoice) error {
	n.log.Info().
		Str("invoice_id", inv.ID).
		Str("client", sub.ClientName).
		Str("amount", model.FormatAmount(inv.Amount, inv.Currency)).
		Msg("invoice generated (noop notifier)")
	return nil
}
