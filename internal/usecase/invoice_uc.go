package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/adapter"
	"invoiceflow/internal/domain/ports/repository"
	"invoiceflow/internal/infra/logging"
)

// Compile-time check
var _ InvoiceUseCase = (*invoiceUC)(nil)

// InvoiceInput carries the client-supplied fields for an ad hoc invoice.
type InvoiceInput struct {
	ClientName     string
	ClientEmail    string
	Amount         decimal.Decimal
	Currency       model.Currency
	JobDescription string
	WalletAddress  string
	DueDate        time.Time
	Notes          string
}

// InvoiceUseCase manages one-off invoices.
type InvoiceUseCase interface {
	Create(ctx context.Context, userID string, in InvoiceInput) (*model.Invoice, error)
	Get(ctx context.Context, userID, id string) (*model.Invoice, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Invoice, error)
	ListBySubscription(ctx context.Context, userID, subscriptionID string) ([]*model.Invoice, error)
	// MarkPaid flips an invoice to Paid on explicit user action. There is
	// no on-chain verification behind this.
	MarkPaid(ctx context.Context, userID, id string) (*model.Invoice, error)
}

type invoiceUC struct {
	invoices repository.InvoiceRepository
	rates    adapter.RateSource
	log      *zerolog.Logger
}

func NewInvoiceUseCase(invoices repository.InvoiceRepository, rates adapter.RateSource, logger *zerolog.Logger) *invoiceUC {
	invLog := logger.With().Str("component", "InvoiceUC").Logger()
	return &invoiceUC{invoices: invoices, rates: rates, log: &invLog}
}

func (uc *invoiceUC) Create(ctx context.Context, userID string, in InvoiceInput) (*model.Invoice, error) {
	defer logging.TraceDuration(uc.log, "InvoiceUC.Create")()

	rate, err := uc.rates.USDRate(ctx, in.Currency)
	if err != nil {
		return nil, err
	}
	fiat := in.Amount.Mul(rate)

	inv, err := model.NewInvoice(
		model.NewInvoiceID(), userID,
		in.ClientName, in.ClientEmail,
		in.Amount, in.Currency,
		in.JobDescription, in.WalletAddress,
		in.DueDate, in.Notes,
		fiat,
	)
	if err != nil {
		return nil, err
	}
	if err := uc.invoices.Insert(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Msg("invoice created")
	return inv, nil
}

func (uc *invoiceUC) Get(ctx context.Context, userID, id string) (*model.Invoice, error) {
	inv, err := uc.invoices.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (uc *invoiceUC) ListByUser(ctx context.Context, userID string) ([]*model.Invoice, error) {
	return uc.invoices.ListByUser(ctx, repository.NoTX, userID)
}

func (uc *invoiceUC) ListBySubscription(ctx context.Context, userID, subscriptionID string) ([]*model.Invoice, error) {
	invoices, err := uc.invoices.ListBySubscription(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return nil, err
	}
	out := invoices[:0]
	for _, inv := range invoices {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (uc *invoiceUC) MarkPaid(ctx context.Context, userID, id string) (*model.Invoice, error) {
	inv, err := uc.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.MarkPaid(time.Now()); err != nil {
		return nil, err
	}
	if err := uc.invoices.Update(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Msg("invoice marked paid")
	return inv, nil
}
