package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "Pending Payment"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
)

// Invoice is a one-off billable instance. Subscription-generated invoices
// carry a snapshot of the subscription's terms at materialization time, not
// a live reference.
type Invoice struct {
	ID             string
	UserID         string
	ClientName     string
	ClientEmail    string
	JobDescription string
	Amount         decimal.Decimal
	Currency       Currency
	WalletAddress  string
	DueDate        time.Time
	Notes          string
	Status         InvoiceStatus
	CreatedAt      time.Time
	PaidAt         *time.Time
	FiatEquivalent decimal.Decimal

	// Provenance: set when a recurring subscription produced this invoice.
	SubscriptionID *string
	IsRecurring    bool
}

// NewInvoiceID returns a fresh invoice identifier ("inv_" + ULID).
func NewInvoiceID() string {
	return "inv_" + ulid.Make().String()
}

// NewInvoice creates an ad hoc (non-recurring) invoice.
func NewInvoice(id, userID, clientName, clientEmail string, amount decimal.Decimal, currency Currency, jobDescription, walletAddress string, dueDate time.Time, notes string, fiatEquivalent decimal.Decimal) (*Invoice, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(clientName) == "" || !emailPattern.MatchString(clientEmail) {
		return nil, domain.ErrInvalidArgument
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(jobDescription) == "" || strings.TrimSpace(walletAddress) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if dueDate.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return &Invoice{
		ID:             id,
		UserID:         userID,
		ClientName:     strings.TrimSpace(clientName),
		ClientEmail:    clientEmail,
		JobDescription: strings.TrimSpace(jobDescription),
		Amount:         amount,
		Currency:       currency,
		WalletAddress:  strings.TrimSpace(walletAddress),
		DueDate:        DateOf(dueDate),
		Notes:          notes,
		Status:         InvoiceStatusPending,
		CreatedAt:      time.Now(),
		FiatEquivalent: fiatEquivalent,
	}, nil
}

// MaterializeInvoice builds the invoice a due subscription produces. The
// caller is responsible for having checked IsDue; there is no re-validation
// and no persistence here.
//
// The due date is always one calendar month after materialization, whatever
// the subscription's own cadence. That is the original product behavior,
// kept deliberately (a weekly subscription's invoice is still due in a
// month).
func MaterializeInvoice(id string, sub *Subscription, now time.Time) *Invoice {
	subID := sub.ID
	return &Invoice{
		ID:             id,
		UserID:         sub.UserID,
		ClientName:     sub.ClientName,
		ClientEmail:    sub.ClientEmail,
		JobDescription: sub.JobDescription,
		Amount:         sub.Amount,
		Currency:       sub.Currency,
		WalletAddress:  sub.WalletAddress,
		DueDate:        addMonths(DateOf(now), 1),
		Notes:          sub.Notes,
		Status:         InvoiceStatusPending,
		CreatedAt:      now,
		FiatEquivalent: sub.FiatEquivalent,
		SubscriptionID: &subID,
		IsRecurring:    true,
	}
}

// MarkPaid flips the invoice to Paid. Payment is a user-asserted status
// change; nothing verifies an on-chain event.
func (i *Invoice) MarkPaid(at time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return domain.ErrInvoiceAlreadyPaid
	}
	i.Status = InvoiceStatusPaid
	i.PaidAt = &at
	return nil
}
