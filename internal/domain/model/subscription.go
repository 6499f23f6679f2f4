package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "Active"
	SubscriptionStatusPaused    SubscriptionStatus = "Paused"
	SubscriptionStatusCancelled SubscriptionStatus = "Cancelled"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Subscription is a recurring payment plan that materializes one-off
// invoices on its schedule.
//
// NextInvoiceDate is always the successor of LastInvoiceDate (or of
// StartDate if nothing was generated yet) under Frequency; Advance is the
// only producer of that pair. Version is the optimistic-concurrency token
// bumped on every schedule write.
type Subscription struct {
	ID             string // UUID
	UserID         string // UUID of owning account
	ClientName     string
	ClientEmail    string
	Amount         decimal.Decimal
	Currency       Currency
	JobDescription string
	WalletAddress  string
	Notes          string

	Frequency              Frequency
	StartDate              time.Time
	EndDate                *time.Time // nil when open-ended
	NextInvoiceDate        time.Time
	LastInvoiceDate        *time.Time // nil until first generation
	TotalInvoicesGenerated int

	Status SubscriptionStatus

	// FiatEquivalent is a USD valuation snapshot taken at creation time.
	// It is copied verbatim onto every generated invoice and never
	// refreshed on later cycles.
	FiatEquivalent decimal.Decimal

	CreatedAt time.Time
	Version   int64
}

// NewSubscription creates an active subscription starting its schedule at
// startDate. fiatEquivalent is the creation-time valuation snapshot.
func NewSubscription(id, userID, clientName, clientEmail string, amount decimal.Decimal, currency Currency, jobDescription, walletAddress, notes string, freq Frequency, startDate time.Time, endDate *time.Time, fiatEquivalent decimal.Decimal) (*Subscription, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	clientEmail = strings.TrimSpace(clientEmail)
	if strings.TrimSpace(clientName) == "" || !emailPattern.MatchString(clientEmail) {
		return nil, domain.ErrInvalidArgument
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(jobDescription) == "" || strings.TrimSpace(walletAddress) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if startDate.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	start := DateOf(startDate)
	return &Subscription{
		ID:              id,
		UserID:          userID,
		ClientName:      strings.TrimSpace(clientName),
		ClientEmail:     clientEmail,
		Amount:          amount,
		Currency:        currency,
		JobDescription:  strings.TrimSpace(jobDescription),
		WalletAddress:   strings.TrimSpace(walletAddress),
		Notes:           notes,
		Frequency:       freq,
		StartDate:       start,
		EndDate:         endDate,
		NextInvoiceDate: start,
		Status:          SubscriptionStatusActive,
		FiatEquivalent:  fiatEquivalent,
		CreatedAt:       time.Now(),
	}, nil
}

// IsDue reports whether a generation run should produce an invoice today.
// Paused and cancelled subscriptions are never due.
func (s *Subscription) IsDue(today time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	return !s.NextInvoiceDate.After(DateOf(today))
}

// Advance stamps a generation run: LastInvoiceDate becomes genDate and
// NextInvoiceDate moves exactly one interval forward from it. A subscription
// that missed several cycles therefore catches up one invoice per pass, not
// all at once. Returns an updated copy; the receiver is untouched.
func (s *Subscription) Advance(genDate time.Time) *Subscription {
	cp := *s
	d := DateOf(genDate)
	cp.LastInvoiceDate = &d
	cp.NextInvoiceDate = s.Frequency.Next(d)
	cp.TotalInvoicesGenerated++
	return &cp
}
