package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/adapter"
	"invoiceflow/internal/domain/ports/repository"
	"invoiceflow/internal/infra/logging"
	"invoiceflow/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionInput carries the client-supplied fields for a new
// subscription. Validation happens in the model constructor.
type SubscriptionInput struct {
	ClientName     string
	ClientEmail    string
	Amount         decimal.Decimal
	Currency       model.Currency
	JobDescription string
	WalletAddress  string
	Notes          string
	Frequency      model.Frequency
	StartDate      time.Time
	EndDate        *time.Time
}

// SubscriptionUseCase manages recurring subscriptions.
type SubscriptionUseCase interface {
	Create(ctx context.Context, userID string, in SubscriptionInput) (*model.Subscription, error)
	Get(ctx context.Context, userID, id string) (*model.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error)
	Pause(ctx context.Context, userID, id string) (*model.Subscription, error)
	Resume(ctx context.Context, userID, id string) (*model.Subscription, error)
	Delete(ctx context.Context, userID, id string) error
	RefreshStatusGauge(ctx context.Context) error
}

type subscriptionUC struct {
	subs  repository.SubscriptionRepository
	rates adapter.RateSource
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, rates adapter.RateSource, logger *zerolog.Logger) *subscriptionUC {
	subLog := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, rates: rates, log: &subLog}
}

// Create validates the input, snapshots the fiat valuation once and persists
// the subscription with its schedule anchored at the start date.
func (uc *subscriptionUC) Create(ctx context.Context, userID string, in SubscriptionInput) (*model.Subscription, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUC.Create")()

	rate, err := uc.rates.USDRate(ctx, in.Currency)
	if err != nil {
		return nil, err
	}
	fiat := in.Amount.Mul(rate)

	sub, err := model.NewSubscription(
		uuid.NewString(), userID,
		in.ClientName, in.ClientEmail,
		in.Amount, in.Currency,
		in.JobDescription, in.WalletAddress, in.Notes,
		in.Frequency, in.StartDate, in.EndDate,
		fiat,
	)
	if err != nil {
		return nil, err
	}
	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	uc.log.Info().Str("subscription_id", sub.ID).Str("frequency", string(sub.Frequency)).Msg("subscription created")
	return sub, nil
}

func (uc *subscriptionUC) Get(ctx context.Context, userID, id string) (*model.Subscription, error) {
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

func (uc *subscriptionUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return uc.subs.ListByUser(ctx, repository.NoTX, userID)
}

// Pause flips the status only; schedule fields stay untouched, so resuming
// picks the cycle up exactly where it left off.
func (uc *subscriptionUC) Pause(ctx context.Context, userID, id string) (*model.Subscription, error) {
	return uc.setStatus(ctx, userID, id, model.SubscriptionStatusPaused)
}

func (uc *subscriptionUC) Resume(ctx context.Context, userID, id string) (*model.Subscription, error) {
	return uc.setStatus(ctx, userID, id, model.SubscriptionStatusActive)
}

func (uc *subscriptionUC) setStatus(ctx context.Context, userID, id string, status model.SubscriptionStatus) (*model.Subscription, error) {
	sub, err := uc.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == model.SubscriptionStatusCancelled {
		return nil, domain.ErrNotActive
	}
	cp := *sub
	cp.Status = status
	if err := uc.subs.UpdateSchedule(ctx, repository.NoTX, &cp, sub.Version); err != nil {
		return nil, err
	}
	cp.Version = sub.Version + 1
	return &cp, nil
}

// Delete removes the subscription. Already-generated invoices keep their
// back-reference and are not touched.
func (uc *subscriptionUC) Delete(ctx context.Context, userID, id string) error {
	if _, err := uc.Get(ctx, userID, id); err != nil {
		return err
	}
	return uc.subs.Delete(ctx, repository.NoTX, id)
}

func (uc *subscriptionUC) RefreshStatusGauge(ctx context.Context) error {
	counts, err := uc.subs.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return err
	}
	metrics.SetSubscriptionsTotal(counts)
	return nil
}
