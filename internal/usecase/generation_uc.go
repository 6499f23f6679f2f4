package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/domain/ports/adapter"
	"invoiceflow/internal/domain/ports/repository"
	"invoiceflow/internal/infra/logging"
	"invoiceflow/internal/infra/metrics"
)

// Compile-time check
var _ GenerationUseCase = (*generationUC)(nil)

// GenerationUseCase drives recurring invoice generation: it evaluates each
// subscription's schedule, materializes invoices for the due ones and
// advances their schedules.
type GenerationUseCase interface {
	// RunPass sweeps every subscription once. A subscription that missed
	// several cycles still yields exactly one invoice per pass. One
	// subscription's failure never aborts the pass.
	RunPass(ctx context.Context, today time.Time) (*PassResult, error)

	// GenerateNow materializes an invoice for a single subscription on
	// explicit user request, bypassing the due check. The subscription
	// must still be Active.
	GenerateNow(ctx context.Context, userID, subscriptionID string) (*model.Invoice, error)
}

// PassFailure records one subscription's processing error.
type PassFailure struct {
	SubscriptionID string
	Err            error
}

// PassResult aggregates a single generation pass.
type PassResult struct {
	InvoicesCreated       int
	SubscriptionsAdvanced int
	Failures              []PassFailure
}

// GenerationLocker serializes generation per subscription across instances.
// A nil locker disables locking (single-instance deployments, tests).
type GenerationLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

type generationUC struct {
	subs     repository.SubscriptionRepository
	invoices repository.InvoiceRepository
	tm       repository.TransactionManager
	locker   GenerationLocker
	lockTTL  time.Duration
	notifier adapter.InvoiceNotifier
	log      *zerolog.Logger
}

func NewGenerationUseCase(subs repository.SubscriptionRepository, invoices repository.InvoiceRepository, tm repository.TransactionManager, locker GenerationLocker, lockTTL time.Duration, notifier adapter.InvoiceNotifier, logger *zerolog.Logger) *generationUC {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	genLog := logger.With().Str("component", "GenerationUC").Logger()
	return &generationUC{
		subs:     subs,
		invoices: invoices,
		tm:       tm,
		locker:   locker,
		lockTTL:  lockTTL,
		notifier: notifier,
		log:      &genLog,
	}
}

func (uc *generationUC) RunPass(ctx context.Context, today time.Time) (*PassResult, error) {
	defer logging.TraceDuration(uc.log, "GenerationUC.RunPass")()
	start := time.Now()

	subs, err := uc.subs.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}

	res := &PassResult{}
	for _, sub := range subs {
		if !sub.IsDue(today) {
			continue
		}
		if _, err := uc.generateOne(ctx, sub.ID, today, false); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				// deleted between the list read and the lock; skip
				continue
			case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrLockNotAcquired):
				// another session covered this cycle first
				uc.log.Debug().Str("subscription_id", sub.ID).Msg("cycle already covered elsewhere")
				continue
			default:
				uc.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("generation failed")
				res.Failures = append(res.Failures, PassFailure{SubscriptionID: sub.ID, Err: err})
				continue
			}
		}
		res.InvoicesCreated++
		res.SubscriptionsAdvanced++
	}

	metrics.IncInvoicesGenerated("pass", res.InvoicesCreated)
	metrics.IncGenerationFailures(len(res.Failures))
	metrics.ObserveGenerationPass(time.Since(start).Seconds())

	if res.InvoicesCreated > 0 || len(res.Failures) > 0 {
		uc.log.Info().
			Int("created", res.InvoicesCreated).
			Int("failed", len(res.Failures)).
			Msg("generation pass finished")
	}
	return res, nil
}

func (uc *generationUC) GenerateNow(ctx context.Context, userID, subscriptionID string) (*model.Invoice, error) {
	defer logging.TraceDuration(uc.log, "GenerationUC.GenerateNow")()

	sub, err := uc.subs.FindByID(ctx, repository.NoTX, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, domain.ErrNotFound
	}

	inv, err := uc.generateOne(ctx, subscriptionID, time.Now(), true)
	if err != nil {
		return nil, err
	}
	metrics.IncInvoicesGenerated("manual", 1)
	return inv, nil
}

// generateOne runs the materialize+advance pair for one subscription inside
// a transaction, guarded by a per-subscription lock. The invoice insert and
// the schedule update commit or roll back together, so a write failure can
// never leave an invoice without an advanced schedule or vice versa.
func (uc *generationUC) generateOne(ctx context.Context, subscriptionID string, now time.Time, skipDueCheck bool) (*model.Invoice, error) {
	if uc.locker != nil {
		key := "gen:sub:" + subscriptionID
		token, err := uc.locker.TryLock(ctx, key, uc.lockTTL)
		if err != nil {
			return nil, domain.ErrLockNotAcquired
		}
		defer func() { _ = uc.locker.Unlock(ctx, key, token) }()
	}

	var (
		inv     *model.Invoice
		updated *model.Subscription
	)
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := uc.subs.FindByID(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if skipDueCheck {
			if sub.Status != model.SubscriptionStatusActive {
				return domain.ErrNotActive
			}
		} else if !sub.IsDue(now) {
			// the schedule moved since the pass listed this subscription
			return domain.ErrVersionConflict
		}

		inv = model.MaterializeInvoice(model.NewInvoiceID(), sub, now)
		updated = sub.Advance(now)

		if err := uc.invoices.Insert(ctx, tx, inv); err != nil {
			return err
		}
		return uc.subs.UpdateSchedule(ctx, tx, updated, sub.Version)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("subscription_id", subscriptionID).
		Str("invoice_id", inv.ID).
		Str("next_invoice_date", updated.NextInvoiceDate.Format("2006-01-02")).
		Msg("invoice generated")

	if uc.notifier != nil {
		if nerr := uc.notifier.NotifyInvoiceGenerated(ctx, updated, inv); nerr != nil {
			uc.log.Warn().Err(nerr).Str("invoice_id", inv.ID).Msg("notification failed")
		}
	}
	return inv, nil
}
