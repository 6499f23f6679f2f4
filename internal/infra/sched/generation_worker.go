package sched

import (
	"context"
	"time"

	"invoiceflow/internal/usecase"

	"github.com/rs/zerolog"
)

// GenerationWorker periodically runs a generation pass over all
// subscriptions via the use case.
type GenerationWorker struct {
	interval time.Duration
	genUC    usecase.GenerationUseCase
	subUC    usecase.SubscriptionUseCase
	log      *zerolog.Logger
}

func NewGenerationWorker(interval time.Duration, genUC usecase.GenerationUseCase, subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *GenerationWorker {
	genLog := logger.With().Str("component", "GenerationWorker").Logger()
	return &GenerationWorker{
		interval: interval,
		genUC:    genUC,
		subUC:    subUC,
		log:      &genLog,
	}
}

func (w *GenerationWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting generation worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once at startup so overdue subscriptions do not wait a full tick.
	w.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping generation worker")
			return ctx.Err()
		case <-ticker.C:
			w.pass(ctx)
		}
	}
}

func (w *GenerationWorker) pass(ctx context.Context) {
	res, err := w.genUC.RunPass(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error().Err(err).Msg("generation pass error")
		return
	}
	if res.InvoicesCreated > 0 || len(res.Failures) > 0 {
		w.log.Info().
			Int("created", res.InvoicesCreated).
			Int("failed", len(res.Failures)).
			Msg("generation pass finished")
	}
	if err := w.subUC.RefreshStatusGauge(ctx); err != nil {
		w.log.Warn().Err(err).Msg("status gauge refresh failed")
	}
}
