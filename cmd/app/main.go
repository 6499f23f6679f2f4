package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"invoiceflow/internal/config"
	"invoiceflow/internal/domain/ports/adapter"
	ratesAdapters "invoiceflow/internal/infra/adapters/rates"
	tele "invoiceflow/internal/infra/adapters/telegram"
	pg "invoiceflow/internal/infra/db/postgres"
	"invoiceflow/internal/infra/logging"
	"invoiceflow/internal/infra/metrics"
	red "invoiceflow/internal/infra/redis"
	"invoiceflow/internal/infra/sched"
	"invoiceflow/internal/infra/web"
	"invoiceflow/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop notifier)")
	flag.Parse()

	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	invRepo := pg.NewInvoiceRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Rates ----
	var rateSource adapter.RateSource
	switch strings.ToLower(cfg.Rates.Provider) {
	case "static":
		rateSource = ratesAdapters.NewStaticSource()
	default:
		rateSource = ratesAdapters.NewCoinGeckoSource(cfg.Rates.BaseURL)
	}
	rateSource = red.NewRatesCache(redisClient, rateSource, cfg.Rates.CacheTTL)

	// ---- Notifier ----
	var notifier adapter.InvoiceNotifier
	if cfg.Notifier.TelegramToken != "" && !cfg.Runtime.Dev {
		notifier, err = tele.NewRealBotNotifier(&cfg.Notifier)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier failed")
		}
	} else {
		notifier = tele.NewNoopNotifier(logger)
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, rateSource, logger)
	invUC := usecase.NewInvoiceUseCase(invRepo, rateSource, logger)
	genUC := usecase.NewGenerationUseCase(subRepo, invRepo, txManager, locker, cfg.Generation.LockTTL, notifier, logger)

	// ---- Generation worker ----
	worker := sched.NewGenerationWorker(cfg.Generation.Interval, genUC, subUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- DB pool stats ----
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	srv := web.NewServer(userUC, subUC, invUC, genUC, auth, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(cfg.Server.MetricsPath),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
