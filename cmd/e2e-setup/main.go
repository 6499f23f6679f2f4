package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"invoiceflow/internal/config"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/infra/db/postgres"
	"invoiceflow/internal/infra/redis"
)

// This script sets up a clean, predictable database state for manual
// end-to-end testing.
func main() {
	ctx := context.Background()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	// --- Connect to Postgres ---
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	// --- Connect to Redis ---
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	// 1. Clean the Redis state (locks, cached rates).
	log.Println("[1/3] Wiping Redis...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	// 2. Clean the database completely.
	log.Println("[2/3] Wiping all existing database data...")
	_, err = pool.Exec(ctx, `
		TRUNCATE users, subscriptions, invoices
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	// 3. Seed a demo account with one overdue subscription so the first
	// generation pass has something to do.
	log.Println("[3/3] Seeding demo user and subscription...")
	seedDemoData(ctx, pool)

	log.Println("--- E2E Environment Setup Complete ---")
}

func seedDemoData(ctx context.Context, pool *pgxpool.Pool) {
	userRepo := postgres.NewUserRepo(pool)
	subRepo := postgres.NewSubscriptionRepo(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	user, err := model.NewUser(uuid.NewString(), "demo@example.com", "Demo Freelancer", string(hash))
	if err != nil {
		log.Fatalf("demo user: %v", err)
	}
	if err := userRepo.Save(ctx, nil, user); err != nil {
		log.Printf("failed to save demo user: %v", err)
		return
	}

	// Start the subscription two months back so it is already due.
	start := model.DateOf(time.Now().UTC().AddDate(0, -2, 0))
	sub, err := model.NewSubscription(
		uuid.NewString(), user.ID,
		"Acme Corp", "billing@acme.example",
		decimal.RequireFromString("0.05"), model.CurrencyBTC,
		"Monthly infrastructure retainer",
		"bc1qexampledemowallet",
		"Seeded by e2e-setup",
		model.FrequencyMonthly,
		start, nil,
		decimal.RequireFromString("2150.00"),
	)
	if err != nil {
		log.Fatalf("demo subscription: %v", err)
	}
	if err := subRepo.Save(ctx, nil, sub); err != nil {
		log.Printf("failed to save demo subscription: %v", err)
	}
}
