package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stockledger/internal/config"
	"stockledger/internal/database"
	"stockledger/internal/domain"
	"stockledger/internal/logger"
	"stockledger/internal/outbox"
	"stockledger/internal/repository"
	"stockledger/internal/server"
	"stockledger/internal/service"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	// Outbox worker delivers sale.completed events written during the sale
	// transaction. Delivery is at-least-once; failed events stay pending.
	outboxRepo := repository.NewOutboxRepository(db)
	worker := outbox.NewWorker(outboxRepo, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize, log)
	worker.Subscribe(service.EventSaleCompleted, func(ctx context.Context, event *repository.OutboxEvent) error {
		var sale domain.Sale
		if err := outbox.DecodePayload(event, &sale); err != nil {
			return err
		}
		log.Info("Sale completed",
			zap.String("sale_id", sale.ID.String()),
			zap.Float64("total_amount", sale.TotalAmount),
			zap.Float64("total_profit", sale.TotalProfit),
			zap.Int("items", len(sale.Items)),
		)
		return nil
	})
	go worker.Run(ctx)

	srv := server.New(cfg, db, redisClient, log)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}

	log.Info("Server stopped")
}
