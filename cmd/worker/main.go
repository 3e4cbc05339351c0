package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/referrals/internal/application/referral/usecases"
	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/infrastructure/config"
	"github.com/orris-inc/referrals/internal/infrastructure/database"
	"github.com/orris-inc/referrals/internal/infrastructure/pubsub"
	"github.com/orris-inc/referrals/internal/infrastructure/repository"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env, os.Getenv("REFERRALS_CONFIG"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting referral report worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	scales, err := currency.NewScaleRegistry(cfg.Currency.Scales)
	if err != nil {
		log.Fatalw("failed to load currency scales", "error", err)
	}

	referralRepo := repository.NewReferralRepository(database.Get(), log)
	summarizeUC := usecases.NewSummarizeTransactionUseCase(referralRepo, scales, cfg.Referrals.AltCurrency, log)
	queue := pubsub.NewRedisReferralEventQueue(redisClient, log)

	err = queue.Consume(ctx, 5*time.Second, time.Second, func(ctx context.Context, event *pubsub.ReferralReportEvent) error {
		report, err := summarizeUC.Execute(ctx, event.TransactionID)
		if errors.Is(err, referral.ErrReferralNotFound) {
			log.Warnw("referral report for unknown transaction", "transaction_id", event.TransactionID)
			return nil
		}
		if err != nil {
			return err
		}
		log.Infow("referral report",
			"transaction_id", report.TransactionID,
			"referrals", report.Referrals,
			"publishers", len(report.ByPublisher),
			"total", report.Total,
			"altcurrency", report.AltCurrency,
		)
		return nil
	})
	if err != nil {
		log.Errorw("referral report worker stopped with error", "error", err)
		return
	}

	log.Infow("referral report worker stopped")
}
