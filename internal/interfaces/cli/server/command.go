package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	currencyApp "github.com/orris-inc/referrals/internal/application/currency"
	"github.com/orris-inc/referrals/internal/application/referral/usecases"
	"github.com/orris-inc/referrals/internal/domain/currency"
	"github.com/orris-inc/referrals/internal/domain/referral"
	"github.com/orris-inc/referrals/internal/infrastructure/config"
	"github.com/orris-inc/referrals/internal/infrastructure/database"
	"github.com/orris-inc/referrals/internal/infrastructure/errorcapture"
	"github.com/orris-inc/referrals/internal/infrastructure/exchangerate"
	"github.com/orris-inc/referrals/internal/infrastructure/metrics"
	"github.com/orris-inc/referrals/internal/infrastructure/migration"
	"github.com/orris-inc/referrals/internal/infrastructure/pubsub"
	"github.com/orris-inc/referrals/internal/infrastructure/repository"
	"github.com/orris-inc/referrals/internal/infrastructure/scheduler"
	httpRouter "github.com/orris-inc/referrals/internal/interfaces/http"
	"github.com/orris-inc/referrals/internal/interfaces/http/handlers"
	"github.com/orris-inc/referrals/internal/interfaces/http/middleware"
	"github.com/orris-inc/referrals/internal/shared/biztime"
	shareddb "github.com/orris-inc/referrals/internal/shared/db"
	"github.com/orris-inc/referrals/internal/shared/goroutine"
	"github.com/orris-inc/referrals/internal/shared/logger"
)

var (
	env         string
	configPath  string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the referrals HTTP server together with the rate warm-up scheduler.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Apply pending migrations on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := handleMigrations(cmd.Context(), log); err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	appMetrics := metrics.NewMetrics(cfg.Metrics.Namespace)
	reporter := errorcapture.NewLogCapture(log.Named("errorcapture"), appMetrics)

	scales, err := currency.NewScaleRegistry(cfg.Currency.Scales)
	if err != nil {
		return fmt.Errorf("failed to load currency scales: %w", err)
	}

	provider := exchangerate.NewRatiosProvider(exchangerate.RatiosConfig{
		URL:            cfg.Rates.URL,
		AccessToken:    cfg.Rates.AccessToken,
		RequestTimeout: cfg.Rates.RequestTimeout,
		KnownKeys:      cfg.Rates.KnownKeys,
	}, log.Named("ratios"))
	rateCache := exchangerate.NewRateCache(provider, exchangerate.CacheConfig{
		FreshFor:        cfg.Rates.FreshFor,
		FailureCooldown: cfg.Rates.FailureCooldown,
		FetchTimeout:    cfg.Rates.RequestTimeout,
	}, log.Named("ratecache"), exchangerate.WithObserver(appMetrics))

	resolver, err := newGroupResolver(cfg, reporter)
	if err != nil {
		return err
	}

	db := database.Get()
	referralRepo := repository.NewReferralRepository(db, log)
	groupRepo := repository.NewReferralGroupRepository(db, log)
	eventQueue := pubsub.NewRedisReferralEventQueue(redisClient, log)

	createReferralsUC := usecases.NewCreateReferralsUseCase(
		rateCache,
		groupRepo,
		referralRepo,
		shareddb.NewTransactionManager(db),
		resolver,
		referral.NewCalculator(scales),
		eventQueue,
		appMetrics,
		reporter,
		usecases.CreateReferralsConfig{
			RateBase:    cfg.Rates.Base,
			AltCurrency: cfg.Referrals.AltCurrency,
		},
		log.Named("createreferrals"),
	)
	findReferralsUC := usecases.NewFindReferralsUseCase(referralRepo, log)
	listGroupsUC := usecases.NewListGroupsUseCase(groupRepo, log)
	getStatementUC := usecases.NewGetStatementUseCase(referralRepo, scales, cfg.Referrals.AltCurrency, log)

	converter := currencyApp.NewConverter(rateCache, scales, cfg.Rates.Base)

	router, err := httpRouter.NewRouter(
		handlers.NewReferralHandler(createReferralsUC, findReferralsUC, listGroupsUC, getStatementUC, log),
		handlers.NewRateHandler(converter, log),
		middleware.NewAuthMiddleware(cfg.Auth.Tokens, log),
		middleware.NewRateLimiter(redisClient, cfg.Server.RateLimit, time.Minute, log),
		appMetrics.Handler(),
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}
	router.SetupRoutes()

	schedulerManager, err := scheduler.NewSchedulerManager(log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if cfg.Rates.WarmInterval > 0 {
		warmJob := scheduler.NewRateWarmJob(rateCache, []string{cfg.Rates.Base}, log.Named("ratewarm"))
		if err := schedulerManager.RegisterRateWarmJob(warmJob, cfg.Rates.WarmInterval); err != nil {
			return fmt.Errorf("failed to register rate warm job: %w", err)
		}
	}
	schedulerManager.Start()
	defer func() {
		if err := schedulerManager.Stop(); err != nil {
			log.Errorw("failed to stop scheduler", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	goroutine.SafeGo(log, "http-server", func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infow("shutting down server", "signal", sig)
	case err := <-serveErr:
		log.Errorw("server failed", "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func newGroupResolver(cfg *config.Config, reporter referral.ErrorReporter) (*referral.GroupResolver, error) {
	cutoff, err := cfg.Referrals.Cutoff()
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(cfg.Referrals.DefaultAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid referrals.default_amount %q: %w", cfg.Referrals.DefaultAmount, err)
	}
	return referral.NewGroupResolver(referral.ResolverConfig{
		DefaultAmount:   amount,
		DefaultCurrency: cfg.Referrals.DefaultCurrency,
		Cutoff:          cutoff,
	}, reporter), nil
}

func handleMigrations(ctx context.Context, log logger.Interface) error {
	strategy := migration.NewGooseStrategy(migration.DialectMySQL, "", log)

	if autoMigrate {
		if env == "production" {
			log.Warnw("auto-migration is enabled in production environment")
		}
		if err := strategy.Migrate(ctx, database.Get()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		return nil
	}

	version, err := strategy.GetVersion(ctx, database.Get())
	if err != nil {
		log.Warnw("failed to check migration status", "error", err)
		return nil
	}
	log.Infow("current migration version", "version", version)
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return gin.ReleaseMode
	case "test", "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
