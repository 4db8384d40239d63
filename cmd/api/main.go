package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/tripledigit-backend/api/routes"
	"github.com/ArowuTest/tripledigit-backend/internal/config"
	"github.com/ArowuTest/tripledigit-backend/internal/handlers"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/tripledigit-backend/internal/repositories/mongodb"
	redisrepo "github.com/ArowuTest/tripledigit-backend/internal/repositories/redis"
	"github.com/ArowuTest/tripledigit-backend/internal/services"
	"github.com/ArowuTest/tripledigit-backend/internal/utils"
	"github.com/ArowuTest/tripledigit-backend/internal/workers"
	"github.com/ArowuTest/tripledigit-backend/pkg/logger"
	"github.com/ArowuTest/tripledigit-backend/pkg/metrics"
	"github.com/ArowuTest/tripledigit-backend/pkg/mongodb"
	"github.com/ArowuTest/tripledigit-backend/pkg/smsgateway"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		bootLog := logger.New("info", true)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()

	var (
		store    *repositories.Store
		checkers []handlers.HealthChecker
		mongoCli *mongodb.Client
	)
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		store = memory.NewStore()
	default:
		mongoCli, err = mongodb.NewClient(startCtx, cfg.MongoDB.URI)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		db := mongoCli.Database(cfg.MongoDB.Database)
		if err := mongorepo.EnsureIndexes(startCtx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to create indexes")
		}
		store = mongorepo.NewStore(db)
		checkers = append(checkers, mongoCli)
	}

	redisClient, err := redisrepo.NewClient(startCtx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	checkers = append(checkers, redisrepo.NewHealthCheck(redisClient))

	var gateway smsgateway.Gateway
	if cfg.SMS.Mock {
		log.Warn().Msg("SMS gateway in mock mode; messages are only logged")
		gateway = smsgateway.NewMockGateway(log)
	} else {
		gateway = smsgateway.NewHTTPGateway(smsgateway.Config{
			BaseURL:    cfg.SMS.BaseURL,
			APIKey:     cfg.SMS.APIKey,
			PlatformID: cfg.SMS.PlatformID,
			Sender:     cfg.SMS.Sender,
			Timeout:    cfg.SMS.Timeout,
			BulkDelay:  cfg.SMS.BulkDelay,
		}, log)
	}

	m := metrics.New()
	queue := redisrepo.NewNotificationQueue(redisClient)
	notifier := services.NewNotificationService(queue, log)
	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.Issuer)

	authService := services.NewAuthService(store.Accounts, tokens, log)
	if cfg.Admin.Email != "" {
		bootstrapAdmin(startCtx, authService, cfg.Admin, log)
	}
	if cfg.Payments.WebhookSecret == "" {
		log.Warn().Msg("PAYMENTS_WEBHOOK_SECRET is empty; webhook signatures are not verified")
	}

	worker := workers.NewNotificationWorker(queue, gateway, store.NotificationLogs, m, cfg.Notifications.MaxAttempts, log)
	scheduler, err := workers.NewScheduler(cfg.Notifications.RetrySchedule, worker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid notification retry schedule")
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Notification worker stopped")
		}
	}()
	scheduler.Start()

	gin.SetMode(cfg.Server.Mode)
	router := routes.SetupRouter(routes.Deps{
		Auth:           authService,
		Game:           services.NewGameService(store, utils.CryptoDrawer{}, notifier, m, log),
		Withdrawals:    services.NewWithdrawalService(store, notifier, cfg.Server.PublicBaseURL, log),
		Payments:       services.NewPaymentService(store, notifier, cfg.Payments.WebhookSecret, log),
		Admin:          services.NewAdminService(store, gateway, notifier, m, log),
		Tokens:         tokens,
		RateLimitStore: redisrepo.NewRateLimitStore(redisClient),
		HealthCheckers: checkers,
		Metrics:        m,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("storage", cfg.Storage.Driver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	scheduler.Stop()
	stopWorker()
	select {
	case <-workerDone:
	case <-ctx.Done():
		log.Warn().Msg("Notification worker did not stop in time")
	}

	if mongoCli != nil {
		if err := mongoCli.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis client")
	}

	log.Info().Msg("Server exiting")
}

func bootstrapAdmin(ctx context.Context, auth *services.AuthService, cfg config.AdminConfig, log zerolog.Logger) {
	account, created, err := auth.EnsureAdmin(ctx, cfg.Email, cfg.Password, cfg.Phone)
	if err != nil {
		log.Error().Err(err).Str("email", cfg.Email).Msg("Failed to bootstrap admin account")
		return
	}
	if created {
		log.Info().Str("email", account.Email).Msg("Admin account created")
		return
	}
	log.Info().Str("email", account.Email).Msg("Admin account ensured")
}
