package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quddle-backend/pkg/cache"
	"quddle-backend/pkg/config"
	"quddle-backend/pkg/database"
	"quddle-backend/pkg/identity"
	"quddle-backend/pkg/jwt"
	"quddle-backend/pkg/logger"
	"quddle-backend/pkg/payment"
	"quddle-backend/pkg/queue"
	"quddle-backend/pkg/ratelimit"
	"quddle-backend/pkg/s3"
	"quddle-backend/pkg/validation"
	apiHTTP "quddle-backend/services/api/internal/controller/http"
	"quddle-backend/services/api/internal/repo/persistent"
	"quddle-backend/services/api/internal/usecase"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// adEventLimitPrefix namespaces the ad event counters inside the limiter's
// rate_limit: keyspace.
const adEventLimitPrefix = "ad-events"

type App struct {
	cfg           *config.Config
	log           *logger.Logger
	db            *gorm.DB
	redisClient   *redis.Client
	s3Client      *s3.Client
	jwtService    *jwt.Service
	queueClient   *queue.Client
	processor     payment.Processor
	memoryLimiter *ratelimit.MemoryLimiter
	httpServer    *http.Server
	startedAt     time.Time
}

func NewApp(cfg *config.Config) (*App, error) {
	log, err := logger.NewWithOptions(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log = logger.New()
		log.Warn("Invalid log settings (%v), using defaults", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		// Rate limiting falls back to process memory and refresh tokens are not revocable.
		log.Warn("Failed to connect to redis: %v (continuing without redis)", err)
		redisClient = nil
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		return nil, err
	}
	if cfg.AWSEndpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Client.EnsureBuckets(ctx); err != nil {
			log.Warn("Failed to ensure buckets: %v", err)
		}
		cancel()
	}

	var queueClient *queue.Client
	if cfg.RabbitMQHost != "" {
		queueClient, err = queue.NewRabbitMQClient(cfg, log)
		if err != nil {
			log.Error("Failed to connect to RabbitMQ: %v (continuing without queue)", err)
			queueClient = nil
		}
	}

	var processor payment.Processor
	if sp := payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil, log); sp != nil {
		processor = sp
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, ad payments are disabled")
	}

	if cfg.AWSWebhookSecret == "" {
		log.Warn("AWS_WEBHOOK_SECRET not set, transcode callbacks will be rejected")
	}

	jwtService := jwt.NewService(cfg.JWTSecret).WithTTL(cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		jwtService:  jwtService,
		queueClient: queueClient,
		processor:   processor,
		startedAt:   time.Now(),
	}, nil
}

func (a *App) Run() error {
	if err := validation.Register(); err != nil {
		return err
	}

	// Initialize repositories
	userRepo := persistent.NewUserRepository(a.db)
	walletRepo := persistent.NewWalletRepository(a.db)
	adRepo := persistent.NewAdRepository(a.db)
	reelRepo := persistent.NewReelRepository(a.db)
	classifiedRepo := persistent.NewClassifiedRepository(a.db)

	provider := identity.NewLocalProvider(identity.NewGormStore(a.db), a.jwtService, a.redisClient, a.log)

	buckets := usecase.Buckets{
		Main:      a.s3Client.Main,
		Ads:       a.s3Client.Ads,
		Processed: a.s3Client.Processed,
	}

	var dispatcher usecase.TranscodeDispatcher
	if a.queueClient != nil {
		dispatcher = a.queueClient
	}

	// Initialize use cases
	authUseCase := usecase.NewAuthUseCase(provider, userRepo, a.log)
	walletUseCase := usecase.NewWalletUseCase(walletRepo, a.cfg.WalletStartingBalance, a.log)
	adUseCase := usecase.NewAdUseCase(adRepo, a.s3Client, buckets, a.processor, a.cfg.PaymentCurrency, a.log)
	reelUseCase := usecase.NewReelUseCase(reelRepo, a.s3Client, buckets, dispatcher, a.cfg.AWSWebhookSecret, a.log)
	classifiedUseCase := usecase.NewClassifiedUseCase(classifiedRepo, walletRepo, a.s3Client, buckets, usecase.ClassifiedConfig{
		PostingFee:      a.cfg.ClassifiedPostingFee,
		StartingBalance: a.cfg.WalletStartingBalance,
		SystemUserID:    a.cfg.SystemUserID,
	}, a.log)

	// Ad events share a fixed window per client IP across instances; process
	// memory takes over while redis is unavailable.
	a.memoryLimiter = ratelimit.NewMemoryLimiter(a.cfg.AdEventRateLimit, a.cfg.AdEventRateWindow)
	var adEventLimiter ratelimit.Limiter = a.memoryLimiter
	if a.redisClient != nil {
		redisLimiter := ratelimit.NewRedisLimiter(a.redisClient, adEventLimitPrefix, a.cfg.AdEventRateLimit, a.cfg.AdEventRateWindow)
		adEventLimiter = ratelimit.NewFallbackLimiter(redisLimiter, a.memoryLimiter, a.log)
	}

	r, err := newRouter(routerDeps{
		auth:           apiHTTP.NewAuthHandler(authUseCase, a.log),
		wallet:         apiHTTP.NewWalletHandler(walletUseCase, a.log),
		ads:            apiHTTP.NewAdHandler(adUseCase, a.log),
		reels:          apiHTTP.NewReelHandler(reelUseCase, a.log),
		classifieds:    apiHTTP.NewClassifiedHandler(classifiedUseCase, a.log),
		verifier:       provider,
		adEventLimiter: adEventLimiter,
		trustedProxies: a.cfg.TrustedProxies,
		log:            a.log,
		startedAt:      a.startedAt,
	})
	if err != nil {
		return err
	}

	// Create HTTP server
	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		a.log.Info("Quddle API starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down Quddle API...")
}

func (a *App) Shutdown() error {
	// The context is used to inform the server it has 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var shutdownErr error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.log.Error("Server forced to shutdown: %v", err)
			shutdownErr = err
		}
	}

	if a.memoryLimiter != nil {
		a.memoryLimiter.Close()
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	// Close Redis connection
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	// Close database connection
	sqlDB, err := a.db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	a.log.Info("Quddle API exited")
	a.log.Sync()
	return shutdownErr
}
