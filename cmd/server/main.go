package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vansh1925/NexPrep-v2/internal/config"
	"github.com/vansh1925/NexPrep-v2/internal/feedback"
	"github.com/vansh1925/NexPrep-v2/internal/handlers"
	"github.com/vansh1925/NexPrep-v2/internal/interview"
	"github.com/vansh1925/NexPrep-v2/internal/jobs"
	"github.com/vansh1925/NexPrep-v2/internal/llm"
	_ "github.com/vansh1925/NexPrep-v2/internal/llm/gemini"
	_ "github.com/vansh1925/NexPrep-v2/internal/llm/openai"
	"github.com/vansh1925/NexPrep-v2/internal/metrics"
	authmw "github.com/vansh1925/NexPrep-v2/internal/middleware"
	"github.com/vansh1925/NexPrep-v2/internal/models"
	"github.com/vansh1925/NexPrep-v2/internal/prompts"
	"github.com/vansh1925/NexPrep-v2/internal/repositories"
	"github.com/vansh1925/NexPrep-v2/internal/routers"
	"github.com/vansh1925/NexPrep-v2/internal/session"
	"github.com/vansh1925/NexPrep-v2/internal/utils"
	"github.com/vansh1925/NexPrep-v2/internal/voice"
)

// initDatabase opens PostgreSQL and migrates the schema
func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.InterviewDetails{}, &models.PostInterview{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// newVoiceProvider returns the provider and the webhook secret it signs server messages with.
func newVoiceProvider(cfg *config.Config) (voice.Provider, string, error) {
	if cfg.VoiceProvider != "vapi" {
		return voice.NewLocalProvider(), "", nil
	}
	vapiConfig, err := voice.NewVapiConfig()
	if err != nil {
		return nil, "", err
	}
	client := voice.NewVapiClient(vapiConfig)
	return client, client.WebhookSecret(), nil
}

// newTranscriptStore uses Redis when configured so partial transcripts survive a restart.
// The returned func releases the store.
func newTranscriptStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.TranscriptStore, func(), error) {
	if cfg.RedisAddr == "" {
		store := session.NewMemoryStore(cfg.TranscriptTTL)
		return store, store.Close, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("Transcript store using Redis", zap.String("addr", cfg.RedisAddr))
	return session.NewRedisStore(rdb, cfg.TranscriptTTL), func() { _ = rdb.Close() }, nil
}

func newRouter(cfg *config.Config, api routers.APIHandlers, healthHandler *handlers.HealthHandler) *chi.Mux {
	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	router.Use(metrics.Middleware("nexprep"))

	routers.HealthRoutes(router, healthHandler)
	routers.APIRoutes(router, api, authmw.RequireAuth(cfg.JWTSecret))
	return router
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.String("voice_provider", cfg.VoiceProvider),
		zap.String("environment", cfg.Environment))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to access database handle", zap.Error(err))
	}

	// prompt manager
	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}

	// AI provider based on configuration
	aiProvider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}

	voiceProvider, webhookSecret, err := newVoiceProvider(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize voice provider", zap.Error(err))
	}
	if cfg.BillingWebhookSecret == "" {
		logger.Warn("BILLING_WEBHOOK_SECRET not set, credit purchases are rejected")
	}

	transcripts, closeTranscripts, err := newTranscriptStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize transcript store", zap.Error(err))
	}
	defer closeTranscripts()

	userRepo := &repositories.UserRepository{DB: db}
	interviewRepo := &repositories.InterviewRepository{DB: db}
	feedbackRepo := &repositories.FeedbackRepository{DB: db}

	interviewService := interview.NewService(
		interview.NewCreditGate(userRepo),
		interview.NewQuestionGenerator(aiProvider, promptManager, logger),
		interviewRepo,
		logger,
	)
	feedbackGenerator := feedback.NewGenerator(aiProvider, promptManager, feedbackRepo, logger)
	sessionManager := session.NewManager(interviewRepo, voiceProvider, transcripts, feedbackGenerator, promptManager, logger)

	reaper := jobs.NewSessionReaperJob(sessionManager, &jobs.ReaperConfig{
		Schedule:    cfg.ReapSchedule,
		GracePeriod: cfg.SessionGracePeriod,
	}, logger)
	if err := reaper.Start(); err != nil {
		logger.Fatal("Failed to start session reaper", zap.Error(err))
	}

	api := routers.APIHandlers{
		Users:      handlers.NewUserHandler(userRepo, cfg.DefaultCredits, cfg.BillingWebhookSecret, logger),
		Interviews: handlers.NewInterviewHandler(interviewService, interviewRepo, logger),
		Feedback:   handlers.NewFeedbackHandler(feedbackGenerator, feedbackRepo, interviewRepo, logger),
		Sessions:   handlers.NewSessionHandler(sessionManager, interviewRepo, feedbackRepo, webhookSecret, cfg.AllowedOrigins, logger),
	}
	healthHandler := handlers.NewHealthHandler(aiProvider, promptManager, cfg, sqlDB)

	router := newRouter(cfg, api, healthHandler)
	serverAddr := ":" + cfg.Port

	// question and feedback generation can take a while; websocket connections clear these deadlines on upgrade
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// starting server in a goroutine
	go func() {
		logger.Info("NexPrep service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("NexPrep service shutting down...")

	reaper.Stop()

	// graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// sessions still in a call get their feedback before exit
	if ended := sessionManager.EndAll(ctx, "shutdown"); ended > 0 {
		logger.Info("Ended active voice sessions", zap.Int("count", ended))
	}

	logger.Info("NexPrep service exited")
}
