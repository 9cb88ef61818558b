package main

// @title RealtyCRM API
// @version 1.0
// @description Leads, listings, deals and tasks for real-estate agencies.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jordanlanch/realtycrm/config"
	"github.com/jordanlanch/realtycrm/pkg/activity"
	"github.com/jordanlanch/realtycrm/pkg/ai/llm"
	"github.com/jordanlanch/realtycrm/pkg/api"
	"github.com/jordanlanch/realtycrm/pkg/api/handlers"
	"github.com/jordanlanch/realtycrm/pkg/assistant"
	"github.com/jordanlanch/realtycrm/pkg/cache"
	"github.com/jordanlanch/realtycrm/pkg/dashboard"
	"github.com/jordanlanch/realtycrm/pkg/database"
	"github.com/jordanlanch/realtycrm/pkg/deals"
	"github.com/jordanlanch/realtycrm/pkg/jobs"
	"github.com/jordanlanch/realtycrm/pkg/leads"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/matching"
	"github.com/jordanlanch/realtycrm/pkg/metrics"
	custommiddleware "github.com/jordanlanch/realtycrm/pkg/middleware"
	"github.com/jordanlanch/realtycrm/pkg/notifications"
	"github.com/jordanlanch/realtycrm/pkg/pipeline"
	"github.com/jordanlanch/realtycrm/pkg/properties"
	"github.com/jordanlanch/realtycrm/pkg/storage"
	"github.com/jordanlanch/realtycrm/pkg/tasks"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := config.Load()
	appLog := logger.NewWithOptions(logger.Options{
		Level:   cfg.LogLevel,
		Format:  logger.Format(cfg.LogFormat),
		Service: "realtycrm-api",
	})
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	// Initialize Sentry for error tracking
	var extra []echo.MiddlewareFunc
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 0.2,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
			// Repanic so the Recover middleware still answers 500
			extra = append(extra, sentryecho.New(sentryecho.Options{Repanic: true}))
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	ctx := context.Background()

	var sslCfg *database.SSLConfig
	if cfg.DatabaseSSLMode != "" {
		sslCfg = &database.SSLConfig{Mode: cfg.DatabaseSSLMode}
	}
	db, err := database.NewClientWithPoolAndSSL(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, database.DefaultPoolConfig(), sslCfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("❌ Failed to migrate database: %v", err)
	}

	prometheusMetrics := metrics.New(prometheus.NewRegistry())

	// Redis is optional: without it list reads go straight to the database
	var (
		redisClient *cache.Client
		cachePinger handlers.Pinger
	)
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewClient(cfg.RedisURL, appLog)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, list caching disabled: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			cachePinger = redisClient
		}
	}
	listCache := cache.NewListCache(redisClient, cache.ListCacheConfig{
		TTLs: map[string]time.Duration{
			leads.Collection:           cfg.CacheTTLLeads,
			properties.Collection:      cfg.CacheTTLProperties,
			deals.Collection:           cfg.CacheTTLDeals,
			tasks.Collection:           cfg.CacheTTLTasks,
			notifications.ListTTLName:  cfg.CacheTTLNotifications,
			notifications.CountTTLName: cfg.CacheTTLNotificationCount,
		},
		Recorder: prometheusMetrics,
	}, appLog)

	// Services
	notificationService := notifications.NewService(db, listCache, appLog).WithRecorder(prometheusMetrics)
	leadService := leads.NewService(db, listCache, appLog).WithNotifier(notificationService)
	propertyService := properties.NewService(db, listCache, appLog)
	dealService := deals.NewService(db, listCache, appLog)
	taskService := tasks.NewService(db, listCache, appLog)
	activityService := activity.NewService(db, appLog)
	matchService := matching.NewService(db, leadService, propertyService, appLog).WithNotifier(notificationService)
	dashboardService := dashboard.NewService(db, taskService, notificationService, appLog)

	controller := pipeline.NewController(pipeline.Options{
		Stores: map[pipeline.Kind]pipeline.StatusStore{
			pipeline.KindLead:     leadService,
			pipeline.KindProperty: propertyService,
			pipeline.KindDeal:     dealService,
		},
		Policy:     pipeline.PolicyFor(cfg.PipelineStrictTransitions),
		Cache:      listCache,
		Activities: activityService,
		Notifier:   notificationService,
		Recorder:   prometheusMetrics,
		Logger:     appLog,
	})

	imageStore, err := storage.New(ctx, storage.Config{
		Type:           cfg.StorageType,
		LocalPath:      cfg.StorageLocalPath,
		PublicURL:      cfg.StoragePublicURL,
		AWSRegion:      cfg.AWSRegion,
		S3Bucket:       cfg.S3Bucket,
		AWSAccessKeyID: cfg.AWSAccessKeyID,
		AWSSecretKey:   cfg.AWSSecretKey,
	})
	if err != nil {
		log.Printf("⚠️  Image storage disabled: %v", err)
		imageStore = nil
	}
	uploadsDir := ""
	if local, ok := imageStore.(*storage.LocalStore); ok && strings.HasPrefix(cfg.StoragePublicURL, "/") {
		uploadsDir = local.Dir()
	}

	var chatModel llm.LLMClient
	if cfg.OpenAIAPIKey != "" {
		chatModel = llm.NewOpenAIClient(llm.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel}, appLog)
		log.Printf("✅ AI assistant enabled (model: %s)", cfg.OpenAIModel)
	} else {
		log.Printf("ℹ️  AI assistant disabled (no OPENAI_API_KEY)")
	}

	rateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	e := api.NewRouter(api.Services{
		JWTSecret:     cfg.JWTSecret,
		CORSOrigins:   cfg.CORSAllowedOrigins,
		UploadsDir:    uploadsDir,
		UploadsURL:    cfg.StoragePublicURL,
		DB:            db,
		Cache:         cachePinger,
		Leads:         leadService,
		Properties:    propertyService,
		Deals:         dealService,
		Tasks:         taskService,
		Activities:    activityService,
		Notifications: notificationService,
		Matches:       matchService,
		Dashboard:     dashboardService,
		Pipeline:      controller,
		Assistant:     assistant.New(chatModel, appLog),
		Storage:       imageStore,
		Metrics:       prometheusMetrics,
		RateLimiter:   rateLimiter,
		Extra:         extra,
	})

	// Background jobs
	var cronManager *jobs.CronManager
	if cfg.JobsEnabled {
		cronManager = jobs.NewCronManager(jobs.Options{
			TaskDue:  jobs.NewTaskDueNotifier(taskService, notificationService, cfg.TaskDueWindow, appLog),
			Matches:  matchService,
			Recorder: prometheusMetrics,
			Logger:   appLog,
		})
		if err := cronManager.SetupJobs(); err != nil {
			log.Fatalf("❌ Failed to setup cron jobs: %v", err)
		}
		cronManager.Start()
	}

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go reportPoolStats(statsCtx, db, prometheusMetrics)

	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 RealtyCRM API starting on %s", address)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("🔀 Pipeline transitions: strict=%t", cfg.PipelineStrictTransitions)

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cronManager != nil {
		cronManager.Stop(shutdownCtx)
		log.Println("✅ Cron jobs stopped")
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
		return
	}

	log.Println("✅ Server gracefully stopped")
}

// reportPoolStats publishes the open connection count every 15 seconds
func reportPoolStats(ctx context.Context, db *database.Client, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		m.UpdateDBConnections(float64(db.Stats().OpenConnections))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
