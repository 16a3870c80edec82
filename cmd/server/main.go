package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/socialsync-api/configs"
	"github.com/maheshrc27/socialsync-api/internal/analytics"
	"github.com/maheshrc27/socialsync-api/internal/api/handlers"
	"github.com/maheshrc27/socialsync-api/internal/api/middleware"
	job "github.com/maheshrc27/socialsync-api/internal/jobs"
	"github.com/maheshrc27/socialsync-api/internal/oauth"
	"github.com/maheshrc27/socialsync-api/internal/queue"
	"github.com/maheshrc27/socialsync-api/internal/repository"
	"github.com/maheshrc27/socialsync-api/internal/service"
	"github.com/maheshrc27/socialsync-api/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	cipher, err := utils.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		log.Fatalf("Invalid TOKEN_ENCRYPTION_KEY: %v", err)
	}
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY must be set")
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis is unreachable: %v", err)
	}
	cancel()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	clock := clockwork.NewRealClock()
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	connectors := oauth.NewConnectors(httpClient, oauth.DefaultEndpoints())
	fetchers := analytics.NewFetchers(httpClient, analytics.BaseURLs{})

	platformRepo := repository.NewPlatformRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db, clock)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	oauthStateRepo := repository.NewOAuthStateRepository(rdb)

	registry := service.NewPlatformRegistry(cfg, platformRepo)
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := registry.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed platforms: %v", err)
	}
	cancel()

	var archive service.RawArchive
	if cfg.R2.Enabled() {
		r2Client, err := service.NewR2Client(context.Background(), cfg.R2)
		if err != nil {
			log.Fatalf("Failed to create R2 client: %v", err)
		}
		archive = service.NewR2Service(r2Client, cfg.R2.BucketName)
	}

	tokenService := service.NewTokenService(socialAccountRepo, registry, connectors, cipher, clock)
	analyticsService := service.NewAnalyticsService(socialAccountRepo, analyticsRepo, fetchers, tokenService, archive, clock)
	connectionService := service.NewConnectionService(cfg, registry, connectors, fetchers, oauthStateRepo, socialAccountRepo, analyticsService, cipher, clock)

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": http.StatusText(code)})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	platform := handlers.NewPlatformHandler(registry, connectionService)
	api.Get("/platforms", platform.ListPlatforms)
	api.Post("/connect/:platform", platform.Connect)
	api.Post("/callback/:platform", platform.Callback)

	// social accounts api routes
	api.Get("/accounts", platform.ListSocialAccounts)
	api.Delete("/accounts/:id", platform.DeleteSocialAccount)

	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	api.Get("/analytics", analyticsHandler.ListAnalytics)
	api.Get("/analytics/:accountId", analyticsHandler.GetAnalytics)
	api.Post("/analytics/:accountId/refresh", analyticsHandler.RefreshAnalytics)
	api.Get("/analytics/:accountId/content", analyticsHandler.RecentContent)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(tokenService, 5*time.Minute)
	analyticsJob := job.NewAnalyticsRefreshJob(socialAccountRepo, client, cfg.AnalyticsRefreshInterval)

	//queue
	queueW := queue.NewQueue(analyticsService)

	c := cron.New()
	if err := c.AddFunc(everySpec(cfg.TokenRefreshInterval), refreshTokenJob.RefreshTokens); err != nil {
		log.Fatalf("Invalid token refresh interval: %v", err)
	}
	if err := c.AddFunc(everySpec(cfg.AnalyticsRefreshInterval), analyticsJob.EnqueueRefreshes); err != nil {
		log.Fatalf("Invalid analytics refresh interval: %v", err)
	}
	c.Start()
	defer c.Stop()

	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})

	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeAnalyticsRefresh, queueW.HandleAnalyticsRefreshTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, server)
}

// everySpec turns an interval into a robfig/cron "@every" schedule.
func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	server.Shutdown()

	log.Println("Server shutdown complete.")
}
