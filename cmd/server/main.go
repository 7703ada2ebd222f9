package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/foxxcyber/trail-guide/internal/config"
	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/handlers"
	"github.com/foxxcyber/trail-guide/internal/inflight"
	"github.com/foxxcyber/trail-guide/internal/metrics"
	"github.com/foxxcyber/trail-guide/internal/middleware"
	"github.com/foxxcyber/trail-guide/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg := config.Load()
	if cfg.IsProduction() && cfg.ContactsSecret == "change-me-in-production-please" {
		log.Fatal("CONTACTS_SECRET must be set in production")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if !cfg.AuthConfigured() {
		log.Println("Warning: SUPABASE_URL/SUPABASE_ANON_KEY not set, signed-in routes will return 503")
	}

	// Redis backs the favorite in-flight set and the weather cache when configured
	var rdb *redis.Client
	var favoriteSet inflight.Set = inflight.NewMemorySet()
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("Warning: Redis unreachable at %s, using in-process state: %v", cfg.RedisAddr, err)
			rdb.Close()
			rdb = nil
		} else {
			favoriteSet = inflight.NewRedisSet(rdb, "trailguide:inflight:", cfg.FavoriteLockTTL)
			defer rdb.Close()
			log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		}
	}

	deps := handlers.Deps{
		Weather:   services.NewWeatherService(cfg.WeatherAPIKey, cfg.WeatherBaseURL, rdb, cfg.WeatherCacheTTL),
		Favorites: services.NewFavoriteService(db, favoriteSet),
		Notifier:  services.NewEmailService(cfg),
	}

	if cfg.S3Enabled {
		storage, err := services.NewStorageService(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL, cfg.ImageURLTTL)
		if err != nil {
			log.Printf("Warning: Failed to initialize storage service: %v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := storage.EnsureBucket(ctx); err != nil {
				log.Printf("Warning: Failed to ensure S3 bucket exists: %v", err)
			}
			cancel()
			deps.Images = storage
			log.Println("Trail image storage initialized")
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    12 * 1024 * 1024,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(metrics.Middleware())

	app.Get("/metrics", metrics.Handler())

	h := handlers.New(db, cfg, deps)
	verifier := services.NewAuthVerifier(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	handlers.RegisterRoutes(app.Group("/api"), h, middleware.AuthRequired(verifier))

	// Keep the free-tier host awake by pinging our own health endpoint
	var keepAlive *services.KeepAlive
	if cfg.KeepAliveURL != "" {
		keepAlive, err = services.NewKeepAlive(cfg.KeepAliveURL, cfg.KeepAliveSchedule)
		if err != nil {
			log.Printf("Warning: Invalid keep-alive schedule %q: %v", cfg.KeepAliveSchedule, err)
		} else {
			keepAlive.Start()
			log.Printf("Keep-alive pinging %s on %q", cfg.KeepAliveURL, cfg.KeepAliveSchedule)
		}
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")
		if keepAlive != nil {
			keepAlive.Stop()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
