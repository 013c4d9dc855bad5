package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamelilea/agrowtify-web/internal/config"
	"github.com/mamelilea/agrowtify-web/internal/database"
	"github.com/mamelilea/agrowtify-web/internal/handlers"
	"github.com/mamelilea/agrowtify-web/internal/middleware"
	"github.com/mamelilea/agrowtify-web/internal/routes"
	"github.com/mamelilea/agrowtify-web/internal/services"
	"github.com/mamelilea/agrowtify-web/pkg/clientip"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() && cfg.JWTSecret == "your-secret-key-change-in-production" {
		log.Fatal("JWT_SECRET must be set in production")
	}

	// Relational store
	log.Printf("Connecting to %s...", cfg.DatabaseDriver)
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
	}

	// Redis
	log.Printf("Connecting to Redis...")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// MongoDB keeps forecast history; the service runs without it.
	var forecastLog services.ForecastLog
	var mongoClient *mongo.Client
	if cfg.MongoURI != "" {
		log.Printf("Connecting to MongoDB...")
		client, mdb, err := database.ConnectMongo(cfg.MongoURI)
		if err != nil {
			log.Printf("⚠️  WARNING: MongoDB unavailable, forecast history disabled: %v", err)
		} else {
			mongoClient = client
			mlog := services.NewMongoForecastLog(mdb)
			if err := mlog.EnsureIndexes(ctx); err != nil {
				log.Printf("⚠️  WARNING: failed to ensure MongoDB forecast indexes: %v", err)
			} else {
				log.Println("✅ MongoDB forecast indexes ensured")
			}
			forecastLog = mlog
		}
	}
	defer database.DisconnectMongo(mongoClient)

	// Cloudinary
	var mediaHost services.MediaHost
	var mediaPinger handlers.MediaPinger
	if cfg.CloudinaryConfigured() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("⚠️  WARNING: Failed to initialize Cloudinary: %v", err)
			log.Println("Journal media uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
			mediaHost = cld
			mediaPinger = cld
		}
	} else {
		log.Println("⚠️  WARNING: Cloudinary credentials not found. Journal media uploads will not be available")
	}

	// Services
	cache := services.NewCacheService(rdb)
	sessions := services.NewSessionService(rdb, cfg.JWTSecret)
	users := services.NewUserService(db)
	journal := services.NewJournalService(db, mediaHost, cfg.MediaUploadTimeout)
	plants := services.NewPlantService(db, cache)
	weather := services.NewWeatherService(cfg.OpenWeatherAPIKey, cfg.OpenWeatherURL, cache)
	content := services.NewContentService(db)
	feed := services.NewEventFeed(rdb)
	events := services.NewEventService(db, feed)

	if err := journal.SeedDefaultQuestions(ctx); err != nil {
		log.Printf("⚠️  WARNING: failed to seed journal questions: %v", err)
	}
	if err := plants.SeedDefaults(ctx); err != nil {
		log.Printf("⚠️  WARNING: failed to seed plants: %v", err)
	}
	go feed.Run(ctx)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	resolveIP := clientip.Resolver(cfg.TrustProxy)
	// Production: SecurityHeaders → HostCheck → per-IP limits
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(hostname(cfg.Host), resolveIP) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP, login and submission rate limiting)")
	} else {
		r.Use(middleware.NewRedisRateLimiter(rdb, resolveIP).Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	auth := middleware.NewAuthenticator(sessions, users)
	routes.SetupRoutes(r, routes.Handlers{
		Auth:    handlers.NewAuthHandler(users, sessions, cfg.IsProduction()),
		Journal: handlers.NewJournalHandler(journal),
		Plants:  handlers.NewPlantHandler(plants),
		Weather: handlers.NewWeatherHandler(weather, plants, forecastLog),
		Content: handlers.NewContentHandler(content),
		Events:  handlers.NewEventHandler(events, feed, cfg.AllowedOrigins),
		Media:   handlers.NewMediaHandler(mediaPinger),
	}, auth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}()

	log.Printf("🚀 Agrowtify backend running on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Failed to start server:", err)
	}
}

// hostname strips scheme and port from HOST for the production host check.
func hostname(host string) string {
	u, err := url.Parse(host)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
