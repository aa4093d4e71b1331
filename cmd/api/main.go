package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tablevine/reservations/internal/http/handlers"
	mw "github.com/tablevine/reservations/internal/http/middleware"
	"github.com/tablevine/reservations/internal/notify"
	"github.com/tablevine/reservations/internal/platform/blob"
	"github.com/tablevine/reservations/internal/platform/mailer"
	"github.com/tablevine/reservations/internal/repo/postgres"
	"github.com/tablevine/reservations/internal/service"
	"github.com/tablevine/reservations/pkg/auth"
	"github.com/tablevine/reservations/pkg/config"
	"github.com/tablevine/reservations/pkg/database"
	"github.com/tablevine/reservations/pkg/events"
	"github.com/tablevine/reservations/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	redisOpts.Password = cfg.Redis.Password
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	blobStore, err := blob.NewJetStreamStore(eventBus.Conn(), cfg.NATS.BlobBucket)
	if err != nil {
		logger.Error("Failed to open blob bucket", "error", err)
		os.Exit(1)
	}

	var mail mailer.Service
	if cfg.Email.DevMode {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	// Repositories
	reservationRepo := postgres.NewReservationRepo(pool)
	restaurantRepo := postgres.NewRestaurantRepo(pool)
	imageRepo := postgres.NewImageRepo(pool)
	adminRepo := postgres.NewAdminRepo(pool)

	// Services
	reservationService := service.NewReservationService(reservationRepo, restaurantRepo, eventBus)
	restaurantService := service.NewRestaurantService(
		restaurantRepo, imageRepo, blobStore, eventBus,
		cfg.Server.PublicURL+"/v1/media",
	)

	notifier := notify.New(eventBus, mail)
	if err := notifier.Start(); err != nil {
		logger.Error("Failed to start notifier", "error", err)
		os.Exit(1)
	}

	// Gate collaborators
	authn := auth.NewJWTAuthenticator(cfg.Auth.JWTSecret)

	// Handlers
	reservationsHandler := handlers.NewReservationsHandler(reservationService)
	restaurantsHandler := handlers.NewRestaurantsHandler(restaurantService)
	adminReservationsHandler := handlers.NewAdminReservationsHandler(reservationService)
	adminRestaurantsHandler := handlers.NewAdminRestaurantsHandler(restaurantService, cfg.Blob.MaxUploadBytes)
	authHandler := handlers.NewAuthHandler(adminRepo, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	mediaHandler := handlers.NewMediaHandler(blobStore)

	createLimiter := mw.NewRateLimiter(redisClient, mw.RateLimitConfig{
		Requests: cfg.RateLimit.CreateRequests,
		Window:   cfg.RateLimit.CreateWindow,
	})
	idempotencyStore := mw.NewRedisIdempotencyStore(redisClient)

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/restaurants", restaurantsHandler.Routes())
		r.Get("/categories/{name}/restaurants", restaurantsHandler.ListByCategory)
		r.Mount("/media", mediaHandler.Routes())

		r.Route("/reservations", func(r chi.Router) {
			r.With(createLimiter.Middleware(), mw.Idempotency(idempotencyStore)).
				Post("/", reservationsHandler.Create)
			r.Get("/{id}", reservationsHandler.GetByID)
			r.Get("/code/{code}", reservationsHandler.GetByCode)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireAdmin(authn, adminRepo))
				r.Mount("/reservations", adminReservationsHandler.Routes())
				r.Mount("/restaurants", adminRestaurantsHandler.Routes())
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down reservations service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting reservations service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
