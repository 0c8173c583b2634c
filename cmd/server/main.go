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

	"github.com/ricoauto/gatepass/internal/handlers"
	"github.com/ricoauto/gatepass/internal/middleware"
	"github.com/ricoauto/gatepass/internal/repository"
	"github.com/ricoauto/gatepass/internal/response"
	"github.com/ricoauto/gatepass/internal/service"
	"github.com/ricoauto/gatepass/pkg/config"
	"github.com/ricoauto/gatepass/pkg/database"
	"github.com/ricoauto/gatepass/pkg/events"
	"github.com/ricoauto/gatepass/pkg/logger"
	mw "github.com/ricoauto/gatepass/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	startedAt := time.Now()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		logger.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher
	publisher, err = events.NewNATSPublisher(cfg.NATS.URL)
	if err != nil {
		logger.Warn("NATS unavailable, events disabled", "error", err)
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()

	visitorRepo := repository.NewVisitorRepository(pool)
	vipRepo := repository.NewVipPassRepository(pool)

	idgen := service.NewIDGenerator(visitorRepo, vipRepo)
	passService := service.NewPassService(visitorRepo, idgen, publisher, cfg.Admin.Password, cfg.QR.Size)
	vipService := service.NewVipService(visitorRepo, vipRepo, idgen, passService)
	matcher := service.NewMatcher(visitorRepo)
	analytics := service.NewAnalytics(visitorRepo)

	h := handlers.New(passService, vipService, matcher, analytics)

	publicLimiter := middleware.NewRateLimiter(pool, middleware.RateLimitConfig{
		Requests: 60,
		Window:   time.Minute,
	}).Middleware()

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("gatepass"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.SecurityHeaders)

	corsOrigins := cfg.Server.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Admin-Password", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"uptime":    int(time.Since(startedAt).Seconds()),
			"env":       envName(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		h.Routes(r, publicLimiter)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		logger.Info("Shutting down gatepass service...", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Gatepass service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting gatepass service", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Gatepass service error", "error", err)
		os.Exit(1)
	}
}

func envName() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
