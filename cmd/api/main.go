package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kyuho-lee/asset-manager-sub000/internal/auth"
	"github.com/kyuho-lee/asset-manager-sub000/internal/background"
	"github.com/kyuho-lee/asset-manager-sub000/internal/config"
	"github.com/kyuho-lee/asset-manager-sub000/internal/database"
	"github.com/kyuho-lee/asset-manager-sub000/internal/handlers"
	middlewareCustom "github.com/kyuho-lee/asset-manager-sub000/internal/middleware"
	"github.com/kyuho-lee/asset-manager-sub000/internal/repositories"
	"github.com/kyuho-lee/asset-manager-sub000/internal/routes"
	"github.com/kyuho-lee/asset-manager-sub000/internal/services"
	pkgauth "github.com/kyuho-lee/asset-manager-sub000/pkg/auth"
	pkghttp "github.com/kyuho-lee/asset-manager-sub000/pkg/http"
	pkglogger "github.com/kyuho-lee/asset-manager-sub000/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// staleAttemptAge is how long after its last failure a login-attempt row
// is considered abandoned and eligible for background deletion.
const staleAttemptAge = 24 * time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run pending migrations before opening the pool
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		if err := database.Migrate(cfg.Database.DSN(), "db/migrations"); err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(loginAttemptRepo, logger, cfg.Auth.CleanupInterval, staleAttemptAge)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Security plumbing
	auditLogger := pkglogger.NewAuditLogger(logger)
	hasher := pkgauth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.MaxHashWorkers)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   100,
		RandomDelayMs: 100,
	})

	// AWS SES notifier for password resets
	notifier, err := services.NewAWSSESNotifier(cfg.Mailer.Region, cfg.Mailer.FromAddress, logger)
	if err != nil {
		logger.Error("failed to initialize mail notifier", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	lockoutService := services.NewLockoutService(loginAttemptRepo, services.LockoutConfig{
		Threshold: cfg.Auth.LockoutThreshold,
		Duration:  cfg.Auth.LockoutDuration,
	}, logger)
	authService := services.NewAuthService(userRepo, lockoutService, tokenManager, hasher, timingDelay, logger, auditLogger)
	resetService := services.NewPasswordResetService(userRepo, hasher, notifier, logger, auditLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, resetService, logger)
	healthHandler := handlers.NewHealthHandler(db)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders())
	router.Use(middlewareCustom.CORS(middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, healthHandler, tokenManager)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
