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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	v1 "accountsvc/internal/app/handler/v1"
	appMiddleware "accountsvc/internal/app/middleware"
	"accountsvc/internal/app/model/api"
	"accountsvc/internal/app/repo"
	"accountsvc/internal/client/email"
	"accountsvc/internal/config"
	"accountsvc/internal/otp"
	"accountsvc/internal/service"
	"accountsvc/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.Info("Starting accountsvc")

	db, err := setupDatabase(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to setup database: %v", err)
	}
	defer db.Close()

	store := repo.NewBunStore(db)

	emailClient := email.NewClient(
		cfg.Email.ServiceURL,
		time.Duration(cfg.Email.Timeout)*time.Second,
		cfg.Email.RetryCount,
		logger,
	)

	otpManager := otp.NewManager(
		cfg.App.OTPLength,
		time.Duration(cfg.App.OTPTTL)*time.Second,
	)

	tokenIssuer := token.NewIssuer(
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		time.Duration(cfg.JWT.AccessTokenTTL)*time.Second,
		time.Duration(cfg.JWT.RefreshTokenTTL)*time.Second,
	)

	accountService := service.NewAccountService(
		store,
		otpManager,
		tokenIssuer,
		emailClient,
		logger,
	)

	router := setupRouter(accountService, tokenIssuer, cfg.JWT.PublicKeyPEM, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	pruneCtx, stopPruner := context.WithCancel(context.Background())
	defer stopPruner()
	go pruneExpiredOTPs(pruneCtx, store, time.Duration(cfg.App.OTPPruneInterval)*time.Second, logger)

	go func() {
		logger.WithFields(logrus.Fields{
			"host": cfg.Server.Host,
			"port": cfg.Server.Port,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

func setupDatabase(cfg *config.Config, logger *logrus.Logger) (*bun.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.App.Environment == "development" {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Database connected successfully")
	return db, nil
}

// pruneExpiredOTPs opportunistically removes dead OTP rows. Validity never
// depends on this sweep; expiry is checked on read.
func pruneExpiredOTPs(ctx context.Context, store repo.Store, interval time.Duration, logger *logrus.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.OTPs().DeleteExpiredBefore(ctx, time.Now())
			if err != nil {
				logger.WithFields(logrus.Fields{
					"error": err.Error(),
				}).Warn("Failed to prune expired OTP records")
				continue
			}
			if removed > 0 {
				logger.WithFields(logrus.Fields{
					"removed": removed,
				}).Info("Pruned expired OTP records")
			}
		}
	}
}

func setupRouter(accounts service.AccountService, tokens *token.Issuer, publicKeyPEM string, logger *logrus.Logger) chi.Router {
	r := chi.NewRouter()

	loggingMiddleware := appMiddleware.NewLoggingMiddleware(logger)

	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware.Logger())
	r.Use(loggingMiddleware.Recovery())
	r.Use(appMiddleware.CORS())
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, &api.HealthResponse{
			Status:  "healthy",
			Service: "accountsvc",
			Version: "1.0.0",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			accountsHandler := v1.NewAccountsHandler(accounts, tokens, publicKeyPEM, logger)
			accountsHandler.RegisterRoutes(r)
		})
	})

	return r
}
