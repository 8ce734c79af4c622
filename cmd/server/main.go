package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/novelnest/backend/docs"
	"github.com/novelnest/backend/internal/audit"
	"github.com/novelnest/backend/internal/config"
	"github.com/novelnest/backend/internal/database"
	"github.com/novelnest/backend/internal/metrics"
	mW "github.com/novelnest/backend/internal/middleware"
	"github.com/novelnest/backend/internal/paystack"
	"github.com/novelnest/backend/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title NovelNest Coin Ledger API
// @version 1.0
// @description Chapter unlocks, coin purchases and Paystack reconciliation
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	// Initialize config
	config.Load()
	if err := config.ReadFile(); err != nil {
		logrus.WithError(err).Info("Config file not found, using environment")
	}

	if level, err := logrus.ParseLevel(viper.GetString("log.level")); err == nil {
		logrus.SetLevel(level)
	}

	serverCfg := config.LoadServerConfig()
	paystackCfg := config.LoadPaystackConfig()
	ledgerCfg := config.LoadLedgerConfig()
	authCfg := config.LoadAuthConfig()

	if paystackCfg.SecretKey == "" {
		logrus.Warn("PAYSTACK_SECRET_KEY is not set; purchases and webhooks will be rejected")
	}
	if authCfg.SecretKey == "" {
		logrus.Fatal("JWT_SECRET_KEY is required")
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Host = viper.GetString("swagger.host")
	if docs.SwaggerInfo.Host == "" {
		docs.SwaggerInfo.Host = "localhost:" + serverCfg.Port
	}

	// Initialize storage
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	ledger := services.NewCoinLedger(db, audit.NewLogger(logrus.StandardLogger()), ledgerCfg.AuthorPayoutRate)
	packages := services.NewCoinPackageStore(db, redisClient, ledgerCfg.PackageCacheTTL)
	gateway := paystack.NewClient(paystackCfg.BaseURL, paystackCfg.SecretKey, paystackCfg.Timeout)

	unlockService := services.NewUnlockService(ledger)
	paymentService := services.NewPaymentService(db, ledger, packages, gateway, paystackCfg, ledgerCfg.ReferencePrefix)
	walletService := services.NewWalletService(ledger, packages)

	authenticator := mW.NewAuthenticator(authCfg.SecretKey, redisClient)

	limiter := mW.NewRateLimiter(serverCfg.RateLimitRPS, serverCfg.RateLimitBurst)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	limiter.StartCleanup(time.Minute, stopCleanup)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.InstrumentHandler)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	r.Handle("/metrics", metrics.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no session; the webhook authenticates by signature)
		r.Post("/paystack/webhook", paymentService.Webhook)
		r.Get("/coin-packages", walletService.ListPackages)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(authenticator.Middleware)
			r.Use(limiter.Handler)

			r.Post("/chapters/unlock", unlockService.UnlockChapter)
			r.Post("/paystack/initialize-transaction", paymentService.InitializeTransaction)

			r.Get("/wallet/balance", walletService.GetBalance)
			r.Get("/wallet/transactions", walletService.ListTransactions)
		})
	})

	port := serverCfg.Port

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logrus.WithField("port", port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	logrus.Info("Server stopped")
}
