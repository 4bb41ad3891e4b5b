package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relief-fund-gateway/config"
	httpHandler "relief-fund-gateway/internal/adapter/http/handler"
	pgStorage "relief-fund-gateway/internal/adapter/storage/postgres"
	redisStorage "relief-fund-gateway/internal/adapter/storage/redis"
	"relief-fund-gateway/internal/core/domain"
	"relief-fund-gateway/internal/core/ports"
	"relief-fund-gateway/internal/service"
	"relief-fund-gateway/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Relief Fund Gateway")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	registryRepo := pgStorage.NewRegistryRepo(pool)
	campaignRepo := pgStorage.NewCampaignRepo(pool)
	applicationRepo := pgStorage.NewApplicationRepo(pool)
	donationRepo := pgStorage.NewDonationRepo(pool)
	allocationRepo := pgStorage.NewAllocationRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	spendRepo := pgStorage.NewSpendRepo(pool)
	eventRepo := pgStorage.NewEventRepo(pool)
	ledger := pgStorage.NewLedger(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis-backed adapters
	eventStream := redisStorage.NewEventStream(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Bootstrap the platform admin account
	adminID, err := bootstrapAdmin(ctx, accountRepo, hashSvc, cfg.Admin, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	}

	// Initialize business services
	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc)
	registrySvc := service.NewRegistryService(registryRepo, campaignRepo, ledger, transactor, eventRepo, eventStream, adminID, log)
	campaignSvc := service.NewCampaignService(campaignRepo, applicationRepo, donationRepo, allocationRepo, walletRepo, ledger, transactor, eventRepo, eventStream, log)
	walletSvc := service.NewWalletService(walletRepo, campaignRepo, spendRepo, registryRepo, ledger, transactor, eventRepo, eventStream, cfg.Policy.RequireVerifiedMerchants, log)
	reportingSvc := service.NewReportingService(campaignRepo, applicationRepo, donationRepo, walletRepo, spendRepo, eventRepo, ledger)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		RegistrySvc:    registrySvc,
		CampaignSvc:    campaignSvc,
		WalletSvc:      walletSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// bootstrapAdmin ensures the configured admin account exists and returns its
// ID. Admin accounts cannot be self-registered, so this is the only way one
// comes into being.
func bootstrapAdmin(
	ctx context.Context,
	accountRepo ports.AccountRepository,
	hashSvc ports.HashService,
	cfg config.AdminConfig,
	log zerolog.Logger,
) (uuid.UUID, error) {
	existing, err := accountRepo.GetByUsername(ctx, cfg.Username)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup admin account: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	if cfg.Password == "" {
		return uuid.Nil, fmt.Errorf("admin account %q does not exist and no admin password is configured", cfg.Username)
	}

	passwordHash, err := hashSvc.Hash(cfg.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash admin password: %w", err)
	}

	admin := &domain.Account{
		ID:           uuid.New(),
		Username:     cfg.Username,
		PasswordHash: passwordHash,
		DisplayName:  "Platform Admin",
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := accountRepo.Create(ctx, admin); err != nil {
		return uuid.Nil, fmt.Errorf("create admin account: %w", err)
	}

	log.Info().Str("username", cfg.Username).Str("account_id", admin.ID.String()).Msg("admin account bootstrapped")
	return admin.ID, nil
}
