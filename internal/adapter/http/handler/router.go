package handler

import (
	"relief-fund-gateway/internal/adapter/http/middleware"
	redisStore "relief-fund-gateway/internal/adapter/storage/redis"
	"relief-fund-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	RegistrySvc    ports.RegistryService
	CampaignSvc    ports.CampaignService
	WalletSvc      ports.WalletService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	registryHandler := NewRegistryHandler(deps.RegistrySvc)
	campaignHandler := NewCampaignHandler(deps.RegistrySvc, deps.CampaignSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)
	reportingHandler := NewReportingHandler(deps.ReportingSvc)

	registry := v1.Group("/registry", jwtAuth)
	{
		registry.POST("/organizers/:id/approve", rl("management"), registryHandler.ApproveOrganizer)
		registry.GET("/organizers/:id", rl("reads"), registryHandler.CheckOrganizer)
		registry.POST("/merchants/:id/verify", rl("management"), registryHandler.VerifyMerchant)
		registry.DELETE("/merchants/:id/verify", rl("management"), registryHandler.RevokeMerchant)
		registry.GET("/merchants/:id", rl("reads"), registryHandler.CheckMerchant)
		registry.POST("/deposits", rl("management"), registryHandler.Deposit)
	}

	campaigns := v1.Group("/campaigns", jwtAuth)
	{
		campaigns.POST("", rl("management"), campaignHandler.Create)
		campaigns.GET("", rl("reads"), campaignHandler.List)
		campaigns.GET("/:id", rl("reads"), campaignHandler.Get)
		campaigns.PATCH("/:id/status", rl("management"), campaignHandler.SetStatus)
		campaigns.POST("/:id/donations", rl("donations"), campaignHandler.Donate)
		campaigns.GET("/:id/donations", rl("reads"), campaignHandler.ListDonations)
		campaigns.POST("/:id/applications", rl("management"), campaignHandler.Apply)
		campaigns.POST("/:id/applications/:beneficiary/approve", rl("management"), campaignHandler.ApproveBeneficiary)
		campaigns.POST("/:id/applications/:beneficiary/reject", rl("management"), campaignHandler.RejectBeneficiary)
		campaigns.POST("/:id/allocations", rl("management"), campaignHandler.Allocate)
		campaigns.GET("/:id/beneficiaries/:beneficiary", rl("reads"), campaignHandler.CheckBeneficiary)
		campaigns.GET("/:id/beneficiaries/:beneficiary/wallet", rl("reads"), campaignHandler.GetBeneficiaryWallet)
		campaigns.GET("/:id/stats", rl("reads"), reportingHandler.CampaignStats)
		campaigns.GET("/:id/events", rl("reads"), reportingHandler.CampaignEvents)
	}

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/:id", rl("reads"), walletHandler.Get)
		wallets.GET("/:id/balance", rl("reads"), walletHandler.GetBalance)
		wallets.GET("/:id/statement", rl("reads"), reportingHandler.WalletStatement)
		wallets.POST("/:id/approvals", rl("management"), walletHandler.ApproveMerchant)
		wallets.GET("/:id/approvals", rl("reads"), walletHandler.CheckApproval)
		wallets.POST("/:id/spends", rl("spends"), walletHandler.Spend)
	}

	v1.GET("/stats", jwtAuth, rl("reads"), reportingHandler.PlatformStats)

	return r
}
