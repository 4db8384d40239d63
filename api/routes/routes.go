package routes

import (
	"github.com/ArowuTest/tripledigit-backend/internal/handlers"
	"github.com/ArowuTest/tripledigit-backend/internal/middleware"
	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/services"
	"github.com/ArowuTest/tripledigit-backend/internal/utils"
	"github.com/ArowuTest/tripledigit-backend/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps holds everything the router needs.
type Deps struct {
	Auth           *services.AuthService
	Game           *services.GameService
	Withdrawals    *services.WithdrawalService
	Payments       *services.PaymentService
	Admin          *services.AdminService
	Tokens         *utils.TokenManager
	RateLimitStore middleware.RateLimitStore // nil disables rate limiting
	HealthCheckers []handlers.HealthChecker
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// SetupRouter sets up the router
func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	router.Use(middleware.CORS(deps.AllowedOrigins))

	router.GET("/health", handlers.HealthCheck(deps.HealthCheckers...))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rules[group], deps.Logger)
	}

	authHandler := handlers.NewAuthHandler(deps.Auth)
	gameHandler := handlers.NewGameHandler(deps.Game)
	withdrawalHandler := handlers.NewWithdrawalHandler(deps.Withdrawals)
	paymentHandler := handlers.NewPaymentHandler(deps.Payments)
	adminHandler := handlers.NewAdminHandler(deps.Admin, deps.Withdrawals)

	jwtAuth := middleware.JWTAuth(deps.Tokens, deps.Logger)
	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/signup", rl("auth_signup"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.GET("/me", jwtAuth, authHandler.Me)
	}
	api.POST("/payments/webhook", paymentHandler.Webhook)

	// Player routes
	withdrawals := api.Group("/withdrawals", jwtAuth)
	{
		withdrawals.POST("/request", withdrawalHandler.Request)
		withdrawals.GET("/my-withdrawals", withdrawalHandler.Mine)
	}

	game := api.Group("/game", jwtAuth)
	{
		game.POST("/play", rl("game_play"), gameHandler.Play)
		game.GET("/history", gameHandler.History)
		game.GET("/settings", gameHandler.Settings)
	}

	// Admin routes
	admin := api.Group("/admin", jwtAuth, middleware.RequireRole(models.RoleAdmin, deps.Auth))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/credit-user", adminHandler.CreditUser)
		admin.GET("/withdrawals", adminHandler.ListWithdrawals)
		admin.POST("/approve-withdrawal/:id", adminHandler.ApproveWithdrawal)
		admin.POST("/reject-withdrawal/:id", adminHandler.RejectWithdrawal)
		admin.PUT("/game-settings", adminHandler.UpdateGameSettings)
		admin.POST("/send-sms", adminHandler.SendSMS)
		admin.POST("/send-sms-all", adminHandler.SendSMSAll)
		admin.GET("/sms-logs", adminHandler.SMSLogs)
		admin.GET("/stats", adminHandler.Stats)
	}

	return router
}
