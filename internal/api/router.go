package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/vetrix/clinic-system/docs"
	"github.com/vetrix/clinic-system/internal/api/handler"
	"github.com/vetrix/clinic-system/internal/api/middleware"
	"github.com/vetrix/clinic-system/internal/core/domain"
	"github.com/vetrix/clinic-system/internal/core/ports"
	"github.com/vetrix/clinic-system/internal/core/service"
	"github.com/vetrix/clinic-system/internal/infrastructure/config"
	mongodb "github.com/vetrix/clinic-system/internal/infrastructure/db/mongo"
	redisdb "github.com/vetrix/clinic-system/internal/infrastructure/db/redis"
	"github.com/vetrix/clinic-system/internal/infrastructure/store/memory"
)

// NewRouter builds the Echo instance with all routes registered and returns
// it together with the session registry so the caller can start the sweeper.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) (*echo.Echo, *service.SessionService) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("vetrix"))

	// --- Stores ---
	// Sessions, refresh tokens, and 2FA enrollments are owned in-process;
	// the blacklist goes to Redis when available so revocation survives
	// restarts and is shared across replicas.
	userRepo := mongodb.NewUserRepository(db)
	refreshStore := memory.NewRefreshTokenStore()
	sessionStore := memory.NewSessionStore()
	twoFactorStore := memory.NewTwoFactorStore()

	var blacklist ports.TokenBlacklist
	if rdb != nil {
		blacklist = redisdb.NewTokenBlacklist(rdb)
	} else {
		blacklist = memory.NewTokenBlacklist()
	}

	// --- Services ---
	tokenService := service.NewTokenService(
		cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
		refreshStore, blacklist, userRepo, log,
	)
	sessionService := service.NewSessionService(
		tokenService, sessionStore, refreshStore, cfg.SessionIdleTimeout, log,
	)
	limiter := service.NewLoginLimiter(cfg.LoginMaxAttempts, cfg.LoginWindow)
	authService := service.NewAuthService(userRepo, tokenService, sessionService, limiter, cfg.BcryptCost)
	twoFactorService := service.NewTwoFactorService(cfg.TwoFactorIssuer, twoFactorStore)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService, limiter)
	sessionHandler := handler.NewSessionHandler(sessionService)
	twoFactorHandler := handler.NewTwoFactorHandler(twoFactorService)

	authenticated := middleware.Auth(tokenService)
	activity := middleware.Activity(sessionService)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.GET("/auth/me", authHandler.Me, authenticated, activity)
	e.POST("/auth/logout", authHandler.Logout, authenticated)

	// --- Session routes ---
	e.GET("/auth/sessions", sessionHandler.List, authenticated, activity)
	e.DELETE("/auth/sessions/:id", sessionHandler.Terminate, authenticated)

	// --- Two-factor routes ---
	e.POST("/auth/2fa/setup", twoFactorHandler.Setup, authenticated)
	e.POST("/auth/2fa/verify", twoFactorHandler.Verify, authenticated)
	e.POST("/auth/2fa/enable", twoFactorHandler.Enable, authenticated)

	// --- User administration (admin only) ---
	e.GET("/users", authHandler.ListUsers, authenticated, middleware.RequireCapability(domain.CapManageUsers))

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e, sessionService
}
