package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/onform/training-backend/internal/auth"
	"github.com/onform/training-backend/internal/config"
	"github.com/onform/training-backend/internal/handler"
	"github.com/onform/training-backend/internal/middleware"
	"github.com/onform/training-backend/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring probe this endpoint.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the credential lifecycle routes. The
// unauthenticated operations live under /v1/auth and sit behind the
// per-IP rate limiter; account endpoints live under /v1 behind the
// access-token middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, cfg config.Config, rlCfg config.RateLimitConfig, rdb *redis.Client, accounts *repository.AccountRepo) {
	// Public group: register, login, token exchange, recovery flows.
	// All of these accept credentials or credential-equivalent tokens,
	// so the whole group is rate limited.
	g := e.Group("/v1/auth", middleware.RateLimit(rlCfg, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token: the presented token is revoked and a
	// replacement returned alongside the new access token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh_token body (ends that session) or
	// a bearer token (ends all of the caller's sessions). It does not
	// require the auth middleware so that an expired access token still
	// lets a client hand back its refresh token.
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)
	g.POST("/verify-email", a.VerifyEmail)
	g.POST("/resend-verification", a.ResendVerification)
	g.POST("/otp/request", a.RequestOTP)
	g.POST("/otp/verify", a.VerifyOTP)

	// Protected group: every handler here runs after the access-token
	// middleware, which also re-checks is_active and token_version
	// against the database so revocation is immediate.
	p := e.Group("/v1")
	p.Use(middleware.Auth(cfg.JWTSecret, accounts))
	p.GET("/me", a.Me)
	p.PUT("/me", a.UpdateMe)
	p.DELETE("/me", a.DeleteMe)
	// Lives under /v1/auth path-wise but requires a session, so it is
	// registered on the protected group.
	p.POST("/auth/change-password", a.ChangePassword)
}

// RegisterProfiles registers the trainer and client endpoints. All of
// them require a session; the per-endpoint visibility rules are
// enforced by the handlers through the access guard.
func RegisterProfiles(e *echo.Echo, t *handler.TrainerHandler, cl *handler.ClientHandler, cfg config.Config, accounts *repository.AccountRepo) {
	p := e.Group("/v1")
	p.Use(middleware.Auth(cfg.JWTSecret, accounts))
	p.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleTrainer, auth.RoleAthlete))

	p.GET("/trainers/:id", t.Get)
	p.PUT("/trainers/:id", t.Update)
	p.GET("/trainers/:id/clients", t.ListClients)
	p.POST("/trainers/:id/clients", t.LinkClient)
	p.DELETE("/trainers/:id/clients/:client_id", t.UnlinkClient)

	p.GET("/clients", cl.List)
	p.GET("/clients/:id", cl.Get)
}
