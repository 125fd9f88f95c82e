// Package routes assembles the gin engine: global middleware, the public
// API surface, authenticated routes and the admin console.
package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TheVish04/CAprep/internal/core/port"
	"github.com/TheVish04/CAprep/internal/infra/config"
	"github.com/TheVish04/CAprep/internal/infra/security"
	"github.com/TheVish04/CAprep/internal/transport/http/handlers"
	"github.com/TheVish04/CAprep/internal/transport/http/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Questions     *handlers.QuestionHandler
	Resources     *handlers.ResourceHandler
	Announcements *handlers.AnnouncementHandler
	Notifications *handlers.NotificationHandler
	Contact       *handlers.ContactHandler
	Quiz          *handlers.QuizHandler
	Admin         *handlers.AdminHandler
	Health        *handlers.HealthHandler
}

// Deps carries the cross-cutting pieces the router wires into middleware.
type Deps struct {
	Config     *config.AppConfig
	Logger     *zap.Logger
	Issuer     *security.TokenIssuer
	Cache      port.ResponseCache
	RateLimits port.RateLimitStore
	Registry   *prometheus.Registry
	Audit      middleware.AuditRecorder
}

// New builds the gin engine with every route mounted.
func New(h Handlers, d Deps) *gin.Engine {
	if !d.Config.App.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(d.Logger))
	engine.Use(middleware.CORS(d.Config.App.AllowedOrigins))

	metrics := middleware.NewHTTPMetrics(d.Registry)
	engine.Use(metrics.Handler())

	engine.GET("/healthz", h.Health.Live)
	engine.GET("/readyz", h.Health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	cacheTTL := d.Config.Cache.DefaultTTL
	authed := middleware.RequireAuth(d.Issuer)
	limit := func(name string, maxAttempts int) gin.HandlerFunc {
		return middleware.RateLimiter(d.RateLimits, name, maxAttempts, d.Config.RateLimit.WindowDuration, d.Logger)
	}

	api := engine.Group("/api")

	rl := d.Config.RateLimit
	auth := api.Group("/auth")
	{
		auth.POST("/send-otp", limit("send-otp", rl.SendOTPMaxAttempts), h.Auth.SendOTP)
		auth.POST("/verify-otp", limit("verify-otp", rl.SendOTPMaxAttempts), h.Auth.VerifyOTP)
		auth.POST("/register", limit("register", rl.LoginMaxAttempts), h.Auth.Register)
		auth.POST("/login", limit("login", rl.LoginMaxAttempts), h.Auth.Login)
		auth.POST("/refresh-token", h.Auth.Refresh)
		auth.POST("/forgot-password", limit("forgot-password", rl.PasswordResetMaxAttempts), h.Auth.ForgotPassword)
		auth.POST("/verify-reset-otp", limit("verify-reset-otp", rl.PasswordResetMaxAttempts), h.Auth.VerifyResetOTP)
		auth.POST("/reset-password", limit("reset-password", rl.PasswordResetMaxAttempts), h.Auth.ResetPassword)
		auth.GET("/me", authed, h.Auth.Me)
	}

	// Cached GETs sit behind auth so the cache partitions by user identity.
	cached := middleware.CacheResponse(d.Cache, cacheTTL)

	questions := api.Group("/questions", authed)
	{
		questions.GET("", cached, h.Questions.List)
		// Randomized samples are never cached; a replayed sample defeats
		// the point until the TTL lapses.
		questions.GET("/quiz", h.Questions.Sample)
		questions.GET("/:id", cached, h.Questions.Get)
	}

	resources := api.Group("/resources", authed)
	{
		resources.GET("", cached, h.Resources.List)
		resources.GET("/:id", cached, h.Resources.Get)
		resources.GET("/:id/download", h.Resources.Download)
	}

	announcements := api.Group("/announcements", authed)
	{
		announcements.GET("", cached, h.Announcements.List)
		announcements.GET("/:id", cached, h.Announcements.Get)
	}

	api.POST("/contact", limit("contact", rl.SendOTPMaxAttempts), h.Contact.Submit)

	// AI responses are generated per request and never cached.
	aiQuiz := api.Group("/ai-quiz", authed)
	{
		aiQuiz.POST("/generate", h.Quiz.Generate)
		aiQuiz.POST("/chat", h.Quiz.Chat)
	}

	api.POST("/bookmarks", authed, h.Questions.ToggleBookmark)

	notifications := api.Group("/notifications", authed)
	{
		notifications.GET("", h.Notifications.List)
		notifications.GET("/unread-count", h.Notifications.UnreadCount)
		notifications.PATCH("/read-all", h.Notifications.MarkAllRead)
		notifications.PATCH("/:id/read", h.Notifications.MarkRead)
		notifications.DELETE("/:id", h.Notifications.Delete)
	}

	admin := api.Group("/admin", authed, middleware.RequireAdmin())
	{
		admin.GET("/analytics", middleware.CacheResponse(d.Cache, time.Hour), h.Admin.Analytics)
		admin.GET("/users", h.Admin.ListUsers)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.POST("/broadcast", h.Admin.Broadcast)
		admin.POST("/clear-cache", h.Admin.ClearCache)
		admin.GET("/audit-logs", h.Admin.AuditLog)
		admin.GET("/contacts", h.Admin.ListContacts)

		// Content mutations audit through the middleware; user management,
		// broadcast and cache clearing record their own richer entries.
		content := admin.Group("", middleware.AuditTrail(d.Audit))
		{
			content.POST("/questions", h.Questions.Create)
			content.PUT("/questions/:id", h.Questions.Update)
			content.DELETE("/questions/:id", h.Questions.Delete)

			content.POST("/resources", h.Resources.Upload)
			content.PUT("/resources/:id", h.Resources.Update)
			content.DELETE("/resources/:id", h.Resources.Delete)

			content.POST("/announcements", h.Announcements.Create)
			content.PUT("/announcements/:id", h.Announcements.Update)
			content.DELETE("/announcements/:id", h.Announcements.Delete)
		}
	}

	return engine
}
