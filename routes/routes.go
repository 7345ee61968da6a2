package routes

import (
	"net/http"
	"time"

	"blueridge/handlers"
	"blueridge/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options tune the global middleware.
type Options struct {
	// AllowOrigins lists the sites allowed to call the API; empty allows all.
	AllowOrigins      []string
	MaxRequestsPerMin int
	Logger            *zap.Logger
}

// RegisterSchedulingRoutes registers availability, booking and cancellation.
func RegisterSchedulingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/availability", hb.GetAvailability)
	api.POST("/book", hb.Book)
	api.POST("/calendar/check-availability", hb.CheckAvailability)
	api.POST("/calendar/create-event", hb.CreateEvent)
	api.POST("/calendar/cancel-event", hb.CancelEvent)
}

// RegisterAIRoutes registers the chat endpoint.
func RegisterAIRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	ai := api.Group("/ai")
	{
		ai.POST("/chat", hb.AIChat)
	}
}

// RegisterOAuthRoutes registers the Google calendar connection flow.
func RegisterOAuthRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	g := api.Group("/oauth/google")
	{
		g.GET("", hb.OAuthStart)
		g.GET("/callback", hb.OAuthCallback)
	}
}

// RegisterPaymentRoutes registers Stripe checkout, portal and webhook.
func RegisterPaymentRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.POST("/checkout", hb.Checkout)
	api.POST("/portal", hb.Portal)
	api.POST("/stripe/webhook", hb.StripeWebhook)
}

// RegisterHealthRoute registers health and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Stripe-Signature", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestLogger(logger))

	RegisterHealthRoute(r)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(opts.MaxRequestsPerMin, logger))
	RegisterSchedulingRoutes(api, hb)
	RegisterAIRoutes(api, hb)
	RegisterOAuthRoutes(api, hb)
	RegisterPaymentRoutes(api, hb)
}
