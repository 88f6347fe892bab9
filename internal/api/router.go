package api

import (
	"net/http"

	"waha-gateway/internal/config"
	"waha-gateway/internal/health"
	"waha-gateway/internal/ws"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router wires into handlers. Logs and
// Hub are optional.
type Deps struct {
	Config  *config.Config
	Service Service
	Logs    LogReader
	Hub     *ws.Hub
	Stats   *health.Stats
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	stats := d.Stats
	if stats == nil {
		stats = health.NewStats()
	}

	r := gin.New()
	r.Use(RequestID(), Logger(), Metrics(stats), Recovery(), CORS(cfg.AllowedOrigins))

	limits := Limits{DefaultLimit: cfg.DefaultLimit, MaxLimit: cfg.MaxLimit}
	dashboardHandler := NewDashboardHandler(d.Service, limits)
	contactHandler := NewContactHandler(d.Service, limits)
	automationHandler := NewAutomationHandler(d.Service, d.Logs)
	webhookHandler := NewWebhookHandler(d.Service, cfg.WebhookSecret, cfg.WebhookVerifyToken, cfg.AutoResponseEnabled)

	r.GET("/", func(c *gin.Context) {
		respond(c, gin.H{
			"service": "waha-gateway",
			"status":  "running",
			"api":     "/api/waba",
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Hub != nil {
		r.GET("/ws", gin.WrapF(d.Hub.ServeWs))
	}

	waba := r.Group("/api/waba")
	if cfg.RateLimitEnabled {
		waba.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	{
		waba.GET("/health", dashboardHandler.GetHealth)

		// Webhook Routes
		waba.GET("/webhook", webhookHandler.VerifyWebhook)
		waba.POST("/webhook", webhookHandler.HandleEvent)
		waba.GET("/webhook/info", webhookHandler.Info)

		protected := waba.Group("", APIKey(cfg.APISecretKey))
		protected.GET("/chats", dashboardHandler.GetChats)
		protected.GET("/messages", dashboardHandler.GetMessages)
		protected.POST("/send", dashboardHandler.SendMessage)
		protected.GET("/contacts", contactHandler.GetContacts)

		// Automation Routes
		protected.POST("/test-auto-response", automationHandler.TestAutoResponse)
		protected.GET("/automation/rules", automationHandler.GetRules)
		protected.GET("/automation/logs", automationHandler.GetLogs)
		protected.GET("/automation/analytics", automationHandler.GetAnalytics)
	}

	r.NoRoute(func(c *gin.Context) {
		abortWithError(c, NewNotFoundError("route not found"))
	})

	return r
}
