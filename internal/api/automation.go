package api

import (
	"strconv"

	"waha-gateway/internal/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

type AutomationHandler struct {
	svc  Service
	logs LogReader
}

// NewAutomationHandler builds the handler. logs may be nil when
// persistence is disabled.
func NewAutomationHandler(svc Service, logs LogReader) *AutomationHandler {
	return &AutomationHandler{svc: svc, logs: logs}
}

type testAutoResponseRequest struct {
	Message string `json:"message" binding:"required,max=4096"`
	ChatID  string `json:"chatId"`
	Session string `json:"session"`
	Type    string `json:"type" binding:"omitempty,oneof=text image document audio video"`
}

// TestAutoResponse runs the rule engine without sending anything.
func (h *AutomationHandler) TestAutoResponse(c *gin.Context) {
	var req testAutoResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewValidationError("invalid test request: "+err.Error()))
		return
	}

	respond(c, h.svc.TestAutoResponse(orchestrator.TestRequest{
		Message: req.Message,
		ChatID:  req.ChatID,
		Session: req.Session,
		Type:    req.Type,
	}))
}

// GetRules returns the rule table in evaluation order
func (h *AutomationHandler) GetRules(c *gin.Context) {
	respond(c, h.svc.Rules())
}

// GetLogs returns the most recent automation outcomes
func (h *AutomationHandler) GetLogs(c *gin.Context) {
	if h.logs == nil {
		abortWithError(c, NewNotFoundError("automation log storage is disabled"))
		return
	}

	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, NewValidationError("limit must be an integer"))
			return
		}
		limit = min(max(n, 1), maxLogLimit)
	}

	logs, err := h.logs.Recent(c.Request.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("[API] reading automation logs")
		abortWithError(c, NewInternalError())
		return
	}
	respond(c, logs)
}

// GetAnalytics returns automation analytics
func (h *AutomationHandler) GetAnalytics(c *gin.Context) {
	if h.logs == nil {
		abortWithError(c, NewNotFoundError("automation log storage is disabled"))
		return
	}

	stats, err := h.logs.Analytics(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("[API] computing automation analytics")
		abortWithError(c, NewInternalError())
		return
	}
	respond(c, stats)
}
