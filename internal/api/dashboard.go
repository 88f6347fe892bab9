package api

import (
	"strconv"
	"strings"

	"waha-gateway/internal/orchestrator"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	svc    Service
	limits Limits
}

func NewDashboardHandler(svc Service, limits Limits) *DashboardHandler {
	return &DashboardHandler{svc: svc, limits: limits}
}

// GetChats lists chats, live or synthetic.
func (h *DashboardHandler) GetChats(c *gin.Context) {
	q, apiErr := parseListQuery(c, h.limits)
	if apiErr != nil {
		abortWithError(c, apiErr)
		return
	}

	page, src := h.svc.ListChats(c.Request.Context(), q)
	respondWithSource(c, page, src)
}

// GetMessages lists the messages of the chat named by ?chatId=.
func (h *DashboardHandler) GetMessages(c *gin.Context) {
	q, apiErr := parseListQuery(c, h.limits)
	if apiErr != nil {
		abortWithError(c, apiErr)
		return
	}
	if q.ChatID == "" {
		abortWithError(c, NewValidationError("chatId is required"))
		return
	}

	page, src := h.svc.ListMessages(c.Request.Context(), q)
	respondWithSource(c, page, src)
}

type sendMessageRequest struct {
	ChatID       string `json:"chatId" binding:"required"`
	Message      string `json:"message" binding:"required,max=4096"`
	Type         string `json:"type" binding:"omitempty,oneof=text image document audio video"`
	Session      string `json:"session"`
	AutoResponse bool   `json:"autoResponse"`
}

// SendMessage sends a message through the gateway.
func (h *DashboardHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewValidationError("invalid send request: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.ChatID) == "" || strings.TrimSpace(req.Message) == "" {
		abortWithError(c, NewValidationError("chatId and message must not be blank"))
		return
	}

	res := h.svc.Send(c.Request.Context(), orchestrator.SendRequest{
		ChatID:       req.ChatID,
		Message:      req.Message,
		Type:         req.Type,
		Session:      req.Session,
		AutoResponse: req.AutoResponse,
	})
	respond(c, res)
}

// GetHealth reports gateway availability, feature flags and counters.
func (h *DashboardHandler) GetHealth(c *gin.Context) {
	respond(c, h.svc.Health(c.Request.Context()))
}

func parseListQuery(c *gin.Context, limits Limits) (orchestrator.ListQuery, *APIError) {
	q := orchestrator.ListQuery{
		Session:   c.Query("session"),
		ChatID:    c.Query("chatId"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Limit:     limits.DefaultLimit,
	}

	var err error
	if raw := c.Query("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil {
			return q, NewValidationError("limit must be an integer")
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if q.Offset, err = strconv.Atoi(raw); err != nil {
			return q, NewValidationError("offset must be an integer")
		}
	}
	if raw := c.Query("useMock"); raw != "" {
		if q.UseMock, err = strconv.ParseBool(raw); err != nil {
			return q, NewValidationError("useMock must be a boolean")
		}
	}
	return q, nil
}
