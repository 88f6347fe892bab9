package api

import (
	"encoding/json"
	"io"
	"net/http"

	"waha-gateway/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	svc          Service
	secret       string
	verifyToken  string
	autoResponse bool
}

func NewWebhookHandler(svc Service, secret, verifyToken string, autoResponse bool) *WebhookHandler {
	return &WebhookHandler{
		svc:          svc,
		secret:       secret,
		verifyToken:  verifyToken,
		autoResponse: autoResponse,
	}
}

// VerifyWebhook answers the gateway's subscription handshake.
func (h *WebhookHandler) VerifyWebhook(c *gin.Context) {
	mode := firstQuery(c, "hub.mode", "mode")
	token := firstQuery(c, "hub.verify_token", "verify_token")
	challenge := firstQuery(c, "hub.challenge", "challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		logrus.Info("[WEBHOOK] verified successfully")
		c.String(http.StatusOK, challenge)
		return
	}
	abortWithError(c, &APIError{
		Status:  http.StatusForbidden,
		Code:    CodeWebhookVerification,
		Message: "webhook verification failed",
	})
}

// HandleEvent processes one inbound gateway event. Downstream send
// failures are reported in the body, never as an HTTP failure.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		abortWithError(c, NewValidationError("could not read webhook body"))
		return
	}

	if h.secret != "" {
		if !webhook.VerifySignature(h.secret, body, c.GetHeader(webhook.SignatureHeader)) {
			logrus.WithField("request_id", c.GetString("request_id")).Warn("[WEBHOOK] invalid signature")
			abortWithError(c, &APIError{
				Status:  http.StatusForbidden,
				Code:    CodeInvalidSignature,
				Message: "invalid webhook signature",
			})
			return
		}
	}

	var ev webhook.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		abortWithError(c, NewValidationError("invalid webhook payload: "+err.Error()))
		return
	}

	res, err := h.svc.HandleWebhook(c.Request.Context(), ev)
	if err != nil {
		logrus.WithError(err).Error("[WEBHOOK] processing failed")
		abortWithError(c, NewInternalError())
		return
	}
	respond(c, res)
}

// Info describes the webhook endpoint.
func (h *WebhookHandler) Info(c *gin.Context) {
	respond(c, gin.H{
		"endpoint":               "/api/waba/webhook",
		"supported_events":       webhook.SupportedEvents,
		"signature_header":       webhook.SignatureHeader,
		"signature_verification": h.secret != "",
		"auto_response":          h.autoResponse,
	})
}

func firstQuery(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			return v
		}
	}
	return ""
}
