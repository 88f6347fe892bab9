package api

import (
	"context"

	"waha-gateway/internal/automation"
	"waha-gateway/internal/database"
	"waha-gateway/internal/models"
	"waha-gateway/internal/orchestrator"
	"waha-gateway/internal/pagination"
	"waha-gateway/internal/webhook"
)

// Service is the automation layer the handlers call into.
type Service interface {
	ListChats(ctx context.Context, q orchestrator.ListQuery) (pagination.Page[models.Chat], orchestrator.Source)
	ListMessages(ctx context.Context, q orchestrator.ListQuery) (pagination.Page[models.Message], orchestrator.Source)
	ListContacts(ctx context.Context, q orchestrator.ListQuery) (pagination.Page[models.Contact], orchestrator.Source)
	Send(ctx context.Context, req orchestrator.SendRequest) orchestrator.SendResponse
	TestAutoResponse(req orchestrator.TestRequest) orchestrator.TestResult
	HandleWebhook(ctx context.Context, ev webhook.Event) (webhook.Result, error)
	Health(ctx context.Context) orchestrator.HealthReport
	Rules() []automation.Rule
}

// LogReader serves the automation audit log.
type LogReader interface {
	Recent(ctx context.Context, limit int) ([]models.AutomationLog, error)
	Analytics(ctx context.Context) (database.Analytics, error)
}

// Limits bounds list queries.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}
