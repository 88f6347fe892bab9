package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"waha-gateway/internal/config"
	"waha-gateway/internal/events"
	"waha-gateway/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDisabled is returned by Open when persistence is switched off.
var ErrDisabled = errors.New("database disabled")

// Open connects to the configured database and migrates the audit table.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBPath)
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	case "none":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.DBDriver, err)
	}
	logrus.WithField("driver", cfg.DBDriver).Info("[DB] connected")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.AutomationLog{}); err != nil {
		return fmt.Errorf("running auto-migration: %w", err)
	}
	return nil
}

// LogStore persists webhook outcomes and answers audit queries.
type LogStore struct {
	db *gorm.DB
}

func NewLogStore(db *gorm.DB) *LogStore {
	return &LogStore{db: db}
}

// Publish stores ev as an automation_logs row.
func (s *LogStore) Publish(ctx context.Context, ev events.Event) error {
	row := models.AutomationLog{
		EventID:       ev.ID,
		EventType:     ev.Source,
		Session:       ev.Session,
		ChatID:        ev.ChatID,
		RuleID:        ev.RuleID,
		Matched:       ev.Matched,
		Reply:         ev.Reply,
		SendAttempted: ev.SendAttempted,
		SendStatus:    ev.SendStatus,
		ErrorMessage:  ev.Error,
		CreatedAt:     ev.OccurredAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("writing automation log: %w", err)
	}
	return nil
}

// Recent returns the newest limit rows.
func (s *LogStore) Recent(ctx context.Context, limit int) ([]models.AutomationLog, error) {
	var logs []models.AutomationLog
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("reading automation logs: %w", err)
	}
	return logs, nil
}

type RuleCount struct {
	RuleID string `json:"rule_id"`
	Count  int64  `json:"count"`
}

type Analytics struct {
	TotalEvents     int64       `json:"total_events"`
	AutomatedEvents int64       `json:"automated_events"`
	MatchedEvents   int64       `json:"matched_events"`
	RepliesSent     int64       `json:"replies_sent"`
	SendFailures    int64       `json:"send_failures"`
	SendsSkipped    int64       `json:"sends_skipped"`
	ByRule          []RuleCount `json:"by_rule"`
}

// Analytics summarises the audit log.
func (s *LogStore) Analytics(ctx context.Context) (Analytics, error) {
	db := s.db.WithContext(ctx)
	logs := func() *gorm.DB { return db.Model(&models.AutomationLog{}) }

	var a Analytics
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&a.TotalEvents, logs()},
		{&a.AutomatedEvents, logs().Where("send_status <> ?", "")},
		{&a.MatchedEvents, logs().Where("matched = ?", true)},
		{&a.RepliesSent, logs().Where("send_status = ?", "sent")},
		{&a.SendFailures, logs().Where("send_status = ?", "send-failed")},
		{&a.SendsSkipped, logs().Where("send_status = ?", "not-attempted")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return Analytics{}, fmt.Errorf("counting automation logs: %w", err)
		}
	}

	a.ByRule = []RuleCount{}
	err := logs().
		Select("rule_id, count(*) as count").
		Where("matched = ?", true).
		Group("rule_id").
		Order("count DESC").
		Order("rule_id").
		Scan(&a.ByRule).Error
	if err != nil {
		return Analytics{}, fmt.Errorf("grouping automation logs: %w", err)
	}
	return a, nil
}
