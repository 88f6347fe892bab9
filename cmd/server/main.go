package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waha-gateway/internal/api"
	"waha-gateway/internal/automation"
	"waha-gateway/internal/config"
	"waha-gateway/internal/database"
	"waha-gateway/internal/events"
	"waha-gateway/internal/fallback"
	"waha-gateway/internal/health"
	"waha-gateway/internal/logging"
	"waha-gateway/internal/orchestrator"
	"waha-gateway/internal/webhook"
	"waha-gateway/internal/whatsapp"
	"waha-gateway/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout); err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	engine, err := buildEngine(cfg)
	if err != nil {
		logrus.Fatalf("Failed to load automation rules: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	availability := whatsapp.NewAvailability()
	client := whatsapp.NewClient(cfg, availability)
	stats := health.NewStats()

	hub := ws.NewHub(cfg.AllowedOrigins)
	go hub.Run(ctx)
	publishers := events.Multi{hub}

	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			logrus.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Close()
		publishers = append(publishers, nc)
	}

	// Logs stays a nil interface when persistence is off so the log
	// endpoints answer NOT_FOUND.
	var logs api.LogReader
	db, err := database.Open(cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		logrus.Info("[DB] persistence disabled")
	case err != nil:
		logrus.Fatalf("Failed to open database: %v", err)
	default:
		store := database.NewLogStore(db)
		publishers = append(publishers, store)
		logs = store
	}

	dispatcher := webhook.NewDispatcher(engine, client, availability, publishers, webhook.Options{
		AutoResponseEnabled: cfg.AutoResponseEnabled,
		DefaultSession:      cfg.DefaultSession,
	})
	svc := orchestrator.New(client, fallback.NewGenerator(), engine, dispatcher, availability, stats, orchestrator.Options{
		DefaultSession:      cfg.DefaultSession,
		MaxLimit:            cfg.MaxLimit,
		AutoResponseEnabled: cfg.AutoResponseEnabled,
		Features: map[string]bool{
			"authentication":    cfg.AuthEnabled(),
			"rate_limiting":     cfg.RateLimitEnabled,
			"webhook_signature": cfg.WebhookSecret != "",
			"persistence":       logs != nil,
			"nats":              cfg.NATSURL != "",
			"websocket":         true,
		},
	})

	prober := health.NewProber(client, cfg.HealthCheckInterval, cfg.HealthCheckMaxInterval)
	prober.Start(ctx)
	defer prober.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(api.Deps{Config: cfg, Service: svc, Logs: logs, Hub: hub, Stats: stats}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"waha_url": client.BaseURL(),
			"session":  cfg.DefaultSession,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}

func buildEngine(cfg *config.Config) (*automation.Engine, error) {
	if cfg.RulesFile == "" {
		return automation.NewEngine(automation.DefaultRules(), automation.DefaultReply)
	}

	rules, defaultReply, err := automation.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"file": cfg.RulesFile, "rules": len(rules)}).Info("[AUTOMATION] rules loaded")
	return automation.NewEngine(rules, defaultReply)
}
