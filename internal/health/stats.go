package health

import (
	"sync/atomic"
	"time"
)

// Stats holds process-wide counters. The zero value is ready to use.
type Stats struct {
	RequestsTotal     atomic.Int64
	ErrorsTotal       atomic.Int64
	WebhooksReceived  atomic.Int64
	AutoResponsesSent atomic.Int64
	SendFailures      atomic.Int64
	FallbacksServed   atomic.Int64

	startedAt time.Time
}

func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	RequestsTotal     int64 `json:"requests_total"`
	ErrorsTotal       int64 `json:"errors_total"`
	WebhooksReceived  int64 `json:"webhooks_received"`
	AutoResponsesSent int64 `json:"responses_sent"`
	SendFailures      int64 `json:"send_failures"`
	FallbacksServed   int64 `json:"fallbacks_served"`
	UptimeSeconds     int64 `json:"uptime_seconds"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		RequestsTotal:     s.RequestsTotal.Load(),
		ErrorsTotal:       s.ErrorsTotal.Load(),
		WebhooksReceived:  s.WebhooksReceived.Load(),
		AutoResponsesSent: s.AutoResponsesSent.Load(),
		SendFailures:      s.SendFailures.Load(),
		FallbacksServed:   s.FallbacksServed.Load(),
	}
	if !s.startedAt.IsZero() {
		snap.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())
	}
	return snap
}
