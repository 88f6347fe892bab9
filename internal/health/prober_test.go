package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"waha-gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProbe struct {
	calls atomic.Int64
	fail  atomic.Bool
}

func (c *countingProbe) ProbeHealth(context.Context) (models.GatewayHealth, error) {
	c.calls.Add(1)
	if c.fail.Load() {
		return models.GatewayHealth{Status: "disconnected"}, errors.New("down")
	}
	return models.GatewayHealth{Status: "connected"}, nil
}

func TestProber_BacksOffWhileDegraded(t *testing.T) {
	p := NewProber(&countingProbe{}, 10*time.Millisecond, 40*time.Millisecond)
	p.backoff.RandomizationFactor = 0
	p.backoff.Multiplier = 2
	p.backoff.Reset()

	down := errors.New("down")
	assert.Equal(t, 10*time.Millisecond, p.observe(down))
	assert.Equal(t, 20*time.Millisecond, p.observe(down))
	assert.Equal(t, 40*time.Millisecond, p.observe(down))
	assert.Equal(t, 40*time.Millisecond, p.observe(down))
	assert.False(t, p.Healthy())

	assert.Equal(t, 10*time.Millisecond, p.observe(nil))
	assert.True(t, p.Healthy())
	assert.Equal(t, 10*time.Millisecond, p.observe(down), "recovery resets the backoff")
}

func TestProber_RunsUntilStopped(t *testing.T) {
	probe := &countingProbe{}
	p := NewProber(probe, 5*time.Millisecond, 20*time.Millisecond)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return probe.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	calls := probe.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, probe.calls.Load(), "no probes after Stop")
}

func TestProber_TracksFailure(t *testing.T) {
	probe := &countingProbe{}
	probe.fail.Store(true)
	p := NewProber(probe, 5*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	require.Eventually(t, func() bool { return !p.Healthy() }, time.Second, 5*time.Millisecond)

	probe.fail.Store(false)
	require.Eventually(t, p.Healthy, time.Second, 5*time.Millisecond)

	cancel()
	p.Stop()
}

func TestStats_Snapshot(t *testing.T) {
	s := NewStats()
	s.RequestsTotal.Add(3)
	s.FallbacksServed.Add(1)

	snap := s.Snapshot()
	assert.Equal(t, int64(3), snap.RequestsTotal)
	assert.Equal(t, int64(1), snap.FallbacksServed)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, int64(0))
}
