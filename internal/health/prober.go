package health

import (
	"context"
	"sync"
	"time"

	"waha-gateway/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Probe checks the gateway and refreshes the shared availability cell.
type Probe interface {
	ProbeHealth(ctx context.Context) (models.GatewayHealth, error)
}

// Prober probes the gateway on a fixed interval while it is healthy and
// backs off exponentially, up to maxInterval, while it is not.
type Prober struct {
	probe       Probe
	interval    time.Duration
	maxInterval time.Duration
	log         *logrus.Entry

	mu      sync.Mutex
	backoff *backoff.ExponentialBackOff
	healthy bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewProber(probe Probe, interval, maxInterval time.Duration) *Prober {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	return &Prober{
		probe:       probe,
		interval:    interval,
		maxInterval: maxInterval,
		log:         logrus.WithField("component", "prober"),
		backoff:     b,
		healthy:     true,
	}
}

// Start runs the probe loop in the background until Stop or ctx is done.
func (p *Prober) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

// Stop ends the probe loop and waits for it to exit.
func (p *Prober) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Prober) run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		_, err := p.probe.ProbeHealth(ctx)
		if ctx.Err() != nil {
			return
		}
		timer.Reset(p.observe(err))
	}
}

// observe records a probe result and returns the delay before the next one.
func (p *Prober) observe(err error) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		if !p.healthy {
			p.log.Info("[HEALTH] gateway reachable again")
		}
		p.healthy = true
		p.backoff.Reset()
		return p.interval
	}

	if p.healthy {
		p.log.WithError(err).Warn("[HEALTH] gateway unreachable, switching to fallback data")
	}
	p.healthy = false

	next := p.backoff.NextBackOff()
	if next == backoff.Stop || next > p.maxInterval {
		next = p.maxInterval
	}
	p.log.WithField("retry_in", next.String()).Debug("[HEALTH] probe failed")
	return next
}

func (p *Prober) Healthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthy
}
