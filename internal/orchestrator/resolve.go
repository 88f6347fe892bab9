package orchestrator

import (
	"context"

	"waha-gateway/internal/whatsapp"

	"github.com/sirupsen/logrus"
)

// Source tells the caller where response data came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// resolve is the single live-or-synthetic decision used by every read and
// send path. A live failure is logged and absorbed, never returned.
func resolve[T any](ctx context.Context, op string, forceFallback bool, live func(context.Context) (T, error), synth func() T) (T, Source) {
	if !forceFallback {
		data, err := live(ctx)
		if err == nil {
			return data, SourceLive
		}
		logrus.WithFields(logrus.Fields{
			"op":     op,
			"reason": whatsapp.ReasonOf(err),
		}).WithError(err).Warn("[GATEWAY] live call failed, serving fallback data")
	}
	return synth(), SourceFallback
}
