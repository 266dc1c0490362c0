// Package notify delivers transient user-facing notices (the toasts of the
// mobile UI). The engine emits one per rejected action; a limiter keeps a
// click storm from flooding whatever surface renders them.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Notifier receives user-facing notices.
type Notifier interface {
	Notice(message string)
}

// Throttled fans notices out to a sink, dropping (but logging) what exceeds
// the rate limit.
type Throttled struct {
	limiter *rate.Limiter
	sink    func(message string)
	logger  *zerolog.Logger

	mu      sync.Mutex
	dropped int
}

// NewThrottled creates a notifier allowing perSecond notices with the given
// burst. sink may be nil; notices then only reach the log.
func NewThrottled(perSecond float64, burst int, sink func(string), logger *zerolog.Logger) *Throttled {
	if perSecond <= 0 {
		perSecond = 2
	}
	if burst <= 0 {
		burst = 4
	}
	return &Throttled{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		sink:    sink,
		logger:  logger,
	}
}

// Notice delivers or drops one message.
func (t *Throttled) Notice(message string) {
	if !t.limiter.Allow() {
		t.mu.Lock()
		t.dropped++
		dropped := t.dropped
		t.mu.Unlock()
		if t.logger != nil {
			t.logger.Debug().Int("dropped", dropped).Str("message", message).Msg("notice throttled")
		}
		return
	}
	if t.logger != nil {
		t.logger.Info().Str("message", message).Msg("notice")
	}
	if t.sink != nil {
		t.sink(message)
	}
}

// Dropped returns how many notices were throttled away.
func (t *Throttled) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}
