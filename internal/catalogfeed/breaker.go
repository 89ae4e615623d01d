package catalogfeed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Clark-Hu/cinestream/internal/metrics"
)

// BreakerConfig tunes the circuit breaker around a feed client.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "catalog-feed",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerClient stops calling upstream after repeated failures. ErrNotFound
// is an answer, not a failure, and does not count towards tripping.
type BreakerClient struct {
	next Client
	cb   *gobreaker.CircuitBreaker[*Page]
}

// NewBreakerClient wraps next.
func NewBreakerClient(next Client, cfg BreakerConfig, logger zerolog.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetFeedBreakerState(name, int(to))
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	metrics.SetFeedBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return &BreakerClient{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[*Page](settings),
	}
}

// List forwards to the wrapped client unless the breaker is open, in which
// case it fails fast with gobreaker.ErrOpenState.
func (b *BreakerClient) List(ctx context.Context, page int) (*Page, error) {
	res, err := b.cb.Execute(func() (*Page, error) {
		return b.next.List(ctx, page)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordFeedPage("rejected")
	}
	return res, err
}

// State reports the breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}
