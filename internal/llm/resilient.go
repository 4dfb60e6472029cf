package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"github.com/querydesk/querydesk/internal/observability"
)

// ResilienceConfig bounds calls to a remote provider.
type ResilienceConfig struct {
	Timeout         time.Duration // per attempt
	MaxTries        uint          // including the first attempt
	InitialBackoff  time.Duration
	BreakerFailures uint32        // consecutive failures before opening
	BreakerCooldown time.Duration // open → half-open
}

func (c ResilienceConfig) withDefaults() ResilienceConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxTries == 0 {
		c.MaxTries = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
	return c
}

// Resilient wraps a Provider with a per-attempt timeout, exponential backoff
// on retryable failures and a circuit breaker.
type Resilient struct {
	next    Provider
	cfg     ResilienceConfig
	breaker *gobreaker.CircuitBreaker[string]
}

func NewResilient(next Provider, cfg ResilienceConfig) *Resilient {
	cfg = cfg.withDefaults()
	name := next.Name()
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    name,
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// A cancelled request says nothing about the remote side.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("llm circuit breaker state change")
			observability.SetBreakerState(name, int(to))
		},
	})
	observability.SetBreakerState(name, int(gobreaker.StateClosed))
	return &Resilient{next: next, cfg: cfg, breaker: breaker}
}

func (r *Resilient) Name() string { return r.next.Name() }

// State exposes the breaker state for health reporting.
func (r *Resilient) State() gobreaker.State { return r.breaker.State() }

func (r *Resilient) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := r.breaker.Execute(func() (string, error) {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = r.cfg.InitialBackoff

		attempt := 0
		return backoff.Retry(ctx, func() (string, error) {
			attempt++
			callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
			defer cancel()

			out, err := r.next.Generate(callCtx, prompt)
			if err == nil {
				return out, nil
			}
			rge := remoteError(r.next.Name(), 0, err)
			if !rge.Retryable {
				return "", backoff.Permanent(rge)
			}
			log.Warn().Err(err).Str("provider", r.next.Name()).Int("attempt", attempt).Msg("generation attempt failed")
			return "", rge
		}, backoff.WithBackOff(b), backoff.WithMaxTries(r.cfg.MaxTries))
	})
	if err == nil {
		return text, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &RemoteGenerationError{Provider: r.next.Name(), Retryable: false, Err: err}
	}
	return "", remoteError(r.next.Name(), 0, err)
}
