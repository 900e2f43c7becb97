package gateways

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/gateways"
)

// ResilienceOptions configures rate limiting, retries and timeouts around a
// vulnerability gateway. Zero values disable the respective feature.
type ResilienceOptions struct {
	RequestsPerSecond float64
	Burst             int
	Retries           uint64
	AttemptTimeout    time.Duration
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
}

// resilientGateway decorates a VulnerabilityGateway with a shared rate
// limiter, per-attempt timeouts and exponential backoff retries
type resilientGateway struct {
	next    gateways.VulnerabilityGateway
	limiter *rate.Limiter
	opts    ResilienceOptions
	logger  interfaces.Logger
}

// NewResilientGateway wraps next with the given resilience policy
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewResilientGateway(next gateways.VulnerabilityGateway, opts ResilienceOptions, logger interfaces.Logger) *resilientGateway {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 10 * time.Second
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &resilientGateway{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		opts:    opts,
		logger:  logger,
	}
}

// Lookup performs the wrapped lookup, retrying transient failures
func (g *resilientGateway) Lookup(ctx context.Context, component entities.Component) ([]entities.Vulnerability, error) {
	var result []entities.Vulnerability

	operation := func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		attemptCtx := ctx
		if g.opts.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, g.opts.AttemptTimeout)
			defer cancel()
		}

		vulns, err := g.next.Lookup(attemptCtx, component)
		if err != nil {
			if ctx.Err() != nil || !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = vulns
		return nil
	}

	notify := func(err error, wait time.Duration) {
		g.logger.Warn("vulnerability lookup failed, retrying",
			interfaces.F("component", component.ID),
			interfaces.F("wait", wait.String()),
			interfaces.F("error", err.Error()),
		)
	}

	if err := backoff.RetryNotify(operation, g.backOff(ctx), notify); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *resilientGateway) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = g.opts.InitialBackoff
	exp.MaxInterval = g.opts.MaxBackoff
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, g.opts.Retries), ctx)
}
