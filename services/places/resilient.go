package places

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Campfire/config/environment"
	"Campfire/metrics"
	"Campfire/models"
	"Campfire/utils"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Resilient wraps a backend with a circuit breaker, an outbound rate limit,
// per-call timeouts and metrics. Identical concurrent searches share one
// upstream call.
type Resilient struct {
	next    Provider
	breaker *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	timeout time.Duration
	group   singleflight.Group
}

func NewResilient(next Provider, cfg environment.PlacesConfig, breaker environment.BreakerConfig) *Resilient {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Resilient{
		next:    next,
		breaker: utils.NewBreaker[any]("places-"+next.Name(), breaker, func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		}),
		limiter: rate.NewLimiter(limit, burst),
		timeout: cfg.Timeout,
	}
}

func (r *Resilient) Name() string { return r.next.Name() }

func (r *Resilient) GetDetails(ctx context.Context, placeID string) (*models.Place, error) {
	res, err := r.call(ctx, "details", func(ctx context.Context) (any, error) {
		return r.next.GetDetails(ctx, placeID)
	})
	if err != nil {
		return nil, err
	}
	return res.(*models.Place), nil
}

func (r *Resilient) SearchNearby(ctx context.Context, q SearchQuery) ([]models.Place, error) {
	res, err, shared := r.group.Do(q.Key(), func() (any, error) {
		// detached so one caller's cancellation doesn't fail the others
		return r.call(context.WithoutCancel(ctx), "search", func(ctx context.Context) (any, error) {
			return r.next.SearchNearby(ctx, q)
		})
	})
	if err != nil {
		return nil, err
	}
	places := res.([]models.Place)
	if shared {
		// callers may mutate what they get back
		places = append([]models.Place(nil), places...)
	}
	return places, nil
}

func (r *Resilient) Autocomplete(ctx context.Context, input, city string) ([]models.PlaceSuggestion, error) {
	res, err := r.call(ctx, "autocomplete", func(ctx context.Context) (any, error) {
		return r.next.Autocomplete(ctx, input, city)
	})
	if err != nil {
		return nil, err
	}
	return res.([]models.PlaceSuggestion), nil
}

func (r *Resilient) call(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("places %s throttled: %w", op, err)
	}

	start := time.Now()
	res, err := r.breaker.Execute(func() (any, error) {
		if r.timeout <= 0 {
			return fn(ctx)
		}
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return fn(callCtx)
	})
	metrics.RecordPlacesCall(r.next.Name(), op, time.Since(start), err)

	if utils.IsBreakerRejection(err) {
		return nil, fmt.Errorf("places %s unavailable: %w", op, err)
	}
	return res, err
}
