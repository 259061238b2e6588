package utils

import (
	"errors"

	"Campfire/config/environment"
	"Campfire/logging"
	"Campfire/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

// NewBreaker builds a circuit breaker that trips after FailureThreshold
// consecutive failures and reports its transitions. isSuccessful may be nil.
func NewBreaker[T any](name string, cfg environment.BreakerConfig, isSuccessful func(error) bool) *gobreaker.CircuitBreaker[T] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:         name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: isSuccessful,
		ReadyToTrip:  func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})
}

// IsBreakerRejection is true when the breaker refused the call outright
func IsBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
