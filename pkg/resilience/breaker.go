// Package resilience builds circuit breakers around unreliable backends.
package resilience

import (
	"log/slog"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/sony/gobreaker/v2"
)

// halfOpenRequests is the number of trial requests let through while half-open.
const halfOpenRequests = 3

// NewCircuitBreaker creates a breaker named name from cfg.
// isSuccessful decides which errors count as backend failures. Errors it accepts,
// such as a cache miss, never trip the breaker.
func NewCircuitBreaker[T any](name string, cfg config.CircuitBreakerConfig, isSuccessful func(error) bool, logger *slog.Logger) *gobreaker.CircuitBreaker[T] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(counts.Requests > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return gobreaker.NewCircuitBreaker[T](st)
}
