package extract

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Resilient wraps an Extractor with a circuit breaker so a failing
// provider stops receiving paid calls until it recovers.
type Resilient struct {
	inner   Extractor
	breaker *gobreaker.CircuitBreaker[string]
}

// NewResilient decorates an extractor with a circuit breaker. The breaker
// opens after three consecutive failures and probes again after 30 seconds.
func NewResilient(inner Extractor) *Resilient {
	settings := gobreaker.Settings{
		Name:        "extractor",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("Extractor circuit state change", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Resilient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Extract forwards to the wrapped extractor while the circuit is closed.
// While open it fails fast with gobreaker.ErrOpenState.
func (r *Resilient) Extract(imageData []byte, contentType string) (string, error) {
	return r.breaker.Execute(func() (string, error) {
		return r.inner.Extract(imageData, contentType)
	})
}

// Close closes the wrapped extractor
func (r *Resilient) Close() error {
	return r.inner.Close()
}
