package source

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

var (
	breakersMu sync.Mutex
	breakers   = map[string]*circuit.Breaker{}
)

// getBreaker returns or creates the per-host circuit breaker guarding
// network operations against a source's remote. Trips once 5 failures
// have been counted in the breaker's rolling window, backs off
// exponentially while open.
func getBreaker(rawURL string) *circuit.Breaker {
	host := hostOf(rawURL)

	breakersMu.Lock()
	defer breakersMu.Unlock()
	if b, ok := breakers[host]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0

	b := circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	breakers[host] = b
	return b
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}

// retryWithBackoff runs op until it succeeds, ctx is done, or the backoff
// policy gives up (NextBackOff returns backoff.Stop).
func retryWithBackoff(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 20 * time.Second

	for {
		err := op()
		if err == nil {
			return nil
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
