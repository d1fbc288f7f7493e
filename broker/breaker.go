package broker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/commssoldier/win-trader-bot/market"
)

// BreakerProvider wraps a Provider with a circuit breaker so repeated
// connectivity faults stop hammering the terminal. While the breaker is
// open the engine sees a disconnected provider and degrades; data faults
// (ErrNoSnapshot) pass through without tripping it.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker wraps p. The breaker opens after three consecutive failures
// and probes again after 30 seconds.
func NewBreaker(p Provider, log zerolog.Logger) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        "provider",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider breaker state change")
		},
	}
	return &BreakerProvider{inner: p, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerProvider) EnsureConnection(ctx context.Context) bool {
	ok, err := b.cb.Execute(func() (any, error) {
		if !b.inner.EnsureConnection(ctx) {
			return false, errors.New("provider: connection down")
		}
		return true, nil
	})
	if err != nil {
		return false
	}
	return ok.(bool)
}

func (b *BreakerProvider) LastClosedCandleTime(ctx context.Context, tf market.Timeframe) (time.Time, bool) {
	// Candle-time lookups are cheap and their absence is already a skip
	// condition; no breaker accounting needed.
	return b.inner.LastClosedCandleTime(ctx, tf)
}

func (b *BreakerProvider) BuildSnapshot(ctx context.Context, symbol string) (*market.Snapshot, error) {
	res, err := b.cb.Execute(func() (any, error) {
		snap, err := b.inner.BuildSnapshot(ctx, symbol)
		if errors.Is(err, ErrNoSnapshot) {
			// Data fault, not connectivity: report success to the breaker
			// and surface the skip to the caller.
			return (*market.Snapshot)(nil), nil
		}
		return snap, err
	})
	if err != nil {
		return nil, err
	}
	snap := res.(*market.Snapshot)
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

func (b *BreakerProvider) SubmitOrder(ctx context.Context, symbol string, req OrderRequest) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.SubmitOrder(ctx, symbol, req)
	})
	return err
}
