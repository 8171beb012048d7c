package sweep

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yairfalse/harava/types"
)

// WithRetry wraps a Mutator with exponential backoff around its single
// mutation call, for transient provider throttling. The engine itself
// never retries; throttling without this wrapper is reported as a
// failed outcome for manual re-run.
func WithRetry(m Mutator, maxElapsed time.Duration) Mutator {
	return &retryMutator{next: m, maxElapsed: maxElapsed}
}

type retryMutator struct {
	next            Mutator
	maxElapsed      time.Duration
	initialInterval time.Duration
}

func (m *retryMutator) Apply(ctx context.Context, r types.Resource) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = m.maxElapsed
	if m.initialInterval > 0 {
		bo.InitialInterval = m.initialInterval
	}

	return backoff.Retry(func() error {
		return m.next.Apply(ctx, r)
	}, backoff.WithContext(bo, ctx))
}

func (m *retryMutator) Describe() string { return m.next.Describe() }
