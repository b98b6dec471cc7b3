package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/cmdgraph/internal/task"
)

// Barrier releases its waiters only once n of them have arrived. Bodies built
// with Body can complete only if n of them run at the same time, which makes
// it a direct proof of concurrent execution.
type Barrier struct {
	n       int
	mu      sync.Mutex
	arrived int
	open    chan struct{}
}

// NewBarrier creates a barrier for n parties.
func NewBarrier(n int) *Barrier {
	return &Barrier{n: n, open: make(chan struct{})}
}

// Body returns a body that waits at the barrier for up to timeout.
func (b *Barrier) Body(timeout time.Duration) task.Body {
	return func(ctx context.Context, _ *task.Task) error {
		b.mu.Lock()
		b.arrived++
		if b.arrived == b.n {
			close(b.open)
		}
		b.mu.Unlock()

		select {
		case <-b.open:
			return nil
		case <-time.After(timeout):
			b.mu.Lock()
			defer b.mu.Unlock()
			return fmt.Errorf("barrier: only %d of %d parties arrived", b.arrived, b.n)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
