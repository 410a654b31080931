// Package inflight rejects a second concurrent run of the same user action.
package inflight

import (
	"context"
	"sync"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

// Guard hands out one lease per key at a time. Acquire fails with
// domain.ErrActionInFlight while another holder has the key.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Key builds the lease key for a user action.
func Key(userID, action string) string {
	return "inflight:" + action + ":" + userID
}

type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, domain.ErrActionInFlight
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
