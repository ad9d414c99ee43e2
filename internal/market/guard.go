package market

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/imgmarket/storefront/internal/domain"
)

// inflightGuard admits at most one mutating workflow per (item, viewer)
// pair. A second attempt while one is in flight gets ErrBusy rather
// than being queued, so repeated boundary invocations can never produce
// duplicate transactions. It also tracks identifiers whose last
// submission ended Unknown: those require a successful ledger re-query
// before any further mutation is admitted.
type inflightGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
	tainted  map[int64]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{
		inflight: make(map[string]struct{}),
		tainted:  make(map[int64]struct{}),
	}
}

func guardKey(id int64, viewer common.Address) string {
	return fmt.Sprintf("%d|%s", id, strings.ToLower(viewer.Hex()))
}

// acquire reserves the (id, viewer) slot. The returned release func
// must be called exactly once when the workflow leaves flight.
func (g *inflightGuard) acquire(id int64, viewer common.Address) (func(), error) {
	key := guardKey(id, viewer)

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrBusy)
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}

// markUnknown records that the last submission for id had an ambiguous
// outcome.
func (g *inflightGuard) markUnknown(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tainted[id] = struct{}{}
}

// clearUnknown records that a ledger re-query for id succeeded.
func (g *inflightGuard) clearUnknown(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.tainted, id)
}

// requiresRequery reports whether id is blocked pending a re-query.
func (g *inflightGuard) requiresRequery(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tainted[id]
	return ok
}
