package cache

import (
	"context"
	"math/big"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/imgmarket/storefront/internal/adapter"
	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/ledger"
	"github.com/imgmarket/storefront/internal/logger"
)

// Config holds cache tuning.
type Config struct {
	// Workers bounds the concurrent fan-out of a batch refresh.
	Workers int
	// QueueSize bounds the pool's backlog.
	QueueSize int
}

// ItemStateCache holds the locally cached ledger snapshot per item,
// scoped to one viewer. Batch refreshes fan out concurrently and every
// response is merged into the slot for its own identifier regardless of
// arrival order; correlation is by identifier, never by position in the
// batch. Overlapping refreshes of the same identifier resolve
// last-write-wins by completion time.
type ItemStateCache struct {
	ledger ledger.Ledger
	clock  adapter.Clock
	pool   pond.Pool

	mu      sync.RWMutex
	states  map[int64]*domain.ItemState
	viewer  string
	pending map[int64][]chan struct{}
}

// New creates an empty cache backed by the given ledger.
func New(cfg Config, lg ledger.Ledger, clock adapter.Clock) *ItemStateCache {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &ItemStateCache{
		ledger:  lg,
		clock:   clock,
		pool:    pond.NewPool(cfg.Workers, pond.WithQueueSize(cfg.QueueSize)),
		states:  make(map[int64]*domain.ItemState),
		pending: make(map[int64][]chan struct{}),
	}
}

// Refresh re-reads ledger state for the given identifiers on behalf of
// viewer and merges the results by identifier. It blocks until every
// fetch completes. A failed identifier keeps its prior snapshot and is
// reported in the returned map; failures never abort the rest of the
// batch. The returned map is empty when every fetch succeeded.
func (c *ItemStateCache) Refresh(ctx context.Context, viewer common.Address, ids []int64) map[int64]error {
	c.mu.Lock()
	if v := viewer.Hex(); !domain.SameAddress(c.viewer, v) {
		// Viewer changed: every viewer-scoped count is invalid.
		c.states = make(map[int64]*domain.ItemState)
		c.viewer = v
	}
	marks := make(map[int64]chan struct{}, len(ids))
	for _, id := range ids {
		done := make(chan struct{})
		c.pending[id] = append(c.pending[id], done)
		marks[id] = done
	}
	c.mu.Unlock()

	var (
		failMu sync.Mutex
		failed = make(map[int64]error)
	)

	group := c.pool.NewGroup()
	for _, id := range ids {
		id := id
		group.Submit(func() {
			err := c.fetchOne(ctx, viewer, id)
			c.finish(id, marks[id])
			if err != nil {
				logger.WarnCtx(ctx, "Item refresh failed",
					zap.Int64("item_id", id),
					zap.Error(err))
				failMu.Lock()
				failed[id] = err
				failMu.Unlock()
			}
		})
	}
	_ = group.Wait()

	return failed
}

// fetchOne reads the full ledger snapshot for one identifier and merges
// it into that identifier's slot.
func (c *ItemStateCache) fetchOne(ctx context.Context, viewer common.Address, id int64) error {
	price, err := c.ledger.GetPrice(ctx, id)
	if err != nil {
		return err
	}
	stock, err := c.ledger.GetStock(ctx, id)
	if err != nil {
		return err
	}
	count, err := c.ledger.GetUserPurchaseCount(ctx, id, viewer)
	if err != nil {
		return err
	}
	buyers, err := c.ledger.GetBuyers(ctx, id)
	if err != nil {
		return err
	}

	state := &domain.ItemState{
		ID:                  id,
		Price:               price,
		Stock:               stock,
		Buyers:              buyers,
		ViewerPurchaseCount: count,
		RefreshedAt:         c.clock.Now(),
	}

	c.mu.Lock()
	// The cache may have been rescoped to another viewer while the
	// reads were in flight; a count fetched for the old viewer must
	// not land under the new one.
	if domain.SameAddress(c.viewer, viewer.Hex()) {
		c.states[id] = state
	}
	c.mu.Unlock()
	return nil
}

// finish unregisters and closes one pending marker for id.
func (c *ItemStateCache) finish(id int64, done chan struct{}) {
	c.mu.Lock()
	chans := c.pending[id]
	for i, ch := range chans {
		if ch == done {
			c.pending[id] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(c.pending[id]) == 0 {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	close(done)
}

// WaitFresh blocks until every refresh currently in flight for id has
// completed. Callers making correctness-sensitive decisions await this
// before reading.
func (c *ItemStateCache) WaitFresh(ctx context.Context, id int64) error {
	c.mu.RLock()
	waiting := append([]chan struct{}(nil), c.pending[id]...)
	c.mu.RUnlock()

	for _, ch := range waiting {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Get returns a copy of the cached snapshot for id, if present.
func (c *ItemStateCache) Get(id int64) (*domain.ItemState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.states[id]
	if !ok {
		return nil, false
	}
	return state.Clone(), true
}

// SetPrice overwrites the cached price for id. Used after a confirmed
// price update, where the price is single-valued and just written, so
// no full refresh is required.
func (c *ItemStateCache) SetPrice(id int64, price *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.states[id]
	if !ok {
		state = &domain.ItemState{ID: id}
		c.states[id] = state
	}
	state.Price = new(big.Int).Set(price)
	state.RefreshedAt = c.clock.Now()
}

// Invalidate drops the cached snapshot for id. The next read requires a
// refresh. Used after a confirmed resale, where stock, buyers and the
// viewer's count all changed.
func (c *ItemStateCache) Invalidate(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, id)
}

// InvalidateViewer drops every cached snapshot along with the viewer
// scope. Used when the active account changed; the next refresh
// rescopes the cache to whoever is active then.
func (c *ItemStateCache) InvalidateViewer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = make(map[int64]*domain.ItemState)
	c.viewer = ""
}

// Viewer returns the address the cached counts are scoped to.
func (c *ItemStateCache) Viewer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewer
}

// Stop releases the worker pool.
func (c *ItemStateCache) Stop() {
	c.pool.StopAndWait()
}
