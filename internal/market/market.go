package market

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/imgmarket/storefront/internal/cache"
	"github.com/imgmarket/storefront/internal/catalog"
	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/ledger"
)

// WorkflowState names the step a mutating workflow is in. States are
// attached to logs so an operator can see where a submission stopped.
type WorkflowState string

const (
	StateIdle                 WorkflowState = "idle"
	StateGuarding             WorkflowState = "guarding"
	StateSubmitting           WorkflowState = "submitting"
	StateAwaitingConfirmation WorkflowState = "awaiting_confirmation"
	StateReconciling          WorkflowState = "reconciling"
	StateFailed               WorkflowState = "failed"
	StateSucceeded            WorkflowState = "succeeded"
)

// Config holds marketplace policy.
type Config struct {
	// PurchaseLimit is the per-viewer purchase cap per item.
	PurchaseLimit uint64
}

// Market orchestrates the mutating workflows over the catalog, the
// state cache and the ledger, scoped to the session's viewer.
type Market struct {
	cfg     Config
	catalog *catalog.Index
	ledger  ledger.Ledger
	cache   *cache.ItemStateCache
	session *Session
	guard   *inflightGuard
}

// New creates the market core.
func New(cfg Config, cat *catalog.Index, lg ledger.Ledger, stateCache *cache.ItemStateCache, session *Session) *Market {
	if cfg.PurchaseLimit == 0 {
		cfg.PurchaseLimit = 3
	}
	return &Market{
		cfg:     cfg,
		catalog: cat,
		ledger:  lg,
		cache:   stateCache,
		session: session,
		guard:   newInflightGuard(),
	}
}

// PurchaseLimit returns the configured per-viewer cap.
func (m *Market) PurchaseLimit() uint64 {
	return m.cfg.PurchaseLimit
}

// RefreshAll re-reads ledger state for the whole catalog on behalf of
// the current viewer. Single-item failures are returned per identifier
// and do not abort the rest of the batch.
func (m *Market) RefreshAll(ctx context.Context) (map[int64]error, error) {
	viewer, err := m.session.Viewer(ctx)
	if err != nil {
		return nil, err
	}
	ids := m.catalog.IDs()
	failed := m.cache.Refresh(ctx, viewer, ids)
	for _, id := range ids {
		if _, stillFailed := failed[id]; !stillFailed {
			m.guard.clearUnknown(id)
		}
	}
	return failed, nil
}

// refreshItem re-reads one identifier for viewer and clears its
// re-query requirement on success.
func (m *Market) refreshItem(ctx context.Context, viewer common.Address, id int64) error {
	if failed := m.cache.Refresh(ctx, viewer, []int64{id}); len(failed) > 0 {
		return fmt.Errorf("failed to refresh item %d: %w", id, failed[id])
	}
	m.guard.clearUnknown(id)
	return nil
}

// freshState refreshes id and returns the resulting snapshot. Mutating
// workflows enter through here: an identifier flagged for re-query is
// only unblocked by this succeeding.
func (m *Market) freshState(ctx context.Context, viewer common.Address, id int64) (*domain.ItemState, error) {
	if !m.catalog.Has(id) {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}

	if err := m.refreshItem(ctx, viewer, id); err != nil {
		if m.guard.requiresRequery(id) {
			return nil, fmt.Errorf("item %d had an ambiguous outcome and the re-query failed: %w", id, domain.ErrStaleState)
		}
		return nil, err
	}

	if err := m.cache.WaitFresh(ctx, id); err != nil {
		return nil, err
	}
	state, ok := m.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("item %d has no cached state after refresh", id)
	}
	return state, nil
}
