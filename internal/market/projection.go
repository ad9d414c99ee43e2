package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/history"
)

// ItemProjection is the read-only view the rendering boundary consumes.
// The core never reaches into rendering state; this is the whole
// surface per identifier.
type ItemProjection struct {
	ID                  int64              `json:"id"`
	Name                string             `json:"name"`
	Picture             string             `json:"picture"`
	Description         string             `json:"description"`
	Price               *big.Int           `json:"price"`
	Stock               uint64             `json:"stock"`
	Eligibility         domain.Eligibility `json:"eligibility"`
	ViewerPurchaseCount uint64             `json:"viewer_purchase_count"`
	Buyers              []string           `json:"buyers"`
	OwnedCount          uint64             `json:"owned_count"`
	History             []history.Entry    `json:"history"`
}

// ProjectItem builds the boundary view for one identifier from the
// catalog entry, the cached snapshot and the viewer's purchase history.
func (m *Market) ProjectItem(ctx context.Context, id int64) (*ItemProjection, error) {
	item, err := m.catalog.Get(id)
	if err != nil {
		return nil, err
	}

	viewer, err := m.session.Viewer(ctx)
	if err != nil {
		return nil, err
	}

	// A provider account switch leaves the cached counts scoped to the
	// previous viewer. Drop them so the read below refetches for the
	// one actually asking.
	if !domain.SameAddress(m.cache.Viewer(), viewer.Hex()) {
		m.cache.InvalidateViewer()
	}

	if err := m.cache.WaitFresh(ctx, id); err != nil {
		return nil, err
	}
	state, ok := m.cache.Get(id)
	if !ok {
		if err := m.refreshItem(ctx, viewer, id); err != nil {
			return nil, err
		}
		if state, ok = m.cache.Get(id); !ok {
			return nil, fmt.Errorf("item %d has no cached state after refresh", id)
		}
	}

	records, err := m.ledger.GetPurchaseHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ItemProjection{
		ID:                  item.ID,
		Name:                item.Name,
		Picture:             item.Picture,
		Description:         item.Description,
		Price:               state.Price,
		Stock:               state.Stock,
		Eligibility:         Eligibility(state, m.cfg.PurchaseLimit),
		ViewerPurchaseCount: state.ViewerPurchaseCount,
		Buyers:              state.Buyers,
		OwnedCount:          state.ViewerPurchaseCount,
		History:             history.Project(records, viewer.Hex()),
	}, nil
}

// ProjectCollection builds the owned-items view: every catalog entry
// the viewer currently holds at least one purchase of. The whole
// catalog is recomputed from fresh ledger state first; a stale owned
// view is a correctness defect, so identifiers whose refresh failed
// are excluded and reported alongside the view.
func (m *Market) ProjectCollection(ctx context.Context) ([]*ItemProjection, map[int64]error, error) {
	failed, err := m.RefreshAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	owned := make([]*ItemProjection, 0)
	for _, id := range m.catalog.IDs() {
		if _, stale := failed[id]; stale {
			continue
		}
		state, ok := m.cache.Get(id)
		if !ok || state.ViewerPurchaseCount == 0 {
			continue
		}
		projection, err := m.ProjectItem(ctx, id)
		if err != nil {
			return nil, failed, err
		}
		owned = append(owned, projection)
	}
	return owned, failed, nil
}
