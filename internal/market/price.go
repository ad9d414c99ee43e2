package market

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/logger"
)

// UpdatePrice runs the admin price-update workflow for id. The new
// price must be positive and non-zero. Authorization is enforced by the
// ledger, not here: a NotOwner revert is an expected, user-visible
// failure carrying its reason verbatim. On confirmation the cached
// price is overwritten directly; no full refresh is needed since the
// price is single-valued and just written.
func (m *Market) UpdatePrice(ctx context.Context, id int64, newPrice *big.Int) (*domain.TransactionOutcome, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With(
		zap.String("workflow", "price_update"),
		zap.String("run_id", runID),
		zap.Int64("item_id", id))

	if newPrice == nil || newPrice.Sign() <= 0 {
		return nil, fmt.Errorf("new price must be positive and non-zero")
	}
	if !m.catalog.Has(id) {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}

	viewer, err := m.session.Viewer(ctx)
	if err != nil {
		return nil, err
	}

	release, err := m.guard.acquire(id, viewer)
	if err != nil {
		return nil, err
	}
	defer release()

	if m.guard.requiresRequery(id) {
		if err := m.refreshItem(ctx, viewer, id); err != nil {
			return nil, fmt.Errorf("item %d had an ambiguous outcome and the re-query failed: %w", id, domain.ErrStaleState)
		}
	}

	log.Info("Submitting price update",
		zap.String("state", string(StateSubmitting)),
		zap.String("new_price_wei", newPrice.String()),
		zap.String("viewer", viewer.Hex()))

	outcome, err := m.ledger.SubmitPriceUpdate(ctx, id, newPrice, viewer)
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			m.guard.markUnknown(id)
			return outcome, err
		}
		// Cached price stays untouched on any failure, reverts included.
		log.Info("Price update failed",
			zap.String("state", string(StateFailed)),
			zap.Error(err))
		return outcome, err
	}

	m.cache.SetPrice(id, newPrice)

	log.Info("Price update confirmed",
		zap.String("state", string(StateSucceeded)),
		zap.String("tx_hash", outcome.TxHash))
	return outcome, nil
}
