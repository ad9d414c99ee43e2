package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/logger"
)

// Resell runs the resale workflow for id on behalf of the current
// viewer. The client-side guard requires the viewer to hold at least
// one purchase; the authoritative check stays on the ledger. A
// confirmed resale invalidates the whole cached snapshot for the
// identifier and recomputes it before the owned view is reported
// consistent, since stock, buyers and the viewer's count all changed.
func (m *Market) Resell(ctx context.Context, id int64) (*domain.TransactionOutcome, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With(
		zap.String("workflow", "resell"),
		zap.String("run_id", runID),
		zap.Int64("item_id", id))

	viewer, err := m.session.Viewer(ctx)
	if err != nil {
		return nil, err
	}

	release, err := m.guard.acquire(id, viewer)
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := m.freshState(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if state.ViewerPurchaseCount == 0 {
		log.Info("Resale rejected: nothing held", zap.String("state", string(StateGuarding)))
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotOwned)
	}

	log.Info("Submitting resale",
		zap.String("state", string(StateSubmitting)),
		zap.String("viewer", viewer.Hex()))

	outcome, err := m.ledger.SubmitResale(ctx, id, viewer)
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			m.guard.markUnknown(id)
			log.Warn("Resale outcome unknown",
				zap.String("state", string(StateAwaitingConfirmation)),
				zap.String("tx_hash", txHashOf(outcome)))
			return outcome, err
		}
		log.Info("Resale failed",
			zap.String("state", string(StateFailed)),
			zap.Error(err))
		return outcome, err
	}

	// A partial or stale owned view after a resale is a correctness
	// defect, not cosmetic: drop the snapshot and rebuild it.
	m.cache.Invalidate(id)
	if err := m.refreshItem(ctx, viewer, id); err != nil {
		log.Warn("Resale confirmed but reconciliation failed",
			zap.String("state", string(StateReconciling)),
			zap.Error(err))
		return outcome, fmt.Errorf("resale confirmed but state refresh failed: %w", err)
	}

	log.Info("Resale confirmed",
		zap.String("state", string(StateSucceeded)),
		zap.String("tx_hash", outcome.TxHash))
	return outcome, nil
}
