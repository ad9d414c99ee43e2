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

// Purchase runs the purchase workflow for id on behalf of the current
// viewer: guard, submit, await confirmation, reconcile.
//
// The guard re-evaluates eligibility against the snapshot refreshed on
// entry, not against anything captured earlier in the session; a
// non-Buyable result fails without submitting. The amount transferred
// is the cached price captured at guard time, so the value sent always
// equals the price read. A confirmed purchase triggers a mandatory
// cache refresh of the identifier before success is reported:
// submission success is never treated as state-refresh success.
func (m *Market) Purchase(ctx context.Context, id int64) (*domain.TransactionOutcome, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With(
		zap.String("workflow", "purchase"),
		zap.String("run_id", runID),
		zap.Int64("item_id", id))

	viewer, err := m.session.Viewer(ctx)
	if err != nil {
		return nil, err
	}

	release, err := m.guard.acquire(id, viewer)
	if err != nil {
		log.Warn("Purchase rejected: workflow in flight", zap.String("state", string(StateIdle)))
		return nil, err
	}
	defer release()

	// Guarding. Entry requires a freshly refreshed snapshot.
	state, err := m.freshState(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if elig := Eligibility(state, m.cfg.PurchaseLimit); elig != domain.EligibilityBuyable {
		log.Info("Purchase not eligible",
			zap.String("state", string(StateGuarding)),
			zap.String("eligibility", string(elig)))
		return nil, fmt.Errorf("item %d is %s: %w", id, elig, domain.ErrNotEligible)
	}

	// Submitting with the price the guard just read. The user never
	// supplies the transfer amount.
	amount := state.Price
	log.Info("Submitting purchase",
		zap.String("state", string(StateSubmitting)),
		zap.String("viewer", viewer.Hex()),
		zap.String("amount_wei", amount.String()))

	outcome, err := m.ledger.SubmitPurchase(ctx, id, viewer, amount)
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			// Ambiguous: the purchase may still settle. Block further
			// mutation on this item until a re-query succeeds.
			m.guard.markUnknown(id)
			log.Warn("Purchase outcome unknown",
				zap.String("state", string(StateAwaitingConfirmation)),
				zap.String("tx_hash", txHashOf(outcome)))
			return outcome, err
		}
		log.Info("Purchase failed",
			zap.String("state", string(StateFailed)),
			zap.Error(err))
		return outcome, err
	}

	// Reconciling: refresh price, stock, viewer count and buyers before
	// reporting success.
	if err := m.refreshItem(ctx, viewer, id); err != nil {
		log.Warn("Purchase confirmed but reconciliation failed",
			zap.String("state", string(StateReconciling)),
			zap.Error(err))
		return outcome, fmt.Errorf("purchase confirmed but state refresh failed: %w", err)
	}

	log.Info("Purchase confirmed",
		zap.String("state", string(StateSucceeded)),
		zap.String("tx_hash", outcome.TxHash))
	return outcome, nil
}

func txHashOf(outcome *domain.TransactionOutcome) string {
	if outcome == nil {
		return ""
	}
	return outcome.TxHash
}
