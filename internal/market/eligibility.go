package market

import "github.com/imgmarket/storefront/internal/domain"

// Eligibility derives the purchase affordance for a cached snapshot and
// the viewer it is scoped to. SoldOut takes precedence over
// LimitReached when both hold. Pure: consulted for rendering, and
// re-evaluated against the latest snapshot immediately before any
// purchase submission.
func Eligibility(state *domain.ItemState, purchaseLimit uint64) domain.Eligibility {
	if state == nil {
		// No snapshot yet; do not advertise a purchase that cannot be guarded.
		return domain.EligibilitySoldOut
	}
	if state.Stock == 0 {
		return domain.EligibilitySoldOut
	}
	if state.ViewerPurchaseCount >= purchaseLimit {
		return domain.EligibilityLimitReached
	}
	return domain.EligibilityBuyable
}
