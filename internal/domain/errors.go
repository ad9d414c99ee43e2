package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when no provider or ledger endpoint is reachable.
	// Fatal to all operations until connectivity is restored externally.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrTimeout is returned when a submitted transaction's confirmation
	// window lapses with the outcome still unknown.
	ErrTimeout = errors.New("confirmation timed out")

	// ErrBusy is returned when a mutating workflow is already in flight
	// for the same (item, viewer) pair.
	ErrBusy = errors.New("workflow already in flight")

	// ErrNotEligible is the client-side guard short-circuit: the cached
	// snapshot says the purchase would be rejected, so no submission occurs.
	ErrNotEligible = errors.New("viewer not eligible to purchase")

	// ErrStaleState is returned when a mutation is attempted on an item
	// whose last outcome was Unknown and no re-query has succeeded since.
	ErrStaleState = errors.New("ledger state must be re-queried before mutating")

	// ErrNotOwned is returned when a resale is attempted for an item the
	// viewer holds no purchase of.
	ErrNotOwned = errors.New("viewer holds no purchase of this item")

	// ErrItemNotFound is returned for identifiers with no catalog entry.
	ErrItemNotFound = errors.New("item not found")
)

// RevertError is a ledger-level business rule rejection (not owner,
// insufficient funds, sold out, limit reached). The reason is carried
// verbatim so the boundary layer can present a precise message. Reverts
// are user-visible and never retried automatically.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "transaction reverted"
	}
	return fmt.Sprintf("transaction reverted: %s", e.Reason)
}

// NewRevertError creates a RevertError carrying the ledger's reason verbatim.
func NewRevertError(reason string) *RevertError {
	return &RevertError{Reason: reason}
}

// IsRevert reports whether err is a ledger revert and returns it if so.
func IsRevert(err error) (*RevertError, bool) {
	var re *RevertError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
