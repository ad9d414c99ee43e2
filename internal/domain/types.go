package domain

import (
	"math/big"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Item is a catalog entry: stable identifier plus display metadata.
// Owned by the catalog index and immutable after load.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Picture     string `json:"picture"`
	Description string `json:"description"`
}

// Valid reports whether a catalog entry is well formed.
func (i Item) Valid() bool {
	return i.ID >= 0 && i.Name != "" && i.Picture != ""
}

// ItemState is the cached ledger snapshot for one item, scoped to the
// current viewer. It is mutated only by a completed read or by the
// follow-up refresh of a confirmed transaction, never optimistically.
type ItemState struct {
	ID                  int64     `json:"id"`
	Price               *big.Int  `json:"price"` // minor units (wei)
	Stock               uint64    `json:"stock"`
	Buyers              []string  `json:"buyers"` // ordered, may contain duplicates
	ViewerPurchaseCount uint64    `json:"viewer_purchase_count"`
	RefreshedAt         time.Time `json:"refreshed_at"`
}

// Clone returns a deep copy so callers can hold a snapshot without
// racing the cache.
func (s *ItemState) Clone() *ItemState {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Price != nil {
		cp.Price = new(big.Int).Set(s.Price)
	}
	cp.Buyers = append([]string(nil), s.Buyers...)
	return &cp
}

// PurchaseRecord is one (buyer, timestamp) pair from the ledger's
// append-only purchase log. Resale removes entitlement but never
// erases these records.
type PurchaseRecord struct {
	Buyer     string    `json:"buyer"`
	Timestamp time.Time `json:"timestamp"`
}

// Eligibility is the derived purchase affordance for an (item, viewer) pair.
type Eligibility string

const (
	EligibilityBuyable      Eligibility = "buyable"
	EligibilityLimitReached Eligibility = "limit_reached"
	EligibilitySoldOut      Eligibility = "sold_out"
)

// TxStatus tracks the outcome of one in-flight mutating call.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusRejected  TxStatus = "rejected"
	// TxStatusUnknown means the confirmation window lapsed with the
	// outcome still ambiguous. The caller must re-query ledger state
	// before any further mutation on the item.
	TxStatusUnknown TxStatus = "unknown"
)

// TransactionOutcome describes a single submission. Outcomes are never
// reused across calls; every submit mints a fresh SubmissionID.
type TransactionOutcome struct {
	SubmissionID ulid.ULID `json:"submission_id"`
	Status       TxStatus  `json:"status"`
	TxHash       string    `json:"tx_hash,omitempty"`
	Reason       string    `json:"reason,omitempty"` // verbatim revert reason when rejected
}

// Final reports whether the outcome can no longer change.
func (o *TransactionOutcome) Final() bool {
	return o.Status == TxStatusConfirmed || o.Status == TxStatusRejected
}

// SameAddress compares two ledger addresses case-insensitively.
// Addresses come back from the ledger in mixed (checksum) casing.
func SameAddress(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
