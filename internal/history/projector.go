package history

import (
	"sort"
	"time"

	"github.com/imgmarket/storefront/internal/domain"
)

// DisplayLayout is the human-readable instant format for projected entries.
const DisplayLayout = "2006-01-02 15:04:05 MST"

// Entry is one purchase instant belonging to the viewer.
type Entry struct {
	At      time.Time `json:"at"`
	Display string    `json:"display"`
}

// Project reduces the ledger's full (buyer, timestamp) record set for an
// item to the viewer's own purchases, ordered by ascending timestamp.
// Buyer addresses are matched case-insensitively since the ledger does
// not guarantee uniform casing. A viewer with no matching records gets
// an empty slice, never an error.
func Project(records []domain.PurchaseRecord, viewer string) []Entry {
	entries := make([]Entry, 0)
	for _, rec := range records {
		if !domain.SameAddress(rec.Buyer, viewer) {
			continue
		}
		entries = append(entries, Entry{
			At:      rec.Timestamp,
			Display: rec.Timestamp.Format(DisplayLayout),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].At.Before(entries[j].At)
	})
	return entries
}
