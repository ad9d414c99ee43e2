package history_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/history"
)

func TestProject(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	records := []domain.PurchaseRecord{
		{Buyer: "0xAbCd", Timestamp: base.Add(2 * time.Hour)},
		{Buyer: "0x9999", Timestamp: base.Add(time.Hour)},
		{Buyer: "0xabcd", Timestamp: base},
		{Buyer: "0xABCD", Timestamp: base.Add(3 * time.Hour)},
	}

	entries := history.Project(records, "0xaBcD")
	require.Len(t, entries, 3)

	// Viewer records only, ascending by timestamp regardless of ledger order.
	assert.Equal(t, base, entries[0].At)
	assert.Equal(t, base.Add(2*time.Hour), entries[1].At)
	assert.Equal(t, base.Add(3*time.Hour), entries[2].At)

	assert.Equal(t, "2024-03-10 12:00:00 UTC", entries[0].Display)
}

func TestProjectNoMatches(t *testing.T) {
	records := []domain.PurchaseRecord{
		{Buyer: "0x1111", Timestamp: time.Now()},
	}

	entries := history.Project(records, "0x2222")
	require.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestProjectEmptyInput(t *testing.T) {
	entries := history.Project(nil, "0xabcd")
	require.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestProjectDuplicateTimestamps(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	records := []domain.PurchaseRecord{
		{Buyer: "0xabcd", Timestamp: at},
		{Buyer: "0xabcd", Timestamp: at},
	}

	entries := history.Project(records, "0xabcd")
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].At, entries[1].At)
}
