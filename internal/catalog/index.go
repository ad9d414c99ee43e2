package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/imgmarket/storefront/internal/domain"
)

// Index is the read-only catalog of items keyed by identifier. It is
// built once at startup and safe to share across components without
// synchronization. An identifier appearing in any other component
// always corresponds to exactly one entry here.
type Index struct {
	items map[int64]domain.Item
	ids   []int64
}

// Load builds the index from a JSON catalog file. Load fails on any
// malformed entry or repeated identifier; there is no partial catalog.
func Load(filePath string) (*Index, error) {
	f, err := os.Open(filePath) //nolint:gosec,G304 // trusted deployment file
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer func() { _ = f.Close() }()

	idx, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", filePath, err)
	}
	return idx, nil
}

// Parse builds the index from a JSON stream of item records.
func Parse(r io.Reader) (*Index, error) {
	var items []domain.Item
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	idx := &Index{
		items: make(map[int64]domain.Item, len(items)),
		ids:   make([]int64, 0, len(items)),
	}
	for i, item := range items {
		if !item.Valid() {
			return nil, fmt.Errorf("malformed catalog entry at position %d (id=%d)", i, item.ID)
		}
		if _, dup := idx.items[item.ID]; dup {
			return nil, fmt.Errorf("duplicate item identifier %d", item.ID)
		}
		idx.items[item.ID] = item
		idx.ids = append(idx.ids, item.ID)
	}
	sort.Slice(idx.ids, func(i, j int) bool { return idx.ids[i] < idx.ids[j] })

	return idx, nil
}

// Get returns the item for id.
func (x *Index) Get(id int64) (domain.Item, error) {
	item, ok := x.items[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}
	return item, nil
}

// Has reports whether id names a catalog entry.
func (x *Index) Has(id int64) bool {
	_, ok := x.items[id]
	return ok
}

// IDs returns all item identifiers in ascending order.
func (x *Index) IDs() []int64 {
	return append([]int64(nil), x.ids...)
}

// Len returns the number of catalog entries.
func (x *Index) Len() int {
	return len(x.items)
}
