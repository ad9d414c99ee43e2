package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgmarket/storefront/internal/catalog"
	"github.com/imgmarket/storefront/internal/domain"
)

const sampleCatalog = `[
	{"id": 3, "name": "Harbor", "picture": "images/harbor.png", "description": "Morning fog"},
	{"id": 1, "name": "Sunset", "picture": "images/sunset.png", "description": ""},
	{"id": 2, "name": "Ridge", "picture": "images/ridge.png", "description": "Late autumn"}
]`

func TestParse(t *testing.T) {
	idx, err := catalog.Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []int64{1, 2, 3}, idx.IDs())

	item, err := idx.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "Harbor", item.Name)
	assert.Equal(t, "images/harbor.png", item.Picture)

	assert.True(t, idx.Has(2))
	assert.False(t, idx.Has(42))

	_, err = idx.Get(42)
	assert.True(t, errors.Is(err, domain.ErrItemNotFound))
}

func TestParseRejectsDuplicateID(t *testing.T) {
	_, err := catalog.Parse(strings.NewReader(`[
		{"id": 1, "name": "A", "picture": "a.png"},
		{"id": 1, "name": "B", "picture": "b.png"}
	]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate item identifier 1")
}

func TestParseRejectsMalformedEntry(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{
			name:  "missing name",
			input: `[{"id": 1, "picture": "a.png"}]`,
		},
		{
			name:  "missing picture",
			input: `[{"id": 1, "name": "A"}]`,
		},
		{
			name:  "negative identifier",
			input: `[{"id": -5, "name": "A", "picture": "a.png"}]`,
		},
		{
			name:  "unknown field",
			input: `[{"id": 1, "name": "A", "picture": "a.png", "rarity": "legendary"}]`,
		},
		{
			name:  "not json",
			input: `catalog`,
		},
		{
			name:  "empty catalog",
			input: `[]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := catalog.Parse(strings.NewReader(tc.input))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	idx, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, idx.IDs())

	_, err = catalog.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestIDsReturnsCopy(t *testing.T) {
	idx, err := catalog.Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	ids := idx.IDs()
	ids[0] = 999
	assert.Equal(t, []int64{1, 2, 3}, idx.IDs())
}
