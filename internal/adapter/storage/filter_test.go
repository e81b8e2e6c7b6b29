package storage

import (
	"testing"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func TestCompileFilter(t *testing.T) {
	t.Run("EmptyFilterMatchesAll", func(t *testing.T) {
		p := compileFilter(domain.ProductFilter{})

		assert.Equal(t, "TRUE", p.clause())
		assert.Empty(t, p.args)
		assert.Equal(t, 1, p.next())
	})

	t.Run("SearchTermBindsOneValueForBothSides", func(t *testing.T) {
		p := compileFilter(domain.ProductFilter{SearchTerm: "Mixer"})

		assert.Equal(
			t,
			"TRUE AND (lower(name) LIKE $1 OR lower(description) LIKE $1)",
			p.clause(),
		)
		require.Len(t, p.args, 1)
		assert.Equal(t, "%mixer%", p.args[0])
	})

	t.Run("AllFields", func(t *testing.T) {
		f := domain.ProductFilter{
			SearchTerm: "kettle",
			CategoryID: int64Ptr(7),
			MinPrice:   float64Ptr(10),
			MaxPrice:   float64Ptr(50),
			MinRating:  float64Ptr(3.5),
			InStock:    true,
		}

		p := compileFilter(f)

		assert.Equal(
			t,
			"TRUE"+
				" AND (lower(name) LIKE $1 OR lower(description) LIKE $1)"+
				" AND category_id = $2"+
				" AND price >= $3"+
				" AND price <= $4"+
				" AND average_rating >= $5"+
				" AND stock_quantity > 0",
			p.clause(),
		)
		assert.Equal(
			t,
			[]any{"%kettle%", int64(7), 10.0, 50.0, 3.5},
			p.args,
		)
		assert.Equal(t, 6, p.next())
	})

	t.Run("InStockFalseAddsNothing", func(t *testing.T) {
		p := compileFilter(domain.ProductFilter{InStock: false})

		assert.Equal(t, "TRUE", p.clause())
		assert.Empty(t, p.args)
	})

	t.Run("Deterministic", func(t *testing.T) {
		f := domain.ProductFilter{
			SearchTerm: "lamp",
			MinPrice:   float64Ptr(5),
			InStock:    true,
		}

		forList := compileFilter(f)
		forCount := compileFilter(f)

		assert.Equal(t, forList.clause(), forCount.clause())
		assert.Equal(t, forList.args, forCount.args)
	})

	t.Run("MinAboveMaxPassesThrough", func(t *testing.T) {
		f := domain.ProductFilter{
			MinPrice: float64Ptr(100),
			MaxPrice: float64Ptr(1),
		}

		p := compileFilter(f)

		assert.Equal(t, "TRUE AND price >= $1 AND price <= $2", p.clause())
		assert.Equal(t, []any{100.0, 1.0}, p.args)
	})
}

func TestResolveSort(t *testing.T) {
	tests := []struct {
		name      string
		sortBy    string
		direction string
		want      string
	}{
		{"Default", "", "", "id ASC"},
		{"UnknownKey", "popularity", "desc", "id DESC"},
		{"Price", "price", "", "price ASC"},
		{"PriceDesc", "PRICE", "DESC", "price DESC"},
		{"Rating", "rating", "asc", "average_rating ASC"},
		{"Created", "created", "Desc", "created_at DESC"},
		{"Name", "name", "ascending", "name ASC"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resolveSort(tc.sortBy, tc.direction))
		})
	}
}
