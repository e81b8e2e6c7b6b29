package httphandler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/products", nil)
		f, err := parseFilter(r)
		require.NoError(t, err)
		assert.Empty(t, f.SearchTerm)
		assert.Nil(t, f.CategoryID)
		assert.Nil(t, f.MinPrice)
		assert.False(t, f.InStock)
		assert.Zero(t, f.Page)
		assert.Zero(t, f.Size)
	})

	t.Run("AllParams", func(t *testing.T) {
		target := "/v1/products?search_term=usb&category_id=7" +
			"&min_price=10.5&max_price=99&min_rating=4" +
			"&in_stock=TRUE&sort_by=price&sort_direction=desc&page=2&size=50"
		r := httptest.NewRequest("GET", target, nil)

		f, err := parseFilter(r)
		require.NoError(t, err)

		assert.Equal(t, "usb", f.SearchTerm)
		require.NotNil(t, f.CategoryID)
		assert.EqualValues(t, 7, *f.CategoryID)
		require.NotNil(t, f.MinPrice)
		assert.InDelta(t, 10.5, *f.MinPrice, 0)
		require.NotNil(t, f.MaxPrice)
		assert.InDelta(t, 99, *f.MaxPrice, 0)
		require.NotNil(t, f.MinRating)
		assert.InDelta(t, 4, *f.MinRating, 0)
		assert.True(t, f.InStock)
		assert.Equal(t, "price", f.SortBy)
		assert.Equal(t, "desc", f.SortDirection)
		assert.Equal(t, 2, f.Page)
		assert.Equal(t, 50, f.Size)
	})

	t.Run("InStockFalseIsNoRestriction", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/products?in_stock=false", nil)
		f, err := parseFilter(r)
		require.NoError(t, err)
		assert.False(t, f.InStock)
	})

	t.Run("MalformedNumber", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/v1/products?min_price=abc", nil)
		_, err := parseFilter(r)
		assert.Error(t, err)
	})
}
