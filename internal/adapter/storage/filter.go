package storage

import (
	"fmt"
	"strings"

	"github.com/storekit/catalog/internal/core/domain"
)

// A predicate is an ordered list of boolean fragments combined with
// AND, plus the positional arguments bound by those fragments. User
// values never enter the fragment text, only the argument list.
type predicate struct {
	frags []string
	args  []any
}

// compileFilter translates a filter into a predicate. The result is
// deterministic for a given filter: the list query and the count query
// compile the same filter and must agree on fragment text and argument
// order.
func compileFilter(f domain.ProductFilter) predicate {
	p := predicate{frags: []string{"TRUE"}}

	if f.SearchTerm != "" {
		// one bound value serves both LIKE sides
		n := p.bind("%" + strings.ToLower(f.SearchTerm) + "%")
		p.frag(fmt.Sprintf(
			"(lower(name) LIKE $%d OR lower(description) LIKE $%d)", n, n,
		))
	}

	if f.CategoryID != nil {
		p.frag(fmt.Sprintf("category_id = $%d", p.bind(*f.CategoryID)))
	}

	if f.MinPrice != nil {
		p.frag(fmt.Sprintf("price >= $%d", p.bind(*f.MinPrice)))
	}

	if f.MaxPrice != nil {
		p.frag(fmt.Sprintf("price <= $%d", p.bind(*f.MaxPrice)))
	}

	if f.MinRating != nil {
		p.frag(fmt.Sprintf("average_rating >= $%d", p.bind(*f.MinRating)))
	}

	if f.InStock {
		p.frag("stock_quantity > 0")
	}

	return p
}

func (p *predicate) bind(v any) int {
	p.args = append(p.args, v)
	return len(p.args)
}

func (p *predicate) frag(s string) {
	p.frags = append(p.frags, s)
}

// clause renders the fragments as one WHERE clause body.
func (p predicate) clause() string {
	return strings.Join(p.frags, " AND ")
}

// next returns the index of the next positional placeholder, for
// callers appending OFFSET/LIMIT after the predicate arguments.
func (p predicate) next() int {
	return len(p.args) + 1
}

var sortColumns = map[string]string{
	"price":   "price",
	"name":    "name",
	"rating":  "average_rating",
	"created": "created_at",
}

// resolveSort maps a user sort key onto an allow-listed column and
// direction. Unknown keys fall back to the id column instead of
// failing, so listing stays available whatever the caller sends.
func resolveSort(sortBy, direction string) string {
	col, ok := sortColumns[strings.ToLower(sortBy)]
	if !ok {
		col = "id"
	}
	dir := "ASC"
	if strings.EqualFold(direction, "desc") {
		dir = "DESC"
	}
	return col + " " + dir
}
