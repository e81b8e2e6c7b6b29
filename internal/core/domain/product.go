package domain

import "time"

type (
	Product struct {
		ID            int64
		SKU           string
		Name          string
		Description   string
		Price         float64
		StockQuantity int
		AverageRating float64
		CategoryID    int64
		Active        bool
		CreatedAt     time.Time
		Images        []ProductImage
	}

	// A ProductImage is owned by exactly one product and has
	// no lifecycle outside its product's image collection.
	ProductImage struct {
		ID      int64
		URL     string
		IsCover bool
	}
)

// AddImage appends a new image to the collection. When cover is
// requested, every existing cover flag is cleared in the same step,
// so the appended image becomes the sole cover.
func (p *Product) AddImage(url string, cover bool) *ProductImage {
	if cover {
		p.clearCover()
	}
	p.Images = append(p.Images, ProductImage{URL: url, IsCover: cover})
	return &p.Images[len(p.Images)-1]
}

// RemoveImage removes the image with the given id and reports whether
// it was present, along with the removed image's URL. Removing the
// cover leaves the product with no cover: nothing is auto-promoted.
func (p *Product) RemoveImage(imageID int64) (url string, ok bool) {
	for i, img := range p.Images {
		if img.ID == imageID {
			p.Images = append(p.Images[:i], p.Images[i+1:]...)
			return img.URL, true
		}
	}
	return "", false
}

// PromoteImage sets the cover flag on exactly the image with the
// given id and clears it on every other image. Returns
// [ErrImageNotFound] when the id is not in the collection.
func (p *Product) PromoteImage(imageID int64) (*ProductImage, error) {
	var promoted *ProductImage
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			promoted = &p.Images[i]
			break
		}
	}
	if promoted == nil {
		return nil, ErrImageNotFound
	}
	for i := range p.Images {
		p.Images[i].IsCover = p.Images[i].ID == imageID
	}
	return promoted, nil
}

// CoverImage returns the current cover, or nil when the product
// has no cover.
func (p *Product) CoverImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsCover {
			return &p.Images[i]
		}
	}
	return nil
}

func (p *Product) clearCover() {
	for i := range p.Images {
		p.Images[i].IsCover = false
	}
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// A ProductFilter holds the recognized optional catalog search
// parameters. Zero values mean "no restriction": an absent InStock and
// an explicit false are equivalent, and MinPrice > MaxPrice is passed
// through as-is (it compiles to an unsatisfiable predicate).
type ProductFilter struct {
	SearchTerm    string
	CategoryID    *int64
	MinPrice      *float64
	MaxPrice      *float64
	MinRating     *float64
	InStock       bool
	SortBy        string
	SortDirection string
	Page          int
	Size          int
}

// Normalize clamps the paging parameters into a usable range.
func (f *ProductFilter) Normalize() {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
}

// A ProductPage is one page of filtered products together with the
// total number of products matching the same filter.
type ProductPage struct {
	Items []Product
	Total int64
}

// A ModerationRule blocks or unblocks a supplier product by SKU
// before it reaches the catalog.
type ModerationRule struct {
	SKU     string
	Blocked bool
}

const (
	EventImageAdded   = "image_added"
	EventImageDeleted = "image_deleted"
	EventCoverChanged = "cover_changed"
)

// A CatalogEvent notifies downstream consumers about a catalog change.
type CatalogEvent struct {
	Kind      string
	ProductID int64
	ImageID   int64
	ImageURL  string
}
