package httphandler

import (
	"time"

	"github.com/storekit/catalog/internal/core/domain"
)

type (
	Product struct {
		ID            int64          `json:"id"`
		SKU           string         `json:"sku"`
		Name          string         `json:"name"`
		Description   string         `json:"description"`
		Price         float64        `json:"price"`
		StockQuantity int            `json:"stock_quantity"`
		AverageRating float64        `json:"average_rating"`
		CategoryID    int64          `json:"category_id"`
		Active        bool           `json:"active"`
		CreatedAt     time.Time      `json:"created_at"`
		Images        []ProductImage `json:"images"`
	}

	ProductImage struct {
		ID      int64  `json:"id"`
		URL     string `json:"url"`
		IsCover bool   `json:"is_cover"`
	}

	ProductPage struct {
		Items []Product `json:"items"`
		Total int64     `json:"total"`
	}
)

type ModerationRule struct {
	SKU     string `json:"sku"`
	Blocked bool   `json:"blocked"`
}

type (
	SignUpRequest struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	SignInRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	VerifyRequest struct {
		Token string `json:"token"`
	}

	AuthResponse struct {
		Email string `json:"email"`
		Token string `json:"token"`
	}
)

func productToDTO(p domain.Product) Product {
	dto := Product{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		AverageRating: p.AverageRating,
		CategoryID:    p.CategoryID,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
	}

	dto.Images = make([]ProductImage, len(p.Images))
	for i := range p.Images {
		dto.Images[i] = imageToDTO(p.Images[i])
	}
	return dto
}

func imageToDTO(img domain.ProductImage) ProductImage {
	return ProductImage{ID: img.ID, URL: img.URL, IsCover: img.IsCover}
}
