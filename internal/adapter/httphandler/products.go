package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/port"
)

// GET /v1/products?search_term=&category_id=&min_price=&max_price=&min_rating=&in_stock=&sort_by=&sort_direction=&page=&size=
// GET /v1/products/{id}

type ProductsHandler struct {
	querier port.ProductsQuerier
	getter  port.ProductGetter
}

func RegisterProducts(
	mux *http.ServeMux, querier port.ProductsQuerier, getter port.ProductGetter,
) {
	h := ProductsHandler{querier, getter}
	mux.HandleFunc("GET /v1/products", h.GetProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
}

func (h ProductsHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProducts"
	log := slog.With("op", op)

	f, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Warn("failed to parse filter", "err", err)
		return
	}

	page, err := h.querier.QueryProducts(r.Context(), f)
	if err != nil {
		http.Error(w, "failed to query products", http.StatusInternalServerError)
		log.Error("failed to query products", "err", err)
		return
	}

	dto := ProductPage{Items: make([]Product, 0, len(page.Items)), Total: page.Total}
	for _, p := range page.Items {
		dto.Items = append(dto.Items, productToDTO(p))
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProduct"
	log := slog.With("op", op)

	productID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	p, err := h.getter.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to get product", http.StatusInternalServerError)
		log.Error("failed to get product", "productID", productID, "err", err)
		return
	}

	writeJSON(w, http.StatusOK, productToDTO(p))
}

func parseFilter(r *http.Request) (f domain.ProductFilter, err error) {
	q := r.URL.Query()

	f.SearchTerm = q.Get("search_term")
	f.SortBy = q.Get("sort_by")
	f.SortDirection = q.Get("sort_direction")
	f.InStock = strings.EqualFold(q.Get("in_stock"), "true")

	if f.CategoryID, err = optInt64(q.Get("category_id")); err != nil {
		return f, errors.New("invalid category_id")
	}
	if f.MinPrice, err = optFloat(q.Get("min_price")); err != nil {
		return f, errors.New("invalid min_price")
	}
	if f.MaxPrice, err = optFloat(q.Get("max_price")); err != nil {
		return f, errors.New("invalid max_price")
	}
	if f.MinRating, err = optFloat(q.Get("min_rating")); err != nil {
		return f, errors.New("invalid min_rating")
	}
	if f.Page, err = optInt(q.Get("page")); err != nil {
		return f, errors.New("invalid page")
	}
	if f.Size, err = optInt(q.Get("size")); err != nil {
		return f, errors.New("invalid size")
	}
	return f, nil
}

func optInt64(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.With("op", op).Error("failed to write response body", "err", err)
	}
}
