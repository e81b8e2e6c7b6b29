package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/port"
)

// POST   /v1/products/{id}/images multipart "image" file + "cover" flag
// DELETE /v1/products/{id}/images/{imageId}
// PUT    /v1/products/{id}/images/{imageId}/cover

const maxImageSize = 32 << 20

type ImagesHandler struct {
	images port.ProductImageManager
	blobs  port.ImageBlobStore
}

func RegisterImages(
	mux *http.ServeMux,
	images port.ProductImageManager,
	blobs port.ImageBlobStore,
) {
	h := ImagesHandler{images, blobs}
	mux.HandleFunc("POST /v1/products/{id}/images", h.PostImage)
	mux.HandleFunc("DELETE /v1/products/{id}/images/{imageId}", h.DeleteImage)
	mux.HandleFunc("PUT /v1/products/{id}/images/{imageId}/cover", h.PutCover)
}

func (h ImagesHandler) PostImage(w http.ResponseWriter, r *http.Request) {
	const op = "ImagesHandler.PostImage"
	log := slog.With("op", op)

	productID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		http.Error(w, "invalid multipart data", http.StatusBadRequest)
		log.Warn("failed to parse multipart form", "err", err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	cover := strings.EqualFold(r.FormValue("cover"), "true")

	name := uuid.NewString() + filepath.Ext(header.Filename)
	url, err := h.blobs.Store(r.Context(), name, file)
	if err != nil {
		http.Error(w, "failed to store image", http.StatusServiceUnavailable)
		log.Error("failed to store image blob", "err", err)
		return
	}

	img, err := h.images.AddImage(r.Context(), productID, url, cover)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to add image", http.StatusInternalServerError)
		log.Error("failed to add image", "productID", productID, "err", err)
		return
	}

	writeJSON(w, http.StatusCreated, imageToDTO(img))
}

func (h ImagesHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	const op = "ImagesHandler.DeleteImage"
	log := slog.With("op", op)

	productID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	imageID, err := pathID(r, "imageId")
	if err != nil {
		http.Error(w, "invalid image id", http.StatusBadRequest)
		return
	}

	ok, err := h.images.DeleteImage(r.Context(), productID, imageID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete image", http.StatusInternalServerError)
		log.Error("failed to delete image", "productID", productID, "err", err)
		return
	}
	if !ok {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h ImagesHandler) PutCover(w http.ResponseWriter, r *http.Request) {
	const op = "ImagesHandler.PutCover"
	log := slog.With("op", op)

	productID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	imageID, err := pathID(r, "imageId")
	if err != nil {
		http.Error(w, "invalid image id", http.StatusBadRequest)
		return
	}

	img, err := h.images.PromoteImage(r.Context(), productID, imageID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrImageNotFound):
			http.Error(w, "image not found", http.StatusNotFound)
		default:
			http.Error(w, "failed to promote image", http.StatusInternalServerError)
			log.Error("failed to promote image", "productID", productID, "err", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, imageToDTO(img))
}
