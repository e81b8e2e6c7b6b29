package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/port"
)

var _ port.ProductImageManager = (*ProductImages)(nil)

// errImageAbsent aborts an image transaction without surfacing an
// error: delete of an unknown image is a soft not-found, not a failure.
var errImageAbsent = errors.New("image absent")

// A ProductImages maintains the at-most-one-cover invariant over a
// product's image collection. Every operation is one transactional
// load-mutate-persist over the whole collection; concurrent writers on
// the same product are serialized by the store's row lock.
type ProductImages struct {
	repo   port.ProductsRepository
	blobs  port.ImageBlobStore
	events port.CatalogEventsProducer
}

func NewProductImages(
	repo port.ProductsRepository,
	blobs port.ImageBlobStore,
	events port.CatalogEventsProducer,
) ProductImages {
	return ProductImages{repo, blobs, events}
}

// AddImage appends an image to the product. When cover is requested,
// demoting the old cover and setting the new one happen in the same
// transaction, so no observer ever sees two covers.
func (s ProductImages) AddImage(
	ctx context.Context, productID int64, url string, cover bool,
) (domain.ProductImage, error) {
	const op = "ProductImages.AddImage"

	if err := ctx.Err(); err != nil {
		return domain.ProductImage{}, fmt.Errorf("%s: %w", op, err)
	}

	var idx int
	p, err := s.repo.UpdateProductImages(ctx, productID,
		func(p *domain.Product) error {
			p.AddImage(url, cover)
			idx = len(p.Images) - 1
			return nil
		})
	if err != nil {
		return domain.ProductImage{}, fmt.Errorf("%s: %w", op, err)
	}

	img := p.Images[idx]
	s.publishEvent(ctx, domain.CatalogEvent{
		Kind:      domain.EventImageAdded,
		ProductID: productID,
		ImageID:   img.ID,
		ImageURL:  img.URL,
	})
	return img, nil
}

// DeleteImage removes the image from the collection and reports
// whether it existed: a missing image returns (false, nil) and leaves
// the aggregate untouched. The underlying blob is deleted only after
// the removal is persisted, as a detached best-effort step; losing the
// blob cleanup never fails the delete. Deleting the cover leaves the
// product with no cover.
func (s ProductImages) DeleteImage(
	ctx context.Context, productID, imageID int64,
) (bool, error) {
	const op = "ProductImages.DeleteImage"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var url string
	_, err := s.repo.UpdateProductImages(ctx, productID,
		func(p *domain.Product) error {
			u, ok := p.RemoveImage(imageID)
			if !ok {
				return errImageAbsent
			}
			url = u
			return nil
		})
	if err != nil {
		if errors.Is(err, errImageAbsent) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	go s.cleanupBlob(context.WithoutCancel(ctx), url)

	s.publishEvent(ctx, domain.CatalogEvent{
		Kind:      domain.EventImageDeleted,
		ProductID: productID,
		ImageID:   imageID,
		ImageURL:  url,
	})
	return true, nil
}

// PromoteImage makes the image the sole cover. Unlike DeleteImage, a
// missing image here is a hard failure: [domain.ErrImageNotFound].
func (s ProductImages) PromoteImage(
	ctx context.Context, productID, imageID int64,
) (domain.ProductImage, error) {
	const op = "ProductImages.PromoteImage"

	if err := ctx.Err(); err != nil {
		return domain.ProductImage{}, fmt.Errorf("%s: %w", op, err)
	}

	var idx int
	p, err := s.repo.UpdateProductImages(ctx, productID,
		func(p *domain.Product) error {
			if _, err := p.PromoteImage(imageID); err != nil {
				return err
			}
			for i := range p.Images {
				if p.Images[i].ID == imageID {
					idx = i
				}
			}
			return nil
		})
	if err != nil {
		return domain.ProductImage{}, fmt.Errorf("%s: %w", op, err)
	}

	img := p.Images[idx]
	s.publishEvent(ctx, domain.CatalogEvent{
		Kind:      domain.EventCoverChanged,
		ProductID: productID,
		ImageID:   img.ID,
		ImageURL:  img.URL,
	})
	return img, nil
}

func (s ProductImages) cleanupBlob(ctx context.Context, url string) {
	const op = "ProductImages.cleanupBlob"
	log := slog.With("op", op)

	if err := s.blobs.Delete(ctx, url); err != nil {
		log.Error("failed to delete image blob", "url", url, "err", err)
	}
}

func (s ProductImages) publishEvent(
	ctx context.Context, evt domain.CatalogEvent,
) {
	const op = "ProductImages.publishEvent"
	log := slog.With("op", op)

	if err := s.events.ProduceEvent(ctx, evt); err != nil {
		log.Error("failed to produce catalog event", "kind", evt.Kind, "err", err)
	}
}
