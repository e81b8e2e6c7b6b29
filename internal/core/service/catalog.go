package service

import (
	"context"
	"fmt"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/port"
)

var _ port.ProductsQuerier = (*Catalog)(nil)
var _ port.ProductGetter = (*Catalog)(nil)
var _ port.ProductsSaver = (*Catalog)(nil)

// A Catalog serves the product listing read path and the supplier
// intake write path.
type Catalog struct {
	repo port.ProductsRepository
}

func NewCatalog(repo port.ProductsRepository) Catalog {
	return Catalog{repo}
}

// QueryProducts returns one page of products plus the total count for
// the same filter. Both queries compile the identical predicate, so
// the total is always consistent with the page even though it is
// fetched in a separate round trip. A page beyond the last one yields
// an empty item list with the true total.
func (s Catalog) QueryProducts(
	ctx context.Context, f domain.ProductFilter,
) (domain.ProductPage, error) {
	const op = "Catalog.QueryProducts"

	if err := ctx.Err(); err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
	}

	f.Normalize()

	items, err := s.repo.FindFiltered(ctx, f)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
	}

	total, err := s.repo.CountFiltered(ctx, f)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return domain.ProductPage{Items: items, Total: total}, nil
}

func (s Catalog) GetProduct(
	ctx context.Context, productID int64,
) (domain.Product, error) {
	const op = "Catalog.GetProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// SaveProducts upserts a moderated supplier batch into the catalog.
func (s Catalog) SaveProducts(
	ctx context.Context, ps []domain.Product,
) error {
	const op = "Catalog.SaveProducts"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpsertProducts(ctx, ps); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

var _ port.ModerationSetter = (*Moderation)(nil)

// A Moderation forwards moderation rules to the rules stream.
type Moderation struct {
	producer port.ModerationProducer
}

func NewModeration(producer port.ModerationProducer) Moderation {
	return Moderation{producer}
}

func (s Moderation) SetRule(
	ctx context.Context, rule domain.ModerationRule,
) error {
	const op = "Moderation.SetRule"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.producer.ProduceRule(ctx, rule); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
