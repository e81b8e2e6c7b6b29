package service_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProductsRepo keeps one product in memory and applies the mutate
// closure atomically, assigning ids to inserted images the way the
// real repository does.
type fakeProductsRepo struct {
	mu      sync.Mutex
	product *domain.Product
	nextID  int64
}

func newFakeProductsRepo(p domain.Product) *fakeProductsRepo {
	var maxID int64
	for _, img := range p.Images {
		if img.ID > maxID {
			maxID = img.ID
		}
	}
	return &fakeProductsRepo{product: &p, nextID: maxID + 1}
}

func (r *fakeProductsRepo) UpdateProductImages(
	_ context.Context, productID int64, mutate func(*domain.Product) error,
) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.product == nil || r.product.ID != productID {
		return domain.Product{}, domain.ErrProductNotFound
	}

	candidate := *r.product
	candidate.Images = append([]domain.ProductImage(nil), r.product.Images...)

	if err := mutate(&candidate); err != nil {
		return domain.Product{}, err
	}

	for i := range candidate.Images {
		if candidate.Images[i].ID == 0 {
			candidate.Images[i].ID = r.nextID
			r.nextID++
		}
	}

	*r.product = candidate
	return candidate, nil
}

func (r *fakeProductsRepo) snapshot() domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.product
}

func (r *fakeProductsRepo) FindFiltered(
	context.Context, domain.ProductFilter,
) ([]domain.Product, error) {
	panic("not used")
}

func (r *fakeProductsRepo) CountFiltered(
	context.Context, domain.ProductFilter,
) (int64, error) {
	panic("not used")
}

func (r *fakeProductsRepo) GetProduct(
	context.Context, int64,
) (domain.Product, error) {
	panic("not used")
}

func (r *fakeProductsRepo) UpsertProducts(
	context.Context, []domain.Product,
) error {
	panic("not used")
}

type fakeBlobStore struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (b *fakeBlobStore) Store(
	context.Context, string, io.Reader,
) (string, error) {
	panic("not used")
}

func (b *fakeBlobStore) Delete(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.deleted = append(b.deleted, url)
	return nil
}

func (b *fakeBlobStore) deletedURLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

type fakeEventsProducer struct {
	mu     sync.Mutex
	events []domain.CatalogEvent
}

func (p *fakeEventsProducer) ProduceEvent(
	_ context.Context, evt domain.CatalogEvent,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *fakeEventsProducer) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ks []string
	for _, evt := range p.events {
		ks = append(ks, evt.Kind)
	}
	return ks
}

func coverCount(p domain.Product) int {
	var n int
	for _, img := range p.Images {
		if img.IsCover {
			n++
		}
	}
	return n
}

func newImagesService(
	repo *fakeProductsRepo,
) (service.ProductImages, *fakeBlobStore, *fakeEventsProducer) {
	blobs := &fakeBlobStore{}
	events := &fakeEventsProducer{}
	return service.NewProductImages(repo, blobs, events), blobs, events
}

func TestProductImagesAddImage(t *testing.T) {
	t.Run("CoverRequestedReplacesCover", func(t *testing.T) {
		repo := newFakeProductsRepo(domain.Product{
			ID: 1,
			Images: []domain.ProductImage{
				{ID: 10, URL: "hdfs://img/a.jpg", IsCover: true},
			},
		})
		svc, _, events := newImagesService(repo)

		img, err := svc.AddImage(t.Context(), 1, "hdfs://img/b.jpg", true)

		require.NoError(t, err)
		assert.True(t, img.IsCover)
		assert.NotZero(t, img.ID)

		got := repo.snapshot()
		assert.Len(t, got.Images, 2)
		assert.Equal(t, 1, coverCount(got))
		assert.Equal(t, "hdfs://img/b.jpg", got.CoverImage().URL)
		assert.Equal(t, []string{domain.EventImageAdded}, events.kinds())
	})

	t.Run("ProductNotFound", func(t *testing.T) {
		repo := newFakeProductsRepo(domain.Product{ID: 1})
		svc, _, _ := newImagesService(repo)

		_, err := svc.AddImage(t.Context(), 42, "hdfs://img/a.jpg", false)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}

func TestProductImagesDeleteImage(t *testing.T) {
	t.Run("MissingImageIsSoftNotFound", func(t *testing.T) {
		repo := newFakeProductsRepo(domain.Product{
			ID: 1,
			Images: []domain.ProductImage{
				{ID: 10, URL: "hdfs://img/a.jpg", IsCover: true},
			},
		})
		svc, blobs, events := newImagesService(repo)

		deleted, err := svc.DeleteImage(t.Context(), 1, 99)

		require.NoError(t, err)
		assert.False(t, deleted)

		got := repo.snapshot()
		assert.Len(t, got.Images, 1)
		assert.Equal(t, 1, coverCount(got))
		assert.Empty(t, blobs.deletedURLs())
		assert.Empty(t, events.kinds())
	})

	t.Run("DeletedCoverIsNotReplaced", func(t *testing.T) {
		repo := newFakeProductsRepo(domain.Product{
			ID: 1,
			Images: []domain.ProductImage{
				{ID: 10, URL: "hdfs://img/a.jpg"},
				{ID: 11, URL: "hdfs://img/b.jpg", IsCover: true},
			},
		})
		svc, blobs, _ := newImagesService(repo)

		deleted, err := svc.DeleteImage(t.Context(), 1, 11)

		require.NoError(t, err)
		assert.True(t, deleted)

		got := repo.snapshot()
		require.Len(t, got.Images, 1)
		assert.Nil(t, got.CoverImage())

		// blob cleanup is detached from the call
		assert.Eventually(t, func() bool {
			urls := blobs.deletedURLs()
			return len(urls) == 1 && urls[0] == "hdfs://img/b.jpg"
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("BlobFailureDoesNotFailDelete", func(t *testing.T) {
		repo := newFakeProductsRepo(domain.Product{
			ID: 1,
			Images: []domain.ProductImage{
				{ID: 10, URL: "hdfs://img/a.jpg"},
			},
		})
		svc, blobs, _ := newImagesService(repo)
		blobs.err = fmt.Errorf("datanode unreachable")

		deleted, err := svc.DeleteImage(t.Context(), 1, 10)

		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Empty(t, repo.snapshot().Images)
	})
}

func TestProductImagesPromoteImage(t *testing.T) {
	t.Run("MissingImageFailsHard", func(t *testing.T) {
		repo := newFakeProductsRepo(domain.Product{
			ID: 1,
			Images: []domain.ProductImage{
				{ID: 10, URL: "hdfs://img/a.jpg", IsCover: true},
			},
		})
		svc, _, events := newImagesService(repo)

		_, err := svc.PromoteImage(t.Context(), 1, 99)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrImageNotFound)

		got := repo.snapshot()
		assert.Equal(t, 1, coverCount(got))
		assert.EqualValues(t, 10, got.CoverImage().ID)
		assert.Empty(t, events.kinds())
	})

	t.Run("PromoteThenDelete", func(t *testing.T) {
		repo := newFakeProductsRepo(domain.Product{
			ID: 1,
			Images: []domain.ProductImage{
				{ID: 10, URL: "hdfs://img/a.jpg", IsCover: true},
				{ID: 11, URL: "hdfs://img/b.jpg"},
			},
		})
		svc, _, events := newImagesService(repo)

		img, err := svc.PromoteImage(t.Context(), 1, 11)
		require.NoError(t, err)
		assert.True(t, img.IsCover)

		got := repo.snapshot()
		assert.Equal(t, 1, coverCount(got))
		assert.EqualValues(t, 11, got.CoverImage().ID)

		deleted, err := svc.DeleteImage(t.Context(), 1, 11)
		require.NoError(t, err)
		assert.True(t, deleted)

		got = repo.snapshot()
		require.Len(t, got.Images, 1)
		assert.Equal(t, 0, coverCount(got))
		assert.Equal(
			t,
			[]string{domain.EventCoverChanged, domain.EventImageDeleted},
			events.kinds(),
		)
	})

	t.Run("InvariantHoldsAcrossSequences", func(t *testing.T) {
		repo := newFakeProductsRepo(domain.Product{ID: 1})
		svc, _, _ := newImagesService(repo)
		ctx := t.Context()

		a, err := svc.AddImage(ctx, 1, "hdfs://img/a.jpg", true)
		require.NoError(t, err)
		b, err := svc.AddImage(ctx, 1, "hdfs://img/b.jpg", true)
		require.NoError(t, err)
		_, err = svc.AddImage(ctx, 1, "hdfs://img/c.jpg", false)
		require.NoError(t, err)

		assert.Equal(t, 1, coverCount(repo.snapshot()))

		_, err = svc.PromoteImage(ctx, 1, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, coverCount(repo.snapshot()))

		_, err = svc.DeleteImage(ctx, 1, b.ID)
		require.NoError(t, err)
		got := repo.snapshot()
		assert.Equal(t, 1, coverCount(got))
		assert.EqualValues(t, a.ID, got.CoverImage().ID)
	})
}
