package port

import (
	"context"
	"io"
	"sync"

	"github.com/storekit/catalog/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Inbound capabilities exposed by the core service.

type ProductsQuerier interface {
	QueryProducts(context.Context, domain.ProductFilter) (domain.ProductPage, error)
}

type ProductGetter interface {
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
}

type ProductsSaver interface {
	SaveProducts(context.Context, []domain.Product) error
}

type ProductImageManager interface {
	AddImage(ctx context.Context, productID int64, url string, cover bool) (domain.ProductImage, error)
	DeleteImage(ctx context.Context, productID, imageID int64) (bool, error)
	PromoteImage(ctx context.Context, productID, imageID int64) (domain.ProductImage, error)
}

type ModerationSetter interface {
	SetRule(context.Context, domain.ModerationRule) error
}

type Authenticator interface {
	SignUp(ctx context.Context, email, password, firstName, lastName string) (domain.User, string, error)
	SignIn(ctx context.Context, email, password string) (domain.User, string, error)
	VerifyEmail(ctx context.Context, token string) (bool, error)
}

// Outbound collaborators consumed by the core service.

type ProductsRepository interface {
	FindFiltered(context.Context, domain.ProductFilter) ([]domain.Product, error)
	CountFiltered(context.Context, domain.ProductFilter) (int64, error)
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
	UpdateProductImages(ctx context.Context, productID int64, mutate func(*domain.Product) error) (domain.Product, error)
	UpsertProducts(context.Context, []domain.Product) error
}

type UsersRepository interface {
	CreateUser(context.Context, domain.User) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByVerifyToken(ctx context.Context, token string) (domain.User, error)
	MarkEmailVerified(ctx context.Context, userID int64) error
}

type ImageBlobStore interface {
	Store(ctx context.Context, name string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
}

type CatalogEventsProducer interface {
	ProduceEvent(context.Context, domain.CatalogEvent) error
}

type ModerationProducer interface {
	ProduceRule(context.Context, domain.ModerationRule) error
}

type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}

type VerificationMailer interface {
	SendVerificationMail(ctx context.Context, email, token string) error
}

type ModerationProcessor interface {
	runnerContextWg
	closer
}

type IntakeGateProcessor interface {
	runnerContextWg
	closer
}
