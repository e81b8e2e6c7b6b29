package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/storekit/catalog/internal/core/domain"
)

const productColumns = `
	id, sku, name, description, price,
	stock_quantity, average_rating, category_id, active, created_at`

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

// FindFiltered returns one page of products matching the filter,
// sorted and offset according to the filter's sort and paging fields.
func (r ProductsRepository) FindFiltered(
	ctx context.Context, f domain.ProductFilter,
) ([]domain.Product, error) {
	const op = "ProductsRepository.FindFiltered"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pred := compileFilter(f)
	query := fmt.Sprintf(
		`SELECT %s FROM products WHERE %s ORDER BY %s OFFSET $%d LIMIT $%d;`,
		productColumns, pred.clause(), resolveSort(f.SortBy, f.SortDirection),
		pred.next(), pred.next()+1,
	)
	args := append(pred.args, f.Page*f.Size, f.Size)

	rows, err := r.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ps []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// CountFiltered returns the total number of products matching the
// filter, compiled from the same predicate as FindFiltered.
func (r ProductsRepository) CountFiltered(
	ctx context.Context, f domain.ProductFilter,
) (int64, error) {
	const op = "ProductsRepository.CountFiltered"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	pred := compileFilter(f)
	query := fmt.Sprintf(
		`SELECT count(*) FROM products WHERE %s;`, pred.clause(),
	)

	var total int64
	err := r.sqldb.QueryRowContext(ctx, query, pred.args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// GetProduct loads the product aggregate with its image collection.
func (r ProductsRepository) GetProduct(
	ctx context.Context, productID int64,
) (domain.Product, error) {
	const op = "ProductsRepository.GetProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM products WHERE id = $1;`, productColumns,
	)
	row := r.sqldb.QueryRowContext(ctx, query, productID)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf(
				"%s: %w", op, domain.ErrProductNotFound,
			)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p.Images, err = r.productImages(ctx, r.sqldb, productID, false)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// UpdateProductImages executes one atomic read-modify-write over a
// product's whole image collection: the aggregate is loaded under a
// row lock, mutated in memory, and persisted before commit. The
// mutate error aborts the transaction untouched.
func (r ProductsRepository) UpdateProductImages(
	ctx context.Context, productID int64, mutate func(*domain.Product) error,
) (p domain.Product, updErr error) {
	const op = "ProductsRepository.UpdateProductImages"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if updErr == nil {
			if err := tx.Commit(); err != nil {
				updErr = fmt.Errorf("%s: failed to commit: %w", op, err)
			}
			return
		}

		if err := tx.Rollback(); err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	query := fmt.Sprintf(
		`SELECT %s FROM products WHERE id = $1 FOR UPDATE;`, productColumns,
	)
	p, err = scanProduct(tx.QueryRowContext(ctx, query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf(
				"%s: %w", op, domain.ErrProductNotFound,
			)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p.Images, err = r.productImages(ctx, tx, productID, true)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	loaded := make(map[int64]struct{}, len(p.Images))
	for _, img := range p.Images {
		loaded[img.ID] = struct{}{}
	}

	if err := mutate(&p); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.persistImages(ctx, tx, &p, loaded); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r ProductsRepository) productImages(
	ctx context.Context, q querier, productID int64, forUpdate bool,
) ([]domain.ProductImage, error) {
	query := `
		SELECT id, image_url, is_cover
		FROM product_images
		WHERE product_id = $1
		ORDER BY id`
	if forUpdate {
		query += " FOR UPDATE"
	}

	rows, err := q.QueryContext(ctx, query+";", productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var imgs []domain.ProductImage
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.URL, &img.IsCover); err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return imgs, rows.Err()
}

// persistImages writes the mutated collection back: rows removed from
// the collection are deleted, new entries (zero id) are inserted, and
// cover flags are rewritten on the rest. Cover demotions are written
// before the promotion: the one-cover partial unique index is checked
// per statement, so the old cover's flag must already be cleared when
// the new cover's row is set.
func (r ProductsRepository) persistImages(
	ctx context.Context, q querier, p *domain.Product, loaded map[int64]struct{},
) error {
	kept := make(map[int64]struct{}, len(p.Images))
	for _, img := range p.Images {
		if img.ID != 0 {
			kept[img.ID] = struct{}{}
		}
	}

	for id := range loaded {
		if _, ok := kept[id]; ok {
			continue
		}
		_, err := q.ExecContext(
			ctx, `DELETE FROM product_images WHERE id = $1;`, id,
		)
		if err != nil {
			return err
		}
	}

	for _, cover := range []bool{false, true} {
		for i := range p.Images {
			img := &p.Images[i]
			if img.IsCover != cover {
				continue
			}

			if img.ID == 0 {
				err := q.QueryRowContext(ctx, `
					INSERT INTO product_images (product_id, image_url, is_cover)
					VALUES ($1, $2, $3)
					RETURNING id;`,
					p.ID, img.URL, img.IsCover,
				).Scan(&img.ID)
				if err != nil {
					return err
				}
				continue
			}

			_, err := q.ExecContext(
				ctx,
				`UPDATE product_images SET is_cover = $2 WHERE id = $1;`,
				img.ID, img.IsCover,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// UpsertProducts stores the supplier intake batch, updating rows that
// share a SKU with an already known product.
func (r ProductsRepository) UpsertProducts(
	ctx context.Context, ps []domain.Product,
) (storeErr error) {
	const op = "ProductsRepository.UpsertProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit: %w", op, err)
			}
			return
		}

		if err := tx.Rollback(); err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	query := `
		INSERT INTO products (
			sku, name, description, price,
			stock_quantity, average_rating, category_id, active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			average_rating = EXCLUDED.average_rating,
			category_id = EXCLUDED.category_id,
			active = EXCLUDED.active;
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, p := range ps {
		_, err := stmt.ExecContext(ctx,
			p.SKU, p.Name, p.Description, p.Price,
			p.StockQuantity, p.AverageRating, p.CategoryID, p.Active,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, err)
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price,
		&p.StockQuantity, &p.AverageRating, &p.CategoryID,
		&p.Active, &p.CreatedAt,
	)
	return p, err
}
