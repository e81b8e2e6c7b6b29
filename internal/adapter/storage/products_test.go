package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedStmt struct {
	query string
	args  []any
}

// stmtRecorder captures the statements persistImages issues, in order.
// Inserts are answered with generated ids through a stub driver so the
// RETURNING scan works.
type stmtRecorder struct {
	stmts []recordedStmt
	ids   *sql.DB
}

func newStmtRecorder() *stmtRecorder {
	return &stmtRecorder{ids: sql.OpenDB(idConnector{conn: &idConn{}})}
}

type noopResult struct{}

func (noopResult) LastInsertId() (int64, error) { return 0, nil }
func (noopResult) RowsAffected() (int64, error) { return 1, nil }

func (r *stmtRecorder) ExecContext(
	ctx context.Context, query string, args ...any,
) (sql.Result, error) {
	r.stmts = append(r.stmts, recordedStmt{query: query, args: args})
	return noopResult{}, nil
}

func (r *stmtRecorder) QueryContext(
	ctx context.Context, query string, args ...any,
) (*sql.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (r *stmtRecorder) QueryRowContext(
	ctx context.Context, query string, args ...any,
) *sql.Row {
	r.stmts = append(r.stmts, recordedStmt{query: query, args: args})
	return r.ids.QueryRowContext(ctx, "SELECT id")
}

func (r *stmtRecorder) coverUpdates() (stmts []recordedStmt) {
	for _, s := range r.stmts {
		if strings.Contains(s.query, "SET is_cover") {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

type idConnector struct {
	conn *idConn
}

func (c idConnector) Connect(context.Context) (driver.Conn, error) {
	return c.conn, nil
}

func (c idConnector) Driver() driver.Driver { return nil }

// idConn serves every query with a fresh single-column id row.
type idConn struct {
	nextID int64
}

func (c *idConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("not implemented")
}

func (c *idConn) Close() error { return nil }

func (c *idConn) Begin() (driver.Tx, error) {
	return nil, errors.New("not implemented")
}

func (c *idConn) QueryContext(
	context.Context, string, []driver.NamedValue,
) (driver.Rows, error) {
	c.nextID++
	return &idRows{id: c.nextID}, nil
}

type idRows struct {
	id   int64
	done bool
}

func (r *idRows) Columns() []string { return []string{"id"} }
func (r *idRows) Close() error      { return nil }

func (r *idRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = r.id
	return nil
}

func TestPersistImagesCoverFlagOrder(t *testing.T) {
	repo := ProductsRepository{}

	t.Run("PromoteLowerIDClearsOldCoverFirst", func(t *testing.T) {
		// image 1 was promoted over the current cover, image 2. The
		// demote must hit the store before the promote: the one-cover
		// partial unique index is checked per statement, and both rows
		// flagged at once aborts the transaction.
		p := domain.Product{
			ID: 10,
			Images: []domain.ProductImage{
				{ID: 1, URL: "a", IsCover: true},
				{ID: 2, URL: "b", IsCover: false},
			},
		}
		loaded := map[int64]struct{}{1: {}, 2: {}}

		rec := newStmtRecorder()
		err := repo.persistImages(t.Context(), rec, &p, loaded)
		require.NoError(t, err)

		updates := rec.coverUpdates()
		require.Len(t, updates, 2)
		assert.Equal(t, []any{int64(2), false}, updates[0].args)
		assert.Equal(t, []any{int64(1), true}, updates[1].args)
	})

	t.Run("AddCoverDemotesBeforeInserting", func(t *testing.T) {
		p := domain.Product{ID: 10}
		p.Images = []domain.ProductImage{{ID: 3, URL: "old", IsCover: true}}
		p.AddImage("new", true)
		loaded := map[int64]struct{}{3: {}}

		rec := newStmtRecorder()
		err := repo.persistImages(t.Context(), rec, &p, loaded)
		require.NoError(t, err)

		require.Len(t, rec.stmts, 2)
		assert.Equal(t, []any{int64(3), false}, rec.stmts[0].args)
		assert.Contains(t, rec.stmts[1].query, "INSERT INTO product_images")
		assert.Equal(t, []any{int64(10), "new", true}, rec.stmts[1].args)
		assert.NotZero(t, p.Images[1].ID)
	})

	t.Run("DeleteCoverIssuesNoCoverPromotion", func(t *testing.T) {
		p := domain.Product{
			ID:     10,
			Images: []domain.ProductImage{{ID: 1, URL: "a", IsCover: false}},
		}
		loaded := map[int64]struct{}{1: {}, 2: {}}

		rec := newStmtRecorder()
		err := repo.persistImages(t.Context(), rec, &p, loaded)
		require.NoError(t, err)

		require.Len(t, rec.stmts, 2)
		assert.Contains(t, rec.stmts[0].query, "DELETE FROM product_images")
		assert.Equal(t, []any{int64(2)}, rec.stmts[0].args)
		assert.Equal(t, []any{int64(1), false}, rec.stmts[1].args)
	})
}
