package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/storekit/catalog/internal/core/domain"
)

const userColumns = `
	id, email, password_hash, first_name, last_name,
	email_verified, verify_token, verify_token_expiry, created_at`

type UsersRepository struct {
	sqldb sqldb
}

func NewUsersRepository(sqldb sqldb) UsersRepository {
	return UsersRepository{sqldb}
}

// CreateUser inserts the user and returns it with the generated id
// and timestamp. A duplicate email maps to [domain.ErrEmailTaken].
func (r UsersRepository) CreateUser(
	ctx context.Context, u domain.User,
) (domain.User, error) {
	const op = "UsersRepository.CreateUser"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO users (
			email, password_hash, first_name, last_name,
			email_verified, verify_token, verify_token_expiry
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at;`

	err := r.sqldb.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.EmailVerified, u.VerifyToken, u.VerifyTokenExpiry,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrEmailTaken)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r UsersRepository) UserByEmail(
	ctx context.Context, email string,
) (domain.User, error) {
	const op = "UsersRepository.UserByEmail"

	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1;`, userColumns)
	return r.queryUser(ctx, op, query, email)
}

func (r UsersRepository) UserByVerifyToken(
	ctx context.Context, token string,
) (domain.User, error) {
	const op = "UsersRepository.UserByVerifyToken"

	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE verify_token = $1;`, userColumns,
	)
	return r.queryUser(ctx, op, query, token)
}

func (r UsersRepository) MarkEmailVerified(
	ctx context.Context, userID int64,
) error {
	const op = "UsersRepository.MarkEmailVerified"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		UPDATE users
		SET email_verified = TRUE, verify_token = '',
			verify_token_expiry = to_timestamp(0)
		WHERE id = $1;`

	res, err := r.sqldb.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrUserNotFound)
	}
	return nil
}

func (r UsersRepository) queryUser(
	ctx context.Context, op, query string, arg any,
) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	var u domain.User
	err := r.sqldb.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.EmailVerified, &u.VerifyToken, &u.VerifyTokenExpiry, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrUserNotFound)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
