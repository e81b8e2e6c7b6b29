package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/port"
	"golang.org/x/crypto/bcrypt"
)

var _ port.Authenticator = (*Auth)(nil)

const verifyTokenTTL = 24 * time.Hour

// An Auth handles account signup, signin and email verification.
type Auth struct {
	users  port.UsersRepository
	tokens port.TokenIssuer
	mailer port.VerificationMailer
}

func NewAuth(
	users port.UsersRepository,
	tokens port.TokenIssuer,
	mailer port.VerificationMailer,
) Auth {
	return Auth{users, tokens, mailer}
}

// SignUp registers the user and returns it with a signed access
// token. The verification mail is sent from a detached goroutine: a
// mail failure is logged, never surfaced to the caller.
func (s Auth) SignUp(
	ctx context.Context, email, password, firstName, lastName string,
) (domain.User, string, error) {
	const op = "Auth.SignUp"

	if err := ctx.Err(); err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword(
		[]byte(password), bcrypt.DefaultCost,
	)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	u := domain.User{
		Email:             email,
		PasswordHash:      string(hash),
		FirstName:         firstName,
		LastName:          lastName,
		VerifyToken:       uuid.NewString(),
		VerifyTokenExpiry: time.Now().Add(verifyTokenTTL),
	}

	u, err = s.users.CreateUser(ctx, u)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	go s.sendVerifyMail(context.WithoutCancel(ctx), u.Email, u.VerifyToken)

	return u, token, nil
}

// SignIn checks the credentials and returns an access token. An
// unknown email and a wrong password both map to
// [domain.ErrInvalidCredentials].
func (s Auth) SignIn(
	ctx context.Context, email, password string,
) (domain.User, string, error) {
	const op = "Auth.SignIn"

	if err := ctx.Err(); err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, "", fmt.Errorf(
				"%s: %w", op, domain.ErrInvalidCredentials,
			)
		}
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}

	err = bcrypt.CompareHashAndPassword(
		[]byte(u.PasswordHash), []byte(password),
	)
	if err != nil {
		return domain.User{}, "", fmt.Errorf(
			"%s: %w", op, domain.ErrInvalidCredentials,
		)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%s: %w", op, err)
	}
	return u, token, nil
}

// VerifyEmail redeems a verification token. Unknown and expired
// tokens report false without an error.
func (s Auth) VerifyEmail(
	ctx context.Context, token string,
) (bool, error) {
	const op = "Auth.VerifyEmail"

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.users.UserByVerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if time.Now().After(u.VerifyTokenExpiry) {
		return false, nil
	}

	if err := s.users.MarkEmailVerified(ctx, u.ID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (s Auth) sendVerifyMail(ctx context.Context, email, token string) {
	const op = "Auth.sendVerifyMail"
	log := slog.With("op", op)

	if err := s.mailer.SendVerificationMail(ctx, email, token); err != nil {
		log.Error("failed to send verification mail", "err", err)
	}
}
