package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUsersRepo struct {
	mock.Mock
}

func (m *MockUsersRepo) CreateUser(
	ctx context.Context, u domain.User,
) (domain.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUsersRepo) UserByEmail(
	ctx context.Context, email string,
) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUsersRepo) UserByVerifyToken(
	ctx context.Context, token string,
) (domain.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUsersRepo) MarkEmailVerified(
	ctx context.Context, userID int64,
) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(u domain.User) (string, error) {
	args := m.Called(u)
	return args.String(0), args.Error(1)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) SendVerificationMail(
	_ context.Context, email, _ string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeMailer) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func TestAuthSignUp(t *testing.T) {
	t.Run("CreatesUserAndIssuesToken", func(t *testing.T) {
		users := new(MockUsersRepo)
		tokens := new(MockTokenIssuer)
		mailer := &fakeMailer{}

		users.On("CreateUser", mock.Anything, mock.MatchedBy(
			func(u domain.User) bool {
				if u.Email != "jo@example.com" || u.VerifyToken == "" {
					return false
				}
				err := bcrypt.CompareHashAndPassword(
					[]byte(u.PasswordHash), []byte("s3cret"),
				)
				return err == nil
			},
		)).Return(domain.User{ID: 1, Email: "jo@example.com"}, nil)
		tokens.On("Issue", mock.Anything).Return("jwt-token", nil)

		svc := service.NewAuth(users, tokens, mailer)
		u, token, err := svc.SignUp(
			t.Context(), "jo@example.com", "s3cret", "Jo", "Doe",
		)

		require.NoError(t, err)
		assert.EqualValues(t, 1, u.ID)
		assert.Equal(t, "jwt-token", token)

		// verification mail is detached from the call
		assert.Eventually(t, func() bool {
			sent := mailer.sentTo()
			return len(sent) == 1 && sent[0] == "jo@example.com"
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		users := new(MockUsersRepo)
		tokens := new(MockTokenIssuer)

		users.On("CreateUser", mock.Anything, mock.Anything).
			Return(domain.User{}, domain.ErrEmailTaken)

		svc := service.NewAuth(users, tokens, &fakeMailer{})
		_, _, err := svc.SignUp(
			t.Context(), "jo@example.com", "s3cret", "Jo", "Doe",
		)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
		tokens.AssertNotCalled(t, "Issue", mock.Anything)
	})
}

func TestAuthSignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword(
		[]byte("s3cret"), bcrypt.MinCost,
	)
	if err != nil {
		t.Fatal(err)
	}
	stored := domain.User{
		ID:           1,
		Email:        "jo@example.com",
		PasswordHash: string(hash),
	}

	t.Run("ValidCredentials", func(t *testing.T) {
		users := new(MockUsersRepo)
		tokens := new(MockTokenIssuer)

		users.On("UserByEmail", mock.Anything, "jo@example.com").
			Return(stored, nil)
		tokens.On("Issue", stored).Return("jwt-token", nil)

		svc := service.NewAuth(users, tokens, &fakeMailer{})
		u, token, err := svc.SignIn(t.Context(), "jo@example.com", "s3cret")

		require.NoError(t, err)
		assert.EqualValues(t, 1, u.ID)
		assert.Equal(t, "jwt-token", token)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		users := new(MockUsersRepo)

		users.On("UserByEmail", mock.Anything, "jo@example.com").
			Return(stored, nil)

		svc := service.NewAuth(users, new(MockTokenIssuer), &fakeMailer{})
		_, _, err := svc.SignIn(t.Context(), "jo@example.com", "nope")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("UnknownEmailMapsToInvalidCredentials", func(t *testing.T) {
		users := new(MockUsersRepo)

		users.On("UserByEmail", mock.Anything, "who@example.com").
			Return(domain.User{}, domain.ErrUserNotFound)

		svc := service.NewAuth(users, new(MockTokenIssuer), &fakeMailer{})
		_, _, err := svc.SignIn(t.Context(), "who@example.com", "s3cret")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthVerifyEmail(t *testing.T) {
	t.Run("ValidToken", func(t *testing.T) {
		users := new(MockUsersRepo)
		u := domain.User{
			ID:                1,
			VerifyToken:       "tok",
			VerifyTokenExpiry: time.Now().Add(time.Hour),
		}

		users.On("UserByVerifyToken", mock.Anything, "tok").Return(u, nil)
		users.On("MarkEmailVerified", mock.Anything, int64(1)).Return(nil)

		svc := service.NewAuth(users, new(MockTokenIssuer), &fakeMailer{})
		ok, err := svc.VerifyEmail(t.Context(), "tok")

		require.NoError(t, err)
		assert.True(t, ok)
		users.AssertExpectations(t)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		users := new(MockUsersRepo)
		u := domain.User{
			ID:                1,
			VerifyToken:       "tok",
			VerifyTokenExpiry: time.Now().Add(-time.Minute),
		}

		users.On("UserByVerifyToken", mock.Anything, "tok").Return(u, nil)

		svc := service.NewAuth(users, new(MockTokenIssuer), &fakeMailer{})
		ok, err := svc.VerifyEmail(t.Context(), "tok")

		require.NoError(t, err)
		assert.False(t, ok)
		users.AssertNotCalled(t, "MarkEmailVerified", mock.Anything, mock.Anything)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		users := new(MockUsersRepo)

		users.On("UserByVerifyToken", mock.Anything, "nope").
			Return(domain.User{}, domain.ErrUserNotFound)

		svc := service.NewAuth(users, new(MockTokenIssuer), &fakeMailer{})
		ok, err := svc.VerifyEmail(t.Context(), "nope")

		require.NoError(t, err)
		assert.False(t, ok)
	})
}
