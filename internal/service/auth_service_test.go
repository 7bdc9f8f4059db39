package service

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"metabarcoding-web/internal/model"
	"metabarcoding-web/internal/token"
	"metabarcoding-web/pkg/apierror"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]model.User{}}
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) ExistsByUsernameOrEmail(_ context.Context, username string, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if strings.EqualFold(user.Username, username) || strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) Create(_ context.Context, u model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.users[strings.ToLower(u.Username)] = u
	return nil
}

func (f *fakeUserStore) Stats(_ context.Context) (model.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := model.UserStats{Total: len(f.users)}
	for _, user := range f.users {
		if user.Disabled {
			stats.Disabled++
		} else {
			stats.Active++
		}
	}
	return stats, nil
}

func (f *fakeUserStore) setDisabled(username string, disabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := f.users[strings.ToLower(username)]
	user.Disabled = disabled
	f.users[strings.ToLower(username)] = user
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserStore) {
	t.Helper()

	codec, err := token.NewCodec("test-secret", "HS256")
	require.NoError(t, err)
	blacklist := token.NewBlacklist(codec, 30*time.Minute)

	store := newFakeUserStore()
	return NewAuthService(store, codec, blacklist, 30*time.Minute), store
}

func registerAlice(t *testing.T, svc *AuthService) model.Identity {
	t.Helper()

	identity, err := svc.Register(context.Background(), model.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.org",
		Password: "secret1",
	})
	require.NoError(t, err)
	return identity
}

func TestAuthService_Register(t *testing.T) {
	t.Run("register then authenticate succeeds", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		registerAlice(t, svc)

		identity, err := svc.Authenticate(context.Background(), "alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice", identity.Username)
	})

	t.Run("never stores the plaintext password", func(t *testing.T) {
		svc, store := newTestAuthService(t)
		registerAlice(t, svc)

		user, err := store.FindByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.NotEqual(t, "secret1", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	})

	t.Run("duplicate username fails with conflict", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		registerAlice(t, svc)

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Username: "alice",
			Email:    "other@example.org",
			Password: "secret2",
		})
		require.Error(t, err)

		var apiErr *apierror.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "CONFLICT", apiErr.Code)
		assert.Equal(t, 400, apiErr.HTTPStatus)
	})

	t.Run("duplicate email fails with conflict", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		registerAlice(t, svc)

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Username: "bob",
			Email:    "alice@example.org",
			Password: "secret2",
		})
		require.Error(t, err)

		var apiErr *apierror.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "CONFLICT", apiErr.Code)
	})

	t.Run("missing fields fail with bad request", func(t *testing.T) {
		svc, _ := newTestAuthService(t)

		_, err := svc.Register(context.Background(), model.RegisterRequest{Username: "alice"})
		require.Error(t, err)

		var apiErr *apierror.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "BAD_REQUEST", apiErr.Code)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, store := newTestAuthService(t)
	registerAlice(t, svc)

	assertUnauthorized := func(t *testing.T, err error) {
		t.Helper()
		var apiErr *apierror.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 401, apiErr.HTTPStatus)
	}

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody", "secret1")
		assertUnauthorized(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "alice", "wrong")
		assertUnauthorized(t, err)
	})

	t.Run("disabled account", func(t *testing.T) {
		store.setDisabled("alice", true)
		defer store.setDisabled("alice", false)

		_, err := svc.Authenticate(context.Background(), "alice", "secret1")
		assertUnauthorized(t, err)
	})

	t.Run("identity carries no password hash", func(t *testing.T) {
		identity, err := svc.Authenticate(context.Background(), "alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.org", identity.Email)
	})
}

func TestAuthService_ResolveCurrent(t *testing.T) {
	svc, store := newTestAuthService(t)
	identity := registerAlice(t, svc)

	issue := func(t *testing.T) string {
		t.Helper()
		tokenString, err := svc.IssueToken(identity)
		require.NoError(t, err)
		return tokenString
	}

	t.Run("bearer header resolves", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+issue(t))

		resolved := svc.ResolveCurrent(r.Context(), r)
		require.NotNil(t, resolved)
		assert.Equal(t, "alice", resolved.Username)
	})

	t.Run("quoted cookie value resolves", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/auth/me", nil)
		r.Header.Set("Cookie", AccessTokenCookie+`="Bearer `+issue(t)+`"`)

		resolved := svc.ResolveCurrent(r.Context(), r)
		require.NotNil(t, resolved)
		assert.Equal(t, "alice", resolved.Username)
	})

	t.Run("header takes precedence over cookie", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+issue(t))
		r.Header.Set("Cookie", AccessTokenCookie+`="Bearer garbage"`)

		resolved := svc.ResolveCurrent(r.Context(), r)
		require.NotNil(t, resolved)
	})

	t.Run("missing token resolves to nil", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		assert.Nil(t, svc.ResolveCurrent(r.Context(), r))
	})

	t.Run("garbage token resolves to nil, not an error", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer not-a-token")
		assert.Nil(t, svc.ResolveCurrent(r.Context(), r))
	})

	t.Run("revoked token resolves to nil even though it still decodes", func(t *testing.T) {
		tokenString := issue(t)

		r := httptest.NewRequest("GET", "/api/auth/logout", nil)
		r.Header.Set("Authorization", "Bearer "+tokenString)
		svc.Logout(r)

		resolved := svc.ResolveCurrent(r.Context(), r)
		assert.Nil(t, resolved)
	})

	t.Run("disabled account resolves to nil", func(t *testing.T) {
		tokenString := issue(t)
		store.setDisabled("alice", true)
		defer store.setDisabled("alice", false)

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+tokenString)
		assert.Nil(t, svc.ResolveCurrent(r.Context(), r))
	})

	t.Run("unknown subject resolves to nil", func(t *testing.T) {
		codec, err := token.NewCodec("test-secret", "HS256")
		require.NoError(t, err)
		tokenString, err := codec.Issue("ghost", 30*time.Minute)
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer "+tokenString)
		assert.Nil(t, svc.ResolveCurrent(r.Context(), r))
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("revokes even a token that never was valid", func(t *testing.T) {
		svc, _ := newTestAuthService(t)

		r := httptest.NewRequest("GET", "/api/auth/logout", nil)
		r.Header.Set("Authorization", "Bearer bogus-token")
		svc.Logout(r)

		// A second request with the same bogus token is still rejected.
		assert.Nil(t, svc.ResolveCurrent(r.Context(), r))
	})

	t.Run("without a token is a no-op", func(t *testing.T) {
		svc, _ := newTestAuthService(t)
		r := httptest.NewRequest("GET", "/api/auth/logout", nil)
		svc.Logout(r)
	})
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "plain bearer header", header: "Bearer abc", want: "abc"},
		{name: "lowercase prefix", header: "bearer abc", want: "abc"},
		{name: "quoted header", header: `"Bearer abc"`, want: "abc"},
		{name: "raw token without prefix", header: "abc", want: "abc"},
		{name: "cookie fallback", cookie: `"Bearer abc"`, want: "abc"},
		{name: "nothing", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				r.Header.Set("Cookie", AccessTokenCookie+"="+tc.cookie)
			}
			assert.Equal(t, tc.want, ExtractToken(r))
		})
	}
}
