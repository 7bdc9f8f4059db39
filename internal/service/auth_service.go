package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"metabarcoding-web/internal/model"
	"metabarcoding-web/internal/token"
	"metabarcoding-web/pkg/apierror"
)

// AccessTokenCookie carries the session token between requests. Its value
// keeps the literal "Bearer <token>" form, so extraction normalizes both the
// prefix and the quoting the cookie codec may add around the space.
const AccessTokenCookie = "access_token"

type UserStore interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	Stats(ctx context.Context) (model.UserStats, error)
}

// AuthService authenticates credentials, registers accounts and resolves the
// identity behind a request token. Login failures are loud (explicit 401);
// ambient resolution is silent-optional so public endpoints can tolerate
// anonymous access.
type AuthService struct {
	users     UserStore
	codec     *token.Codec
	blacklist *token.Blacklist
	tokenTTL  time.Duration
}

func NewAuthService(users UserStore, codec *token.Codec, blacklist *token.Blacklist, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, codec: codec, blacklist: blacklist, tokenTTL: tokenTTL}
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *AuthService) Authenticate(ctx context.Context, username string, password string) (model.Identity, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return model.Identity{}, apierror.Unauthorized("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.Identity{}, apierror.Unauthorized("invalid username or password")
	}

	if user.Disabled {
		return model.Identity{}, apierror.Unauthorized("account is disabled")
	}

	return user.Identity(), nil
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.Identity, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if username == "" || email == "" || req.Password == "" {
		return model.Identity{}, apierror.BadRequest("username, email and password are required", "")
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return model.Identity{}, err
	}
	if exists {
		return model.Identity{}, apierror.Conflict("username or email already registered", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return model.Identity{}, err
	}

	user := model.User{
		ID:               uuid.NewString(),
		Username:         username,
		Email:            email,
		PasswordHash:     string(hash),
		FullName:         strings.TrimSpace(req.FullName),
		Country:          strings.TrimSpace(req.Country),
		Role:             strings.TrimSpace(req.Role),
		InstitutionType:  strings.TrimSpace(req.InstitutionType),
		RegistrationDate: time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.Identity{}, err
	}

	return user.Identity(), nil
}

// IssueToken signs a fresh session token for the identity. Nothing is stored
// server-side; the token is self-contained until it expires or is revoked.
func (s *AuthService) IssueToken(identity model.Identity) (string, error) {
	return s.codec.Issue(identity.Username, s.tokenTTL)
}

// ResolveCurrent resolves the identity behind the request's token, or nil
// when there is none. It never returns an error: any decode failure, missing
// subject, unknown user or disabled account yields nil, and callers that
// require authentication must reject nil themselves.
func (s *AuthService) ResolveCurrent(ctx context.Context, r *http.Request) *model.Identity {
	tokenString := ExtractToken(r)
	if tokenString == "" {
		return nil
	}

	s.blacklist.Sweep()
	if s.blacklist.IsRevoked(tokenString) {
		slog.Debug("identity resolution rejected", "reason", "token revoked")
		return nil
	}

	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		slog.Debug("identity resolution rejected", "reason", err.Error())
		return nil
	}

	if claims.Subject == "" {
		slog.Debug("identity resolution rejected", "reason", "missing subject")
		return nil
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		slog.Debug("identity resolution rejected", "reason", "unknown subject", "subject", claims.Subject)
		return nil
	}

	if user.Disabled {
		slog.Debug("identity resolution rejected", "reason", "account disabled", "subject", claims.Subject)
		return nil
	}

	identity := user.Identity()
	return &identity
}

// Logout revokes the request's token unconditionally, whether or not an
// identity could still be resolved from it.
func (s *AuthService) Logout(r *http.Request) {
	tokenString := ExtractToken(r)
	if tokenString == "" {
		return
	}
	s.blacklist.Revoke(tokenString)
}

func (s *AuthService) Stats(ctx context.Context) (model.UserStats, error) {
	return s.users.Stats(ctx)
}

// ExtractToken pulls the raw token out of the request: the Authorization
// header takes precedence over the cookie. Surrounding quotes and a leading
// "Bearer " prefix are stripped from either source.
func ExtractToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
			raw = strings.TrimSpace(cookie.Value)
		}
	}

	raw = strings.Trim(raw, `"`)
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}

	return raw
}
