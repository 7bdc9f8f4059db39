package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"metabarcoding-web/internal/model"
)

type identityResolver interface {
	ResolveCurrent(ctx context.Context, r *http.Request) *model.Identity
}

type contextKey string

const identityContextKey contextKey = "identity"

type AuthMiddleware struct {
	resolver identityResolver
}

func NewAuthMiddleware(resolver identityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireAuth resolves the request's identity and rejects the request with
// 401 when resolution yields none. Resolution itself never errors; absence
// is the only failure mode surfaced here.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := m.resolver.ResolveCurrent(r.Context(), r)
		if identity == nil {
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	return identity, ok
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "UNAUTHORIZED",
			Message: "authentication required",
		},
	})
}
