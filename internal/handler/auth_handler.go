package handler

import (
	"encoding/json"
	"net/http"

	"metabarcoding-web/internal/middleware"
	"metabarcoding-web/internal/model"
	"metabarcoding-web/internal/service"
	"metabarcoding-web/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	identity, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, identity)
}

// Login authenticates form-posted credentials and hands the session token
// back in an HttpOnly cookie, then redirects. The cookie keeps the literal
// "Bearer <token>" value the rest of the API accepts.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, apierror.BadRequest("invalid form body", ""))
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	identity, err := h.service.Authenticate(r.Context(), username, password)
	if err != nil {
		writeError(w, err)
		return
	}

	tokenString, err := h.service.IssueToken(identity)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     service.AccessTokenCookie,
		Value:    "Bearer " + tokenString,
		Path:     "/",
		MaxAge:   int(h.service.TokenTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout revokes whatever token the request carries, valid or not, clears
// the cookie and redirects.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r)

	http.SetCookie(w, &http.Cookie{
		Name:     service.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	writeSuccess(w, http.StatusOK, identity)
}

func (h *AuthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, stats)
}
