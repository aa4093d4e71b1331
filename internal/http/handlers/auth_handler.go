package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/internal/repo/postgres"
	"github.com/tablevine/reservations/pkg/auth"
	"github.com/tablevine/reservations/pkg/logger"
)

// AuthHandler issues admin access tokens. Login mirrors the gate's two-step
// shape: a bad password is 401, a good password for an email missing from the
// allowlist is 403 and no token is issued.
type AuthHandler struct {
	admins    postgres.AdminRepo
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthHandler(admins postgres.AdminRepo, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{admins: admins, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	return r
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRes struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, "Email and password are required")
		return
	}

	admin, err := h.admins.FindByEmail(r.Context(), req.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "Admin lookup failed", "error", err)
		response.InternalError(w, "Login failed")
		return
	}
	if admin == nil {
		// Same response as a wrong password; existence is not leaked.
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, admin.PasswordHash)
	if err != nil || !match {
		response.Unauthorized(w, "Invalid credentials")
		return
	}

	isAdmin, err := h.admins.IsAdmin(r.Context(), admin.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "Admin allowlist lookup failed", "error", err)
		response.InternalError(w, "Login failed")
		return
	}
	if !isAdmin {
		response.Forbidden(w, "Access denied")
		return
	}

	token, err := auth.NewAccessToken(admin.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to sign access token", "error", err)
		response.InternalError(w, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginRes{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(h.tokenTTL),
	})
}
