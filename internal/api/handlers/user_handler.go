package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/isdelr/userexport/internal/auth"
	"github.com/isdelr/userexport/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles login, logout and session lookups.
type UserHandler struct {
	service      services.UserServiceProvider
	issuer       *auth.Issuer
	secureCookie bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, issuer *auth.Issuer, secureCookie bool) *UserHandler {
	return &UserHandler{service: service, issuer: issuer, secureCookie: secureCookie}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles user authentication and starts a new session.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, claims, err := h.issuer.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	if err := h.service.TouchUser(r.Context(), user.ID); err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to update user_touched")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  claims.ExpiresAt.Time,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Logout clears the session cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		log.Error().Msg("Could not retrieve user claims from context")
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("User from token not found in DB")
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
