package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/userexport/internal/auth"
	"github.com/rs/zerolog/log"
)

// RequireRight rejects callers that do not hold right with 403.
func RequireRight(guard Authorizer, right string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.ClaimsFromContext(r.Context())
			err := guard.Authorize(r.Context(), claims, right)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
			var perr *auth.PermissionsError
			if errors.As(err, &perr) {
				http.Error(w, "Permission denied", http.StatusForbidden)
				return
			}
			log.Error().Err(err).Msg("Failed to check rights")
			http.Error(w, "Failed to check permissions", http.StatusInternalServerError)
		})
	}
}
