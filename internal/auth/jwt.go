package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/userexport/internal/models"
	"github.com/rs/zerolog/log"
)

// CookieName is the cookie carrying the session JWT.
const CookieName = "token"

// Claims defines the JWT claims structure. SessionID is regenerated on every
// login and anchors the anti-forgery token.
type Claims struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// Issuer signs and validates session tokens with a single HMAC key.
type Issuer struct {
	key      []byte
	lifetime time.Duration
}

// NewIssuer creates an Issuer. An empty secret is replaced with a random one,
// which invalidates sessions on restart.
func NewIssuer(secret string, lifetime time.Duration) *Issuer {
	key := []byte(secret)
	if len(key) == 0 {
		log.Warn().Msg("JWT_SECRET not set, using an ephemeral signing key")
		key = []byte(uuid.NewString() + uuid.NewString())
	}
	return &Issuer{key: key, lifetime: lifetime}
}

// Lifetime is how long issued tokens stay valid.
func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// GenerateJWT creates a new JWT for a given user, starting a new session.
func (i *Issuer) GenerateJWT(user models.User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Name,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateJWT parses and validates a JWT string.
func (i *Issuer) ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("token has no session id")
	}
	return claims, nil
}

// tokenFromRequest looks for the JWT in the Authorization header, then the cookie.
func tokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) == 2 {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// JWTMiddleware creates a middleware for protecting routes.
func (i *Issuer) JWTMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				http.Error(w, "Missing auth token", http.StatusUnauthorized)
				return
			}

			claims, err := i.ValidateJWT(tokenStr)
			if err != nil {
				http.Error(w, "Invalid auth token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionMiddleware attaches claims when a valid token is present and lets
// anonymous requests through otherwise. Handlers decide what anonymous
// callers may do.
func (i *Issuer) SessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := i.ValidateJWT(tokenStr)
			if err != nil {
				log.Debug().Err(err).Msg("Ignoring invalid session token")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// ClaimsFromContext returns the session claims, or nil for anonymous callers.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(UserClaimsKey).(*Claims)
	return claims
}
