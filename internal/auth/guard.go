package auth

import (
	"context"
	"fmt"
)

// RightsProvider resolves the rights held by a user.
type RightsProvider interface {
	GetUserRights(ctx context.Context, userID int64) ([]string, error)
}

// PermissionsError is returned when the caller lacks a required right.
type PermissionsError struct {
	Capability string
}

func (e *PermissionsError) Error() string {
	return fmt.Sprintf("permission denied: the %q right is required", e.Capability)
}

// Guard checks rights and anti-forgery tokens for a caller.
type Guard struct {
	rights RightsProvider
	tokens *Issuer
}

// NewGuard creates a new Guard.
func NewGuard(rights RightsProvider, tokens *Issuer) *Guard {
	return &Guard{rights: rights, tokens: tokens}
}

// Authorize returns a *PermissionsError unless the caller holds capability.
// Anonymous callers hold no rights.
func (g *Guard) Authorize(ctx context.Context, claims *Claims, capability string) error {
	if claims == nil {
		return &PermissionsError{Capability: capability}
	}
	rights, err := g.rights.GetUserRights(ctx, claims.UserID)
	if err != nil {
		return fmt.Errorf("failed to load rights for user %d: %w", claims.UserID, err)
	}
	for _, r := range rights {
		if r == capability {
			return nil
		}
	}
	return &PermissionsError{Capability: capability}
}

// EditToken returns the token to embed in forms rendered for the caller.
func (g *Guard) EditToken(claims *Claims) string {
	return g.tokens.EditToken(claims)
}

// CheckToken returns ErrTokenMismatch unless supplied is the caller's token.
func (g *Guard) CheckToken(claims *Claims, supplied string) error {
	if !g.tokens.MatchEditToken(claims, supplied) {
		return ErrTokenMismatch
	}
	return nil
}
