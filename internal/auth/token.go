package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// editTokenSuffix marks a well-formed edit token; a token cut short by a
// broken client or proxy fails to match.
const editTokenSuffix = `+\`

// ErrTokenMismatch means the anti-forgery token did not match the session.
var ErrTokenMismatch = errors.New("edit token does not match session")

// EditToken returns the anti-forgery token for the caller's current session.
// It changes whenever the user logs in again.
func (i *Issuer) EditToken(claims *Claims) string {
	if claims == nil || claims.SessionID == "" {
		return editTokenSuffix
	}
	mac := hmac.New(sha256.New, i.key)
	mac.Write([]byte("edittoken:"))
	mac.Write([]byte(claims.SessionID))
	return hex.EncodeToString(mac.Sum(nil)) + editTokenSuffix
}

// MatchEditToken reports whether supplied is the caller's current edit token.
// Anonymous callers never match.
func (i *Issuer) MatchEditToken(claims *Claims, supplied string) bool {
	if claims == nil || claims.SessionID == "" || supplied == "" {
		return false
	}
	return hmac.Equal([]byte(i.EditToken(claims)), []byte(supplied))
}
