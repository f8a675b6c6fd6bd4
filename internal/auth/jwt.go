package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sigmatax/console/internal/util"
)

// ErrInvalidToken is returned when a token cannot be decoded into usable claims.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries what the API signs into a login token.
type Claims struct {
	StaffID util.ID `json:"staff_id"`
	Role    string  `json:"role"`
	IsAdmin bool    `json:"is_admin"`
	jwt.RegisteredClaims
}

// ExpiresAtTime returns the expiry, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether the token is no longer usable at now.
func (c *Claims) Expired(now time.Time) bool {
	exp := c.ExpiresAtTime()
	return exp.IsZero() || !now.Before(exp)
}

// DecodeToken reads the claims of a token without checking its signature.
// The console never holds the API's signing secret; the API still validates
// every request carrying the token.
func DecodeToken(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	if claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	claims.Role = strings.ToUpper(strings.TrimSpace(claims.Role))
	if claims.Role == "" {
		return nil, ErrInvalidToken
	}
	if claims.StaffID == "" {
		claims.StaffID = util.ID(claims.Subject)
	}

	return claims, nil
}
