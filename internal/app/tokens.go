// internal/app/tokens.go
package app

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/shrimpsizemoose/semla/internal/faults"
	"github.com/shrimpsizemoose/semla/internal/models"
)

// Claims carries identity and role inside the signed token. Verification is
// stateless: no revocation list is consulted, so a token stays valid for its
// full lifetime even if the account is deactivated meanwhile. Accepted risk
// window, bounded by the fixed TTL.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a time-bounded credential for the user. Expiry is fixed at the
// issuer's TTL (8 hours by default).
func (t *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := time.Now().UTC()
	expires := now.Add(t.ttl)

	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expires, nil
}

// Verify parses and checks the token. Any failure mode reads the same to the
// caller: missing, malformed, expired and forged tokens all map to AuthError.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, faults.Auth("access token required")
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, faults.Auth("invalid or expired token")
	}

	return &claims, nil
}

// RequireRole is a pure equality test against the route's declared role.
func RequireRole(claims *Claims, role string) error {
	if claims.Role != role {
		return faults.Forbidden("insufficient permissions")
	}
	return nil
}
