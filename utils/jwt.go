package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cppla/matlog/config"
)

// ErrInvalidClaims is returned when a token verifies but carries no subject.
var ErrInvalidClaims = errors.New("invalid token claims")

// Claims mirrors the access token minted by the auth provider.
// The user id travels in the registered "sub" claim.
type Claims struct {
	Email       string `json:"email,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// GenerateToken signs a token for userID. Production tokens come from the auth
// provider; this is used by the CLI and tests.
func GenerateToken(userID, email string, anonymous bool, duration time.Duration) (string, error) {
	cfg := config.Get()

	now := time.Now()
	claims := Claims{
		Email:       email,
		IsAnonymous: anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
