package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"unicomm/domain"
)

// Claims is the identity carried inside a JWT: the user id and the
// single effective role, enough to rebuild a domain.Identity per request.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates identity tokens. The key comes from
// configuration, never from source.
type TokenManager struct {
	key      []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{key: []byte(secret), duration: duration}
}

func (tm *TokenManager) Generate(userID int64, role domain.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "unicomm",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.key)
}

// Validate parses the token and returns the identity claims when the
// signature and expiry check out.
func (tm *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.key, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// Identity rebuilds the request-scoped identity from validated claims.
func (c *Claims) Identity() (domain.Identity, error) {
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: c.UserID, Role: role}, nil
}
