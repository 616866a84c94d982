package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token roles. A visitor token's subject is the visitor id; the admin token
// has a fixed subject.
const (
	RoleVisitor = "visitor"
	RoleAdmin   = "admin"

	adminSubject = "admin"
)

var ErrInvalidToken = errors.New("auth: invalid token")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func SignJWT(subject, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func SignVisitorToken(visitorID, secret string, ttl time.Duration) (string, error) {
	return SignJWT(visitorID, RoleVisitor, secret, ttl)
}

func SignAdminToken(secret string, ttl time.Duration) (string, error) {
	return SignJWT(adminSubject, RoleAdmin, secret, ttl)
}

// ParseJWT verifies the signature and expiry and requires the given role.
func ParseJWT(tokenStr, role, secret string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != role || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
