package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"howsitter/internal/domain"
)

// Issuer signs and verifies HS256 bearer tokens carrying the user id, email
// and role, the contract the identity provider in front of the API exposes.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func New(secret string, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (i *Issuer) Issue(u domain.User) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	return t.SignedString(i.secret)
}

func (i *Issuer) Verify(raw string) (domain.Claims, error) {
	var c claims
	t, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !t.Valid {
		return domain.Claims{}, errors.Join(domain.ErrUnauthorized, err)
	}
	role := domain.Role(c.Role)
	if c.UserID == "" || !role.Valid() {
		return domain.Claims{}, domain.ErrUnauthorized
	}
	return domain.Claims{UserID: c.UserID, Email: c.Email, Role: role}, nil
}
