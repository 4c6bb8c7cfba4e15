package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tejaspatil7903/backend/models"
)

type AccessClaims struct {
	Email    string `json:"email"`
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies both token kinds. Access and refresh tokens
// are signed with different secrets so neither can stand in for the other.
type TokenIssuer struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (t *TokenIssuer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *TokenIssuer) registered(userID string, ttl time.Duration) jwt.RegisteredClaims {
	now := t.now()
	return jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *TokenIssuer) IssueAccessToken(u *models.User) (string, error) {
	claims := AccessClaims{
		Email:            u.Email,
		UserName:         u.UserName,
		FullName:         u.FullName,
		RegisteredClaims: t.registered(u.ID.Hex(), t.AccessTTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(t.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return s, nil
}

func (t *TokenIssuer) IssueRefreshToken(u *models.User) (string, error) {
	claims := RefreshClaims{RegisteredClaims: t.registered(u.ID.Hex(), t.RefreshTTL)}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(t.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return s, nil
}

func (t *TokenIssuer) VerifyAccessToken(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.parse(tokenStr, claims, t.AccessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) VerifyRefreshToken(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := t.parse(tokenStr, claims, t.RefreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	if tokenStr == "" {
		return InvalidToken("token is missing")
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return InvalidToken("token is expired")
	case err != nil || !token.Valid:
		return InvalidToken("invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return InvalidToken("token has no subject")
	}
	return nil
}
