package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejaspatil7903/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newTestIssuer() *TokenIssuer {
	return &TokenIssuer{
		AccessSecret:  []byte("access-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshSecret: []byte("refresh-secret"),
		RefreshTTL:    10 * 24 * time.Hour,
	}
}

func testUser() *models.User {
	return &models.User{
		ID:       bson.NewObjectID(),
		UserName: "alice",
		Email:    "alice@x.com",
		FullName: "Alice A",
	}
}

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	u := testUser()

	tok, err := iss.IssueAccessToken(u)
	require.NoError(t, err)

	claims, err := iss.VerifyAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.Subject)
	assert.Equal(t, "alice", claims.UserName)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, "Alice A", claims.FullName)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, claims.IssuedAt.Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestTokenIssuer_RefreshRoundTrip(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	u := testUser()

	tok, err := iss.IssueRefreshToken(u)
	require.NoError(t, err)

	claims, err := iss.VerifyRefreshToken(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.Subject)
}

func TestTokenIssuer_TokensAreUnique(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	u := testUser()

	a, err := iss.IssueRefreshToken(u)
	require.NoError(t, err)
	b, err := iss.IssueRefreshToken(u)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenIssuer_KindsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	u := testUser()

	access, err := iss.IssueAccessToken(u)
	require.NoError(t, err)
	refresh, err := iss.IssueRefreshToken(u)
	require.NoError(t, err)

	_, err = iss.VerifyRefreshToken(access)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = iss.VerifyAccessToken(refresh)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenIssuer_Expired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	iss := newTestIssuer()
	iss.Now = func() time.Time { return now }

	tok, err := iss.IssueAccessToken(testUser())
	require.NoError(t, err)

	iss.Now = func() time.Time { return now.Add(16 * time.Minute) }
	_, err = iss.VerifyAccessToken(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	claims := RefreshClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   bson.NewObjectID().Hex(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(iss.RefreshSecret)
	require.NoError(t, err)

	_, err = iss.VerifyRefreshToken(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenIssuer_RequiresExpiryAndSubject(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: bson.NewObjectID().Hex(),
	}}).SignedString(iss.RefreshSecret)
	require.NoError(t, err)
	_, err = iss.VerifyRefreshToken(noExp)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString(iss.RefreshSecret)
	require.NoError(t, err)
	_, err = iss.VerifyRefreshToken(noSub)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenIssuer_Malformed(t *testing.T) {
	t.Parallel()

	iss := newTestIssuer()
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := iss.VerifyAccessToken(tok)
		assert.True(t, errors.Is(err, ErrInvalidToken), "token %q", tok)
	}
}
