package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// issuedAt is a whole second so exp lands exactly on now+ttl.
var issuedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTokenService(t *testing.T, clock *fakeClock) *TokenService {
	t.Helper()
	s, err := NewTokenService(TokenConfig{
		Secret:     testSecret,
		Algorithm:  "HS256",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func decodePayload(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestNewTokenService_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  TokenConfig
	}{
		{name: "empty secret", cfg: TokenConfig{Algorithm: "HS256", AccessTTL: time.Minute, RefreshTTL: time.Hour}},
		{name: "unknown algorithm", cfg: TokenConfig{Secret: "s", Algorithm: "XX999", AccessTTL: time.Minute, RefreshTTL: time.Hour}},
		{name: "asymmetric algorithm", cfg: TokenConfig{Secret: "s", Algorithm: "RS256", AccessTTL: time.Minute, RefreshTTL: time.Hour}},
		{name: "zero access ttl", cfg: TokenConfig{Secret: "s", Algorithm: "HS256", RefreshTTL: time.Hour}},
		{name: "negative refresh ttl", cfg: TokenConfig{Secret: "s", Algorithm: "HS256", AccessTTL: time.Minute, RefreshTTL: -time.Hour}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenService(tt.cfg)
			assert.Error(t, err)
		})
	}

	_, err := NewTokenService(TokenConfig{Secret: "s", Algorithm: "hs512", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	assert.NoError(t, err, "algorithm names are case-insensitive")
}

func TestIssueAccessToken_Claims(t *testing.T) {
	clock := &fakeClock{t: issuedAt}
	s := newTestTokenService(t, clock)

	token, err := s.IssueAccessToken(42, 10*time.Minute)
	require.NoError(t, err)

	payload := decodePayload(t, token)
	assert.Equal(t, "42", payload["sub"])
	assert.Equal(t, float64(issuedAt.Add(10*time.Minute).Unix()), payload["exp"])
	assert.Equal(t, "access", payload["typ"])
	assert.NotEmpty(t, payload["jti"])

	id, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestIssueRefreshToken_HasNoJTI(t *testing.T) {
	s := newTestTokenService(t, &fakeClock{t: issuedAt})

	token, err := s.IssueRefresh(5)
	require.NoError(t, err)

	payload := decodePayload(t, token)
	assert.Equal(t, "5", payload["sub"])
	assert.Equal(t, "refresh", payload["typ"])
	assert.NotContains(t, payload, "jti")
	assert.Equal(t, float64(issuedAt.Add(7*24*time.Hour).Unix()), payload["exp"])
}

func TestIssueAccessToken_UniqueJTI(t *testing.T) {
	s := newTestTokenService(t, &fakeClock{t: issuedAt})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := s.IssueAccess(1)
		require.NoError(t, err)
		jti := decodePayload(t, token)["jti"].(string)
		require.False(t, seen[jti], "duplicate jti %s", jti)
		require.False(t, seen[token], "duplicate token")
		seen[jti] = true
		seen[token] = true
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	clock := &fakeClock{t: issuedAt}
	s := newTestTokenService(t, clock)

	token, err := s.IssueAccessToken(1, time.Minute)
	require.NoError(t, err)

	clock.t = issuedAt.Add(time.Minute - time.Second)
	id, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	clock.t = issuedAt.Add(time.Minute)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired, "a token is expired at exactly its exp instant")

	clock.t = issuedAt.Add(time.Hour)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_Invalid(t *testing.T) {
	clock := &fakeClock{t: issuedAt}
	s := newTestTokenService(t, clock)

	other, err := NewTokenService(TokenConfig{
		Secret: "another-secret", Algorithm: "HS256", AccessTTL: time.Minute, RefreshTTL: time.Hour,
	}, WithClock(clock.Now))
	require.NoError(t, err)
	foreign, err := other.IssueAccess(1)
	require.NoError(t, err)

	hs512, err := NewTokenService(TokenConfig{
		Secret: testSecret, Algorithm: "HS512", AccessTTL: time.Minute, RefreshTTL: time.Hour,
	}, WithClock(clock.Now))
	require.NoError(t, err)
	wrongAlg, err := hs512.IssueAccess(1)
	require.NoError(t, err)

	sign := func(claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}
	exp := jwt.NewNumericDate(issuedAt.Add(time.Hour))

	good, err := s.IssueAccess(1)
	require.NoError(t, err)
	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"2","exp":9999999999,"typ":"access"}`)) + "." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "foreign secret", token: foreign},
		{name: "different algorithm", token: wrongAlg},
		{name: "tampered payload", token: tampered},
		{name: "missing exp", token: sign(Claims{Use: useAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}})},
		{name: "missing subject", token: sign(Claims{Use: useAccess, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{name: "non-numeric subject", token: sign(Claims{Use: useAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp}})},
		{name: "zero subject", token: sign(Claims{Use: useAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: "0", ExpiresAt: exp}})},
		{name: "unsigned", token: func() string {
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp}).
				SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			return token
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.NotErrorIs(t, err, ErrTokenExpired)
		})
	}
}

func TestVerify_ExpiredWithBadSignatureIsInvalid(t *testing.T) {
	clock := &fakeClock{t: issuedAt}
	other, err := NewTokenService(TokenConfig{
		Secret: "another-secret", Algorithm: "HS256", AccessTTL: time.Minute, RefreshTTL: time.Hour,
	}, WithClock(clock.Now))
	require.NoError(t, err)
	token, err := other.IssueAccess(1)
	require.NoError(t, err)

	s := newTestTokenService(t, clock)
	clock.t = issuedAt.Add(time.Hour)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyUse(t *testing.T) {
	s := newTestTokenService(t, &fakeClock{t: issuedAt})

	access, err := s.IssueAccess(3)
	require.NoError(t, err)
	refresh, err := s.IssueRefresh(3)
	require.NoError(t, err)

	id, err := s.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	id, err = s.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	_, err = s.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid, "refresh tokens are not accepted as access tokens")

	_, err = s.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// Verify itself stays agnostic of the token kind.
	_, err = s.Verify(refresh)
	assert.NoError(t, err)
}
