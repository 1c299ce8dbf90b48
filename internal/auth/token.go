package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when the current time is at or past the exp claim.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, foreign algorithms, malformed
	// input, missing claims and unusable subjects.
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// TokenConfig is the signing configuration, fixed at startup.
type TokenConfig struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims is the payload of both token kinds. Refresh tokens carry no jti.
type Claims struct {
	Use string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HMAC-signed, stateless tokens.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the time source used for exp and iat and for verification.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService validates cfg and returns a ready TokenService.
func NewTokenService(cfg TokenConfig, opts ...TokenOption) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(cfg.Algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	s := &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueAccessToken signs an access token for userID valid for ttl. Every call
// gets a fresh random jti.
func (s *TokenService) IssueAccessToken(userID int64, ttl time.Duration) (string, error) {
	return s.sign(userID, ttl, useAccess, uuid.NewString())
}

// IssueRefreshToken signs a refresh token for userID valid for ttl.
func (s *TokenService) IssueRefreshToken(userID int64, ttl time.Duration) (string, error) {
	return s.sign(userID, ttl, useRefresh, "")
}

// IssueAccess issues an access token with the configured lifetime.
func (s *TokenService) IssueAccess(userID int64) (string, error) {
	return s.IssueAccessToken(userID, s.accessTTL)
}

// IssueRefresh issues a refresh token with the configured lifetime.
func (s *TokenService) IssueRefresh(userID int64) (string, error) {
	return s.IssueRefreshToken(userID, s.refreshTTL)
}

// Verify checks signature and expiry and returns the subject user id. It does
// not look at the token kind; see VerifyAccess and VerifyRefresh.
func (s *TokenService) Verify(raw string) (int64, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return 0, err
	}
	return subjectID(claims)
}

// VerifyAccess is Verify restricted to access tokens.
func (s *TokenService) VerifyAccess(raw string) (int64, error) {
	return s.verifyUse(raw, useAccess)
}

// VerifyRefresh is Verify restricted to refresh tokens.
func (s *TokenService) VerifyRefresh(raw string) (int64, error) {
	return s.verifyUse(raw, useRefresh)
}

func (s *TokenService) verifyUse(raw, use string) (int64, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return 0, err
	}
	if claims.Use != use {
		return 0, fmt.Errorf("%w: not a %s token", ErrTokenInvalid, use)
	}
	return subjectID(claims)
}

func (s *TokenService) sign(userID int64, ttl time.Duration, use, jti string) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Use: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", use, err)
	}
	return signed, nil
}

func (s *TokenService) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

func subjectID(claims *Claims) (int64, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: unusable subject %q", ErrTokenInvalid, claims.Subject)
	}
	return id, nil
}
