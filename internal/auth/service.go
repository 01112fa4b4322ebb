// Package auth issues and verifies the admin tokens protecting mutating
// endpoints. Single configured admin account, HS256 signed tokens, refresh
// revocation held in memory.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials reports a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken reports an expired, malformed, revoked or
	// wrong-type token.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the custom claims carried by viewsync tokens.
type Claims struct {
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair bundles the tokens returned by a login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Service authenticates the configured admin and manages token lifetimes.
type Service struct {
	secret     []byte
	adminUser  string
	adminHash  string
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry, pruned on access
}

// NewService creates an auth service. adminHash is the hex SHA-256 of the
// admin password.
func NewService(secret, adminUser, adminHash string, accessTTL, refreshTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Service{
		secret:     []byte(secret),
		adminUser:  adminUser,
		adminHash:  adminHash,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    make(map[string]time.Time),
	}
}

// HashPassword returns the hex SHA-256 digest used for the configured admin
// password hash.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Login verifies the credentials and issues a fresh token pair.
func (s *Service) Login(username, password string) (TokenPair, error) {
	hash := HashPassword(password)
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.adminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(hash), []byte(s.adminHash)) == 1
	if !userOK || !passOK {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.issuePair(username)
}

func (s *Service) issuePair(username string) (TokenPair, error) {
	access, err := s.sign(username, "access", s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(username, "refresh", s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *Service) sign(username, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:  username,
		Role:      "admin",
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *Service) parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *Service) VerifyAccess(tokenString string) (*Claims, error) {
	return s.parse(tokenString, "access")
}

// Refresh validates a refresh token and issues a new token pair. The used
// refresh token stays valid until logout or expiry, matching the original
// admin console behavior.
func (s *Service) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := s.parse(refreshToken, "refresh")
	if err != nil {
		return TokenPair{}, err
	}
	if s.isRevoked(claims.ID) {
		return TokenPair{}, ErrInvalidToken
	}
	return s.issuePair(claims.Username)
}

// Revoke invalidates a refresh token (logout).
func (s *Service) Revoke(refreshToken string) error {
	claims, err := s.parse(refreshToken, "refresh")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

func (s *Service) isRevoked(jti string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	_, ok := s.revoked[jti]
	return ok
}

// prune drops revocation entries for tokens that have expired anyway.
// Caller holds s.mu.
func (s *Service) prune() {
	now := time.Now()
	for jti, expiry := range s.revoked {
		if expiry.Before(now) {
			delete(s.revoked, jti)
		}
	}
}
