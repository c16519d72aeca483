// Package auth handles session tokens, password hashing and token
// extraction from HTTP requests.
//
// A session token is an HS256 JWT whose subject is the user ID and whose
// "jti" is the ID of the tokens row that backs it. The signature proves the
// server issued the value; the row decides whether it is still valid, so a
// logout takes effect immediately instead of waiting for expiry.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "shared-calendar"

	// DefaultSessionTTL is how long a login stays usable when the config
	// does not say otherwise.
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// TokenService signs and verifies session JWTs.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService.
// secret must be at least 16 characters. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issued is a freshly signed token together with the ID embedded in it.
type Issued struct {
	ID    string
	Value string
}

// Claims is what Validate extracts from a verified token.
type Claims struct {
	UserID  string
	TokenID string
}

// Generate signs a new session token for userID with a random UUID as its ID.
func (s *TokenService) Generate(userID string) (Issued, error) {
	now := s.now()
	id := uuid.NewString()

	c := jwt.RegisteredClaims{
		ID:        id,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return Issued{}, fmt.Errorf("auth: signing token: %w", err)
	}

	return Issued{ID: id, Value: signed}, nil
}

// Validate verifies the signature, issuer and expiry of tokenStr and
// returns its subject and ID.
func (s *TokenService) Validate(tokenStr string) (Claims, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("auth: token expired")
		}
		return Claims{}, fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Claims{}, fmt.Errorf("auth: token has no subject")
	}
	if c.ID == "" {
		return Claims{}, fmt.Errorf("auth: token has no id")
	}

	return Claims{UserID: c.Subject, TokenID: c.ID}, nil
}
