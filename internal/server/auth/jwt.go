// Package auth issues and validates the bearer tokens used by the HTTP API
// and carries the authenticated principal through request contexts.
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/dmitrijs2005/bankapi/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// TokenPattern is the compact JWS shape accepted from clients.
var TokenPattern = regexp.MustCompile(`^[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+$`)

// Claims is the token payload. Subject holds the login, ID the token id.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role,omitempty"`
}

// TokenService is stateless: it keeps no record of issued tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewTokenService(secret []byte, ttl time.Duration, clock clockwork.Clock) *TokenService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenService{secret: secret, ttl: ttl, clock: clock}
}

// Issue signs a token for login that expires ttl after now.
func (s *TokenService) Issue(login string, role models.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("issue token: unknown role %q", role)
	}

	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Parse verifies the signature and expiry of tokenString and returns its
// claims. It does not check that the subject exists.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	if !TokenPattern.MatchString(tokenString) {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Subject returns the login a valid token was issued for.
func (s *TokenService) Subject(tokenString string) (string, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Remaining reports how long a token expiring at expiresAt stays valid,
// never negative.
func (s *TokenService) Remaining(expiresAt time.Time) time.Duration {
	d := expiresAt.Sub(s.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}
