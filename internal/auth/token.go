// Package auth is the identity collaborator: it issues and verifies access
// tokens and hashes passwords. The document core only ever sees model.Actor.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"certdocs/internal/apperr"
	"certdocs/internal/model"
)

const issuer = "certdocs"

// Claims carries the actor identity inside an HS256 token. Subject is the user id.
type Claims struct {
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
	BranchID string     `json:"branchId,omitempty"`
	jwt.RegisteredClaims
}

// Actor projects the claims onto the request identity.
func (c *Claims) Actor() model.Actor {
	return model.Actor{ID: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role, BranchID: c.BranchID}
}

// TokenService signs and validates access tokens.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewTokenService(signingKey string, ttl time.Duration) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for actor valid for the configured TTL.
func (s *TokenService) Issue(actor model.Actor) (string, error) {
	if len(s.signingKey) == 0 {
		return "", errors.New("jwt signing key is not configured")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:    actor.Email,
		Name:     actor.Name,
		Role:     actor.Role,
		BranchID: actor.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Verify parses and validates a token and returns its claims. Every failure
// is UNAUTHORIZED.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("token has expired")
		}
		return nil, apperr.Unauthorized("invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, apperr.Unauthorized("invalid token claims")
	}
	return claims, nil
}
