// Package jwks verifies RS256 access tokens issued by a hosted identity provider
// (Clerk, Auth0 and friends) against the issuer's JWKS endpoint.
package jwks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"magician-server/internal/domain"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// Verifier validates JWT access tokens against a JWKS endpoint.
type Verifier struct {
	issuer   string
	audience string
	keyfunc  keyfunc.Keyfunc
	parser   *jwt.Parser
}

// NewVerifier builds a verifier. jwksURL defaults to <issuer>/.well-known/jwks.json and
// an empty audience disables the audience check.
func NewVerifier(issuer, audience, jwksURL string) (*Verifier, error) {
	normalizedIssuer := strings.TrimRight(strings.TrimSpace(issuer), "/")
	if normalizedIssuer == "" {
		return nil, errors.New("issuer must be set")
	}
	if jwksURL == "" {
		jwksURL = normalizedIssuer + "/.well-known/jwks.json"
	}

	keyProvider, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(defaultLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name, jwt.SigningMethodRS384.Name, jwt.SigningMethodRS512.Name}),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &Verifier{
		issuer:   normalizedIssuer,
		audience: audience,
		keyfunc:  keyProvider,
		parser:   jwt.NewParser(opts...),
	}, nil
}

// ValidateToken parses and validates a JWT, returning the user it identifies.
func (v *Verifier) ValidateToken(tokenString string) (*domain.AuthUser, error) {
	token, err := v.parser.Parse(tokenString, v.keyfunc.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", domain.ErrInvalidToken)
	}

	// Issuers differ on the trailing slash (Auth0 adds one, Clerk does not).
	if iss := strings.TrimRight(readString(claims, "iss"), "/"); iss != v.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", domain.ErrInvalidToken, iss)
	}

	sub := readString(claims, "sub")
	if sub == "" {
		return nil, fmt.Errorf("%w: token missing sub", domain.ErrInvalidToken)
	}

	return &domain.AuthUser{
		ID:           sub,
		Email:        readString(claims, "email"),
		UserMetadata: map[string]interface{}(claims),
	}, nil
}

func readString(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
