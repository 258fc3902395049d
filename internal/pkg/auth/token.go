package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid auth token")
	ErrMissingSecret = errors.New("token signing secret is not configured")
)

// DefaultTokenTTL is the access token lifetime used when none is configured.
const DefaultTokenTTL = 30 * time.Minute

// TokenIssuer signs and verifies bearer tokens carrying a claims mapping.
type TokenIssuer interface {
	IssueToken(claims jwt.MapClaims) (string, error)
	ParseToken(token string) (jwt.MapClaims, error)
	Name() string
}

// Options tunes token issuance.
type Options struct {
	TTL time.Duration
	Now func() time.Time
}

// JWTIssuer implements TokenIssuer with HS256-signed JWTs.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer builds JWTIssuer with provided secret and options.
func NewJWTIssuer(secret string, opts Options) *JWTIssuer {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

// IssueToken signs a copy of claims with an exp claim set to now+TTL.
// A caller-supplied exp is overwritten.
func (s *JWTIssuer) IssueToken(claims jwt.MapClaims) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	toEncode := make(jwt.MapClaims, len(claims)+1)
	for k, v := range claims {
		toEncode[k] = v
	}
	toEncode["exp"] = jwt.NewNumericDate(s.now().Add(s.ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, toEncode).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates signature and expiry and returns the embedded claims.
func (s *JWTIssuer) ParseToken(token string) (jwt.MapClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTIssuer) Name() string {
	return "jwt"
}
