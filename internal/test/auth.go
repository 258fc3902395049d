package test

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	pkgAuth "github.com/polkiloo/pathway/internal/pkg/auth"
)

// HasherStub provides deterministic hashing for tests.
type HasherStub struct {
	HashFn   func(string) (string, error)
	VerifyFn func(string, string) bool
}

// Hash returns a predictable hash for the supplied password.
func (h HasherStub) Hash(password string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(password)
	}
	return "hash:" + password, nil
}

// Verify validates password against stored hash.
func (h HasherStub) Verify(hash string, password string) bool {
	if h.VerifyFn != nil {
		return h.VerifyFn(hash, password)
	}
	return hash == "hash:"+password
}

// IssuerStub issues predictable tokens; IssueFn overrides issuance.
type IssuerStub struct {
	IssueFn func(jwt.MapClaims) (string, error)
}

// IssueToken returns "token:<sub>" unless overridden.
func (s IssuerStub) IssueToken(claims jwt.MapClaims) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(claims)
	}
	sub, _ := claims["sub"].(string)
	return "token:" + sub, nil
}

// ParseToken reverses IssueToken's default "token:<sub>" format.
func (s IssuerStub) ParseToken(token string) (jwt.MapClaims, error) {
	sub, ok := strings.CutPrefix(token, "token:")
	if !ok {
		return nil, pkgAuth.ErrInvalidToken
	}
	return jwt.MapClaims{"sub": sub}, nil
}

// Name returns the issuer identifier used in tests.
func (s IssuerStub) Name() string {
	return "stub"
}

// AuthFacadeStub simulates authentication facade interactions.
type AuthFacadeStub struct {
	RegisterFn func(ctx context.Context, name, email, password string) error
	LoginFn    func(ctx context.Context, email, password string) (string, error)
}

// Register succeeds unless overridden.
func (s AuthFacadeStub) Register(ctx context.Context, name, email, password string) error {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, name, email, password)
	}
	return nil
}

// Login returns token for successful authentication scenarios.
func (s AuthFacadeStub) Login(ctx context.Context, email, password string) (string, error) {
	if s.LoginFn != nil {
		return s.LoginFn(ctx, email, password)
	}
	return "token", nil
}

var _ pkgAuth.PasswordHasher = HasherStub{}
var _ pkgAuth.TokenIssuer = IssuerStub{}
