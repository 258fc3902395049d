package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	domainErrors "github.com/polkiloo/pathway/internal/domain/errors"
	"github.com/polkiloo/pathway/internal/domain/model"
	"github.com/polkiloo/pathway/internal/domain/repository"
	pkgAuth "github.com/polkiloo/pathway/internal/pkg/auth"
)

// AuthUseCase handles registration and login.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.TokenIssuer
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(users repository.UserRepository, hasher pkgAuth.PasswordHasher, issuer pkgAuth.TokenIssuer) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: issuer}
}

// Register stores a new user with a hashed password. No token is issued.
//
// The lookup only short-circuits the common duplicate case; uniqueness is
// decided by the repository's conditional insert.
func (u *AuthUseCase) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, domainErrors.ErrInvalidCredentials
	}

	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return nil, domainErrors.ErrAlreadyExists
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, &domainErrors.PersistenceError{Err: err}
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	usr, err := u.users.Create(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, &domainErrors.PersistenceError{Err: err}
	}

	return usr, nil
}

// Authenticate validates credentials and returns a signed access token whose
// subject is the email. Unknown email and wrong password are indistinguishable.
func (u *AuthUseCase) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return "", domainErrors.ErrInvalidCredentials
		}
		return "", err
	}

	if !u.hasher.Verify(usr.PasswordHash, password) {
		return "", domainErrors.ErrInvalidCredentials
	}

	token, err := u.tokens.IssueToken(jwt.MapClaims{"sub": email})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}
