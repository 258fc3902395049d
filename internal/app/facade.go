package app

import (
	"context"

	"github.com/polkiloo/pathway/internal/usecase"
)

// AccountFacade exposes account operations to the HTTP layer.
type AccountFacade struct {
	auth *usecase.AuthUseCase
}

func NewAccountFacade(auth *usecase.AuthUseCase) *AccountFacade {
	return &AccountFacade{auth: auth}
}

// Register creates an account. The stored record is not exposed.
func (f *AccountFacade) Register(ctx context.Context, name, email, password string) error {
	_, err := f.auth.Register(ctx, name, email, password)
	return err
}

// Login returns a signed access token for valid credentials.
func (f *AccountFacade) Login(ctx context.Context, email, password string) (string, error) {
	return f.auth.Authenticate(ctx, email, password)
}
