package repository

import (
	"context"

	"github.com/polkiloo/pathway/internal/domain/model"
)

// UserRepository describes persistence operations for users.
//
// Create is a conditional insert: when a record with the same email already
// exists it returns errors.ErrAlreadyExists and stores nothing.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*model.User, error)
}
