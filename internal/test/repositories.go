package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/pathway/internal/domain/errors"
	"github.com/polkiloo/pathway/internal/domain/model"
	"github.com/polkiloo/pathway/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests. Create enforces email
// uniqueness atomically, like the unique constraint of the real table.
type UserRepositoryStub struct {
	mu sync.Mutex

	Users map[string]*model.User
	Next  int64
	Err   error

	// FindErr and CreateErr fail only the matching operation.
	FindErr   error
	CreateErr error

	// BeforeCreate runs before the uniqueness check; tests use it to widen race windows.
	BeforeCreate func()

	FindCalls   int
	CreateCalls int
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		Next:  1,
	}
}

// FindByEmail fetches user by email or returns not found.
func (s *UserRepositoryStub) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FindCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	if user, ok := s.Users[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	if s.BeforeCreate != nil {
		s.BeforeCreate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if _, exists := s.Users[email]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	s.Next++
	s.Users[email] = user
	copied := *user
	return &copied, nil
}

// Count returns number of stored users.
func (s *UserRepositoryStub) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Users)
}

var _ repository.UserRepository = (*UserRepositoryStub)(nil)
