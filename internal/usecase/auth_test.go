package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	domainErrors "github.com/polkiloo/pathway/internal/domain/errors"
	pkgAuth "github.com/polkiloo/pathway/internal/pkg/auth"
	testhelpers "github.com/polkiloo/pathway/internal/test"
)

func newAuthUseCase(repo *testhelpers.UserRepositoryStub) *AuthUseCase {
	return NewAuthUseCase(repo, testhelpers.HasherStub{}, testhelpers.IssuerStub{})
}

func TestAuthUseCaseRegisterSuccess(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := newAuthUseCase(repo)

	ctx := context.Background()
	user, err := uc.Register(ctx, "Alice", "alice@example.com", "password")
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected user to have ID assigned")
	}
	stored, err := repo.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("expected user in repository: %v", err)
	}
	if stored.Name != "Alice" {
		t.Fatalf("unexpected name %q", stored.Name)
	}
	if stored.PasswordHash != "hash:password" {
		t.Fatalf("password hash not stored: %v", stored.PasswordHash)
	}
}

func TestAuthUseCaseRegisterStoresHashNotPlaintext(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := NewAuthUseCase(repo, pkgAuth.NewBcryptHasher(bcrypt.MinCost), testhelpers.IssuerStub{})

	email := testhelpers.RandomEmail()
	if _, err := uc.Register(context.Background(), "Eve", email, "plaintext"); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if repo.Count() != 1 {
		t.Fatalf("expected exactly one record, got %d", repo.Count())
	}
	stored, err := repo.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("expected stored user: %v", err)
	}
	if stored.PasswordHash == "plaintext" {
		t.Fatal("password stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("plaintext")) != nil {
		t.Fatal("stored hash does not verify")
	}
}

func TestAuthUseCaseRegisterDuplicate(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := newAuthUseCase(repo)

	ctx := context.Background()
	if _, err := uc.Register(ctx, "Bob", "bob@example.com", "secret"); err != nil {
		t.Fatalf("unexpected error on first register: %v", err)
	}
	if _, err := uc.Register(ctx, "Bob", "bob@example.com", "secret"); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if repo.CreateCalls != 1 {
		t.Fatalf("expected lookup to short-circuit the second insert, got %d creates", repo.CreateCalls)
	}
}

func TestAuthUseCaseRegisterConflictOnInsert(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	repo.CreateErr = fmt.Errorf("conflict: %w", domainErrors.ErrAlreadyExists)
	uc := newAuthUseCase(repo)
	if _, err := uc.Register(context.Background(), "Bob", "bob@example.com", "secret"); err != domainErrors.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAuthUseCaseRegisterConcurrentSameEmail(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := testhelpers.NewUserRepositoryStub()
	start := make(chan struct{})
	var arrived sync.WaitGroup
	arrived.Add(2)
	repo.BeforeCreate = func() {
		arrived.Done()
		<-start
	}
	uc := newAuthUseCase(repo)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Register(context.Background(), "Racer", "race@example.com", "secret")
		}(i)
	}

	done := make(chan struct{})
	go func() {
		arrived.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("both registrations should pass the lookup before inserting")
	}
	close(start)
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domainErrors.ErrAlreadyExists):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || duplicates != 1 {
		t.Fatalf("expected one success and one duplicate, got %d/%d", succeeded, duplicates)
	}
	if repo.Count() != 1 {
		t.Fatalf("expected one stored record, got %d", repo.Count())
	}
}

func TestAuthUseCaseRegisterValidation(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewUserRepositoryStub())
	cases := [][3]string{
		{"", "a@b.co", "password"},
		{"name", "   ", "password"},
		{"name", "a@b.co", ""},
	}
	for _, c := range cases {
		if _, err := uc.Register(context.Background(), c[0], c[1], c[2]); err != domainErrors.ErrInvalidCredentials {
			t.Fatalf("expected invalid credentials error for %v, got %v", c, err)
		}
	}
}

func TestAuthUseCaseRegisterHasherError(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := NewAuthUseCase(repo, testhelpers.HasherStub{HashFn: func(string) (string, error) {
		return "", fmt.Errorf("hash error")
	}}, testhelpers.IssuerStub{})
	if _, err := uc.Register(context.Background(), "user", "user@example.com", "pass"); err == nil {
		t.Fatal("expected hashing error")
	}
	if repo.CreateCalls != 0 {
		t.Fatal("expected no insert after hashing failure")
	}
}

func TestAuthUseCaseRegisterLookupError(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	repo.FindErr = fmt.Errorf("db down")
	uc := newAuthUseCase(repo)
	_, err := uc.Register(context.Background(), "user", "user@example.com", "pass")
	if !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if repo.CreateCalls != 0 {
		t.Fatal("expected no insert after lookup failure")
	}
}

func TestAuthUseCaseRegisterRepositoryError(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	repo.CreateErr = fmt.Errorf("relation \"Users\" does not exist")
	uc := newAuthUseCase(repo)
	_, err := uc.Register(context.Background(), "user", "user@example.com", "pass")
	if !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if err.Error() != `persistence error: relation "Users" does not exist` {
		t.Fatalf("expected store message to be preserved, got %q", err.Error())
	}
}

func TestAuthUseCaseAuthenticate(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := newAuthUseCase(repo)

	ctx := context.Background()
	if _, err := uc.Register(ctx, "Carol", "carol@example.com", "123456"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := uc.Authenticate(ctx, "carol@example.com", "bad"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}

	token, err := uc.Authenticate(ctx, "carol@example.com", "123456")
	if err != nil {
		t.Fatalf("authenticate returned error: %v", err)
	}
	if token != "token:carol@example.com" {
		t.Fatalf("unexpected token %q", token)
	}
	claims, err := testhelpers.IssuerStub{}.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims["sub"] != "carol@example.com" {
		t.Fatalf("unexpected subject %v", claims["sub"])
	}
}

func TestAuthUseCaseAuthenticateIssuesRealToken(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	issuer := pkgAuth.NewJWTIssuer("secret", pkgAuth.Options{})
	uc := NewAuthUseCase(repo, pkgAuth.NewBcryptHasher(bcrypt.MinCost), issuer)

	ctx := context.Background()
	if _, err := uc.Register(ctx, "Dave", "dave@example.com", "pwd"); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	issuedAt := time.Now()
	token, err := uc.Authenticate(ctx, "dave@example.com", "pwd")
	if err != nil {
		t.Fatalf("authenticate returned error: %v", err)
	}
	claims, err := issuer.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if sub, _ := claims.GetSubject(); sub != "dave@example.com" {
		t.Fatalf("unexpected subject %q", sub)
	}
	exp, _ := claims.GetExpirationTime()
	if diff := exp.Sub(issuedAt.Add(30 * time.Minute)); diff < -5*time.Second || diff > 5*time.Second {
		t.Fatalf("unexpected expiry %s", exp.Time)
	}
}

func TestAuthUseCaseAuthenticateNotFound(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewUserRepositoryStub())
	if _, err := uc.Authenticate(context.Background(), "absent@example.com", "pass"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
}

func TestAuthUseCaseAuthenticateHasherMismatch(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := NewAuthUseCase(repo, testhelpers.HasherStub{VerifyFn: func(string, string) bool {
		return false
	}}, testhelpers.IssuerStub{})
	if _, err := uc.Register(context.Background(), "user", "user@example.com", "pass"); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if _, err := uc.Authenticate(context.Background(), "user@example.com", "pass"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthUseCaseAuthenticateIssueTokenError(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	issuer := testhelpers.IssuerStub{IssueFn: func(jwt.MapClaims) (string, error) {
		return "", pkgAuth.ErrMissingSecret
	}}
	uc := NewAuthUseCase(repo, testhelpers.HasherStub{}, issuer)
	if _, err := uc.Register(context.Background(), "user", "user@example.com", "pass"); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if _, err := uc.Authenticate(context.Background(), "user@example.com", "pass"); !errors.Is(err, pkgAuth.ErrMissingSecret) {
		t.Fatalf("expected missing secret error on authenticate, got %v", err)
	}
}

func TestAuthUseCaseAuthenticateRepositoryError(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	repo.Err = fmt.Errorf("storage unavailable")
	uc := newAuthUseCase(repo)
	if _, err := uc.Authenticate(context.Background(), "user@example.com", "pass"); err == nil || err.Error() != "storage unavailable" {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestAuthUseCaseAuthenticateValidation(t *testing.T) {
	uc := newAuthUseCase(testhelpers.NewUserRepositoryStub())
	if _, err := uc.Authenticate(context.Background(), "", "pass"); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
	if _, err := uc.Authenticate(context.Background(), "user@example.com", ""); err != domainErrors.ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
}

func TestAuthUseCaseTrimsEmail(t *testing.T) {
	repo := testhelpers.NewUserRepositoryStub()
	uc := newAuthUseCase(repo)
	if _, err := uc.Register(context.Background(), " user ", "  user@example.com  ", "pass"); err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if _, err := uc.Authenticate(context.Background(), "  user@example.com  ", "pass"); err != nil {
		t.Fatalf("authenticate returned error: %v", err)
	}
}
