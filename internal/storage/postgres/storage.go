package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/pathway/internal/domain/errors"
	"github.com/polkiloo/pathway/internal/domain/model"
	"github.com/polkiloo/pathway/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage is the PostgreSQL-backed user store.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

// New connects to PostgreSQL and, when autoMigrate is set, applies embedded migrations.
func New(ctx context.Context, dsn string, autoMigrate bool, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if autoMigrate {
		if err := migrate(ctx, cfg); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database schema is up to date")
	}

	return &Storage{pool: pool, logger: logger}, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Users returns the user repository backed by this storage.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT id, name, email, password, created_at FROM "Users" WHERE email=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	const query = `INSERT INTO "Users" (name, email, password) VALUES ($1, $2, $3)
                   ON CONFLICT (email) DO NOTHING
                   RETURNING id, created_at`
	u := model.User{Name: name, Email: email, PasswordHash: passwordHash}
	err := r.storage.pool.QueryRow(ctx, query, name, email, passwordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.storage.logger.Debug("user insert skipped, email taken")
			return nil, domainErrors.ErrAlreadyExists
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}
