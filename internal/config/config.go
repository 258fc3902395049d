package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Store backends understood by the storage module.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendREST     = "rest"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	StoreBackend    string
	DatabaseURI     string
	SupabaseURL     string
	SupabaseKey     string
	UsersTable      string
	SecretKey       string
	TokenTTL        time.Duration
	BcryptCost      int
	AutoMigrate     bool
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress      = ":8080"
	defaultStoreBackend    = StoreBackendPostgres
	defaultUsersTable      = "Users"
	defaultTokenTTL        = 30 * time.Minute
	defaultShutdownTimeout = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	bcryptCost, err := getInt(lookup, "BCRYPT_COST", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid bcrypt cost: %w", err)
	}
	autoMigrate, err := getBool(lookup, "AUTO_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("invalid auto migrate: %w", err)
	}

	cfg := &Config{
		RunAddress:   getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		StoreBackend: getString(lookup, "STORE_BACKEND", defaultStoreBackend),
		DatabaseURI:  getString(lookup, "DATABASE_URI", ""),
		SupabaseURL:  getString(lookup, "SUPABASE_URL", ""),
		SupabaseKey:  getString(lookup, "SUPABASE_KEY", ""),
		UsersTable:   getString(lookup, "USERS_TABLE", defaultUsersTable),
		SecretKey:    getString(lookup, "SECRET_KEY", ""),
		BcryptCost:   bcryptCost,
		AutoMigrate:  autoMigrate,
	}

	fs := flag.NewFlagSet("pathway", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		tokenTTLStr        = getString(lookup, "ACCESS_TOKEN_TTL", defaultTokenTTL.String())
		shutdownTimeoutStr = getString(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout.String())
		logLevelStr        = getString(lookup, "LOG_LEVEL", slog.LevelInfo.String())
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "User store backend: postgres or rest")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.SupabaseURL, "supabase-url", cfg.SupabaseURL, "Hosted store REST base URL")
	fs.StringVar(&cfg.SupabaseKey, "supabase-key", cfg.SupabaseKey, "Hosted store service key")
	fs.StringVar(&cfg.UsersTable, "users-table", cfg.UsersTable, "Users table name on the REST backend")
	fs.StringVar(&cfg.SecretKey, "secret-key", cfg.SecretKey, "Secret for signing access tokens")
	fs.StringVar(&tokenTTLStr, "token-ttl", tokenTTLStr, "Access token lifetime")
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "bcrypt cost, 0 for library default")
	fs.BoolVar(&cfg.AutoMigrate, "migrate", cfg.AutoMigrate, "Apply schema migrations on start")
	fs.StringVar(&logLevelStr, "log-level", logLevelStr, "Log level: debug, info, warn, error")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.TokenTTL, err = time.ParseDuration(tokenTTLStr); err != nil {
		return nil, fmt.Errorf("invalid token ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevelStr)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	if secretFile, ok := lookup("SECRET_KEY_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read secret key file: %w", err)
		}
		cfg.SecretKey = strings.TrimSpace(string(content))
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.BcryptCost != 0 && (cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost) {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if cfg.UsersTable == "" {
		cfg.UsersTable = defaultUsersTable
	}

	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("secret key must be provided")
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		if cfg.DatabaseURI == "" {
			return nil, fmt.Errorf("database URI must be provided")
		}
	case StoreBackendREST:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("supabase url and key must be provided")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) (int, error) {
	if v, ok := lookup(key); ok && v != "" {
		return strconv.Atoi(v)
	}
	return def, nil
}

func getBool(lookup envLookup, key string, def bool) (bool, error) {
	if v, ok := lookup(key); ok && v != "" {
		return strconv.ParseBool(v)
	}
	return def, nil
}
