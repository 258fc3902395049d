package storage

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/pathway/internal/adapter/postgrest"
	"github.com/polkiloo/pathway/internal/config"
	"github.com/polkiloo/pathway/internal/domain/repository"
	"github.com/polkiloo/pathway/internal/storage/postgres"
)

// Module provides the user repository for the configured store backend.
var Module = fx.Provide(newUserRepository)

type storageParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newUserRepository(p storageParams) (repository.UserRepository, error) {
	switch p.Config.StoreBackend {
	case config.StoreBackendREST:
		p.Logger.Info("using REST user store", slog.String("table", p.Config.UsersTable))
		client, err := postgrest.NewHTTPClient(p.Config.SupabaseURL, p.Config.SupabaseKey, p.Config.UsersTable, p.Logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.StoreBackendPostgres:
		st, err := postgres.New(p.Ctx, p.Config.DatabaseURI, p.Config.AutoMigrate, p.Logger)
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				st.Close()
				return nil
			},
		})
		return st.Users(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", p.Config.StoreBackend)
	}
}
