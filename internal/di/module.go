package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/pathway/internal/app"
	"github.com/polkiloo/pathway/internal/config"
	"github.com/polkiloo/pathway/internal/logger"
	"github.com/polkiloo/pathway/internal/metrics"
	"github.com/polkiloo/pathway/internal/pkg/auth"
	"github.com/polkiloo/pathway/internal/server/http/router"
	"github.com/polkiloo/pathway/internal/storage"
	"github.com/polkiloo/pathway/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		storage.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
