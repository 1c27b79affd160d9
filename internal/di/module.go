package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/pointsledger/internal/app"
	"github.com/polkiloo/pointsledger/internal/config"
	"github.com/polkiloo/pointsledger/internal/logger"
	"github.com/polkiloo/pointsledger/internal/metrics"
	"github.com/polkiloo/pointsledger/internal/pkg/auth"
	"github.com/polkiloo/pointsledger/internal/server/http/router"
	"github.com/polkiloo/pointsledger/internal/storage"
	"github.com/polkiloo/pointsledger/internal/usecase"
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
