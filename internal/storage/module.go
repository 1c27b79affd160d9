// Package storage selects the repository backend for the application.
package storage

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/pointsledger/internal/config"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
	"github.com/polkiloo/pointsledger/internal/storage/memory"
	"github.com/polkiloo/pointsledger/internal/storage/postgres"
)

// Module wires the repository factory: PostgreSQL when DATABASE_URI is set, memory otherwise.
var Module = fx.Options(
	fx.Provide(newFactory),
)

type factoryParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newFactory(p factoryParams) (repository.Factory, error) {
	if p.Config.UsesMemoryStorage() {
		p.Logger.Warn("DATABASE_URI is empty, using in-memory storage")
		return memory.New(), nil
	}

	st, err := postgres.New(p.Ctx, p.Config.DatabaseURI, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			st.Close()
			return nil
		},
	})
	return st, nil
}
