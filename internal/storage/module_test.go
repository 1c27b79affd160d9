package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/fx"

	"github.com/polkiloo/pointsledger/internal/config"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
	"github.com/polkiloo/pointsledger/internal/storage/memory"
)

func TestModuleSelectsMemoryWithoutDSN(t *testing.T) {
	var factory repository.Factory
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{}),
		fx.Provide(func() context.Context { return context.Background() }),
		fx.Provide(func() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }),
		Module,
		fx.Populate(&factory),
	)
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	if err := app.Err(); err != nil {
		t.Fatalf("fx app failed: %v", err)
	}
	if _, ok := factory.(*memory.Storage); !ok {
		t.Fatalf("expected memory storage, got %T", factory)
	}
}

func TestModuleFailsOnBadDSN(t *testing.T) {
	var factory repository.Factory
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{DatabaseURI: ":://bad"}),
		fx.Provide(func() context.Context { return context.Background() }),
		fx.Provide(func() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }),
		Module,
		fx.Populate(&factory),
	)
	if app.Err() == nil {
		t.Fatal("expected construction error")
	}
}
