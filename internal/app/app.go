package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/pointsledger/internal/bus"
	"github.com/polkiloo/pointsledger/internal/config"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
	"github.com/polkiloo/pointsledger/internal/metrics"
	"github.com/polkiloo/pointsledger/internal/projection"
	"github.com/polkiloo/pointsledger/internal/saga"
	"github.com/polkiloo/pointsledger/internal/server/http/handlers"
	"github.com/polkiloo/pointsledger/internal/usecase"
	"github.com/polkiloo/pointsledger/internal/validation"
	"github.com/polkiloo/pointsledger/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newBus,
		newDirectory,
		newRedemptionTracker,
		newExpirationTracker,
		newGate,
		saga.NewTimerScheduler,
		newRunner,
		NewLedgerFacade,
		newHTTPServer,
		newExpirationSweeper,
		func(f repository.Factory) repository.EventStore { return f.Events() },
		func(g *validation.Gate) usecase.Gate { return g },
		func(b *bus.Bus) usecase.Publisher { return b },
		func(f *LedgerFacade) handlers.OpsFacade { return f },
	),
	fx.Invoke(subscribe),
	fx.Invoke(registerLifecycle),
)

type busParams struct {
	fx.In

	Config  *config.Config
	Storage repository.Factory
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func newBus(p busParams) *bus.Bus {
	return bus.New(p.Config.BusPartitions, p.Storage.Interventions(), p.Metrics, p.Logger)
}

func newDirectory(f repository.Factory) *projection.Directory {
	return projection.NewDirectory(f.Directory())
}

func newRedemptionTracker(f repository.Factory) *projection.RedemptionTracker {
	return projection.NewRedemptionTracker(f.Redemptions())
}

func newExpirationTracker(f repository.Factory, logger *slog.Logger) *projection.ExpirationTracker {
	return projection.NewExpirationTracker(f.Expirations(), logger)
}

func newGate(f repository.Factory) *validation.Gate {
	return validation.NewGate(f.Directory(), f.Redemptions())
}

type runnerParams struct {
	fx.In

	Config    *config.Config
	Storage   repository.Factory
	Commands  *usecase.CommandHandler
	Scheduler *saga.TimerScheduler
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func newRunner(p runnerParams) *saga.Runner {
	return saga.NewRunner(
		p.Storage.Sagas(),
		p.Storage.Directory(),
		p.Storage.Interventions(),
		p.Commands,
		p.Scheduler,
		p.Metrics,
		p.Logger,
		saga.Config{
			CreationDeadline: p.Config.CreationDeadline,
			DispatchTimeout:  p.Config.DispatchTimeout,
		},
	)
}

type subscriberParams struct {
	fx.In

	Bus         *bus.Bus
	Directory   *projection.Directory
	Redemptions *projection.RedemptionTracker
	Expirations *projection.ExpirationTracker
	Runner      *saga.Runner
}

// subscribe registers the read models before the sagas so a saga never acts on
// a fact the directory has not seen yet.
func subscribe(p subscriberParams) {
	p.Bus.Subscribe(p.Directory)
	p.Bus.Subscribe(p.Redemptions)
	p.Bus.Subscribe(p.Expirations)
	p.Bus.Subscribe(p.Runner)
}

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.OpsAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade  *LedgerFacade
	Config  *config.Config
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func newExpirationSweeper(p workerParams) *worker.ExpirationSweeper {
	return worker.NewExpirationSweeper(
		p.Facade,
		p.Config.SweepInterval,
		p.Config.PointsLifetime,
		p.Config.SweepBatch,
		p.Config.WorkerPoolSize,
		p.Metrics,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Bus        *bus.Bus
	Runner     *saga.Runner
	Scheduler  *saga.TimerScheduler
	Sweeper    *worker.ExpirationSweeper
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting pointsledger", slog.String("addr", p.Server.Addr))
			p.Bus.Start(context.WithoutCancel(ctx))
			if err := p.Runner.Resume(ctx); err != nil {
				p.Bus.Stop()
				return err
			}
			p.Sweeper.Start(context.WithoutCancel(ctx))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Sweeper.Stop()
			p.Scheduler.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Bus.WaitIdle(shutdownCtx); err != nil {
				p.Logger.Warn("stopping with undelivered facts", slog.String("error", err.Error()))
			}
			p.Bus.Stop()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("pointsledger stopped")
			return nil
		},
	})
}
