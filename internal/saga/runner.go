package saga

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
	"github.com/polkiloo/pointsledger/internal/logger"
	"github.com/polkiloo/pointsledger/internal/metrics"
	"github.com/polkiloo/pointsledger/internal/pkg/keylock"
)

// Dispatcher executes commands on behalf of sagas.
type Dispatcher interface {
	Handle(ctx context.Context, cmd model.Command) ([]model.Envelope, error)
}

// Config holds the runner timings.
type Config struct {
	CreationDeadline time.Duration
	DispatchTimeout  time.Duration
}

// Runner routes facts to saga instances and executes their effects. It is a
// bus subscriber; every instance is advanced under its own lock.
type Runner struct {
	sagas         repository.SagaRepository
	directory     repository.DirectoryRepository
	interventions repository.InterventionRepository
	dispatcher    Dispatcher
	scheduler     Scheduler
	metrics       *metrics.Metrics
	logger        *slog.Logger
	cfg           Config
	now           func() time.Time

	locks *keylock.Mutex
	mu    sync.Mutex
	base  context.Context
}

// NewRunner constructs Runner.
func NewRunner(
	sagas repository.SagaRepository,
	directory repository.DirectoryRepository,
	interventions repository.InterventionRepository,
	dispatcher Dispatcher,
	scheduler Scheduler,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Runner {
	return &Runner{
		sagas:         sagas,
		directory:     directory,
		interventions: interventions,
		dispatcher:    dispatcher,
		scheduler:     scheduler,
		metrics:       m,
		logger:        logger,
		cfg:           cfg,
		now:           time.Now,
		locks:         keylock.New(),
		base:          context.Background(),
	}
}

func (r *Runner) Name() string { return "sagas" }

// Handle routes one fact to the saga instances it concerns.
func (r *Runner) Handle(ctx context.Context, env model.Envelope) error {
	switch ev := env.Event.(type) {
	case model.AccountAndLoyaltyBankCreationStarted:
		return r.advanceCreation(ctx, ev.RequestID, CreationStarted{
			Event:    ev,
			Deadline: env.OccurredAt.Add(r.cfg.CreationDeadline),
		}, true)
	case model.AccountCreated, model.LoyaltyBankCreated:
		if env.CorrelationID == "" {
			return nil
		}
		return r.advanceCreation(ctx, env.CorrelationID, Fact{Event: ev}, false)
	case model.AccountDeleted:
		return r.openCascade(ctx, OwnerAccount, ev.AccountID)
	case model.BusinessDeleted:
		return r.openCascade(ctx, OwnerBusiness, ev.BusinessID)
	case model.LoyaltyBankDeletionStarted:
		return r.advanceBank(ctx, ev.LoyaltyBankID, Fact{Event: ev}, true)
	case model.AllPointsExpired:
		return r.advanceBank(ctx, ev.LoyaltyBankID, Fact{Event: ev}, false)
	case model.LoyaltyBankDeleted:
		if err := r.advanceBank(ctx, ev.LoyaltyBankID, Fact{Event: ev}, false); err != nil {
			return err
		}
		return r.recheckOwners(ctx, ev.AccountID, ev.BusinessID, ev.LoyaltyBankID)
	}
	return nil
}

// Resume re-arms creation deadlines of unfinished sagas. Deadlines already in
// the past fire immediately.
func (r *Runner) Resume(ctx context.Context) error {
	r.mu.Lock()
	r.base = context.WithoutCancel(ctx)
	r.mu.Unlock()

	records, err := r.sagas.ListActive(ctx, TypeCreation)
	if err != nil {
		return fmt.Errorf("list active creation sagas: %w", err)
	}
	for _, record := range records {
		var state CreationState
		if err := json.Unmarshal(record.State, &state); err != nil {
			r.logger.Error("decode saga state failed",
				slog.String("saga", TypeCreation),
				slog.String("saga_id", record.ID),
				slog.String("error", err.Error()))
			continue
		}
		if state.DeadlineAt.IsZero() {
			continue
		}
		r.armDeadline(state.RequestID, state.DeadlineAt)
	}
	return nil
}

// Inspect returns the persisted record of one saga instance.
func (r *Runner) Inspect(ctx context.Context, sagaType, id string) (*model.SagaRecord, error) {
	return r.sagas.Get(ctx, sagaType, id)
}

func (r *Runner) advanceCreation(ctx context.Context, requestID string, in Input, create bool) error {
	return advance(ctx, r, TypeCreation, requestID, in, create, TransitionCreation)
}

func (r *Runner) advanceBank(ctx context.Context, loyaltyBankID string, in Input, create bool) error {
	return advance(ctx, r, TypeBankDeletion, loyaltyBankID, in, create, TransitionBankDeletion)
}

func (r *Runner) openCascade(ctx context.Context, kind, ownerID string) error {
	var (
		banks []model.LoyaltyBankEntry
		err   error
	)
	if kind == OwnerAccount {
		banks, err = r.directory.LoyaltyBanksByAccount(ctx, ownerID)
	} else {
		banks, err = r.directory.LoyaltyBanksByBusiness(ctx, ownerID)
	}
	if err != nil {
		return fmt.Errorf("query dependents of %s: %w", OwnerKey(kind, ownerID), err)
	}
	ids := make([]string, 0, len(banks))
	for _, b := range banks {
		ids = append(ids, b.LoyaltyBankID)
	}
	return advance(ctx, r, TypeOwnerDeletion, OwnerKey(kind, ownerID),
		OwnerDeleted{Kind: kind, OwnerID: ownerID, Dependents: ids}, true, TransitionOwnerDeletion)
}

// recheckOwners re-queries the dependents of both owners of a bank and feeds the
// count to their cascades, if any are running.
func (r *Runner) recheckOwners(ctx context.Context, accountID, businessID, loyaltyBankID string) error {
	owners := []struct {
		kind  string
		id    string
		query func(context.Context, string) ([]model.LoyaltyBankEntry, error)
	}{
		{OwnerAccount, accountID, r.directory.LoyaltyBanksByAccount},
		{OwnerBusiness, businessID, r.directory.LoyaltyBanksByBusiness},
	}
	for _, owner := range owners {
		if owner.id == "" {
			continue
		}
		key := OwnerKey(owner.kind, owner.id)
		if _, err := r.sagas.Get(ctx, TypeOwnerDeletion, key); err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				continue
			}
			return err
		}
		remaining, err := owner.query(ctx, owner.id)
		if err != nil {
			return fmt.Errorf("query dependents of %s: %w", key, err)
		}
		in := DependentRemoved{LoyaltyBankID: loyaltyBankID, Remaining: len(remaining)}
		if err := advance(ctx, r, TypeOwnerDeletion, key, in, false, TransitionOwnerDeletion); err != nil {
			return err
		}
	}
	return nil
}

// advance loads an instance, applies in and runs the resulting effects until
// no command is left. Unknown instances are created only when create is set.
func advance[S State](
	ctx context.Context,
	r *Runner,
	sagaType, id string,
	in Input,
	create bool,
	transition func(S, Input) (S, Effects),
) error {
	unlock := r.locks.Lock(sagaType + "/" + id)
	defer unlock()

	ctx = logger.With(ctx, slog.String("saga", sagaType), slog.String("saga_id", id))
	log := logger.FromContext(ctx, r.logger)

	var state S
	record, err := r.sagas.Get(ctx, sagaType, id)
	switch {
	case err == nil:
		if record.Ended {
			return nil
		}
		if err := json.Unmarshal(record.State, &state); err != nil {
			return fmt.Errorf("decode %s %s: %w", sagaType, id, err)
		}
	case errors.Is(err, domainErrors.ErrNotFound):
		if !create {
			return nil
		}
	default:
		return err
	}

	before := state.CurrentPhase()
	state, eff := transition(state, in)
	if err := r.save(ctx, sagaType, id, state, before); err != nil {
		return err
	}
	queue := r.apply(ctx, sagaType, id, eff)

	for len(queue) > 0 {
		cmd := queue[0]
		queue = queue[1:]
		stepCtx := logger.With(ctx, slog.String("step", cmd.CommandName()))
		dispatchErr := r.dispatch(stepCtx, cmd)
		if dispatchErr != nil {
			logger.FromContext(stepCtx, r.logger).Error("saga dispatch failed",
				slog.String("entity", cmd.TargetID()),
				slog.String("error", dispatchErr.Error()))
		}
		before = state.CurrentPhase()
		state, eff = transition(state, Dispatched{Command: cmd, Err: dispatchErr})
		if err := r.save(ctx, sagaType, id, state, before); err != nil {
			return err
		}
		queue = append(queue, r.apply(stepCtx, sagaType, id, eff)...)
	}
	if state.IsEnded() {
		log.Debug("saga ended")
	}
	return nil
}

func (r *Runner) dispatch(ctx context.Context, cmd model.Command) error {
	if r.cfg.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.DispatchTimeout)
		defer cancel()
	}
	_, err := r.dispatcher.Handle(ctx, cmd)
	return err
}

// apply performs the non-command effects and returns the commands to dispatch.
func (r *Runner) apply(ctx context.Context, sagaType, id string, eff Effects) []model.Command {
	if sagaType == TypeCreation {
		if eff.CancelDeadline {
			r.scheduler.Cancel(deadlineToken(id))
		} else if !eff.ScheduleAt.IsZero() {
			r.armDeadline(id, eff.ScheduleAt)
		}
	}
	for _, f := range eff.Failures {
		r.recordFailure(ctx, sagaType, id, f)
	}
	return eff.Commands
}

func (r *Runner) armDeadline(requestID string, at time.Time) {
	r.scheduler.Schedule(deadlineToken(requestID), at.Sub(r.now()), func() {
		r.mu.Lock()
		ctx := r.base
		r.mu.Unlock()
		if err := r.advanceCreation(ctx, requestID, DeadlineReached{}, false); err != nil {
			r.logger.Error("creation deadline handling failed",
				slog.String("saga_id", requestID),
				slog.String("error", err.Error()))
		}
	})
}

func (r *Runner) recordFailure(ctx context.Context, sagaType, id string, f Failure) {
	source := "saga:" + sagaType
	logger.FromContext(ctx, r.logger).Error("saga step needs manual intervention",
		slog.String("failed_step", f.Step),
		slog.String("reason", f.Reason),
		slog.Bool("manual_intervention", true))
	r.metrics.ObserveIntervention(source)
	err := r.interventions.Record(ctx, model.Intervention{
		ID:        model.NewID(),
		Source:    source,
		Subject:   id,
		Step:      f.Step,
		Reason:    f.Reason,
		CreatedAt: r.now().UTC(),
	})
	if err != nil {
		r.logger.Error("record intervention failed", slog.String("error", err.Error()))
	}
}

func (r *Runner) save(ctx context.Context, sagaType, id string, state State, before string) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", sagaType, id, err)
	}
	if err := r.sagas.Save(ctx, model.SagaRecord{
		Type:      sagaType,
		ID:        id,
		Phase:     state.CurrentPhase(),
		State:     raw,
		Ended:     state.IsEnded(),
		UpdatedAt: r.now().UTC(),
	}); err != nil {
		return fmt.Errorf("save %s %s: %w", sagaType, id, err)
	}
	if state.CurrentPhase() != before {
		r.metrics.ObserveSagaPhase(sagaType, state.CurrentPhase())
	}
	return nil
}

func deadlineToken(requestID string) string {
	return TypeCreation + ":" + requestID
}
