// Package bus delivers ledger facts to in-process subscribers. Facts of one
// aggregate always land on the same partition and are delivered in order.
package bus

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
	"github.com/polkiloo/pointsledger/internal/logger"
	"github.com/polkiloo/pointsledger/internal/metrics"
)

// Subscriber consumes facts. A returned error halts the subscriber for the
// aggregate of the fact until it is resumed.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, env model.Envelope) error
}

// Halt identifies a subscriber stopped for one aggregate.
type Halt struct {
	Subscriber  string
	AggregateID string
}

// Bus is a partitioned asynchronous fact bus.
type Bus struct {
	partitions    []*partition
	interventions repository.InterventionRepository
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time

	mu          sync.RWMutex
	subscribers []Subscriber
	halted      map[Halt]struct{}

	idleMu  sync.Mutex
	pending int
	idle    chan struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type partition struct {
	mu     sync.Mutex
	queue  []model.Envelope
	notify chan struct{}
}

// New constructs a bus with n partitions.
func New(n int, interventions repository.InterventionRepository, m *metrics.Metrics, logger *slog.Logger) *Bus {
	if n <= 0 {
		n = 1
	}
	b := &Bus{
		interventions: interventions,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
		halted:        make(map[Halt]struct{}),
		idle:          make(chan struct{}),
	}
	close(b.idle)
	b.partitions = make([]*partition, n)
	for i := range b.partitions {
		b.partitions[i] = &partition{notify: make(chan struct{}, 1)}
	}
	return b
}

// Subscribe adds s; subscribers see each fact in registration order.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, s)
}

// Publish enqueues facts without blocking.
func (b *Bus) Publish(events ...model.Envelope) {
	for _, env := range events {
		b.track(1)
		p := b.partitions[b.partitionOf(env.AggregateID)]
		p.mu.Lock()
		p.queue = append(p.queue, env)
		p.mu.Unlock()
		select {
		case p.notify <- struct{}{}:
		default:
		}
	}
}

// Start launches one goroutine per partition.
func (b *Bus) Start(ctx context.Context) {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	if b.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	for _, p := range b.partitions {
		b.wg.Add(1)
		go b.run(runCtx, p)
	}
}

// Stop waits for partition goroutines to finish their current fact. Facts
// still queued stay undelivered; they remain in the event store.
func (b *Bus) Stop() {
	b.runMu.Lock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.runMu.Unlock()
	b.wg.Wait()
}

// WaitIdle blocks until every published fact, including facts published while
// handling, has been delivered.
func (b *Bus) WaitIdle(ctx context.Context) error {
	b.idleMu.Lock()
	idle := b.idle
	b.idleMu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resume lifts the halt of subscriber for aggregateID. It reports whether a halt existed.
func (b *Bus) Resume(subscriber, aggregateID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := Halt{Subscriber: subscriber, AggregateID: aggregateID}
	if _, ok := b.halted[key]; !ok {
		return false
	}
	delete(b.halted, key)
	return true
}

// Halts lists the current halts.
func (b *Bus) Halts() []Halt {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Halt, 0, len(b.halted))
	for h := range b.halted {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subscriber == out[j].Subscriber {
			return out[i].AggregateID < out[j].AggregateID
		}
		return out[i].Subscriber < out[j].Subscriber
	})
	return out
}

func (b *Bus) partitionOf(aggregateID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(aggregateID))
	return int(h.Sum32() % uint32(len(b.partitions)))
}

func (b *Bus) track(delta int) {
	b.idleMu.Lock()
	defer b.idleMu.Unlock()
	if b.pending == 0 && delta > 0 {
		b.idle = make(chan struct{})
	}
	b.pending += delta
	if b.pending == 0 {
		close(b.idle)
	}
}

func (b *Bus) run(ctx context.Context, p *partition) {
	defer b.wg.Done()
	for {
		for {
			env, ok := p.pop()
			if !ok {
				break
			}
			b.deliver(ctx, env)
			b.track(-1)
			if ctx.Err() != nil {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-p.notify:
		}
	}
}

func (p *partition) pop() (model.Envelope, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return model.Envelope{}, false
	}
	env := p.queue[0]
	p.queue[0] = model.Envelope{}
	p.queue = p.queue[1:]
	return env, true
}

func (b *Bus) deliver(ctx context.Context, env model.Envelope) {
	b.mu.RLock()
	subscribers := append([]Subscriber(nil), b.subscribers...)
	b.mu.RUnlock()

	ctx = logger.With(ctx,
		slog.String("event_type", string(env.Event.EventType())),
		slog.String("aggregate_id", env.AggregateID),
		slog.String("correlation_id", env.CorrelationID),
	)
	for _, s := range subscribers {
		key := Halt{Subscriber: s.Name(), AggregateID: env.AggregateID}
		if b.isHalted(key) {
			b.park(ctx, key, env, "subscriber halted for aggregate")
			continue
		}
		err := safeHandle(ctx, s, env)
		b.metrics.ObserveDelivery(s.Name(), err)
		if err != nil {
			b.halt(key)
			b.park(ctx, key, env, err.Error())
		}
	}
}

func safeHandle(ctx context.Context, s Subscriber, env model.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Handle(ctx, env)
}

func (b *Bus) isHalted(key Halt) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.halted[key]
	return ok
}

func (b *Bus) halt(key Halt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.halted[key] = struct{}{}
}

func (b *Bus) park(ctx context.Context, key Halt, env model.Envelope, reason string) {
	source := "bus:" + key.Subscriber
	logger.FromContext(ctx, b.logger).Error("fact parked",
		slog.String("subscriber", key.Subscriber),
		slog.String("event_id", env.EventID),
		slog.Int64("sequence", env.Sequence),
		slog.String("reason", reason),
		slog.Bool("manual_intervention", true),
	)
	b.metrics.ObserveIntervention(source)
	if b.interventions == nil {
		return
	}
	err := b.interventions.Record(ctx, model.Intervention{
		ID:        model.NewID(),
		Source:    source,
		Subject:   env.AggregateID,
		Step:      fmt.Sprintf("%s#%d", env.Event.EventType(), env.Sequence),
		Reason:    reason,
		CreatedAt: b.now(),
	})
	if err != nil {
		b.logger.Error("record intervention failed", slog.String("error", err.Error()))
	}
}
