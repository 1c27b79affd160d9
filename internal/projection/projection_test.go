package projection

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/storage/memory"
)

func fact(ev model.Event, at time.Time) model.Envelope {
	return model.Envelope{AggregateID: ev.AggregateID(), OccurredAt: at, Event: ev}
}

func TestRedemptionTrackerLifecycle(t *testing.T) {
	ctx := context.Background()
	tracker := NewRedemptionTracker(memory.NewRedemptionRepository())

	if err := tracker.OnAuthorized(ctx, "lb", "pay", 100); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := tracker.OnAuthorized(ctx, "lb", "pay", 10); !errors.Is(err, domainErrors.ErrIllegalProjectionState) {
		t.Fatalf("expected duplicate authorization rejection, got %v", err)
	}
	if err := tracker.OnCaptured(ctx, "pay", 101); !errors.Is(err, domainErrors.ErrIllegalArgument) {
		t.Fatalf("expected over-capture rejection, got %v", err)
	}
	if available, _ := tracker.Available(ctx, "pay"); available != 100 {
		t.Fatalf("rejected capture must not change the record, got %d", available)
	}
	if err := tracker.OnCaptured(ctx, "pay", 100); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if _, err := tracker.Available(ctx, "pay"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected record deleted after full capture, got %v", err)
	}
}

func TestRedemptionTrackerIgnoresNonPositiveAuthorizations(t *testing.T) {
	ctx := context.Background()
	tracker := NewRedemptionTracker(memory.NewRedemptionRepository())

	for _, points := range []int64{0, -20} {
		env := fact(model.AuthorizedTransactionCreated{LoyaltyBankID: "lb", TransactionID: "T", PaymentID: "pay", Points: points}, time.Now())
		if err := tracker.Handle(ctx, env); err != nil {
			t.Fatalf("authorize %d: %v", points, err)
		}
		if _, err := tracker.Available(ctx, "pay"); !errors.Is(err, domainErrors.ErrNotFound) {
			t.Fatalf("authorize %d must not open a record, got %v", points, err)
		}
	}
}

func TestRedemptionTrackerVoid(t *testing.T) {
	ctx := context.Background()
	tracker := NewRedemptionTracker(memory.NewRedemptionRepository())
	_ = tracker.OnAuthorized(ctx, "lb", "pay", 50)

	if err := tracker.OnVoided(ctx, "pay", 60); !errors.Is(err, domainErrors.ErrIllegalArgument) {
		t.Fatalf("expected over-void rejection, got %v", err)
	}
	if err := tracker.OnCaptured(ctx, "pay", 20); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := tracker.OnVoided(ctx, "pay", 20); err != nil {
		t.Fatalf("void: %v", err)
	}
	if available, _ := tracker.Available(ctx, "pay"); available != 10 {
		t.Fatalf("expected 10 available, got %d", available)
	}
	if err := tracker.OnVoided(ctx, "pay", 10); err != nil {
		t.Fatalf("void rest: %v", err)
	}
	if _, err := tracker.Available(ctx, "pay"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected record deleted, got %v", err)
	}
	if err := tracker.OnVoided(ctx, "missing", 1); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRedemptionTrackerDropsBankOnAllPointsExpired(t *testing.T) {
	ctx := context.Background()
	tracker := NewRedemptionTracker(memory.NewRedemptionRepository())
	_ = tracker.OnAuthorized(ctx, "lb", "pay", 50)

	if err := tracker.Handle(ctx, fact(model.AllPointsExpired{LoyaltyBankID: "lb"}, time.Now())); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := tracker.Available(ctx, "pay"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected bank records dropped, got %v", err)
	}
}

func TestExpirationTrackerSignedAmounts(t *testing.T) {
	ctx := context.Background()
	tracker := NewExpirationTracker(memory.NewExpirationRepository(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("negative authorization on empty queue opens a dated batch", func(t *testing.T) {
		at := t0.Add(3 * time.Hour)
		env := fact(model.AuthorizedTransactionCreated{LoyaltyBankID: "lb-1", TransactionID: "T-neg", PaymentID: "p", Points: -20}, at)
		if err := tracker.Handle(ctx, env); err != nil {
			t.Fatalf("handle: %v", err)
		}
		queue, _ := tracker.Batches(ctx, "lb-1")
		if len(queue) != 1 {
			t.Fatalf("expected one batch, got %+v", queue)
		}
		b := queue[0]
		if b.TransactionID != "T-neg" || b.LoyaltyBankID != "lb-1" || b.Points != 20 || !b.CreatedAt.Equal(at) {
			t.Fatalf("unexpected reinstated batch %+v", b)
		}
	})

	t.Run("negative authorization credits the head", func(t *testing.T) {
		_ = tracker.Handle(ctx, fact(model.AwardedTransactionCreated{LoyaltyBankID: "lb-2", TransactionID: "B1", Points: 10}, t0))
		_ = tracker.Handle(ctx, fact(model.AwardedTransactionCreated{LoyaltyBankID: "lb-2", TransactionID: "B2", Points: 5}, t0))
		if err := tracker.Handle(ctx, fact(model.AuthorizedTransactionCreated{LoyaltyBankID: "lb-2", TransactionID: "T", PaymentID: "p", Points: -4}, t0)); err != nil {
			t.Fatalf("handle: %v", err)
		}
		queue, _ := tracker.Batches(ctx, "lb-2")
		if !equalPoints(pointsOf(queue), []int64{14, 5}) || queue[0].TransactionID != "B1" {
			t.Fatalf("expected head credited, got %+v", queue)
		}
	})

	t.Run("zero amounts leave the queue alone", func(t *testing.T) {
		for _, ev := range []model.Event{
			model.EarnedTransactionCreated{LoyaltyBankID: "lb-2", TransactionID: "Z1"},
			model.AwardedTransactionCreated{LoyaltyBankID: "lb-2", TransactionID: "Z2"},
			model.AuthorizedTransactionCreated{LoyaltyBankID: "lb-2", TransactionID: "Z3", PaymentID: "z"},
		} {
			if err := tracker.Handle(ctx, fact(ev, t0)); err != nil {
				t.Fatalf("handle %s: %v", ev.EventType(), err)
			}
		}
		queue, _ := tracker.Batches(ctx, "lb-2")
		if !equalPoints(pointsOf(queue), []int64{14, 5}) {
			t.Fatalf("expected queue unchanged, got %+v", queue)
		}
	})

	t.Run("negative award consumes oldest first", func(t *testing.T) {
		if err := tracker.Handle(ctx, fact(model.AwardedTransactionCreated{LoyaltyBankID: "lb-2", TransactionID: "N", Points: -16}, t0)); err != nil {
			t.Fatalf("handle: %v", err)
		}
		queue, _ := tracker.Batches(ctx, "lb-2")
		if !equalPoints(pointsOf(queue), []int64{3}) || queue[0].TransactionID != "B2" {
			t.Fatalf("expected B2(3), got %+v", queue)
		}
	})
}

func TestExpirationTrackerFollowsFacts(t *testing.T) {
	ctx := context.Background()
	tracker := NewExpirationTracker(memory.NewExpirationRepository(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	steps := []model.Envelope{
		fact(model.EarnedTransactionCreated{LoyaltyBankID: "lb", TransactionID: "B1", Points: 10}, t0),
		fact(model.AwardedTransactionCreated{LoyaltyBankID: "lb", TransactionID: "B2", Points: 20}, t0.Add(time.Hour)),
		fact(model.AuthorizedTransactionCreated{LoyaltyBankID: "lb", TransactionID: "T3", PaymentID: "p", Points: 15}, t0.Add(2*time.Hour)),
	}
	for _, env := range steps {
		if err := tracker.Handle(ctx, env); err != nil {
			t.Fatalf("handle %s: %v", env.Event.EventType(), err)
		}
	}
	queue, _ := tracker.Batches(ctx, "lb")
	if len(queue) != 1 || queue[0].TransactionID != "B2" || queue[0].Points != 15 {
		t.Fatalf("expected B2(15), got %+v", queue)
	}

	if err := tracker.Handle(ctx, fact(model.VoidTransactionCreated{LoyaltyBankID: "lb", TransactionID: "T4", PaymentID: "p", Points: 5}, t0)); err != nil {
		t.Fatalf("void: %v", err)
	}
	queue, _ = tracker.Batches(ctx, "lb")
	if queue[0].Points != 20 {
		t.Fatalf("expected head credited to 20, got %+v", queue)
	}

	err := tracker.Handle(ctx, fact(model.AuthorizedTransactionCreated{LoyaltyBankID: "lb", TransactionID: "T5", PaymentID: "q", Points: 25}, t0))
	if !errors.Is(err, domainErrors.ErrIllegalProjectionState) {
		t.Fatalf("expected exhausted queue error, got %v", err)
	}
	queue, _ = tracker.Batches(ctx, "lb")
	if TotalPoints(queue) != 20 {
		t.Fatalf("failed consumption must not be saved, got %+v", queue)
	}

	if err := tracker.Handle(ctx, fact(model.AllPointsExpired{LoyaltyBankID: "lb"}, t0)); err != nil {
		t.Fatalf("all expired: %v", err)
	}
	queue, _ = tracker.Batches(ctx, "lb")
	if len(queue) != 0 {
		t.Fatalf("expected empty queue, got %+v", queue)
	}
}

func TestExpirationTrackerVoidOnEmptyQueue(t *testing.T) {
	ctx := context.Background()
	tracker := NewExpirationTracker(memory.NewExpirationRepository(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := tracker.Handle(ctx, fact(model.VoidTransactionCreated{LoyaltyBankID: "lb", TransactionID: "V", PaymentID: "p", Points: 5}, at)); err != nil {
		t.Fatalf("void: %v", err)
	}
	queue, _ := tracker.Batches(ctx, "lb")
	if len(queue) != 1 || queue[0].Points != 5 || queue[0].TransactionID != "V" || !queue[0].CreatedAt.Equal(at) {
		t.Fatalf("expected new batch of 5, got %+v", queue)
	}
}

func TestExpirationTrackerLogsDiscrepancy(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	tracker := NewExpirationTracker(memory.NewExpirationRepository(), slog.New(slog.NewJSONHandler(&buf, nil)))
	t0 := time.Now()

	_ = tracker.Handle(ctx, fact(model.EarnedTransactionCreated{LoyaltyBankID: "lb", TransactionID: "B1", Points: 10}, t0))
	_ = tracker.Handle(ctx, fact(model.EarnedTransactionCreated{LoyaltyBankID: "lb", TransactionID: "B2", Points: 10}, t0))

	if err := tracker.Handle(ctx, fact(model.PointsExpired{LoyaltyBankID: "lb", TransactionID: "B1", Points: 8}, t0)); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if !strings.Contains(buf.String(), "expired batch points discrepancy") {
		t.Fatalf("expected discrepancy warning, got %q", buf.String())
	}
	queue, _ := tracker.Batches(ctx, "lb")
	if len(queue) != 1 || queue[0].TransactionID != "B2" {
		t.Fatalf("expected B1 removed, got %+v", queue)
	}

	buf.Reset()
	_ = tracker.Handle(ctx, fact(model.PointsExpired{LoyaltyBankID: "lb", TransactionID: "B9", Points: 1}, t0))
	if !strings.Contains(buf.String(), "expired batch not tracked") {
		t.Fatalf("expected missing batch warning, got %q", buf.String())
	}
}

func TestDirectoryProjection(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewDirectoryRepository()
	dir := NewDirectory(repo)
	now := time.Now()

	facts := []model.Envelope{
		fact(model.AccountCreated{AccountID: "a", Email: "a@example.com"}, now),
		fact(model.BusinessCreated{BusinessID: "b", Name: "Cafe"}, now),
		fact(model.LoyaltyBankCreated{LoyaltyBankID: "lb", AccountID: "a", BusinessID: "b"}, now),
	}
	for _, env := range facts {
		if err := dir.Handle(ctx, env); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if entry, err := repo.LoyaltyBankByOwners(ctx, "a", "b"); err != nil || entry.LoyaltyBankID != "lb" {
		t.Fatalf("unexpected bank entry %+v %v", entry, err)
	}

	if err := dir.Handle(ctx, fact(model.LoyaltyBankDeleted{LoyaltyBankID: "lb", AccountID: "a", BusinessID: "b"}, now)); err != nil {
		t.Fatalf("delete bank: %v", err)
	}
	if err := dir.Handle(ctx, fact(model.LoyaltyBankDeleted{LoyaltyBankID: "lb"}, now)); err != nil {
		t.Fatalf("repeated delete must be tolerated: %v", err)
	}
	if err := dir.Handle(ctx, fact(model.AccountDeleted{AccountID: "a"}, now)); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := repo.AccountByID(ctx, "a"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected account removed, got %v", err)
	}
}
