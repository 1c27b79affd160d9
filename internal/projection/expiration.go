package projection

import (
	"context"
	"log/slog"

	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
	"github.com/polkiloo/pointsledger/internal/logger"
)

// ExpirationTracker keeps the oldest-first queue of unexpired batches per loyalty bank.
type ExpirationTracker struct {
	repo   repository.ExpirationRepository
	logger *slog.Logger
}

// NewExpirationTracker constructs ExpirationTracker.
func NewExpirationTracker(repo repository.ExpirationRepository, logger *slog.Logger) *ExpirationTracker {
	return &ExpirationTracker{repo: repo, logger: logger}
}

func (t *ExpirationTracker) Name() string { return expirationProjection }

// Batches returns the current queue of loyaltyBankID.
func (t *ExpirationTracker) Batches(ctx context.Context, loyaltyBankID string) ([]model.PointBatch, error) {
	return t.repo.Load(ctx, loyaltyBankID)
}

// Handle folds one ledger fact into the queue of its bank.
func (t *ExpirationTracker) Handle(ctx context.Context, env model.Envelope) error {
	switch ev := env.Event.(type) {
	case model.EarnedTransactionCreated:
		return t.update(ctx, ev.LoyaltyBankID, func(q []model.PointBatch) ([]model.PointBatch, error) {
			return AppendBatch(q, model.PointBatch{
				TransactionID: ev.TransactionID,
				LoyaltyBankID: ev.LoyaltyBankID,
				Points:        ev.Points,
				CreatedAt:     env.OccurredAt,
			})
		})
	case model.AwardedTransactionCreated:
		return t.update(ctx, ev.LoyaltyBankID, func(q []model.PointBatch) ([]model.PointBatch, error) {
			return AppendBatch(q, model.PointBatch{
				TransactionID: ev.TransactionID,
				LoyaltyBankID: ev.LoyaltyBankID,
				Points:        ev.Points,
				CreatedAt:     env.OccurredAt,
			})
		})
	case model.AuthorizedTransactionCreated:
		return t.update(ctx, ev.LoyaltyBankID, func(q []model.PointBatch) ([]model.PointBatch, error) {
			if ev.Points < 0 {
				return ReinstatePoints(q, ev.LoyaltyBankID, ev.TransactionID, -ev.Points, env.OccurredAt)
			}
			return ApplyPointsToBatches(q, ev.Points)
		})
	case model.VoidTransactionCreated:
		return t.update(ctx, ev.LoyaltyBankID, func(q []model.PointBatch) ([]model.PointBatch, error) {
			return ReinstatePoints(q, ev.LoyaltyBankID, ev.TransactionID, ev.Points, env.OccurredAt)
		})
	case model.PointsExpired:
		return t.update(ctx, ev.LoyaltyBankID, func(q []model.PointBatch) ([]model.PointBatch, error) {
			out, removed := RemoveBatch(q, ev.TransactionID)
			log := logger.FromContext(ctx, t.logger)
			switch {
			case removed == nil:
				log.Warn("expired batch not tracked",
					slog.String("loyalty_bank_id", ev.LoyaltyBankID),
					slog.String("transaction_id", ev.TransactionID),
					slog.Int64("points", ev.Points))
			case removed.Points != ev.Points:
				log.Warn("expired batch points discrepancy",
					slog.String("loyalty_bank_id", ev.LoyaltyBankID),
					slog.String("transaction_id", ev.TransactionID),
					slog.Int64("tracked_points", removed.Points),
					slog.Int64("expired_points", ev.Points))
			}
			return out, nil
		})
	case model.AllPointsExpired:
		return t.repo.Replace(ctx, ev.LoyaltyBankID, nil)
	case model.LoyaltyBankDeleted:
		return t.repo.Replace(ctx, ev.LoyaltyBankID, nil)
	}
	return nil
}

// update loads the queue, applies fn and stores the result only when fn succeeds.
func (t *ExpirationTracker) update(ctx context.Context, loyaltyBankID string, fn func([]model.PointBatch) ([]model.PointBatch, error)) error {
	queue, err := t.repo.Load(ctx, loyaltyBankID)
	if err != nil {
		return err
	}
	next, err := fn(queue)
	if err != nil {
		return err
	}
	return t.repo.Replace(ctx, loyaltyBankID, next)
}
