package projection

import (
	"fmt"
	"time"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

const expirationProjection = "expiration"

// ApplyPointsToBatches consumes points from the oldest batches first. The input
// queue is never mutated; when the queue cannot cover points the original queue
// is returned together with an IllegalProjectionStateError. Negative amounts
// carry no batch identity and are rejected; callers reinstate them with
// ReinstatePoints.
func ApplyPointsToBatches(queue []model.PointBatch, points int64) ([]model.PointBatch, error) {
	if points < 0 {
		return queue, fmt.Errorf("%w: cannot consume %d points", domainErrors.ErrIllegalArgument, points)
	}
	out := cloneBatches(queue)
	owed := points
	for owed > 0 {
		if len(out) == 0 {
			return queue, domainErrors.IllegalProjection(expirationProjection,
				"queue exhausted with %d of %d points unapplied", owed, points)
		}
		out[0].Points -= owed
		if out[0].Points <= 0 {
			owed = -out[0].Points
			out = out[1:]
			continue
		}
		owed = 0
	}
	return out, nil
}

// ReinstatePoints returns voided points to the head batch, or opens a new batch
// keyed by transactionID when the queue is empty.
func ReinstatePoints(queue []model.PointBatch, loyaltyBankID, transactionID string, points int64, at time.Time) ([]model.PointBatch, error) {
	if points < 0 {
		return ApplyPointsToBatches(queue, -points)
	}
	if points == 0 {
		return queue, nil
	}
	if len(queue) == 0 {
		return []model.PointBatch{{
			TransactionID: transactionID,
			LoyaltyBankID: loyaltyBankID,
			Points:        points,
			CreatedAt:     at,
		}}, nil
	}
	out := cloneBatches(queue)
	out[0].Points += points
	return out, nil
}

// AppendBatch adds newly earned points at the tail. Negative amounts are taken
// back from the oldest batches.
func AppendBatch(queue []model.PointBatch, batch model.PointBatch) ([]model.PointBatch, error) {
	switch {
	case batch.Points < 0:
		return ApplyPointsToBatches(queue, -batch.Points)
	case batch.Points == 0:
		return queue, nil
	}
	out := cloneBatches(queue)
	return append(out, batch), nil
}

// RemoveBatch drops the batch with transactionID and returns it, or nil when absent.
func RemoveBatch(queue []model.PointBatch, transactionID string) ([]model.PointBatch, *model.PointBatch) {
	for i, b := range queue {
		if b.TransactionID != transactionID {
			continue
		}
		removed := b
		out := make([]model.PointBatch, 0, len(queue)-1)
		out = append(out, queue[:i]...)
		out = append(out, queue[i+1:]...)
		return out, &removed
	}
	return queue, nil
}

// TotalPoints sums a queue.
func TotalPoints(queue []model.PointBatch) int64 {
	var total int64
	for _, b := range queue {
		total += b.Points
	}
	return total
}

func cloneBatches(queue []model.PointBatch) []model.PointBatch {
	out := make([]model.PointBatch, len(queue))
	copy(out, queue)
	return out
}
