package projection

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
)

const redemptionProjection = "redemption"

// RedemptionTracker keeps one record per authorization until it is fully captured or voided.
type RedemptionTracker struct {
	repo repository.RedemptionRepository
}

// NewRedemptionTracker constructs RedemptionTracker.
func NewRedemptionTracker(repo repository.RedemptionRepository) *RedemptionTracker {
	return &RedemptionTracker{repo: repo}
}

func (t *RedemptionTracker) Name() string { return redemptionProjection }

// Available returns the authorized, not yet captured points of paymentID.
func (t *RedemptionTracker) Available(ctx context.Context, paymentID string) (int64, error) {
	record, err := t.repo.Get(ctx, paymentID)
	if err != nil {
		return 0, err
	}
	return record.Available(), nil
}

// OnAuthorized opens a record for paymentID. A non-positive authorization
// leaves nothing to void or capture, so no record is opened.
func (t *RedemptionTracker) OnAuthorized(ctx context.Context, loyaltyBankID, paymentID string, points int64) error {
	if points <= 0 {
		return nil
	}
	_, err := t.repo.Get(ctx, paymentID)
	switch {
	case err == nil:
		return domainErrors.IllegalProjection(redemptionProjection, "payment %s already authorized", paymentID)
	case !errors.Is(err, domainErrors.ErrNotFound):
		return err
	}
	return t.repo.Save(ctx, model.RedemptionRecord{
		PaymentID:        paymentID,
		LoyaltyBankID:    loyaltyBankID,
		AuthorizedPoints: points,
	})
}

// OnVoided returns points of paymentID to the bank; the record goes away once nothing is left.
func (t *RedemptionTracker) OnVoided(ctx context.Context, paymentID string, points int64) error {
	record, err := t.repo.Get(ctx, paymentID)
	if err != nil {
		return err
	}
	if points <= 0 || record.Available()-points < 0 {
		return fmt.Errorf("%w: void of %d exceeds %d available on payment %s",
			domainErrors.ErrIllegalArgument, points, record.Available(), paymentID)
	}
	record.AuthorizedPoints -= points
	return t.store(ctx, *record)
}

// OnCaptured settles points of paymentID; the record goes away once nothing is left.
func (t *RedemptionTracker) OnCaptured(ctx context.Context, paymentID string, points int64) error {
	record, err := t.repo.Get(ctx, paymentID)
	if err != nil {
		return err
	}
	if points <= 0 || record.CapturedPoints+points > record.AuthorizedPoints {
		return fmt.Errorf("%w: capture of %d exceeds %d available on payment %s",
			domainErrors.ErrIllegalArgument, points, record.Available(), paymentID)
	}
	record.CapturedPoints += points
	return t.store(ctx, *record)
}

// Handle folds one ledger fact into the redemption records.
func (t *RedemptionTracker) Handle(ctx context.Context, env model.Envelope) error {
	switch ev := env.Event.(type) {
	case model.AuthorizedTransactionCreated:
		return t.OnAuthorized(ctx, ev.LoyaltyBankID, ev.PaymentID, ev.Points)
	case model.VoidTransactionCreated:
		return t.OnVoided(ctx, ev.PaymentID, ev.Points)
	case model.CapturedTransactionCreated:
		return t.OnCaptured(ctx, ev.PaymentID, ev.Points)
	case model.AllPointsExpired:
		return t.repo.DeleteByLoyaltyBank(ctx, ev.LoyaltyBankID)
	case model.LoyaltyBankDeleted:
		return t.repo.DeleteByLoyaltyBank(ctx, ev.LoyaltyBankID)
	}
	return nil
}

func (t *RedemptionTracker) store(ctx context.Context, record model.RedemptionRecord) error {
	if record.Available() == 0 {
		return t.repo.Delete(ctx, record.PaymentID)
	}
	return t.repo.Save(ctx, record)
}
