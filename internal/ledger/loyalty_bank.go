package ledger

import (
	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// Reasons recorded on LoyaltyBankDeleted.
const (
	DeletedByWorkflow = "deleted"
	DeletedByRollback = "rollback"
)

// LoyaltyBank is the per account and business points ledger.
type LoyaltyBank struct {
	ID         string
	AccountID  string
	BusinessID string
	Balances   model.Balances
	Deleting   bool
	Deleted    bool
}

// Exists reports whether the bank was created.
func (b LoyaltyBank) Exists() bool {
	return b.ID != ""
}

// ApplyLoyaltyBank returns the state after e.
func ApplyLoyaltyBank(b LoyaltyBank, e model.Event) LoyaltyBank {
	switch ev := e.(type) {
	case model.LoyaltyBankCreated:
		b = LoyaltyBank{ID: ev.LoyaltyBankID, AccountID: ev.AccountID, BusinessID: ev.BusinessID}
	case model.PendingTransactionCreated:
		b.Balances.Pending += ev.Points
	case model.EarnedTransactionCreated:
		b.Balances.Pending -= ev.Points
		b.Balances.Earned += ev.Points
	case model.AwardedTransactionCreated:
		b.Balances.Earned += ev.Points
	case model.AuthorizedTransactionCreated:
		b.Balances.Authorized += ev.Points
	case model.VoidTransactionCreated:
		b.Balances.Authorized -= ev.Points
	case model.CapturedTransactionCreated:
		b.Balances.Authorized -= ev.Points
		b.Balances.Captured += ev.Points
	case model.PointsExpired:
		b.Balances.Earned -= ev.Points
	case model.AllPointsExpired:
		b.Balances = model.Balances{}
	case model.LoyaltyBankDeletionStarted:
		b.Deleting = true
	case model.LoyaltyBankDeleted:
		b.Deleted = true
	}
	return b
}

// ReplayLoyaltyBank rebuilds a bank from its stream.
func ReplayLoyaltyBank(history []model.Envelope) (LoyaltyBank, int64) {
	return Replay(LoyaltyBank{}, history, ApplyLoyaltyBank)
}

// Create opens a new bank for account and business.
func (b LoyaltyBank) Create(id, accountID, businessID string) (model.Event, error) {
	if b.Exists() {
		return nil, domainErrors.ErrAlreadyExists
	}
	if id == "" || accountID == "" || businessID == "" {
		return nil, domainErrors.ErrIllegalArgument
	}
	return model.LoyaltyBankCreated{LoyaltyBankID: id, AccountID: accountID, BusinessID: businessID}, nil
}

// CreatePending adds provisional points.
func (b LoyaltyBank) CreatePending(transactionID string, points int64) (model.Event, error) {
	if err := b.ensureTransactable(); err != nil {
		return nil, err
	}
	next := b.Balances
	next.Pending += points
	if next.Pending < 0 {
		return nil, domainErrors.IllegalState(domainErrors.FieldPending)
	}
	if err := checkInvariants(next); err != nil {
		return nil, err
	}
	return model.PendingTransactionCreated{LoyaltyBankID: b.ID, TransactionID: transactionID, Points: points}, nil
}

// Earn confirms pending points.
func (b LoyaltyBank) Earn(transactionID string, points int64) (model.Event, error) {
	if err := b.ensureTransactable(); err != nil {
		return nil, err
	}
	next := b.Balances
	next.Pending -= points
	next.Earned += points
	if next.Pending < 0 {
		return nil, domainErrors.IllegalState(domainErrors.FieldPending)
	}
	if next.Earned < 0 {
		return nil, domainErrors.IllegalState(domainErrors.FieldEarned)
	}
	if err := checkInvariants(next); err != nil {
		return nil, err
	}
	return model.EarnedTransactionCreated{LoyaltyBankID: b.ID, TransactionID: transactionID, Points: points}, nil
}

// Award grants earned points without a pending stage.
func (b LoyaltyBank) Award(transactionID string, points int64) (model.Event, error) {
	if err := b.ensureTransactable(); err != nil {
		return nil, err
	}
	next := b.Balances
	next.Earned += points
	if next.Earned < 0 {
		return nil, domainErrors.IllegalState(domainErrors.FieldEarned)
	}
	if err := checkInvariants(next); err != nil {
		return nil, err
	}
	return model.AwardedTransactionCreated{LoyaltyBankID: b.ID, TransactionID: transactionID, Points: points}, nil
}

// Authorize reserves available points for payment.
func (b LoyaltyBank) Authorize(transactionID, paymentID string, points int64) (model.Event, error) {
	if err := b.ensureTransactable(); err != nil {
		return nil, err
	}
	if b.Balances.Authorized+points < 0 {
		return nil, domainErrors.IllegalState(domainErrors.FieldAuthorized)
	}
	if b.Balances.Available() < points {
		return nil, domainErrors.ErrInsufficientPoints
	}
	return model.AuthorizedTransactionCreated{
		LoyaltyBankID: b.ID,
		TransactionID: transactionID,
		PaymentID:     paymentID,
		Points:        points,
	}, nil
}

// Void releases authorized points of payment.
func (b LoyaltyBank) Void(transactionID, paymentID string, points int64) (model.Event, error) {
	if err := b.ensureTransactable(); err != nil {
		return nil, err
	}
	next := b.Balances
	next.Authorized -= points
	if next.Authorized < 0 {
		return nil, domainErrors.IllegalState(domainErrors.FieldAuthorized)
	}
	if err := checkInvariants(next); err != nil {
		return nil, err
	}
	return model.VoidTransactionCreated{
		LoyaltyBankID: b.ID,
		TransactionID: transactionID,
		PaymentID:     paymentID,
		Points:        points,
	}, nil
}

// Capture finalises authorized points of payment.
func (b LoyaltyBank) Capture(transactionID, paymentID string, points int64) (model.Event, error) {
	if err := b.ensureTransactable(); err != nil {
		return nil, err
	}
	next := b.Balances
	next.Authorized -= points
	next.Captured += points
	if next.Authorized < 0 {
		return nil, domainErrors.IllegalState(domainErrors.FieldAuthorized)
	}
	if next.Captured < 0 {
		return nil, domainErrors.IllegalState(domainErrors.FieldCaptured)
	}
	if err := checkInvariants(next); err != nil {
		return nil, err
	}
	return model.CapturedTransactionCreated{
		LoyaltyBankID: b.ID,
		TransactionID: transactionID,
		PaymentID:     paymentID,
		Points:        points,
	}, nil
}

// Expire removes the remaining points of one expiration batch.
func (b LoyaltyBank) Expire(transactionID string, points int64) (model.Event, error) {
	if err := b.ensureLive(); err != nil {
		return nil, err
	}
	next := b.Balances
	next.Earned -= points
	if next.Earned < 0 {
		return nil, domainErrors.IllegalState(domainErrors.FieldEarned)
	}
	if err := checkInvariants(next); err != nil {
		return nil, err
	}
	return model.PointsExpired{LoyaltyBankID: b.ID, TransactionID: transactionID, Points: points}, nil
}

// ExpireAll forces every counter to zero. It always emits so that waiting
// workflows get their confirmation.
func (b LoyaltyBank) ExpireAll() (model.Event, error) {
	if err := b.ensureLive(); err != nil {
		return nil, err
	}
	return model.AllPointsExpired{LoyaltyBankID: b.ID, Previous: b.Balances}, nil
}

// StartDeletion freezes the bank ahead of the deletion workflow.
func (b LoyaltyBank) StartDeletion() (model.Event, error) {
	if err := b.ensureLive(); err != nil {
		return nil, err
	}
	if b.Deleting {
		return nil, nil
	}
	return model.LoyaltyBankDeletionStarted{
		LoyaltyBankID: b.ID,
		AccountID:     b.AccountID,
		BusinessID:    b.BusinessID,
	}, nil
}

// Delete ends the bank; every counter must already be zero.
func (b LoyaltyBank) Delete(reason string) (model.Event, error) {
	if err := b.ensureLive(); err != nil {
		return nil, err
	}
	if !b.Balances.IsZero() {
		return nil, domainErrors.ErrBalanceNotZero
	}
	return model.LoyaltyBankDeleted{
		LoyaltyBankID: b.ID,
		AccountID:     b.AccountID,
		BusinessID:    b.BusinessID,
		Reason:        reason,
	}, nil
}

func (b LoyaltyBank) ensureLive() error {
	if !b.Exists() || b.Deleted {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (b LoyaltyBank) ensureTransactable() error {
	if err := b.ensureLive(); err != nil {
		return err
	}
	if b.Deleting {
		return domainErrors.ErrLoyaltyBankDeleting
	}
	return nil
}

// checkInvariants validates a candidate balance set before any fact is emitted.
func checkInvariants(next model.Balances) error {
	switch {
	case next.Pending < 0:
		return domainErrors.IllegalState(domainErrors.FieldPending)
	case next.Earned < 0:
		return domainErrors.IllegalState(domainErrors.FieldEarned)
	case next.Authorized < 0:
		return domainErrors.IllegalState(domainErrors.FieldAuthorized)
	case next.Captured < 0:
		return domainErrors.IllegalState(domainErrors.FieldCaptured)
	case next.Available() < 0:
		return domainErrors.ErrInsufficientPoints
	}
	return nil
}
