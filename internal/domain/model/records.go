package model

import "time"

// PointBatch is one unexpired chunk of earned or awarded points.
type PointBatch struct {
	TransactionID string
	LoyaltyBankID string
	Points        int64
	CreatedAt     time.Time
}

// RedemptionRecord tracks what is left of one authorization.
type RedemptionRecord struct {
	PaymentID        string
	LoyaltyBankID    string
	AuthorizedPoints int64
	CapturedPoints   int64
}

// Available returns authorized points not yet captured.
func (r RedemptionRecord) Available() int64 {
	return r.AuthorizedPoints - r.CapturedPoints
}

// AccountEntry is the directory view of an account.
type AccountEntry struct {
	AccountID string
	FirstName string
	LastName  string
	Email     string
}

// BusinessEntry is the directory view of a business.
type BusinessEntry struct {
	BusinessID string
	Name       string
}

// LoyaltyBankEntry is the directory view of a loyalty bank.
type LoyaltyBankEntry struct {
	LoyaltyBankID string
	AccountID     string
	BusinessID    string
}

// SagaRecord is the persisted form of a saga instance.
type SagaRecord struct {
	Type      string
	ID        string
	Phase     string
	State     []byte
	Ended     bool
	UpdatedAt time.Time
}

// Intervention marks a failure an operator has to resolve by hand.
type Intervention struct {
	ID        string
	Source    string
	Subject   string
	Step      string
	Reason    string
	CreatedAt time.Time
}
