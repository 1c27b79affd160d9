package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies a fact on the wire and in the event store.
type EventType string

const (
	EventAccountCreated  EventType = "account.created"
	EventAccountDeleted  EventType = "account.deleted"
	EventBusinessCreated EventType = "business.created"
	EventBusinessDeleted EventType = "business.deleted"

	EventLoyaltyBankCreated           EventType = "loyalty_bank.created"
	EventPendingTransactionCreated    EventType = "loyalty_bank.pending_transaction_created"
	EventEarnedTransactionCreated     EventType = "loyalty_bank.earned_transaction_created"
	EventAwardedTransactionCreated    EventType = "loyalty_bank.awarded_transaction_created"
	EventAuthorizedTransactionCreated EventType = "loyalty_bank.authorized_transaction_created"
	EventVoidTransactionCreated       EventType = "loyalty_bank.void_transaction_created"
	EventCapturedTransactionCreated   EventType = "loyalty_bank.captured_transaction_created"
	EventPointsExpired                EventType = "loyalty_bank.points_expired"
	EventAllPointsExpired             EventType = "loyalty_bank.all_points_expired"
	EventLoyaltyBankDeletionStarted   EventType = "loyalty_bank.deletion_started"
	EventLoyaltyBankDeleted           EventType = "loyalty_bank.deleted"

	EventCreationStarted EventType = "creation.started"
	EventCreationEnded   EventType = "creation.ended"
)

// Event is an immutable fact folded by aggregates and projections.
type Event interface {
	EventType() EventType
	AggregateID() string
}

// Envelope carries a fact with its stream position and metadata.
type Envelope struct {
	EventID       string
	AggregateID   string
	AggregateType AggregateType
	Sequence      int64
	CorrelationID string
	OccurredAt    time.Time
	Event         Event
}

type AccountCreated struct {
	AccountID string `json:"account_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (e AccountCreated) EventType() EventType { return EventAccountCreated }
func (e AccountCreated) AggregateID() string  { return e.AccountID }

type AccountDeleted struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Reason    string `json:"reason"`
}

func (e AccountDeleted) EventType() EventType { return EventAccountDeleted }
func (e AccountDeleted) AggregateID() string  { return e.AccountID }

type BusinessCreated struct {
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
}

func (e BusinessCreated) EventType() EventType { return EventBusinessCreated }
func (e BusinessCreated) AggregateID() string  { return e.BusinessID }

type BusinessDeleted struct {
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
}

func (e BusinessDeleted) EventType() EventType { return EventBusinessDeleted }
func (e BusinessDeleted) AggregateID() string  { return e.BusinessID }

type LoyaltyBankCreated struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	AccountID     string `json:"account_id"`
	BusinessID    string `json:"business_id"`
}

func (e LoyaltyBankCreated) EventType() EventType { return EventLoyaltyBankCreated }
func (e LoyaltyBankCreated) AggregateID() string  { return e.LoyaltyBankID }

type PendingTransactionCreated struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	TransactionID string `json:"transaction_id"`
	Points        int64  `json:"points"`
}

func (e PendingTransactionCreated) EventType() EventType { return EventPendingTransactionCreated }
func (e PendingTransactionCreated) AggregateID() string  { return e.LoyaltyBankID }

type EarnedTransactionCreated struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	TransactionID string `json:"transaction_id"`
	Points        int64  `json:"points"`
}

func (e EarnedTransactionCreated) EventType() EventType { return EventEarnedTransactionCreated }
func (e EarnedTransactionCreated) AggregateID() string  { return e.LoyaltyBankID }

type AwardedTransactionCreated struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	TransactionID string `json:"transaction_id"`
	Points        int64  `json:"points"`
}

func (e AwardedTransactionCreated) EventType() EventType { return EventAwardedTransactionCreated }
func (e AwardedTransactionCreated) AggregateID() string  { return e.LoyaltyBankID }

type AuthorizedTransactionCreated struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	TransactionID string `json:"transaction_id"`
	PaymentID     string `json:"payment_id"`
	Points        int64  `json:"points"`
}

func (e AuthorizedTransactionCreated) EventType() EventType { return EventAuthorizedTransactionCreated }
func (e AuthorizedTransactionCreated) AggregateID() string  { return e.LoyaltyBankID }

type VoidTransactionCreated struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	TransactionID string `json:"transaction_id"`
	PaymentID     string `json:"payment_id"`
	Points        int64  `json:"points"`
}

func (e VoidTransactionCreated) EventType() EventType { return EventVoidTransactionCreated }
func (e VoidTransactionCreated) AggregateID() string  { return e.LoyaltyBankID }

type CapturedTransactionCreated struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	TransactionID string `json:"transaction_id"`
	PaymentID     string `json:"payment_id"`
	Points        int64  `json:"points"`
}

func (e CapturedTransactionCreated) EventType() EventType { return EventCapturedTransactionCreated }
func (e CapturedTransactionCreated) AggregateID() string  { return e.LoyaltyBankID }

// PointsExpired removes one expiration batch worth of earned points.
type PointsExpired struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	TransactionID string `json:"transaction_id"`
	Points        int64  `json:"points"`
}

func (e PointsExpired) EventType() EventType { return EventPointsExpired }
func (e PointsExpired) AggregateID() string  { return e.LoyaltyBankID }

// AllPointsExpired zeroes every counter; Previous keeps the balances it replaced.
type AllPointsExpired struct {
	LoyaltyBankID string   `json:"loyalty_bank_id"`
	Previous      Balances `json:"previous"`
}

func (e AllPointsExpired) EventType() EventType { return EventAllPointsExpired }
func (e AllPointsExpired) AggregateID() string  { return e.LoyaltyBankID }

type LoyaltyBankDeletionStarted struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	AccountID     string `json:"account_id"`
	BusinessID    string `json:"business_id"`
}

func (e LoyaltyBankDeletionStarted) EventType() EventType { return EventLoyaltyBankDeletionStarted }
func (e LoyaltyBankDeletionStarted) AggregateID() string  { return e.LoyaltyBankID }

type LoyaltyBankDeleted struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	AccountID     string `json:"account_id"`
	BusinessID    string `json:"business_id"`
	Reason        string `json:"reason"`
}

func (e LoyaltyBankDeleted) EventType() EventType { return EventLoyaltyBankDeleted }
func (e LoyaltyBankDeleted) AggregateID() string  { return e.LoyaltyBankID }

type AccountAndLoyaltyBankCreationStarted struct {
	RequestID     string `json:"request_id"`
	AccountID     string `json:"account_id"`
	LoyaltyBankID string `json:"loyalty_bank_id"`
	BusinessID    string `json:"business_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
}

func (e AccountAndLoyaltyBankCreationStarted) EventType() EventType { return EventCreationStarted }
func (e AccountAndLoyaltyBankCreationStarted) AggregateID() string {
	return CreationStreamID(e.RequestID)
}

type AccountAndLoyaltyBankCreationEnded struct {
	RequestID string `json:"request_id"`
	Succeeded bool   `json:"succeeded"`
}

func (e AccountAndLoyaltyBankCreationEnded) EventType() EventType { return EventCreationEnded }
func (e AccountAndLoyaltyBankCreationEnded) AggregateID() string {
	return CreationStreamID(e.RequestID)
}

var eventDecoders = map[EventType]func([]byte) (Event, error){
	EventAccountCreated:               decodeAs[AccountCreated],
	EventAccountDeleted:               decodeAs[AccountDeleted],
	EventBusinessCreated:              decodeAs[BusinessCreated],
	EventBusinessDeleted:              decodeAs[BusinessDeleted],
	EventLoyaltyBankCreated:           decodeAs[LoyaltyBankCreated],
	EventPendingTransactionCreated:    decodeAs[PendingTransactionCreated],
	EventEarnedTransactionCreated:     decodeAs[EarnedTransactionCreated],
	EventAwardedTransactionCreated:    decodeAs[AwardedTransactionCreated],
	EventAuthorizedTransactionCreated: decodeAs[AuthorizedTransactionCreated],
	EventVoidTransactionCreated:       decodeAs[VoidTransactionCreated],
	EventCapturedTransactionCreated:   decodeAs[CapturedTransactionCreated],
	EventPointsExpired:                decodeAs[PointsExpired],
	EventAllPointsExpired:             decodeAs[AllPointsExpired],
	EventLoyaltyBankDeletionStarted:   decodeAs[LoyaltyBankDeletionStarted],
	EventLoyaltyBankDeleted:           decodeAs[LoyaltyBankDeleted],
	EventCreationStarted:              decodeAs[AccountAndLoyaltyBankCreationStarted],
	EventCreationEnded:                decodeAs[AccountAndLoyaltyBankCreationEnded],
}

func decodeAs[T Event](raw []byte) (Event, error) {
	var e T
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// EncodeEvent serialises the payload of e.
func EncodeEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent restores a payload stored under type t.
func DecodeEvent(t EventType, raw []byte) (Event, error) {
	decode, ok := eventDecoders[t]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", t)
	}
	e, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return e, nil
}
