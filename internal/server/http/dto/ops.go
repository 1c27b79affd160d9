package dto

import (
	"encoding/json"
	"time"

	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// InterventionResponse describes one failure waiting for an operator.
type InterventionResponse struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Subject   string    `json:"subject"`
	Step      string    `json:"step"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// SagaResponse is the persisted state of one saga instance.
type SagaResponse struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Phase     string          `json:"phase"`
	Ended     bool            `json:"ended"`
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HaltResponse names a subscriber halted for one aggregate.
type HaltResponse struct {
	Subscriber  string `json:"subscriber"`
	AggregateID string `json:"aggregate_id"`
}

// BatchResponse is one unexpired batch of points.
type BatchResponse struct {
	TransactionID string    `json:"transaction_id"`
	Points        int64     `json:"points"`
	CreatedAt     time.Time `json:"created_at"`
}

// LoyaltyBankResponse combines the balances of a bank with its expiration queue.
type LoyaltyBankResponse struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	BusinessID string          `json:"business_id"`
	Balances   model.Balances  `json:"balances"`
	Available  int64           `json:"available"`
	Deleting   bool            `json:"deleting"`
	Batches    []BatchResponse `json:"batches"`
}
