package model

import "github.com/google/uuid"

// AggregateType names an event stream family.
type AggregateType string

const (
	AggregateAccount         AggregateType = "account"
	AggregateBusiness        AggregateType = "business"
	AggregateLoyaltyBank     AggregateType = "loyalty_bank"
	AggregateCreationRequest AggregateType = "creation_request"
)

// NewID returns a random identifier for aggregates, payments and correlations.
func NewID() string {
	return uuid.NewString()
}

// CreationStreamID is the event stream id of a creation request.
func CreationStreamID(requestID string) string {
	return "creation:" + requestID
}
