package ledger

import (
	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// CreationRequest is the stream that opens and closes an account plus loyalty bank workflow.
type CreationRequest struct {
	RequestID string
	Started   bool
	Ended     bool
}

// ApplyCreationRequest returns the state after e.
func ApplyCreationRequest(r CreationRequest, e model.Event) CreationRequest {
	switch ev := e.(type) {
	case model.AccountAndLoyaltyBankCreationStarted:
		r = CreationRequest{RequestID: ev.RequestID, Started: true}
	case model.AccountAndLoyaltyBankCreationEnded:
		r.Ended = true
	}
	return r
}

// ReplayCreationRequest rebuilds a request from its stream.
func ReplayCreationRequest(history []model.Envelope) (CreationRequest, int64) {
	return Replay(CreationRequest{}, history, ApplyCreationRequest)
}

// Start opens the request.
func (r CreationRequest) Start(cmd model.StartAccountAndLoyaltyBankCreation) (model.Event, error) {
	if r.Started {
		return nil, domainErrors.ErrAlreadyExists
	}
	if cmd.RequestID == "" || cmd.AccountID == "" || cmd.LoyaltyBankID == "" || cmd.BusinessID == "" {
		return nil, domainErrors.ErrIllegalArgument
	}
	return model.AccountAndLoyaltyBankCreationStarted{
		RequestID:     cmd.RequestID,
		AccountID:     cmd.AccountID,
		LoyaltyBankID: cmd.LoyaltyBankID,
		BusinessID:    cmd.BusinessID,
		FirstName:     cmd.FirstName,
		LastName:      cmd.LastName,
		Email:         NormalizeEmail(cmd.Email),
	}, nil
}

// End closes the request. Ending twice is a no-op.
func (r CreationRequest) End(succeeded bool) (model.Event, error) {
	if !r.Started {
		return nil, domainErrors.ErrNotFound
	}
	if r.Ended {
		return nil, nil
	}
	return model.AccountAndLoyaltyBankCreationEnded{RequestID: r.RequestID, Succeeded: succeeded}, nil
}
