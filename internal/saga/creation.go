package saga

import (
	"errors"
	"time"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// Creation phases.
const (
	CreationAwaitingAccount     = "awaiting_account"
	CreationAwaitingLoyaltyBank = "awaiting_loyalty_bank"
	CreationCompensating        = "compensating"
)

// CreationState tracks one account plus loyalty bank creation request.
type CreationState struct {
	RequestID     string    `json:"request_id"`
	AccountID     string    `json:"account_id"`
	LoyaltyBankID string    `json:"loyalty_bank_id"`
	BusinessID    string    `json:"business_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phase         string    `json:"phase"`
	Succeeded     bool      `json:"succeeded"`
	DeadlineAt    time.Time `json:"deadline_at"`
}

func (s CreationState) CurrentPhase() string { return s.Phase }
func (s CreationState) IsEnded() bool        { return s.Phase == PhaseEnded }

// CreationStarted opens the saga with the watchdog deadline already computed.
type CreationStarted struct {
	Event    model.AccountAndLoyaltyBankCreationStarted
	Deadline time.Time
}

func (CreationStarted) input() {}

// TransitionCreation advances the creation workflow:
// started -> CreateAccount -> AccountCreated -> CreateLoyaltyBank -> LoyaltyBankCreated -> ended,
// compensating with RollbackAccountCreation when the bank cannot be created and
// with both rollbacks when the deadline passes first.
func TransitionCreation(s CreationState, in Input) (CreationState, Effects) {
	var eff Effects
	if s.IsEnded() {
		if d, ok := in.(Dispatched); ok && d.Err != nil {
			eff = eff.withFailure(d.Command.CommandName(), d.Err)
		}
		return s, eff
	}

	switch in := in.(type) {
	case CreationStarted:
		if s.Phase != "" {
			return s, eff
		}
		ev := in.Event
		s = CreationState{
			RequestID:     ev.RequestID,
			AccountID:     ev.AccountID,
			LoyaltyBankID: ev.LoyaltyBankID,
			BusinessID:    ev.BusinessID,
			FirstName:     ev.FirstName,
			LastName:      ev.LastName,
			Email:         ev.Email,
			Phase:         CreationAwaitingAccount,
			DeadlineAt:    in.Deadline,
		}
		eff.ScheduleAt = in.Deadline
		eff.Commands = []model.Command{model.CreateAccount{
			CommandMeta: s.meta(),
			AccountID:   s.AccountID,
			FirstName:   s.FirstName,
			LastName:    s.LastName,
			Email:       s.Email,
		}}
	case Fact:
		switch ev := in.Event.(type) {
		case model.AccountCreated:
			if s.Phase != CreationAwaitingAccount || ev.AccountID != s.AccountID {
				return s, eff
			}
			s.Phase = CreationAwaitingLoyaltyBank
			eff.Commands = []model.Command{model.CreateLoyaltyBank{
				CommandMeta:   s.meta(),
				LoyaltyBankID: s.LoyaltyBankID,
				AccountID:     s.AccountID,
				BusinessID:    s.BusinessID,
			}}
		case model.LoyaltyBankCreated:
			if s.Phase != CreationAwaitingLoyaltyBank || ev.LoyaltyBankID != s.LoyaltyBankID {
				return s, eff
			}
			s.Succeeded = true
			return s.end(eff)
		}
	case Dispatched:
		if in.Err == nil {
			if _, ok := in.Command.(model.RollbackAccountCreation); ok && s.Phase == CreationCompensating {
				return s.end(eff)
			}
			return s, eff
		}
		switch in.Command.(type) {
		case model.CreateAccount:
			if s.Phase != CreationAwaitingAccount {
				return s, eff
			}
			return s.end(eff)
		case model.CreateLoyaltyBank:
			if s.Phase != CreationAwaitingLoyaltyBank {
				return s, eff
			}
			s.Phase = CreationCompensating
			eff.Commands = []model.Command{model.RollbackAccountCreation{CommandMeta: s.meta(), AccountID: s.AccountID}}
		case model.RollbackLoyaltyBankCreation:
			if !errors.Is(in.Err, domainErrors.ErrNotFound) {
				eff = eff.withFailure(in.Command.CommandName(), in.Err)
			}
		case model.RollbackAccountCreation:
			if !errors.Is(in.Err, domainErrors.ErrNotFound) {
				eff = eff.withFailure(in.Command.CommandName(), in.Err)
			}
			return s.end(eff)
		}
	case DeadlineReached:
		if s.Phase == CreationCompensating {
			return s, eff
		}
		s.Phase = CreationCompensating
		eff.Commands = []model.Command{
			model.RollbackLoyaltyBankCreation{CommandMeta: s.meta(), LoyaltyBankID: s.LoyaltyBankID},
			model.RollbackAccountCreation{CommandMeta: s.meta(), AccountID: s.AccountID},
		}
	}
	return s, eff
}

func (s CreationState) end(eff Effects) (CreationState, Effects) {
	s.Phase = PhaseEnded
	eff.CancelDeadline = true
	eff.Commands = append(eff.Commands, model.EndAccountAndLoyaltyBankCreation{
		CommandMeta: s.meta(),
		RequestID:   s.RequestID,
		Succeeded:   s.Succeeded,
	})
	return s, eff
}

// meta tags dispatched commands with the request id so their facts route back here.
func (s CreationState) meta() model.CommandMeta {
	return model.CommandMeta{CorrelationID: s.RequestID}
}
