package saga

import (
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// Owner kinds of a deletion cascade.
const (
	OwnerAccount  = "account"
	OwnerBusiness = "business"
)

// Deletion phases.
const (
	OwnerAwaitingDependents = "awaiting_dependents"
	BankExpiringPoints      = "expiring_points"
	BankDeleting            = "deleting"
)

// OwnerKey is the saga id of the cascade for one account or business.
func OwnerKey(kind, id string) string {
	return kind + ":" + id
}

// OwnerDeletionState tracks the loyalty banks still held by a deleted owner.
type OwnerDeletionState struct {
	OwnerKind  string   `json:"owner_kind"`
	OwnerID    string   `json:"owner_id"`
	Dependents []string `json:"dependents"`
	Remaining  int      `json:"remaining"`
	Phase      string   `json:"phase"`
}

func (s OwnerDeletionState) CurrentPhase() string { return s.Phase }
func (s OwnerDeletionState) IsEnded() bool        { return s.Phase == PhaseEnded }

// OwnerDeleted opens a cascade with the dependents found at deletion time.
type OwnerDeleted struct {
	Kind       string
	OwnerID    string
	Dependents []string
}

// DependentRemoved carries the freshly re-queried number of remaining dependents.
type DependentRemoved struct {
	LoyaltyBankID string
	Remaining     int
}

func (OwnerDeleted) input()     {}
func (DependentRemoved) input() {}

// TransitionOwnerDeletion starts the deletion of every dependent bank and ends
// once none remain.
func TransitionOwnerDeletion(s OwnerDeletionState, in Input) (OwnerDeletionState, Effects) {
	var eff Effects
	if s.IsEnded() {
		return s, eff
	}
	switch in := in.(type) {
	case OwnerDeleted:
		if s.Phase != "" {
			return s, eff
		}
		s = OwnerDeletionState{
			OwnerKind:  in.Kind,
			OwnerID:    in.OwnerID,
			Dependents: append([]string(nil), in.Dependents...),
			Remaining:  len(in.Dependents),
			Phase:      OwnerAwaitingDependents,
		}
		if s.Remaining == 0 {
			s.Phase = PhaseEnded
			return s, eff
		}
		meta := model.CommandMeta{CorrelationID: OwnerKey(s.OwnerKind, s.OwnerID)}
		for _, id := range s.Dependents {
			eff.Commands = append(eff.Commands, model.StartLoyaltyBankDeletion{CommandMeta: meta, LoyaltyBankID: id})
		}
	case DependentRemoved:
		if s.Phase != OwnerAwaitingDependents {
			return s, eff
		}
		s.Remaining = in.Remaining
		if s.Remaining <= 0 {
			s.Remaining = 0
			s.Phase = PhaseEnded
		}
	case Dispatched:
		if in.Err != nil {
			eff = eff.withFailure(in.Command.CommandName()+" "+in.Command.TargetID(), in.Err)
		}
	}
	return s, eff
}

// BankDeletionState tracks the deletion sub-workflow of one loyalty bank.
type BankDeletionState struct {
	LoyaltyBankID string `json:"loyalty_bank_id"`
	Phase         string `json:"phase"`
}

func (s BankDeletionState) CurrentPhase() string { return s.Phase }
func (s BankDeletionState) IsEnded() bool        { return s.Phase == PhaseEnded }

// TransitionBankDeletion expires every point of a bank and then deletes it.
// Any dispatch failure ends the saga with a failure for the operator.
func TransitionBankDeletion(s BankDeletionState, in Input) (BankDeletionState, Effects) {
	var eff Effects
	if s.IsEnded() {
		return s, eff
	}
	switch in := in.(type) {
	case Fact:
		switch ev := in.Event.(type) {
		case model.LoyaltyBankDeletionStarted:
			if s.Phase != "" {
				return s, eff
			}
			s = BankDeletionState{LoyaltyBankID: ev.LoyaltyBankID, Phase: BankExpiringPoints}
			eff.Commands = []model.Command{model.ExpireAllPoints{CommandMeta: s.meta(), LoyaltyBankID: s.LoyaltyBankID}}
		case model.AllPointsExpired:
			if s.Phase != BankExpiringPoints {
				return s, eff
			}
			s.Phase = BankDeleting
			eff.Commands = []model.Command{model.DeleteLoyaltyBank{CommandMeta: s.meta(), LoyaltyBankID: s.LoyaltyBankID}}
		case model.LoyaltyBankDeleted:
			if s.Phase == "" {
				return s, eff
			}
			s.Phase = PhaseEnded
		}
	case Dispatched:
		if in.Err != nil {
			s.Phase = PhaseEnded
			eff = eff.withFailure(in.Command.CommandName(), in.Err)
		}
	}
	return s, eff
}

func (s BankDeletionState) meta() model.CommandMeta {
	return model.CommandMeta{CorrelationID: s.LoyaltyBankID}
}
