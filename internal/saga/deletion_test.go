package saga

import (
	"errors"
	"testing"

	"github.com/polkiloo/pointsledger/internal/domain/model"
)

func TestOwnerDeletionWithoutDependentsEnds(t *testing.T) {
	s, eff := TransitionOwnerDeletion(OwnerDeletionState{}, OwnerDeleted{Kind: OwnerAccount, OwnerID: "acc"})
	if !s.IsEnded() || len(eff.Commands) != 0 {
		t.Fatalf("expected immediate end, got %+v %+v", s, eff)
	}
}

func TestOwnerDeletionStartsEachDependent(t *testing.T) {
	s, eff := TransitionOwnerDeletion(OwnerDeletionState{}, OwnerDeleted{Kind: OwnerBusiness, OwnerID: "biz", Dependents: []string{"lb1", "lb2"}})
	if s.Phase != OwnerAwaitingDependents || s.Remaining != 2 {
		t.Fatalf("unexpected state %+v", s)
	}
	if len(eff.Commands) != 2 {
		t.Fatalf("expected two deletions, got %v", commandNames(eff.Commands))
	}
	start := eff.Commands[1].(model.StartLoyaltyBankDeletion)
	if start.LoyaltyBankID != "lb2" || start.CorrelationID != "business:biz" {
		t.Fatalf("unexpected command %+v", start)
	}

	s, eff = TransitionOwnerDeletion(s, Dispatched{Command: start, Err: errors.New("boom")})
	if s.IsEnded() || len(eff.Failures) != 1 {
		t.Fatalf("failed start needs an operator and keeps the cascade open, got %+v %+v", s, eff)
	}

	s, _ = TransitionOwnerDeletion(s, DependentRemoved{LoyaltyBankID: "lb1", Remaining: 1})
	if s.IsEnded() || s.Remaining != 1 {
		t.Fatalf("expected one remaining, got %+v", s)
	}
	s, _ = TransitionOwnerDeletion(s, DependentRemoved{LoyaltyBankID: "lb2", Remaining: 0})
	if !s.IsEnded() {
		t.Fatalf("expected end when no dependents remain")
	}
}

func TestBankDeletionSequence(t *testing.T) {
	s, eff := TransitionBankDeletion(BankDeletionState{}, Fact{Event: model.LoyaltyBankDeletionStarted{LoyaltyBankID: "lb"}})
	if s.Phase != BankExpiringPoints {
		t.Fatalf("expected expiring points, got %s", s.Phase)
	}
	if _, ok := eff.Commands[0].(model.ExpireAllPoints); !ok {
		t.Fatalf("expected ExpireAllPoints, got %v", commandNames(eff.Commands))
	}

	s, eff = TransitionBankDeletion(s, Fact{Event: model.AllPointsExpired{LoyaltyBankID: "lb"}})
	if s.Phase != BankDeleting {
		t.Fatalf("expected deleting, got %s", s.Phase)
	}
	if _, ok := eff.Commands[0].(model.DeleteLoyaltyBank); !ok {
		t.Fatalf("expected DeleteLoyaltyBank, got %v", commandNames(eff.Commands))
	}

	s, _ = TransitionBankDeletion(s, Fact{Event: model.LoyaltyBankDeleted{LoyaltyBankID: "lb"}})
	if !s.IsEnded() {
		t.Fatalf("expected end")
	}
}

func TestBankDeletionFailureEnds(t *testing.T) {
	s, eff := TransitionBankDeletion(BankDeletionState{}, Fact{Event: model.LoyaltyBankDeletionStarted{LoyaltyBankID: "lb"}})
	s, eff = TransitionBankDeletion(s, Dispatched{Command: eff.Commands[0], Err: errors.New("boom")})
	if !s.IsEnded() || len(eff.Failures) != 1 || eff.Failures[0].Step != "ExpireAllPoints" {
		t.Fatalf("expected failure end, got %+v %+v", s, eff)
	}
}

func TestBankDeletionIgnoresUnrelatedAllPointsExpired(t *testing.T) {
	s, eff := TransitionBankDeletion(BankDeletionState{}, Fact{Event: model.AllPointsExpired{LoyaltyBankID: "lb"}})
	if s.Phase != "" || len(eff.Commands) != 0 {
		t.Fatalf("saga must not start from AllPointsExpired")
	}
}
