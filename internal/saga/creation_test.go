package saga

import (
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

func startedCreation() (CreationState, Effects) {
	deadline := time.Date(2024, 1, 1, 0, 0, 30, 0, time.UTC)
	return TransitionCreation(CreationState{}, CreationStarted{
		Event: model.AccountAndLoyaltyBankCreationStarted{
			RequestID:     "req",
			AccountID:     "acc",
			LoyaltyBankID: "lb",
			BusinessID:    "biz",
			Email:         "a@example.com",
		},
		Deadline: deadline,
	})
}

func commandNames(cmds []model.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.CommandName()
	}
	return out
}

func lastEnd(t *testing.T, eff Effects) model.EndAccountAndLoyaltyBankCreation {
	t.Helper()
	if len(eff.Commands) == 0 {
		t.Fatalf("expected end command")
	}
	end, ok := eff.Commands[len(eff.Commands)-1].(model.EndAccountAndLoyaltyBankCreation)
	if !ok {
		t.Fatalf("expected EndAccountAndLoyaltyBankCreation, got %v", commandNames(eff.Commands))
	}
	return end
}

func TestCreationStartSchedulesDeadlineAndCreatesAccount(t *testing.T) {
	s, eff := startedCreation()
	if s.Phase != CreationAwaitingAccount {
		t.Fatalf("expected awaiting account, got %s", s.Phase)
	}
	if eff.ScheduleAt.IsZero() || !eff.ScheduleAt.Equal(s.DeadlineAt) {
		t.Fatalf("expected deadline scheduled, got %+v", eff)
	}
	create, ok := eff.Commands[0].(model.CreateAccount)
	if !ok || create.AccountID != "acc" || create.CorrelationID != "req" {
		t.Fatalf("unexpected first command %+v", eff.Commands)
	}

	again, eff := TransitionCreation(s, CreationStarted{Event: model.AccountAndLoyaltyBankCreationStarted{RequestID: "req"}})
	if again.Phase != CreationAwaitingAccount || len(eff.Commands) != 0 {
		t.Fatalf("duplicate start must be ignored")
	}
}

func TestCreationHappyPathEnds(t *testing.T) {
	s, _ := startedCreation()
	s, eff := TransitionCreation(s, Fact{Event: model.AccountCreated{AccountID: "acc"}})
	if s.Phase != CreationAwaitingLoyaltyBank {
		t.Fatalf("expected awaiting loyalty bank, got %s", s.Phase)
	}
	if bank, ok := eff.Commands[0].(model.CreateLoyaltyBank); !ok || bank.LoyaltyBankID != "lb" || bank.BusinessID != "biz" {
		t.Fatalf("unexpected command %+v", eff.Commands)
	}

	s, eff = TransitionCreation(s, Fact{Event: model.LoyaltyBankCreated{LoyaltyBankID: "lb"}})
	if !s.IsEnded() || !s.Succeeded || !eff.CancelDeadline {
		t.Fatalf("expected successful end, got %+v %+v", s, eff)
	}
	if end := lastEnd(t, eff); !end.Succeeded || end.RequestID != "req" {
		t.Fatalf("unexpected end command %+v", end)
	}
}

func TestCreationAccountFailureEnds(t *testing.T) {
	s, eff := startedCreation()
	s, eff = TransitionCreation(s, Dispatched{Command: eff.Commands[0], Err: domainErrors.ErrAlreadyExists})
	if !s.IsEnded() || s.Succeeded || !eff.CancelDeadline {
		t.Fatalf("expected failed end, got %+v %+v", s, eff)
	}
	if end := lastEnd(t, eff); end.Succeeded {
		t.Fatalf("expected unsuccessful end")
	}
	if len(eff.Failures) != 0 {
		t.Fatalf("account rejection is not an operator issue, got %+v", eff.Failures)
	}
}

func TestCreationLoyaltyBankFailureCompensates(t *testing.T) {
	s, _ := startedCreation()
	s, eff := TransitionCreation(s, Fact{Event: model.AccountCreated{AccountID: "acc"}})
	s, eff = TransitionCreation(s, Dispatched{Command: eff.Commands[0], Err: domainErrors.ErrNotFound})
	if s.Phase != CreationCompensating {
		t.Fatalf("expected compensating, got %s", s.Phase)
	}
	rollback, ok := eff.Commands[0].(model.RollbackAccountCreation)
	if !ok || rollback.AccountID != "acc" {
		t.Fatalf("expected account rollback, got %v", commandNames(eff.Commands))
	}

	s, eff = TransitionCreation(s, Dispatched{Command: rollback})
	if !s.IsEnded() || !eff.CancelDeadline {
		t.Fatalf("expected end after rollback, got %+v", s)
	}
	lastEnd(t, eff)
}

func TestCreationRollbackFailureNeedsOperator(t *testing.T) {
	s, _ := startedCreation()
	s, eff := TransitionCreation(s, Fact{Event: model.AccountCreated{AccountID: "acc"}})
	s, eff = TransitionCreation(s, Dispatched{Command: eff.Commands[0], Err: errors.New("store down")})
	s, eff = TransitionCreation(s, Dispatched{Command: eff.Commands[0], Err: errors.New("store down")})
	if !s.IsEnded() {
		t.Fatalf("expected end even when rollback fails")
	}
	if len(eff.Failures) != 1 || eff.Failures[0].Step != "RollbackAccountCreation" {
		t.Fatalf("expected one operator failure, got %+v", eff.Failures)
	}
}

func TestCreationDeadlineRollsBackBoth(t *testing.T) {
	s, _ := startedCreation()
	s, _ = TransitionCreation(s, Fact{Event: model.AccountCreated{AccountID: "acc"}})
	s, eff := TransitionCreation(s, DeadlineReached{})
	if got := commandNames(eff.Commands); len(got) != 2 || got[0] != "RollbackLoyaltyBankCreation" || got[1] != "RollbackAccountCreation" {
		t.Fatalf("unexpected compensation %v", got)
	}

	s, extra := TransitionCreation(s, Dispatched{Command: eff.Commands[0], Err: domainErrors.ErrNotFound})
	if len(extra.Failures) != 0 || s.IsEnded() {
		t.Fatalf("missing bank is tolerated, got %+v", extra)
	}
	s, extra = TransitionCreation(s, Dispatched{Command: eff.Commands[1]})
	if !s.IsEnded() {
		t.Fatalf("expected end after deadline compensation")
	}
	lastEnd(t, extra)

	ended, late := TransitionCreation(s, Fact{Event: model.LoyaltyBankCreated{LoyaltyBankID: "lb"}})
	if !ended.IsEnded() || len(late.Commands) != 0 {
		t.Fatalf("ended saga must ignore late facts")
	}
}

func TestCreationIgnoresForeignFacts(t *testing.T) {
	s, _ := startedCreation()
	next, eff := TransitionCreation(s, Fact{Event: model.AccountCreated{AccountID: "someone-else"}})
	if next.Phase != CreationAwaitingAccount || len(eff.Commands) != 0 {
		t.Fatalf("foreign account fact must be ignored")
	}
}
