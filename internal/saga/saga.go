// Package saga coordinates workflows that span several aggregates. Each saga
// is a pure transition over its own state; the Runner persists the state,
// dispatches the commands a transition asks for and feeds the outcome back.
package saga

import (
	"time"

	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// Saga types used as persistence keys.
const (
	TypeCreation      = "account_loyalty_bank_creation"
	TypeOwnerDeletion = "owner_deletion"
	TypeBankDeletion  = "loyalty_bank_deletion"
)

// PhaseEnded is the terminal phase shared by every saga.
const PhaseEnded = "ended"

// State is the persisted value of one saga instance.
type State interface {
	CurrentPhase() string
	IsEnded() bool
}

// Input is what a transition reacts to: a fact, a dispatch outcome or a deadline.
type Input interface {
	input()
}

// Fact feeds a ledger fact into a saga.
type Fact struct {
	Event model.Event
}

// Dispatched reports the outcome of a command the saga asked for.
type Dispatched struct {
	Command model.Command
	Err     error
}

// DeadlineReached fires when the creation watchdog expires.
type DeadlineReached struct{}

func (Fact) input()            {}
func (Dispatched) input()      {}
func (DeadlineReached) input() {}

// Failure is a step that needs an operator.
type Failure struct {
	Step   string
	Reason string
}

// Effects is what a transition asks the runner to do.
type Effects struct {
	Commands       []model.Command
	ScheduleAt     time.Time
	CancelDeadline bool
	Failures       []Failure
}

func (e Effects) withFailure(step string, err error) Effects {
	e.Failures = append(e.Failures, Failure{Step: step, Reason: err.Error()})
	return e
}
