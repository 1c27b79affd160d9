package ledger

import (
	"strings"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// Reasons recorded on AccountDeleted.
const (
	AccountDeletedByRequest  = "deleted"
	AccountDeletedByRollback = "rollback"
)

// Account is a loyalty customer.
type Account struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Deleted   bool
}

func (a Account) Exists() bool {
	return a.ID != ""
}

// ApplyAccount returns the state after e.
func ApplyAccount(a Account, e model.Event) Account {
	switch ev := e.(type) {
	case model.AccountCreated:
		a = Account{ID: ev.AccountID, FirstName: ev.FirstName, LastName: ev.LastName, Email: ev.Email}
	case model.AccountDeleted:
		a.Deleted = true
	}
	return a
}

// ReplayAccount rebuilds an account from its stream.
func ReplayAccount(history []model.Envelope) (Account, int64) {
	return Replay(Account{}, history, ApplyAccount)
}

// Create registers the account.
func (a Account) Create(id, firstName, lastName, email string) (model.Event, error) {
	if a.Exists() {
		return nil, domainErrors.ErrAlreadyExists
	}
	email = NormalizeEmail(email)
	if id == "" || email == "" {
		return nil, domainErrors.ErrIllegalArgument
	}
	return model.AccountCreated{AccountID: id, FirstName: firstName, LastName: lastName, Email: email}, nil
}

// Delete removes the account; its loyalty banks are cleaned up by the cascade workflow.
func (a Account) Delete(reason string) (model.Event, error) {
	if !a.Exists() || a.Deleted {
		return nil, domainErrors.ErrNotFound
	}
	return model.AccountDeleted{AccountID: a.ID, Email: a.Email, Reason: reason}, nil
}

// NormalizeEmail is the canonical form used for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
