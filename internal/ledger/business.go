package ledger

import (
	"strings"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// Business is a points issuer.
type Business struct {
	ID      string
	Name    string
	Deleted bool
}

func (b Business) Exists() bool {
	return b.ID != ""
}

// ApplyBusiness returns the state after e.
func ApplyBusiness(b Business, e model.Event) Business {
	switch ev := e.(type) {
	case model.BusinessCreated:
		b = Business{ID: ev.BusinessID, Name: ev.Name}
	case model.BusinessDeleted:
		b.Deleted = true
	}
	return b
}

// ReplayBusiness rebuilds a business from its stream.
func ReplayBusiness(history []model.Envelope) (Business, int64) {
	return Replay(Business{}, history, ApplyBusiness)
}

func (b Business) Create(id, name string) (model.Event, error) {
	if b.Exists() {
		return nil, domainErrors.ErrAlreadyExists
	}
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, domainErrors.ErrIllegalArgument
	}
	return model.BusinessCreated{BusinessID: id, Name: name}, nil
}

func (b Business) Delete() (model.Event, error) {
	if !b.Exists() || b.Deleted {
		return nil, domainErrors.ErrNotFound
	}
	return model.BusinessDeleted{BusinessID: b.ID, Name: b.Name}, nil
}
