package projection

import (
	"context"
	"errors"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/domain/repository"
)

// Directory projects account, business and loyalty bank lifecycle facts for lookups.
type Directory struct {
	repo repository.DirectoryRepository
}

// NewDirectory constructs Directory.
func NewDirectory(repo repository.DirectoryRepository) *Directory {
	return &Directory{repo: repo}
}

func (d *Directory) Name() string { return "directory" }

// Handle applies one lifecycle fact. Deleting an absent entry is not an error.
func (d *Directory) Handle(ctx context.Context, env model.Envelope) error {
	var err error
	switch ev := env.Event.(type) {
	case model.AccountCreated:
		err = d.repo.PutAccount(ctx, model.AccountEntry{
			AccountID: ev.AccountID,
			FirstName: ev.FirstName,
			LastName:  ev.LastName,
			Email:     ev.Email,
		})
	case model.AccountDeleted:
		err = d.repo.DeleteAccount(ctx, ev.AccountID)
	case model.BusinessCreated:
		err = d.repo.PutBusiness(ctx, model.BusinessEntry{BusinessID: ev.BusinessID, Name: ev.Name})
	case model.BusinessDeleted:
		err = d.repo.DeleteBusiness(ctx, ev.BusinessID)
	case model.LoyaltyBankCreated:
		err = d.repo.PutLoyaltyBank(ctx, model.LoyaltyBankEntry{
			LoyaltyBankID: ev.LoyaltyBankID,
			AccountID:     ev.AccountID,
			BusinessID:    ev.BusinessID,
		})
	case model.LoyaltyBankDeleted:
		err = d.repo.DeleteLoyaltyBank(ctx, ev.LoyaltyBankID)
	}
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil
	}
	return err
}
