package memory

import (
	"context"
	"sort"
	"sync"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// DirectoryRepository indexes accounts, businesses and loyalty banks.
type DirectoryRepository struct {
	mu         sync.RWMutex
	accounts   map[string]model.AccountEntry
	businesses map[string]model.BusinessEntry
	banks      map[string]model.LoyaltyBankEntry
}

// NewDirectoryRepository creates an empty DirectoryRepository.
func NewDirectoryRepository() *DirectoryRepository {
	return &DirectoryRepository{
		accounts:   make(map[string]model.AccountEntry),
		businesses: make(map[string]model.BusinessEntry),
		banks:      make(map[string]model.LoyaltyBankEntry),
	}
}

func (r *DirectoryRepository) PutAccount(_ context.Context, entry model.AccountEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.accounts {
		if id != entry.AccountID && existing.Email == entry.Email {
			return domainErrors.ErrAlreadyExists
		}
	}
	r.accounts[entry.AccountID] = entry
	return nil
}

func (r *DirectoryRepository) DeleteAccount(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[accountID]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(r.accounts, accountID)
	return nil
}

func (r *DirectoryRepository) AccountByID(_ context.Context, accountID string) (*model.AccountEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.accounts[accountID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &entry, nil
}

func (r *DirectoryRepository) AccountByEmail(_ context.Context, email string) (*model.AccountEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.accounts {
		if entry.Email == email {
			found := entry
			return &found, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r *DirectoryRepository) PutBusiness(_ context.Context, entry model.BusinessEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.businesses {
		if id != entry.BusinessID && existing.Name == entry.Name {
			return domainErrors.ErrAlreadyExists
		}
	}
	r.businesses[entry.BusinessID] = entry
	return nil
}

func (r *DirectoryRepository) DeleteBusiness(_ context.Context, businessID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.businesses[businessID]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(r.businesses, businessID)
	return nil
}

func (r *DirectoryRepository) BusinessByID(_ context.Context, businessID string) (*model.BusinessEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.businesses[businessID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &entry, nil
}

func (r *DirectoryRepository) BusinessByName(_ context.Context, name string) (*model.BusinessEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.businesses {
		if entry.Name == name {
			found := entry
			return &found, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r *DirectoryRepository) PutLoyaltyBank(_ context.Context, entry model.LoyaltyBankEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.banks {
		if id != entry.LoyaltyBankID && existing.AccountID == entry.AccountID && existing.BusinessID == entry.BusinessID {
			return domainErrors.ErrAlreadyExists
		}
	}
	r.banks[entry.LoyaltyBankID] = entry
	return nil
}

func (r *DirectoryRepository) DeleteLoyaltyBank(_ context.Context, loyaltyBankID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.banks[loyaltyBankID]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(r.banks, loyaltyBankID)
	return nil
}

func (r *DirectoryRepository) LoyaltyBankByID(_ context.Context, loyaltyBankID string) (*model.LoyaltyBankEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.banks[loyaltyBankID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &entry, nil
}

func (r *DirectoryRepository) LoyaltyBankByOwners(_ context.Context, accountID, businessID string) (*model.LoyaltyBankEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.banks {
		if entry.AccountID == accountID && entry.BusinessID == businessID {
			found := entry
			return &found, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r *DirectoryRepository) LoyaltyBanksByAccount(_ context.Context, accountID string) ([]model.LoyaltyBankEntry, error) {
	return r.filterBanks(func(e model.LoyaltyBankEntry) bool { return e.AccountID == accountID }), nil
}

func (r *DirectoryRepository) LoyaltyBanksByBusiness(_ context.Context, businessID string) ([]model.LoyaltyBankEntry, error) {
	return r.filterBanks(func(e model.LoyaltyBankEntry) bool { return e.BusinessID == businessID }), nil
}

func (r *DirectoryRepository) filterBanks(keep func(model.LoyaltyBankEntry) bool) []model.LoyaltyBankEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.LoyaltyBankEntry
	for _, entry := range r.banks {
		if keep(entry) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoyaltyBankID < out[j].LoyaltyBankID })
	return out
}
