package repository

import (
	"context"
	"time"

	"github.com/polkiloo/pointsledger/internal/domain/model"
)

// RedemptionRepository stores redemption records keyed by payment id.
type RedemptionRepository interface {
	Get(ctx context.Context, paymentID string) (*model.RedemptionRecord, error)
	Save(ctx context.Context, record model.RedemptionRecord) error
	Delete(ctx context.Context, paymentID string) error
	DeleteByLoyaltyBank(ctx context.Context, loyaltyBankID string) error
}

// ExpirationRepository stores the batch queue of each loyalty bank, oldest first.
type ExpirationRepository interface {
	Load(ctx context.Context, loyaltyBankID string) ([]model.PointBatch, error)
	// Replace swaps the whole queue of loyaltyBankID for batches.
	Replace(ctx context.Context, loyaltyBankID string, batches []model.PointBatch) error
	// ListCreatedBefore returns at most limit batches created before cutoff, oldest first.
	ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.PointBatch, error)
}

// DirectoryRepository is the read model used for existence and uniqueness lookups.
type DirectoryRepository interface {
	PutAccount(ctx context.Context, entry model.AccountEntry) error
	DeleteAccount(ctx context.Context, accountID string) error
	AccountByID(ctx context.Context, accountID string) (*model.AccountEntry, error)
	AccountByEmail(ctx context.Context, email string) (*model.AccountEntry, error)

	PutBusiness(ctx context.Context, entry model.BusinessEntry) error
	DeleteBusiness(ctx context.Context, businessID string) error
	BusinessByID(ctx context.Context, businessID string) (*model.BusinessEntry, error)
	BusinessByName(ctx context.Context, name string) (*model.BusinessEntry, error)

	PutLoyaltyBank(ctx context.Context, entry model.LoyaltyBankEntry) error
	DeleteLoyaltyBank(ctx context.Context, loyaltyBankID string) error
	LoyaltyBankByID(ctx context.Context, loyaltyBankID string) (*model.LoyaltyBankEntry, error)
	LoyaltyBankByOwners(ctx context.Context, accountID, businessID string) (*model.LoyaltyBankEntry, error)
	LoyaltyBanksByAccount(ctx context.Context, accountID string) ([]model.LoyaltyBankEntry, error)
	LoyaltyBanksByBusiness(ctx context.Context, businessID string) ([]model.LoyaltyBankEntry, error)
}
