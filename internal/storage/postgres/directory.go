package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

type directoryRepository struct {
	storage *Storage
}

func (r *directoryRepository) PutAccount(ctx context.Context, entry model.AccountEntry) error {
	const query = `INSERT INTO directory_accounts (account_id, first_name, last_name, email)
                   VALUES ($1, $2, $3, $4)
                   ON CONFLICT (account_id) DO UPDATE
                   SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, email = EXCLUDED.email`
	return r.put(ctx, query, entry.AccountID, entry.FirstName, entry.LastName, entry.Email)
}

func (r *directoryRepository) DeleteAccount(ctx context.Context, accountID string) error {
	return r.delete(ctx, `DELETE FROM directory_accounts WHERE account_id=$1`, accountID)
}

func (r *directoryRepository) AccountByID(ctx context.Context, accountID string) (*model.AccountEntry, error) {
	const query = `SELECT account_id, first_name, last_name, email FROM directory_accounts WHERE account_id=$1`
	return r.account(ctx, query, accountID)
}

func (r *directoryRepository) AccountByEmail(ctx context.Context, email string) (*model.AccountEntry, error) {
	const query = `SELECT account_id, first_name, last_name, email FROM directory_accounts WHERE email=$1`
	return r.account(ctx, query, email)
}

func (r *directoryRepository) PutBusiness(ctx context.Context, entry model.BusinessEntry) error {
	const query = `INSERT INTO directory_businesses (business_id, name) VALUES ($1, $2)
                   ON CONFLICT (business_id) DO UPDATE SET name = EXCLUDED.name`
	return r.put(ctx, query, entry.BusinessID, entry.Name)
}

func (r *directoryRepository) DeleteBusiness(ctx context.Context, businessID string) error {
	return r.delete(ctx, `DELETE FROM directory_businesses WHERE business_id=$1`, businessID)
}

func (r *directoryRepository) BusinessByID(ctx context.Context, businessID string) (*model.BusinessEntry, error) {
	return r.business(ctx, `SELECT business_id, name FROM directory_businesses WHERE business_id=$1`, businessID)
}

func (r *directoryRepository) BusinessByName(ctx context.Context, name string) (*model.BusinessEntry, error) {
	return r.business(ctx, `SELECT business_id, name FROM directory_businesses WHERE name=$1`, name)
}

func (r *directoryRepository) PutLoyaltyBank(ctx context.Context, entry model.LoyaltyBankEntry) error {
	const query = `INSERT INTO directory_loyalty_banks (loyalty_bank_id, account_id, business_id) VALUES ($1, $2, $3)
                   ON CONFLICT (loyalty_bank_id) DO UPDATE
                   SET account_id = EXCLUDED.account_id, business_id = EXCLUDED.business_id`
	return r.put(ctx, query, entry.LoyaltyBankID, entry.AccountID, entry.BusinessID)
}

func (r *directoryRepository) DeleteLoyaltyBank(ctx context.Context, loyaltyBankID string) error {
	return r.delete(ctx, `DELETE FROM directory_loyalty_banks WHERE loyalty_bank_id=$1`, loyaltyBankID)
}

func (r *directoryRepository) LoyaltyBankByID(ctx context.Context, loyaltyBankID string) (*model.LoyaltyBankEntry, error) {
	const query = `SELECT loyalty_bank_id, account_id, business_id FROM directory_loyalty_banks WHERE loyalty_bank_id=$1`
	var e model.LoyaltyBankEntry
	if err := r.scanOne(r.storage.pool.QueryRow(ctx, query, loyaltyBankID), &e.LoyaltyBankID, &e.AccountID, &e.BusinessID); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *directoryRepository) LoyaltyBankByOwners(ctx context.Context, accountID, businessID string) (*model.LoyaltyBankEntry, error) {
	const query = `SELECT loyalty_bank_id, account_id, business_id FROM directory_loyalty_banks
                   WHERE account_id=$1 AND business_id=$2`
	var e model.LoyaltyBankEntry
	if err := r.scanOne(r.storage.pool.QueryRow(ctx, query, accountID, businessID), &e.LoyaltyBankID, &e.AccountID, &e.BusinessID); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *directoryRepository) LoyaltyBanksByAccount(ctx context.Context, accountID string) ([]model.LoyaltyBankEntry, error) {
	const query = `SELECT loyalty_bank_id, account_id, business_id FROM directory_loyalty_banks
                   WHERE account_id=$1 ORDER BY loyalty_bank_id`
	return r.banks(ctx, query, accountID)
}

func (r *directoryRepository) LoyaltyBanksByBusiness(ctx context.Context, businessID string) ([]model.LoyaltyBankEntry, error) {
	const query = `SELECT loyalty_bank_id, account_id, business_id FROM directory_loyalty_banks
                   WHERE business_id=$1 ORDER BY loyalty_bank_id`
	return r.banks(ctx, query, businessID)
}

func (r *directoryRepository) put(ctx context.Context, query string, args ...any) error {
	if _, err := r.storage.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *directoryRepository) delete(ctx context.Context, query, id string) error {
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *directoryRepository) scanOne(row pgx.Row, dest ...any) error {
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainErrors.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *directoryRepository) account(ctx context.Context, query, arg string) (*model.AccountEntry, error) {
	var e model.AccountEntry
	if err := r.scanOne(r.storage.pool.QueryRow(ctx, query, arg), &e.AccountID, &e.FirstName, &e.LastName, &e.Email); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *directoryRepository) business(ctx context.Context, query, arg string) (*model.BusinessEntry, error) {
	var e model.BusinessEntry
	if err := r.scanOne(r.storage.pool.QueryRow(ctx, query, arg), &e.BusinessID, &e.Name); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *directoryRepository) banks(ctx context.Context, query, arg string) ([]model.LoyaltyBankEntry, error) {
	rows, err := r.storage.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.LoyaltyBankEntry
	for rows.Next() {
		var e model.LoyaltyBankEntry
		if err := rows.Scan(&e.LoyaltyBankID, &e.AccountID, &e.BusinessID); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
