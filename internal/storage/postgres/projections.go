package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
)

type redemptionRepository struct {
	storage *Storage
}

type expirationRepository struct {
	storage *Storage
}

// --- RedemptionRepository implementation ---

func (r *redemptionRepository) Get(ctx context.Context, paymentID string) (*model.RedemptionRecord, error) {
	const query = `SELECT payment_id, loyalty_bank_id, authorized_points, captured_points FROM redemptions WHERE payment_id=$1`
	var rec model.RedemptionRecord
	err := r.storage.pool.QueryRow(ctx, query, paymentID).Scan(&rec.PaymentID, &rec.LoyaltyBankID, &rec.AuthorizedPoints, &rec.CapturedPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *redemptionRepository) Save(ctx context.Context, record model.RedemptionRecord) error {
	const query = `INSERT INTO redemptions (payment_id, loyalty_bank_id, authorized_points, captured_points)
                   VALUES ($1, $2, $3, $4)
                   ON CONFLICT (payment_id) DO UPDATE
                   SET authorized_points = EXCLUDED.authorized_points,
                       captured_points = EXCLUDED.captured_points`
	_, err := r.storage.pool.Exec(ctx, query, record.PaymentID, record.LoyaltyBankID, record.AuthorizedPoints, record.CapturedPoints)
	return err
}

func (r *redemptionRepository) Delete(ctx context.Context, paymentID string) error {
	_, err := r.storage.pool.Exec(ctx, `DELETE FROM redemptions WHERE payment_id=$1`, paymentID)
	return err
}

func (r *redemptionRepository) DeleteByLoyaltyBank(ctx context.Context, loyaltyBankID string) error {
	_, err := r.storage.pool.Exec(ctx, `DELETE FROM redemptions WHERE loyalty_bank_id=$1`, loyaltyBankID)
	return err
}

// --- ExpirationRepository implementation ---

func (r *expirationRepository) Load(ctx context.Context, loyaltyBankID string) ([]model.PointBatch, error) {
	const query = `SELECT transaction_id, loyalty_bank_id, points, created_at
                   FROM point_batches WHERE loyalty_bank_id=$1 ORDER BY position`
	return r.list(ctx, query, loyaltyBankID)
}

func (r *expirationRepository) Replace(ctx context.Context, loyaltyBankID string, batches []model.PointBatch) error {
	const insertQuery = `INSERT INTO point_batches (loyalty_bank_id, position, transaction_id, points, created_at)
                         VALUES ($1, $2, $3, $4, $5)`
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM point_batches WHERE loyalty_bank_id=$1`, loyaltyBankID); err != nil {
			return err
		}
		for i, b := range batches {
			if _, err := tx.Exec(ctx, insertQuery, loyaltyBankID, i, b.TransactionID, b.Points, b.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *expirationRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.PointBatch, error) {
	const query = `SELECT transaction_id, loyalty_bank_id, points, created_at
                   FROM point_batches WHERE created_at < $1
                   ORDER BY created_at, transaction_id
                   LIMIT $2`
	return r.list(ctx, query, cutoff, limit)
}

func (r *expirationRepository) list(ctx context.Context, query string, args ...any) ([]model.PointBatch, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PointBatch
	for rows.Next() {
		var b model.PointBatch
		if err := rows.Scan(&b.TransactionID, &b.LoyaltyBankID, &b.Points, &b.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
