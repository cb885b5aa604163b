package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"accountsvc/internal/app/model/db"
	"accountsvc/internal/app/model/domain"
)

type otpRepository struct {
	db bun.IDB
}

func NewOTPRepository(idb bun.IDB) OTPRepository {
	return &otpRepository{db: idb}
}

func (r *otpRepository) Upsert(ctx context.Context, record *domain.OTPRecord) error {
	dbRecord := &db.OTPVerification{
		ID:        record.ID,
		UserID:    record.UserID,
		Code:      record.Code,
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
		Verified:  record.Verified,
	}

	_, err := r.db.NewInsert().
		Model(dbRecord).
		On("CONFLICT (user_id) DO UPDATE").
		Set("code = EXCLUDED.code").
		Set("created_at = EXCLUDED.created_at").
		Set("expires_at = EXCLUDED.expires_at").
		Set("verified = EXCLUDED.verified").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to upsert otp record: %w", err)
	}

	return nil
}

func (r *otpRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.OTPRecord, error) {
	dbRecord := &db.OTPVerification{}
	err := r.db.NewSelect().Model(dbRecord).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get otp record: %w", err)
	}

	return &domain.OTPRecord{
		ID:        dbRecord.ID,
		UserID:    dbRecord.UserID,
		Code:      dbRecord.Code,
		CreatedAt: dbRecord.CreatedAt,
		ExpiresAt: dbRecord.ExpiresAt,
		Verified:  dbRecord.Verified,
	}, nil
}

func (r *otpRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*db.OTPVerification)(nil)).
		Where("id = ?", id).
		Where("verified = ?", false).
		Exec(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to consume otp record: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read consume result: %w", err)
	}

	return rows > 0, nil
}

func (r *otpRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.NewDelete().
		Model((*db.OTPVerification)(nil)).
		Where("expires_at < ?", cutoff).
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to prune expired otp records: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read prune result: %w", err)
	}

	return int(rows), nil
}
