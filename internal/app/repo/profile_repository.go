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

type profileRepository struct {
	db bun.IDB
}

func NewProfileRepository(idb bun.IDB) ProfileRepository {
	return &profileRepository{db: idb}
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	dbProfile := &db.Profile{
		UserID:      profile.UserID,
		PhoneNumber: profile.PhoneNumber,
		Role:        profile.Role,
		Photo:       profile.Photo,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(dbProfile).
		On("CONFLICT (user_id) DO UPDATE").
		Set("phone_number = EXCLUDED.phone_number").
		Set("role = EXCLUDED.role").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	profile.CreatedAt = dbProfile.CreatedAt
	profile.UpdatedAt = dbProfile.UpdatedAt

	return nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	dbProfile := &db.Profile{}
	err := r.db.NewSelect().Model(dbProfile).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &domain.Profile{
		UserID:      dbProfile.UserID,
		PhoneNumber: dbProfile.PhoneNumber,
		Role:        dbProfile.Role,
		Photo:       dbProfile.Photo,
		CreatedAt:   dbProfile.CreatedAt,
		UpdatedAt:   dbProfile.UpdatedAt,
	}, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*db.Profile)(nil)).
		Set("phone_number = ?, role = ?, photo = ?, updated_at = ?",
			profile.PhoneNumber, profile.Role, profile.Photo, now).
		Where("user_id = ?", profile.UserID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	profile.UpdatedAt = now

	return nil
}
