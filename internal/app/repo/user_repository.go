package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"accountsvc/internal/app/model/db"
	"accountsvc/internal/app/model/domain"
)

type userRepository struct {
	db bun.IDB
}

func NewUserRepository(idb bun.IDB) UserRepository {
	return &userRepository{db: idb}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	dbUser := &db.User{
		ID:           user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PhoneNumber:  user.PhoneNumber,
		Role:         user.Role,
		PasswordHash: user.PasswordHash,
		IsActive:     user.IsActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	_, err := r.db.NewInsert().Model(dbUser).Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt

	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	dbUser := &db.User{}
	err := r.db.NewSelect().Model(dbUser).Where("lower(email) = lower(?)", email).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return r.toDomainUser(dbUser), nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	dbUser := &db.User{}
	err := r.db.NewSelect().Model(dbUser).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return r.toDomainUser(dbUser), nil
}

func (r *userRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*db.User)(nil)).
		Set("is_active = ?, updated_at = ?", active, now).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set user active flag: %w", err)
	}

	return nil
}

func (r *userRepository) UpdateNames(ctx context.Context, userID uuid.UUID, firstName, lastName string) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*db.User)(nil)).
		Set("first_name = ?, last_name = ?, updated_at = ?", firstName, lastName, now).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update user names: %w", err)
	}

	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*db.User)(nil)).
		Set("last_login_at = ?, updated_at = ?", now, now).
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

func (r *userRepository) toDomainUser(dbUser *db.User) *domain.User {
	return &domain.User{
		ID:           dbUser.ID,
		Email:        dbUser.Email,
		FirstName:    dbUser.FirstName,
		LastName:     dbUser.LastName,
		PhoneNumber:  dbUser.PhoneNumber,
		Role:         dbUser.Role,
		PasswordHash: dbUser.PasswordHash,
		IsActive:     dbUser.IsActive,
		LastLoginAt:  dbUser.LastLoginAt,
		CreatedAt:    dbUser.CreatedAt,
		UpdatedAt:    dbUser.UpdatedAt,
	}
}
