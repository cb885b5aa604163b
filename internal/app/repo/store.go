package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"accountsvc/internal/app/model/domain"
)

type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrDuplicateEmail when the
	// normalized email is already taken (backed by a uniqueness constraint,
	// not a pre-check).
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
	UpdateNames(ctx context.Context, userID uuid.UUID, firstName, lastName string) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type ProfileRepository interface {
	// Upsert creates the profile row or refreshes it, keyed by user.
	Upsert(ctx context.Context, profile *domain.Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
}

type OTPRepository interface {
	// Upsert replaces any prior record for the user so at most one live code
	// exists per account.
	Upsert(ctx context.Context, record *domain.OTPRecord) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.OTPRecord, error)
	// Consume removes the record if it has not been consumed yet. The
	// conditional delete is what makes concurrent validation single-winner.
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	// DeleteExpiredBefore prunes dead records; validity never depends on it.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Store groups the repositories and scopes them to one transactional unit.
type Store interface {
	Users() UserRepository
	Profiles() ProfileRepository
	OTPs() OTPRepository

	// RunInTx executes fn against a transaction-bound Store. Writes made
	// through tx are atomic: either the whole flow commits or none of it does.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
