package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"accountsvc/internal/app/model/domain"
)

// MemoryStore is an in-memory Store used by tests. It mirrors the constraints
// the Postgres schema enforces: case-insensitive unique emails, one OTP row
// per user, and a conditional single-winner consume.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	profiles map[uuid.UUID]*domain.Profile
	otps     map[uuid.UUID]*domain.OTPRecord // keyed by user ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]*domain.User),
		profiles: make(map[uuid.UUID]*domain.Profile),
		otps:     make(map[uuid.UUID]*domain.OTPRecord),
	}
}

func (s *MemoryStore) Users() UserRepository       { return (*memoryUsers)(s) }
func (s *MemoryStore) Profiles() ProfileRepository { return (*memoryProfiles)(s) }
func (s *MemoryStore) OTPs() OTPRepository         { return (*memoryOTPs)(s) }

// RunInTx runs fn against the same store. Rollback is not emulated; each
// repository method is individually atomic, which is what the concurrency
// tests exercise.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, s)
}

type memoryUsers MemoryStore

func (m *memoryUsers) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrDuplicateEmail
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	m.users[user.ID] = &cp

	return nil
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[userID]; ok {
		u.IsActive = active
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (m *memoryUsers) UpdateNames(ctx context.Context, userID uuid.UUID, firstName, lastName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[userID]; ok {
		u.FirstName = firstName
		u.LastName = lastName
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (m *memoryUsers) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[userID]; ok {
		now := time.Now()
		u.LastLoginAt = &now
		u.UpdatedAt = now
	}
	return nil
}

type memoryProfiles MemoryStore

func (m *memoryProfiles) Upsert(ctx context.Context, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if existing, ok := m.profiles[profile.UserID]; ok {
		existing.PhoneNumber = profile.PhoneNumber
		existing.Role = profile.Role
		existing.UpdatedAt = now
		profile.CreatedAt = existing.CreatedAt
		profile.UpdatedAt = now
		return nil
	}

	profile.CreatedAt = now
	profile.UpdatedAt = now
	cp := *profile
	m.profiles[profile.UserID] = &cp

	return nil
}

func (m *memoryProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memoryProfiles) Update(ctx context.Context, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.profiles[profile.UserID]; ok {
		existing.PhoneNumber = profile.PhoneNumber
		existing.Role = profile.Role
		existing.Photo = profile.Photo
		existing.UpdatedAt = time.Now()
		profile.UpdatedAt = existing.UpdatedAt
	}
	return nil
}

type memoryOTPs MemoryStore

func (m *memoryOTPs) Upsert(ctx context.Context, record *domain.OTPRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *record
	m.otps[record.UserID] = &cp

	return nil
}

func (m *memoryOTPs) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.otps[userID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *memoryOTPs) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, rec := range m.otps {
		if rec.ID == id && !rec.Verified {
			delete(m.otps, userID)
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryOTPs) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for userID, rec := range m.otps {
		if rec.ExpiresAt.Before(cutoff) {
			delete(m.otps, userID)
			removed++
		}
	}
	return removed, nil
}
