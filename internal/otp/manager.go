package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"accountsvc/internal/app/model/domain"
	"accountsvc/internal/app/repo"
	"accountsvc/internal/utils"
)

const (
	// DefaultLength is 6 digits; short enough to type, long enough that
	// guessing within the TTL is impractical.
	DefaultLength = 6
	DefaultTTL    = 5 * time.Minute
)

// Manager issues and validates per-user one-time codes. It holds no storage
// of its own: callers pass the OTPRepository so issue/validate can run inside
// whatever transaction the surrounding flow uses.
type Manager struct {
	length int
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(length int, ttl time.Duration) *Manager {
	if length <= 0 {
		length = DefaultLength
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{length: length, ttl: ttl, now: time.Now}
}

// Issue generates a fresh code and replaces any prior unconsumed record for
// the user. The expiry is assigned here, not by the persistence layer.
func (m *Manager) Issue(ctx context.Context, otps repo.OTPRepository, userID uuid.UUID) (*domain.OTPRecord, error) {
	code, err := utils.GenerateOTP(m.length)
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp code: %w", err)
	}

	now := m.now()
	record := &domain.OTPRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		Verified:  false,
	}

	if err := otps.Upsert(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks the submitted code against the user's current record and,
// when both the match and the expiry gate pass, consumes it. A consumed
// record can never validate again; concurrent submissions race on the
// conditional consume and exactly one wins.
func (m *Manager) Validate(ctx context.Context, otps repo.OTPRepository, userID uuid.UUID, submitted string) error {
	record, err := otps.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if record == nil {
		return domain.ErrOTPNotFound
	}

	if record.Code != submitted {
		return domain.ErrInvalidOTP
	}

	if !record.IsValid(m.now()) {
		return domain.ErrExpiredOTP
	}

	consumed, err := otps.Consume(ctx, record.ID)
	if err != nil {
		return err
	}
	if !consumed {
		// Lost the race: another request consumed the record first.
		return domain.ErrOTPNotFound
	}

	return nil
}

// TTL reports the configured code lifetime, used for email copy.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
