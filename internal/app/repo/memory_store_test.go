package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"accountsvc/internal/app/model/domain"
)

func TestMemoryUsersDuplicateEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	hash := "x"
	require.NoError(t, store.Users().Create(ctx, &domain.User{
		ID: uuid.New(), Email: "a@b.com", PasswordHash: &hash,
	}))

	err := store.Users().Create(ctx, &domain.User{
		ID: uuid.New(), Email: "A@B.COM", PasswordHash: &hash,
	})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestMemoryOTPConsumeOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := &domain.OTPRecord{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Code:      "123456",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, store.OTPs().Upsert(ctx, record))

	ok, err := store.OTPs().Consume(ctx, record.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.OTPs().Consume(ctx, record.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryOTPDeleteExpiredBefore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	expired := &domain.OTPRecord{
		ID: uuid.New(), UserID: uuid.New(), Code: "111111",
		CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-30 * time.Minute),
	}
	live := &domain.OTPRecord{
		ID: uuid.New(), UserID: uuid.New(), Code: "222222",
		CreatedAt: now, ExpiresAt: now.Add(5 * time.Minute),
	}
	require.NoError(t, store.OTPs().Upsert(ctx, expired))
	require.NoError(t, store.OTPs().Upsert(ctx, live))

	removed, err := store.OTPs().DeleteExpiredBefore(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	rec, err := store.OTPs().GetByUserID(ctx, live.UserID)
	require.NoError(t, err)
	require.NotNil(t, rec)

	rec, err = store.OTPs().GetByUserID(ctx, expired.UserID)
	require.NoError(t, err)
	require.Nil(t, rec)
}
