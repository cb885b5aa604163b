package repo

import (
	"context"

	"github.com/uptrace/bun"
)

// BunStore is the Postgres-backed Store. It hands out repositories bound to
// either the root connection or, inside RunInTx, a single transaction.
type BunStore struct {
	db  *bun.DB
	idb bun.IDB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db, idb: db}
}

func (s *BunStore) Users() UserRepository {
	return NewUserRepository(s.idb)
}

func (s *BunStore) Profiles() ProfileRepository {
	return NewProfileRepository(s.idb)
}

func (s *BunStore) OTPs() OTPRepository {
	return NewOTPRepository(s.idb)
}

func (s *BunStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &BunStore{db: s.db, idb: tx})
	})
}
