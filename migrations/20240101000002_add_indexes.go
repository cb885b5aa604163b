package main

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(addIndexesUp, addIndexesDown)
}

// Migration: 20240101000002_add_indexes
func addIndexesUp(ctx context.Context, db *bun.DB) error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_users_is_active ON users(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_otp_verifications_expires_at ON otp_verifications(expires_at)`,
	}

	for _, query := range queries {
		_, err := db.ExecContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func addIndexesDown(ctx context.Context, db *bun.DB) error {
	queries := []string{
		`DROP INDEX IF EXISTS idx_users_is_active`,
		`DROP INDEX IF EXISTS idx_users_created_at`,
		`DROP INDEX IF EXISTS idx_otp_verifications_expires_at`,
	}

	for _, query := range queries {
		_, err := db.ExecContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to drop index: %w", err)
		}
	}

	return nil
}
