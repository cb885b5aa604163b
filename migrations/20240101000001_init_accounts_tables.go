package main

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(initAccountsTablesUp, initAccountsTablesDown)
}

// Migration: 20240101000001_init_accounts_tables
func initAccountsTablesUp(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone_number TEXT,
			role TEXT,
			password_hash TEXT,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			last_login_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	// Case-insensitive uniqueness: the constraint, not a pre-check, decides
	// concurrent signups with the same address.
	_, err = db.ExecContext(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email))
	`)
	if err != nil {
		return fmt.Errorf("failed to create unique email index: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			phone_number TEXT,
			role TEXT,
			photo TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}

	// One live code per user; the unique constraint backs the upsert.
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS otp_verifications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			code TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL,
			verified BOOLEAN NOT NULL DEFAULT FALSE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create otp_verifications table: %w", err)
	}

	// Create updated_at trigger function
	_, err = db.ExecContext(ctx, `
		CREATE OR REPLACE FUNCTION update_updated_at_column()
		RETURNS TRIGGER AS $$
		BEGIN
			NEW.updated_at = CURRENT_TIMESTAMP;
			RETURN NEW;
		END;
		$$ language 'plpgsql'
	`)
	if err != nil {
		return fmt.Errorf("failed to create updated_at trigger function: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TRIGGER update_users_updated_at
		BEFORE UPDATE ON users
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()
	`)
	if err != nil {
		return fmt.Errorf("failed to create users updated_at trigger: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TRIGGER update_profiles_updated_at
		BEFORE UPDATE ON profiles
		FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()
	`)
	if err != nil {
		return fmt.Errorf("failed to create profiles updated_at trigger: %w", err)
	}

	return nil
}

func initAccountsTablesDown(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, `DROP TRIGGER IF EXISTS update_profiles_updated_at ON profiles`)
	if err != nil {
		return fmt.Errorf("failed to drop profiles updated_at trigger: %w", err)
	}

	_, err = db.ExecContext(ctx, `DROP TRIGGER IF EXISTS update_users_updated_at ON users`)
	if err != nil {
		return fmt.Errorf("failed to drop users updated_at trigger: %w", err)
	}

	_, err = db.ExecContext(ctx, `DROP FUNCTION IF EXISTS update_updated_at_column()`)
	if err != nil {
		return fmt.Errorf("failed to drop updated_at trigger function: %w", err)
	}

	_, err = db.ExecContext(ctx, `DROP TABLE IF EXISTS otp_verifications`)
	if err != nil {
		return fmt.Errorf("failed to drop otp_verifications table: %w", err)
	}

	_, err = db.ExecContext(ctx, `DROP TABLE IF EXISTS profiles`)
	if err != nil {
		return fmt.Errorf("failed to drop profiles table: %w", err)
	}

	_, err = db.ExecContext(ctx, `DROP TABLE IF EXISTS users`)
	if err != nil {
		return fmt.Errorf("failed to drop users table: %w", err)
	}

	return nil
}
