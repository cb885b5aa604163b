package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Email        string     `bun:"email,notnull" json:"email"`
	FirstName    string     `bun:"first_name,notnull" json:"first_name"`
	LastName     string     `bun:"last_name,notnull" json:"last_name"`
	PhoneNumber  string     `bun:"phone_number" json:"phone_number,omitempty"`
	Role         string     `bun:"role" json:"role,omitempty"`
	PasswordHash *string    `bun:"password_hash" json:"-"`
	IsActive     bool       `bun:"is_active,notnull,default:false" json:"is_active"`
	LastLoginAt  *time.Time `bun:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	UserID      uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id"`
	PhoneNumber string    `bun:"phone_number" json:"phone_number,omitempty"`
	Role        string    `bun:"role" json:"role,omitempty"`
	Photo       string    `bun:"photo" json:"photo,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// OTPVerification keeps at most one live code per user (unique user_id), so a
// reissue replaces the previous record instead of stacking new ones.
type OTPVerification struct {
	bun.BaseModel `bun:"table:otp_verifications,alias:o"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `bun:"user_id,notnull,unique,type:uuid" json:"user_id"`
	Code      string    `bun:"code,notnull" json:"-"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expires_at"`
	Verified  bool      `bun:"verified,notnull,default:false" json:"verified"`
}
