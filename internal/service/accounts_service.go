package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"accountsvc/internal/app/model/domain"
)

// Sender is the contract with the external email transport. Delivery is
// best-effort; the orchestrator never fails a flow on a send error.
type Sender interface {
	SendOTPEmail(ctx context.Context, to, code string, expiresIn time.Duration) error
}

// AccountService defines the authentication and profile business logic.
type AccountService interface {
	// Signup creates an inactive user with its profile, issues an OTP and
	// triggers the verification email.
	Signup(ctx context.Context, req *SignupRequest) error

	// VerifyOTP consumes the user's pending code, activates the account and
	// mints the first token pair.
	VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*domain.TokenPair, error)

	// Login authenticates an active user by email and password.
	Login(ctx context.Context, req *LoginRequest) (*domain.TokenPair, error)

	// Refresh validates a refresh token and mints a new pair.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)

	// GetProfile fetches the user's profile, creating it if missing.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.ProfileView, error)

	// UpdateProfile merges the allowed fields and returns the updated view.
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*domain.ProfileView, error)
}

// Service request DTOs
type SignupRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role,omitempty"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest fields are pointers so absent and empty are distinct.
// Email is immutable and deliberately has no field here.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Role        *string `json:"role,omitempty"`
	Photo       *string `json:"photo,omitempty"`
}
