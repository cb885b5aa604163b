package api

// Request Types

// SignupRequest represents the signup request payload
type SignupRequest struct {
	FirstName       string `json:"first_name" validate:"required" example:"John"`
	LastName        string `json:"last_name" validate:"required" example:"Doe"`
	Email           string `json:"email" validate:"required,email" example:"user@example.com"`
	PhoneNumber     string `json:"phone_number,omitempty" example:"+1234567890"`
	Password        string `json:"password" validate:"required,min=6" example:"securePassword123"`
	ConfirmPassword string `json:"confirm_password" validate:"required,min=6" example:"securePassword123"`
	Role            string `json:"role,omitempty" example:"manager"`
}

// VerifyOTPRequest represents the OTP verification request payload
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
	OTP   string `json:"otp" validate:"required" example:"123456"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"securePassword123"`
}

// RefreshRequest represents the token refresh request payload
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// UpdateProfileRequest represents a partial profile update. Absent fields are
// left untouched; email is read-only and not accepted here.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Role        *string `json:"role,omitempty"`
	Photo       *string `json:"photo,omitempty"`
}

// Response Types

// MessageResponse carries an acknowledgement with no tokens.
type MessageResponse struct {
	Message string `json:"message" example:"User created. OTP sent to email."`
}

// TokenResponse carries a message plus a freshly minted token pair.
type TokenResponse struct {
	Message string `json:"message" example:"Login successfully"`
	Access  string `json:"access" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Refresh string `json:"refresh" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// ProfileResponse is the profile payload; email and names come from the user
// record, the remainder from the profile row.
type ProfileResponse struct {
	Email       string `json:"email" example:"user@example.com"`
	FirstName   string `json:"first_name" example:"John"`
	LastName    string `json:"last_name" example:"Doe"`
	PhoneNumber string `json:"phone_number" example:"+1234567890"`
	Role        string `json:"role" example:"manager"`
	Photo       string `json:"photo" example:"profiles/john.jpg"`
}

// PublicKeyResponse represents the public key response
type PublicKeyResponse struct {
	PublicKey string `json:"public_key" example:"-----BEGIN PUBLIC KEY-----\nMIIBIjANBgkqhkiG9w0BAQEF..."`
	KeyType   string `json:"key_type" example:"RSA"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message" example:"Invalid input data"`
	Success bool   `json:"success" example:"false"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"accountsvc"`
	Version string `json:"version" example:"1.0.0"`
}
