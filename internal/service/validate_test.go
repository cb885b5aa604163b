package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"accountsvc/internal/app/model/domain"
)

func TestValidateSignup(t *testing.T) {
	valid := func() *SignupRequest {
		return &SignupRequest{
			FirstName:       "A",
			LastName:        "B",
			Email:           "a@b.com",
			Password:        "secret1",
			ConfirmPassword: "secret1",
		}
	}

	t.Run("valid request passes", func(t *testing.T) {
		require.NoError(t, validateSignup(valid()))
	})

	t.Run("empty request reports every required field", func(t *testing.T) {
		err := validateSignup(&SignupRequest{})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		for _, field := range []string{"first_name", "last_name", "email", "password", "confirm_password"} {
			require.Contains(t, verr.Fields, field)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*SignupRequest)
		field   string
		message string
	}{
		{
			"invalid email format",
			func(r *SignupRequest) { r.Email = "nope" },
			"email", "Enter a valid email address.",
		},
		{
			"short password",
			func(r *SignupRequest) { r.Password = "abc"; r.ConfirmPassword = "abc" },
			"password", "Password must be at least 6 characters.",
		},
		{
			"mismatched passwords",
			func(r *SignupRequest) { r.ConfirmPassword = "secret2" },
			"password", "Passwords do not match.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)

			err := validateSignup(req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.message, verr.Fields[tt.field])
		})
	}

	t.Run("accumulates multiple field errors", func(t *testing.T) {
		req := valid()
		req.Email = "nope"
		req.Password = "abc"
		req.ConfirmPassword = "abc"

		err := validateSignup(req)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, "email")
		require.Contains(t, verr.Fields, "password")
	})
}
