package service

import (
	"accountsvc/internal/app/model/domain"
	"accountsvc/internal/utils"
)

const minPasswordLength = 6

// The signup input runs through an explicit pipeline of pure checks before
// any store mutation. Every check records its failures on the shared
// ValidationError so the caller sees all field problems at once.
type signupCheck func(req *SignupRequest, verr *domain.ValidationError)

var signupChecks = []signupCheck{
	checkRequiredFields,
	checkEmailFormat,
	checkPasswordStrength,
	checkPasswordMatch,
}

func validateSignup(req *SignupRequest) error {
	verr := &domain.ValidationError{}
	for _, check := range signupChecks {
		check(req, verr)
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

func checkRequiredFields(req *SignupRequest, verr *domain.ValidationError) {
	if req.FirstName == "" {
		verr.Add("first_name", "This field is required.")
	}
	if req.LastName == "" {
		verr.Add("last_name", "This field is required.")
	}
	if req.Email == "" {
		verr.Add("email", "This field is required.")
	}
	if req.Password == "" {
		verr.Add("password", "This field is required.")
	}
	if req.ConfirmPassword == "" {
		verr.Add("confirm_password", "This field is required.")
	}
}

func checkEmailFormat(req *SignupRequest, verr *domain.ValidationError) {
	if req.Email != "" && !utils.IsValidEmail(req.Email) {
		verr.Add("email", "Enter a valid email address.")
	}
}

func checkPasswordStrength(req *SignupRequest, verr *domain.ValidationError) {
	if req.Password != "" && len(req.Password) < minPasswordLength {
		verr.Add("password", "Password must be at least 6 characters.")
	}
}

func checkPasswordMatch(req *SignupRequest, verr *domain.ValidationError) {
	if req.Password != "" && req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		verr.Add("password", "Passwords do not match.")
	}
}
