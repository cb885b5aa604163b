package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"accountsvc/internal/app/model/api"
	"accountsvc/internal/app/model/domain"
	"accountsvc/internal/service"
	"accountsvc/internal/token"
)

type contextKey string

const (
	ctxKeyUserID contextKey = "user_id"
	ctxKeyEmail  contextKey = "user_email"
)

const (
	msgSignupAccepted = "User created. OTP sent to email."
	msgOTPVerified    = "OTP verified successfully. User activated."
	msgLoginOK        = "Login successfully"
	msgTokenRefreshed = "Token refreshed successfully"
)

// AccountsHandler handles authentication and profile HTTP requests
type AccountsHandler struct {
	accounts     service.AccountService
	tokens       *token.Issuer
	validator    *validator.Validate
	logger       *logrus.Logger
	publicKeyPEM string
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(accounts service.AccountService, tokens *token.Issuer, publicKeyPEM string, logger *logrus.Logger) *AccountsHandler {
	return &AccountsHandler{
		accounts:     accounts,
		tokens:       tokens,
		validator:    validator.New(),
		logger:       logger,
		publicKeyPEM: publicKeyPEM,
	}
}

// RegisterRoutes registers account routes
func (h *AccountsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		// Public routes
		r.Post("/signup", h.Signup)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/login", h.Login)
		r.Post("/token/refresh", h.Refresh)
		r.Get("/public-key", h.GetPublicKey)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/profile", h.GetProfile)
			r.Patch("/profile", h.UpdateProfile)
			r.Put("/profile", h.UpdateProfile)
		})
	})
}

// Signup registers a new inactive account and sends the verification OTP.
func (h *AccountsHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	serviceReq := &service.SignupRequest{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	}

	if err := h.accounts.Signup(r.Context(), serviceReq); err != nil {
		h.logger.WithFields(logrus.Fields{
			"email": req.Email,
			"error": err.Error(),
		}).Error("Signup failed")

		h.renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &api.MessageResponse{Message: msgSignupAccepted})
}

// VerifyOTP activates the account and returns the first token pair.
func (h *AccountsHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req api.VerifyOTPRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	tokens, err := h.accounts.VerifyOTP(r.Context(), &service.VerifyOTPRequest{
		Email: req.Email,
		OTP:   req.OTP,
	})
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"email": req.Email,
			"error": err.Error(),
		}).Error("OTP verification failed")

		h.renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &api.TokenResponse{
		Message: msgOTPVerified,
		Access:  tokens.AccessToken,
		Refresh: tokens.RefreshToken,
	})
}

// Login authenticates an active user with email and password.
func (h *AccountsHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	tokens, err := h.accounts.Login(r.Context(), &service.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"email": req.Email,
			"error": err.Error(),
		}).Error("Login failed")

		h.renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &api.TokenResponse{
		Message: msgLoginOK,
		Access:  tokens.AccessToken,
		Refresh: tokens.RefreshToken,
	})
}

// Refresh exchanges a valid refresh token for a new pair.
func (h *AccountsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	tokens, err := h.accounts.Refresh(r.Context(), req.Refresh)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Token refresh failed")

		h.renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &api.TokenResponse{
		Message: msgTokenRefreshed,
		Access:  tokens.AccessToken,
		Refresh: tokens.RefreshToken,
	})
}

// GetProfile returns the caller's profile, creating it on first access.
func (h *AccountsHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserID(r)
	if userID == uuid.Nil {
		h.renderError(w, r, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	view, err := h.accounts.GetProfile(r.Context(), userID)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Failed to get profile")

		h.renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, profileResponse(view))
}

// UpdateProfile merges the allowed fields into the caller's profile.
func (h *AccountsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserID(r)
	if userID == uuid.Nil {
		h.renderError(w, r, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var req api.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	view, err := h.accounts.UpdateProfile(r.Context(), userID, &service.UpdateProfileRequest{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		Photo:       req.Photo,
	})
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Failed to update profile")

		h.renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, profileResponse(view))
}

// GetPublicKey returns the RS256 public key for downstream verifiers.
func (h *AccountsHandler) GetPublicKey(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &api.PublicKeyResponse{
		PublicKey: h.publicKeyPEM,
		KeyType:   "RSA",
	})
}

// Helper methods

func (h *AccountsHandler) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return h.validator.Struct(v)
}

func (h *AccountsHandler) renderError(w http.ResponseWriter, r *http.Request, status int, errorType, message string) {
	render.Status(r, status)
	render.JSON(w, r, &api.ErrorResponse{
		Error:   errorType,
		Message: message,
		Success: false,
	})
}

// renderServiceError maps the business error taxonomy onto HTTP statuses.
func (h *AccountsHandler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderError(w, r, http.StatusBadRequest, "validation_error", verr.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		h.renderError(w, r, http.StatusConflict, "duplicate_email", "Email already registered.")
	case errors.Is(err, domain.ErrUserNotFound):
		h.renderError(w, r, http.StatusNotFound, "user_not_found", "User not found.")
	case errors.Is(err, domain.ErrOTPNotFound):
		h.renderError(w, r, http.StatusUnauthorized, "otp_not_found", "OTP not found.")
	case errors.Is(err, domain.ErrInvalidOTP):
		h.renderError(w, r, http.StatusUnauthorized, "invalid_otp", "Invalid OTP.")
	case errors.Is(err, domain.ErrExpiredOTP):
		h.renderError(w, r, http.StatusUnauthorized, "expired_otp", "OTP expired.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.renderError(w, r, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password.")
	case errors.Is(err, domain.ErrAccountInactive):
		h.renderError(w, r, http.StatusForbidden, "account_inactive", "Account is inactive. Complete signup or verify OTP.")
	case errors.Is(err, domain.ErrExpiredToken):
		h.renderError(w, r, http.StatusUnauthorized, "expired_token", "Refresh token expired.")
	case errors.Is(err, domain.ErrInvalidToken):
		h.renderError(w, r, http.StatusUnauthorized, "invalid_token", "Invalid refresh token.")
	default:
		h.renderError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func (h *AccountsHandler) getUserID(r *http.Request) uuid.UUID {
	userID, ok := r.Context().Value(ctxKeyUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// requireAuth resolves the caller's identity once at the boundary and threads
// it through the request context under typed keys.
func (h *AccountsHandler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.renderError(w, r, http.StatusUnauthorized, "unauthorized", "Missing authorization header")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			h.renderError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format")
			return
		}

		claims, err := h.tokens.ValidateAccessToken(tokenParts[1])
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Error("Invalid access token")

			h.renderError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxKeyEmail, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func profileResponse(view *domain.ProfileView) *api.ProfileResponse {
	return &api.ProfileResponse{
		Email:       view.Email,
		FirstName:   view.FirstName,
		LastName:    view.LastName,
		PhoneNumber: view.PhoneNumber,
		Role:        view.Role,
		Photo:       view.Photo,
	}
}
