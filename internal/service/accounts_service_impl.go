package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"accountsvc/internal/app/model/domain"
	"accountsvc/internal/app/repo"
	"accountsvc/internal/otp"
	"accountsvc/internal/token"
	"accountsvc/internal/utils"
)

// accountServiceImpl implements the AccountService interface
type accountServiceImpl struct {
	store  repo.Store
	otp    *otp.Manager
	tokens *token.Issuer
	email  Sender
	logger *logrus.Logger
}

// NewAccountService creates a new instance of AccountService
func NewAccountService(
	store repo.Store,
	otpManager *otp.Manager,
	tokenIssuer *token.Issuer,
	emailSender Sender,
	logger *logrus.Logger,
) AccountService {
	return &accountServiceImpl{
		store:  store,
		otp:    otpManager,
		tokens: tokenIssuer,
		email:  emailSender,
		logger: logger,
	}
}

func (s *accountServiceImpl) Signup(ctx context.Context, req *SignupRequest) error {
	if err := validateSignup(req); err != nil {
		return err
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        utils.NormalizeEmail(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Role:         req.Role,
		PasswordHash: &hashed,
		IsActive:     false,
	}

	s.logger.WithFields(logrus.Fields{
		"email": user.Email,
	}).Info("Starting signup process")

	// User, profile and OTP land in one transactional unit. A duplicate
	// email surfaces as ErrDuplicateEmail from the uniqueness constraint,
	// which also settles concurrent signups for the same address.
	var record *domain.OTPRecord
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx repo.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}

		profile := &domain.Profile{
			UserID:      user.ID,
			PhoneNumber: req.PhoneNumber,
			Role:        req.Role,
		}
		if err := tx.Profiles().Upsert(ctx, profile); err != nil {
			return err
		}

		rec, err := s.otp.Issue(ctx, tx.OTPs(), user.ID)
		if err != nil {
			return err
		}
		record = rec

		return nil
	})
	if err != nil {
		return err
	}

	// Email delivery is best-effort and must not undo the committed signup.
	if err := s.email.SendOTPEmail(ctx, user.Email, record.Code, s.otp.TTL()); err != nil {
		s.logger.WithFields(logrus.Fields{
			"email": user.Email,
			"error": err.Error(),
		}).Warn("Failed to send OTP email")
	}

	s.logger.WithFields(logrus.Fields{
		"email":   user.Email,
		"user_id": user.ID,
	}).Info("Signup completed, OTP issued")

	return nil
}

func (s *accountServiceImpl) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*domain.TokenPair, error) {
	s.logger.WithFields(logrus.Fields{
		"email": req.Email,
	}).Info("Verifying OTP")

	user, err := s.store.Users().GetByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	// Consume and activate atomically so a crash cannot leave an activated
	// user with a live code, or a consumed code without activation.
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx repo.Store) error {
		if err := s.otp.Validate(ctx, tx.OTPs(), user.ID, req.OTP); err != nil {
			return err
		}
		return tx.Users().SetActive(ctx, user.ID, true)
	})
	if err != nil {
		return nil, err
	}

	user.IsActive = true

	tokens, err := s.tokens.Mint(user)
	if err != nil {
		return nil, fmt.Errorf("failed to mint tokens: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email":   user.Email,
		"user_id": user.ID,
	}).Info("User activated")

	return tokens, nil
}

func (s *accountServiceImpl) Login(ctx context.Context, req *LoginRequest) (*domain.TokenPair, error) {
	s.logger.WithFields(logrus.Fields{
		"email": req.Email,
	}).Info("Starting login process")

	user, err := s.store.Users().GetByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}

	// Unknown user and wrong password collapse into one error so callers
	// cannot enumerate accounts.
	if user == nil || !user.HasUsablePassword() || !utils.CheckPasswordHash(req.Password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	tokens, err := s.tokens.Mint(user)
	if err != nil {
		return nil, fmt.Errorf("failed to mint tokens: %w", err)
	}

	if err := s.store.Users().UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("Failed to update last login")
	}

	s.logger.WithFields(logrus.Fields{
		"email":   user.Email,
		"user_id": user.ID,
	}).Info("Login completed successfully")

	return tokens, nil
}

func (s *accountServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	pair, claims, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": claims.UserID,
	}).Info("Token refreshed")

	return pair, nil
}

func (s *accountServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.ProfileView, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	profile, err := s.getOrCreateProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	return profileView(user, profile), nil
}

func (s *accountServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*domain.ProfileView, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	var profile *domain.Profile
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx repo.Store) error {
		p, err := tx.Profiles().GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if p == nil {
			p = &domain.Profile{
				UserID:      userID,
				PhoneNumber: user.PhoneNumber,
				Role:        user.Role,
			}
			if err := tx.Profiles().Upsert(ctx, p); err != nil {
				return err
			}
		}

		if req.PhoneNumber != nil {
			p.PhoneNumber = *req.PhoneNumber
		}
		if req.Role != nil {
			p.Role = *req.Role
		}
		if req.Photo != nil {
			p.Photo = *req.Photo
		}
		if err := tx.Profiles().Update(ctx, p); err != nil {
			return err
		}

		// Name fields pass through to the User row. Email stays immutable.
		if req.FirstName != nil || req.LastName != nil {
			first, last := user.FirstName, user.LastName
			if req.FirstName != nil {
				first = *req.FirstName
			}
			if req.LastName != nil {
				last = *req.LastName
			}
			if err := tx.Users().UpdateNames(ctx, userID, first, last); err != nil {
				return err
			}
			user.FirstName = first
			user.LastName = last
		}

		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
	}).Info("Profile updated")

	return profileView(user, profile), nil
}

func (s *accountServiceImpl) getOrCreateProfile(ctx context.Context, user *domain.User) (*domain.Profile, error) {
	var profile *domain.Profile
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repo.Store) error {
		p, err := tx.Profiles().GetByUserID(ctx, user.ID)
		if err != nil {
			return err
		}
		if p == nil {
			p = &domain.Profile{
				UserID:      user.ID,
				PhoneNumber: user.PhoneNumber,
				Role:        user.Role,
			}
			if err := tx.Profiles().Upsert(ctx, p); err != nil {
				return err
			}
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func profileView(user *domain.User, profile *domain.Profile) *domain.ProfileView {
	return &domain.ProfileView{
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: profile.PhoneNumber,
		Role:        profile.Role,
		Photo:       profile.Photo,
	}
}
