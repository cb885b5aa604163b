package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"accountsvc/internal/app/model/domain"
	"accountsvc/internal/app/repo"
	"accountsvc/internal/otp"
	"accountsvc/internal/token"
)

type sentEmail struct {
	To   string
	Code string
}

// senderRecorder captures outgoing OTP emails so tests can read the code.
type senderRecorder struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (s *senderRecorder) SendOTPEmail(ctx context.Context, to, code string, expiresIn time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentEmail{To: to, Code: code})
	return nil
}

func (s *senderRecorder) lastCode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent, "no OTP email was sent")
	return s.sent[len(s.sent)-1].Code
}

func newTestService(t *testing.T) (AccountService, *repo.MemoryStore, *senderRecorder) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	store := repo.NewMemoryStore()
	sender := &senderRecorder{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := NewAccountService(
		store,
		otp.NewManager(6, 5*time.Minute),
		token.NewIssuer(key, &key.PublicKey, 15*time.Minute, 7*24*time.Hour),
		sender,
		logger,
	)

	return svc, store, sender
}

func signupRequest() *SignupRequest {
	return &SignupRequest{
		FirstName:       "A",
		LastName:        "B",
		Email:           "u@x.com",
		PhoneNumber:     "+1234567890",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            "manager",
	}
}

func TestSignupCreatesInactiveUserWithProfileAndOTP(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))

	user, err := store.Users().GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.False(t, user.IsActive)
	require.Equal(t, "u@x.com", user.Email)
	require.Equal(t, "A", user.FirstName)
	require.True(t, user.HasUsablePassword())

	profile, err := store.Profiles().GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, "+1234567890", profile.PhoneNumber)
	require.Equal(t, "manager", profile.Role)

	record, err := store.OTPs().GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Len(t, record.Code, 6)

	require.Equal(t, record.Code, sender.lastCode(t))
}

func TestSignupNormalizesEmail(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	req := signupRequest()
	req.Email = "MiXeD@X.CoM"
	require.NoError(t, svc.Signup(ctx, req))

	user, err := store.Users().GetByEmail(ctx, "mixed@x.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "mixed@x.com", user.Email)
}

func TestSignupDuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := signupRequest()
	req.Email = "A@x.com"
	require.NoError(t, svc.Signup(ctx, req))

	second := signupRequest()
	second.Email = "a@x.com"
	err := svc.Signup(ctx, second)
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestSignupEmailFailureDoesNotFailSignup(t *testing.T) {
	svc, store, sender := newTestService(t)
	sender.err = errors.New("smtp relay down")
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))

	user, err := store.Users().GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)
	require.NotNil(t, user)

	// The OTP still exists even though delivery failed.
	record, err := store.OTPs().GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestSignupValidationFailures(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*SignupRequest)
		field  string
	}{
		{"password mismatch", func(r *SignupRequest) { r.ConfirmPassword = "secret2" }, "password"},
		{"short password", func(r *SignupRequest) { r.Password = "abc"; r.ConfirmPassword = "abc" }, "password"},
		{"missing first name", func(r *SignupRequest) { r.FirstName = "" }, "first_name"},
		{"missing last name", func(r *SignupRequest) { r.LastName = "" }, "last_name"},
		{"missing email", func(r *SignupRequest) { r.Email = "" }, "email"},
		{"bad email", func(r *SignupRequest) { r.Email = "not-an-email" }, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := signupRequest()
			tt.mutate(req)

			err := svc.Signup(ctx, req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestLoginBeforeVerificationFailsInactive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))

	_, err := svc.Login(ctx, &LoginRequest{Email: "u@x.com", Password: "secret1"})
	require.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	_, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: sender.lastCode(t)})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Email: "u@x.com", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), &LoginRequest{Email: "ghost@x.com", Password: "secret1"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginSucceedsAfterVerification(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	_, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: sender.lastCode(t)})
	require.NoError(t, err)

	pair, err := svc.Login(ctx, &LoginRequest{Email: "U@X.COM", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	user, err := store.Users().GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
}

func TestVerifyOTPActivatesAndMintsTokens(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	code := sender.lastCode(t)

	pair, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: code})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	user, err := store.Users().GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)
	require.True(t, user.IsActive)

	// The record is consumed; the same code must never validate again.
	record, err := store.OTPs().GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, record)

	_, err = svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: code})
	require.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	code := sender.lastCode(t)

	wrong := []byte(code)
	if wrong[0] == '9' {
		wrong[0] = '0'
	} else {
		wrong[0]++
	}

	_, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: string(wrong)})
	require.ErrorIs(t, err, domain.ErrInvalidOTP)

	// The account stays inactive after a failed attempt.
	user, err := store.Users().GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)
	require.False(t, user.IsActive)
}

func TestVerifyOTPExpiredCode(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	code := sender.lastCode(t)

	user, err := store.Users().GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)

	// Backdate the record so the matching code is past its expiry.
	record, err := store.OTPs().GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	record.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.OTPs().Upsert(ctx, record))

	_, err = svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: code})
	require.ErrorIs(t, err, domain.ErrExpiredOTP)
}

func TestVerifyOTPUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.VerifyOTP(context.Background(), &VerifyOTPRequest{Email: "ghost@x.com", OTP: "123456"})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestConcurrentOTPDoubleSubmit(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	code := sender.lastCode(t)

	const attempts = 8
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: code})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		require.True(t,
			errors.Is(err, domain.ErrOTPNotFound) || errors.Is(err, domain.ErrInvalidOTP),
			"unexpected error: %v", err)
	}
	require.Equal(t, 1, successes, "exactly one submission may win")
}

func TestRefreshMintsNewPair(t *testing.T) {
	svc, _, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	pair, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: sender.lastCode(t)})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestGetProfileIsIdempotent(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	_, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: sender.lastCode(t)})
	require.NoError(t, err)

	user, err := store.Users().GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)

	first, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "u@x.com", first.Email)
	require.Equal(t, "A", first.FirstName)
	require.Equal(t, "+1234567890", first.PhoneNumber)

	second, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestGetProfileCreatesWhenMissing(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	// A user row without a profile, as legacy data might have it.
	hash := "x"
	user := &domain.User{
		ID:           uuid.New(),
		Email:        "legacy@x.com",
		FirstName:    "L",
		LastName:     "User",
		PhoneNumber:  "+1999",
		Role:         "viewer",
		PasswordHash: &hash,
		IsActive:     true,
	}
	require.NoError(t, store.Users().Create(ctx, user))

	view, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "+1999", view.PhoneNumber)
	require.Equal(t, "viewer", view.Role)

	profile, err := store.Profiles().GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetProfile(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateProfileMergesAllowedFields(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	_, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: sender.lastCode(t)})
	require.NoError(t, err)

	user, err := store.Users().GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)

	phone := "+4711"
	photo := "profiles/u.jpg"
	view, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{
		PhoneNumber: &phone,
		Photo:       &photo,
	})
	require.NoError(t, err)
	require.Equal(t, "+4711", view.PhoneNumber)
	require.Equal(t, "profiles/u.jpg", view.Photo)
	// Untouched fields keep their values; email stays immutable.
	require.Equal(t, "manager", view.Role)
	require.Equal(t, "u@x.com", view.Email)
	require.Equal(t, "A", view.FirstName)
}

func TestUpdateProfileNamePassThrough(t *testing.T) {
	svc, store, sender := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, signupRequest()))
	_, err := svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "u@x.com", OTP: sender.lastCode(t)})
	require.NoError(t, err)

	user, err := store.Users().GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)

	first := "Alice"
	view, err := svc.UpdateProfile(ctx, user.ID, &UpdateProfileRequest{FirstName: &first})
	require.NoError(t, err)
	require.Equal(t, "Alice", view.FirstName)
	require.Equal(t, "B", view.LastName)

	// The name lands on the user row.
	updated, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice", updated.FirstName)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	role := "admin"
	_, err := svc.UpdateProfile(context.Background(), uuid.New(), &UpdateProfileRequest{Role: &role})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
