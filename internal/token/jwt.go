package token

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"accountsvc/internal/app/model/domain"
)

const issuer = "accountsvc"

type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`
	Role   string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints and refreshes signed access/refresh token pairs. Tokens are
// stateless: nothing is persisted, validity rests on signature and expiry.
type Issuer struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewIssuer(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, accessTokenTTL, refreshTokenTTL time.Duration) *Issuer {
	return &Issuer{
		privateKey:      privateKey,
		publicKey:       publicKey,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// Mint produces an access/refresh pair asserting the user's identity.
func (i *Issuer) Mint(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := i.sign(user, i.accessTokenTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := i.sign(user, i.refreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(i.accessTokenTTL.Seconds()),
	}, nil
}

// Refresh validates a refresh token and mints a new pair for its subject,
// rotating the refresh token as well.
func (i *Issuer) Refresh(refreshToken string) (*domain.TokenPair, *Claims, error) {
	claims, err := i.parse(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}

	pair, err := i.Mint(user)
	if err != nil {
		return nil, nil, err
	}

	return pair, claims, nil
}

// ValidateAccessToken verifies signature and expiry and returns the claims.
func (i *Issuer) ValidateAccessToken(tokenString string) (*Claims, error) {
	return i.parse(tokenString)
}

func (i *Issuer) sign(user *domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(i.privateKey)
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, domain.ErrInvalidToken
		}
		return i.publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
