package usecase

import (
	"errors"
	"fmt"
	"time"

	authdomain "push-relay/internal/auth/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthUsecase defines the interface for service token use cases
type AuthUsecase interface {
	// IssueToken signs a token for subject valid for ttl
	IssueToken(subject string, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*authdomain.Caller, error)
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	secret []byte
}

// NewAuthUsecase creates a new instance of authUsecase signing with HS256
func NewAuthUsecase(secret string) AuthUsecase {
	return &authUsecase{
		secret: []byte(secret),
	}
}

func (u *authUsecase) IssueToken(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.secret)
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.Caller, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return u.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &authdomain.Caller{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
