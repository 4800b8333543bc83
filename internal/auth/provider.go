package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session describes the signed-in back-office user
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DisplayName returns the local part of the email address
func (s *Session) DisplayName() string {
	name, _, _ := strings.Cut(s.Email, "@")
	return name
}

// Provider is the external authentication collaborator.
// GetSession returns an error wrapping models.ErrUnauthorized when the
// token does not identify an active session.
type Provider interface {
	GetSession(ctx context.Context, accessToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// tokenExpiry reads the exp claim without verifying the signature.
// Used only to bound cache lifetimes; verification is the provider's job.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
