package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// JWTVerifier validates access tokens locally with the project's HS256 secret
type JWTVerifier struct {
	signingKey []byte
	parser     *jwt.Parser
}

// accessTokenClaims are the claims issued by the auth service
type accessTokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTVerifier creates a verifier for tokens signed with secret
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret cannot be empty")
	}
	return &JWTVerifier{
		signingKey: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// GetSession verifies the token signature and expiry
func (v *JWTVerifier) GetSession(_ context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, models.ErrUnauthorizedWithMsg("access token is missing")
	}

	claims := &accessTokenClaims{}
	token, err := v.parser.ParseWithClaims(accessToken, claims, func(*jwt.Token) (interface{}, error) {
		return v.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrUnauthorizedWithMsg("token has expired")
		}
		return nil, models.ErrUnauthorizedWithMsg("invalid token format or signature")
	}
	if !token.Valid || claims.Subject == "" {
		return nil, models.ErrUnauthorizedWithMsg("token does not identify a user")
	}

	return &Session{
		UserID:    claims.Subject,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut is a no-op: locally verified tokens are dropped by clearing the cookie
func (v *JWTVerifier) SignOut(context.Context, string) error {
	return nil
}
