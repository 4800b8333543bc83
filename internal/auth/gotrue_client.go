package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// GoTrueConfig holds the hosted auth service configuration
type GoTrueConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// GoTrueClient validates sessions against a GoTrue-compatible auth API
type GoTrueClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type goTrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NewGoTrueClient creates a new auth API client
func NewGoTrueClient(cfg GoTrueConfig) *GoTrueClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoTrueClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *GoTrueClient) newRequest(ctx context.Context, method, path, accessToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// GetSession resolves the access token to the user it belongs to
func (c *GoTrueClient) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, models.ErrUnauthorizedWithMsg("access token is missing")
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.ErrUnavailableWithMsg("failed to reach auth service", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, models.ErrUnauthorizedWithMsg("token is invalid or expired")
	case resp.StatusCode != http.StatusOK:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, models.ErrUnavailableWithMsg("auth service error",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	var user goTrueUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode auth user: %w", err)
	}
	if user.ID == "" {
		return nil, models.ErrUnauthorizedWithMsg("token does not identify a user")
	}

	return &Session{
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: tokenExpiry(accessToken),
	}, nil
}

// SignOut revokes the session on the auth service
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", accessToken)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	defer resp.Body.Close()

	// an already expired token is as good as signed out
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusUnauthorized {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth service returned status %d on sign out: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}
