package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sabarim/b3quotes/internal/apperr"
)

// AuthClient is a client for interacting with the auth_service
type AuthClient struct {
	authServiceURL string
	apiKey         string
	httpClient     *http.Client
}

// NewAuthClient creates a new auth client
func NewAuthClient(authServiceURL string, apiKey string) *AuthClient {
	return &AuthClient{
		authServiceURL: strings.TrimSuffix(authServiceURL, "/"),
		apiKey:         apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetBrokerCredentials fetches broker credentials from the auth_service
func (ac *AuthClient) GetBrokerCredentials(ctx context.Context, broker string) (*AuthCredentials, error) {
	// service=true marks a service-to-service call
	url := fmt.Sprintf("%s/auth/%s/credentials?service=true", ac.authServiceURL, broker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", ac.apiKey)

	resp, err := ac.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Remote("auth_service", "credentials", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperr.Remote("auth_service", "credentials",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var credentials AuthCredentials
	if err := json.NewDecoder(resp.Body).Decode(&credentials); err != nil {
		return nil, fmt.Errorf("failed to parse auth service response: %w", err)
	}

	if credentials.ApiKey == "" {
		return nil, fmt.Errorf("received credentials without API key from auth service")
	}
	if credentials.SessionToken == "" {
		return nil, fmt.Errorf("received credentials without session token from auth service")
	}
	if !credentials.IsActive {
		return nil, fmt.Errorf("received inactive credentials from auth service")
	}

	return &credentials, nil
}
