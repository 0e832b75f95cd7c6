package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sabarim/b3quotes/internal/config"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// AuthManager handles authentication with the Kite API
type AuthManager struct {
	config     config.AuthConfig
	authClient *AuthClient
	log        *slog.Logger
}

// NewAuthManager creates a new authentication manager
func NewAuthManager(cfg config.AuthConfig, log *slog.Logger) *AuthManager {
	var authClient *AuthClient
	if cfg.AuthServiceURL != "" {
		authClient = NewAuthClient(cfg.AuthServiceURL, cfg.AuthServiceAPIKey)
	}
	return &AuthManager{
		config:     cfg,
		authClient: authClient,
		log:        log.With("component", "auth"),
	}
}

// Login resolves Kite credentials, preferring the auth service and falling
// back to the keys in config
func (am *AuthManager) Login(ctx context.Context) (KiteSession, error) {
	if am.authClient != nil && am.config.BrokerName != "" {
		credentials, err := am.authClient.GetBrokerCredentials(ctx, am.config.BrokerName)
		if err == nil {
			am.log.Info("using auth service credentials", "broker", am.config.BrokerName)
			return KiteSession{
				ApiKey:       credentials.ApiKey,
				SessionToken: credentials.SessionToken,
			}, nil
		}
		am.log.Warn("auth service failed, falling back to direct credentials", "error", err)
	}

	if am.config.ApiKey != "" && am.config.SessionToken != "" {
		return KiteSession{
			ApiKey:       am.config.ApiKey,
			SessionToken: am.config.SessionToken,
		}, nil
	}

	return KiteSession{}, fmt.Errorf("no valid credentials available; please set API key and session token in config or ensure auth_service is working")
}

// GetClient returns an authenticated KiteConnect client
func (am *AuthManager) GetClient(ctx context.Context) (*kiteconnect.Client, error) {
	creds, err := am.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to login before getting client: %w", err)
	}
	kite := kiteconnect.New(creds.ApiKey)
	kite.SetAccessToken(creds.SessionToken)
	return kite, nil
}
