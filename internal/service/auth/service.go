package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/adiallo/spendbot/internal/config"
)

// driveFileScope grants access only to files the app itself creates.
const driveFileScope = "https://www.googleapis.com/auth/drive.file"

// Service runs the Google authorization-code flow that delegates per-user
// Sheets access to the bot. Tokens leave this package as opaque JSON blobs.
type Service struct {
	config *oauth2.Config
}

// NewService builds the authorizer from the configured OAuth client.
func NewService(cfg config.GoogleConfig) *Service {
	return &Service{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{sheetsapi.SpreadsheetsScope, driveFileScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// OAuthConfig exposes the underlying config so the sheets adapter can build
// refreshing token sources from stored tokens.
func (s *Service) OAuthConfig() *oauth2.Config {
	return s.config
}

// AuthURL returns the authorization URL for the given Telegram user. The user
// ID travels in the state parameter and comes back on the callback.
func (s *Service) AuthURL(telegramID int64) string {
	return s.config.AuthCodeURL(strconv.FormatInt(telegramID, 10), oauth2.AccessTypeOffline)
}

// ParseState recovers the Telegram user ID from the callback state parameter.
func ParseState(state string) (int64, error) {
	id, err := strconv.ParseInt(state, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid state parameter %q: %w", state, err)
	}
	return id, nil
}

// Exchange trades the authorization code for a token and returns it serialized
// as an opaque credential blob, whatever the provider included in it.
func (s *Service) Exchange(ctx context.Context, code string) ([]byte, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	blob, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("encode token: %w", err)
	}
	return blob, nil
}
