package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/interfaces"
	"golang.org/x/oauth2/google"
)

// ServiceAccountProvider authorizes with a service-account JSON key.
// No browser interaction is needed, which suits unattended runs.
type ServiceAccountProvider struct {
	keyFile string
	scopes  []string
	logger  arbor.ILogger
}

var _ interfaces.CredentialProvider = (*ServiceAccountProvider)(nil)

// NewServiceAccountProvider creates a provider for the key at keyFile
func NewServiceAccountProvider(keyFile string, scopes []string, logger arbor.ILogger) *ServiceAccountProvider {
	return &ServiceAccountProvider{
		keyFile: keyFile,
		scopes:  scopes,
		logger:  logger,
	}
}

// Name returns "service_account"
func (p *ServiceAccountProvider) Name() string {
	return "service_account"
}

// HTTPClient returns a client that mints JWT-based access tokens on demand
func (p *ServiceAccountProvider) HTTPClient(ctx context.Context) (*http.Client, error) {
	data, err := readCredentialFile(p.keyFile)
	if err != nil {
		p.logger.Error().
			Str("key_file", p.keyFile).
			Err(err).
			Msg("Service account key file missing - create a JSON key under IAM & Admin > Service Accounts")
		return nil, err
	}

	jwtConfig, err := google.JWTConfigFromJSON(data, p.scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key %s: %w", p.keyFile, err)
	}

	p.logger.Debug().
		Str("key_file", p.keyFile).
		Str("client_email", jwtConfig.Email).
		Strs("scopes", p.scopes).
		Msg("Service account credentials loaded")

	return jwtConfig.Client(ctx), nil
}
