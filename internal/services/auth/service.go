// Package auth provides the credential flows used to reach Google Docs and Drive.
package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/common"
	"github.com/ternarybob/briefdoc/internal/interfaces"
)

// ErrCredentialsNotFound is returned when the configured key or client file is absent.
// It is a configuration error and is never retried.
var ErrCredentialsNotFound = errors.New("credential file not found")

// NewProvider selects the credential flow named by google.credentials_mode
func NewProvider(config *common.GoogleConfig, logger arbor.ILogger) (interfaces.CredentialProvider, error) {
	switch config.CredentialsMode {
	case common.CredentialsServiceAccount, "":
		return NewServiceAccountProvider(common.ExpandPath(config.ServiceAccountFile), config.Scopes, logger), nil
	case common.CredentialsOAuth:
		return NewOAuthProvider(
			common.ExpandPath(config.ClientSecretFile),
			common.ExpandPath(config.TokenFile),
			config.Scopes,
			logger,
			os.Stdin,
			os.Stdout,
		), nil
	default:
		return nil, fmt.Errorf("unknown credentials mode %q", config.CredentialsMode)
	}
}

// readCredentialFile reads a key file, mapping a missing file to ErrCredentialsNotFound
func readCredentialFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file %s: %w", path, err)
	}
	return data, nil
}
