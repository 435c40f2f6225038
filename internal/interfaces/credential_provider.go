package interfaces

import (
	"context"
	"net/http"
)

// CredentialProvider supplies an authorized HTTP client for the Google APIs.
// Implementations differ only in how the token is acquired.
type CredentialProvider interface {
	// HTTPClient returns a client that attaches bearer tokens for the configured scopes.
	HTTPClient(ctx context.Context) (*http.Client, error)

	// Name identifies the credential flow in logs ("service_account", "oauth").
	Name() string
}
