package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/briefdoc/internal/interfaces"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthProvider authorizes as an end user. The first run prints a consent URL and
// reads the authorization code from the console; the token is cached in tokenFile.
type OAuthProvider struct {
	clientSecretFile string
	tokenFile        string
	scopes           []string
	logger           arbor.ILogger
	in               io.Reader
	out              io.Writer
}

var _ interfaces.CredentialProvider = (*OAuthProvider)(nil)

// NewOAuthProvider creates an interactive OAuth provider
func NewOAuthProvider(clientSecretFile, tokenFile string, scopes []string, logger arbor.ILogger, in io.Reader, out io.Writer) *OAuthProvider {
	return &OAuthProvider{
		clientSecretFile: clientSecretFile,
		tokenFile:        tokenFile,
		scopes:           scopes,
		logger:           logger,
		in:               in,
		out:              out,
	}
}

// Name returns "oauth"
func (p *OAuthProvider) Name() string {
	return "oauth"
}

// HTTPClient returns a client backed by the cached token, running the consent flow when no token exists
func (p *OAuthProvider) HTTPClient(ctx context.Context) (*http.Client, error) {
	data, err := readCredentialFile(p.clientSecretFile)
	if err != nil {
		p.logger.Error().
			Str("client_secret_file", p.clientSecretFile).
			Err(err).
			Msg("OAuth client secret file missing")
		return nil, err
	}

	oauthConfig, err := google.ConfigFromJSON(data, p.scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client secret %s: %w", p.clientSecretFile, err)
	}

	token, err := p.loadToken()
	if err != nil {
		p.logger.Info().
			Str("token_file", p.tokenFile).
			Msg("No cached OAuth token, starting consent flow")

		token, err = p.consent(ctx, oauthConfig)
		if err != nil {
			return nil, err
		}
		if err := p.saveToken(token); err != nil {
			// The token still works for this run
			p.logger.Warn().Err(err).Str("token_file", p.tokenFile).Msg("Failed to cache OAuth token")
		}
	}

	return oauthConfig.Client(ctx, token), nil
}

func (p *OAuthProvider) consent(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(p.out, "Open the following link in your browser, then paste the authorization code:\n%v\n> ", authURL)

	code, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("no authorization code entered")
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

func (p *OAuthProvider) loadToken() (*oauth2.Token, error) {
	f, err := os.Open(p.tokenFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", p.tokenFile, err)
	}
	return token, nil
}

func (p *OAuthProvider) saveToken(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(p.tokenFile), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(p.tokenFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
