// Package credentials supplies the bearer token used for remote calls.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"mail_loader/internal/domain"
)

// Provider returns the current access token or domain.ErrUnauthenticated.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// OAuth2Provider adapts an oauth2.TokenSource.
type OAuth2Provider struct {
	source oauth2.TokenSource
}

func NewOAuth2Provider(source oauth2.TokenSource) *OAuth2Provider {
	return &OAuth2Provider{source: source}
}

// NewStaticProvider serves a fixed access token. An empty token means the
// process runs unauthenticated.
func NewStaticProvider(accessToken string) *OAuth2Provider {
	if accessToken == "" {
		return &OAuth2Provider{}
	}
	return NewOAuth2Provider(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

func (p *OAuth2Provider) Token(ctx context.Context) (string, error) {
	if p == nil || p.source == nil {
		return "", domain.ErrUnauthenticated
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tok, err := p.source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
		}
		return "", fmt.Errorf("obtain token: %w", err)
	}
	if !tok.Valid() {
		return "", domain.ErrUnauthenticated
	}
	return tok.AccessToken, nil
}
