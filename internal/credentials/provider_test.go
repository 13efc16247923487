package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"mail_loader/internal/domain"
)

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

func TestStaticProvider(t *testing.T) {
	tok, err := NewStaticProvider("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}

func TestStaticProvider_Empty(t *testing.T) {
	_, err := NewStaticProvider("").Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	var nilProvider *OAuth2Provider
	_, err = nilProvider.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestOAuth2Provider_ExpiredToken(t *testing.T) {
	p := NewOAuth2Provider(tokenSourceFunc(func() (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}, nil
	}))

	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestOAuth2Provider_RefreshRejected(t *testing.T) {
	p := NewOAuth2Provider(tokenSourceFunc(func() (*oauth2.Token, error) {
		return nil, &oauth2.RetrieveError{ErrorCode: "invalid_grant"}
	}))

	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestOAuth2Provider_TransportError(t *testing.T) {
	p := NewOAuth2Provider(tokenSourceFunc(func() (*oauth2.Token, error) {
		return nil, errors.New("dial tcp: refused")
	}))

	_, err := p.Token(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
}
