package oauth

import (
	"context"
	"strings"
	"testing"
	"time"

	"blueridge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := newSealer("passphrase")
	require.NoError(t, err)

	sealed, err := s.seal("ya29.token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, sealedPrefix))
	assert.NotContains(t, sealed, "ya29.token")

	plain, err := s.open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", plain)

	other, err := newSealer("different")
	require.NoError(t, err)
	_, err = other.open(sealed)
	assert.Error(t, err)
}

func TestSealerPassThrough(t *testing.T) {
	var none *sealer
	out, err := none.seal("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	out, err = none.open("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	_, err = none.open(sealedPrefix + "AAAA")
	assert.ErrorIs(t, err, ErrSealedToken)
}

func TestStoredTokensAreSealed(t *testing.T) {
	tokens := newMemTokens()
	auth := NewGoogleAuth(Options{
		ClientID:      "client",
		ClientSecret:  "secret",
		DefaultOwner:  "owner-default",
		EncryptionKey: "at-rest",
	}, tokens, zap.NewNop())

	tok := &oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1", Expiry: time.Now().Add(time.Hour)}
	require.NoError(t, auth.save(context.Background(), "owner-default", tok))

	row, err := tokens.Get(context.Background(), Provider, "owner-default")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(row.AccessToken, sealedPrefix))
	require.NotNil(t, row.RefreshToken)
	assert.True(t, strings.HasPrefix(*row.RefreshToken, sealedPrefix))

	loaded, err := auth.fromRecord(row)
	require.NoError(t, err)
	assert.Equal(t, "access-1", loaded.AccessToken)
	assert.Equal(t, "refresh-1", loaded.RefreshToken)
}

func TestPlainRowsStillLoad(t *testing.T) {
	auth := NewGoogleAuth(Options{EncryptionKey: "at-rest"}, nil, zap.NewNop())
	rt := "refresh-plain"
	loaded, err := auth.fromRecord(&models.OAuthToken{Provider: Provider, AccessToken: "access-plain", RefreshToken: &rt})
	require.NoError(t, err)
	assert.Equal(t, "access-plain", loaded.AccessToken)
	assert.Equal(t, "refresh-plain", loaded.RefreshToken)
}
