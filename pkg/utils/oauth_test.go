package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/tamilschool-volunteers/internal/config"
)

func useTempTokenDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	original := tokenDir
	tokenDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { tokenDir = original })
}

func TestTokenFileRoundTrip(t *testing.T) {
	useTempTokenDir(t)

	token, err := LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, token)

	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, SaveTokenToFile("test", &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}))

	token, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))

	require.NoError(t, DeleteTokenFile("test"))
	token, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, token)

	// Deleting twice is not an error
	assert.NoError(t, DeleteTokenFile("test"))
}

func TestMissingScopes(t *testing.T) {
	assert.Empty(t, missingScopes(ScopeGmailSend+" "+ScopeSheets))
	assert.Equal(t, []string{ScopeGmailSend}, missingScopes(ScopeSheets+" openid"))
	assert.Len(t, missingScopes(""), 2)
}

func TestGetOAuthConfig(t *testing.T) {
	cfg := &config.OAuthClientConfig{
		Installed: config.OAuthInstalled{
			ClientID:                "client-id",
			ProjectID:               "project",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}

	oauthConfig, err := GetOAuthConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "client-id", oauthConfig.ClientID)
	assert.Equal(t, "http://localhost:3000/oauth/callback", oauthConfig.RedirectURL)
	assert.ElementsMatch(t, []string{ScopeSheets, ScopeGmailSend}, oauthConfig.Scopes)
}
