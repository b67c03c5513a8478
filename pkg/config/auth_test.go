package config

import (
	"testing"

	"github.com/cperrin88/ralph/pkg/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCredentialConfigCredentialMaterial(t *testing.T) {
	tests := []struct {
		name     string
		cfg      HTTPCredentialConfig
		wantOK   bool
		wantUser string
		wantPass string
	}{
		{
			name:   "no auth configured",
			cfg:    HTTPCredentialConfig{URLPrefix: "https://example.com/"},
			wantOK: false,
		},
		{
			name: "basic auth",
			cfg: HTTPCredentialConfig{
				URLPrefix: "https://example.com/",
				Basic:     &BasicAuth{Username: "user", Password: "pass"},
			},
			wantOK:   true,
			wantUser: "user",
			wantPass: "pass",
		},
		{
			name: "header auth is not bridgeable",
			cfg: HTTPCredentialConfig{
				URLPrefix: "https://example.com/",
				Header:    &HeaderAuth{Headers: map[string]string{"X-API-Key": "secret"}},
			},
			wantOK: false,
		},
		{
			name: "bearer auth",
			cfg: HTTPCredentialConfig{
				URLPrefix: "https://example.com/",
				Bearer:    &BearerAuth{Token: "token123"},
			},
			wantOK:   true,
			wantUser: "token123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			material, ok := tt.cfg.credentialMaterial()
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, credential.UsernamePassword, material.Type)
			assert.Equal(t, tt.wantUser, material.Username)
			assert.Equal(t, tt.wantPass, material.Password)
		})
	}
}

func TestConfigCredentialEntries(t *testing.T) {
	cfg := &Config{
		HTTPCredentials: []HTTPCredentialConfig{
			{
				URLPrefix: "https://example.com/repo1",
				Basic:     &BasicAuth{Username: "user1", Password: "pass1"},
			},
			{
				URLPrefix: "https://example.com/repo2",
				Bearer:    &BearerAuth{Token: "token123"},
			},
			{
				// HeaderAuth has no go-git AuthMethod equivalent and is dropped.
				URLPrefix: "https://example.com/repo3",
				Header:    &HeaderAuth{Headers: map[string]string{"X-API-Key": "secret"}},
			},
		},
	}

	entries := cfg.CredentialEntries()
	require.Len(t, entries, 2)

	assert.Equal(t, "https://example.com/repo1", entries[0].URLPrefix)
	assert.Equal(t, credential.UsernamePassword, entries[0].Material.Type)
	assert.Equal(t, "user1", entries[0].Material.Username)
	assert.Equal(t, "pass1", entries[0].Material.Password)

	assert.Equal(t, "https://example.com/repo2", entries[1].URLPrefix)
	assert.Equal(t, credential.UsernamePassword, entries[1].Material.Type)
	assert.Equal(t, "token123", entries[1].Material.Username)
}

func TestConfigCredentialEntriesEmpty(t *testing.T) {
	cfg := &Config{}
	assert.Empty(t, cfg.CredentialEntries())
}
