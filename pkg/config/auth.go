package config

import (
	"github.com/cperrin88/ralph/pkg/credential"
)

// HTTPCredentialConfig binds one set of HTTP credentials to every source
// URL starting with URLPrefix (e.g. "https://git.example.com/"). Exactly
// one of Basic, Header or Bearer should be set.
type HTTPCredentialConfig struct {
	URLPrefix string      `yaml:"url_prefix"`
	Basic     *BasicAuth  `yaml:"basic,omitempty"`
	Header    *HeaderAuth `yaml:"header,omitempty"`
	Bearer    *BearerAuth `yaml:"bearer,omitempty"`
}

// BasicAuth holds configuration for HTTP Basic Authentication.
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HeaderAuth holds configuration for custom header-based authentication.
// No source in ralph ever issues a plain HTTP request to apply these
// headers to (every PackageSource is git-backed), so it is kept only as
// an accepted config shape and never reaches credential.Material.
type HeaderAuth struct {
	Headers map[string]string `yaml:"headers"`
}

// BearerAuth holds configuration for Bearer token authentication.
type BearerAuth struct {
	Token string `yaml:"token"`
}

// CredentialEntries converts the configured HTTP credentials into
// credential.Entry values suitable for credential.NewStaticBroker.
// Entries with no bridgeable material (HeaderAuth, or neither field set)
// are dropped.
func (c *Config) CredentialEntries() []credential.Entry {
	entries := make([]credential.Entry, 0, len(c.HTTPCredentials))
	for _, hc := range c.HTTPCredentials {
		material, ok := hc.credentialMaterial()
		if !ok {
			continue
		}
		entries = append(entries, credential.Entry{URLPrefix: hc.URLPrefix, Material: material})
	}
	return entries
}

// credentialMaterial maps the configured auth choice onto the
// credential.Material shape the git-auth broker understands. HeaderAuth
// has no go-git transport.AuthMethod equivalent, so it is not bridgeable.
func (c HTTPCredentialConfig) credentialMaterial() (credential.Material, bool) {
	switch {
	case c.Basic != nil:
		return credential.Material{Type: credential.UsernamePassword, Username: c.Basic.Username, Password: c.Basic.Password}, true
	case c.Bearer != nil:
		return credential.Material{Type: credential.UsernamePassword, Username: c.Bearer.Token}, true
	default:
		return credential.Material{}, false
	}
}
