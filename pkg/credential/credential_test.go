package credential

import (
	"testing"

	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticBrokerMatchesByPrefix(t *testing.T) {
	t.Cleanup(func() { SetBroker(nil) })

	SetBroker(NewStaticBroker([]Entry{
		{URLPrefix: "https://example.com/", Material: Material{Type: UsernamePassword, Username: "alice", Password: "s3cret"}},
	}))

	resp := Answer(Query{URL: "https://example.com/org/repo.git", Allowed: []Type{UsernamePassword}})
	require.Equal(t, Valid, resp.Outcome)
	assert.Equal(t, "alice", resp.Material.Username)
}

func TestStaticBrokerInvalidWhenNoEntryMatches(t *testing.T) {
	t.Cleanup(func() { SetBroker(nil) })
	SetBroker(NewStaticBroker(nil))

	resp := Answer(Query{URL: "https://example.com/org/repo.git", Allowed: []Type{UsernamePassword}})
	assert.Equal(t, Invalid, resp.Outcome)
}

func TestUnsetBrokerReturnsError(t *testing.T) {
	t.Cleanup(func() { SetBroker(nil) })
	SetBroker(nil)

	resp := Answer(Query{URL: "https://example.com/org/repo.git"})
	assert.Equal(t, Error, resp.Outcome)
	assert.Error(t, resp.Err)
}

func TestToAuthMethodBuildsBasicAuth(t *testing.T) {
	t.Cleanup(func() { SetBroker(nil) })
	SetBroker(NewStaticBroker([]Entry{
		{URLPrefix: "https://example.com/", Material: Material{Type: UsernamePassword, Username: "alice", Password: "s3cret"}},
	}))

	method, err := ToAuthMethod("https://example.com/org/repo.git", "", []Type{UsernamePassword})
	require.NoError(t, err)
	basic, ok := method.(*githttp.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "alice", basic.Username)
	assert.Equal(t, "s3cret", basic.Password)
}

func TestToAuthMethodFailsWhenExhausted(t *testing.T) {
	t.Cleanup(func() { SetBroker(nil) })
	SetBroker(NewStaticBroker(nil))

	_, err := ToAuthMethod("https://example.com/org/repo.git", "", []Type{UsernamePassword})
	assert.Error(t, err)
}
