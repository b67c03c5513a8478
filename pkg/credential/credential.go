// Package credential implements the authentication broker that answers
// challenges raised while talking to remote package sources: a
// process-wide callback, set once at startup, that the git remote driver
// consults whenever a clone, fetch or push needs credentials.
package credential

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

// Type names a kind of credential material a Broker may be asked for.
type Type string

const (
	Default          Type = "default"
	Username         Type = "username"
	UsernamePassword Type = "username_password"
	SSHKey           Type = "ssh_key"
	SSHCustom        Type = "ssh_custom"
	SSHInteractive   Type = "ssh_interactive"
)

// Query describes a single authentication challenge raised by a remote
// operation.
type Query struct {
	URL             string
	UsernameFromURL string
	Allowed         []Type
}

// Outcome classifies a Broker's Response.
type Outcome int

const (
	// Valid means Material is populated and usable for this attempt.
	Valid Outcome = iota
	// Invalid means the caller should try another allowed Type.
	Invalid
	// Error means the caller should abort this attempt with an
	// authentication failure.
	Error
)

// Material carries the credential payload for whichever Type a Response
// answers with. Only the fields relevant to that Type are populated.
type Material struct {
	Type Type

	Username string
	Password string

	SSHKeyPath       string
	SSHKeyPassphrase string
}

// Response is what a Broker returns for a Query.
type Response struct {
	Outcome  Outcome
	Material Material
	Err      error
}

// Broker answers credential Queries. Implementations must not block the
// calling worker beyond a single synchronous prompt per challenge.
type Broker func(Query) Response

var activeBroker Broker = staticDenyBroker

// SetBroker installs the process-wide broker. Intended to be called once
// at startup; the broker is read without a lock afterward, per the
// "immutable after init" shared-state rule.
func SetBroker(b Broker) {
	if b == nil {
		b = staticDenyBroker
	}
	activeBroker = b
}

// Answer invokes the process-wide broker for q.
func Answer(q Query) Response {
	return activeBroker(q)
}

func staticDenyBroker(Query) Response {
	return Response{Outcome: Error, Err: ralpherrors.New(ralpherrors.KindAuthRequired, "no credential broker configured")}
}

// ToAuthMethod asks the active broker for credentials matching one of
// allowed and converts the first Valid response into a go-git
// transport.AuthMethod. Returns an Auth-kind error if every allowed Type
// is exhausted without a Valid response.
func ToAuthMethod(url, usernameFromURL string, allowed []Type) (transport.AuthMethod, error) {
	if len(allowed) == 0 {
		allowed = []Type{Default}
	}

	var lastErr error
	for _, t := range allowed {
		resp := Answer(Query{URL: url, UsernameFromURL: usernameFromURL, Allowed: []Type{t}})
		switch resp.Outcome {
		case Valid:
			return materialToAuthMethod(resp.Material)
		case Invalid:
			continue
		case Error:
			lastErr = resp.Err
			continue
		}
	}

	if lastErr == nil {
		lastErr = ralpherrors.New(ralpherrors.KindAuthRequired, "credentials required for %s", url)
	}
	return nil, ralpherrors.Wrap(lastErr, ralpherrors.KindAuthFailed, "no broker response satisfied the allowed credential types")
}

func materialToAuthMethod(m Material) (transport.AuthMethod, error) {
	switch m.Type {
	case Default:
		return nil, nil
	case Username:
		return &githttp.BasicAuth{Username: m.Username}, nil
	case UsernamePassword:
		return &githttp.BasicAuth{Username: m.Username, Password: m.Password}, nil
	case SSHKey, SSHCustom:
		auth, err := gitssh.NewPublicKeysFromFile(firstNonEmpty(m.Username, "git"), m.SSHKeyPath, m.SSHKeyPassphrase)
		if err != nil {
			return nil, ralpherrors.Wrap(err, ralpherrors.KindAuthFailed, "loading ssh key "+m.SSHKeyPath)
		}
		return auth, nil
	case SSHInteractive:
		return nil, ralpherrors.New(ralpherrors.KindAuthFailed, "ssh interactive auth is not supported by this broker")
	default:
		return nil, ralpherrors.New(ralpherrors.KindAuthFailed, "unknown credential type %q", m.Type)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
