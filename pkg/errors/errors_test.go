package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, KindNetwork, "anything"))
	assert.NoError(t, Wrapf(nil, KindNetwork, "anything %d", 1))
}

func TestWrapPreservesCauseAndKind(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(cause, KindNetwork, "fetching index")

	assert.Equal(t, KindNetwork, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetching index")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrapfFormats(t *testing.T) {
	err := Wrapf(errors.New("boom"), KindFilesystem, "writing %s", "sources.json")
	assert.Contains(t, err.Error(), "writing sources.json")
}

func TestGitFailureCarriesCode(t *testing.T) {
	err := GitFailure("authentication required", "401", errors.New("basic auth rejected"))
	assert.Equal(t, KindGitFailure, err.Kind())
	assert.Equal(t, "401", err.Code)
}

func TestSourceFormatCarriesPath(t *testing.T) {
	err := SourceFormat("packages/foo/1.0.0.json", errors.New("invalid character"))
	assert.Equal(t, KindSourceFormat, err.Kind())
	assert.Equal(t, "packages/foo/1.0.0.json", err.Path)
}

func TestKindOfNonTaxonomyErrorIsLogic(t *testing.T) {
	assert.Equal(t, KindLogic, KindOf(errors.New("unexpected")))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(New(KindUnknownPackage, "no such package %q", "foo")))
	assert.Equal(t, -1, ExitCode(Logic("invariant violated")))
}

func TestIs(t *testing.T) {
	err := New(KindAuthRequired, "credentials needed for %s", "example.com")
	assert.True(t, Is(err, KindAuthRequired))
	assert.False(t, Is(err, KindAuthFailed))
}
