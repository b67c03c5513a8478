package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnyVersionMatchesEverything(t *testing.T) {
	assert.True(t, AnyVersion.Satisfies(MustParseVersion("0.0.1")))
	assert.True(t, AnyVersion.Satisfies(MustParseVersion("99.99.99-zz")))
}

func TestExactRequirement(t *testing.T) {
	req, err := ParseVersionRequirement("1.4.2")
	require.NoError(t, err)
	assert.True(t, req.Satisfies(MustParseVersion("1.4.2")))
	assert.False(t, req.Satisfies(MustParseVersion("1.4.3")))
}

func TestRangeRequirement(t *testing.T) {
	req, err := ParseVersionRequirement(">=1.0,<2.0")
	require.NoError(t, err)
	assert.False(t, req.Satisfies(MustParseVersion("0.9.9")))
	assert.True(t, req.Satisfies(MustParseVersion("1.0.0")))
	assert.True(t, req.Satisfies(MustParseVersion("1.9.9")))
	assert.False(t, req.Satisfies(MustParseVersion("2.0.0")))
}

func TestTildeRequirement(t *testing.T) {
	req, err := ParseVersionRequirement("~1.2")
	require.NoError(t, err)
	assert.True(t, req.Satisfies(MustParseVersion("1.2.0")))
	assert.True(t, req.Satisfies(MustParseVersion("1.2.9")))
	assert.False(t, req.Satisfies(MustParseVersion("1.3.0")))
	assert.False(t, req.Satisfies(MustParseVersion("1.1.9")))
}

func TestCaretRequirementMajorNonZero(t *testing.T) {
	req, err := ParseVersionRequirement("^1.2.3")
	require.NoError(t, err)
	assert.True(t, req.Satisfies(MustParseVersion("1.2.3")))
	assert.True(t, req.Satisfies(MustParseVersion("1.9.9")))
	assert.False(t, req.Satisfies(MustParseVersion("2.0.0")))
	assert.False(t, req.Satisfies(MustParseVersion("1.2.2")))
}

func TestCaretRequirementMajorZero(t *testing.T) {
	req, err := ParseVersionRequirement("^0.2.3")
	require.NoError(t, err)
	assert.True(t, req.Satisfies(MustParseVersion("0.2.3")))
	assert.True(t, req.Satisfies(MustParseVersion("0.2.9")))
	assert.False(t, req.Satisfies(MustParseVersion("0.3.0")))
}

func TestEqEqIsAcceptedAsEquals(t *testing.T) {
	req, err := ParseVersionRequirement("==1.0.0")
	require.NoError(t, err)
	assert.True(t, req.Satisfies(MustParseVersion("1.0.0")))
}

func TestInvalidRequirementSyntax(t *testing.T) {
	for _, s := range []string{",", "1.0,", ">=,1.0"} {
		_, err := ParseVersionRequirement(s)
		assert.Error(t, err, "expected %q to be rejected", s)
	}
}

func TestSatisfiesIsDeterministic(t *testing.T) {
	req, err := ParseVersionRequirement(">=1.0,<2.0")
	require.NoError(t, err)
	v := MustParseVersion("1.5.0")
	first := req.Satisfies(v)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, req.Satisfies(v))
	}
}
