package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionRoundTrip(t *testing.T) {
	cases := []string{"1", "1.2", "1.2.3", "1.2.3-beta", "0.0.1", "10.20.30-rc1"}
	for _, s := range cases {
		v, err := ParseVersion(s)
		require.NoError(t, err)
		v2, err := ParseVersion(v.String())
		require.NoError(t, err)
		assert.True(t, v.Equal(v2), "parse(format(%s)) != %s", s, s)
	}
}

func TestParseVersionRejects(t *testing.T) {
	for _, s := range []string{"", "1..2", "1.a", "1-2-3", "1."} {
		_, err := ParseVersion(s)
		assert.Error(t, err, "expected %q to be rejected", s)
	}
}

func TestVersionCompareNumeric(t *testing.T) {
	assert.True(t, MustParseVersion("1.2").LessThan(MustParseVersion("1.3")))
	assert.True(t, MustParseVersion("1.2").LessThan(MustParseVersion("1.2.1")))
	assert.True(t, MustParseVersion("2").LessThan(MustParseVersion("10")))
	assert.Equal(t, 0, MustParseVersion("1.0").Compare(MustParseVersion("1.0.0")))
}

func TestVersionUntaggedSortsAfterTagged(t *testing.T) {
	assert.True(t, MustParseVersion("1.2.3-beta").LessThan(MustParseVersion("1.2.3")))
}

func TestVersionTagsCompareLexicographically(t *testing.T) {
	assert.True(t, MustParseVersion("1.0.0-alpha").LessThan(MustParseVersion("1.0.0-beta")))
}

func TestVersionJSONRoundTrip(t *testing.T) {
	v := MustParseVersion("3.4.5-rc2")
	data, err := v.MarshalJSON()
	require.NoError(t, err)

	var v2 Version
	require.NoError(t, v2.UnmarshalJSON(data))
	assert.True(t, v.Equal(v2))
}
