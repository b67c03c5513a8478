package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageConfigurationMergeRightmostWins(t *testing.T) {
	base := PackageConfiguration{"a": "1", "b": "2"}
	merged := base.Merge(PackageConfiguration{"b": "3", "c": "4"})
	assert.Equal(t, PackageConfiguration{"a": "1", "b": "3", "c": "4"}, merged)
}

func TestPackageConfigurationEqual(t *testing.T) {
	a := PackageConfiguration{"a": "1"}
	b := PackageConfiguration{"a": "1"}
	c := PackageConfiguration{"a": "2"}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestPackageEqualityByNameVersionSource(t *testing.T) {
	p1 := Package{Name: "foo", Version: MustParseVersion("1.0.0"), Source: "origin"}
	p2 := Package{Name: "foo", Version: MustParseVersion("1.0.0"), Source: "origin"}
	p3 := Package{Name: "foo", Version: MustParseVersion("1.0.1"), Source: "origin"}
	p4 := Package{Name: "foo", Version: MustParseVersion("1.0.0"), Source: "mirror"}

	assert.True(t, p1.Equal(p2))
	assert.False(t, p1.Equal(p3))
	assert.False(t, p1.Equal(p4))
}

func TestDecodePackageMetadata(t *testing.T) {
	data := []byte(`{"name":"foo","version":"1.2.3","dependencies":[{"name":"bar","version":">=1.0"}],"extra":"ignored"}`)
	pkg, err := DecodePackageMetadata("packages/foo/1.2.3.json", data, "origin")
	require.NoError(t, err)

	assert.Equal(t, "foo", pkg.Name)
	assert.True(t, pkg.Version.Equal(MustParseVersion("1.2.3")))
	assert.Equal(t, SourceIdentity("origin"), pkg.Source)
	require.Len(t, pkg.Dependencies, 1)
	assert.Equal(t, "bar", pkg.Dependencies[0].Name)
	assert.True(t, pkg.Dependencies[0].Requirement.Satisfies(MustParseVersion("1.5.0")))
}

func TestDecodePackageMetadataMalformed(t *testing.T) {
	_, err := DecodePackageMetadata("packages/foo/bad.json", []byte("not json"), "origin")
	assert.Error(t, err)
}

func TestParsePackageQuery(t *testing.T) {
	name, req, err := ParsePackageQuery("foo@>=1.0,<2.0")
	require.NoError(t, err)
	assert.Equal(t, "foo", name)
	assert.True(t, req.Satisfies(MustParseVersion("1.5.0")))

	name, req, err = ParsePackageQuery("bar")
	require.NoError(t, err)
	assert.Equal(t, "bar", name)
	assert.Equal(t, AnyVersion, req)
}

func TestParsePackageQueryRejectsEmptyName(t *testing.T) {
	_, _, err := ParsePackageQuery("@1.0")
	assert.Error(t, err)
}
