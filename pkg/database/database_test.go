package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/ralph/pkg/credential"
	"github.com/cperrin88/ralph/pkg/model"
	"github.com/cperrin88/ralph/pkg/task"
)

func TestMain(m *testing.M) {
	credential.SetBroker(credential.NewStaticBroker([]credential.Entry{
		{URLPrefix: "", Material: credential.Material{Type: credential.Default}},
	}))
	os.Exit(m.Run())
}

func newFakeRemote(t *testing.T, pkgName, version string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	metaDir := filepath.Join(dir, "packages", pkgName)
	require.NoError(t, os.MkdirAll(metaDir, 0o755))
	content := `{"name":"` + pkgName + `","version":"` + version + `"}`
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, version+".json"), []byte(content), 0o644))

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "ralph", Email: "ralph@example.com"},
	})
	require.NoError(t, err)
	return dir
}

func TestRegisterUnregisterSourceRoundTrips(t *testing.T) {
	root := t.TempDir()
	db, err := Create(ScopeUser, root, nil)
	require.NoError(t, err)

	remote := newFakeRemote(t, "foo", "1.0.0")
	_, err = db.RegisterSource("origin", remote)
	require.NoError(t, err)

	reopened, err := Create(ScopeUser, root, nil)
	require.NoError(t, err)
	src, ok := reopened.Source("origin")
	require.True(t, ok)
	assert.Equal(t, remote, src.URL())

	require.NoError(t, reopened.UnregisterSource("origin"))
	_, ok = reopened.Source("origin")
	assert.False(t, ok)

	rereopened, err := Create(ScopeUser, root, nil)
	require.NoError(t, err)
	_, ok = rereopened.Source("origin")
	assert.False(t, ok)
	assert.NoDirExists(t, filepath.Join(root, "sources", "origin"))
}

func TestRegisterSourceRejectsDuplicateName(t *testing.T) {
	root := t.TempDir()
	db, err := Create(ScopeUser, root, nil)
	require.NoError(t, err)

	remote := newFakeRemote(t, "foo", "1.0.0")
	_, err = db.RegisterSource("origin", remote)
	require.NoError(t, err)

	_, err = db.RegisterSource("origin", remote)
	assert.Error(t, err)
}

func TestFindPackagesFallsThroughScopeChain(t *testing.T) {
	systemRoot := t.TempDir()
	systemDB, err := Create(ScopeSystem, systemRoot, nil)
	require.NoError(t, err)
	systemRemote := newFakeRemote(t, "foo", "1.0.0")
	systemSrc, err := systemDB.RegisterSource("system-origin", systemRemote)
	require.NoError(t, err)
	_, err = task.AwaitBlocking(context.Background(), systemSrc.Update(context.Background()))
	require.NoError(t, err)

	userRoot := t.TempDir()
	userDB, err := Create(ScopeUser, userRoot, systemDB)
	require.NoError(t, err)
	userRemote := newFakeRemote(t, "foo", "2.0.0")
	userSrc, err := userDB.RegisterSource("user-origin", userRemote)
	require.NoError(t, err)
	_, err = task.AwaitBlocking(context.Background(), userSrc.Update(context.Background()))
	require.NoError(t, err)

	matches, err := userDB.FindPackages(context.Background(), "foo", model.AnyVersion)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestGroupInstallIsIdempotentAndReplacesOnConfigChange(t *testing.T) {
	root := t.TempDir()
	db, err := Create(ScopeUser, root, nil)
	require.NoError(t, err)

	pkg := model.Package{Name: "foo", Version: model.MustParseVersion("1.0.0"), Source: "origin"}
	cfg := model.PackageConfiguration{"k": "v"}

	g := db.Group("")
	require.NoError(t, g.Install(pkg, cfg))
	require.NoError(t, g.Install(pkg, cfg))
	assert.Len(t, g.Installed(), 1)
	assert.True(t, g.IsInstalled(pkg))

	newCfg := model.PackageConfiguration{"k": "v2"}
	require.NoError(t, g.Install(pkg, newCfg))
	installed := g.Installed()
	require.Len(t, installed, 1)
	assert.Equal(t, newCfg, installed[0].Config)

	require.NoError(t, g.Remove(pkg))
	assert.False(t, g.IsInstalled(pkg))
}

func TestGroupsPersistAcrossReopen(t *testing.T) {
	root := t.TempDir()
	db, err := Create(ScopeUser, root, nil)
	require.NoError(t, err)

	pkg := model.Package{Name: "foo", Version: model.MustParseVersion("1.0.0"), Source: "origin"}
	cfg := model.PackageConfiguration{"k": "v"}
	require.NoError(t, db.Group("myapp").Install(pkg, cfg))

	reopened, err := Create(ScopeUser, root, nil)
	require.NoError(t, err)
	g := reopened.Group("myapp")
	assert.True(t, g.IsInstalled(pkg))
}

func TestSourceUpdateStatePersistsAcrossReopen(t *testing.T) {
	root := t.TempDir()
	db, err := Create(ScopeUser, root, nil)
	require.NoError(t, err)

	remote := newFakeRemote(t, "foo", "1.0.0")
	src, err := db.RegisterSource("origin", remote)
	require.NoError(t, err)
	assert.Equal(t, "git", src.Type())
	assert.True(t, src.LastUpdated().IsZero())

	_, err = task.AwaitBlocking(context.Background(), src.Update(context.Background()))
	require.NoError(t, err)
	require.NoError(t, db.PersistSources())

	reopened, err := Create(ScopeUser, root, nil)
	require.NoError(t, err)
	reopenedSrc, ok := reopened.Source("origin")
	require.True(t, ok)

	assert.Equal(t, "git", reopenedSrc.Type())
	assert.False(t, reopenedSrc.LastUpdated().IsZero())
	assert.Equal(t, src.LastUpdated().Unix(), reopenedSrc.LastUpdated().Unix())

	matches, err := reopened.FindPackages(context.Background(), "foo", model.AnyVersion)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
