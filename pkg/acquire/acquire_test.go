package acquire_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/ralph/pkg/acquire"
	"github.com/cperrin88/ralph/pkg/credential"
	"github.com/cperrin88/ralph/pkg/database"
	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
	"github.com/cperrin88/ralph/pkg/model"
	"github.com/cperrin88/ralph/pkg/task"
)

func TestMain(m *testing.M) {
	credential.SetBroker(credential.NewStaticBroker([]credential.Entry{
		{URLPrefix: "", Material: credential.Material{Type: credential.Default}},
	}))
	os.Exit(m.Run())
}

// newFakeSource builds a bare local git repo with a single package
// metadata file committed at its root, suitable for registering as a
// ralph source.
func newFakeSource(t *testing.T, pkgName, version string, extraJSON string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	metaDir := filepath.Join(dir, "packages", pkgName)
	require.NoError(t, os.MkdirAll(metaDir, 0o755))
	content := `{"name":"` + pkgName + `","version":"` + version + `"` + extraJSON + `}`
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

func newTestDatabase(t *testing.T, pkgName, version, extraJSON string) *database.Database {
	t.Helper()
	root := t.TempDir()
	db, err := database.Create(database.ScopeUser, root, nil)
	require.NoError(t, err)

	remote := newFakeSource(t, pkgName, version, extraJSON)
	src, err := db.RegisterSource("origin", remote)
	require.NoError(t, err)
	_, err = task.AwaitBlocking(context.Background(), src.Update(context.Background()))
	require.NoError(t, err)
	return db
}

func TestResolveUnknownPackage(t *testing.T) {
	db := newTestDatabase(t, "foo", "1.0.0", "")
	_, err := acquire.Resolve(context.Background(), db, "bar")
	require.Error(t, err)
	assert.True(t, ralpherrors.Is(err, ralpherrors.KindUnknownPackage))
}

func TestResolveNoMatchingVersion(t *testing.T) {
	db := newTestDatabase(t, "foo", "1.0.0", "")
	_, err := acquire.Resolve(context.Background(), db, "foo@>=2.0.0")
	require.Error(t, err)
	assert.True(t, ralpherrors.Is(err, ralpherrors.KindNoMatchingVersion))
}

func TestResolvePicksHighestSatisfyingVersion(t *testing.T) {
	db := newTestDatabase(t, "foo", "1.0.0", "")
	pkg, err := acquire.Resolve(context.Background(), db, "foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", pkg.Name)
	assert.Equal(t, "1.0.0", pkg.Version.String())
}

func TestPipelineInstallIsIdempotentAndReplacesOnConfigChange(t *testing.T) {
	db := newTestDatabase(t, "foo", "1.0.0", "")
	p := acquire.NewPipeline(db)

	cfg := model.PackageConfiguration{"k": "v"}
	result, err := p.Install(context.Background(), "myapp", []string{"foo"}, cfg)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	require.NoError(t, result.Outcomes[0].Err)
	assert.False(t, result.Failed())

	group := db.Group("myapp")
	assert.Len(t, group.Installed(), 1)

	newCfg := model.PackageConfiguration{"k": "v2"}
	result, err = p.Install(context.Background(), "myapp", []string{"foo"}, newCfg)
	require.NoError(t, err)
	assert.False(t, result.Failed())

	installed := group.Installed()
	require.Len(t, installed, 1)
	assert.Equal(t, newCfg, installed[0].Config)
}

func TestPipelineInstallReportsPerPackageFailureWithoutAbortingBatch(t *testing.T) {
	db := newTestDatabase(t, "foo", "1.0.0", "")
	p := acquire.NewPipeline(db)

	result, err := p.Install(context.Background(), "myapp", []string{"foo", "missing"}, nil)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	assert.NoError(t, result.Outcomes[0].Err)
	assert.Error(t, result.Outcomes[1].Err)
	assert.True(t, ralpherrors.Is(result.Outcomes[1].Err, ralpherrors.KindUnknownPackage))
	assert.True(t, result.Failed())

	merged := result.Err()
	require.Error(t, merged)

	assert.True(t, db.Group("myapp").IsInstalled(model.Package{
		Name: "foo", Version: model.MustParseVersion("1.0.0"), Source: "origin",
	}))
}

func TestPipelineRemoveOfNotInstalledIsNotAnError(t *testing.T) {
	db := newTestDatabase(t, "foo", "1.0.0", "")
	p := acquire.NewPipeline(db)

	result, err := p.Remove(context.Background(), "myapp", []string{"foo"})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.NoError(t, result.Outcomes[0].Err)
	assert.False(t, db.Group("myapp").IsInstalled(result.Outcomes[0].Package))
}

func TestPipelineRemoveOfInstalledPackage(t *testing.T) {
	db := newTestDatabase(t, "foo", "1.0.0", "")
	p := acquire.NewPipeline(db)

	_, err := p.Install(context.Background(), "myapp", []string{"foo"}, nil)
	require.NoError(t, err)
	require.True(t, db.Group("myapp").IsInstalled(model.Package{
		Name: "foo", Version: model.MustParseVersion("1.0.0"), Source: "origin",
	}))

	result, err := p.Remove(context.Background(), "myapp", []string{"foo"})
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.False(t, db.Group("myapp").IsInstalled(result.Outcomes[0].Package))
}

func TestPipelineCheckReportsInstalledAndNotInstalled(t *testing.T) {
	db := newTestDatabase(t, "foo", "1.0.0", "")
	p := acquire.NewPipeline(db)

	_, err := p.Install(context.Background(), "myapp", []string{"foo"}, nil)
	require.NoError(t, err)

	result, err := p.Check(context.Background(), "myapp", []string{"foo"})
	require.NoError(t, err)
	assert.NoError(t, result.Outcomes[0].Err)

	result, err = p.Check(context.Background(), "other-group", []string{"foo"})
	require.NoError(t, err)
	require.Error(t, result.Outcomes[0].Err)
	assert.True(t, ralpherrors.Is(result.Outcomes[0].Err, ralpherrors.KindNotInstalled))
}

func TestPipelineFiresDeclaredHooksAroundInstallAndRemove(t *testing.T) {
	extra := `,"hooks":{"pre-install":"fired := true","post-install":"fired := true","pre-remove":"fired := true","post-remove":"fired := true"}`
	db := newTestDatabase(t, "foo", "1.0.0", extra)
	p := acquire.NewPipeline(db)

	result, err := p.Install(context.Background(), "myapp", []string{"foo"}, nil)
	require.NoError(t, err)
	require.NoError(t, result.Outcomes[0].Err)
	assert.NotEmpty(t, result.Outcomes[0].Package.Hooks)
	assert.Contains(t, result.Outcomes[0].Package.Hooks, "pre-install")

	result, err = p.Remove(context.Background(), "myapp", []string{"foo"})
	require.NoError(t, err)
	require.NoError(t, result.Outcomes[0].Err)
}
