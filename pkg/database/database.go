package database

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
	"github.com/cperrin88/ralph/pkg/model"
	"github.com/cperrin88/ralph/pkg/platform"
	"github.com/cperrin88/ralph/pkg/source"
)

// Scope identifies one of the three chained database levels.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeUser    Scope = "user"
	ScopeSystem  Scope = "system"
)

// sourceRecord is the on-disk shape of one entry in sources.json.
type sourceRecord struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

type sourcesFile struct {
	Sources []sourceRecord `json:"sources"`
}

// Database is one scope level of the chained package database: a set of
// registered sources backed by git mirrors, and a set of installed package
// groups. A Database without a parent is the outermost (system) scope;
// project and user scopes hold a non-owning reference to the next-wider
// scope so lookups and FindPackages can fall through the chain.
type Database struct {
	scope Scope
	root  string

	// parent is a weak, non-owning reference: closing or discarding this
	// Database never closes the parent, and the parent outlives it.
	parent *Database

	mu      sync.Mutex
	sources map[string]*source.Source
	groups  map[string]*PackageGroup
}

// DatabasePath returns the root directory for scope, resolving the
// platform-specific location. projectDir is only consulted for
// ScopeProject and may be empty for the other scopes.
func DatabasePath(scope Scope, projectDir string) (string, error) {
	switch scope {
	case ScopeProject:
		if projectDir == "" {
			return "", ralpherrors.New(ralpherrors.KindBadArgument, "project scope requires a project directory")
		}
		return platform.ProjectVendorDir(projectDir), nil
	case ScopeUser:
		return platform.UserConfigDir()
	case ScopeSystem:
		return platform.SystemConfigDir(), nil
	default:
		return "", ralpherrors.New(ralpherrors.KindBadArgument, "unknown scope %q", scope)
	}
}

// Create opens (creating if absent) the database rooted at root for scope,
// chained to parent. parent may be nil for the outermost scope.
func Create(scope Scope, root string, parent *Database) (*Database, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "creating "+root)
	}

	db := &Database{
		scope:   scope,
		root:    root,
		parent:  parent,
		sources: make(map[string]*source.Source),
		groups:  make(map[string]*PackageGroup),
	}

	if err := db.loadSources(); err != nil {
		return nil, err
	}
	if err := db.loadGroups(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *Database) sourcesPath() string { return filepath.Join(db.root, "sources.json") }
func (db *Database) groupsPath() string  { return filepath.Join(db.root, "groups.json") }
func (db *Database) mirrorDir(name string) string {
	return filepath.Join(db.root, "sources", name)
}

func (db *Database) loadSources() error {
	var f sourcesFile
	if err := readJSON(db.sourcesPath(), &f); err != nil {
		return err
	}
	for _, rec := range f.Sources {
		restored, err := source.Restore(rec.Name, rec.Type, rec.URL, db.mirrorDir(rec.Name), rec.LastUpdated)
		if err != nil {
			return err
		}
		db.sources[rec.Name] = restored
	}
	return nil
}

func (db *Database) saveSourcesLocked() error {
	f := sourcesFile{}
	for name, src := range db.sources {
		f.Sources = append(f.Sources, sourceRecord{
			Name:        name,
			Type:        src.Type(),
			URL:         src.URL(),
			LastUpdated: src.LastUpdated(),
		})
	}
	return writeAtomic(db.sourcesPath(), f)
}

// Scope returns this database's scope level.
func (db *Database) Scope() Scope { return db.scope }

// Root returns this database's root directory.
func (db *Database) Root() string { return db.root }

// Parent returns the next-wider scope in the chain, or nil for the
// outermost (system) scope.
func (db *Database) Parent() *Database { return db.parent }

// RegisterSource adds a new source named name backed by url. Fails if a
// source with that name is already registered in this scope.
func (db *Database) RegisterSource(name, url string) (*source.Source, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.sources[name]; exists {
		return nil, ralpherrors.New(ralpherrors.KindSourceAlreadyRegistered, "source %q is already registered", name)
	}

	src := source.New(name, url, db.mirrorDir(name))
	db.sources[name] = src
	if err := db.saveSourcesLocked(); err != nil {
		delete(db.sources, name)
		return nil, err
	}
	return src, nil
}

// UnregisterSource removes a source and deletes its mirror directory.
func (db *Database) UnregisterSource(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	src, exists := db.sources[name]
	if !exists {
		return ralpherrors.New(ralpherrors.KindUnknownSource, "unknown source %q", name)
	}

	delete(db.sources, name)
	if err := db.saveSourcesLocked(); err != nil {
		db.sources[name] = src
		return err
	}

	src.Gone()
	if err := os.RemoveAll(db.mirrorDir(name)); err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "removing mirror for "+name)
	}
	return nil
}

// PersistSources rewrites sources.json from the current in-memory state
// of every registered source. Callers that call Source.Update outside of
// RegisterSource/UnregisterSource (the "sources update" command) must call
// this afterward, or the new lastUpdated never reaches disk.
func (db *Database) PersistSources() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.saveSourcesLocked()
}

// Source looks up a source by name in this scope only, with no fallthrough
// to a wider scope.
func (db *Database) Source(name string) (*source.Source, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	src, ok := db.sources[name]
	return src, ok
}

// SourcesVisible lists every source visible from this scope: this scope's
// own sources followed by the parent chain's, innermost first.
func (db *Database) SourcesVisible() []*source.Source {
	db.mu.Lock()
	var own []*source.Source
	for _, src := range db.sources {
		own = append(own, src)
	}
	db.mu.Unlock()

	if db.parent != nil {
		own = append(own, db.parent.SourcesVisible()...)
	}
	return own
}

// FindPackages searches every source visible from this scope, innermost
// scope first, for packages named name satisfying req.
func (db *Database) FindPackages(ctx context.Context, name string, req model.VersionRequirement) ([]model.Package, error) {
	sources := db.SourcesVisible()
	results := make([][]model.Package, len(sources))

	g, _ := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = src.FindPackages(name, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Package
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// PackageNames returns the distinct package names indexed across every
// source visible from this scope.
func (db *Database) PackageNames() []string {
	seen := make(map[string]struct{})
	for _, src := range db.SourcesVisible() {
		for _, pkg := range src.Packages() {
			seen[pkg.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	return names
}
