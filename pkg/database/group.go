package database

import (
	"sync"

	"github.com/cperrin88/ralph/pkg/model"
)

// installRecord is the on-disk shape of one installed entry.
type installRecord struct {
	Package struct {
		Name    string       `json:"name"`
		Version model.Version `json:"version"`
		Source  string       `json:"source"`
	} `json:"package"`
	Config model.PackageConfiguration `json:"config,omitempty"`
}

type groupsFile map[string][]installRecord

// installKey identifies one (name, version, source) slot within a group.
type installKey struct {
	name    string
	version string
	source  model.SourceIdentity
}

func keyOf(pkg model.Package) installKey {
	return installKey{name: pkg.Name, version: pkg.Version.String(), source: pkg.Source}
}

// InstalledEntry pairs a package identity with the configuration it was
// installed with.
type InstalledEntry struct {
	Package model.Package
	Config  model.PackageConfiguration
}

// PackageGroup is a named installation scope within a Database: the set
// of packages installed under that name, each with the configuration it
// was installed with. At most one entry exists per (name, version,
// source identity).
type PackageGroup struct {
	db   *Database
	name string

	mu      sync.Mutex
	entries map[installKey]InstalledEntry
}

func newGroup(db *Database, name string) *PackageGroup {
	return &PackageGroup{db: db, name: name, entries: make(map[installKey]InstalledEntry)}
}

// Group returns the named installation group, creating it on first access.
func (db *Database) Group(name string) *PackageGroup {
	db.mu.Lock()
	defer db.mu.Unlock()

	if g, ok := db.groups[name]; ok {
		return g
	}
	g := newGroup(db, name)
	db.groups[name] = g
	return g
}

// Name returns the group's name ("" for the default group).
func (g *PackageGroup) Name() string { return g.name }

// GroupNames returns the name of every group currently known to db, in no
// particular order.
func (db *Database) GroupNames() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	names := make([]string, 0, len(db.groups))
	for name := range db.groups {
		names = append(names, name)
	}
	return names
}

// IsInstalled reports whether pkg is a member of the installed set.
func (g *PackageGroup) IsInstalled(pkg model.Package) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.entries[keyOf(pkg)]
	return ok
}

// Installed returns every (package, config) pair currently installed in
// this group.
func (g *PackageGroup) Installed() []InstalledEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]InstalledEntry, 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, e)
	}
	return out
}

// Install adds pkg to the installed set with configuration cfg. Installing
// an already-installed (pkg, cfg) pair is a no-op; installing the same
// package identity with a different configuration replaces the entry.
func (g *PackageGroup) Install(pkg model.Package, cfg model.PackageConfiguration) error {
	g.mu.Lock()
	key := keyOf(pkg)
	existing, exists := g.entries[key]
	if exists && existing.Package.Equal(pkg) && existing.Config.Equal(cfg) {
		g.mu.Unlock()
		return nil
	}

	g.entries[key] = InstalledEntry{Package: pkg, Config: cfg}
	err := g.db.saveGroupsLocked(g)
	if err != nil {
		if exists {
			g.entries[key] = existing
		} else {
			delete(g.entries, key)
		}
	}
	g.mu.Unlock()
	return err
}

// Remove removes pkg from the installed set. Removing a package that is
// not installed is not an error.
func (g *PackageGroup) Remove(pkg model.Package) error {
	g.mu.Lock()
	key := keyOf(pkg)
	existing, exists := g.entries[key]
	if !exists {
		g.mu.Unlock()
		return nil
	}

	delete(g.entries, key)
	err := g.db.saveGroupsLocked(g)
	if err != nil {
		g.entries[key] = existing
	}
	g.mu.Unlock()
	return err
}

// loadGroups reads groups.json and rebuilds every named group's installed
// set, resolving each entry's stored version string against model.Version.
func (db *Database) loadGroups() error {
	var f groupsFile
	if err := readJSON(db.groupsPath(), &f); err != nil {
		return err
	}

	for name, records := range f {
		g := newGroup(db, name)
		for _, rec := range records {
			pkg := model.Package{
				Name:    rec.Package.Name,
				Version: rec.Package.Version,
				Source:  model.SourceIdentity(rec.Package.Source),
			}
			g.entries[keyOf(pkg)] = InstalledEntry{Package: pkg, Config: rec.Config}
		}
		db.groups[name] = g
	}
	return nil
}

// saveGroupsLocked persists every group's installed set to groups.json.
// Callers must hold g.mu; this function additionally locks db.mu to
// snapshot sibling groups, never the reverse order, to avoid deadlock.
func (db *Database) saveGroupsLocked(changed *PackageGroup) error {
	db.mu.Lock()
	groups := make([]*PackageGroup, 0, len(db.groups))
	for _, g := range db.groups {
		groups = append(groups, g)
	}
	db.mu.Unlock()

	f := groupsFile{}
	for _, g := range groups {
		var entries map[installKey]InstalledEntry
		if g == changed {
			entries = g.entries
		} else {
			g.mu.Lock()
			entries = g.entries
			g.mu.Unlock()
		}

		records := make([]installRecord, 0, len(entries))
		for _, e := range entries {
			var rec installRecord
			rec.Package.Name = e.Package.Name
			rec.Package.Version = e.Package.Version
			rec.Package.Source = string(e.Package.Source)
			rec.Config = e.Config
			records = append(records, rec)
		}
		f[g.name] = records
	}

	return writeAtomic(db.groupsPath(), f)
}
