// Package source implements a package source: a named, synchronizable
// git-mirror index of packages, with in-place mirror updates guarded by a
// per-host circuit breaker and backoff (a failed first clone removes the
// partial mirror; a failed pull is not rolled back), and an in-memory
// metadata cache
// refreshed on each reindex.
package source

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cperrin88/ralph/pkg/gitremote"

	lru "github.com/hashicorp/golang-lru/v2"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
	"github.com/cperrin88/ralph/pkg/model"
	"github.com/cperrin88/ralph/pkg/task"
)

// State is a source's position in its update state machine:
//
//	Registered -- update() success --> Ready
//	Registered -- update() failure --> Registered
//	Ready      -- update()         --> Ready | Registered
//	any        -- unregister()     --> Gone
type State int

const (
	StateRegistered State = iota
	StateUpdating
	StateReady
	StateGone
)

func (st State) String() string {
	switch st {
	case StateRegistered:
		return "registered"
	case StateUpdating:
		return "updating"
	case StateReady:
		return "ready"
	case StateGone:
		return "gone"
	default:
		return "unknown"
	}
}

// TypeGit is the only source type recognized in v0.1.
const TypeGit = "git"

// Source is a named git-mirror package index.
type Source struct {
	name      string
	srcType   string
	url       string
	mirrorDir string

	mu            sync.Mutex
	state         State
	lastUpdated   time.Time
	branch        string
	repo          *gitremote.Repository
	packages      map[string][]model.Package
	metadataCache *lru.Cache[string, metadataCacheEntry]
}

// New constructs a Source of type git in the Registered state. mirrorDir
// need not exist yet; Update creates it via an initial clone.
func New(name, url, mirrorDir string) *Source {
	src, _ := Restore(name, TypeGit, url, mirrorDir, time.Time{})
	return src
}

// Restore reconstructs a previously registered Source from persisted
// state: lastUpdated zero puts it back in Registered, non-zero puts it
// back in Ready and reindexes the already-cloned mirror directory, so a
// reloaded database does not forget a prior successful sync and its
// packages stay queryable without a fresh Update in the new process.
func Restore(name, srcType, url, mirrorDir string, lastUpdated time.Time) (*Source, error) {
	state := StateRegistered
	if !lastUpdated.IsZero() {
		state = StateReady
	}
	s := &Source{
		name:          name,
		srcType:       srcType,
		url:           url,
		mirrorDir:     mirrorDir,
		state:         state,
		lastUpdated:   lastUpdated,
		metadataCache: newMetadataCache(),
		packages:      make(map[string][]model.Package),
	}
	if state == StateReady {
		if err := s.reindex(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name returns the source's unique name.
func (s *Source) Name() string { return s.name }

// Type returns the source's type tag ("git" in v0.1).
func (s *Source) Type() string { return s.srcType }

// URL returns the source's remote URL.
func (s *Source) URL() string { return s.url }

// MirrorDir returns the local working directory backing the mirror.
func (s *Source) MirrorDir() string { return s.mirrorDir }

// State returns the source's current lifecycle state.
func (s *Source) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastUpdated returns the walltime of the last successful update, or the
// zero time if the source has never updated successfully.
func (s *Source) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

// Gone marks the source as unregistered. The mirror directory removal is
// the caller's responsibility (the owning database deletes R/sources/<name>).
func (s *Source) Gone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateGone
}

// Update clones the mirror if absent, otherwise pulls it, then reindexes
// local metadata and advances lastUpdated. A failed update leaves
// lastUpdated unchanged and returns the source to Registered.
func (s *Source) Update(ctx context.Context) task.Future[struct{}] {
	return task.Async(ctx, func(ctx context.Context, n task.Notifier) (struct{}, error) {
		s.mu.Lock()
		if s.state == StateGone {
			s.mu.Unlock()
			return struct{}{}, ralpherrors.New(ralpherrors.KindUnknownSource, "source %q is unregistered", s.name)
		}
		s.state = StateUpdating
		s.mu.Unlock()

		err := s.runSync(ctx, n)

		s.mu.Lock()
		if err != nil {
			s.state = StateRegistered
		} else {
			s.state = StateReady
			s.lastUpdated = time.Now().UTC()
		}
		s.mu.Unlock()

		return struct{}{}, err
	})
}

func (s *Source) runSync(ctx context.Context, n task.Notifier) error {
	breaker := getBreaker(s.url)
	if !breaker.Ready() {
		return ralpherrors.New(ralpherrors.KindNetwork, "circuit open for %s", hostOf(s.url))
	}

	err := breaker.Call(func() error {
		return retryWithBackoff(ctx, func() error {
			return s.syncOnce(ctx, n)
		})
	}, 0)
	if err != nil {
		return err
	}

	return s.reindex()
}

func (s *Source) syncOnce(ctx context.Context, n task.Notifier) error {
	if _, statErr := os.Stat(s.mirrorDir); os.IsNotExist(statErr) {
		cloneFuture := gitremote.Clone(ctx, s.mirrorDir, s.url)
		if err := n.Await(ctx, cloneFuture); err != nil {
			return err
		}
		repo, err := task.AwaitBlocking(ctx, cloneFuture)
		if err != nil {
			return err
		}

		branch, err := repo.HeadBranch()
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.repo = repo
		s.branch = branch
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	repo := s.repo
	branch := s.branch
	s.mu.Unlock()

	if repo == nil {
		openFuture := gitremote.Open(ctx, s.mirrorDir)
		if err := n.Await(ctx, openFuture); err != nil {
			return err
		}
		opened, err := task.AwaitBlocking(ctx, openFuture)
		if err != nil {
			return err
		}
		repo = opened

		resolvedBranch, err := repo.HeadBranch()
		if err != nil {
			return err
		}
		branch = resolvedBranch

		s.mu.Lock()
		s.repo = repo
		s.branch = branch
		s.mu.Unlock()
	}

	pullFuture := repo.Pull(ctx, branch)
	return n.Await(ctx, pullFuture)
}

func (s *Source) setPackages(byName map[string][]model.Package) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages = byName
}

// Packages enumerates every package indexed from the mirror.
func (s *Source) Packages() []model.Package {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []model.Package
	for _, versions := range s.packages {
		all = append(all, versions...)
	}
	return all
}

// FindPackages returns packages named exactly name whose version
// satisfies req, ascending by version.
func (s *Source) FindPackages(name string, req model.VersionRequirement) []model.Package {
	s.mu.Lock()
	versions := s.packages[name]
	s.mu.Unlock()

	matches := make([]model.Package, 0, len(versions))
	for _, p := range versions {
		if req.Satisfies(p.Version) {
			matches = append(matches, p)
		}
	}
	return matches
}
