// Package gitremote wraps a local git working directory with the
// clone/fetch/checkout/submodule operations the rest of ralph needs,
// each returning a task.Future so progress and cancellation compose with
// the rest of the async task abstraction.
package gitremote

import (
	"context"
	"errors"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/cperrin88/ralph/pkg/credential"
	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
	"github.com/cperrin88/ralph/pkg/task"
)

// gitFailureCode classifies err against the go-git sentinels worth
// distinguishing in the CLI's error output, falling back to "" for
// anything else (still reported, just without a specific code).
func gitFailureCode(err error) string {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired):
		return "auth_required"
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return "repository_not_found"
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return "non_fast_forward"
	default:
		return ""
	}
}

// DefaultAllowedAuth is the credential types ralph asks the broker to try,
// in order, for an unauthenticated git operation.
var DefaultAllowedAuth = []credential.Type{credential.Default, credential.UsernamePassword, credential.SSHKey}

// Repository wraps an open git working directory.
type Repository struct {
	dir  string
	repo *git.Repository
}

// Dir returns the repository's working directory path.
func (r *Repository) Dir() string { return r.dir }

// HeadBranch returns the short name of the branch HEAD currently points
// at, e.g. "main".
func (r *Repository) HeadBranch() (string, error) {
	h, err := r.repo.Head()
	if err != nil {
		return "", ralpherrors.GitFailure("failed to resolve HEAD", gitFailureCode(err), err)
	}
	return h.Name().Short(), nil
}

func authMethodFor(url string) (transport.AuthMethod, error) {
	return credential.ToAuthMethod(url, "", DefaultAllowedAuth)
}

// Init creates an empty repository at dir.
func Init(ctx context.Context, dir string) task.Future[*Repository] {
	return task.Async(ctx, func(ctx context.Context, n task.Notifier) (*Repository, error) {
		installDNSCacheTransport()
		repo, err := git.PlainInit(dir, false)
		if err != nil {
			return nil, ralpherrors.GitFailure("failed to init repository", gitFailureCode(err), err)
		}
		return &Repository{dir: dir, repo: repo}, nil
	})
}

// Open opens an existing repository at dir without discovery up the
// directory tree.
func Open(ctx context.Context, dir string) task.Future[*Repository] {
	return task.Async(ctx, func(ctx context.Context, n task.Notifier) (*Repository, error) {
		installDNSCacheTransport()
		repo, err := git.PlainOpen(dir)
		if err != nil {
			return nil, ralpherrors.GitFailure("failed to open repository", gitFailureCode(err), err)
		}
		return &Repository{dir: dir, repo: repo}, nil
	})
}

// Clone performs an initial clone of url into dir with checkout strategy
// "force, prefer theirs". Progress is reported for the fetch phase; the
// checkout phase follows as part of the same unified stream.
func Clone(ctx context.Context, dir, url string) task.Future[*Repository] {
	return task.Async(ctx, func(ctx context.Context, n task.Notifier) (*Repository, error) {
		installDNSCacheTransport()
		auth, err := authMethodFor(url)
		if err != nil {
			return nil, err
		}

		sink := newProgressSink(n, "Fetching")
		repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:      url,
			Auth:     auth,
			Progress: sink,
		})
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, ralpherrors.GitFailure("failed to clone repository", gitFailureCode(err), err)
		}

		n.SetStatus("CheckingOut")
		return &Repository{dir: dir, repo: repo}, nil
	})
}

// Fetch fetches from the "origin" remote, funneling authentication
// through the credential broker.
func (r *Repository) Fetch(ctx context.Context) task.Future[struct{}] {
	return task.Async(ctx, func(ctx context.Context, n task.Notifier) (struct{}, error) {
		installDNSCacheTransport()
		remote, err := r.repo.Remote("origin")
		if err != nil {
			return struct{}{}, ralpherrors.GitFailure("no origin remote", gitFailureCode(err), err)
		}

		var url string
		if len(remote.Config().URLs) > 0 {
			url = remote.Config().URLs[0]
		}
		auth, err := authMethodFor(url)
		if err != nil {
			return struct{}{}, err
		}

		sink := newProgressSink(n, "Fetching")
		err = r.repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: "origin",
			Auth:       auth,
			Progress:   sink,
			Force:      true,
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return struct{}{}, ralpherrors.GitFailure("failed to fetch", gitFailureCode(err), err)
		}
		return struct{}{}, nil
	})
}

// Checkout performs a hard checkout of ref (branch, tag or sha) using
// "force, prefer theirs".
func (r *Repository) Checkout(ctx context.Context, ref string) task.Future[struct{}] {
	return task.Async(ctx, func(ctx context.Context, n task.Notifier) (struct{}, error) {
		n.SetStatus("CheckingOut")
		if err := hardCheckout(r.repo, ref); err != nil {
			return struct{}{}, ralpherrors.GitFailure("failed to checkout "+ref, gitFailureCode(err), err)
		}
		return struct{}{}, nil
	})
}

// Pull fetches then checks out ref, delegated as one progress stream. A
// cancellation requested after the fetch completes but before checkout
// starts is honored: checkout never begins.
func (r *Repository) Pull(ctx context.Context, ref string) task.Future[struct{}] {
	return task.Async(ctx, func(ctx context.Context, n task.Notifier) (struct{}, error) {
		if err := n.Await(ctx, r.Fetch(ctx)); err != nil {
			return struct{}{}, err
		}
		if n.CancellationRequested() {
			return struct{}{}, ralpherrors.New(ralpherrors.KindCanceled, "pull canceled after fetch")
		}
		if err := n.Await(ctx, r.Checkout(ctx, ref)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
}

// SubmodulesUpdate iterates all submodules, updating each with the same
// fetch+checkout policy, optionally initializing uninitialized ones.
func (r *Repository) SubmodulesUpdate(ctx context.Context, initialize bool) task.Future[struct{}] {
	return task.Async(ctx, func(ctx context.Context, n task.Notifier) (struct{}, error) {
		wt, err := r.repo.Worktree()
		if err != nil {
			return struct{}{}, ralpherrors.GitFailure("failed to open worktree", gitFailureCode(err), err)
		}
		submodules, err := wt.Submodules()
		if err != nil {
			return struct{}{}, ralpherrors.GitFailure("failed to list submodules", gitFailureCode(err), err)
		}

		n.SetStatus("UpdatingSubmodules")
		total := int64(len(submodules))
		for i, sub := range submodules {
			n.Progress(int64(i), total)
			if n.CancellationRequested() {
				return struct{}{}, ralpherrors.New(ralpherrors.KindCanceled, "submodule update canceled")
			}
			if err := sub.UpdateContext(ctx, &git.SubmoduleUpdateOptions{
				Init:  initialize,
				Force: true,
			}); err != nil {
				return struct{}{}, ralpherrors.GitFailure("failed to update submodule "+sub.Config().Name, gitFailureCode(err), err)
			}
		}
		n.Progress(total, total)
		return struct{}{}, nil
	})
}

// hardCheckout resolves ref to a commit and force-checks out the
// worktree onto it, discarding local changes ("prefer theirs").
func hardCheckout(repo *git.Repository, ref string) error {
	hash, err := resolveRevision(repo, ref)
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return err
	}

	return wt.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	})
}

func resolveRevision(repo *git.Repository, ref string) (*plumbing.Hash, error) {
	// Prefer the freshly fetched remote-tracking ref, since the local
	// branch ref is only advanced by checkout itself, not by fetch.
	if h, err := repo.ResolveRevision(plumbing.Revision("refs/remotes/origin/" + ref)); err == nil {
		return h, nil
	}
	return repo.ResolveRevision(plumbing.Revision(ref))
}
