package acquire

import (
	"context"

	"github.com/cperrin88/ralph/pkg/database"
	"github.com/cperrin88/ralph/pkg/hooks"
	"github.com/cperrin88/ralph/pkg/model"
	"github.com/cperrin88/ralph/pkg/task"
)

// Pipeline drives install, remove and check batches against a single
// Database: resolving queries, mutating the target group, and firing a
// resolved package's declared hooks around each install/remove step.
type Pipeline struct {
	db             *database.Database
	newHookManager func() hooks.HookManager
}

// NewPipeline constructs a Pipeline targeting db, firing hooks through
// freshly built hooks.HookManager instances.
func NewPipeline(db *database.Database) *Pipeline {
	return &Pipeline{
		db:             db,
		newHookManager: func() hooks.HookManager { return hooks.NewHookManager() },
	}
}

// NewPipelineWithHookFactory is NewPipeline with an overridable hook
// manager constructor, for tests that need to observe or stub hook
// execution.
func NewPipelineWithHookFactory(db *database.Database, newHookManager func() hooks.HookManager) *Pipeline {
	return &Pipeline{db: db, newHookManager: newHookManager}
}

// loadHooks builds a hook manager preloaded with every hook pkg declares
// in its metadata. Executing a hook type pkg did not declare is a no-op.
func (p *Pipeline) loadHooks(pkg model.Package) hooks.HookManager {
	m := p.newHookManager()
	for hookType, content := range pkg.Hooks {
		_ = m.AddHook(hooks.Hook{Type: hooks.HookType(hookType), Content: content})
	}
	return m
}

func hookContext(pkg model.Package, vars map[string]interface{}) hooks.HookContext {
	return hooks.HookContext{
		PackageName:    pkg.Name,
		PackageVersion: pkg.Version.String(),
		Vars:           vars,
	}
}

// Install resolves each query in queries against the pipeline's database
// and installs the resolved package into group with configuration cfg,
// firing the package's declared pre-install/post-install hooks around the
// installation step. Per spec, a failed query does not abort the batch:
// every query is attempted and its outcome recorded independently.
func (p *Pipeline) Install(ctx context.Context, group string, queries []string, cfg model.PackageConfiguration) (*Result, error) {
	futures := make([]task.Future[PackageOutcome], len(queries))
	for i, query := range queries {
		query := query
		futures[i] = task.Async(ctx, func(ctx context.Context, n task.Notifier) (PackageOutcome, error) {
			return p.installOne(ctx, group, query, cfg), nil
		})
	}

	outcomes := make([]PackageOutcome, len(queries))
	for i, f := range futures {
		outcome, err := task.AwaitBlocking(ctx, f)
		if err != nil {
			outcome = PackageOutcome{Query: queries[i], Err: err}
		}
		outcomes[i] = outcome
	}
	return &Result{Outcomes: outcomes}, nil
}

func (p *Pipeline) installOne(ctx context.Context, group, query string, cfg model.PackageConfiguration) PackageOutcome {
	pkg, err := Resolve(ctx, p.db, query)
	if err != nil {
		return PackageOutcome{Query: query, Err: err}
	}

	hm := p.loadHooks(pkg)
	cfgVars := make(map[string]interface{}, len(cfg))
	for k, v := range cfg {
		cfgVars[k] = v
	}
	hctx := hookContext(pkg, map[string]interface{}{"config": cfgVars})

	if err := hm.Execute(hooks.PreInstall, hctx); err != nil {
		return PackageOutcome{Query: query, Package: pkg, Err: err}
	}
	if err := p.db.Group(group).Install(pkg, cfg); err != nil {
		return PackageOutcome{Query: query, Package: pkg, Err: err}
	}
	if err := hm.Execute(hooks.PostInstall, hctx); err != nil {
		return PackageOutcome{Query: query, Package: pkg, Err: err}
	}
	return PackageOutcome{Query: query, Package: pkg}
}

// Remove resolves each query against the pipeline's database and removes
// the resolved package from group, firing pre-remove/post-remove hooks
// around the removal step. Removing a package that is not installed is
// not an error (per PackageGroup.Remove).
func (p *Pipeline) Remove(ctx context.Context, group string, queries []string) (*Result, error) {
	futures := make([]task.Future[PackageOutcome], len(queries))
	for i, query := range queries {
		query := query
		futures[i] = task.Async(ctx, func(ctx context.Context, n task.Notifier) (PackageOutcome, error) {
			return p.removeOne(ctx, group, query), nil
		})
	}

	outcomes := make([]PackageOutcome, len(queries))
	for i, f := range futures {
		outcome, err := task.AwaitBlocking(ctx, f)
		if err != nil {
			outcome = PackageOutcome{Query: queries[i], Err: err}
		}
		outcomes[i] = outcome
	}
	return &Result{Outcomes: outcomes}, nil
}

func (p *Pipeline) removeOne(ctx context.Context, group, query string) PackageOutcome {
	pkg, err := Resolve(ctx, p.db, query)
	if err != nil {
		return PackageOutcome{Query: query, Err: err}
	}

	hm := p.loadHooks(pkg)
	hctx := hookContext(pkg, nil)

	if err := hm.Execute(hooks.PreRemove, hctx); err != nil {
		return PackageOutcome{Query: query, Package: pkg, Err: err}
	}
	if err := p.db.Group(group).Remove(pkg); err != nil {
		return PackageOutcome{Query: query, Package: pkg, Err: err}
	}
	if err := hm.Execute(hooks.PostRemove, hctx); err != nil {
		return PackageOutcome{Query: query, Package: pkg, Err: err}
	}
	return PackageOutcome{Query: query, Package: pkg}
}

// Check resolves each query and reports whether the resolved package is a
// member of group's installed set. It touches no network and fires no
// hooks.
func (p *Pipeline) Check(ctx context.Context, group string, queries []string) (*Result, error) {
	outcomes := make([]PackageOutcome, len(queries))
	for i, query := range queries {
		pkg, err := Resolve(ctx, p.db, query)
		if err != nil {
			outcomes[i] = PackageOutcome{Query: query, Err: err}
			continue
		}
		if !p.db.Group(group).IsInstalled(pkg) {
			outcomes[i] = PackageOutcome{
				Query:   query,
				Package: pkg,
				Err:     notInstalledError(pkg),
			}
			continue
		}
		outcomes[i] = PackageOutcome{Query: query, Package: pkg}
	}
	return &Result{Outcomes: outcomes}, nil
}
