package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
	"github.com/cperrin88/ralph/pkg/logger"
	"github.com/sirupsen/logrus"
)

// BuildSystemEmitter writes the build-system scaffold for a newly created
// project into dir. The CLI only depends on this narrow interface; the
// implementations are chosen by name in buildSystemEmitterFor, which
// knows a built-in CMake emitter and a no-op for "none".
type BuildSystemEmitter interface {
	Emit(dir, name string) error
}

// VersionControlInitializer initializes a version-control working copy
// rooted at dir for a newly created project.
type VersionControlInitializer interface {
	Init(dir string) error
}

type cmakeEmitter struct{}

func (cmakeEmitter) Emit(dir, name string) error {
	content := fmt.Sprintf(`cmake_minimum_required(VERSION 3.20)
project(%s)

# Packages acquired via "ralph install" are vendored under vendor/ at
# this project's root; point include/link paths there as needed.
`, name)
	return os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte(content), 0o644)
}

type noBuildSystem struct{}

func (noBuildSystem) Emit(string, string) error { return nil }

func buildSystemEmitterFor(name string) (BuildSystemEmitter, error) {
	switch name {
	case "", "none":
		return noBuildSystem{}, nil
	case "cmake":
		return cmakeEmitter{}, nil
	default:
		return nil, ralpherrors.New(ralpherrors.KindBadArgument, "unsupported --build-system %q", name)
	}
}

type gitInitializer struct{}

func (gitInitializer) Init(dir string) error {
	_, err := git.PlainInit(dir, false)
	if err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindGitFailure, "initializing git repository")
	}
	return nil
}

type noVersionControl struct{}

func (noVersionControl) Init(string) error { return nil }

func vcsInitializerFor(name string) (VersionControlInitializer, error) {
	switch name {
	case "", "none":
		return noVersionControl{}, nil
	case "git":
		return gitInitializer{}, nil
	default:
		return nil, ralpherrors.New(ralpherrors.KindBadArgument, "unsupported --version-control-system %q", name)
	}
}

// NewNewCmd creates the new command.
func NewNewCmd() *cobra.Command {
	var (
		buildSystem string
		vcs         string
	)

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Scaffold a new project directory",
		Long:  "Create a new project directory with a vendor/ tree ready for \"ralph install\", an optional build-system file, and an optional version-control working copy.",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&buildSystem, "build-system", "", "build system to scaffold (cmake, or omit for none)")
	cmd.Flags().StringVar(&vcs, "version-control-system", "", "version control system to initialize (git, or omit for none)")

	cmd.RunE = func(_ *cobra.Command, args []string) error {
		return runNew(args[0], buildSystem, vcs)
	}
	return cmd
}

func runNew(name, buildSystem, vcs string) error {
	emitter, err := buildSystemEmitterFor(buildSystem)
	if err != nil {
		return err
	}
	initVCS, err := vcsInitializerFor(vcs)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(name, "vendor"), 0o750); err != nil {
		return ralpherrors.Wrap(err, ralpherrors.KindFilesystem, "creating project directory")
	}

	if err := emitter.Emit(name, name); err != nil {
		return fmt.Errorf("emitting build system scaffold: %w", err)
	}
	if err := initVCS.Init(name); err != nil {
		return fmt.Errorf("initializing version control: %w", err)
	}

	logger.Success("Project created", logrus.Fields{"name": name, "build_system": buildSystem, "vcs": vcs})
	return nil
}
