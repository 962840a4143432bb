package patch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nativelibs/tpbuild/internal/command"
	"github.com/nativelibs/tpbuild/internal/logfields"
)

// GitApply applies patches with `git apply`, which works outside of a git
// repository and refuses to apply a diff that does not match cleanly.
// A patch whose reverse applies cleanly is treated as already applied, so a
// source tree kept from an earlier run is accepted as is.
type GitApply struct {
	Runner command.Runner
	Logger *slog.Logger
}

// NewGitApply returns a GitApply backed by runner.
func NewGitApply(runner command.Runner, logger *slog.Logger) *GitApply {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitApply{Runner: runner, Logger: logger}
}

// ApplyPatch applies patchFile with paths resolved relative to workingDir.
func (g *GitApply) ApplyPatch(ctx context.Context, patchFile, workingDir string) error {
	if _, err := os.Stat(patchFile); err != nil {
		return fmt.Errorf("patch file %s: %w", patchFile, err)
	}

	_, err := g.git(ctx, workingDir, "apply", "--ignore-whitespace", "--whitespace=nowarn", patchFile)
	if err == nil {
		g.Logger.Info("Applied patch", logfields.Path(patchFile))
		return nil
	}

	var exitErr *command.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("applying patch %s: %w", patchFile, err)
	}
	if _, revErr := g.git(ctx, workingDir, "apply", "--ignore-whitespace", "--reverse", "--check", patchFile); revErr == nil {
		g.Logger.Info("Patch already applied", logfields.Path(patchFile))
		return nil
	}
	return fmt.Errorf("applying patch %s: %w", patchFile, err)
}

func (g *GitApply) git(ctx context.Context, dir string, args ...string) (*command.Output, error) {
	return g.Runner.Run(ctx, command.Command{Name: "git", Args: args, Dir: dir})
}
