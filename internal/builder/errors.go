package builder

import (
	"fmt"

	"github.com/nativelibs/tpbuild/internal/target"
)

// Stage names a step of the per-target pipeline.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StagePatch   Stage = "patch"
	StageBuild   Stage = "build"
	StageHeaders Stage = "headers"
)

// StageError reports which pipeline step failed for which target.
type StageError struct {
	Target target.Target
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Target, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
