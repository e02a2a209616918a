// Package evaluator runs generated ECMAScript text. No JavaScript engine
// exists anywhere in the surrounding dependency stack, so the evaluator is
// necessarily an opaque boundary: it shells out to a node binary on PATH if
// one is present, and reports a clear error otherwise rather than silently
// no-oping.
package evaluator

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/indentscript/isc/transpile"
)

// ErrNoRuntime is returned when no JavaScript runtime is available on PATH.
var ErrNoRuntime = errors.New("evaluator: no node binary found on PATH")

// Execute transpiles source and runs the result with the runtime named by
// runtimeName ("node" in the common case), returning its combined output.
func Execute(ctx context.Context, source, runtimeName string) (string, error) {
	target, err := transpile.Transpile(source)
	if err != nil {
		return "", err
	}
	return Run(ctx, target, runtimeName)
}

// Run hands already-generated target text to runtimeName for execution.
func Run(ctx context.Context, target, runtimeName string) (string, error) {
	path, err := exec.LookPath(runtimeName)
	if err != nil {
		return "", ErrNoRuntime
	}

	cmd := exec.CommandContext(ctx, path, "-")
	cmd.Stdin = bytes.NewBufferString(target)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.String(), err
	}
	return out.String(), nil
}
