// Package gdal shells out to the GDAL/OGR command-line tools. Every external
// invocation in the pipeline goes through the Runner interface so that command
// construction can be tested and the process boundary stays in one place.
package gdal

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Command describes one external tool invocation.
type Command struct {
	Bin   string
	Args  []string
	Stdin io.Reader
}

// Result carries the captured output of a completed invocation.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes external commands. The production implementation is
// ExecRunner; tests substitute a recording fake.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands through os/exec, blocking until exit.
type ExecRunner struct{}

// Run executes the command and captures stdout and stderr. A non-zero exit
// wraps the captured stderr into the returned error.
func (ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Bin, cmd.Args...)
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	zap.L().Debug("external tool run",
		zap.String("bin", cmd.Bin),
		zap.Strings("args", cmd.Args),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil),
	)

	if err != nil {
		return res, eris.Wrapf(err, "gdal: %s failed: %s", cmd.Bin, stderr.String())
	}
	if stderr.Len() > 0 {
		zap.L().Warn("external tool wrote to stderr",
			zap.String("bin", cmd.Bin),
			zap.String("stderr", stderr.String()),
		)
	}
	return res, nil
}
