// Package main provides the hessian CLI entrypoint.
//
// Usage:
//
//	hessian <command> [options] [input...]
//
// Exit codes for decode, inspect and ingest:
//   - 0: every byte decoded into complete messages
//   - 1: corrupt input, or invalid flags and config
//   - 2: input ended inside a message or frame
//   - 3: delivery failure or cancellation
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hessian/cli/cmd"
	"github.com/justapithecus/hessian/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "hessian",
		Usage:          "Incremental Hessian 2.0 stream decoder",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.DecodeCommand(),
			cmd.InspectCommand(),
			cmd.IngestCommand(),
			cmd.SummaryCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		os.Exit(1)
	}
}

// exitErrHandler prints the error, if it has anything to say, and exits
// with its code.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

// exitStatus maps an action error to an exit code and the line to print.
// cli.Exit codes pass through; their empty or "exit status N" messages are
// dropped. Any other error exits 1.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if !errors.As(err, &exitCoder) {
		return 1, "Error: " + err.Error()
	}
	code, msg := exitCoder.ExitCode(), exitCoder.Error()
	if msg == fmt.Sprintf("exit status %d", code) {
		msg = ""
	}
	return code, msg
}
