// Package cmd provides CLI commands for the hessian binary.
package cmd

import (
	"github.com/urfave/cli/v2"
)

// Shared output and decoder flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for inspect and summary.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, summary only)",
	}

	// ConfigFlag points at a hessian.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file (default ./hessian.yaml when present)",
	}

	// LogLevelFlag filters session logs written to stderr.
	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Session log level: debug, info, warn, error",
		Value: "warn",
	}
)

// OutputFlags returns the rendering flags shared by every command that
// prints a result. --tui is always accepted so that commands without a TUI
// can reject it with a clear message.
func OutputFlags() []cli.Flag {
	return []cli.Flag{FormatFlag, NoColorFlag, TUIFlag}
}

// DecoderFlags returns the flags that configure the decoder.
func DecoderFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		LogLevelFlag,
		&cli.StringFlag{
			Name:  "scope",
			Usage: "Reference and definition table scope: message or stream",
			Value: "message",
		},
		&cli.BoolFlag{
			Name:  "framed",
			Usage: "Input is 4-byte length-prefixed frames",
		},
		&cli.IntFlag{
			Name:  "max-depth",
			Usage: "Maximum nesting depth (0 = unbounded)",
		},
	}
}
