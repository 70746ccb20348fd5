package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hessian/cli/config"
	"github.com/justapithecus/hessian/hessian"
	"github.com/justapithecus/hessian/iox"
	"github.com/justapithecus/hessian/log"
	"github.com/justapithecus/hessian/policy"
	"github.com/justapithecus/hessian/runtime"
	"github.com/justapithecus/hessian/types"
)

// decodeChoice holds the resolved decoder settings for one command.
type decodeChoice struct {
	scope    hessian.Scope
	framed   bool
	maxDepth int
	logLevel string
}

// resolveDecodeChoice merges the decoder flags with the config file.
func resolveDecodeChoice(c *cli.Context, cfg *config.Config) (decodeChoice, error) {
	scopeName := resolveString(c, "scope", configVal(cfg, func(c *config.Config) string { return c.Decoder.Scope }))
	scope, err := hessian.ParseScope(scopeName)
	if err != nil {
		return decodeChoice{}, cli.Exit(err.Error(), 1)
	}
	maxDepth := resolveInt(c, "max-depth", configVal(cfg, func(c *config.Config) int { return c.Decoder.MaxDepth }))
	if maxDepth < 0 {
		return decodeChoice{}, cli.Exit("--max-depth must be >= 0", 1)
	}
	return decodeChoice{
		scope:    scope,
		framed:   resolveBool(c, "framed", configVal(cfg, func(c *config.Config) bool { return c.Decoder.Framed })),
		maxDepth: maxDepth,
		logLevel: c.String("log-level"),
	}, nil
}

func (d decodeChoice) ingestion(buildValues bool) runtime.IngestionConfig {
	return runtime.IngestionConfig{
		Framed:      d.framed,
		Scope:       d.scope,
		MaxDepth:    d.maxDepth,
		BuildValues: buildValues,
	}
}

// sessionLogger writes session logs to the app's error writer.
func sessionLogger(c *cli.Context, meta *types.SessionMeta, level string) *log.Logger {
	w := c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	return log.NewLoggerWithWriter(meta, w).WithLevel(level)
}

// singleInput returns the one input argument; "-" or none reads stdin.
func singleInput(c *cli.Context) (string, error) {
	switch c.NArg() {
	case 0:
		return "-", nil
	case 1:
		return c.Args().First(), nil
	default:
		return "", cli.Exit(fmt.Sprintf("%s takes a single input, got %d", c.Command.Name, c.NArg()), 1)
	}
}

// sourceLabel names an input for metadata.
func sourceLabel(path string) string {
	if path == "-" || path == "" {
		return "stdin"
	}
	return path
}

// decodeLocal runs a storage-free session over path. Events go to pol.
func decodeLocal(c *cli.Context, path string, choice decodeChoice, pol policy.Policy) (*runtime.SessionResult, error) {
	in, err := iox.OpenInput(path)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("failed to open input: %v", err), 1)
	}
	defer iox.DiscardClose(in)

	meta := &types.SessionMeta{
		Source: sourceLabel(path),
		Scope:  choice.scope.String(),
	}
	session, err := runtime.NewSession(&runtime.SessionConfig{
		Meta:      meta,
		Input:     in,
		Ingestion: choice.ingestion(true),
		Policy:    pol,
		Logger:    sessionLogger(c, meta, choice.logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	ctx, cancel := signalContext(c.Context)
	defer cancel()
	return session.Run(ctx)
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// outcomeExit converts a finished session into the command's exit error.
func outcomeExit(result *runtime.SessionResult) error {
	code := runtime.ExitCodeFor(result.Outcome.Status)
	if code == runtime.ExitCodeCompleted {
		return nil
	}
	return cli.Exit(fmt.Sprintf("%s: %s", result.Outcome.Status, result.Outcome.Message), code)
}
