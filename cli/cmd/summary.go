package cmd

import (
	"errors"
	"fmt"

	lodelib "github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/hessian/cli/config"
	"github.com/justapithecus/hessian/cli/render"
	"github.com/justapithecus/hessian/cli/tui"
	"github.com/justapithecus/hessian/lode"
)

// SummaryCommand returns the summary command.
// Summary reads the latest stored session summary. It never decodes.
func SummaryCommand() *cli.Command {
	flags := append(OutputFlags(),
		ConfigFlag,
		&cli.StringFlag{
			Name:  "session-id",
			Usage: "Session ID to look up (default: latest)",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Restrict to sessions of this source",
		},
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Storage backend: fs, s3",
			Value: "fs",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Storage root: directory (fs) or bucket/prefix (s3)",
			Value: "./hessian-data",
		},
		&cli.StringFlag{
			Name:  "storage-dataset",
			Usage: "Dataset name",
			Value: lode.DefaultDataset,
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "S3 region (default: AWS default chain)",
		},
		&cli.StringFlag{
			Name:  "storage-endpoint",
			Usage: "S3-compatible endpoint URL",
		},
		&cli.BoolFlag{
			Name:  "storage-s3-path-style",
			Usage: "Force S3 path-style addressing",
		},
	)
	return &cli.Command{
		Name:   "summary",
		Usage:  "Show the latest stored session summary",
		Flags:  flags,
		Action: summaryAction,
	}
}

func summaryAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ds, err := openReadDataset(c, cfg)
	if err != nil {
		return err
	}

	summary, err := lode.QueryLatestSummary(c.Context, ds, c.String("session-id"),
		resolveString(c, "source", configVal(cfg, func(c *config.Config) string { return c.Source })))
	if errors.Is(err, lode.ErrNoSummaryFound) {
		return cli.Exit("no session summary found", 1)
	}
	if err != nil {
		return fmt.Errorf("failed to read summary: %w", err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsSession, summary)
	}
	return r.Render(summary)
}

func openReadDataset(c *cli.Context, cfg *config.Config) (lodelib.Dataset, error) {
	storage := storageChoice{
		backend:   resolveString(c, "storage-backend", configVal(cfg, func(c *config.Config) string { return c.Storage.Backend })),
		path:      resolveString(c, "storage-path", configVal(cfg, func(c *config.Config) string { return c.Storage.Path })),
		dataset:   resolveString(c, "storage-dataset", configVal(cfg, func(c *config.Config) string { return c.Storage.Dataset })),
		region:    resolveString(c, "storage-region", configVal(cfg, func(c *config.Config) string { return c.Storage.Region })),
		endpoint:  resolveString(c, "storage-endpoint", configVal(cfg, func(c *config.Config) string { return c.Storage.Endpoint })),
		pathStyle: resolveBool(c, "storage-s3-path-style", configVal(cfg, func(c *config.Config) bool { return c.Storage.S3PathStyle })),
	}

	var (
		ds  lodelib.Dataset
		err error
	)
	switch storage.backend {
	case "fs":
		ds, err = lode.NewReadDatasetFS(storage.dataset, storage.path)
	case "s3":
		ds, err = lode.NewReadDatasetS3(c.Context, storage.dataset, storage.s3Config())
	default:
		return nil, cli.Exit(fmt.Sprintf("summary cannot read storage backend %q", storage.backend), 1)
	}
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("failed to open dataset: %v", err), 1)
	}
	return ds, nil
}
