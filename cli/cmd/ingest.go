package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/hessian/adapter"
	"github.com/justapithecus/hessian/adapter/redis"
	"github.com/justapithecus/hessian/adapter/webhook"
	"github.com/justapithecus/hessian/cli/config"
	"github.com/justapithecus/hessian/iox"
	"github.com/justapithecus/hessian/ipc"
	"github.com/justapithecus/hessian/lode"
	"github.com/justapithecus/hessian/log"
	"github.com/justapithecus/hessian/metrics"
	"github.com/justapithecus/hessian/policy"
	"github.com/justapithecus/hessian/runtime"
	"github.com/justapithecus/hessian/types"
)

// IngestCommand returns the ingest command.
// Ingest decodes one or more inputs and persists their event records,
// one session per input.
func IngestCommand() *cli.Command {
	flags := append([]cli.Flag{}, DecoderFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "source",
			Usage: "Source label recorded with every event (default: input path)",
		},
		&cli.StringFlag{
			Name:  "session-id",
			Usage: "Session ID (single input only; default: generated)",
		},
		&cli.BoolFlag{
			Name:  "capture",
			Usage: "Store the decoded bytes as a sidecar file",
		},
		&cli.BoolFlag{
			Name:  "emit",
			Usage: "Write event and summary frames to stdout",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON session report to this path (- for stderr)",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress the result summary",
		},
		// Policy
		&cli.StringFlag{
			Name:  "policy",
			Usage: "Ingestion policy: strict, buffered, streaming, noop",
			Value: "strict",
		},
		&cli.IntFlag{
			Name:  "buffer-events",
			Usage: "Buffered policy: max events before flush",
			Value: 1000,
		},
		&cli.Int64Flag{
			Name:  "buffer-bytes",
			Usage: "Buffered policy: max estimated bytes before flush",
		},
		&cli.IntFlag{
			Name:  "flush-count",
			Usage: "Streaming policy: flush after N events",
		},
		&cli.IntFlag{
			Name:  "flush-messages",
			Usage: "Streaming policy: flush at the message boundary after N complete messages",
		},
		&cli.DurationFlag{
			Name:  "flush-interval",
			Usage: "Streaming policy: flush every interval",
		},
		// Storage
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Storage backend: fs, s3, none",
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
		// Adapter
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Completion adapter: webhook, redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Adapter endpoint or redis URL",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel ({outcome} is replaced by the session outcome)",
		},
		&cli.StringFlag{
			Name:  "adapter-stream",
			Usage: "Redis stream that also receives every event",
		},
		&cli.StringSliceFlag{
			Name:  "adapter-header",
			Usage: "Webhook header as key=value (repeatable)",
		},
		&cli.StringFlag{
			Name:    "adapter-secret",
			Usage:   "Webhook signing secret",
			EnvVars: []string{"HESSIAN_ADAPTER_SECRET"},
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Adapter publish timeout",
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Adapter retry attempts",
			Value: 3,
		},
		// Batch
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Concurrent sessions for multiple inputs",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "max-sessions",
			Usage: "Maximum sessions to run (0 = unlimited)",
		},
		&cli.BoolFlag{
			Name:  "dedup",
			Usage: "Skip inputs whose content was already ingested in this batch",
		},
	)
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Decode inputs and persist their events",
		ArgsUsage: "<file|-> [file...]",
		Flags:     flags,
		Action:    ingestAction,
	}
}

// policyChoice holds the resolved policy settings.
type policyChoice struct {
	name          string
	maxEvents     int
	maxBytes      int64
	flushCount    int
	flushMessages int
	flushInterval time.Duration
}

// storageChoice holds the resolved storage settings.
type storageChoice struct {
	backend   string
	path      string
	dataset   string
	region    string
	endpoint  string
	pathStyle bool
}

// ingestPlan is everything resolved once for all sessions of an ingest.
type ingestPlan struct {
	decode  decodeChoice
	policy  policyChoice
	storage storageChoice
	source  string
	capture bool
	emit    *ipc.EventFrameWriter
	adapter adapter.Adapter
	errOut  io.Writer
	// logOut is shared by every session logger of a batch.
	logOut zapcore.WriteSyncer
}

func ingestAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	plan, err := resolveIngestPlan(c, cfg)
	if err != nil {
		return err
	}

	inputs := c.Args().Slice()
	if len(inputs) == 0 {
		return cli.Exit("ingest requires at least one input (use - for stdin)", 1)
	}
	if len(inputs) > 1 && c.IsSet("session-id") {
		return cli.Exit("--session-id requires a single input", 1)
	}

	if plan.emit != nil {
		defer iox.DiscardErr(plan.emit.Close)
	}
	if plan.adapter != nil {
		defer iox.DiscardClose(plan.adapter)
	}

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	if len(inputs) == 1 {
		return ingestOne(ctx, c, plan, inputs[0])
	}
	return ingestBatch(ctx, c, cfg, plan, inputs)
}

func ingestOne(ctx context.Context, c *cli.Context, plan *ingestPlan, path string) error {
	meta := &types.SessionMeta{SessionID: c.String("session-id")}
	if meta.SessionID == "" {
		meta.SessionID = runtime.NewSessionID()
	}
	collector := metrics.NewCollector(plan.policy.name, plan.decode.scope.String(), plan.storage.backend, meta.SessionID)

	result, err := plan.runSession(ctx, path, meta, collector)
	if err != nil {
		return cli.Exit(fmt.Sprintf("session failed: %v", err), runtime.ExitCodeFailure)
	}

	if reportPath := c.String("report"); reportPath != "" {
		report := runtime.BuildSessionReport(result, collector.Snapshot(), plan.policy.name)
		if err := runtime.WriteSessionReport(report, reportPath); err != nil {
			_, _ = fmt.Fprintf(plan.errOut, "Warning: %v\n", err)
		}
	}
	if !c.Bool("quiet") {
		printSessionResult(plan.resultWriter(c), result, plan.policy.name)
	}
	return outcomeExit(result)
}

func ingestBatch(ctx context.Context, c *cli.Context, cfg *config.Config, plan *ingestPlan, inputs []string) error {
	parallel := resolveInt(c, "parallel", configVal(cfg, func(c *config.Config) int { return c.Batch.Parallel }))
	maxSessions := resolveInt(c, "max-sessions", configVal(cfg, func(c *config.Config) int { return c.Batch.MaxSessions }))
	dedup := resolveBool(c, "dedup", configVal(cfg, func(c *config.Config) bool { return c.Batch.Dedup }))
	if parallel < 1 {
		return cli.Exit("--parallel must be >= 1", 1)
	}
	for _, in := range inputs {
		if in == "-" {
			return cli.Exit("stdin cannot be part of a multi-input ingest", 1)
		}
	}

	batch := runtime.NewBatch(runtime.BatchConfig{Parallel: parallel, MaxSessions: maxSessions},
		func(ctx context.Context, item runtime.BatchItem) (*runtime.SessionResult, error) {
			meta := &types.SessionMeta{SessionID: item.SessionID}
			collector := metrics.NewCollector(plan.policy.name, plan.decode.scope.String(), plan.storage.backend, item.SessionID)
			return plan.runSession(ctx, item.Path, meta, collector)
		})

	for _, in := range inputs {
		item := runtime.BatchItem{Path: in}
		if dedup {
			key, err := runtime.HashInput(in)
			if err != nil {
				return cli.Exit(fmt.Sprintf("failed to read input: %v", err), 1)
			}
			item.DedupKey = key
		}
		batch.Submit(item)
	}

	if err := batch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("batch failed: %w", err)
	}
	result := batch.Results()
	if !c.Bool("quiet") {
		runtime.WriteBatchSummary(plan.resultWriter(c), result)
	}
	if code := result.ExitCode(); code != runtime.ExitCodeCompleted {
		return cli.Exit("", code)
	}
	return nil
}

// runSession builds the per-session policy and storage and runs one session.
func (p *ingestPlan) runSession(ctx context.Context, path string, meta *types.SessionMeta, collector *metrics.Collector) (*runtime.SessionResult, error) {
	in, err := iox.OpenInput(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer iox.DiscardClose(in)

	if meta.SessionID == "" {
		meta.SessionID = runtime.NewSessionID()
	}
	meta.Source = p.source
	if meta.Source == "" {
		meta.Source = sourceLabel(path)
	}
	meta.Scope = p.decode.scope.String()
	meta.StartedAt = time.Now()

	logger := log.NewLoggerWithWriter(meta, p.logOut).WithLevel(p.decode.logLevel)

	client, err := p.openStorage(ctx, meta)
	if err != nil {
		return nil, err
	}

	var sinks []policy.Sink
	if client != nil {
		defer iox.DiscardClose(client)
		sinks = append(sinks, lode.Instrument(lode.NewSink(client), collector))
	}
	if p.emit != nil {
		sinks = append(sinks, sharedSink{p.emit})
	}

	pol, err := buildPolicy(p.policy, sinks, logger)
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(pol)

	ingestion := p.decode.ingestion(false)
	ingestion.Capture = p.capture && client != nil

	sessionCfg := &runtime.SessionConfig{
		Meta:      meta,
		Input:     in,
		Ingestion: ingestion,
		Policy:    pol,
		Summaries: p.summaryWriter(client),
		Adapter:   p.adapter,
		Collector: collector,
		Logger:    logger,
	}
	if client != nil {
		sessionCfg.Captures = client
		sessionCfg.StoragePath = p.storagePath()
	}

	session, err := runtime.NewSession(sessionCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session.Run(ctx)
}

// openStorage opens the lode client for one session; nil for backend none.
func (p *ingestPlan) openStorage(ctx context.Context, meta *types.SessionMeta) (*lode.LodeClient, error) {
	cfg := lode.ConfigFor(p.storage.dataset, meta)
	switch p.storage.backend {
	case "none":
		return nil, nil
	case "s3":
		return lode.NewLodeS3Client(ctx, cfg, p.storage.s3Config())
	default:
		return lode.NewLodeClient(cfg, p.storage.path)
	}
}

func (p *ingestPlan) storagePath() string {
	if p.storage.backend == "s3" {
		s3cfg := p.storage.s3Config()
		return s3cfg.URI()
	}
	return p.storage.path
}

func (s storageChoice) s3Config() lode.S3Config {
	bucket, prefix := lode.ParseS3Path(s.path)
	return lode.S3Config{
		Bucket:       bucket,
		Prefix:       prefix,
		Region:       s.region,
		Endpoint:     s.endpoint,
		UsePathStyle: s.pathStyle,
	}
}

// summaryWriter fans the summary out to storage and the frame stream.
func (p *ingestPlan) summaryWriter(client *lode.LodeClient) runtime.SummaryWriter {
	if client == nil && p.emit == nil {
		return nil
	}
	return runtime.SummaryWriterFunc(func(ctx context.Context, summary *types.SessionSummary) error {
		if client != nil {
			if err := client.WriteSummary(ctx, summary); err != nil {
				return err
			}
		}
		if p.emit != nil {
			return p.emit.WriteSummary(summary)
		}
		return nil
	})
}

// resultWriter is stdout, or stderr when stdout carries frames.
func (p *ingestPlan) resultWriter(c *cli.Context) io.Writer {
	if p.emit != nil {
		return p.errOut
	}
	return c.App.Writer
}

func resolveIngestPlan(c *cli.Context, cfg *config.Config) (*ingestPlan, error) {
	decode, err := resolveDecodeChoice(c, cfg)
	if err != nil {
		return nil, err
	}

	plan := &ingestPlan{
		decode: decode,
		policy: policyChoice{
			name:          resolveString(c, "policy", configVal(cfg, func(c *config.Config) string { return c.Policy.Name })),
			maxEvents:     resolveInt(c, "buffer-events", configVal(cfg, func(c *config.Config) int { return c.Policy.BufferEvents })),
			maxBytes:      resolveInt64(c, "buffer-bytes", configVal(cfg, func(c *config.Config) int64 { return c.Policy.BufferBytes })),
			flushCount:    resolveInt(c, "flush-count", configVal(cfg, func(c *config.Config) int { return c.Policy.FlushCount })),
			flushMessages: resolveInt(c, "flush-messages", configVal(cfg, func(c *config.Config) int { return c.Policy.FlushMessages })),
			flushInterval: resolveDuration(c, "flush-interval", configVal(cfg, func(c *config.Config) time.Duration { return c.Policy.FlushInterval.Duration })),
		},
		storage: storageChoice{
			backend:   resolveString(c, "storage-backend", configVal(cfg, func(c *config.Config) string { return c.Storage.Backend })),
			path:      resolveString(c, "storage-path", configVal(cfg, func(c *config.Config) string { return c.Storage.Path })),
			dataset:   resolveString(c, "storage-dataset", configVal(cfg, func(c *config.Config) string { return c.Storage.Dataset })),
			region:    resolveString(c, "storage-region", configVal(cfg, func(c *config.Config) string { return c.Storage.Region })),
			endpoint:  resolveString(c, "storage-endpoint", configVal(cfg, func(c *config.Config) string { return c.Storage.Endpoint })),
			pathStyle: resolveBool(c, "storage-s3-path-style", configVal(cfg, func(c *config.Config) bool { return c.Storage.S3PathStyle })),
		},
		source:  resolveString(c, "source", configVal(cfg, func(c *config.Config) string { return c.Source })),
		capture: resolveBool(c, "capture", configVal(cfg, func(c *config.Config) bool { return c.Decoder.Capture })),
		errOut:  c.App.ErrWriter,
	}
	if plan.errOut == nil {
		plan.errOut = os.Stderr
	}
	plan.logOut = zapcore.Lock(zapcore.AddSync(plan.errOut))

	if err := validatePolicyChoice(plan.policy); err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid policy config: %v", err), 1)
	}
	if err := validateStorageChoice(plan.storage); err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid storage config: %v", err), 1)
	}

	if c.Bool("emit") {
		plan.emit = ipc.NewEventFrameWriter(writerOnly{c.App.Writer})
	}

	ad, err := buildAdapter(c, cfg)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid adapter config: %v", err), 1)
	}
	plan.adapter = ad
	return plan, nil
}

func validatePolicyChoice(choice policyChoice) error {
	switch choice.name {
	case "strict", "noop":
		return nil
	case "buffered":
		if choice.maxEvents <= 0 && choice.maxBytes <= 0 {
			return errors.New("buffered policy requires --buffer-events > 0 or --buffer-bytes > 0")
		}
		return nil
	case "streaming":
		if choice.flushCount <= 0 && choice.flushMessages <= 0 && choice.flushInterval <= 0 {
			return errors.New("streaming policy requires --flush-count, --flush-messages or --flush-interval > 0")
		}
		return nil
	default:
		return fmt.Errorf("unknown policy %q (must be strict, buffered, streaming or noop)", choice.name)
	}
}

func validateStorageChoice(choice storageChoice) error {
	switch choice.backend {
	case "fs", "none":
		return nil
	case "s3":
		s3cfg := choice.s3Config()
		if err := s3cfg.Validate(); err != nil {
			return fmt.Errorf("s3 backend: %w (--storage-path bucket[/prefix], --storage-endpoint URL)", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q (must be fs, s3 or none)", choice.backend)
	}
}

// buildPolicy wraps sinks in the chosen policy. With no sinks every
// policy degrades to noop.
func buildPolicy(choice policyChoice, sinks []policy.Sink, logger *log.Logger) (policy.Policy, error) {
	if choice.name == "noop" || len(sinks) == 0 {
		return policy.NewNoopPolicy(), nil
	}
	var sink policy.Sink = sinks[0]
	if len(sinks) > 1 {
		sink = policy.NewMultiSink(sinks...)
	}

	switch choice.name {
	case "strict":
		return policy.NewStrictPolicy(sink), nil
	case "buffered":
		return policy.NewBufferedPolicy(sink, policy.BufferedConfig{
			MaxBufferEvents: choice.maxEvents,
			MaxBufferBytes:  choice.maxBytes,
			Logger:          logger,
		})
	case "streaming":
		return policy.NewStreamingPolicy(sink, policy.StreamingConfig{
			FlushCount:    choice.flushCount,
			FlushMessages: choice.flushMessages,
			FlushInterval: choice.flushInterval,
			Logger:        logger,
		})
	default:
		return nil, fmt.Errorf("unknown policy: %s", choice.name)
	}
}

// buildAdapter creates the completion adapter, or nil when none is configured.
func buildAdapter(c *cli.Context, cfg *config.Config) (adapter.Adapter, error) {
	kind := resolveString(c, "adapter", configVal(cfg, func(c *config.Config) string { return c.Adapter.Type }))
	if kind == "" {
		return nil, nil
	}
	url := resolveString(c, "adapter-url", configVal(cfg, func(c *config.Config) string { return c.Adapter.URL }))
	timeout := resolveDuration(c, "adapter-timeout", configVal(cfg, func(c *config.Config) time.Duration { return c.Adapter.Timeout.Duration }))
	retries := c.Int("adapter-retries")
	if !c.IsSet("adapter-retries") && cfg != nil && cfg.Adapter.Retries != nil {
		retries = *cfg.Adapter.Retries
	}

	switch kind {
	case "webhook":
		headers, err := parseHeaders(c.StringSlice("adapter-header"))
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			for k, v := range cfg.Adapter.Headers {
				if _, ok := headers[k]; !ok {
					headers[k] = v
				}
			}
		}
		return webhook.New(webhook.Config{
			URL:     url,
			Headers: headers,
			Secret:  resolveString(c, "adapter-secret", configVal(cfg, func(c *config.Config) string { return c.Adapter.Secret })),
			Timeout: timeout,
			Retries: retries,
		})
	case "redis":
		return redis.New(redis.Config{
			URL:     url,
			Channel: resolveString(c, "adapter-channel", configVal(cfg, func(c *config.Config) string { return c.Adapter.Channel })),
			Stream:  resolveString(c, "adapter-stream", configVal(cfg, func(c *config.Config) string { return c.Adapter.Stream })),
			Timeout: timeout,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter %q (must be webhook or redis)", kind)
	}
}

func parseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q (want key=value)", pair)
		}
		headers[k] = v
	}
	return headers, nil
}

func printSessionResult(w io.Writer, result *runtime.SessionResult, policyName string) {
	_, _ = fmt.Fprintf(w, "\n=== Session Complete ===\n")
	_, _ = fmt.Fprintf(w, "Session ID:  %s\n", result.Meta.SessionID)
	_, _ = fmt.Fprintf(w, "Source:      %s\n", result.Meta.Source)
	_, _ = fmt.Fprintf(w, "Scope:       %s\n", result.Meta.Scope)
	_, _ = fmt.Fprintf(w, "Outcome:     %s\n", result.Outcome.Status)
	_, _ = fmt.Fprintf(w, "Message:     %s\n", result.Outcome.Message)
	_, _ = fmt.Fprintf(w, "Duration:    %s\n", result.Duration)
	_, _ = fmt.Fprintf(w, "Messages:    %d\n", result.Messages)
	_, _ = fmt.Fprintf(w, "Events:      %d\n", result.Events)
	_, _ = fmt.Fprintf(w, "Bytes:       %d\n", result.Bytes)
	_, _ = fmt.Fprintf(w, "Definitions: %d\n", result.Definitions)
	_, _ = fmt.Fprintf(w, "\n--- Policy: %s ---\n", policyName)
	_, _ = fmt.Fprintf(w, "Received:    %d\n", result.Stats.TotalEvents)
	_, _ = fmt.Fprintf(w, "Persisted:   %d\n", result.Stats.EventsPersisted)
	_, _ = fmt.Fprintf(w, "Flushes:     %d\n", result.Stats.FlushCount)
	if result.Stats.Errors > 0 {
		_, _ = fmt.Fprintf(w, "Errors:      %d\n", result.Stats.Errors)
	}
}

// sharedSink keeps a sink open across the sessions that share it.
type sharedSink struct {
	policy.Sink
}

func (sharedSink) Close() error { return nil }

// writerOnly hides Close so the frame writer leaves the app's stdout open.
type writerOnly struct {
	io.Writer
}
