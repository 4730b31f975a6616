package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/utf8conv/adapter"
	u8config "github.com/pithecene-io/utf8conv/cli/config"
	"github.com/pithecene-io/utf8conv/conv"
	"github.com/pithecene-io/utf8conv/ipc"
	"github.com/pithecene-io/utf8conv/iox"
	"github.com/pithecene-io/utf8conv/log"
	u8lode "github.com/pithecene-io/utf8conv/lode"
	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/policy"
	"github.com/pithecene-io/utf8conv/runtime"
	"github.com/pithecene-io/utf8conv/stream"
	"github.com/pithecene-io/utf8conv/types"
)

// ConvertCommand returns the convert command.
// Convert is the only command that writes output.
func ConvertCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a utf8conv.yaml config file",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file (- for stdout)",
			Value:   "-",
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "Output format: utf8, utf32le, utf32be, frames",
			Value: "utf32le",
		},
		&cli.StringFlag{
			Name:  "run-id",
			Usage: "Run ID (default: random UUID)",
		},
		&cli.StringFlag{
			Name:  "policy",
			Usage: "Chunk policy: strict, lossy, buffered",
			Value: "strict",
		},
		&cli.IntFlag{
			Name:  "buffer-units",
			Usage: "Flush after this many buffered code units (buffered policy)",
		},
		&cli.DurationFlag{
			Name:  "flush-interval",
			Usage: "Flush on this interval (buffered policy)",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON run report to this path (- for stderr)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: "info",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress the run summary on stderr",
		},
	}
	flags = append(flags, decodeFlags()...)
	flags = append(flags, storageFlags()...)
	flags = append(flags, adapterFlags()...)

	return &cli.Command{
		Name:   "convert",
		Usage:  "Convert a byte stream between UTF-8 and UTF-32",
		Flags:  flags,
		Action: convertAction,
	}
}

// convertChoice holds the resolved convert configuration.
type convertChoice struct {
	input             string
	output            string
	source            string
	runID             string
	from              types.Format
	to                types.Format
	chunkSize         int
	acceptReplacement bool
	policy            policyChoice
	report            string
	logLevel          string
}

// policyChoice holds parsed policy configuration.
type policyChoice struct {
	name          policy.Name
	bufferUnits   int
	flushInterval time.Duration
}

// replacementPolicy applies --accept-replacement to both the decoder and
// the output writer.
func (cc convertChoice) replacementPolicy() conv.ReplacementPolicy {
	if cc.acceptReplacement {
		return conv.AcceptReplacement
	}
	return conv.RejectReplacement
}

func configError(err error) error {
	return cli.Exit(err.Error(), runtime.ExitCodeConfig)
}

func ioError(err error) error {
	return cli.Exit(err.Error(), runtime.ExitCodeIOError)
}

func resolveConvertChoice(c *cli.Context, cfg *u8config.Config) (convertChoice, error) {
	cc := convertChoice{
		input:             c.String("input"),
		output:            c.String("output"),
		runID:             c.String("run-id"),
		chunkSize:         resolveInt(c, "chunk-size", configVal(cfg, func(c *u8config.Config) int { return c.ChunkSize })),
		acceptReplacement: resolveBool(c, "accept-replacement", configVal(cfg, func(c *u8config.Config) bool { return c.AcceptReplacement })),
		report:            c.String("report"),
		logLevel:          c.String("log-level"),
	}

	cc.source = resolveString(c, "source", configVal(cfg, func(c *u8config.Config) string { return c.Source }))
	if cc.source == "" {
		cc.source = sourceFromInput(cc.input)
	}
	// Source is a partition key; it becomes one path segment.
	if strings.ContainsAny(cc.source, `/\`) || cc.source == "." || cc.source == ".." {
		return cc, fmt.Errorf("invalid --source %q: must be a single path segment", cc.source)
	}
	if cc.runID == "" {
		cc.runID = uuid.NewString()
	}

	from, err := types.ParseInputFormat(resolveString(c, "from", configVal(cfg, func(c *u8config.Config) string { return c.From })))
	if err != nil {
		return cc, fmt.Errorf("invalid --from: %w", err)
	}
	to, err := types.ParseFormat(resolveString(c, "to", configVal(cfg, func(c *u8config.Config) string { return c.To })))
	if err != nil {
		return cc, fmt.Errorf("invalid --to: %w", err)
	}
	cc.from, cc.to = from, to

	if cc.chunkSize <= 0 {
		return cc, fmt.Errorf("--chunk-size must be > 0, got %d", cc.chunkSize)
	}

	pc, err := resolvePolicyChoice(c, cfg)
	if err != nil {
		return cc, err
	}
	cc.policy = pc
	return cc, nil
}

func resolvePolicyChoice(c *cli.Context, cfg *u8config.Config) (policyChoice, error) {
	name, err := policy.ParseName(resolveString(c, "policy", configVal(cfg, func(c *u8config.Config) string { return c.Policy.Name })))
	if err != nil {
		return policyChoice{}, fmt.Errorf("invalid --policy: %w", err)
	}
	pc := policyChoice{
		name:          name,
		bufferUnits:   resolveInt(c, "buffer-units", configVal(cfg, func(c *u8config.Config) int { return c.Policy.BufferUnits })),
		flushInterval: resolveDuration(c, "flush-interval", configVal(cfg, func(c *u8config.Config) time.Duration { return c.Policy.FlushInterval.Duration })),
	}
	return pc, validatePolicyConfig(pc)
}

func validatePolicyConfig(pc policyChoice) error {
	if pc.bufferUnits < 0 {
		return fmt.Errorf("--buffer-units must be >= 0, got %d", pc.bufferUnits)
	}
	if pc.flushInterval < 0 {
		return fmt.Errorf("--flush-interval must be >= 0, got %s", pc.flushInterval)
	}
	switch pc.name {
	case policy.NameStrict, policy.NameLossy:
		if pc.bufferUnits > 0 || pc.flushInterval > 0 {
			fmt.Fprintf(os.Stderr, "Warning: buffer flags ignored for %s policy\n", pc.name)
		}
		return nil
	case policy.NameBuffered:
		return nil
	case policy.NameNoop:
		return fmt.Errorf("invalid --policy: noop is reserved for validate")
	default:
		return fmt.Errorf("invalid --policy: %s", pc.name)
	}
}

// buildPolicy creates the chunk policy over sink.
func buildPolicy(pc policyChoice, sink policy.Sink, logger *log.Logger) (policy.Policy, error) {
	switch pc.name {
	case policy.NameStrict:
		return policy.NewStrictPolicy(sink), nil
	case policy.NameLossy:
		return policy.NewLossyPolicy(sink), nil
	case policy.NameBuffered:
		cfg := policy.DefaultBufferedConfig()
		if pc.bufferUnits > 0 || pc.flushInterval > 0 {
			cfg.FlushUnits = pc.bufferUnits
			cfg.FlushInterval = pc.flushInterval
		}
		cfg.Logger = logger
		return policy.NewBufferedPolicy(sink, cfg)
	case policy.NameNoop:
		return policy.NewNoopPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown policy: %s", pc.name)
	}
}

// sourceFromInput derives the default source from the input file name.
func sourceFromInput(input string) string {
	if input == "-" || input == "" {
		return "stdin"
	}
	return filepath.Base(input)
}

// openInput opens the input path. Stdin is never closed.
func openInput(path string) (io.Reader, func(), error) {
	if path == "-" || path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, iox.CloseFunc(f), nil
}

// openOutput creates the output path. Stdout is never closed.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" || path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, f.Close, nil
}

// outputSink is the primary sink for the output format, with access to
// its byte counter and an optional stream terminator.
type outputSink struct {
	policy.Sink
	bytesWritten func() int64
	finish       func(result *runtime.RunResult) error
}

func buildOutputSink(w io.Writer, to types.Format, opts ...stream.Option) (*outputSink, error) {
	if to == types.FormatFrames {
		enc := ipc.NewFrameEncoder(w)
		return &outputSink{
			Sink:         ipc.NewFrameSink(enc),
			bytesWritten: enc.BytesWritten,
			finish: func(result *runtime.RunResult) error {
				return enc.WriteRunResult(result.ResultFrame())
			},
		}, nil
	}
	sw, err := stream.NewWriter(w, to, opts...)
	if err != nil {
		return nil, err
	}
	return &outputSink{
		Sink:         stream.NewWriterSink(sw),
		bytesWritten: sw.BytesWritten,
		finish:       func(*runtime.RunResult) error { return nil },
	}, nil
}

func convertAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return configError(err)
	}
	cc, err := resolveConvertChoice(c, cfg)
	if err != nil {
		return configError(err)
	}
	sc := resolveStorageChoice(c, cfg)
	if err := validateStorageConfig(sc); err != nil {
		return configError(err)
	}

	var ac *adapterChoice
	if adapterType := resolveString(c, "adapter", configVal(cfg, func(c *u8config.Config) string { return c.Adapter.Type })); adapterType != "" {
		if ac, err = parseAdapterConfigWithPrecedence(c, cfg, adapterType); err != nil {
			return configError(err)
		}
	}

	meta := &types.RunMeta{
		RunID:     cc.runID,
		Source:    cc.source,
		From:      cc.from,
		To:        cc.to,
		StartedAt: time.Now(),
	}
	logger, err := log.NewLoggerWithLevel(meta, cc.logLevel)
	if err != nil {
		return configError(err)
	}
	defer iox.DiscardErr(logger.Sync)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, closeInput, err := openInput(cc.input)
	if err != nil {
		return ioError(err)
	}
	defer closeInput()

	out, closeOutput, err := openOutput(cc.output)
	if err != nil {
		return ioError(err)
	}

	backend := "none"
	if sc.enabled() {
		backend = sc.backend
	}
	collector := metrics.NewCollector(string(cc.policy.name), string(cc.from), string(cc.to), backend, cc.runID)

	primary, err := buildOutputSink(out, cc.to, stream.WithReplacementPolicy(cc.replacementPolicy()))
	if err != nil {
		_ = closeOutput()
		return configError(err)
	}

	var lodeClient *u8lode.LodeClient
	sinks := []policy.Sink{primary}
	if sc.enabled() {
		lodeCfg := u8lode.ConfigFromMeta(sc.dataset, string(cc.policy.name), meta)
		lodeClient, err = buildLodeClient(ctx, sc, lodeCfg)
		if err != nil {
			_ = closeOutput()
			return ioError(fmt.Errorf("failed to create Lode client: %w", err))
		}
		defer iox.DiscardClose(lodeClient)
		sinks = append(sinks, u8lode.NewSink(lodeClient))
	}
	sink := u8lode.NewInstrumentedSink(policy.NewMultiSink(sinks...), collector).WithLogger(logger)

	pol, err := buildPolicy(cc.policy, sink, logger)
	if err != nil {
		_ = closeOutput()
		return configError(fmt.Errorf("failed to create policy: %w", err))
	}

	orchestrator, err := runtime.NewRunOrchestrator(&runtime.RunConfig{
		Meta:              meta,
		Input:             input,
		ChunkSize:         cc.chunkSize,
		AcceptReplacement: cc.acceptReplacement,
		Policy:            pol,
		Collector:         collector,
		Logger:            logger,
	})
	if err != nil {
		_ = pol.Close()
		_ = closeOutput()
		return configError(fmt.Errorf("failed to create orchestrator: %w", err))
	}

	result, err := orchestrator.Execute(ctx)
	if err != nil {
		_ = pol.Close()
		_ = closeOutput()
		return fmt.Errorf("execution failed: %w", err)
	}

	if err := finishOutput(primary, pol, closeOutput, result); err != nil {
		logger.Error("failed to finish output", map[string]any{"error": err.Error()})
		if result.Outcome.Status == types.OutcomeSuccess || result.Outcome.Status == types.OutcomeLossy {
			result.Outcome = &types.RunOutcome{
				Status:  types.OutcomeIOError,
				Message: fmt.Sprintf("output finalization failed: %v", err),
			}
		}
	}
	collector.AddBytesWritten(primary.bytesWritten())

	completedAt := time.Now()
	exitCode := runtime.ExitCodeFor(result.Outcome.Status)
	snap := collector.Snapshot()
	report := runtime.BuildRunReport(result, snap, string(cc.policy.name), exitCode)

	if lodeClient != nil {
		persistReport(ctx, lodeClient, report, result.Outcome, snap, completedAt, logger)
	}

	if ac != nil {
		event := adapter.NewTranscodeCompletedEvent(meta, *result.Outcome, completedAt)
		event.Chunks = result.Chunks
		event.Units = result.Units
		event.Replacements = result.Replacements
		event.BytesRead = result.BytesRead
		event.BytesWritten = snap.BytesWritten
		if sc.enabled() {
			event.StoragePath = buildStoragePath(sc)
		}
		publishEvent(ctx, ac, event, logger)
	}

	if cc.report != "" {
		if err := runtime.WriteRunReport(report, cc.report); err != nil {
			logger.Error("failed to write run report", map[string]any{"error": err.Error()})
		}
	}

	if !c.Bool("quiet") && isStderrTTY() {
		printRunSummary(os.Stderr, result, cc.policy.name)
	}

	if exitCode != runtime.ExitCodeSuccess {
		return cli.Exit("", exitCode)
	}
	return nil
}

// finishOutput closes the policy (and with it every sink), terminates the
// output stream and closes the output file. The first error wins.
func finishOutput(primary *outputSink, pol policy.Policy, closeOutput func() error, result *runtime.RunResult) error {
	// Close drains any retained batch; the terminator must follow it.
	closeErr := pol.Close()
	finishErr := primary.finish(result)
	outErr := closeOutput()
	for _, err := range []error{closeErr, finishErr, outErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// persistReport stores the run report in the dataset. Failures are logged;
// the chunk records are already durable.
func persistReport(ctx context.Context, client *u8lode.LodeClient, report *runtime.RunReport, outcome *types.RunOutcome, snap metrics.Snapshot, completedAt time.Time, logger *log.Logger) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := client.WriteReport(writeCtx, *outcome, snap, completedAt); err != nil {
		logger.Error("failed to write report record", map[string]any{"error": err.Error()})
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Error("failed to marshal run report", map[string]any{"error": err.Error()})
		return
	}
	if err := client.PutFile(writeCtx, u8lode.ReportFileName, data); err != nil {
		logger.Error("failed to store run report", map[string]any{"error": err.Error()})
	}
}

func printRunSummary(w io.Writer, result *runtime.RunResult, policyName policy.Name) {
	_, _ = fmt.Fprintf(w, "\nrun_id=%s, outcome=%s, duration=%s\n",
		result.RunMeta.RunID,
		result.Outcome.Status,
		result.Duration.Round(time.Millisecond),
	)
	_, _ = fmt.Fprintf(w, "policy=%s, chunks=%d, persisted=%d, rejected=%d\n",
		policyName,
		result.PolicyStats.Chunks,
		result.PolicyStats.ChunksPersisted,
		result.PolicyStats.Rejected,
	)
	_, _ = fmt.Fprintf(w, "bytes_read=%d, units=%d, replacements=%d\n",
		result.BytesRead,
		result.Units,
		result.Replacements,
	)
	if result.Outcome.Message != "" {
		_, _ = fmt.Fprintf(w, "message: %s\n", result.Outcome.Message)
	}
}
