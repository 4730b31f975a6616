package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/utf8conv/cli/reader"
	"github.com/pithecene-io/utf8conv/cli/render"
	"github.com/pithecene-io/utf8conv/cli/tui"
	"github.com/pithecene-io/utf8conv/log"
	"github.com/pithecene-io/utf8conv/policy"
	"github.com/pithecene-io/utf8conv/runtime"
	"github.com/pithecene-io/utf8conv/types"
)

// ValidateCommand returns the validate command.
// Validate decodes the input and discards it, reporting whether it is
// well-formed.
func ValidateCommand() *cli.Command {
	flags := append(decodeFlags(), TUIReadOnlyFlags()...)
	return &cli.Command{
		Name:   "validate",
		Usage:  "Check that an input stream is well-formed",
		Flags:  flags,
		Action: validateAction,
	}
}

func validateAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return configError(err)
	}

	from, err := types.ParseInputFormat(c.String("from"))
	if err != nil {
		return configError(fmt.Errorf("invalid --from: %w", err))
	}
	if c.Int("chunk-size") <= 0 {
		return configError(fmt.Errorf("--chunk-size must be > 0, got %d", c.Int("chunk-size")))
	}
	source := c.String("source")
	if source == "" {
		source = sourceFromInput(c.String("input"))
	}

	input, closeInput, err := openInput(c.String("input"))
	if err != nil {
		return ioError(err)
	}
	defer closeInput()

	pol, err := buildPolicy(policyChoice{name: policy.NameNoop}, nil, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pol.Close() }()

	meta := &types.RunMeta{
		RunID:     uuid.NewString(),
		Source:    source,
		From:      from,
		To:        from,
		StartedAt: time.Now(),
	}
	orchestrator, err := runtime.NewRunOrchestrator(&runtime.RunConfig{
		Meta:              meta,
		Input:             input,
		ChunkSize:         c.Int("chunk-size"),
		AcceptReplacement: c.Bool("accept-replacement"),
		Policy:            pol,
		Logger:            log.NewNop(),
	})
	if err != nil {
		return configError(err)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := orchestrator.Execute(ctx)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	stats := buildValidationStats(result)
	switch result.Outcome.Status {
	case types.OutcomeSuccess, types.OutcomeLossy:
	default:
		return cli.Exit(result.Outcome.Message, runtime.ExitCodeFor(result.Outcome.Status))
	}

	if c.Bool("tui") {
		err = r.RenderTUI(tui.ViewStatsValidation, stats)
	} else {
		err = r.Render(stats)
	}
	if err != nil {
		return err
	}

	if !stats.Valid {
		return cli.Exit("", runtime.ExitCodeInvalidInput)
	}
	return nil
}

// buildValidationStats summarizes a noop-policy run. Any replacement makes
// the input invalid.
func buildValidationStats(result *runtime.RunResult) *reader.ValidationStats {
	stats := &reader.ValidationStats{
		Source:        result.RunMeta.Source,
		From:          string(result.RunMeta.From),
		Valid:         result.Replacements == 0,
		Outcome:       string(result.Outcome.Status),
		BytesRead:     result.BytesRead,
		Chunks:        result.Chunks,
		Units:         result.Units,
		Replacements:  result.Replacements,
		InvalidChunks: result.PolicyStats.InvalidChunks,
	}
	if !stats.Valid {
		stats.Outcome = string(types.OutcomeInvalidInput)
	}
	return stats
}
