package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/utf8conv/cli/reader"
	"github.com/pithecene-io/utf8conv/cli/render"
	"github.com/pithecene-io/utf8conv/cli/tui"
	"github.com/pithecene-io/utf8conv/runtime"
)

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep view of a single run.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a run (report, frames)",
		Subcommands: []*cli.Command{
			inspectReportCommand(),
			inspectFramesCommand(),
		},
	}
}

func inspectReportCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "run-id",
			Usage: "Run ID to match (default: latest run)",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Source to match",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "Read a run report written by convert --report instead of a dataset",
		},
	}
	flags = append(flags, storageFlags()...)
	flags = append(flags, TUIReadOnlyFlags()...)
	return &cli.Command{
		Name:   "report",
		Usage:  "Inspect the latest stored run report",
		Flags:  flags,
		Action: inspectReportAction,
	}
}

func inspectReportAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return configError(err)
	}

	var resp *reader.InspectReportResponse
	if path := c.String("file"); path != "" {
		report, err := runtime.ReadRunReport(path)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		resp = reportResponseFromRunReport(report)
	} else {
		sc := resolveStorageChoice(c, nil)
		if !sc.enabled() {
			return cli.Exit("--lode-path or --file required", 1)
		}
		if err := validateStorageConfig(sc); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		ds, err := openReadDataset(c.Context, sc)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to open dataset: %v", err), 1)
		}
		resp, err = reader.NewLodeReader(ds).InspectReport(c.Context, c.String("run-id"), c.String("source"))
		if reader.IsNotFound(err) {
			return cli.Exit(fmt.Sprintf("no report found (run-id=%q, source=%q)", c.String("run-id"), c.String("source")), 1)
		}
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to read report: %v", err), 1)
		}
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectReport, resp)
	}
	return r.Render(resp)
}

// reportResponseFromRunReport maps a report file onto the inspect view.
func reportResponseFromRunReport(report *runtime.RunReport) *reader.InspectReportResponse {
	resp := &reader.InspectReportResponse{
		RunID:   report.RunID,
		Source:  report.Source,
		Status:  string(report.Outcome),
		Message: report.Message,
		Version: report.Version,
		From:    string(report.From),
		To:      string(report.To),
	}
	if report.Conversion != nil {
		resp.BytesRead = report.Conversion.BytesRead
		resp.Units = report.Conversion.Units
		resp.Replacements = report.Conversion.Replacements
	}
	if report.Policy != nil {
		resp.Policy = report.Policy.Name
		resp.ChunksReceived = report.Policy.ChunksReceived
		resp.ChunksPersisted = report.Policy.ChunksPersisted
		resp.ChunksRejected = report.Policy.ChunksRejected
	}
	if report.Metrics != nil {
		resp.StorageBackend = report.Metrics.StorageBackend
		resp.BytesWritten = report.Metrics.BytesWritten
	}
	return resp
}

func inspectFramesCommand() *cli.Command {
	return &cli.Command{
		Name:      "frames",
		Usage:     "Summarize a frame stream written by convert --to frames",
		ArgsUsage: "<path|->",
		Flags:     TUIReadOnlyFlags(),
		Action:    inspectFramesAction,
	}
}

func inspectFramesAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("frames path required", 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return configError(err)
	}

	var in io.Reader = os.Stdin
	if path := c.Args().First(); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to open frames: %v", err), 1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	resp, err := reader.ReadFrames(in, nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectFrames, resp)
	}
	return r.Render(resp)
}
