// Package main provides the utf8conv CLI entrypoint.
//
// Usage:
//
//	utf8conv <command> [subcommand] [options]
//
// Exit codes for `convert`:
//   - 0: success (including lossy runs)
//   - 1: I/O or sink error, or canceled
//   - 2: invalid input rejected by the strict policy
//   - 3: configuration error
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/utf8conv/cli/cmd"
	"github.com/pithecene-io/utf8conv/types"
)

// commit is set with -ldflags "-X main.commit=..."; empty falls back to
// the VCS revision recorded in the build info.
var commit string

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "utf8conv",
		Usage:          "Streaming UTF-8 / UTF-32 converter",
		Version:        types.Version,
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.ConvertCommand(),
			cmd.ValidateCommand(),
			cmd.InspectCommand(),
			cmd.VersionCommand(commit),
		},
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitMessage(exitCoder); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error - print and exit with code 1
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// exitMessage returns the text worth printing for an exit error.
// cli.Exit("", N).Error() yields "exit status N", which is suppressed.
func exitMessage(e cli.ExitCoder) string {
	msg := e.Error()
	if msg == fmt.Sprintf("exit status %d", e.ExitCode()) {
		return ""
	}
	return msg
}
