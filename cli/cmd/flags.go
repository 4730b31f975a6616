// Package cmd provides CLI commands for the utf8conv binary.
package cmd

import (
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/utf8conv/stream"
)

// EnvPrefix prefixes the environment variable behind each flag that has one.
// An environment value counts as set and wins over the config file.
const EnvPrefix = "UTF8CONV_"

const (
	categoryStorage = "Storage:"
	categoryAdapter = "Adapter:"
)

// envVars maps a flag name to its environment variable, e.g. lode-path to
// UTF8CONV_LODE_PATH.
func envVars(flag string) []string {
	return []string{EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))}
}

// Output flags shared by read-only commands.
var (
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
		EnvVars: envVars("format"),
	}
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output (also set by a non-empty NO_COLOR)",
	}
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, validate only)",
	}
)

// ReadOnlyFlags returns the output flags. --tui is always registered so that
// commands without a view can reject it by name.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{FormatFlag, NoColorFlag, TUIFlag}
}

// TUIReadOnlyFlags is ReadOnlyFlags for commands that have a view.
func TUIReadOnlyFlags() []cli.Flag { return ReadOnlyFlags() }

func decodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Input file (- for stdin)",
			Value:   "-",
		},
		&cli.StringFlag{
			Name:  "from",
			Usage: "Input format: utf8, utf32le, utf32be",
			Value: "utf8",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Source identifier for partitioning (default: input path or stdin)",
		},
		&cli.IntFlag{
			Name:    "chunk-size",
			Usage:   "Read size in bytes",
			Value:   stream.DefaultBufferSize,
			EnvVars: envVars("chunk-size"),
		},
		&cli.BoolFlag{
			Name:  "accept-replacement",
			Usage: "Treat a literal U+FFFD in the input as well-formed",
		},
	}
}

// storageFlags select the lode dataset convert writes to and inspect
// report reads from.
func storageFlags() []cli.Flag {
	str := func(name, usage, value string) cli.Flag {
		return &cli.StringFlag{Name: name, Usage: usage, Value: value, EnvVars: envVars(name), Category: categoryStorage}
	}
	return []cli.Flag{
		str("lode-dataset", "Lode dataset ID", ""),
		str("lode-backend", "Lode storage backend: fs or s3", "fs"),
		str("lode-path", "Lode storage path (fs: directory, s3: bucket/prefix)", ""),
		str("lode-region", "AWS region for S3 backend (optional, uses default chain)", ""),
		str("lode-endpoint", "Custom S3 endpoint URL (MinIO, R2)", ""),
		&cli.BoolFlag{
			Name:     "lode-s3-path-style",
			Usage:    "Force path-style S3 addressing",
			EnvVars:  envVars("lode-s3-path-style"),
			Category: categoryStorage,
		},
	}
}

func isStderrTTY() bool {
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
