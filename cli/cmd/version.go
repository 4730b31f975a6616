package cmd

import (
	"errors"
	"runtime"
	"runtime/debug"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/utf8conv/cli/render"
	"github.com/pithecene-io/utf8conv/types"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version         string   `json:"version"`
	ContractVersion string   `json:"contract_version"`
	Commit          string   `json:"commit"`
	GoVersion       string   `json:"go_version"`
	Platform        string   `json:"platform"`
	Formats         []string `json:"formats"`
}

// VersionCommand returns the version command. commit is set by the linker;
// when empty the VCS revision from the build info is used.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: ReadOnlyFlags(),
		Action: func(c *cli.Context) error {
			if c.Bool("tui") {
				return configError(errors.New("--tui is not supported for version command"))
			}
			r, err := render.NewRenderer(c)
			if err != nil {
				return configError(err)
			}
			return r.Render(newVersionInfo(commit))
		},
	}
}

func newVersionInfo(commit string) VersionInfo {
	if commit == "" {
		commit = buildRevision()
	}
	var formats []string
	for _, f := range []types.Format{types.FormatUTF8, types.FormatUTF32LE, types.FormatUTF32BE, types.FormatFrames} {
		formats = append(formats, string(f))
	}
	return VersionInfo{
		Version:         types.Version,
		ContractVersion: types.ContractVersion,
		Commit:          commit,
		GoVersion:       runtime.Version(),
		Platform:        runtime.GOOS + "/" + runtime.GOARCH,
		Formats:         formats,
	}
}

func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return "unknown"
}
