package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// shortCommitLen is the length commits are abbreviated to.
const shortCommitLen = 7

// buildDetails describes the running binary.
type buildDetails struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string

	// Modified is set when the binary was built from a dirty tree.
	Modified bool
}

// readBuildDetails combines the ldflags values with the module build info.
// ldflags win. Missing values become "(devel)" or "unknown".
func readBuildDetails(info *debug.BuildInfo) buildDetails {
	d := buildDetails{Version: version, Commit: commit, Date: date}

	if info != nil {
		if d.Version == "" && info.Main.Version != "" {
			d.Version = info.Main.Version
		}
		d.GoVersion = info.GoVersion
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if d.Commit == "" {
					d.Commit = s.Value
				}
			case "vcs.time":
				if d.Date == "" {
					d.Date = s.Value
				}
			case "vcs.modified":
				d.Modified = s.Value == "true"
			}
		}
	}

	if d.Version == "" {
		d.Version = "(devel)"
	}
	if len(d.Commit) > shortCommitLen {
		d.Commit = d.Commit[:shortCommitLen]
	}
	if d.Commit == "" {
		d.Commit = "unknown"
	}
	if d.Date == "" {
		d.Date = "unknown"
	}
	if d.GoVersion == "" {
		d.GoVersion = "unknown"
	}
	return d
}

// currentBuild returns the details of this binary.
func currentBuild() buildDetails {
	info, _ := debug.ReadBuildInfo()
	return readBuildDetails(info)
}

// getVersion returns the version recorded in the JSON output and --version.
func getVersion() string {
	return currentBuild().Version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, build date and Go version of reviewscan.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return err
			}
			printVersion(cmd, currentBuild(), short)
			return nil
		},
	}
	cmd.Flags().Bool("short", false, "Print only the version number")
	return cmd
}

// printVersion writes d to the command output.
func printVersion(cmd *cobra.Command, d buildDetails, short bool) {
	out := cmd.OutOrStdout()
	if short {
		fmt.Fprintln(out, d.Version)
		return
	}

	rev := d.Commit
	if d.Modified {
		rev += " (modified)"
	}
	fmt.Fprintf(out, "reviewscan version %s\n", d.Version)
	fmt.Fprintf(out, "  commit: %s\n", rev)
	fmt.Fprintf(out, "  built:  %s\n", d.Date)
	fmt.Fprintf(out, "  go:     %s\n", d.GoVersion)
}
