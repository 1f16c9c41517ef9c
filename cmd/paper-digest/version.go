package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the paper-digest version and build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := resolveVersion(version, debug.ReadBuildInfo)
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "paper-digest %s (%s %s/%s)\n", v, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}

// resolveVersion prefers the version stamped by ldflags. Binaries built
// with go install carry no ldflags, so the module version is used instead.
func resolveVersion(stamped string, buildInfo func() (*debug.BuildInfo, bool)) string {
	if stamped != "dev" {
		return stamped
	}
	bi, ok := buildInfo()
	if !ok || bi.Main.Version == "" || bi.Main.Version == "(devel)" {
		return stamped
	}
	return bi.Main.Version
}
