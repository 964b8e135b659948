package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "epubcards %s\n", version)
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Fprintf(w, "  Go:     %s\n", info.GoVersion)
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					fmt.Fprintf(w, "  Commit: %s\n", s.Value)
				case "vcs.time":
					fmt.Fprintf(w, "  Date:   %s\n", s.Value)
				}
			}
		}
	},
}
