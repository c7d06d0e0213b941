package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/echotype/echotype/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("EchoType v%s\n", version.Version)
		fmt.Printf("  Git Commit: %s\n", version.Commit)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
