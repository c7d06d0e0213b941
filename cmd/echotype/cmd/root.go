package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/echotype/echotype/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "echotype",
	Short: "EchoType - hands-free dictation",
	Long: `EchoType listens to your microphone, detects speech, and types the
transcription wherever you want it.

Commands:
  listen   - start the always-listening dictation pipeline
  devices  - list audio input devices
  models   - manage whisper models
  version  - show version information`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./echotype.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig resolves the configuration from the --config flag or the
// default search paths.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv()
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
