package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/echotype/echotype/internal/app"
	"github.com/echotype/echotype/internal/listen"
	"github.com/echotype/echotype/internal/tray"
)

var (
	listenNoTray bool
	listenDevice string
	listenSink   string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Start the dictation pipeline",
	Long: `Starts the always-listening dictation pipeline: microphone capture,
voice-activity detection, transcription, and text output.

Examples:
  echotype listen                         # default config
  echotype listen --sink clipboard        # copy results to the clipboard
  echotype listen --device "USB Mic"      # pick an input device
  echotype listen --no-tray               # headless, no tray icon`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().BoolVar(&listenNoTray, "no-tray", false, "disable the system tray icon")
	listenCmd.Flags().StringVar(&listenDevice, "device", "", "input device name override")
	listenCmd.Flags().StringVar(&listenSink, "sink", "", "output sink override (stdout, clipboard)")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}

	if verbose {
		cfg.General.LogLevel = "debug"
	}
	if listenDevice != "" {
		cfg.Audio.Device = listenDevice
	}
	if listenSink != "" {
		cfg.Output.Sink = listenSink
	}
	if listenNoTray {
		cfg.Tray.Enabled = false
	}

	a, err := app.New(cfg)
	if err != nil {
		printError("failed to start", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Tray.Enabled {
		return finishRun(a.Run(ctx))
	}

	// systray must own the main goroutine, so the pipeline moves to a
	// worker and the tray quits when the pipeline stops.
	trayApp := tray.New(tray.Callbacks{
		OnPauseResume: a.TogglePause,
		OnQuit:        a.Stop,
	})
	a.AddStateListener(func(old, new listen.State) {
		trayApp.SetState(new)
		trayApp.SetUtteranceCount(a.Controller().Status().Utterances)
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- a.Run(ctx)
		trayApp.Quit()
	}()

	trayApp.Run()
	return finishRun(<-runErr)
}

// finishRun maps a canceled context to a clean exit
func finishRun(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	printError("pipeline stopped", err)
	return err
}
