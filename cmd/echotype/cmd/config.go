package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/echotype/echotype/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "./echotype.toml"
	if len(args) == 1 {
		path = args[0]
	}

	cfg := config.Default()
	if err := cfg.Save(path); err != nil {
		printError("failed to write configuration", err)
		return err
	}
	fmt.Printf("Wrote default configuration to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}

	fmt.Printf("listen:\n")
	fmt.Printf("  pre_roll_duration:      %v\n", cfg.Listen.PreRollDuration.Duration)
	fmt.Printf("  min_speech_duration:    %v\n", cfg.Listen.MinSpeechDuration.Duration)
	fmt.Printf("  post_silence_duration:  %v\n", cfg.Listen.PostSilenceDuration.Duration)
	fmt.Printf("  vad_threshold:          %v\n", cfg.Listen.VADThreshold)
	fmt.Printf("  max_utterance_duration: %v\n", cfg.Listen.MaxUtteranceDuration.Duration)
	fmt.Printf("  cooldown_duration:      %v\n", cfg.Listen.CooldownDuration.Duration)
	fmt.Printf("  frame_duration:         %v\n", cfg.Listen.FrameDuration.Duration)
	fmt.Printf("  sample_rate:            %d\n", cfg.Listen.SampleRate)
	fmt.Printf("vad:\n")
	fmt.Printf("  engine:                 %s\n", cfg.VAD.Engine)
	fmt.Printf("stt:\n")
	fmt.Printf("  backend:                %s\n", cfg.STT.Backend)
	fmt.Printf("  url:                    %s\n", cfg.STT.URL)
	fmt.Printf("  language:               %s\n", cfg.STT.Language)
	fmt.Printf("output:\n")
	fmt.Printf("  sink:                   %s\n", cfg.Output.Sink)
	return nil
}
