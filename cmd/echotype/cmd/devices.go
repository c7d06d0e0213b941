package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/echotype/echotype/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := audio.ListInputDevices()
	if err != nil {
		printError("failed to query audio devices", err)
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No audio input devices found.")
		return nil
	}

	fmt.Println("Audio input devices:")
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("  %s %-40s %d ch  %6.0f Hz\n", marker, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	fmt.Println("\n  * = system default")
	return nil
}
