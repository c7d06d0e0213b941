package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/echotype/echotype/internal/models"
	"github.com/echotype/echotype/pkg/core/logging"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage whisper models",
	Long: `Shows available whisper models and manages local downloads.

Examples:
  echotype models                  # list catalog and installed models
  echotype models pull base.en     # download a model
  echotype models remove base.en   # delete a downloaded model`,
	RunE: runModels,
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull <model>",
	Short: "Download a model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsPull,
}

var modelsRemoveCmd = &cobra.Command{
	Use:   "remove <model>",
	Short: "Delete a downloaded model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsRemove,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsPullCmd)
	modelsCmd.AddCommand(modelsRemoveCmd)
}

// modelStore builds the store from the configured model directory
func modelStore() (*models.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return models.NewStore(nil, cfg.Models.Dir, logging.Discard()), nil
}

func runModels(cmd *cobra.Command, args []string) error {
	store, err := modelStore()
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}

	installed, err := store.InstalledNames()
	if err != nil {
		printError("failed to scan model directory", err)
		return err
	}
	isInstalled := make(map[string]bool, len(installed))
	for _, name := range installed {
		isInstalled[name] = true
	}

	fmt.Println("Available models:")
	for _, m := range models.List() {
		marker := " "
		if isInstalled[m.Name] {
			marker = "*"
		}
		fmt.Printf("  %s %-12s %5d MB\n", marker, m.Name, m.SizeMB)
	}
	fmt.Println("\n  * = installed")
	return nil
}

func runModelsPull(cmd *cobra.Command, args []string) error {
	m, err := models.Lookup(args[0])
	if err != nil {
		printError("unknown model", err)
		return err
	}

	store, err := modelStore()
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}

	if ok, _ := store.Installed(m); ok {
		fmt.Printf("Model %s is already installed at %s\n", m.Name, store.Path(m))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Downloading %s (~%d MB)...\n", m.Name, m.SizeMB)
	err = store.Download(ctx, m, func(downloaded, total int64) {
		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r  %3d%% (%d / %d bytes)", downloaded*100/total, downloaded, total)
		} else {
			fmt.Fprintf(os.Stderr, "\r  %d bytes", downloaded)
		}
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		printError("download failed", err)
		return err
	}

	fmt.Printf("Installed %s at %s\n", m.Name, store.Path(m))
	return nil
}

func runModelsRemove(cmd *cobra.Command, args []string) error {
	m, err := models.Lookup(args[0])
	if err != nil {
		printError("unknown model", err)
		return err
	}

	store, err := modelStore()
	if err != nil {
		printError("failed to load configuration", err)
		return err
	}

	if err := store.Remove(m); err != nil {
		printError("failed to remove model", err)
		return err
	}
	fmt.Printf("Removed %s\n", m.Name)
	return nil
}
