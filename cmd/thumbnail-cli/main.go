// Package main is the thumbnail wizard's command-line interface.
//
// Commands:
//
//	thumbnail-cli styles                 list the style catalog
//	thumbnail-cli generate --face ...    one-shot generation from flags
//	thumbnail-cli create                 interactive step-by-step wizard
//	thumbnail-cli history                the configured owner's thumbnails
//	thumbnail-cli config init            write a starter config file
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/config"
	"github.com/fpang/yt-thumbnail-wizard/internal/local"
	"github.com/fpang/yt-thumbnail-wizard/internal/logging"
)

var (
	backendFlag   string
	stylesDirFlag string
	ownerFlag     string
	verboseFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "thumbnail-cli",
	Short: "Create YouTube thumbnails from a face photo",
	Long: `thumbnail-cli turns a face photo and a few details about a video into a
YouTube thumbnail using the Gemini API.

Examples:
  thumbnail-cli styles
  thumbnail-cli generate --face me.jpg --title "I Tried 100 Hot Sauces" --style neon-glow
  thumbnail-cli generate --pick --title "Budget Travel Tips"
  thumbnail-cli create
  thumbnail-cli history`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "memory or aws (default from config)")
	rootCmd.PersistentFlags().StringVar(&stylesDirFlag, "styles-dir", "", "directory of style images (memory backend)")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "identity thumbnails are saved under")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(stylesCmd, generateCmd, createCmd, historyCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads config and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if stylesDirFlag != "" {
		cfg.StylesDir = stylesDirFlag
	}
	if ownerFlag != "" {
		cfg.Owner = ownerFlag
	}
	level := cfg.LogLevel
	if verboseFlag {
		level = "debug"
	}
	logging.InitWith(level, "console", os.Stderr)
	return cfg, cfg.Validate()
}

// buildEnv loads config and wires the backend. The returned context carries
// the configured owner.
func buildEnv(ctx context.Context, opts local.Options) (context.Context, *local.Env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return ctx, nil, err
	}
	env, err := local.Build(ctx, cfg, opts)
	if err != nil {
		return ctx, nil, err
	}
	return auth.WithOwner(ctx, cfg.Owner), env, nil
}
