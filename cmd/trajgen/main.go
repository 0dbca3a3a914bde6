// trajgen generates a synthetic rocket trajectory dataset and prepares it
// for sequence model training.
//
// Usage:
//
//	trajgen generate --count 500 --out dataset
//	trajgen assemble --out dataset
//	trajgen prepare --out dataset --window 30 --test-fraction 0.2
//	trajgen publish --out dataset --db rockets.db
//	trajgen serve --db rockets.db --port 8081
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sebastiankruger/trajectory-dataset/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "trajgen",
		Short: "Synthetic rocket trajectory dataset generator",
		Long: "trajgen samples random rocket configurations, simulates their flights,\n" +
			"keeps the stable ones and turns the trajectories into windowed training data.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	f.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Dataset output directory")

	root.AddCommand(newGenerateCmd(cfg))
	root.AddCommand(newAssembleCmd(cfg))
	root.AddCommand(newPrepareCmd(cfg))
	root.AddCommand(newPublishCmd(cfg))
	root.AddCommand(newServeCmd(cfg))
	return root
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	os.Exit(run())
}

func run() (code int) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			code = 2
		}
	}()

	// Load configuration; flags override the environment
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		return 1
	}
	return 0
}
