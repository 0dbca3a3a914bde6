package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/config"
	"github.com/sebastiankruger/trajectory-dataset/internal/core"
	"github.com/sebastiankruger/trajectory-dataset/internal/flight"
	"github.com/sebastiankruger/trajectory-dataset/internal/generator"
	"github.com/sebastiankruger/trajectory-dataset/internal/sampler"
	"github.com/sebastiankruger/trajectory-dataset/internal/simulation"
)

func newGenerateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Simulate random configurations until enough stable rockets are collected",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.TargetCount, "count", cfg.TargetCount, "Number of stable configurations to collect")
	f.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Attempt cap, 0 for unbounded")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed, 0 to seed from the clock")
	f.Float64Var(&cfg.StabilityThreshold, "threshold", cfg.StabilityThreshold, "Minimum static margin in calibers")
	f.StringVar(&cfg.SamplingFile, "sampling", cfg.SamplingFile, "YAML sampling space (defaults compiled in)")
	return cmd
}

// signalContext cancels on SIGINT/SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runGenerate(cmd *cobra.Command, cfg *config.Config) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	space, err := config.LoadSamplingSpace(cfg.SamplingFile)
	if err != nil {
		return err
	}
	if err := flight.CheckVocabulary(space.Vocabulary); err != nil {
		return fmt.Errorf("sampling space cannot be flown: %w", err)
	}

	rng := core.NewRandomFromClock()
	if cfg.Seed != 0 {
		rng = core.NewRandom(cfg.Seed)
	}
	session := generator.NewSession(rng)

	engine := flight.NewEngine(flight.DefaultEnvironment(), flight.DefaultOptions())
	layout := artifact.NewLayout(cfg.OutputDir)
	gen := generator.New(
		session,
		sampler.New(space, rng),
		simulation.NewEngineAdapter(engine),
		layout,
		simulation.NewGate(cfg.StabilityThreshold),
	)

	master, summary, err := gen.Generate(ctx, cfg.TargetCount, cfg.MaxAttempts)
	if master == nil {
		return err
	}

	if werr := generator.WriteSummary(filepath.Join(layout.Root, generator.SummaryFileName), summary); werr != nil {
		return werr
	}

	if errors.Is(err, generator.ErrAttemptLimit) {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d rockets in %d attempts (run %s, seed %d)\n",
		summary.Successes, summary.Attempts, summary.RunID, summary.Seed)
	log.Debug().Str("master", layout.MasterPath()).Msg("Master table written")
	return err
}
