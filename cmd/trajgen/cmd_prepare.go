package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sebastiankruger/trajectory-dataset/internal/config"
	"github.com/sebastiankruger/trajectory-dataset/internal/dataset"
	"github.com/sebastiankruger/trajectory-dataset/internal/features"
	"github.com/sebastiankruger/trajectory-dataset/internal/sequence"
)

// PreparedDir holds the windowed arrays under the output directory
const PreparedDir = "prepared"

func newPrepareCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Derive features, scale and window the assembled table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrepare(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.WindowSize, "window", cfg.WindowSize, "Rows per input window")
	f.Float64Var(&cfg.TestFraction, "test-fraction", cfg.TestFraction, "Fraction of rows held out for testing")
	f.BoolVar(&cfg.PerSimulationWindows, "per-simulation", cfg.PerSimulationWindows, "Never let a window span two simulations")
	f.BoolVar(&cfg.Downcast, "downcast", cfg.Downcast, "Narrow feature columns whose values fit a smaller type exactly")
	f.StringVar(&cfg.SamplingFile, "sampling", cfg.SamplingFile, "YAML sampling space providing the categorical vocabulary")
	return cmd
}

func runPrepare(cmd *cobra.Command, cfg *config.Config) error {
	space, err := config.LoadSamplingSpace(cfg.SamplingFile)
	if err != nil {
		return err
	}

	table, err := dataset.ReadAssembled(filepath.Join(cfg.OutputDir, dataset.AssembledFileName))
	if err != nil {
		return err
	}

	feats, targets, err := features.Transform(table, features.Options{
		Vocabulary: space.Vocabulary,
		Downcast:   cfg.Downcast,
	})
	if err != nil {
		return err
	}
	if err := feats.WriteCSV(filepath.Join(cfg.OutputDir, features.OptimizedFileName)); err != nil {
		return err
	}

	ds, err := sequence.MakeWindows(feats, targets, sequence.Options{
		WindowSize:    cfg.WindowSize,
		TestFraction:  cfg.TestFraction,
		PerSimulation: cfg.PerSimulationWindows,
	})
	if err != nil {
		return err
	}

	dir := filepath.Join(cfg.OutputDir, PreparedDir)
	if err := ds.Write(dir); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Prepared %d train and %d test windows of %d rows (%d features) in %s\n",
		ds.Train.Count, ds.Test.Count, cfg.WindowSize, len(ds.FeatureNames), dir)
	return nil
}
