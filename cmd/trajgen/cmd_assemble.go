package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/config"
	"github.com/sebastiankruger/trajectory-dataset/internal/dataset"
)

func newAssembleCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Join the master table and trajectory files into one table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAssemble(cmd, cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.AssembleWorkers, "workers", cfg.AssembleWorkers, "Parallel artifact readers")
	return cmd
}

func runAssemble(cmd *cobra.Command, cfg *config.Config) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	layout := artifact.NewLayout(cfg.OutputDir)
	master, err := artifact.ReadMaster(layout.MasterPath())
	if err != nil {
		return err
	}

	table, err := dataset.NewAssembler(layout, cfg.AssembleWorkers).Assemble(ctx, master)
	if err != nil {
		return err
	}

	path := filepath.Join(layout.Root, dataset.AssembledFileName)
	if err := table.WriteCSV(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Assembled %d rows from %d simulations (%s) into %s\n",
		table.Len(), len(table.Segments), humanize.IBytes(table.SizeBytes()), path)
	return nil
}
