package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/config"
	"github.com/sebastiankruger/trajectory-dataset/internal/publish"
	"github.com/sebastiankruger/trajectory-dataset/internal/store"
)

func newPublishCmd(cfg *config.Config) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Load a generated dataset into the SQLite store",
		Long: "Loads the run summary, master table and per-rocket series into the store.\n" +
			"With --remote the rows are also upserted to SUPABASE_URL.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, cfg, remote)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	f.BoolVar(&remote, "remote", false, "Also upload to the configured remote endpoint")
	return cmd
}

func runPublish(cmd *cobra.Command, cfg *config.Config, remote bool) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	var client *publish.Client
	if remote {
		client = publish.NewClient(cfg)
		if !client.Enabled() {
			return fmt.Errorf("--remote requires SUPABASE_URL")
		}
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := publish.NewLoader(s, artifact.NewLayout(cfg.OutputDir), client).Load(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Published %d rockets (%d skipped) to %s\n",
		report.Rockets, report.Skipped, cfg.DBPath)
	return nil
}
