// Package publish loads a generated dataset directory into the SQLite store
// and optionally mirrors it to a remote REST endpoint.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/generator"
	"github.com/sebastiankruger/trajectory-dataset/internal/store"
)

// Store is the subset of the store the loader writes to
type Store interface {
	SaveRun(ctx context.Context, r store.Run) error
	SaveRocket(ctx context.Context, r store.Rocket, trajectory []artifact.TrajectorySample, wind []artifact.WindSample) error
}

// Report counts what a load stored
type Report struct {
	RunID   string
	Rockets int
	Skipped int
}

// Loader copies a dataset directory into a store
type Loader struct {
	store  Store
	layout artifact.Layout
	remote *Client
}

// NewLoader creates a loader for the dataset under layout. remote may be nil.
func NewLoader(s Store, layout artifact.Layout, remote *Client) *Loader {
	return &Loader{
		store:  s,
		layout: layout,
		remote: remote,
	}
}

// RunFromSummary converts a generation summary to a stored run
func RunFromSummary(s generator.Summary, outputDir string) (store.Run, error) {
	metrics, err := json.Marshal(s.Metrics)
	if err != nil {
		return store.Run{}, fmt.Errorf("failed to marshal metrics: %w", err)
	}
	return store.Run{
		RunID:          s.RunID,
		Seed:           s.Seed,
		Target:         s.Target,
		Attempts:       s.Attempts,
		Successes:      s.Successes,
		Failures:       s.Failures,
		AcceptanceRate: s.Metrics.AcceptanceRate,
		Metrics:        string(metrics),
		OutputDir:      outputDir,
		StartedAt:      s.StartedAt,
		Duration:       s.Duration,
	}, nil
}

// Load stores the run summary (when present) and every rocket of the master
// table with its samples. Rockets whose trajectory cannot be read are skipped.
// Loading the same directory again updates rows in place.
func (l *Loader) Load(ctx context.Context) (Report, error) {
	var report Report

	master, err := artifact.ReadMaster(l.layout.MasterPath())
	if err != nil {
		return report, err
	}

	var run *store.Run
	summary, err := generator.ReadSummary(filepath.Join(l.layout.Root, generator.SummaryFileName))
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info().Msg("No run summary found, rockets are stored without a run")
	case err != nil:
		return report, err
	default:
		r, err := RunFromSummary(*summary, l.layout.Root)
		if err != nil {
			return report, err
		}
		if err := l.store.SaveRun(ctx, r); err != nil {
			return report, err
		}
		run = &r
		report.RunID = r.RunID
	}

	var published []store.Rocket
	for _, e := range master.Entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		traj, err := artifact.ReadTrajectory(l.layout.Abs(e.Paths.Trajectory))
		if err != nil {
			log.Warn().Err(err).Str("rocket_id", e.ID).Msg("Skipping rocket, trajectory not loadable")
			report.Skipped++
			continue
		}
		var wind []artifact.WindSample
		if e.Paths.Wind != "" {
			if wind, err = artifact.ReadWind(l.layout.Abs(e.Paths.Wind)); err != nil {
				log.Warn().Err(err).Str("rocket_id", e.ID).Msg("Wind series not loadable, storing trajectory only")
				wind = nil
			}
		}

		r := store.Rocket{
			ID:             e.ID,
			RunID:          report.RunID,
			Config:         e.Config,
			InitWindX:      e.InitWindX,
			InitWindY:      e.InitWindY,
			TrajectoryFile: e.Paths.Trajectory,
			WindFile:       e.Paths.Wind,
			SampleCount:    len(traj),
			Apogee:         apogee(traj),
		}
		if err := l.store.SaveRocket(ctx, r, traj, wind); err != nil {
			return report, err
		}
		published = append(published, r)
		report.Rockets++
	}

	if l.remote != nil && l.remote.Enabled() {
		if run != nil {
			if err := l.remote.PublishRun(ctx, *run); err != nil {
				return report, err
			}
		}
		if err := l.remote.PublishRockets(ctx, published); err != nil {
			return report, err
		}
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("rockets", report.Rockets).
		Int("skipped", report.Skipped).
		Msg("Dataset published")

	return report, nil
}

func apogee(traj []artifact.TrajectorySample) float64 {
	if len(traj) == 0 {
		return 0
	}
	top := math.Inf(-1)
	for _, p := range traj {
		top = math.Max(top, p.Z)
	}
	return top
}
