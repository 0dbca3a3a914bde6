// Package generator runs the rejection-sampling loop: sample a configuration,
// simulate it, keep it only if it is stable, and record its artifacts.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/core"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
	"github.com/sebastiankruger/trajectory-dataset/internal/simulation"
)

// ErrAttemptLimit is returned when the attempt cap is reached before the target
var ErrAttemptLimit = errors.New("attempt limit reached before target")

// DefaultMaxExportFailures is how many consecutive export failures end a run.
// Repeated write failures point at the output directory, not the configuration.
const DefaultMaxExportFailures = 5

// Sampler draws configurations
type Sampler interface {
	Sample() rocket.Configuration
}

// Session holds the state of one generation run
type Session struct {
	RunID     string
	Random    *core.Random
	StartedAt time.Time

	Attempts  int
	Successes int
}

// NewSession creates a session around an injected random source
func NewSession(rng *core.Random) *Session {
	return &Session{
		RunID:     uuid.NewString(),
		Random:    rng,
		StartedAt: time.Now(),
	}
}

// Failures returns attempts that did not produce an accepted configuration
func (s *Session) Failures() int {
	return s.Attempts - s.Successes
}

// Summary reports the outcome of a run
type Summary struct {
	RunID     string          `json:"run_id"`
	Seed      int64           `json:"seed"`
	Target    int             `json:"target"`
	Attempts  int             `json:"attempts"`
	Successes int             `json:"successes"`
	Failures  int             `json:"failures"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Metrics   MetricsSnapshot `json:"metrics"`
}

// Generator drives a sampler and a simulation adapter until enough stable
// configurations have been collected
type Generator struct {
	session *Session
	sampler Sampler
	adapter simulation.Adapter
	layout  artifact.Layout
	gate    simulation.Gate
	metrics *Metrics

	maxExportFailures int
}

// New creates a generator writing artifacts under layout
func New(session *Session, sampler Sampler, adapter simulation.Adapter, layout artifact.Layout, gate simulation.Gate) *Generator {
	return &Generator{
		session:           session,
		sampler:           sampler,
		adapter:           adapter,
		layout:            layout,
		gate:              gate,
		metrics:           NewMetrics(),
		maxExportFailures: DefaultMaxExportFailures,
	}
}

// Session returns the run state
func (g *Generator) Session() *Session {
	return g.session
}

// Metrics returns the run metrics collector
func (g *Generator) Metrics() *Metrics {
	return g.metrics
}

// Generate collects target stable configurations. A maxAttempts of 0 means
// unbounded. The master table is written once the loop ends; when the attempt
// cap is hit the accepted configurations are still persisted and
// ErrAttemptLimit is returned. Cancellation aborts without a master table.
func (g *Generator) Generate(ctx context.Context, target, maxAttempts int) (*artifact.MasterTable, Summary, error) {
	if target < 0 {
		return nil, Summary{}, fmt.Errorf("invalid target count %d", target)
	}
	if err := g.layout.Prepare(); err != nil {
		return nil, g.summary(target), err
	}

	s := g.session
	table := &artifact.MasterTable{}
	exportFailures := 0
	var limitErr error

	log.Info().
		Str("run_id", s.RunID).
		Int64("seed", s.Random.Seed()).
		Int("target", target).
		Int("max_attempts", maxAttempts).
		Float64("threshold", g.gate.Threshold).
		Str("output", g.layout.Root).
		Msg("Starting generation")

	for s.Successes < target {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("accepted", s.Successes).Msg("Generation interrupted, master table not written")
			return nil, g.summary(target), fmt.Errorf("generation interrupted: %w", err)
		}
		if maxAttempts > 0 && s.Attempts >= maxAttempts {
			limitErr = fmt.Errorf("%w: %d of %d after %d attempts", ErrAttemptLimit, s.Successes, target, s.Attempts)
			break
		}

		s.Attempts++
		cfg, res, err := g.attempt(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Interrupted attempts are not counted
				s.Attempts--
				continue
			}
			g.metrics.RecordFailure(ReasonSimulation)
			log.Debug().Err(err).Int("attempt", s.Attempts).Msg("Attempt failed")
			continue
		}

		if !g.gate.Accept(res.Margin) {
			g.metrics.RecordRejected(res.Margin)
			log.Debug().Int("attempt", s.Attempts).Float64("margin", res.Margin).Msg("Configuration unstable")
			continue
		}

		id := rocket.FormatID(s.Successes)
		paths := g.layout.PathsFor(id)
		if err := g.adapter.Export(res, g.layout.Resolve(paths)); err != nil {
			if rmErr := g.layout.Remove(paths); rmErr != nil {
				log.Warn().Err(rmErr).Str("rocket_id", id).Msg("Failed to remove partial artifacts")
			}
			g.metrics.RecordFailure(ReasonExport)
			exportFailures++
			log.Warn().Err(err).Str("rocket_id", id).Int("consecutive", exportFailures).Msg("Failed to export artifacts")
			if exportFailures >= g.maxExportFailures {
				return nil, g.summary(target), fmt.Errorf("failed to export artifacts %d times in a row: %w", exportFailures, err)
			}
			continue
		}
		exportFailures = 0

		windX, windY := res.InitialWind()
		table.Append(artifact.Entry{
			ID:        id,
			Config:    cfg,
			InitWindX: windX,
			InitWindY: windY,
			Paths:     paths,
		})
		s.Successes++
		g.metrics.RecordAccepted(res.Margin)

		log.Info().
			Str("rocket_id", id).
			Int("attempt", s.Attempts).
			Float64("margin", res.Margin).
			Float64("apogee", res.Apogee).
			Int("samples", len(res.Trajectory)).
			Msg("Configuration accepted")
	}

	if err := artifact.WriteMaster(g.layout.MasterPath(), table); err != nil {
		return nil, g.summary(target), fmt.Errorf("failed to write master table: %w", err)
	}

	summary := g.summary(target)
	log.Info().
		Str("run_id", s.RunID).
		Int("attempts", summary.Attempts).
		Int("successes", summary.Successes).
		Int("failures", summary.Failures).
		Float64("acceptance_rate", summary.Metrics.AcceptanceRate).
		Dur("duration", summary.Duration).
		Msg("Generation finished")

	return table, summary, limitErr
}

// attempt samples and simulates one configuration. Panics from the sampler
// or the engine count as a failed attempt.
func (g *Generator) attempt(ctx context.Context) (cfg rocket.Configuration, res *simulation.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &simulation.Error{Kind: simulation.KindEngine, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	cfg = g.sampler.Sample()
	res, err = g.adapter.Simulate(ctx, cfg)
	if err == nil && res == nil {
		err = &simulation.Error{Kind: simulation.KindEngine, Err: errors.New("no result")}
	}
	return cfg, res, err
}

func (g *Generator) summary(target int) Summary {
	s := g.session
	return Summary{
		RunID:     s.RunID,
		Seed:      s.Random.Seed(),
		Target:    target,
		Attempts:  s.Attempts,
		Successes: s.Successes,
		Failures:  s.Failures(),
		StartedAt: s.StartedAt,
		Duration:  time.Since(s.StartedAt),
		Metrics:   g.metrics.Snapshot(),
	}
}
