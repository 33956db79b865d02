package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sosl/pycyc/internal/axes"
	"github.com/sosl/pycyc/internal/grid"
	"github.com/sosl/pycyc/internal/metrics"
	"github.com/sosl/pycyc/internal/transform"
)

// Simulator runs the full pipeline for one realization: axis derivation,
// parameter defaulting, the trajectory walk, and the spectral transform.
// The resulting grid holds the frequency-time dynamic spectrum.
type Simulator struct {
	logger *slog.Logger
}

// New creates a Simulator.
func New(logger *slog.Logger) *Simulator {
	return &Simulator{logger: logger}
}

// Result holds the output of one simulation run. The grid is mutated in
// place by the spectral transform and should be treated as read-only by
// consumers.
type Result struct {
	Grid   *grid.Grid  // post-transform dynamic spectrum
	Axes   axes.Params // derived axis parameters
	Params Params      // effective (post-default) parameters
	Walk   Stats
}

// Run executes one simulation. All configuration errors surface before
// any grid cell is written; there is no partial output.
func (s *Simulator) Run(geom axes.Geometry, p Params, seed int64) (*Result, error) {
	start := time.Now()
	res, err := s.run(geom, p, seed)

	deposits := 0
	if res != nil {
		deposits = res.Walk.Deposits
	}
	metrics.RecordSimulation(time.Since(start), deposits, err)

	return res, err
}

func (s *Simulator) run(geom axes.Geometry, p Params, seed int64) (*Result, error) {
	ax, err := axes.Derive(geom)
	if err != nil {
		return nil, err
	}

	eff, err := ApplyDefaults(p, ax, s.logger)
	if err != nil {
		return nil, err
	}

	s.logger.Info("simulation parameters",
		"curvature_s3", eff.Curvature,
		"decay_s", eff.Decay,
		"delta_tau_s", ax.DeltaTau,
		"delta_omega_hz", ax.DeltaOmega,
	)

	g, err := grid.New(geom.NTime, geom.NChan)
	if err != nil {
		return nil, err
	}

	walker, err := NewWalker(ax, eff, NewPhasor(seed), s.logger)
	if err != nil {
		return nil, err
	}

	stats, err := walker.Walk(g)
	if err != nil {
		return nil, err
	}

	if err := transform.Forward2D(g); err != nil {
		return nil, fmt.Errorf("sim: spectral transform: %w", err)
	}

	return &Result{Grid: g, Axes: ax, Params: eff, Walk: stats}, nil
}
