package sim

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/sosl/pycyc/internal/axes"
	"github.com/sosl/pycyc/internal/grid"
)

// walkMode selects which axis currently parametrizes the arc.
//
// A parabola sampled on a discrete Cartesian grid and parametrized by a
// single axis skips cells wherever its local slope in index units
// exceeds one. The walker starts parametrized by Doppler shift and
// switches to parametrizing by delay the first time a delay bin is
// skipped; the slope in index space is monotonically non-decreasing away
// from the origin, so the switch never reverts.
type walkMode int

const (
	byOmega walkMode = iota // omega is the independent axis
	byTau                   // tau is the independent axis
)

// Stats summarizes one completed walk.
type Stats struct {
	Iterations   int
	Deposits     int
	Switched     bool // true once the walk switched to delay parametrization
	SwitchIOmega int  // Doppler cursor at the switch point
	SwitchITau   int  // delay cursor at the switch point
	FinalIOmega  int
	FinalITau    int
}

// Walker traces the parabola tau = curvature * omega^2 through the
// discretized delay-Doppler plane, depositing amplitude-and-phase
// samples into a complex grid.
type Walker struct {
	ax     axes.Params
	params Params
	phasor *Phasor
	logger *slog.Logger
}

// NewWalker creates a walker for validated, post-default parameters.
// Non-positive or non-finite curvature/decay would yield non-finite
// delays mid-walk, so they are rejected here instead.
func NewWalker(ax axes.Params, p Params, phasor *Phasor, logger *slog.Logger) (*Walker, error) {
	if p.Curvature <= 0 || math.IsNaN(p.Curvature) || math.IsInf(p.Curvature, 0) {
		return nil, fmt.Errorf("sim: walker requires positive finite curvature, got %g", p.Curvature)
	}
	if p.Decay <= 0 || math.IsNaN(p.Decay) || math.IsInf(p.Decay, 0) {
		return nil, fmt.Errorf("sim: walker requires positive finite decay, got %g", p.Decay)
	}
	if phasor == nil {
		return nil, fmt.Errorf("sim: walker requires a phasor source")
	}
	return &Walker{ax: ax, params: p, phasor: phasor, logger: logger}, nil
}

// Walk deposits the arc into g. The grid must be zero-filled and sized
// ntime x nchan for the geometry the axis parameters were derived from.
//
// Each deposited cell receives amplitude exp(-decay*tau). Cells off the
// zero-Doppler row are multiplied by a random phasor, and the
// conjugate-frequency slot at ntime-jomega receives the same amplitude
// with an independently drawn phasor. True conjugate symmetry is
// deliberately not enforced: only the magnitude of the transformed
// spectrum is consumed downstream.
func (w *Walker) Walk(g *grid.Grid) (Stats, error) {
	ntime := g.NTime()
	nchan := g.NChan()

	nomega := ntime / 2
	ntau := nchan / 2
	if nomega == 0 || ntau == 0 {
		return Stats{}, fmt.Errorf("sim: grid %dx%d too small to hold an arc", ntime, nchan)
	}

	w.logger.Debug("starting walk", "nomega", nomega, "ntau", ntau,
		"curvature_s3", w.params.Curvature, "decay_s", w.params.Decay)

	var (
		stats  Stats
		mode   = byOmega
		iomega = 0
		itau   = 0
		omega  float64
		tau    float64
		jomega int
		jtau   int
	)

	for iomega < nomega && itau < ntau {
		stats.Iterations++

		if mode == byOmega {
			omega = float64(iomega) * w.ax.DeltaOmega
			tau = w.params.Curvature * omega * omega

			// Converting an out-of-range float64 to int is
			// implementation-specific, so compare in float first: a
			// curvature steep enough to leave the delay axis within
			// one Doppler bin ends the walk here.
			scaled := tau / w.ax.DeltaTau
			if scaled >= float64(ntau) {
				break
			}
			jtau = int(scaled)
			jomega = iomega

			// A skipped delay bin means the curve now climbs faster
			// than one delay bin per Doppler bin.
			if jtau > itau {
				stats.Switched = true
				stats.SwitchIOmega = iomega
				stats.SwitchITau = itau
				w.logger.Debug("switching to delay parametrization",
					"iomega", iomega, "itau", itau)
				mode = byTau
			}

			iomega++
			itau = jtau + 1
		}

		// On the switching iteration both branches run: the deposit
		// below uses the recomputed on-curve position.
		if mode == byTau {
			if itau >= ntau {
				break
			}
			tau = float64(itau) * w.ax.DeltaTau
			omega = math.Sqrt(tau / w.params.Curvature)
			jtau = itau

			// Same conversion hazard as above, on the Doppler axis.
			scaled := omega / w.ax.DeltaOmega
			if scaled >= float64(nomega) {
				break
			}
			jomega = int(scaled)

			itau++
			iomega = jomega
		}

		amplitude := complex(math.Exp(-w.params.Decay*tau), 0)

		g.Set(jomega, jtau, amplitude)
		stats.Deposits++
		if jomega > 0 {
			g.Mul(jomega, jtau, w.phasor.Draw())
			g.Set(ntime-jomega, jtau, amplitude*w.phasor.Draw())
		}
	}

	stats.FinalIOmega = iomega
	stats.FinalITau = itau

	w.logger.Debug("walk finished", "iomega", iomega, "itau", itau,
		"iterations", stats.Iterations, "deposits", stats.Deposits)

	return stats, nil
}
