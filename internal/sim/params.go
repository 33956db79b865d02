// Package sim implements the scintillation-arc simulation: parameter
// defaulting, the delay-Doppler trajectory walk and the spectral
// transform handoff that together produce a synthetic dynamic spectrum.
package sim

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/sosl/pycyc/internal/axes"
)

// Geometry-derived default fractions. The curvature default places the
// arc so that it reaches the maximum delay at 90% of the Doppler axis;
// the decay default sets the impulse-response timescale to 25% of the
// maximum delay.
const (
	DefaultOmegaSpanFraction = 0.9
	DefaultDecayFraction     = 0.25
)

// Params holds the physical tunables of one simulation run. A zero value
// acts as an "unset" sentinel and is replaced by a geometry-derived
// default in ApplyDefaults.
type Params struct {
	Curvature float64 // arc curvature in s^3, relates delay to Doppler^2
	Decay     float64 // impulse-response decay timescale in seconds
}

// ApplyDefaults fills unset parameters from the derived axis parameters
// and validates the result. Each chosen default is logged; the notices
// are diagnostic only and not part of the data contract.
func ApplyDefaults(p Params, ax axes.Params, logger *slog.Logger) (Params, error) {
	if p.Curvature == 0 {
		spanOmega := DefaultOmegaSpanFraction * ax.MaxOmega
		p.Curvature = ax.MaxTau / (spanOmega * spanOmega)
		logger.Info("defaulting arc curvature",
			"omega_span_percent", DefaultOmegaSpanFraction*100,
			"curvature_s3", p.Curvature,
		)
	}

	if p.Decay == 0 {
		p.Decay = DefaultDecayFraction * ax.MaxTau
		logger.Info("defaulting decay timescale",
			"max_tau_percent", DefaultDecayFraction*100,
			"decay_s", p.Decay,
		)
	}

	if p.Curvature <= 0 || math.IsNaN(p.Curvature) || math.IsInf(p.Curvature, 0) {
		return Params{}, fmt.Errorf("sim: degenerate arc curvature %g s^3", p.Curvature)
	}
	if p.Decay <= 0 || math.IsNaN(p.Decay) || math.IsInf(p.Decay, 0) {
		return Params{}, fmt.Errorf("sim: degenerate decay timescale %g s", p.Decay)
	}

	return p, nil
}
