// Package axes derives delay and Doppler-shift axis parameters from the
// geometry of a frequency/time grid.
//
// The dynamic spectrum is the two-dimensional Fourier dual of the
// delay-Doppler wavefield: the delay axis is conjugate to observing
// frequency and the Doppler axis is conjugate to time. Bandwidth and
// centre frequency follow the archive convention and are expressed in
// MHz, which is why the delay-axis spacing is 1e-6/bandwidth seconds.
package axes

import (
	"fmt"
	"math"
)

// Geometry describes the frequency/time grid of one simulation run.
// Immutable for the duration of the run.
type Geometry struct {
	NChan            int     // frequency channel count
	NTime            int     // time sample count
	Bandwidth        float64 // total bandwidth in MHz
	CentreFrequency  float64 // centre frequency in MHz
	SamplingInterval float64 // time between samples in seconds
}

// Validate reports a configuration error for any non-positive geometry field.
func (g Geometry) Validate() error {
	if g.NChan <= 0 {
		return fmt.Errorf("axes: nchan must be positive, got %d", g.NChan)
	}
	if g.NTime <= 0 {
		return fmt.Errorf("axes: ntime must be positive, got %d", g.NTime)
	}
	if g.Bandwidth <= 0 {
		return fmt.Errorf("axes: bandwidth must be positive, got %g MHz", g.Bandwidth)
	}
	if g.SamplingInterval <= 0 {
		return fmt.Errorf("axes: sampling interval must be positive, got %g s", g.SamplingInterval)
	}
	return nil
}

// ChannelBandwidth returns the width of one frequency channel in MHz.
func (g Geometry) ChannelBandwidth() float64 {
	return g.Bandwidth / float64(g.NChan)
}

// Params holds the derived delay/Doppler axis parameters.
// Computed once per run, immutable thereafter.
type Params struct {
	DeltaTau   float64 // delay-axis sample spacing, seconds
	MaxTau     float64 // maximum representable positive delay, seconds
	TimeSpan   float64 // total time spanned by the response, seconds
	DeltaOmega float64 // Doppler-axis sample spacing, Hz
	MaxOmega   float64 // maximum representable positive Doppler shift, Hz
}

// Derive computes the axis parameters for the given geometry.
// Pure function of its input; fails before any simulation state exists.
func Derive(g Geometry) (Params, error) {
	if err := g.Validate(); err != nil {
		return Params{}, err
	}

	p := Params{}
	p.DeltaTau = 1e-6 / g.Bandwidth
	p.MaxTau = 0.5 * float64(g.NChan) * p.DeltaTau
	p.TimeSpan = float64(g.NTime) * g.SamplingInterval
	p.DeltaOmega = 1.0 / p.TimeSpan
	p.MaxOmega = 0.5 * float64(g.NTime) * p.DeltaOmega

	for _, v := range []float64{p.DeltaTau, p.MaxTau, p.TimeSpan, p.DeltaOmega, p.MaxOmega} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Params{}, fmt.Errorf("axes: non-finite axis parameters for geometry %+v", g)
		}
	}

	return p, nil
}
