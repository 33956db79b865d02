package sim

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sosl/pycyc/internal/axes"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// referenceAxes derives axis parameters for the 64 MHz / 8-channel /
// 16-sample / 15 s reference geometry used throughout these tests.
func referenceAxes(t *testing.T) axes.Params {
	t.Helper()
	ax, err := axes.Derive(axes.Geometry{
		NChan:            8,
		NTime:            16,
		Bandwidth:        64.0,
		CentreFrequency:  1400.0,
		SamplingInterval: 15.0,
	})
	require.NoError(t, err)
	return ax
}

func TestApplyDefaultsCurvature(t *testing.T) {
	ax := referenceAxes(t)

	p, err := ApplyDefaults(Params{}, ax, testLogger())
	require.NoError(t, err)

	// The defaulted arc must reach max_tau exactly at 90% of the
	// Doppler axis.
	spanOmega := DefaultOmegaSpanFraction * ax.MaxOmega
	assert.InEpsilon(t, ax.MaxTau, p.Curvature*spanOmega*spanOmega, 1e-12)

	// Hand-computed: 6.25e-8 / (0.03)^2.
	assert.InEpsilon(t, 6.9444444444444444e-5, p.Curvature, 1e-12)
}

func TestApplyDefaultsDecay(t *testing.T) {
	ax := referenceAxes(t)

	p, err := ApplyDefaults(Params{}, ax, testLogger())
	require.NoError(t, err)

	assert.InEpsilon(t, 0.25*ax.MaxTau, p.Decay, 1e-12)
	assert.InEpsilon(t, 1.5625e-8, p.Decay, 1e-12)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	ax := referenceAxes(t)

	in := Params{Curvature: 1e-4, Decay: 3e-8}
	p, err := ApplyDefaults(in, ax, testLogger())
	require.NoError(t, err)
	assert.Equal(t, in, p)
}

func TestApplyDefaultsRejectsDegenerate(t *testing.T) {
	ax := referenceAxes(t)

	tests := []struct {
		name string
		in   Params
	}{
		{"negative curvature", Params{Curvature: -1e-4, Decay: 3e-8}},
		{"negative decay", Params{Curvature: 1e-4, Decay: -3e-8}},
		{"NaN curvature", Params{Curvature: math.NaN(), Decay: 3e-8}},
		{"infinite decay", Params{Curvature: 1e-4, Decay: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyDefaults(tt.in, ax, testLogger())
			assert.Error(t, err)
		})
	}
}
