// Package transform converts a delay-Doppler wavefield into the
// observable frequency-time dynamic spectrum.
package transform

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"

	"github.com/sosl/pycyc/internal/grid"
)

// FFT library choice: github.com/mjibson/go-dsp/fft
//
// Selected for: pure Go (no CGO), a direct two-dimensional complex
// transform (FFT2), unnormalized forward convention matching FFTW's
// FFTW_FORWARD. The transform is treated as an opaque, blocking,
// single-call operation; no partial results are observable.

// Forward2D applies one forward two-dimensional DFT over the full grid
// and writes the result back over the input.
//
// Both axes use the forward convention. Physically the Doppler axis
// would be transformed backward, which could be arranged by conjugating
// and reversing along that axis. The deposited phases are random, so
// the distinction is immaterial as long as only the dynamic frequency
// response is used from this point onward and there is no need to
// return to the delay-Doppler wavefield.
func Forward2D(g *grid.Grid) error {
	if g == nil {
		return fmt.Errorf("transform: nil grid")
	}
	return g.Store(fft.FFT2(g.Rows()))
}
