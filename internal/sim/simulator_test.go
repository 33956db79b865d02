package sim

import (
	"math/cmplx"
	"testing"

	"github.com/sosl/pycyc/internal/axes"
	"github.com/sosl/pycyc/internal/grid"
)

func TestSimulatorRunReferenceScenario(t *testing.T) {
	s := New(testLogger())

	res, err := s.Run(refGeom, Params{}, 21)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Grid.NTime() != refGeom.NTime || res.Grid.NChan() != refGeom.NChan {
		t.Errorf("grid = %dx%d, want %dx%d",
			res.Grid.NTime(), res.Grid.NChan(), refGeom.NTime, refGeom.NChan)
	}

	if res.Axes.DeltaTau != 1.5625e-8 {
		t.Errorf("DeltaTau = %g, want 1.5625e-8", res.Axes.DeltaTau)
	}

	if res.Params.Curvature <= 0 || res.Params.Decay <= 0 {
		t.Errorf("effective parameters not defaulted: %+v", res.Params)
	}

	nomega := refGeom.NTime / 2
	ntau := refGeom.NChan / 2
	if res.Walk.Iterations > nomega+ntau {
		t.Errorf("walk took %d iterations, bound is %d", res.Walk.Iterations, nomega+ntau)
	}
}

// The transform's DC bin equals the sum over the pre-transform wavefield.
// Replaying the walk with the simulator's seed reconstructs that sum.
func TestSimulatorRunTransformsWalkOutput(t *testing.T) {
	const seed = 1234

	s := New(testLogger())
	res, err := s.Run(refGeom, Params{}, seed)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ax, err := axes.Derive(refGeom)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	p, err := ApplyDefaults(Params{}, ax, testLogger())
	if err != nil {
		t.Fatalf("ApplyDefaults failed: %v", err)
	}
	g, _ := grid.New(refGeom.NTime, refGeom.NChan)
	w, err := NewWalker(ax, p, NewPhasor(seed), testLogger())
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}
	if _, err := w.Walk(g); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	var sum complex128
	for _, v := range g.Data() {
		sum += v
	}

	if diff := cmplx.Abs(res.Grid.At(0, 0) - sum); diff > 1e-9 {
		t.Errorf("DC bin differs from wavefield sum by %g", diff)
	}
}

func TestSimulatorRunRejectsBadGeometry(t *testing.T) {
	s := New(testLogger())

	bad := refGeom
	bad.Bandwidth = -64

	if _, err := s.Run(bad, Params{}, 1); err == nil {
		t.Error("Run with negative bandwidth succeeded, want configuration error")
	}
}

func TestSimulatorRunRejectsDegenerateParams(t *testing.T) {
	s := New(testLogger())

	if _, err := s.Run(refGeom, Params{Curvature: -1e-5}, 1); err == nil {
		t.Error("Run with negative curvature succeeded, want error")
	}
}
