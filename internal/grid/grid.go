package grid

import "fmt"

// Grid is a dense two-dimensional complex-valued raster, logically indexed
// by (time sample, frequency channel) and stored row-major over time.
// A Grid is created zero-filled and is owned by a single simulation run;
// nothing here is safe for concurrent mutation.
type Grid struct {
	ntime int
	nchan int
	data  []complex128
	rows  [][]complex128 // row views into data, shared backing
}

// New allocates a zero-filled ntime x nchan grid.
func New(ntime, nchan int) (*Grid, error) {
	if ntime <= 0 {
		return nil, fmt.Errorf("grid: ntime must be positive, got %d", ntime)
	}
	if nchan <= 0 {
		return nil, fmt.Errorf("grid: nchan must be positive, got %d", nchan)
	}

	data := make([]complex128, ntime*nchan)
	rows := make([][]complex128, ntime)
	for i := range rows {
		rows[i] = data[i*nchan : (i+1)*nchan]
	}

	return &Grid{ntime: ntime, nchan: nchan, data: data, rows: rows}, nil
}

// NTime returns the number of time samples (rows).
func (g *Grid) NTime() int { return g.ntime }

// NChan returns the number of frequency channels (columns).
func (g *Grid) NChan() int { return g.nchan }

// At returns the cell at (itime, ichan).
func (g *Grid) At(itime, ichan int) complex128 {
	return g.rows[itime][ichan]
}

// Set stores v at (itime, ichan).
func (g *Grid) Set(itime, ichan int, v complex128) {
	g.rows[itime][ichan] = v
}

// Mul multiplies the cell at (itime, ichan) by v in place.
func (g *Grid) Mul(itime, ichan int, v complex128) {
	g.rows[itime][ichan] *= v
}

// Data returns the flat row-major backing slice. The caller must treat it
// as read-only once the grid has been handed off as an output payload.
func (g *Grid) Data() []complex128 {
	return g.data
}

// Rows returns per-row views sharing the grid's backing slice.
func (g *Grid) Rows() [][]complex128 {
	return g.rows
}

// Store overwrites the grid contents from src, which must have the same
// ntime x nchan shape.
func (g *Grid) Store(src [][]complex128) error {
	if len(src) != g.ntime {
		return fmt.Errorf("grid: store row count %d, want %d", len(src), g.ntime)
	}
	for i, row := range src {
		if len(row) != g.nchan {
			return fmt.Errorf("grid: store row %d length %d, want %d", i, len(row), g.nchan)
		}
		copy(g.rows[i], row)
	}
	return nil
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c, _ := New(g.ntime, g.nchan)
	copy(c.data, g.data)
	return c
}
