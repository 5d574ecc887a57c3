// Package geo implements the grid, box, and periodic particle/orientation
// algebra shared by the distribution sampler, the spectral and magnetic
// solvers, and the Langevin integrator. Every type here is a pure value type;
// none of them hold solver state.
package geo

import "math"

// BoxSize holds the three edge lengths of the periodic simulation box.
type BoxSize struct {
	Lx, Ly, Lz float64
}

// GridSize holds the grid counts: three spatial axes plus the two angular
// axes (azimuth φ and polar θ) of the distribution function.
type GridSize struct {
	Nx, Ny, Nz int
	Nphi, Ntheta int
}

// Spatial returns the spatial grid counts as a (Nx,Ny,Nz) triple, the shape
// consumed by the FFT adapter.
func (g GridSize) Spatial() (int, int, int) {
	return g.Nx, g.Ny, g.Nz
}

// NumCells returns the total number of 5D distribution cells.
func (g GridSize) NumCells() int {
	return g.Nx * g.Ny * g.Nz * g.Nphi * g.Ntheta
}

// GridWidth holds the cell widths derived from a BoxSize and GridSize: three
// spatial widths, then Δφ = 2π/Nφ and Δθ = π/Nθ.
type GridWidth struct {
	Dx, Dy, Dz float64
	Dphi, Dtheta float64
}

// NewGridWidth derives the cell widths from box and grid sizes.
func NewGridWidth(box BoxSize, grid GridSize) GridWidth {
	return GridWidth{
		Dx: box.Lx / float64(grid.Nx),
		Dy: box.Ly / float64(grid.Ny),
		Dz: box.Lz / float64(grid.Nz),
		Dphi: TwoPi / float64(grid.Nphi),
		Dtheta: math.Pi / float64(grid.Ntheta),
	}
}

// CellVolume returns the 5D hypervolume Δx·Δy·Δz·Δφ·Δθ of one distribution
// cell, used to turn a raw histogram count into a density.
func (w GridWidth) CellVolume() float64 {
	return w.Dx * w.Dy * w.Dz * w.Dphi * w.Dtheta
}

// SpatialCellVolume returns Δx·Δy·Δz, the volume of one spatial grid cell.
func (w GridWidth) SpatialCellVolume() float64 {
	return w.Dx * w.Dy * w.Dz
}

// TwoPi is 2π, kept as a named constant the way angle-heavy code in the
// original benefits from (avoids re-deriving it at every call site).
const TwoPi = 2 * math.Pi
