// Package dist implements the 5D one-particle distribution function ρ(x,y,z,φ,θ):
// histogramming particles onto the spatial/angular grid and deriving the
// marginal spatial density consumed by the integrator.
package dist

import (
	"math"

	"github.com/fkjogu/stochasticsampling/geo"
)

// Distribution is a dense 5D real array indexed (ix,iy,iz,iphi,itheta),
// stored row-major with iphi/itheta varying fastest.
type Distribution struct {
	grid geo.GridSize
	data []float64
}

// New allocates a zeroed distribution for the given grid.
func New(grid geo.GridSize) *Distribution {
	return &Distribution{
		grid: grid,
		data: make([]float64, grid.NumCells()),
	}
}

// At returns ρ at the given cell indices.
func (d *Distribution) At(ix, iy, iz, iphi, itheta int) float64 {
	return d.data[d.flatIndex(ix, iy, iz, iphi, itheta)]
}

// Raw returns a copy of the flat (ix,iy,iz,iphi,itheta)-indexed backing
// array, for persisting the full 5D distribution to output rather than
// only its spatial marginal.
func (d *Distribution) Raw() []float64 {
	out := make([]float64, len(d.data))
	copy(out, d.data)
	return out
}

// SetRaw overwrites the backing cell data directly. Used by tests that
// need an arbitrary ρ not produced by histogramming actual particles (the
// solver linearity property, for instance, must hold for any ρ, not just
// one reachable via SampleFrom).
func (d *Distribution) SetRaw(raw []float64) {
	copy(d.data, raw)
}

func (d *Distribution) flatIndex(ix, iy, iz, iphi, itheta int) int {
	g := d.grid
	return (((ix*g.Ny+iy)*g.Nz+iz)*g.Nphi+iphi)*g.Ntheta + itheta
}

// cellIndex floors a canonicalized (x,y,z,phi,theta) tuple onto grid
// indices. Inputs are assumed already reduced modulo their period, an
// invariant maintained by the particle constructor and the Langevin
// integrator's finalize step.
func cellIndex(x, y, z, phi, theta float64, box geo.BoxSize, grid geo.GridSize, width geo.GridWidth) (int, int, int, int, int) {
	ix := int(math.Floor(x / width.Dx))
	iy := int(math.Floor(y / width.Dy))
	iz := int(math.Floor(z / width.Dz))
	iphi := int(math.Floor(phi / width.Dphi))
	itheta := int(math.Floor(theta / width.Dtheta))

	if ix >= grid.Nx {
		ix = grid.Nx - 1
	}
	if iy >= grid.Ny {
		iy = grid.Ny - 1
	}
	if iz >= grid.Nz {
		iz = grid.Nz - 1
	}
	if iphi >= grid.Nphi {
		iphi = grid.Nphi - 1
	}
	if itheta >= grid.Ntheta {
		itheta = grid.Ntheta - 1
	}
	return ix, iy, iz, iphi, itheta
}

// SampleFrom zeroes ρ, histograms the given particles into it, divides by
// the 5D cell hypervolume to approximate a continuous density, then scales
// by the box volume to normalize number density.
func (d *Distribution) SampleFrom(particles []geo.Particle, box geo.BoxSize, width geo.GridWidth) {
	for i := range d.data {
		d.data[i] = 0
	}
	for _, p := range particles {
		ix, iy, iz, iphi, itheta := cellIndex(
			p.Position.X, p.Position.Y, p.Position.Z,
			p.Orientation.Phi, p.Orientation.Theta,
			box, d.grid, width,
		)
		idx := d.flatIndex(ix, iy, iz, iphi, itheta)
		d.data[idx]++
	}

	cellVol := width.CellVolume()
	boxVol := box.Lx * box.Ly * box.Lz
	scale := boxVol / cellVol
	for i := range d.data {
		d.data[i] *= scale
	}
}

// Marginal returns ρ̂(x,y,z) = Σ_φ,θ ρ·Δφ·Δθ, the spatial density consumed
// by the integrator's volume-exclusion term.
func (d *Distribution) Marginal(width geo.GridWidth) []float64 {
	g := d.grid
	out := make([]float64, g.Nx*g.Ny*g.Nz)
	dOmega := width.Dphi * width.Dtheta
	for ix := 0; ix < g.Nx; ix++ {
		for iy := 0; iy < g.Ny; iy++ {
			for iz := 0; iz < g.Nz; iz++ {
				var sum float64
				for iphi := 0; iphi < g.Nphi; iphi++ {
					for itheta := 0; itheta < g.Ntheta; itheta++ {
						sum += d.At(ix, iy, iz, iphi, itheta)
					}
				}
				out[(ix*g.Ny+iy)*g.Nz+iz] = sum * dOmega
			}
		}
	}
	return out
}

// MarginalAt indexes the flattened output of Marginal at spatial cell
// (ix,iy,iz).
func MarginalAt(marginal []float64, grid geo.GridSize, ix, iy, iz int) float64 {
	return marginal[(ix*grid.Ny+iy)*grid.Nz+iz]
}

// Sum returns Σ ρ over all cells, used by conservation tests.
func (d *Distribution) Sum() float64 {
	var s float64
	for _, v := range d.data {
		s += v
	}
	return s
}

// Grid returns the grid this distribution is defined on.
func (d *Distribution) Grid() geo.GridSize {
	return d.grid
}
