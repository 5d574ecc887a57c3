// Package magnetic implements the mean dipole-dipole field solver of
// the polarization moment of the distribution, convolved in
// Fourier space with the dipole-dipole Green's function to produce the
// mean magnetic field and its gradient.
package magnetic

import (
	"fmt"

	"github.com/fkjogu/stochasticsampling/dist"
	"github.com/fkjogu/stochasticsampling/fftadapt"
	"github.com/fkjogu/stochasticsampling/geo"
)

// Field is a flat row-major (Nx,Ny,Nz) complex array, one per vector
// component.
type Field [3][]complex128

// GradField is a flat row-major (Nx,Ny,Nz) complex array, one per (i,j)
// component of the field gradient.
type GradField [3][3][]complex128

// Solver computes the mean magnetic field generated by a distribution of
// point dipoles of unit moment along n̂(φ,θ). It owns its FFT plan and
// Fourier workspaces exclusively, reused every step.
type Solver struct {
	grid  geo.GridSize
	box   geo.BoxSize
	width geo.GridWidth
	kmesh [][][]geo.KVec3

	plan *fftadapt.Plan3D
	n    int

	polHat  Field
	bHat    Field
	gradHat GradField
	bReal   Field
	gradReal GradField
}

// NewSolver builds the solver's FFT plan and Fourier workspaces.
func NewSolver(grid geo.GridSize, box geo.BoxSize) (*Solver, error) {
	plan, err := fftadapt.NewPlan3D(grid.Nx, grid.Ny, grid.Nz, fftadapt.Measure)
	if err != nil {
		return nil, fmt.Errorf("magnetic: building spectral plan: %w", err)
	}
	n := grid.Nx * grid.Ny * grid.Nz
	s := &Solver{
		grid:  grid,
		box:   box,
		width: geo.NewGridWidth(box, grid),
		kmesh: geo.KMesh3D(grid, box),
		plan:  plan,
		n:     n,
	}
	for i := 0; i < 3; i++ {
		s.polHat[i] = make([]complex128, n)
		s.bHat[i] = make([]complex128, n)
		s.bReal[i] = make([]complex128, n)
		for j := 0; j < 3; j++ {
			s.gradHat[i][j] = make([]complex128, n)
			s.gradReal[i][j] = make([]complex128, n)
		}
	}
	return s, nil
}

// polarizationReal computes P(x) = Σ_φ,θ n̂(φ,θ)·ρ(x,φ,θ)·Δφ·Δθ, the
// first angular moment of ρ.
func (s *Solver) polarizationReal(d *dist.Distribution) [3][]complex128 {
	g := s.grid
	dOmega := s.width.Dphi * s.width.Dtheta
	var pol [3][]complex128
	for c := 0; c < 3; c++ {
		pol[c] = make([]complex128, s.n)
	}
	for ix := 0; ix < g.Nx; ix++ {
		for iy := 0; iy < g.Ny; iy++ {
			for iz := 0; iz < g.Nz; iz++ {
				flat := (ix*g.Ny+iy)*g.Nz + iz
				var acc [3]float64
				for iphi := 0; iphi < g.Nphi; iphi++ {
					phi := (float64(iphi) + 0.5) * s.width.Dphi
					for itheta := 0; itheta < g.Ntheta; itheta++ {
						theta := (float64(itheta) + 0.5) * s.width.Dtheta
						rho := d.At(ix, iy, iz, iphi, itheta)
						if rho == 0 {
							continue
						}
						n := geo.NewCosSin(geo.Orientation{Phi: phi, Theta: theta}).Vec()
						acc[0] += rho * n.X
						acc[1] += rho * n.Y
						acc[2] += rho * n.Z
					}
				}
				for c := 0; c < 3; c++ {
					pol[c][flat] = complex(acc[c]*dOmega, 0)
				}
			}
		}
	}
	return pol
}

// Solve runs the polarization-moment + dipole Green's-function pipeline,
// storing the Fourier-domain field and gradient in the solver's reused
// workspaces.
func (s *Solver) Solve(d *dist.Distribution) error {
	pol := s.polarizationReal(d)
	for c := 0; c < 3; c++ {
		if err := s.plan.Reexecute(s.polHat[c], pol[c], fftadapt.Forward); err != nil {
			return fmt.Errorf("magnetic: forward FFT of polarization(%d): %w", c, err)
		}
	}

	g := s.grid
	n := float64(s.n)
	for ix := 0; ix < g.Nx; ix++ {
		for iy := 0; iy < g.Ny; iy++ {
			for iz := 0; iz < g.Nz; iz++ {
				flat := (ix*g.Ny+iy)*g.Nz + iz
				k := s.kmesh[ix][iy][iz]
				kv := [3]float64{k.X, k.Y, k.Z}
				k2 := kv[0]*kv[0] + kv[1]*kv[1] + kv[2]*kv[2]

				if k2 == 0 {
					for i := 0; i < 3; i++ {
						s.bHat[i][flat] = 0
						for j := 0; j < 3; j++ {
							s.gradHat[i][j][flat] = 0
						}
					}
					continue
				}

				var b [3]complex128
				for i := 0; i < 3; i++ {
					var sum complex128
					for j := 0; j < 3; j++ {
						delta := 0.0
						if i == j {
							delta = 1.0
						}
						proj := 3*kv[i]*kv[j]/k2 - delta
						sum += complex(proj, 0) * s.polHat[j][flat]
					}
					b[i] = sum * complex(1/k2, 0) * complex(1/n, 0)
				}
				for i := 0; i < 3; i++ {
					s.bHat[i][flat] = b[i]
				}
				for i := 0; i < 3; i++ {
					for j := 0; j < 3; j++ {
						s.gradHat[i][j][flat] = complex(0, 1) * complex(kv[j], 0) * b[i]
					}
				}
			}
		}
	}

	for i := 0; i < 3; i++ {
		if err := s.plan.Reexecute(s.bReal[i], s.bHat[i], fftadapt.Backward); err != nil {
			return fmt.Errorf("magnetic: inverse FFT of field component %d: %w", i, err)
		}
		for j := 0; j < 3; j++ {
			if err := s.plan.Reexecute(s.gradReal[i][j], s.gradHat[i][j], fftadapt.Backward); err != nil {
				return fmt.Errorf("magnetic: inverse FFT of gradient(%d,%d): %w", i, j, err)
			}
		}
	}
	return nil
}

// BAt returns the real part of the inverse-transformed field b at spatial
// cell (ix,iy,iz) — the integrator takes the real part at cell-read time
// rather than assuming the inverse transform is exactly real (see
// DESIGN.md's resolution of the ∇b real/complex open question).
func (s *Solver) BAt(ix, iy, iz int) [3]float64 {
	flat := (ix*s.grid.Ny+iy)*s.grid.Nz + iz
	return [3]float64{
		real(s.bReal[0][flat]),
		real(s.bReal[1][flat]),
		real(s.bReal[2][flat]),
	}
}

// GradBAt returns the real part of the inverse-transformed ∇b at spatial
// cell (ix,iy,iz).
func (s *Solver) GradBAt(ix, iy, iz int) [3][3]float64 {
	flat := (ix*s.grid.Ny+iy)*s.grid.Nz + iz
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = real(s.gradReal[i][j][flat])
		}
	}
	return out
}

// BHat returns the Fourier-domain field computed by the last Solve (used
// by the k=0 zero-mean test).
func (s *Solver) BHat() Field { return s.bHat }
