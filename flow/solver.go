package flow

import (
	"fmt"
	"math"

	"github.com/fkjogu/stochasticsampling/dist"
	"github.com/fkjogu/stochasticsampling/fftadapt"
	"github.com/fkjogu/stochasticsampling/geo"
)

// Field is a flat row-major (Nx,Ny,Nz) complex array, one per vector
// component.
type Field [3][]complex128

// GradField is a flat row-major (Nx,Ny,Nz) complex array, one per
// (i,j) component of a rank-2 tensor field.
type GradField [3][3][]complex128

// Solver is the spectral Stokes-flow solver: given a
// distribution, it produces the Fourier-domain flow field û and its
// gradient Ĝ via the screened-Oseen projector, plus the inverse-
// transformed real-space flow for observability. Solver owns its FFT
// plans and Fourier workspaces exclusively; they are constructed once and
// reused every step.
type Solver struct {
	grid  geo.GridSize
	box   geo.BoxSize
	width geo.GridWidth
	kmesh [][][]geo.KVec3
	alpha float64

	kernel *Kernel
	plan   *fftadapt.Plan3D

	sigmaHat [3][3][]complex128
	uHat     Field
	gradUHat GradField
	uReal    Field
	gradReal GradField
	n        int
}

// NewSolver builds the solver's FFT plan and Fourier workspaces for the
// given grid/box, stress kernel, and optional hydrodynamic screening
// length alpha (alpha=0 recovers pure Stokes). Construction fails if the
// FFT planner cannot be built.
func NewSolver(grid geo.GridSize, box geo.BoxSize, kernel *Kernel, alpha float64) (*Solver, error) {
	plan, err := fftadapt.NewPlan3D(grid.Nx, grid.Ny, grid.Nz, fftadapt.Measure)
	if err != nil {
		return nil, fmt.Errorf("flow: building spectral plan: %w", err)
	}

	n := grid.Nx * grid.Ny * grid.Nz
	s := &Solver{
		grid:   grid,
		box:    box,
		width:  geo.NewGridWidth(box, grid),
		kmesh:  geo.KMesh3D(grid, box),
		alpha:  alpha,
		kernel: kernel,
		plan:   plan,
		n:      n,
	}
	for i := 0; i < 3; i++ {
		s.uHat[i] = make([]complex128, n)
		s.uReal[i] = make([]complex128, n)
		for j := 0; j < 3; j++ {
			s.sigmaHat[i][j] = make([]complex128, n)
			s.gradUHat[i][j] = make([]complex128, n)
			s.gradReal[i][j] = make([]complex128, n)
		}
	}
	return s, nil
}

// stressReal contracts the kernel against ρ over the angular grid,
// producing σ̃(x,y,z,i,j) = Σ_φ,θ ρ(x,y,z,φ,θ)·S(φ,θ,i,j)·Δφ·Δθ.
func (s *Solver) stressReal(d *dist.Distribution) [3][3][]complex128 {
	g := s.grid
	dOmega := s.width.Dphi * s.width.Dtheta
	var sigma [3][3][]complex128
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sigma[i][j] = make([]complex128, s.n)
		}
	}
	for ix := 0; ix < g.Nx; ix++ {
		for iy := 0; iy < g.Ny; iy++ {
			for iz := 0; iz < g.Nz; iz++ {
				flat := (ix*g.Ny+iy)*g.Nz + iz
				var acc [3][3]float64
				for iphi := 0; iphi < g.Nphi; iphi++ {
					for itheta := 0; itheta < g.Ntheta; itheta++ {
						rho := d.At(ix, iy, iz, iphi, itheta)
						if rho == 0 {
							continue
						}
						for i := 0; i < 3; i++ {
							for j := 0; j < 3; j++ {
								acc[i][j] += rho * s.kernel.At(i, j, iphi, itheta)
							}
						}
					}
				}
				for i := 0; i < 3; i++ {
					for j := 0; j < 3; j++ {
						sigma[i][j][flat] = complex(acc[i][j]*dOmega, 0)
					}
				}
			}
		}
	}
	return sigma
}

// Solve runs the full spectral pipeline and stores the
// Fourier-domain flow/gradient and the inverse-transformed real flow in
// the solver's reused workspaces.
func (s *Solver) Solve(d *dist.Distribution) error {
	sigma := s.stressReal(d)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if err := s.plan.Reexecute(s.sigmaHat[i][j], sigma[i][j], fftadapt.Forward); err != nil {
				return fmt.Errorf("flow: forward FFT of stress(%d,%d): %w", i, j, err)
			}
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

				var f [3]complex128
				for i := 0; i < 3; i++ {
					var sum complex128
					for j := 0; j < 3; j++ {
						sum += complex(kv[j], 0) * s.sigmaHat[i][j][flat]
					}
					f[i] = complex(0, 1) * sum
				}

				if k2 == 0 {
					for i := 0; i < 3; i++ {
						s.uHat[i][flat] = 0
					}
					for i := 0; i < 3; i++ {
						for j := 0; j < 3; j++ {
							s.gradUHat[i][j][flat] = 0
						}
					}
					continue
				}

				denom := k2 + s.alpha*s.alpha
				var u [3]complex128
				for i := 0; i < 3; i++ {
					var sum complex128
					for j := 0; j < 3; j++ {
						delta := 0.0
						if i == j {
							delta = 1.0
						}
						proj := delta - kv[i]*kv[j]/k2
						sum += complex(proj, 0) * f[j]
					}
					u[i] = sum * complex(1/denom, 0) * complex(1/n, 0)
				}
				for i := 0; i < 3; i++ {
					s.uHat[i][flat] = u[i]
				}
				for i := 0; i < 3; i++ {
					for j := 0; j < 3; j++ {
						s.gradUHat[i][j][flat] = complex(0, 1) * complex(kv[j], 0) * u[i]
					}
				}
			}
		}
	}

	for i := 0; i < 3; i++ {
		if err := s.plan.Reexecute(s.uReal[i], s.uHat[i], fftadapt.Backward); err != nil {
			return fmt.Errorf("flow: inverse FFT of flow component %d: %w", i, err)
		}
		for j := 0; j < 3; j++ {
			if err := s.plan.Reexecute(s.gradReal[i][j], s.gradUHat[i][j], fftadapt.Backward); err != nil {
				return fmt.Errorf("flow: inverse FFT of gradient(%d,%d): %w", i, j, err)
			}
		}
	}
	return nil
}

// UHat returns the Fourier-domain flow field computed by the last Solve.
func (s *Solver) UHat() Field { return s.uHat }

// GradUHat returns the Fourier-domain flow gradient computed by the last
// Solve.
func (s *Solver) GradUHat() GradField { return s.gradUHat }

// URealAt returns the real part of the inverse-transformed flow velocity
// at spatial cell (ix,iy,iz), the observability convention: the
// integrator reads fields by taking the real part at cell-read time.
func (s *Solver) URealAt(ix, iy, iz int) [3]float64 {
	flat := (ix*s.grid.Ny+iy)*s.grid.Nz + iz
	return [3]float64{
		real(s.uReal[0][flat]),
		real(s.uReal[1][flat]),
		real(s.uReal[2][flat]),
	}
}

// GradAt returns the real part of the inverse-transformed ∇u at spatial
// cell (ix,iy,iz).
func (s *Solver) GradAt(ix, iy, iz int) [3][3]float64 {
	flat := (ix*s.grid.Ny+iy)*s.grid.Nz + iz
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = real(s.gradReal[i][j][flat])
		}
	}
	return out
}

// MaxDivergence returns ‖∇·u‖∞ in Fourier space — i·k·û evaluated at every
// mode — the incompressibility diagnostic.
func (s *Solver) MaxDivergence() float64 {
	g := s.grid
	var maxAbs float64
	for ix := 0; ix < g.Nx; ix++ {
		for iy := 0; iy < g.Ny; iy++ {
			for iz := 0; iz < g.Nz; iz++ {
				flat := (ix*g.Ny+iy)*g.Nz + iz
				k := s.kmesh[ix][iy][iz]
				div := complex(0, 1) * (complex(k.X, 0)*s.uHat[0][flat] +
					complex(k.Y, 0)*s.uHat[1][flat] +
					complex(k.Z, 0)*s.uHat[2][flat])
				a := math.Hypot(real(div), imag(div))
				if a > maxAbs {
					maxAbs = a
				}
			}
		}
	}
	return maxAbs
}
