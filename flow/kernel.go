package flow

import "github.com/fkjogu/stochasticsampling/geo"

// StressFunc is a pointwise stress closure σ(φ,θ) → 3×3 tensor, sampled at
// cell-centered angles to build a Kernel.
type StressFunc func(phi, theta float64) Tensor3

// Kernel is the precomputed (3,3,Nφ,Nθ) stress-kernel array: immutable
// once built, shared read-only by every step's real-space contraction
// against ρ.
type Kernel struct {
	grid geo.GridSize
	data []float64 // indexed [i][j][iphi][itheta], flattened
}

// NewKernel samples fn at the cell-centered angles (φi+Δφ/2, θj+Δθ/2) of
// the angular grid and stores the resulting tensors.
func NewKernel(grid geo.GridSize, width geo.GridWidth, fn StressFunc) *Kernel {
	k := &Kernel{
		grid: grid,
		data: make([]float64, 3*3*grid.Nphi*grid.Ntheta),
	}
	for iphi := 0; iphi < grid.Nphi; iphi++ {
		phi := (float64(iphi) + 0.5) * width.Dphi
		for itheta := 0; itheta < grid.Ntheta; itheta++ {
			theta := (float64(itheta) + 0.5) * width.Dtheta
			t := fn(phi, theta)
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					k.data[k.index(i, j, iphi, itheta)] = t[i][j]
				}
			}
		}
	}
	return k
}

func (k *Kernel) index(i, j, iphi, itheta int) int {
	g := k.grid
	return ((i*3+j)*g.Nphi+iphi)*g.Ntheta + itheta
}

// At returns S(φi,θj;i,j).
func (k *Kernel) At(i, j, iphi, itheta int) float64 {
	return k.data[k.index(i, j, iphi, itheta)]
}
