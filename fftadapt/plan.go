// Package fftadapt wraps github.com/MeKo-Christian/algo-fft's 1D complex
// transform into the 3D complex-to-complex plan contract the spectral and
// magnetic solvers need: unnormalized transforms, serialized planning,
// and an Execute/Reexecute split that lets a
// plan be replayed on freshly supplied buffers of identical shape.
//
// algo-fft only exposes a 1D plan (algofft.Plan[complex128]); a 3D
// transform is built the way a separable multi-dimensional FFT always is —
// one 1D transform per axis, applied line by line — the same construction
// the poisson-periodic_nd plan in the retrieved corpus uses to build an
// N-dimensional Poisson solve out of 1D axis plans.
package fftadapt

import (
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Flag mirrors the planning-effort/alignment flags of the wrapped FFT
// contract. algo-fft's planner is a pure-Go, non-adaptive Cooley-Tukey/
// Bluestein implementation: it has no measure-vs-estimate planning phase
// and no alignment concept, so these flags do not change which algorithm
// runs. They are kept on Plan3D's constructor for contract parity with
// callers written against the measure/estimate/alignment vocabulary, and
// so a future backend swap does not ripple through the solver packages.
type Flag int

const (
	Estimate Flag = iota
	Measure
	Patient
	Unaligned
	EstimateUnaligned
)

// Direction selects the transform direction.
type Direction int

const (
	Forward Direction = iota
	Backward
)

var (
	threadMu      sync.Mutex
	plannedThreads int
)

// Init enables (bookkeeping-only) multi-threaded planning with the given
// worker count. algo-fft has no native thread pool to hand work to — the
// pack contains no pure-Go complex-FFT library that exposes one — so this
// records the requested count for diagnostics and validates it; solvers
// built afterward still execute single-threaded per plan.
func Init(nthreads int) error {
	if nthreads <= 0 {
		return fmt.Errorf("fftadapt: invalid thread count %d", nthreads)
	}
	threadMu.Lock()
	plannedThreads = nthreads
	threadMu.Unlock()
	return nil
}

// Finalize releases threading bookkeeping state.
func Finalize() {
	threadMu.Lock()
	plannedThreads = 0
	threadMu.Unlock()
}

// axisPlan transforms one line (stride lineStride, length n) of a flat
// buffer in place, forward or backward, unnormalized.
type axisPlan struct {
	n        int
	plan     *algofft.Plan[complex128]
	scratchA []complex128
	scratchB []complex128
}

func newAxisPlan(n int) (*axisPlan, error) {
	p, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fftadapt: building axis plan of size %d: %w", n, err)
	}
	return &axisPlan{
		n:        n,
		plan:     p,
		scratchA: make([]complex128, n),
		scratchB: make([]complex128, n),
	}, nil
}

func (p *axisPlan) transformLine(data []complex128, start, stride int, dir Direction) error {
	inverse := dir == Backward
	if stride == 1 {
		line := data[start : start+p.n]
		var err error
		if inverse {
			err = p.plan.Inverse(p.scratchB, line)
		} else {
			err = p.plan.Forward(p.scratchB, line)
		}
		if err != nil {
			return err
		}
		copy(line, p.scratchB)
		return nil
	}

	for i := 0; i < p.n; i++ {
		p.scratchA[i] = data[start+i*stride]
	}
	var err error
	if inverse {
		err = p.plan.Inverse(p.scratchB, p.scratchA)
	} else {
		err = p.plan.Forward(p.scratchB, p.scratchA)
	}
	if err != nil {
		return err
	}
	for i := 0; i < p.n; i++ {
		data[start+i*stride] = p.scratchB[i]
	}
	return nil
}

// Plan3D is a reusable, unnormalized complex-to-complex 3D FFT plan over an
// (nx,ny,nz)-shaped row-major buffer. Planning (construction) is not
// thread-safe and must happen serially. Execution is not thread-safe
// either: every Execute/Reexecute call writes the axis plans' scratch
// buffers, so calls on the same Plan3D must not run concurrently, even on
// disjoint buffers.
type Plan3D struct {
	nx, ny, nz int
	stride     [3]int
	axes       [3]*axisPlan
	bound      []complex128
	flag       Flag
}

// NewPlan3D builds a plan for an (nx,ny,nz) complex array. flag is
// accepted for contract parity (see Flag's doc comment) and otherwise
// unused.
func NewPlan3D(nx, ny, nz int, flag Flag) (*Plan3D, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("fftadapt: invalid shape (%d,%d,%d)", nx, ny, nz)
	}
	axX, err := newAxisPlan(nx)
	if err != nil {
		return nil, err
	}
	axY, err := newAxisPlan(ny)
	if err != nil {
		return nil, err
	}
	axZ, err := newAxisPlan(nz)
	if err != nil {
		return nil, err
	}
	return &Plan3D{
		nx: nx, ny: ny, nz: nz,
		stride: [3]int{ny * nz, nz, 1},
		axes:   [3]*axisPlan{axX, axY, axZ},
		bound:  make([]complex128, nx*ny*nz),
		flag:   flag,
	}, nil
}

// Shape returns the plan's (nx,ny,nz).
func (p *Plan3D) Shape() (int, int, int) { return p.nx, p.ny, p.nz }

// Size returns nx*ny*nz.
func (p *Plan3D) Size() int { return p.nx * p.ny * p.nz }

// Bound returns the buffer bound at plan creation, for callers using
// Execute rather than Reexecute.
func (p *Plan3D) Bound() []complex128 { return p.bound }

// Execute transforms the buffer bound at construction, in place.
func (p *Plan3D) Execute(dir Direction) error {
	return p.transform(p.bound, dir)
}

// Reexecute transforms src into dst using the same plan, requiring dst and
// src to have exactly Size() elements each (the plan's own scratch buffers
// are reused across calls, so this is not safe to call concurrently with
// another Reexecute/Execute on the same Plan3D).
func (p *Plan3D) Reexecute(dst, src []complex128, dir Direction) error {
	if len(dst) != p.Size() || len(src) != p.Size() {
		return fmt.Errorf("fftadapt: buffer size mismatch: want %d", p.Size())
	}
	if &dst[0] != &src[0] {
		copy(dst, src)
	}
	return p.transform(dst, dir)
}

func (p *Plan3D) transform(data []complex128, dir Direction) error {
	dims := [3]int{p.nx, p.ny, p.nz}
	for axis := 0; axis < 3; axis++ {
		n := dims[axis]
		lineStride := p.stride[axis]
		totalLines := p.Size() / n

		otherDims := [2]int{}
		k := 0
		for d := 0; d < 3; d++ {
			if d == axis {
				continue
			}
			otherDims[k] = dims[d]
			k++
		}

		idx := [2]int{0, 0}
		for line := 0; line < totalLines; line++ {
			start := 0
			k = 0
			for d := 0; d < 3; d++ {
				if d == axis {
					continue
				}
				start += idx[k] * p.stride[d]
				k++
			}
			if err := p.axes[axis].transformLine(data, start, lineStride, dir); err != nil {
				return fmt.Errorf("fftadapt: transforming axis %d: %w", axis, err)
			}
			for d := 1; d >= 0; d-- {
				idx[d]++
				if idx[d] < otherDims[d] {
					break
				}
				idx[d] = 0
			}
		}
	}
	return nil
}
