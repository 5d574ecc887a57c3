// Package rngpool draws the per-particle random samples consumed each
// step by the Langevin integrator. Each worker strand owns its own PRNG
// source, seeded deterministically from the run seed and the strand
// index, and fills a static contiguous chunk of particles — the same
// fixed, index-derived chunk partitioning a worker fans a physics update
// over, so that the draw sequence depends only on (seed, number of
// workers, number of particles), never on goroutine scheduling order.
package rngpool

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/fkjogu/stochasticsampling/langevin"
	"gonum.org/v1/gonum/stat/distuv"
)

// strand is one worker's private draw state: an independent PCG source
// and the two distributions built over it. src is kept as a concrete
// *rand.PCG (rather than only the rand.Source interface) so its state can
// be marshaled for Pool.State/Restore — the resumable-run counterpart of
// the original's `rng_state: Vec<Pcg32>` snapshot field.
type strand struct {
	src     *rand.PCG
	normal  distuv.Normal
	uniform distuv.Uniform
}

func newStrand(seed uint64) strand {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	r := rand.New(src)
	return strand{
		src:     src,
		normal:  distuv.Normal{Mu: 0, Sigma: 1, Src: r},
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: r},
	}
}

// draw fills one RandomSample. AxisAngle is the full Uniform(0,2π) value
// consumed directly; RotateAngle is left as the raw Uniform(0,1) draw u,
// since its conversion to a rotation angle via the Rayleigh inverse-CDF
// needs σr = √(2Dr·Δt), a per-run parameter the pool doesn't carry —
// langevin.Builder.RotationalDiffusion applies that conversion.
func (s *strand) draw() langevin.RandomSample {
	return langevin.RandomSample{
		Nx:          s.normal.Rand(),
		Ny:          s.normal.Rand(),
		Nz:          s.normal.Rand(),
		AxisAngle:   s.uniform.Rand() * 2 * 3.141592653589793,
		RotateAngle: s.uniform.Rand(),
	}
}

// Pool owns one strand per worker and fills a caller-provided sample
// slice in parallel, each worker writing only its own contiguous chunk.
type Pool struct {
	strands []strand
}

// New builds a pool of nworkers strands, seeded deterministically as
// baseSeed+i for strand i so the same (baseSeed, nworkers) always
// reproduces the same draw sequence.
func New(baseSeed uint64, nworkers int) *Pool {
	if nworkers < 1 {
		nworkers = 1
	}
	strands := make([]strand, nworkers)
	for i := range strands {
		strands[i] = newStrand(baseSeed + uint64(i))
	}
	return &Pool{strands: strands}
}

// NumWorkers returns the number of strands in the pool.
func (p *Pool) NumWorkers() int {
	return len(p.strands)
}

// Fill draws one RandomSample per particle into out, chunked statically
// across the pool's strands: strand i fills the contiguous range
// [i*chunk, min((i+1)*chunk, n)) where chunk = ceil(n/nworkers).
func (p *Pool) Fill(out []langevin.RandomSample) {
	n := len(out)
	nworkers := len(p.strands)
	chunk := (n + nworkers - 1) / nworkers

	var wg sync.WaitGroup
	for w := 0; w < nworkers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(workerID, i0, i1 int) {
			defer wg.Done()
			s := &p.strands[workerID]
			for i := i0; i < i1; i++ {
				out[i] = s.draw()
			}
		}(w, start, end)
	}
	wg.Wait()
}

// State returns the marshaled PCG state of every strand, in worker-index
// order, for persisting into a Snapshot.
func (p *Pool) State() ([][]byte, error) {
	out := make([][]byte, len(p.strands))
	for i := range p.strands {
		b, err := p.strands[i].src.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("rngpool: marshaling strand %d state: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

// Restore reinstates every strand's PCG state from a prior State() call.
// The number of states must match the pool's current worker count —
// resuming with a different worker count has no well-defined draw
// sequence to restore, so the caller must re-resolve the same worker
// count before calling Restore.
func (p *Pool) Restore(states [][]byte) error {
	if len(states) != len(p.strands) {
		return fmt.Errorf("rngpool: state has %d strands, pool has %d workers", len(states), len(p.strands))
	}
	for i := range p.strands {
		if err := p.strands[i].src.UnmarshalBinary(states[i]); err != nil {
			return fmt.Errorf("rngpool: restoring strand %d state: %w", i, err)
		}
	}
	return nil
}
