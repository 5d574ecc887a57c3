// Package initcond builds the particle ensembles a run starts from: the
// isotropic and homogeneous-polar distributions drawn fresh at t=0, and the
// straight pass-through used when resuming from a snapshot.
package initcond

import (
	"math"
	"math/rand/v2"

	"github.com/fkjogu/stochasticsampling/geo"
	"github.com/fkjogu/stochasticsampling/simerr"
	"gonum.org/v1/gonum/stat/distuv"
)

// newUniform builds a Uniform(0,1) sampler seeded deterministically from
// the given seed, mirroring the Pcg64-seeded-from-[u64;2] sampler the
// reference placement routines use.
func newUniform(seed uint64) distuv.Uniform {
	src := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return distuv.Uniform{Min: 0, Max: 1, Src: src}
}

// pdfSin inverts the solid-angle measure sin(θ): given x uniform on [0,2),
// it returns a polar angle θ uniformly distributed over the sphere.
func pdfSin(x float64) float64 {
	return math.Acos(1 - x)
}

// pdfHomogeneousFixpoint inverts sin(θ)ψ(κ,θ), the fixed-point polar
// density biased toward the pole with concentration κ. kappa must be
// non-zero; use Isotropic for the unbiased case.
func pdfHomogeneousFixpoint(kappa, x float64) float64 {
	if kappa == 0 {
		panic("initcond: alignment of zero is the isotropic state, use Isotropic instead")
	}
	r := math.Acos(math.Log(math.Exp(kappa)-2*x*math.Sinh(kappa)) / kappa)
	if math.IsNaN(r) {
		panic("initcond: alignment parameter too high for the given precision")
	}
	return r
}

// Isotropic places n particles at uniformly random positions with
// orientations uniform over the unit sphere.
func Isotropic(n int, box geo.BoxSize, seed uint64) []geo.Particle {
	u := newUniform(seed)
	particles := make([]geo.Particle, n)
	for i := range particles {
		phi := geo.TwoPi * u.Rand()
		theta := pdfSin(2 * u.Rand())
		particles[i] = geo.NewParticle(box.Lx*u.Rand(), box.Ly*u.Rand(), box.Lz*u.Rand(), phi, theta, box)
	}
	return particles
}

// HomogeneousPolar places n particles at uniformly random positions with
// orientations biased toward a pole with concentration kappa: a polar
// angle is drawn from the κ-biased fixed-point density with the pole along
// +ẑ, then the whole orientation is rotated by -π/2 about the x-axis so
// the bias axis lands on +ŷ, matching the reference placement routine.
func HomogeneousPolar(n int, box geo.BoxSize, seed uint64, kappa float64) []geo.Particle {
	u := newUniform(seed)
	particles := make([]geo.Particle, n)
	for i := range particles {
		phi := geo.TwoPi * u.Rand()
		theta := pdfHomogeneousFixpoint(kappa, u.Rand())

		p := geo.NewParticle(box.Lx*u.Rand(), box.Ly*u.Rand(), box.Lz*u.Rand(), phi, theta, box)

		v := geo.NewCosSin(p.Orientation).Vec()
		v = geo.RotateAboutAxis(v, 1, 0, 0, -math.Pi/2)
		o := geo.OrientationFromVec(v)

		particles[i] = geo.NewParticle(p.Position.X, p.Position.Y, p.Position.Z, o.Phi, o.Theta, box)
	}
	return particles
}

// FromSnapshot validates a resumed particle set against the configured
// particle count and returns it unchanged; a mismatch signals a snapshot
// taken under a different number_of_particles than the current run.
func FromSnapshot(particles []geo.Particle, want int) ([]geo.Particle, error) {
	if len(particles) != want {
		return nil, &simerr.InitialConditionMismatch{Got: len(particles), Want: want}
	}
	return particles, nil
}
