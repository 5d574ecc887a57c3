// Package flow implements the stress kernel and spectral Stokes-flow solver:
// the pointwise active/magnetic/rods stress closures, their projection onto
// the angular grid, and the Fourier-space screened-Oseen solve that turns a
// distribution into a flow field and its gradient.
package flow

import "github.com/fkjogu/stochasticsampling/geo"

// Tensor3 is a dense 3×3 real tensor, row-major.
type Tensor3 [3][3]float64

// Add returns the elementwise sum a+b.
func (a Tensor3) Add(b Tensor3) Tensor3 {
	var out Tensor3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][j] + b[i][j]
		}
	}
	return out
}

// Scale returns a scaled by c.
func (a Tensor3) Scale(c float64) Tensor3 {
	var out Tensor3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][j] * c
		}
	}
	return out
}

// outerTraceless returns n⊗n − I/3, the traceless dyadic used by every
// stress contribution here.
func outerTraceless(n [3]float64) Tensor3 {
	var out Tensor3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = n[i] * n[j]
		}
	}
	out[0][0] -= 1.0 / 3.0
	out[1][1] -= 1.0 / 3.0
	out[2][2] -= 1.0 / 3.0
	return out
}

func vec3(v geo.KVec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func orientationVec(phi, theta float64) [3]float64 {
	o := geo.NewCosSin(geo.Orientation{Phi: phi, Theta: theta})
	v := o.Vec()
	return [3]float64{v.X, v.Y, v.Z}
}

// StressActive returns the orientation-dependent active-stress dyadic
// n̂⊗n̂ − I/3 at (φ,θ).
func StressActive(phi, theta float64) Tensor3 {
	return outerTraceless(orientationVec(phi, theta))
}

// StressMagnetic returns the magnetic-stress dyadic contribution. It shares
// the active stress's angular dependence; the distinct physical weighting
// between the two is applied by the caller-supplied prefactors (see
// StressPrefactors and DESIGN.md's resolution of the stress-normalization
// open question).
func StressMagnetic(phi, theta float64) Tensor3 {
	return outerTraceless(orientationVec(phi, theta))
}

// StressRods returns the elongational-rods contribution, the same
// traceless dyadic, scaled independently by the shape parameter at the
// call site.
func StressRods(phi, theta float64) Tensor3 {
	return outerTraceless(orientationVec(phi, theta))
}

// StressPrefactors weights the three stress contributions before they are
// summed into the pointwise stress function passed to NewKernel.
type StressPrefactors struct {
	Active   float64
	Magnetic float64
	Rods     float64
	Shape    float64
}

// StressFunc evaluates the combined, weighted stress tensor at (φ,θ),
// matching the prefactor convention fixed by DESIGN.md: the magnetic term
// carries an extra factor 1/2 relative to the raw prefactor.
func (p StressPrefactors) StressFunc(phi, theta float64) Tensor3 {
	s := StressActive(phi, theta).Scale(p.Active)
	s = s.Add(StressMagnetic(phi, theta).Scale(0.5 * p.Magnetic))
	s = s.Add(StressRods(phi, theta).Scale(p.Rods * p.Shape))
	return s
}
