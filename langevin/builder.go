// Package langevin implements the composable Langevin step builder: the
// position/orientation modifiers (self-propulsion, convection, Jeffrey
// vorticity/strain, dipole torque, dipole force, translational/rotational
// diffusion) and the final periodic projection.
package langevin

import (
	"math"

	"github.com/fkjogu/stochasticsampling/flow"
	"github.com/fkjogu/stochasticsampling/geo"
	"gonum.org/v1/gonum/spatial/r3"
)

// RandomSample is one particle's per-step draw: three independent
// standard-normal components for translational diffusion plus the two
// values that parameterize a rotational-diffusion rotation.
type RandomSample struct {
	Nx, Ny, Nz  float64
	AxisAngle   float64
	RotateAngle float64
}

// Fields are the local field values a single particle's step reads,
// precomputed by the driver from the spectral and magnetic solvers at the
// particle's cell.
type Fields struct {
	Flow      [3]float64
	Vorticity [3]float64
	Strain    flow.Tensor3
	B         [3]float64
	GradB     [3][3]float64
}

// Parameters are the per-run physical constants the builder needs; most
// map directly onto the run's configured diffusion/magnetic/shape values.
// TransDiffusion is recomputed by the driver every step from the local
// marginal density (the volume-exclusion term), so it is not cached
// across steps.
type Parameters struct {
	Timestep              float64
	TransDiffusion        float64
	RotDiffusion          float64
	MagneticReorientation float64
	MagneticDrag          float64
	MagneticDipoleDipole  float64
	Shape                 float64
	QuasiTwoD             bool
}

// Builder accumulates one particle's step in the order its methods are
// called. Velocity contributions (SelfPropulsion, Convection,
// MagneticDipoleDipoleForce) and orientation-tangent contributions
// (MagneticDipoleDipoleRotation, JeffreyVorticity, JeffreyStrain)
// accumulate against the orientation vector as it stood at construction;
// Step then closes both accumulators by Δt. ExternalFieldAlignment
// accumulates a θ rate instead, which Finalize applies ×Δt. RotationalDiffusion and TranslationalDiffusion are meant to run
// after Step — their magnitudes already fold in Δt (or the Rayleigh
// variance that plays the same role) and are applied directly rather
// than accumulated, matching the reference driver's modifier chain.
type Builder struct {
	params Parameters

	position geo.Position
	cs       geo.CosSin // trig cache of the orientation at construction
	n0       r3.Vec     // orientation vector at construction; fixed input to Jeffrey/dipole math
	n        r3.Vec     // current orientation vector; mutated in place by RotationalDiffusion and by Step

	vel         r3.Vec  // velocity accumulator, applied ×Δt at Step
	orientDelta r3.Vec  // tangent-space orientation accumulator, applied ×Δt at Step
	thetaBias   float64 // external-field alignment rate, applied ×Δt to θ at Finalize
}

// NewBuilder seeds a builder from a particle's current state.
func NewBuilder(p geo.Particle, params Parameters) *Builder {
	cs := geo.NewCosSin(p.Orientation)
	n := cs.Vec()
	return &Builder{
		params:   params,
		position: p.Position,
		cs:       cs,
		n0:       n,
		n:        n,
	}
}

// SelfPropulsion adds n̂ to the velocity accumulator.
func (b *Builder) SelfPropulsion() *Builder {
	b.vel = r3.Add(b.vel, b.n0)
	return b
}

// Convection adds the local flow velocity to the velocity accumulator.
func (b *Builder) Convection(u [3]float64) *Builder {
	b.vel = r3.Add(b.vel, r3.Vec{X: u[0], Y: u[1], Z: u[2]})
	return b
}

// MagneticDipoleDipoleForce adds drag·∇b·n̂ to the velocity accumulator.
func (b *Builder) MagneticDipoleDipoleForce(drag float64, gradB [3][3]float64) *Builder {
	nv := [3]float64{b.n0.X, b.n0.Y, b.n0.Z}
	var fv [3]float64
	for i := 0; i < 3; i++ {
		var sum float64
		for j := 0; j < 3; j++ {
			sum += gradB[i][j] * nv[j]
		}
		fv[i] = sum * drag
	}
	b.vel = r3.Add(b.vel, r3.Vec{X: fv[0], Y: fv[1], Z: fv[2]})
	return b
}

// ExternalFieldAlignment subtracts χ·sinθ from the θ-rate accumulator,
// biasing the orientation toward +ẑ. sinθ is read from the trig cache
// taken at the start of the step.
func (b *Builder) ExternalFieldAlignment(chi float64) *Builder {
	b.thetaBias -= chi * b.cs.SinTheta
	return b
}

// RotationalDiffusion rotates the current orientation vector by a
// Rayleigh-distributed angle (drawn from rv.RotateAngle, a raw
// Uniform(0,1) value, via σr=√(2Dr·Δt)) about the axis computed from the
// trig cache taken at construction and the sampled axis_angle.
func (b *Builder) RotationalDiffusion(rv RandomSample) *Builder {
	sigmaR := math.Sqrt(2 * b.params.RotDiffusion * b.params.Timestep)
	beta := rayleighSample(sigmaR, rv.RotateAngle)
	axis := rotationalDiffusionAxis(b.cs, rv.AxisAngle)
	b.n = geo.RotateAboutAxis(b.n, axis.X, axis.Y, axis.Z, beta)
	return b
}

// JeffreyVorticity adds ½ W × n̂ to the orientation accumulator, computed
// against the orientation vector as it stood at construction.
func (b *Builder) JeffreyVorticity(w [3]float64) *Builder {
	wv := r3.Vec{X: w[0], Y: w[1], Z: w[2]}
	cross := r3.Cross(wv, b.n0)
	b.orientDelta = r3.Add(b.orientDelta, r3.Scale(0.5, cross))
	return b
}

// JeffreyStrain adds shape·(E·n̂ − (n̂·E·n̂)n̂) to the orientation
// accumulator, computed against the orientation vector as it stood at
// construction.
func (b *Builder) JeffreyStrain(e flow.Tensor3) *Builder {
	nv := [3]float64{b.n0.X, b.n0.Y, b.n0.Z}
	var en [3]float64
	for i := 0; i < 3; i++ {
		var sum float64
		for j := 0; j < 3; j++ {
			sum += e[i][j] * nv[j]
		}
		en[i] = sum
	}
	var nEn float64
	for i := 0; i < 3; i++ {
		nEn += nv[i] * en[i]
	}
	delta := r3.Vec{
		X: b.params.Shape * (en[0] - nEn*nv[0]),
		Y: b.params.Shape * (en[1] - nEn*nv[1]),
		Z: b.params.Shape * (en[2] - nEn*nv[2]),
	}
	b.orientDelta = r3.Add(b.orientDelta, delta)
	return b
}

// MagneticDipoleDipoleRotation adds magnetic_dipole_dipole·(b − (n̂·b)n̂),
// the scaled tangent-space field projection, to the orientation
// accumulator, computed against the orientation vector as it stood at
// construction.
func (b *Builder) MagneticDipoleDipoleRotation(field [3]float64) *Builder {
	bv := r3.Vec{X: field[0], Y: field[1], Z: field[2]}
	nb := b.n0.X*bv.X + b.n0.Y*bv.Y + b.n0.Z*bv.Z
	tangent := r3.Sub(bv, r3.Scale(nb, b.n0))
	b.orientDelta = r3.Add(b.orientDelta, r3.Scale(b.params.MagneticDipoleDipole, tangent))
	return b
}

// TranslationalDiffusion adds σ_t·ξ directly to the position. σ_t already
// folds √(2Δt(D_t+γρ̂)) so this is not scaled again by Δt.
func (b *Builder) TranslationalDiffusion(rv RandomSample) *Builder {
	sigma := b.params.TransDiffusion
	b.position.X += sigma * rv.Nx
	b.position.Y += sigma * rv.Ny
	b.position.Z += sigma * rv.Nz
	return b
}

// Step closes the velocity and orientation accumulators by multiplying by
// Δt and applying them: position advances by vel·Δt, and the orientation
// vector advances by orientDelta·Δt then renormalizes.
func (b *Builder) Step() *Builder {
	dt := b.params.Timestep

	b.position.X += b.vel.X * dt
	b.position.Y += b.vel.Y * dt
	b.position.Z += b.vel.Z * dt

	nNew := r3.Add(b.n, r3.Scale(dt, b.orientDelta))
	norm := math.Sqrt(nNew.X*nNew.X + nNew.Y*nNew.Y + nNew.Z*nNew.Z)
	if norm > 0 {
		nNew = r3.Scale(1/norm, nNew)
	}
	b.n = nNew
	return b
}

// Finalize derives (φ,θ) from the final orientation vector, applies the
// θ-rate accumulator ×Δt, applies periodic projection to position and
// canonicalization to orientation, applies the quasi-2D edge case if
// configured, and returns the new particle.
func (b *Builder) Finalize(box geo.BoxSize) geo.Particle {
	o := geo.OrientationFromVec(b.n)
	phi := o.Phi
	theta := o.Theta + b.thetaBias*b.params.Timestep

	if b.params.QuasiTwoD {
		b.position.Z = 0
		theta = math.Pi / 2
	}
	return geo.NewParticle(b.position.X, b.position.Y, b.position.Z, phi, theta, box)
}
