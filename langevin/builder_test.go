package langevin

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/fkjogu/stochasticsampling/flow"
	"github.com/fkjogu/stochasticsampling/geo"
)

func unitBox() geo.BoxSize {
	return geo.BoxSize{Lx: 10, Ly: 10, Lz: 10}
}

func zeroSample() RandomSample {
	return RandomSample{}
}

func TestSelfPropulsionTraversesAlongOrientation(t *testing.T) {
	chk.PrintTitle("SelfPropulsionTraversesAlongOrientation")
	box := unitBox()
	p := geo.NewParticle(5, 5, 5, 0, math.Pi/2, box) // n̂ = (1,0,0)
	params := Parameters{Timestep: 1.0}

	next := NewBuilder(p, params).
		SelfPropulsion().
		Step().
		Finalize(box)

	chk.Scalar(t, "x", 1e-9, next.Position.X, 6)
	chk.Scalar(t, "y", 1e-9, next.Position.Y, 5)
	chk.Scalar(t, "z", 1e-9, next.Position.Z, 5)
}

func TestStationaryParticleWithNoModifiersDoesNotMove(t *testing.T) {
	chk.PrintTitle("StationaryParticleWithNoModifiersDoesNotMove")
	box := unitBox()
	p := geo.NewParticle(1, 2, 3, 0.4, 1.1, box)
	params := Parameters{Timestep: 0.01}

	next := NewBuilder(p, params).Step().Finalize(box)

	chk.Scalar(t, "x", 1e-12, next.Position.X, p.Position.X)
	chk.Scalar(t, "y", 1e-12, next.Position.Y, p.Position.Y)
	chk.Scalar(t, "z", 1e-12, next.Position.Z, p.Position.Z)
	chk.Scalar(t, "phi", 1e-9, next.Orientation.Phi, p.Orientation.Phi)
	chk.Scalar(t, "theta", 1e-9, next.Orientation.Theta, p.Orientation.Theta)
}

func TestTranslationalDiffusionIsNotScaledByTimestep(t *testing.T) {
	chk.PrintTitle("TranslationalDiffusionIsNotScaledByTimestep")
	box := unitBox()
	p := geo.NewParticle(5, 5, 5, 0, math.Pi/2, box)
	params := Parameters{Timestep: 0.5, TransDiffusion: 0.1}
	rv := RandomSample{Nx: 1, Ny: 0, Nz: 0}

	next := NewBuilder(p, params).
		TranslationalDiffusion(rv).
		Step().
		Finalize(box)

	want := 5 + 0.1*1
	chk.Scalar(t, "x (sigma should not be multiplied by dt)", 1e-9, next.Position.X, want)
}

func TestJeffreyVorticityRotatesOrientation(t *testing.T) {
	chk.PrintTitle("JeffreyVorticityRotatesOrientation")
	box := unitBox()
	// n̂ starts along +x (phi=0, theta=pi/2). A vorticity about +z should
	// rotate n̂ toward +y.
	p := geo.NewParticle(0, 0, 0, 0, math.Pi/2, box)
	params := Parameters{Timestep: 0.01}

	next := NewBuilder(p, params).
		JeffreyVorticity([3]float64{0, 0, 2}).
		Step().
		Finalize(box)

	// dn/dt = 1/2 w x n = 1/2 (0,0,2) x (1,0,0) = (0,1,0): n should rotate
	// toward +y, i.e. phi should increase from 0.
	if next.Orientation.Phi <= 0 {
		t.Errorf("expected phi to increase toward +y, got %v", next.Orientation.Phi)
	}
}

func TestJeffreyStrainRespectsShapeParameter(t *testing.T) {
	chk.PrintTitle("JeffreyStrainRespectsShapeParameter")
	box := unitBox()
	p := geo.NewParticle(0, 0, 0, 0, math.Pi/2, box)

	strain := flow.Tensor3{
		{0, 0.5, 0},
		{0.5, 0, 0},
		{0, 0, 0},
	}

	sphereParams := Parameters{Timestep: 0.1, Shape: 0}
	spherePost := NewBuilder(p, sphereParams).JeffreyStrain(strain).Step().Finalize(box)
	chk.Scalar(t, "phi (shape=0 sphere unaffected by strain)", 1e-9, spherePost.Orientation.Phi, p.Orientation.Phi)

	rodParams := Parameters{Timestep: 0.1, Shape: 1}
	rodPost := NewBuilder(p, rodParams).JeffreyStrain(strain).Step().Finalize(box)
	if math.Abs(rodPost.Orientation.Phi-p.Orientation.Phi) < 1e-9 {
		t.Errorf("shape=1 (rod) should be reoriented by strain, got no change")
	}
}

func TestExternalFieldAlignmentBiasesTowardPoles(t *testing.T) {
	chk.PrintTitle("ExternalFieldAlignmentBiasesTowardPoles")
	box := unitBox()
	p := geo.NewParticle(0, 0, 0, 0, math.Pi/2, box) // equator: max sinTheta
	params := Parameters{Timestep: 0.1}

	next := NewBuilder(p, params).
		ExternalFieldAlignment(1.0).
		Step().
		Finalize(box)

	if next.Orientation.Theta >= p.Orientation.Theta {
		t.Errorf("expected theta to decrease toward the pole, got %v (was %v)", next.Orientation.Theta, p.Orientation.Theta)
	}
}

func TestRotationalDiffusionPreservesUnitLength(t *testing.T) {
	chk.PrintTitle("RotationalDiffusionPreservesUnitLength")
	box := unitBox()
	p := geo.NewParticle(0, 0, 0, 0.3, 1.2, box)
	params := Parameters{Timestep: 0.01, RotDiffusion: 0.5}

	rv := RandomSample{AxisAngle: 1.234, RotateAngle: 0.2}
	next := NewBuilder(p, params).
		RotationalDiffusion(rv).
		Step().
		Finalize(box)

	v := geo.NewCosSin(next.Orientation).Vec()
	norm := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	chk.Scalar(t, "|n̂| after rotation", 1e-9, norm, 1)
}

func TestQuasiTwoDPinsZAndTheta(t *testing.T) {
	chk.PrintTitle("QuasiTwoDPinsZAndTheta")
	box := unitBox()
	p := geo.NewParticle(1, 1, 1, 0.5, 0.1, box)
	params := Parameters{Timestep: 0.1, QuasiTwoD: true}

	next := NewBuilder(p, params).
		SelfPropulsion().
		Step().
		Finalize(box)

	if next.Position.Z != 0 {
		t.Errorf("quasi-2D: expected z=0, got %v", next.Position.Z)
	}
	chk.Scalar(t, "theta (quasi-2D pinned)", 1e-12, next.Orientation.Theta, math.Pi/2)
}

func TestMagneticDipoleDipoleForceAddsVelocity(t *testing.T) {
	chk.PrintTitle("MagneticDipoleDipoleForceAddsVelocity")
	box := unitBox()
	p := geo.NewParticle(5, 5, 5, 0, math.Pi/2, box) // n̂=(1,0,0)
	params := Parameters{Timestep: 1.0}

	gradB := [3][3]float64{
		{1, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	}
	next := NewBuilder(p, params).
		MagneticDipoleDipoleForce(2.0, gradB).
		Step().
		Finalize(box)

	want := 5 + 2.0*1.0 // drag * (gradB . n)_x * dt
	chk.Scalar(t, "x", 1e-9, next.Position.X, want)
}

func TestMagneticDipoleDipoleRotationIsTangential(t *testing.T) {
	chk.PrintTitle("MagneticDipoleDipoleRotationIsTangential")
	box := unitBox()
	p := geo.NewParticle(0, 0, 0, 0, math.Pi/2, box) // n̂=(1,0,0)
	params := Parameters{Timestep: 0.1, MagneticDipoleDipole: 1.0}

	// field parallel to n should produce no rotation (tangential component
	// vanishes).
	next := NewBuilder(p, params).
		MagneticDipoleDipoleRotation([3]float64{5, 0, 0}).
		Step().
		Finalize(box)

	chk.Scalar(t, "phi (parallel field, no rotation)", 1e-9, next.Orientation.Phi, p.Orientation.Phi)
	chk.Scalar(t, "theta (parallel field, no rotation)", 1e-9, next.Orientation.Theta, p.Orientation.Theta)
}

// TestFullChainMatchesDriverOrdering exercises the modifier chain in the
// order the driver uses it: velocity/orientation-tangent modifiers, then
// Step, then the post-step diffusion modifiers, then Finalize. With a
// zero random sample the diffusion modifiers should be no-ops (Rayleigh
// angle and trig axis collapse to a rotation by angle 0) and the result
// should match calling Step/Finalize alone.
func TestFullChainMatchesDriverOrdering(t *testing.T) {
	chk.PrintTitle("FullChainMatchesDriverOrdering")
	box := unitBox()
	p := geo.NewParticle(2, 2, 2, 0.4, 1.0, box)
	params := Parameters{Timestep: 0.05, RotDiffusion: 0.3, Shape: 0.5, MagneticDipoleDipole: 0.2}

	strain := flow.Tensor3{
		{0.1, 0, 0},
		{0, -0.05, 0},
		{0, 0, -0.05},
	}
	fields := Fields{
		Flow:      [3]float64{0.1, 0, 0},
		Vorticity: [3]float64{0, 0, 0.2},
		Strain:    strain,
		B:         [3]float64{0, 0.3, 0},
		GradB:     [3][3]float64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
	}

	withDiffusion := NewBuilder(p, params).
		SelfPropulsion().
		Convection(fields.Flow).
		MagneticDipoleDipoleForce(params.MagneticDrag, fields.GradB).
		ExternalFieldAlignment(0.1).
		MagneticDipoleDipoleRotation(fields.B).
		JeffreyVorticity(fields.Vorticity).
		JeffreyStrain(fields.Strain).
		Step().
		TranslationalDiffusion(zeroSample()).
		RotationalDiffusion(zeroSample()).
		Finalize(box)

	withoutDiffusion := NewBuilder(p, params).
		SelfPropulsion().
		Convection(fields.Flow).
		MagneticDipoleDipoleForce(params.MagneticDrag, fields.GradB).
		ExternalFieldAlignment(0.1).
		MagneticDipoleDipoleRotation(fields.B).
		JeffreyVorticity(fields.Vorticity).
		JeffreyStrain(fields.Strain).
		Step().
		Finalize(box)

	chk.Scalar(t, "x (zero translational diffusion is a no-op)", 1e-9, withDiffusion.Position.X, withoutDiffusion.Position.X)
	chk.Scalar(t, "y (zero translational diffusion is a no-op)", 1e-9, withDiffusion.Position.Y, withoutDiffusion.Position.Y)
	chk.Scalar(t, "z (zero translational diffusion is a no-op)", 1e-9, withDiffusion.Position.Z, withoutDiffusion.Position.Z)
	chk.Scalar(t, "phi (zero rotational diffusion is a no-op)", 1e-9, withDiffusion.Orientation.Phi, withoutDiffusion.Orientation.Phi)
	chk.Scalar(t, "theta (zero rotational diffusion is a no-op)", 1e-9, withDiffusion.Orientation.Theta, withoutDiffusion.Orientation.Theta)
}
