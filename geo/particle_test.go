package geo

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestOrientationRoundTrip(t *testing.T) {
	chk.PrintTitle("OrientationRoundTrip")
	phis := []float64{0, 0.3, math.Pi / 2, math.Pi, 1.5 * math.Pi, 2*math.Pi - 0.1}
	thetas := []float64{0.01, 0.5, math.Pi / 2, math.Pi - 0.2, math.Pi - 0.01}

	for _, phi := range phis {
		for _, theta := range thetas {
			o := NewOrientation(phi, theta)
			v := o.Vec()
			back := OrientationFromVec(v)

			v2 := back.Vec()
			chk.Scalar(t, "vx", 1e-9, v.X, v2.X)
			chk.Scalar(t, "vy", 1e-9, v.Y, v2.Y)
			chk.Scalar(t, "vz", 1e-9, v.Z, v2.Z)
		}
	}
}

func TestAngPBCFoldsOverPole(t *testing.T) {
	chk.PrintTitle("AngPBCFoldsOverPole")
	// theta slightly above π must fold back under π and rotate phi by π.
	o := NewOrientation(0.2, math.Pi+0.1)
	if o.Theta > math.Pi || o.Theta < 0 {
		t.Fatalf("theta out of range: %v", o.Theta)
	}
	chk.Scalar(t, "theta", 1e-12, o.Theta, math.Pi-0.1)
	chk.Scalar(t, "phi", 1e-12, o.Phi, math.Mod(0.2+math.Pi, TwoPi))
}

func TestPositionPBC(t *testing.T) {
	chk.PrintTitle("PositionPBC")
	box := BoxSize{Lx: 2, Ly: 3, Lz: 4}
	p := NewPosition(-0.5, 3.5, 4.5, box)
	chk.Scalar(t, "x", 1e-12, p.X, 1.5)
	chk.Scalar(t, "y", 1e-12, p.Y, 0.5)
	chk.Scalar(t, "z", 1e-12, p.Z, 0.5)
}

func TestParticlePBCInPlace(t *testing.T) {
	chk.PrintTitle("ParticlePBCInPlace")
	box := BoxSize{Lx: 1, Ly: 1, Lz: 1}
	part := Particle{
		Position:    Position{X: 1.2, Y: -0.3, Z: 0.5},
		Orientation: Orientation{Phi: -0.1, Theta: 0.4},
	}
	part.PBC(box)
	if part.Position.X < 0 || part.Position.X >= box.Lx {
		t.Errorf("X out of range: %v", part.Position.X)
	}
	if part.Position.Y < 0 || part.Position.Y >= box.Ly {
		t.Errorf("Y out of range: %v", part.Position.Y)
	}
	if part.Orientation.Phi < 0 || part.Orientation.Phi >= TwoPi {
		t.Errorf("Phi out of range: %v", part.Orientation.Phi)
	}
}
