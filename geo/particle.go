package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// modulo returns f reduced into [0,m), matching Euclidean modulo rather than
// Go's truncating %, which can return negative results for negative f.
func modulo(f, m float64) float64 {
	r := math.Mod(f, m)
	if r < 0 {
		r += m
	}
	return r
}

// Position is a point on the 3-torus [0,Lx)×[0,Ly)×[0,Lz).
type Position struct {
	X, Y, Z float64
}

// NewPosition builds a Position, applying the periodic projection.
func NewPosition(x, y, z float64, box BoxSize) Position {
	return Position{modulo(x, box.Lx), modulo(y, box.Ly), modulo(z, box.Lz)}
}

// PBC re-projects the position onto the box after an unconstrained update.
func (p *Position) PBC(box BoxSize) {
	p.X = modulo(p.X, box.Lx)
	p.Y = modulo(p.Y, box.Ly)
	p.Z = modulo(p.Z, box.Lz)
}

// Vec returns the position as a plain r3.Vec for arithmetic.
func (p Position) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// PositionFromVec builds a Position from an r3.Vec, applying periodic
// projection against box.
func PositionFromVec(v r3.Vec, box BoxSize) Position {
	return NewPosition(v.X, v.Y, v.Z, box)
}

// Orientation is the direction of a swimmer given in spherical coordinates:
// φ is the azimuth in [0,2π), θ is the polar angle in [0,π].
type Orientation struct {
	Phi, Theta float64
}

// angPBC reduces (phi,theta) into their canonical ranges: θ is first
// reduced mod 2π; if the result exceeds π, both φ and θ are reflected so
// θ folds back into [0,π].
func angPBC(phi, theta float64) (float64, float64) {
	theta = modulo(theta, TwoPi)
	if theta > math.Pi {
		return modulo(phi+math.Pi, TwoPi), TwoPi - theta
	}
	return modulo(phi, TwoPi), theta
}

// NewOrientation builds an Orientation, applying angle canonicalization.
func NewOrientation(phi, theta float64) Orientation {
	phi, theta = angPBC(phi, theta)
	return Orientation{phi, theta}
}

// PBC re-canonicalizes the orientation in place.
func (o *Orientation) PBC() {
	o.Phi, o.Theta = angPBC(o.Phi, o.Theta)
}

// CosSin caches the four trigonometric values used repeatedly within a
// single Langevin step, so each modifier in the chain avoids recomputing
// sin/cos of the same orientation.
type CosSin struct {
	CosPhi, SinPhi, CosTheta, SinTheta float64
}

// NewCosSin precomputes the trigonometric cache for an orientation.
func NewCosSin(o Orientation) CosSin {
	sp, cp := math.Sincos(o.Phi)
	st, ct := math.Sincos(o.Theta)
	return CosSin{CosPhi: cp, SinPhi: sp, CosTheta: ct, SinTheta: st}
}

// Vec returns the Cartesian unit vector for the cached angles.
func (cs CosSin) Vec() r3.Vec {
	return r3.Vec{
		X: cs.SinTheta * cs.CosPhi,
		Y: cs.SinTheta * cs.SinPhi,
		Z: cs.CosTheta,
	}
}

// Vec returns the Cartesian unit vector n̂ of the orientation.
func (o Orientation) Vec() r3.Vec {
	return NewCosSin(o).Vec()
}

// OrientationFromVec inverts the unit-vector representation back to (φ,θ).
func OrientationFromVec(v r3.Vec) Orientation {
	rxy := math.Hypot(v.X, v.Y)
	phi := math.Atan2(v.Y, v.X)
	theta := math.Pi/2 - math.Atan2(v.Z, rxy)
	return NewOrientation(phi, theta)
}

// Particle is a single swimmer: a position and an orientation, both always
// kept in their canonical ranges.
type Particle struct {
	Position    Position
	Orientation Orientation
}

// NewParticle builds a Particle, canonicalizing both fields.
func NewParticle(x, y, z, phi, theta float64, box BoxSize) Particle {
	return Particle{
		Position:    NewPosition(x, y, z, box),
		Orientation: NewOrientation(phi, theta),
	}
}

// PBC re-projects both fields of the particle onto their canonical ranges.
func (p *Particle) PBC(box BoxSize) {
	p.Position.PBC(box)
	p.Orientation.PBC()
}
