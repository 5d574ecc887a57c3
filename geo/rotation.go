package geo

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// RotateAboutAxis rotates v by angle theta about the unit axis (ax,ay,az)
// via the quaternion sandwich product v' = q v conj(q). Shared by the
// Langevin rotational-diffusion step and the initial-condition samplers
// that reorient a drawn orientation onto a bias axis.
func RotateAboutAxis(v r3.Vec, ax, ay, az, theta float64) r3.Vec {
	half := theta / 2
	s, c := math.Sincos(half)
	q := quat.Number{Real: c, Imag: ax * s, Jmag: ay * s, Kmag: az * s}
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}
