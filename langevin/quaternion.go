package langevin

import (
	"math"

	"github.com/fkjogu/stochasticsampling/geo"
	"gonum.org/v1/gonum/spatial/r3"
)

// rotationalDiffusionAxis computes the axis (cosφcosθsinα − cosα sinφ,
// cosα cosφ + cosθ sinα sinφ, −sinθ sinα) that a rotational-diffusion step
// rotates the orientation vector about, given the cached trig values and
// the sampled axis_angle α.
func rotationalDiffusionAxis(cs geo.CosSin, alpha float64) r3.Vec {
	sa, ca := math.Sincos(alpha)
	return r3.Vec{
		X: cs.CosPhi*cs.CosTheta*sa - ca*cs.SinPhi,
		Y: ca*cs.CosPhi + cs.CosTheta*sa*cs.SinPhi,
		Z: -cs.SinTheta * sa,
	}
}
