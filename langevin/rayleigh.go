package langevin

import "math"

// rayleighSample draws a Rayleigh(sigma)-distributed magnitude from a
// Uniform(0,1) draw u via the inverse-CDF: sigma·√(−2 ln(1−u)).
func rayleighSample(sigma, u float64) float64 {
	return sigma * math.Sqrt(-2*math.Log(1-u))
}
