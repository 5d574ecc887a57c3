package sim

import "math"

// translationalSigma returns σ_t = √(2Δt·(D_t + κ·ρ̂)), the
// translational-diffusion magnitude with the volume-exclusion density
// term folded in, matching the reference per-particle diff computation.
func translationalSigma(dt, transDiffusion, volumeExclusion, density float64) float64 {
	return math.Sqrt(2 * dt * (transDiffusion + volumeExclusion*density))
}
