package config

import "math"

const boltzmann = 1.380_648_52e-23

// SIParticle holds the physical particle parameters: radius, shape
// factor, self-propulsion speed, force-dipole strength, magnetic dipole
// moment, and persistence time, all in SI units.
type SIParticle struct {
	Radius               float64 `toml:"radius"`
	Shape                float64 `toml:"shape"`
	SelfPropulsionSpeed  float64 `toml:"self_propulsion_speed"`
	ForceDipole          float64 `toml:"force_dipole"`
	MagneticDipoleMoment float64 `toml:"magnetic_dipole_moment"`
	PersistanceTime      float64 `toml:"persistance_time"`
}

// SIParameters holds the SI-unit physical parameters that Nondimensionalize
// converts into dimensionless config.Parameters.
type SIParameters struct {
	HydroScreening  float64    `toml:"hydro_screening"`
	VolumeExclusion float64    `toml:"volume_exclusion"`
	Viscosity       float64    `toml:"viscocity"`
	Temperature     float64    `toml:"temperature"`
	VolumeFraction  float64    `toml:"volume_fraction"`
	ExternalField   float64    `toml:"external_field"`
	Particle        SIParticle `toml:"particle"`
}

// SI holds a simulation specified in physical (SI) units, the same shape
// `settings/si.rs` exposes.
type SI struct {
	Simulation  Simulation   `toml:"simulation"`
	Parameters  SIParameters `toml:"parameters"`
	Environment Environment  `toml:"environment"`
}

func volumeFractionToNumberDensity(volfrac, radius float64) float64 {
	volp := 4.0 / 3.0 * math.Pi * radius * radius * radius
	return volfrac / volp
}

// Nondimensionalize converts an SI-unit configuration into the
// dimensionless Settings consumed by sim.Driver, scaling lengths by the
// mean-particle-volume length scale xc = n^(-1/3) and time by the
// self-propulsion time tc = xc/uc, mirroring settings/si.rs's `into_settings`.
func (s SI) Nondimensionalize() Settings {
	p := s.Parameters.Particle
	numberDensity := volumeFractionToNumberDensity(s.Parameters.VolumeFraction, p.Radius)

	xc := math.Pow(numberDensity, -1.0/3.0)
	uc := p.SelfPropulsionSpeed
	tc := xc / uc

	stressf := math.Pow(numberDensity, 2.0/3.0) / uc / s.Parameters.Viscosity
	stress := StressPrefactors{
		Active:   stressf * p.ForceDipole,
		Magnetic: stressf * p.MagneticDipoleMoment * s.Parameters.ExternalField,
	}

	rotFriction := 8.0 * math.Pi * s.Parameters.Viscosity * p.Radius * p.Radius * p.Radius
	transFriction := 6.0 * math.Pi * s.Parameters.Viscosity * p.Radius

	rotDiffBrown := boltzmann * s.Parameters.Temperature / rotFriction
	rotDiffActive := 1.0 / 2.0 / p.PersistanceTime
	transDiffBrown := boltzmann * s.Parameters.Temperature / transFriction

	diff := DiffusionConstants{
		Translational: math.Pow(numberDensity, 1.0/3.0) / uc * transDiffBrown,
		Rotational:    math.Pow(numberDensity, -1.0/3.0) / uc * (rotDiffBrown + rotDiffActive),
	}

	alignmentParameter := p.MagneticDipoleMoment * s.Parameters.ExternalField / rotFriction / (rotDiffBrown + rotDiffActive)

	out := Settings{
		Simulation: s.Simulation,
		Parameters: Parameters{
			Diffusion:             diff,
			Stress:                stress,
			MagneticReorientation: alignmentParameter * diff.Rotational,
			MagneticDipoleDipole:  math.Pow(numberDensity, 2.0/3.0) / uc / rotFriction * 4.0e-7 * math.Pi * p.MagneticDipoleMoment * p.MagneticDipoleMoment,
			VolumeExclusion:       s.Parameters.VolumeExclusion,
			Shape:                 p.Shape,
			HydroScreening:        s.Parameters.HydroScreening,
			MagneticDrag:          numberDensity / uc / transFriction * 4.0e-7 * math.Pi * p.MagneticDipoleMoment * p.MagneticDipoleMoment,
		},
		Environment: s.Environment,
	}

	out.Simulation.BoxSize.Lx = s.Simulation.BoxSize.Lx / xc
	out.Simulation.BoxSize.Ly = s.Simulation.BoxSize.Ly / xc
	out.Simulation.BoxSize.Lz = s.Simulation.BoxSize.Lz / xc
	out.Simulation.Timestep = s.Simulation.Timestep / tc

	return out
}
