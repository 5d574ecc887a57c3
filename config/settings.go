// Package config loads, validates, and nondimensionalizes the run
// configuration consumed by sim.Driver.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/fkjogu/stochasticsampling/geo"
	"github.com/fkjogu/stochasticsampling/simerr"
)

// StressPrefactors holds the configured active/magnetic stress-kernel
// weights; the rods contribution is weighted by Parameters.Shape
// directly, matching the original's stress closure.
type StressPrefactors struct {
	Active   float64 `toml:"active"`
	Magnetic float64 `toml:"magnetic"`
}

// OutputCadence configures, per output kind, how many timesteps elapse
// between dumps; zero means never.
type OutputCadence struct {
	Distribution   int  `toml:"distribution"`
	FlowField      int  `toml:"flowfield"`
	MagneticField  int  `toml:"magneticfield"`
	Particles      int  `toml:"particles"`
	Snapshot       int  `toml:"snapshot"`
	ParticlesHead  *int `toml:"particles_head"`
}

// Simulation holds the dimensionless run parameters that size the grid,
// the box, and the timestep loop.
type Simulation struct {
	GridSize          geo.GridSize   `toml:"grid_size"`
	BoxSize           geo.BoxSize    `toml:"box_size"`
	Timestep          float64        `toml:"timestep"`
	NumberOfParticles int            `toml:"number_of_particles"`
	Seed              uint64         `toml:"seed"`
	NumberOfTimesteps int            `toml:"number_of_timesteps"`
	OutputAtTimestep  OutputCadence  `toml:"output_at_timestep"`
}

// DiffusionConstants holds the translational/rotational diffusion
// coefficients in dimensionless units.
type DiffusionConstants struct {
	Translational float64 `toml:"translational"`
	Rotational    float64 `toml:"rotational"`
}

// Parameters holds the dimensionless physical parameters §6 names:
// diffusion, stress prefactors, shape, magnetic couplings, and the
// volume-exclusion/hydrodynamic-screening knobs.
type Parameters struct {
	Diffusion             DiffusionConstants     `toml:"diffusion"`
	Stress                StressPrefactors       `toml:"stress"`
	Shape                 float64                `toml:"shape"`
	MagneticReorientation float64                `toml:"magnetic_reorientation"`
	MagneticDrag          float64                `toml:"magnetic_drag"`
	MagneticDipoleDipole  float64                `toml:"magnetic_dipole_dipole"`
	VolumeExclusion       float64                `toml:"volume_exclusion"`
	HydroScreening        float64                `toml:"hydro_screening"`
}

// Environment holds run-host configuration: worker count and feature
// selectors.
type Environment struct {
	NumWorkers int  `toml:"num_workers"`
	QuasiTwoD  bool  `toml:"quasi2d"`
	Single     bool  `toml:"single"`
	FFTWThreaded bool `toml:"fftw_threaded"`
}

// Settings is the fully validated, dimensionless configuration consumed
// by sim.Driver.
type Settings struct {
	Simulation  Simulation  `toml:"simulation"`
	Parameters  Parameters  `toml:"parameters"`
	Environment Environment `toml:"environment"`
}

// Load reads and parses a TOML settings file, resolves the worker count
// from the environment if not set explicitly, and validates the result.
func Load(path string) (Settings, error) {
	var s Settings
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, &simerr.ConfigInvalid{Reason: "failed to parse TOML parameter file", Cause: err}
	}
	if err := resolveWorkers(&s); err != nil {
		return Settings{}, err
	}
	if err := Validate(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSI reads and parses a TOML settings file written in physical (SI)
// units, converts it to dimensionless Settings via Nondimensionalize,
// resolves the worker count, and validates the result — the `--si` flag's
// counterpart to Load.
func LoadSI(path string) (Settings, error) {
	var si SI
	if _, err := toml.DecodeFile(path, &si); err != nil {
		return Settings{}, &simerr.ConfigInvalid{Reason: "failed to parse SI-unit TOML parameter file", Cause: err}
	}
	s := si.Nondimensionalize()
	if err := resolveWorkers(&s); err != nil {
		return Settings{}, err
	}
	if err := Validate(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func resolveWorkers(s *Settings) error {
	if s.Environment.NumWorkers > 0 {
		return nil
	}
	raw, ok := os.LookupEnv("RAYON_NUM_THREADS")
	if !ok {
		return &simerr.ConfigInvalid{Reason: "no environment variable 'RAYON_NUM_THREADS' set and environment.num_workers not configured"}
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return &simerr.ConfigInvalid{Reason: fmt.Sprintf("RAYON_NUM_THREADS=%q is not a positive integer", raw), Cause: err}
	}
	s.Environment.NumWorkers = n
	return nil
}

// Validate checks the invariants §4.8 requires before a Settings value
// may be used to construct a Driver.
func Validate(s Settings) error {
	bs := s.Simulation.BoxSize
	if bs.Lx <= 0 || bs.Ly <= 0 || bs.Lz <= 0 {
		return &simerr.ConfigInvalid{Reason: fmt.Sprintf("box size must be positive, got %+v", bs)}
	}
	gs := s.Simulation.GridSize
	if gs.Nx%2 != 0 || gs.Ny%2 != 0 {
		return &simerr.ConfigInvalid{Reason: fmt.Sprintf("grid_size.Nx and Ny must be even (screened-Oseen kernel assumes it), got Nx=%d Ny=%d", gs.Nx, gs.Ny)}
	}
	if s.Simulation.NumberOfParticles <= 0 {
		return &simerr.ConfigInvalid{Reason: "number_of_particles must be positive"}
	}
	if ph := s.Simulation.OutputAtTimestep.ParticlesHead; ph != nil && *ph > s.Simulation.NumberOfParticles {
		return &simerr.ConfigInvalid{Reason: "particles_head must not exceed number_of_particles"}
	}
	if s.Environment.NumWorkers <= 0 {
		return &simerr.ConfigInvalid{Reason: "environment.num_workers must resolve to a positive integer"}
	}
	if s.Environment.QuasiTwoD && gs.Nz != 1 {
		return &simerr.ConfigInvalid{Reason: fmt.Sprintf("quasi2d requires grid_size.Nz == 1, got %d", gs.Nz)}
	}
	return nil
}
