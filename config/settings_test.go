package config

import (
	"math"
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/fkjogu/stochasticsampling/geo"
)

func validSettings() Settings {
	return Settings{
		Simulation: Simulation{
			GridSize:          geo.GridSize{Nx: 4, Ny: 4, Nz: 4, Nphi: 6, Ntheta: 6},
			BoxSize:           geo.BoxSize{Lx: 1, Ly: 1, Lz: 1},
			Timestep:          0.01,
			NumberOfParticles: 100,
			NumberOfTimesteps: 10,
		},
		Environment: Environment{NumWorkers: 2},
	}
}

func TestValidateAcceptsWellFormedSettings(t *testing.T) {
	chk.PrintTitle("ValidateAcceptsWellFormedSettings")
	if err := Validate(validSettings()); err != nil {
		t.Fatalf("expected valid settings to pass, got %v", err)
	}
}

func TestValidateRejectsNonPositiveBox(t *testing.T) {
	s := validSettings()
	s.Simulation.BoxSize.Lx = 0
	if err := Validate(s); err == nil {
		t.Fatalf("expected error for non-positive box size")
	}
}

func TestValidateRejectsOddGrid(t *testing.T) {
	s := validSettings()
	s.Simulation.GridSize.Nx = 5
	if err := Validate(s); err == nil {
		t.Fatalf("expected error for odd Nx")
	}
}

func TestValidateRejectsExcessiveParticlesHead(t *testing.T) {
	s := validSettings()
	head := 200
	s.Simulation.OutputAtTimestep.ParticlesHead = &head
	if err := Validate(s); err == nil {
		t.Fatalf("expected error for particles_head > number_of_particles")
	}
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	s := validSettings()
	s.Environment.NumWorkers = 0
	if err := Validate(s); err == nil {
		t.Fatalf("expected error for zero workers")
	}
}

func TestValidateRejectsQuasiTwoDWithMultipleZLayers(t *testing.T) {
	s := validSettings()
	s.Environment.QuasiTwoD = true
	s.Simulation.GridSize.Nz = 4
	if err := Validate(s); err == nil {
		t.Fatalf("expected error for quasi2d with Nz != 1")
	}
}

func TestResolveWorkersFromEnvironment(t *testing.T) {
	chk.PrintTitle("ResolveWorkersFromEnvironment")
	os.Setenv("RAYON_NUM_THREADS", "8")
	defer os.Unsetenv("RAYON_NUM_THREADS")

	s := validSettings()
	s.Environment.NumWorkers = 0
	if err := resolveWorkers(&s); err != nil {
		t.Fatalf("resolveWorkers: %v", err)
	}
	chk.IntAssert(s.Environment.NumWorkers, 8)
}

func TestResolveWorkersMissingEnvFails(t *testing.T) {
	os.Unsetenv("RAYON_NUM_THREADS")
	s := validSettings()
	s.Environment.NumWorkers = 0
	if err := resolveWorkers(&s); err == nil {
		t.Fatalf("expected error when RAYON_NUM_THREADS is unset and num_workers unconfigured")
	}
}

func TestNondimensionalizeScalesBoxAndTimestep(t *testing.T) {
	chk.PrintTitle("NondimensionalizeScalesBoxAndTimestep")
	si := SI{
		Simulation: Simulation{
			GridSize:          geo.GridSize{Nx: 4, Ny: 4, Nz: 4, Nphi: 6, Ntheta: 6},
			BoxSize:           geo.BoxSize{Lx: 1e-5, Ly: 1e-5, Lz: 1e-5},
			Timestep:          1e-4,
			NumberOfParticles: 100,
		},
		Parameters: SIParameters{
			Viscosity:      1e-3,
			Temperature:    300,
			VolumeFraction: 0.1,
			ExternalField:  1e-3,
			Particle: SIParticle{
				Radius:               1e-6,
				SelfPropulsionSpeed:  1e-6,
				ForceDipole:          1e-18,
				MagneticDipoleMoment: 1e-16,
				PersistanceTime:      1.0,
			},
		},
		Environment: Environment{NumWorkers: 4},
	}

	out := si.Nondimensionalize()

	if out.Simulation.BoxSize.Lx <= 0 || math.IsNaN(out.Simulation.BoxSize.Lx) {
		t.Fatalf("nondimensionalized box size invalid: %v", out.Simulation.BoxSize.Lx)
	}
	if out.Simulation.Timestep <= 0 || math.IsNaN(out.Simulation.Timestep) {
		t.Fatalf("nondimensionalized timestep invalid: %v", out.Simulation.Timestep)
	}
	if out.Parameters.Diffusion.Translational <= 0 {
		t.Errorf("expected positive translational diffusion, got %v", out.Parameters.Diffusion.Translational)
	}
	if out.Parameters.Diffusion.Rotational <= 0 {
		t.Errorf("expected positive rotational diffusion, got %v", out.Parameters.Diffusion.Rotational)
	}
}
