// Package sim wires the distribution, flow, and magnetic solvers together
// with the Langevin integrator into the per-timestep driver: sample
// distribution, draw randoms, solve fields, update every particle, in
// that fixed order. Grounded directly on the reference driver's
// Simulation/do_timestep.
package sim

import (
	"fmt"
	"sync"

	"github.com/fkjogu/stochasticsampling/config"
	"github.com/fkjogu/stochasticsampling/dist"
	"github.com/fkjogu/stochasticsampling/fftadapt"
	"github.com/fkjogu/stochasticsampling/flow"
	"github.com/fkjogu/stochasticsampling/geo"
	"github.com/fkjogu/stochasticsampling/langevin"
	"github.com/fkjogu/stochasticsampling/magnetic"
	"github.com/fkjogu/stochasticsampling/output"
	"github.com/fkjogu/stochasticsampling/rngpool"
	"github.com/fkjogu/stochasticsampling/simerr"
)

// Driver owns every piece of per-run state: the spectral and magnetic
// solvers, the sampled distribution, the particle ensemble, the
// per-particle random-sample buffer, and the timestep counter. A Driver
// is built once per run from a validated config.Settings and stepped
// repeatedly by DoTimestep.
type Driver struct {
	settings config.Settings

	grid  geo.GridSize
	box   geo.BoxSize
	width geo.GridWidth

	flowSolver *flow.Solver
	magSolver  *magnetic.Solver
	distribution *dist.Distribution
	pool       *rngpool.Pool

	particles []geo.Particle
	samples   []langevin.RandomSample
	timestep  int
}

// NewDriver builds every solver and workspace a run needs from validated
// settings: the stress closure (weighted sum of the active, magnetic, and
// shape-scaled rods contributions, matching the reference stress
// closure), the spectral and magnetic field solvers, the distribution
// buffer, and the per-worker random-sample pool. It also performs the
// package-level FFT thread-count bookkeeping the reference driver does via
// fftw_init, using the resolved worker count.
func NewDriver(settings config.Settings) (*Driver, error) {
	sim := settings.Simulation
	param := settings.Parameters
	grid := sim.GridSize
	box := sim.BoxSize
	width := geo.NewGridWidth(box, grid)

	if err := fftadapt.Init(settings.Environment.NumWorkers); err != nil {
		return nil, &simerr.InitializationFailure{Reason: "fft thread-count bookkeeping", Cause: err}
	}

	prefactors := flow.StressPrefactors{
		Active:   param.Stress.Active,
		Magnetic: param.Stress.Magnetic,
		Rods:     1,
		Shape:    param.Shape,
	}
	kernel := flow.NewKernel(grid, width, prefactors.StressFunc)

	flowSolver, err := flow.NewSolver(grid, box, kernel, param.HydroScreening)
	if err != nil {
		return nil, &simerr.InitializationFailure{Reason: "building spectral flow solver", Cause: err}
	}
	magSolver, err := magnetic.NewSolver(grid, box)
	if err != nil {
		return nil, &simerr.InitializationFailure{Reason: "building magnetic field solver", Cause: err}
	}

	return &Driver{
		settings:     settings,
		grid:         grid,
		box:          box,
		width:        width,
		flowSolver:   flowSolver,
		magSolver:    magSolver,
		distribution: dist.New(grid),
		pool:         rngpool.New(sim.Seed, settings.Environment.NumWorkers),
		samples:      make([]langevin.RandomSample, sim.NumberOfParticles),
	}, nil
}

// Init sets the starting particle ensemble: it rejects a count mismatch
// against the configured number_of_particles, re-canonicalizes every
// particle (sanitizing user-supplied initial conditions the same way the
// reference driver's init does), and samples the distribution once so the
// initial condition is immediately observable.
func (d *Driver) Init(particles []geo.Particle) error {
	want := d.settings.Simulation.NumberOfParticles
	if len(particles) != want {
		return &simerr.InitialConditionMismatch{Got: len(particles), Want: want}
	}

	d.particles = make([]geo.Particle, len(particles))
	for i, p := range particles {
		d.particles[i] = geo.NewParticle(p.Position.X, p.Position.Y, p.Position.Z, p.Orientation.Phi, p.Orientation.Theta, d.box)
	}
	d.timestep = 0

	d.distribution.SampleFrom(d.particles, d.box, d.width)
	return nil
}

// Resume restores a run from a snapshot: the particle ensemble (via
// Init), the timestep counter, and — when the snapshot carries RNG state
// captured under the same worker count — every worker strand's PRNG
// stream position, so draws continue exactly where the checkpointed run
// left off rather than restarting a fresh stream from the run seed. RNG
// state captured under a different worker count is rejected with
// InitializationFailure.
func (d *Driver) Resume(snapshot output.Snapshot) error {
	if err := d.Init(snapshot.Particles); err != nil {
		return err
	}
	d.timestep = snapshot.Timestep
	if len(snapshot.RNGState) == 0 {
		return nil
	}
	if err := d.pool.Restore(snapshot.RNGState); err != nil {
		return &simerr.InitializationFailure{Reason: "restoring rng state from snapshot", Cause: err}
	}
	return nil
}

// Snapshot captures the full resumable state: a copy of the particle
// ensemble, every worker strand's marshaled PRNG state, the run seed, and
// the current timestep.
func (d *Driver) Snapshot() (output.Snapshot, error) {
	state, err := d.pool.State()
	if err != nil {
		return output.Snapshot{}, fmt.Errorf("sim: capturing snapshot: %w", err)
	}
	particles := make([]geo.Particle, len(d.particles))
	copy(particles, d.particles)
	return output.Snapshot{
		Timestep:  d.timestep,
		Seed:      d.settings.Simulation.Seed,
		RNGState:  state,
		Particles: particles,
	}, nil
}

// Particles returns a copy of the current particle ensemble.
func (d *Driver) Particles() []geo.Particle {
	out := make([]geo.Particle, len(d.particles))
	copy(out, d.particles)
	return out
}

// ParticlesHead returns a copy of the first n particles.
func (d *Driver) ParticlesHead(n int) []geo.Particle {
	if n > len(d.particles) {
		n = len(d.particles)
	}
	out := make([]geo.Particle, n)
	copy(out, d.particles[:n])
	return out
}

// Distribution returns the distribution sampled by the most recent
// DoTimestep (or Init).
func (d *Driver) Distribution() *dist.Distribution { return d.distribution }

// FlowSolver returns the flow solver, for reading the real-space field or
// gradient computed by the most recent DoTimestep.
func (d *Driver) FlowSolver() *flow.Solver { return d.flowSolver }

// MagneticSolver returns the magnetic solver, for reading the real-space
// field or gradient computed by the most recent DoTimestep.
func (d *Driver) MagneticSolver() *magnetic.Solver { return d.magSolver }

// Timestep returns the current timestep counter.
func (d *Driver) Timestep() int { return d.timestep }

// Close releases the FFT thread-count bookkeeping the driver acquired in
// NewDriver, the Go analogue of the reference driver's Drop impl tearing
// down FFTW's thread pool.
func (d *Driver) Close() error {
	fftadapt.Finalize()
	return nil
}

// DoTimestep advances the simulation by one step, in the fixed order the
// reference do_timestep follows: sample (and renormalize) the
// distribution, draw this step's random samples, solve the magnetic and
// flow fields, derive vorticity and strain from the flow gradient, sum the
// marginal spatial density, then update every particle in parallel
// through the same Langevin modifier chain the reference driver builds.
// It returns the new timestep counter.
func (d *Driver) DoTimestep() (int, error) {
	d.distribution.SampleFrom(d.particles, d.box, d.width)

	d.pool.Fill(d.samples)

	if err := d.magSolver.Solve(d.distribution); err != nil {
		return d.timestep, fmt.Errorf("sim: solving magnetic field: %w", err)
	}
	if err := d.flowSolver.Solve(d.distribution); err != nil {
		return d.timestep, fmt.Errorf("sim: solving flow field: %w", err)
	}

	marginal := d.distribution.Marginal(d.width)

	param := d.settings.Parameters
	timestep := d.settings.Simulation.Timestep
	quasi2d := d.settings.Environment.QuasiTwoD

	n := len(d.particles)
	nworkers := d.pool.NumWorkers()
	chunk := (n + nworkers - 1) / nworkers

	var wg sync.WaitGroup
	for w := 0; w < nworkers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(i0, i1 int) {
			defer wg.Done()
			for i := i0; i < i1; i++ {
				d.particles[i] = d.stepParticle(d.particles[i], d.samples[i], marginal, param, timestep, quasi2d)
			}
		}(start, end)
	}
	wg.Wait()

	d.timestep++
	return d.timestep, nil
}

// stepParticle advances a single particle by one Langevin step: it reads
// the local flow velocity/gradient and magnetic field/gradient at the
// particle's spatial cell, derives vorticity, strain, and the
// volume-exclusion-scaled translational-diffusion magnitude, then runs
// the fixed modifier chain (self-propulsion, convection,
// dipole-dipole force, external-field alignment, dipole-dipole rotation,
// Jeffrey vorticity, Jeffrey strain, step, translational diffusion,
// rotational diffusion, finalize) that the reference per-particle update
// builds.
func (d *Driver) stepParticle(p geo.Particle, rv langevin.RandomSample, marginal []float64, param config.Parameters, dt float64, quasi2d bool) geo.Particle {
	ix, iy, iz := geo.SpatialCellIndex(p.Position, d.grid, d.width)

	u := d.flowSolver.URealAt(ix, iy, iz)
	grad := d.flowSolver.GradAt(ix, iy, iz)
	vorticity := flow.VorticityVector(grad)
	strain := flow.Strain(grad)

	b := d.magSolver.BAt(ix, iy, iz)
	gradB := d.magSolver.GradBAt(ix, iy, iz)

	density := dist.MarginalAt(marginal, d.grid, ix, iy, iz)
	sigmaTrans := translationalSigma(dt, param.Diffusion.Translational, param.VolumeExclusion, density)

	params := langevin.Parameters{
		Timestep:              dt,
		TransDiffusion:        sigmaTrans,
		RotDiffusion:          param.Diffusion.Rotational,
		MagneticReorientation: param.MagneticReorientation,
		MagneticDrag:          param.MagneticDrag,
		MagneticDipoleDipole:  param.MagneticDipoleDipole,
		Shape:                 param.Shape,
		QuasiTwoD:             quasi2d,
	}

	return langevin.NewBuilder(p, params).
		SelfPropulsion().
		Convection(u).
		MagneticDipoleDipoleForce(param.MagneticDrag, gradB).
		ExternalFieldAlignment(param.MagneticReorientation).
		MagneticDipoleDipoleRotation(b).
		JeffreyVorticity(vorticity).
		JeffreyStrain(strain).
		Step().
		TranslationalDiffusion(rv).
		RotationalDiffusion(rv).
		Finalize(d.box)
}
