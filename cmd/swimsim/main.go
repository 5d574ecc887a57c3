// Package main is the swimsim entry point: it loads a run's settings,
// builds or resumes its initial condition, drives the timestep loop, and
// persists output through output.Writer. Grounded on the teacher's root
// main.go: a cobra command replaces flag.Parse, but the top-level
// defer+recover-and-print-cause-chain shape is kept.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cpmech/gosl/io"
	"github.com/spf13/cobra"

	"github.com/fkjogu/stochasticsampling/config"
	"github.com/fkjogu/stochasticsampling/flow"
	"github.com/fkjogu/stochasticsampling/geo"
	"github.com/fkjogu/stochasticsampling/initcond"
	"github.com/fkjogu/stochasticsampling/magnetic"
	"github.com/fkjogu/stochasticsampling/output"
	"github.com/fkjogu/stochasticsampling/sim"
)

var (
	flagSI          bool
	flagResume      string
	flagOutDir      string
	flagPrefix      string
	flagVersion     string
	flagQueueDepth  int
	flagInitial     string
	flagKappa       float64
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("ERROR: %v\n", err)
			printCauseChain(err)
			os.Exit(1)
		}
	}()

	root := &cobra.Command{
		Use:   "swimsim <config.toml>",
		Short: "run a suspension of self-propelled magnetic micro-swimmers",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	root.Flags().BoolVar(&flagSI, "si", false, "interpret the config file as physical (SI) units")
	root.Flags().StringVar(&flagResume, "resume", "", "path to a snapshot record to resume from")
	root.Flags().StringVar(&flagOutDir, "out", "./output", "output root directory")
	root.Flags().StringVar(&flagPrefix, "prefix", "swimsim", "output run-id prefix")
	root.Flags().StringVar(&flagVersion, "run-version", "0.1.0", "output run-id version tag")
	root.Flags().IntVar(&flagQueueDepth, "queue-depth", 64, "output writer queue depth")
	root.Flags().StringVar(&flagInitial, "initial-condition", "isotropic", "initial condition when not resuming: isotropic|homogeneous_polar")
	root.Flags().Float64Var(&flagKappa, "kappa", 2.0, "concentration parameter for --initial-condition=homogeneous_polar")

	if err := root.Execute(); err != nil {
		panic(err)
	}
}

// printCauseChain walks err's Unwrap chain, printing each link the way
// io.Pfyel highlights the teacher's log dump on failure.
func printCauseChain(recovered interface{}) {
	err, ok := recovered.(error)
	if !ok {
		return
	}
	for err != nil {
		io.Pfyel("  caused by: %v\n", err)
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
}

func run(cmd *cobra.Command, args []string) error {
	configPath := args[0]

	var settings config.Settings
	var err error
	if flagSI {
		settings, err = config.LoadSI(configPath)
	} else {
		settings, err = config.Load(configPath)
	}
	if err != nil {
		return err
	}

	driver, err := sim.NewDriver(settings)
	if err != nil {
		return err
	}
	defer driver.Close()

	if flagResume != "" {
		snapshot, err := readSnapshot(flagResume)
		if err != nil {
			return err
		}
		if err := driver.Resume(snapshot); err != nil {
			return err
		}
		io.Pf("> resumed from %s at timestep %d\n", flagResume, driver.Timestep())
	} else {
		particles, err := buildInitialCondition(settings)
		if err != nil {
			return err
		}
		if err := driver.Init(particles); err != nil {
			return err
		}
		io.Pf("> initialized %d particles (%s)\n", settings.Simulation.NumberOfParticles, flagInitial)
	}

	path := output.NewPath(flagOutDir, flagPrefix, flagVersion, time.Now())
	writer, err := output.NewWriter(path, flagQueueDepth)
	if err != nil {
		return err
	}
	if err := output.WriteSettingsSidecar(path, settings); err != nil {
		return err
	}
	io.Pf("> writing output to %s\n", path.Dir())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runLoop(ctx, driver, writer, settings); err != nil {
		writer.Close()
		return err
	}

	return writer.Close()
}

// runLoop steps the driver to the configured number of timesteps, writing
// output per the configured cadence, and writes a final snapshot on either
// completion or a cancelled context so an interrupted run can be resumed.
func runLoop(ctx context.Context, driver *sim.Driver, writer *output.Writer, settings config.Settings) error {
	cadence := settings.Simulation.OutputAtTimestep
	total := settings.Simulation.NumberOfTimesteps

	for driver.Timestep() < total {
		select {
		case <-ctx.Done():
			io.Pfyel("> interrupted at timestep %d, writing final snapshot\n", driver.Timestep())
			return writeSnapshot(driver, writer)
		default:
		}

		step, err := driver.DoTimestep()
		if err != nil {
			return err
		}

		if err := writeOutputs(driver, writer, step, cadence); err != nil {
			return err
		}
		if dueAt(step, cadence.Snapshot) {
			if err := writeSnapshot(driver, writer); err != nil {
				return err
			}
		}
	}

	return writeSnapshot(driver, writer)
}

func dueAt(step, every int) bool {
	return every > 0 && step%every == 0
}

// writeOutputs appends every Entry field due at this step. Only one Entry
// is built and appended at a time since output.Writer encodes each
// populated field as its own Record.
func writeOutputs(driver *sim.Driver, writer *output.Writer, step int, cadence config.OutputCadence) error {
	entry := output.Entry{Timestep: step}
	any := false

	if dueAt(step, cadence.Distribution) {
		entry.Distribution = driver.Distribution().Raw()
		any = true
	}
	if dueAt(step, cadence.FlowField) {
		entry.FlowField = flattenFlowField(driver.FlowSolver(), driver.Distribution().Grid())
		any = true
	}
	if dueAt(step, cadence.MagneticField) {
		entry.MagneticField = flattenMagneticField(driver.MagneticSolver(), driver.Distribution().Grid())
		any = true
	}
	if dueAt(step, cadence.Particles) {
		if cadence.ParticlesHead != nil {
			entry.Particles = driver.ParticlesHead(*cadence.ParticlesHead)
		} else {
			entry.Particles = driver.Particles()
		}
		any = true
	}

	if !any {
		return nil
	}
	return writer.Append(entry)
}

func writeSnapshot(driver *sim.Driver, writer *output.Writer) error {
	snap, err := driver.Snapshot()
	if err != nil {
		return err
	}
	return writer.AppendSnapshot(snap)
}

// flattenFlowField reads the real-space flow velocity at every spatial
// cell, in (ix,iy,iz) row-major order matching dist.Distribution's
// spatial indexing.
func flattenFlowField(solver *flow.Solver, grid geo.GridSize) [][3]float64 {
	out := make([][3]float64, 0, grid.Nx*grid.Ny*grid.Nz)
	for ix := 0; ix < grid.Nx; ix++ {
		for iy := 0; iy < grid.Ny; iy++ {
			for iz := 0; iz < grid.Nz; iz++ {
				out = append(out, solver.URealAt(ix, iy, iz))
			}
		}
	}
	return out
}

// flattenMagneticField reads the real-space magnetic field at every
// spatial cell, in the same order as flattenFlowField.
func flattenMagneticField(solver *magnetic.Solver, grid geo.GridSize) [][3]float64 {
	out := make([][3]float64, 0, grid.Nx*grid.Ny*grid.Nz)
	for ix := 0; ix < grid.Nx; ix++ {
		for iy := 0; iy < grid.Ny; iy++ {
			for iz := 0; iz < grid.Nz; iz++ {
				out = append(out, solver.BAt(ix, iy, iz))
			}
		}
	}
	return out
}

func buildInitialCondition(settings config.Settings) ([]geo.Particle, error) {
	n := settings.Simulation.NumberOfParticles
	box := settings.Simulation.BoxSize
	seed := settings.Simulation.Seed

	switch flagInitial {
	case "isotropic":
		return initcond.Isotropic(n, box, seed), nil
	case "homogeneous_polar":
		return initcond.HomogeneousPolar(n, box, seed, flagKappa), nil
	default:
		return nil, fmt.Errorf("swimsim: unknown --initial-condition %q (want isotropic|homogeneous_polar)", flagInitial)
	}
}

func readSnapshot(path string) (output.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return output.Snapshot{}, fmt.Errorf("swimsim: opening snapshot %q: %w", path, err)
	}
	defer f.Close()

	rec, err := output.DecodeRecord(f)
	if err != nil {
		return output.Snapshot{}, fmt.Errorf("swimsim: decoding snapshot record %q: %w", path, err)
	}
	if rec.Kind != output.KindSnapshot {
		return output.Snapshot{}, fmt.Errorf("swimsim: %q is a %s record, not a snapshot", path, rec.Kind)
	}

	var snap output.Snapshot
	if err := output.DecodePayload(rec, &snap); err != nil {
		return output.Snapshot{}, fmt.Errorf("swimsim: decoding snapshot payload %q: %w", path, err)
	}
	return snap, nil
}
