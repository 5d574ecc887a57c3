// +build ignore

// swimplot renders the rotational-diffusion decay diagnostic against a
// swimsim output run: the ensemble-mean orientation projected onto a fixed
// axis should decay as exp(-2*D_r*t), the free-diffusion closure a pure
// rotational-diffusion run (zero self-propulsion, zero magnetic coupling,
// zero flow) is checked against. Shaped after the teacher's per-example
// doplot.go companion plots.
package main

import (
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/plt"

	"github.com/fkjogu/stochasticsampling/geo"
	"github.com/fkjogu/stochasticsampling/output"
)

func main() {
	runDir, fnkey := io.ArgToFilename(0, "", "", true)
	dr := io.Atof(io.ArgToString(1, "0.1"))
	dt := io.Atof(io.ArgToString(2, "0.001"))

	files, err := filepath.Glob(filepath.Join(runDir, "*.particles-*.bin"))
	if err != nil || len(files) == 0 {
		io.PfRed("ERROR: no particles-*.bin files found under %s\n", runDir)
		os.Exit(1)
	}
	sort.Strings(files)

	t := make([]float64, 0, len(files))
	meanOrientation := make([]float64, 0, len(files))
	analytic := make([]float64, 0, len(files))

	for _, path := range files {
		step, particles, err := readParticles(path)
		if err != nil {
			io.PfRed("ERROR: %v\n", err)
			os.Exit(1)
		}
		tt := float64(step) * dt
		t = append(t, tt)
		meanOrientation = append(meanOrientation, orderParameter(particles))
		analytic = append(analytic, math.Exp(-2*dr*tt))
	}

	plt.Plot(t, meanOrientation, "'bo', clip_on=0, label='simulated'")
	plt.Plot(t, analytic, "'k-', clip_on=0, label='exp(-2 D_r t)'")
	plt.Gll("$t$", "$\\langle n_z\\rangle$", "")

	plt.SetForPng(1, 500, 200)
	plt.Save(runDir, io.Sf("%s_rotdiff", fnkey))
}

// readParticles decodes a single numbered particles dump file, returning
// the timestep it was taken at.
func readParticles(path string) (int, []geo.Particle, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	rec, err := output.DecodeRecord(f)
	if err != nil {
		return 0, nil, err
	}
	var particles []geo.Particle
	if err := output.DecodePayload(rec, &particles); err != nil {
		return 0, nil, err
	}
	return rec.Timestep, particles, nil
}

// orderParameter returns the ensemble mean of n_z = cos(theta), the
// quantity a pure rotational-diffusion run relaxes to zero exponentially
// from whatever initial alignment the run started at.
func orderParameter(particles []geo.Particle) float64 {
	var sum float64
	for _, p := range particles {
		sum += math.Cos(p.Orientation.Theta)
	}
	return sum / float64(len(particles))
}
