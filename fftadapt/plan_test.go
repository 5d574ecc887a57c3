package fftadapt

import (
	"math/cmplx"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestPlan3DRoundTripScalesByN(t *testing.T) {
	chk.PrintTitle("Plan3DRoundTripScalesByN")
	nx, ny, nz := 4, 3, 2
	p, err := NewPlan3D(nx, ny, nz, Estimate)
	if err != nil {
		t.Fatalf("NewPlan3D: %v", err)
	}

	n := nx * ny * nz
	original := make([]complex128, n)
	for i := range original {
		original[i] = complex(float64(i%5)-2, float64(i%3))
	}

	buf := make([]complex128, n)
	copy(buf, original)
	copy(p.Bound(), buf)

	if err := p.Execute(Forward); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if err := p.Execute(Backward); err != nil {
		t.Fatalf("backward: %v", err)
	}

	got := p.Bound()
	for i := range got {
		want := original[i] * complex(float64(n), 0)
		tol := 1e-6*cmplx.Abs(want) + 1e-9
		chk.Scalar(t, "|got-want|", tol, cmplx.Abs(got[i]-want), 0)
	}
}

func TestPlan3DReexecuteIndependentBuffers(t *testing.T) {
	chk.PrintTitle("Plan3DReexecuteIndependentBuffers")
	p, err := NewPlan3D(4, 4, 4, Estimate)
	if err != nil {
		t.Fatalf("NewPlan3D: %v", err)
	}
	n := p.Size()
	src := make([]complex128, n)
	src[0] = 1
	dst := make([]complex128, n)

	if err := p.Reexecute(dst, src, Forward); err != nil {
		t.Fatalf("reexecute: %v", err)
	}
	// forward transform of a delta at index 0 is a constant array of 1s.
	for _, v := range dst {
		chk.Scalar(t, "|v-1|", 1e-9, cmplx.Abs(v-1), 0)
	}
}
