package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cpmech/gosl/chk"

	"github.com/fkjogu/stochasticsampling/geo"
	"github.com/fkjogu/stochasticsampling/simerr"
)

func newTestWriter(t *testing.T) (*Writer, Path) {
	t.Helper()
	root := t.TempDir()
	path := NewPath(root, "test", "0.1.0", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	w, err := NewWriter(path, 4)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w, path
}

func TestAppendParticlesRoundTrips(t *testing.T) {
	chk.PrintTitle("AppendParticlesRoundTrips")
	w, path := newTestWriter(t)
	box := geo.BoxSize{Lx: 1, Ly: 1, Lz: 1}
	particles := []geo.Particle{geo.NewParticle(0.1, 0.2, 0.3, 0.4, 1.0, box)}

	if err := w.Append(Entry{Timestep: 7, Particles: particles}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path.WithExtension(KindParticles.String(), 7))
	if err != nil {
		t.Fatalf("opening persisted file: %v", err)
	}
	defer f.Close()

	rec, err := DecodeRecord(f)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if rec.Kind != KindParticles {
		t.Fatalf("got kind=%v, want particles", rec.Kind)
	}
	chk.IntAssert(rec.Timestep, 7)
	var got []geo.Particle
	if err := DecodePayload(rec, &got); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if len(got) != 1 || got[0] != particles[0] {
		t.Errorf("got %+v, want %+v", got, particles)
	}
}

func TestAppendSnapshotRoundTrips(t *testing.T) {
	chk.PrintTitle("AppendSnapshotRoundTrips")
	w, path := newTestWriter(t)
	box := geo.BoxSize{Lx: 1, Ly: 1, Lz: 1}
	snap := Snapshot{Timestep: 42, Seed: 99, Particles: []geo.Particle{geo.NewParticle(0, 0, 0, 0, 1, box)}}

	if err := w.AppendSnapshot(snap); err != nil {
		t.Fatalf("AppendSnapshot: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path.WithExtension(KindSnapshot.String(), 42))
	if err != nil {
		t.Fatalf("opening persisted snapshot: %v", err)
	}
	defer f.Close()

	rec, err := DecodeRecord(f)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	var got Snapshot
	if err := DecodePayload(rec, &got); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	chk.IntAssert(got.Timestep, 42)
	chk.IntAssert(got.Seed, 99)
	chk.IntAssert(len(got.Particles), 1)
}

func TestAppendOnlyWritesPopulatedFields(t *testing.T) {
	chk.PrintTitle("AppendOnlyWritesPopulatedFields")
	w, path := newTestWriter(t)
	if err := w.Append(Entry{Timestep: 3, Distribution: []float64{1, 2, 3}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(path.WithExtension(KindDistribution.String(), 3)); err != nil {
		t.Errorf("expected distribution file to exist: %v", err)
	}
	if _, err := os.Stat(path.WithExtension(KindParticles.String(), 3)); !os.IsNotExist(err) {
		t.Errorf("expected no particles file for an unpopulated field, got err=%v", err)
	}
}

func TestAppendReturnsOverflowAfterConsumerExits(t *testing.T) {
	chk.PrintTitle("AppendReturnsOverflowAfterConsumerExits")
	w, path := newTestWriter(t)

	// remove the run directory so the consumer's next os.Create fails,
	// causing it to exit and close `done`.
	if err := os.RemoveAll(path.Dir()); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		lastErr = w.Append(Entry{Timestep: 1, Distribution: []float64{1}})
		var overflow *simerr.IOBackpressureOverflow
		if errors.As(lastErr, &overflow) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected IOBackpressureOverflow once the consumer goroutine exits, last error: %v", lastErr)
}

func TestSettingsSidecarIsWritten(t *testing.T) {
	chk.PrintTitle("SettingsSidecarIsWritten")
	root := t.TempDir()
	path := NewPath(root, "test", "0.1.0", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err := path.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	settings := struct {
		NumWorkers int `toml:"num_workers"`
	}{NumWorkers: 4}
	if err := WriteSettingsSidecar(path, settings); err != nil {
		t.Fatalf("WriteSettingsSidecar: %v", err)
	}
	if _, err := os.Stat(filepath.Join(path.Dir(), path.ID()+".toml")); err != nil {
		t.Errorf("expected sidecar file: %v", err)
	}
}
