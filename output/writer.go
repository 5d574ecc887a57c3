// Package output implements the binary, self-describing output stream and
// TOML settings sidecar: a bounded-channel async Writer with a single
// consumer goroutine, numbered per-dump files, and blocking Append with a
// backpressure-overflow escape hatch once the consumer has exited.
package output

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fkjogu/stochasticsampling/simerr"
)

// Writer owns a bounded queue of Records and a single consumer goroutine
// that persists each one to its own numbered file under path.
type Writer struct {
	path  Path
	queue chan Record
	done  chan struct{}

	mu    sync.Mutex
	fatal error

	wg sync.WaitGroup
}

// NewWriter creates the run's output directory and starts the consumer
// goroutine. queueDepth bounds the number of Records buffered before
// Append blocks.
func NewWriter(path Path, queueDepth int) (*Writer, error) {
	if err := path.Create(); err != nil {
		return nil, &simerr.InitializationFailure{Reason: "cannot create output directory", Cause: err}
	}
	w := &Writer{
		path:  path,
		queue: make(chan Record, queueDepth),
		done:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Writer) run() {
	defer w.wg.Done()
	defer close(w.done)
	for rec := range w.queue {
		if err := w.persist(rec); err != nil {
			w.mu.Lock()
			w.fatal = err
			w.mu.Unlock()
			return
		}
	}
}

func (w *Writer) persist(rec Record) error {
	path := w.path.WithExtension(rec.Kind.String(), rec.Timestep)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return EncodeRecord(f, rec)
}

// send enqueues rec, blocking while the queue is full, and returning
// IOBackpressureOverflow instead of blocking forever if the consumer
// goroutine has already exited (e.g. after a prior write failure).
func (w *Writer) send(rec Record) error {
	select {
	case w.queue <- rec:
		return nil
	case <-w.done:
		w.mu.Lock()
		cause := w.fatal
		w.mu.Unlock()
		return &simerr.IOBackpressureOverflow{Cause: cause}
	}
}

// Append encodes and enqueues every populated field of e as its own Record.
func (w *Writer) Append(e Entry) error {
	if e.Distribution != nil {
		rec, err := newRecord(KindDistribution, e.Timestep, e.Distribution)
		if err != nil {
			return err
		}
		if err := w.send(rec); err != nil {
			return err
		}
	}
	if e.FlowField != nil {
		rec, err := newRecord(KindFlowField, e.Timestep, e.FlowField)
		if err != nil {
			return err
		}
		if err := w.send(rec); err != nil {
			return err
		}
	}
	if e.MagneticField != nil {
		rec, err := newRecord(KindMagneticField, e.Timestep, e.MagneticField)
		if err != nil {
			return err
		}
		if err := w.send(rec); err != nil {
			return err
		}
	}
	if e.Particles != nil {
		rec, err := newRecord(KindParticles, e.Timestep, e.Particles)
		if err != nil {
			return err
		}
		if err := w.send(rec); err != nil {
			return err
		}
	}
	return nil
}

// AppendSnapshot encodes and enqueues a resumable-state checkpoint.
func (w *Writer) AppendSnapshot(s Snapshot) error {
	rec, err := newRecord(KindSnapshot, s.Timestep, s)
	if err != nil {
		return err
	}
	return w.send(rec)
}

// Close stops accepting new Records and waits for the consumer goroutine
// to drain the queue and exit.
func (w *Writer) Close() error {
	close(w.queue)
	w.wg.Wait()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fatal
}

// WriteSettingsSidecar TOML-encodes settings to the run's sidecar file,
// alongside the binary output files.
func WriteSettingsSidecar(path Path, settings interface{}) error {
	f, err := os.Create(path.SettingsSidecar())
	if err != nil {
		return &simerr.InitializationFailure{Reason: "cannot create settings sidecar", Cause: err}
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(settings)
}
