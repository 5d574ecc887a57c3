package output

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/fkjogu/stochasticsampling/geo"
)

// Kind tags which field of an Entry a Record carries.
type Kind uint8

const (
	KindDistribution Kind = iota
	KindFlowField
	KindMagneticField
	KindParticles
	KindSnapshot
)

func (k Kind) String() string {
	switch k {
	case KindDistribution:
		return "distribution"
	case KindFlowField:
		return "flowfield"
	case KindMagneticField:
		return "magneticfield"
	case KindParticles:
		return "particles"
	case KindSnapshot:
		return "snapshot"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Entry is one timestep's worth of output; only the fields populated by
// the configured cadence are non-nil (spec.md §6's OutputEntry, with an
// Option-typed field per output kind).
type Entry struct {
	Timestep      int
	Distribution  []float64
	FlowField     [][3]float64
	MagneticField [][3]float64
	Particles     []geo.Particle
}

// Snapshot is the full resumable state: the particle ensemble, the
// marshaled PRNG state of every worker strand (in worker-index order,
// from rngpool.Pool.State), the run seed, and the timestep it was taken
// at.
type Snapshot struct {
	Timestep  int
	Seed      uint64
	RNGState  [][]byte
	Particles []geo.Particle
}

// Record is the self-describing unit the writer persists: a kind tag, the
// timestep it belongs to, and its gob-encoded payload.
type Record struct {
	Kind     Kind
	Timestep int
	Payload  []byte
}

func newRecord(kind Kind, timestep int, payload interface{}) (Record, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return Record{}, fmt.Errorf("encode %s record: %w", kind, err)
	}
	return Record{Kind: kind, Timestep: timestep, Payload: buf.Bytes()}, nil
}

// EncodeRecord writes r as a length-prefixed, kind-tagged frame:
// [4-byte payload length][1-byte kind][8-byte timestep][payload].
func EncodeRecord(w io.Writer, r Record) error {
	header := make([]byte, 13)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(r.Payload)))
	header[4] = byte(r.Kind)
	binary.LittleEndian.PutUint64(header[5:13], uint64(r.Timestep))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(r.Payload)
	return err
}

// DecodeRecord reads back one frame written by EncodeRecord.
func DecodeRecord(r io.Reader) (Record, error) {
	header := make([]byte, 13)
	if _, err := io.ReadFull(r, header); err != nil {
		return Record{}, err
	}
	length := binary.LittleEndian.Uint32(header[0:4])
	kind := Kind(header[4])
	timestep := int(binary.LittleEndian.Uint64(header[5:13]))
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Record{}, err
	}
	return Record{Kind: kind, Timestep: timestep, Payload: payload}, nil
}

// DecodePayload gob-decodes a record's payload into dst (a pointer to the
// kind-appropriate type: *[]float64, *[][3]float64, *[]geo.Particle, or
// *Snapshot).
func DecodePayload(r Record, dst interface{}) error {
	return gob.NewDecoder(bytes.NewReader(r.Payload)).Decode(dst)
}
