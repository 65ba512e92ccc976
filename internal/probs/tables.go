// Package probs lays out the default entropy-coding state the decode
// firmware expects in the hardware context: the VP9 probability table
// and the AV1 frame contexts.
//
// The default values themselves are not compiled in. They are read from
// a Source, keyed by the table names in Spec, and validated against
// their declared shapes before anything is copied.
package probs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"sort"
)

var (
	ErrMissingTable = errors.New("probs: missing default table")
	ErrTableSize    = errors.New("probs: default table has wrong size")
	ErrShortBuffer  = errors.New("probs: destination buffer too small")
)

// Source supplies default tables by name as little-endian bytes.
type Source interface {
	Table(name string) ([]byte, bool)
}

// MapSource is a Source backed by a map.
type MapSource map[string][]byte

func (m MapSource) Table(name string) ([]byte, bool) {
	b, ok := m[name]
	return b, ok
}

// FSSource reads each table from "<name>.bin" in a file system.
type FSSource struct {
	FS fs.FS
}

func (s FSSource) Table(name string) ([]byte, bool) {
	b, err := fs.ReadFile(s.FS, name+".bin")
	if err != nil {
		return nil, false
	}
	return b, true
}

// Spec declares the shape of one default table.
type Spec struct {
	Name     string
	Dims     []int
	ElemSize int
}

// Len returns the number of elements.
func (s Spec) Len() int {
	n := 1
	for _, d := range s.Dims {
		n *= d
	}
	return n
}

// Bytes returns the encoded size.
func (s Spec) Bytes() int {
	return s.Len() * s.ElemSize
}

// Tables is a validated set of default tables.
type Tables struct {
	specs map[string]Spec
	data  map[string][]byte
}

// Load fetches every spec from src and checks its size.
func Load(src Source, specs ...Spec) (*Tables, error) {
	t := &Tables{
		specs: make(map[string]Spec, len(specs)),
		data:  make(map[string][]byte, len(specs)),
	}
	for _, s := range specs {
		b, ok := src.Table(s.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingTable, s.Name)
		}
		if len(b) != s.Bytes() {
			return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrTableSize, s.Name, len(b), s.Bytes())
		}
		t.specs[s.Name] = s
		t.data[s.Name] = b
	}
	return t, nil
}

// Bytes returns the raw bytes of a loaded table.
func (t *Tables) Bytes(name string) []byte {
	return t.data[name]
}

// Int16s decodes a loaded table of 16-bit signed values.
func (t *Tables) Int16s(name string) []int16 {
	b := t.data[name]
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

// Synthetic returns a Source holding correctly sized tables filled with
// a deterministic ramp. It stands in for the real defaults in tests and
// in tooling that only needs the layout.
func Synthetic(specs ...Spec) MapSource {
	m := make(MapSource, len(specs))
	for _, s := range specs {
		b := make([]byte, s.Bytes())
		for i := 0; i < s.Len(); i++ {
			v := uint16(i + 1)
			switch s.ElemSize {
			case 1:
				b[i] = byte(v)
			case 2:
				binary.LittleEndian.PutUint16(b[i*2:], v&0x7fff)
			}
		}
		m[s.Name] = b
	}
	return m
}

// Names lists spec names in sorted order.
func Names(specs []Spec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	sort.Strings(names)
	return names
}

// GaussianSequence is the film grain noise table.
var GaussianSequence = Spec{Name: "gaussian_sequence", Dims: []int{2048}, ElemSize: 2}

// copyOp moves n elements from a source table into a layout field.
type copyOp struct {
	dst   string
	dstAt int
	src   string
	srcAt int
	n     int
	// slot selects the per-context slice of a table with a leading
	// context dimension.
	slot bool
}

func apply(dst []byte, l *Layout, ops []copyOp, t *Tables, slot int) error {
	es := l.ElemSize
	for _, op := range ops {
		f, ok := l.Field(op.dst)
		if !ok {
			return fmt.Errorf("probs: %s has no field %s", l.Name, op.dst)
		}
		if op.dstAt+op.n > f.Len {
			return fmt.Errorf("probs: copy into %s.%s overruns field", l.Name, op.dst)
		}
		spec, ok := t.specs[op.src]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingTable, op.src)
		}
		srcAt := op.srcAt
		if op.slot {
			srcAt += slot * spec.Len() / spec.Dims[0]
		}
		if srcAt+op.n > spec.Len() {
			return fmt.Errorf("probs: copy from %s overruns table", op.src)
		}
		d := (f.Offset + op.dstAt) * es
		s := srcAt * es
		copy(dst[d:d+op.n*es], t.data[op.src][s:s+op.n*es])
	}
	return nil
}
