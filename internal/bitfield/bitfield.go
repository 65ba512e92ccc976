// Package bitfield packs named flag fields into 32-bit firmware words.
//
// A Table declares every field of one word as {name, shift, width}.
// Values are masked to their width before they are shifted into place,
// so a field can never spill into its neighbour.
package bitfield

import (
	"fmt"
	"strings"
)

// Field is one named bit range of a word.
type Field struct {
	Name  string
	Shift uint
	Width uint
}

// Bit declares a single-bit field.
func Bit(name string, shift uint) Field {
	return Field{Name: name, Shift: shift, Width: 1}
}

// Bits declares a multi-bit field.
func Bits(name string, shift, width uint) Field {
	return Field{Name: name, Shift: shift, Width: width}
}

func (f Field) mask() uint32 {
	if f.Width >= 32 {
		return ^uint32(0)
	}
	return (uint32(1)<<f.Width - 1) << f.Shift
}

// Table is the declared layout of one flag word.
type Table struct {
	Name   string
	Fields []Field
}

// Word accumulates field values for a Table.
type Word struct {
	t *Table
	v uint32
}

// New returns an empty word for the table.
func (t *Table) New() *Word {
	return &Word{t: t}
}

// Field returns the declared field by name. It panics on an unknown
// name, which is a programming error in the table declaration.
func (t *Table) Field(name string) Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	panic(fmt.Sprintf("bitfield: %s has no field %q", t.Name, name))
}

// Check reports overlapping or out-of-range fields.
func (t *Table) Check() error {
	var used uint32
	for _, f := range t.Fields {
		if f.Width == 0 || f.Shift+f.Width > 32 {
			return fmt.Errorf("bitfield: %s.%s: bits %d+%d outside word", t.Name, f.Name, f.Shift, f.Width)
		}
		if used&f.mask() != 0 {
			return fmt.Errorf("bitfield: %s.%s overlaps another field", t.Name, f.Name)
		}
		used |= f.mask()
	}
	return nil
}

// Describe lists the non-zero fields of v as name=value pairs.
func (t *Table) Describe(v uint32) string {
	var parts []string
	for _, f := range t.Fields {
		x := (v & f.mask()) >> f.Shift
		if x == 0 {
			continue
		}
		if f.Width == 1 {
			parts = append(parts, f.Name)
		} else {
			parts = append(parts, fmt.Sprintf("%s=%d", f.Name, x))
		}
	}
	return strings.Join(parts, "|")
}

// Set stores v into the named field.
func (w *Word) Set(name string, v uint32) *Word {
	f := w.t.Field(name)
	w.v = w.v&^f.mask() | (v<<f.Shift)&f.mask()
	return w
}

// SetBool stores 1 or 0 into the named field.
func (w *Word) SetBool(name string, b bool) *Word {
	if b {
		return w.Set(name, 1)
	}
	return w.Set(name, 0)
}

// Get returns the value of the named field.
func (w *Word) Get(name string) uint32 {
	f := w.t.Field(name)
	return (w.v & f.mask()) >> f.Shift
}

// Value returns the packed word.
func (w *Word) Value() uint32 {
	return w.v
}

// Bool converts a flag to 0 or 1.
func Bool(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
