// Package layout places named regions inside a flat buffer.
//
// A Builder is a cursor that hands out offsets in order. Regions may be
// packed or aligned; the finished Layout is immutable and can be asked
// for any region by name.
package layout

import (
	"fmt"
	"strings"
)

// Region is one named slice of a buffer.
type Region struct {
	Name   string
	Offset int
	Size   int
}

// End returns the first byte past the region.
func (r Region) End() int { return r.Offset + r.Size }

// Slice returns the region's bytes within buf.
func (r Region) Slice(buf []byte) []byte {
	return buf[r.Offset:r.End()]
}

// Builder allocates regions front to back.
type Builder struct {
	off     int
	regions []Region
}

// NewBuilder starts a layout at offset start.
func NewBuilder(start int) *Builder {
	return &Builder{off: start}
}

// Add places a packed region at the cursor and returns its offset.
func (b *Builder) Add(name string, size int) int {
	at := b.off
	b.regions = append(b.regions, Region{Name: name, Offset: at, Size: size})
	b.off += size
	return at
}

// AddAligned aligns the cursor to align bytes, then places a region.
func (b *Builder) AddAligned(name string, size, align int) int {
	b.Align(align)
	return b.Add(name, size)
}

// Skip advances the cursor without naming the bytes.
func (b *Builder) Skip(n int) {
	b.off += n
}

// Align rounds the cursor up to a multiple of align.
func (b *Builder) Align(align int) {
	b.off = Align(b.off, align)
}

// Offset returns the current cursor.
func (b *Builder) Offset() int { return b.off }

// Finish returns the layout built so far.
func (b *Builder) Finish() Layout {
	return Layout{Regions: append([]Region(nil), b.regions...), Size: b.off}
}

// Layout is a finished set of regions.
type Layout struct {
	Regions []Region
	Size    int
}

// Region looks a region up by name.
func (l Layout) Region(name string) (Region, bool) {
	for _, r := range l.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// Offset returns the offset of the named region, or -1.
func (l Layout) Offset(name string) int {
	if r, ok := l.Region(name); ok {
		return r.Offset
	}
	return -1
}

// Check verifies that regions do not overlap, appear in increasing
// order and fit inside the layout.
func (l Layout) Check() error {
	prev := 0
	for i, r := range l.Regions {
		if r.Size < 0 {
			return fmt.Errorf("layout: region %q has negative size", r.Name)
		}
		if i > 0 && r.Offset < prev {
			return fmt.Errorf("layout: region %q at %d overlaps previous ending at %d", r.Name, r.Offset, prev)
		}
		prev = r.End()
	}
	if prev > l.Size {
		return fmt.Errorf("layout: regions end at %d past size %d", prev, l.Size)
	}
	return nil
}

func (l Layout) String() string {
	var sb strings.Builder
	for _, r := range l.Regions {
		fmt.Fprintf(&sb, "%-12s %#08x +%d\n", r.Name, r.Offset, r.Size)
	}
	fmt.Fprintf(&sb, "%-12s %#08x", "total", l.Size)
	return sb.String()
}

// Align rounds v up to a multiple of a. a must be a power of two.
func Align(v, a int) int {
	if a <= 1 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}

// AlignU32 is Align for unsigned sizes.
func AlignU32(v, a uint32) uint32 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}
