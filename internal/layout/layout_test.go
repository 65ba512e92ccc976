package layout

import (
	"strings"
	"testing"
)

func TestBuilderOffsets(t *testing.T) {
	t.Parallel()
	b := NewBuilder(256)
	if got := b.Add("decode", 184); got != 256 {
		t.Errorf("decode: got %d, want 256", got)
	}
	if got := b.AddAligned("its", 100, 256); got != 512 {
		t.Errorf("its: got %d, want 512", got)
	}
	b.Align(256)
	if got := b.Offset(); got != 768 {
		t.Errorf("cursor: got %d, want 768", got)
	}

	l := b.Finish()
	if l.Size != 768 {
		t.Errorf("size: got %d, want 768", l.Size)
	}
	if got := l.Offset("its"); got != 512 {
		t.Errorf("offset(its): got %d", got)
	}
	if got := l.Offset("missing"); got != -1 {
		t.Errorf("offset(missing): got %d, want -1", got)
	}
	if err := l.Check(); err != nil {
		t.Errorf("check: %v", err)
	}
}

func TestCheckOverlap(t *testing.T) {
	t.Parallel()
	l := Layout{
		Regions: []Region{{"a", 0, 16}, {"b", 8, 8}},
		Size:    16,
	}
	if err := l.Check(); err == nil {
		t.Error("expected overlap error")
	}
	l = Layout{Regions: []Region{{"a", 0, 32}}, Size: 16}
	if err := l.Check(); err == nil {
		t.Error("expected size error")
	}
}

func TestAlign(t *testing.T) {
	t.Parallel()
	tests := []struct{ v, a, want int }{
		{0, 256, 0},
		{1, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
		{7, 1, 7},
		{7, 0, 7},
	}
	for _, tt := range tests {
		if got := Align(tt.v, tt.a); got != tt.want {
			t.Errorf("Align(%d, %d): got %d, want %d", tt.v, tt.a, got, tt.want)
		}
	}
	if got := AlignU32(1000, 2048); got != 2048 {
		t.Errorf("AlignU32: got %d", got)
	}
}

func TestRegionSlice(t *testing.T) {
	t.Parallel()
	buf := make([]byte, 32)
	r := Region{Name: "x", Offset: 4, Size: 8}
	s := r.Slice(buf)
	s[0] = 0xaa
	if buf[4] != 0xaa || len(s) != 8 {
		t.Errorf("slice does not alias region: len=%d buf[4]=%#x", len(s), buf[4])
	}
}

func TestString(t *testing.T) {
	t.Parallel()
	b := NewBuilder(0)
	b.Add("header", 40)
	s := b.Finish().String()
	if !strings.Contains(s, "header") || !strings.Contains(s, "total") {
		t.Errorf("string: %q", s)
	}
}
