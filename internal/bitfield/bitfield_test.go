package bitfield

import "testing"

var testTable = Table{
	Name: "test",
	Fields: []Field{
		{"a", 0, 1},
		{"b", 1, 2},
		{"c", 4, 4},
		{"top", 31, 1},
	},
}

func TestWordSetGet(t *testing.T) {
	t.Parallel()
	w := testTable.New()
	w.SetBool("a", true).Set("b", 3).Set("c", 0xa).SetBool("top", true)

	if got, want := w.Value(), uint32(0x800000a7); got != want {
		t.Errorf("value: got %#x, want %#x", got, want)
	}
	if got := w.Get("c"); got != 0xa {
		t.Errorf("c: got %#x, want 0xa", got)
	}
}

func TestWordMasksToWidth(t *testing.T) {
	t.Parallel()
	w := testTable.New()
	w.Set("b", 0xff)
	if got, want := w.Value(), uint32(0x6); got != want {
		t.Errorf("value: got %#x, want %#x", got, want)
	}
	w.Set("b", 1)
	if got, want := w.Value(), uint32(0x2); got != want {
		t.Errorf("overwrite: got %#x, want %#x", got, want)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()
	if err := testTable.Check(); err != nil {
		t.Fatalf("valid table: %v", err)
	}

	overlap := Table{Name: "bad", Fields: []Field{{"x", 0, 2}, {"y", 1, 1}}}
	if err := overlap.Check(); err == nil {
		t.Error("expected overlap error")
	}

	outside := Table{Name: "bad", Fields: []Field{{"x", 31, 2}}}
	if err := outside.Check(); err == nil {
		t.Error("expected range error")
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	if got, want := testTable.Describe(0x80000025), "a|b=2|c=2|top"; got != want {
		t.Errorf("describe: got %q, want %q", got, want)
	}
	if got := testTable.Describe(0); got != "" {
		t.Errorf("describe zero: got %q", got)
	}
}

func TestUnknownFieldPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	testTable.New().Set("missing", 1)
}
