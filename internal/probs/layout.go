package probs

// Field is one array inside a context layout. Offset and Len count
// elements, not bytes.
type Field struct {
	Name   string
	Dims   []int
	Offset int
	Len    int
}

// Layout is a packed sequence of fixed-shape arrays.
type Layout struct {
	Name     string
	ElemSize int
	Fields   []Field

	index map[string]int
	elems int
}

type def struct {
	name string
	dims []int
}

func newLayout(name string, elemSize int, defs []def) *Layout {
	l := &Layout{Name: name, ElemSize: elemSize, index: make(map[string]int, len(defs))}
	for _, d := range defs {
		n := 1
		for _, x := range d.dims {
			n *= x
		}
		l.index[d.name] = len(l.Fields)
		l.Fields = append(l.Fields, Field{Name: d.name, Dims: d.dims, Offset: l.elems, Len: n})
		l.elems += n
	}
	return l
}

// Field looks a field up by name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.Fields[i], true
}

// Bytes returns the packed size of the layout.
func (l *Layout) Bytes() int {
	return l.elems * l.ElemSize
}

// ByteOffset returns the byte offset of a field, or -1.
func (l *Layout) ByteOffset(name string) int {
	f, ok := l.Field(name)
	if !ok {
		return -1
	}
	return f.Offset * l.ElemSize
}
