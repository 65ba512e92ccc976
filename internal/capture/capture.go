// Package capture stores decode submissions in a compact trace file so
// they can be inspected or replayed without hardware.
//
// A capture is a sequence of records. Every record is framed as
// [record_type (varint)] [length (varint)] [payload]. The first record is
// always a header; the rest are submissions in build order.
package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"
)

// Record type IDs.
const (
	RecordHeader     uint64 = 0x01
	RecordSubmission uint64 = 0x02
)

// FormatVersion is written into every header.
const FormatVersion uint64 = 1

// MaxRecordSize bounds a single record payload.
const MaxRecordSize = 16 << 20

// Kind is the submission type of a record.
type Kind uint64

const (
	KindCreate Kind = iota + 1
	KindDecode
	KindDestroy
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindDecode:
		return "decode"
	case KindDestroy:
		return "destroy"
	default:
		return fmt.Sprintf("Kind(%d)", uint64(k))
	}
}

// Header identifies the session a capture was taken from.
type Header struct {
	Format   uint64
	Hardware uint32
	Codec    string
	Handle   uint32
}

// Submission is one command buffer and the embedded buffer it points at.
type Submission struct {
	Kind     Kind
	Frame    uint64
	Words    []uint32
	Embedded []byte
}

// Writer appends records to an io.Writer. It is not safe for concurrent
// use.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter writes the header record and returns a Writer for the
// submissions that follow it.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	cw := &Writer{w: w}
	var p []byte
	p = quicvarint.Append(p, FormatVersion)
	p = quicvarint.Append(p, uint64(h.Hardware))
	p = appendBytes(p, []byte(h.Codec))
	p = quicvarint.Append(p, uint64(h.Handle))
	if err := cw.record(RecordHeader, p); err != nil {
		return nil, err
	}
	return cw, nil
}

// Write appends one submission record.
func (w *Writer) Write(s Submission) error {
	p := w.buf[:0]
	p = quicvarint.Append(p, uint64(s.Kind))
	p = quicvarint.Append(p, s.Frame)
	p = quicvarint.Append(p, uint64(len(s.Words)))
	for _, word := range s.Words {
		p = binary.LittleEndian.AppendUint32(p, word)
	}
	p = appendBytes(p, s.Embedded)
	w.buf = p
	return w.record(RecordSubmission, p)
}

// record writes a framed record as a single Write call.
func (w *Writer) record(typ uint64, payload []byte) error {
	if len(payload) > MaxRecordSize {
		return fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(payload))
	}
	buf := make([]byte, 0, quicvarint.Len(typ)+quicvarint.Len(uint64(len(payload)))+len(payload))
	buf = quicvarint.Append(buf, typ)
	buf = quicvarint.Append(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	_, err := w.w.Write(buf)
	return err
}

func appendBytes(b, v []byte) []byte {
	b = quicvarint.Append(b, uint64(len(v)))
	return append(b, v...)
}

// Reader reads records written by a Writer.
type Reader struct {
	r      *bufio.Reader
	Header Header
}

// NewReader reads and validates the header record.
func NewReader(r io.Reader) (*Reader, error) {
	cr := &Reader{r: bufio.NewReader(r)}
	typ, payload, err := cr.record()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty capture", ErrBadCapture)
		}
		return nil, err
	}
	if typ != RecordHeader {
		return nil, fmt.Errorf("%w: first record is %#x, want header", ErrBadCapture, typ)
	}

	p := newPayload(payload)
	if cr.Header.Format, err = p.varint(); err != nil {
		return nil, &ParseError{Field: "format", Err: err}
	}
	if cr.Header.Format != FormatVersion {
		return nil, fmt.Errorf("%w: format %d", ErrBadCapture, cr.Header.Format)
	}
	hw, err := p.varint()
	if err != nil {
		return nil, &ParseError{Field: "hardware", Err: err}
	}
	cr.Header.Hardware = uint32(hw)
	codec, err := p.bytes()
	if err != nil {
		return nil, &ParseError{Field: "codec", Err: err}
	}
	cr.Header.Codec = string(codec)
	handle, err := p.varint()
	if err != nil {
		return nil, &ParseError{Field: "handle", Err: err}
	}
	cr.Header.Handle = uint32(handle)
	return cr, nil
}

// Next returns the next submission. It returns io.EOF after the last
// record. Unknown record types are skipped.
func (r *Reader) Next() (Submission, error) {
	for {
		typ, payload, err := r.record()
		if err != nil {
			return Submission{}, err
		}
		if typ == RecordSubmission {
			return parseSubmission(payload)
		}
	}
}

func parseSubmission(payload []byte) (Submission, error) {
	var s Submission
	p := newPayload(payload)

	kind, err := p.varint()
	if err != nil {
		return s, &ParseError{Field: "kind", Err: err}
	}
	s.Kind = Kind(kind)
	if s.Frame, err = p.varint(); err != nil {
		return s, &ParseError{Field: "frame", Err: err}
	}

	n, err := p.varint()
	if err != nil {
		return s, &ParseError{Field: "num_words", Err: err}
	}
	raw, err := p.take(n * 4)
	if err != nil {
		return s, &ParseError{Field: "words", Err: err}
	}
	s.Words = make([]uint32, n)
	for i := range s.Words {
		s.Words[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}

	emb, err := p.bytes()
	if err != nil {
		return s, &ParseError{Field: "embedded", Err: err}
	}
	s.Embedded = append([]byte(nil), emb...)
	return s, nil
}

// record reads one framed record. A clean end of input before the type
// byte returns io.EOF.
func (r *Reader) record() (uint64, []byte, error) {
	typ, err := quicvarint.Read(r.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("read record type: %w", err)
	}
	length, err := quicvarint.Read(r.r)
	if err != nil {
		return 0, nil, fmt.Errorf("read record length: %w", unexpected(err))
	}
	if length > MaxRecordSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return 0, nil, fmt.Errorf("read record payload: %w", unexpected(err))
	}
	return typ, payload, nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// payload walks the fields of a record.
type payload struct {
	b   []byte
	pos int
}

func newPayload(b []byte) *payload { return &payload{b: b} }

func (p *payload) varint() (uint64, error) {
	v, n, err := quicvarint.Parse(p.b[p.pos:])
	if err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	p.pos += n
	return v, nil
}

func (p *payload) take(n uint64) ([]byte, error) {
	if n > uint64(len(p.b)-p.pos) {
		return nil, io.ErrUnexpectedEOF
	}
	b := p.b[p.pos : p.pos+int(n)]
	p.pos += int(n)
	return b, nil
}

func (p *payload) bytes() ([]byte, error) {
	n, err := p.varint()
	if err != nil {
		return nil, err
	}
	return p.take(n)
}
