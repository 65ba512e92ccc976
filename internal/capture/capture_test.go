package capture

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/quic-go/quic-go/quicvarint"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	h := Header{Hardware: 0x040002, Codec: "hevc", Handle: 0x12345678}
	subs := []Submission{
		{Kind: KindCreate, Words: []uint32{0x30, 0x00000001, 0x2}, Embedded: []byte{1, 2, 3, 4}},
		{Kind: KindDecode, Frame: 1, Words: []uint32{0xdeadbeef, 0, 0xffffffff}, Embedded: bytes.Repeat([]byte{0xa5}, 3000)},
		{Kind: KindDecode, Frame: 2},
		{Kind: KindDestroy, Words: []uint32{7}},
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range subs {
		if err := w.Write(s); err != nil {
			t.Fatal(err)
		}
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if r.Header.Hardware != h.Hardware || r.Header.Codec != h.Codec || r.Header.Handle != h.Handle {
		t.Fatalf("header = %+v, want %+v", r.Header, h)
	}
	if r.Header.Format != FormatVersion {
		t.Errorf("format = %d, want %d", r.Header.Format, FormatVersion)
	}

	for i, want := range subs {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if got.Kind != want.Kind || got.Frame != want.Frame {
			t.Errorf("record %d: kind/frame = %s/%d, want %s/%d", i, got.Kind, got.Frame, want.Kind, want.Frame)
		}
		if len(got.Words) != len(want.Words) {
			t.Fatalf("record %d: %d words, want %d", i, len(got.Words), len(want.Words))
		}
		for j := range want.Words {
			if got.Words[j] != want.Words[j] {
				t.Errorf("record %d word %d = %#x, want %#x", i, j, got.Words[j], want.Words[j])
			}
		}
		if !bytes.Equal(got.Embedded, want.Embedded) {
			t.Errorf("record %d: embedded bytes differ", i)
		}
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("after last record: got %v, want io.EOF", err)
	}
}

func TestRecordFraming(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Header{Codec: "av1"})
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := w.Write(Submission{Kind: KindDestroy, Words: []uint32{0x01020304}}); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	typ, n, err := quicvarint.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if typ != RecordSubmission {
		t.Fatalf("record type = %#x, want %#x", typ, RecordSubmission)
	}
	length, m, err := quicvarint.Parse(data[n:])
	if err != nil {
		t.Fatal(err)
	}
	if int(length) != len(data)-n-m {
		t.Fatalf("length = %d, payload is %d bytes", length, len(data)-n-m)
	}
	// kind, frame, word count, one LE word, empty embedded
	want := []byte{0x03, 0x00, 0x01, 0x04, 0x03, 0x02, 0x01, 0x00}
	if !bytes.Equal(data[n+m:], want) {
		t.Errorf("payload = % x, want % x", data[n+m:], want)
	}
}

func TestSkipsUnknownRecords(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Header{Codec: "vp9"})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.record(0x7f, []byte("note")); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(Submission{Kind: KindDecode, Frame: 9}); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if s.Frame != 9 {
		t.Errorf("frame = %d, want 9", s.Frame)
	}
}

func TestEmptyCapture(t *testing.T) {
	t.Parallel()
	_, err := NewReader(bytes.NewReader(nil))
	if !errors.Is(err, ErrBadCapture) {
		t.Fatalf("got %v, want ErrBadCapture", err)
	}
}

func TestMissingHeader(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := &Writer{w: &buf}
	if err := w.Write(Submission{Kind: KindDecode}); err != nil {
		t.Fatal(err)
	}
	_, err := NewReader(&buf)
	if !errors.Is(err, ErrBadCapture) {
		t.Fatalf("got %v, want ErrBadCapture", err)
	}
}

func TestTruncatedPayload(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Header{Codec: "avc"})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(Submission{Kind: KindDecode, Words: []uint32{1, 2, 3}}); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()[:buf.Len()-2]

	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestShortWordTable(t *testing.T) {
	t.Parallel()
	var p []byte
	p = quicvarint.Append(p, uint64(KindDecode))
	p = quicvarint.Append(p, 0)
	p = quicvarint.Append(p, 4)
	p = append(p, 1, 2, 3)

	_, err := parseSubmission(p)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *ParseError", err)
	}
	if pe.Field != "words" {
		t.Errorf("field = %q, want words", pe.Field)
	}
}

func TestRecordTooLarge(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := &Writer{w: &buf}
	err := w.Write(Submission{Kind: KindDecode, Embedded: make([]byte, MaxRecordSize+1)})
	if !errors.Is(err, ErrRecordTooLarge) {
		t.Fatalf("got %v, want ErrRecordTooLarge", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for a rejected record", buf.Len())
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	for k, want := range map[Kind]string{KindCreate: "create", KindDecode: "decode", KindDestroy: "destroy", 9: "Kind(9)"} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", uint64(k), got, want)
		}
	}
}
