// Package cmdbuf assembles the dword command streams consumed by the
// video decode engine.
//
// A Buffer is an append-only window over caller memory. A Stream writes
// decode commands into it in one of two submission styles: the unified
// queue wraps everything in an SQ envelope and an IB decode-buffer
// descriptor, the legacy ring writes each address as PKT0 register
// triplets.
package cmdbuf

import (
	"errors"
	"fmt"
)

var (
	ErrOverflow       = errors.New("cmdbuf: command buffer overflow")
	ErrUnknownCommand = errors.New("cmdbuf: unknown command")
	ErrNotStarted     = errors.New("cmdbuf: stream not started")
	ErrOutOfRange     = errors.New("cmdbuf: patch outside emitted words")
)

// Buffer is an append-only dword buffer with a hard limit.
type Buffer struct {
	words []uint32
	max   int
	cdw   int
}

// New wraps backing. The usable size is the smaller of limit and
// len(backing).
func New(backing []uint32, limit int) *Buffer {
	if limit <= 0 || limit > len(backing) {
		limit = len(backing)
	}
	return &Buffer{words: backing, max: limit}
}

// Emit appends words. Nothing is written when the words do not fit.
func (b *Buffer) Emit(words ...uint32) error {
	if b.cdw+len(words) > b.max {
		return fmt.Errorf("%w: %d+%d dwords exceeds %d", ErrOverflow, b.cdw, len(words), b.max)
	}
	copy(b.words[b.cdw:], words)
	b.cdw += len(words)
	return nil
}

// Reserve appends n zero words and returns the index of the first.
func (b *Buffer) Reserve(n int) (int, error) {
	if b.cdw+n > b.max {
		return 0, fmt.Errorf("%w: %d+%d dwords exceeds %d", ErrOverflow, b.cdw, n, b.max)
	}
	at := b.cdw
	clear(b.words[at : at+n])
	b.cdw += n
	return at, nil
}

// Patch overwrites already emitted words starting at index at. Nothing is
// written when the range reaches past the emitted words.
func (b *Buffer) Patch(at int, words ...uint32) error {
	if at < 0 || at+len(words) > b.cdw {
		return fmt.Errorf("%w: [%d,%d) of %d", ErrOutOfRange, at, at+len(words), b.cdw)
	}
	copy(b.words[at:], words)
	return nil
}

// Len returns the number of emitted dwords.
func (b *Buffer) Len() int { return b.cdw }

// Cap returns the dword limit.
func (b *Buffer) Cap() int { return b.max }

// Words returns the emitted dwords. The slice aliases the backing memory.
func (b *Buffer) Words() []uint32 { return b.words[:b.cdw] }
