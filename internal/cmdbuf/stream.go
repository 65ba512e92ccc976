package cmdbuf

import (
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
)

// Style selects how commands reach the engine.
type Style int

const (
	// Legacy writes register triplets to the decode ring.
	Legacy Style = iota
	// Unified wraps the commands in an SQ envelope for the unified queue.
	Unified
)

func (s Style) String() string {
	switch s {
	case Legacy:
		return "legacy"
	case Unified:
		return "unified"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// PKT0 encodes a type-0 register write header.
func PKT0(reg, count uint32) uint32 {
	return abi.PKT0(reg, count)
}

// Stream tracks one submission being assembled into a Buffer.
type Stream struct {
	b     *Buffer
	style Style
	regs  abi.Registers

	started bool
	sq      int // index of the SQ package size word
	db      int // index of the decode buffer descriptor
	desc    abi.DecodeBuffer
	flags   uint32
}

// NewStream returns a stream writing into b.
func NewStream(b *Buffer, style Style, regs abi.Registers) *Stream {
	return &Stream{b: b, style: style, regs: regs, sq: -1, db: -1}
}

// Begin opens the submission. On the unified queue it writes the SQ
// header and reserves the IB decode-buffer descriptor.
func (s *Stream) Begin() error {
	if s.started {
		return nil
	}
	if s.style == Unified {
		if err := s.b.Emit(abi.EngineInfoSize, abi.EngineInfo, abi.EngineTypeDecode, 0); err != nil {
			return err
		}
		s.sq = s.b.Len() - 1

		pkg := abi.Package{
			PackageSize: uint32(abi.SizeDecodeBuffer + abi.SizePackage),
			PackageType: abi.PackageTypeDecodeBuffer,
		}
		if err := s.b.Emit(abi.Words(pkg)...); err != nil {
			return err
		}
		at, err := s.b.Reserve(abi.SizeDecodeBuffer / 4)
		if err != nil {
			return err
		}
		s.db = at
	}
	s.started = true
	return nil
}

// Send registers a sub-buffer address with the engine. On the unified
// queue the flag bit is sticky and the address of a repeated command
// replaces the previous one.
func (s *Stream) Send(cmd uint32, va uint64) error {
	if !s.started {
		return ErrNotStarted
	}
	if s.style == Legacy {
		return s.b.Emit(
			PKT0(s.regs.Data0>>2, 0), uint32(va),
			PKT0(s.regs.Data1>>2, 0), uint32(va>>32),
			PKT0(s.regs.Cmd>>2, 0), cmd<<1,
		)
	}

	hi, lo := uint32(va>>32), uint32(va)
	d := &s.desc
	switch cmd {
	case abi.CmdMsgBuffer:
		s.flags |= abi.CmdbufFlagMsgBuffer
		d.MsgBufferAddressHi, d.MsgBufferAddressLo = hi, lo
	case abi.CmdDPBBuffer:
		s.flags |= abi.CmdbufFlagDPBBuffer
		d.DpbBufferAddressHi, d.DpbBufferAddressLo = hi, lo
	case abi.CmdDecodingTarget:
		s.flags |= abi.CmdbufFlagDecodingTarget
		d.TargetBufferAddressHi, d.TargetBufferAddressLo = hi, lo
	case abi.CmdFeedbackBuffer:
		s.flags |= abi.CmdbufFlagFeedbackBuffer
		d.FeedbackBufferAddressHi, d.FeedbackBufferAddressLo = hi, lo
	case abi.CmdProbTblBuffer:
		s.flags |= abi.CmdbufFlagProbTblBuffer
		d.ProbTblBufferAddressHi, d.ProbTblBufferAddressLo = hi, lo
	case abi.CmdSessionContext:
		s.flags |= abi.CmdbufFlagSessionContext
		d.SessionContexBufferAddressHi, d.SessionContexBufferAddressLo = hi, lo
	case abi.CmdBitstreamBuffer:
		s.flags |= abi.CmdbufFlagBitstreamBuffer
		d.BitstreamBufferAddressHi, d.BitstreamBufferAddressLo = hi, lo
	case abi.CmdITScalingTable:
		s.flags |= abi.CmdbufFlagITScalingBuffer
		d.ItSclrTableBufferAddressHi, d.ItSclrTableBufferAddressLo = hi, lo
	case abi.CmdContextBuffer:
		s.flags |= abi.CmdbufFlagContextBuffer
		d.ContextBufferAddressHi, d.ContextBufferAddressLo = hi, lo
	case abi.CmdSubsampleSizeInfo:
		s.flags |= abi.CmdbufFlagSubsampleSizeInfo
		d.CencSizeInfoBufferAddressHi, d.CencSizeInfoBufferAddressLo = hi, lo
	default:
		return fmt.Errorf("%w: %#x", ErrUnknownCommand, cmd)
	}
	return nil
}

// AddFlags ORs extra bits into the valid-buffer mask.
func (s *Stream) AddFlags(f uint32) { s.flags |= f }

// Flags returns the accumulated valid-buffer mask.
func (s *Stream) Flags() uint32 { return s.flags }

// Descriptor returns the decode-buffer descriptor as assembled so far.
func (s *Stream) Descriptor() abi.DecodeBuffer {
	d := s.desc
	d.ValidBufFlag = s.flags
	return d
}

// AppendPackage writes an IB package of the given type. The package
// size covers the two header words and the payload.
func (s *Stream) AppendPackage(typ uint32, payload []uint32) error {
	if !s.started {
		return ErrNotStarted
	}
	size := uint32(abi.SizePackage + 4*len(payload))
	if err := s.b.Emit(size, typ); err != nil {
		return err
	}
	return s.b.Emit(payload...)
}

// Finish closes the submission and returns the total dword count. On the
// unified queue it stores the descriptor and patches the SQ package size.
// On the legacy ring a non-zero cntl register is kicked with 1.
func (s *Stream) Finish(cntl uint32) (int, error) {
	if !s.started {
		return 0, ErrNotStarted
	}
	if s.style == Unified {
		if err := s.b.Patch(s.db, abi.Words(s.Descriptor())...); err != nil {
			return 0, err
		}
		if err := s.b.Patch(s.sq, uint32((s.b.Len()-s.sq+3)*4)); err != nil {
			return 0, err
		}
		return s.b.Len(), nil
	}
	if cntl != 0 {
		if err := s.b.Emit(PKT0(cntl>>2, 0), 1); err != nil {
			return 0, err
		}
	}
	return s.b.Len(), nil
}
