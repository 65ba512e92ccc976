package vcn

import (
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
)

// streamType maps a codec to the firmware stream type.
func streamType(c Codec) uint32 {
	switch c {
	case CodecAVC:
		return abi.StreamH264Perf
	case CodecHEVC:
		return abi.StreamH265
	case CodecVP9:
		return abi.StreamVP9
	case CodecAV1:
		return abi.StreamAV1
	case CodecMPEG2:
		return abi.StreamMPEG2
	case CodecVC1:
		return abi.StreamVC1
	}
	return 0
}

// BuildCreate writes the CREATE message into cmd.Embedded and the
// commands that submit it into cmd.CmdBuffer.
func (d *Decoder) BuildCreate(cmd *CreateCmd) error {
	need := abi.SizeHeader + abi.SizeCreate
	if len(cmd.Embedded) < need {
		return stageErr("create", fmt.Errorf("%w: embedded buffer is %d bytes, need %d", ErrBufferTooSmall, len(cmd.Embedded), need))
	}

	hdr := abi.Header{
		HeaderSize:   uint32(abi.SizeHeader),
		TotalSize:    uint32(need),
		NumBuffers:   1,
		MsgType:      abi.MsgCreate,
		StreamHandle: d.handle,
		Index: abi.Index{
			MessageID: abi.MessageCreate,
			Offset:    uint32(abi.SizeHeader),
			Size:      uint32(abi.SizeCreate),
		},
	}
	create := abi.Create{
		StreamType:      streamType(d.params.Codec),
		WidthInSamples:  d.params.MaxWidth,
		HeightInSamples: d.params.MaxHeight,
	}
	if _, err := abi.Put(cmd.Embedded, 0, hdr); err != nil {
		return stageErr("create", err)
	}
	if _, err := abi.Put(cmd.Embedded, abi.SizeHeader, create); err != nil {
		return stageErr("create", err)
	}

	s, err := d.stream(cmd.CmdBuffer, MaxCreateDwords)
	if err != nil {
		return stageErr("create", err)
	}
	if err := s.Send(abi.CmdSessionContext, cmd.SessionVA); err != nil {
		return stageErr("create", cmdErr(err))
	}
	if err := s.Send(abi.CmdMsgBuffer, cmd.EmbeddedVA); err != nil {
		return stageErr("create", cmdErr(err))
	}
	n, err := s.Finish(0)
	if err != nil {
		return stageErr("create", cmdErr(err))
	}
	cmd.Out.Dwords = n
	return nil
}
