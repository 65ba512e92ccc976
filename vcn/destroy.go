package vcn

import (
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
)

// BuildDestroy writes a DESTROY message that ends the firmware session
// and the commands that submit it. The message is a bare header.
func (d *Decoder) BuildDestroy(cmd *DestroyCmd) error {
	if len(cmd.Embedded) < abi.SizeHeader {
		return stageErr("destroy", fmt.Errorf("%w: embedded buffer is %d bytes, need %d", ErrBufferTooSmall, len(cmd.Embedded), abi.SizeHeader))
	}
	hdr := abi.Header{
		HeaderSize:   uint32(abi.SizeHeader),
		TotalSize:    uint32(abi.SizeHeader),
		MsgType:      abi.MsgDestroy,
		StreamHandle: d.handle,
	}
	if _, err := abi.Put(cmd.Embedded, 0, hdr); err != nil {
		return stageErr("destroy", err)
	}

	s, err := d.stream(cmd.CmdBuffer, MaxDestroyDwords)
	if err != nil {
		return stageErr("destroy", err)
	}
	if err := s.Send(abi.CmdMsgBuffer, cmd.EmbeddedVA); err != nil {
		return stageErr("destroy", cmdErr(err))
	}
	n, err := s.Finish(0)
	if err != nil {
		return stageErr("destroy", cmdErr(err))
	}
	cmd.Out.Dwords = n
	d.log.Debug("destroy built", "handle", fmt.Sprintf("%#08x", d.handle), "dwords", n)
	return nil
}
