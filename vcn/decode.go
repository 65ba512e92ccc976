package vcn

import (
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/cmdbuf"
	"github.com/sailfishos-mirror/mesa-sub000/internal/layout"
)

// Message area region names.
const (
	msgHeader       = "header"
	msgIndexCodec   = "index_codec"
	msgIndexDRM     = "index_drm"
	msgIndexKeyblob = "index_keyblob"
	msgIndexDPB     = "index_dpb"
	msgDecode       = "decode"
	msgDRM          = "drm"
	msgKeyblob      = "keyblob"
	msgDPB          = "dpb"
)

// BuildDecode writes the messages of one frame into cmd.Embedded and the
// commands that submit it into cmd.CmdBuffer. On error the embedded
// buffer may be partially written and must not be submitted.
func (d *Decoder) BuildDecode(cmd *DecodeCmd) error {
	if err := d.buildDecode(cmd); err != nil {
		d.log.Debug("decode aborted", "codec", d.params.Codec, "tier", cmd.Tier, "error", err)
		return err
	}
	return nil
}

func (d *Decoder) checkDecode(cmd *DecodeCmd) error {
	if len(cmd.Embedded) < int(d.sizes.Embedded) {
		return fmt.Errorf("%w: embedded buffer is %d bytes, need %d", ErrBufferTooSmall, len(cmd.Embedded), d.sizes.Embedded)
	}
	if cmd.Params == nil || cmd.Params.Codec() != d.params.Codec {
		return fmt.Errorf("%w: session is %s", ErrCodecMismatch, d.params.Codec)
	}
	if cmd.NumRefs < 0 || cmd.NumRefs > MaxRefs {
		return fmt.Errorf("%w: %d references", ErrUnsupportedParameters, cmd.NumRefs)
	}
	switch cmd.Tier {
	case Tier0:
	case Tier1, Tier2, Tier3:
		if d.tiers&cmd.Tier == 0 {
			return fmt.Errorf("%w: %s", ErrUnsupportedTier, cmd.Tier)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedTier, cmd.Tier)
	}
	if cmd.Tier == Tier2 && cmd.Params.refIDs() == nil {
		return fmt.Errorf("%w: %s has no reference list", ErrUnsupportedTier, d.params.Codec)
	}
	switch cmd.Protected.Mode {
	case ProtectedNone:
	case ProtectedCENC:
		if cmd.Protected.Secure == nil {
			return fmt.Errorf("%w: CENC frame without secure buffer", ErrBadSecureBuffer)
		}
	case ProtectedLegacy:
		if cmd.Protected.Decrypt == nil {
			return fmt.Errorf("%w: protected frame without decrypt parameters", ErrBadSecureBuffer)
		}
	default:
		return fmt.Errorf("%w: protected mode %d", ErrBadSecureBuffer, cmd.Protected.Mode)
	}
	return nil
}

// messageLayout places the header, its index entries and the fixed
// messages of one frame. The codec payload follows at Size.
func messageLayout(cmd *DecodeCmd) layout.Layout {
	prot := cmd.Protected.Mode != ProtectedNone
	cenc := cmd.Protected.Mode == ProtectedCENC

	b := layout.NewBuilder(0)
	b.Add(msgHeader, abi.SizeHeader)
	b.Add(msgIndexCodec, abi.SizeIndex)
	if prot {
		b.Add(msgIndexDRM, abi.SizeIndex)
	}
	if cenc {
		b.Add(msgIndexKeyblob, abi.SizeIndex)
	}
	if cmd.Tier == Tier1 || cmd.Tier == Tier2 {
		b.Add(msgIndexDPB, abi.SizeIndex)
	}
	b.Add(msgDecode, abi.SizeDecode)
	if prot {
		b.Add(msgDRM, abi.SizeDRM)
	}
	if cenc {
		b.Add(msgKeyblob, abi.SizeDRMKeyblob)
	}
	switch cmd.Tier {
	case Tier1:
		b.Add(msgDPB, abi.SizeDynamicDPB)
	case Tier2:
		b.Add(msgDPB, abi.SizeDynamicDPB2)
	}
	return b.Finish()
}

// message collects the parts of the message area before they are
// encoded.
type message struct {
	l       layout.Layout
	emb     []byte
	indexes []abi.Index
	err     error
}

func (m *message) put(region string, v any) {
	if m.err != nil {
		return
	}
	_, m.err = abi.Put(m.emb, m.l.Offset(region), v)
}

func (m *message) index(region string, id uint32, off, size int) {
	if m.err != nil {
		return
	}
	idx := abi.Index{MessageID: id, Offset: uint32(off), Size: uint32(size)}
	m.indexes = append(m.indexes, idx)
	m.put(region, idx)
}

func (d *Decoder) buildDecode(cmd *DecodeCmd) error {
	if err := d.checkDecode(cmd); err != nil {
		return stageErr("decode", err)
	}

	emb := cmd.Embedded
	l := messageLayout(cmd)
	clear(emb[:l.Size])
	m := &message{l: l, emb: emb}

	dec := d.decodeMessage(cmd)

	s, err := d.stream(cmd.CmdBuffer, MaxDecodeDwords)
	if err != nil {
		return stageErr("decode", err)
	}

	it := emb[d.sizes.ITProbsOffset : d.sizes.ITProbsOffset+uint32(itProbsSize(d.params.Codec))]
	cm, err := cmd.Params.build(d, cmd, it)
	if err != nil {
		return stageErr(d.params.Codec.String(), err)
	}
	codecSize := abi.Size(cm.msg)
	if _, err := abi.Put(emb, l.Size, cm.msg); err != nil {
		return stageErr("decode", err)
	}
	m.index(msgIndexCodec, cm.id, l.Size, codecSize)

	switch cmd.Tier {
	case Tier0:
		if d.version == VCN500 {
			dec.DbSwizzleMode = abi.VCN5SwizzleMode256BD
		}
	case Tier1:
		dec.DecodeFlags |= abi.DecodeFlagUseDynamicDPB | abi.DecodeFlagUsePAL
		if cmd.DPBResize {
			dec.DecodeFlags |= abi.DecodeFlagDPBResize
		}
		m.put(msgDPB, d.dynamicDPB(cmd))
		m.index(msgIndexDPB, abi.MessageDynamicDPB, l.Offset(msgDPB), abi.SizeDynamicDPB)
	case Tier2:
		dec.DecodeFlags |= abi.DecodeFlagUseDynamicDPB
		dpb, cur := dynamicDPB2(cmd)
		dec.DbSwizzleMode = cur.Planes[0].SwizzleMode
		m.put(msgDPB, dpb)
		m.index(msgIndexDPB, abi.MessageDynamicDPB, l.Offset(msgDPB), abi.SizeDynamicDPB2)
	case Tier3:
		if err := s.AppendPackage(abi.PackageTypeDynamicRefList, refList(cmd)); err != nil {
			return stageErr("decode", cmdErr(err))
		}
		dec.DecodeFlags |= abi.DecodeFlagUnifiedDT
		s.AddFlags(abi.CmdbufFlagRefBuffer)
	}

	if d.sizes.FeedbackOffset != 0 {
		fb := abi.FeedbackHeader{
			HeaderSize: uint32(abi.SizeFeedbackHeader),
			TotalSize:  uint32(abi.SizeFeedbackHeader),
		}
		if _, err := abi.Put(emb, int(d.sizes.FeedbackOffset), fb); err != nil {
			return stageErr("decode", err)
		}
	}

	switch cmd.Protected.Mode {
	case ProtectedLegacy:
		m.put(msgDRM, legacyDRM(cmd.Protected.Decrypt))
		m.index(msgIndexDRM, abi.MessageDRM, l.Offset(msgDRM), abi.SizeDRM)
	case ProtectedCENC:
		drm, blob := cencDRM(cmd.Protected.Secure)
		m.put(msgDRM, drm)
		m.index(msgIndexDRM, abi.MessageDRM, l.Offset(msgDRM), abi.SizeDRM)
		m.put(msgKeyblob, blob)
		m.index(msgIndexKeyblob, abi.MessageDRMKeyblob, l.Offset(msgKeyblob), abi.SizeDRMKeyblob)
		if err := subsampleTable(emb[d.sizes.SubsampleOffset:], cmd.Protected.Secure, cmd.BitstreamSize); err != nil {
			return stageErr("cenc", err)
		}
	}
	if m.err != nil {
		return stageErr("decode", m.err)
	}

	if err := d.sendDecode(s, cmd); err != nil {
		return stageErr("decode", cmdErr(err))
	}

	if cmd.LowLatency {
		dec.DecodeFlags |= abi.DecodeFlagLowLatency
	}
	dec.DecodeBufferFlags = s.Flags() &^ abi.CmdbufFlagSessionContext

	hdr := abi.Header{
		HeaderSize:   uint32(abi.SizeHeader),
		TotalSize:    uint32(l.Size + codecSize),
		NumBuffers:   uint32(1 + len(m.indexes)),
		MsgType:      abi.MsgDecode,
		StreamHandle: d.handle,
		Index: abi.Index{
			MessageID: abi.MessageDecode,
			Offset:    uint32(l.Offset(msgDecode)),
			Size:      uint32(abi.SizeDecode),
		},
	}
	m.put(msgHeader, hdr)
	m.put(msgDecode, dec)
	if m.err != nil {
		return stageErr("decode", m.err)
	}

	var cntl uint32
	if d.version.style() == cmdbuf.Legacy {
		cntl = d.hw.regs.Cntl
	}
	n, err := s.Finish(cntl)
	if err != nil {
		return stageErr("decode", cmdErr(err))
	}
	cmd.Out.Dwords = n
	return nil
}

// decodeMessage fills the decode message fields that do not depend on
// the tier or the sent buffers.
func (d *Decoder) decodeMessage(cmd *DecodeCmd) abi.Decode {
	t := &cmd.Target
	dec := abi.Decode{
		StreamType:      streamType(d.params.Codec),
		WidthInSamples:  cmd.Width,
		HeightInSamples: cmd.Height,
		BsdSize:         cmd.BitstreamSize,
		DtSize:          uint32(t.Planes[0].TotalSize + t.Planes[1].TotalSize),
		HwCtxtSize:      d.sizes.HWContext,
		SwCtxtSize:      abi.SessionContextSize,
		DbArrayMode:     d.hw.addrMode,

		DtPitch:           t.Planes[0].Pitch,
		DtUvPitch:         t.Planes[1].Pitch,
		DtSwizzleMode:     t.Planes[0].SwizzleMode,
		DtArrayMode:       d.hw.addrMode,
		DtLumaTopOffset:   t.Planes[0].TileSwizzle << 8,
		DtChromaTopOffset: uint32(t.Planes[1].VA-t.Planes[0].VA) | t.Planes[1].TileSwizzle<<8,
	}
	if vc1, ok := cmd.Params.(*VC1Params); ok && vc1.Profile < VC1ProfileAdvanced {
		dec.WidthInSamples = (cmd.Width + 15) / 16
		dec.HeightInSamples = (cmd.Height + 15) / 16
	}
	if cmd.Tier < Tier2 {
		dec.DpbSize = uint32(cmd.Refs[0].Size)
	}

	switch {
	case cmd.Tier == Tier0:
		a := d.sizes.DPBAlignment
		dec.DbPitch = uint16(layout.AlignU32(cmd.Width, a))
		dec.DbPitchUV = layout.AlignU32(cmd.Width/2, a)
		dec.DbAlignedHeight = uint16(layout.AlignU32(cmd.Height, 64))
	case cmd.NumRefs > 0:
		r := &cmd.Refs[0]
		dec.DbPitch = uint16(r.Planes[0].Pitch)
		dec.DbPitchUV = r.Planes[1].Pitch
		dec.DbAlignedHeight = uint16(r.Planes[0].AlignedHeight)
	default:
		dec.DbPitch = uint16(t.Planes[0].Pitch)
		dec.DbPitchUV = t.Planes[1].Pitch
		dec.DbAlignedHeight = uint16(t.Planes[0].AlignedHeight)
	}

	if d.version >= VCN300 {
		dec.MifWrcEn = 1
	}
	return dec
}

// dynamicDPB describes a tier 1 texture array from the first reference.
func (d *Decoder) dynamicDPB(cmd *DecodeCmd) abi.DynamicDPB {
	r := &cmd.Refs[0]
	dpb := abi.DynamicDPB{
		DpbArraySize:           uint8(d.params.MaxNumRef),
		DpbLumaPitch:           r.Planes[0].Pitch,
		DpbLumaAlignedHeight:   r.Planes[0].AlignedHeight,
		DpbLumaAlignedSize:     uint32(r.Planes[0].SliceSize),
		DpbChromaPitch:         r.Planes[1].Pitch,
		DpbChromaAlignedHeight: r.Planes[1].AlignedHeight,
		DpbChromaAlignedSize:   uint32(r.Planes[1].SliceSize),
	}
	dpb.DpbReserved0[0] = uint8(d.sizes.DPBAlignment)
	return dpb
}

// dynamicDPB2 places each reference at the slot its id holds in the
// codec's reference list and returns the surface of the current picture.
// Without a reference matching CurID the target is current.
func dynamicDPB2(cmd *DecodeCmd) (abi.DynamicDPB2, *Surface) {
	var dpb abi.DynamicDPB2
	list := cmd.Params.refIDs()
	slots := min(cmd.NumRefs, len(list), len(dpb.DpbAddrLo))

	cur := &cmd.Target
	for i := range cmd.NumRefs {
		id := uint32(cmd.RefIDs[i])
		if cmd.RefIDs[i] == cmd.CurID {
			cur = &cmd.Refs[i]
		}
		for j := range slots {
			if id == list[j] {
				va := cmd.Refs[i].Planes[0].VA
				dpb.DpbAddrLo[j] = uint32(va)
				dpb.DpbAddrHi[j] = uint32(va >> 32)
				dpb.DpbArraySize++
			}
		}
	}

	va := cur.Planes[0].VA
	dpb.DpbCurrLo = uint32(va)
	dpb.DpbCurrHi = uint32(va >> 32)
	dpb.DpbLumaPitch = cur.Planes[0].Pitch
	dpb.DpbLumaAlignedHeight = cur.Planes[0].AlignedHeight
	dpb.DpbLumaAlignedSize = uint32(cur.Planes[0].SliceSize)
	dpb.DpbChromaPitch = cur.Planes[1].Pitch
	dpb.DpbChromaAlignedHeight = cur.Planes[1].AlignedHeight
	dpb.DpbChromaAlignedSize = uint32(cur.Planes[1].SliceSize)
	return dpb, cur
}

// refList encodes the tier 3 reference list package payload.
func refList(cmd *DecodeCmd) []uint32 {
	n := cmd.NumRefs
	hdr := abi.RefBuffersHeader{
		Size:    uint32(abi.SizeRefBuffersHeader + n*abi.SizeRefBuffer),
		NumBufs: uint32(n),
	}
	words := abi.Words(hdr)
	for i := range n {
		r := &cmd.Refs[i]
		y, uv := r.Planes[0], r.Planes[1]
		words = append(words, abi.Words(abi.RefBuffer{
			Index:           uint32(cmd.RefIDs[i]),
			YPitch:          y.Pitch,
			YAlignedHeight:  y.AlignedHeight,
			YAlignedSize:    uint32(y.SliceSize),
			YAddrHi:         uint32(y.VA >> 32),
			YAddrLo:         uint32(y.VA),
			UVPitch:         uv.Pitch,
			UVAlignedHeight: uv.AlignedHeight,
			UVAlignedSize:   uint32(uv.SliceSize),
			UVAddrHi:        uint32(uv.VA >> 32),
			UVAddrLo:        uint32(uv.VA),
		})...)
	}
	return words
}

// sendDecode registers the frame's buffers in submission order.
func (d *Decoder) sendDecode(s *cmdbuf.Stream, cmd *DecodeCmd) error {
	if err := s.Send(abi.CmdSessionContext, cmd.SessionVA); err != nil {
		return err
	}
	if err := s.Send(abi.CmdMsgBuffer, cmd.EmbeddedVA); err != nil {
		return err
	}
	if cmd.Tier < Tier2 {
		if err := s.Send(abi.CmdDPBBuffer, cmd.Refs[0].Planes[0].VA); err != nil {
			return err
		}
	}
	if d.sizes.HWContext != 0 {
		base := cmd.SessionVA
		if cmd.SessionTMZVA != 0 {
			base = cmd.SessionTMZVA
		}
		if err := s.Send(abi.CmdContextBuffer, base+abi.SessionContextSize); err != nil {
			return err
		}
	}

	itVA := cmd.EmbeddedVA + uint64(d.sizes.ITProbsOffset)
	switch d.params.Codec {
	case CodecAVC, CodecHEVC:
		if err := s.Send(abi.CmdITScalingTable, itVA); err != nil {
			return err
		}
	case CodecVP9, CodecAV1:
		if err := s.Send(abi.CmdProbTblBuffer, itVA); err != nil {
			return err
		}
	}

	if cmd.Protected.Mode == ProtectedCENC {
		if err := s.Send(abi.CmdSubsampleSizeInfo, cmd.EmbeddedVA+uint64(d.sizes.SubsampleOffset)); err != nil {
			return err
		}
	}
	if d.sizes.FeedbackOffset != 0 {
		if err := s.Send(abi.CmdFeedbackBuffer, cmd.EmbeddedVA+uint64(d.sizes.FeedbackOffset)); err != nil {
			return err
		}
	}
	if err := s.Send(abi.CmdBitstreamBuffer, cmd.BitstreamVA); err != nil {
		return err
	}
	return s.Send(abi.CmdDecodingTarget, cmd.Target.Planes[0].VA)
}
