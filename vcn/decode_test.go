package vcn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
)

const (
	testSessionVA   = 0x1_0000_0000
	testEmbeddedVA  = 0x2_0000_0000
	testBitstreamVA = 0x3_0000_0000
	testTargetVA    = 0x4_0000_0000
)

func surface(va uint64, swizzle uint32) Surface {
	const w, h = 1920, 1088
	return Surface{
		Size: w * h * 3 / 2,
		Planes: [3]Plane{
			{VA: va, Pitch: w, AlignedHeight: h, SliceSize: w * h, TotalSize: w * h, SwizzleMode: swizzle},
			{VA: va + w*h, Pitch: w, AlignedHeight: h / 2, SliceSize: w * h / 2, TotalSize: w * h / 2, SwizzleMode: swizzle},
		},
	}
}

func newDecodeCmd(d *Decoder, p CodecParams) *DecodeCmd {
	return &DecodeCmd{
		CmdBuffer:     make([]uint32, MaxDecodeDwords),
		SessionVA:     testSessionVA,
		EmbeddedVA:    testEmbeddedVA,
		Embedded:      make([]byte, d.Sizes().Embedded),
		BitstreamVA:   testBitstreamVA,
		BitstreamSize: 4096,
		Width:         1920,
		Height:        1080,
		Target:        surface(testTargetVA, 0),
		Params:        p,
	}
}

// legacyOps returns the command codes of a legacy register stream.
func legacyOps(words []uint32) []uint32 {
	var ops []uint32
	for i := 5; i < len(words); i += 6 {
		ops = append(ops, words[i]>>1)
	}
	return ops
}

func decodeHeader(t *testing.T, emb []byte) (abi.Header, []abi.Index) {
	t.Helper()
	var hdr abi.Header
	require.NoError(t, abi.Get(emb, 0, &hdr))
	idx := make([]abi.Index, hdr.NumBuffers-1)
	for i := range idx {
		require.NoError(t, abi.Get(emb, abi.SizeHeader+i*abi.SizeIndex, &idx[i]))
	}
	return hdr, idx
}

func decodeMsg(t *testing.T, emb []byte, hdr abi.Header) abi.Decode {
	t.Helper()
	var dec abi.Decode
	require.NoError(t, abi.Get(emb, int(hdr.Index.Offset), &dec))
	return dec
}

func TestDecodeAVCLegacyTier0(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN300, sessionFor(CodecAVC))
	cmd := newDecodeCmd(d, &AVCParams{ProfileIdc: AVCProfileHigh, LevelIdc: 41})
	cmd.NumRefs = 1
	cmd.Refs[0] = surface(0x5_0000_0000, 0)
	require.NoError(t, d.BuildDecode(cmd))

	regs := abi.RegsVCN25
	words := cmd.CmdBuffer[:cmd.Out.Dwords]
	require.Len(t, words, 8*6+2)
	assert.Equal(t, []uint32{
		abi.CmdSessionContext, abi.CmdMsgBuffer, abi.CmdDPBBuffer, abi.CmdContextBuffer,
		abi.CmdITScalingTable, abi.CmdFeedbackBuffer, abi.CmdBitstreamBuffer, abi.CmdDecodingTarget,
	}, legacyOps(words[:48]))
	assert.Equal(t, []uint32{regs.Cntl >> 2, 1}, words[48:])

	// context buffer follows the session context
	assert.Equal(t, []uint32{regs.Data0 >> 2, 0x20000, regs.Data1 >> 2, 1}, words[18:22])
	// IT scaling table lives in the embedded buffer
	assert.Equal(t, d.Sizes().ITProbsOffset, words[25])

	hdr, idx := decodeHeader(t, cmd.Embedded)
	msgEnd := abi.SizeHeader + abi.SizeIndex + abi.SizeDecode
	assert.Equal(t, uint32(2), hdr.NumBuffers)
	assert.Equal(t, abi.MsgDecode, hdr.MsgType)
	assert.Equal(t, uint32(msgEnd+abi.SizeAVC), hdr.TotalSize)
	assert.Equal(t, abi.Index{MessageID: abi.MessageDecode, Offset: uint32(abi.SizeHeader + abi.SizeIndex), Size: uint32(abi.SizeDecode)}, hdr.Index)
	assert.Equal(t, []abi.Index{{MessageID: abi.MessageAVC, Offset: uint32(msgEnd), Size: uint32(abi.SizeAVC)}}, idx)

	dec := decodeMsg(t, cmd.Embedded, hdr)
	assert.Equal(t, abi.StreamH264Perf, dec.StreamType)
	assert.Equal(t, uint32(1920), dec.WidthInSamples)
	assert.Equal(t, uint32(1080), dec.HeightInSamples)
	assert.Equal(t, uint32(4096), dec.BsdSize)
	assert.Equal(t, d.Sizes().HWContext, dec.HwCtxtSize)
	assert.Equal(t, uint32(abi.SessionContextSize), dec.SwCtxtSize)
	assert.Equal(t, uint16(1920), dec.DbPitch)
	assert.Equal(t, uint32(960), dec.DbPitchUV)
	assert.Equal(t, uint16(1088), dec.DbAlignedHeight)
	assert.Equal(t, uint32(1920*1088*3/2), dec.DpbSize)
	assert.Equal(t, uint32(1920*1088), dec.DtChromaTopOffset)
	assert.Equal(t, uint32(1), dec.MifWrcEn)
	assert.Zero(t, dec.DecodeFlags)
	assert.Zero(t, dec.DecodeBufferFlags, "legacy submissions keep no descriptor")

	var avc abi.AVC
	require.NoError(t, abi.Get(cmd.Embedded, msgEnd, &avc))
	assert.Equal(t, abi.H264ProfileHigh, avc.Profile)
	assert.Equal(t, uint32(41), avc.Level)

	var fb abi.FeedbackHeader
	require.NoError(t, abi.Get(cmd.Embedded, int(d.Sizes().FeedbackOffset), &fb))
	assert.Equal(t, uint32(abi.SizeFeedbackHeader), fb.HeaderSize)
}

func TestDecodeHEVCUnifiedTier2(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN402, sessionFor(CodecHEVC))
	p := &HEVCParams{}
	for i := range p.RefPicIDList {
		p.RefPicIDList[i] = 0x7f
	}
	p.RefPicIDList[0], p.RefPicIDList[1], p.RefPicIDList[2] = 7, 4, 9

	cmd := newDecodeCmd(d, p)
	cmd.Tier = Tier2
	cmd.NumRefs = 3
	cmd.RefIDs[0], cmd.RefIDs[1], cmd.RefIDs[2] = 4, 7, 2
	cmd.CurID = 2
	cmd.Refs[0] = surface(0x10_0000_0000, 0)
	cmd.Refs[1] = surface(0x11_0000_0000, 0)
	cmd.Refs[2] = surface(0x12_0000_0000, 27)
	require.NoError(t, d.BuildDecode(cmd))

	w := cmd.CmdBuffer[:cmd.Out.Dwords]
	require.Len(t, w, 4+2+abi.SizeDecodeBuffer/4)
	assert.Equal(t, uint32(len(w)*4), w[3])
	wantFlags := abi.CmdbufFlagSessionContext | abi.CmdbufFlagMsgBuffer | abi.CmdbufFlagContextBuffer |
		abi.CmdbufFlagITScalingBuffer | abi.CmdbufFlagBitstreamBuffer | abi.CmdbufFlagDecodingTarget
	assert.Equal(t, wantFlags, w[6])

	hdr, idx := decodeHeader(t, cmd.Embedded)
	require.Len(t, idx, 2)
	assert.Equal(t, abi.MessageHEVC, idx[0].MessageID)
	assert.Equal(t, abi.MessageDynamicDPB, idx[1].MessageID)
	assert.Equal(t, uint32(abi.SizeDynamicDPB2), idx[1].Size)

	dec := decodeMsg(t, cmd.Embedded, hdr)
	assert.Equal(t, abi.DecodeFlagUseDynamicDPB, dec.DecodeFlags)
	assert.Equal(t, wantFlags&^abi.CmdbufFlagSessionContext, dec.DecodeBufferFlags)
	assert.Equal(t, uint32(27), dec.DbSwizzleMode)
	assert.Zero(t, dec.DpbSize)
	assert.Equal(t, abi.ArrayModeAddrlibGFX11, dec.DbArrayMode)

	var dpb abi.DynamicDPB2
	require.NoError(t, abi.Get(cmd.Embedded, int(idx[1].Offset), &dpb))
	assert.Equal(t, uint32(2), dpb.DpbArraySize)
	assert.Equal(t, uint32(0x11), dpb.DpbAddrHi[0], "ref id 7 sits in slot 0")
	assert.Equal(t, uint32(0x10), dpb.DpbAddrHi[1], "ref id 4 sits in slot 1")
	assert.Zero(t, dpb.DpbAddrHi[2])
	assert.Equal(t, uint32(0x12), dpb.DpbCurrHi)
	assert.Equal(t, uint32(1920), dpb.DpbLumaPitch)
	assert.Equal(t, uint32(544), dpb.DpbChromaAlignedHeight)
}

func TestDecodeTier2WithoutCurrentRef(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN300, sessionFor(CodecAVC))
	cmd := newDecodeCmd(d, &AVCParams{})
	cmd.Tier = Tier2
	cmd.CurID = 5
	require.NoError(t, d.BuildDecode(cmd))

	hdr, idx := decodeHeader(t, cmd.Embedded)
	var dpb abi.DynamicDPB2
	require.NoError(t, abi.Get(cmd.Embedded, int(idx[1].Offset), &dpb))
	assert.Equal(t, uint32(testTargetVA>>32), dpb.DpbCurrHi)
	assert.Zero(t, dpb.DpbArraySize)

	dec := decodeMsg(t, cmd.Embedded, hdr)
	assert.Equal(t, uint16(1920), dec.DbPitch, "pitch falls back to the target")
}

func TestDecodeVP9Tier1(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN260, sessionFor(CodecVP9))
	cmd := newDecodeCmd(d, &VP9Params{})
	cmd.Tier = Tier1
	cmd.DPBResize = true
	cmd.NumRefs = 1
	cmd.Refs[0] = surface(0x7_0000_0000, 0)
	require.NoError(t, d.BuildDecode(cmd))

	ops := legacyOps(cmd.CmdBuffer[:cmd.Out.Dwords-2])
	assert.Equal(t, []uint32{
		abi.CmdSessionContext, abi.CmdMsgBuffer, abi.CmdDPBBuffer, abi.CmdContextBuffer,
		abi.CmdProbTblBuffer, abi.CmdFeedbackBuffer, abi.CmdBitstreamBuffer, abi.CmdDecodingTarget,
	}, ops)

	hdr, idx := decodeHeader(t, cmd.Embedded)
	dec := decodeMsg(t, cmd.Embedded, hdr)
	assert.Equal(t, abi.DecodeFlagUseDynamicDPB|abi.DecodeFlagUsePAL|abi.DecodeFlagDPBResize, dec.DecodeFlags)
	assert.Zero(t, dec.MifWrcEn)

	var dpb abi.DynamicDPB
	require.NoError(t, abi.Get(cmd.Embedded, int(idx[1].Offset), &dpb))
	assert.Equal(t, uint8(9), dpb.DpbArraySize)
	assert.Equal(t, uint32(1920), dpb.DpbLumaPitch)
	assert.Equal(t, uint32(1920*1088), dpb.DpbLumaAlignedSize)
	assert.Equal(t, uint8(64), dpb.DpbReserved0[0])
}

func av1Params() *AV1Params {
	p := &AV1Params{Width: 1920, Height: 1080, MaxWidth: 4096, MaxHeight: 2176, BitDepth: 8}
	p.Color.SubsamplingX = true
	p.Color.SubsamplingY = true
	p.Tiles.TileCols, p.Tiles.TileRows = 1, 1
	return p
}

func TestDecodeAV1Tier3(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN500, sessionFor(CodecAV1))
	cmd := newDecodeCmd(d, av1Params())
	cmd.Tier = Tier3
	cmd.NumRefs = 2
	cmd.RefIDs[0], cmd.RefIDs[1] = 3, 6
	cmd.Refs[0] = surface(0x20_0000_1000, 0)
	cmd.Refs[1] = surface(0x21_0000_2000, 0)
	require.NoError(t, d.BuildDecode(cmd))

	w := cmd.CmdBuffer[:cmd.Out.Dwords]
	pkg := 4 + 2 + abi.SizeDecodeBuffer/4
	n := 2
	require.Len(t, w, pkg+4+11*n)
	assert.Equal(t, uint32(8+44*n+8), w[pkg], "package size")
	assert.Equal(t, abi.PackageTypeDynamicRefList, w[pkg+1])
	assert.Equal(t, uint32(8+44*n), w[pkg+2])
	assert.Equal(t, uint32(n), w[pkg+3])
	ref1 := w[pkg+4+11:]
	assert.Equal(t, uint32(6), ref1[0])
	assert.Equal(t, uint32(0x21), ref1[4])
	assert.Equal(t, uint32(0x2000), ref1[5])

	assert.Equal(t, uint32(len(w)*4), w[3])
	assert.NotZero(t, w[6]&abi.CmdbufFlagRefBuffer)
	assert.NotZero(t, w[6]&abi.CmdbufFlagProbTblBuffer)
	assert.Zero(t, w[6]&abi.CmdbufFlagDPBBuffer)

	hdr, idx := decodeHeader(t, cmd.Embedded)
	require.Len(t, idx, 1, "tier 3 carries no DPB message")
	dec := decodeMsg(t, cmd.Embedded, hdr)
	assert.Equal(t, abi.DecodeFlagUnifiedDT, dec.DecodeFlags)
	assert.NotZero(t, dec.DecodeBufferFlags&abi.CmdbufFlagRefBuffer)
}

func TestDecodeVCN5Tier0Swizzle(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN500, sessionFor(CodecHEVC))
	cmd := newDecodeCmd(d, &HEVCParams{})
	cmd.LowLatency = true
	require.NoError(t, d.BuildDecode(cmd))

	hdr, _ := decodeHeader(t, cmd.Embedded)
	dec := decodeMsg(t, cmd.Embedded, hdr)
	assert.Equal(t, abi.VCN5SwizzleMode256BD, dec.DbSwizzleMode)
	assert.Equal(t, abi.DecodeFlagLowLatency, dec.DecodeFlags)
	assert.Equal(t, uint16(1920), dec.DbPitch, "1920 is already 64 aligned")
}

func TestDecodeVC1MacroblockUnits(t *testing.T) {
	t.Parallel()
	for _, tt := range []struct {
		profile uint32
		w, h    uint32
	}{
		{VC1ProfileSimple, 120, 68},
		{VC1ProfileMain, 120, 68},
		{VC1ProfileAdvanced, 1920, 1080},
	} {
		d := newTestDecoder(t, VCN200, sessionFor(CodecVC1))
		cmd := newDecodeCmd(d, &VC1Params{Profile: tt.profile})
		require.NoError(t, d.BuildDecode(cmd))

		hdr, idx := decodeHeader(t, cmd.Embedded)
		dec := decodeMsg(t, cmd.Embedded, hdr)
		assert.Equal(t, tt.w, dec.WidthInSamples, "profile %d", tt.profile)
		assert.Equal(t, tt.h, dec.HeightInSamples, "profile %d", tt.profile)
		assert.Equal(t, abi.MessageVC1, idx[0].MessageID)
		assert.Equal(t, abi.StreamVC1, dec.StreamType)
	}
}

func TestDecodeMPEG2HasNoContext(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN220, sessionFor(CodecMPEG2))
	cmd := newDecodeCmd(d, &MPEG2Params{})
	require.NoError(t, d.BuildDecode(cmd))

	ops := legacyOps(cmd.CmdBuffer[:cmd.Out.Dwords-2])
	assert.Equal(t, []uint32{
		abi.CmdSessionContext, abi.CmdMsgBuffer, abi.CmdDPBBuffer,
		abi.CmdFeedbackBuffer, abi.CmdBitstreamBuffer, abi.CmdDecodingTarget,
	}, ops)
}

func TestDecodeTMZSession(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN300, sessionFor(CodecHEVC))
	cmd := newDecodeCmd(d, &HEVCParams{})
	cmd.SessionTMZVA = 0x9_0000_0000
	require.NoError(t, d.BuildDecode(cmd))

	w := cmd.CmdBuffer
	assert.Equal(t, abi.CmdContextBuffer, w[23]>>1)
	assert.Equal(t, uint32(abi.SessionContextSize), w[19])
	assert.Equal(t, uint32(9), w[21])
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN300, sessionFor(CodecHEVC))

	tests := []struct {
		name   string
		modify func(*DecodeCmd)
		want   error
	}{
		{"codec mismatch", func(c *DecodeCmd) { c.Params = &AVCParams{} }, ErrCodecMismatch},
		{"no params", func(c *DecodeCmd) { c.Params = nil }, ErrCodecMismatch},
		{"too many refs", func(c *DecodeCmd) { c.NumRefs = MaxRefs + 1 }, ErrUnsupportedParameters},
		{"negative refs", func(c *DecodeCmd) { c.NumRefs = -1 }, ErrUnsupportedParameters},
		{"tier1 on vcn3", func(c *DecodeCmd) { c.Tier = Tier1 }, ErrUnsupportedTier},
		{"tier3 on vcn3", func(c *DecodeCmd) { c.Tier = Tier3 }, ErrUnsupportedTier},
		{"tier mask", func(c *DecodeCmd) { c.Tier = Tier1 | Tier2 }, ErrUnsupportedTier},
		{"short embedded", func(c *DecodeCmd) { c.Embedded = c.Embedded[:100] }, ErrBufferTooSmall},
		{"short command buffer", func(c *DecodeCmd) { c.CmdBuffer = c.CmdBuffer[:20] }, ErrCommandOverflow},
		{"cenc without buffer", func(c *DecodeCmd) { c.Protected.Mode = ProtectedCENC }, ErrBadSecureBuffer},
		{"legacy without params", func(c *DecodeCmd) { c.Protected.Mode = ProtectedLegacy }, ErrBadSecureBuffer},
		{"bad protected mode", func(c *DecodeCmd) { c.Protected.Mode = 7 }, ErrBadSecureBuffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cmd := newDecodeCmd(d, &HEVCParams{})
			tt.modify(cmd)
			err := d.BuildDecode(cmd)
			require.ErrorIs(t, err, tt.want)

			var be *BuildError
			assert.ErrorAs(t, err, &be)
		})
	}
}

func TestDecodeVP9RejectsElevenBit(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN300, sessionFor(CodecVP9))
	cmd := newDecodeCmd(d, &VP9Params{BitDepthChromaMinus8: 3})
	err := d.BuildDecode(cmd)
	require.ErrorIs(t, err, ErrUnsupportedParameters)

	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "vp9", be.Stage)
}

func TestDecodeLegacyProtected(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN300, sessionFor(CodecAVC))
	cmd := newDecodeCmd(d, &AVCParams{})
	cmd.Protected = ProtectedContent{
		Mode:    ProtectedLegacy,
		Decrypt: &DecryptParams{Flags: DecryptCTR | 3, EncryptedKey: [16]byte{1}},
	}
	require.NoError(t, d.BuildDecode(cmd))

	_, idx := decodeHeader(t, cmd.Embedded)
	require.Len(t, idx, 2)
	assert.Equal(t, abi.MessageDRM, idx[1].MessageID)

	var drm abi.DRM
	require.NoError(t, abi.Get(cmd.Embedded, int(idx[1].Offset), &drm))
	assert.Zero(t, drm.DrmCntl)
	assert.Equal(t, uint32(3), drm.DrmCmd>>abi.DRMCmdSessionSelShift&0xf)
	assert.Equal(t, abi.DRMAlgorithmCTR, drm.DrmCmd>>abi.DRMCmdAlgorithmShift&0x3)
	assert.Equal(t, uint32(1), drm.DrmWrappedKey[0])
}

func TestDecodeCENC(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN300, sessionFor(CodecAVC))
	sb := &SecureBuffer{Cookie: SecureBufferCookie, SubsamplesLength: 2, KeyFlags: 5}
	sb.Subsamples[0] = Subsample{Clear: 100, Encrypted: 1000}
	sb.Subsamples[1] = Subsample{Clear: 16, Encrypted: 2000}
	for i := range sb.PolicyArray {
		sb.PolicyArray[i] = uint32(i + 1)
	}

	cmd := newDecodeCmd(d, &AVCParams{})
	cmd.Protected = ProtectedContent{Mode: ProtectedCENC, Secure: sb}
	require.NoError(t, d.BuildDecode(cmd))

	ops := legacyOps(cmd.CmdBuffer[:cmd.Out.Dwords-2])
	assert.Contains(t, ops, abi.CmdSubsampleSizeInfo)

	hdr, idx := decodeHeader(t, cmd.Embedded)
	assert.Equal(t, uint32(4), hdr.NumBuffers)
	assert.Equal(t, abi.MessageDRM, idx[1].MessageID)
	assert.Equal(t, abi.MessageDRMKeyblob, idx[2].MessageID)

	var drm abi.DRM
	require.NoError(t, abi.Get(cmd.Embedded, int(idx[1].Offset), &drm))
	assert.Equal(t, uint32(0x3<<abi.DRMCntlCENCEnableShift), drm.DrmCntl)
	assert.Equal(t, uint32(2), drm.DrmSubsampleSize)
	assert.Equal(t, uint32(5), drm.DrmCmd>>abi.DRMCmdSessionSelShift&0xf)

	var blob abi.DRMKeyblob
	require.NoError(t, abi.Get(cmd.Embedded, int(idx[2].Offset), &blob))
	assert.Equal(t, uint32(8), blob.PolicyArray[7])
	assert.Zero(t, blob.PolicyArray[8])

	sub := d.Sizes().SubsampleOffset
	got := []uint32{le32(cmd.Embedded, int(sub)), le32(cmd.Embedded, int(sub+4)), le32(cmd.Embedded, int(sub+8)), le32(cmd.Embedded, int(sub+12))}
	assert.Equal(t, []uint32{100, 1000, 16, 4096 - 1116}, got)
}

func TestDecodeCENCOversizedSubsamples(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN300, sessionFor(CodecAVC))
	sb := &SecureBuffer{SubsamplesLength: 1}
	sb.Subsamples[0] = Subsample{Clear: 5000}

	cmd := newDecodeCmd(d, &AVCParams{})
	cmd.Protected = ProtectedContent{Mode: ProtectedCENC, Secure: sb}
	err := d.BuildDecode(cmd)
	require.ErrorIs(t, err, ErrBadSecureBuffer)

	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "cenc", be.Stage)
}

func TestDecodeIsRepeatable(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN402, sessionFor(CodecHEVC))
	a := newDecodeCmd(d, &HEVCParams{CurrPOC: 4})
	b := newDecodeCmd(d, &HEVCParams{CurrPOC: 4})
	for i := range b.Embedded {
		b.Embedded[i] = 0xcd
	}
	require.NoError(t, d.BuildDecode(a))
	require.NoError(t, d.BuildDecode(b))

	assert.Equal(t, a.CmdBuffer[:a.Out.Dwords], b.CmdBuffer[:b.Out.Dwords])
	l := messageLayout(a)
	end := l.Size + abi.SizeHEVC
	assert.Equal(t, a.Embedded[:end], b.Embedded[:end], "stale bytes leaked into the message area")
}
