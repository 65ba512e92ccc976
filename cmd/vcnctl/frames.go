package main

import (
	"github.com/sailfishos-mirror/mesa-sub000/vcn"
)

// syntheticFrame returns the decode command of frame i of a stream where
// every frame references the o.refs frames before it. Slots are reused
// round robin.
func syntheticFrame(d *vcn.Decoder, o dumpOptions, i int) *vcn.DecodeCmd {
	slots := o.refs + 1
	cur := i % slots
	n := min(i, o.refs)

	cmd := &vcn.DecodeCmd{
		CmdBuffer:     make([]uint32, vcn.MaxDecodeDwords),
		SessionVA:     sessionVA,
		EmbeddedVA:    embeddedVA,
		Embedded:      make([]byte, d.Sizes().Embedded),
		BitstreamVA:   bitstreamVA + uint64(i)<<20,
		BitstreamSize: 64 << 10,
		NumRefs:       n,
		CurID:         uint8(cur),
		Width:         o.width,
		Height:        o.height,
		Target:        syntheticSurface(o, cur),
		Tier:          o.tier,
	}
	refs := make([]int, n)
	for k := range refs {
		refs[k] = (i - 1 - k) % slots
		cmd.RefIDs[k] = uint8(refs[k])
		cmd.Refs[k] = syntheticSurface(o, refs[k])
	}
	cmd.Params = syntheticParams(o, i, cur, refs)
	return cmd
}

func syntheticSurface(o dumpOptions, slot int) vcn.Surface {
	bpp := uint32(1)
	if o.depth > 8 {
		bpp = 2
	}
	pitch := align(o.width*bpp, 256)
	h := align(o.height, 16)
	luma := uint64(pitch) * uint64(h)
	size := luma * 3 / 2
	va := surfaceVA + uint64(slot)*uint64(align(uint32(size), 64<<10))
	return vcn.Surface{
		Size: size,
		Planes: [3]vcn.Plane{
			{VA: va, Pitch: pitch / bpp, AlignedHeight: h, SliceSize: luma, TotalSize: luma},
			{VA: va + luma, Pitch: pitch / bpp, AlignedHeight: h / 2, SliceSize: luma / 2, TotalSize: luma / 2},
		},
	}
}

func syntheticParams(o dumpOptions, i, cur int, refs []int) vcn.CodecParams {
	key := i == 0
	depthMinus8 := uint8(o.depth - 8)
	switch o.codec {
	case vcn.CodecAVC:
		p := &vcn.AVCParams{
			ProfileIdc:            vcn.AVCProfileHigh,
			LevelIdc:              41,
			CurrPicID:             uint32(cur),
			FrameNum:              uint16(i),
			CurrFieldOrderCnt:     [2]int32{int32(2 * i), int32(2 * i)},
			MaxNumRefFrames:       uint8(o.refs),
			BitDepthLumaMinus8:    depthMinus8,
			BitDepthChromaMinus8:  depthMinus8,
			Log2MaxFrameNumMinus4: 4,
		}
		p.SPS.FrameMBsOnly = true
		p.SPS.Direct8x8Inference = true
		p.PPS.EntropyCodingMode = true
		p.PPS.Transform8x8Mode = true
		p.Pic.ChromaFormatIdc = 1
		p.Pic.RefPic = true
		p.Pic.IntraPic = key
		for k, slot := range refs {
			j := i - 1 - k
			p.RefFrameIDList[k] = uint32(slot)
			p.FrameNumList[k] = uint16(j)
			p.FieldOrderCntList[k] = [2]int32{int32(2 * j), int32(2 * j)}
			p.UsedForReferenceFlags |= 3 << (2 * k)
		}
		return p

	case vcn.CodecHEVC:
		p := &vcn.HEVCParams{
			IRAPPic:              key,
			IDRPic:               key,
			RefPic:               true,
			ChromaFormatIdc:      1,
			BitDepthLumaMinus8:   depthMinus8,
			BitDepthChromaMinus8: depthMinus8,
			CurrPicID:            uint32(cur),
			CurrPOC:              int32(i),

			SPSMaxDecPicBufferingMinus1:       uint8(o.refs),
			Log2MaxPicOrderCntLsbMinus4:       4,
			Log2DiffMaxMinLumaCodingBlockSize: 3,
			Log2DiffMaxMinTransformBlockSize:  3,
		}
		p.SPS.TemporalMVPEnabled = true
		p.SPS.SampleAdaptiveOffset = true
		p.PPS.LoopFilterAcrossSlices = true
		for k := range p.RefPicIDList {
			p.RefPicIDList[k] = 0x7f
		}
		for k, slot := range refs {
			p.RefPicIDList[k] = uint32(slot)
			p.RefPOCList[k] = int32(i - 1 - k)
			p.RefPicSetStCurrBefore[k] = uint8(k)
		}
		return p

	case vcn.CodecVP9:
		p := &vcn.VP9Params{
			Width:                o.width,
			Height:               o.height,
			CurID:                uint32(cur),
			ShowFrame:            true,
			RefreshFrameContext:  true,
			BaseQIdx:             60,
			BitDepthLumaMinus8:   depthMinus8,
			BitDepthChromaMinus8: depthMinus8,
		}
		if !key {
			p.FrameType = 1
		}
		p.LoopFilter.Level = 32
		for k, slot := range refs {
			p.RefFrameIDList[k] = uint32(slot)
			if k < len(p.RefFrames) {
				p.RefFrames[k] = uint32(k)
			}
		}
		vcn.FillUnusedSlots(p.RefFrameIDList[:], len(refs), uint32(cur), vcn.VP9Slots)
		return p

	case vcn.CodecAV1:
		p := &vcn.AV1Params{
			Width:         o.width,
			Height:        o.height,
			MaxWidth:      align(o.width, 16),
			MaxHeight:     align(o.height, 16),
			CurID:         uint32(cur),
			BitDepth:      uint8(o.depth),
			OrderHints:    uint8(i),
			OrderHintBits: 7,
			FrameType:     vcn.AV1InterFrame,
		}
		if key {
			p.FrameType = vcn.AV1KeyFrame
		}
		p.Color.SubsamplingX = true
		p.Color.SubsamplingY = true
		p.Pic.ShowFrame = true
		p.Pic.RefFrameUpdate = true
		p.Pic.EnableRefFrameMVs = true
		p.Quantization.BaseQIdx = 60
		p.Quantization.QmY = 0xff
		p.Tiles.TileCols, p.Tiles.TileRows = 1, 1
		p.Tiles.UniformStarts(o.width, o.height, false)
		p.Tiles.Size[0] = 64 << 10
		for k, slot := range refs {
			p.RefFrameIDList[k] = uint32(slot)
			if k < len(p.RefFrames) {
				p.RefFrames[k].RefID = uint32(k)
			}
		}
		vcn.FillUnusedSlots(p.RefFrameIDList[:], len(refs), uint32(cur), vcn.AV1Slots)
		return p

	case vcn.CodecMPEG2:
		p := &vcn.MPEG2Params{
			PictureCodingType: 1,
			PicStructure:      3,
			FCode:             [2][2]uint8{{15, 15}, {15, 15}},
			FramePredFrameDCT: true,
		}
		if !key {
			p.PictureCodingType = 2
		}
		return p

	default:
		return &vcn.VC1Params{
			Profile:    vcn.VC1ProfileAdvanced,
			Level:      3,
			LoopFilter: true,
			Overlap:    true,
		}
	}
}
