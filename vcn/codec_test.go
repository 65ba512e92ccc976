package vcn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
)

func buildCodec[M any](t *testing.T, d *Decoder, p CodecParams, it []byte) *M {
	t.Helper()
	cm, err := p.build(d, &DecodeCmd{}, it)
	require.NoError(t, err)
	msg, ok := cm.msg.(*M)
	require.True(t, ok, "message is %T", cm.msg)
	return msg
}

func TestAVCFlagWords(t *testing.T) {
	t.Parallel()
	p := &AVCParams{ProfileIdc: AVCProfileMain}
	p.SPS.Direct8x8Inference = true
	p.SPS.FrameMBsOnly = true
	p.PPS.Transform8x8Mode = true
	p.PPS.WeightedBipredIdc = 2
	p.PPS.EntropyCodingMode = true
	p.UsedForLongTermRefFlags = 1 << 3
	p.RefFrameIDList[3] = 5
	p.ScalingList4x4[0][0] = 16

	it := make([]byte, abi.SizeAVCITS)
	msg := buildCodec[abi.AVC](t, nil, p, it)
	assert.Equal(t, uint32(0x85), msg.SPSInfoFlags)
	assert.Equal(t, uint32(0x121), msg.PPSInfoFlags)
	assert.Equal(t, abi.H264ProfileMain, msg.Profile)
	assert.Equal(t, uint8(0x85), msg.RefFrameList[3], "long term refs carry bit 7")
	assert.Equal(t, byte(16), it[0])

	cm, err := p.build(nil, &DecodeCmd{Tier: Tier2}, it)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x05), cm.msg.(*abi.AVC).SPSInfoFlags, "no extension support with dynamic DPB v2")
}

func TestHEVCFlagWords(t *testing.T) {
	t.Parallel()
	p := &HEVCParams{NumBitsForStRefPicSetInSlice: 12, RefPic: true}
	p.SPS.AMPEnabled = true
	p.PPS.Tiles = true
	p.PPS.SliceHeaderExtension = true
	p.BitDepthLumaMinus8 = 2

	msg := buildCodec[abi.HEVC](t, nil, p, make([]byte, abi.SizeHEVCITS))
	assert.Equal(t, uint32(0x802), msg.SPSInfoFlags)
	assert.Equal(t, uint32(0x80800), msg.PPSInfoFlags)
	assert.Equal(t, uint32(12), msg.StRPSBits)
	assert.Equal(t, uint8(0xff), msg.HighestTid)
	assert.Zero(t, msg.IsNonRef)
	assert.Equal(t, uint8(1), msg.P010Mode)
}

func TestVC1FlagWords(t *testing.T) {
	t.Parallel()
	p := &VC1Params{
		Profile:       VC1ProfileAdvanced,
		Level:         3,
		Interlace:     true,
		PSF:           true,
		RangeMapYFlag: true,
		RangeMapY:     5,
		MaxBFrames:    7,
		Quantizer:     3,
		DQuant:        2,
		VSTransform:   true,
	}
	msg := buildCodec[abi.VC1](t, nil, p, nil)
	assert.Equal(t, uint32(0x22), msg.SPSInfoFlags)
	assert.Equal(t, uint32(0xd0070605), msg.PPSInfoFlags)
	assert.Equal(t, uint32(1), msg.ChromaFormat)
	assert.Equal(t, uint32(VC1ProfileAdvanced), msg.Profile)
	assert.Equal(t, uint32(3), msg.Level)
}

func TestMPEG2Message(t *testing.T) {
	t.Parallel()
	p := &MPEG2Params{
		LoadIntraQuantiserMatrix: true,
		PictureCodingType:        2,
		FCode:                    [2][2]uint8{{1, 2}, {3, 4}},
		PicStructure:             3,
		AlternateScan:            true,
	}
	p.IntraQuantiserMatrix[63] = 83

	msg := buildCodec[abi.MPEG2](t, nil, p, nil)
	assert.Equal(t, uint8(1), msg.LoadIntraQuantiserMatrix)
	assert.Zero(t, msg.LoadNonintraQuantiserMatrix)
	assert.Equal(t, uint8(83), msg.IntraQuantiserMatrix[63])
	assert.Equal(t, [2][2]uint8{{1, 2}, {3, 4}}, msg.FCode)
	assert.Equal(t, uint8(1), msg.ChromaFormat)
	assert.Equal(t, uint8(1), msg.AlternateScan)
	assert.Nil(t, p.refIDs())
}

func TestVP9Segment(t *testing.T) {
	t.Parallel()
	p := &VP9Params{RefFrames: [3]uint32{1, 2, 3}, RefFrameSignBias: [4]uint32{0, 0, 1, 1}}
	p.Segmentation.Enabled = true
	p.Segmentation.AbsDelta = true
	p.Segmentation.FeatureMask[0] = 0x3
	p.Segmentation.FeatureData[0] = [4]int16{-2, 3, 1, 2}
	p.Segmentation.TreeProbs[6] = 200

	it := make([]byte, abi.SizeVP9ProbsSegment)
	msg := buildCodec[abi.VP9](t, nil, p, it)
	assert.Equal(t, uint32(1<<8), msg.FrameHeaderFlags)
	assert.Equal(t, [3]uint8{1, 2, 3}, msg.FrameRefs)
	assert.Equal(t, [3]uint8{0, 1, 1}, msg.RefFrameSignBias)

	var seg abi.VP9Segment
	require.NoError(t, abi.Get(it, abi.VP9ProbsDataSize, &seg))
	assert.Equal(t, uint32(0x2103fffe), seg.FeatureData[0])
	assert.Equal(t, uint8(0x3), seg.FeatureMask[0])
	assert.Equal(t, uint8(200), seg.TreeProbs[6])
	assert.Equal(t, uint8(1), seg.AbsDelta)
}

func TestVP9BitDepth(t *testing.T) {
	t.Parallel()
	_, err := (&VP9Params{BitDepthChromaMinus8: 3}).build(nil, &DecodeCmd{}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedParameters)

	msg := buildCodec[abi.VP9](t, nil, &VP9Params{BitDepthLumaMinus8: 2, BitDepthChromaMinus8: 2}, nil)
	assert.Equal(t, uint8(1), msg.P010Mode)
	assert.Equal(t, uint8(1), msg.MSBMode)
}

func TestVP9LoopFilterLevels(t *testing.T) {
	t.Parallel()

	t.Run("deltas disabled", func(t *testing.T) {
		lf := &VP9LoopFilter{Level: 20}
		out := vp9LoopFilterLevels(lf, &VP9Segmentation{})
		for s := range out {
			assert.Equal(t, uint8(20), out[s][0][0])
			assert.Zero(t, out[s][0][1])
			for ref := 1; ref < 4; ref++ {
				assert.Equal(t, [2]uint8{20, 20}, out[s][ref])
			}
		}
	})

	t.Run("deltas scaled by level", func(t *testing.T) {
		lf := &VP9LoopFilter{Level: 40, ModeRefDeltaEnabled: true}
		lf.RefDeltas = [4]int8{1, -10, 0, 0}
		lf.ModeDeltas = [2]int8{0, 5}
		out := vp9LoopFilterLevels(lf, &VP9Segmentation{})
		assert.Equal(t, uint8(42), out[0][0][0])
		assert.Equal(t, uint8(20), out[0][1][0])
		assert.Equal(t, uint8(30), out[0][1][1])
		assert.Equal(t, uint8(50), out[0][2][1])
	})

	t.Run("segment override", func(t *testing.T) {
		seg := &VP9Segmentation{AbsDelta: true}
		seg.FeatureMask[3] = 1 << VP9SegLevelAltLF
		seg.FeatureData[3][VP9SegLevelAltLF] = 70
		seg.FeatureMask[4] = 1 << VP9SegLevelAltLF
		seg.FeatureData[4][VP9SegLevelAltLF] = 9
		out := vp9LoopFilterLevels(&VP9LoopFilter{Level: 30}, seg)
		assert.Equal(t, uint8(63), out[3][1][1])
		assert.Equal(t, uint8(9), out[4][1][1])
		assert.Equal(t, uint8(30), out[5][1][1])
	})

	t.Run("always in range", func(t *testing.T) {
		for _, level := range []uint8{0, 1, 31, 32, 63} {
			for _, delta := range []int8{-63, -1, 0, 1, 63} {
				lf := &VP9LoopFilter{Level: level, ModeRefDeltaEnabled: true}
				lf.RefDeltas = [4]int8{delta, delta, -delta, delta}
				lf.ModeDeltas = [2]int8{delta, -delta}
				seg := &VP9Segmentation{}
				seg.FeatureMask[1] = 1 << VP9SegLevelAltLF
				seg.FeatureData[1][VP9SegLevelAltLF] = int16(delta) * 2
				for _, s := range vp9LoopFilterLevels(lf, seg) {
					for _, r := range s {
						for _, v := range r {
							require.LessOrEqual(t, v, uint8(vp9MaxLoopFilter))
						}
					}
				}
			}
		}
	})
}

func TestAV1RejectsNon420(t *testing.T) {
	t.Parallel()
	p := av1Params()
	p.Color.SubsamplingY = false
	_, err := p.build(nil, &DecodeCmd{}, make([]byte, abi.SizeAV1SegmentFG))
	assert.ErrorIs(t, err, ErrUnsupportedParameters)
}

func TestAV1FrameHeaderFlags(t *testing.T) {
	t.Parallel()
	p := &AV1Params{}
	assert.Equal(t, uint32(0xc0000104), p.frameHeaderFlags())

	p.Pic.ShowFrame = true
	p.Pic.DisableFrameEndUpdateCDF = true
	p.Pic.RefFrameUpdate = true
	p.Pic.EnableRefFrameMVs = true
	p.Quantization.QmY = 0xff
	p.FrameType = AV1IntraOnlyFrame
	p.OrderHintBits = 7
	p.Segmentation.Enabled = true
	assert.Equal(t, uint32(1|1<<3|1<<15|1<<25), p.frameHeaderFlags())
}

func TestAV1Message(t *testing.T) {
	t.Parallel()
	p := av1Params()
	p.BitDepth = 10
	p.Pic.UseSuperres = true
	p.SuperresDenom = 16
	p.Pic.ReferenceSelect = true
	p.Pic.Use128x128Superblock = true
	p.Quantization.DeltaQRes = 2
	p.LoopFilter.Level = [4]uint8{1, 2, 3, 4}
	p.CDEF.DampingMinus3 = 2
	p.CDEF.YPriStrength[0] = 5
	p.CDEF.YSecStrength[0] = 6
	p.RefFrames[6].RefID = 4
	p.RefFrames[6].SignBias = 1
	p.Tiles.Offset[1], p.Tiles.Size[1] = 100, 200
	p.Segmentation.FeatureMask[2] = 0x81

	it := make([]byte, abi.SizeAV1SegmentFG)
	msg := buildCodec[abi.AV1](t, nil, p, it)
	assert.Equal(t, uint32(960), msg.Width)
	assert.Equal(t, uint32(1920), msg.SuperresUpscaledWidth)
	assert.Equal(t, uint8(16), msg.SuperresScaleDenominator)
	assert.Equal(t, uint8(2), msg.ReferenceMode)
	assert.Equal(t, uint8(1), msg.ChromaFormat)
	assert.Equal(t, uint8(1), msg.SbSize)
	assert.Equal(t, uint8(4), msg.DeltaQRes)
	assert.Equal(t, uint8(1), msg.DeltaLfRes)
	assert.Equal(t, [2]uint8{1, 2}, msg.FilterLevel)
	assert.Equal(t, uint8(4), msg.FilterLevelV)
	assert.Equal(t, uint8(0xff), msg.TileSizeBytes)
	assert.Equal(t, uint8(2), msg.BitDepthLumaMinus8)
	assert.Equal(t, uint8(1), msg.P010Mode)
	assert.Equal(t, uint8(5), msg.CdefDamping)
	assert.Equal(t, uint8(22), msg.CdefStrengths[0])
	assert.Equal(t, uint8(4), msg.FrameRefs[6])
	assert.Equal(t, uint8(1), msg.RefFrameSignBias[6])
	assert.Equal(t, abi.AV1TileInfo{Offset: 100, Size: 200}, msg.TileInfo[1])
	assert.Zero(t, msg.FilmGrain.ApplyGrain)

	var seg abi.AV1Segment
	require.NoError(t, abi.Get(it, 0, &seg))
	assert.Equal(t, uint8(0x81), seg.FeatureMask[2], "segment block is written even when segmentation is off")

	p.SuperresDenom = 0
	_, err := p.build(nil, &DecodeCmd{}, it)
	assert.ErrorIs(t, err, ErrUnsupportedParameters)
}

func TestAV1Segments(t *testing.T) {
	t.Parallel()
	p := av1Params()
	p.Segmentation.Enabled = true
	p.Segmentation.FeatureMask[2] = 1
	p.Segmentation.FeatureData[2][0] = 5
	p.Segmentation.FeatureMask[5] = 1 << 6
	p.Segmentation.FeatureMask[3] = 1
	p.Segmentation.FeatureData[3][0] = -40

	var msg abi.AV1
	p.segments(&msg)
	assert.Equal(t, uint8(0xfb), msg.SegLosslessFlag, "segment 3 clamps back to qindex 0")
	assert.Equal(t, uint8(5), msg.LastActiveSegID)
	assert.Equal(t, uint8(1), msg.PreskipSegID)
	assert.Equal(t, int16(5), msg.FeatureData[2][0])

	p.Quantization.DeltaQUAc = 1
	msg = abi.AV1{}
	p.segments(&msg)
	assert.Zero(t, msg.SegLosslessFlag)

	p.Quantization.DeltaQUAc = 0
	p.Quantization.BaseQIdx = 10
	p.Segmentation.Enabled = false
	msg = abi.AV1{}
	p.segments(&msg)
	assert.Zero(t, msg.SegLosslessFlag, "disabled segmentation uses the base qindex")
}

func TestAV1FilmGrain(t *testing.T) {
	t.Parallel()
	d := newTestDecoder(t, VCN400, sessionFor(CodecAV1))
	p := av1Params()
	g := &p.FilmGrain
	g.ApplyGrain = true
	g.GrainSeed = 0x1234
	g.GrainScalingMinus8 = 3
	g.ARCoeffShiftMinus6 = 1
	g.ARCoeffLag = 3
	g.NumYPoints = 2
	g.PointYValue[0], g.PointYScaling[0] = 0, 40
	g.PointYValue[1], g.PointYScaling[1] = 255, 80
	for i := range g.ARCoeffsYPlus128 {
		g.ARCoeffsYPlus128[i] = 128
	}
	for i := range g.ARCoeffsCbPlus128 {
		g.ARCoeffsCbPlus128[i] = 128
		g.ARCoeffsCrPlus128[i] = 128
	}
	g.ARCoeffsYPlus128[0] = 130
	g.ARCoeffsCbPlus128[24] = 0

	it := make([]byte, abi.SizeAV1SegmentFG)
	msg := buildCodec[abi.AV1](t, d, p, it)
	fg := msg.FilmGrain
	assert.Equal(t, uint8(1), fg.ApplyGrain)
	assert.Equal(t, uint16(0x1234), fg.RandomSeed)
	assert.Equal(t, uint8(11), fg.ScalingShift)
	assert.Equal(t, uint8(7), fg.ARCoeffShift)
	assert.Equal(t, uint8(2), fg.NumYPoints)
	assert.Equal(t, [2]uint8{255, 80}, fg.ScalingPointsY[1])
	assert.Equal(t, int8(2), fg.ARCoeffsY[0])
	assert.Equal(t, int8(-128), fg.ARCoeffsCb[24])

	var buf abi.FilmGrainBuffer
	require.NoError(t, abi.Get(it, abi.SizeAV1Segment, &buf))
	assert.Equal(t, int16(40), buf.ScalingLUTY[0])
	assert.Equal(t, int16(80), buf.ScalingLUTY[255])

	g.NumYPoints, g.NumCbPoints = 20, 11
	var clamped abi.FilmGrainParams
	p.filmGrainParams(&clamped)
	assert.Equal(t, uint8(14), clamped.NumYPoints)
	assert.Equal(t, uint8(10), clamped.NumCbPoints)

	bare, err := NewDecoder(VCN400, sessionFor(CodecAV1), Config{Log: quietLog})
	require.NoError(t, err)
	defer bare.Close()
	_, err = p.build(bare, &DecodeCmd{}, it)
	assert.ErrorIs(t, err, ErrNoTables)
}

func TestAV1UniformTileStarts(t *testing.T) {
	t.Parallel()
	ti := &AV1TileInfo{TileCols: 4, TileRows: 2}
	ti.UniformStarts(1920, 1080, false)
	assert.Equal(t, []uint16{0, 8, 16, 24, 30}, ti.ColStartSB[:5])
	assert.Equal(t, []uint16{0, 9, 17}, ti.RowStartSB[:3])

	ti = &AV1TileInfo{TileCols: 1, TileRows: 1}
	ti.UniformStarts(4096, 2176, true)
	assert.Equal(t, []uint16{0, 32}, ti.ColStartSB[:2])
	assert.Equal(t, []uint16{0, 17}, ti.RowStartSB[:2])

	ti = &AV1TileInfo{}
	ti.UniformStarts(1920, 1080, false)
	assert.Equal(t, [65]uint16{}, ti.ColStartSB)
}

func TestAV1ExplicitTileStarts(t *testing.T) {
	t.Parallel()
	ti := &AV1TileInfo{TileCols: 2, TileRows: 3}
	ti.WidthInSBsMinus1[0], ti.WidthInSBsMinus1[1] = 9, 19
	ti.HeightInSBsMinus1[0], ti.HeightInSBsMinus1[1], ti.HeightInSBsMinus1[2] = 0, 4, 11
	ti.ExplicitStarts()
	assert.Equal(t, []uint16{0, 10, 30}, ti.ColStartSB[:3])
	assert.Equal(t, []uint16{0, 1, 6, 18}, ti.RowStartSB[:4])
}

func TestFillUnusedSlots(t *testing.T) {
	t.Parallel()
	ids := make([]uint32, 8)
	copy(ids, []uint32{0, 2, 5})
	n := FillUnusedSlots(ids, 3, 1, AV1Slots)
	assert.Equal(t, 8, n)
	assert.Equal(t, []uint32{0, 2, 5, 3, 4, 6, 7, 8}, ids)

	ids = make([]uint32, 8)
	n = FillUnusedSlots(ids, 0, 0, 4)
	assert.Equal(t, 3, n, "only three free slots below 4")
	assert.Equal(t, []uint32{1, 2, 3}, ids[:n])

	ids = []uint32{7, 7}
	assert.Equal(t, 2, FillUnusedSlots(ids, 5, 0, VP9Slots), "n is clamped to the list")
}

func TestCodecOfParams(t *testing.T) {
	t.Parallel()
	for want, p := range map[Codec]CodecParams{
		CodecAVC:   &AVCParams{},
		CodecHEVC:  &HEVCParams{},
		CodecVP9:   &VP9Params{},
		CodecAV1:   &AV1Params{},
		CodecMPEG2: &MPEG2Params{},
		CodecVC1:   &VC1Params{},
	} {
		assert.Equal(t, want, p.Codec())
	}
	assert.Len(t, (&AV1Params{}).refIDs(), 8)
	assert.Len(t, (&HEVCParams{}).refIDs(), 15)
	assert.Len(t, (&AVCParams{}).refIDs(), 16)
}
