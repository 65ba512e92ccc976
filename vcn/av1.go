package vcn

import (
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/bitfield"
	"github.com/sailfishos-mirror/mesa-sub000/internal/filmgrain"
)

// AV1 frame types.
const (
	AV1KeyFrame       = 0
	AV1InterFrame     = 1
	AV1IntraOnlyFrame = 2
	AV1SwitchFrame    = 3
)

// AV1RefFrame is one of the seven named references of a frame.
type AV1RefFrame struct {
	Width    uint32
	Height   uint32
	RefID    uint32
	SignBias uint8
}

// AV1PicFlags are the sequence and frame header flags of a picture.
type AV1PicFlags struct {
	Use128x128Superblock     bool
	EnableFilterIntra        bool
	EnableIntraEdgeFilter    bool
	EnableInterintraCompound bool
	EnableMaskedCompound     bool
	EnableDualFilter         bool
	EnableJntComp            bool
	EnableRefFrameMVs        bool
	EnableCDEF               bool
	EnableRestoration        bool
	FilmGrainParamsPresent   bool
	DisableCDFUpdate         bool
	UseSuperres              bool
	AllowScreenContentTools  bool
	ForceIntegerMV           bool
	AllowIntraBC             bool
	AllowHighPrecisionMV     bool
	IsMotionModeSwitchable   bool
	UseRefFrameMVs           bool
	DisableFrameEndUpdateCDF bool
	AllowWarpedMotion        bool
	ReducedTxSet             bool
	ReferenceSelect          bool
	SkipModePresent          bool
	ShowFrame                bool
	ShowableFrame            bool
	RefFrameUpdate           bool
}

// AV1ColorConfig is the color configuration of the sequence.
type AV1ColorConfig struct {
	MonoChrome   bool
	SubsamplingX bool
	SubsamplingY bool
}

// AV1LoopFilter is the loop filter section of the frame header.
type AV1LoopFilter struct {
	ModeRefDeltaEnabled bool
	ModeRefDeltaUpdate  bool
	DeltaLFMulti        bool
	DeltaLFPresent      bool
	Level               [4]uint8
	Sharpness           uint8
	RefDeltas           [8]int8
	ModeDeltas          [2]int8
	DeltaLFRes          uint8
}

// AV1Quantization is the quantization section of the frame header. A
// QmY of 0xff means quantizer matrices are off.
type AV1Quantization struct {
	DeltaQPresent bool
	DeltaQRes     uint8
	BaseQIdx      uint8
	DeltaQYDc     int8
	DeltaQUDc     int8
	DeltaQUAc     int8
	DeltaQVDc     int8
	DeltaQVAc     int8
	QmY           uint8
	QmU           uint8
	QmV           uint8
}

// AV1Segmentation is the segmentation section of the frame header.
type AV1Segmentation struct {
	Enabled        bool
	UpdateMap      bool
	TemporalUpdate bool
	UpdateData     bool
	FeatureMask    [8]uint8
	FeatureData    [8][8]int16
}

// AV1CDEF holds the CDEF strengths of the frame.
type AV1CDEF struct {
	DampingMinus3 uint8
	Bits          uint8
	YPriStrength  [8]uint8
	YSecStrength  [8]uint8
	UVPriStrength [8]uint8
	UVSecStrength [8]uint8
}

// AV1LoopRestoration holds the per-plane restoration setup.
type AV1LoopRestoration struct {
	FrameRestorationType      [3]uint8
	Log2RestorationSizeMinus5 [3]uint16
}

// AV1FilmGrain is the film grain section of the frame header. AR
// coefficients are carried with their +128 bias as coded.
type AV1FilmGrain struct {
	ApplyGrain            bool
	ChromaScalingFromLuma bool
	OverlapFlag           bool
	ClipToRestrictedRange bool
	GrainScalingMinus8    uint8
	ARCoeffLag            uint8
	ARCoeffShiftMinus6    uint8
	GrainScaleShift       uint8
	GrainSeed             uint16
	NumYPoints            uint8
	PointYValue           [14]uint8
	PointYScaling         [14]uint8
	NumCbPoints           uint8
	PointCbValue          [10]uint8
	PointCbScaling        [10]uint8
	NumCrPoints           uint8
	PointCrValue          [10]uint8
	PointCrScaling        [10]uint8
	ARCoeffsYPlus128      [24]uint8
	ARCoeffsCbPlus128     [25]uint8
	ARCoeffsCrPlus128     [25]uint8
	CbMult                uint8
	CbLumaMult            uint8
	CbOffset              uint16
	CrMult                uint8
	CrLumaMult            uint8
	CrOffset              uint16
}

// AV1TileInfo locates the tiles of the frame in superblocks and in the
// bitstream.
type AV1TileInfo struct {
	TileCols            uint8
	TileRows            uint8
	ContextUpdateTileID uint16
	ColStartSB          [65]uint16
	RowStartSB          [65]uint16
	WidthInSBsMinus1    [64]uint16
	HeightInSBsMinus1   [64]uint16
	Offset              [256]uint32
	Size                [256]uint32
}

// UniformStarts fills the start tables for uniform tile spacing over a
// frame of width x height samples.
func (t *AV1TileInfo) UniformStarts(width, height uint32, sb128 bool) {
	sb := uint32(64)
	if sb128 {
		sb = 128
	}
	sbw := (width + sb - 1) / sb
	sbh := (height + sb - 1) / sb
	fillUniform(t.ColStartSB[:], int(t.TileCols), sbw)
	fillUniform(t.RowStartSB[:], int(t.TileRows), sbh)
}

func fillUniform(starts []uint16, n int, total uint32) {
	n = min(n, len(starts)-1)
	if n <= 0 {
		return
	}
	step := (total + uint32(n) - 1) / uint32(n)
	starts[0] = 0
	for i := 1; i < n; i++ {
		starts[i] = starts[i-1] + uint16(step)
	}
	starts[n] = uint16(total)
}

// ExplicitStarts fills the start tables from the per-tile sizes.
func (t *AV1TileInfo) ExplicitStarts() {
	t.ColStartSB[0] = 0
	for i := range min(int(t.TileCols), len(t.WidthInSBsMinus1)) {
		t.ColStartSB[i+1] = t.ColStartSB[i] + t.WidthInSBsMinus1[i] + 1
	}
	t.RowStartSB[0] = 0
	for i := range min(int(t.TileRows), len(t.HeightInSBsMinus1)) {
		t.RowStartSB[i+1] = t.RowStartSB[i] + t.HeightInSBsMinus1[i] + 1
	}
}

// AV1Params is the per-frame AV1 parameter set.
type AV1Params struct {
	Width           uint32
	Height          uint32
	MaxWidth        uint32
	MaxHeight       uint32
	CurID           uint32
	SuperresDenom   uint8
	BitDepth        uint8
	SeqProfile      uint8
	TxMode          uint8
	FrameType       uint8
	PrimaryRefFrame uint8
	OrderHints      uint8
	OrderHintBits   uint8
	InterpFilter    uint8

	RefFrames      [7]AV1RefFrame
	RefFrameIDList [8]uint32

	Pic   AV1PicFlags
	Color AV1ColorConfig

	LoopFilter      AV1LoopFilter
	LoopRestoration AV1LoopRestoration
	Quantization    AV1Quantization
	Segmentation    AV1Segmentation
	CDEF            AV1CDEF
	FilmGrain       AV1FilmGrain
	Tiles           AV1TileInfo

	GMType   [8]uint8
	GMParams [8][6]int32
}

var av1FrameHeaderTable = bitfield.Table{Name: "av1.frame_header_flags", Fields: []bitfield.Field{
	bitfield.Bit("show_frame", 0),
	bitfield.Bit("disable_cdf_update", 1),
	bitfield.Bit("refresh_frame_context", 2),
	bitfield.Bit("intra_only", 3),
	bitfield.Bit("allow_intrabc", 4),
	bitfield.Bit("allow_high_precision_mv", 5),
	bitfield.Bit("monochrome", 6),
	bitfield.Bit("skip_mode", 7),
	bitfield.Bit("using_qmatrix", 8),
	bitfield.Bit("enable_filter_intra", 9),
	bitfield.Bit("enable_intra_edge_filter", 10),
	bitfield.Bit("enable_interintra_compound", 11),
	bitfield.Bit("enable_masked_compound", 12),
	bitfield.Bit("allow_warped_motion", 13),
	bitfield.Bit("enable_dual_filter", 14),
	bitfield.Bit("enable_order_hint", 15),
	bitfield.Bit("enable_jnt_comp", 16),
	bitfield.Bit("allow_ref_frame_mvs", 17),
	bitfield.Bit("allow_screen_content_tools", 18),
	bitfield.Bit("force_integer_mv", 19),
	bitfield.Bit("mode_ref_delta_enabled", 20),
	bitfield.Bit("mode_ref_delta_update", 21),
	bitfield.Bit("delta_q_present", 22),
	bitfield.Bit("delta_lf_present", 23),
	bitfield.Bit("reduced_tx_set_used", 24),
	bitfield.Bit("segmentation_enabled", 25),
	bitfield.Bit("segmentation_update_map", 26),
	bitfield.Bit("segmentation_temporal_update", 27),
	bitfield.Bit("delta_lf_multi", 28),
	bitfield.Bit("switchable_skip_mode", 29),
	bitfield.Bit("skip_reference_update", 30),
	bitfield.Bit("disable_ref_frame_mvs", 31),
}}

func (p *AV1Params) Codec() Codec { return CodecAV1 }

func (p *AV1Params) refIDs() []uint32 { return p.RefFrameIDList[:] }

func (p *AV1Params) frameHeaderFlags() uint32 {
	pf := &p.Pic
	lf := &p.LoopFilter
	seg := &p.Segmentation
	return av1FrameHeaderTable.New().
		SetBool("show_frame", pf.ShowFrame).
		SetBool("disable_cdf_update", pf.DisableCDFUpdate).
		SetBool("refresh_frame_context", !pf.DisableFrameEndUpdateCDF).
		SetBool("intra_only", p.FrameType == AV1IntraOnlyFrame).
		SetBool("allow_intrabc", pf.AllowIntraBC).
		SetBool("allow_high_precision_mv", pf.AllowHighPrecisionMV).
		SetBool("monochrome", p.Color.MonoChrome).
		SetBool("skip_mode", pf.SkipModePresent).
		SetBool("using_qmatrix", p.Quantization.QmY != 0xff).
		SetBool("enable_filter_intra", pf.EnableFilterIntra).
		SetBool("enable_intra_edge_filter", pf.EnableIntraEdgeFilter).
		SetBool("enable_interintra_compound", pf.EnableInterintraCompound).
		SetBool("enable_masked_compound", pf.EnableMaskedCompound).
		SetBool("allow_warped_motion", pf.AllowWarpedMotion).
		SetBool("enable_dual_filter", pf.EnableDualFilter).
		SetBool("enable_order_hint", p.OrderHintBits != 0).
		SetBool("enable_jnt_comp", pf.EnableJntComp).
		SetBool("allow_ref_frame_mvs", pf.UseRefFrameMVs).
		SetBool("allow_screen_content_tools", pf.AllowScreenContentTools).
		SetBool("force_integer_mv", pf.ForceIntegerMV).
		SetBool("mode_ref_delta_enabled", lf.ModeRefDeltaEnabled).
		SetBool("mode_ref_delta_update", lf.ModeRefDeltaUpdate).
		SetBool("delta_q_present", p.Quantization.DeltaQPresent).
		SetBool("delta_lf_present", lf.DeltaLFPresent).
		SetBool("reduced_tx_set_used", pf.ReducedTxSet).
		SetBool("segmentation_enabled", seg.Enabled).
		SetBool("segmentation_update_map", seg.UpdateMap).
		SetBool("segmentation_temporal_update", seg.TemporalUpdate).
		SetBool("delta_lf_multi", lf.DeltaLFMulti).
		SetBool("switchable_skip_mode", pf.IsMotionModeSwitchable).
		SetBool("skip_reference_update", !pf.RefFrameUpdate).
		SetBool("disable_ref_frame_mvs", !pf.EnableRefFrameMVs).
		Value()
}

func (p *AV1Params) build(d *Decoder, cmd *DecodeCmd, it []byte) (codecMessage, error) {
	if !p.Color.SubsamplingX || !p.Color.SubsamplingY {
		return codecMessage{}, fmt.Errorf("%w: av1 supports 4:2:0 only", ErrUnsupportedParameters)
	}
	if p.Pic.UseSuperres && p.SuperresDenom == 0 {
		return codecMessage{}, fmt.Errorf("%w: av1 superres with zero denominator", ErrUnsupportedParameters)
	}

	q := &p.Quantization
	lf := &p.LoopFilter
	msg := &abi.AV1{
		FrameHeaderFlags: p.frameHeaderFlags(),
		FrameOffset:      uint32(p.OrderHints),
		Profile:          p.SeqProfile,
		FrameType:        p.FrameType,
		PrimaryRefFrame:  p.PrimaryRefFrame,
		CurrPicIdx:       uint8(p.CurID),
		SbSize:           uint8(bitfield.Bool(p.Pic.Use128x128Superblock)),
		InterpFilter:     p.InterpFilter,
		FilterLevel:      [2]uint8{lf.Level[0], lf.Level[1]},
		FilterLevelU:     lf.Level[2],
		FilterLevelV:     lf.Level[3],
		SharpnessLevel:   lf.Sharpness,
		RefDeltas:        lf.RefDeltas,
		ModeDeltas:       lf.ModeDeltas,
		BaseQindex:       q.BaseQIdx,
		YDcDeltaQ:        q.DeltaQYDc,
		UDcDeltaQ:        q.DeltaQUDc,
		VDcDeltaQ:        q.DeltaQVDc,
		UAcDeltaQ:        q.DeltaQUAc,
		VAcDeltaQ:        q.DeltaQVAc,
		QmY:              q.QmY,
		QmU:              q.QmU,
		QmV:              q.QmV,
		DeltaQRes:        1 << q.DeltaQRes,
		DeltaLfRes:       1 << lf.DeltaLFRes,
		TileCols:         p.Tiles.TileCols,
		TileRows:         p.Tiles.TileRows,
		TxMode:           p.TxMode,
		TileSizeBytes:    0xff,

		ContextUpdateTileID: uint32(p.Tiles.ContextUpdateTileID),
		TileColStartSb:      p.Tiles.ColStartSB,
		TileRowStartSb:      p.Tiles.RowStartSB,

		MaxWidth:                 p.MaxWidth,
		MaxHeight:                p.MaxHeight,
		Width:                    p.Width,
		Height:                   p.Height,
		SuperresUpscaledWidth:    p.Width,
		SuperresScaleDenominator: p.SuperresDenom,
		OrderHintBits:            p.OrderHintBits,
		BitDepthLumaMinus8:       p.BitDepth - 8,
		BitDepthChromaMinus8:     p.BitDepth - 8,
	}
	if p.Pic.ReferenceSelect {
		msg.ReferenceMode = 2
	}
	if !p.Color.MonoChrome {
		msg.ChromaFormat = 1
	}
	if p.Pic.UseSuperres {
		denom := uint32(p.SuperresDenom)
		msg.Width = (p.Width*8 + denom/2) / denom
	}
	if p.BitDepth > 8 {
		msg.P010Mode = 1
		msg.MSBMode = 1
	}

	for i := range 8 {
		msg.RefFrameMap[i] = uint8(p.RefFrameIDList[i])
		msg.GlobalMotion[i].WMType = p.GMType[i]
		msg.GlobalMotion[i].WMMat = p.GMParams[i]
	}
	for i, r := range p.RefFrames {
		msg.FrameRefs[i] = uint8(r.RefID)
		msg.RefFrameSignBias[i] = r.SignBias
	}

	p.segments(msg)

	c := &p.CDEF
	msg.CdefDamping = c.DampingMinus3 + 3
	msg.CdefBits = c.Bits
	for i := range 8 {
		msg.CdefStrengths[i] = c.YPriStrength[i]<<2 | c.YSecStrength[i]&0x3
		msg.CdefUVStrengths[i] = c.UVPriStrength[i]<<2 | c.UVSecStrength[i]&0x3
	}
	msg.FrameRestorationType = p.LoopRestoration.FrameRestorationType
	msg.Log2RestorationUnitSizeMinus5 = p.LoopRestoration.Log2RestorationSizeMinus5

	for i := range msg.TileInfo {
		msg.TileInfo[i] = abi.AV1TileInfo{Offset: p.Tiles.Offset[i], Size: p.Tiles.Size[i]}
	}

	seg := abi.AV1Segment{
		FeatureMask: p.Segmentation.FeatureMask,
		FeatureData: p.Segmentation.FeatureData,
	}
	if _, err := abi.Put(it, 0, seg); err != nil {
		return codecMessage{}, err
	}

	msg.FilmGrain.ApplyGrain = uint8(bitfield.Bool(p.FilmGrain.ApplyGrain))
	if p.FilmGrain.ApplyGrain {
		p.filmGrainParams(&msg.FilmGrain)
		if err := d.synthesizeGrain(&msg.FilmGrain, it[abi.SizeAV1Segment:]); err != nil {
			return codecMessage{}, err
		}
	}
	return codecMessage{id: abi.MessageAV1, msg: msg}, nil
}

// segments derives the per-segment lossless flags and the active
// segment bookkeeping. A segment is lossless when its qindex and every
// DC/AC delta are zero.
func (p *AV1Params) segments(msg *abi.AV1) {
	q := &p.Quantization
	seg := &p.Segmentation
	noDeltas := q.DeltaQYDc == 0 && q.DeltaQUDc == 0 && q.DeltaQVDc == 0 &&
		q.DeltaQUAc == 0 && q.DeltaQVAc == 0

	for i := range 8 {
		qindex := int32(q.BaseQIdx)
		if seg.Enabled && seg.FeatureMask[i]&1 != 0 {
			qindex = min(max(qindex+int32(seg.FeatureData[i][0]), 0), 255)
		}
		if qindex == 0 && noDeltas {
			msg.SegLosslessFlag |= 1 << i
		}

		msg.FeatureMask[i] = seg.FeatureMask[i]
		msg.FeatureData[i] = seg.FeatureData[i]
		for j := range 8 {
			if seg.FeatureMask[i]&(1<<j) == 0 {
				continue
			}
			msg.LastActiveSegID = uint8(i)
			if j >= 5 {
				msg.PreskipSegID = 1
			}
		}
	}
}

func (p *AV1Params) filmGrainParams(fg *abi.FilmGrainParams) {
	g := &p.FilmGrain
	fg.RandomSeed = g.GrainSeed
	fg.GrainScaleShift = g.GrainScaleShift
	fg.ScalingShift = g.GrainScalingMinus8 + 8
	fg.ChromaScalingFromLuma = uint8(bitfield.Bool(g.ChromaScalingFromLuma))
	fg.NumYPoints = min(g.NumYPoints, uint8(len(g.PointYValue)))
	fg.NumCbPoints = min(g.NumCbPoints, uint8(len(g.PointCbValue)))
	fg.NumCrPoints = min(g.NumCrPoints, uint8(len(g.PointCrValue)))
	fg.CbMult = g.CbMult
	fg.CbLumaMult = g.CbLumaMult
	fg.CbOffset = g.CbOffset
	fg.CrMult = g.CrMult
	fg.CrLumaMult = g.CrLumaMult
	fg.CrOffset = g.CrOffset
	fg.BitDepthMinus8 = p.BitDepth - 8

	for i := range int(fg.NumYPoints) {
		fg.ScalingPointsY[i] = [2]uint8{g.PointYValue[i], g.PointYScaling[i]}
	}
	for i := range int(fg.NumCbPoints) {
		fg.ScalingPointsCb[i] = [2]uint8{g.PointCbValue[i], g.PointCbScaling[i]}
	}
	for i := range int(fg.NumCrPoints) {
		fg.ScalingPointsCr[i] = [2]uint8{g.PointCrValue[i], g.PointCrScaling[i]}
	}

	fg.ARCoeffLag = g.ARCoeffLag
	fg.ARCoeffShift = g.ARCoeffShiftMinus6 + 6
	for i, c := range g.ARCoeffsYPlus128 {
		fg.ARCoeffsY[i] = int8(c - 128)
	}
	for i := range g.ARCoeffsCbPlus128 {
		fg.ARCoeffsCb[i] = int8(g.ARCoeffsCbPlus128[i] - 128)
		fg.ARCoeffsCr[i] = int8(g.ARCoeffsCrPlus128[i] - 128)
	}
	fg.ClipToRestrictedRange = uint8(bitfield.Bool(g.ClipToRestrictedRange))
	fg.OverlapFlag = uint8(bitfield.Bool(g.OverlapFlag))
}

// synthesizeGrain writes the grain templates and scaling tables for fg
// into dst using the tiling of the session's AV1 interface.
func (d *Decoder) synthesizeGrain(fg *abi.FilmGrainParams, dst []byte) error {
	if d.gauss == nil {
		return fmt.Errorf("%w: film grain needs the gaussian sequence", ErrNoTables)
	}
	l := filmgrain.Padded
	if d.hw.av1 == abi.AV1Ver2 {
		l = filmgrain.Packed
	}
	buf, err := filmgrain.Synthesize(fg, d.gauss, l)
	if err != nil {
		return err
	}
	_, err = abi.Put(dst, 0, buf)
	return err
}
