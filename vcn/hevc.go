package vcn

import (
	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/bitfield"
)

// HEVCSPSFlags are the sequence parameter set flags used by the decoder.
type HEVCSPSFlags struct {
	SeparateColourPlane    bool
	ScalingListEnabled     bool
	AMPEnabled             bool
	SampleAdaptiveOffset   bool
	PCMEnabled             bool
	PCMLoopFilterDisabled  bool
	LongTermRefPicsPresent bool
	TemporalMVPEnabled     bool
	StrongIntraSmoothing   bool
}

// HEVCPPSFlags are the picture parameter set flags.
type HEVCPPSFlags struct {
	DependentSliceSegments   bool
	OutputFlagPresent        bool
	SignDataHiding           bool
	CABACInitPresent         bool
	ConstrainedIntraPred     bool
	TransformSkip            bool
	CuQPDelta                bool
	SliceChromaQPOffsets     bool
	WeightedPred             bool
	WeightedBipred           bool
	TransquantBypass         bool
	Tiles                    bool
	EntropyCodingSync        bool
	UniformSpacing           bool
	LoopFilterAcrossTiles    bool
	LoopFilterAcrossSlices   bool
	DeblockingFilterOverride bool
	DeblockingFilterDisabled bool
	ListsModificationPresent bool
	SliceHeaderExtension     bool
}

// HEVCParams is the per-frame H.265 parameter set.
type HEVCParams struct {
	SPS HEVCSPSFlags
	PPS HEVCPPSFlags

	IRAPPic bool
	IDRPic  bool
	RefPic  bool

	SPSMaxDecPicBufferingMinus1          uint8
	ChromaFormatIdc                      uint8
	BitDepthLumaMinus8                   uint8
	BitDepthChromaMinus8                 uint8
	Log2MaxPicOrderCntLsbMinus4          uint8
	Log2MinLumaCodingBlockSizeMinus3     uint8
	Log2DiffMaxMinLumaCodingBlockSize    uint8
	Log2MinTransformBlockSizeMinus2      uint8
	Log2DiffMaxMinTransformBlockSize     uint8
	MaxTransformHierarchyDepthInter      uint8
	MaxTransformHierarchyDepthIntra      uint8
	PCMSampleBitDepthLumaMinus1          uint8
	PCMSampleBitDepthChromaMinus1        uint8
	Log2MinPCMLumaCodingBlockSizeMinus3  uint8
	Log2DiffMaxMinPCMLumaCodingBlockSize uint8
	NumExtraSliceHeaderBits              uint8
	InitQPMinus26                        int8
	DiffCuQPDeltaDepth                   uint8
	PPSCbQPOffset                        int8
	PPSCrQPOffset                        int8
	PPSBetaOffsetDiv2                    int8
	PPSTcOffsetDiv2                      int8
	Log2ParallelMergeLevelMinus2         uint8
	NumTileColumnsMinus1                 uint8
	NumTileRowsMinus1                    uint8
	ColumnWidthMinus1                    [19]uint16
	RowHeightMinus1                      [21]uint16

	ScalingList4x4         [6][16]uint8
	ScalingList8x8         [6][64]uint8
	ScalingList16x16       [6][64]uint8
	ScalingList32x32       [2][64]uint8
	ScalingListDCCoef16x16 [6]uint8
	ScalingListDCCoef32x32 [2]uint8

	NumShortTermRefPicSets         uint8
	NumLongTermRefPicsSPS          uint8
	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	NumDeltaPocsOfRefRPSIdx        uint8
	NumBitsForStRefPicSetInSlice   uint16

	CurrPicID    uint32
	CurrPOC      int32
	RefPicIDList [15]uint32
	RefPOCList   [15]int32

	RefPicSetStCurrBefore [8]uint8
	RefPicSetStCurrAfter  [8]uint8
	RefPicSetLtCurr       [8]uint8
}

var hevcSPSTable = bitfield.Table{Name: "hevc.sps_info_flags", Fields: []bitfield.Field{
	bitfield.Bit("scaling_list_enabled", 0),
	bitfield.Bit("amp_enabled", 1),
	bitfield.Bit("sample_adaptive_offset", 2),
	bitfield.Bit("pcm_enabled", 3),
	bitfield.Bit("pcm_loop_filter_disabled", 4),
	bitfield.Bit("long_term_ref_pics_present", 5),
	bitfield.Bit("temporal_mvp_enabled", 6),
	bitfield.Bit("strong_intra_smoothing", 7),
	bitfield.Bit("separate_colour_plane", 8),
	bitfield.Bit("st_rps_bits_present", 11),
}}

var hevcPPSTable = bitfield.Table{Name: "hevc.pps_info_flags", Fields: []bitfield.Field{
	bitfield.Bit("dependent_slice_segments", 0),
	bitfield.Bit("output_flag_present", 1),
	bitfield.Bit("sign_data_hiding", 2),
	bitfield.Bit("cabac_init_present", 3),
	bitfield.Bit("constrained_intra_pred", 4),
	bitfield.Bit("transform_skip", 5),
	bitfield.Bit("cu_qp_delta", 6),
	bitfield.Bit("slice_chroma_qp_offsets", 7),
	bitfield.Bit("weighted_pred", 8),
	bitfield.Bit("weighted_bipred", 9),
	bitfield.Bit("transquant_bypass", 10),
	bitfield.Bit("tiles", 11),
	bitfield.Bit("entropy_coding_sync", 12),
	bitfield.Bit("uniform_spacing", 13),
	bitfield.Bit("loop_filter_across_tiles", 14),
	bitfield.Bit("loop_filter_across_slices", 15),
	bitfield.Bit("deblocking_filter_override", 16),
	bitfield.Bit("deblocking_filter_disabled", 17),
	bitfield.Bit("lists_modification_present", 18),
	bitfield.Bit("slice_header_extension", 19),
}}

func (p *HEVCParams) Codec() Codec { return CodecHEVC }

func (p *HEVCParams) refIDs() []uint32 { return p.RefPicIDList[:] }

func (p *HEVCParams) build(d *Decoder, cmd *DecodeCmd, it []byte) (codecMessage, error) {
	sps := hevcSPSTable.New().
		SetBool("scaling_list_enabled", p.SPS.ScalingListEnabled).
		SetBool("amp_enabled", p.SPS.AMPEnabled).
		SetBool("sample_adaptive_offset", p.SPS.SampleAdaptiveOffset).
		SetBool("pcm_enabled", p.SPS.PCMEnabled).
		SetBool("pcm_loop_filter_disabled", p.SPS.PCMLoopFilterDisabled).
		SetBool("long_term_ref_pics_present", p.SPS.LongTermRefPicsPresent).
		SetBool("temporal_mvp_enabled", p.SPS.TemporalMVPEnabled).
		SetBool("strong_intra_smoothing", p.SPS.StrongIntraSmoothing).
		SetBool("separate_colour_plane", p.SPS.SeparateColourPlane).
		SetBool("st_rps_bits_present", p.NumBitsForStRefPicSetInSlice != 0)

	f := &p.PPS
	pps := hevcPPSTable.New()
	for name, v := range map[string]bool{
		"dependent_slice_segments":   f.DependentSliceSegments,
		"output_flag_present":        f.OutputFlagPresent,
		"sign_data_hiding":           f.SignDataHiding,
		"cabac_init_present":         f.CABACInitPresent,
		"constrained_intra_pred":     f.ConstrainedIntraPred,
		"transform_skip":             f.TransformSkip,
		"cu_qp_delta":                f.CuQPDelta,
		"slice_chroma_qp_offsets":    f.SliceChromaQPOffsets,
		"weighted_pred":              f.WeightedPred,
		"weighted_bipred":            f.WeightedBipred,
		"transquant_bypass":          f.TransquantBypass,
		"tiles":                      f.Tiles,
		"entropy_coding_sync":        f.EntropyCodingSync,
		"uniform_spacing":            f.UniformSpacing,
		"loop_filter_across_tiles":   f.LoopFilterAcrossTiles,
		"loop_filter_across_slices":  f.LoopFilterAcrossSlices,
		"deblocking_filter_override": f.DeblockingFilterOverride,
		"deblocking_filter_disabled": f.DeblockingFilterDisabled,
		"lists_modification_present": f.ListsModificationPresent,
		"slice_header_extension":     f.SliceHeaderExtension,
	} {
		pps.SetBool(name, v)
	}

	msg := &abi.HEVC{
		SPSInfoFlags: sps.Value(),
		PPSInfoFlags: pps.Value(),

		ChromaFormat:                         p.ChromaFormatIdc,
		BitDepthLumaMinus8:                   p.BitDepthLumaMinus8,
		BitDepthChromaMinus8:                 p.BitDepthChromaMinus8,
		Log2MaxPicOrderCntLsbMinus4:          p.Log2MaxPicOrderCntLsbMinus4,
		SPSMaxDecPicBufferingMinus1:          p.SPSMaxDecPicBufferingMinus1,
		Log2MinLumaCodingBlockSizeMinus3:     p.Log2MinLumaCodingBlockSizeMinus3,
		Log2DiffMaxMinLumaCodingBlockSize:    p.Log2DiffMaxMinLumaCodingBlockSize,
		Log2MinTransformBlockSizeMinus2:      p.Log2MinTransformBlockSizeMinus2,
		Log2DiffMaxMinTransformBlockSize:     p.Log2DiffMaxMinTransformBlockSize,
		MaxTransformHierarchyDepthInter:      p.MaxTransformHierarchyDepthInter,
		MaxTransformHierarchyDepthIntra:      p.MaxTransformHierarchyDepthIntra,
		PCMSampleBitDepthLumaMinus1:          p.PCMSampleBitDepthLumaMinus1,
		PCMSampleBitDepthChromaMinus1:        p.PCMSampleBitDepthChromaMinus1,
		Log2MinPCMLumaCodingBlockSizeMinus3:  p.Log2MinPCMLumaCodingBlockSizeMinus3,
		Log2DiffMaxMinPCMLumaCodingBlockSize: p.Log2DiffMaxMinPCMLumaCodingBlockSize,
		NumExtraSliceHeaderBits:              p.NumExtraSliceHeaderBits,
		NumShortTermRefPicSets:               p.NumShortTermRefPicSets,
		NumLongTermRefPicSPS:                 p.NumLongTermRefPicsSPS,
		NumRefIdxL0DefaultActiveMinus1:       p.NumRefIdxL0DefaultActiveMinus1,
		NumRefIdxL1DefaultActiveMinus1:       p.NumRefIdxL1DefaultActiveMinus1,
		PPSCbQpOffset:                        p.PPSCbQPOffset,
		PPSCrQpOffset:                        p.PPSCrQPOffset,
		PPSBetaOffsetDiv2:                    p.PPSBetaOffsetDiv2,
		PPSTcOffsetDiv2:                      p.PPSTcOffsetDiv2,
		DiffCuQpDeltaDepth:                   p.DiffCuQPDeltaDepth,
		NumTileColumnsMinus1:                 p.NumTileColumnsMinus1,
		NumTileRowsMinus1:                    p.NumTileRowsMinus1,
		Log2ParallelMergeLevelMinus2:         p.Log2ParallelMergeLevelMinus2,
		ColumnWidthMinus1:                    p.ColumnWidthMinus1,
		RowHeightMinus1:                      p.RowHeightMinus1,
		InitQpMinus26:                        p.InitQPMinus26,
		NumDeltaPocsRefRPSIdx:                p.NumDeltaPocsOfRefRPSIdx,
		CurrIdx:                              uint8(p.CurrPicID),
		CurrPOC:                              p.CurrPOC,
		RefPicSetStCurrBefore:                p.RefPicSetStCurrBefore,
		RefPicSetStCurrAfter:                 p.RefPicSetStCurrAfter,
		RefPicSetLtCurr:                      p.RefPicSetLtCurr,
		ScalingListDCCoefSizeID2:             p.ScalingListDCCoef16x16,
		ScalingListDCCoefSizeID3:             p.ScalingListDCCoef32x32,
		HighestTid:                           0xff,
		IsNonRef:                             uint8(bitfield.Bool(!p.RefPic)),
		StRPSBits:                            uint32(p.NumBitsForStRefPicSetInSlice),
	}
	if p.BitDepthLumaMinus8 != 0 || p.BitDepthChromaMinus8 != 0 {
		msg.P010Mode = 1
		msg.MSBMode = 1
	}
	for i := range p.RefPicIDList {
		msg.RefPicList[i] = uint8(p.RefPicIDList[i])
		msg.POCList[i] = p.RefPOCList[i]
	}

	its := abi.HEVCITS{
		ScalingList4x4:   p.ScalingList4x4,
		ScalingList8x8:   p.ScalingList8x8,
		ScalingList16x16: p.ScalingList16x16,
		ScalingList32x32: p.ScalingList32x32,
	}
	if _, err := abi.Put(it, 0, its); err != nil {
		return codecMessage{}, err
	}
	return codecMessage{id: abi.MessageHEVC, msg: msg}, nil
}
