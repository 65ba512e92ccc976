package vcn

import (
	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/bitfield"
)

// AVCSPSFlags are the sequence parameter set flags used by the decoder.
type AVCSPSFlags struct {
	Direct8x8Inference      bool
	FrameMBsOnly            bool
	DeltaPicOrderAlwaysZero bool
	SeparateColourPlane     bool
	GapsInFrameNumAllowed   bool
	QPPrimeYZeroTransBypass bool
}

// AVCPPSFlags are the picture parameter set flags.
type AVCPPSFlags struct {
	Transform8x8Mode           bool
	RedundantPicCntPresent     bool
	ConstrainedIntraPred       bool
	DeblockingFilterControl    bool
	WeightedPred               bool
	BottomFieldPicOrderPresent bool
	EntropyCodingMode          bool
	WeightedBipredIdc          uint8
}

// AVCPicFlags describe the current picture.
type AVCPicFlags struct {
	FieldPic        bool
	BottomField     bool
	MBAFFFrame      bool
	ChromaFormatIdc uint8
	RefPic          bool
	IntraPic        bool
}

// AVCParams is the per-frame H.264 parameter set.
type AVCParams struct {
	SPS AVCSPSFlags
	PPS AVCPPSFlags
	Pic AVCPicFlags

	ProfileIdc uint32
	LevelIdc   uint32
	CurrPicID  uint32

	CurrFieldOrderCnt    [2]int32
	FrameNum             uint16
	MaxNumRefFrames      uint8
	BitDepthLumaMinus8   uint8
	BitDepthChromaMinus8 uint8

	RefFrameIDList          [16]uint32
	FieldOrderCntList       [16][2]int32
	FrameNumList            [16]uint16
	CurrPicRefFrameNum      uint32
	UsedForLongTermRefFlags uint16
	UsedForReferenceFlags   uint32
	NonExistingFrameFlags   uint16

	Log2MaxFrameNumMinus4       uint8
	PicOrderCntType             uint8
	Log2MaxPicOrderCntLsbMinus4 uint8

	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	PicInitQPMinus26               int8
	PicInitQSMinus26               int8
	ChromaQPIndexOffset            int8
	SecondChromaQPIndexOffset      int8
	NumSliceGroupsMinus1           uint8
	SliceGroupMapType              uint8
	SliceGroupChangeRateMinus1     uint16

	ScalingList4x4 [6][16]uint8
	ScalingList8x8 [2][64]uint8
}

// H.264 profile_idc values with a firmware profile code.
const (
	AVCProfileBaseline = 66
	AVCProfileMain     = 77
	AVCProfileHigh     = 100
)

var avcSPSTable = bitfield.Table{Name: "avc.sps_info_flags", Fields: []bitfield.Field{
	bitfield.Bit("direct_8x8_inference", abi.SPSH264Direct8x8InferenceShift),
	bitfield.Bit("mb_adaptive_frame_field", abi.SPSH264MBAdaptiveFrameFieldShift),
	bitfield.Bit("frame_mbs_only", abi.SPSH264FrameMBsOnlyShift),
	bitfield.Bit("delta_pic_order_always_zero", abi.SPSH264DeltaPicOrderAlwaysZeroShift),
	bitfield.Bit("gaps_in_frame_num_allowed", abi.SPSH264GapsInFrameNumAllowedShift),
	bitfield.Bit("extension_support", abi.SPSH264ExtensionSupportShift),
}}

var avcPPSTable = bitfield.Table{Name: "avc.pps_info_flags", Fields: []bitfield.Field{
	bitfield.Bit("transform_8x8_mode", 0),
	bitfield.Bit("redundant_pic_cnt_present", 1),
	bitfield.Bit("constrained_intra_pred", 2),
	bitfield.Bit("deblocking_filter_control_present", 3),
	bitfield.Bits("weighted_bipred_idc", 4, 2),
	bitfield.Bit("weighted_pred", 6),
	bitfield.Bit("bottom_field_pic_order_present", 7),
	bitfield.Bit("entropy_coding_mode", 8),
}}

func (p *AVCParams) Codec() Codec { return CodecAVC }

func (p *AVCParams) refIDs() []uint32 { return p.RefFrameIDList[:] }

func (p *AVCParams) build(d *Decoder, cmd *DecodeCmd, it []byte) (codecMessage, error) {
	sps := avcSPSTable.New().
		SetBool("direct_8x8_inference", p.SPS.Direct8x8Inference).
		SetBool("mb_adaptive_frame_field", p.Pic.MBAFFFrame).
		SetBool("frame_mbs_only", p.SPS.FrameMBsOnly).
		SetBool("delta_pic_order_always_zero", p.SPS.DeltaPicOrderAlwaysZero).
		SetBool("gaps_in_frame_num_allowed", p.SPS.GapsInFrameNumAllowed).
		SetBool("extension_support", cmd.Tier < Tier2)
	pps := avcPPSTable.New().
		SetBool("transform_8x8_mode", p.PPS.Transform8x8Mode).
		SetBool("redundant_pic_cnt_present", p.PPS.RedundantPicCntPresent).
		SetBool("constrained_intra_pred", p.PPS.ConstrainedIntraPred).
		SetBool("deblocking_filter_control_present", p.PPS.DeblockingFilterControl).
		Set("weighted_bipred_idc", uint32(p.PPS.WeightedBipredIdc)).
		SetBool("weighted_pred", p.PPS.WeightedPred).
		SetBool("bottom_field_pic_order_present", p.PPS.BottomFieldPicOrderPresent).
		SetBool("entropy_coding_mode", p.PPS.EntropyCodingMode)

	msg := &abi.AVC{
		SPSInfoFlags: sps.Value(),
		PPSInfoFlags: pps.Value(),
		Level:        p.LevelIdc,

		ChromaFormat:                p.Pic.ChromaFormatIdc,
		BitDepthLumaMinus8:          p.BitDepthLumaMinus8,
		BitDepthChromaMinus8:        p.BitDepthChromaMinus8,
		Log2MaxFrameNumMinus4:       p.Log2MaxFrameNumMinus4,
		PicOrderCntType:             p.PicOrderCntType,
		Log2MaxPicOrderCntLsbMinus4: p.Log2MaxPicOrderCntLsbMinus4,
		NumRefFrames:                p.MaxNumRefFrames,
		PicInitQpMinus26:            p.PicInitQPMinus26,
		PicInitQsMinus26:            p.PicInitQSMinus26,
		ChromaQpIndexOffset:         p.ChromaQPIndexOffset,
		SecondChromaQpIndexOffset:   p.SecondChromaQPIndexOffset,
		NumSliceGroupsMinus1:        p.NumSliceGroupsMinus1,
		SliceGroupMapType:           p.SliceGroupMapType,
		NumRefIdxL0ActiveMinus1:     p.NumRefIdxL0DefaultActiveMinus1,
		NumRefIdxL1ActiveMinus1:     p.NumRefIdxL1DefaultActiveMinus1,
		SliceGroupChangeRateMinus1:  p.SliceGroupChangeRateMinus1,

		FrameNum:              uint32(p.FrameNum),
		CurrFieldOrderCntList: p.CurrFieldOrderCnt,
		CurrPicRefFrameNum:    p.CurrPicRefFrameNum,
		NonExistingFrameFlags: p.NonExistingFrameFlags,
		UsedForReferenceFlags: p.UsedForReferenceFlags,
		DecodedPicIdx:         p.CurrPicID,
	}
	switch p.ProfileIdc {
	case AVCProfileBaseline:
		msg.Profile = abi.H264ProfileBaseline
	case AVCProfileMain:
		msg.Profile = abi.H264ProfileMain
	case AVCProfileHigh:
		msg.Profile = abi.H264ProfileHigh
	}

	for i := range 16 {
		msg.FrameNumList[i] = uint32(p.FrameNumList[i])
		msg.FieldOrderCntList[i] = p.FieldOrderCntList[i]
		msg.RefFrameList[i] = uint8(p.RefFrameIDList[i])
		if p.UsedForLongTermRefFlags&(1<<i) != 0 {
			msg.RefFrameList[i] |= 0x80
		}
	}

	its := abi.AVCITS{ScalingList4x4: p.ScalingList4x4, ScalingList8x8: p.ScalingList8x8}
	if _, err := abi.Put(it, 0, its); err != nil {
		return codecMessage{}, err
	}
	return codecMessage{id: abi.MessageAVC, msg: msg}, nil
}
