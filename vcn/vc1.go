package vcn

import (
	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/bitfield"
)

// VC-1 profiles. Simple and main profile streams are sized in
// macroblocks by the firmware.
const (
	VC1ProfileSimple   = 0
	VC1ProfileMain     = 1
	VC1ProfileAdvanced = 2
)

// VC1Params is the per-picture VC-1 parameter set.
type VC1Params struct {
	Profile uint32
	Level   uint32

	PostProc    bool
	Pulldown    bool
	Interlace   bool
	TFCounter   bool
	FInterp     bool
	PSF         bool
	MultiRes    bool
	SyncMarker  bool
	RangeRed    bool
	MaxBFrames  uint8
	Overlap     bool
	Quantizer   uint8
	PanScan     bool
	RefDist     bool
	LoopFilter  bool
	FastUVMC    bool
	ExtendedMV  bool
	ExtendedDMV bool
	DQuant      uint8
	VSTransform bool

	RangeMapYFlag  bool
	RangeMapY      uint8
	RangeMapUVFlag bool
	RangeMapUV     uint8
}

var vc1SPSTable = bitfield.Table{Name: "vc1.sps_info_flags", Fields: []bitfield.Field{
	bitfield.Bit("psf", 1),
	bitfield.Bit("finterpflag", 3),
	bitfield.Bit("tfcntrflag", 4),
	bitfield.Bit("interlace", 5),
	bitfield.Bit("pulldown", 6),
	bitfield.Bit("postprocflag", 7),
}}

var vc1PPSTable = bitfield.Table{Name: "vc1.pps_info_flags", Fields: []bitfield.Field{
	bitfield.Bit("vstransform", 0),
	bitfield.Bits("dquant", 1, 2),
	bitfield.Bit("extended_mv", 3),
	bitfield.Bit("fastuvmc", 4),
	bitfield.Bit("loopfilter", 5),
	bitfield.Bit("refdist_flag", 6),
	bitfield.Bit("panscan_flag", 7),
	bitfield.Bit("extended_dmv", 8),
	bitfield.Bits("quantizer", 9, 2),
	bitfield.Bit("overlap", 11),
	bitfield.Bits("maxbframes", 16, 3),
	bitfield.Bit("rangered", 19),
	bitfield.Bit("syncmarker", 20),
	bitfield.Bit("multires", 21),
	bitfield.Bits("range_mapuv", 24, 3),
	bitfield.Bit("range_mapuv_flag", 27),
	bitfield.Bits("range_mapy", 28, 3),
	bitfield.Bit("range_mapy_flag", 31),
}}

func (p *VC1Params) Codec() Codec { return CodecVC1 }

func (p *VC1Params) refIDs() []uint32 { return nil }

func (p *VC1Params) build(d *Decoder, cmd *DecodeCmd, it []byte) (codecMessage, error) {
	sps := vc1SPSTable.New().
		SetBool("psf", p.PSF).
		SetBool("finterpflag", p.FInterp).
		SetBool("tfcntrflag", p.TFCounter).
		SetBool("interlace", p.Interlace).
		SetBool("pulldown", p.Pulldown).
		SetBool("postprocflag", p.PostProc)
	pps := vc1PPSTable.New().
		SetBool("vstransform", p.VSTransform).
		Set("dquant", uint32(p.DQuant)).
		SetBool("extended_mv", p.ExtendedMV).
		SetBool("fastuvmc", p.FastUVMC).
		SetBool("loopfilter", p.LoopFilter).
		SetBool("refdist_flag", p.RefDist).
		SetBool("panscan_flag", p.PanScan).
		SetBool("extended_dmv", p.ExtendedDMV).
		Set("quantizer", uint32(p.Quantizer)).
		SetBool("overlap", p.Overlap).
		Set("maxbframes", uint32(p.MaxBFrames)).
		SetBool("rangered", p.RangeRed).
		SetBool("syncmarker", p.SyncMarker).
		SetBool("multires", p.MultiRes).
		Set("range_mapuv", uint32(p.RangeMapUV)).
		SetBool("range_mapuv_flag", p.RangeMapUVFlag).
		Set("range_mapy", uint32(p.RangeMapY)).
		SetBool("range_mapy_flag", p.RangeMapYFlag)

	msg := &abi.VC1{
		SPSInfoFlags: sps.Value(),
		PPSInfoFlags: pps.Value(),
		ChromaFormat: 1,
		Profile:      p.Profile,
		Level:        p.Level,
	}
	return codecMessage{id: abi.MessageVC1, msg: msg}, nil
}
