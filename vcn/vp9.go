package vcn

import (
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/bitfield"
)

// VP9 segmentation feature indices.
const (
	VP9SegLevelAltQ = iota
	VP9SegLevelAltLF
	VP9SegLevelRefFrame
	VP9SegLevelSkip
)

const vp9MaxLoopFilter = 63

// VP9LoopFilter is the loop filter section of the frame header.
type VP9LoopFilter struct {
	ModeRefDeltaEnabled bool
	ModeRefDeltaUpdate  bool
	Level               uint8
	Sharpness           uint8
	RefDeltas           [4]int8
	ModeDeltas          [2]int8
}

// VP9Segmentation is the segmentation section of the frame header.
type VP9Segmentation struct {
	Enabled        bool
	UpdateMap      bool
	TemporalUpdate bool
	UpdateData     bool
	AbsDelta       bool
	FeatureMask    [8]uint8
	FeatureData    [8][4]int16
	TreeProbs      [7]uint8
	PredProbs      [3]uint8
}

// VP9Params is the per-frame VP9 parameter set.
type VP9Params struct {
	ErrorResilientMode        bool
	IntraOnly                 bool
	AllowHighPrecisionMV      bool
	RefreshFrameContext       bool
	FrameParallelDecodingMode bool
	ShowFrame                 bool
	UsePrevFrameMVs           bool
	UseUncompressedHeader     bool

	Profile              uint8
	Width                uint32
	Height               uint32
	FrameContextIdx      uint8
	ResetFrameContext    uint8
	CurID                uint32
	BitDepthLumaMinus8   uint8
	BitDepthChromaMinus8 uint8
	FrameType            uint8
	InterpFilter         uint8
	BaseQIdx             uint8
	YDcDeltaQ            int8
	UVAcDeltaQ           int8
	UVDcDeltaQ           int8
	Log2TileCols         uint8
	Log2TileRows         uint8

	UncompressedHeaderOffset uint32
	CompressedHeaderSize     uint32
	UncompressedHeaderSize   uint32

	RefFrames        [3]uint32
	RefFrameIDList   [8]uint32
	RefFrameSignBias [4]uint32

	LoopFilter   VP9LoopFilter
	Segmentation VP9Segmentation
}

var vp9FrameHeaderTable = bitfield.Table{Name: "vp9.frame_header_flags", Fields: []bitfield.Field{
	bitfield.Bit("frame_type", 2),
	bitfield.Bit("error_resilient_mode", 3),
	bitfield.Bit("intra_only", 4),
	bitfield.Bit("allow_high_precision_mv", 5),
	bitfield.Bit("refresh_frame_context", 6),
	bitfield.Bit("frame_parallel_decoding_mode", 7),
	bitfield.Bit("segmentation_enabled", 8),
	bitfield.Bit("segmentation_update_map", 9),
	bitfield.Bit("segmentation_temporal_update", 10),
	bitfield.Bit("segmentation_update_data", 11),
	bitfield.Bit("mode_ref_delta_enabled", 12),
	bitfield.Bit("mode_ref_delta_update", 13),
	bitfield.Bit("use_prev_in_find_mv_refs", 14),
	bitfield.Bit("use_uncompressed_header", 15),
	bitfield.Bit("use_frame_size_as_offset", 16),
}}

func (p *VP9Params) Codec() Codec { return CodecVP9 }

func (p *VP9Params) refIDs() []uint32 { return p.RefFrameIDList[:] }

func (p *VP9Params) build(d *Decoder, cmd *DecodeCmd, it []byte) (codecMessage, error) {
	if p.BitDepthLumaMinus8 > 2 || p.BitDepthChromaMinus8 > 2 {
		return codecMessage{}, fmt.Errorf("%w: vp9 bit depth %d/%d", ErrUnsupportedParameters,
			int(p.BitDepthLumaMinus8)+8, int(p.BitDepthChromaMinus8)+8)
	}

	lf := &p.LoopFilter
	seg := &p.Segmentation
	hdr := vp9FrameHeaderTable.New().
		Set("frame_type", uint32(p.FrameType)).
		SetBool("error_resilient_mode", p.ErrorResilientMode).
		SetBool("intra_only", p.IntraOnly).
		SetBool("allow_high_precision_mv", p.AllowHighPrecisionMV).
		SetBool("refresh_frame_context", p.RefreshFrameContext).
		SetBool("frame_parallel_decoding_mode", p.FrameParallelDecodingMode).
		SetBool("segmentation_enabled", seg.Enabled).
		SetBool("segmentation_update_map", seg.UpdateMap).
		SetBool("segmentation_temporal_update", seg.TemporalUpdate).
		SetBool("segmentation_update_data", seg.UpdateData).
		SetBool("mode_ref_delta_enabled", lf.ModeRefDeltaEnabled).
		SetBool("mode_ref_delta_update", lf.ModeRefDeltaUpdate).
		SetBool("use_prev_in_find_mv_refs", p.UsePrevFrameMVs).
		SetBool("use_uncompressed_header", p.UseUncompressedHeader).
		SetBool("use_frame_size_as_offset", p.UncompressedHeaderOffset != 0)

	msg := &abi.VP9{
		FrameHeaderFlags:       hdr.Value(),
		FrameContextIdx:        p.FrameContextIdx,
		ResetFrameContext:      p.ResetFrameContext,
		CurrPicIdx:             uint8(p.CurID),
		InterpFilter:           p.InterpFilter,
		FilterLevel:            lf.Level,
		SharpnessLevel:         lf.Sharpness,
		BaseQindex:             p.BaseQIdx,
		YDcDeltaQ:              p.YDcDeltaQ,
		UVAcDeltaQ:             p.UVAcDeltaQ,
		UVDcDeltaQ:             p.UVDcDeltaQ,
		Log2TileCols:           p.Log2TileCols,
		Log2TileRows:           p.Log2TileRows,
		ChromaFormat:           1,
		BitDepthLumaMinus8:     p.BitDepthLumaMinus8,
		BitDepthChromaMinus8:   p.BitDepthChromaMinus8,
		VP9FrameSize:           p.UncompressedHeaderOffset,
		UncompressedHeaderSize: p.UncompressedHeaderSize,
		CompressedHeaderSize:   p.CompressedHeaderSize,
		LfAdjLevel:             vp9LoopFilterLevels(lf, seg),
	}
	if p.BitDepthLumaMinus8 != 0 || p.BitDepthChromaMinus8 != 0 {
		msg.P010Mode = 1
		msg.MSBMode = 1
	}
	for i := range msg.RefFrameMap {
		msg.RefFrameMap[i] = uint8(p.RefFrameIDList[i])
	}
	for i := range msg.FrameRefs {
		msg.FrameRefs[i] = uint8(p.RefFrames[i])
		msg.RefFrameSignBias[i] = uint8(p.RefFrameSignBias[i+1])
	}

	if seg.Enabled {
		var s abi.VP9Segment
		for i := range s.FeatureData {
			fd := seg.FeatureData[i]
			s.FeatureData[i] = uint32(uint16(fd[0])) |
				uint32(uint16(fd[1])&0xff)<<16 |
				uint32(uint16(fd[2])&0xf)<<24 |
				uint32(uint16(fd[3])&0xf)<<28
		}
		s.FeatureMask = seg.FeatureMask
		s.TreeProbs = seg.TreeProbs
		s.PredProbs = seg.PredProbs
		s.AbsDelta = uint8(bitfield.Bool(seg.AbsDelta))
		if _, err := abi.Put(it, abi.VP9ProbsDataSize, s); err != nil {
			return codecMessage{}, err
		}
	}
	return codecMessage{id: abi.MessageVP9, msg: msg}, nil
}

// vp9LoopFilterLevels derives the filter level of every segment,
// reference and mode. The segment ALT_LF feature replaces or adjusts the
// frame level, then reference and mode deltas are applied in steps of
// 1 << (level >> 5). Every level is clamped to [0, 63].
func vp9LoopFilterLevels(lf *VP9LoopFilter, seg *VP9Segmentation) [8][4][2]uint8 {
	var out [8][4][2]uint8
	scale := int32(1) << (lf.Level >> 5)
	clampLF := func(v int32) uint8 { return uint8(min(max(v, 0), vp9MaxLoopFilter)) }

	for s := range out {
		base := int32(lf.Level)
		if seg.FeatureMask[s]&(1<<VP9SegLevelAltLF) != 0 {
			data := int32(seg.FeatureData[s][VP9SegLevelAltLF])
			if !seg.AbsDelta {
				data += base
			}
			base = int32(clampLF(data))
		}

		// The intra reference has a single mode; [0][1] stays zero.
		if !lf.ModeRefDeltaEnabled {
			out[s][0][0] = uint8(base)
			for ref := 1; ref < 4; ref++ {
				out[s][ref] = [2]uint8{uint8(base), uint8(base)}
			}
			continue
		}
		out[s][0][0] = clampLF(base + int32(lf.RefDeltas[0])*scale)
		for ref := 1; ref < 4; ref++ {
			for mode := range 2 {
				out[s][ref][mode] = clampLF(base + (int32(lf.RefDeltas[ref])+int32(lf.ModeDeltas[mode]))*scale)
			}
		}
	}
	return out
}
