package vcn

import (
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/layout"
	"github.com/sailfishos-mirror/mesa-sub000/internal/probs"
)

// Sizes are the memory requirements of a session. They are fixed when
// the session is created.
type Sizes struct {
	HWContext       uint32
	Session         uint32
	SessionTMZ      uint32
	Embedded        uint32
	ITProbsOffset   uint32
	FeedbackOffset  uint32
	SubsampleOffset uint32
	DPBAlignment    uint32
}

// Embedded buffer region names.
const (
	regionMessages  = "messages"
	regionITProbs   = "it_probs"
	regionFeedback  = "feedback"
	regionSubsample = "subsample"
)

// SessionSizes computes the session, TMZ and embedded buffer sizes and
// the fixed embedded offsets for params on hardware v.
func SessionSizes(p SessionParams, v Version) (Sizes, error) {
	if _, ok := hardware[v]; !ok {
		return Sizes{}, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	if !validCodec(p.Codec) {
		return Sizes{}, fmt.Errorf("%w: %s", ErrUnsupportedCodec, p.Codec)
	}

	hw := hwContextSize(p, v)
	s := Sizes{
		HWContext:    hw,
		Session:      hw + abi.SessionContextSize,
		DPBAlignment: DPBAlignment(p, v),
	}
	if v < VCN220 {
		s.SessionTMZ = s.Session
	}

	l := embeddedLayout(p, v)
	s.Embedded = uint32(l.Size)
	s.ITProbsOffset = uint32(l.Offset(regionITProbs))
	if off := l.Offset(regionFeedback); off > 0 {
		s.FeedbackOffset = uint32(off)
	}
	s.SubsampleOffset = uint32(l.Offset(regionSubsample))
	return s, nil
}

func validCodec(c Codec) bool {
	return c >= CodecAVC && c <= CodecVC1
}

// embeddedLayout reserves room for the largest message set a frame can
// need, followed by the aligned IT/probs, feedback and subsample areas.
func embeddedLayout(p SessionParams, v Version) layout.Layout {
	msgs := 256 + abi.SizeDecode
	if v >= VCN300 {
		msgs += abi.SizeDynamicDPB2
	} else {
		msgs += abi.SizeDynamicDPB
	}
	msgs += abi.SizeDRM + abi.SizeDRMKeyblob
	msgs += codecMessageSize(p.Codec)

	b := layout.NewBuilder(0)
	b.Add(regionMessages, msgs)
	b.AddAligned(regionITProbs, itProbsSize(p.Codec), 256)
	if v < VCN400 {
		b.AddAligned(regionFeedback, abi.SizeFeedbackHeader, 256)
	}
	b.AddAligned(regionSubsample, abi.MaxSubsampleSize, 256)
	return b.Finish()
}

func codecMessageSize(c Codec) int {
	switch c {
	case CodecAVC:
		return abi.SizeAVC
	case CodecHEVC:
		return abi.SizeHEVC
	case CodecVP9:
		return abi.SizeVP9
	case CodecAV1:
		return abi.SizeAV1
	case CodecMPEG2:
		return abi.SizeMPEG2
	case CodecVC1:
		return abi.SizeVC1
	}
	return 0
}

func itProbsSize(c Codec) int {
	switch c {
	case CodecAVC:
		return abi.SizeAVCITS
	case CodecHEVC:
		return abi.SizeHEVCITS
	case CodecVP9:
		return abi.SizeVP9ProbsSegment
	case CodecAV1:
		return abi.SizeAV1SegmentFG
	}
	return 0
}

func hwContextSize(p SessionParams, v Version) uint32 {
	switch p.Codec {
	case CodecAVC:
		return avcContextSize(p)
	case CodecHEVC:
		return hevcContextSize(p)
	case CodecVP9:
		return vp9ContextSize(p, v)
	case CodecAV1:
		return av1ContextSize(hardware[v].av1)
	}
	return 0
}

func avcContextSize(p SessionParams) uint32 {
	wmb := layout.AlignU32(p.MaxWidth, 16) / 16
	hmb := layout.AlignU32(layout.AlignU32(p.MaxHeight, 16)/16, 2)
	return p.MaxNumRef * layout.AlignU32(wmb*hmb*192, 256)
}

func hevcContextSize(p SessionParams) uint32 {
	w := layout.AlignU32(p.MaxWidth, 16)
	h := layout.AlignU32(p.MaxHeight, 16)
	if p.MaxBitDepth != 10 {
		return ((w+255)/16)*((h+255)/16)*16*p.MaxNumRef + 52*1024
	}

	// 64x64 CTBs, each holding 16 blocks of 16x16.
	const ctb = 64
	wctb := (w + ctb - 1) / ctb
	hctb := (h + ctb - 1) / ctb
	perRow := layout.AlignU32(wctb*16*16, 256)
	maxMB := (h*8 + 2047) / 2048

	cm := p.MaxNumRef * perRow * hctb
	leftCtx := uint32(4096 / 16 * (32 + 16*4))
	leftPxl := 2 * (maxMB*2*2048 + 1024)
	return cm + leftCtx + leftPxl
}

func vp9ContextSize(p SessionParams, v Version) uint32 {
	size := uint32(2304 * 5)
	if v >= VCN200 {
		size += 32 * 2 * 128 * 68
		size += 9 * 64 * 2 * 128 * 68
		size += 8 * 2 * 2 * 8192
	} else {
		size += 32 * 2 * 64 * 64
		size += 9 * 64 * 2 * 64 * 64
		size += 8 * 2 * 4096
	}
	if p.MaxBitDepth == 10 {
		size += 8 * 2 * 4096
	}
	return size
}

func av1ContextSize(rev uint32) uint32 {
	frameCtx := uint32(probs.FrameContextSize(rev))
	size := (9+4)*frameCtx + 9*64*34*512 + 9*64*34*256*5

	const ctb64, ctb128 = 68, 34
	pitch64 := layout.AlignU32(32*ctb64, 256) * 2
	pitch128 := layout.AlignU32(32*ctb128, 256) * 2
	sdb := func(rows64, rows128 uint32) uint32 {
		return max(pitch64*(layout.AlignU32(rows64, 64)/64), pitch128*(layout.AlignU32(rows128, 64)/64))
	}
	lf := sdb(1728, 3008)

	if rev == abi.AV1Ver2 {
		superres := (layout.AlignU32(4352, 64) / 64) * layout.AlignU32((78+2)*3*32, 256)
		return size + (lf+superres)*2 + 68*512
	}
	superres := sdb(3232, 6208)
	output := sdb(1312, 2336)
	fgAvg := sdb(384, 640)
	return size + (lf+superres+output+fgAvg)*2 + 68*512
}

// DPBAlignment returns the pitch and height alignment of a flat DPB.
func DPBAlignment(p SessionParams, v Version) uint32 {
	if v < VCN200 || p.MaxWidth <= 32 {
		return 32
	}
	if v >= VCN500 {
		return 64
	}
	switch p.Codec {
	case CodecHEVC:
		if p.MaxBitDepth == 10 {
			return 64
		}
		return 32
	case CodecVP9, CodecAV1:
		return 64
	default:
		return 32
	}
}

// DPBSize returns the size of a tier 0 DPB buffer for params, or 0 for
// codecs without a DPB.
func DPBSize(p SessionParams, v Version) uint32 {
	w := layout.AlignU32(p.MaxWidth, 16)
	h := layout.AlignU32(p.MaxHeight, 16)
	refs := p.MaxNumRef
	a := DPBAlignment(p, v)

	image := layout.AlignU32(w, a) * layout.AlignU32(h, a)
	image += image / 2
	image = layout.AlignU32(image, 1024)

	wmb := w / 16
	hmb := layout.AlignU32(h/16, 2)

	switch p.Codec {
	case CodecAVC, CodecMPEG2:
		return image * refs
	case CodecHEVC:
		area := layout.AlignU32(w, a) * layout.AlignU32(h, a)
		if p.MaxBitDepth == 10 {
			return layout.AlignU32(area*9/4, 256) * refs
		}
		return layout.AlignU32(area*3/2, 256) * refs
	case CodecVP9:
		size := uint32(4096 * 3000)
		if v >= VCN200 {
			size = 8192 * 4320
		}
		size = size * 3 / 2 * refs
		if p.MaxBitDepth == 10 {
			size = size * 3 / 2
		}
		return size
	case CodecAV1:
		return 8192 * 4320 * 3 / 2 * refs * 3 / 2
	case CodecVC1:
		size := image * refs
		size += wmb * hmb * 128 // context
		size += wmb * 64        // IT surface
		size += wmb * 128       // DB surface
		return size + layout.AlignU32(max(wmb, hmb)*7*16, 64)
	default:
		return 0
	}
}
