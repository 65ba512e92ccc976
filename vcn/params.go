package vcn

import "fmt"

// Codec selects the bitstream format of a decode session.
type Codec int

const (
	CodecAVC Codec = iota + 1
	CodecHEVC
	CodecVP9
	CodecAV1
	CodecMPEG2
	CodecVC1
)

// Codecs lists every codec the decoder accepts.
func Codecs() []Codec {
	return []Codec{CodecAVC, CodecHEVC, CodecVP9, CodecAV1, CodecMPEG2, CodecVC1}
}

func (c Codec) String() string {
	switch c {
	case CodecAVC:
		return "avc"
	case CodecHEVC:
		return "hevc"
	case CodecVP9:
		return "vp9"
	case CodecAV1:
		return "av1"
	case CodecMPEG2:
		return "mpeg2"
	case CodecVC1:
		return "vc1"
	default:
		return fmt.Sprintf("Codec(%d)", int(c))
	}
}

// ParseCodec maps a codec name as printed by String back to its value.
func ParseCodec(s string) (Codec, error) {
	for _, c := range Codecs() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedCodec, s)
}

// ChromaFormat is the chroma subsampling of the session.
type ChromaFormat int

const (
	Chroma420 ChromaFormat = iota
	Chroma422
	Chroma444
	Chroma400
)

func (f ChromaFormat) String() string {
	switch f {
	case Chroma420:
		return "4:2:0"
	case Chroma422:
		return "4:2:2"
	case Chroma444:
		return "4:4:4"
	case Chroma400:
		return "4:0:0"
	}
	return fmt.Sprintf("ChromaFormat(%d)", int(f))
}

// SessionParams describes the largest stream a session must handle.
type SessionParams struct {
	Codec       Codec
	Chroma      ChromaFormat
	MaxWidth    uint32
	MaxHeight   uint32
	MaxBitDepth uint32
	MaxNumRef   uint32
}

// MaxRefs is the number of reference surfaces a frame can carry.
const MaxRefs = 17

// Plane is one plane of a surface as laid out by the image owner.
type Plane struct {
	VA            uint64
	Pitch         uint32
	AlignedHeight uint32
	SliceSize     uint64
	TotalSize     uint64
	SwizzleMode   uint32
	TileSwizzle   uint32
}

// Surface is a decode target or reference picture. Plane 0 is luma and
// plane 1 is chroma.
type Surface struct {
	Size   uint64
	Planes [3]Plane
}

// CodecParams is the per-frame parameter set of one codec. It is
// implemented by AVCParams, HEVCParams, VP9Params, AV1Params,
// MPEG2Params and VC1Params.
type CodecParams interface {
	Codec() Codec
	// refIDs is the slot list used to place tier 2 references, or nil
	// when the codec has none.
	refIDs() []uint32
	// build fills the codec message and the codec's part of the
	// IT/probs region.
	build(d *Decoder, cmd *DecodeCmd, it []byte) (codecMessage, error)
}

// codecMessage is a filled codec payload and its index message id.
type codecMessage struct {
	id  uint32
	msg any
}

// ProtectedMode selects how the bitstream is protected.
type ProtectedMode int

const (
	ProtectedNone ProtectedMode = iota
	ProtectedCENC
	ProtectedLegacy
)

// ProtectedContent carries the key material of a protected frame. CENC
// uses Secure, the legacy mode uses Decrypt.
type ProtectedContent struct {
	Mode    ProtectedMode
	Secure  *SecureBuffer
	Decrypt *DecryptParams
}

// CreateCmd is the input and output of BuildCreate.
type CreateCmd struct {
	CmdBuffer  []uint32
	SessionVA  uint64
	EmbeddedVA uint64
	Embedded   []byte

	Out struct {
		Dwords int
	}
}

// DestroyCmd is the input and output of BuildDestroy.
type DestroyCmd struct {
	CmdBuffer  []uint32
	EmbeddedVA uint64
	Embedded   []byte

	Out struct {
		Dwords int
	}
}

// DecodeCmd is the input and output of BuildDecode for one frame.
type DecodeCmd struct {
	CmdBuffer    []uint32
	SessionVA    uint64
	SessionTMZVA uint64
	EmbeddedVA   uint64
	Embedded     []byte

	BitstreamVA   uint64
	BitstreamSize uint32

	NumRefs int
	RefIDs  [MaxRefs]uint8
	CurID   uint8
	Refs    [MaxRefs]Surface

	Width  uint32
	Height uint32
	Target Surface

	Tier       Tier
	LowLatency bool
	DPBResize  bool

	Protected ProtectedContent
	Params    CodecParams

	Out struct {
		Dwords int
	}
}
