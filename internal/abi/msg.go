package abi

import (
	"encoding/binary"
	"fmt"
)

// Index locates one message buffer inside the embedded area.
type Index struct {
	MessageID uint32
	Offset    uint32
	Size      uint32
	Filled    uint32
}

// Header opens every firmware message. The first index entry is part
// of the header; further entries follow it directly.
type Header struct {
	HeaderSize                 uint32
	TotalSize                  uint32
	NumBuffers                 uint32
	MsgType                    uint32
	StreamHandle               uint32
	StatusReportFeedbackNumber uint32
	Index                      Index
}

// Create is the payload of a CREATE message.
type Create struct {
	StreamType      uint32
	SessionFlags    uint32
	WidthInSamples  uint32
	HeightInSamples uint32
}

// Decode is the per-frame decode message.
type Decode struct {
	StreamType      uint32
	DecodeFlags     uint32
	WidthInSamples  uint32
	HeightInSamples uint32

	BsdSize      uint32
	DpbSize      uint32
	DtSize       uint32
	SctSize      uint32
	ScCoeffSize  uint32
	HwCtxtSize   uint32
	SwCtxtSize   uint32
	PicParamSize uint32
	MbCntlSize   uint32
	Reserved0    [4]uint32

	DecodeBufferFlags uint32

	DbPitch          uint16
	DbAlignedHeight  uint16
	DbTilingMode     uint32
	DbSwizzleMode    uint32
	DbArrayMode      uint32
	DbFieldMode      uint32
	DbSurfTileConfig uint32

	DtPitch            uint32
	DtUvPitch          uint32
	DtTilingMode       uint32
	DtSwizzleMode      uint32
	DtArrayMode        uint32
	DtFieldMode        uint32
	DtOutFormat        uint32
	DtSurfTileConfig   uint32
	DtUvSurfTileConfig uint32

	DtLumaTopOffset       uint32
	DtLumaBottomOffset    uint32
	DtChromaTopOffset     uint32
	DtChromaBottomOffset  uint32
	DtChromaVTopOffset    uint32
	DtChromaVBottomOffset uint32

	DpbRefArraySlice [16]uint8
	DpbCurArraySlice uint8
	DpbReserved      [3]uint8

	MifWrcEn  uint32
	DbPitchUV uint32
}

// DynamicDPB is the tier 1 dynamic DPB descriptor.
type DynamicDPB struct {
	DpbConfigFlags         uint32
	DpbLumaPitch           uint32
	DpbLumaAlignedHeight   uint32
	DpbLumaAlignedSize     uint32
	DpbChromaPitch         uint32
	DpbChromaAlignedHeight uint32
	DpbChromaAlignedSize   uint32

	DpbArraySize     uint8
	DpbCurArraySlice uint8
	DpbRefArraySlice [16]uint8
	DpbReserved0     [2]uint8

	DpbCurrOffset uint32
	DpbAddrOffset [16]uint32
}

// DynamicDPB2 is the tier 2 dynamic DPB descriptor with explicit
// per-slot reference addresses.
type DynamicDPB2 struct {
	DpbConfigFlags         uint32
	DpbLumaPitch           uint32
	DpbLumaAlignedHeight   uint32
	DpbLumaAlignedSize     uint32
	DpbChromaPitch         uint32
	DpbChromaAlignedHeight uint32
	DpbChromaAlignedSize   uint32
	DpbArraySize           uint32

	DpbCurrLo uint32
	DpbCurrHi uint32
	DpbAddrLo [16]uint32
	DpbAddrHi [16]uint32
}

// DRM carries the decryption control words for protected bitstreams.
type DRM struct {
	DrmCntl          uint32
	DrmWrappedKey    [4]uint32
	DrmKey           [4]uint32
	DrmCounter       [4]uint32
	DrmCmd           uint32
	DrmSubsampleSize uint32
}

// DRMKeyblob carries the CENC local policy.
type DRMKeyblob struct {
	ContentKey  [4]uint32
	Signature   [4]uint32
	PolicyIndex uint32
	PolicyArray [32]uint32
}

// FeedbackHeader heads the pre-VCN4 feedback area.
type FeedbackHeader struct {
	HeaderSize                 uint32
	TotalSize                  uint32
	NumBuffers                 uint32
	StatusReportFeedbackNumber uint32
	Status                     uint32
	Value                      uint32
	ErrorBits                  [7]uint32
	Index                      Index
}

// Package heads every IB package on the unified path.
type Package struct {
	PackageSize uint32
	PackageType uint32
}

// DecodeBuffer is the unified-path descriptor of every sub-buffer used
// by one decode. ValidBufFlag holds the CmdbufFlag bits of the
// addresses that were filled in.
type DecodeBuffer struct {
	ValidBufFlag                  uint32
	MsgBufferAddressHi            uint32
	MsgBufferAddressLo            uint32
	DpbBufferAddressHi            uint32
	DpbBufferAddressLo            uint32
	TargetBufferAddressHi         uint32
	TargetBufferAddressLo         uint32
	SessionContexBufferAddressHi  uint32
	SessionContexBufferAddressLo  uint32
	BitstreamBufferAddressHi      uint32
	BitstreamBufferAddressLo      uint32
	ContextBufferAddressHi        uint32
	ContextBufferAddressLo        uint32
	FeedbackBufferAddressHi       uint32
	FeedbackBufferAddressLo       uint32
	LumaHistBufferAddressHi       uint32
	LumaHistBufferAddressLo       uint32
	ProbTblBufferAddressHi        uint32
	ProbTblBufferAddressLo        uint32
	SclrCoeffBufferAddressHi      uint32
	SclrCoeffBufferAddressLo      uint32
	ItSclrTableBufferAddressHi    uint32
	ItSclrTableBufferAddressLo    uint32
	SclrTargetBufferAddressHi     uint32
	SclrTargetBufferAddressLo     uint32
	CencSizeInfoBufferAddressHi   uint32
	CencSizeInfoBufferAddressLo   uint32
	Mpeg2PicParamBufferAddressHi  uint32
	Mpeg2PicParamBufferAddressLo  uint32
	Mpeg2MbControlBufferAddressHi uint32
	Mpeg2MbControlBufferAddressLo uint32
	Mpeg2IdctCoeffBufferAddressHi uint32
	Mpeg2IdctCoeffBufferAddressLo uint32
}

// RefBuffersHeader heads the tier 3 reference list package.
type RefBuffersHeader struct {
	Size    uint32
	NumBufs uint32
}

// RefBuffer describes one tier 3 reference picture.
type RefBuffer struct {
	Index           uint32
	YPitch          uint32
	YAlignedHeight  uint32
	YAlignedSize    uint32
	YAddrHi         uint32
	YAddrLo         uint32
	UVPitch         uint32
	UVAlignedHeight uint32
	UVAlignedSize   uint32
	UVAddrHi        uint32
	UVAddrLo        uint32
}

// Wire sizes of the fixed messages.
var (
	SizeIndex            = Size(Index{})
	SizeHeader           = Size(Header{})
	SizeCreate           = Size(Create{})
	SizeDecode           = Size(Decode{})
	SizeDynamicDPB       = Size(DynamicDPB{})
	SizeDynamicDPB2      = Size(DynamicDPB2{})
	SizeDRM              = Size(DRM{})
	SizeDRMKeyblob       = Size(DRMKeyblob{})
	SizeFeedbackHeader   = Size(FeedbackHeader{})
	SizePackage          = Size(Package{})
	SizeDecodeBuffer     = Size(DecodeBuffer{})
	SizeRefBuffersHeader = Size(RefBuffersHeader{})
	SizeRefBuffer        = Size(RefBuffer{})
)

// Size returns the encoded size of a fixed-layout message.
func Size(v any) int {
	return binary.Size(v)
}

// Put encodes v little-endian into buf at off and returns the number of
// bytes written.
func Put(buf []byte, off int, v any) (int, error) {
	if off < 0 || off > len(buf) {
		return 0, fmt.Errorf("abi: offset %d outside buffer of %d bytes", off, len(buf))
	}
	n, err := binary.Encode(buf[off:], binary.LittleEndian, v)
	if err != nil {
		return 0, fmt.Errorf("abi: encode %T at %d: %w", v, off, err)
	}
	return n, nil
}

// Get decodes a fixed-layout message from buf at off into v.
func Get(buf []byte, off int, v any) error {
	if off < 0 || off > len(buf) {
		return fmt.Errorf("abi: offset %d outside buffer of %d bytes", off, len(buf))
	}
	if _, err := binary.Decode(buf[off:], binary.LittleEndian, v); err != nil {
		return fmt.Errorf("abi: decode %T at %d: %w", v, off, err)
	}
	return nil
}

// Words returns the dword view of an encoded message.
func Words(v any) []uint32 {
	n := Size(v)
	buf := make([]byte, (n+3)&^3)
	binary.Encode(buf, binary.LittleEndian, v)
	out := make([]uint32, len(buf)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return out
}
