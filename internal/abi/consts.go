// Package abi mirrors the VCN decode firmware interface: message
// identifiers, command codes, register offsets and the fixed-layout
// structures exchanged through the embedded message buffer.
package abi

// Codec stream types carried in the create and decode messages.
const (
	StreamH264     uint32 = 0x00
	StreamVC1      uint32 = 0x01
	StreamMPEG2    uint32 = 0x03
	StreamMPEG4    uint32 = 0x04
	StreamH264Perf uint32 = 0x07
	StreamJPEG     uint32 = 0x08
	StreamH265     uint32 = 0x10
	StreamVP9      uint32 = 0x11
	StreamAV1      uint32 = 0x13
)

// Message types written into the message header.
const (
	MsgCreate  uint32 = 0x00000001
	MsgDecode  uint32 = 0x00000002
	MsgDestroy uint32 = 0x00000003
)

// Message buffer identifiers used by index entries.
const (
	MessageCreate     uint32 = 0x00000001
	MessageDecode     uint32 = 0x00000002
	MessageDRM        uint32 = 0x00000003
	MessageAVC        uint32 = 0x00000006
	MessageVC1        uint32 = 0x00000007
	MessageMPEG2VLD   uint32 = 0x0000000A
	MessageHEVC       uint32 = 0x0000000D
	MessageVP9        uint32 = 0x0000000E
	MessageDynamicDPB uint32 = 0x00000010
	MessageAV1        uint32 = 0x00000011
	MessageDRMKeyblob uint32 = 0x00000012
)

// Command codes accepted by the decode engine.
const (
	CmdMsgBuffer         uint32 = 0x00000000
	CmdDPBBuffer         uint32 = 0x00000001
	CmdDecodingTarget    uint32 = 0x00000002
	CmdFeedbackBuffer    uint32 = 0x00000003
	CmdProbTblBuffer     uint32 = 0x00000004
	CmdSessionContext    uint32 = 0x00000005
	CmdBitstreamBuffer   uint32 = 0x00000100
	CmdITScalingTable    uint32 = 0x00000204
	CmdContextBuffer     uint32 = 0x00000206
	CmdSubsampleSizeInfo uint32 = 0x00000207
)

// Sub-buffer validity bits of the unified decode buffer descriptor.
const (
	CmdbufFlagMsgBuffer         uint32 = 0x00000001
	CmdbufFlagDPBBuffer         uint32 = 0x00000002
	CmdbufFlagBitstreamBuffer   uint32 = 0x00000004
	CmdbufFlagDecodingTarget    uint32 = 0x00000008
	CmdbufFlagFeedbackBuffer    uint32 = 0x00000010
	CmdbufFlagITScalingBuffer   uint32 = 0x00000200
	CmdbufFlagContextBuffer     uint32 = 0x00000800
	CmdbufFlagProbTblBuffer     uint32 = 0x00001000
	CmdbufFlagSessionContext    uint32 = 0x00100000
	CmdbufFlagSubsampleSizeInfo uint32 = 0x00200000
	CmdbufFlagRefBuffer         uint32 = 0x00400000
)

// Decode message flags.
const (
	DecodeFlagUseDynamicDPB uint32 = 0x00000001
	DecodeFlagUsePAL        uint32 = 0x00000008
	DecodeFlagDPBResize     uint32 = 0x00100000
	DecodeFlagUnifiedDT     uint32 = 0x00200000
	DecodeFlagLowLatency    uint32 = 0x00400000
)

// Surface addressing modes.
const (
	ArrayModeLinear       uint32 = 0x00000000
	ArrayModeAddrlibGFX9  uint32 = 0x00000010
	ArrayModeAddrlibGFX11 uint32 = 0x00000011
)

// VCN5SwizzleMode256BD is the DPB swizzle forced on VCN 5.0.0 flat DPBs.
const VCN5SwizzleMode256BD uint32 = 1

// AV1 firmware interface revisions.
const (
	AV1Ver0 uint32 = 0
	AV1Ver1 uint32 = 1
	AV1Ver2 uint32 = 2
)

// H.264 profile codes.
const (
	H264ProfileBaseline uint32 = 0
	H264ProfileMain     uint32 = 1
	H264ProfileHigh     uint32 = 2
)

// H.264 SPS info flag shifts.
const (
	SPSH264Direct8x8InferenceShift      = 0
	SPSH264MBAdaptiveFrameFieldShift    = 1
	SPSH264FrameMBsOnlyShift            = 2
	SPSH264DeltaPicOrderAlwaysZeroShift = 3
	SPSH264GapsInFrameNumAllowedShift   = 5
	SPSH264ExtensionSupportShift        = 7
)

// Queue envelope constants for the unified submission path.
const (
	EngineInfoSize   uint32 = 0x00000010
	EngineInfo       uint32 = 0x30000001
	EngineTypeDecode uint32 = 0x00000003
)

// IB package types appended after the decode buffer descriptor.
const (
	PackageTypeDecodeBuffer   uint32 = 0x00000001
	PackageTypeDynamicRefList uint32 = 0x00000002
)

// DRM control and command bit positions.
const (
	DRMCntlBypassShift     = 0
	DRMCntlCENCEnableShift = 1
	DRMCmdKeyShift         = 1
	DRMCmdCntKeyShift      = 2
	DRMCmdCntDataShift     = 3
	DRMCmdOffsetShift      = 4
	DRMCmdGenMaskShift     = 8
	DRMCmdAlgorithmShift   = 12
	DRMCmdByteMaskShift    = 16
	DRMCmdSessionSelShift  = 24
	DRMCmdUnwrapKeyShift   = 28
)

// DRM cipher selections.
const (
	DRMAlgorithmCTR uint32 = 0
	DRMAlgorithmCBC uint32 = 2
)

// Sizes shared by the session and embedded layouts.
const (
	SessionContextSize = 128 * 1024
	VP9ProbsDataSize   = 2304
	VP9SegmentDataSize = 256
	MaxSubsampleSize   = 8192
	MaxSubsamples      = 288
)

// Registers names the four engine registers written by the legacy
// submission path.
type Registers struct {
	Data0 uint32
	Data1 uint32
	Cmd   uint32
	Cntl  uint32
}

// Register tables per engine generation.
var (
	RegsVCN1  = Registers{Data0: 0x20710, Data1: 0x20714, Cmd: 0x2070c, Cntl: 0x20718}
	RegsVCN2  = Registers{Data0: 0x504 << 2, Data1: 0x505 << 2, Cmd: 0x503 << 2, Cntl: 0x506 << 2}
	RegsVCN25 = Registers{Data0: 0x40, Data1: 0x44, Cmd: 0x3c, Cntl: 0x9b4}
)

// PKT0 encodes a type-0 register write header for count+1 dwords at reg.
func PKT0(reg, count uint32) uint32 {
	return (reg & 0xffff) | (count&0x3fff)<<16
}
