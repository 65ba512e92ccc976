package abi

// AVCMVC carries the multiview extension of the AVC message.
type AVCMVC struct {
	NumViews uint32
	ViewID0  uint32
}

// AVC is the H.264 codec message.
type AVC struct {
	Profile      uint32
	Level        uint32
	SPSInfoFlags uint32
	PPSInfoFlags uint32

	ChromaFormat                uint8
	BitDepthLumaMinus8          uint8
	BitDepthChromaMinus8        uint8
	Log2MaxFrameNumMinus4       uint8
	PicOrderCntType             uint8
	Log2MaxPicOrderCntLsbMinus4 uint8
	NumRefFrames                uint8
	_                           uint8
	PicInitQpMinus26            int8
	PicInitQsMinus26            int8
	ChromaQpIndexOffset         int8
	SecondChromaQpIndexOffset   int8
	NumSliceGroupsMinus1        uint8
	SliceGroupMapType           uint8
	NumRefIdxL0ActiveMinus1     uint8
	NumRefIdxL1ActiveMinus1     uint8
	SliceGroupChangeRateMinus1  uint16
	_                           uint16

	ScalingList4x4 [6][16]uint8
	ScalingList8x8 [2][64]uint8

	FrameNum              uint32
	FrameNumList          [16]uint32
	CurrFieldOrderCntList [2]int32
	FieldOrderCntList     [16][2]int32
	DecodedPicIdx         uint32
	CurrPicRefFrameNum    uint32
	RefFrameList          [16]uint8
	Reserved              [122]uint32
	MVC                   AVCMVC

	NonExistingFrameFlags uint16
	_                     uint16
	UsedForReferenceFlags uint32
}

// AVCITS is the H.264 inverse-transform scaling table.
type AVCITS struct {
	ScalingList4x4 [6][16]uint8
	ScalingList8x8 [2][64]uint8
}

// HEVC is the H.265 codec message.
type HEVC struct {
	SPSInfoFlags uint32
	PPSInfoFlags uint32

	ChromaFormat                         uint8
	BitDepthLumaMinus8                   uint8
	BitDepthChromaMinus8                 uint8
	Log2MaxPicOrderCntLsbMinus4          uint8
	SPSMaxDecPicBufferingMinus1          uint8
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
	NumShortTermRefPicSets               uint8
	NumLongTermRefPicSPS                 uint8
	NumRefIdxL0DefaultActiveMinus1       uint8
	NumRefIdxL1DefaultActiveMinus1       uint8
	PPSCbQpOffset                        int8
	PPSCrQpOffset                        int8
	PPSBetaOffsetDiv2                    int8
	PPSTcOffsetDiv2                      int8
	DiffCuQpDeltaDepth                   uint8
	NumTileColumnsMinus1                 uint8
	NumTileRowsMinus1                    uint8
	Log2ParallelMergeLevelMinus2         uint8
	ColumnWidthMinus1                    [19]uint16
	RowHeightMinus1                      [21]uint16
	InitQpMinus26                        int8
	NumDeltaPocsRefRPSIdx                uint8
	CurrIdx                              uint8
	_                                    uint8
	CurrPOC                              int32
	RefPicList                           [16]uint8
	POCList                              [16]int32
	RefPicSetStCurrBefore                [8]uint8
	RefPicSetStCurrAfter                 [8]uint8
	RefPicSetLtCurr                      [8]uint8
	ScalingListDCCoefSizeID2             [6]uint8
	ScalingListDCCoefSizeID3             [2]uint8
	HighestTid                           uint8
	IsNonRef                             uint8
	P010Mode                             uint8
	MSBMode                              uint8
	Luma10to8                            uint8
	Chroma10to8                          uint8
	_                                    [2]uint8
	DirectRefList                        [2][15]uint8
	_                                    [2]uint8
	StRPSBits                            uint32
}

// HEVCITS is the H.265 inverse-transform scaling table.
type HEVCITS struct {
	ScalingList4x4   [6][16]uint8
	ScalingList8x8   [6][64]uint8
	ScalingList16x16 [6][64]uint8
	ScalingList32x32 [2][64]uint8
}

// VP9 is the VP9 codec message.
type VP9 struct {
	FrameHeaderFlags uint32

	FrameContextIdx      uint8
	ResetFrameContext    uint8
	CurrPicIdx           uint8
	InterpFilter         uint8
	FilterLevel          uint8
	SharpnessLevel       uint8
	LfAdjLevel           [8][4][2]uint8
	BaseQindex           uint8
	YDcDeltaQ            int8
	UVAcDeltaQ           int8
	UVDcDeltaQ           int8
	Log2TileCols         uint8
	Log2TileRows         uint8
	ChromaFormat         uint8
	BitDepthLumaMinus8   uint8
	BitDepthChromaMinus8 uint8
	_                    uint8

	VP9FrameSize           uint32
	UncompressedHeaderSize uint32
	CompressedHeaderSize   uint32

	RefFrameMap      [8]uint8
	FrameRefs        [3]uint8
	RefFrameSignBias [3]uint8
	P010Mode         uint8
	MSBMode          uint8
	Luma10to8        uint8
	Chroma10to8      uint8
	_                [2]uint8
}

// VP9Segment is the segmentation block that follows the VP9
// probability table inside the IT/probs region.
type VP9Segment struct {
	FeatureData [8]uint32
	TreeProbs   [7]uint8
	PredProbs   [3]uint8
	FeatureMask [8]uint8
	AbsDelta    uint8
	_           [205]uint8
}

// AV1GlobalMotion is one reference's warp model.
type AV1GlobalMotion struct {
	WMType uint8
	_      [3]uint8
	WMMat  [6]int32
}

// AV1TileInfo locates one tile inside the bitstream.
type AV1TileInfo struct {
	Offset uint32
	Size   uint32
}

// FilmGrainParams is the film grain block of the AV1 message.
type FilmGrainParams struct {
	ApplyGrain            uint8
	ScalingShift          uint8
	ChromaScalingFromLuma uint8
	NumYPoints            uint8
	NumCbPoints           uint8
	NumCrPoints           uint8
	ScalingPointsY        [14][2]uint8
	ScalingPointsCb       [10][2]uint8
	ScalingPointsCr       [10][2]uint8
	ARCoeffLag            uint8
	ARCoeffsY             [24]int8
	ARCoeffsCb            [25]int8
	ARCoeffsCr            [25]int8
	ARCoeffShift          uint8
	CbMult                uint8
	CbLumaMult            uint8
	CrMult                uint8
	CrLumaMult            uint8
	CbOffset              uint16
	CrOffset              uint16
	OverlapFlag           uint8
	ClipToRestrictedRange uint8
	BitDepthMinus8        uint8
	GrainScaleShift       uint8
	RandomSeed            uint16
}

// AV1 is the AV1 codec message.
type AV1 struct {
	FrameHeaderFlags uint32
	CurrentFrameID   uint32
	FrameOffset      uint32

	Profile         uint8
	IsAnnexB        uint8
	FrameType       uint8
	PrimaryRefFrame uint8
	CurrPicIdx      uint8
	SbSize          uint8
	InterpFilter    uint8
	FilterLevel     [2]uint8
	FilterLevelU    uint8
	FilterLevelV    uint8
	SharpnessLevel  uint8
	RefDeltas       [8]int8
	ModeDeltas      [2]int8
	BaseQindex      uint8
	YDcDeltaQ       int8
	UDcDeltaQ       int8
	VDcDeltaQ       int8
	UAcDeltaQ       int8
	VAcDeltaQ       int8
	QmY             uint8
	QmU             uint8
	QmV             uint8
	DeltaQRes       uint8
	DeltaLfRes      uint8
	TileCols        uint8
	TileRows        uint8
	TxMode          uint8
	ReferenceMode   uint8
	ChromaFormat    uint8
	TileSizeBytes   uint8
	_               uint8

	ContextUpdateTileID uint32
	TileColStartSb      [65]uint16
	TileRowStartSb      [65]uint16

	MaxWidth              uint32
	MaxHeight             uint32
	Width                 uint32
	Height                uint32
	SuperresUpscaledWidth uint32

	SuperresScaleDenominator uint8
	OrderHintBits            uint8
	RefFrameMap              [8]uint8
	FrameRefs                [7]uint8
	RefFrameSignBias         [7]uint8
	BitDepthLumaMinus8       uint8
	BitDepthChromaMinus8     uint8
	P010Mode                 uint8
	MSBMode                  uint8

	FeatureData [8][8]int16
	FeatureMask [8]uint8

	CdefDamping          uint8
	CdefBits             uint8
	CdefStrengths        [8]uint8
	CdefUVStrengths      [8]uint8
	FrameRestorationType [3]uint8
	LastActiveSegID      uint8
	PreskipSegID         uint8
	SegLosslessFlag      uint8

	Log2RestorationUnitSizeMinus5 [3]uint16
	_                             [2]uint8

	GlobalMotion [8]AV1GlobalMotion
	TileInfo     [256]AV1TileInfo
	FilmGrain    FilmGrainParams
}

// AV1Segment is the segmentation block at the start of the AV1
// IT/probs region.
type AV1Segment struct {
	FeatureMask [8]uint8
	FeatureData [8][8]int16
}

// FilmGrainBuffer holds synthesized grain templates and scaling tables.
type FilmGrainBuffer struct {
	LumaGrainBlock [64][96]int16
	CbGrainBlock   [32][48]int16
	CrGrainBlock   [32][48]int16
	ScalingLUTY    [256]int16
	ScalingLUTCb   [256]int16
	ScalingLUTCr   [256]int16
}

// MPEG2 is the MPEG-2 VLD codec message.
type MPEG2 struct {
	DecodedPicIdx     uint32
	ForwardRefPicIdx  uint32
	BackwardRefPicIdx uint32

	LoadIntraQuantiserMatrix    uint8
	LoadNonintraQuantiserMatrix uint8
	_                           [2]uint8
	IntraQuantiserMatrix        [64]uint8
	NonintraQuantiserMatrix     [64]uint8

	ProfileAndLevelIndication uint8
	ChromaFormat              uint8
	PictureCodingType         uint8
	_                         uint8
	FCode                     [2][2]uint8
	IntraDcPrecision          uint8
	PicStructure              uint8
	TopFieldFirst             uint8
	FramePredFrameDct         uint8
	ConcealmentMotionVectors  uint8
	QScaleType                uint8
	IntraVlcFormat            uint8
	AlternateScan             uint8
}

// VC1 is the VC-1 codec message.
type VC1 struct {
	SPSInfoFlags uint32
	PPSInfoFlags uint32
	PicStructure uint32
	ChromaFormat uint32
	Profile      uint32
	Level        uint32

	DecodedPicIdx   uint16
	DeblockedPicIdx uint16
	ForwardRefIdx   uint16
	BackwardRefIdx  uint16
}

// Wire sizes of the codec messages and their IT/probs regions.
var (
	SizeAVC             = Size(AVC{})
	SizeAVCITS          = Size(AVCITS{})
	SizeHEVC            = Size(HEVC{})
	SizeHEVCITS         = Size(HEVCITS{})
	SizeVP9             = Size(VP9{})
	SizeVP9Segment      = Size(VP9Segment{})
	SizeVP9ProbsSegment = VP9ProbsDataSize + SizeVP9Segment
	SizeAV1             = Size(AV1{})
	SizeAV1Segment      = Size(AV1Segment{})
	SizeFilmGrainBuffer = Size(FilmGrainBuffer{})
	SizeAV1SegmentFG    = SizeAV1Segment + SizeFilmGrainBuffer
	SizeMPEG2           = Size(MPEG2{})
	SizeVC1             = Size(VC1{})
)
