package vcn

import (
	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/bitfield"
)

// MPEG2Params is the per-picture MPEG-2 parameter set.
type MPEG2Params struct {
	LoadIntraQuantiserMatrix    bool
	LoadNonintraQuantiserMatrix bool
	IntraQuantiserMatrix        [64]uint8
	NonintraQuantiserMatrix     [64]uint8

	PictureCodingType        uint8
	FCode                    [2][2]uint8
	IntraDCPrecision         uint8
	PicStructure             uint8
	TopFieldFirst            bool
	FramePredFrameDCT        bool
	ConcealmentMotionVectors bool
	QScaleType               bool
	IntraVLCFormat           bool
	AlternateScan            bool
}

func (p *MPEG2Params) Codec() Codec { return CodecMPEG2 }

func (p *MPEG2Params) refIDs() []uint32 { return nil }

func (p *MPEG2Params) build(d *Decoder, cmd *DecodeCmd, it []byte) (codecMessage, error) {
	b := func(v bool) uint8 { return uint8(bitfield.Bool(v)) }
	msg := &abi.MPEG2{
		LoadIntraQuantiserMatrix:    b(p.LoadIntraQuantiserMatrix),
		LoadNonintraQuantiserMatrix: b(p.LoadNonintraQuantiserMatrix),
		IntraQuantiserMatrix:        p.IntraQuantiserMatrix,
		NonintraQuantiserMatrix:     p.NonintraQuantiserMatrix,

		ChromaFormat:             1,
		PictureCodingType:        p.PictureCodingType,
		FCode:                    p.FCode,
		IntraDcPrecision:         p.IntraDCPrecision,
		PicStructure:             p.PicStructure,
		TopFieldFirst:            b(p.TopFieldFirst),
		FramePredFrameDct:        b(p.FramePredFrameDCT),
		ConcealmentMotionVectors: b(p.ConcealmentMotionVectors),
		QScaleType:               b(p.QScaleType),
		IntraVlcFormat:           b(p.IntraVLCFormat),
		AlternateScan:            b(p.AlternateScan),
	}
	return codecMessage{id: abi.MessageMPEG2VLD, msg: msg}, nil
}
