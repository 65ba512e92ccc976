package vcn

import (
	"encoding/binary"
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
)

// Subsample describes one clear/encrypted run of a CENC sample.
type Subsample struct {
	Clear       uint32
	Encrypted   uint32
	Flags       uint8
	BlockOffset uint8
}

// SecureBuffer is the packed CENC descriptor handed over by the content
// decryption module. Field order and sizes follow the wire format
// exactly; blank fields are reserved.
type SecureBuffer struct {
	Cookie  [8]byte
	Version uint8
	_       [55]byte

	Subsamples       [abi.MaxSubsamples]Subsample
	IV               [16]byte
	PatternEncrypt   uint32
	PatternSkip      uint32
	SubsamplesLength uint32

	WrappedKey   [16]byte
	WrappedKeyIV [16]byte
	// KeyFlags holds the DRM session id in bits 0-3, AES-CTR in bit 4
	// and AES-CBC in bit 5.
	KeyFlags uint32

	PolicyWrappedKey [16]byte
	PolicyIndex      [4]byte
	PolicyArray      [32]uint32
	PolicySignature  [16]byte
	_                [128]byte
}

// SecureBufferCookie is the expected value of SecureBuffer.Cookie.
var SecureBufferCookie = [8]byte{'w', 'v', 'c', 'e', 'n', 'c', 's', 'b'}

// SecureBufferSize is the encoded size of a SecureBuffer.
var SecureBufferSize = abi.Size(SecureBuffer{})

// SessionID returns the DRM session selected by the key blob.
func (b *SecureBuffer) SessionID() uint32 { return b.KeyFlags & 0xf }

// ParseSecureBuffer decodes a packed CENC descriptor.
func ParseSecureBuffer(buf []byte) (*SecureBuffer, error) {
	if len(buf) < SecureBufferSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrBadSecureBuffer, len(buf), SecureBufferSize)
	}
	var b SecureBuffer
	if err := abi.Get(buf, 0, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSecureBuffer, err)
	}
	return &b, nil
}

// Bytes encodes b in the packed wire format.
func (b *SecureBuffer) Bytes() []byte {
	out := make([]byte, SecureBufferSize)
	abi.Put(out, 0, b)
	return out
}

// Legacy decryption flag bits of DecryptParams.Flags.
const (
	DecryptCTR uint32 = 1 << 4
	DecryptCBC uint32 = 1 << 5
)

// DecryptParams is the legacy per-frame AES descriptor.
type DecryptParams struct {
	FrameSize    uint32
	EncryptedIV  [16]byte
	EncryptedKey [16]byte
	SessionIV    [16]byte
	// Flags holds the DRM id in bits 0-3 plus DecryptCTR or DecryptCBC.
	Flags uint32
}

// DecryptParamsSize is the encoded size of DecryptParams.
var DecryptParamsSize = abi.Size(DecryptParams{})

// DRMID returns the DRM session id.
func (p *DecryptParams) DRMID() uint32 { return p.Flags & 0xf }

// ParseDecryptParams decodes a legacy AES descriptor.
func ParseDecryptParams(buf []byte) (*DecryptParams, error) {
	if len(buf) < DecryptParamsSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrBadSecureBuffer, len(buf), DecryptParamsSize)
	}
	var p DecryptParams
	if err := abi.Get(buf, 0, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSecureBuffer, err)
	}
	return &p, nil
}

func keyWords(b [16]byte) [4]uint32 {
	var w [4]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return w
}

// legacyDRM fills the DRM message for a legacy AES frame. Without a
// cipher selected the engine bypasses decryption.
func legacyDRM(p *DecryptParams) abi.DRM {
	drm := abi.DRM{DrmCntl: 1 << abi.DRMCntlBypassShift}
	if p.Flags&(DecryptCTR|DecryptCBC) == 0 {
		return drm
	}
	alg := abi.DRMAlgorithmCBC
	if p.Flags&DecryptCTR != 0 {
		alg = abi.DRMAlgorithmCTR
	}
	drm.DrmCntl = 0
	drm.DrmCmd = 0xff<<abi.DRMCmdByteMaskShift |
		alg<<abi.DRMCmdAlgorithmShift |
		1<<abi.DRMCmdGenMaskShift |
		1<<abi.DRMCmdUnwrapKeyShift |
		1<<abi.DRMCmdCntDataShift |
		1<<abi.DRMCmdCntKeyShift |
		1<<abi.DRMCmdKeyShift |
		p.DRMID()<<abi.DRMCmdSessionSelShift
	drm.DrmWrappedKey = keyWords(p.EncryptedKey)
	drm.DrmKey = keyWords(p.SessionIV)
	drm.DrmCounter = keyWords(p.EncryptedIV)
	return drm
}

// cencDRM fills the DRM and key blob messages for a CENC frame.
func cencDRM(b *SecureBuffer) (abi.DRM, abi.DRMKeyblob) {
	drm := abi.DRM{
		DrmCntl:          0x3 << abi.DRMCntlCENCEnableShift,
		DrmWrappedKey:    keyWords(b.WrappedKey),
		DrmKey:           keyWords(b.WrappedKeyIV),
		DrmCounter:       keyWords(b.IV),
		DrmSubsampleSize: b.SubsamplesLength,
		DrmCmd: 1<<abi.DRMCmdKeyShift |
			1<<abi.DRMCmdCntKeyShift |
			1<<abi.DRMCmdCntDataShift |
			1<<abi.DRMCmdOffsetShift |
			1<<abi.DRMCmdGenMaskShift |
			0xff<<abi.DRMCmdByteMaskShift |
			b.SessionID()<<abi.DRMCmdSessionSelShift |
			1<<abi.DRMCmdUnwrapKeyShift,
	}
	blob := abi.DRMKeyblob{
		ContentKey:  keyWords(b.PolicyWrappedKey),
		Signature:   keyWords(b.PolicySignature),
		PolicyIndex: binary.LittleEndian.Uint32(b.PolicyIndex[:]),
	}
	// The firmware reads the first 32 bytes of the policy array.
	copy(blob.PolicyArray[:8], b.PolicyArray[:8])
	return drm, blob
}

// subsampleTable writes the clear/encrypted size pairs of b into dst and
// folds the bytes not covered by any subsample into the last run: the
// encrypted count when it is non-zero, the clear count otherwise.
func subsampleTable(dst []byte, b *SecureBuffer, bitstreamSize uint32) error {
	n := min(int(b.SubsamplesLength), abi.MaxSubsamples)
	if n == 0 {
		return fmt.Errorf("%w: no subsamples", ErrBadSecureBuffer)
	}
	if len(dst) < n*8 {
		return fmt.Errorf("%w: subsample area is %d bytes, need %d", ErrBufferTooSmall, len(dst), n*8)
	}

	pairs := make([][2]uint32, n)
	var total uint64
	for i := range pairs {
		pairs[i] = [2]uint32{b.Subsamples[i].Clear, b.Subsamples[i].Encrypted}
		total += uint64(pairs[i][0]) + uint64(pairs[i][1])
	}
	if total > uint64(bitstreamSize) {
		return fmt.Errorf("%w: subsamples cover %d bytes of a %d byte bitstream", ErrBadSecureBuffer, total, bitstreamSize)
	}
	rest := bitstreamSize - uint32(total)
	if last := &pairs[n-1]; last[1] != 0 {
		last[1] += rest
	} else {
		last[0] += rest
	}

	for i, p := range pairs {
		binary.LittleEndian.PutUint32(dst[i*8:], p[0])
		binary.LittleEndian.PutUint32(dst[i*8+4:], p[1])
	}
	return nil
}
