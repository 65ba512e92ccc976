// Package vcn builds the firmware messages and command streams that drive
// the AMD VCN video decode engine.
//
// A Decoder is created once per session from the session parameters and
// the hardware revision. It reports the buffer sizes the caller must
// allocate and then fills command buffers for the create, decode and
// destroy submissions. Allocation and submission stay with the caller.
package vcn

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/cmdbuf"
	"github.com/sailfishos-mirror/mesa-sub000/internal/probs"
	"github.com/sailfishos-mirror/mesa-sub000/streamhandle"
)

// Command buffer limits in dwords.
const (
	MaxCreateDwords  = 64
	MaxDecodeDwords  = 512
	MaxDestroyDwords = 64
)

// Tables supplies default probability tables and the film grain Gaussian
// sequence by name.
type Tables interface {
	Table(name string) ([]byte, bool)
}

// TablesFS reads tables from name.bin files in fsys.
func TablesFS(fsys fs.FS) Tables {
	return probs.FSSource{FS: fsys}
}

// SyntheticTables returns correctly sized placeholder tables for every
// codec. They exercise the layouts but do not decode real streams.
func SyntheticTables() Tables {
	specs := append([]probs.Spec{probs.GaussianSequence}, probs.VP9Specs...)
	return probs.Synthetic(append(specs, probs.AV1Specs...)...)
}

// Config carries the collaborators of a Decoder.
type Config struct {
	// Log receives debug output. If nil, slog.Default() is used.
	Log *slog.Logger
	// Handles issues stream handles. Decoders on one device should share
	// a pool. If nil, the decoder creates its own.
	Handles *streamhandle.Pool
	// Tables provides the VP9 and AV1 defaults.
	Tables Tables
}

// Decoder holds the fixed state of one decode session. The Build methods
// only read it, so frames of one session may be built concurrently.
type Decoder struct {
	log     *slog.Logger
	handles *streamhandle.Pool

	params  SessionParams
	version Version
	hw      hwInfo
	tiers   Tier
	sizes   Sizes
	handle  uint32

	tables *probs.Tables
	gauss  []int16

	closeOnce sync.Once
}

// NewDecoder validates the session and derives its sizes.
func NewDecoder(v Version, p SessionParams, cfg Config) (*Decoder, error) {
	hw, ok := hardware[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	sizes, err := SessionSizes(p, v)
	if err != nil {
		return nil, err
	}
	if err := checkChroma(p); err != nil {
		return nil, err
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "vcn-decoder")

	d := &Decoder{
		log:     log,
		handles: cfg.Handles,
		params:  p,
		version: v,
		hw:      hw,
		tiers:   supportedTiers(v, p),
		sizes:   sizes,
	}
	if cfg.Tables != nil {
		if err := d.loadTables(cfg.Tables); err != nil {
			return nil, err
		}
	}
	if d.handles == nil {
		d.handles = streamhandle.NewPool(log)
	}
	d.handle = d.handles.Alloc()

	log.Debug("decoder created",
		"codec", p.Codec,
		"version", v,
		"handle", fmt.Sprintf("%#08x", d.handle),
		"session", sizes.Session,
		"embedded", sizes.Embedded,
		"tiers", d.tiers,
	)
	return d, nil
}

// checkChroma rejects sessions whose chroma format the codec message
// cannot express. VP9 is always sent as 4:2:0; AV1 also carries monochrome.
func checkChroma(p SessionParams) error {
	if p.Chroma < Chroma420 || p.Chroma > Chroma400 {
		return fmt.Errorf("%w: chroma format %s", ErrUnsupportedParameters, p.Chroma)
	}
	switch {
	case p.Codec == CodecVP9 && p.Chroma != Chroma420,
		p.Codec == CodecAV1 && p.Chroma != Chroma420 && p.Chroma != Chroma400:
		return fmt.Errorf("%w: %s session with %s chroma", ErrUnsupportedParameters, p.Codec, p.Chroma)
	}
	return nil
}

func (d *Decoder) loadTables(src Tables) error {
	var specs []probs.Spec
	switch d.params.Codec {
	case CodecVP9:
		specs = probs.VP9Specs
	case CodecAV1:
		specs = append([]probs.Spec{probs.GaussianSequence}, probs.AV1Specs...)
	default:
		return nil
	}
	t, err := probs.Load(src, specs...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoTables, err)
	}
	d.tables = t
	if d.params.Codec == CodecAV1 {
		d.gauss = t.Int16s(probs.GaussianSequence.Name)
	}
	return nil
}

// Close releases the stream handle. It is safe to call more than once.
func (d *Decoder) Close() error {
	d.closeOnce.Do(func() {
		d.handles.Release(d.handle)
		d.log.Debug("decoder closed", "handle", fmt.Sprintf("%#08x", d.handle))
	})
	return nil
}

// Params returns the session parameters.
func (d *Decoder) Params() SessionParams { return d.params }

// Version returns the hardware revision.
func (d *Decoder) Version() Version { return d.version }

// Sizes returns the buffer sizes and embedded offsets of the session.
func (d *Decoder) Sizes() Sizes { return d.sizes }

// Tiers returns the DPB tiers the session supports besides Tier0.
func (d *Decoder) Tiers() Tier { return d.tiers }

// StreamHandle returns the firmware stream handle of the session.
func (d *Decoder) StreamHandle() uint32 { return d.handle }

// Unified reports whether commands go to the unified queue.
func (d *Decoder) Unified() bool { return d.version.style() == cmdbuf.Unified }

// AV1Version returns the AV1 firmware interface revision.
func (d *Decoder) AV1Version() uint32 { return d.hw.av1 }

// InitSessionBuffer writes the codec defaults into a mapped session
// buffer. Only VP9 and AV1 sessions need it.
func (d *Decoder) InitSessionBuffer(buf []byte) error {
	switch d.params.Codec {
	case CodecVP9, CodecAV1:
	default:
		return fmt.Errorf("%w: %s", ErrNoSessionInit, d.params.Codec)
	}
	if d.tables == nil {
		return ErrNoTables
	}
	if len(buf) < int(d.sizes.Session) {
		return fmt.Errorf("%w: session buffer is %d bytes, need %d", ErrBufferTooSmall, len(buf), d.sizes.Session)
	}
	ctx := buf[abi.SessionContextSize:]
	if d.params.Codec == CodecVP9 {
		return probs.InitVP9(ctx, d.tables)
	}
	return probs.InitAV1(ctx, d.hw.av1, d.tables)
}

// stream opens a submission of at most limit dwords on buf.
func (d *Decoder) stream(buf []uint32, limit int) (*cmdbuf.Stream, error) {
	s := cmdbuf.NewStream(cmdbuf.New(buf, limit), d.version.style(), d.hw.regs)
	if err := s.Begin(); err != nil {
		return nil, cmdErr(err)
	}
	return s, nil
}

// cmdErr maps command buffer overflow onto ErrCommandOverflow.
func cmdErr(err error) error {
	if errors.Is(err, cmdbuf.ErrOverflow) {
		return fmt.Errorf("%w: %w", ErrCommandOverflow, err)
	}
	return err
}
