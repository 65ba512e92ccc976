package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/sync/errgroup"

	"github.com/sailfishos-mirror/mesa-sub000/internal/capture"
	"github.com/sailfishos-mirror/mesa-sub000/vcn"
)

// Synthetic GPU addresses of the dumped session.
const (
	sessionVA   = 0x0000_0010_0000_0000
	embeddedVA  = 0x0000_0011_0000_0000
	bitstreamVA = 0x0000_0012_0000_0000
	surfaceVA   = 0x0000_0020_0000_0000
)

type dumpOptions struct {
	version vcn.Version
	codec   vcn.Codec
	tier    vcn.Tier
	width   uint32
	height  uint32
	depth   uint32
	refs    int
	frames  int
}

func runDump(args []string) error {
	fs, jobs := newFlagSet("dump")
	hw := fs.String("hw", envOr("VCNCTL_HW", "4.0.0"), "hardware version")
	codec := fs.String("codec", envOr("VCNCTL_CODEC", "hevc"), "codec")
	tier := fs.Int("tier", 0, "DPB tier (0-3)")
	width := fs.Uint32("width", 1920, "picture width")
	height := fs.Uint32("height", 1080, "picture height")
	depth := fs.Uint32("bitdepth", 8, "bit depth")
	refs := fs.Int("refs", 2, "references per frame")
	frames := fs.IntP("frames", "n", 4, "frames to build")
	out := fs.StringP("out", "o", envOr("VCNCTL_CAPTURE", "vcn.capture"), "capture file")
	tables := fs.String("tables", envOr("VCNCTL_TABLES", ""), "directory of probability tables (default synthetic)")
	verbose := fs.BoolP("verbose", "v", false, "dump decoder state")
	if err := fs.Parse(args); err != nil {
		return err
	}

	o := dumpOptions{width: *width, height: *height, depth: *depth, refs: *refs, frames: *frames}
	var err error
	if o.version, err = vcn.ParseVersion(*hw); err != nil {
		return err
	}
	if o.codec, err = vcn.ParseCodec(*codec); err != nil {
		return err
	}
	if o.tier, err = parseTier(*tier); err != nil {
		return err
	}
	if o.depth < 8 || o.depth > 12 {
		return fmt.Errorf("%w: bit depth %d", vcn.ErrUnsupportedParameters, o.depth)
	}
	if o.refs < 0 || o.refs >= vcn.MaxRefs {
		return fmt.Errorf("refs must be in [0, %d)", vcn.MaxRefs)
	}

	src := vcn.SyntheticTables()
	if *tables != "" {
		src = vcn.TablesFS(os.DirFS(*tables))
	}
	d, err := vcn.NewDecoder(o.version, vcn.SessionParams{
		Codec:       o.codec,
		MaxWidth:    align(o.width, 16),
		MaxHeight:   align(o.height, 16),
		MaxBitDepth: o.depth,
		MaxNumRef:   uint32(o.refs + 1),
	}, vcn.Config{Log: slog.Default(), Tables: src})
	if err != nil {
		return err
	}
	defer d.Close()

	if *verbose {
		spew.Fdump(os.Stderr, d.Sizes())
		slog.Info("session", "version", d.Version(), "unified", d.Unified(), "tiers", d.Tiers(), "av1", d.AV1Version())
	}

	subs, err := buildSubmissions(d, o, *jobs)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	cw, err := capture.NewWriter(bw, capture.Header{
		Hardware: uint32(o.version),
		Codec:    o.codec.String(),
		Handle:   d.StreamHandle(),
	})
	if err != nil {
		return err
	}
	for _, s := range subs {
		if err := cw.Write(s); err != nil {
			return fmt.Errorf("writing %s submission: %w", s.Kind, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	slog.Info("capture written", "path", *out, "submissions", len(subs), "codec", o.codec, "hw", o.version)
	return f.Close()
}

// buildSubmissions builds the create, decode and destroy submissions of
// one session. Decode frames are built concurrently, each into its own
// buffers.
func buildSubmissions(d *vcn.Decoder, o dumpOptions, jobs int) ([]capture.Submission, error) {
	emb := d.Sizes().Embedded
	subs := make([]capture.Submission, o.frames+2)

	create := &vcn.CreateCmd{
		CmdBuffer:  make([]uint32, vcn.MaxCreateDwords),
		SessionVA:  sessionVA,
		EmbeddedVA: embeddedVA,
		Embedded:   make([]byte, emb),
	}
	if err := d.BuildCreate(create); err != nil {
		return nil, err
	}
	subs[0] = capture.Submission{Kind: capture.KindCreate, Words: create.CmdBuffer[:create.Out.Dwords], Embedded: create.Embedded}

	var g errgroup.Group
	g.SetLimit(max(jobs, 1))
	for i := range o.frames {
		g.Go(func() error {
			cmd := syntheticFrame(d, o, i)
			if err := d.BuildDecode(cmd); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			subs[i+1] = capture.Submission{
				Kind:     capture.KindDecode,
				Frame:    uint64(i),
				Words:    cmd.CmdBuffer[:cmd.Out.Dwords],
				Embedded: cmd.Embedded,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	destroy := &vcn.DestroyCmd{
		CmdBuffer:  make([]uint32, vcn.MaxDestroyDwords),
		EmbeddedVA: embeddedVA,
		Embedded:   make([]byte, emb),
	}
	if err := d.BuildDestroy(destroy); err != nil {
		return nil, err
	}
	subs[len(subs)-1] = capture.Submission{Kind: capture.KindDestroy, Frame: uint64(o.frames), Words: destroy.CmdBuffer[:destroy.Out.Dwords], Embedded: destroy.Embedded}
	return subs, nil
}

func parseTier(n int) (vcn.Tier, error) {
	switch n {
	case 0:
		return vcn.Tier0, nil
	case 1:
		return vcn.Tier1, nil
	case 2:
		return vcn.Tier2, nil
	case 3:
		return vcn.Tier3, nil
	}
	return 0, fmt.Errorf("%w: %d", vcn.ErrUnsupportedTier, n)
}

func align(v, a uint32) uint32 { return (v + a - 1) &^ (a - 1) }
