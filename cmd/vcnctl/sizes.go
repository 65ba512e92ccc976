package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/sailfishos-mirror/mesa-sub000/vcn"
)

type sizeRow struct {
	codec   vcn.Codec
	version vcn.Version
	sizes   vcn.Sizes
	dpb     uint32
}

func runSizes(args []string) error {
	fs, jobs := newFlagSet("sizes")
	codecs := fs.StringSlice("codec", nil, "codecs to include (default all)")
	hw := fs.StringSlice("hw", nil, "hardware versions to include, e.g. 4.0.0 (default all)")
	width := fs.Uint32("width", 1920, "maximum picture width")
	height := fs.Uint32("height", 1088, "maximum picture height")
	depth := fs.Uint32("bitdepth", 8, "maximum bit depth")
	refs := fs.Uint32("refs", 16, "maximum number of references")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cs, err := parseCodecs(*codecs)
	if err != nil {
		return err
	}
	vs, err := parseVersions(*hw)
	if err != nil {
		return err
	}

	rows := make([]sizeRow, 0, len(cs)*len(vs))
	for _, c := range cs {
		for _, v := range vs {
			rows = append(rows, sizeRow{codec: c, version: v})
		}
	}

	var g errgroup.Group
	g.SetLimit(max(*jobs, 1))
	for i := range rows {
		r := &rows[i]
		g.Go(func() error {
			p := vcn.SessionParams{
				Codec:       r.codec,
				MaxWidth:    *width,
				MaxHeight:   *height,
				MaxBitDepth: *depth,
				MaxNumRef:   *refs,
			}
			s, err := vcn.SessionSizes(p, r.version)
			if err != nil {
				return fmt.Errorf("%s on %s: %w", r.codec, r.version, err)
			}
			r.sizes = s
			r.dpb = vcn.DPBSize(p, r.version)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "codec\thw\tcontext\tsession\ttmz\tembedded\tit/probs\tfeedback\tsubsample\tdpb\talign\t")
	for _, r := range rows {
		s := r.sizes
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			r.codec, r.version, s.HWContext, s.Session, s.SessionTMZ, s.Embedded,
			s.ITProbsOffset, s.FeedbackOffset, s.SubsampleOffset, r.dpb, s.DPBAlignment)
	}
	return tw.Flush()
}

func parseCodecs(names []string) ([]vcn.Codec, error) {
	if len(names) == 0 {
		return vcn.Codecs(), nil
	}
	out := make([]vcn.Codec, 0, len(names))
	for _, n := range names {
		c, err := vcn.ParseCodec(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseVersions(names []string) ([]vcn.Version, error) {
	if len(names) == 0 {
		return vcn.Versions(), nil
	}
	out := make([]vcn.Version, 0, len(names))
	for _, n := range names {
		v, err := vcn.ParseVersion(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
