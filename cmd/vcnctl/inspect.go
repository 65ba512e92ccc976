package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/capture"
	"github.com/sailfishos-mirror/mesa-sub000/vcn"
)

var messageNames = map[uint32]string{
	abi.MessageCreate:     "create",
	abi.MessageDecode:     "decode",
	abi.MessageDRM:        "drm",
	abi.MessageAVC:        "avc",
	abi.MessageVC1:        "vc1",
	abi.MessageMPEG2VLD:   "mpeg2",
	abi.MessageHEVC:       "hevc",
	abi.MessageVP9:        "vp9",
	abi.MessageDynamicDPB: "dynamic_dpb",
	abi.MessageAV1:        "av1",
	abi.MessageDRMKeyblob: "drm_keyblob",
}

func runInspect(args []string) error {
	fs, _ := newFlagSet("inspect")
	words := fs.BoolP("words", "w", false, "print command words")
	verbose := fs.BoolP("verbose", "v", false, "dump decoded message headers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := envOr("VCNCTL_CAPTURE", "vcn.capture")
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return inspect(os.Stdout, f, *words, *verbose)
}

func inspect(w io.Writer, r io.Reader, words, verbose bool) error {
	cr, err := capture.NewReader(r)
	if err != nil {
		return err
	}
	h := cr.Header
	fmt.Fprintf(w, "capture format %d: %s %s handle %#08x\n", h.Format, vcn.Version(h.Hardware), h.Codec, h.Handle)

	for {
		s, err := cr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s frame=%d dwords=%d embedded=%d\n", s.Kind, s.Frame, len(s.Words), len(s.Embedded))
		if words {
			printWords(w, s.Words)
		}
		if err := printMessages(w, s.Embedded, verbose); err != nil {
			return fmt.Errorf("%s frame %d: %w", s.Kind, s.Frame, err)
		}
	}
}

func printWords(w io.Writer, words []uint32) {
	for i := 0; i < len(words); i += 8 {
		var sb strings.Builder
		for _, v := range words[i:min(i+8, len(words))] {
			fmt.Fprintf(&sb, " %08x", v)
		}
		fmt.Fprintf(w, "  %04x:%s\n", i, sb.String())
	}
}

// printMessages decodes the message header at the start of an embedded
// buffer and lists its index entries.
func printMessages(w io.Writer, emb []byte, verbose bool) error {
	var hdr abi.Header
	if err := abi.Get(emb, 0, &hdr); err != nil {
		return err
	}
	if verbose {
		spew.Fdump(w, hdr)
	}
	var idx []abi.Index
	if hdr.NumBuffers > 0 {
		idx = append(idx, hdr.Index)
	}
	for i := 1; i < int(hdr.NumBuffers); i++ {
		var e abi.Index
		if err := abi.Get(emb, abi.SizeHeader+(i-1)*abi.SizeIndex, &e); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
		idx = append(idx, e)
	}
	fmt.Fprintf(w, "  header size=%d total=%d buffers=%d type=%d\n", hdr.HeaderSize, hdr.TotalSize, hdr.NumBuffers, hdr.MsgType)
	for _, e := range idx {
		name, ok := messageNames[e.MessageID]
		if !ok {
			name = fmt.Sprintf("%#x", e.MessageID)
		}
		fmt.Fprintf(w, "  %-12s offset=%d size=%d\n", name, e.Offset, e.Size)
	}
	return nil
}
