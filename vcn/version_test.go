package vcn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailfishos-mirror/mesa-sub000/internal/cmdbuf"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Version
	}{
		{"4.0.2", VCN402},
		{"VCN 3.1.2", VCN312},
		{"3.0.33", VCN3033},
		{"1.0.0", VCN100},
		{"5.0.1", VCN501},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "4.0", "vcn", "9.9.9", "4.0.1"} {
		_, err := ParseVersion(bad)
		assert.ErrorIs(t, err, ErrUnsupportedVersion, bad)
	}
}

func TestVersionString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "VCN 3.0.16", VCN3016.String())
	for _, v := range Versions() {
		got, err := ParseVersion(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestVersionsSortedAndKnown(t *testing.T) {
	t.Parallel()
	vs := Versions()
	assert.Len(t, vs, len(hardware))
	for i, v := range vs {
		_, ok := hardware[v]
		assert.True(t, ok, v.String())
		if i > 0 {
			assert.Less(t, vs[i-1], v)
		}
	}
}

func TestSubmissionStyle(t *testing.T) {
	t.Parallel()
	assert.Equal(t, cmdbuf.Legacy, VCN100.style())
	assert.Equal(t, cmdbuf.Legacy, VCN312.style())
	assert.Equal(t, cmdbuf.Unified, VCN400.style())
	assert.Equal(t, cmdbuf.Unified, VCN501.style())
}

func TestSupportedTiers(t *testing.T) {
	t.Parallel()
	p := func(c Codec, depth uint32) SessionParams { return SessionParams{Codec: c, MaxBitDepth: depth} }
	tests := []struct {
		name string
		v    Version
		p    SessionParams
		want Tier
	}{
		{"vp9 on vcn2.6", VCN260, p(CodecVP9, 8), Tier1},
		{"vp9 on vcn3", VCN300, p(CodecVP9, 8), Tier2},
		{"avc on vcn2", VCN200, p(CodecAVC, 8), Tier0},
		{"hevc on vcn4", VCN400, p(CodecHEVC, 10), Tier2},
		{"av1 on vcn5", VCN500, p(CodecAV1, 10), Tier2 | Tier3},
		{"av1 12 bit on vcn5", VCN500, p(CodecAV1, 12), Tier2},
		{"mpeg2 on vcn5", VCN500, p(CodecMPEG2, 8), Tier0},
		{"vc1 on vcn1", VCN100, p(CodecVC1, 8), Tier0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, supportedTiers(tt.v, tt.p))
		})
	}
}

func TestTierString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "tier2", Tier2.String())
	assert.Equal(t, "tiers(0x6)", (Tier2 | Tier3).String())
}

func TestParseCodec(t *testing.T) {
	t.Parallel()
	for _, c := range Codecs() {
		got, err := ParseCodec(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCodec("mjpeg")
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}
