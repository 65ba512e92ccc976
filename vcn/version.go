package vcn

import (
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
	"github.com/sailfishos-mirror/mesa-sub000/internal/cmdbuf"
)

// Version identifies a VCN hardware IP revision. Values are ordered, so
// revisions compare with < and >=.
type Version uint32

// Known hardware revisions, encoded as major<<16 | minor<<8 | revision.
const (
	VCN100  Version = 0x010000
	VCN101  Version = 0x010001
	VCN200  Version = 0x020000
	VCN202  Version = 0x020002
	VCN203  Version = 0x020003
	VCN220  Version = 0x020200
	VCN250  Version = 0x020500
	VCN260  Version = 0x020600
	VCN300  Version = 0x030000
	VCN302  Version = 0x030002
	VCN3016 Version = 0x030010
	VCN3033 Version = 0x030021
	VCN311  Version = 0x030101
	VCN312  Version = 0x030102
	VCN400  Version = 0x040000
	VCN402  Version = 0x040002
	VCN403  Version = 0x040003
	VCN404  Version = 0x040004
	VCN405  Version = 0x040005
	VCN406  Version = 0x040006
	VCN500  Version = 0x050000
	VCN501  Version = 0x050001
)

func (v Version) String() string {
	return fmt.Sprintf("VCN %d.%d.%d", uint32(v)>>16, uint32(v)>>8&0xff, uint32(v)&0xff)
}

// ParseVersion accepts "4.0.2" or "VCN 4.0.2" and returns a known
// revision.
func ParseVersion(s string) (Version, error) {
	var major, minor, rev uint32
	if _, err := fmt.Sscanf(s, "VCN %d.%d.%d", &major, &minor, &rev); err != nil {
		if _, err := fmt.Sscanf(s, "%d.%d.%d", &major, &minor, &rev); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
		}
	}
	v := Version(major<<16 | minor<<8 | rev)
	if _, ok := hardware[v]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
	return v, nil
}

// Versions lists every supported revision in ascending order.
func Versions() []Version {
	return []Version{
		VCN100, VCN101, VCN200, VCN202, VCN203, VCN220, VCN250, VCN260,
		VCN300, VCN302, VCN3016, VCN3033, VCN311, VCN312,
		VCN400, VCN402, VCN403, VCN404, VCN405, VCN406, VCN500, VCN501,
	}
}

// hwInfo is the per-revision submission profile.
type hwInfo struct {
	regs     abi.Registers
	addrMode uint32
	av1      uint32
}

var hardware = map[Version]hwInfo{
	VCN100: {regs: abi.RegsVCN1},
	VCN101: {regs: abi.RegsVCN1},
	VCN200: {regs: abi.RegsVCN2},
	VCN202: {regs: abi.RegsVCN2},
	VCN203: {regs: abi.RegsVCN2},
	VCN220: {regs: abi.RegsVCN2},

	VCN250:  {regs: abi.RegsVCN25},
	VCN260:  {regs: abi.RegsVCN25},
	VCN300:  {regs: abi.RegsVCN25},
	VCN302:  {regs: abi.RegsVCN25},
	VCN3016: {regs: abi.RegsVCN25},
	VCN3033: {regs: abi.RegsVCN25},
	VCN311:  {regs: abi.RegsVCN25},
	VCN312:  {regs: abi.RegsVCN25},

	VCN403: {addrMode: abi.ArrayModeAddrlibGFX9, av1: abi.AV1Ver1},
	VCN400: {addrMode: abi.ArrayModeAddrlibGFX11, av1: abi.AV1Ver1},
	VCN402: {addrMode: abi.ArrayModeAddrlibGFX11, av1: abi.AV1Ver1},
	VCN404: {addrMode: abi.ArrayModeAddrlibGFX11, av1: abi.AV1Ver1},
	VCN405: {addrMode: abi.ArrayModeAddrlibGFX11, av1: abi.AV1Ver1},
	VCN406: {addrMode: abi.ArrayModeAddrlibGFX11, av1: abi.AV1Ver1},
	VCN500: {addrMode: abi.ArrayModeAddrlibGFX11, av1: abi.AV1Ver2},
	VCN501: {av1: abi.AV1Ver2},
}

func (v Version) style() cmdbuf.Style {
	if v >= VCN400 {
		return cmdbuf.Unified
	}
	return cmdbuf.Legacy
}

// Tier is a bit set of DPB management models.
type Tier uint32

const (
	// Tier0 is a single flat DPB buffer owned by the firmware.
	Tier0 Tier = 0x0
	// Tier1 is a single texture array with a dynamic DPB descriptor.
	Tier1 Tier = 0x1
	// Tier2 is an array of textures addressed per reference slot.
	Tier2 Tier = 0x2
	// Tier3 is an array of textures passed as an IB reference list.
	Tier3 Tier = 0x4
)

func (t Tier) String() string {
	switch t {
	case Tier0:
		return "tier0"
	case Tier1:
		return "tier1"
	case Tier2:
		return "tier2"
	case Tier3:
		return "tier3"
	default:
		return fmt.Sprintf("tiers(%#x)", uint32(t))
	}
}

func supportedTiers(v Version, p SessionParams) Tier {
	var t Tier
	if p.Codec == CodecVP9 && v <= VCN260 {
		t |= Tier1
	}
	switch p.Codec {
	case CodecAVC, CodecHEVC, CodecVP9, CodecAV1:
		if v >= VCN300 {
			t |= Tier2
		}
		if v >= VCN500 && p.MaxBitDepth != 12 {
			t |= Tier3
		}
	}
	return t
}
