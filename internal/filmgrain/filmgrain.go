// Package filmgrain synthesizes the AV1 film grain templates and scaling
// tables that the decode firmware applies to the output picture.
//
// Synthesis is deterministic: the same parameters and Gaussian table
// always produce the same buffer.
package filmgrain

import (
	"errors"
	"fmt"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
)

const (
	lumaBlockH   = 73
	lumaBlockW   = 82
	chromaBlockH = 38
	chromaBlockW = 44
	gaussBits    = 11

	// GaussianLen is the number of entries in the Gaussian sequence.
	GaussianLen = 2048

	cbSeedXor = 0xb524
	crSeedXor = 0x49d8
)

var ErrGaussianTable = errors.New("filmgrain: gaussian sequence must have 2048 entries")

// Layout selects how grain templates are tiled into the firmware buffer.
type Layout int

const (
	// Padded stores 80-wide luma and 40-wide chroma rows with a 64-entry
	// gap every 4 luma or 8 chroma rows.
	Padded Layout = iota
	// Packed stores 64x64 luma and 32x32 chroma templates back to back.
	Packed
)

// LFSR is the 16-bit pseudo-random generator of the AV1 grain process.
type LFSR uint16

// Next advances the register and returns its top bits bits.
func (l *LFSR) Next(bits int) int32 {
	v := uint16(*l)
	bit := (v ^ v>>1 ^ v>>3 ^ v>>12) & 1
	v = v>>1 | bit<<15
	*l = LFSR(v)
	return int32(v>>(16-bits)) & (1<<bits - 1)
}

func roundPow2(v int32, n int32) int32 {
	if n <= 0 {
		return v
	}
	return (v + (1<<n)>>1) >> n
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type grain struct {
	gauss []int16
	shift int32
	min   int32
	max   int32
}

func (g *grain) fill(block [][]int32, seed uint16, enabled bool) {
	rng := LFSR(seed)
	for y := range block {
		for x := range block[y] {
			var v int32
			if enabled {
				r := rng.Next(gaussBits)
				v = int32(g.gauss[clamp(r, 0, GaussianLen-1)])
			}
			block[y][x] = roundPow2(v, g.shift)
		}
	}
}

func newBlock(h, w int) [][]int32 {
	rows := make([][]int32, h)
	backing := make([]int32, h*w)
	for i := range rows {
		rows[i] = backing[i*w : (i+1)*w]
	}
	return rows
}

// Synthesize builds the grain templates and scaling tables for one frame.
// Chroma subsampling is fixed at 4:2:0.
func Synthesize(p *abi.FilmGrainParams, gauss []int16, layout Layout) (*abi.FilmGrainBuffer, error) {
	if len(gauss) != GaussianLen {
		return nil, fmt.Errorf("%w: got %d", ErrGaussianTable, len(gauss))
	}
	bd := int32(p.BitDepthMinus8) + 8
	center := int32(128) << (bd - 8)
	g := &grain{
		gauss: gauss,
		shift: 12 - bd + int32(p.GrainScaleShift),
		min:   -center,
		max:   (256 << (bd - 8)) - 1 - center,
	}
	lag := int(p.ARCoeffLag)
	arShift := int32(p.ARCoeffShift)

	luma := newBlock(lumaBlockH, lumaBlockW)
	g.fill(luma, p.RandomSeed, p.NumYPoints > 0)
	for y := 3; y < lumaBlockH; y++ {
		for x := 3; x < lumaBlockW-3; x++ {
			var s int32
			pos := 0
		rows:
			for dr := -lag; dr <= 0; dr++ {
				for dc := -lag; dc <= lag; dc++ {
					if dr == 0 && dc == 0 {
						break rows
					}
					s += luma[y+dr][x+dc] * int32(p.ARCoeffsY[pos])
					pos++
				}
			}
			luma[y][x] = clamp(luma[y][x]+roundPow2(s, arShift), g.min, g.max)
		}
	}

	cb := newBlock(chromaBlockH, chromaBlockW)
	cr := newBlock(chromaBlockH, chromaBlockW)
	fromLuma := p.ChromaScalingFromLuma != 0
	g.fill(cb, p.RandomSeed^cbSeedXor, p.NumCbPoints > 0 || fromLuma)
	g.fill(cr, p.RandomSeed^crSeedXor, p.NumCrPoints > 0 || fromLuma)

	for y := 3; y < chromaBlockH; y++ {
		for x := 3; x < chromaBlockW-3; x++ {
			var s0, s1 int32
			pos := 0
		chroma:
			for dr := -lag; dr <= 0; dr++ {
				for dc := -lag; dc <= lag; dc++ {
					c0 := int32(p.ARCoeffsCb[pos])
					c1 := int32(p.ARCoeffsCr[pos])
					if dr == 0 && dc == 0 {
						if p.NumYPoints > 0 {
							l := lumaAverage(luma, x, y)
							s0 += l * c0
							s1 += l * c1
						}
						break chroma
					}
					s0 += cb[y+dr][x+dc] * c0
					s1 += cr[y+dr][x+dc] * c1
					pos++
				}
			}
			cb[y][x] = clamp(cb[y][x]+roundPow2(s0, arShift), g.min, g.max)
			cr[y][x] = clamp(cr[y][x]+roundPow2(s1, arShift), g.min, g.max)
		}
	}

	out := &abi.FilmGrainBuffer{}
	tile(out, crop(luma, 9, 64, 80), crop(cb, 6, 32, 40), crop(cr, 6, 32, 40), layout)

	ScalingLUT(p.ScalingPointsY[:], int(p.NumYPoints), &out.ScalingLUTY)
	if fromLuma {
		out.ScalingLUTCb = out.ScalingLUTY
		out.ScalingLUTCr = out.ScalingLUTY
	} else {
		ScalingLUT(p.ScalingPointsCb[:], int(p.NumCbPoints), &out.ScalingLUTCb)
		ScalingLUT(p.ScalingPointsCr[:], int(p.NumCrPoints), &out.ScalingLUTCr)
	}
	return out, nil
}

// lumaAverage is the rounded mean of the 2x2 luma grain box co-located
// with chroma position (x, y).
func lumaAverage(luma [][]int32, x, y int) int32 {
	lx := (x-3)<<1 + 3
	ly := (y-3)<<1 + 3
	var sum int32
	for i := 0; i <= 1; i++ {
		for j := 0; j <= 1; j++ {
			sum += luma[ly+i][lx+j]
		}
	}
	return roundPow2(sum, 2)
}

// crop drops the first border rows and columns of block into an h x w
// template. Template cells past the block edge stay zero.
func crop(block [][]int32, border, h, w int) [][]int16 {
	out := make([][]int16, h)
	for i := range out {
		out[i] = make([]int16, w)
	}
	for i := border; i < len(block); i++ {
		for j := border; j < len(block[i]); j++ {
			out[i-border][j-border] = int16(block[i][j])
		}
	}
	return out
}

func tile(out *abi.FilmGrainBuffer, luma, cb, cr [][]int16, layout Layout) {
	var y [64 * 96]int16
	var u, v [32 * 48]int16

	if layout == Packed {
		k := 0
		for i := range 64 {
			k += copy(y[k:], luma[i][:64])
		}
		k = 0
		for i := range 32 {
			copy(u[k:], cb[i][:32])
			k += copy(v[k:], cr[i][:32])
		}
	} else {
		k := 0
		for i := range 64 {
			k += copy(y[k:], luma[i][:80])
			if (i+1)%4 == 0 {
				k += 64
			}
		}
		k = 0
		for i := range 32 {
			copy(u[k:], cb[i][:40])
			k += copy(v[k:], cr[i][:40])
			if (i+1)%8 == 0 {
				k += 64
			}
		}
	}

	for i := range out.LumaGrainBlock {
		copy(out.LumaGrainBlock[i][:], y[i*96:])
	}
	for i := range out.CbGrainBlock {
		copy(out.CbGrainBlock[i][:], u[i*48:])
		copy(out.CrGrainBlock[i][:], v[i*48:])
	}
}

// ScalingLUT fills lut by piecewise-linear interpolation between the
// first num control points, using 16.16 fixed point. Inputs below the
// first point and above the last take the nearest point's value. With no
// points the table is left untouched.
func ScalingLUT(points [][2]uint8, num int, lut *[256]int16) {
	num = min(num, len(points))
	if num <= 0 {
		return
	}
	for i := 0; i < int(points[0][0]); i++ {
		lut[i] = int16(points[0][1])
	}
	for i := 0; i < num-1; i++ {
		dy := int32(points[i+1][1]) - int32(points[i][1])
		dx := int32(points[i+1][0]) - int32(points[i][0])
		if dx <= 0 {
			continue
		}
		delta := int64(dy) * int64((65536+dx>>1)/dx)
		for x := int32(0); x < dx; x++ {
			lut[int32(points[i][0])+x] = int16(int32(points[i][1]) + int32((int64(x)*delta+32768)>>16))
		}
	}
	for i := int(points[num-1][0]); i < 256; i++ {
		lut[i] = int16(points[num-1][1])
	}
}
