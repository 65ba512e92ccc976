package filmgrain

import (
	"errors"
	"testing"

	"github.com/sailfishos-mirror/mesa-sub000/internal/abi"
)

func testGaussian() []int16 {
	g := make([]int16, GaussianLen)
	for i := range g {
		g[i] = int16(i - 1024)
	}
	return g
}

func testParams() *abi.FilmGrainParams {
	p := &abi.FilmGrainParams{
		ApplyGrain:   1,
		NumYPoints:   2,
		NumCbPoints:  1,
		NumCrPoints:  1,
		ARCoeffLag:   3,
		ARCoeffShift: 7,
		RandomSeed:   0x1234,
	}
	p.ScalingPointsY[0] = [2]uint8{0, 20}
	p.ScalingPointsY[1] = [2]uint8{255, 60}
	p.ScalingPointsCb[0] = [2]uint8{64, 32}
	p.ScalingPointsCr[0] = [2]uint8{128, 48}
	for i := range p.ARCoeffsY {
		p.ARCoeffsY[i] = int8(i%5 - 2)
	}
	for i := range p.ARCoeffsCb {
		p.ARCoeffsCb[i] = int8(i%3 - 1)
		p.ARCoeffsCr[i] = int8(1 - i%3)
	}
	return p
}

func TestLFSRSequence(t *testing.T) {
	t.Parallel()
	want := []int32{1024, 512, 256, 128, 1088, 544, 272, 136}
	seeds := []LFSR{0x8000, 0x4000, 0x2000, 0x1000, 0x8800, 0x4400, 0x2200, 0x1100}

	l := LFSR(1)
	for i := range want {
		if got := l.Next(11); got != want[i] {
			t.Errorf("step %d: got %d, want %d", i, got, want[i])
		}
		if l != seeds[i] {
			t.Errorf("step %d: state %#x, want %#x", i, uint16(l), uint16(seeds[i]))
		}
	}
}

func TestScalingLUT(t *testing.T) {
	t.Parallel()
	points := [][2]uint8{{16, 20}, {128, 80}, {200, 40}}
	var lut [256]int16
	ScalingLUT(points, 3, &lut)

	tests := []struct {
		x    int
		want int16
	}{
		{0, 20}, {15, 20}, {16, 20}, {17, 21}, {72, 50},
		{127, 79}, {128, 80}, {164, 60}, {199, 41}, {200, 40}, {255, 40},
	}
	for _, tt := range tests {
		if lut[tt.x] != tt.want {
			t.Errorf("lut[%d]: got %d, want %d", tt.x, lut[tt.x], tt.want)
		}
	}
}

func TestScalingLUTNoPoints(t *testing.T) {
	t.Parallel()
	var lut [256]int16
	lut[7] = 99
	ScalingLUT(nil, 0, &lut)
	if lut[7] != 99 {
		t.Errorf("lut modified without points")
	}
}

func TestScalingLUTSinglePoint(t *testing.T) {
	t.Parallel()
	var lut [256]int16
	ScalingLUT([][2]uint8{{100, 33}}, 1, &lut)
	for i, v := range lut {
		if v != 33 {
			t.Fatalf("lut[%d]: got %d, want 33", i, v)
		}
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	t.Parallel()
	a, err := Synthesize(testParams(), testGaussian(), Padded)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Synthesize(testParams(), testGaussian(), Padded)
	if err != nil {
		t.Fatal(err)
	}
	if *a != *b {
		t.Error("two syntheses with identical input differ")
	}

	p := testParams()
	p.RandomSeed++
	c, _ := Synthesize(p, testGaussian(), Padded)
	if c.LumaGrainBlock == a.LumaGrainBlock {
		t.Error("seed change did not change luma grain")
	}
}

func TestSynthesizeRange(t *testing.T) {
	t.Parallel()
	for _, bd := range []uint8{0, 2} {
		p := testParams()
		p.BitDepthMinus8 = bd
		buf, err := Synthesize(p, testGaussian(), Packed)
		if err != nil {
			t.Fatal(err)
		}
		center := int16(128) << bd
		lo, hi := -center, (int16(256)<<bd)-1-center

		flat := func(rows [][]int16) []int16 {
			var out []int16
			for _, r := range rows {
				out = append(out, r...)
			}
			return out
		}
		var luma [][]int16
		for i := range buf.LumaGrainBlock {
			luma = append(luma, buf.LumaGrainBlock[i][:])
		}
		for k, v := range flat(luma)[:64*64] {
			if v < lo || v > hi {
				t.Fatalf("bd=%d luma[%d]=%d outside [%d,%d]", bd+8, k, v, lo, hi)
			}
		}
		var cb [][]int16
		for i := range buf.CbGrainBlock {
			cb = append(cb, buf.CbGrainBlock[i][:])
		}
		for k, v := range flat(cb)[:32*32] {
			if v < lo || v > hi {
				t.Fatalf("bd=%d cb[%d]=%d outside [%d,%d]", bd+8, k, v, lo, hi)
			}
		}
	}
}

func TestSynthesizeNoPointsIsSilent(t *testing.T) {
	t.Parallel()
	p := &abi.FilmGrainParams{ARCoeffLag: 3, ARCoeffShift: 6, RandomSeed: 7}
	for i := range p.ARCoeffsY {
		p.ARCoeffsY[i] = 10
	}
	buf, err := Synthesize(p, testGaussian(), Padded)
	if err != nil {
		t.Fatal(err)
	}
	if *buf != (abi.FilmGrainBuffer{}) {
		t.Error("grain produced with no scaling points")
	}
}

func TestPaddedLayoutGaps(t *testing.T) {
	t.Parallel()
	padded, _ := Synthesize(testParams(), testGaussian(), Padded)
	packed, _ := Synthesize(testParams(), testGaussian(), Packed)

	// Luma rows 0..3 fill 320 entries, then 64 are skipped, so row 3 of
	// the 96-wide buffer is zero from column 32.
	for j := 32; j < 96; j++ {
		if padded.LumaGrainBlock[3][j] != 0 {
			t.Fatalf("padded luma gap [3][%d] = %d", j, padded.LumaGrainBlock[3][j])
		}
	}
	// Template row 1 column 0 lands at entry 80 padded, 64 packed.
	if padded.LumaGrainBlock[0][80] != packed.LumaGrainBlock[0][64] {
		t.Errorf("template row 1: padded %d, packed %d", padded.LumaGrainBlock[0][80], packed.LumaGrainBlock[0][64])
	}
	// Chroma rows 0..7 fill 320 entries, then 64 are skipped.
	for j := 32; j < 48; j++ {
		if padded.CbGrainBlock[6][j] != 0 || padded.CrGrainBlock[7][j] != 0 {
			t.Fatalf("padded chroma gap at column %d", j)
		}
	}
}

func TestChromaScalingFromLuma(t *testing.T) {
	t.Parallel()
	p := testParams()
	p.ChromaScalingFromLuma = 1
	buf, err := Synthesize(p, testGaussian(), Packed)
	if err != nil {
		t.Fatal(err)
	}
	if buf.ScalingLUTCb != buf.ScalingLUTY || buf.ScalingLUTCr != buf.ScalingLUTY {
		t.Error("chroma tables should alias luma")
	}

	p.ChromaScalingFromLuma = 0
	buf, _ = Synthesize(p, testGaussian(), Packed)
	if buf.ScalingLUTCb[0] != 32 || buf.ScalingLUTCr[255] != 48 {
		t.Errorf("chroma tables: cb[0]=%d cr[255]=%d", buf.ScalingLUTCb[0], buf.ScalingLUTCr[255])
	}
}

func TestSynthesizeRejectsShortTable(t *testing.T) {
	t.Parallel()
	_, err := Synthesize(testParams(), make([]int16, 10), Packed)
	if !errors.Is(err, ErrGaussianTable) {
		t.Errorf("expected ErrGaussianTable, got %v", err)
	}
}
