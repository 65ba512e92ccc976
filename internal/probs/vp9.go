package probs

import "fmt"

// VP9TableSize is the size of the VP9 probability table in bytes. The
// packed layout is shorter; the tail is reserved.
const VP9TableSize = 2304

// VP9 is the probability table the firmware reads at the start of the
// VP9 hardware context.
var VP9 = newLayout("vp9", 1, []def{
	{"coef_probs_4x4", []int{2, 2, 6, 6, 3}},
	{"coef_probs_8x8", []int{2, 2, 6, 6, 3}},
	{"coef_probs_16x16", []int{2, 2, 6, 6, 3}},
	{"coef_probs_32x32", []int{2, 2, 6, 6, 3}},
	{"y_mode_prob", []int{4, 9}},
	{"uv_mode_prob", []int{10, 9}},
	{"single_ref_prob", []int{5, 2}},
	{"switchable_interp_prob", []int{4, 2}},
	{"partition_prob", []int{16, 3}},
	{"inter_mode_probs", []int{7, 3}},
	{"mbskip_probs", []int{3}},
	{"intra_inter_prob", []int{4}},
	{"comp_inter_prob", []int{5}},
	{"comp_ref_prob", []int{5}},
	{"tx_probs_32x32", []int{2, 3}},
	{"tx_probs_16x16", []int{2, 2}},
	{"tx_probs_8x8", []int{2, 1}},
	{"mv_joints", []int{3}},
	{"mv_comps", []int{2, 33}},
	{"nmvc_mask", []int{69}},
})

// VP9Specs lists the default tables consumed by InitVP9.
var VP9Specs = []Spec{
	{"default_coef_probs_4x4", []int{2, 2, 6, 6, 3}, 1},
	{"default_coef_probs_8x8", []int{2, 2, 6, 6, 3}, 1},
	{"default_coef_probs_16x16", []int{2, 2, 6, 6, 3}, 1},
	{"default_coef_probs_32x32", []int{2, 2, 6, 6, 3}, 1},
	{"default_if_y_probs", []int{4, 9}, 1},
	{"default_if_uv_probs", []int{10, 9}, 1},
	{"default_single_ref_p", []int{5, 2}, 1},
	{"default_switchable_interp_prob", []int{4, 2}, 1},
	{"default_partition_probs", []int{16, 3}, 1},
	{"default_inter_mode_probs", []int{7, 3}, 1},
	{"default_skip_probs", []int{3}, 1},
	{"default_intra_inter_p", []int{4}, 1},
	{"default_comp_inter_p", []int{5}, 1},
	{"default_comp_ref_p", []int{5}, 1},
	{"default_tx_probs_32x32", []int{2, 3}, 1},
	{"default_tx_probs_16x16", []int{2, 2}, 1},
	{"default_tx_probs_8x8", []int{2, 1}, 1},
	{"default_nmv_joints", []int{3}, 1},
	{"default_nmv_components", []int{2, 33}, 1},
}

var vp9Copies = []copyOp{
	{dst: "coef_probs_4x4", src: "default_coef_probs_4x4", n: 432},
	{dst: "coef_probs_8x8", src: "default_coef_probs_8x8", n: 432},
	{dst: "coef_probs_16x16", src: "default_coef_probs_16x16", n: 432},
	{dst: "coef_probs_32x32", src: "default_coef_probs_32x32", n: 432},
	{dst: "y_mode_prob", src: "default_if_y_probs", n: 36},
	{dst: "uv_mode_prob", src: "default_if_uv_probs", n: 90},
	{dst: "single_ref_prob", src: "default_single_ref_p", n: 10},
	{dst: "switchable_interp_prob", src: "default_switchable_interp_prob", n: 8},
	{dst: "partition_prob", src: "default_partition_probs", n: 48},
	{dst: "inter_mode_probs", src: "default_inter_mode_probs", n: 21},
	{dst: "mbskip_probs", src: "default_skip_probs", n: 3},
	{dst: "intra_inter_prob", src: "default_intra_inter_p", n: 4},
	{dst: "comp_inter_prob", src: "default_comp_inter_p", n: 5},
	{dst: "comp_ref_prob", src: "default_comp_ref_p", n: 5},
	{dst: "tx_probs_32x32", src: "default_tx_probs_32x32", n: 6},
	{dst: "tx_probs_16x16", src: "default_tx_probs_16x16", n: 4},
	{dst: "tx_probs_8x8", src: "default_tx_probs_8x8", n: 2},
	{dst: "mv_joints", src: "default_nmv_joints", n: 3},
	{dst: "mv_comps", src: "default_nmv_components", n: 66},
}

// InitVP9 writes the default VP9 probability table at the start of buf
// and clears the motion vector context mask.
func InitVP9(buf []byte, t *Tables) error {
	if len(buf) < VP9TableSize {
		return fmt.Errorf("%w: %d bytes, need %d", ErrShortBuffer, len(buf), VP9TableSize)
	}
	if err := apply(buf, VP9, vp9Copies, t, 0); err != nil {
		return err
	}
	f, _ := VP9.Field("nmvc_mask")
	clear(buf[f.Offset : f.Offset+f.Len])
	return nil
}
