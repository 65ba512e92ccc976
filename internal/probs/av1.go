package probs

import "fmt"

// AV1 frame contexts hold 16-bit CDFs. Every context is padded to a
// multiple of frameContextAlign bytes.
const (
	frameContextAlign = 2048
	// FrameContexts is the number of default contexts written at
	// session init, one per coefficient q-context.
	FrameContexts = 4
)

// Sizes shared by both frame context variants.
const (
	txSizes           = 5
	planeTypes        = 2
	eobCoefContexts   = 9
	eobContextsVCN4   = 6
	eobContextsSkip   = 3
	nmvComponentElems = 12 + 2*5 + 5 + 3 + 3 + 3 + 3 + 10*3
)

// nmv component sub-arrays in the order they appear in the default
// motion vector context.
var nmvComponent = []def{
	{"classes", []int{12}},
	{"class0_fp", []int{2, 5}},
	{"fp", []int{5}},
	{"sign", []int{3}},
	{"class0_hp", []int{3}},
	{"hp", []int{3}},
	{"class0", []int{3}},
	{"bits", []int{10, 3}},
}

// Order of the per-component fields inside the frame context.
var nmvFieldOrder = []string{"bits", "class0", "class0_fp", "class0_hp", "classes", "fp", "hp", "sign"}

func coefDefs(eobExtra int) []def {
	return []def{
		{"txb_skip_cdf", []int{txSizes, 13, 3}},
		{"eob_extra_cdf", []int{txSizes, planeTypes, eobExtra, 3}},
		{"dc_sign_cdf", []int{planeTypes, 3, 3}},
		{"eob_flag_cdf16", []int{planeTypes, 2, 6}},
		{"eob_flag_cdf32", []int{planeTypes, 2, 7}},
		{"eob_flag_cdf64", []int{planeTypes, 2, 8}},
		{"eob_flag_cdf128", []int{planeTypes, 2, 9}},
		{"eob_flag_cdf256", []int{planeTypes, 2, 10}},
		{"eob_flag_cdf512", []int{planeTypes, 2, 11}},
		{"eob_flag_cdf1024", []int{planeTypes, 2, 12}},
		{"coeff_base_eob_cdf", []int{txSizes, planeTypes, 4, 4}},
		{"coeff_base_cdf", []int{txSizes, planeTypes, 42, 5}},
		{"coeff_br_cdf", []int{txSizes, planeTypes, 21, 5}},
	}
}

func modeDefs(intraExtTxSets, interExtTxSets int) []def {
	defs := []def{
		{"newmv_cdf", []int{6, 3}},
		{"zeromv_cdf", []int{2, 3}},
		{"refmv_cdf", []int{6, 3}},
		{"drl_cdf", []int{3, 3}},
		{"inter_compound_mode_cdf", []int{8, 9}},
		{"compound_type_cdf", []int{22, 3}},
		{"wedge_idx_cdf", []int{22, 17}},
		{"interintra_cdf", []int{4, 3}},
		{"wedge_interintra_cdf", []int{22, 3}},
		{"interintra_mode_cdf", []int{4, 5}},
		{"motion_mode_cdf", []int{22, 4}},
		{"obmc_cdf", []int{22, 3}},
		{"palette_y_size_cdf", []int{7, 8}},
		{"palette_uv_size_cdf", []int{7, 8}},
		{"palette_y_color_index_cdf", []int{7, 5, 9}},
		{"palette_uv_color_index_cdf", []int{7, 5, 9}},
		{"palette_y_mode_cdf", []int{7, 3, 3}},
		{"palette_uv_mode_cdf", []int{2, 3}},
		{"comp_inter_cdf", []int{5, 3}},
		{"single_ref_cdf", []int{3, 6, 3}},
		{"comp_ref_type_cdf", []int{5, 3}},
		{"uni_comp_ref_cdf", []int{3, 3, 3}},
		{"comp_ref_cdf", []int{3, 3, 3}},
		{"comp_bwdref_cdf", []int{3, 2, 3}},
		{"txfm_partition_cdf", []int{21, 3}},
		{"compound_index_cdf", []int{6, 3}},
		{"comp_group_idx_cdf", []int{6, 3}},
		{"skip_mode_cdfs", []int{3, 3}},
		{"skip_cdfs", []int{3, 3}},
		{"intra_inter_cdf", []int{4, 3}},
	}
	for _, mv := range []string{"nmvc", "ndvc"} {
		defs = append(defs, def{mv + "_joints_cdf", []int{5}})
		for c := range 2 {
			for _, name := range nmvFieldOrder {
				defs = append(defs, def{nmvName(mv, c, name), nmvDims(name)})
			}
		}
	}
	return append(defs,
		def{"intrabc_cdf", []int{3}},
		def{"tree_cdf", []int{9}},
		def{"pred_cdf", []int{3, 3}},
		def{"spatial_pred_seg_cdf", []int{3, 9}},
		def{"filter_intra_cdfs", []int{22, 3}},
		def{"filter_intra_mode_cdf", []int{6}},
		def{"switchable_restore_cdf", []int{4}},
		def{"wiener_restore_cdf", []int{3}},
		def{"sgrproj_restore_cdf", []int{3}},
		def{"y_mode_cdf", []int{4, 14}},
		def{"uv_mode_cdf", []int{2, 13, 15}},
		def{"partition_cdf", []int{20, 11}},
		def{"switchable_interp_cdf", []int{16, 4}},
		def{"kf_y_cdf", []int{5, 5, 14}},
		def{"angle_delta_cdf", []int{8, 8}},
		def{"tx_size_cdf", []int{4, 3, 4}},
		def{"delta_q_cdf", []int{5}},
		def{"delta_lf_multi_cdf", []int{4, 5}},
		def{"delta_lf_cdf", []int{5}},
		def{"intra_ext_tx_cdf", []int{intraExtTxSets, 4, 13, 17}},
		def{"inter_ext_tx_cdf", []int{interExtTxSets, 4, 17}},
		def{"cfl_sign_cdf", []int{9}},
		def{"cfl_alpha_cdf", []int{6, 17}},
	)
}

func nmvName(mv string, comp int, name string) string {
	return fmt.Sprintf("%s_%d_%s_cdf", mv, comp, name)
}

func nmvDims(name string) []int {
	for _, d := range nmvComponent {
		if d.name == name {
			return d.dims
		}
	}
	panic("probs: unknown nmv field " + name)
}

// AV1Legacy is the frame context of the original AV1 firmware interface.
var AV1Legacy = newLayout("av1", 2, append(coefDefs(eobCoefContexts), modeDefs(3, 4)...))

// AV1VCN4 is the compacted frame context used from AV1 interface
// revision 1 on. The transform-type sets the hardware never signals and
// the leading eob_extra contexts are dropped.
var AV1VCN4 = newLayout("av1-vcn4", 2, append(coefDefs(eobContextsVCN4), modeDefs(2, 3)...))

// AV1Specs lists the default tables consumed by InitAV1. Coefficient
// tables carry a leading q-context dimension.
var AV1Specs = []Spec{
	{"av1_default_txb_skip_cdfs", []int{FrameContexts, txSizes, 13, 3}, 2},
	{"av1_default_eob_extra_cdfs", []int{FrameContexts, txSizes, planeTypes, eobCoefContexts, 3}, 2},
	{"av1_default_dc_sign_cdfs", []int{FrameContexts, planeTypes, 3, 3}, 2},
	{"av1_default_eob_multi16_cdfs", []int{FrameContexts, planeTypes, 2, 6}, 2},
	{"av1_default_eob_multi32_cdfs", []int{FrameContexts, planeTypes, 2, 7}, 2},
	{"av1_default_eob_multi64_cdfs", []int{FrameContexts, planeTypes, 2, 8}, 2},
	{"av1_default_eob_multi128_cdfs", []int{FrameContexts, planeTypes, 2, 9}, 2},
	{"av1_default_eob_multi256_cdfs", []int{FrameContexts, planeTypes, 2, 10}, 2},
	{"av1_default_eob_multi512_cdfs", []int{FrameContexts, planeTypes, 2, 11}, 2},
	{"av1_default_eob_multi1024_cdfs", []int{FrameContexts, planeTypes, 2, 12}, 2},
	{"av1_default_coeff_base_eob_multi_cdfs", []int{FrameContexts, txSizes, planeTypes, 4, 4}, 2},
	{"av1_default_coeff_base_multi_cdfs", []int{FrameContexts, txSizes, planeTypes, 42, 5}, 2},
	{"av1_default_coeff_lps_multi_cdfs", []int{FrameContexts, txSizes, planeTypes, 21, 5}, 2},

	{"default_newmv_cdf", []int{6, 3}, 2},
	{"default_zeromv_cdf", []int{2, 3}, 2},
	{"default_refmv_cdf", []int{6, 3}, 2},
	{"default_drl_cdf", []int{3, 3}, 2},
	{"default_inter_compound_mode_cdf", []int{8, 9}, 2},
	{"default_compound_type_cdf", []int{22, 3}, 2},
	{"default_wedge_idx_cdf", []int{22, 17}, 2},
	{"default_interintra_cdf", []int{4, 3}, 2},
	{"default_wedge_interintra_cdf", []int{22, 3}, 2},
	{"default_interintra_mode_cdf", []int{4, 5}, 2},
	{"default_motion_mode_cdf", []int{22, 4}, 2},
	{"default_obmc_cdf", []int{22, 3}, 2},
	{"default_palette_y_size_cdf", []int{7, 8}, 2},
	{"default_palette_uv_size_cdf", []int{7, 8}, 2},
	{"default_palette_y_color_index_cdf", []int{7, 5, 9}, 2},
	{"default_palette_uv_color_index_cdf", []int{7, 5, 9}, 2},
	{"default_palette_y_mode_cdf", []int{7, 3, 3}, 2},
	{"default_palette_uv_mode_cdf", []int{2, 3}, 2},
	{"default_comp_inter_cdf", []int{5, 3}, 2},
	{"default_single_ref_cdf", []int{3, 6, 3}, 2},
	{"default_comp_ref_type_cdf", []int{5, 3}, 2},
	{"default_uni_comp_ref_cdf", []int{3, 3, 3}, 2},
	{"default_comp_ref_cdf", []int{3, 3, 3}, 2},
	{"default_comp_bwdref_cdf", []int{3, 2, 3}, 2},
	{"default_txfm_partition_cdf", []int{21, 3}, 2},
	{"default_compound_idx_cdfs", []int{6, 3}, 2},
	{"default_comp_group_idx_cdfs", []int{6, 3}, 2},
	{"default_skip_mode_cdfs", []int{3, 3}, 2},
	{"default_skip_cdfs", []int{3, 3}, 2},
	{"default_intra_inter_cdf", []int{4, 3}, 2},
	{"default_nmv_context", []int{5 + 2*nmvComponentElems}, 2},
	{"default_intrabc_cdf", []int{3}, 2},
	{"default_seg_tree_cdf", []int{9}, 2},
	{"default_segment_pred_cdf", []int{3, 3}, 2},
	{"default_spatial_pred_seg_tree_cdf", []int{3, 9}, 2},
	{"default_filter_intra_cdfs", []int{22, 3}, 2},
	{"default_filter_intra_mode_cdf", []int{6}, 2},
	{"default_switchable_restore_cdf", []int{4}, 2},
	{"default_wiener_restore_cdf", []int{3}, 2},
	{"default_sgrproj_restore_cdf", []int{3}, 2},
	{"default_if_y_mode_cdf", []int{4, 14}, 2},
	{"default_uv_mode_cdf", []int{2, 13, 15}, 2},
	{"default_partition_cdf", []int{20, 11}, 2},
	{"default_switchable_interp_cdf", []int{16, 4}, 2},
	{"default_kf_y_mode_cdf", []int{5, 5, 14}, 2},
	{"default_angle_delta_cdf", []int{8, 8}, 2},
	{"default_tx_size_cdf", []int{4, 3, 4}, 2},
	{"default_delta_q_cdf", []int{5}, 2},
	{"default_delta_lf_multi_cdf", []int{4, 5}, 2},
	{"default_delta_lf_cdf", []int{5}, 2},
	{"default_intra_ext_tx_cdf", []int{3, 4, 13, 17}, 2},
	{"default_inter_ext_tx_cdf", []int{4, 4, 17}, 2},
	{"default_cfl_sign_cdf", []int{9}, 2},
	{"default_cfl_alpha_cdf", []int{6, 17}, 2},
}

// Fields copied verbatim from a same-shaped default table.
var av1Direct = map[string]string{
	"newmv_cdf":                  "default_newmv_cdf",
	"zeromv_cdf":                 "default_zeromv_cdf",
	"refmv_cdf":                  "default_refmv_cdf",
	"drl_cdf":                    "default_drl_cdf",
	"inter_compound_mode_cdf":    "default_inter_compound_mode_cdf",
	"compound_type_cdf":          "default_compound_type_cdf",
	"wedge_idx_cdf":              "default_wedge_idx_cdf",
	"interintra_cdf":             "default_interintra_cdf",
	"wedge_interintra_cdf":       "default_wedge_interintra_cdf",
	"interintra_mode_cdf":        "default_interintra_mode_cdf",
	"motion_mode_cdf":            "default_motion_mode_cdf",
	"obmc_cdf":                   "default_obmc_cdf",
	"palette_y_size_cdf":         "default_palette_y_size_cdf",
	"palette_uv_size_cdf":        "default_palette_uv_size_cdf",
	"palette_y_color_index_cdf":  "default_palette_y_color_index_cdf",
	"palette_uv_color_index_cdf": "default_palette_uv_color_index_cdf",
	"palette_y_mode_cdf":         "default_palette_y_mode_cdf",
	"palette_uv_mode_cdf":        "default_palette_uv_mode_cdf",
	"comp_inter_cdf":             "default_comp_inter_cdf",
	"single_ref_cdf":             "default_single_ref_cdf",
	"comp_ref_type_cdf":          "default_comp_ref_type_cdf",
	"uni_comp_ref_cdf":           "default_uni_comp_ref_cdf",
	"comp_ref_cdf":               "default_comp_ref_cdf",
	"comp_bwdref_cdf":            "default_comp_bwdref_cdf",
	"txfm_partition_cdf":         "default_txfm_partition_cdf",
	"compound_index_cdf":         "default_compound_idx_cdfs",
	"comp_group_idx_cdf":         "default_comp_group_idx_cdfs",
	"skip_mode_cdfs":             "default_skip_mode_cdfs",
	"skip_cdfs":                  "default_skip_cdfs",
	"intra_inter_cdf":            "default_intra_inter_cdf",
	"intrabc_cdf":                "default_intrabc_cdf",
	"tree_cdf":                   "default_seg_tree_cdf",
	"pred_cdf":                   "default_segment_pred_cdf",
	"spatial_pred_seg_cdf":       "default_spatial_pred_seg_tree_cdf",
	"filter_intra_cdfs":          "default_filter_intra_cdfs",
	"filter_intra_mode_cdf":      "default_filter_intra_mode_cdf",
	"switchable_restore_cdf":     "default_switchable_restore_cdf",
	"wiener_restore_cdf":         "default_wiener_restore_cdf",
	"sgrproj_restore_cdf":        "default_sgrproj_restore_cdf",
	"y_mode_cdf":                 "default_if_y_mode_cdf",
	"uv_mode_cdf":                "default_uv_mode_cdf",
	"partition_cdf":              "default_partition_cdf",
	"switchable_interp_cdf":      "default_switchable_interp_cdf",
	"kf_y_cdf":                   "default_kf_y_mode_cdf",
	"angle_delta_cdf":            "default_angle_delta_cdf",
	"tx_size_cdf":                "default_tx_size_cdf",
	"delta_q_cdf":                "default_delta_q_cdf",
	"delta_lf_multi_cdf":         "default_delta_lf_multi_cdf",
	"delta_lf_cdf":               "default_delta_lf_cdf",
	"cfl_sign_cdf":               "default_cfl_sign_cdf",
	"cfl_alpha_cdf":              "default_cfl_alpha_cdf",
}

// Coefficient fields taken from the q-context slice of their table.
var av1Coef = map[string]string{
	"txb_skip_cdf":       "av1_default_txb_skip_cdfs",
	"dc_sign_cdf":        "av1_default_dc_sign_cdfs",
	"eob_flag_cdf16":     "av1_default_eob_multi16_cdfs",
	"eob_flag_cdf32":     "av1_default_eob_multi32_cdfs",
	"eob_flag_cdf64":     "av1_default_eob_multi64_cdfs",
	"eob_flag_cdf128":    "av1_default_eob_multi128_cdfs",
	"eob_flag_cdf256":    "av1_default_eob_multi256_cdfs",
	"eob_flag_cdf512":    "av1_default_eob_multi512_cdfs",
	"eob_flag_cdf1024":   "av1_default_eob_multi1024_cdfs",
	"coeff_base_eob_cdf": "av1_default_coeff_base_eob_multi_cdfs",
	"coeff_base_cdf":     "av1_default_coeff_base_multi_cdfs",
	"coeff_br_cdf":       "av1_default_coeff_lps_multi_cdfs",
}

var (
	av1LegacyCopies = buildAV1Copies(AV1Legacy, false)
	av1VCN4Copies   = buildAV1Copies(AV1VCN4, true)
)

func buildAV1Copies(l *Layout, vcn4 bool) []copyOp {
	var ops []copyOp
	for _, f := range l.Fields {
		if src, ok := av1Direct[f.Name]; ok {
			ops = append(ops, copyOp{dst: f.Name, src: src, n: f.Len})
		}
		if src, ok := av1Coef[f.Name]; ok {
			ops = append(ops, copyOp{dst: f.Name, src: src, n: f.Len, slot: true})
		}
	}

	// Both motion vector contexts start from the same defaults.
	for _, mv := range []string{"nmvc", "ndvc"} {
		ops = append(ops, copyOp{dst: mv + "_joints_cdf", src: "default_nmv_context", n: 5})
		for c := range 2 {
			at := 5 + c*nmvComponentElems
			for _, d := range nmvComponent {
				f, _ := l.Field(nmvName(mv, c, d.name))
				ops = append(ops, copyOp{dst: f.Name, src: "default_nmv_context", srcAt: at, n: f.Len})
				at += f.Len
			}
		}
	}

	if !vcn4 {
		return append(ops,
			copyOp{dst: "eob_extra_cdf", src: "av1_default_eob_extra_cdfs", n: txSizes * planeTypes * eobCoefContexts * 3, slot: true},
			copyOp{dst: "intra_ext_tx_cdf", src: "default_intra_ext_tx_cdf", n: 3 * 4 * 13 * 17},
			copyOp{dst: "inter_ext_tx_cdf", src: "default_inter_ext_tx_cdf", n: 4 * 4 * 17},
		)
	}

	ops = append(ops,
		copyOp{dst: "intra_ext_tx_cdf", src: "default_intra_ext_tx_cdf", srcAt: 4 * 13 * 17, n: 2 * 4 * 13 * 17},
		copyOp{dst: "inter_ext_tx_cdf", src: "default_inter_ext_tx_cdf", srcAt: 4 * 17, n: 3 * 4 * 17},
	)
	n := eobContextsVCN4 * 3
	for tx := range txSizes {
		for p := range planeTypes {
			row := (tx*planeTypes + p) * eobCoefContexts * 3
			ops = append(ops, copyOp{
				dst:   "eob_extra_cdf",
				dstAt: (tx*planeTypes + p) * n,
				src:   "av1_default_eob_extra_cdfs",
				srcAt: row + eobContextsSkip*3,
				n:     n,
				slot:  true,
			})
		}
	}
	return ops
}

// AV1Layout returns the frame context layout for an AV1 interface
// revision. Revision 0 uses the legacy layout.
func AV1Layout(rev uint32) *Layout {
	if rev == 0 {
		return AV1Legacy
	}
	return AV1VCN4
}

// FrameContextSize returns the aligned size of one AV1 frame context.
func FrameContextSize(rev uint32) int {
	n := AV1Layout(rev).Bytes()
	return (n + frameContextAlign - 1) &^ (frameContextAlign - 1)
}

// InitAV1 writes FrameContexts default frame contexts to buf, context i
// at i*FrameContextSize(rev) using q-context i of the coefficient tables.
func InitAV1(buf []byte, rev uint32, t *Tables) error {
	size := FrameContextSize(rev)
	if need := FrameContexts * size; len(buf) < need {
		return fmt.Errorf("%w: %d bytes, need %d", ErrShortBuffer, len(buf), need)
	}
	l, ops := AV1Legacy, av1LegacyCopies
	if rev != 0 {
		l, ops = AV1VCN4, av1VCN4Copies
	}
	for i := range FrameContexts {
		if err := apply(buf[i*size:(i+1)*size], l, ops, t, i); err != nil {
			return fmt.Errorf("frame context %d: %w", i, err)
		}
	}
	return nil
}
