package vcn

// Number of DPB slots of a VP9 or AV1 session: eight references plus the
// current picture.
const (
	VP9Slots = 9
	AV1Slots = 9
)

// FillUnusedSlots completes a reference id list. ids[:n] holds the slots
// of the real references; the rest of ids receives the lowest slot
// numbers below slots that are neither referenced nor cur. It returns the
// number of filled entries.
func FillUnusedSlots(ids []uint32, n int, cur uint32, slots int) int {
	n = min(max(n, 0), len(ids))
	used := uint64(1) << cur
	for _, id := range ids[:n] {
		if id < 64 {
			used |= 1 << id
		}
	}
	for j := 0; j < slots && n < len(ids); j++ {
		if used&(1<<j) != 0 {
			continue
		}
		ids[n] = uint32(j)
		used |= 1 << j
		n++
	}
	return n
}
