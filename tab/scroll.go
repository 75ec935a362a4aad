package tab

// ScrollOffset computes the horizontal scroll offset of the tab bar given
// the total rendered widths of each tab label, the visible pixel/column
// width, the active tab's index, and the previous offset. It implements the
// derivation of §4.5: on resize/switch, scroll until the active tab is
// within the visible window, then scroll left as far as possible without
// hiding the active tab.
func ScrollOffset(widths []int, visibleWidth, activeIdx, prevOffset int) int {
	if len(widths) == 0 {
		return 0
	}

	starts := make([]int, len(widths))
	pos := 0
	for i, w := range widths {
		starts[i] = pos
		pos += w
	}
	total := pos

	activeStart := starts[activeIdx]
	activeEnd := activeStart + widths[activeIdx]

	offset := prevOffset
	if offset > activeStart {
		offset = activeStart
	}
	if activeEnd-offset > visibleWidth {
		offset = activeEnd - visibleWidth
	}

	// Now scroll left as far as possible without uncovering the active tab,
	// i.e. minimize offset subject to activeEnd-offset <= visibleWidth.
	minOffset := activeEnd - visibleWidth
	if minOffset < 0 {
		minOffset = 0
	}
	offset = minOffset
	if offset > activeStart {
		offset = activeStart
	}

	if total-offset < visibleWidth {
		offset = total - visibleWidth
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}
