package state

// MoveCursor moves the cursor by delta options. With wrap the cursor cycles
// past either end; otherwise it stops there.
func (l *Level) MoveCursor(delta int, wrap bool) bool {
	n := len(l.Items)
	if n == 0 {
		l.Cursor = 0
		return false
	}
	target := clamp(l.Cursor, 0, n-1) + delta
	if wrap {
		target = ((target % n) + n) % n
	}
	return l.moveCursorTo(target)
}

// MoveCursorHome moves the cursor to the first option.
func (l *Level) MoveCursorHome() bool {
	return l.moveCursorTo(0)
}

// MoveCursorEnd moves the cursor to the last option.
func (l *Level) MoveCursorEnd() bool {
	return l.moveCursorTo(len(l.Items) - 1)
}

// MoveCursorPage moves the cursor by whole pages of maxVisible options.
// A non-positive maxVisible pages over the entire list.
func (l *Level) MoveCursorPage(pages, maxVisible int) bool {
	size := maxVisible
	if size <= 0 || size > len(l.Items) {
		size = len(l.Items)
	}
	return l.MoveCursor(pages*size, false)
}

// MoveCursorToChecked moves to the next checked option in direction dir,
// wrapping around the list. It reports false when no other option is
// checked.
func (l *Level) MoveCursorToChecked(dir int) bool {
	n := len(l.Items)
	if n == 0 || dir == 0 {
		return false
	}
	if dir > 0 {
		dir = 1
	} else {
		dir = -1
	}
	start := clamp(l.Cursor, 0, n-1)
	for step := 1; step < n; step++ {
		idx := ((start+dir*step)%n + n) % n
		if l.Items[idx].Selected {
			return l.moveCursorTo(idx)
		}
	}
	return false
}

func (l *Level) moveCursorTo(idx int) bool {
	if len(l.Items) == 0 {
		l.Cursor = 0
		return false
	}
	old := l.Cursor
	l.Cursor = clamp(idx, 0, len(l.Items)-1)
	return l.Cursor != old
}

// EnsureCursorVisible scrolls the viewport the least amount that keeps the
// cursor among maxVisible rows.
func (l *Level) EnsureCursorVisible(maxVisible int) {
	n := len(l.Items)
	if n == 0 {
		l.Cursor, l.ViewportOffset = 0, 0
		return
	}
	l.Cursor = clamp(l.Cursor, 0, n-1)
	if maxVisible <= 0 {
		l.ViewportOffset = 0
		return
	}
	offset := clamp(l.ViewportOffset, 0, n-maxVisible)
	switch {
	case l.Cursor < offset:
		offset = l.Cursor
	case l.Cursor >= offset+maxVisible:
		offset = l.Cursor - maxVisible + 1
	}
	l.ViewportOffset = clamp(offset, 0, n-maxVisible)
}
