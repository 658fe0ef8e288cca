package state

import "github.com/atomicstack/searchpanes/internal/pane"

// SearchFunc returns the options listed for a search term.
type SearchFunc func(term string) []pane.Option

// Level holds the on-screen state of one pane column: listed options, cursor,
// viewport and the search text being edited.
type Level struct {
	ID             string
	Title          string
	Column         int
	Items          []pane.Option
	Filter         string
	FilterCursor   int
	Cursor         int
	ViewportOffset int

	search          SearchFunc
	keyBeforeSearch string // option under the cursor when a search started
}

// NewLevel constructs a Level listing the options search returns. A nil
// search lists nothing, which suits a level used only for text entry.
func NewLevel(id, title string, column int, search SearchFunc) *Level {
	l := &Level{
		ID:     id,
		Title:  title,
		Column: column,
		search: search,
	}
	l.list()
	return l
}

// IndexOf returns the index for a given option key.
func (l *Level) IndexOf(key string) int {
	for i, item := range l.Items {
		if item.Key == key {
			return i
		}
	}
	return -1
}

// Current returns the option under the cursor.
func (l *Level) Current() (pane.Option, bool) {
	if l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return pane.Option{}, false
	}
	return l.Items[l.Cursor], true
}

func (l *Level) currentKey() string {
	if item, ok := l.Current(); ok {
		return item.Key
	}
	return ""
}

// Refresh re-lists the options after counts or selections changed. The
// cursor follows its option; when that option is no longer listed (a cascade
// pane hides values left without rows) it moves to the nearest checked
// option, or stays at the same position.
func (l *Level) Refresh() {
	key, at := l.currentKey(), l.Cursor
	l.list()
	if key == "" {
		return
	}
	if idx := l.IndexOf(key); idx >= 0 {
		l.Cursor = idx
		return
	}
	if idx := l.nearestChecked(at); idx >= 0 {
		l.Cursor = idx
		return
	}
	l.Cursor = clamp(at, 0, len(l.Items)-1)
}

// list runs the search and keeps the cursor and viewport inside the new
// option list.
func (l *Level) list() {
	l.Items = nil
	if l.search != nil {
		l.Items = append([]pane.Option(nil), l.search(l.Filter)...)
	}
	if len(l.Items) == 0 {
		l.Cursor, l.ViewportOffset = 0, 0
		return
	}
	l.Cursor = clamp(l.Cursor, 0, len(l.Items)-1)
	if l.ViewportOffset >= len(l.Items) {
		l.ViewportOffset = 0
	}
}

func (l *Level) nearestChecked(at int) int {
	best := -1
	for i, item := range l.Items {
		if !item.Selected {
			continue
		}
		if best < 0 || abs(i-at) < abs(best-at) {
			best = i
		}
	}
	return best
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
