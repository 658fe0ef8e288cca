package state

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/atomicstack/searchpanes/internal/pane"
)

// Unit is the span a caret move or deletion covers in the search text.
type Unit int

const (
	UnitRune Unit = iota
	UnitWord
	UnitAll
)

// SetFilter replaces the search text and places the caret. Starting a search
// remembers the option under the cursor and moves the cursor to the best
// match; clearing it returns the cursor to the remembered option.
func (l *Level) SetFilter(query string, caret int) {
	searching := strings.TrimSpace(query) != ""
	wasSearching := strings.TrimSpace(l.Filter) != ""
	if searching && !wasSearching {
		l.keyBeforeSearch = l.currentKey()
	}

	l.Filter = query
	l.FilterCursor = clamp(caret, 0, len([]rune(query)))
	l.list()

	switch {
	case searching:
		if idx := BestMatchIndex(l.Items, query); idx >= 0 {
			l.Cursor = idx
		}
	case wasSearching:
		l.Cursor = 0
		if idx := l.IndexOf(l.keyBeforeSearch); idx >= 0 {
			l.Cursor = idx
		}
		l.keyBeforeSearch = ""
	}
}

// FilterCursorPos returns the rune offset of the caret.
func (l *Level) FilterCursorPos() int {
	return clamp(l.FilterCursor, 0, len([]rune(l.Filter)))
}

// InsertFilterText inserts text at the caret.
func (l *Level) InsertFilterText(text string) bool {
	if text == "" {
		return false
	}
	runes, pos := []rune(l.Filter), l.FilterCursorPos()
	insert := []rune(text)
	updated := make([]rune, 0, len(runes)+len(insert))
	updated = append(append(append(updated, runes[:pos]...), insert...), runes[pos:]...)
	l.SetFilter(string(updated), pos+len(insert))
	return true
}

// DeleteFilterBackward deletes one unit of search text before the caret.
func (l *Level) DeleteFilterBackward(unit Unit) bool {
	runes, pos := []rune(l.Filter), l.FilterCursorPos()
	from := boundary(runes, pos, unit, -1)
	if from == pos {
		return false
	}
	updated := append(append([]rune{}, runes[:from]...), runes[pos:]...)
	l.SetFilter(string(updated), from)
	return true
}

// MoveFilterCursor moves the caret one unit in direction dir.
func (l *Level) MoveFilterCursor(unit Unit, dir int) bool {
	pos := l.FilterCursorPos()
	next := boundary([]rune(l.Filter), pos, unit, dir)
	if next == pos {
		return false
	}
	l.FilterCursor = next
	return true
}

// boundary finds where a unit starting at pos ends when walking in dir.
// Word moves skip the whitespace next to the caret before the word itself.
func boundary(runes []rune, pos int, unit Unit, dir int) int {
	if dir < 0 {
		switch unit {
		case UnitAll:
			return 0
		case UnitWord:
			for pos > 0 && unicode.IsSpace(runes[pos-1]) {
				pos--
			}
			for pos > 0 && !unicode.IsSpace(runes[pos-1]) {
				pos--
			}
			return pos
		default:
			return clamp(pos-1, 0, len(runes))
		}
	}
	switch unit {
	case UnitAll:
		return len(runes)
	case UnitWord:
		for pos < len(runes) && !unicode.IsSpace(runes[pos]) {
			pos++
		}
		for pos < len(runes) && unicode.IsSpace(runes[pos]) {
			pos++
		}
		return pos
	default:
		return clamp(pos+1, 0, len(runes))
	}
}

// match tiers, best first
const (
	matchExact = iota
	matchPrefix
	matchContains
	matchNone
)

func matchTier(item pane.Option, lower string) int {
	label, key := strings.ToLower(item.Label), strings.ToLower(item.Key)
	switch {
	case label == lower || key == lower:
		return matchExact
	case strings.HasPrefix(label, lower) || strings.HasPrefix(key, lower):
		return matchPrefix
	case strings.Contains(label, lower) || strings.Contains(key, lower):
		return matchContains
	}
	return matchNone
}

// BestMatchIndex picks the option a search should land on: the best literal
// match, preferring options that still have rows, then the closest fuzzy
// match. It returns -1 only for an empty list.
func BestMatchIndex(items []pane.Option, query string) int {
	if len(items) == 0 {
		return -1
	}
	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" {
		return 0
	}

	best, bestTier := -1, matchNone
	for i, item := range items {
		tier := matchTier(item, lower)
		if tier == matchNone {
			continue
		}
		if tier < bestTier || (tier == bestTier && item.Count > 0 && items[best].Count == 0) {
			best, bestTier = i, tier
		}
	}
	if best >= 0 {
		return best
	}

	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	ranks := fuzzy.RankFindNormalizedFold(lower, labels)
	if len(ranks) == 0 {
		return 0
	}
	best = ranks[0].OriginalIndex
	distance := ranks[0].Distance
	for _, rank := range ranks[1:] {
		if rank.Distance < distance || (rank.Distance == distance && rank.OriginalIndex < best) {
			best, distance = rank.OriginalIndex, rank.Distance
		}
	}
	return best
}
