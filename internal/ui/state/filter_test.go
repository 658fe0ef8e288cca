package state

import (
	"reflect"
	"testing"

	"github.com/atomicstack/searchpanes/internal/pane"
)

func keys(items []pane.Option) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Key
	}
	return out
}

func TestSetFilterRestoresCursorOption(t *testing.T) {
	p := newTestPane("one", "two", "three")
	level := NewLevel("pane:0", "Test", 0, paneSearch(p))
	level.Cursor = level.IndexOf("two")
	level.SetFilter("thr", len("thr"))

	if level.FilterCursor != len("thr") {
		t.Fatalf("expected caret at end, got %d", level.FilterCursor)
	}
	if item, ok := level.Current(); !ok || item.Key != "three" {
		t.Fatalf("expected cursor on the match, got %#v", item)
	}

	p.SetOrder(pane.Order{Column: pane.OrderByLabel, Dir: pane.DirDesc})
	level.SetFilter("", 0)
	if item, ok := level.Current(); !ok || item.Key != "two" {
		t.Fatalf("expected cursor back on two after reordering, got %#v", item)
	}
}

func TestInsertAndDeleteFilterText(t *testing.T) {
	level := newTestLevel("alpha")

	if !level.InsertFilterText("ab") {
		t.Fatal("expected insert to succeed")
	}
	if level.Filter != "ab" || level.FilterCursor != 2 {
		t.Fatalf("unexpected filter state %q/%d", level.Filter, level.FilterCursor)
	}

	level.FilterCursor = 1
	if !level.InsertFilterText("z") || level.Filter != "azb" || level.FilterCursor != 2 {
		t.Fatalf("expected insert into middle, got %q/%d", level.Filter, level.FilterCursor)
	}

	if !level.DeleteFilterBackward(UnitRune) {
		t.Fatal("expected rune deletion to succeed")
	}
	if level.Filter != "ab" || level.FilterCursor != 1 {
		t.Fatalf("unexpected filter state after delete %q/%d", level.Filter, level.FilterCursor)
	}

	level.SetFilter("abc def", len("abc def"))
	if !level.DeleteFilterBackward(UnitWord) || level.Filter != "abc " {
		t.Fatalf("expected trailing word removed, got %q", level.Filter)
	}

	level.SetFilter("abc", 0)
	if level.DeleteFilterBackward(UnitRune) {
		t.Fatal("expected delete at start to fail")
	}
}

func TestMoveFilterCursor(t *testing.T) {
	level := newTestLevel("one", "two")
	level.SetFilter("one two", len("one two"))

	steps := []struct {
		unit  Unit
		dir   int
		moved bool
		want  int
	}{
		{UnitWord, -1, true, 4},
		{UnitWord, 1, true, 7},
		{UnitRune, 1, false, 7},
		{UnitRune, -1, true, 6},
		{UnitAll, -1, true, 0},
		{UnitWord, -1, false, 0},
		{UnitAll, 1, true, 7},
	}
	for i, step := range steps {
		if moved := level.MoveFilterCursor(step.unit, step.dir); moved != step.moved || level.FilterCursor != step.want {
			t.Fatalf("step %d: expected moved=%v caret %d, got moved=%v caret %d", i, step.moved, step.want, moved, level.FilterCursor)
		}
	}
}

func TestFilterFeedsPaneSearch(t *testing.T) {
	p := newTestPane("Alpha", "Beta", "Beta")
	level := NewLevel("pane:0", "Test", 0, paneSearch(p))
	level.SetFilter("alp", 3)
	if p.SearchTerm() != "alp" {
		t.Fatalf("expected pane search term updated, got %q", p.SearchTerm())
	}
	if !reflect.DeepEqual(keys(level.Items), []string{"Alpha"}) {
		t.Fatalf("expected filtered items to contain Alpha, got %v", keys(level.Items))
	}
	level.SetFilter("", 0)
	if len(level.Items) != 2 {
		t.Fatalf("expected every option back, got %v", keys(level.Items))
	}
}

func TestNilSearchListsNothing(t *testing.T) {
	level := NewLevel("global", "Search", -1, nil)
	if !level.InsertFilterText("abc") || len(level.Items) != 0 {
		t.Fatalf("expected text entry without options, got %v", level.Items)
	}
}

func TestRefreshKeepsCursorOnOption(t *testing.T) {
	p := newTestPane("a", "b", "b", "c", "c", "c")
	level := NewLevel("pane:0", "Test", 0, paneSearch(p))
	level.Cursor = level.IndexOf("a")
	p.SetOrder(pane.Order{Column: pane.OrderByCount, Dir: pane.DirDesc})
	level.Refresh()
	if want := []string{"c", "b", "a"}; !reflect.DeepEqual(keys(level.Items), want) {
		t.Fatalf("expected %v, got %v", want, keys(level.Items))
	}
	if level.Cursor != 2 {
		t.Fatalf("expected cursor to follow a, got %d", level.Cursor)
	}
	if item, ok := level.Current(); !ok || item.Key != "a" {
		t.Fatalf("unexpected current item %#v", item)
	}
}

func TestRefreshFallsBackToNearestCheckedOption(t *testing.T) {
	p := newTestPane("a", "b", "c", "d")
	level := NewLevel("pane:0", "Test", 0, paneSearch(p))
	p.SetSelections([]string{"a", "d"})
	level.Refresh()
	level.Cursor = level.IndexOf("c")

	p.SetSearchTerm("")
	level.search = func(string) []pane.Option {
		var out []pane.Option
		for _, opt := range p.Options() {
			if opt.Key != "c" {
				out = append(out, opt)
			}
		}
		return out
	}
	level.Refresh()
	if item, ok := level.Current(); !ok || item.Key != "d" {
		t.Fatalf("expected cursor on the nearest checked option d, got %#v", item)
	}
}

func TestBestMatchIndex(t *testing.T) {
	items := []pane.Option{
		{Key: "one", Label: "First"},
		{Key: "two", Label: "Second"},
		{Key: "three", Label: "Third"},
	}

	if idx := BestMatchIndex(items, "Second"); idx != 1 {
		t.Fatalf("expected exact label match index 1, got %d", idx)
	}
	if idx := BestMatchIndex(items, "two"); idx != 1 {
		t.Fatalf("expected key match index 1, got %d", idx)
	}
	if idx := BestMatchIndex(items, "th"); idx != 2 {
		t.Fatalf("expected prefix match index 2, got %d", idx)
	}
	if idx := BestMatchIndex(items, "zzz"); idx != 0 {
		t.Fatalf("expected fallback index 0, got %d", idx)
	}
	withRows := []pane.Option{
		{Key: "Redwood", Label: "Redwood", Count: 0, Total: 2},
		{Key: "Reed", Label: "Reed", Count: 3, Total: 3},
	}
	if idx := BestMatchIndex(withRows, "re"); idx != 1 {
		t.Fatalf("expected the prefix match with rows, got %d", idx)
	}
	if idx := BestMatchIndex(nil, "anything"); idx != -1 {
		t.Fatalf("expected -1 for empty slice, got %d", idx)
	}
}
