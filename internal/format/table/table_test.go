package table

import "testing"

func TestFormatAlignsColumns(t *testing.T) {
	got := Format([][]string{
		{"Name", "Qty"},
		{"apple", "3"},
		{"fig", "12"},
	}, []Alignment{AlignLeft, AlignRight})
	want := []string{
		"Name   Qty",
		"apple    3",
		"fig     12",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestFormatPadsRaggedRows(t *testing.T) {
	got := Format([][]string{{"a", "b"}, {"ccc"}}, nil)
	if got[0] != "a    b" || got[1] != "ccc" {
		t.Fatalf("unexpected layout %q", got)
	}
}

func TestFormatCountsWideRunes(t *testing.T) {
	got := Format([][]string{{"日本", "x"}, {"ab", "y"}}, nil)
	if got[0] != "日本  x" || got[1] != "ab    y" {
		t.Fatalf("unexpected layout %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("expected abc…, got %q", got)
	}
	if got := Truncate("abc", 4); got != "abc" {
		t.Fatalf("expected untouched text, got %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("expected no limit at zero width, got %q", got)
	}
}
