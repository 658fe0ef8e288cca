// Package ledger records which pane values are selected, one entry per
// column, ordered by recency of modification.
package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/atomicstack/searchpanes/internal/logging/events"
)

// Entry is the selection recorded for a single column.
type Entry struct {
	Column int      `json:"column"`
	Rows   []string `json:"rows"`
}

// Ledger holds at most one entry per column. The tail entry belongs to the
// most recently modified pane.
type Ledger struct {
	entries []Entry
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// SetForColumn drops any existing entry for column and, when rows is
// non-empty, appends a fresh entry at the tail.
func (l *Ledger) SetForColumn(column int, rows []string) {
	l.remove(column)
	if len(rows) == 0 {
		events.Ledger.Remove(column)
		return
	}
	l.entries = append(l.entries, Entry{Column: column, Rows: cloneRows(rows)})
	events.Ledger.Set(column, rows)
}

func (l *Ledger) remove(column int) {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.Column != column {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(l.entries); i++ {
		l.entries[i] = Entry{}
	}
	l.entries = kept
}

// LastColumn reports the column of the tail entry.
func (l *Ledger) LastColumn() (int, bool) {
	if len(l.entries) == 0 {
		return 0, false
	}
	return l.entries[len(l.entries)-1].Column, true
}

// Rows returns the recorded rows for column.
func (l *Ledger) Rows(column int) ([]string, bool) {
	for _, e := range l.entries {
		if e.Column == column {
			return cloneRows(e.Rows), true
		}
	}
	return nil, false
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a deep copy of the entries in ledger order.
func (l *Ledger) Entries() []Entry {
	return cloneEntries(l.entries)
}

// Snapshot is an alias for Entries, used where the caller intends to restore
// the ledger later with Replace.
func (l *Ledger) Snapshot() []Entry {
	return l.Entries()
}

// Replace swaps the ledger contents, applying each entry through SetForColumn
// so the one-entry-per-column and no-empty-entry rules still hold.
func (l *Ledger) Replace(entries []Entry) {
	l.entries = nil
	for _, e := range entries {
		l.remove(e.Column)
		if len(e.Rows) == 0 {
			continue
		}
		l.entries = append(l.entries, Entry{Column: e.Column, Rows: cloneRows(e.Rows)})
	}
}

// Clear removes every entry.
func (l *Ledger) Clear() {
	l.entries = nil
}

// MarshalJSON encodes the ledger as a plain list of entries.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	entries := l.entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes a list of entries, normalising it through Replace.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode selection list: %w", err)
	}
	l.Replace(entries)
	return nil
}

func cloneRows(rows []string) []string {
	if rows == nil {
		return nil
	}
	dup := make([]string, len(rows))
	copy(dup, rows)
	return dup
}

func cloneEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]Entry, len(entries))
	for i, e := range entries {
		dup[i] = Entry{Column: e.Column, Rows: cloneRows(e.Rows)}
	}
	return dup
}
