package grid

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/atomicstack/searchpanes/internal/logging/events"
)

// searchKey is the state key holding the global search term.
const searchKey = "search"

// Column describes one grid column.
type Column struct {
	Index int
	Name  string
}

// RowFilter reports whether a row passes.
type RowFilter func(row int) bool

type rowSearch struct {
	id     string
	filter RowFilter
}

// Table is a client-side grid holding every row in memory.
type Table struct {
	Bus

	columns  []Column
	rows     [][]string
	searches []rowSearch
	global   string
	visible  []int

	initialized bool
	draws       int
}

// NewTable builds a table. Rows shorter than the header read as empty cells.
func NewTable(names []string, rows [][]string) *Table {
	t := &Table{}
	t.columns = make([]Column, len(names))
	for i, name := range names {
		t.columns[i] = Column{Index: i, Name: name}
	}
	t.rows = rows
	t.visible = t.AllRows()
	return t
}

func (t *Table) ServerSide() bool { return false }

func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// Row returns the cells of row id.
func (t *Table) Row(id int) []string {
	if id < 0 || id >= len(t.rows) {
		return nil
	}
	out := make([]string, len(t.columns))
	copy(out, t.rows[id])
	return out
}

// Values returns column's cell for every row, indexed by row id.
func (t *Table) Values(column int) []string {
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		if column >= 0 && column < len(row) {
			out[i] = row[column]
		}
	}
	return out
}

// AllRows returns every row id, ignoring filters.
func (t *Table) AllRows() []int {
	out := make([]int, len(t.rows))
	for i := range out {
		out[i] = i
	}
	return out
}

// VisibleRows returns the row ids that passed every filter on the last Draw.
func (t *Table) VisibleRows() []int {
	return append([]int(nil), t.visible...)
}

// Draws counts completed draws.
func (t *Table) Draws() int {
	return t.draws
}

// AddSearch registers a row filter applied on every Draw.
func (t *Table) AddSearch(filter RowFilter) string {
	id := uuid.NewString()
	t.searches = append(t.searches, rowSearch{id: id, filter: filter})
	return id
}

// RemoveSearch drops a row filter registered by AddSearch.
func (t *Table) RemoveSearch(id string) {
	for i, s := range t.searches {
		if s.id == id {
			t.searches = append(t.searches[:i:i], t.searches[i+1:]...)
			return
		}
	}
}

func (t *Table) GlobalSearch() string {
	return t.global
}

// SetGlobalSearch sets the case-insensitive term every visible row must
// contain in at least one cell. It takes effect on the next Draw.
func (t *Table) SetGlobalSearch(term string) {
	t.global = term
}

// SetRows replaces the dataset. Callers redraw afterwards.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
}

// Draw reapplies the filters and publishes EventDraw.
func (t *Table) Draw() {
	term := strings.ToLower(strings.TrimSpace(t.global))
	visible := make([]int, 0, len(t.rows))
	for id, row := range t.rows {
		if term != "" && !rowContains(row, term) {
			continue
		}
		if !t.passes(id) {
			continue
		}
		visible = append(visible, id)
	}
	t.visible = visible
	t.draws++
	t.Publish(Event{Kind: EventDraw})
}

func (t *Table) passes(id int) bool {
	for _, s := range t.searches {
		if !s.filter(id) {
			return false
		}
	}
	return true
}

func rowContains(row []string, term string) bool {
	for _, cell := range row {
		if strings.Contains(strings.ToLower(cell), term) {
			return true
		}
	}
	return false
}

// Init draws once and publishes EventInitialized. Later calls are no-ops.
func (t *Table) Init() {
	if t.initialized {
		return
	}
	t.initialized = true
	t.Draw()
	t.Publish(Event{Kind: EventInitialized})
}

// SaveState collects the grid state, letting subscribers add their blocks.
func (t *Table) SaveState() State {
	return saveState(&t.Bus, t.global)
}

// LoadState restores a state produced by SaveState. Malformed input loads as
// an empty state. The restored search applies on the next Draw.
func (t *Table) LoadState(data []byte) State {
	state := DecodeState(data)
	t.global = state.Search()
	t.Publish(Event{Kind: EventStateLoad, State: state})
	return state
}

func saveState(bus *Bus, search string) State {
	state := State{}
	if search != "" {
		if raw, err := json.Marshal(search); err == nil {
			state[searchKey] = raw
		}
	}
	bus.Publish(Event{Kind: EventStateSave, State: state})
	return state
}

// DecodeState parses persisted bytes. Empty or malformed input yields an
// empty state.
func DecodeState(data []byte) State {
	state := State{}
	if len(data) == 0 {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		events.State.Malformed(fmt.Errorf("decode grid state: %w", err))
		return State{}
	}
	return state
}

// Search returns the saved global search term.
func (s State) Search() string {
	raw, ok := s[searchKey]
	if !ok {
		return ""
	}
	var term string
	if err := json.Unmarshal(raw, &term); err != nil {
		events.State.Malformed(fmt.Errorf("decode search: %w", err))
		return ""
	}
	return term
}

// Encode marshals the state for a store.
func (s State) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode grid state: %w", err)
	}
	return data, nil
}
