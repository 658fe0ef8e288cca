// Package pane models a single column's filter pane: its distinct values,
// per-value counts and the user's selection.
package pane

import (
	"sort"

	"github.com/atomicstack/searchpanes/internal/logging/events"
)

// DefaultThreshold hides panes whose distinct-value ratio exceeds it.
const DefaultThreshold = 0.6

// EmptyLabel is shown for the empty value.
const EmptyLabel = "(empty)"

// Count holds the occurrences of a value among visible and all rows.
type Count struct {
	Count int
	Total int
}

// Option is one listed value of a pane.
type Option struct {
	Key      string
	Label    string
	Count    int
	Total    int
	Selected bool
}

// ValueCount is a remote source's count for one value of a column.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	Total int    `json:"total"`
}

// EventKind identifies a pane selection event.
type EventKind int

const (
	EventSelected EventKind = iota
	EventDeselected
)

func (k EventKind) String() string {
	if k == EventDeselected {
		return "deselected"
	}
	return "selected"
}

// Handler receives selection events. Events carry no payload; receivers read
// the pane's state.
type Handler func(EventKind)

// Config controls pane construction.
type Config struct {
	Strategy  Strategy
	Threshold float64
	// Show forces the pane visible (true) or hidden (false). Nil decides from
	// the data.
	Show   *bool
	Header string
	Order  Order
}

// Pane is one column's filter pane.
type Pane struct {
	Index           int
	Name            string
	Displayed       bool
	FilteringActive bool

	cfg        Config
	serverSide bool

	rowValues []string
	keys      []string
	valueRows map[string][]int
	counts    map[string]Count

	selections []string
	selected   map[string]struct{}

	searchTerm      string
	order           Order
	serverSelecting bool

	handlers map[int]Handler
	nextID   int
}

// New builds a client-side pane from the column values, one per row id.
func New(index int, name string, values []string, cfg Config) *Pane {
	p := newPane(index, name, cfg)
	p.Rebuild(values)
	return p
}

// NewServer builds a pane whose values and counts are supplied by a remote
// source through SetServerCounts.
func NewServer(index int, name string, cfg Config) *Pane {
	p := newPane(index, name, cfg)
	p.serverSide = true
	p.Displayed = cfg.Show == nil || *cfg.Show
	return p
}

func newPane(index int, name string, cfg Config) *Pane {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if !cfg.Order.Valid() {
		cfg.Order = DefaultOrder()
	}
	if cfg.Header != "" {
		name = cfg.Header
	}
	return &Pane{
		Index:     index,
		Name:      name,
		cfg:       cfg,
		order:     cfg.Order,
		valueRows: map[string][]int{},
		counts:    map[string]Count{},
		selected:  map[string]struct{}{},
		handlers:  map[int]Handler{},
	}
}

// Rebuild replaces the pane's dataset snapshot. Selections of values that no
// longer exist are dropped.
func (p *Pane) Rebuild(values []string) {
	p.rowValues = append([]string(nil), values...)
	p.valueRows = make(map[string][]int)
	p.keys = p.keys[:0]
	for row, v := range p.rowValues {
		if _, ok := p.valueRows[v]; !ok {
			p.keys = append(p.keys, v)
		}
		p.valueRows[v] = append(p.valueRows[v], row)
	}
	sortKeys(p.keys)
	all := make([]int, len(p.rowValues))
	for i := range all {
		all[i] = i
	}
	p.RecomputeCounts(all, all)
	p.pruneSelections()
	p.Displayed = p.decideDisplayed(len(p.keys), len(p.rowValues))
}

func (p *Pane) decideDisplayed(distinct, rows int) bool {
	if p.cfg.Show != nil {
		return *p.cfg.Show
	}
	if distinct < 2 || rows == 0 {
		return false
	}
	return float64(distinct)/float64(rows) <= p.cfg.Threshold
}

// ServerSide reports whether counts come from a remote source.
func (p *Pane) ServerSide() bool {
	return p.serverSide
}

// Strategy returns the pane's listing strategy.
func (p *Pane) Strategy() Strategy {
	return p.cfg.Strategy
}

// HasList reports whether the pane has a rendered option list.
func (p *Pane) HasList() bool {
	return p.Displayed && len(p.keys) > 0
}

// Keys returns the distinct value keys in pane order.
func (p *Pane) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Counts returns the count pair for key.
func (p *Pane) Counts(key string) (Count, bool) {
	c, ok := p.counts[key]
	return c, ok
}

// RecomputeCounts sets Count from visible and Total from all. Server-side
// panes cannot be recounted locally and are left untouched.
func (p *Pane) RecomputeCounts(visible, all []int) {
	if p.serverSide {
		return
	}
	counts := make(map[string]Count, len(p.keys))
	for _, key := range p.keys {
		counts[key] = Count{}
	}
	for _, row := range all {
		if row < 0 || row >= len(p.rowValues) {
			continue
		}
		c := counts[p.rowValues[row]]
		c.Total++
		counts[p.rowValues[row]] = c
	}
	for _, row := range visible {
		if row < 0 || row >= len(p.rowValues) {
			continue
		}
		c := counts[p.rowValues[row]]
		if c.Count < c.Total {
			c.Count++
		}
		counts[p.rowValues[row]] = c
	}
	p.counts = counts
}

// SetServerCounts replaces values and counts with a remote source's figures.
func (p *Pane) SetServerCounts(values []ValueCount) {
	p.keys = p.keys[:0]
	p.counts = make(map[string]Count, len(values))
	rows := 0
	for _, vc := range values {
		rows += vc.Total
		if _, dup := p.counts[vc.Value]; !dup {
			p.keys = append(p.keys, vc.Value)
		}
		c := Count{Count: vc.Count, Total: vc.Total}
		if c.Count > c.Total {
			c.Count = c.Total
		}
		p.counts[vc.Value] = c
	}
	sortKeys(p.keys)
	p.pruneSelections()
	p.Displayed = p.decideDisplayed(len(p.keys), rows)
}

// ServerCountsUnfiltered reports whether every value's count equals its total.
func ServerCountsUnfiltered(values []ValueCount) bool {
	for _, vc := range values {
		if vc.Count != vc.Total {
			return false
		}
	}
	return true
}

// PaneCount returns how many values exclude at least one row.
func (p *Pane) PaneCount() int {
	n := 0
	for _, key := range p.keys {
		if c := p.counts[key]; c.Count < c.Total {
			n++
		}
	}
	return n
}

// CurrentSelectionRowKeys returns the selected value keys in pane order.
func (p *Pane) CurrentSelectionRowKeys() []string {
	if len(p.selected) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p.selected))
	for _, key := range p.keys {
		if _, ok := p.selected[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Selections returns the selected keys in the order they were checked.
func (p *Pane) Selections() []string {
	return append([]string(nil), p.selections...)
}

// SelectedRowIDs unions the row ids of every selected value.
func (p *Pane) SelectedRowIDs() []int {
	var ids []int
	for _, key := range p.selections {
		ids = append(ids, p.valueRows[key]...)
	}
	sort.Ints(ids)
	return ids
}

// Matches reports whether row passes this pane's filter.
func (p *Pane) Matches(row int) bool {
	if len(p.selected) == 0 {
		return true
	}
	if row < 0 || row >= len(p.rowValues) {
		return false
	}
	_, ok := p.selected[p.rowValues[row]]
	return ok
}

// IsSelected reports whether key is checked.
func (p *Pane) IsSelected(key string) bool {
	_, ok := p.selected[key]
	return ok
}

// Select checks key and notifies subscribers.
func (p *Pane) Select(key string) bool {
	if !p.add(key) {
		return false
	}
	events.Pane.Select(p.Index, key)
	p.emit(EventSelected)
	return true
}

// Deselect unchecks key and notifies subscribers.
func (p *Pane) Deselect(key string) bool {
	if !p.drop(key) {
		return false
	}
	events.Pane.Deselect(p.Index, key)
	p.emit(EventDeselected)
	return true
}

// Toggle flips key's selection.
func (p *Pane) Toggle(key string) bool {
	if p.IsSelected(key) {
		return p.Deselect(key)
	}
	return p.Select(key)
}

// DeselectAll clears the selection and notifies subscribers once.
func (p *Pane) DeselectAll() bool {
	if len(p.selections) == 0 {
		return false
	}
	p.ClearSelections()
	p.emit(EventDeselected)
	return true
}

// SetSelections replaces the selection without notifying subscribers. Keys
// the pane does not hold are ignored.
func (p *Pane) SetSelections(keys []string) {
	p.ClearSelections()
	for _, key := range keys {
		p.add(key)
	}
}

// ClearSelections empties the selection without notifying subscribers.
func (p *Pane) ClearSelections() {
	p.selections = nil
	p.selected = map[string]struct{}{}
}

func (p *Pane) add(key string) bool {
	if _, known := p.counts[key]; !known {
		return false
	}
	if _, ok := p.selected[key]; ok {
		return false
	}
	p.selected[key] = struct{}{}
	p.selections = append(p.selections, key)
	return true
}

func (p *Pane) drop(key string) bool {
	if _, ok := p.selected[key]; !ok {
		return false
	}
	delete(p.selected, key)
	kept := p.selections[:0]
	for _, s := range p.selections {
		if s != key {
			kept = append(kept, s)
		}
	}
	p.selections = kept
	return true
}

func (p *Pane) pruneSelections() {
	if len(p.selections) == 0 {
		return
	}
	keep := make([]string, 0, len(p.selections))
	for _, key := range p.selections {
		if _, ok := p.counts[key]; ok {
			keep = append(keep, key)
		}
	}
	p.SetSelections(keep)
}

// Subscribe registers h for selection events and returns its id.
func (p *Pane) Subscribe(h Handler) int {
	p.nextID++
	p.handlers[p.nextID] = h
	return p.nextID
}

// Unsubscribe removes a handler registered with Subscribe.
func (p *Pane) Unsubscribe(id int) {
	delete(p.handlers, id)
}

func (p *Pane) emit(kind EventKind) {
	ids := make([]int, 0, len(p.handlers))
	for id := range p.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if h, ok := p.handlers[id]; ok {
			h(kind)
		}
	}
}

// ServerSelecting reports whether a fetch triggered by this pane is in flight.
func (p *Pane) ServerSelecting() bool {
	return p.serverSelecting
}

// SetServerSelecting marks or clears the in-flight fetch.
func (p *Pane) SetServerSelecting(v bool) {
	p.serverSelecting = v
}

// SearchTerm returns the pane's search box value.
func (p *Pane) SearchTerm() string {
	return p.searchTerm
}

// SetSearchTerm updates the search box value.
func (p *Pane) SetSearchTerm(term string) {
	if term == p.searchTerm {
		return
	}
	p.searchTerm = term
	events.Pane.Search(p.Index, term)
}

// Order returns the pane's sort order.
func (p *Pane) Order() Order {
	return p.order
}

// SetOrder changes the sort order; invalid orders are ignored.
func (p *Pane) SetOrder(o Order) bool {
	if !o.Valid() {
		return false
	}
	p.order = o
	events.Pane.Order(p.Index, o.Column, o.Dir)
	return true
}

// Label returns the display text for key.
func Label(key string) string {
	if key == "" {
		return EmptyLabel
	}
	return key
}

// Options returns the listed options after strategy, search and order.
func (p *Pane) Options() []Option {
	opts := make([]Option, 0, len(p.keys))
	for _, key := range p.keys {
		c := p.counts[key]
		opt := Option{
			Key:      key,
			Label:    Label(key),
			Count:    c.Count,
			Total:    c.Total,
			Selected: p.IsSelected(key),
		}
		if !p.cfg.Strategy.Listed(opt) {
			continue
		}
		opts = append(opts, opt)
	}
	opts = filterOptions(opts, p.searchTerm)
	sortOptions(opts, p.order, p.cfg.Strategy)
	return opts
}

// Badge renders opt's count according to the pane's strategy.
func (p *Pane) Badge(opt Option) string {
	return p.cfg.Strategy.Badge(opt, p.FilteringActive)
}

func sortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })
}
