package grid

import (
	"github.com/atomicstack/searchpanes/internal/backend"
	"github.com/atomicstack/searchpanes/internal/ledger"
	"github.com/atomicstack/searchpanes/internal/logging/events"
)

// Requester queues a fetch. backend.Fetcher satisfies it.
type Requester interface {
	Submit(req backend.Request)
}

// Server is a grid whose rows and pane counts live in a remote source. Draw
// only queues a fetch; results are applied by Deliver on the caller's
// goroutine.
type Server struct {
	Bus

	columns    []Column
	fetcher    Requester
	selections func() []ledger.Entry
	global     string
	pageSize   int

	seq         uint64
	page        [][]string
	total       int
	filtered    int
	pending     bool
	lastErr     error
	initialized bool
	draws       int
}

// NewServer builds a server grid over the named columns.
func NewServer(names []string, fetcher Requester, pageSize int) *Server {
	if pageSize <= 0 {
		pageSize = backend.DefaultPageSize
	}
	s := &Server{fetcher: fetcher, pageSize: pageSize}
	s.columns = make([]Column, len(names))
	for i, name := range names {
		s.columns[i] = Column{Index: i, Name: name}
	}
	return s
}

func (s *Server) ServerSide() bool { return true }

func (s *Server) Columns() []Column {
	return append([]Column(nil), s.columns...)
}

// Values returns column's cells on the resident page.
func (s *Server) Values(column int) []string {
	out := make([]string, len(s.page))
	for i, row := range s.page {
		if column >= 0 && column < len(row) {
			out[i] = row[column]
		}
	}
	return out
}

// AddSearch accepts a row filter for interface parity. Filtering happens in
// the remote source, so the filter is never called.
func (s *Server) AddSearch(RowFilter) string {
	return ""
}

func (s *Server) RemoveSearch(string) {}

// SetSelectionSource supplies the selections sent with every fetch.
func (s *Server) SetSelectionSource(fn func() []ledger.Entry) {
	s.selections = fn
}

// AllRows returns the ids of the resident page.
func (s *Server) AllRows() []int {
	out := make([]int, len(s.page))
	for i := range out {
		out[i] = i
	}
	return out
}

// VisibleRows equals AllRows: the page is already filtered remotely.
func (s *Server) VisibleRows() []int {
	return s.AllRows()
}

func (s *Server) Row(id int) []string {
	if id < 0 || id >= len(s.page) {
		return nil
	}
	return append([]string(nil), s.page[id]...)
}

// Records returns the table size and the number of rows matching the filters.
func (s *Server) Records() (total, filtered int) {
	return s.total, s.filtered
}

func (s *Server) Draws() int { return s.draws }

// Pending reports whether a fetch is outstanding.
func (s *Server) Pending() bool { return s.pending }

// Err returns the last fetch error, cleared by the next successful delivery.
func (s *Server) Err() error { return s.lastErr }

func (s *Server) GlobalSearch() string { return s.global }

func (s *Server) SetGlobalSearch(term string) { s.global = term }

// Seq returns the sequence number of the newest fetch.
func (s *Server) Seq() uint64 { return s.seq }

// Draw queues a fetch carrying the current selections and search.
func (s *Server) Draw() {
	s.seq++
	var selections []ledger.Entry
	if s.selections != nil {
		selections = s.selections()
	}
	s.pending = true
	s.fetcher.Submit(backend.Request{
		Seq:        s.seq,
		Selections: selections,
		Search:     s.global,
		Length:     s.pageSize,
	})
}

// Init queues the first fetch. EventInitialized follows the first successful
// delivery.
func (s *Server) Init() {
	if s.initialized || s.seq > 0 {
		return
	}
	s.Draw()
}

// Deliver applies a fetch result. Results older than the newest fetch are
// dropped and Deliver returns false.
func (s *Server) Deliver(res backend.Result) bool {
	if res.Seq != s.seq {
		events.Fetch.Stale(res.Seq, s.seq)
		return false
	}
	s.pending = false
	if res.Err != nil || res.Response == nil {
		s.lastErr = res.Err
		s.Publish(Event{Kind: EventFetchFailed, Err: res.Err})
		return true
	}
	s.lastErr = nil
	resp := res.Response
	s.page = resp.Rows
	s.total = resp.RecordsTotal
	s.filtered = resp.RecordsFiltered
	s.draws++
	s.Publish(Event{Kind: EventDraw, Response: resp})
	if !s.initialized {
		s.initialized = true
		s.Publish(Event{Kind: EventInitialized})
	}
	return true
}

func (s *Server) SaveState() State {
	return saveState(&s.Bus, s.global)
}

func (s *Server) LoadState(data []byte) State {
	state := DecodeState(data)
	s.global = state.Search()
	s.Publish(Event{Kind: EventStateLoad, State: state})
	return state
}
