package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/atomicstack/searchpanes/internal/backend"
	"github.com/atomicstack/searchpanes/internal/grid"
	"github.com/atomicstack/searchpanes/internal/ledger"
	"github.com/atomicstack/searchpanes/internal/pane"
)

type queue struct {
	reqs []backend.Request
}

func (q *queue) Submit(req backend.Request) {
	q.reqs = append(q.reqs, req)
}

func (q *queue) last(t *testing.T) backend.Request {
	t.Helper()
	if len(q.reqs) == 0 {
		t.Fatal("expected a queued request")
	}
	return q.reqs[len(q.reqs)-1]
}

func unfilteredOptions() map[int][]pane.ValueCount {
	return map[int][]pane.ValueCount{
		0: {{Value: "Blue", Count: 1, Total: 1}, {Value: "Green", Count: 1, Total: 1}, {Value: "Red", Count: 2, Total: 2}},
		1: {{Value: "L", Count: 1, Total: 1}, {Value: "M", Count: 1, Total: 1}, {Value: "S", Count: 2, Total: 2}},
	}
}

func newServer(t *testing.T, opts Options) (*Engine, *grid.Server, *queue) {
	t.Helper()
	q := &queue{}
	srv := grid.NewServer([]string{"Color", "Size"}, q, 0)
	opts.Threshold = 1
	e := New(srv, opts)
	if e.Mode() != ModeServer {
		t.Fatalf("expected server mode, got %s", e.Mode())
	}
	srv.Init()
	srv.Deliver(backend.Result{Seq: q.last(t).Seq, Response: &backend.Response{
		RecordsTotal:    4,
		RecordsFiltered: 4,
		Options:         unfilteredOptions(),
	}})
	return e, srv, q
}

func TestServerUnfilteredArrival(t *testing.T) {
	e, _, _ := newServer(t, Options{})
	for _, p := range e.Panes() {
		if !p.Displayed {
			t.Fatalf("expected %s displayed", p.Name)
		}
		if p.FilteringActive {
			t.Fatalf("expected %s unflagged when every count equals its total", p.Name)
		}
	}
	if c, _ := e.Pane(0).Counts("Red"); c != (pane.Count{Count: 2, Total: 2}) {
		t.Fatalf("unexpected Red counts %#v", c)
	}
	if e.Stats().Arrivals != 1 {
		t.Fatalf("expected one arrival, got %d", e.Stats().Arrivals)
	}
}

func TestServerSelectionShipsLedger(t *testing.T) {
	e, srv, q := newServer(t, Options{})
	color := e.Pane(0)
	color.Select("Red")

	if !color.ServerSelecting() {
		t.Fatal("expected pane marked while its fetch is in flight")
	}
	req := q.last(t)
	if want := []ledger.Entry{{Column: 0, Rows: []string{"Red"}}}; !reflect.DeepEqual(req.Selections, want) {
		t.Fatalf("expected selections %v, got %v", want, req.Selections)
	}

	srv.Deliver(backend.Result{Seq: req.Seq, Response: &backend.Response{
		RecordsTotal:    4,
		RecordsFiltered: 2,
		Options: map[int][]pane.ValueCount{
			0: {{Value: "Blue", Count: 0, Total: 1}, {Value: "Green", Count: 0, Total: 1}, {Value: "Red", Count: 2, Total: 2}},
			1: {{Value: "L", Count: 0, Total: 1}, {Value: "M", Count: 1, Total: 1}, {Value: "S", Count: 1, Total: 2}},
		},
	}})

	if color.ServerSelecting() {
		t.Fatal("expected flag cleared on arrival")
	}
	if c, _ := color.Counts("Blue"); c.Count != 1 {
		t.Fatalf("expected last selected pane to keep its counts, got %#v", c)
	}
	size := e.Pane(1)
	if c, _ := size.Counts("S"); c != (pane.Count{Count: 1, Total: 2}) {
		t.Fatalf("expected refreshed size counts, got %#v", c)
	}
	if !size.FilteringActive || !color.FilteringActive {
		t.Fatal("expected panes with differing counts flagged")
	}
	if !reflect.DeepEqual(color.Selections(), []string{"Red"}) {
		t.Fatalf("expected Red still selected, got %v", color.Selections())
	}
}

func TestServerClickDuringFetchIsReplayed(t *testing.T) {
	e, srv, q := newServer(t, Options{})
	color := e.Pane(0)
	color.Select("Red")
	inflight := q.last(t)
	color.Select("Blue")

	if e.Stats().Dropped != 1 {
		t.Fatalf("expected the second click dropped, got %d", e.Stats().Dropped)
	}
	if len(q.reqs) != 2 {
		t.Fatalf("expected no fetch for the dropped click, got %d", len(q.reqs))
	}

	srv.Deliver(backend.Result{Seq: inflight.Seq, Response: &backend.Response{Options: unfilteredOptions()}})

	if len(q.reqs) != 3 {
		t.Fatalf("expected catch-up fetch, got %d requests", len(q.reqs))
	}
	want := []ledger.Entry{{Column: 0, Rows: []string{"Blue", "Red"}}}
	if got := q.last(t).Selections; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestServerLoadAndPreSelect(t *testing.T) {
	e, srv, q := newServer(t, Options{PreSelect: []ledger.Entry{{Column: 1, Rows: []string{"S"}}}})
	if got := q.last(t).Selections; len(got) != 1 || got[0].Column != 1 {
		t.Fatalf("expected pre-selection sent, got %v", got)
	}
	srv.Deliver(backend.Result{Seq: q.last(t).Seq, Response: &backend.Response{Options: unfilteredOptions()}})
	if !e.Pane(1).IsSelected("S") {
		t.Fatal("expected pre-selection restored on the pane")
	}

	e.Load([]ledger.Entry{{Column: 0, Rows: []string{"Green"}}})
	srv.Deliver(backend.Result{Seq: q.last(t).Seq, Response: &backend.Response{Options: unfilteredOptions()}})
	if !e.Pane(0).IsSelected("Green") || e.Pane(1).IsSelected("S") {
		t.Fatal("expected loaded ledger to replace the selection")
	}
}

func TestServerArrivalAfterDestroyIgnored(t *testing.T) {
	e, srv, q := newServer(t, Options{})
	e.Pane(0).Select("Red")
	e.Destroy()
	srv.Deliver(backend.Result{Seq: q.last(t).Seq, Response: &backend.Response{Options: unfilteredOptions()}})
	if e.Stats().Arrivals != 1 {
		t.Fatalf("expected arrival ignored, got %d arrivals", e.Stats().Arrivals)
	}
	e.arrive(&backend.Response{Options: unfilteredOptions()})
	if e.Stats().Arrivals != 1 {
		t.Fatal("expected direct arrival ignored after destroy")
	}
}

func TestServerFetchFailureReleasesPane(t *testing.T) {
	e, srv, q := newServer(t, Options{})
	color := e.Pane(0)
	color.Select("Red")
	srv.Deliver(backend.Result{Seq: q.last(t).Seq, Err: errors.New("database is locked")})

	if color.ServerSelecting() {
		t.Fatal("expected flag cleared after a failed fetch")
	}
	if c, _ := color.Counts("Blue"); c != (pane.Count{Count: 1, Total: 1}) {
		t.Fatalf("expected counts left stale, got %#v", c)
	}

	before := len(q.reqs)
	color.Select("Blue")
	if e.Stats().Dropped != 0 || len(q.reqs) != before+1 {
		t.Fatalf("expected the click after a failure to fetch, dropped=%d requests=%d", e.Stats().Dropped, len(q.reqs)-before)
	}
	if want := []ledger.Entry{{Column: 0, Rows: []string{"Blue", "Red"}}}; !reflect.DeepEqual(q.last(t).Selections, want) {
		t.Fatalf("expected %v shipped, got %v", want, q.last(t).Selections)
	}

	srv.Deliver(backend.Result{Seq: q.last(t).Seq, Err: errors.New("database is locked")})
	color.Deselect("Red")
	if e.Stats().Dropped != 0 {
		t.Fatalf("expected no dropped clicks, got %d", e.Stats().Dropped)
	}
	want := []ledger.Entry{{Column: 0, Rows: []string{"Blue"}}}
	if got := e.Ledger().Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected ledger %v, got %v", want, got)
	}
}

func TestServerFetchFailureReplaysDroppedClick(t *testing.T) {
	e, srv, q := newServer(t, Options{})
	color := e.Pane(0)
	color.Select("Red")
	inflight := q.last(t)
	color.Select("Blue")

	srv.Deliver(backend.Result{Seq: inflight.Seq, Err: errors.New("database is locked")})

	if len(q.reqs) != 3 {
		t.Fatalf("expected catch-up fetch after the failure, got %d requests", len(q.reqs))
	}
	want := []ledger.Entry{{Column: 0, Rows: []string{"Blue", "Red"}}}
	if got := q.last(t).Selections; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !color.ServerSelecting() {
		t.Fatal("expected pane marked for the catch-up fetch")
	}
}
