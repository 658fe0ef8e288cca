package grid

import (
	"errors"
	"testing"

	"github.com/atomicstack/searchpanes/internal/backend"
	"github.com/atomicstack/searchpanes/internal/ledger"
)

type recordingRequester struct {
	reqs []backend.Request
}

func (r *recordingRequester) Submit(req backend.Request) {
	r.reqs = append(r.reqs, req)
}

func TestServerDrawCarriesSelectionsAndSearch(t *testing.T) {
	req := &recordingRequester{}
	srv := NewServer([]string{"Color"}, req, 10)
	srv.SetSelectionSource(func() []ledger.Entry {
		return []ledger.Entry{{Column: 0, Rows: []string{"Red"}}}
	})
	srv.SetGlobalSearch("re")
	srv.Init()
	srv.Init()

	if len(req.reqs) != 1 {
		t.Fatalf("expected one fetch, got %d", len(req.reqs))
	}
	got := req.reqs[0]
	if got.Seq != 1 || got.Search != "re" || got.Length != 10 || len(got.Selections) != 1 {
		t.Fatalf("unexpected request %#v", got)
	}
	if !srv.Pending() {
		t.Fatal("expected fetch pending")
	}
}

func TestServerDeliverDropsStaleResults(t *testing.T) {
	srv := NewServer([]string{"Color"}, &recordingRequester{}, 0)
	var kinds []EventKind
	srv.Subscribe(EventDraw, func(e Event) {
		kinds = append(kinds, e.Kind)
		if e.Response == nil {
			t.Fatal("expected response on server draw")
		}
	})
	srv.Subscribe(EventInitialized, func(e Event) { kinds = append(kinds, e.Kind) })

	srv.Draw()
	srv.Draw()
	if srv.Deliver(backend.Result{Seq: 1, Response: &backend.Response{}}) {
		t.Fatal("expected stale result dropped")
	}
	ok := srv.Deliver(backend.Result{Seq: 2, Response: &backend.Response{
		Rows:            [][]string{{"Red"}, {"Blue"}},
		RecordsTotal:    5,
		RecordsFiltered: 2,
	}})
	if !ok {
		t.Fatal("expected current result applied")
	}
	if len(kinds) != 2 || kinds[0] != EventDraw || kinds[1] != EventInitialized {
		t.Fatalf("unexpected events %v", kinds)
	}
	if total, filtered := srv.Records(); total != 5 || filtered != 2 {
		t.Fatalf("unexpected records %d/%d", total, filtered)
	}
	if len(srv.VisibleRows()) != 2 || srv.Row(1)[0] != "Blue" || srv.Pending() {
		t.Fatal("unexpected page state")
	}
}

func TestServerDeliverPublishesFailures(t *testing.T) {
	srv := NewServer([]string{"Color"}, &recordingRequester{}, 0)
	srv.Draw()
	boom := errors.New("boom")
	var got error
	srv.Subscribe(EventFetchFailed, func(e Event) { got = e.Err })
	srv.Deliver(backend.Result{Seq: 1, Err: boom})
	if !errors.Is(got, boom) || !errors.Is(srv.Err(), boom) {
		t.Fatalf("expected failure event, got %v", got)
	}
}
