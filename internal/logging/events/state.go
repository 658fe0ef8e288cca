package events

import "github.com/atomicstack/searchpanes/internal/logging"

type StateTracer struct{}

type FetchTracer struct{}

var (
	State = StateTracer{}
	Fetch = FetchTracer{}
)

func (StateTracer) Save(entries, panes int) {
	logging.Trace("state.save", map[string]interface{}{"entries": entries, "panes": panes})
}

func (StateTracer) Load(entries, panes int) {
	logging.Trace("state.load", map[string]interface{}{"entries": entries, "panes": panes})
}

func (StateTracer) Malformed(err error) {
	if err == nil {
		return
	}
	logging.Trace("state.malformed", map[string]interface{}{"error": err.Error()})
}

func (FetchTracer) Queue(seq uint64, selections int) {
	logging.Trace("fetch.queue", map[string]interface{}{"seq": seq, "selections": selections})
}

func (FetchTracer) Result(seq uint64, rows int) {
	logging.Trace("fetch.result", map[string]interface{}{"seq": seq, "rows": rows})
}

func (FetchTracer) Error(seq uint64, err error) {
	if err == nil {
		return
	}
	logging.Trace("fetch.error", map[string]interface{}{"seq": seq, "error": err.Error()})
}

func (FetchTracer) Stale(seq, newest uint64) {
	logging.Trace("fetch.stale", map[string]interface{}{"seq": seq, "newest": newest})
}
