package events

import "github.com/atomicstack/searchpanes/internal/logging"

type EngineTracer struct{}

type LedgerTracer struct{}

type engineReason string

const (
	EngineReasonUpdating        engineReason = "updating"
	EngineReasonServerSelecting engineReason = "server-selecting"
	EngineReasonDestroyed       engineReason = "destroyed"
)

var (
	Engine = EngineTracer{}
	Ledger = LedgerTracer{}
)

// Trigger records a reconciliation request. pane is -1 for a global pass.
func (EngineTracer) Trigger(mode string, pane int) {
	logging.Trace("engine.trigger", map[string]interface{}{"mode": mode, "pane": pane})
}

func (EngineTracer) Dropped(pane int, reason engineReason) {
	logging.Trace("engine.dropped", map[string]interface{}{"pane": pane, "reason": string(reason)})
}

func (EngineTracer) Pass(entries int, anotherFilter bool) {
	logging.Trace("engine.pass", map[string]interface{}{"entries": entries, "anotherFilter": anotherFilter})
}

func (EngineTracer) Entry(column, filterCount, selectedPanes int) {
	logging.Trace("engine.entry", map[string]interface{}{
		"column":        column,
		"filterCount":   filterCount,
		"selectedPanes": selectedPanes,
	})
}

func (EngineTracer) SkippedColumn(column int) {
	logging.Trace("engine.skip-column", map[string]interface{}{"column": column})
}

func (EngineTracer) ServerArrival(seq uint64, panes int) {
	logging.Trace("engine.server-arrival", map[string]interface{}{"seq": seq, "panes": panes})
}

func (EngineTracer) Rebuild(maintainSelection bool, panes int) {
	logging.Trace("engine.rebuild", map[string]interface{}{"maintain": maintainSelection, "panes": panes})
}

func (LedgerTracer) Set(column int, rows []string) {
	logging.Trace("ledger.set", map[string]interface{}{"column": column, "rows": rows})
}

func (LedgerTracer) Remove(column int) {
	logging.Trace("ledger.remove", map[string]interface{}{"column": column})
}

func (EngineTracer) FetchFailed(released int, err error) {
	payload := map[string]interface{}{"released": released}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("engine.fetch-failed", payload)
}
