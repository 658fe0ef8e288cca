package events

import "github.com/atomicstack/searchpanes/internal/logging"

type PaneTracer struct{}

var Pane = PaneTracer{}

func (PaneTracer) Select(index int, key string) {
	logging.Trace("pane.select", map[string]interface{}{"pane": index, "key": key})
}

func (PaneTracer) Deselect(index int, key string) {
	logging.Trace("pane.deselect", map[string]interface{}{"pane": index, "key": key})
}

func (PaneTracer) Search(index int, term string) {
	logging.Trace("pane.search", map[string]interface{}{"pane": index, "term": term})
}

func (PaneTracer) Order(index, column int, dir string) {
	logging.Trace("pane.order", map[string]interface{}{"pane": index, "column": column, "dir": dir})
}
