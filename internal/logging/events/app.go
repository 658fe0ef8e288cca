package events

import "github.com/atomicstack/searchpanes/internal/logging"

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Dataset(source string, rows, columns int, serverSide bool) {
	logging.Trace("app.dataset", map[string]interface{}{
		"source":     source,
		"rows":       rows,
		"columns":    columns,
		"serverSide": serverSide,
	})
}
