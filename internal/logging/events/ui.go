package events

import "github.com/atomicstack/searchpanes/internal/logging"

type UITracer struct{}

type FilterTracer struct{}

type ActionTracer struct{}

var (
	UI     = UITracer{}
	Filter = FilterTracer{}
	Action = ActionTracer{}
)

func (UITracer) Focus(pane int) {
	logging.Trace("ui.focus", map[string]interface{}{"pane": pane})
}

func (UITracer) Cursor(pane, cursor int) {
	logging.Trace("ui.cursor", map[string]interface{}{"pane": pane, "cursor": cursor})
}

func (UITracer) Toggle(pane int, key string) {
	logging.Trace("ui.toggle", map[string]interface{}{"pane": pane, "key": key})
}

func (ActionTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
}

func (ActionTracer) Success(info string) {
	logging.Trace("action.success", map[string]interface{}{"info": info})
}

func (FilterTracer) Cleared(pane int) {
	logging.Trace("filter.clear", map[string]interface{}{"pane": pane})
}

func (FilterTracer) WordBackspace(pane int, filter string) {
	logging.Trace("filter.word-backspace", map[string]interface{}{"pane": pane, "filter": filter})
}

func (FilterTracer) Cursor(pane, pos int) {
	logging.Trace("filter.cursor", map[string]interface{}{"pane": pane, "cursor": pos})
}

func (FilterTracer) Append(pane int, filter string) {
	logging.Trace("filter.append", map[string]interface{}{"pane": pane, "filter": filter})
}

func (FilterTracer) Backspace(pane int, filter string) {
	logging.Trace("filter.backspace", map[string]interface{}{"pane": pane, "filter": filter})
}

func (FilterTracer) Global(term string) {
	logging.Trace("filter.global", map[string]interface{}{"term": term})
}
