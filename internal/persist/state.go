// Package persist saves and restores pane selections, search terms and
// orders alongside the grid state.
package persist

import (
	"encoding/json"
	"fmt"

	"github.com/atomicstack/searchpanes/internal/engine"
	"github.com/atomicstack/searchpanes/internal/grid"
	"github.com/atomicstack/searchpanes/internal/ledger"
	"github.com/atomicstack/searchpanes/internal/logging/events"
	"github.com/atomicstack/searchpanes/internal/pane"
)

// StateKey is the grid state key holding the pane block.
const StateKey = "searchPanes"

// PaneState is the saved view of one pane.
type PaneState struct {
	ID         int        `json:"id"`
	SearchTerm string     `json:"searchTerm"`
	Order      pane.Order `json:"order"`
}

// Block is the saved pane state.
type Block struct {
	SelectionList []ledger.Entry `json:"selectionList"`
	Panes         []PaneState    `json:"panes"`
}

// Decode parses a block. Malformed input yields an empty block and the
// decode error.
func Decode(raw json.RawMessage) (Block, error) {
	var block Block
	if len(raw) == 0 {
		return block, nil
	}
	if err := json.Unmarshal(raw, &block); err != nil {
		return Block{}, fmt.Errorf("decode pane state: %w", err)
	}
	return block, nil
}

// Adapter connects an engine to its host's save and load events.
type Adapter struct {
	host   engine.Host
	engine *engine.Engine
	subs   []string
}

// Attach subscribes the adapter to host state events.
func Attach(host engine.Host, eng *engine.Engine) *Adapter {
	a := &Adapter{host: host, engine: eng}
	a.subs = append(a.subs,
		host.Subscribe(grid.EventStateSave, func(evt grid.Event) { a.Save(evt.State) }),
		host.Subscribe(grid.EventStateLoad, func(evt grid.Event) { a.Load(evt.State[StateKey]) }),
	)
	return a
}

// Detach removes the adapter's subscriptions.
func (a *Adapter) Detach() {
	for _, id := range a.subs {
		a.host.Unsubscribe(id)
	}
	a.subs = nil
}

// Snapshot captures the engine's current pane state.
func (a *Adapter) Snapshot() Block {
	block := Block{SelectionList: a.engine.Ledger().Entries()}
	if block.SelectionList == nil {
		block.SelectionList = []ledger.Entry{}
	}
	for _, p := range a.engine.Panes() {
		block.Panes = append(block.Panes, PaneState{ID: p.Index, SearchTerm: p.SearchTerm(), Order: p.Order()})
	}
	return block
}

// Save writes the pane block into state.
func (a *Adapter) Save(state grid.State) {
	if state == nil {
		return
	}
	block := a.Snapshot()
	raw, err := json.Marshal(block)
	if err != nil {
		events.State.Malformed(err)
		return
	}
	state[StateKey] = raw
	events.State.Save(len(block.SelectionList), len(block.Panes))
}

// Load restores a pane block. A missing or malformed block restores an empty
// selection.
func (a *Adapter) Load(raw json.RawMessage) {
	block, err := Decode(raw)
	if err != nil {
		events.State.Malformed(err)
	}
	for _, ps := range block.Panes {
		p := a.engine.Pane(ps.ID)
		if p == nil {
			continue
		}
		p.SetSearchTerm(ps.SearchTerm)
		p.SetOrder(ps.Order)
	}
	events.State.Load(len(block.SelectionList), len(block.Panes))
	a.engine.Load(block.SelectionList)
}
