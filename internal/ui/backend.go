package ui

import (
	"github.com/atomicstack/searchpanes/internal/backend"
	tea "github.com/charmbracelet/bubbletea"
)

func waitForFetch(f *backend.Fetcher) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-f.Results()
		if !ok {
			return fetchDoneMsg{}
		}
		return fetchResultMsg{result: res}
	}
}

type fetchResultMsg struct {
	result backend.Result
}

type fetchDoneMsg struct{}

func (m *Model) handleFetchResultMsg(msg tea.Msg) tea.Cmd {
	resultMsg, ok := msg.(fetchResultMsg)
	if !ok {
		return nil
	}
	m.applyFetchResult(resultMsg.result)
	if m.fetcher != nil {
		return waitForFetch(m.fetcher)
	}
	return nil
}

func (m *Model) handleFetchDoneMsg(tea.Msg) tea.Cmd {
	m.fetcher = nil
	return nil
}

func (m *Model) applyFetchResult(res backend.Result) {
	d, ok := m.grid.(deliverer)
	if !ok {
		return
	}
	if !d.Deliver(res) {
		return
	}
	if res.Err != nil {
		m.errMsg = res.Err.Error()
		return
	}
	m.errMsg = ""
	m.refreshLevels()
}
