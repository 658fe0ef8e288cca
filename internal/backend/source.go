// Package backend runs selection-aware queries against a remote data source
// off the UI goroutine and hands the results back as values.
package backend

import (
	"context"

	"github.com/atomicstack/searchpanes/internal/ledger"
	"github.com/atomicstack/searchpanes/internal/pane"
)

// DefaultPageSize is the number of rows fetched per request.
const DefaultPageSize = 200

// Request asks a source for one page of rows and per-column value counts with
// the ledger's selections applied as filters.
type Request struct {
	Seq        uint64
	Selections []ledger.Entry
	Search     string
	Start      int
	Length     int
}

// Response carries a page of rows plus the pane options for every column.
// Options[column] lists each distinct value with its count among matching
// rows and its total in the whole table.
type Response struct {
	Seq             uint64
	Columns         []string
	Rows            [][]string
	RecordsTotal    int
	RecordsFiltered int
	Options         map[int][]pane.ValueCount
}

// Result is what the fetcher publishes for each processed request.
type Result struct {
	Seq      uint64
	Response *Response
	Err      error
}

// Source answers requests.
type Source interface {
	Columns(ctx context.Context) ([]string, error)
	Query(ctx context.Context, req Request) (*Response, error)
}
