package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/searchpanes/internal/backend"
	"github.com/atomicstack/searchpanes/internal/dataset"
	"github.com/atomicstack/searchpanes/internal/engine"
	"github.com/atomicstack/searchpanes/internal/grid"
	"github.com/atomicstack/searchpanes/internal/ledger"
	"github.com/atomicstack/searchpanes/internal/logging"
	"github.com/atomicstack/searchpanes/internal/logging/events"
	"github.com/atomicstack/searchpanes/internal/pane"
	"github.com/atomicstack/searchpanes/internal/persist"
	"github.com/atomicstack/searchpanes/internal/ui"
)

// fetchInterval spaces successive remote queries.
const fetchInterval = 50 * time.Millisecond

// Config describes user-provided application options.
type Config struct {
	DataPath  string
	DBPath    string
	Table     string
	StatePath string
	StateDB   string
	StateKey  string
	Cascade   bool
	ViewTotal bool
	Threshold float64
	Panes     []PaneOptions
	PageSize  int

	Width      int
	Height     int
	ShowFooter bool
}

// PaneOptions customise the pane of one column, matched by name.
type PaneOptions struct {
	Column    string   `toml:"column"`
	Show      *bool    `toml:"show"`
	Header    string   `toml:"header"`
	Order     string   `toml:"order"`
	PreSelect []string `toml:"preselect"`
}

// Session is a grid wired to its engine, state store and data source.
type Session struct {
	Engine  *engine.Engine
	Grid    ui.Grid
	Table   *grid.Table
	Server  *grid.Server
	Fetcher *backend.Fetcher
	Store   persist.Store
	Adapter *persist.Adapter

	closers []func() error
}

// Open loads the data source, builds the engine, restores saved state and
// initialises the grid. Server-side sessions start their first fetch.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	s := &Session{}
	var columns []string
	switch {
	case cfg.DBPath != "":
		src, err := backend.OpenSQLite(ctx, cfg.DBPath, cfg.Table)
		if err != nil {
			return nil, fmt.Errorf("open remote source: %w", err)
		}
		s.closers = append(s.closers, src.Close)
		columns, err = src.Columns(ctx)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("read columns: %w", err)
		}
		s.Fetcher = backend.NewFetcher(src, fetchInterval)
		s.closers = append(s.closers, func() error {
			s.Fetcher.Stop()
			s.Fetcher.Wait()
			return nil
		})
		s.Server = grid.NewServer(columns, s.Fetcher, cfg.PageSize)
		s.Grid = s.Server
		events.App.Dataset(cfg.DBPath+"#"+cfg.Table, 0, len(columns), true)
	case cfg.DataPath != "":
		ds, err := dataset.Load(cfg.DataPath)
		if err != nil {
			return nil, err
		}
		columns = ds.Columns
		s.Table = grid.NewTable(ds.Columns, ds.Rows)
		s.Grid = s.Table
		events.App.Dataset(cfg.DataPath, len(ds.Rows), len(ds.Columns), false)
	default:
		return nil, errors.New("no data source configured")
	}

	opts, err := engineOptions(cfg, columns)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Engine = engine.New(s.Grid, opts)
	s.Adapter = persist.Attach(s.Grid, s.Engine)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	if closeStore != nil {
		s.closers = append(s.closers, closeStore)
	}
	s.Store = store
	if store != nil {
		data, err := store.Load(ctx)
		if err != nil {
			logging.Error(err)
		} else if data != nil {
			s.Grid.LoadState(data)
		}
	}

	s.Grid.Init()
	return s, nil
}

// Close releases the data source and state store.
func (s *Session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg Config) (persist.Store, func() error, error) {
	switch {
	case cfg.StateDB != "":
		store, err := persist.OpenSQLiteStore(ctx, cfg.StateDB, cfg.StateKey)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case cfg.StatePath != "":
		return persist.FileStore{Path: cfg.StatePath}, nil, nil
	default:
		return nil, nil, nil
	}
}

// engineOptions resolves per-column options by column name.
func engineOptions(cfg Config, columns []string) (engine.Options, error) {
	opts := engine.Options{
		Strategy:  pane.StrategyFor(cfg.Cascade, cfg.ViewTotal),
		Threshold: cfg.Threshold,
		Columns:   map[int]engine.ColumnOptions{},
	}
	for _, po := range cfg.Panes {
		index := columnIndex(columns, po.Column)
		if index < 0 {
			return engine.Options{}, fmt.Errorf("pane options: unknown column %q", po.Column)
		}
		col := engine.ColumnOptions{Show: po.Show, Header: po.Header}
		if po.Order != "" {
			order, err := pane.ParseOrder(po.Order)
			if err != nil {
				return engine.Options{}, fmt.Errorf("pane options for %s: %w", po.Column, err)
			}
			col.Order = order
		}
		opts.Columns[index] = col
		if len(po.PreSelect) > 0 {
			opts.PreSelect = append(opts.PreSelect, ledger.Entry{Column: index, Rows: po.PreSelect})
		}
	}
	return opts, nil
}

func columnIndex(columns []string, name string) int {
	for i, col := range columns {
		if col == name {
			return i
		}
	}
	for i, col := range columns {
		if strings.EqualFold(col, name) {
			return i
		}
	}
	return -1
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	ctx := context.Background()
	session, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	model := ui.NewModel(ui.Options{
		Engine:     session.Engine,
		Grid:       session.Grid,
		Store:      session.Store,
		Fetcher:    session.Fetcher,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ShowFooter: cfg.ShowFooter,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
