package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/atomicstack/searchpanes/internal/app"
	"github.com/atomicstack/searchpanes/internal/pane"
)

// Config captures runtime configuration for the application.
type Config struct {
	App     app.Config
	Logging Logging
	Flags   map[string]string
	Args    []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

const (
	envData       = "SEARCHPANES_DATA"
	envDB         = "SEARCHPANES_DB"
	envTable      = "SEARCHPANES_TABLE"
	envState      = "SEARCHPANES_STATE"
	envStateDB    = "SEARCHPANES_STATE_DB"
	envStateKey   = "SEARCHPANES_STATE_KEY"
	envCascade    = "SEARCHPANES_CASCADE"
	envViewTotal  = "SEARCHPANES_VIEW_TOTAL"
	envThreshold  = "SEARCHPANES_THRESHOLD"
	envPanes      = "SEARCHPANES_PANES"
	envPageSize   = "SEARCHPANES_PAGE_SIZE"
	envWidth      = "SEARCHPANES_WIDTH"
	envHeight     = "SEARCHPANES_HEIGHT"
	envShowFooter = "SEARCHPANES_FOOTER"
	envTrace      = "SEARCHPANES_TRACE"
	envLogFile    = "SEARCHPANES_LOG_FILE"
)

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("searchpanes", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	data := fs.String("data", envOrDefault(env, envData, ""), "dataset file (.csv, .tsv, .yaml, .yml or .json)")
	db := fs.String("db", envOrDefault(env, envDB, ""), "SQLite database served remotely (selects server-side mode)")
	table := fs.String("table", envOrDefault(env, envTable, ""), "table to serve from -db")
	state := fs.String("state", envOrDefault(env, envState, ""), "JSON file holding saved selections")
	stateDB := fs.String("state-db", envOrDefault(env, envStateDB, ""), "SQLite database holding saved selections")
	stateKey := fs.String("state-key", envOrDefault(env, envStateKey, ""), "name of the saved state in -state-db")
	cascade := fs.Bool("cascade", envOrBool(env, envCascade, false), "hide values no visible row carries")
	viewTotal := fs.Bool("view-total", envOrBool(env, envViewTotal, false), "show \"count (total)\" badges while filtering")
	threshold := fs.Float64("threshold", envOrFloat(env, envThreshold, pane.DefaultThreshold), "hide panes whose distinct/rows ratio exceeds this")
	panes := fs.String("panes", envOrDefault(env, envPanes, ""), "TOML file with per-column pane options")
	pageSize := fs.Int("page-size", envOrInt(env, envPageSize, 0), "rows fetched per server request (0 uses the default)")
	width := fs.Int("width", envOrInt(env, envWidth, 0), "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, 0), "desired viewport height in rows (0 uses terminal height)")
	footer := fs.Bool("footer", envOrBool(env, envShowFooter, false), "enable footer hint row (disabled by default)")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *width < 0 {
		return Config{}, fmt.Errorf("width must be >= 0 (got %d)", *width)
	}
	if *height < 0 {
		return Config{}, fmt.Errorf("height must be >= 0 (got %d)", *height)
	}
	if *pageSize < 0 {
		return Config{}, fmt.Errorf("page-size must be >= 0 (got %d)", *pageSize)
	}

	var paneOpts []app.PaneOptions
	if *panes != "" {
		opts, err := LoadPaneOptions(*panes)
		if err != nil {
			return Config{}, err
		}
		paneOpts = opts
	}

	cfg := Config{
		App: app.Config{
			DataPath:   *data,
			DBPath:     *db,
			Table:      *table,
			StatePath:  *state,
			StateDB:    *stateDB,
			StateKey:   *stateKey,
			Cascade:    *cascade,
			ViewTotal:  *viewTotal,
			Threshold:  *threshold,
			Panes:      paneOpts,
			PageSize:   *pageSize,
			Width:      *width,
			Height:     *height,
			ShowFooter: *footer,
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Flags: map[string]string{
			"data":      *data,
			"db":        *db,
			"table":     *table,
			"state":     *state,
			"stateDB":   *stateDB,
			"stateKey":  *stateKey,
			"cascade":   strconv.FormatBool(*cascade),
			"viewTotal": strconv.FormatBool(*viewTotal),
			"threshold": strconv.FormatFloat(*threshold, 'g', -1, 64),
			"panes":     *panes,
			"pageSize":  strconv.Itoa(*pageSize),
			"width":     strconv.Itoa(*width),
			"height":    strconv.Itoa(*height),
			"footer":    strconv.FormatBool(*footer),
			"trace":     strconv.FormatBool(*trace),
			"logFile":   *logFile,
		},
		Args: append([]string(nil), args...),
	}

	return cfg, nil
}

type paneFile struct {
	Pane []app.PaneOptions `toml:"pane"`
}

// LoadPaneOptions reads per-column pane options:
//
//	[[pane]]
//	column = "Color"
//	show = true
//	header = "Colour"
//	order = "count desc"
//	preselect = ["Red"]
func LoadPaneOptions(path string) ([]app.PaneOptions, error) {
	var file paneFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("read pane options %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("read pane options %s: unknown key %s", path, undecoded[0])
	}
	for i, opt := range file.Pane {
		if strings.TrimSpace(opt.Column) == "" {
			return nil, fmt.Errorf("read pane options %s: pane %d has no column", path, i)
		}
		if opt.Order != "" {
			if _, err := pane.ParseOrder(opt.Order); err != nil {
				return nil, fmt.Errorf("read pane options %s: %w", path, err)
			}
		}
	}
	return file.Pane, nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrFloat(env map[string]string, key string, fallback float64) float64 {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate ensures exactly one data source is configured and options are in
// range.
func Validate(cfg Config) error {
	a := cfg.App
	switch {
	case a.DataPath == "" && a.DBPath == "":
		return errors.New("one of -data or -db is required")
	case a.DataPath != "" && a.DBPath != "":
		return errors.New("-data and -db are mutually exclusive")
	case a.DBPath != "" && a.Table == "":
		return errors.New("-db requires -table")
	case a.StatePath != "" && a.StateDB != "":
		return errors.New("-state and -state-db are mutually exclusive")
	case a.Threshold <= 0 || a.Threshold > 1:
		return fmt.Errorf("threshold must be in (0, 1] (got %g)", a.Threshold)
	}
	return nil
}
