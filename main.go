package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/atomicstack/searchpanes/internal/app"
	"github.com/atomicstack/searchpanes/internal/config"
	"github.com/atomicstack/searchpanes/internal/logging"
	"github.com/atomicstack/searchpanes/internal/logging/events"
	"github.com/atomicstack/searchpanes/internal/pane"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("searchpanes needs a terminal on stdout")

func main() {
	runtimeCfg := config.MustLoad()
	if err := config.Validate(runtimeCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(runtimeCfg.Logging.FilePath)
	logging.SetTraceEnabled(runtimeCfg.Logging.Trace)

	screen := detectScreen(os.Stdin.Fd(), os.Stdout.Fd())
	events.App.Start(startupTracePayload(runtimeCfg, screen))
	if err := screen.usable(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := app.Run(runtimeCfg.App); err != nil {
		logging.Error(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// startupTracePayload records what the session will browse and how.
func startupTracePayload(cfg config.Config, screen screenInfo) map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Flags)+2)
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath
	return map[string]interface{}{
		"argv":    cfg.Args,
		"flags":   flags,
		"session": describeSession(cfg.App),
		"screen":  screen,
	}
}

// describeSession summarises the data source, reconciliation mode and pane
// setup of cfg.
func describeSession(cfg app.Config) map[string]interface{} {
	out := map[string]interface{}{
		"strategy":  pane.StrategyFor(cfg.Cascade, cfg.ViewTotal).String(),
		"threshold": cfg.Threshold,
	}
	if cfg.DBPath != "" {
		out["mode"] = "server"
		out["source"] = cfg.DBPath
		out["table"] = cfg.Table
		out["pageSize"] = cfg.PageSize
	} else {
		out["mode"] = "client"
		out["source"] = cfg.DataPath
	}
	switch {
	case cfg.StateDB != "":
		out["state"] = "sqlite:" + cfg.StateDB
	case cfg.StatePath != "":
		out["state"] = "file:" + cfg.StatePath
	default:
		out["state"] = "none"
	}
	if len(cfg.Panes) > 0 {
		preselect := map[string]int{}
		for _, po := range cfg.Panes {
			if len(po.PreSelect) > 0 {
				preselect[po.Column] = len(po.PreSelect)
			}
		}
		out["paneOptions"] = len(cfg.Panes)
		out["preselect"] = preselect
	}
	return out
}

// screenInfo is what the UI can expect from the controlling terminal.
type screenInfo struct {
	Input  bool   `json:"input"`
	Output bool   `json:"output"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

func detectScreen(in, out uintptr) screenInfo {
	info := screenInfo{
		Input:  term.IsTerminal(int(in)),
		Output: term.IsTerminal(int(out)),
	}
	if !info.Output {
		return info
	}
	width, height, err := term.GetSize(int(out))
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Width, info.Height = width, height
	return info
}

// usable reports whether the pane grid can be drawn. Input may be piped; the
// grid still needs a terminal to draw on.
func (s screenInfo) usable() error {
	if !s.Output {
		return errNoTerminal
	}
	return nil
}
