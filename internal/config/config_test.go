package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(nil, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Threshold != 0.6 || cfg.App.Cascade || cfg.App.ViewTotal {
		t.Fatalf("unexpected defaults %#v", cfg.App)
	}
	if cfg.Flags["threshold"] != "0.6" {
		t.Fatalf("expected threshold flag recorded, got %q", cfg.Flags["threshold"])
	}
}

func TestLoadArgsEnvironmentFallbacks(t *testing.T) {
	env := []string{
		"SEARCHPANES_DATA=fruit.csv",
		"SEARCHPANES_CASCADE=true",
		"SEARCHPANES_THRESHOLD=0.9",
		"SEARCHPANES_WIDTH=oops",
		"SEARCHPANES_TRACE=1",
		"MALFORMED",
	}
	cfg, err := LoadArgs([]string{"-view-total"}, env)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	a := cfg.App
	if a.DataPath != "fruit.csv" || !a.Cascade || !a.ViewTotal || a.Threshold != 0.9 || a.Width != 0 {
		t.Fatalf("unexpected config %#v", a)
	}
	if !cfg.Logging.Trace {
		t.Fatal("expected trace from environment")
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	cfg, err := LoadArgs([]string{"-data", "b.csv", "-threshold", "0.3"}, []string{"SEARCHPANES_DATA=a.csv"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.DataPath != "b.csv" || cfg.App.Threshold != 0.3 {
		t.Fatalf("unexpected config %#v", cfg.App)
	}
	if len(cfg.Args) != 4 {
		t.Fatalf("expected args recorded, got %v", cfg.Args)
	}
}

func TestLoadArgsRejectsBadValues(t *testing.T) {
	for _, args := range [][]string{
		{"-width", "-1"},
		{"-height", "-2"},
		{"-page-size", "-5"},
		{"-unknown"},
		{"-panes", "/does/not/exist.toml"},
	} {
		if _, err := LoadArgs(args, nil); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		args []string
		err  string
	}{
		{nil, "one of -data or -db"},
		{[]string{"-data", "a.csv", "-db", "a.db", "-table", "t"}, "mutually exclusive"},
		{[]string{"-db", "a.db"}, "requires -table"},
		{[]string{"-data", "a.csv", "-state", "s.json", "-state-db", "s.db"}, "mutually exclusive"},
		{[]string{"-data", "a.csv", "-threshold", "0"}, "threshold"},
		{[]string{"-data", "a.csv", "-threshold", "1.5"}, "threshold"},
		{[]string{"-db", "a.db", "-table", "t"}, ""},
	}
	for _, tt := range tests {
		cfg, err := LoadArgs(tt.args, nil)
		if err != nil {
			t.Fatalf("%v: load: %v", tt.args, err)
		}
		err = Validate(cfg)
		if tt.err == "" {
			if err != nil {
				t.Fatalf("%v: unexpected error %v", tt.args, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.err) {
			t.Fatalf("%v: expected error containing %q, got %v", tt.args, tt.err, err)
		}
	}
}

func writePanes(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panes.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadPaneOptions(t *testing.T) {
	path := writePanes(t, `
[[pane]]
column = "Color"
show = true
header = "Colour"
order = "count desc"
preselect = ["Red", "Blue"]

[[pane]]
column = "Size"
show = false
`)
	cfg, err := LoadArgs([]string{"-panes", path}, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	opts := cfg.App.Panes
	if len(opts) != 2 {
		t.Fatalf("expected 2 pane options, got %d", len(opts))
	}
	if opts[0].Column != "Color" || opts[0].Show == nil || !*opts[0].Show || opts[0].Header != "Colour" {
		t.Fatalf("unexpected first pane %#v", opts[0])
	}
	if opts[0].Order != "count desc" || len(opts[0].PreSelect) != 2 {
		t.Fatalf("unexpected order or pre-selection %#v", opts[0])
	}
	if opts[1].Show == nil || *opts[1].Show {
		t.Fatal("expected Size forced hidden")
	}
}

func TestLoadPaneOptionsRejectsBadInput(t *testing.T) {
	for _, body := range []string{
		"[[pane]]\nshow = true\n",
		"[[pane]]\ncolumn = \"A\"\norder = \"sideways\"\n",
		"[[pane]]\ncolumn = \"A\"\ncolour = \"x\"\n",
		"[[pane]\n",
	} {
		if _, err := LoadPaneOptions(writePanes(t, body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}
