package app

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/atomicstack/searchpanes/internal/backend"
)

var fruitColumns = []string{"Color", "Size"}

var fruitRows = [][]string{
	{"Red", "S"},
	{"Red", "M"},
	{"Blue", "S"},
	{"Green", "L"},
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fruit.csv")
	data := "Color,Size\nRed,S\nRed,M\nBlue,S\nGreen,L\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestOpenClientRestoresSavedState(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		DataPath:  writeCSV(t),
		StatePath: filepath.Join(t.TempDir(), "state.json"),
		Threshold: 1,
	}
	session, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if session.Table == nil || session.Fetcher != nil {
		t.Fatal("expected a client-side session")
	}
	session.Engine.Pane(0).Select("Blue")
	data, err := session.Grid.SaveState().Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := session.Store.Save(ctx, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if n := reopened.Engine.FilterCount(); n != 1 {
		t.Fatalf("expected restored filter, got %d", n)
	}
	if want := []int{2}; !reflect.DeepEqual(reopened.Table.VisibleRows(), want) {
		t.Fatalf("expected Blue row %v, got %v", want, reopened.Table.VisibleRows())
	}
}

func TestOpenPreSelectsByColumnName(t *testing.T) {
	session, err := Open(context.Background(), Config{
		DataPath:  writeCSV(t),
		Threshold: 1,
		Panes:     []PaneOptions{{Column: "color", PreSelect: []string{"Red"}, Order: "count desc"}},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer session.Close()
	if want := []int{0, 1}; !reflect.DeepEqual(session.Table.VisibleRows(), want) {
		t.Fatalf("expected Red rows %v, got %v", want, session.Table.VisibleRows())
	}
	if order := session.Engine.Pane(0).Order().String(); order != "count desc" {
		t.Fatalf("expected count desc order, got %s", order)
	}
}

func TestOpenRejectsBadPaneOptions(t *testing.T) {
	path := writeCSV(t)
	cases := []PaneOptions{
		{Column: "Weight"},
		{Column: "Color", Order: "sideways"},
	}
	for _, po := range cases {
		if _, err := Open(context.Background(), Config{DataPath: path, Threshold: 1, Panes: []PaneOptions{po}}); err == nil {
			t.Fatalf("expected error for %#v", po)
		}
	}
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without a data source")
	}
}

func TestOpenServerSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fruit.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := backend.Seed(ctx, db, "fruit", fruitColumns, fruitRows); err != nil {
		t.Fatalf("seed: %v", err)
	}
	db.Close()

	session, err := Open(ctx, Config{
		DBPath:    path,
		Table:     "fruit",
		StateDB:   filepath.Join(t.TempDir(), "state.db"),
		Threshold: 1,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer session.Close()
	if session.Server == nil || session.Fetcher == nil {
		t.Fatal("expected a server-side session")
	}

	select {
	case res := <-session.Fetcher.Results():
		if !session.Server.Deliver(res) {
			t.Fatal("expected first result accepted")
		}
		if res.Err != nil {
			t.Fatalf("fetch: %v", res.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first fetch")
	}
	if got := session.Engine.Pane(0).Keys(); !reflect.DeepEqual(got, []string{"Blue", "Green", "Red"}) {
		t.Fatalf("expected server values, got %v", got)
	}
	if total, filtered := session.Server.Records(); total != 4 || filtered != 4 {
		t.Fatalf("unexpected records %d/%d", total, filtered)
	}
}
